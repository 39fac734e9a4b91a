/*
 * @Description: 匿名访客标识（基于长期 Cookie）
 * @Date: 2025-11-02 10:12:40
 */
package visitor

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	// CookieName 访客 Cookie 名称
	CookieName = "visitorId"
	// CookieMaxAge 一年
	CookieMaxAge = 365 * 24 * 60 * 60
	// maxIDLength 超过该长度的 Cookie 值视为无效
	maxIDLength = 128
)

// Service 负责读取或签发访客标识。
// 访客标识只作为存储键的一部分使用，服务端不保存任何访客记录。
type Service struct {
	secure bool
	newID  func() string
}

// NewService 创建访客服务，secure 为 true 时 Cookie 带 Secure 标记（生产环境）
func NewService(secure bool) *Service {
	return &Service{
		secure: secure,
		newID:  uuid.NewString,
	}
}

// Read 只读取已有访客标识，不会创建新的标识
func (s *Service) Read(c *gin.Context) (string, bool) {
	id, err := c.Cookie(CookieName)
	if err != nil {
		return "", false
	}
	id = strings.TrimSpace(id)
	if id == "" || len(id) > maxIDLength {
		return "", false
	}
	return id, true
}

// GetOrCreate 返回访客标识；没有有效 Cookie 时生成新的 UUID 并写入响应 Cookie。
// created 表示本次请求是否签发了新的标识，仅应在变更类请求中调用。
func (s *Service) GetOrCreate(c *gin.Context) (id string, created bool) {
	if id, ok := s.Read(c); ok {
		return id, false
	}

	id = s.newID()
	http.SetCookie(c.Writer, &http.Cookie{
		Name:     CookieName,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
		Secure:   s.secure || c.Request.TLS != nil,
		MaxAge:   CookieMaxAge,
		Expires:  time.Now().Add(CookieMaxAge * time.Second),
		SameSite: http.SameSiteLaxMode,
	})
	return id, true
}
