package system

import (
	"github.com/anzhiyu-c/anheyu-social/internal/pkg/version"
	"github.com/anzhiyu-c/anheyu-social/pkg/response"
	"github.com/anzhiyu-c/anheyu-social/pkg/service/utility"

	"github.com/gin-gonic/gin"
)

// Handler 健康检查与版本信息
type Handler struct {
	store utility.CacheService
}

func NewHandler(store utility.CacheService) *Handler {
	return &Handler{store: store}
}

// HealthResponse 健康检查结果
type HealthResponse struct {
	Status  string `json:"status"`
	Store   string `json:"store"`
	Version string `json:"version"`
}

// Health
// @Summary      健康检查
// @Description  返回当前使用的存储类型（redis / memory）
// @Tags         系统
// @Produce      json
// @Success      200 {object} HealthResponse
// @Router       /healthz [get]
func (h *Handler) Health(c *gin.Context) {
	c.Header("Cache-Control", "no-store")
	response.Success(c, HealthResponse{
		Status:  "ok",
		Store:   string(utility.GetCacheServiceType(h.store)),
		Version: version.GetBuildInfo().Version,
	})
}

// GetVersion
// @Summary      获取版本信息
// @Tags         系统
// @Produce      json
// @Success      200 {object} version.BuildInfo
// @Router       /version [get]
func (h *Handler) GetVersion(c *gin.Context) {
	c.Header("Cache-Control", "no-cache, no-store, must-revalidate, private, max-age=0")
	response.Success(c, version.GetBuildInfo())
}
