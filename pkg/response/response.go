/*
 * @Description: 统一的 JSON 响应
 * @Date: 2025-06-15 12:16:18
 */
package response

import (
	"errors"
	"net/http"

	"github.com/anzhiyu-c/anheyu-social/pkg/constant"

	"github.com/gin-gonic/gin"
)

// ErrorBody 错误响应体
type ErrorBody struct {
	Error string `json:"error"`
}

// Success 成功响应，直接返回数据本身
func Success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, data)
}

// Fail 失败响应
func Fail(c *gin.Context, code int, message string) {
	c.AbortWithStatusJSON(code, ErrorBody{Error: message})
}

// StatusFor 把业务错误映射为 HTTP 状态码和对外消息，不暴露内部细节
func StatusFor(err error) (int, string) {
	switch {
	case errors.Is(err, constant.ErrInvalidAction):
		return http.StatusBadRequest, "Invalid action"
	case errors.Is(err, constant.ErrInvalidEntity):
		return http.StatusBadRequest, "Invalid id"
	case errors.Is(err, constant.ErrInvalidTimestamp):
		return http.StatusBadRequest, "Invalid latestMessageTime"
	case errors.Is(err, constant.ErrBadRequest):
		return http.StatusBadRequest, "Bad request"
	case errors.Is(err, constant.ErrRateLimited):
		return http.StatusTooManyRequests, "Too many requests"
	default:
		return http.StatusInternalServerError, "Internal server error"
	}
}

// Error 按 StatusFor 的映射写出错误响应
func Error(c *gin.Context, err error) {
	code, message := StatusFor(err)
	_ = c.Error(err)
	Fail(c, code, message)
}
