// pkg/util/ip.go
package util

import (
	"strings"

	"github.com/gin-gonic/gin"
)

// LoopbackFallback 无法从请求头确定客户端时使用的固定键
const LoopbackFallback = "127.0.0.1"

// GetClientKey 获取用于限流的客户端标识
// 优先级：X-Forwarded-For 第一跳 > X-Real-IP > 127.0.0.1
// X-Forwarded-For 可以被客户端伪造，这里按惯例信任第一跳。
func GetClientKey(c *gin.Context) string {
	if xff := c.GetHeader("X-Forwarded-For"); xff != "" {
		// 格式：client, proxy1, proxy2
		if first := strings.TrimSpace(strings.Split(xff, ",")[0]); first != "" {
			return first
		}
	}

	if realIP := strings.TrimSpace(c.GetHeader("X-Real-IP")); realIP != "" {
		return realIP
	}

	return LoopbackFallback
}

