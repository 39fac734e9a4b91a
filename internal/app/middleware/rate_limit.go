/*
 * @Description: 频率限制中间件
 * @Date: 2025-11-08 00:00:00
 */
package middleware

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/anzhiyu-c/anheyu-social/pkg/response"
	"github.com/anzhiyu-c/anheyu-social/pkg/service/ratelimit"
	"github.com/anzhiyu-c/anheyu-social/pkg/util"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const (
	// DefaultStaleAfter 超过该时间未访问的 IP 限流器会被清理
	DefaultStaleAfter = 10 * time.Minute

	tooManyRequests = "Too many requests"
)

// IPRateLimiter 进程内按 IP 的令牌桶，只用于只读接口的防刷
type IPRateLimiter struct {
	limiters map[string]*limiterInfo
	mu       sync.Mutex
	// 每个IP每分钟允许的请求数
	requestsPerMinute int
	// 突发请求数
	burst int
	now   func() time.Time
}

// limiterInfo 存储限流器及其最后访问时间
type limiterInfo struct {
	limiter      *rate.Limiter
	lastAccessed time.Time
}

// NewIPRateLimiter 创建一个新的IP限流器；过期条目由调度器调用 CleanupStale 清理
func NewIPRateLimiter(requestsPerMinute, burst int) *IPRateLimiter {
	if requestsPerMinute <= 0 {
		requestsPerMinute = 120
	}
	if burst <= 0 {
		burst = requestsPerMinute
	}
	return &IPRateLimiter{
		limiters:          make(map[string]*limiterInfo),
		requestsPerMinute: requestsPerMinute,
		burst:             burst,
		now:               time.Now,
	}
}

// getLimiter 获取指定IP的限流器
func (i *IPRateLimiter) getLimiter(ip string) *rate.Limiter {
	i.mu.Lock()
	defer i.mu.Unlock()

	info, exists := i.limiters[ip]
	if !exists {
		limiter := rate.NewLimiter(rate.Every(time.Minute/time.Duration(i.requestsPerMinute)), i.burst)
		info = &limiterInfo{limiter: limiter}
		i.limiters[ip] = info
	}
	info.lastAccessed = i.now()

	return info.limiter
}

// CleanupStale 删除超过 maxIdle 未访问的限流器，返回删除数量
func (i *IPRateLimiter) CleanupStale(maxIdle time.Duration) int {
	i.mu.Lock()
	defer i.mu.Unlock()

	removed := 0
	now := i.now()
	for ip, info := range i.limiters {
		if now.Sub(info.lastAccessed) > maxIdle {
			delete(i.limiters, ip)
			removed++
		}
	}
	return removed
}

// Size 当前跟踪的 IP 数量
func (i *IPRateLimiter) Size() int {
	i.mu.Lock()
	defer i.mu.Unlock()
	return len(i.limiters)
}

// ReadRateLimit 只读接口的频率限制中间件
func ReadRateLimit(limiter *IPRateLimiter, metrics *HTTPMetrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !limiter.getLimiter(util.GetClientKey(c)).Allow() {
			metrics.observeThrottled("read")
			response.Fail(c, http.StatusTooManyRequests, tooManyRequests)
			return
		}

		c.Next()
	}
}

// SlidingWindowRateLimit 写接口的滑动窗口限流，所有实例共享同一个 KV 存储中的窗口。
// 超限返回 429 且不会进入后续处理器；存储故障返回 500。
func SlidingWindowRateLimit(limiter *ratelimit.Limiter, metrics *HTTPMetrics, log *zap.Logger) gin.HandlerFunc {
	if log == nil {
		log = zap.NewNop()
	}

	return func(c *gin.Context) {
		key := util.GetClientKey(c)

		res, err := limiter.Limit(c.Request.Context(), key)
		if err != nil {
			log.Error("rate limit check failed", zap.String("identifier", key), zap.Error(err))
			response.Error(c, err)
			return
		}

		applyRateLimitHeaders(c, res)

		if !res.Allowed {
			metrics.observeThrottled("like")
			response.Fail(c, http.StatusTooManyRequests, tooManyRequests)
			return
		}

		c.Next()
	}
}

// applyRateLimitHeaders X-RateLimit-Reset 为毫秒时间戳
func applyRateLimitHeaders(c *gin.Context, res ratelimit.Result) {
	headers := c.Writer.Header()
	headers.Set("X-RateLimit-Limit", strconv.Itoa(res.Limit))
	headers.Set("X-RateLimit-Remaining", strconv.Itoa(res.Remaining))
	headers.Set("X-RateLimit-Reset", strconv.FormatInt(res.ResetAt.UnixMilli(), 10))
}
