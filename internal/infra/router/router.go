/*
 * @Description: 路由注册
 * @Date: 2025-06-15 11:30:55
 */
package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/anzhiyu-c/anheyu-social/internal/app/middleware"
	inbox_handler "github.com/anzhiyu-c/anheyu-social/pkg/handler/inbox"
	like_handler "github.com/anzhiyu-c/anheyu-social/pkg/handler/like"
	system_handler "github.com/anzhiyu-c/anheyu-social/pkg/handler/system"
	"github.com/anzhiyu-c/anheyu-social/pkg/response"
)

// NoCacheMiddleware 访客状态接口的响应都带有个体数据，禁止 CDN 缓存
func NoCacheMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Cache-Control", "no-cache, no-store, must-revalidate, private, max-age=0")
		c.Header("Pragma", "no-cache")
		c.Header("Expires", "0")
		c.Header("X-Content-Type-Options", "nosniff")
		c.Next()
	}
}

// Router 封装了应用的所有路由和其依赖的处理器与中间件。
type Router struct {
	postLikeHandler    *like_handler.Handler
	commentLikeHandler *like_handler.Handler
	inboxHandler       *inbox_handler.Handler
	systemHandler      *system_handler.Handler

	likeThrottle gin.HandlerFunc
	readThrottle gin.HandlerFunc
	metrics      *middleware.HTTPMetrics
	gatherer     prometheus.Gatherer
}

// Dependencies 路由依赖
type Dependencies struct {
	PostLikeHandler    *like_handler.Handler
	CommentLikeHandler *like_handler.Handler
	InboxHandler       *inbox_handler.Handler
	SystemHandler      *system_handler.Handler

	// LikeThrottle 点赞写接口共享的滑动窗口限流
	LikeThrottle gin.HandlerFunc
	// ReadThrottle 只读接口的令牌桶限流，可以为 nil
	ReadThrottle gin.HandlerFunc
	Metrics      *middleware.HTTPMetrics
	// Gatherer 为 nil 时不挂载 /metrics
	Gatherer prometheus.Gatherer
}

// NewRouter 是 Router 的构造函数
func NewRouter(deps Dependencies) *Router {
	return &Router{
		postLikeHandler:    deps.PostLikeHandler,
		commentLikeHandler: deps.CommentLikeHandler,
		inboxHandler:       deps.InboxHandler,
		systemHandler:      deps.SystemHandler,
		likeThrottle:       deps.LikeThrottle,
		readThrottle:       deps.ReadThrottle,
		metrics:            deps.Metrics,
		gatherer:           deps.Gatherer,
	}
}

// Setup 将所有路由注册到 Gin 引擎上
func (r *Router) Setup(engine *gin.Engine) {
	engine.Use(r.metrics.Handler())

	if r.gatherer != nil {
		engine.GET("/metrics", gin.WrapH(promhttp.HandlerFor(r.gatherer, promhttp.HandlerOpts{})))
	}

	engine.NoRoute(func(c *gin.Context) {
		response.Fail(c, http.StatusNotFound, "Not found")
	})

	apiGroup := engine.Group("/api")
	apiGroup.Use(NoCacheMiddleware())

	apiGroup.GET("/healthz", r.systemHandler.Health)
	apiGroup.GET("/version", r.systemHandler.GetVersion)

	r.registerLikeRoutes(apiGroup)
	r.registerInboxRoutes(apiGroup)
}

func (r *Router) registerLikeRoutes(api *gin.RouterGroup) {
	read := r.readChain()

	likes := api.Group("/likes")
	{
		likes.GET("/:entityId", append(read, r.postLikeHandler.GetStatus)...)
		likes.POST("/:entityId", r.likeThrottle, r.postLikeHandler.Toggle)
	}

	comments := api.Group("/comments")
	{
		comments.GET("/:commentId/likes", append(read, r.commentLikeHandler.GetStatus)...)
		comments.POST("/:commentId/likes", r.likeThrottle, r.commentLikeHandler.Toggle)
	}
}

func (r *Router) registerInboxRoutes(api *gin.RouterGroup) {
	read := r.readChain()

	inbox := api.Group("/inbox")
	{
		inbox.GET("/unread-count", append(read, r.inboxHandler.GetUnreadCount)...)
		inbox.GET("/:chatId/read", append(read, r.inboxHandler.GetReadStatus)...)
		inbox.POST("/:chatId/read", r.inboxHandler.MarkRead)
	}
}

// readChain 返回只读接口前置的中间件，每次返回新切片避免 append 共享底层数组
func (r *Router) readChain() []gin.HandlerFunc {
	if r.readThrottle == nil {
		return []gin.HandlerFunc{}
	}
	return []gin.HandlerFunc{r.readThrottle}
}
