/*
 * @Description: 应用装配与生命周期
 * @Date: 2025-10-17 10:35:28
 */
// anheyu-social/cmd/server/app.go
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/anzhiyu-c/anheyu-social/internal/app/listener"
	"github.com/anzhiyu-c/anheyu-social/internal/app/middleware"
	"github.com/anzhiyu-c/anheyu-social/internal/app/task"
	"github.com/anzhiyu-c/anheyu-social/internal/infra/logger"
	"github.com/anzhiyu-c/anheyu-social/internal/infra/persistence/database"
	"github.com/anzhiyu-c/anheyu-social/internal/infra/router"
	"github.com/anzhiyu-c/anheyu-social/internal/pkg/event"
	"github.com/anzhiyu-c/anheyu-social/internal/pkg/version"
	"github.com/anzhiyu-c/anheyu-social/pkg/config"
	inbox_handler "github.com/anzhiyu-c/anheyu-social/pkg/handler/inbox"
	like_handler "github.com/anzhiyu-c/anheyu-social/pkg/handler/like"
	system_handler "github.com/anzhiyu-c/anheyu-social/pkg/handler/system"
	inbox_service "github.com/anzhiyu-c/anheyu-social/pkg/service/inbox"
	like_service "github.com/anzhiyu-c/anheyu-social/pkg/service/like"
	"github.com/anzhiyu-c/anheyu-social/pkg/service/ratelimit"
	"github.com/anzhiyu-c/anheyu-social/pkg/service/revalidate"
	"github.com/anzhiyu-c/anheyu-social/pkg/service/utility"
	"github.com/anzhiyu-c/anheyu-social/pkg/service/visitor"
)

const shutdownTimeout = 10 * time.Second

// App 结构体，用于封装应用的所有核心组件
type App struct {
	cfg         *config.Config
	logger      *zap.Logger
	engine      *gin.Engine
	scheduler   *task.Scheduler
	eventBus    *event.EventBus
	redisClient *redis.Client
	cacheSvc    utility.CacheService
}

// NewApp 是应用的构造函数，它执行所有的初始化和依赖注入工作。
// bootLogger 只用于配置加载阶段，之后按配置重新创建日志
func NewApp(ctx context.Context, configPath string, bootLogger *zap.Logger) (*App, error) {
	// --- Phase 1: 加载配置与日志 ---
	cfg, err := config.Load(configPath, bootLogger)
	if err != nil {
		return nil, fmt.Errorf("加载配置失败: %w", err)
	}

	appLogger, err := logger.New(cfg.GetString(config.KeyServerEnv), cfg.GetBool(config.KeyServerDebug))
	if err != nil {
		return nil, fmt.Errorf("初始化日志失败: %w", err)
	}

	app, err := build(ctx, cfg, appLogger, prometheus.NewRegistry())
	if err != nil {
		_ = appLogger.Sync()
		return nil, err
	}
	return app, nil
}

// build 装配所有组件；registry 由调用方提供，便于测试隔离
func build(ctx context.Context, cfg *config.Config, appLogger *zap.Logger, registry *prometheus.Registry) (*App, error) {
	// --- Phase 2: 初始化存储 ---
	redisClient, err := database.NewRedisClient(ctx, cfg, appLogger)
	if err != nil {
		return nil, fmt.Errorf("redis 初始化失败: %w", err)
	}

	cacheSvc, err := newStore(cfg, redisClient, appLogger)
	if err != nil {
		if redisClient != nil {
			_ = redisClient.Close()
		}
		return nil, err
	}

	// --- Phase 3: 初始化业务逻辑层 ---
	eventBus := event.NewEventBus(appLogger)
	visitorSvc := visitor.NewService(cfg.IsProduction())

	postLedger := like_service.NewLedger(cacheSvc, like_service.PostKeyspace)
	commentLedger := like_service.NewLedger(cacheSvc, like_service.CommentKeyspace)

	likeLimiter := ratelimit.NewLimiter(cacheSvc, ratelimit.Options{
		Limit:  cfg.GetInt(config.KeyRateLimitRequests),
		Window: cfg.GetDuration(config.KeyRateLimitWindow),
		Prefix: cfg.GetString(config.KeyRateLimitPrefix),
	})

	chatProvider := inbox_service.NewCachedChatProvider(
		inbox_service.NewFileChatProvider(cfg.GetString(config.KeyInboxChatsFile)),
		cacheSvc,
		cfg.GetDuration(config.KeyInboxChatsCacheTTL),
		appLogger,
	)
	readTracker := inbox_service.NewReadTracker(cacheSvc, eventBus)
	aggregator := inbox_service.NewAggregator(readTracker, chatProvider)

	revalidateSvc := revalidate.NewService(revalidate.Options{
		URL:    cfg.GetString(config.KeyRevalidateURL),
		Secret: cfg.GetString(config.KeyRevalidateSecret),
	}, appLogger)
	listener.NewInboxRevalidateListener(eventBus, revalidateSvc, appLogger)

	// --- Phase 4: 中间件与指标 ---
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics, err := middleware.NewHTTPMetrics(middleware.HTTPMetricsOptions{Registerer: registry})
	if err != nil {
		eventBus.Shutdown()
		return nil, fmt.Errorf("初始化指标失败: %w", err)
	}
	readLimiter := middleware.NewIPRateLimiter(
		cfg.GetInt(config.KeyRateLimitReadPerMinute),
		cfg.GetInt(config.KeyRateLimitReadBurst),
	)

	// --- Phase 5: 定时任务 ---
	scheduler := task.NewScheduler(appLogger)
	if purger, ok := cacheSvc.(utility.Purger); ok {
		if err := scheduler.Register(task.EveryMinute, task.NewMemoryJanitorJob(purger, appLogger)); err != nil {
			eventBus.Shutdown()
			return nil, err
		}
	}
	if err := scheduler.Register(task.EveryFiveMinutes, task.NewLimiterCleanupJob(readLimiter, middleware.DefaultStaleAfter, appLogger)); err != nil {
		eventBus.Shutdown()
		return nil, err
	}

	// --- Phase 6: 路由 ---
	if cfg.GetBool(config.KeyServerDebug) {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}
	engine := gin.New()
	engine.Use(gin.Recovery(), middleware.RequestLogger(appLogger), middleware.Cors())

	appRouter := router.NewRouter(router.Dependencies{
		PostLikeHandler:    like_handler.NewHandler(postLedger, visitorSvc, "entityId", appLogger),
		CommentLikeHandler: like_handler.NewHandler(commentLedger, visitorSvc, "commentId", appLogger),
		InboxHandler:       inbox_handler.NewHandler(readTracker, aggregator, visitorSvc, appLogger),
		SystemHandler:      system_handler.NewHandler(cacheSvc),
		LikeThrottle:       middleware.SlidingWindowRateLimit(likeLimiter, metrics, appLogger),
		ReadThrottle:       middleware.ReadRateLimit(readLimiter, metrics),
		Metrics:            metrics,
		Gatherer:           registry,
	})
	appRouter.Setup(engine)

	return &App{
		cfg:         cfg,
		logger:      appLogger,
		engine:      engine,
		scheduler:   scheduler,
		eventBus:    eventBus,
		redisClient: redisClient,
		cacheSvc:    cacheSvc,
	}, nil
}

func (a *App) Engine() *gin.Engine {
	return a.engine
}

func (a *App) CacheService() utility.CacheService {
	return a.cacheSvc
}

// Run 启动 HTTP 服务，ctx 取消后优雅退出
func (a *App) Run(ctx context.Context) error {
	a.scheduler.Start()

	port := a.cfg.GetString(config.KeyServerPort)
	if port == "" {
		port = "8091"
	}
	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           a.engine,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("应用程序启动成功",
			zap.String("port", port),
			zap.String("version", version.GetVersionString()),
			zap.String("store", string(utility.GetCacheServiceType(a.cacheSvc))),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("HTTP 服务异常退出: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	a.logger.Info("正在关闭 HTTP 服务...")
	return srv.Shutdown(shutdownCtx)
}

// Stop 释放后台资源：调度器、事件总线、Redis 连接
func (a *App) Stop() {
	a.scheduler.Stop()
	a.eventBus.Shutdown()
	if a.redisClient != nil {
		if err := a.redisClient.Close(); err != nil {
			a.logger.Warn("关闭 Redis 连接失败", zap.Error(err))
		}
	}
	_ = a.logger.Sync()
}
