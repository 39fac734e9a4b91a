/*
 * @Description: Redis 客户端初始化
 * @Date: 2025-06-15 11:30:55
 */
package database

import (
	"context"
	"time"

	"github.com/anzhiyu-c/anheyu-social/pkg/config"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const defaultRedisTimeout = 3 * time.Second

// NewRedisClient 接收配置并返回 Redis 客户端或 nil（用于自动降级）
// 如果 Redis 未配置或连接失败，返回 nil 而不是 error，让上层决定是否降级到内存存储
func NewRedisClient(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*redis.Client, error) {
	redisAddr := cfg.GetString(config.KeyRedisAddr)
	if redisAddr == "" {
		logger.Warn("⚠️  Redis 地址未配置，将使用内存存储")
		return nil, nil
	}

	timeout := cfg.GetDuration(config.KeyRedisTimeout)
	if timeout <= 0 {
		timeout = defaultRedisTimeout
	}
	redisDB := cfg.GetInt(config.KeyRedisDB)

	// 每次存储调用都受超时约束，失败直接上抛，不做透明重试
	rdb := redis.NewClient(&redis.Options{
		Addr:         redisAddr,
		Password:     cfg.GetString(config.KeyRedisPassword),
		DB:           redisDB,
		DialTimeout:  timeout,
		ReadTimeout:  timeout,
		WriteTimeout: timeout,
		MaxRetries:   -1,
	})

	pingCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		logger.Warn("⚠️  连接 Redis 失败，将使用内存存储",
			zap.String("addr", redisAddr), zap.Int("db", redisDB), zap.Error(err))
		rdb.Close()
		return nil, nil
	}

	logger.Info("✅ 成功连接到 Redis", zap.String("addr", redisAddr), zap.Int("db", redisDB))
	return rdb, nil
}
