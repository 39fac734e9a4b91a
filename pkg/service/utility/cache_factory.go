/*
 * @Description: 智能存储工厂，自动选择 Redis 或内存存储
 * @Date: 2025-10-05 00:00:00
 */
package utility

import (
	"context"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// NewCacheServiceWithFallback 创建带有自动降级功能的存储服务
// 如果 redisClient 为 nil 或 Ping 失败，自动降级到内存存储
func NewCacheServiceWithFallback(redisClient *redis.Client, logger *zap.Logger) CacheService {
	if logger == nil {
		logger = zap.NewNop()
	}

	if redisClient == nil {
		logger.Warn("🔄 使用内存存储服务（Memory Store），仅适用于单实例开发环境")
		return NewMemoryCacheService()
	}

	// 尝试 ping Redis 确保可用
	if err := redisClient.Ping(context.Background()).Err(); err != nil {
		logger.Warn("⚠️  Redis 不可用，降级到内存存储", zap.Error(err))
		return NewMemoryCacheService()
	}

	logger.Info("✅ 使用 Redis 存储服务")
	return NewCacheService(redisClient)
}

// CacheServiceType 存储服务类型
type CacheServiceType string

const (
	CacheTypeRedis  CacheServiceType = "redis"
	CacheTypeMemory CacheServiceType = "memory"
)

// GetCacheServiceType 获取当前使用的存储类型
func GetCacheServiceType(svc CacheService) CacheServiceType {
	switch svc.(type) {
	case *redisCacheService:
		return CacheTypeRedis
	case *memoryCacheService:
		return CacheTypeMemory
	default:
		return CacheTypeMemory
	}
}

// Purger 由支持主动清理过期数据的存储实现
type Purger interface {
	PurgeExpired() int
}
