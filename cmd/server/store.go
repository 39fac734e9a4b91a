package server

import (
	"github.com/anzhiyu-c/anheyu-social/pkg/config"
	"github.com/anzhiyu-c/anheyu-social/pkg/constant"
	"github.com/anzhiyu-c/anheyu-social/pkg/service/utility"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// newStore 选择 KV 存储。
// 内存存储只在单进程内有效，生产环境必须显式打开 Store.AllowMemoryFallback 才允许降级。
func newStore(cfg *config.Config, redisClient *redis.Client, logger *zap.Logger) (utility.CacheService, error) {
	store := utility.NewCacheServiceWithFallback(redisClient, logger)

	if utility.GetCacheServiceType(store) == utility.CacheTypeMemory &&
		cfg.IsProduction() && !cfg.GetBool(config.KeyStoreAllowMemoryFallback) {
		return nil, constant.ErrMemoryStoreForbidden
	}
	return store, nil
}
