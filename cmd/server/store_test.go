package server

import (
	"errors"
	"testing"

	"github.com/anzhiyu-c/anheyu-social/pkg/config"
	"github.com/anzhiyu-c/anheyu-social/pkg/constant"
	"github.com/anzhiyu-c/anheyu-social/pkg/service/utility"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap/zaptest"
)

func TestNewStoreMemoryFallbackGuard(t *testing.T) {
	tests := []struct {
		name    string
		values  map[string]interface{}
		wantErr bool
	}{
		{"开发环境允许降级", map[string]interface{}{config.KeyServerEnv: "development"}, false},
		{"生产环境默认拒绝", map[string]interface{}{config.KeyServerEnv: "production"}, true},
		{"生产环境显式允许", map[string]interface{}{
			config.KeyServerEnv:                "production",
			config.KeyStoreAllowMemoryFallback: true,
		}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store, err := newStore(config.New(tt.values), nil, zaptest.NewLogger(t))
			if tt.wantErr {
				if !errors.Is(err, constant.ErrMemoryStoreForbidden) {
					t.Fatalf("error = %v, want ErrMemoryStoreForbidden", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if utility.GetCacheServiceType(store) != utility.CacheTypeMemory {
				t.Fatalf("expected memory store")
			}
		})
	}
}

func TestNewStoreUsesRedisInProduction(t *testing.T) {
	server, err := miniredis.Run()
	if err != nil {
		t.Fatal(err)
	}
	defer server.Close()
	client := redis.NewClient(&redis.Options{Addr: server.Addr()})
	defer client.Close()

	store, err := newStore(config.New(map[string]interface{}{config.KeyServerEnv: "production"}), client, zaptest.NewLogger(t))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if utility.GetCacheServiceType(store) != utility.CacheTypeRedis {
		t.Fatalf("expected redis store")
	}
}
