/*
 * @Description: 基于有序集合的滑动窗口限流
 * @Date: 2025-11-08 00:00:00
 */
package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/anzhiyu-c/anheyu-social/pkg/constant"
	"github.com/anzhiyu-c/anheyu-social/pkg/service/utility"

	"github.com/google/uuid"
)

const (
	DefaultLimit  = 10
	DefaultWindow = time.Minute
	DefaultPrefix = "rate:like"
)

// Result 一次限流判定的结果
type Result struct {
	Allowed   bool
	Limit     int
	Remaining int
	ResetAt   time.Time
}

// Options 限流器配置
type Options struct {
	Limit  int
	Window time.Duration
	Prefix string
}

// Limiter 滑动窗口日志限流器：每个客户端一个有序集合，分数为请求时间（毫秒）。
// 状态保存在共享存储中，多个接口使用同一前缀即共享同一配额。
type Limiter struct {
	store     utility.CacheService
	limit     int
	window    time.Duration
	prefix    string
	now       func() time.Time
	newMember func() string
}

// NewLimiter 创建限流器，非法参数回退到默认值
func NewLimiter(store utility.CacheService, opts Options) *Limiter {
	if opts.Limit <= 0 {
		opts.Limit = DefaultLimit
	}
	if opts.Window <= 0 {
		opts.Window = DefaultWindow
	}
	if opts.Prefix == "" {
		opts.Prefix = DefaultPrefix
	}
	return &Limiter{
		store:     store,
		limit:     opts.Limit,
		window:    opts.Window,
		prefix:    opts.Prefix,
		now:       time.Now,
		newMember: uuid.NewString,
	}
}

// WithClock 注入自定义时钟（主要用于测试）
func (l *Limiter) WithClock(now func() time.Time) *Limiter {
	if now != nil {
		l.now = now
	}
	return l
}

// Limit 记录一次请求并判定是否放行。
// 清理、计数与写入在存储端一步完成，被拒绝的请求不会写入记录，也就不消耗配额。
func (l *Limiter) Limit(ctx context.Context, identifier string) (Result, error) {
	now := l.now()
	window, err := l.store.SlidingWindow(ctx, l.key(identifier), utility.SlidingWindow{
		NowMs:    now.UnixMilli(),
		WindowMs: l.window.Milliseconds(),
		Limit:    int64(l.limit),
		Member:   fmt.Sprintf("%d-%s", now.UnixMilli(), l.newMember()),
	})
	if err != nil {
		return Result{}, storeErr("sliding window", err)
	}

	result := Result{
		Allowed:   window.Allowed,
		Limit:     l.limit,
		Remaining: max(l.limit-int(window.Count), 0),
		ResetAt:   now.Add(l.window),
	}
	if window.HasOldest {
		result.ResetAt = time.UnixMilli(window.OldestMs).Add(l.window)
	}
	return result, nil
}

func (l *Limiter) key(identifier string) string {
	return fmt.Sprintf("%s:%s", l.prefix, identifier)
}

func storeErr(op string, err error) error {
	return fmt.Errorf("ratelimit %s: %v: %w", op, err, constant.ErrStoreUnavailable)
}
