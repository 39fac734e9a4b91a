/*
 * @Description: 内存存储服务实现（用于 Redis 不可用时的降级方案）
 * @Date: 2025-10-05 00:00:00
 */
package utility

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"
)

// 仅在单进程内保证原子性，多实例部署时各实例数据互不可见，只适合本地开发。

type itemKind int

const (
	kindString itemKind = iota
	kindSet
	kindHash
	kindZSet
)

// cacheItem 缓存项结构，按类型只使用其中一个字段
type cacheItem struct {
	kind       itemKind
	value      string
	set        map[string]struct{}
	hash       map[string]string
	zset       map[string]float64
	expiration time.Time
	hasExpiry  bool
}

// isExpired 检查是否过期
func (item *cacheItem) isExpired(now time.Time) bool {
	if !item.hasExpiry {
		return false
	}
	return now.After(item.expiration)
}

// memoryCacheService 是基于内存的存储服务实现
type memoryCacheService struct {
	mu   sync.Mutex
	data map[string]*cacheItem
	now  func() time.Time
}

// NewMemoryCacheService 创建内存存储服务实例
// 过期数据的定期清理由调度器调用 PurgeExpired 完成
func NewMemoryCacheService() CacheService {
	return newMemoryCacheService(time.Now)
}

func newMemoryCacheService(now func() time.Time) *memoryCacheService {
	return &memoryCacheService{
		data: make(map[string]*cacheItem),
		now:  now,
	}
}

// PurgeExpired 清理所有已过期的键，返回清理数量
func (s *memoryCacheService) PurgeExpired() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	purged := 0
	for key, item := range s.data {
		if item.isExpired(now) {
			delete(s.data, key)
			purged++
		}
	}
	return purged
}

// load 读取一个未过期的键，调用方必须持有锁
func (s *memoryCacheService) load(key string) (*cacheItem, bool) {
	item, ok := s.data[key]
	if !ok {
		return nil, false
	}
	if item.isExpired(s.now()) {
		delete(s.data, key)
		return nil, false
	}
	return item, true
}

// loadKind 读取指定类型的键，类型不匹配时返回与 Redis 一致的 WRONGTYPE 错误
func (s *memoryCacheService) loadKind(key string, kind itemKind) (*cacheItem, bool, error) {
	item, ok := s.load(key)
	if !ok {
		return nil, false, nil
	}
	if item.kind != kind {
		return nil, false, fmt.Errorf("WRONGTYPE key %q holds the wrong kind of value", key)
	}
	return item, true, nil
}

// loadOrCreate 读取或创建指定类型的键
func (s *memoryCacheService) loadOrCreate(key string, kind itemKind) (*cacheItem, error) {
	item, ok, err := s.loadKind(key, kind)
	if err != nil {
		return nil, err
	}
	if ok {
		return item, nil
	}
	item = &cacheItem{kind: kind}
	switch kind {
	case kindSet:
		item.set = make(map[string]struct{})
	case kindHash:
		item.hash = make(map[string]string)
	case kindZSet:
		item.zset = make(map[string]float64)
	}
	s.data[key] = item
	return item, nil
}

func (s *memoryCacheService) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	item := &cacheItem{
		kind:      kindString,
		value:     fmt.Sprintf("%v", value),
		hasExpiry: expiration > 0,
	}
	if expiration > 0 {
		item.expiration = s.now().Add(expiration)
	}
	s.data[key] = item
	return nil
}

func (s *memoryCacheService) Get(ctx context.Context, key string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	item, ok, err := s.loadKind(key, kindString)
	if err != nil || !ok {
		return "", err
	}
	return item.value, nil
}

func (s *memoryCacheService) Delete(ctx context.Context, keys ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, key := range keys {
		delete(s.data, key)
	}
	return nil
}

// Expire 设置键的过期时间，键不存在时与 Redis 一样静默忽略
func (s *memoryCacheService) Expire(ctx context.Context, key string, expiration time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	item, ok := s.load(key)
	if !ok {
		return nil
	}
	if expiration <= 0 {
		delete(s.data, key)
		return nil
	}
	item.expiration = s.now().Add(expiration)
	item.hasExpiry = true
	return nil
}

func (s *memoryCacheService) Increment(ctx context.Context, key string) (int64, error) {
	return s.incrBy(key, 1)
}

func (s *memoryCacheService) Decrement(ctx context.Context, key string) (int64, error) {
	return s.incrBy(key, -1)
}

func (s *memoryCacheService) incrBy(key string, delta int64) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	item, err := s.loadOrCreate(key, kindString)
	if err != nil {
		return 0, err
	}

	var current int64
	if item.value != "" {
		current, err = strconv.ParseInt(item.value, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("ERR value of key %q is not an integer", key)
		}
	}
	current += delta
	item.value = strconv.FormatInt(current, 10)
	return current, nil
}

func (s *memoryCacheService) SAdd(ctx context.Context, key string, members ...interface{}) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	item, err := s.loadOrCreate(key, kindSet)
	if err != nil {
		return 0, err
	}

	var added int64
	for _, m := range members {
		member := fmt.Sprintf("%v", m)
		if _, exists := item.set[member]; exists {
			continue
		}
		item.set[member] = struct{}{}
		added++
	}
	return added, nil
}

func (s *memoryCacheService) SRem(ctx context.Context, key string, members ...interface{}) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	item, ok, err := s.loadKind(key, kindSet)
	if err != nil || !ok {
		return 0, err
	}

	var removed int64
	for _, m := range members {
		member := fmt.Sprintf("%v", m)
		if _, exists := item.set[member]; !exists {
			continue
		}
		delete(item.set, member)
		removed++
	}
	// 与 Redis 一致：空集合即删除键
	if len(item.set) == 0 {
		delete(s.data, key)
	}
	return removed, nil
}

func (s *memoryCacheService) SIsMember(ctx context.Context, key string, member interface{}) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	item, ok, err := s.loadKind(key, kindSet)
	if err != nil || !ok {
		return false, err
	}
	_, exists := item.set[fmt.Sprintf("%v", member)]
	return exists, nil
}

func (s *memoryCacheService) SCard(ctx context.Context, key string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	item, ok, err := s.loadKind(key, kindSet)
	if err != nil || !ok {
		return 0, err
	}
	return int64(len(item.set)), nil
}

func (s *memoryCacheService) HGet(ctx context.Context, key, field string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	item, ok, err := s.loadKind(key, kindHash)
	if err != nil || !ok {
		return "", err
	}
	return item.hash[field], nil
}

func (s *memoryCacheService) HSet(ctx context.Context, key, field string, value interface{}) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	item, err := s.loadOrCreate(key, kindHash)
	if err != nil {
		return err
	}
	item.hash[field] = fmt.Sprintf("%v", value)
	return nil
}
