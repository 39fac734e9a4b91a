/*
 * @Description: 滑动窗口限流的原子存储操作
 * @Date: 2025-11-12 16:40:05
 */
package utility

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/redis/go-redis/v9"
)

// SlidingWindow 一次判定的参数，时间均为毫秒
type SlidingWindow struct {
	NowMs    int64
	WindowMs int64
	Limit    int64
	Member   string
}

// SlidingWindowResult 判定结果。Count 为判定后窗口内的记录数
type SlidingWindowResult struct {
	Allowed   bool
	Count     int64
	OldestMs  int64
	HasOldest bool
}

// slidingWindowScript 在 Redis 端一次执行，并发请求之间不会交错
var slidingWindowScript = redis.NewScript(`
local key = KEYS[1]
local now = tonumber(ARGV[1])
local window = tonumber(ARGV[2])
local limit = tonumber(ARGV[3])

redis.call('ZREMRANGEBYSCORE', key, '-inf', now - window)
local count = redis.call('ZCARD', key)
local allowed = 0
if count < limit then
  redis.call('ZADD', key, now, ARGV[4])
  redis.call('PEXPIRE', key, window)
  count = count + 1
  allowed = 1
end

local oldest = -1
local first = redis.call('ZRANGE', key, 0, 0, 'WITHSCORES')
if #first > 0 then
  oldest = tonumber(first[2])
end
return {allowed, count, oldest}
`)

func (s *redisCacheService) SlidingWindow(ctx context.Context, key string, w SlidingWindow) (SlidingWindowResult, error) {
	values, err := slidingWindowScript.Run(ctx, s.client, []string{key}, w.NowMs, w.WindowMs, w.Limit, w.Member).Int64Slice()
	if err != nil {
		return SlidingWindowResult{}, err
	}
	if len(values) != 3 {
		return SlidingWindowResult{}, fmt.Errorf("sliding window script returned %d values", len(values))
	}
	return SlidingWindowResult{
		Allowed:   values[0] == 1,
		Count:     values[1],
		OldestMs:  values[2],
		HasOldest: values[2] >= 0,
	}, nil
}

func (s *memoryCacheService) SlidingWindow(ctx context.Context, key string, w SlidingWindow) (SlidingWindowResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	item, err := s.loadOrCreate(key, kindZSet)
	if err != nil {
		return SlidingWindowResult{}, err
	}

	windowStart := float64(w.NowMs - w.WindowMs)
	for member, score := range item.zset {
		if score <= windowStart {
			delete(item.zset, member)
		}
	}

	result := SlidingWindowResult{Count: int64(len(item.zset))}
	if result.Count < w.Limit {
		item.zset[w.Member] = float64(w.NowMs)
		item.expiration = s.now().Add(time.Duration(w.WindowMs) * time.Millisecond)
		item.hasExpiry = true
		result.Count++
		result.Allowed = true
	}

	if len(item.zset) == 0 {
		delete(s.data, key)
		return result, nil
	}
	oldest := math.Inf(1)
	for _, score := range item.zset {
		if score < oldest {
			oldest = score
		}
	}
	result.OldestMs = int64(oldest)
	result.HasOldest = true
	return result, nil
}
