/*
 * @Description: 会话已读记录
 * @Date: 2025-11-03 10:12:40
 */
package inbox

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/anzhiyu-c/anheyu-social/internal/pkg/event"
	"github.com/anzhiyu-c/anheyu-social/pkg/constant"
	"github.com/anzhiyu-c/anheyu-social/pkg/service/utility"
)

// Publisher 事件发布方，由 event.EventBus 实现
type Publisher interface {
	Publish(topic event.Topic, payload interface{})
}

// ReadKey 返回会话已读记录的哈希键
func ReadKey(chatID string) string {
	return "chat:lastread:" + chatID
}

// ReadTracker 记录访客对每个会话的最后已读时间
type ReadTracker struct {
	store     utility.CacheService
	publisher Publisher
	now       func() time.Time
}

// NewReadTracker publisher 可以为 nil，此时不发出已读事件
func NewReadTracker(store utility.CacheService, publisher Publisher) *ReadTracker {
	return &ReadTracker{store: store, publisher: publisher, now: time.Now}
}

// WithClock 替换时钟，用于测试
func (t *ReadTracker) WithClock(now func() time.Time) *ReadTracker {
	t.now = now
	return t
}

// MarkRead 将当前时间写为访客的最后已读时间，无条件覆盖旧值
func (t *ReadTracker) MarkRead(ctx context.Context, chatID, visitorID string) (time.Time, error) {
	if err := validateChat(chatID); err != nil {
		return time.Time{}, err
	}
	if visitorID == "" {
		return time.Time{}, fmt.Errorf("visitor id is required: %w", constant.ErrBadRequest)
	}

	readAt := t.now().UTC().Truncate(time.Millisecond)
	if err := t.store.HSet(ctx, ReadKey(chatID), visitorID, FormatTime(readAt)); err != nil {
		return time.Time{}, fmt.Errorf("inbox mark read: %v: %w", err, constant.ErrStoreUnavailable)
	}

	if t.publisher != nil {
		t.publisher.Publish(event.InboxRead, event.InboxReadPayload{ChatID: chatID, VisitorID: visitorID})
	}
	return readAt, nil
}

// LastRead 读取最后已读时间；没有记录或记录无法解析时 ok 为 false
func (t *ReadTracker) LastRead(ctx context.Context, chatID, visitorID string) (time.Time, bool, error) {
	if err := validateChat(chatID); err != nil {
		return time.Time{}, false, err
	}
	return t.lastRead(ctx, chatID, visitorID)
}

func (t *ReadTracker) lastRead(ctx context.Context, chatID, visitorID string) (time.Time, bool, error) {
	if visitorID == "" {
		return time.Time{}, false, nil
	}

	raw, err := t.store.HGet(ctx, ReadKey(chatID), visitorID)
	if err != nil {
		return time.Time{}, false, fmt.Errorf("inbox last read: %v: %w", err, constant.ErrStoreUnavailable)
	}
	if raw == "" {
		return time.Time{}, false, nil
	}
	readAt, err := ParseTime(raw)
	if err != nil {
		return time.Time{}, false, nil
	}
	return readAt, true, nil
}

// HasRead 没有记录返回 false；since 为 nil 时有记录即为已读；否则要求 lastRead >= since
func (t *ReadTracker) HasRead(ctx context.Context, chatID, visitorID string, since *time.Time) (bool, error) {
	readAt, ok, err := t.LastRead(ctx, chatID, visitorID)
	if err != nil || !ok {
		return false, err
	}
	if since == nil {
		return true, nil
	}
	return !readAt.Before(*since), nil
}

// FormatTime 存储与接口统一使用 UTC RFC3339 (毫秒精度)
func FormatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

// ParseTime 解析 ISO-8601 时间，兼容带或不带小数秒、带时区偏移的写法
func ParseTime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, constant.ErrInvalidTimestamp
	}
	parsed, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%q: %w", s, constant.ErrInvalidTimestamp)
	}
	return parsed.UTC(), nil
}

const timeLayout = "2006-01-02T15:04:05.000Z07:00"

func validateChat(chatID string) error {
	if strings.TrimSpace(chatID) == "" {
		return constant.ErrInvalidEntity
	}
	return nil
}
