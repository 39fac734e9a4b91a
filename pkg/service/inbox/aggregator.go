/*
 * @Description: 未读会话统计
 * @Date: 2025-11-03 11:32:16
 */
package inbox

import (
	"context"
	"errors"
	"fmt"

	"github.com/anzhiyu-c/anheyu-social/pkg/constant"
)

// Aggregator 计算访客的未读会话数
type Aggregator struct {
	tracker  *ReadTracker
	provider ChatProvider
}

func NewAggregator(tracker *ReadTracker, provider ChatProvider) *Aggregator {
	return &Aggregator{tracker: tracker, provider: provider}
}

// UnreadCount 从 ChatProvider 读取会话列表后计算未读数。
// 会话列表读取失败时返回错误，不会当作空列表处理。
func (a *Aggregator) UnreadCount(ctx context.Context, visitorID string) (int, error) {
	chats, err := a.provider.ListChats(ctx)
	if err != nil {
		return 0, fmt.Errorf("list chats: %w", wrapContent(err))
	}
	return a.ComputeUnreadCount(ctx, visitorID, chats)
}

// ComputeUnreadCount 只统计 unread 为 true 的会话：
// 匿名访客全部计入；没有已读记录计入；有记录但会话没有 unreadSince 视为已读；
// 否则已读时间严格早于 unreadSince 才计入。
func (a *Aggregator) ComputeUnreadCount(ctx context.Context, visitorID string, chats []Chat) (int, error) {
	count := 0
	for _, chat := range chats {
		if !chat.Unread {
			continue
		}
		if visitorID == "" {
			count++
			continue
		}

		readAt, ok, err := a.tracker.lastRead(ctx, chat.ID, visitorID)
		if err != nil {
			return 0, err
		}
		switch {
		case !ok:
			count++
		case chat.UnreadSince == nil:
			// 没有参照点，视为已读
		case readAt.Before(*chat.UnreadSince):
			count++
		}
	}
	return count, nil
}

func wrapContent(err error) error {
	if errors.Is(err, constant.ErrContentUnavailable) || errors.Is(err, constant.ErrStoreUnavailable) {
		return err
	}
	return fmt.Errorf("%v: %w", err, constant.ErrContentUnavailable)
}
