/*
 * @Description: 监听 InboxRead 事件，通知渲染层让收件箱页面缓存失效
 * @Date: 2025-11-03 15:40:00
 */
package listener

import (
	"context"
	"time"

	"github.com/anzhiyu-c/anheyu-social/internal/pkg/event"
	"github.com/anzhiyu-c/anheyu-social/pkg/service/revalidate"

	"go.uber.org/zap"
)

// revalidateTimeout 单次失效通知的最长等待时间
const revalidateTimeout = 10 * time.Second

// InboxRevalidateListener 在访客标记会话已读后刷新收件箱页面
type InboxRevalidateListener struct {
	revalidateSvc revalidate.RevalidateService
	logger        *zap.Logger
}

// NewInboxRevalidateListener 构造并订阅 InboxRead 事件
func NewInboxRevalidateListener(
	eventBus *event.EventBus,
	revalidateSvc revalidate.RevalidateService,
	logger *zap.Logger,
) *InboxRevalidateListener {
	if logger == nil {
		logger = zap.NewNop()
	}
	listener := &InboxRevalidateListener{
		revalidateSvc: revalidateSvc,
		logger:        logger.Named("inbox-revalidate"),
	}
	eventBus.Subscribe(event.InboxRead, listener.handleInboxRead)
	return listener
}

func (l *InboxRevalidateListener) handleInboxRead(payload interface{}) {
	p, ok := payload.(event.InboxReadPayload)
	if !ok {
		l.logger.Error("收到的 InboxRead 事件负载类型不正确")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), revalidateTimeout)
	defer cancel()

	// 失败只记录，不影响已读写入
	if err := l.revalidateSvc.Revalidate(ctx, revalidate.InboxPath); err != nil {
		l.logger.Warn("收件箱页面失效通知失败", zap.String("chatId", p.ChatID), zap.Error(err))
	}
}
