/*
 * @Description: 会话列表来源
 * @Date: 2025-11-03 11:05:27
 */
package inbox

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/anzhiyu-c/anheyu-social/pkg/constant"
	"github.com/anzhiyu-c/anheyu-social/pkg/service/utility"

	"go.uber.org/zap"
)

// ChatsCacheKey 会话列表缓存键
const ChatsCacheKey = "inbox:chats"

// Chat 外部内容系统提供的会话摘要
type Chat struct {
	ID          string     `json:"id"`
	Unread      bool       `json:"unread"`
	UnreadSince *time.Time `json:"unreadSince,omitempty"`
}

// ChatProvider 提供当前会话列表
type ChatProvider interface {
	ListChats(ctx context.Context) ([]Chat, error)
}

// FileChatProvider 从 JSON 文件读取会话列表，文件不存在视为空列表
type FileChatProvider struct {
	path string
}

func NewFileChatProvider(path string) *FileChatProvider {
	return &FileChatProvider{path: path}
}

func (p *FileChatProvider) ListChats(ctx context.Context) ([]Chat, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(p.path)
	if errors.Is(err, fs.ErrNotExist) {
		return []Chat{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read chats file %s: %v: %w", p.path, err, constant.ErrContentUnavailable)
	}

	var chats []Chat
	if err := json.Unmarshal(data, &chats); err != nil {
		return nil, fmt.Errorf("decode chats file %s: %v: %w", p.path, err, constant.ErrContentUnavailable)
	}
	if chats == nil {
		chats = []Chat{}
	}
	return chats, nil
}

// CachedChatProvider 使用 KV 存储缓存下游的会话列表
type CachedChatProvider struct {
	next   ChatProvider
	store  utility.CacheService
	ttl    time.Duration
	logger *zap.Logger
}

func NewCachedChatProvider(next ChatProvider, store utility.CacheService, ttl time.Duration, logger *zap.Logger) *CachedChatProvider {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CachedChatProvider{next: next, store: store, ttl: ttl, logger: logger}
}

func (p *CachedChatProvider) ListChats(ctx context.Context) ([]Chat, error) {
	if p.ttl <= 0 {
		return p.next.ListChats(ctx)
	}

	if cached, err := p.store.Get(ctx, ChatsCacheKey); err != nil {
		p.logger.Warn("读取会话列表缓存失败，回源读取", zap.Error(err))
	} else if cached != "" {
		var chats []Chat
		if err := json.Unmarshal([]byte(cached), &chats); err == nil {
			return chats, nil
		}
		p.logger.Warn("会话列表缓存已损坏，回源读取")
	}

	chats, err := p.next.ListChats(ctx)
	if err != nil {
		return nil, err
	}

	if payload, err := json.Marshal(chats); err == nil {
		if err := p.store.Set(ctx, ChatsCacheKey, string(payload), p.ttl); err != nil {
			p.logger.Warn("写入会话列表缓存失败", zap.Error(err))
		}
	}
	return chats, nil
}

// Invalidate 清除会话列表缓存
func (p *CachedChatProvider) Invalidate(ctx context.Context) error {
	return p.store.Delete(ctx, ChatsCacheKey)
}
