/*
 * @Description: 点赞账本：计数器 + 点赞访客集合
 * @Date: 2025-11-02 14:20:11
 */
package like

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/anzhiyu-c/anheyu-social/pkg/constant"
	"github.com/anzhiyu-c/anheyu-social/pkg/service/utility"

	"golang.org/x/sync/errgroup"
)

// Action 点赞操作类型
type Action string

const (
	ActionLike   Action = "like"
	ActionUnlike Action = "unlike"
)

// ParseAction 只接受 like / unlike
func ParseAction(s string) (Action, error) {
	switch Action(s) {
	case ActionLike, ActionUnlike:
		return Action(s), nil
	default:
		return "", constant.ErrInvalidAction
	}
}

// Keyspace 决定一类实体的计数器键与访客集合键
type Keyspace struct {
	Name      string
	CountKey  func(entityID string) string
	VotersKey func(entityID string) string
}

// PostKeyspace 文章点赞：likes:count:{id} / likes:visitors:{id}
var PostKeyspace = Keyspace{
	Name:      "post",
	CountKey:  func(id string) string { return "likes:count:" + id },
	VotersKey: func(id string) string { return "likes:visitors:" + id },
}

// CommentKeyspace 评论点赞：comment:{id}:likes / comment:{id}:liked
var CommentKeyspace = Keyspace{
	Name:      "comment",
	CountKey:  func(id string) string { return "comment:" + id + ":likes" },
	VotersKey: func(id string) string { return "comment:" + id + ":liked" },
}

// Status 点赞状态
type Status struct {
	Likes          int64 `json:"likes"`
	LikedByVisitor bool  `json:"likedByVisitor"`
}

// Ledger 点赞账本。
// 访客集合是"是否点过赞"的唯一依据；计数器只用于展示，独立维护以避免每次 SCARD。
// 集合变更与计数器变更不是同一个事务：集合变更先执行并决定计数器是否变化，
// 两步之间进程崩溃会留下计数偏差，这一偏差不会自动修正。
type Ledger struct {
	store    utility.CacheService
	keyspace Keyspace
}

func NewLedger(store utility.CacheService, keyspace Keyspace) *Ledger {
	return &Ledger{store: store, keyspace: keyspace}
}

// Keyspace 返回账本使用的键空间
func (l *Ledger) Keyspace() Keyspace {
	return l.keyspace
}

// GetStatus 读取点赞数；visitorID 为空时 likedByVisitor 恒为 false
func (l *Ledger) GetStatus(ctx context.Context, entityID, visitorID string) (Status, error) {
	if err := validateEntity(entityID); err != nil {
		return Status{}, err
	}

	var status Status
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		likes, err := l.currentCount(gctx, entityID)
		status.Likes = likes
		return err
	})
	if visitorID != "" {
		g.Go(func() error {
			liked, err := l.store.SIsMember(gctx, l.keyspace.VotersKey(entityID), visitorID)
			if err != nil {
				return storeErr("check voter", err)
			}
			status.LikedByVisitor = liked
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Status{}, err
	}
	return status, nil
}

// Toggle 按 action 点赞或取消点赞，对同一访客幂等
func (l *Ledger) Toggle(ctx context.Context, entityID, visitorID string, action Action) (Status, error) {
	if err := validateEntity(entityID); err != nil {
		return Status{}, err
	}
	if visitorID == "" {
		return Status{}, fmt.Errorf("visitor id is required: %w", constant.ErrBadRequest)
	}

	switch action {
	case ActionLike:
		return l.like(ctx, entityID, visitorID)
	case ActionUnlike:
		return l.unlike(ctx, entityID, visitorID)
	default:
		return Status{}, constant.ErrInvalidAction
	}
}

func (l *Ledger) like(ctx context.Context, entityID, visitorID string) (Status, error) {
	added, err := l.store.SAdd(ctx, l.keyspace.VotersKey(entityID), visitorID)
	if err != nil {
		return Status{}, storeErr("add voter", err)
	}

	var likes int64
	if added == 1 {
		likes, err = l.store.Increment(ctx, l.keyspace.CountKey(entityID))
		if err != nil {
			return Status{}, storeErr("increment count", err)
		}
	} else {
		// 重复点赞：不改计数器，返回当前值
		likes, err = l.currentCount(ctx, entityID)
		if err != nil {
			return Status{}, err
		}
	}

	return Status{Likes: clamp(likes), LikedByVisitor: true}, nil
}

func (l *Ledger) unlike(ctx context.Context, entityID, visitorID string) (Status, error) {
	removed, err := l.store.SRem(ctx, l.keyspace.VotersKey(entityID), visitorID)
	if err != nil {
		return Status{}, storeErr("remove voter", err)
	}

	var likes int64
	if removed == 1 {
		countKey := l.keyspace.CountKey(entityID)
		likes, err = l.store.Decrement(ctx, countKey)
		if err != nil {
			return Status{}, storeErr("decrement count", err)
		}
		if likes < 0 {
			if err := l.store.Set(ctx, countKey, 0, 0); err != nil {
				return Status{}, storeErr("clamp count", err)
			}
			likes = 0
		}
	} else {
		// 从未点赞过：不改计数器
		likes, err = l.currentCount(ctx, entityID)
		if err != nil {
			return Status{}, err
		}
	}

	return Status{Likes: likes, LikedByVisitor: false}, nil
}

// currentCount 读取计数器，不存在或无法解析时视为 0，负数截断为 0
func (l *Ledger) currentCount(ctx context.Context, entityID string) (int64, error) {
	raw, err := l.store.Get(ctx, l.keyspace.CountKey(entityID))
	if err != nil {
		return 0, storeErr("read count", err)
	}
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, nil
	}
	return clamp(n), nil
}

func validateEntity(entityID string) error {
	if strings.TrimSpace(entityID) == "" {
		return constant.ErrInvalidEntity
	}
	return nil
}

func clamp(n int64) int64 {
	if n < 0 {
		return 0
	}
	return n
}

func storeErr(op string, err error) error {
	return fmt.Errorf("like ledger %s: %v: %w", op, err, constant.ErrStoreUnavailable)
}
