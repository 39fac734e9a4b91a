/*
 * @Description: 收件箱已读状态与未读数接口
 * @Date: 2025-11-03 16:02:18
 */
package inbox

import (
	"fmt"
	"net/http"
	"time"

	"github.com/anzhiyu-c/anheyu-social/pkg/constant"
	"github.com/anzhiyu-c/anheyu-social/pkg/handler/inbox/dto"
	"github.com/anzhiyu-c/anheyu-social/pkg/response"
	inboxsvc "github.com/anzhiyu-c/anheyu-social/pkg/service/inbox"
	"github.com/anzhiyu-c/anheyu-social/pkg/service/visitor"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type Handler struct {
	tracker    *inboxsvc.ReadTracker
	aggregator *inboxsvc.Aggregator
	visitors   *visitor.Service
	logger     *zap.Logger
}

func NewHandler(tracker *inboxsvc.ReadTracker, aggregator *inboxsvc.Aggregator, visitors *visitor.Service, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		tracker:    tracker,
		aggregator: aggregator,
		visitors:   visitors,
		logger:     logger,
	}
}

// GetReadStatus
// @Summary      查询会话已读状态
// @Description  没有访客标识或没有已读记录时 hasRead 为 false；提供 latestMessageTime 时比较已读时间
// @Tags         收件箱
// @Produce      json
// @Param        chatId path string true "会话ID"
// @Param        latestMessageTime query string false "最新消息时间 (ISO-8601)"
// @Success      200 {object} dto.ReadStatusResponse
// @Failure      400 {object} response.ErrorBody
// @Failure      500 {object} response.ErrorBody
// @Router       /inbox/{chatId}/read [get]
func (h *Handler) GetReadStatus(c *gin.Context) {
	chatID := c.Param("chatId")

	var query dto.ReadStatusQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, fmt.Errorf("bind read status query: %v: %w", err, constant.ErrBadRequest))
		return
	}

	var since *time.Time
	if query.LatestMessageTime != "" {
		parsed, err := inboxsvc.ParseTime(query.LatestMessageTime)
		if err != nil {
			response.Error(c, err)
			return
		}
		since = &parsed
	}

	visitorID, ok := h.visitors.Read(c)
	if !ok {
		response.Success(c, dto.ReadStatusResponse{HasRead: false})
		return
	}

	lastRead, found, err := h.tracker.LastRead(c.Request.Context(), chatID, visitorID)
	if err != nil {
		h.fail(c, err, chatID, visitorID)
		return
	}
	if !found {
		response.Success(c, dto.ReadStatusResponse{HasRead: false})
		return
	}

	hasRead := since == nil || !lastRead.Before(*since)
	response.Success(c, dto.ReadStatusResponse{
		HasRead:      hasRead,
		LastReadTime: inboxsvc.FormatTime(lastRead),
	})
}

// MarkRead
// @Summary      标记会话已读
// @Description  写入当前时间作为访客最后已读时间，并通知渲染层刷新收件箱
// @Tags         收件箱
// @Produce      json
// @Param        chatId path string true "会话ID"
// @Success      200 {object} dto.MarkReadResponse
// @Failure      400 {object} response.ErrorBody
// @Failure      500 {object} response.ErrorBody
// @Router       /inbox/{chatId}/read [post]
func (h *Handler) MarkRead(c *gin.Context) {
	chatID := c.Param("chatId")
	visitorID, _ := h.visitors.GetOrCreate(c)

	readAt, err := h.tracker.MarkRead(c.Request.Context(), chatID, visitorID)
	if err != nil {
		h.fail(c, err, chatID, visitorID)
		return
	}

	response.Success(c, dto.MarkReadResponse{
		HasRead:      true,
		ChatID:       chatID,
		LastReadTime: inboxsvc.FormatTime(readAt),
	})
}

// GetUnreadCount
// @Summary      获取未读会话数
// @Tags         收件箱
// @Produce      json
// @Success      200 {object} dto.UnreadCountResponse
// @Failure      500 {object} response.ErrorBody
// @Router       /inbox/unread-count [get]
func (h *Handler) GetUnreadCount(c *gin.Context) {
	visitorID, _ := h.visitors.Read(c)

	count, err := h.aggregator.UnreadCount(c.Request.Context(), visitorID)
	if err != nil {
		h.fail(c, err, "", visitorID)
		return
	}

	response.Success(c, dto.UnreadCountResponse{UnreadCount: count})
}

func (h *Handler) fail(c *gin.Context, err error, chatID, visitorID string) {
	if code, _ := response.StatusFor(err); code >= http.StatusInternalServerError {
		h.logger.Error("收件箱操作失败",
			zap.String("route", c.FullPath()),
			zap.String("chat", chatID),
			zap.String("visitor", visitorID),
			zap.Error(err),
		)
	}
	response.Error(c, err)
}
