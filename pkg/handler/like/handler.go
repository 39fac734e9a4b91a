/*
 * @Description: 文章与评论点赞接口
 * @Date: 2025-11-02 16:30:02
 */
package like

import (
	"net/http"

	"github.com/anzhiyu-c/anheyu-social/pkg/handler/like/dto"
	"github.com/anzhiyu-c/anheyu-social/pkg/response"
	likesvc "github.com/anzhiyu-c/anheyu-social/pkg/service/like"
	"github.com/anzhiyu-c/anheyu-social/pkg/service/visitor"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Handler 点赞处理器，一个实例对应一个键空间
type Handler struct {
	ledger    *likesvc.Ledger
	visitors  *visitor.Service
	paramName string
	logger    *zap.Logger
}

// NewHandler paramName 是路由中实体ID的参数名
func NewHandler(ledger *likesvc.Ledger, visitors *visitor.Service, paramName string, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		ledger:    ledger,
		visitors:  visitors,
		paramName: paramName,
		logger:    logger.With(zap.String("keyspace", ledger.Keyspace().Name)),
	}
}

// GetStatus
// @Summary      获取点赞状态
// @Description  返回点赞数以及当前访客是否点过赞，不会创建访客标识
// @Tags         点赞
// @Produce      json
// @Param        entityId path string true "文章或评论ID"
// @Success      200 {object} likesvc.Status
// @Failure      400 {object} response.ErrorBody
// @Failure      500 {object} response.ErrorBody
// @Router       /likes/{entityId} [get]
func (h *Handler) GetStatus(c *gin.Context) {
	entityID := c.Param(h.paramName)
	visitorID, _ := h.visitors.Read(c)

	status, err := h.ledger.GetStatus(c.Request.Context(), entityID, visitorID)
	if err != nil {
		h.fail(c, err, entityID, visitorID)
		return
	}

	response.Success(c, status)
}

// Toggle
// @Summary      点赞或取消点赞
// @Description  对同一访客幂等；访客没有标识时会下发 visitorId Cookie
// @Tags         点赞
// @Accept       json
// @Produce      json
// @Param        entityId path string true "文章或评论ID"
// @Param        body body dto.ToggleRequest true "like 或 unlike"
// @Success      200 {object} likesvc.Status
// @Failure      400 {object} response.ErrorBody
// @Failure      429 {object} response.ErrorBody
// @Failure      500 {object} response.ErrorBody
// @Router       /likes/{entityId} [post]
func (h *Handler) Toggle(c *gin.Context) {
	var req dto.ToggleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Fail(c, http.StatusBadRequest, "Invalid JSON")
		return
	}

	action, err := likesvc.ParseAction(req.Action)
	if err != nil {
		response.Fail(c, http.StatusBadRequest, "Invalid action")
		return
	}

	entityID := c.Param(h.paramName)
	visitorID, _ := h.visitors.GetOrCreate(c)

	status, err := h.ledger.Toggle(c.Request.Context(), entityID, visitorID, action)
	if err != nil {
		h.fail(c, err, entityID, visitorID)
		return
	}

	response.Success(c, status)
}

func (h *Handler) fail(c *gin.Context, err error, entityID, visitorID string) {
	if code, _ := response.StatusFor(err); code >= http.StatusInternalServerError {
		h.logger.Error("点赞操作失败",
			zap.String("route", c.FullPath()),
			zap.String("entity", entityID),
			zap.String("visitor", visitorID),
			zap.Error(err),
		)
	}
	response.Error(c, err)
}
