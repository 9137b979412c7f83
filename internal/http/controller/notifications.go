package controller

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"prepnotify/internal/config"
	"prepnotify/internal/domain"
	"prepnotify/internal/http/dto"
	"prepnotify/internal/http/middleware"
	"prepnotify/internal/http/resp"
	"prepnotify/internal/model"
	"prepnotify/internal/queue"
	"prepnotify/internal/queue/rabbitmq"
	"prepnotify/internal/realtime"
	"prepnotify/internal/service/notify"
)

const maxListLimit = 100

type Handler struct {
	cfg *config.Config
	svc *notify.Service
	hub *realtime.Hub
	log *zap.Logger
	pub queue.Publisher
}

func NewHandler(cfg *config.Config, svc *notify.Service, hub *realtime.Hub, logger *zap.Logger, publisher queue.Publisher) *Handler {
	return &Handler{cfg: cfg, svc: svc, hub: hub, log: logger, pub: publisher}
}

func badRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, dto.ErrorResponse{Code: resp.CodeBadRequest, Message: message})
}

func internalError(c *gin.Context, message string) {
	c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Code: resp.CodeInternalError, Message: message})
}

// validationMessage maps dispatcher validation errors to a client message.
func validationMessage(err error) (string, bool) {
	switch {
	case errors.Is(err, domain.ErrInvalidNotificationType):
		return "unknown notification type", true
	case errors.Is(err, domain.ErrInvalidRole):
		return "role must be one of: student, teacher, admin", true
	case errors.Is(err, domain.ErrInvalidPayload):
		return err.Error(), true
	default:
		return "", false
	}
}

// listLimit reads ?limit clamped to [1, maxListLimit]. Missing, malformed or
// non-positive values fall back to the configured history size.
func (h *Handler) listLimit(c *gin.Context) int {
	limit := h.cfg.HistoryLimit
	if n, err := strconv.Atoi(c.Query("limit")); err == nil && n > 0 {
		limit = n
	}
	return min(max(limit, 1), maxListLimit)
}

// replayLimit is the history replayed on a stream; limit=0 skips the replay.
func (h *Handler) replayLimit(c *gin.Context) int {
	if c.Query("limit") == "0" {
		return 0
	}
	return h.listLimit(c)
}

func (h *Handler) ListNotifications(c *gin.Context) {
	userID := middleware.UserID(c)
	unread := c.Query("unread") == "true"
	items, err := h.svc.List(c.Request.Context(), userID, unread, h.listLimit(c))
	if err != nil {
		internalError(c, "failed to list notifications")
		return
	}
	if items == nil {
		items = []model.Notification{}
	}
	c.JSON(http.StatusOK, dto.ListNotificationsResponse{Notifications: items})
}

func (h *Handler) UnreadCount(c *gin.Context) {
	count, err := h.svc.UnreadCount(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		internalError(c, "failed to count notifications")
		return
	}
	c.JSON(http.StatusOK, dto.UnreadCountResponse{Count: count})
}

func (h *Handler) MarkRead(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		badRequest(c, "invalid notification id")
		return
	}
	userID := middleware.UserID(c)
	if err := h.svc.MarkRead(c.Request.Context(), userID, id); err != nil {
		if errors.Is(err, domain.ErrNotificationNotFound) {
			c.JSON(http.StatusNotFound, dto.ErrorResponse{Code: resp.CodeNotFound, Message: "notification not found"})
			return
		}
		h.log.Error("mark read failed", zap.Int64("user_id", userID), zap.Int64("id", id), zap.Error(err))
		internalError(c, "failed to mark notification read")
		return
	}
	c.JSON(http.StatusOK, dto.StatusResponse{Code: resp.CodeOK, Message: "ok"})
}

func (h *Handler) MarkAllRead(c *gin.Context) {
	updated, err := h.svc.MarkAllRead(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		internalError(c, "failed to mark notifications read")
		return
	}
	c.JSON(http.StatusOK, dto.MarkAllReadResponse{Updated: updated})
}

func toMessage(req dto.CreateNotificationRequest) queue.DispatchMessage {
	return queue.DispatchMessage{
		Target:  req.Target,
		UserID:  req.UserID,
		Role:    req.Role,
		Type:    req.Type,
		Title:   req.Title,
		Message: req.Message,
		Data:    req.Data,
	}
}

// CreateNotification dispatches immediately to the addressed recipients.
func (h *Handler) CreateNotification(c *gin.Context) {
	var req dto.CreateNotificationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid json")
		return
	}
	msg := toMessage(req)
	if err := msg.Validate(); err != nil {
		text, _ := validationMessage(err)
		badRequest(c, text)
		return
	}

	payload := notify.Payload{Type: msg.Type, Title: msg.Title, Message: msg.Message}
	if len(msg.Data) > 0 {
		payload.Data = msg.Data
	}

	ctx := c.Request.Context()
	var (
		created []model.Notification
		err     error
	)
	switch msg.Target {
	case queue.TargetUser:
		var n model.Notification
		n, err = h.svc.SendToUser(ctx, msg.UserID, payload)
		if err == nil {
			created = []model.Notification{n}
		}
	case queue.TargetRole:
		created, err = h.svc.SendToUsersByRole(ctx, msg.Role, payload)
	case queue.TargetAll:
		created, err = h.svc.SendToAllUsers(ctx, payload)
	}
	if err != nil {
		if text, ok := validationMessage(err); ok {
			badRequest(c, text)
			return
		}
		h.log.Error("create notification failed",
			zap.String("target", msg.Target),
			zap.String("type", msg.Type),
			zap.String("title", msg.Title),
			zap.Error(err),
		)
		internalError(c, "failed to create notification")
		return
	}
	c.JSON(http.StatusCreated, dto.CreateNotificationResponse{Created: len(created), Notifications: created})
}

// PublishNotification queues the dispatch on the broker.
func (h *Handler) PublishNotification(c *gin.Context) {
	var req dto.CreateNotificationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid json")
		return
	}
	msg := toMessage(req)
	if err := msg.Validate(); err != nil {
		text, _ := validationMessage(err)
		badRequest(c, text)
		return
	}

	if err := h.pub.Publish(c.Request.Context(), msg); err != nil {
		if errors.Is(err, rabbitmq.ErrPublisherDisabled) {
			c.JSON(http.StatusServiceUnavailable, dto.ErrorResponse{Code: resp.CodeUnavailable, Message: "queue not configured"})
			return
		}
		h.log.Error("publish notification failed",
			zap.String("target", msg.Target),
			zap.String("type", msg.Type),
			zap.String("title", msg.Title),
			zap.Error(err),
		)
		internalError(c, "failed to publish notification")
		return
	}

	c.JSON(http.StatusAccepted, dto.StatusResponse{Code: resp.CodeQueued, Message: "queued"})
}
