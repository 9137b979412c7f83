package controller

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
	"prepnotify/internal/http/dto"
	"prepnotify/internal/http/middleware"
	"prepnotify/internal/http/resp"
	"prepnotify/internal/model"
	"prepnotify/internal/realtime"
)

const (
	wsWriteWait  = 10 * time.Second
	wsPongWait   = 60 * time.Second
	wsPingPeriod = (wsPongWait * 9) / 10
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// addressed fills in the recipient of a broadcast frame, which carries no user.
func addressed(n model.Notification, userID int64) model.Notification {
	if n.UserID == 0 {
		n.UserID = userID
	}
	return n
}

// Stream serves the caller's notifications as server-sent events, replaying the
// most recent history first.
func (h *Handler) Stream(c *gin.Context) {
	userID := middleware.UserID(c)

	flusher, ok := c.Writer.(http.Flusher)
	if !ok {
		h.log.Error("streaming unsupported", zap.Int64("user_id", userID))
		c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Code: resp.CodeInternalError, Message: "streaming unsupported"})
		return
	}

	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")
	c.Writer.Header().Set("X-Accel-Buffering", "no")
	c.Status(http.StatusOK)

	// Register before reading history so nothing persisted in between is lost.
	client := &realtime.Client{
		UserID: userID,
		Ch:     make(chan model.Notification, 16),
	}
	h.hub.Register(client)
	defer h.hub.Unregister(client)

	replayed, err := h.replayHistory(c, userID)
	if err != nil {
		h.log.Error("write history notification failed", zap.Int64("user_id", userID), zap.Error(err))
		return
	}
	flusher.Flush()

	heartbeat := time.NewTicker(h.cfg.SSEHeartbeat)
	defer heartbeat.Stop()

	for {
		select {
		case <-c.Request.Context().Done():
			return
		case <-heartbeat.C:
			if _, err := fmt.Fprint(c.Writer, ": ping\n\n"); err != nil {
				h.log.Error("heartbeat write failed", zap.Int64("user_id", userID), zap.Error(err))
				return
			}
			flusher.Flush()
		case notification, ok := <-client.Ch:
			if !ok {
				return
			}
			if _, dup := replayed[notification.ID]; dup {
				delete(replayed, notification.ID)
				continue
			}
			if err := writeNotification(c.Writer, addressed(notification, userID)); err != nil {
				h.log.Error("write notification failed", zap.Int64("user_id", userID), zap.Error(err))
				return
			}
			flusher.Flush()
		}
	}
}

// replayHistory writes the most recent notifications oldest first and returns
// their ids so live frames already replayed can be skipped. A failed lookup only
// loses the replay; the returned error is a write failure.
func (h *Handler) replayHistory(c *gin.Context, userID int64) (map[int64]struct{}, error) {
	limit := h.replayLimit(c)
	if limit == 0 {
		return nil, nil
	}
	history, err := h.svc.List(c.Request.Context(), userID, false, limit)
	if err != nil {
		h.log.Error("list history failed", zap.Int64("user_id", userID), zap.Error(err))
		return nil, nil
	}
	replayed := make(map[int64]struct{}, len(history))
	for i := len(history) - 1; i >= 0; i-- {
		if err := writeNotification(c.Writer, history[i]); err != nil {
			return nil, err
		}
		replayed[history[i].ID] = struct{}{}
	}
	return replayed, nil
}

func writeNotification(w http.ResponseWriter, notification model.Notification) error {
	payload, err := json.Marshal(notification)
	if err != nil {
		return err
	}
	// Broadcast frames have no per-recipient row id.
	if notification.ID > 0 {
		if _, err := fmt.Fprintf(w, "id: %d\n", notification.ID); err != nil {
			return err
		}
	}
	_, err = fmt.Fprintf(w, "event: notification\ndata: %s\n\n", payload)
	return err
}

// WebSocket serves the caller's notifications as JSON text frames.
func (h *Handler) WebSocket(c *gin.Context) {
	userID := middleware.UserID(c)

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Warn("websocket upgrade failed", zap.Int64("user_id", userID), zap.Error(err))
		return
	}
	defer func() { _ = conn.Close() }()

	client := &realtime.Client{
		UserID: userID,
		Ch:     make(chan model.Notification, 16),
	}
	h.hub.Register(client)
	defer h.hub.Unregister(client)
	h.log.Info("websocket connected", zap.Int64("user_id", userID))

	closed := make(chan struct{})
	go func() {
		defer close(closed)
		conn.SetReadLimit(512)
		_ = conn.SetReadDeadline(time.Now().Add(wsPongWait))
		conn.SetPongHandler(func(string) error {
			return conn.SetReadDeadline(time.Now().Add(wsPongWait))
		})
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ping := time.NewTicker(wsPingPeriod)
	defer ping.Stop()

	for {
		select {
		case <-closed:
			h.log.Info("websocket disconnected", zap.Int64("user_id", userID))
			return
		case <-c.Request.Context().Done():
			return
		case <-ping.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(wsWriteWait)); err != nil {
				return
			}
		case notification, ok := <-client.Ch:
			if !ok {
				return
			}
			_ = conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := conn.WriteJSON(addressed(notification, userID)); err != nil {
				h.log.Warn("websocket write failed", zap.Int64("user_id", userID), zap.Error(err))
				return
			}
		}
	}
}
