package e2e

import (
	"bufio"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"prepnotify/internal/domain"
	"prepnotify/internal/model"
	"prepnotify/internal/store/memory"
)

func TestSSEFlow(t *testing.T) {
	store := memory.New(zap.NewNop())
	store.AddUser(model.User{ID: 1, Name: "ana", Role: domain.RoleStudent})
	store.AddUser(model.User{ID: 2, Name: "ben", Role: domain.RoleTeacher})
	h := startServer(t, testConfig(), store, &noopPublisher{})

	stream := h.subscribe(t, 1, bearer(t, 1, domain.RoleStudent), "&limit=0")

	res := h.do(t, http.MethodPost, "/api/notifications", bearer(t, 9, domain.RoleAdmin), map[string]any{
		"target":  "user",
		"user_id": 1,
		"type":    domain.NotificationTypeInfo,
		"title":   "hello",
		"message": "world",
	})
	require.Equal(t, http.StatusCreated, res.StatusCode)

	data, err := readSSEData(stream, 2*time.Second)
	require.NoError(t, err)

	var got model.Notification
	require.NoError(t, json.Unmarshal([]byte(data), &got))
	require.Equal(t, int64(1), got.UserID)
	require.Equal(t, domain.NotificationTypeInfo, got.Type)
	require.Equal(t, "hello", got.Title)
	require.Equal(t, "world", got.Message)
}

func TestBroadcastReachesEveryConnectedUser(t *testing.T) {
	store := memory.New(zap.NewNop())
	store.AddUser(model.User{ID: 1, Name: "ana", Role: domain.RoleStudent})
	store.AddUser(model.User{ID: 2, Name: "ben", Role: domain.RoleTeacher})
	h := startServer(t, testConfig(), store, &noopPublisher{})

	ana := h.subscribe(t, 1, bearer(t, 1, domain.RoleStudent), "&limit=0")
	ben := h.subscribe(t, 2, bearer(t, 2, domain.RoleTeacher), "&limit=0")

	res := h.do(t, http.MethodPost, "/api/notifications", bearer(t, 9, domain.RoleAdmin), map[string]any{
		"target": "all",
		"type":   domain.NotificationTypeSystem,
		"title":  "maintenance",
	})
	require.Equal(t, http.StatusCreated, res.StatusCode)

	for want, stream := range map[int64]*bufio.Reader{1: ana, 2: ben} {
		data, err := readSSEData(stream, 2*time.Second)
		require.NoError(t, err)
		var got model.Notification
		require.NoError(t, json.Unmarshal([]byte(data), &got))
		require.Equal(t, "maintenance", got.Title)
		require.Equal(t, want, got.UserID)
	}
	require.Len(t, store.Notifications(), 2)
}
