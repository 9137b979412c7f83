package e2e

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"prepnotify/internal/config"
	httpserver "prepnotify/internal/http"
	"prepnotify/internal/http/controller"
	"prepnotify/internal/http/middleware"
	"prepnotify/internal/queue"
	"prepnotify/internal/realtime"
	"prepnotify/internal/service/notify"
)

const jwtSecret = "e2e-secret"

type noopPublisher struct{}

func (n *noopPublisher) Publish(context.Context, queue.DispatchMessage) error {
	return nil
}

type harness struct {
	server *httptest.Server
	hub    *realtime.Hub
	svc    *notify.Service
}

func testConfig() *config.Config {
	return &config.Config{
		HTTPAddr:        ":0",
		SSEHeartbeat:    5 * time.Second,
		HistoryLimit:    10,
		JWTSecret:       jwtSecret,
		OTELServiceName: "prepnotify-e2e",
	}
}

func startServer(t *testing.T, cfg *config.Config, store notify.Repository, publisher queue.Publisher) *harness {
	t.Helper()
	gin.SetMode(gin.TestMode)

	logger := zap.NewNop()
	hub := realtime.NewHub()
	svc := notify.NewService(store, hub, logger)
	handler := controller.NewHandler(cfg, svc, hub, logger, publisher)
	router := httpserver.NewRouter(cfg, handler, logger)

	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)

	server := httptest.NewServer(router)
	t.Cleanup(func() {
		server.Close()
		cancel()
	})
	return &harness{server: server, hub: hub, svc: svc}
}

func bearer(t *testing.T, userID int64, role string) string {
	t.Helper()
	tok, err := middleware.GenerateToken(jwtSecret, userID, role, time.Hour)
	require.NoError(t, err)
	return tok
}

func (h *harness) do(t *testing.T, method, path, token string, body any) *http.Response {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req, err := http.NewRequest(method, h.server.URL+path, reader)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	res, err := h.server.Client().Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { _ = res.Body.Close() })
	return res
}

// subscribe opens the SSE stream and waits until the hub has the connection.
func (h *harness) subscribe(t *testing.T, userID int64, token, query string) *bufio.Reader {
	t.Helper()
	res, err := h.server.Client().Get(h.server.URL + "/api/notifications/stream?token=" + token + query)
	require.NoError(t, err)
	t.Cleanup(func() { _ = res.Body.Close() })
	require.Equal(t, http.StatusOK, res.StatusCode)
	require.Eventually(t, func() bool { return h.hub.Connected(userID) }, 2*time.Second, 10*time.Millisecond)
	return bufio.NewReader(res.Body)
}

func readSSEData(reader *bufio.Reader, timeout time.Duration) (string, error) {
	type result struct {
		data string
		err  error
	}
	ch := make(chan result, 1)

	go func() {
		var dataLines []string
		for {
			line, err := reader.ReadString('\n')
			if err != nil {
				ch <- result{"", err}
				return
			}
			line = strings.TrimRight(line, "\r\n")
			if line == "" {
				if len(dataLines) > 0 {
					ch <- result{strings.Join(dataLines, "\n"), nil}
					return
				}
				continue
			}
			if strings.HasPrefix(line, ":") {
				continue
			}
			if strings.HasPrefix(line, "data:") {
				dataLines = append(dataLines, strings.TrimSpace(strings.TrimPrefix(line, "data:")))
			}
		}
	}()

	select {
	case res := <-ch:
		return res.data, res.err
	case <-time.After(timeout):
		return "", context.DeadlineExceeded
	}
}
