package stream

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"MarketPulse/internal/domain/models"
	xlogger "MarketPulse/pkg/logger"
)

func trendEncoder(s *models.Snapshot) ([]byte, error) {
	return []byte(`{"trend":"` + string(s.Summary.Trend) + `"}`), nil
}

func startServer(t *testing.T) (*Hub, string) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	hub := NewHub(trendEncoder, xlogger.Nop())
	go hub.Run(ctx)

	e := echo.New()
	NewEchoHandler(hub, xlogger.Nop()).RegisterRoutes(e)
	srv := httptest.NewServer(e)
	t.Cleanup(srv.Close)

	return hub, "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/snapshot"
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("condition not met in time")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestHubBroadcastsSnapshots(t *testing.T) {
	hub, url := startServer(t)

	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()
	waitFor(t, func() bool { return hub.Clients() == 1 })

	hub.Publish(&models.Snapshot{Summary: models.Summary{Trend: models.TrendOptimistic}})

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, msg, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(msg) != `{"trend":"optimistic"}` {
		t.Fatalf("frame = %s", msg)
	}
}

func TestHubSendsLatestOnConnect(t *testing.T) {
	hub, url := startServer(t)
	hub.Publish(&models.Snapshot{Summary: models.Summary{Trend: models.TrendNegative}})

	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, msg, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if !strings.Contains(string(msg), "negative") {
		t.Fatalf("frame = %s", msg)
	}
}

func TestHubForgetsClosedClients(t *testing.T) {
	hub, url := startServer(t)

	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	waitFor(t, func() bool { return hub.Clients() == 1 })

	_ = conn.Close()
	waitFor(t, func() bool { return hub.Clients() == 0 })
}
