package stream

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"token-radar/internal/mintid"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

func wsURL(server *httptest.Server) string {
	return "ws" + strings.TrimPrefix(server.URL, "http")
}

func waitFor(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("condition not met before timeout")
}

func TestFeed_SubscribesAndBuffers(t *testing.T) {
	mints := []string{mintid.Synthetic("feed", 1), mintid.Synthetic("feed", 2)}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("upgrade: %v", err)
			return
		}
		defer conn.Close()

		_, msg, err := conn.ReadMessage()
		if err != nil {
			return
		}
		var req struct {
			Method string `json:"method"`
		}
		if err := json.Unmarshal(msg, &req); err != nil || req.Method != "subscribeNewToken" {
			t.Errorf("unexpected subscribe message: %s", msg)
			return
		}

		conn.WriteMessage(websocket.TextMessage, []byte(`{"message":"Successfully subscribed"}`))
		conn.WriteMessage(websocket.TextMessage, []byte(`not-json`))
		for i, m := range mints {
			conn.WriteMessage(websocket.TextMessage,
				[]byte(fmt.Sprintf(`{"mint":%q,"name":"Token %d","symbol":"T%d"}`, m, i, i)))
		}

		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}))
	defer server.Close()

	feed := NewFeed(Config{URL: wsURL(server), ReconnectDelay: 50 * time.Millisecond}, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- feed.Run(ctx) }()

	waitFor(t, 2*time.Second, func() bool { return feed.Len() == 2 })

	if feed.State() != StateSubscribed {
		t.Errorf("State = %s, want subscribed", feed.State())
	}

	snap := feed.Snapshot(10)
	if snap[0].Identifier != mints[1] || snap[1].Identifier != mints[0] {
		t.Errorf("snapshot not newest first: %s, %s", snap[0].Identifier, snap[1].Identifier)
	}

	cancel()
	select {
	case err := <-errCh:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("Run returned %v, want context.Canceled", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancel")
	}

	if feed.State() != StateDisconnected {
		t.Errorf("State after cancel = %s", feed.State())
	}
}

func TestFeed_ReconnectsAfterDrop(t *testing.T) {
	var connections atomic.Int32

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		n := connections.Add(1)
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
		if n == 1 {
			// Drop the first connection right after subscribe.
			return
		}
		conn.WriteMessage(websocket.TextMessage,
			[]byte(fmt.Sprintf(`{"mint":%q}`, mintid.Synthetic("reconnect", 1))))
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}))
	defer server.Close()

	feed := NewFeed(Config{URL: wsURL(server), ReconnectDelay: 20 * time.Millisecond}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go feed.Run(ctx)

	waitFor(t, 3*time.Second, func() bool { return connections.Load() >= 2 && feed.Len() == 1 })
}

func TestFeed_DialFailureKeepsRetrying(t *testing.T) {
	feed := NewFeed(Config{URL: "ws://127.0.0.1:1/unreachable", ReconnectDelay: 10 * time.Millisecond}, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	err := feed.Run(ctx)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Run = %v, want deadline exceeded", err)
	}
	if feed.Len() != 0 {
		t.Errorf("Len = %d, want 0", feed.Len())
	}
}

func TestFeed_SecondRunRejected(t *testing.T) {
	feed := NewFeed(Config{URL: "ws://127.0.0.1:1/unreachable", ReconnectDelay: time.Second}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go feed.Run(ctx)

	waitFor(t, time.Second, func() bool { return feed.running.Load() })
	if err := feed.Run(ctx); err == nil {
		t.Error("expected error for concurrent Run")
	}
}

func TestState_String(t *testing.T) {
	if StateSubscribed.String() != "subscribed" || State(9).String() != "unknown" {
		t.Error("unexpected State strings")
	}
}
