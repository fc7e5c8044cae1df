// Package stream subscribes to a push feed of newly created tokens and
// buffers them for the discovery stage.
package stream

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"token-radar/internal/domain"
	"token-radar/internal/observability"
)

// DefaultURL is the PumpPortal public data feed.
const DefaultURL = "wss://pumpportal.fun/api/data"

// DefaultBufferSize is the default ring capacity.
const DefaultBufferSize = 150

// DefaultSubscribeMessage requests token creation events.
var DefaultSubscribeMessage = []byte(`{"method":"subscribeNewToken"}`)

// State is the connection state of a Feed.
type State int32

const (
	StateDisconnected State = iota
	StateConnecting
	StateSubscribed
)

func (s State) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnecting:
		return "connecting"
	case StateSubscribed:
		return "subscribed"
	default:
		return "unknown"
	}
}

// Config configures Feed behavior.
type Config struct {
	// URL is the WebSocket endpoint.
	URL string
	// SubscribeMessage is sent once per connection.
	SubscribeMessage []byte
	// BufferSize is the ring capacity.
	BufferSize int
	// ReconnectDelay is the fixed wait after a disconnect.
	ReconnectDelay time.Duration
	// PingInterval is the interval between ping frames.
	PingInterval time.Duration
	// ReadTimeout bounds the silence tolerated on a connection.
	ReadTimeout time.Duration
	// WriteTimeout bounds control and subscribe writes.
	WriteTimeout time.Duration
	// HandshakeTimeout bounds the dial.
	HandshakeTimeout time.Duration
}

// DefaultConfig returns the default feed configuration.
func DefaultConfig() Config {
	return Config{
		URL:              DefaultURL,
		SubscribeMessage: DefaultSubscribeMessage,
		BufferSize:       DefaultBufferSize,
		ReconnectDelay:   5 * time.Second,
		PingInterval:     30 * time.Second,
		ReadTimeout:      90 * time.Second,
		WriteTimeout:     10 * time.Second,
		HandshakeTimeout: 10 * time.Second,
	}
}

// Feed maintains a subscription to the push feed and owns the ring buffer.
type Feed struct {
	cfg    Config
	ring   *Ring
	logger *zap.Logger
	now    func() time.Time

	state   atomic.Int32
	running atomic.Bool
}

// NewFeed creates a Feed. Zero config fields take their defaults.
func NewFeed(cfg Config, logger *zap.Logger) *Feed {
	def := DefaultConfig()
	if cfg.URL == "" {
		cfg.URL = def.URL
	}
	if len(cfg.SubscribeMessage) == 0 {
		cfg.SubscribeMessage = def.SubscribeMessage
	}
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = def.BufferSize
	}
	if cfg.ReconnectDelay <= 0 {
		cfg.ReconnectDelay = def.ReconnectDelay
	}
	if cfg.PingInterval <= 0 {
		cfg.PingInterval = def.PingInterval
	}
	if cfg.ReadTimeout <= 0 {
		cfg.ReadTimeout = def.ReadTimeout
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = def.WriteTimeout
	}
	if cfg.HandshakeTimeout <= 0 {
		cfg.HandshakeTimeout = def.HandshakeTimeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Feed{
		cfg:    cfg,
		ring:   NewRing(cfg.BufferSize),
		logger: logger.With(zap.String("component", "stream")),
		now:    time.Now,
	}
}

// State returns the current connection state.
func (f *Feed) State() State {
	return State(f.state.Load())
}

// Snapshot returns up to n buffered candidates, newest first.
func (f *Feed) Snapshot(n int) []domain.Candidate {
	return f.ring.Snapshot(n)
}

// Len returns the number of buffered candidates.
func (f *Feed) Len() int {
	return f.ring.Len()
}

// Run connects, subscribes and reads until ctx is cancelled. Every
// disconnect is followed by ReconnectDelay and a new connection attempt.
// It returns ctx.Err(). Only one Run may be active per Feed.
func (f *Feed) Run(ctx context.Context) error {
	if f.running.Swap(true) {
		return errors.New("stream: feed already running")
	}
	defer f.running.Store(false)

	for {
		f.setState(StateConnecting)
		err := f.session(ctx)
		f.setState(StateDisconnected)

		if ctx.Err() != nil {
			return ctx.Err()
		}

		f.logger.Warn("feed disconnected",
			zap.Duration("reconnect_in", f.cfg.ReconnectDelay),
			zap.Error(err),
		)
		observability.RecordStreamReconnect()

		timer := time.NewTimer(f.cfg.ReconnectDelay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}

// session runs a single connection until it fails or ctx is cancelled.
func (f *Feed) session(ctx context.Context) error {
	dialer := websocket.Dialer{HandshakeTimeout: f.cfg.HandshakeTimeout}

	conn, _, err := dialer.DialContext(ctx, f.cfg.URL, nil)
	if err != nil {
		return fmt.Errorf("websocket dial: %w", err)
	}
	defer conn.Close()

	conn.SetWriteDeadline(time.Now().Add(f.cfg.WriteTimeout))
	if err := conn.WriteMessage(websocket.TextMessage, f.cfg.SubscribeMessage); err != nil {
		return fmt.Errorf("write subscribe: %w", err)
	}
	f.setState(StateSubscribed)
	f.logger.Info("feed subscribed", zap.String("url", f.cfg.URL))

	conn.SetReadDeadline(time.Now().Add(f.cfg.ReadTimeout))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(f.cfg.ReadTimeout))
	})

	done := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		f.pingLoop(conn, done)
	}()
	go func() {
		defer wg.Done()
		// Unblocks ReadMessage on shutdown.
		select {
		case <-ctx.Done():
			conn.Close()
		case <-done:
		}
	}()
	defer func() {
		close(done)
		wg.Wait()
	}()

	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			return fmt.Errorf("read: %w", err)
		}
		conn.SetReadDeadline(time.Now().Add(f.cfg.ReadTimeout))
		f.handleMessage(message)
	}
}

func (f *Feed) handleMessage(message []byte) {
	c, err := ParseMessage(message, f.now())
	switch {
	case err == nil:
		f.ring.Push(c)
		observability.RecordStreamMessage("accepted")
		observability.SetStreamBufferLength(f.ring.Len())
	case errors.Is(err, errNoIdentifier):
		// Acks and trade events carry no mint.
		observability.RecordStreamMessage("ignored")
	case errors.Is(err, errBadIdentifier):
		observability.RecordStreamMessage("invalid")
	default:
		f.logger.Debug("dropping malformed feed message", zap.Int("bytes", len(message)))
		observability.RecordStreamMessage("malformed")
	}
}

// pingLoop sends periodic ping frames until done is closed.
func (f *Feed) pingLoop(conn *websocket.Conn, done <-chan struct{}) {
	ticker := time.NewTicker(f.cfg.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			deadline := time.Now().Add(f.cfg.WriteTimeout)
			if err := conn.WriteControl(websocket.PingMessage, nil, deadline); err != nil {
				// Reader observes the broken connection.
				return
			}
		}
	}
}

func (f *Feed) setState(s State) {
	prev := State(f.state.Swap(int32(s)))
	if prev != s {
		observability.SetStreamState(int(s))
	}
}
