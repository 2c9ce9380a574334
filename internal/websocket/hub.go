package websocket

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"go.opentelemetry.io/otel/attribute"

	"ticketdash/internal/config"
	"ticketdash/internal/infrastructure"
	"ticketdash/pkg/contracts/events"
)

// ErrHubClosed is returned when a connection arrives after Shutdown.
var ErrHubClosed = errors.New("websocket hub is shut down")

// HubDeps holds the collaborators of a Hub. Validator, Metrics and
// CheckOrigin are optional.
type HubDeps struct {
	Config      config.WebSocketConfig
	Reporter    Reporter
	Validator   SelectionValidator
	Metrics     *infrastructure.DashboardMetrics
	Logger      *slog.Logger
	CheckOrigin func(r *http.Request) bool
}

// Hub tracks live filtering sessions and upgrades incoming connections.
type Hub struct {
	cfg       config.WebSocketConfig
	reporter  Reporter
	validator SelectionValidator
	metrics   *infrastructure.DashboardMetrics
	logger    *slog.Logger
	upgrader  websocket.Upgrader

	mu       sync.RWMutex
	sessions map[string]*Session
	closed   bool

	superseded atomic.Int64

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewHub creates a Hub. Zero config values fall back to the defaults.
func NewHub(deps HubDeps) *Hub {
	logger := deps.Logger
	if logger == nil {
		logger = infrastructure.GetLogger()
	}

	cfg := withDefaults(deps.Config)
	ctx, cancel := context.WithCancel(context.Background())

	return &Hub{
		cfg:       cfg,
		reporter:  deps.Reporter,
		validator: deps.Validator,
		metrics:   deps.Metrics,
		logger:    logger.With(slog.String("component", "websocket.hub")),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  cfg.ReadBufferSize,
			WriteBufferSize: cfg.WriteBufferSize,
			CheckOrigin:     deps.CheckOrigin,
		},
		sessions: make(map[string]*Session),
		ctx:      ctx,
		cancel:   cancel,
	}
}

func withDefaults(cfg config.WebSocketConfig) config.WebSocketConfig {
	def := config.Default().WebSocket
	if cfg.ReadBufferSize <= 0 {
		cfg.ReadBufferSize = def.ReadBufferSize
	}
	if cfg.WriteBufferSize <= 0 {
		cfg.WriteBufferSize = def.WriteBufferSize
	}
	if cfg.PongWait <= 0 {
		cfg.PongWait = def.PongWait
	}
	// pings must arrive before the peer's read deadline
	if cfg.PingPeriod <= 0 || cfg.PingPeriod >= cfg.PongWait {
		cfg.PingPeriod = cfg.PongWait * 9 / 10
	}
	if cfg.MaxMessageSize <= 0 {
		cfg.MaxMessageSize = def.MaxMessageSize
	}
	return cfg
}

// ServeDataset upgrades the request and starts a live session on datasetID.
// On upgrade failure the upgrader has already written the HTTP response.
func (h *Hub) ServeDataset(w http.ResponseWriter, r *http.Request, datasetID string) error {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return fmt.Errorf("websocket upgrade: %w", err)
	}

	traceID := infrastructure.GetTraceID(r.Context())
	if traceID == "" {
		traceID = infrastructure.TraceIDFromContext(r.Context())
	}
	if traceID == "" {
		traceID = infrastructure.GenerateTraceID()
	}

	if _, err := h.Attach(NewConnectionWrapper(conn), datasetID, traceID); err != nil {
		_ = conn.Close()
		return err
	}
	return nil
}

// Attach starts a session on an established connection.
func (h *Hub) Attach(conn Connection, datasetID, traceID string) (*Session, error) {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return nil, ErrHubClosed
	}
	s := newSession(h, conn, datasetID, traceID)
	h.sessions[s.id] = s
	h.wg.Add(3)
	h.mu.Unlock()

	if h.metrics != nil {
		h.metrics.LiveSessionsActive.Add(s.ctx, 1)
	}
	s.logger.InfoContext(s.ctx, "live session opened")

	// the connect message is queued before the pumps start so it is always first
	s.enqueue(events.NewServerMessage(events.MessageTypeConnect, 0, events.ConnectData{
		SessionID: s.id,
		DatasetID: datasetID,
	}))

	go s.writePump()
	go s.compute()
	go s.readPump()

	return s, nil
}

func (h *Hub) unregister(s *Session) {
	h.mu.Lock()
	_, ok := h.sessions[s.id]
	delete(h.sessions, s.id)
	h.mu.Unlock()

	if ok && h.metrics != nil {
		h.metrics.LiveSessionsActive.Add(context.Background(), -1)
	}
}

func (h *Hub) recordSuperseded(ctx context.Context, seq int64) {
	h.superseded.Add(1)
	if h.metrics != nil {
		h.metrics.SupersededSelection.Add(ctx, 1)
	}
	infrastructure.AddSpanEvent(ctx, "selection.superseded", attribute.Int64("seq", seq))
}

// SessionCount returns the number of open sessions.
func (h *Hub) SessionCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.sessions)
}

// Superseded returns how many selections were dropped for a newer one.
func (h *Hub) Superseded() int64 {
	return h.superseded.Load()
}

// Shutdown closes every session and waits for their goroutines, or for ctx.
func (h *Hub) Shutdown(ctx context.Context) error {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return nil
	}
	h.closed = true
	open := len(h.sessions)
	h.mu.Unlock()

	start := time.Now()
	h.cancel()

	done := make(chan struct{})
	go func() {
		h.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		h.logger.InfoContext(ctx, "websocket hub stopped",
			slog.Int("sessions_closed", open),
			slog.Duration("duration", time.Since(start)))
		return nil
	case <-ctx.Done():
		h.logger.WarnContext(ctx, "websocket hub shutdown timed out",
			slog.Int("sessions", h.SessionCount()),
			slog.Int64("superseded", h.Superseded()))
		return ctx.Err()
	}
}
