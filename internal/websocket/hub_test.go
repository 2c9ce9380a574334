package websocket

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ticketdash/internal/config"
	"ticketdash/internal/infrastructure"
	"ticketdash/internal/middleware"
	"ticketdash/internal/store"
	api "ticketdash/pkg/contracts/api/v1"
	"ticketdash/pkg/contracts/domain"
	"ticketdash/pkg/contracts/events"
)

// fakeReporter blocks on selections whose first priority is "block" until
// release is closed.
type fakeReporter struct {
	mu      sync.Mutex
	calls   []domain.Selection
	started chan struct{}
	release chan struct{}
	err     error
}

func newFakeReporter() *fakeReporter {
	return &fakeReporter{
		started: make(chan struct{}, 4),
		release: make(chan struct{}),
	}
}

func (f *fakeReporter) Report(ctx context.Context, id string, sel domain.Selection, source string) (*api.ReportResponse, error) {
	f.mu.Lock()
	f.calls = append(f.calls, sel)
	f.mu.Unlock()

	if len(sel.Priorities) > 0 && sel.Priorities[0] == "block" {
		f.started <- struct{}{}
		select {
		case <-f.release:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if f.err != nil {
		return nil, f.err
	}
	return &api.ReportResponse{DatasetID: id, Selection: sel, TotalRows: len(sel.Priorities)}, nil
}

func (f *fakeReporter) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func newTestHub(t *testing.T, reporter Reporter) (*Hub, string) {
	t.Helper()
	logger := infrastructure.NewLogger(io.Discard, "error")
	hub := NewHub(HubDeps{
		Reporter:  reporter,
		Validator: middleware.NewValidator(logger),
		Logger:    logger,
	})

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = hub.ServeDataset(w, r, "ds-1")
	}))
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = hub.Shutdown(ctx)
		srv.Close()
	})

	return hub, "ws" + strings.TrimPrefix(srv.URL, "http")
}

func dial(t *testing.T, url string) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func readServerMessage(t *testing.T, conn *websocket.Conn) events.ServerMessage {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)

	var msg events.ServerMessage
	require.NoError(t, json.Unmarshal(data, &msg))
	return msg
}

func sendSelection(t *testing.T, conn *websocket.Conn, seq int64, priorities ...string) {
	t.Helper()
	require.NoError(t, conn.WriteJSON(events.ClientMessage{
		Type:      events.MessageTypeSelection,
		Seq:       seq,
		Selection: domain.Selection{Priorities: priorities},
	}))
}

func payload(t *testing.T, msg events.ServerMessage) map[string]interface{} {
	t.Helper()
	data, ok := msg.Data.(map[string]interface{})
	require.True(t, ok, "message data should be an object, got %T", msg.Data)
	return data
}

func TestSession_ConnectThenReport(t *testing.T) {
	hub, url := newTestHub(t, newFakeReporter())
	conn := dial(t, url)

	connect := readServerMessage(t, conn)
	assert.Equal(t, events.MessageTypeConnect, connect.Type)
	assert.Equal(t, "ds-1", payload(t, connect)["dataset_id"])
	assert.NotEmpty(t, payload(t, connect)["session_id"])
	assert.NotEmpty(t, connect.TraceID)

	assert.Eventually(t, func() bool { return hub.SessionCount() == 1 }, 2*time.Second, 10*time.Millisecond)

	sendSelection(t, conn, 1, "P1", "P4")
	report := readServerMessage(t, conn)
	assert.Equal(t, events.MessageTypeReport, report.Type)
	assert.Equal(t, int64(1), report.Seq)
	assert.Equal(t, "ds-1", payload(t, report)["dataset_id"])
	assert.Equal(t, float64(2), payload(t, report)["total_rows"])
}

func TestSession_LatestSelectionWins(t *testing.T) {
	reporter := newFakeReporter()
	hub, url := newTestHub(t, reporter)
	conn := dial(t, url)
	readServerMessage(t, conn) // connect

	sendSelection(t, conn, 1, "block")
	select {
	case <-reporter.started:
	case <-time.After(5 * time.Second):
		t.Fatal("first selection never started computing")
	}

	// seq 2 waits in the pending slot until seq 3 replaces it
	sendSelection(t, conn, 2, "P2")
	sendSelection(t, conn, 3, "P3")
	assert.Eventually(t, func() bool { return hub.Superseded() == 1 }, 2*time.Second, 10*time.Millisecond)

	close(reporter.release)

	report := readServerMessage(t, conn)
	assert.Equal(t, events.MessageTypeReport, report.Type)
	assert.Equal(t, int64(3), report.Seq, "only the latest selection is answered")
	assert.Equal(t, int64(2), hub.Superseded(), "the in-flight result is discarded too")
	assert.Equal(t, 2, reporter.callCount(), "seq 2 is never computed")
}

func TestSession_RejectsBadMessages(t *testing.T) {
	_, url := newTestHub(t, newFakeReporter())
	conn := dial(t, url)
	readServerMessage(t, conn) // connect

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("not json")))
	msg := readServerMessage(t, conn)
	assert.Equal(t, events.MessageTypeError, msg.Type)
	assert.Equal(t, codeInvalidMessage, payload(t, msg)["code"])

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"bogus","seq":4}`)))
	msg = readServerMessage(t, conn)
	assert.Equal(t, codeUnknownType, payload(t, msg)["code"])
	assert.Equal(t, int64(4), msg.Seq)

	// heartbeats are accepted silently
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"heartbeat"}`)))

	sendSelection(t, conn, 5, "P1\x01")
	msg = readServerMessage(t, conn)
	assert.Equal(t, events.MessageTypeError, msg.Type)
	assert.Equal(t, "VALIDATION_FAILED", payload(t, msg)["code"])
	assert.Equal(t, int64(5), msg.Seq)

	sendSelection(t, conn, 6, "P1")
	msg = readServerMessage(t, conn)
	assert.Equal(t, events.MessageTypeReport, msg.Type)
	assert.Equal(t, int64(6), msg.Seq)
}

func TestSession_BadDatesReachTheReporter(t *testing.T) {
	reporter := newFakeReporter()
	_, url := newTestHub(t, reporter)
	conn := dial(t, url)
	readServerMessage(t, conn) // connect

	dates := []string{strings.Repeat("9", 33), "2024-01-01\x07"}
	require.NoError(t, conn.WriteJSON(events.ClientMessage{
		Type:      events.MessageTypeSelection,
		Seq:       1,
		Selection: domain.Selection{Priorities: []string{"P4"}, DateRange: dates},
	}))

	msg := readServerMessage(t, conn)
	assert.Equal(t, events.MessageTypeReport, msg.Type)
	assert.Equal(t, int64(1), msg.Seq)
	require.Equal(t, 1, reporter.callCount())
	reporter.mu.Lock()
	defer reporter.mu.Unlock()
	assert.Equal(t, dates, reporter.calls[0].DateRange)
}

func TestSession_ReportErrorIsMapped(t *testing.T) {
	reporter := newFakeReporter()
	reporter.err = store.ErrNotFound
	_, url := newTestHub(t, reporter)
	conn := dial(t, url)
	readServerMessage(t, conn) // connect

	sendSelection(t, conn, 1)
	msg := readServerMessage(t, conn)
	assert.Equal(t, events.MessageTypeError, msg.Type)
	assert.Equal(t, int64(1), msg.Seq)
	assert.Equal(t, "DATASET_NOT_FOUND", payload(t, msg)["code"])
}

func TestSession_ClientDisconnectUnregisters(t *testing.T) {
	hub, url := newTestHub(t, newFakeReporter())
	conn := dial(t, url)
	readServerMessage(t, conn)
	require.Equal(t, 1, hub.SessionCount())

	require.NoError(t, conn.Close())
	assert.Eventually(t, func() bool { return hub.SessionCount() == 0 }, 2*time.Second, 10*time.Millisecond)
}

func TestHub_ShutdownClosesSessions(t *testing.T) {
	hub, url := newTestHub(t, newFakeReporter())
	conn := dial(t, url)
	readServerMessage(t, conn)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, hub.Shutdown(ctx))
	assert.Equal(t, 0, hub.SessionCount())

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	_, _, err := conn.ReadMessage()
	assert.True(t, websocket.IsCloseError(err, websocket.CloseNormalClosure), "got %v", err)

	_, err = hub.Attach(nil, "ds-1", "")
	assert.ErrorIs(t, err, ErrHubClosed)
	assert.NoError(t, hub.Shutdown(ctx), "second shutdown is a no-op")
}

func TestWithDefaults(t *testing.T) {
	cfg := withDefaults(config.WebSocketConfig{})
	def := config.Default().WebSocket
	assert.Equal(t, def.ReadBufferSize, cfg.ReadBufferSize)
	assert.Equal(t, def.PongWait, cfg.PongWait)
	assert.Equal(t, def.MaxMessageSize, cfg.MaxMessageSize)
	assert.Less(t, cfg.PingPeriod, cfg.PongWait)

	cfg = withDefaults(config.WebSocketConfig{PingPeriod: time.Minute, PongWait: 10 * time.Second})
	assert.Equal(t, 9*time.Second, cfg.PingPeriod)
}
