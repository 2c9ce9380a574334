package websocket

import (
	"context"
	"time"

	api "ticketdash/pkg/contracts/api/v1"
	"ticketdash/pkg/contracts/domain"
)

// Connection defines the subset of a WebSocket connection a session uses.
// It allows the pumps to be driven by fakes in tests.
type Connection interface {
	// WriteMessage writes a message with the given message type and payload
	WriteMessage(messageType int, data []byte) error

	// ReadMessage reads a message from the connection
	ReadMessage() (messageType int, p []byte, err error)

	Close() error

	SetReadDeadline(t time.Time) error
	SetWriteDeadline(t time.Time) error
	SetReadLimit(limit int64)
	SetPongHandler(h func(string) error)

	// RemoteAddr returns the remote network address
	RemoteAddr() string
}

// Reporter computes a report for a stored dataset.
type Reporter interface {
	Report(ctx context.Context, id string, sel domain.Selection, source string) (*api.ReportResponse, error)
}

// SelectionValidator checks an incoming selection before it is queued.
type SelectionValidator interface {
	Struct(s interface{}) error
}
