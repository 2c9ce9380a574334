package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	apierrors "ticketdash/internal/errors"
	"ticketdash/internal/infrastructure"
	"ticketdash/internal/services"
	"ticketdash/pkg/contracts/events"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Error codes sent on the socket that have no HTTP counterpart
	codeInvalidMessage = "INVALID_MESSAGE"
	codeUnknownType    = "UNKNOWN_MESSAGE_TYPE"
	codeReportFailed   = "REPORT_FAILED"

	reportSource = "live"
)

// pendingSelection is a queued selection tagged with its arrival generation.
type pendingSelection struct {
	msg events.ClientMessage
	gen uint64
}

// Session is one live filtering connection bound to a dataset. The read pump
// queues selections, a compute loop turns the latest one into a report, and
// the write pump is the only writer on the connection.
type Session struct {
	hub  *Hub
	conn Connection

	id          string
	datasetID   string
	traceID     string
	connectedAt time.Time
	logger      *slog.Logger

	// send buffers encoded server messages for the write pump
	send chan []byte

	// pending holds at most one selection; a newer one replaces it
	pending chan pendingSelection
	gen     atomic.Uint64

	ctx       context.Context
	cancel    context.CancelFunc
	closeOnce sync.Once

	messagesReceived atomic.Int64
	messagesSent     atomic.Int64
}

func newSession(h *Hub, conn Connection, datasetID, traceID string) *Session {
	id := uuid.New().String()
	ctx, cancel := context.WithCancel(h.ctx)
	if traceID != "" {
		ctx = infrastructure.WithTraceID(ctx, traceID)
	}

	return &Session{
		hub:         h,
		conn:        conn,
		id:          id,
		datasetID:   datasetID,
		traceID:     traceID,
		connectedAt: time.Now(),
		logger: h.logger.With(
			slog.String("session_id", id),
			slog.String("dataset_id", datasetID),
			slog.String("remote_addr", conn.RemoteAddr()),
		),
		send:    make(chan []byte, 16),
		pending: make(chan pendingSelection, 1),
		ctx:     ctx,
		cancel:  cancel,
	}
}

// ID returns the session identifier.
func (s *Session) ID() string { return s.id }

// DatasetID returns the dataset the session filters.
func (s *Session) DatasetID() string { return s.datasetID }

// readPump decodes client messages until the connection fails.
func (s *Session) readPump() {
	defer s.hub.wg.Done()
	defer s.close()

	cfg := s.hub.cfg
	s.conn.SetReadLimit(cfg.MaxMessageSize)
	_ = s.conn.SetReadDeadline(time.Now().Add(cfg.PongWait))
	s.conn.SetPongHandler(func(string) error {
		return s.conn.SetReadDeadline(time.Now().Add(cfg.PongWait))
	})

	for {
		_, data, err := s.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				s.logger.WarnContext(s.ctx, "unexpected websocket close", slog.String("error", err.Error()))
			}
			return
		}
		s.messagesReceived.Add(1)

		var msg events.ClientMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			s.sendError(0, codeInvalidMessage, "message is not valid JSON")
			continue
		}

		switch msg.Type {
		case events.MessageTypeSelection:
			if s.hub.validator != nil {
				if err := s.hub.validator.Struct(msg.Selection); err != nil {
					s.sendError(msg.Seq, apierrors.CodeValidationFailed, err.Error())
					continue
				}
			}
			s.offer(msg)
		case events.MessageTypeHeartbeat:
			s.logger.DebugContext(s.ctx, "heartbeat received")
		default:
			s.sendError(msg.Seq, codeUnknownType, "unknown message type "+string(msg.Type))
		}
	}
}

// offer queues msg, replacing a selection that has not started computing.
// readPump is the only producer, so the final send never blocks.
func (s *Session) offer(msg events.ClientMessage) {
	p := pendingSelection{msg: msg, gen: s.gen.Add(1)}
	select {
	case old := <-s.pending:
		s.hub.recordSuperseded(s.ctx, old.msg.Seq)
	default:
	}
	s.pending <- p
}

// compute runs reports for queued selections. A result is dropped when a
// newer selection arrived while it was being computed.
func (s *Session) compute() {
	defer s.hub.wg.Done()

	for {
		select {
		case <-s.ctx.Done():
			return
		case p := <-s.pending:
			report, err := s.hub.reporter.Report(s.ctx, s.datasetID, p.msg.Selection, reportSource)
			if s.ctx.Err() != nil {
				return
			}
			if s.gen.Load() != p.gen {
				s.hub.recordSuperseded(s.ctx, p.msg.Seq)
				continue
			}
			if err != nil {
				s.reportError(p.msg.Seq, err)
				continue
			}
			s.enqueue(events.NewServerMessage(events.MessageTypeReport, p.msg.Seq, report))
		}
	}
}

// writePump writes queued messages and keeps the connection alive with pings.
func (s *Session) writePump() {
	ticker := time.NewTicker(s.hub.cfg.PingPeriod)
	defer func() {
		ticker.Stop()
		s.close()
		s.hub.wg.Done()
	}()

	for {
		select {
		case <-s.ctx.Done():
			_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			_ = s.conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		case message := <-s.send:
			_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				s.logger.ErrorContext(s.ctx, "error writing message to websocket", slog.String("error", err.Error()))
				return
			}
			s.messagesSent.Add(1)
		case <-ticker.C:
			_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				s.logger.DebugContext(s.ctx, "failed to send ping", slog.String("error", err.Error()))
				return
			}
		}
	}
}

func (s *Session) enqueue(msg events.ServerMessage) {
	msg.TraceID = s.traceID
	data, err := json.Marshal(msg)
	if err != nil {
		s.logger.ErrorContext(s.ctx, "failed to encode message",
			slog.String("type", string(msg.Type)),
			slog.String("error", err.Error()))
		return
	}
	select {
	case s.send <- data:
	case <-s.ctx.Done():
	}
}

func (s *Session) sendError(seq int64, code, message string) {
	s.enqueue(events.NewServerMessage(events.MessageTypeError, seq, events.ErrorData{Code: code, Message: message}))
}

func (s *Session) reportError(seq int64, err error) {
	var apiErr *apierrors.APIError
	if errors.As(services.ToAPIError(err), &apiErr) {
		s.sendError(seq, apiErr.ErrorCode, apiErr.Message)
		return
	}
	s.logger.ErrorContext(s.ctx, "live report failed", slog.String("error", err.Error()))
	s.sendError(seq, codeReportFailed, "report could not be computed")
}

// close tears the session down once, from whichever goroutine gets there first.
func (s *Session) close() {
	s.closeOnce.Do(func() {
		s.cancel()
		_ = s.conn.Close()
		s.hub.unregister(s)
		s.logger.InfoContext(s.ctx, "live session closed",
			slog.Duration("connection_duration", time.Since(s.connectedAt)),
			slog.Int64("messages_received", s.messagesReceived.Load()),
			slog.Int64("messages_sent", s.messagesSent.Load()))
	})
}
