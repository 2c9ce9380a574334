// Package events contains the message contract of the live filtering
// WebSocket.
package events

import (
	"time"

	"ticketdash/pkg/contracts/domain"
)

// MessageType defines the type of WebSocket message
type MessageType string

const (
	// MessageTypeSelection is sent by the client with a new filter selection.
	MessageTypeSelection MessageType = "selection"
	// MessageTypeReport carries the result for the latest selection.
	MessageTypeReport MessageType = "report"

	// Connection messages
	MessageTypeConnect   MessageType = "connect"
	MessageTypeError     MessageType = "error"
	MessageTypeHeartbeat MessageType = "heartbeat"
)

// ConnectData is the payload of the connect message.
type ConnectData struct {
	SessionID string `json:"session_id"`
	DatasetID string `json:"dataset_id"`
}

// ClientMessage is a message received from the browser. Seq increases with
// every interaction and is echoed on the matching report.
type ClientMessage struct {
	Type      MessageType      `json:"type"`
	Seq       int64            `json:"seq"`
	Selection domain.Selection `json:"selection"`
}

// ServerMessage represents a complete WebSocket message sent to the browser.
type ServerMessage struct {
	Type      MessageType `json:"type"`
	Seq       int64       `json:"seq,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
	TraceID   string      `json:"trace_id,omitempty"`
	Data      interface{} `json:"data,omitempty"`
}

// ErrorData is the payload of an error message.
type ErrorData struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// NewServerMessage stamps a message with the current time.
func NewServerMessage(t MessageType, seq int64, data interface{}) ServerMessage {
	return ServerMessage{
		Type:      t,
		Seq:       seq,
		Timestamp: time.Now().UTC(),
		Data:      data,
	}
}
