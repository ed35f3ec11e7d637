package models

import "time"

// Message types for WebSocket communication
const (
	MessageTypeRosterChanged = "roster_changed"
	MessageTypeHeartbeat     = "heartbeat"
	MessageTypeError         = "error"
)

// ClientMessage represents a message from client to server
type ClientMessage struct {
	Type string `json:"type"`
}

// ServerMessage represents a message from server to client
type ServerMessage struct {
	Type      string      `json:"type"`
	Payload   interface{} `json:"payload,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
}

// ConnectionStats represents connection statistics
type ConnectionStats struct {
	ClientID         string    `json:"client_id"`
	ConnectedAt      time.Time `json:"connected_at"`
	MessagesSent     int64     `json:"messages_sent"`
	MessagesReceived int64     `json:"messages_received"`
	LastMessageAt    time.Time `json:"last_message_at"`
	BufferSize       int       `json:"buffer_size"`
}

// ErrorMessage represents an error message
type ErrorMessage struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
