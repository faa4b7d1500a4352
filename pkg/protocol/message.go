// Package protocol defines the WebSocket and HTTP message types exchanged
// between detectors, the guidance server and dashboards.
package protocol

import (
	"encoding/json"
	"fmt"
	"time"
)

// MessageType identifies the type of WebSocket message
type MessageType string

const (
	// Detector → Server messages
	TypeDetections MessageType = "detections" // One frame of detector output

	// Server → Detector messages
	TypeSession     MessageType = "session"     // Session opened for this connection
	TypeInstruction MessageType = "instruction" // Guidance for the user
	TypeControl     MessageType = "control"     // Sensor directive
	TypeError       MessageType = "error"       // Frame rejected

	// Server → Dashboard messages
	TypeTransition MessageType = "transition" // A session changed step

	// Bidirectional
	TypePing MessageType = "ping" // Health check
	TypePong MessageType = "pong" // Health check response
)

// Message is the base wrapper for all WebSocket messages
type Message struct {
	Type      MessageType     `json:"type"`
	Timestamp int64           `json:"ts,omitempty"` // Unix milliseconds
	Data      json.RawMessage `json:"data,omitempty"`
}

// NewMessage creates a new message with the current timestamp
func NewMessage(msgType MessageType, data interface{}) (*Message, error) {
	var rawData json.RawMessage
	if data != nil {
		var err error
		rawData, err = json.Marshal(data)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal message data: %w", err)
		}
	}

	return &Message{
		Type:      msgType,
		Timestamp: time.Now().UnixMilli(),
		Data:      rawData,
	}, nil
}

// ParseData unmarshals the message data into the provided struct
func (m *Message) ParseData(v interface{}) error {
	if m.Data == nil {
		return nil
	}
	return json.Unmarshal(m.Data, v)
}

// Bytes returns the JSON-encoded message
func (m *Message) Bytes() ([]byte, error) {
	return json.Marshal(m)
}

// ParseMessage parses a JSON message from bytes
func ParseMessage(data []byte) (*Message, error) {
	var msg Message
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, fmt.Errorf("failed to parse message: %w", err)
	}
	return &msg, nil
}

// =============================================================================
// Detector → Server Message Types
// =============================================================================

// FrameData is one frame of detector output
type FrameData struct {
	FrameID    uint64       `json:"frame_id,omitempty"`
	Detections []RecordData `json:"detections" validate:"dive"`
}

// RecordData is one raw detection. Fields are pointers so a missing field
// is told apart from a zero.
type RecordData struct {
	X1         *float64 `json:"x1" validate:"required"`
	Y1         *float64 `json:"y1" validate:"required"`
	X2         *float64 `json:"x2" validate:"required"`
	Y2         *float64 `json:"y2" validate:"required"`
	Confidence *float64 `json:"confidence" validate:"required,gte=0,lte=1"`
	Label      *int     `json:"label" validate:"required,gte=0"` // detector class index
}

// =============================================================================
// Server → Client Message Types
// =============================================================================

// SessionData names the session bound to a connection
type SessionData struct {
	ID    string `json:"id"`
	State string `json:"state"`
}

// InstructionData is the guidance for one frame
type InstructionData struct {
	Status  string `json:"status"` // "success", "error"
	Speech  string `json:"speech,omitempty"`
	Image   string `json:"image,omitempty"`
	Video   string `json:"video,omitempty"`
	State   string `json:"state,omitempty"`
	FrameID uint64 `json:"frame_id,omitempty"`
}

// ControlData is an optional sensor directive
type ControlData struct {
	Flashlight *bool `json:"flashlight,omitempty"`
}

// ErrorData reports a rejected frame
type ErrorData struct {
	Error   string `json:"error"`
	FrameID uint64 `json:"frame_id,omitempty"`
}

// TransitionData announces a step change to dashboards
type TransitionData struct {
	SessionID string `json:"session_id"`
	From      string `json:"from"`
	To        string `json:"to"`
	Speech    string `json:"speech,omitempty"`
	At        int64  `json:"at"` // Unix milliseconds
}

// =============================================================================
// Bidirectional Message Types
// =============================================================================

// PingData is a health check request
type PingData struct {
	ID        string `json:"id"`
	Timestamp int64  `json:"ts"`
}

// PongData is a health check response
type PongData struct {
	ID        string `json:"id"`
	PingTS    int64  `json:"ping_ts"`
	PongTS    int64  `json:"pong_ts"`
	LatencyMs int64  `json:"latency_ms"`
}
