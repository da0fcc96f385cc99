package api

import (
	"encoding/json"
	"fmt"
)

// Message type for WebSocket communication between client and server on the video socket.
type MessageType string

const (
	MsgTypeVideo    MessageType = "video"    // Client asks for a video of a character
	MsgTypeProgress MessageType = "progress" // Server reports the video is still rendering
	MsgTypeDone     MessageType = "done"     // Server sends the playable video URL
	MsgTypeError    MessageType = "error"    // Server sends an error message
)

// WsMessage represents a WebSocket message.
type WsMessage struct {
	Type    MessageType     `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// NewWsMessage creates a new WsMessage with a marshaled payload.
func NewWsMessage(msgType MessageType, payload any) (WsMessage, error) {
	if payload == nil {
		return WsMessage{Type: msgType}, nil
	}
	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return WsMessage{}, fmt.Errorf("failed to marshal payload: %w", err)
	}
	return WsMessage{
		Type:    msgType,
		Payload: payloadBytes,
	}, nil
}

// Parse unmarshals the message payload into the type matching m.Type (VideoMessage, ProgressMessage, etc.)
func (m *WsMessage) Parse() (any, error) {
	var target any
	switch m.Type {
	case MsgTypeVideo:
		target = &VideoMessage{}
	case MsgTypeProgress:
		target = &ProgressMessage{}
	case MsgTypeDone:
		target = &DoneMessage{}
	case MsgTypeError:
		target = &ErrorMessage{}
	default:
		return nil, fmt.Errorf("unknown message type: %s", m.Type)
	}

	if len(m.Payload) == 0 {
		return target, nil
	}

	err := json.Unmarshal(m.Payload, target)
	return target, err
}

// VideoMessage is the payload for MsgTypeVideo
type VideoMessage struct {
	Character string `json:"character"`
}

// ProgressMessage is the payload for MsgTypeProgress
type ProgressMessage struct {
	Polls   int   `json:"polls"`      // Status checks done so far
	Elapsed int64 `json:"elapsed_ms"` // Since the request was received
}

// DoneMessage is the payload for MsgTypeDone
type DoneMessage struct {
	URL string `json:"url"` // Same-origin URL streaming the video
}

// ErrorMessage is the payload for MsgTypeError
type ErrorMessage struct {
	Message string `json:"message"`
}
