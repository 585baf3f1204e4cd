// Package front exposes the real-time duplex channel for anonymous front
// parties: a WebSocket hub behind a small HTTP server.
package front

import (
	"encoding/json"
	"fmt"
	"strings"
)

// EventKind names an inbound front-channel event.
type EventKind string

const (
	// EventStart means a connection asked to begin a session.
	EventStart EventKind = "start_session"
	// EventSubmitFood carries the front party's food value.
	EventSubmitFood EventKind = "submit_food"
	// EventSubmitCode carries the front party's code value.
	EventSubmitCode EventKind = "submit_code"
)

// Event is an inbound front-channel event, decoded and tagged with the
// session identifier.
type Event struct {
	Kind      EventKind
	SessionID string
	Value     string // food or code, depending on Kind
}

// clientMessage is the wire form of an inbound WebSocket message.
type clientMessage struct {
	Type      string `json:"type"`
	SessionID string `json:"session_id"`
	Food      string `json:"food"`
	Code      string `json:"code"`
}

// serverMessage is the wire form of an outbound WebSocket message.
type serverMessage struct {
	Type      string `json:"type"`
	SessionID string `json:"session_id,omitempty"`
	URL       string `json:"url,omitempty"`
	Choice    string `json:"choice,omitempty"`
	Value     string `json:"value,omitempty"`
}

// parseClientMessage decodes and validates an inbound message. The session
// id is validated by the caller against the connection's registration; a
// start message needs no id.
func parseClientMessage(data []byte) (clientMessage, error) {
	var msg clientMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return clientMessage{}, fmt.Errorf("front: decode message: %w", err)
	}
	switch EventKind(msg.Type) {
	case EventStart:
		return msg, nil
	case EventSubmitFood:
		if strings.TrimSpace(msg.Food) == "" {
			return clientMessage{}, fmt.Errorf("front: submit_food without food value")
		}
		return msg, nil
	case EventSubmitCode:
		if strings.TrimSpace(msg.Code) == "" {
			return clientMessage{}, fmt.Errorf("front: submit_code without code value")
		}
		return msg, nil
	default:
		return clientMessage{}, fmt.Errorf("front: unknown message type %q", msg.Type)
	}
}
