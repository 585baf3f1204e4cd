package front

import (
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const writeTimeout = 10 * time.Second

// conn abstracts the websocket connection methods the hub uses, enabling
// test fakes.
type conn interface {
	ReadMessage() (int, []byte, error)
	WriteJSON(v interface{}) error
	SetWriteDeadline(t time.Time) error
	Close() error
}

// client is one connected front party.
type client struct {
	conn    conn
	writeMu sync.Mutex
}

func (c *client) send(msg serverMessage) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	_ = c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	return c.conn.WriteJSON(msg)
}

// Hub owns the live WebSocket connections, keyed by session id. It mints
// session ids, emits decoded events for the router, and delivers outbound
// notifications addressed to a session. Delivery is fire-and-forget: a
// failed write never rolls back the transition that produced it.
type Hub struct {
	mu      sync.Mutex
	clients map[string]*client // session id -> connection
	events  chan Event
}

// NewHub creates an empty Hub.
func NewHub() *Hub {
	return &Hub{
		clients: make(map[string]*client),
		events:  make(chan Event, 256),
	}
}

// Events returns the inbound event channel consumed by the router.
func (h *Hub) Events() <-chan Event {
	return h.events
}

// ServeConn runs the read loop for one WebSocket connection. It returns
// when the connection closes. The session record outlives the connection;
// only the live mapping is dropped on disconnect.
func (h *Hub) ServeConn(c conn) {
	cl := &client{conn: c}
	var sessionID string

	defer func() {
		if sessionID != "" {
			h.mu.Lock()
			if h.clients[sessionID] == cl {
				delete(h.clients, sessionID)
			}
			h.mu.Unlock()
		}
		c.Close()
	}()

	for {
		msgType, data, err := c.ReadMessage()
		if err != nil {
			return
		}
		if msgType != websocket.TextMessage {
			continue
		}
		msg, err := parseClientMessage(data)
		if err != nil {
			log.Printf("front: %v", err)
			continue
		}

		switch EventKind(msg.Type) {
		case EventStart:
			// A fresh id per start; a repeated start on the same connection
			// re-registers it under a new session.
			if sessionID != "" {
				h.mu.Lock()
				if h.clients[sessionID] == cl {
					delete(h.clients, sessionID)
				}
				h.mu.Unlock()
			}
			sessionID = uuid.NewString()
			h.mu.Lock()
			h.clients[sessionID] = cl
			h.mu.Unlock()
			h.events <- Event{Kind: EventStart, SessionID: sessionID}

		case EventSubmitFood:
			h.events <- Event{Kind: EventSubmitFood, SessionID: msg.SessionID, Value: msg.Food}

		case EventSubmitCode:
			h.events <- Event{Kind: EventSubmitCode, SessionID: msg.SessionID, Value: msg.Code}
		}
	}
}

// Close shuts the inbound event channel. Call once, after all ServeConn
// loops have returned.
func (h *Hub) Close() {
	close(h.events)
}

// sendTo delivers one message to the connection registered for sessionID.
func (h *Hub) sendTo(sessionID string, msg serverMessage) error {
	h.mu.Lock()
	cl := h.clients[sessionID]
	h.mu.Unlock()
	if cl == nil {
		return fmt.Errorf("front: no live connection for session %s", sessionID)
	}
	if err := cl.send(msg); err != nil {
		return fmt.Errorf("front: write to session %s: %w", sessionID, err)
	}
	return nil
}

// SessionCreated confirms session creation to the front party.
func (h *Hub) SessionCreated(sessionID string) error {
	return h.sendTo(sessionID, serverMessage{Type: "session_created", SessionID: sessionID})
}

// ResetFood tells the front party to reset its food input.
func (h *Hub) ResetFood(sessionID string) error {
	return h.sendTo(sessionID, serverMessage{Type: "reset_food"})
}

// Redirect tells the front party to navigate to url.
func (h *Hub) Redirect(sessionID, url string) error {
	return h.sendTo(sessionID, serverMessage{Type: "redirect_user", URL: url})
}

// Completed delivers the operator's choice and instruction.
func (h *Hub) Completed(sessionID, choice, value string) error {
	return h.sendTo(sessionID, serverMessage{Type: "session_completed", Choice: choice, Value: value})
}
