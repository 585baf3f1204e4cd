package operator

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/zulandar/switchboard/internal/flow"
)

// MockAdapter implements Adapter for testing. It records sent prompts and
// allows simulating inbound operator events.
type MockAdapter struct {
	mu        sync.Mutex
	connected bool
	closed    bool
	inbound   chan Event
	sent      []Prompt
	botUserID string
}

// NewMockAdapter creates a MockAdapter with a buffered inbound channel.
func NewMockAdapter() *MockAdapter {
	return &MockAdapter{
		inbound: make(chan Event, 100),
	}
}

// BotUserID returns the configured bot user ID (implements BotUserIDer).
func (m *MockAdapter) BotUserID() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.botUserID
}

// SetBotUserID sets the bot user ID for testing.
func (m *MockAdapter) SetBotUserID(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.botUserID = id
}

// Connect marks the adapter as connected.
func (m *MockAdapter) Connect(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return fmt.Errorf("mock adapter: already closed")
	}
	m.connected = true
	return nil
}

// Listen returns the inbound event channel. Must be called after Connect.
func (m *MockAdapter) Listen(ctx context.Context) (<-chan Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.connected {
		return nil, fmt.Errorf("mock adapter: not connected")
	}
	return m.inbound, nil
}

// Send records the outbound prompt.
func (m *MockAdapter) Send(ctx context.Context, p Prompt) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.connected {
		return fmt.Errorf("mock adapter: not connected")
	}
	m.sent = append(m.sent, p)
	return nil
}

// Close shuts down the mock adapter and closes the inbound channel.
func (m *MockAdapter) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return nil
	}
	m.closed = true
	m.connected = false
	close(m.inbound)
	return nil
}

// --- Test helpers ---

// SimulateButton injects a button click as if the operator clicked the
// inline button carrying the given action and session id.
func (m *MockAdapter) SimulateButton(action flow.Action, sessionID string) {
	m.inbound <- Event{
		Kind:      EventButton,
		Action:    action,
		SessionID: sessionID,
		UserID:    "op-1",
		UserName:  "operator",
		Timestamp: time.Now(),
	}
}

// SimulateText injects a free-text operator message.
func (m *MockAdapter) SimulateText(text string) {
	m.inbound <- Event{
		Kind:      EventText,
		Text:      text,
		UserID:    "op-1",
		UserName:  "operator",
		Timestamp: time.Now(),
	}
}

// LastSent returns the most recently sent prompt, or false if none.
func (m *MockAdapter) LastSent() (Prompt, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.sent) == 0 {
		return Prompt{}, false
	}
	return m.sent[len(m.sent)-1], true
}

// SentCount returns the number of prompts sent.
func (m *MockAdapter) SentCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sent)
}

// AllSent returns a copy of all sent prompts.
func (m *MockAdapter) AllSent() []Prompt {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Prompt, len(m.sent))
	copy(out, m.sent)
	return out
}
