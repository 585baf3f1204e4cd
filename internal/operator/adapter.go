// Package operator bridges switchboard sessions to the chat platform where
// the human operator lives (Discord, Slack).
package operator

import (
	"context"
	"time"

	"github.com/zulandar/switchboard/internal/flow"
)

// Adapter is the interface that platform-specific implementations must
// satisfy. Each adapter handles connection management and translation
// between platform messages and canonical operator events.
type Adapter interface {
	// Connect establishes a connection to the chat platform.
	Connect(ctx context.Context) error

	// Listen returns a channel of inbound operator events. The channel is
	// closed when the context is cancelled or the adapter is closed.
	// Listen must only be called after Connect.
	Listen(ctx context.Context) (<-chan Event, error)

	// Send delivers a prompt to the operator channel.
	Send(ctx context.Context, p Prompt) error

	// Close gracefully shuts down the adapter connection.
	Close() error
}

// BotUserIDer is an optional interface that adapters can implement to
// expose the bot's own user ID. This enables self-message filtering.
type BotUserIDer interface {
	BotUserID() string
}

// EventKind distinguishes the two inbound operator event shapes.
type EventKind string

const (
	// EventButton is a click on an inline button; Action and SessionID are
	// parsed from the button payload.
	EventButton EventKind = "button"
	// EventText is a free-text operator message with no session addressing.
	EventText EventKind = "text"
)

// Event is an inbound operator action, already decoded from the platform
// representation.
type Event struct {
	Kind      EventKind
	Action    flow.Action // button events only
	SessionID string      // button events only
	Text      string      // free-text events only
	UserID    string      // platform user identifier
	UserName  string      // human-readable username
	Timestamp time.Time
}

// Button is a labeled action button. Payload carries "<ACTION>:<sessionId>"
// for later correlation.
type Button struct {
	Label   string
	Payload string
}

// Prompt is an outbound operator message: text plus optional button rows.
type Prompt struct {
	Text    string
	Buttons [][]Button
}

// BuildButtons translates flow-level button rows for a session into
// adapter buttons with encoded payloads.
func BuildButtons(sessionID string, rows [][]flow.Button) [][]Button {
	if len(rows) == 0 {
		return nil
	}
	out := make([][]Button, len(rows))
	for i, row := range rows {
		out[i] = make([]Button, len(row))
		for j, b := range row {
			out[i][j] = Button{
				Label:   b.Label,
				Payload: EncodeAction(b.Action, sessionID),
			}
		}
	}
	return out
}
