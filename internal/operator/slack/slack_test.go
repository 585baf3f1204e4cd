package slack

import (
	"context"
	"sync"
	"testing"
	"time"

	slackapi "github.com/slack-go/slack"
	"github.com/slack-go/slack/slackevents"
	"github.com/slack-go/slack/socketmode"
	"github.com/zulandar/switchboard/internal/flow"
	"github.com/zulandar/switchboard/internal/operator"
)

// mockClient records PostMessage calls.
type mockClient struct {
	mu     sync.Mutex
	posted [][]slackapi.MsgOption
}

func (m *mockClient) AuthTest() (*slackapi.AuthTestResponse, error) {
	return &slackapi.AuthTestResponse{UserID: "BOT123"}, nil
}

func (m *mockClient) PostMessage(channelID string, options ...slackapi.MsgOption) (string, string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.posted = append(m.posted, options)
	return channelID, "1234567890.000001", nil
}

func (m *mockClient) postedCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.posted)
}

// mockSocket blocks in Run until the adapter shuts down.
type mockSocket struct {
	events chan socketmode.Event
	done   chan struct{}
	acks   int
	mu     sync.Mutex
}

func newMockSocket() *mockSocket {
	return &mockSocket{
		events: make(chan socketmode.Event, 16),
		done:   make(chan struct{}),
	}
}

func (m *mockSocket) Run() error {
	<-m.done
	return nil
}

func (m *mockSocket) EventsChan() chan socketmode.Event { return m.events }

func (m *mockSocket) Ack(req socketmode.Request, payload ...interface{}) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.acks++
}

func (m *mockSocket) ackCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.acks
}

func setupAdapter(t *testing.T) (*Adapter, *mockClient, *mockSocket) {
	t.Helper()
	mc := &mockClient{}
	ms := newMockSocket()
	a, err := New(AdapterOpts{ChannelID: "C0PCHAN", Client: mc, Socket: ms})
	if err != nil {
		t.Fatalf("new adapter: %v", err)
	}
	if err := a.Connect(context.Background()); err != nil {
		t.Fatalf("connect: %v", err)
	}
	t.Cleanup(func() {
		close(ms.done)
		a.Close()
	})
	return a, mc, ms
}

func TestNew_Validation(t *testing.T) {
	if _, err := New(AdapterOpts{AppToken: "xapp", ChannelID: "c"}); err == nil {
		t.Error("expected error without bot token or client")
	}
	if _, err := New(AdapterOpts{BotToken: "xoxb", ChannelID: "c"}); err == nil {
		t.Error("expected error without app token or socket")
	}
	if _, err := New(AdapterOpts{AppToken: "xapp", BotToken: "xoxb"}); err == nil {
		t.Error("expected error without channel id")
	}
}

func TestConnect_ResolvesBotUserID(t *testing.T) {
	a, _, _ := setupAdapter(t)
	if got := a.BotUserID(); got != "BOT123" {
		t.Errorf("bot user id = %q, want BOT123", got)
	}
}

func TestSend_PostsMessage(t *testing.T) {
	a, mc, _ := setupAdapter(t)
	err := a.Send(context.Background(), operator.Prompt{
		Text: "New submission",
		Buttons: [][]operator.Button{
			{{Label: "A", Payload: "A:s1"}},
		},
	})
	if err != nil {
		t.Fatalf("send: %v", err)
	}
	if mc.postedCount() != 1 {
		t.Errorf("posted = %d, want 1", mc.postedCount())
	}
}

func TestButtonClickEmitsEvent(t *testing.T) {
	a, _, ms := setupAdapter(t)
	events, err := a.Listen(context.Background())
	if err != nil {
		t.Fatalf("listen: %v", err)
	}

	req := socketmode.Request{EnvelopeID: "env-1"}
	ms.events <- socketmode.Event{
		Type:    socketmode.EventTypeInteractive,
		Request: &req,
		Data: slackapi.InteractionCallback{
			Type: slackapi.InteractionTypeBlockActions,
			User: slackapi.User{ID: "U1", Name: "op"},
			ActionCallback: slackapi.ActionCallbacks{
				BlockActions: []*slackapi.BlockAction{
					{ActionID: "B:s1"},
				},
			},
		},
	}

	select {
	case ev := <-events:
		if ev.Kind != operator.EventButton || ev.Action != flow.ActionB || ev.SessionID != "s1" {
			t.Errorf("event = %+v", ev)
		}
		if ev.UserID != "U1" {
			t.Errorf("user id = %q", ev.UserID)
		}
	case <-time.After(time.Second):
		t.Fatal("no event emitted")
	}
	if ms.ackCount() != 1 {
		t.Errorf("acks = %d, want 1", ms.ackCount())
	}
}

func TestMessageEventFiltering(t *testing.T) {
	a, _, ms := setupAdapter(t)
	events, err := a.Listen(context.Background())
	if err != nil {
		t.Fatalf("listen: %v", err)
	}

	push := func(ev *slackevents.MessageEvent) {
		ms.events <- socketmode.Event{
			Type: socketmode.EventTypeEventsAPI,
			Data: slackevents.EventsAPIEvent{
				Type:       slackevents.CallbackEvent,
				InnerEvent: slackevents.EventsAPIInnerEvent{Data: ev},
			},
		}
	}

	// Self message, bot message, wrong channel, empty text: all filtered.
	push(&slackevents.MessageEvent{User: "BOT123", Channel: "C0PCHAN", Text: "self"})
	push(&slackevents.MessageEvent{User: "U2", BotID: "B9", Channel: "C0PCHAN", Text: "bot"})
	push(&slackevents.MessageEvent{User: "U1", Channel: "ELSEWHERE", Text: "wrong channel"})
	push(&slackevents.MessageEvent{User: "U1", Channel: "C0PCHAN", Text: "   "})
	push(&slackevents.MessageEvent{User: "U1", Channel: "C0PCHAN", Text: "do X", TimeStamp: "1700000000.123456"})

	select {
	case ev := <-events:
		if ev.Kind != operator.EventText || ev.Text != "do X" || ev.UserID != "U1" {
			t.Errorf("event = %+v", ev)
		}
	case <-time.After(time.Second):
		t.Fatal("operator message not emitted")
	}
	select {
	case extra := <-events:
		t.Errorf("unexpected extra event %+v", extra)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestMalformedActionIDIgnored(t *testing.T) {
	a, _, ms := setupAdapter(t)
	events, _ := a.Listen(context.Background())

	ms.events <- socketmode.Event{
		Type: socketmode.EventTypeInteractive,
		Data: slackapi.InteractionCallback{
			Type: slackapi.InteractionTypeBlockActions,
			ActionCallback: slackapi.ActionCallbacks{
				BlockActions: []*slackapi.BlockAction{
					{ActionID: "not-an-action"},
				},
			},
		},
	}

	select {
	case ev := <-events:
		t.Errorf("unexpected event %+v", ev)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestBuildMessageOptions_NoButtons(t *testing.T) {
	opts := buildMessageOptions(operator.Prompt{Text: "plain"})
	if len(opts) != 1 {
		t.Errorf("options = %d, want 1 (text only)", len(opts))
	}
}

func TestParseSlackTimestamp(t *testing.T) {
	got := parseSlackTimestamp("1700000000.123456")
	want := time.Unix(1700000000, 123456000)
	if !got.Equal(want) {
		t.Errorf("timestamp = %v, want %v", got, want)
	}
	// Garbage falls back to roughly now.
	if d := time.Since(parseSlackTimestamp("garbage")); d < 0 || d > time.Minute {
		t.Errorf("fallback timestamp off by %v", d)
	}
}
