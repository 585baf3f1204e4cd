package flow

import (
	"strings"
	"testing"
)

func testMachine() Machine {
	return Machine{RedirectURL: "https://example.com/done"}
}

func effectKinds(effects []Effect) []EffectKind {
	kinds := make([]EffectKind, len(effects))
	for i, e := range effects {
		kinds[i] = e.Kind
	}
	return kinds
}

// --- Individual transitions ---

func TestApply_SubmitFood(t *testing.T) {
	m := testMachine()
	sess := NewSession("s1")

	effects, drop := m.Apply(sess, Event{Kind: EventSubmitFood, Value: "pizza"})
	if drop != DropNone {
		t.Fatalf("unexpected drop: %s", drop)
	}
	if sess.Status != StateWaitingAdminChoice {
		t.Errorf("status = %s, want %s", sess.Status, StateWaitingAdminChoice)
	}
	if sess.FavoriteFood != "pizza" {
		t.Errorf("favorite food = %q, want %q", sess.FavoriteFood, "pizza")
	}
	if len(effects) != 1 || effects[0].Kind != EffectPromptOperator {
		t.Fatalf("effects = %v, want one operator prompt", effectKinds(effects))
	}
	if !strings.Contains(effects[0].Text, "pizza") {
		t.Errorf("prompt text %q does not mention the food", effects[0].Text)
	}
	if len(effects[0].Buttons) != 2 || len(effects[0].Buttons[0]) != 3 || len(effects[0].Buttons[1]) != 1 {
		t.Errorf("expected three choice buttons plus a back row, got %v", effects[0].Buttons)
	}
}

func TestApply_SubmitFood_WrongState(t *testing.T) {
	m := testMachine()
	sess := NewSession("s1")
	sess.Status = StateWaitingAdminChoice

	effects, drop := m.Apply(sess, Event{Kind: EventSubmitFood, Value: "sushi"})
	if drop != DropWrongState {
		t.Fatalf("drop = %q, want %q", drop, DropWrongState)
	}
	if len(effects) != 0 {
		t.Errorf("expected no effects on drop, got %v", effectKinds(effects))
	}
	if sess.FavoriteFood != "" {
		t.Errorf("dropped event mutated the session: favorite food = %q", sess.FavoriteFood)
	}
}

func TestApply_SubmitCode_AnyState(t *testing.T) {
	m := testMachine()
	for _, from := range []State{StateWaitingFood, StateWaitingAdminChoice, StateWaitingAdminInput, StateWaitingAdminDecision} {
		sess := NewSession("s1")
		sess.Status = from

		effects, drop := m.Apply(sess, Event{Kind: EventSubmitCode, Value: "123456"})
		if drop != DropNone {
			t.Fatalf("from %s: unexpected drop %s", from, drop)
		}
		if sess.Status != StateOTPSubmitted {
			t.Errorf("from %s: status = %s, want %s", from, sess.Status, StateOTPSubmitted)
		}
		if sess.OTPCode != "123456" {
			t.Errorf("from %s: code = %q", from, sess.OTPCode)
		}
		if len(effects) != 1 || effects[0].Kind != EffectPromptOperator {
			t.Errorf("from %s: effects = %v", from, effectKinds(effects))
		}
	}
}

func TestApply_OperatorBack(t *testing.T) {
	m := testMachine()
	sess := NewSession("s1")
	sess.Status = StateWaitingAdminChoice

	effects, drop := m.Apply(sess, Event{Kind: EventOperatorBack})
	if drop != DropNone {
		t.Fatalf("unexpected drop: %s", drop)
	}
	if sess.Status != StateWaitingFood {
		t.Errorf("status = %s, want %s", sess.Status, StateWaitingFood)
	}
	kinds := effectKinds(effects)
	if len(kinds) != 2 || kinds[0] != EffectFrontReset || kinds[1] != EffectAckOperator {
		t.Errorf("effects = %v, want front reset then operator ack", kinds)
	}
}

func TestApply_OperatorBack_WrongState(t *testing.T) {
	m := testMachine()
	sess := NewSession("s1")

	_, drop := m.Apply(sess, Event{Kind: EventOperatorBack})
	if drop != DropWrongState {
		t.Fatalf("drop = %q, want %q", drop, DropWrongState)
	}
}

func TestApply_OperatorChoice(t *testing.T) {
	m := testMachine()
	sess := NewSession("s1")
	sess.Status = StateWaitingAdminChoice

	effects, drop := m.Apply(sess, Event{Kind: EventOperatorChoice, Value: "A"})
	if drop != DropNone {
		t.Fatalf("unexpected drop: %s", drop)
	}
	if sess.AdminChoice != "A" {
		t.Errorf("admin choice = %q, want A", sess.AdminChoice)
	}
	if !sess.AwaitingAdminReply {
		t.Error("awaiting flag not set")
	}
	if sess.Status != StateWaitingAdminInput {
		t.Errorf("status = %s, want %s", sess.Status, StateWaitingAdminInput)
	}
	if len(effects) != 1 || effects[0].Kind != EffectAckOperator {
		t.Errorf("effects = %v, want one operator ack", effectKinds(effects))
	}
	if !strings.Contains(effects[0].Text, "A") || !strings.Contains(effects[0].Text, "s1") {
		t.Errorf("ack text %q should name the choice and the session", effects[0].Text)
	}
}

func TestApply_OperatorProceed(t *testing.T) {
	m := testMachine()
	sess := NewSession("s1")
	sess.Status = StateOTPSubmitted
	sess.AwaitingAdminReply = true

	effects, drop := m.Apply(sess, Event{Kind: EventOperatorProceed})
	if drop != DropNone {
		t.Fatalf("unexpected drop: %s", drop)
	}
	if sess.Status != StateCompletedRedirect {
		t.Errorf("status = %s, want %s", sess.Status, StateCompletedRedirect)
	}
	if sess.AwaitingAdminReply {
		t.Error("awaiting flag not cleared")
	}
	kinds := effectKinds(effects)
	if len(kinds) != 2 || kinds[0] != EffectFrontRedirect || kinds[1] != EffectAckOperator {
		t.Fatalf("effects = %v, want redirect then ack", kinds)
	}
	if effects[0].URL != "https://example.com/done" {
		t.Errorf("redirect url = %q", effects[0].URL)
	}
}

func TestApply_OperatorFinalBack(t *testing.T) {
	m := testMachine()
	sess := NewSession("s1")
	sess.Status = StateWaitingAdminDecision
	sess.AwaitingAdminReply = true

	effects, drop := m.Apply(sess, Event{Kind: EventOperatorFinalBack})
	if drop != DropNone {
		t.Fatalf("unexpected drop: %s", drop)
	}
	if sess.Status != StateWaitingFood {
		t.Errorf("status = %s, want %s", sess.Status, StateWaitingFood)
	}
	if sess.AwaitingAdminReply {
		t.Error("awaiting flag not cleared")
	}
	kinds := effectKinds(effects)
	if len(kinds) != 2 || kinds[0] != EffectFrontReset || kinds[1] != EffectAckOperator {
		t.Errorf("effects = %v, want front reset then ack", kinds)
	}
}

func TestApply_OperatorFreeText(t *testing.T) {
	m := testMachine()
	sess := NewSession("s1")
	sess.Status = StateWaitingAdminInput
	sess.AdminChoice = "B"
	sess.AwaitingAdminReply = true

	effects, drop := m.Apply(sess, Event{Kind: EventOperatorFreeText, Value: "do X"})
	if drop != DropNone {
		t.Fatalf("unexpected drop: %s", drop)
	}
	if sess.AdminValue != "do X" {
		t.Errorf("admin value = %q", sess.AdminValue)
	}
	if sess.AwaitingAdminReply {
		t.Error("awaiting flag not cleared")
	}
	if sess.Status != StateWaitingAdminDecision {
		t.Errorf("status = %s, want %s", sess.Status, StateWaitingAdminDecision)
	}
	kinds := effectKinds(effects)
	if len(kinds) != 2 || kinds[0] != EffectFrontCompleted || kinds[1] != EffectAckOperator {
		t.Fatalf("effects = %v, want completed then ack", kinds)
	}
	if effects[0].Choice != "B" || effects[0].Value != "do X" {
		t.Errorf("completed payload = (%q, %q), want (B, do X)", effects[0].Choice, effects[0].Value)
	}
	if len(effects[1].Buttons) != 1 || len(effects[1].Buttons[0]) != 2 {
		t.Errorf("ack buttons = %v, want a Proceed/Back row", effects[1].Buttons)
	}
}

func TestApply_OperatorFreeText_StaleFlag(t *testing.T) {
	m := testMachine()
	sess := NewSession("s1")
	sess.Status = StateWaitingAdminDecision
	sess.AwaitingAdminReply = true

	effects, drop := m.Apply(sess, Event{Kind: EventOperatorFreeText, Value: "late"})
	if drop != DropNotAwaiting {
		t.Fatalf("drop = %q, want %q", drop, DropNotAwaiting)
	}
	if len(effects) != 0 {
		t.Errorf("expected no effects, got %v", effectKinds(effects))
	}
	if sess.AdminValue != "" {
		t.Errorf("stale free text mutated the session: %q", sess.AdminValue)
	}
}

// --- Terminal absorption ---

func TestApply_TerminalAbsorbsEverything(t *testing.T) {
	m := testMachine()
	events := []Event{
		{Kind: EventSubmitFood, Value: "pizza"},
		{Kind: EventSubmitCode, Value: "999"},
		{Kind: EventOperatorBack},
		{Kind: EventOperatorChoice, Value: "C"},
		{Kind: EventOperatorProceed},
		{Kind: EventOperatorFinalBack},
		{Kind: EventOperatorFreeText, Value: "x"},
	}
	for _, ev := range events {
		sess := NewSession("s1")
		sess.Status = StateCompletedRedirect

		effects, drop := m.Apply(sess, ev)
		if drop != DropTerminal {
			t.Errorf("%s: drop = %q, want %q", ev.Kind, drop, DropTerminal)
		}
		if len(effects) != 0 {
			t.Errorf("%s: terminal session produced effects %v", ev.Kind, effectKinds(effects))
		}
		if sess.Status != StateCompletedRedirect {
			t.Errorf("%s: terminal session left terminal state", ev.Kind)
		}
	}
}

// --- Folding the transition table ---

func TestApply_FullFlowFold(t *testing.T) {
	m := testMachine()
	sess := NewSession("s1")

	steps := []struct {
		ev   Event
		want State
	}{
		{Event{Kind: EventSubmitFood, Value: "pizza"}, StateWaitingAdminChoice},
		{Event{Kind: EventOperatorBack}, StateWaitingFood},
		{Event{Kind: EventSubmitFood, Value: "ramen"}, StateWaitingAdminChoice},
		{Event{Kind: EventOperatorChoice, Value: "B"}, StateWaitingAdminInput},
		{Event{Kind: EventOperatorFreeText, Value: "call support"}, StateWaitingAdminDecision},
		{Event{Kind: EventSubmitCode, Value: "4242"}, StateOTPSubmitted},
		{Event{Kind: EventOperatorFinalBack}, StateWaitingFood},
		{Event{Kind: EventSubmitFood, Value: "tacos"}, StateWaitingAdminChoice},
		{Event{Kind: EventOperatorChoice, Value: "A"}, StateWaitingAdminInput},
		{Event{Kind: EventOperatorProceed}, StateCompletedRedirect},
	}
	for i, step := range steps {
		if _, drop := m.Apply(sess, step.ev); drop != DropNone {
			t.Fatalf("step %d (%s): unexpected drop %s", i, step.ev.Kind, drop)
		}
		if sess.Status != step.want {
			t.Fatalf("step %d (%s): status = %s, want %s", i, step.ev.Kind, sess.Status, step.want)
		}
	}
	if sess.FavoriteFood != "tacos" {
		t.Errorf("favorite food = %q, want the latest submission", sess.FavoriteFood)
	}
	if sess.AdminValue != "call support" {
		t.Errorf("admin value = %q", sess.AdminValue)
	}
	if sess.AwaitingAdminReply {
		t.Error("awaiting flag set after terminal state")
	}
}
