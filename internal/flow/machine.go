package flow

import (
	"fmt"
	"time"
)

// DropReason explains why an event produced no transition. Dropped events
// are silent toward both parties but are logged and counted by the router.
type DropReason string

const (
	// DropNone means the event was applied.
	DropNone DropReason = ""
	// DropTerminal means the session already reached the terminal state.
	DropTerminal DropReason = "terminal_session"
	// DropWrongState means a guarded event arrived in a state it has no
	// transition from.
	DropWrongState DropReason = "wrong_state"
	// DropNotAwaiting means free text arrived while the flagged session is
	// not in the waiting-for-input state (stale flag).
	DropNotAwaiting DropReason = "not_awaiting_input"
)

// Machine is the pure transition logic: given a session and an event, it
// computes the next state, mutates the session's fields accordingly, and
// returns the outbound notifications to produce. It holds no per-session
// state of its own.
type Machine struct {
	// RedirectURL is the fixed destination delivered to the front party on
	// an operator proceed.
	RedirectURL string
}

// Apply runs ev against sess. On a drop (non-empty reason) the session is
// untouched and no effects are produced.
//
// Guards follow the transition table: SubmitFood, OperatorBack, and
// OperatorFreeText are state-guarded; SubmitCode, OperatorChoice,
// OperatorProceed, and OperatorFinalBack fire from any non-terminal state.
// The terminal state absorbs everything.
func (m Machine) Apply(sess *Session, ev Event) ([]Effect, DropReason) {
	if sess.Status.Terminal() {
		return nil, DropTerminal
	}

	var effects []Effect
	switch ev.Kind {
	case EventSubmitFood:
		if sess.Status != StateWaitingFood {
			return nil, DropWrongState
		}
		sess.FavoriteFood = ev.Value
		sess.Status = StateWaitingAdminChoice
		effects = append(effects, Effect{
			Kind: EffectPromptOperator,
			Text: fmt.Sprintf("New submission\nSession: %s\nFavorite food: %s", sess.ID, ev.Value),
			Buttons: [][]Button{
				{{Label: "A", Action: ActionA}, {Label: "B", Action: ActionB}, {Label: "C", Action: ActionC}},
				{{Label: "Back", Action: ActionBack}},
			},
		})

	case EventSubmitCode:
		sess.OTPCode = ev.Value
		sess.Status = StateOTPSubmitted
		effects = append(effects, Effect{
			Kind: EffectPromptOperator,
			Text: fmt.Sprintf("Code submitted\nSession: %s\nCode: %s", sess.ID, ev.Value),
			Buttons: [][]Button{
				{{Label: "Proceed", Action: ActionProceed}, {Label: "Back", Action: ActionFinalBack}},
			},
		})

	case EventOperatorBack:
		if sess.Status != StateWaitingAdminChoice {
			return nil, DropWrongState
		}
		sess.Status = StateWaitingFood
		effects = append(effects,
			Effect{Kind: EffectFrontReset},
			Effect{Kind: EffectAckOperator, Text: "User sent back to food input."},
		)

	case EventOperatorChoice:
		sess.AdminChoice = ev.Value
		sess.AwaitingAdminReply = true
		sess.Status = StateWaitingAdminInput
		effects = append(effects, Effect{
			Kind: EffectAckOperator,
			Text: fmt.Sprintf("You selected %s. Enter instruction for session %s", ev.Value, sess.ID),
		})

	case EventOperatorProceed:
		sess.AwaitingAdminReply = false
		sess.Status = StateCompletedRedirect
		effects = append(effects,
			Effect{Kind: EffectFrontRedirect, URL: m.RedirectURL},
			Effect{Kind: EffectAckOperator, Text: "User redirected."},
		)

	case EventOperatorFinalBack:
		sess.AwaitingAdminReply = false
		sess.Status = StateWaitingFood
		effects = append(effects,
			Effect{Kind: EffectFrontReset},
			Effect{Kind: EffectAckOperator, Text: "User sent back to start."},
		)

	case EventOperatorFreeText:
		// The router already resolved sess via the awaiting flag; a flagged
		// session outside the input state means the flag went stale.
		if sess.Status != StateWaitingAdminInput {
			return nil, DropNotAwaiting
		}
		sess.AdminValue = ev.Value
		sess.AwaitingAdminReply = false
		sess.Status = StateWaitingAdminDecision
		effects = append(effects,
			Effect{Kind: EffectFrontCompleted, Choice: sess.AdminChoice, Value: ev.Value},
			Effect{
				Kind: EffectAckOperator,
				Text: "Instruction sent.",
				Buttons: [][]Button{
					{{Label: "Proceed", Action: ActionProceed}, {Label: "Back", Action: ActionFinalBack}},
				},
			},
		)

	default:
		return nil, DropWrongState
	}

	sess.LastActivity = time.Now()
	return effects, DropNone
}
