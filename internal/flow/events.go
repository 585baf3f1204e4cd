package flow

// Action identifies an operator button. The back-channel adapters encode
// buttons as "<ACTION>:<sessionId>" payloads for later correlation.
type Action string

const (
	ActionA         Action = "A"
	ActionB         Action = "B"
	ActionC         Action = "C"
	ActionBack      Action = "BACK"
	ActionProceed   Action = "PROCEED"
	ActionFinalBack Action = "FINALBACK"
)

// ChoiceActions are the operator choice buttons offered after a food
// submission.
var ChoiceActions = []Action{ActionA, ActionB, ActionC}

// IsChoice reports whether a is one of the A/B/C choice actions.
func (a Action) IsChoice() bool {
	return a == ActionA || a == ActionB || a == ActionC
}

// EventKind names a canonical inbound event.
type EventKind string

const (
	EventSubmitFood        EventKind = "submit_food"
	EventSubmitCode        EventKind = "submit_code"
	EventOperatorBack      EventKind = "operator_back"
	EventOperatorChoice    EventKind = "operator_choice"
	EventOperatorProceed   EventKind = "operator_proceed"
	EventOperatorFinalBack EventKind = "operator_final_back"
	EventOperatorFreeText  EventKind = "operator_free_text"
)

// Event is a canonical inbound event after the router has deserialized the
// adapter-specific form. Value carries the food text, the code, the chosen
// action letter, or the operator's free text, depending on Kind.
type Event struct {
	Kind  EventKind
	Value string
}

// EffectKind names an outbound notification produced by a transition.
type EffectKind string

const (
	// EffectPromptOperator sends text plus button rows to the operator.
	EffectPromptOperator EffectKind = "prompt_operator"
	// EffectAckOperator acknowledges the operator's last action, optionally
	// with follow-up buttons.
	EffectAckOperator EffectKind = "ack_operator"
	// EffectFrontReset tells the front party to reset its food input.
	EffectFrontReset EffectKind = "front_reset"
	// EffectFrontRedirect tells the front party to navigate to URL.
	EffectFrontRedirect EffectKind = "front_redirect"
	// EffectFrontCompleted delivers the operator's choice and instruction
	// to the front party.
	EffectFrontCompleted EffectKind = "front_completed"
)

// Button is a labeled operator action. The adapter encodes the action with
// the session id into the platform-specific click payload.
type Button struct {
	Label  string
	Action Action
}

// Effect is one outbound notification produced by a transition. The router
// dispatches each effect to the correct adapter, fire-and-forget.
type Effect struct {
	Kind    EffectKind
	Text    string     // operator prompt/ack text
	Buttons [][]Button // operator button rows
	URL     string     // redirect destination
	Choice  string     // completed payload
	Value   string     // completed payload
}
