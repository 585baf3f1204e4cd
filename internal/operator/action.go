package operator

import (
	"fmt"
	"strings"

	"github.com/zulandar/switchboard/internal/flow"
)

// knownActions is the set of button actions the router understands.
var knownActions = map[flow.Action]bool{
	flow.ActionA:         true,
	flow.ActionB:         true,
	flow.ActionC:         true,
	flow.ActionBack:      true,
	flow.ActionProceed:   true,
	flow.ActionFinalBack: true,
}

// EncodeAction builds the "<ACTION>:<sessionId>" button payload.
func EncodeAction(action flow.Action, sessionID string) string {
	return string(action) + ":" + sessionID
}

// ParseAction splits a button payload into its action and session id.
// Session ids never contain ':'; anything after the first separator is the
// id verbatim.
func ParseAction(payload string) (flow.Action, string, error) {
	action, sessionID, ok := strings.Cut(payload, ":")
	if !ok {
		return "", "", fmt.Errorf("operator: malformed button payload %q", payload)
	}
	a := flow.Action(action)
	if !knownActions[a] {
		return "", "", fmt.Errorf("operator: unknown action %q in payload", action)
	}
	if sessionID == "" {
		return "", "", fmt.Errorf("operator: empty session id in payload %q", payload)
	}
	return a, sessionID, nil
}
