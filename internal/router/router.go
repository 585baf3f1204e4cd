// Package router correlates inbound events from the front and operator
// channels to session records, drives the state machine, and dispatches the
// resulting notifications to the correct adapter.
package router

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"github.com/zulandar/switchboard/internal/archive"
	"github.com/zulandar/switchboard/internal/flow"
	"github.com/zulandar/switchboard/internal/front"
	"github.com/zulandar/switchboard/internal/observability"
	"github.com/zulandar/switchboard/internal/operator"
)

// Drop reasons observed by the router itself, on top of the machine's.
const (
	dropUnknownSession    = "unknown_session"
	dropNoAwaitingSession = "no_awaiting_session"
	dropInvariant         = "invariant_violation"
	dropUnknownKind       = "unknown_event_kind"
	dropDuplicateSession  = "duplicate_session"
)

// FrontChannel is the outbound capability the router needs from the front
// adapter. Deliveries are fire-and-forget; errors are logged, never acted on.
type FrontChannel interface {
	SessionCreated(sessionID string) error
	ResetFood(sessionID string) error
	Redirect(sessionID, url string) error
	Completed(sessionID, choice, value string) error
}

// OperatorChannel is the outbound capability the router needs from the
// operator adapter.
type OperatorChannel interface {
	Send(ctx context.Context, p operator.Prompt) error
}

// Router is the integration glue between the two channels and the session
// store. It holds no session state of its own; all processing is expected
// to happen on a single event-loop goroutine (the Daemon's), so one event
// is handled to completion before the next.
type Router struct {
	store    *flow.Store
	machine  flow.Machine
	front    FrontChannel
	op       OperatorChannel
	recorder *archive.Recorder       // optional
	metrics  *observability.Metrics  // nil-safe
	out      io.Writer
}

// RouterOpts holds parameters for creating a Router.
type RouterOpts struct {
	Store    *flow.Store
	Machine  flow.Machine
	Front    FrontChannel
	Operator OperatorChannel
	Recorder *archive.Recorder      // optional; nil disables the archive
	Metrics  *observability.Metrics // optional
	Out      io.Writer              // defaults to os.Stdout
}

// NewRouter creates a Router.
func NewRouter(opts RouterOpts) (*Router, error) {
	if opts.Store == nil {
		return nil, fmt.Errorf("router: store is required")
	}
	if opts.Front == nil {
		return nil, fmt.Errorf("router: front channel is required")
	}
	if opts.Operator == nil {
		return nil, fmt.Errorf("router: operator channel is required")
	}
	out := opts.Out
	if out == nil {
		out = os.Stdout
	}
	return &Router{
		store:    opts.Store,
		machine:  opts.Machine,
		front:    opts.Front,
		op:       opts.Operator,
		recorder: opts.Recorder,
		metrics:  opts.Metrics,
		out:      out,
	}, nil
}

// HandleFront processes one inbound front-channel event.
func (r *Router) HandleFront(ctx context.Context, ev front.Event) {
	r.metrics.IncInbound("front", string(ev.Kind))

	if ev.Kind == front.EventStart {
		r.handleStart(ev.SessionID)
		return
	}

	sess := r.store.Get(ev.SessionID)
	if sess == nil {
		r.drop(dropUnknownSession, "front %s for unknown session %s", ev.Kind, ev.SessionID)
		return
	}

	var kind flow.EventKind
	switch ev.Kind {
	case front.EventSubmitFood:
		kind = flow.EventSubmitFood
	case front.EventSubmitCode:
		kind = flow.EventSubmitCode
	default:
		r.drop(dropUnknownKind, "front event kind %q", ev.Kind)
		return
	}

	r.apply(ctx, sess, flow.Event{Kind: kind, Value: ev.Value}, "front")
}

// HandleOperator processes one inbound operator event.
func (r *Router) HandleOperator(ctx context.Context, ev operator.Event) {
	r.metrics.IncInbound("operator", string(ev.Kind))

	switch ev.Kind {
	case operator.EventButton:
		r.handleButton(ctx, ev)
	case operator.EventText:
		r.handleFreeText(ctx, ev)
	default:
		r.drop(dropUnknownKind, "operator event kind %q", ev.Kind)
	}
}

// handleStart creates the session and confirms it to the front party.
func (r *Router) handleStart(sessionID string) {
	sess, err := r.store.Create(sessionID)
	if err != nil {
		r.drop(dropDuplicateSession, "create session %s: %v", sessionID, err)
		return
	}
	fmt.Fprintf(r.out, "router: session %s created\n", sessionID)
	r.metrics.SetActiveSessions(r.store.Len())
	r.record(sess, "front", "start_session", "")

	if err := r.front.SessionCreated(sessionID); err != nil {
		r.outboundFailure("front", err)
	}
}

// handleButton resolves the session named in the button payload and applies
// the corresponding machine event.
func (r *Router) handleButton(ctx context.Context, ev operator.Event) {
	sess := r.store.Get(ev.SessionID)
	if sess == nil {
		r.drop(dropUnknownSession, "operator %s for unknown session %s", ev.Action, ev.SessionID)
		return
	}

	var flowEv flow.Event
	switch {
	case ev.Action.IsChoice():
		flowEv = flow.Event{Kind: flow.EventOperatorChoice, Value: string(ev.Action)}
	case ev.Action == flow.ActionBack:
		flowEv = flow.Event{Kind: flow.EventOperatorBack}
	case ev.Action == flow.ActionProceed:
		flowEv = flow.Event{Kind: flow.EventOperatorProceed}
	case ev.Action == flow.ActionFinalBack:
		flowEv = flow.Event{Kind: flow.EventOperatorFinalBack}
	default:
		r.drop(dropUnknownKind, "operator action %q", ev.Action)
		return
	}

	applied := r.apply(ctx, sess, flowEv, "operator")

	// A fresh choice steals the awaiting flag: the most recently flagged
	// session is the only one the next free-text message can reach.
	if applied && flowEv.Kind == flow.EventOperatorChoice {
		r.store.ReleaseOthers(sess.ID)
	}
}

// handleFreeText correlates a free-text operator message via the awaiting
// flag, the only addressing mechanism the back channel has for text.
func (r *Router) handleFreeText(ctx context.Context, ev operator.Event) {
	sess, err := r.store.FindAwaitingReply()
	if err != nil {
		// Multiple flagged sessions means the single-flight invariant broke.
		// This is a router bug, never expected in production.
		log.Printf("router: INVARIANT VIOLATION: %v", err)
		r.metrics.IncDropped(dropInvariant)
		return
	}
	if sess == nil {
		r.drop(dropNoAwaitingSession, "operator free text with no session awaiting reply")
		return
	}

	r.apply(ctx, sess, flow.Event{Kind: flow.EventOperatorFreeText, Value: ev.Text}, "operator")
}

// apply runs the machine and dispatches the effects. Returns true if the
// event was applied.
func (r *Router) apply(ctx context.Context, sess *flow.Session, ev flow.Event, channel string) bool {
	effects, dropReason := r.machine.Apply(sess, ev)
	if dropReason != flow.DropNone {
		r.drop(string(dropReason), "%s %s on session %s in state %s", channel, ev.Kind, sess.ID, sess.Status)
		return false
	}

	fmt.Fprintf(r.out, "router: session %s: %s -> %s\n", sess.ID, ev.Kind, sess.Status)
	r.record(sess, channel, string(ev.Kind), ev.Value)

	for _, effect := range effects {
		r.dispatch(ctx, sess, effect)
	}
	return true
}

// dispatch delivers one effect to its adapter, fire-and-forget. A delivery
// failure never rolls back the transition that produced it.
func (r *Router) dispatch(ctx context.Context, sess *flow.Session, effect flow.Effect) {
	var err error
	channel := "front"

	switch effect.Kind {
	case flow.EffectPromptOperator, flow.EffectAckOperator:
		channel = "operator"
		err = r.op.Send(ctx, operator.Prompt{
			Text:    effect.Text,
			Buttons: operator.BuildButtons(sess.ID, effect.Buttons),
		})
	case flow.EffectFrontReset:
		err = r.front.ResetFood(sess.ID)
	case flow.EffectFrontRedirect:
		err = r.front.Redirect(sess.ID, effect.URL)
	case flow.EffectFrontCompleted:
		err = r.front.Completed(sess.ID, effect.Choice, effect.Value)
	}

	if err != nil {
		r.outboundFailure(channel, err)
	}
}

// Sweep removes sessions idle since before cutoff and returns how many
// were evicted. Eviction is an operational policy; it fires only when the
// daemon has a sweep schedule configured.
func (r *Router) Sweep(cutoff time.Time) int {
	ids := r.store.IdleSessions(cutoff)
	for _, id := range ids {
		r.store.Remove(id)
		fmt.Fprintf(r.out, "router: session %s evicted (idle)\n", id)
	}
	if len(ids) > 0 {
		r.metrics.SetActiveSessions(r.store.Len())
	}
	return len(ids)
}

// drop logs a silently dropped event with its reason and counts it.
func (r *Router) drop(reason, format string, args ...interface{}) {
	fmt.Fprintf(r.out, "router: drop [%s]: %s\n", reason, fmt.Sprintf(format, args...))
	r.metrics.IncDropped(reason)
}

// outboundFailure logs a failed fire-and-forget delivery.
func (r *Router) outboundFailure(channel string, err error) {
	log.Printf("router: outbound %s delivery: %v", channel, err)
	r.metrics.IncOutboundFailure(channel)
}

// record writes the session snapshot and transcript entry, best-effort.
func (r *Router) record(sess *flow.Session, channel, kind, value string) {
	if r.recorder == nil {
		return
	}
	if err := r.recorder.RecordSession(sess); err != nil {
		log.Printf("router: archive: %v", err)
	}
	if err := r.recorder.RecordEvent(sess.ID, channel, kind, value); err != nil {
		log.Printf("router: archive: %v", err)
	}
}
