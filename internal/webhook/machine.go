package webhook

import (
	"context"

	"github.com/qmuntal/stateless"
)

// State is a step in processing one inbound event.
type State string

const (
	StateReceived      State = "RECEIVED"
	StateClassified    State = "CLASSIFIED"
	StateSendAttempted State = "SEND_ATTEMPTED"
	StateSendSkipped   State = "SEND_SKIPPED"
	StateDone          State = "DONE"
)

func (s State) String() string { return string(s) }

// Trigger moves an event between states.
type Trigger string

const (
	TriggerClassify Trigger = "classify"
	TriggerIgnore   Trigger = "ignore"
	TriggerSend     Trigger = "send"
	TriggerSkip     Trigger = "skip"
	TriggerFinish   Trigger = "finish"
)

func (t Trigger) String() string { return string(t) }

// machine tracks a single event. It is not shared between requests.
type machine struct {
	sm   *stateless.StateMachine
	path []State
}

func newMachine() *machine {
	m := &machine{path: []State{StateReceived}}
	sm := stateless.NewStateMachine(StateReceived)

	sm.Configure(StateReceived).
		Permit(TriggerClassify, StateClassified).
		Permit(TriggerIgnore, StateDone)

	sm.Configure(StateClassified).
		Permit(TriggerSend, StateSendAttempted).
		Permit(TriggerSkip, StateSendSkipped)

	sm.Configure(StateSendAttempted).
		Permit(TriggerFinish, StateDone)

	sm.Configure(StateSendSkipped).
		Permit(TriggerFinish, StateDone)

	sm.OnTransitioned(func(_ context.Context, t stateless.Transition) {
		m.path = append(m.path, t.Destination.(State))
	})

	m.sm = sm
	return m
}

func (m *machine) fire(ctx context.Context, trigger Trigger) error {
	return m.sm.FireCtx(ctx, trigger)
}

func (m *machine) state() State {
	return m.sm.MustState().(State)
}
