package pushchannel

import (
	"context"

	"github.com/dmitrymomot/notifystream/pkg/statemachine"
)

// State is the lifecycle state of a Channel.
type State int

const (
	Disconnected State = iota
	Connecting
	Open
	Retrying
	Failed
)

func (s State) String() string {
	switch s {
	case Disconnected:
		return "disconnected"
	case Connecting:
		return "connecting"
	case Open:
		return "open"
	case Retrying:
		return "retrying"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}

type trigger string

const (
	triggerStart        trigger = "start"
	triggerOpened       trigger = "opened"
	triggerDropped      trigger = "dropped"
	triggerReconnect    trigger = "reconnect"
	triggerAuthRejected trigger = "auth_rejected"
	triggerExcluded     trigger = "excluded"
	triggerStop         trigger = "stop"
)

// retryBudget is the data passed with triggerDropped.
type retryBudget struct {
	used, max int
}

func newLifecycle(onChange statemachine.Action[State, trigger]) *statemachine.Machine[State, trigger] {
	hasBudget := func(_ context.Context, _ State, _ trigger, data any) bool {
		b, ok := data.(retryBudget)
		return ok && b.used < b.max
	}
	notify := statemachine.WithAction(onChange)
	live := []State{Connecting, Open}

	return statemachine.MustNew(Disconnected,
		statemachine.WithTransitionFrom([]State{Disconnected, Failed}, Connecting, triggerStart, notify),
		statemachine.WithTransition(Connecting, Open, triggerOpened, notify),
		statemachine.WithTransitionFrom(live, Retrying, triggerDropped, statemachine.WithGuard(hasBudget), notify),
		statemachine.WithTransitionFrom(live, Failed, triggerDropped, notify),
		statemachine.WithTransition(Connecting, Failed, triggerAuthRejected, notify),
		statemachine.WithTransition(Retrying, Connecting, triggerReconnect, notify),
		statemachine.WithTransition(Retrying, Disconnected, triggerExcluded, notify),
		statemachine.WithTransitionFrom([]State{Connecting, Open, Retrying, Failed}, Disconnected, triggerStop, notify),
	)
}
