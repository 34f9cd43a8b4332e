// Package statemachine implements a small typed finite state machine.
//
// States and events are any comparable types, usually string or int enums
// owned by the caller. Transitions are declared up front with guards and
// actions; Fire picks the first transition for the current state and event
// whose guards all pass, runs its actions and moves to the target state.
//
//	type phase string
//	type trigger string
//
//	sm := statemachine.MustNew[phase, trigger]("idle",
//	    statemachine.WithTransition[phase, trigger]("idle", "busy", "begin"),
//	    statemachine.WithTransition[phase, trigger]("busy", "idle", "done",
//	        statemachine.WithGuard(func(ctx context.Context, from phase, ev trigger, data any) bool {
//	            return data.(int) == 0
//	        }),
//	    ),
//	)
//	next, err := sm.Fire(ctx, "begin", nil)
//
// Errors distinguish an undefined transition (IsNoTransitionAvailableError)
// from one blocked by guards (IsTransitionRejectedError).
package statemachine
