package job

import (
	"fmt"

	"github.com/miriambudayr/tierq"
)

// State represents the lifecycle state of a job.
type State string

const (
	// StateCreated means the job has been accepted but not yet dispatched.
	StateCreated State = "created"
	// StateProcessing means the job callback is currently executing.
	StateProcessing State = "processing"
	// StateCompleted means the job finished successfully.
	StateCompleted State = "completed"
	// StateCancelled means the job was explicitly cancelled.
	StateCancelled State = "cancelled"
	// StateFailed means the job failed after exhausting its retries.
	StateFailed State = "failed"
)

// Action is a lifecycle event applied to a job's state.
type Action string

const (
	ActionStart    Action = "start"
	ActionComplete Action = "complete"
	ActionCancel   Action = "cancel"
	ActionFail     Action = "fail"
)

// transitions is the authority for every lifecycle mutation. A missing
// entry means the (state, action) pair is invalid.
//
// Completed and Failed are strictly terminal: no outgoing transitions.
// Cancelled is absorbing: it accepts every action and remains Cancelled.
// The absorbing row is what lets an in-flight completion race a
// concurrent cancellation without special-casing every call site.
var transitions = map[State]map[Action]State{
	StateCreated: {
		ActionStart:  StateProcessing,
		ActionCancel: StateCancelled,
	},
	StateProcessing: {
		ActionComplete: StateCompleted,
		ActionCancel:   StateCancelled,
		ActionFail:     StateFailed,
	},
	StateCompleted: {},
	StateCancelled: {
		ActionStart:    StateCancelled,
		ActionComplete: StateCancelled,
		ActionCancel:   StateCancelled,
		ActionFail:     StateCancelled,
	},
	StateFailed: {},
}

// InvalidTransitionError reports a (state, action) pair with no entry in
// the transition table. It indicates a programming error, never a
// recoverable runtime condition.
type InvalidTransitionError struct {
	From   State
	Action Action
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("invalid state transition: %s from state %s", e.Action, e.From)
}

// Unwrap lets callers match with errors.Is(err, tierq.ErrInvalidTransition).
func (e *InvalidTransitionError) Unwrap() error {
	return tierq.ErrInvalidTransition
}

// Transition looks up the next state for the given (state, action) pair.
// An undefined pair returns an *InvalidTransitionError.
func Transition(s State, a Action) (State, error) {
	next, ok := transitions[s][a]
	if !ok {
		return s, &InvalidTransitionError{From: s, Action: a}
	}
	return next, nil
}

// Terminal reports whether s has no further required transitions.
func (s State) Terminal() bool {
	return s == StateCompleted || s == StateCancelled || s == StateFailed
}
