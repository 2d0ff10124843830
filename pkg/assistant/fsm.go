package assistant

import (
	"sync"
	"time"
)

// State is one phase of a conversation turn.
type State string

const (
	StateSending       State = "SENDING"
	StateAwaitingModel State = "AWAITING_MODEL"
	StateStreaming     State = "STREAMING"
	StateToolRequested State = "TOOL_REQUESTED"
	StateCompleted     State = "COMPLETED"
	StateFailed        State = "FAILED"
)

func (s State) String() string { return string(s) }

// StateChange represents a state transition event.
type StateChange struct {
	FromState State
	ToState   State
	Timestamp time.Time
	Reason    string
}

// StateListener observes turn state changes.
type StateListener interface {
	OnStateChange(event StateChange)
}

// turnFSM validates the per-turn state machine. A turn is strictly
// sequential, but listeners may observe it from other goroutines.
type turnFSM struct {
	mu        sync.RWMutex
	current   State
	listeners []StateListener
}

func newTurnFSM() *turnFSM {
	return &turnFSM{current: StateSending}
}

// transitionValid checks if a state transition is valid (must be called with lock held).
func (f *turnFSM) transitionValid(from, to State) bool {
	validTransitions := map[State][]State{
		StateSending:       {StateAwaitingModel, StateFailed},
		StateAwaitingModel: {StateStreaming, StateToolRequested, StateCompleted, StateFailed},
		StateStreaming:     {StateToolRequested, StateCompleted, StateFailed},
		StateToolRequested: {StateAwaitingModel, StateCompleted, StateFailed},
	}
	allowed, exists := validTransitions[from]
	if !exists {
		return false
	}
	for _, s := range allowed {
		if s == to {
			return true
		}
	}
	return false
}

// Transition moves to a new state with validation.
func (f *turnFSM) Transition(state State, reason string) error {
	f.mu.Lock()
	if !f.transitionValid(f.current, state) {
		from := f.current
		f.mu.Unlock()
		return &InvalidTransitionError{From: from, To: state}
	}
	old := f.current
	f.current = state
	listeners := make([]StateListener, len(f.listeners))
	copy(listeners, f.listeners)
	f.mu.Unlock()

	event := StateChange{FromState: old, ToState: state, Timestamp: time.Now(), Reason: reason}
	for _, l := range listeners {
		l.OnStateChange(event)
	}
	return nil
}

// State returns the current state.
func (f *turnFSM) State() State {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.current
}

// AddListener registers a listener for state change events.
func (f *turnFSM) AddListener(l StateListener) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listeners = append(f.listeners, l)
}

// InvalidTransitionError represents an invalid state transition attempt.
type InvalidTransitionError struct {
	From State
	To   State
}

func (e *InvalidTransitionError) Error() string {
	return "invalid state transition from " + e.From.String() + " to " + e.To.String()
}
