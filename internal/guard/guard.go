// Package guard deduplicates the two independent triggers of a match decision:
// the user acting, and the local countdown expiring for the same decision.
// Each decision point runs a small state machine instead of loose booleans, so
// "submitting" and "already locked" can never be true at once.
package guard

import "sync"

// Decision identifies one guarded decision point. A decision is the logical
// choice being made, not the wire call that resolves it: a turn can be
// resolved by a guess or by a timeout post, but both claim DecisionTurn.
type Decision int

const (
	// DecisionWord is locking the initial secret word (set-word or
	// selection-timeout).
	DecisionWord Decision = iota
	// DecisionWordChange is keeping or changing the word after an elimination
	// reveal (change-word, skip, or change-timeout).
	DecisionWordChange
	// DecisionTurn is resolving the current turn (guess or turn-timeout).
	DecisionTurn
)

func (d Decision) String() string {
	switch d {
	case DecisionWord:
		return "word"
	case DecisionWordChange:
		return "word_change"
	case DecisionTurn:
		return "turn"
	}
	return "unknown"
}

// State is the lifecycle of one decision point.
type State int

const (
	// Idle means no intent has been formed; either trigger may claim it.
	Idle State = iota
	// Submitting means intent is formed and a call may be in flight. Both
	// triggers must stand down.
	Submitting
	// Resolved means the decision is settled for good (e.g. the word is
	// locked). Only Reset leaves this state.
	Resolved
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Submitting:
		return "submitting"
	case Resolved:
		return "resolved"
	}
	return "unknown"
}

// Guard holds the decision states for one active match. The zero value is not
// usable; call New.
type Guard struct {
	mu     sync.Mutex
	states map[Decision]State
}

func New() *Guard {
	return &Guard{states: make(map[Decision]State)}
}

// Begin claims the decision point. It must be called synchronously, before
// any I/O, by whichever trigger fires first; the return value tells the
// caller whether it won the claim. A decision already submitting or resolved
// cannot be claimed again.
func (g *Guard) Begin(d Decision) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.states[d] != Idle {
		return false
	}
	g.states[d] = Submitting
	return true
}

// Resolve settles the decision permanently. Used for one-shot decisions such
// as locking the word.
func (g *Guard) Resolve(d Decision) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.states[d] = Resolved
}

// Clear returns the decision to Idle. Used when the decision point recurs
// (a resolved turn opens the next one) and on failure, where the caller rolls
// back optimistic state and resyncs before anyone claims the point again.
func (g *Guard) Clear(d Decision) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.states[d] = Idle
}

// State returns the current state of the decision point.
func (g *Guard) State(d Decision) State {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.states[d]
}

// Reset wipes every decision back to Idle. Called when the client disengages
// from the match.
func (g *Guard) Reset() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.states = make(map[Decision]State)
}
