// Package session holds everything the client believes about the one match it
// is currently engaged in. A Session is built when the client joins a match
// and thrown away when it leaves; nothing in here survives a match change, so
// stale fields from a previous match cannot leak into the next one.
package session

import (
	"sync"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"

	"github.com/lexiduel/client/clients/gameclient"
	"github.com/lexiduel/client/internal/clock"
	"github.com/lexiduel/client/internal/guard"
	"github.com/lexiduel/client/internal/match"
)

// Session is the shared mutable state for one active match. The snapshot is
// swapped as a whole reference under the lock; readers either see the old
// state or the new one, never a torn mix.
type Session struct {
	code  string
	creds gameclient.Credentials
	clk   clockwork.Clock
	guard *guard.Guard

	mu         sync.RWMutex
	snapshot   *match.SessionSnapshot
	generation uint64
	closed     bool

	// pendingWord is the optimistic overlay for a word submission that has
	// not been confirmed yet. Cleared on confirmation, rolled back on
	// failure.
	pendingWord string

	turn      clock.Anchor
	selection clock.Anchor
	change    clock.Anchor
}

func New(code string, creds gameclient.Credentials, clk clockwork.Clock) *Session {
	return &Session{
		code:  code,
		creds: creds,
		clk:   clk,
		guard: guard.New(),
	}
}

func (s *Session) Code() string                        { return s.code }
func (s *Session) PlayerID() string                    { return s.creds.PlayerID }
func (s *Session) Credentials() gameclient.Credentials { return s.creds }
func (s *Session) Guard() *guard.Guard                 { return s.guard }
func (s *Session) Clock() clockwork.Clock              { return s.clk }

// Snapshot returns the last applied authoritative state, or nil before the
// first sync.
func (s *Session) Snapshot() *match.SessionSnapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshot
}

// Generation counts applied snapshots. A caller that captured a generation
// before suspending can tell whether truth moved underneath it.
func (s *Session) Generation() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.generation
}

// Apply replaces the snapshot wholesale and re-arms every countdown the
// response carried a fresh value for. It reports whether the snapshot was
// accepted: responses that resolve after the session closed, or that describe
// an earlier phase than the one already applied, are stale and dropped.
func (s *Session) Apply(snap *match.SessionSnapshot) bool {
	if snap == nil {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		log.Debug().Str("code", s.code).Msg("dropping snapshot for closed session")
		return false
	}
	prev := s.snapshot
	if prev != nil && snap.Status.Before(prev.Status) {
		log.Debug().
			Str("code", s.code).
			Str("have", string(prev.Status)).
			Str("got", string(snap.Status)).
			Msg("dropping stale snapshot from earlier phase")
		return false
	}

	s.snapshot = snap
	s.generation++
	now := s.clk.Now()

	// Each anchor only accepts a non-nil fresh value; absent fields leave the
	// local extrapolation alone instead of rewinding it.
	if snap.Status == match.StatusPlaying {
		if cp, ok := snap.CurrentPlayer(); ok {
			rem := cp.TimeRemaining
			s.turn.Reset(&rem, now)
		}
	}
	s.selection.Reset(snap.WordSelectionTimeRemaining, now)
	s.change.Reset(snap.WordChangeTimeRemaining, now)

	s.reopenDecisions(prev, snap)
	s.settleOverlay(snap)
	return true
}

// reopenDecisions returns recurring decision points to Idle when the server
// says a new occurrence has started: a new turn reopens the turn decision, a
// fresh word-change window aimed at us reopens the word-change decision.
func (s *Session) reopenDecisions(prev, snap *match.SessionSnapshot) {
	if prev == nil {
		return
	}
	if len(snap.History) > len(prev.History) || snap.CurrentPlayerID != prev.CurrentPlayerID {
		s.guard.Clear(guard.DecisionTurn)
	}
	self := s.creds.PlayerID
	if waitingFor(snap) == self && waitingFor(prev) != self {
		s.guard.Clear(guard.DecisionWordChange)
	}
}

// settleOverlay clears the optimistic word once the server confirms it.
func (s *Session) settleOverlay(snap *match.SessionSnapshot) {
	if s.pendingWord == "" {
		return
	}
	if p, ok := snap.Player(s.creds.PlayerID); ok && p.HasWord {
		s.pendingWord = ""
	}
}

func waitingFor(snap *match.SessionSnapshot) string {
	if snap == nil || snap.WaitingForWordChange == nil {
		return ""
	}
	return *snap.WaitingForWordChange
}

// ActiveClock selects the single countdown the current phase runs on. A
// pending word-change window takes precedence over the turn clock.
func (s *Session) ActiveClock() (clock.Kind, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	snap := s.snapshot
	if snap == nil {
		return 0, false
	}
	switch {
	case waitingFor(snap) != "":
		return clock.KindWordChange, true
	case snap.Status == match.StatusPlaying:
		return clock.KindTurn, true
	case snap.Status == match.StatusWordSelection:
		return clock.KindWordSelection, true
	}
	return 0, false
}

// Remaining extrapolates the given countdown at the session clock's now.
func (s *Session) Remaining(kind clock.Kind) float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.anchor(kind).Remaining(s.clk.Now())
}

// Expired reports whether the given countdown has been armed and run out.
func (s *Session) Expired(kind clock.Kind) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.anchor(kind).Expired(s.clk.Now())
}

func (s *Session) anchor(kind clock.Kind) *clock.Anchor {
	switch kind {
	case clock.KindWordSelection:
		return &s.selection
	case clock.KindWordChange:
		return &s.change
	default:
		return &s.turn
	}
}

// Self returns this player's row in the current snapshot.
func (s *Session) Self() (match.PlayerView, bool) {
	snap := s.Snapshot()
	if snap == nil {
		return match.PlayerView{}, false
	}
	return snap.Player(s.creds.PlayerID)
}

// PendingWord exposes the optimistic overlay for rendering.
func (s *Session) PendingWord() (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.pendingWord, s.pendingWord != ""
}

func (s *Session) setPendingWord(word string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pendingWord = word
}

func (s *Session) clearPendingWord() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pendingWord = ""
}

// Closed reports whether the client has disengaged from the match.
func (s *Session) Closed() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.closed
}

// Close disengages from the match: no further snapshot applies, every
// countdown disarmed, every decision flag wiped. Late responses for this
// session resolve into the void.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	s.pendingWord = ""
	s.turn.Clear()
	s.selection.Clear()
	s.change.Clear()
	s.guard.Reset()
}
