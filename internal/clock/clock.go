// Package clock reconciles locally-ticking countdowns against periodically
// refreshed server truth. The server only ever reports seconds remaining,
// never deadlines, so the client anchors each fresh value to the local time it
// arrived and extrapolates between syncs.
package clock

import "time"

// Kind identifies which countdown an anchor belongs to. At most one kind is
// active at a time, selected by the snapshot's status.
type Kind int

const (
	KindTurn Kind = iota
	KindWordSelection
	KindWordChange
)

func (k Kind) String() string {
	switch k {
	case KindTurn:
		return "turn"
	case KindWordSelection:
		return "word_selection"
	case KindWordChange:
		return "word_change"
	}
	return "unknown"
}

// Anchor is the (seconds remaining, local sync time) pair a countdown
// extrapolates from. The zero value is unset and reads as expired.
type Anchor struct {
	ServerRemaining float64
	SyncedAt        time.Time
}

// Set reports whether the anchor has been armed with a server value.
func (a Anchor) Set() bool {
	return !a.SyncedAt.IsZero()
}

// Reset re-arms the anchor from a fresh authoritative value. A nil remaining
// means the response carried no value for this countdown; accepting it would
// rewind the display, so it is rejected and the anchor is left alone.
func (a *Anchor) Reset(serverRemaining *float64, now time.Time) bool {
	if serverRemaining == nil {
		return false
	}
	a.ServerRemaining = *serverRemaining
	a.SyncedAt = now
	return true
}

// Clear disarms the anchor.
func (a *Anchor) Clear() {
	*a = Anchor{}
}

// Remaining extrapolates the seconds left at now. It is monotonically
// non-increasing between resets and never negative. An unset anchor reads 0.
func (a Anchor) Remaining(now time.Time) float64 {
	if !a.Set() {
		return 0
	}
	rem := a.ServerRemaining - now.Sub(a.SyncedAt).Seconds()
	if rem < 0 {
		return 0
	}
	return rem
}

// Expired reports whether the countdown has reached zero.
func (a Anchor) Expired(now time.Time) bool {
	return a.Set() && a.Remaining(now) == 0
}

// Tier is the display urgency of a countdown.
type Tier int

const (
	TierNormal Tier = iota
	TierWarning
	TierCritical
)

func (t Tier) String() string {
	switch t {
	case TierNormal:
		return "normal"
	case TierWarning:
		return "warning"
	case TierCritical:
		return "critical"
	}
	return "unknown"
}

// thresholds per kind, in seconds.
var tierThresholds = map[Kind]struct{ warning, critical float64 }{
	KindTurn:          {30, 10},
	KindWordSelection: {15, 5},
	KindWordChange:    {15, 5},
}

// TierFor maps seconds remaining to an urgency tier for the given kind. The
// turn clock runs on a longer budget than the two word clocks, so its
// thresholds differ.
func TierFor(kind Kind, seconds float64) Tier {
	th := tierThresholds[kind]
	switch {
	case seconds <= th.critical:
		return TierCritical
	case seconds <= th.warning:
		return TierWarning
	default:
		return TierNormal
	}
}

// Urgent reports the extra styling flag the word-change countdown raises in
// its final seconds. Other kinds never raise it.
func Urgent(kind Kind, seconds float64) bool {
	return kind == KindWordChange && seconds <= 5
}
