// Package poll owns the two loops that keep a session honest: the 2 s poll
// against the authoritative game endpoint, and the 100 ms countdown tick that
// extrapolates the active clock and fires local timeout resolution. Neither
// loop ever dies on a bad response; the running loop itself is the liveness
// proof, and a failed tick is simply retried on the next one.
package poll

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"

	"github.com/lexiduel/client/internal/clock"
	"github.com/lexiduel/client/internal/match"
	"github.com/lexiduel/client/internal/session"
)

const (
	// DefaultPollInterval is the cadence of snapshot refreshes.
	DefaultPollInterval = 2 * time.Second
	// DefaultTickInterval is the cadence of countdown repaints.
	DefaultTickInterval = 100 * time.Millisecond
)

// Tick is what the countdown loop reports to the renderer every interval.
type Tick struct {
	Kind      clock.Kind
	Remaining float64
	Tier      clock.Tier
	Urgent    bool
}

// Synchronizer drives one session. Construct a new one per match; it stops on
// its own when the match finishes or the session closes.
type Synchronizer struct {
	api  session.API
	sess *session.Session
	ctrl *session.Controller
	clk  clockwork.Clock

	pollInterval time.Duration
	tickInterval time.Duration

	// inFlight drops poll ticks that land while a previous request is still
	// out. Dropped, not queued: the next tick carries fresher truth anyway.
	inFlight atomic.Bool

	instanceID string

	// OnSnapshot is invoked after every accepted snapshot. Optional.
	OnSnapshot func(*match.SessionSnapshot)
	// OnTick is invoked every countdown interval while a clock is active.
	// Optional.
	OnTick func(Tick)
}

func New(api session.API, sess *session.Session) *Synchronizer {
	return &Synchronizer{
		api:          api,
		sess:         sess,
		ctrl:         session.NewController(api, sess),
		clk:          sess.Clock(),
		pollInterval: DefaultPollInterval,
		tickInterval: DefaultTickInterval,
		instanceID:   uuid.New().String()[:8],
	}
}

// Controller exposes the guarded action surface bound to this session, for
// user input handlers.
func (s *Synchronizer) Controller() *session.Controller { return s.ctrl }

// SetIntervals overrides the poll and tick cadence. Zero leaves a value
// unchanged.
func (s *Synchronizer) SetIntervals(poll, tick time.Duration) {
	if poll > 0 {
		s.pollInterval = poll
	}
	if tick > 0 {
		s.tickInterval = tick
	}
}

// Run is the poll loop. It fetches an initial snapshot immediately, then
// refreshes on every tick until the match reports finished, the session
// closes, or the context ends.
func (s *Synchronizer) Run(ctx context.Context) error {
	log.Info().
		Str("instance", s.instanceID).
		Str("code", s.sess.Code()).
		Dur("interval", s.pollInterval).
		Msg("poll loop started")

	s.pollOnce(ctx)

	ticker := s.clk.NewTicker(s.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Info().Str("instance", s.instanceID).Msg("poll loop cancelled")
			return ctx.Err()
		case <-ticker.Chan():
			if s.sess.Closed() {
				log.Info().Str("instance", s.instanceID).Msg("session closed; poll loop stopping")
				return nil
			}
			if snap := s.sess.Snapshot(); snap != nil && snap.Status == match.StatusFinished {
				log.Info().Str("instance", s.instanceID).Msg("match finished; poll loop stopping")
				return nil
			}
			s.pollOnce(ctx)
		}
	}
}

// pollOnce issues one snapshot fetch unless one is already in flight. The
// request runs off the loop goroutine so a slow response delays nothing; the
// guard makes sure at most one is ever out.
func (s *Synchronizer) pollOnce(ctx context.Context) {
	if !s.inFlight.CompareAndSwap(false, true) {
		log.Debug().Str("instance", s.instanceID).Msg("poll tick dropped; request in flight")
		return
	}
	go func() {
		defer s.inFlight.Store(false)
		snap, err := s.api.GetGame(ctx, s.sess.Code(), s.sess.PlayerID())
		if err != nil {
			// Swallowed: no anchor reset, no flag change, retried next tick.
			log.Debug().Err(err).Str("instance", s.instanceID).Msg("poll failed; retrying next tick")
			return
		}
		s.apply(snap)
	}()
}

// apply hands the snapshot to the session and reports phase transitions.
func (s *Synchronizer) apply(snap *match.SessionSnapshot) {
	prev := s.sess.Snapshot()
	if !s.sess.Apply(snap) {
		return
	}
	if prev == nil || prev.Status != snap.Status {
		from := ""
		if prev != nil {
			from = string(prev.Status)
		}
		log.Info().
			Str("instance", s.instanceID).
			Str("from", from).
			Str("to", string(snap.Status)).
			Msg("phase transition")
	}
	if s.OnSnapshot != nil {
		s.OnSnapshot(snap)
	}
}

// RunCountdown is the 100 ms tick loop. Each tick reads the active clock,
// reports it, and on expiry hands the decision to the controller, whose guard
// keeps a racing user action and this loop from both submitting.
func (s *Synchronizer) RunCountdown(ctx context.Context) error {
	ticker := s.clk.NewTicker(s.tickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.Chan():
			if s.sess.Closed() {
				return nil
			}
			if snap := s.sess.Snapshot(); snap != nil && snap.Status == match.StatusFinished {
				return nil
			}
			s.tick(ctx)
		}
	}
}

func (s *Synchronizer) tick(ctx context.Context) {
	kind, ok := s.sess.ActiveClock()
	if !ok {
		return
	}
	rem := s.sess.Remaining(kind)
	if s.OnTick != nil {
		s.OnTick(Tick{
			Kind:      kind,
			Remaining: rem,
			Tier:      clock.TierFor(kind, rem),
			Urgent:    clock.Urgent(kind, rem),
		})
	}
	if !s.sess.Expired(kind) {
		return
	}
	// Reaching zero before the server confirms is not an error; it is the
	// trigger for the timeout-resolution path.
	if err := s.ctrl.ResolveExpiry(ctx, kind); err != nil {
		log.Warn().Err(err).Str("kind", kind.String()).Msg("timeout resolution failed")
	}
}
