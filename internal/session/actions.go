package session

import (
	"context"
	"errors"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/lexiduel/client/clients"
	"github.com/lexiduel/client/clients/gameclient"
	"github.com/lexiduel/client/internal/clock"
	"github.com/lexiduel/client/internal/guard"
	"github.com/lexiduel/client/internal/match"
)

// API is the slice of the game client the controller needs. gameclient's
// GameClient satisfies it; tests substitute a counting fake.
type API interface {
	GetGame(ctx context.Context, code, playerID string) (*match.SessionSnapshot, error)
	SetWord(ctx context.Context, code string, creds gameclient.Credentials, word string) (*match.SessionSnapshot, error)
	ChangeWord(ctx context.Context, code string, creds gameclient.Credentials, word string) (*match.SessionSnapshot, error)
	SkipWordChange(ctx context.Context, code string, creds gameclient.Credentials) (*match.SessionSnapshot, error)
	Guess(ctx context.Context, code string, creds gameclient.Credentials, word string) (*match.SessionSnapshot, error)
	Timeout(ctx context.Context, code string, creds gameclient.Credentials) (*match.SessionSnapshot, error)
	WordSelectionTimeout(ctx context.Context, code string, creds gameclient.Credentials) (*match.SessionSnapshot, error)
	WordChangeTimeout(ctx context.Context, code string, creds gameclient.Credentials) (*match.SessionSnapshot, error)
	Begin(ctx context.Context, code string, creds gameclient.Credentials) (*match.SessionSnapshot, error)
	Start(ctx context.Context, code string, creds gameclient.Credentials) (*match.SessionSnapshot, error)
}

// ErrDecisionTaken is returned when an action's decision point has already
// been claimed by the other trigger (or already resolved). It is not a
// failure; the caller simply has nothing left to do.
var ErrDecisionTaken = errors.New("decision already claimed or resolved")

// Controller runs user-initiated and timeout-initiated actions against the
// server with the guard discipline: claim the decision synchronously, apply
// any optimistic overlay, then talk to the network; on failure roll back and
// resync truth.
type Controller struct {
	api  API
	sess *Session
}

func NewController(api API, sess *Session) *Controller {
	return &Controller{api: api, sess: sess}
}

// SubmitWord locks the player's initial secret word.
func (c *Controller) SubmitWord(ctx context.Context, word string) error {
	g := c.sess.Guard()
	if !g.Begin(guard.DecisionWord) {
		return ErrDecisionTaken
	}
	c.sess.setPendingWord(word)
	snap, err := c.api.SetWord(ctx, c.sess.Code(), c.sess.Credentials(), word)
	return c.finishOneShot(ctx, guard.DecisionWord, snap, err)
}

// SubmitWordChange swaps the player's word during a word-change window.
func (c *Controller) SubmitWordChange(ctx context.Context, word string) error {
	g := c.sess.Guard()
	if !g.Begin(guard.DecisionWordChange) {
		return ErrDecisionTaken
	}
	c.sess.setPendingWord(word)
	snap, err := c.api.ChangeWord(ctx, c.sess.Code(), c.sess.Credentials(), word)
	return c.finishOneShot(ctx, guard.DecisionWordChange, snap, err)
}

// SkipWordChange declines the word-change window.
func (c *Controller) SkipWordChange(ctx context.Context) error {
	g := c.sess.Guard()
	if !g.Begin(guard.DecisionWordChange) {
		return ErrDecisionTaken
	}
	snap, err := c.api.SkipWordChange(ctx, c.sess.Code(), c.sess.Credentials())
	return c.finishOneShot(ctx, guard.DecisionWordChange, snap, err)
}

// SubmitGuess submits the current turn's guess.
func (c *Controller) SubmitGuess(ctx context.Context, word string) error {
	g := c.sess.Guard()
	if !g.Begin(guard.DecisionTurn) {
		return ErrDecisionTaken
	}
	snap, err := c.api.Guess(ctx, c.sess.Code(), c.sess.Credentials(), word)
	return c.finishOneShot(ctx, guard.DecisionTurn, snap, err)
}

// BeginMatch moves a waiting lobby into word selection.
func (c *Controller) BeginMatch(ctx context.Context) error {
	snap, err := c.api.Begin(ctx, c.sess.Code(), c.sess.Credentials())
	if err != nil {
		return err
	}
	c.sess.Apply(snap)
	return nil
}

// StartMatch moves word selection into play.
func (c *Controller) StartMatch(ctx context.Context) error {
	snap, err := c.api.Start(ctx, c.sess.Code(), c.sess.Credentials())
	if err != nil {
		return err
	}
	c.sess.Apply(snap)
	return nil
}

// finishOneShot is the shared tail of every guarded submission. Success and
// stale rejection both settle the decision; real failures reopen it, roll
// back the overlay, and force a fresh snapshot so local truth cannot drift.
func (c *Controller) finishOneShot(ctx context.Context, d guard.Decision, snap *match.SessionSnapshot, err error) error {
	g := c.sess.Guard()
	if err == nil {
		g.Resolve(d)
		c.sess.Apply(snap)
		return nil
	}
	if IsStaleRejection(err) {
		// The server already holds this outcome; treat as success and let a
		// resync carry the authoritative state in.
		log.Debug().Str("decision", d.String()).Msg("stale action rejection, resyncing")
		g.Resolve(d)
		c.Resync(ctx)
		return nil
	}
	g.Clear(d)
	c.sess.clearPendingWord()
	c.Resync(ctx)
	return err
}

// Resync fetches a fresh snapshot outside the poll cadence. Errors are
// swallowed; the next poll tick retries anyway.
func (c *Controller) Resync(ctx context.Context) {
	snap, err := c.api.GetGame(ctx, c.sess.Code(), c.sess.PlayerID())
	if err != nil {
		log.Debug().Err(err).Str("code", c.sess.Code()).Msg("resync failed; next poll retries")
		return
	}
	c.sess.Apply(snap)
}

// ResolveExpiry is the countdown loop's entry point when the active clock
// reaches zero. The claim happens synchronously here; only then does the
// network call run, so a user click arriving after this tick loses the race
// cleanly instead of double-submitting.
func (c *Controller) ResolveExpiry(ctx context.Context, kind clock.Kind) error {
	snap := c.sess.Snapshot()
	if snap == nil {
		return nil
	}
	self := c.sess.PlayerID()
	g := c.sess.Guard()

	switch kind {
	case clock.KindTurn:
		// Only the player whose clock ran out reports it.
		if snap.CurrentPlayerID != self {
			return nil
		}
		if !g.Begin(guard.DecisionTurn) {
			return nil
		}
		s, err := c.api.Timeout(ctx, c.sess.Code(), c.sess.Credentials())
		return c.finishOneShot(ctx, guard.DecisionTurn, s, err)

	case clock.KindWordSelection:
		// Authoritative evidence beats the local clock: a word already on
		// record means this decision is settled.
		if p, ok := snap.Player(self); ok && p.HasWord {
			g.Resolve(guard.DecisionWord)
			return nil
		}
		if !g.Begin(guard.DecisionWord) {
			return nil
		}
		s, err := c.api.WordSelectionTimeout(ctx, c.sess.Code(), c.sess.Credentials())
		return c.finishOneShot(ctx, guard.DecisionWord, s, err)

	case clock.KindWordChange:
		if waitingFor(snap) != self {
			return nil
		}
		if !g.Begin(guard.DecisionWordChange) {
			return nil
		}
		s, err := c.api.WordChangeTimeout(ctx, c.sess.Code(), c.sess.Credentials())
		return c.finishOneShot(ctx, guard.DecisionWordChange, s, err)
	}
	return nil
}

// IsStaleRejection reports whether the server refused an action because the
// decision it resolves is already settled. The client treats that as success.
func IsStaleRejection(err error) bool {
	var se *clients.StatusError
	return errors.As(err, &se) && se.Code == http.StatusConflict
}
