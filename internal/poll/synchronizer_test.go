package poll

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/lexiduel/client/clients/gameclient"
	"github.com/lexiduel/client/internal/clock"
	"github.com/lexiduel/client/internal/match"
	"github.com/lexiduel/client/internal/session"
)

// fakeAPI counts calls and serves a settable snapshot. Individual endpoints
// can be made to block so tests can hold a request in flight.
type fakeAPI struct {
	mu            sync.Mutex
	snap          *match.SessionSnapshot
	getErr        error
	getCalls      int
	guessCalls    int
	timeoutCalls  int
	selTimeouts   int
	changeTimeout int

	blockGuess   chan struct{} // nil: don't block
	blockGet     chan struct{}
	blockTimeout chan struct{}
	started      chan string // receives endpoint name when a call begins
}

func newFakeAPI(snap *match.SessionSnapshot) *fakeAPI {
	return &fakeAPI{snap: snap, started: make(chan string, 16)}
}

func (f *fakeAPI) setSnapshot(snap *match.SessionSnapshot) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.snap = snap
}

func (f *fakeAPI) setErr(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.getErr = err
}

func (f *fakeAPI) snapshot() *match.SessionSnapshot {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.snap
}

func (f *fakeAPI) begin(name string) {
	select {
	case f.started <- name:
	default:
	}
}

func (f *fakeAPI) GetGame(ctx context.Context, code, playerID string) (*match.SessionSnapshot, error) {
	f.mu.Lock()
	f.getCalls++
	err := f.getErr
	block := f.blockGet
	f.mu.Unlock()
	f.begin("get")
	if block != nil {
		<-block
	}
	if err != nil {
		return nil, err
	}
	return f.snapshot(), nil
}

func (f *fakeAPI) Guess(ctx context.Context, code string, creds gameclient.Credentials, word string) (*match.SessionSnapshot, error) {
	f.mu.Lock()
	f.guessCalls++
	block := f.blockGuess
	f.mu.Unlock()
	f.begin("guess")
	if block != nil {
		<-block
	}
	return f.snapshot(), nil
}

func (f *fakeAPI) Timeout(ctx context.Context, code string, creds gameclient.Credentials) (*match.SessionSnapshot, error) {
	f.mu.Lock()
	f.timeoutCalls++
	block := f.blockTimeout
	f.mu.Unlock()
	f.begin("timeout")
	if block != nil {
		<-block
	}
	return f.snapshot(), nil
}

func (f *fakeAPI) WordSelectionTimeout(ctx context.Context, code string, creds gameclient.Credentials) (*match.SessionSnapshot, error) {
	f.mu.Lock()
	f.selTimeouts++
	f.mu.Unlock()
	f.begin("selection-timeout")
	return f.snapshot(), nil
}

func (f *fakeAPI) WordChangeTimeout(ctx context.Context, code string, creds gameclient.Credentials) (*match.SessionSnapshot, error) {
	f.mu.Lock()
	f.changeTimeout++
	f.mu.Unlock()
	f.begin("change-timeout")
	return f.snapshot(), nil
}

func (f *fakeAPI) SetWord(ctx context.Context, code string, creds gameclient.Credentials, word string) (*match.SessionSnapshot, error) {
	f.begin("set-word")
	return f.snapshot(), nil
}

func (f *fakeAPI) ChangeWord(ctx context.Context, code string, creds gameclient.Credentials, word string) (*match.SessionSnapshot, error) {
	f.begin("change-word")
	return f.snapshot(), nil
}

func (f *fakeAPI) SkipWordChange(ctx context.Context, code string, creds gameclient.Credentials) (*match.SessionSnapshot, error) {
	f.begin("skip")
	return f.snapshot(), nil
}

func (f *fakeAPI) Begin(ctx context.Context, code string, creds gameclient.Credentials) (*match.SessionSnapshot, error) {
	f.begin("begin")
	return f.snapshot(), nil
}

func (f *fakeAPI) Start(ctx context.Context, code string, creds gameclient.Credentials) (*match.SessionSnapshot, error) {
	f.begin("start")
	return f.snapshot(), nil
}

func (f *fakeAPI) counts() (get, guess, timeout int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.getCalls, f.guessCalls, f.timeoutCalls
}

var creds = gameclient.Credentials{PlayerID: "p1", SessionToken: "tok"}

func playingSnapshot(current string, remaining float64) *match.SessionSnapshot {
	return &match.SessionSnapshot{
		Status:          match.StatusPlaying,
		CurrentPlayerID: current,
		Players: []match.PlayerView{
			{ID: "p1", Name: "ada", IsAlive: true, HasWord: true, TimeRemaining: remaining},
			{ID: "p2", Name: "bo", IsAlive: true, HasWord: true, TimeRemaining: 60},
		},
	}
}

// waitIdle blocks until the synchronizer's in-flight guard is released, so a
// following fake-clock advance cannot land on a tick that would be dropped.
func waitIdle(t *testing.T, s *Synchronizer) {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for s.inFlight.Load() {
		select {
		case <-deadline:
			t.Fatal("in-flight guard never released")
		default:
			time.Sleep(time.Millisecond)
		}
	}
}

func waitFor(t *testing.T, ch <-chan string, want string) {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		select {
		case got := <-ch:
			if got == want {
				return
			}
		case <-deadline:
			t.Fatalf("timed out waiting for %q call", want)
		}
	}
}

func TestRun_AppliesSnapshotsAndStopsOnFinished(t *testing.T) {
	clk := clockwork.NewFakeClock()
	api := newFakeAPI(&match.SessionSnapshot{Status: match.StatusWaiting})
	sess := session.New("abcd", creds, clk)
	s := New(api, sess)

	applied := make(chan *match.SessionSnapshot, 8)
	s.OnSnapshot = func(snap *match.SessionSnapshot) { applied <- snap }

	done := make(chan error, 1)
	go func() { done <- s.Run(context.Background()) }()

	// Immediate initial fetch, before any tick.
	select {
	case snap := <-applied:
		if snap.Status != match.StatusWaiting {
			t.Errorf("initial status = %s, want waiting", snap.Status)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("initial snapshot never applied")
	}

	waitIdle(t, s)
	clk.BlockUntil(1)
	api.setSnapshot(&match.SessionSnapshot{Status: match.StatusFinished})
	clk.Advance(DefaultPollInterval)

	select {
	case snap := <-applied:
		if snap.Status != match.StatusFinished {
			t.Errorf("status = %s, want finished", snap.Status)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("finished snapshot never applied")
	}

	// Next tick observes the terminal phase and stops the loop.
	clk.BlockUntil(1)
	clk.Advance(DefaultPollInterval)
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Run returned %v, want nil", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("poll loop did not stop after finished")
	}
}

func TestRun_SwallowsTransientErrors(t *testing.T) {
	clk := clockwork.NewFakeClock()
	api := newFakeAPI(&match.SessionSnapshot{Status: match.StatusWaiting})
	api.setErr(errors.New("boom"))
	sess := session.New("abcd", creds, clk)
	s := New(api, sess)

	applied := make(chan *match.SessionSnapshot, 8)
	s.OnSnapshot = func(snap *match.SessionSnapshot) { applied <- snap }

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	// Several failing ticks must not kill the loop or apply anything.
	waitFor(t, api.started, "get")
	waitIdle(t, s)
	for i := 0; i < 3; i++ {
		clk.BlockUntil(1)
		clk.Advance(DefaultPollInterval)
		waitFor(t, api.started, "get")
		waitIdle(t, s)
	}
	select {
	case <-applied:
		t.Fatal("snapshot applied despite errors")
	default:
	}
	select {
	case err := <-done:
		t.Fatalf("loop died on transient error: %v", err)
	default:
	}

	// Recovery on the next tick.
	api.setErr(nil)
	clk.BlockUntil(1)
	clk.Advance(DefaultPollInterval)
	select {
	case <-applied:
	case <-time.After(2 * time.Second):
		t.Fatal("loop did not recover after errors cleared")
	}
}

func TestPollOnce_DropsTickWhileInFlight(t *testing.T) {
	clk := clockwork.NewFakeClock()
	api := newFakeAPI(&match.SessionSnapshot{Status: match.StatusWaiting})
	api.blockGet = make(chan struct{})
	sess := session.New("abcd", creds, clk)
	s := New(api, sess)

	s.pollOnce(context.Background())
	waitFor(t, api.started, "get")
	// A second tick while the first request is out is dropped, not queued.
	s.pollOnce(context.Background())
	s.pollOnce(context.Background())
	close(api.blockGet)

	deadline := time.After(2 * time.Second)
	for {
		if !s.inFlight.Load() {
			break
		}
		select {
		case <-deadline:
			t.Fatal("in-flight guard never released")
		default:
			time.Sleep(time.Millisecond)
		}
	}
	if get, _, _ := api.counts(); get != 1 {
		t.Errorf("GetGame calls = %d, want 1", get)
	}
}

func TestTick_UserGuessBeatsTimeout(t *testing.T) {
	// The user's guess is in flight when the local turn clock hits zero: the
	// expiry handler must not post a second resolution.
	clk := clockwork.NewFakeClock()
	api := newFakeAPI(playingSnapshot("p1", 0))
	api.blockGuess = make(chan struct{})
	sess := session.New("abcd", creds, clk)
	if !sess.Apply(playingSnapshot("p1", 0)) {
		t.Fatal("seed snapshot rejected")
	}
	s := New(api, sess)

	guessDone := make(chan error, 1)
	go func() { guessDone <- s.Controller().SubmitGuess(context.Background(), "otter") }()
	waitFor(t, api.started, "guess")

	// Turn anchor was armed at 0, so the clock reads expired right now.
	s.tick(context.Background())
	s.tick(context.Background())

	close(api.blockGuess)
	if err := <-guessDone; err != nil {
		t.Fatalf("SubmitGuess: %v", err)
	}
	_, guess, timeout := api.counts()
	if guess != 1 {
		t.Errorf("guess calls = %d, want 1", guess)
	}
	if timeout != 0 {
		t.Errorf("timeout calls = %d, want 0", timeout)
	}
}

func TestTick_TimeoutBeatsUserGuess(t *testing.T) {
	clk := clockwork.NewFakeClock()
	api := newFakeAPI(playingSnapshot("p1", 0))
	api.blockTimeout = make(chan struct{})
	sess := session.New("abcd", creds, clk)
	sess.Apply(playingSnapshot("p1", 0))
	s := New(api, sess)

	tickDone := make(chan struct{})
	go func() {
		s.tick(context.Background())
		close(tickDone)
	}()
	waitFor(t, api.started, "timeout")

	if err := s.Controller().SubmitGuess(context.Background(), "otter"); !errors.Is(err, session.ErrDecisionTaken) {
		t.Errorf("SubmitGuess err = %v, want ErrDecisionTaken", err)
	}
	close(api.blockTimeout)
	<-tickDone

	_, guess, timeout := api.counts()
	if guess != 0 {
		t.Errorf("guess calls = %d, want 0", guess)
	}
	if timeout != 1 {
		t.Errorf("timeout calls = %d, want 1", timeout)
	}
}

func TestTick_OnlyCurrentPlayerReportsTurnExpiry(t *testing.T) {
	clk := clockwork.NewFakeClock()
	api := newFakeAPI(playingSnapshot("p2", 0))
	sess := session.New("abcd", creds, clk)
	// p2's clock expired but we are p1; their client reports it, not ours.
	sess.Apply(&match.SessionSnapshot{
		Status:          match.StatusPlaying,
		CurrentPlayerID: "p2",
		Players: []match.PlayerView{
			{ID: "p1", IsAlive: true, HasWord: true, TimeRemaining: 60},
			{ID: "p2", IsAlive: true, HasWord: true, TimeRemaining: 0},
		},
	})
	s := New(api, sess)
	s.tick(context.Background())
	if _, _, timeout := api.counts(); timeout != 0 {
		t.Errorf("timeout calls = %d, want 0", timeout)
	}
}

func TestTick_WordSelectionExpiryHonorsEvidence(t *testing.T) {
	clk := clockwork.NewFakeClock()
	rem := 0.0
	snap := &match.SessionSnapshot{
		Status: match.StatusWordSelection,
		Players: []match.PlayerView{
			{ID: "p1", IsAlive: true, HasWord: true},
		},
		WordSelectionTimeRemaining: &rem,
	}
	api := newFakeAPI(snap)
	sess := session.New("abcd", creds, clk)
	sess.Apply(snap)
	s := New(api, sess)

	// Snapshot already shows our word on record: expiry must do nothing.
	s.tick(context.Background())
	api.mu.Lock()
	sel := api.selTimeouts
	api.mu.Unlock()
	if sel != 0 {
		t.Errorf("selection timeout calls = %d, want 0", sel)
	}
}

func TestRunCountdown_EmitsTicks(t *testing.T) {
	clk := clockwork.NewFakeClock()
	rem := 10.0
	snap := &match.SessionSnapshot{
		Status:                     match.StatusWordSelection,
		Players:                    []match.PlayerView{{ID: "p1", IsAlive: true}},
		WordSelectionTimeRemaining: &rem,
	}
	api := newFakeAPI(snap)
	sess := session.New("abcd", creds, clk)
	sess.Apply(snap)
	s := New(api, sess)

	ticks := make(chan Tick, 8)
	s.OnTick = func(tk Tick) { ticks <- tk }

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go s.RunCountdown(ctx)

	clk.BlockUntil(1)
	clk.Advance(DefaultTickInterval)

	select {
	case tk := <-ticks:
		if tk.Kind != clock.KindWordSelection {
			t.Errorf("tick kind = %s, want word_selection", tk.Kind)
		}
		if tk.Tier != clock.TierWarning {
			t.Errorf("tick tier = %s, want warning", tk.Tier)
		}
		if tk.Remaining > 10 || tk.Remaining < 9.8 {
			t.Errorf("tick remaining = %v, want just under 10", tk.Remaining)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no tick emitted")
	}
}
