package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/lexiduel/client/clients/gameclient"
	"github.com/lexiduel/client/internal/clock"
	"github.com/lexiduel/client/internal/config"
	"github.com/lexiduel/client/internal/match"
	"github.com/lexiduel/client/internal/poll"
	"github.com/lexiduel/client/internal/replay"
	"github.com/lexiduel/client/internal/session"
	"github.com/lexiduel/client/internal/store"
)

func main() {
	code := flag.String("code", "", "match code to join")
	name := flag.String("name", "", "display name (persisted)")
	cfgPath := flag.String("config", "", "optional YAML config file")
	debug := flag.Bool("debug", false, "verbose logging")
	flag.Parse()

	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	if *debug {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}

	if err := godotenv.Load(); err != nil {
		log.Debug().Err(err).Msg("no .env file loaded")
	}

	if *code == "" {
		fmt.Fprintln(os.Stderr, "usage: lexiduel -code <match code> [-name <name>]")
		os.Exit(2)
	}

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		log.Fatal().Err(err).Msg("load config")
	}

	st := store.New(cfg.DataDir)
	profile, err := st.Profile(*name)
	if err != nil {
		log.Fatal().Err(err).Msg("load profile")
	}

	api := gameclient.NewGameClient(cfg.BaseURL)
	api.SetTimeout(cfg.RequestTimeout)

	creds := gameclient.Credentials{PlayerID: profile.PlayerID, SessionToken: profile.SessionToken}
	sess := session.New(*code, creds, clockwork.NewRealClock())
	sync := poll.New(api, sess)
	sync.SetIntervals(cfg.PollInterval, cfg.TickInterval)
	sync.OnSnapshot = printSnapshot(profile.PlayerID)
	sync.OnTick = printTick()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return sync.Run(ctx) })
	g.Go(func() error { return sync.RunCountdown(ctx) })

	// Stdin outlives the loops on purpose: a blocked read must not keep the
	// client alive once the match is over.
	go readCommands(ctx, sync.Controller())

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		log.Fatal().Err(err).Msg("client stopped")
	}
	sess.Close()

	shareReplay(context.Background(), api, st, sess)
}

// readCommands drives user-initiated actions from stdin.
func readCommands(ctx context.Context, ctrl *session.Controller) error {
	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}
		var err error
		switch fields[0] {
		case "word":
			if len(fields) > 1 {
				err = ctrl.SubmitWord(ctx, fields[1])
			}
		case "guess":
			if len(fields) > 1 {
				err = ctrl.SubmitGuess(ctx, fields[1])
			}
		case "change":
			if len(fields) > 1 {
				err = ctrl.SubmitWordChange(ctx, fields[1])
			}
		case "skip":
			err = ctrl.SkipWordChange(ctx)
		case "begin":
			err = ctrl.BeginMatch(ctx)
		case "start":
			err = ctrl.StartMatch(ctx)
		case "quit":
			return nil
		default:
			fmt.Println("commands: word <w> | guess <w> | change <w> | skip | begin | start | quit")
			continue
		}
		switch {
		case errors.Is(err, session.ErrDecisionTaken):
			fmt.Println("(already handled)")
		case err != nil:
			log.Warn().Err(err).Msg("action failed")
		}
	}
	return scanner.Err()
}

func printSnapshot(selfID string) func(*match.SessionSnapshot) {
	return func(snap *match.SessionSnapshot) {
		switch snap.Status {
		case match.StatusPlaying:
			round := match.RoundNumber(snap.History, len(snap.Players), len(snap.History)-1)
			fmt.Printf("\rround %d, turn: %s\n", round, playerName(snap, snap.CurrentPlayerID))
		case match.StatusFinished:
			fmt.Printf("\nwinner: %s\n", playerName(snap, snap.WinnerID))
		}
		if snap.CurrentPlayerID == selfID && snap.Status == match.StatusPlaying {
			fmt.Println("your turn — guess <word>")
		}
	}
}

func printTick() func(poll.Tick) {
	var lastShown float64 = -1
	return func(t poll.Tick) {
		// Repaint only on whole-second boundaries to keep the terminal sane.
		whole := float64(int(t.Remaining))
		if whole == lastShown {
			return
		}
		lastShown = whole
		marker := ""
		if t.Tier == clock.TierCritical {
			marker = " !"
		}
		fmt.Printf("\r[%s] %3.0fs%s ", t.Kind, whole, marker)
	}
}

func playerName(snap *match.SessionSnapshot, id string) string {
	if p, ok := snap.Player(id); ok {
		return p.Name
	}
	return id
}

// shareReplay fetches the finished match record, encodes the share code and
// keeps it locally.
func shareReplay(ctx context.Context, api *gameclient.GameClient, st *store.Store, sess *session.Session) {
	snap := sess.Snapshot()
	if snap == nil || snap.Status != match.StatusFinished {
		return
	}
	rec, err := api.GetReplay(ctx, sess.Code())
	if err != nil {
		log.Warn().Err(err).Msg("fetch replay record")
		return
	}
	shareCode, err := replay.Encode(rec)
	if err != nil {
		log.Warn().Err(err).Msg("encode replay")
		return
	}
	if err := st.SaveReplay(shareCode, rec.Theme); err != nil {
		log.Warn().Err(err).Msg("save replay code")
	}
	fmt.Printf("replay: /replay/%s\n", shareCode)
}
