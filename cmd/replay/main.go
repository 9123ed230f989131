// Command replay turns a finished match into a shareable code and back.
//
//	replay -fetch <match code>   fetch the record, print the share code
//	replay -decode <share code>  print the recorded match
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/lexiduel/client/clients/gameclient"
	"github.com/lexiduel/client/internal/config"
	"github.com/lexiduel/client/internal/match"
	"github.com/lexiduel/client/internal/replay"
	"github.com/lexiduel/client/internal/store"
)

func main() {
	fetch := flag.String("fetch", "", "match code to fetch and encode")
	decode := flag.String("decode", "", "share code to decode and print")
	list := flag.Bool("list", false, "list saved share codes")
	flag.Parse()

	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	cfg, err := config.Load("")
	if err != nil {
		log.Fatal().Err(err).Msg("load config")
	}

	switch {
	case *fetch != "":
		fetchAndEncode(cfg, *fetch)
	case *decode != "":
		decodeAndPrint(*decode)
	case *list:
		listSaved(cfg)
	default:
		flag.Usage()
		os.Exit(2)
	}
}

func fetchAndEncode(cfg config.Config, code string) {
	if err := godotenv.Load(); err != nil {
		log.Debug().Err(err).Msg("no .env file loaded")
	}
	api := gameclient.NewGameClient(cfg.BaseURL)
	rec, err := api.GetReplay(context.Background(), code)
	if err != nil {
		log.Fatal().Err(err).Str("code", code).Msg("fetch replay record")
	}
	shareCode, err := replay.Encode(rec)
	if err != nil {
		log.Fatal().Err(err).Msg("encode replay")
	}
	if err := store.New(cfg.DataDir).SaveReplay(shareCode, rec.Theme); err != nil {
		log.Warn().Err(err).Msg("save replay code")
	}
	fmt.Printf("/replay/%s\n", shareCode)
}

func decodeAndPrint(code string) {
	code = strings.TrimPrefix(strings.TrimSpace(code), "/replay/")
	rec, err := replay.Decode(code)
	if err != nil {
		log.Fatal().Err(err).Msg("bad share code")
	}

	fmt.Printf("theme: %s", rec.Theme)
	if rec.IsRanked {
		fmt.Print("  (ranked)")
	}
	fmt.Println()

	names := rec.PlayerNames()
	for _, p := range rec.Players {
		tag := ""
		if p.IsAI {
			tag = " [ai]"
		}
		fmt.Printf("  %s%s — %s\n", p.Name, tag, p.Word)
	}

	events := rec.Events()
	lastRound := 0
	for i, ev := range events {
		// An entry belongs to the round in progress before it was applied.
		round := rec.RoundAt(i - 1)
		if round != lastRound {
			fmt.Printf("-- round %d --\n", round)
			lastRound = round
		}
		fmt.Printf("  %s\n", describe(ev, names))
	}
	if rec.WinnerID != "" {
		fmt.Printf("winner: %s\n", names[rec.WinnerID])
	}
}

func describe(ev match.HistoryEvent, names map[string]string) string {
	switch ev.Type {
	case match.EventGuess:
		s := fmt.Sprintf("%s guessed %q", names[ev.GuesserID], ev.Word)
		if len(ev.Eliminations) > 0 {
			elim := make([]string, len(ev.Eliminations))
			for i, id := range ev.Eliminations {
				elim[i] = names[id]
			}
			s += " eliminating " + strings.Join(elim, ", ")
		}
		return s
	case match.EventWordChange:
		return fmt.Sprintf("%s changed their word", names[ev.PlayerID])
	case match.EventForfeit:
		return fmt.Sprintf("%s forfeited", names[ev.PlayerID])
	case match.EventTimeout:
		return fmt.Sprintf("%s timed out (%s)", names[ev.PlayerID], ev.Penalty)
	}
	return "unknown event"
}

func listSaved(cfg config.Config) {
	replays, err := store.New(cfg.DataDir).Replays()
	if err != nil {
		log.Fatal().Err(err).Msg("read saved replays")
	}
	for _, r := range replays {
		fmt.Printf("%s  %s  /replay/%s\n", r.SavedAt.Format("2006-01-02"), r.Label, r.Code)
	}
}
