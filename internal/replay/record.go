package replay

import "github.com/lexiduel/client/internal/match"

// Record is the minimized projection of a finished match: the fields playback
// needs and nothing else, under one-letter keys. It is the schema the share
// code round-trips losslessly.
type Record struct {
	Theme    string   `json:"t"`
	Players  []Player `json:"p"`
	History  []Event  `json:"h"`
	WinnerID string   `json:"w,omitempty"`
	IsRanked bool     `json:"r,omitempty"`
}

// Player is the minimized player entry. Words are always present here; a
// replay only exists for finished matches, where every word is public.
type Player struct {
	ID        string   `json:"i"`
	Name      string   `json:"n"`
	Word      string   `json:"w,omitempty"`
	IsAI      bool     `json:"a,omitempty"`
	Cosmetics []string `json:"c,omitempty"`
}

// Event kind discriminants, single letters to keep codes short.
const (
	kindGuess      = "g"
	kindWordChange = "c"
	kindForfeit    = "f"
	kindTimeout    = "t"
)

// Event is the minimized history entry.
type Event struct {
	Kind         string             `json:"k"`
	PlayerID     string             `json:"p,omitempty"`
	Word         string             `json:"w,omitempty"`
	Similarities map[string]float64 `json:"s,omitempty"`
	Eliminations []string           `json:"e,omitempty"`
	Penalty      string             `json:"x,omitempty"`
}

// Minimize projects a full match record onto the minimized schema, dropping
// everything playback does not need. The wire writes empty collections as
// present-but-empty arrays; the minimized form has exactly one representation
// for "none", absent, so a code round-trips byte-identically.
func Minimize(rec *match.MatchRecord) *Record {
	out := &Record{
		Theme:    rec.Theme,
		WinnerID: rec.WinnerID,
		IsRanked: rec.IsRanked,
	}
	for _, p := range rec.Players {
		out.Players = append(out.Players, Player{
			ID:        p.ID,
			Name:      p.Name,
			Word:      p.SecretWord,
			IsAI:      p.IsAI,
			Cosmetics: normalizeIDs(p.Cosmetics),
		})
	}
	for _, ev := range rec.History {
		out.History = append(out.History, minimizeEvent(ev))
	}
	return out
}

func minimizeEvent(ev match.HistoryEvent) Event {
	switch ev.Type {
	case match.EventGuess:
		return Event{
			Kind:         kindGuess,
			PlayerID:     ev.GuesserID,
			Word:         ev.Word,
			Similarities: normalizeScores(ev.Similarities),
			Eliminations: normalizeIDs(ev.Eliminations),
		}
	case match.EventWordChange:
		return Event{Kind: kindWordChange, PlayerID: ev.PlayerID}
	case match.EventForfeit:
		return Event{Kind: kindForfeit, PlayerID: ev.PlayerID, Word: ev.Word}
	case match.EventTimeout:
		return Event{Kind: kindTimeout, PlayerID: ev.PlayerID, Penalty: string(ev.Penalty)}
	}
	return Event{}
}

func normalizeIDs(ids []string) []string {
	if len(ids) == 0 {
		return nil
	}
	return ids
}

func normalizeScores(scores map[string]float64) map[string]float64 {
	if len(scores) == 0 {
		return nil
	}
	return scores
}

// Events rehydrates the minimized history back into full tagged events, ready
// for the same round fold the live view runs.
func (r *Record) Events() []match.HistoryEvent {
	out := make([]match.HistoryEvent, 0, len(r.History))
	for _, ev := range r.History {
		out = append(out, rehydrateEvent(ev))
	}
	return out
}

func rehydrateEvent(ev Event) match.HistoryEvent {
	switch ev.Kind {
	case kindGuess:
		return match.HistoryEvent{
			Type:         match.EventGuess,
			GuesserID:    ev.PlayerID,
			Word:         ev.Word,
			Similarities: ev.Similarities,
			Eliminations: ev.Eliminations,
		}
	case kindWordChange:
		return match.HistoryEvent{Type: match.EventWordChange, PlayerID: ev.PlayerID}
	case kindForfeit:
		return match.HistoryEvent{Type: match.EventForfeit, PlayerID: ev.PlayerID, Word: ev.Word}
	case kindTimeout:
		return match.HistoryEvent{
			Type:     match.EventTimeout,
			PlayerID: ev.PlayerID,
			Penalty:  match.TimeoutPenalty(ev.Penalty),
		}
	}
	return match.HistoryEvent{}
}

// PlayerNames rebuilds the id-to-name lookup the compact schema relies on for
// attaching readable names during playback.
func (r *Record) PlayerNames() map[string]string {
	names := make(map[string]string, len(r.Players))
	for _, p := range r.Players {
		names[p.ID] = p.Name
	}
	return names
}

// RoundAt returns the round number in progress after the history entry at
// index i, using the identical fold the live view uses, so a scrubbed replay
// and the live match can never disagree.
func (r *Record) RoundAt(i int) int {
	return match.RoundNumber(r.Events(), len(r.Players), i)
}
