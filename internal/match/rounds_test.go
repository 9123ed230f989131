package match

import "testing"

func guess(guesser string, elims ...string) HistoryEvent {
	return HistoryEvent{Type: EventGuess, GuesserID: guesser, Word: "w", Eliminations: elims}
}

// Hand-walked fixture, 3 players p1..p3:
//
//	entry 0: p1 guesses, no eliminations  -> guesses=1, before=3, round stays 1
//	entry 1: p2 guesses, eliminates p2    -> guesses=2, before=3, alive 3->2, round stays 1
//	entry 2: p3 guesses, no eliminations  -> guesses=3, before=2, 3>=2, round -> 2
func TestRoundNumber_HandWalkedFold(t *testing.T) {
	history := []HistoryEvent{
		guess("p1"),
		guess("p2", "p2"),
		guess("p3"),
	}
	want := []int{1, 1, 2}
	for i, w := range want {
		if got := RoundNumber(history, 3, i); got != w {
			t.Errorf("RoundNumber(history, 3, %d) = %d, want %d", i, got, w)
		}
	}
}

func TestRoundNumber_TwoPlayersAlternating(t *testing.T) {
	history := []HistoryEvent{
		guess("p1"),
		guess("p2"),
		guess("p1"),
		guess("p2"),
	}
	want := []int{1, 2, 2, 3}
	for i, w := range want {
		if got := RoundNumber(history, 2, i); got != w {
			t.Errorf("RoundNumber(history, 2, %d) = %d, want %d", i, got, w)
		}
	}
}

func TestRoundNumber_WordChangeDoesNotConsumeSlot(t *testing.T) {
	history := []HistoryEvent{
		guess("p1"),
		{Type: EventWordChange, PlayerID: "p2"},
		guess("p2"),
	}
	// Word change is invisible: after entry 2 only two slots are consumed.
	if got := RoundNumber(history, 2, 2); got != 2 {
		t.Errorf("RoundNumber = %d, want 2", got)
	}
}

func TestRoundNumber_TimeoutConsumesSlot(t *testing.T) {
	history := []HistoryEvent{
		guess("p1"),
		{Type: EventTimeout, PlayerID: "p2", Penalty: PenaltySkip},
	}
	if got := RoundNumber(history, 2, 1); got != 2 {
		t.Errorf("RoundNumber = %d, want 2", got)
	}
}

func TestRoundNumber_TimeoutEliminateShrinksAlive(t *testing.T) {
	history := []HistoryEvent{
		{Type: EventTimeout, PlayerID: "p1", Penalty: PenaltyEliminate},
		guess("p2"),
	}
	// Entry 0: before=3, alive 3->2, guesses=1. Entry 1: before=2, guesses=2 -> round 2.
	if got := RoundNumber(history, 3, 1); got != 2 {
		t.Errorf("RoundNumber = %d, want 2", got)
	}
}

func TestRoundNumber_ForfeitLowersBarWithoutSlot(t *testing.T) {
	history := []HistoryEvent{
		guess("p1"),
		{Type: EventForfeit, PlayerID: "p3"},
		guess("p2"),
	}
	// Forfeit drops alive to 2 without consuming a slot, so entry 2 is the
	// second of two needed slots and closes the round.
	if got := RoundNumber(history, 3, 2); got != 2 {
		t.Errorf("RoundNumber = %d, want 2", got)
	}
}

func TestRoundNumber_EmptyPrefix(t *testing.T) {
	if got := RoundNumber(nil, 4, -1); got != 1 {
		t.Errorf("RoundNumber = %d, want 1", got)
	}
}

func TestStatus_Before(t *testing.T) {
	order := []Status{StatusWaiting, StatusWordSelection, StatusPlaying, StatusFinished}
	for i, lo := range order {
		for j, hi := range order {
			if got, want := lo.Before(hi), i < j; got != want {
				t.Errorf("%s.Before(%s) = %v, want %v", lo, hi, got, want)
			}
		}
	}
}
