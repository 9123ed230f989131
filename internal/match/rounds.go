package match

// RoundNumber folds the history up to and including uptoIndex and returns the
// round in progress after that entry, starting at 1. The live match view and
// the replay scrubber both call this, so the two surfaces can never disagree
// about the round for the same history prefix.
//
// Guesses and timeouts consume a turn slot; a round completes once the number
// of slots consumed reaches the number of players that were alive when the
// round's last entry was made. Word changes are invisible to round
// accounting. Forfeits shrink the alive count without consuming a slot, which
// matches the server's bookkeeping even though it means a forfeit mid-round
// lowers the bar for the round to complete.
func RoundNumber(history []HistoryEvent, totalPlayers, uptoIndex int) int {
	round := 1
	alive := totalPlayers
	guessesThisRound := 0

	for i, ev := range history {
		if i > uptoIndex {
			break
		}
		switch ev.Type {
		case EventWordChange:
			// does not consume a turn slot
		case EventForfeit:
			alive--
		case EventGuess, EventTimeout:
			guessesThisRound++
			playersBeforeElim := alive
			alive -= eliminationCount(ev)
			if guessesThisRound >= playersBeforeElim {
				round++
				guessesThisRound = 0
			}
		}
	}
	return round
}

// eliminationCount returns how many players the entry removed. Guesses list
// eliminations explicitly; a timeout eliminates exactly its own player when
// the penalty says so.
func eliminationCount(ev HistoryEvent) int {
	switch ev.Type {
	case EventGuess:
		return len(ev.Eliminations)
	case EventTimeout:
		if ev.Penalty == PenaltyEliminate {
			return 1
		}
	}
	return 0
}
