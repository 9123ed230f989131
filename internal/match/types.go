package match

// Status is the lifecycle phase of a match as reported by the server.
type Status string

const (
	StatusWaiting       Status = "waiting"
	StatusWordSelection Status = "word_selection"
	StatusPlaying       Status = "playing"
	StatusFinished      Status = "finished"
)

// rank orders statuses along the only legal progression. A snapshot whose
// status ranks below the current one is stale and must be discarded.
func (s Status) rank() int {
	switch s {
	case StatusWaiting:
		return 0
	case StatusWordSelection:
		return 1
	case StatusPlaying:
		return 2
	case StatusFinished:
		return 3
	}
	return -1
}

// Before reports whether s is an earlier phase than other.
func (s Status) Before(other Status) bool {
	return s.rank() < other.rank()
}

// TimeControl is the chess-clock configuration of a match: each player's
// initial budget in seconds plus the increment added after acting.
type TimeControl struct {
	InitialTime float64 `json:"initial_time"`
	Increment   float64 `json:"increment"`
}

// PlayerView is one player's row in a snapshot. SecretWord is only populated
// for the requesting player while the match runs, and for everyone once it
// ends.
type PlayerView struct {
	ID            string   `json:"id"`
	Name          string   `json:"name"`
	IsAlive       bool     `json:"is_alive"`
	IsAI          bool     `json:"is_ai"`
	SecretWord    string   `json:"secret_word,omitempty"`
	HasWord       bool     `json:"has_word"`
	CanChangeWord bool     `json:"can_change_word"`
	TimeRemaining float64  `json:"time_remaining"`
	MMR           int      `json:"mmr,omitempty"`
	MMRDelta      int      `json:"mmr_delta,omitempty"`
	Cosmetics     []string `json:"cosmetics,omitempty"`
}

// EventType discriminates HistoryEvent variants.
type EventType string

const (
	EventGuess      EventType = "guess"
	EventWordChange EventType = "word_change"
	EventForfeit    EventType = "forfeit"
	EventTimeout    EventType = "timeout"
)

// TimeoutPenalty is what the server applied when a player's clock expired.
type TimeoutPenalty string

const (
	PenaltySkip      TimeoutPenalty = "skip"
	PenaltyEliminate TimeoutPenalty = "eliminate"
)

// HistoryEvent is one append-only entry in the match log. Which fields are
// populated depends on Type: guesses carry GuesserID, Word, Similarities and
// Eliminations; word changes and forfeits carry PlayerID (forfeits may also
// reveal Word); timeouts carry PlayerID and Penalty. The server assigns the
// order and the client never reorders or mutates past entries.
type HistoryEvent struct {
	Type         EventType          `json:"type"`
	PlayerID     string             `json:"player_id,omitempty"`
	GuesserID    string             `json:"guesser_id,omitempty"`
	Word         string             `json:"word,omitempty"`
	Similarities map[string]float64 `json:"similarities,omitempty"`
	Eliminations []string           `json:"eliminations,omitempty"`
	Penalty      TimeoutPenalty     `json:"penalty,omitempty"`
}

// SessionSnapshot is the server-authoritative view of one match at a point in
// time. It is replaced wholesale on every successful poll or action response,
// never patched field-by-field.
//
// The two *TimeRemaining pointers are nil outside the phase they belong to;
// a nil value must never re-anchor a countdown.
type SessionSnapshot struct {
	Status                     Status         `json:"status"`
	Players                    []PlayerView   `json:"players"`
	History                    []HistoryEvent `json:"history"`
	CurrentPlayerID            string         `json:"current_player_id"`
	TimeControl                TimeControl    `json:"time_control"`
	AllWordsSet                bool           `json:"all_words_set"`
	WordSelectionTimeRemaining *float64       `json:"word_selection_time_remaining,omitempty"`
	WordChangeTimeRemaining    *float64       `json:"word_change_time_remaining,omitempty"`
	WaitingForWordChange       *string        `json:"waiting_for_word_change,omitempty"`
	WinnerID                   string         `json:"winner_id,omitempty"`
	IsRanked                   bool           `json:"is_ranked,omitempty"`
}

// Player returns the view for the given player id.
func (s *SessionSnapshot) Player(id string) (PlayerView, bool) {
	for _, p := range s.Players {
		if p.ID == id {
			return p, true
		}
	}
	return PlayerView{}, false
}

// CurrentPlayer returns the view of the player whose turn it is.
func (s *SessionSnapshot) CurrentPlayer() (PlayerView, bool) {
	return s.Player(s.CurrentPlayerID)
}

// MatchRecord is the full record of a finished match as served by the replay
// endpoint. It is the encode input of the replay codec.
type MatchRecord struct {
	Theme    string         `json:"theme"`
	Players  []PlayerView   `json:"players"`
	History  []HistoryEvent `json:"history"`
	WinnerID string         `json:"winner_id,omitempty"`
	IsRanked bool           `json:"is_ranked,omitempty"`
}
