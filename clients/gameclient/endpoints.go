package gameclient

const (
	// DefaultBaseURL points at the public game API.
	DefaultBaseURL = "https://api.lexiduel.io"

	// Paths under /api/games/{code}. The field names in their payloads are
	// part of the server contract and must not drift.
	pathGame                 = "/api/games/%s?player_id=%s"
	pathSetWord              = "/api/games/%s/set-word"
	pathChangeWord           = "/api/games/%s/change-word"
	pathSkipWordChange       = "/api/games/%s/skip-word-change"
	pathGuess                = "/api/games/%s/guess"
	pathTimeout              = "/api/games/%s/timeout"
	pathWordSelectionTimeout = "/api/games/%s/word-selection-timeout"
	pathWordChangeTimeout    = "/api/games/%s/word-change-timeout"
	pathBegin                = "/api/games/%s/begin"
	pathStart                = "/api/games/%s/start"
	pathReplay               = "/api/games/%s/replay"

	jsonHeader      = "Content-Type"
	jsonContentType = "application/json"

	// idempotencyHeader carries a fresh key per action post so a retried
	// submission cannot apply twice server-side.
	idempotencyHeader = "Idempotency-Key"
)
