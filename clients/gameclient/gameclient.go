// Package gameclient is the typed client for the match REST API. Every call
// that returns a snapshot returns the full authoritative state; callers
// replace what they hold wholesale rather than merging.
package gameclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/url"

	"github.com/google/uuid"

	"github.com/lexiduel/client/clients"
	"github.com/lexiduel/client/internal/match"
)

type GameClient struct {
	*clients.BaseClient
}

func NewGameClient(baseURL string) *GameClient {
	client := &GameClient{
		BaseClient: clients.NewBaseClient(baseURL),
	}
	client.SetHeader(jsonHeader, jsonContentType)
	return client
}

// Credentials identify the acting player on every action post.
type Credentials struct {
	PlayerID     string `json:"player_id"`
	SessionToken string `json:"session_token"`
}

// GetGame fetches the current snapshot for a match.
func (c *GameClient) GetGame(ctx context.Context, code, playerID string) (*match.SessionSnapshot, error) {
	body, err := c.Get(ctx, fmt.Sprintf(pathGame, url.PathEscape(code), url.QueryEscape(playerID)))
	if err != nil {
		return nil, fmt.Errorf("get game %s: %w", code, err)
	}
	return decodeSnapshot(body)
}

// GetReplay fetches the full record of a finished match, the encode input of
// the replay codec.
func (c *GameClient) GetReplay(ctx context.Context, code string) (*match.MatchRecord, error) {
	body, err := c.Get(ctx, fmt.Sprintf(pathReplay, url.PathEscape(code)))
	if err != nil {
		return nil, fmt.Errorf("get replay %s: %w", code, err)
	}
	var rec match.MatchRecord
	if err := json.Unmarshal(body, &rec); err != nil {
		return nil, fmt.Errorf("parse replay %s: %w", code, err)
	}
	return &rec, nil
}

// SetWord locks the player's initial secret word.
func (c *GameClient) SetWord(ctx context.Context, code string, creds Credentials, word string) (*match.SessionSnapshot, error) {
	return c.action(ctx, pathSetWord, code, struct {
		Credentials
		SecretWord string `json:"secret_word"`
	}{creds, word})
}

// ChangeWord swaps the player's word after an elimination revealed it.
func (c *GameClient) ChangeWord(ctx context.Context, code string, creds Credentials, word string) (*match.SessionSnapshot, error) {
	return c.action(ctx, pathChangeWord, code, struct {
		Credentials
		NewWord string `json:"new_word"`
	}{creds, word})
}

// SkipWordChange declines the word-change window.
func (c *GameClient) SkipWordChange(ctx context.Context, code string, creds Credentials) (*match.SessionSnapshot, error) {
	return c.action(ctx, pathSkipWordChange, code, creds)
}

// Guess submits the player's guess for the current turn.
func (c *GameClient) Guess(ctx context.Context, code string, creds Credentials, word string) (*match.SessionSnapshot, error) {
	return c.action(ctx, pathGuess, code, struct {
		Credentials
		Word string `json:"word"`
	}{creds, word})
}

// Timeout reports the current turn's clock reached zero locally.
func (c *GameClient) Timeout(ctx context.Context, code string, creds Credentials) (*match.SessionSnapshot, error) {
	return c.action(ctx, pathTimeout, code, creds)
}

// WordSelectionTimeout reports the word-selection clock reached zero.
func (c *GameClient) WordSelectionTimeout(ctx context.Context, code string, creds Credentials) (*match.SessionSnapshot, error) {
	return c.action(ctx, pathWordSelectionTimeout, code, creds)
}

// WordChangeTimeout reports the word-change clock reached zero.
func (c *GameClient) WordChangeTimeout(ctx context.Context, code string, creds Credentials) (*match.SessionSnapshot, error) {
	return c.action(ctx, pathWordChangeTimeout, code, creds)
}

// Begin moves a waiting lobby into word selection.
func (c *GameClient) Begin(ctx context.Context, code string, creds Credentials) (*match.SessionSnapshot, error) {
	return c.action(ctx, pathBegin, code, creds)
}

// Start moves word selection into play once every word is set.
func (c *GameClient) Start(ctx context.Context, code string, creds Credentials) (*match.SessionSnapshot, error) {
	return c.action(ctx, pathStart, code, creds)
}

// action posts a payload and decodes the returned snapshot. Each post carries
// its own idempotency key; the server deduplicates retries of the same intent
// on it.
func (c *GameClient) action(ctx context.Context, path, code string, payload any) (*match.SessionSnapshot, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal action payload: %w", err)
	}
	key := map[string]string{idempotencyHeader: uuid.New().String()}
	body, err := c.Post(ctx, fmt.Sprintf(path, url.PathEscape(code)), bytes.NewReader(raw), key)
	if err != nil {
		return nil, err
	}
	return decodeSnapshot(body)
}

func decodeSnapshot(body []byte) (*match.SessionSnapshot, error) {
	var snap match.SessionSnapshot
	if err := json.Unmarshal(body, &snap); err != nil {
		return nil, fmt.Errorf("parse snapshot: %w", err)
	}
	return &snap, nil
}
