// Package store is the client's local persistence: the player's identity and
// the replay codes they saved, in one small JSON file under the data dir.
// This is the only state that outlives a match.
package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
)

const fileName = "client.json"

// Profile is the locally persisted player identity.
type Profile struct {
	PlayerID     string `json:"player_id"`
	Name         string `json:"name"`
	SessionToken string `json:"session_token"`
}

// SavedReplay is one share code the player kept.
type SavedReplay struct {
	Code    string    `json:"code"`
	Label   string    `json:"label,omitempty"`
	SavedAt time.Time `json:"saved_at"`
}

type data struct {
	Profile Profile       `json:"profile"`
	Replays []SavedReplay `json:"replays,omitempty"`
}

// Store reads and writes the client file. Methods load and persist the whole
// file; there is no partial update.
type Store struct {
	dir string
}

func New(dir string) *Store {
	return &Store{dir: dir}
}

func (s *Store) path() string {
	return filepath.Join(s.dir, fileName)
}

func (s *Store) load() (data, error) {
	var d data
	raw, err := os.ReadFile(s.path())
	if err != nil {
		if os.IsNotExist(err) {
			return d, nil
		}
		return d, fmt.Errorf("read client file: %w", err)
	}
	if err := json.Unmarshal(raw, &d); err != nil {
		return d, fmt.Errorf("parse client file: %w", err)
	}
	return d, nil
}

func (s *Store) save(d data) error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}
	raw, err := json.MarshalIndent(d, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal client file: %w", err)
	}
	// Write to a sibling temp file and rename over the target, so a crash
	// mid-write never leaves a truncated client file behind.
	tmp, err := os.CreateTemp(s.dir, fileName+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp client file: %w", err)
	}
	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("write client file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("close client file: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path()); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("replace client file: %w", err)
	}
	return nil
}

// Profile returns the stored identity, minting one on first use.
func (s *Store) Profile(name string) (Profile, error) {
	d, err := s.load()
	if err != nil {
		return Profile{}, err
	}
	if d.Profile.PlayerID == "" {
		d.Profile = Profile{
			PlayerID:     uuid.New().String(),
			Name:         name,
			SessionToken: uuid.New().String(),
		}
		if err := s.save(d); err != nil {
			return Profile{}, err
		}
		return d.Profile, nil
	}
	if name != "" && name != d.Profile.Name {
		d.Profile.Name = name
		if err := s.save(d); err != nil {
			return Profile{}, err
		}
	}
	return d.Profile, nil
}

// SaveReplay appends a share code, deduplicating on the code itself.
func (s *Store) SaveReplay(code, label string) error {
	d, err := s.load()
	if err != nil {
		return err
	}
	for _, r := range d.Replays {
		if r.Code == code {
			return nil
		}
	}
	d.Replays = append(d.Replays, SavedReplay{Code: code, Label: label, SavedAt: time.Now().UTC()})
	return s.save(d)
}

// Replays lists the saved share codes, newest last.
func (s *Store) Replays() ([]SavedReplay, error) {
	d, err := s.load()
	if err != nil {
		return nil, err
	}
	return d.Replays, nil
}
