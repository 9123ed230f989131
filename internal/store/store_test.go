package store

import (
	"os"
	"testing"
)

func TestProfile_MintedOnceAndStable(t *testing.T) {
	s := New(t.TempDir())
	p1, err := s.Profile("ada")
	if err != nil {
		t.Fatalf("Profile: %v", err)
	}
	if p1.PlayerID == "" || p1.SessionToken == "" {
		t.Fatalf("minted profile incomplete: %+v", p1)
	}
	p2, err := s.Profile("")
	if err != nil {
		t.Fatalf("Profile reload: %v", err)
	}
	if p2.PlayerID != p1.PlayerID || p2.SessionToken != p1.SessionToken {
		t.Error("profile identity must be stable across loads")
	}
	if p2.Name != "ada" {
		t.Errorf("name = %q, want ada", p2.Name)
	}
}

func TestProfile_Rename(t *testing.T) {
	s := New(t.TempDir())
	if _, err := s.Profile("ada"); err != nil {
		t.Fatal(err)
	}
	p, err := s.Profile("grace")
	if err != nil {
		t.Fatal(err)
	}
	if p.Name != "grace" {
		t.Errorf("name = %q, want grace", p.Name)
	}
}

func TestSaveReplay_Deduplicates(t *testing.T) {
	s := New(t.TempDir())
	if err := s.SaveReplay("code1", "vs bot"); err != nil {
		t.Fatal(err)
	}
	if err := s.SaveReplay("code1", "again"); err != nil {
		t.Fatal(err)
	}
	if err := s.SaveReplay("code2", ""); err != nil {
		t.Fatal(err)
	}
	got, err := s.Replays()
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 {
		t.Fatalf("replays = %d, want 2", len(got))
	}
	if got[0].Code != "code1" || got[0].Label != "vs bot" {
		t.Errorf("first replay = %+v", got[0])
	}
}

func TestSave_ReplacesFileWithoutLeftovers(t *testing.T) {
	dir := t.TempDir()
	s := New(dir)
	if _, err := s.Profile("ada"); err != nil {
		t.Fatal(err)
	}
	// Rewrites go through a temp file and a rename; the directory must end up
	// holding exactly the client file.
	if err := s.SaveReplay("code1", ""); err != nil {
		t.Fatal(err)
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 || entries[0].Name() != fileName {
		names := make([]string, len(entries))
		for i, e := range entries {
			names[i] = e.Name()
		}
		t.Fatalf("data dir = %v, want just %s", names, fileName)
	}
	p, err := s.Profile("")
	if err != nil {
		t.Fatal(err)
	}
	if p.Name != "ada" {
		t.Errorf("profile lost across rewrite: %+v", p)
	}
}
