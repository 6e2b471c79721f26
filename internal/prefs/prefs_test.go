package prefs

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadMissingFile(t *testing.T) {
	p, err := Load(filepath.Join(t.TempDir(), "prefs.toml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if p.Theme != "Dracula" {
		t.Errorf("Theme = %q", p.Theme)
	}
	if !p.FollowByDefault {
		t.Error("FollowByDefault should default on")
	}
}

func TestLoadCorruptFileDegradesToDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prefs.toml")
	if err := os.WriteFile(path, []byte("theme = {{"), 0o644); err != nil {
		t.Fatal(err)
	}
	p, err := Load(path)
	if err != nil {
		t.Fatalf("Load should not fail on corrupt prefs: %v", err)
	}
	if p.Theme != "Dracula" {
		t.Errorf("Theme = %q", p.Theme)
	}
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "prefs.toml")
	want := Prefs{Theme: "TokyoNight", FollowByDefault: false, SyncScroll: true}
	if err := Save(path, want); err != nil {
		t.Fatalf("Save: %v", err)
	}
	got, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got != want {
		t.Errorf("round trip = %+v, want %+v", got, want)
	}
}
