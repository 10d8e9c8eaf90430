package config

import (
	"os"
	"path/filepath"
	"testing"

	homedir "github.com/mitchellh/go-homedir"
)

// withHome points go-homedir at a fresh temp directory for the duration
// of the test, so Load/Save never touch the real $HOME. go-homedir
// caches the resolved directory process-wide, so the cache must be
// reset whenever HOME is changed or later tests would keep seeing the
// first test's temp directory.
func withHome(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	old := os.Getenv("HOME")
	os.Setenv("HOME", home)
	homedir.Reset()
	t.Cleanup(func() {
		os.Setenv("HOME", old)
		homedir.Reset()
	})
	return home
}

func TestLoadWithNoFileReturnsDefault(t *testing.T) {
	withHome(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.DefaultTimeoutSeconds != 10 {
		t.Errorf("DefaultTimeoutSeconds: got %d want 10", cfg.DefaultTimeoutSeconds)
	}
	if cfg.LogLevel != "info" {
		t.Errorf("LogLevel: got %q want %q", cfg.LogLevel, "info")
	}
	if cfg.CachePath == "" {
		t.Error("CachePath: got empty, want a derived default path")
	}
}

func TestSaveThenLoadRoundTrip(t *testing.T) {
	withHome(t)

	cfg := Default()
	cfg.DefaultTimeoutSeconds = 30
	cfg.LogLevel = "debug"
	cfg.AddProfile(Profile{Name: "speaker", Address: "00:11:22:33:44:55"})

	if err := cfg.Save(); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got.DefaultTimeoutSeconds != 30 {
		t.Errorf("DefaultTimeoutSeconds: got %d want 30", got.DefaultTimeoutSeconds)
	}
	if got.LogLevel != "debug" {
		t.Errorf("LogLevel: got %q want %q", got.LogLevel, "debug")
	}
	p, ok := got.Profile("speaker")
	if !ok || p.Address != "00:11:22:33:44:55" {
		t.Errorf("Profile(speaker): got %+v, %v", p, ok)
	}
}

func TestSaveCreatesConfigDirectory(t *testing.T) {
	home := withHome(t)

	if err := Default().Save(); err != nil {
		t.Fatalf("Save: %v", err)
	}

	path := filepath.Join(home, DirName, FileName)
	if _, err := os.Stat(path); err != nil {
		t.Errorf("Save: config file not found at %s: %v", path, err)
	}
}

func TestAddProfileReplacesExistingName(t *testing.T) {
	cfg := Default()
	cfg.AddProfile(Profile{Name: "speaker", Address: "aa:aa:aa:aa:aa:aa"})
	cfg.AddProfile(Profile{Name: "speaker", Address: "bb:bb:bb:bb:bb:bb"})

	if len(cfg.Profiles) != 1 {
		t.Fatalf("Profiles: got %d entries, want 1 (replaced, not appended)", len(cfg.Profiles))
	}
	p, ok := cfg.Profile("speaker")
	if !ok || p.Address != "bb:bb:bb:bb:bb:bb" {
		t.Errorf("Profile(speaker): got %+v, want the replaced address", p)
	}
}

func TestProfileLookupMiss(t *testing.T) {
	cfg := Default()
	if _, ok := cfg.Profile("nonexistent"); ok {
		t.Error("Profile(nonexistent): got ok=true, want false")
	}
}
