package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yml")

	var cfg Config
	cfg.App.Port = 9999
	cfg.Broker.Driver = "nats"
	cfg.Broker.URL = "nats://localhost:4222"
	cfg.Fetch.Enabled = true
	cfg.Fetch.Boards = []Board{{Slug: "acme", Name: "Acme"}}

	if err := SaveAtomic(path, cfg); err != nil {
		t.Fatalf("save: %v", err)
	}

	got, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got.App.Port != 9999 || got.Broker.URL != "nats://localhost:4222" {
		t.Fatalf("round trip lost data: %+v", got)
	}
	if len(got.Fetch.Boards) != 1 || got.Fetch.Boards[0].Slug != "acme" {
		t.Fatalf("boards = %+v", got.Fetch.Boards)
	}
}

func TestSaveAtomicRejectsInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yml")

	var cfg Config
	cfg.Broker.Driver = "carrier-pigeon"
	if err := SaveAtomic(path, cfg); err == nil {
		t.Fatal("invalid config saved")
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Fatal("invalid config left a file behind")
	}
}

func TestSaveAtomicKeepsBackup(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yml")

	var first Config
	first.App.Port = 1111
	if err := SaveAtomic(path, first); err != nil {
		t.Fatal(err)
	}

	var second Config
	second.App.Port = 2222
	if err := SaveAtomic(path, second); err != nil {
		t.Fatal(err)
	}

	got, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if got.App.Port != 2222 {
		t.Fatalf("current config port = %d", got.App.Port)
	}

	bak, err := Load(path + ".bak")
	if err != nil {
		t.Fatalf("backup missing: %v", err)
	}
	if bak.App.Port != 1111 {
		t.Fatalf("backup port = %d", bak.App.Port)
	}
}

func TestEnsureUserConfig(t *testing.T) {
	dataDir := t.TempDir()
	defaultPath := filepath.Join(t.TempDir(), "default.yml")
	if err := os.WriteFile(defaultPath, []byte("app:\n  port: 8080\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	userPath, err := EnsureUserConfig(dataDir, defaultPath)
	if err != nil {
		t.Fatalf("bootstrap: %v", err)
	}
	if _, err := os.Stat(userPath); err != nil {
		t.Fatalf("user config missing: %v", err)
	}

	// second run keeps the existing copy
	if err := os.WriteFile(userPath, []byte("app:\n  port: 1234\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	again, err := EnsureUserConfig(dataDir, defaultPath)
	if err != nil {
		t.Fatal(err)
	}
	got, err := Load(again)
	if err != nil {
		t.Fatal(err)
	}
	if got.App.Port != 1234 {
		t.Fatalf("bootstrap overwrote user config: %+v", got)
	}
}
