package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Server.Address != ":8080" {
		t.Fatalf("unexpected server address: %s", cfg.Server.Address)
	}
	if cfg.Agent.SettleDelay != 1500*time.Millisecond {
		t.Fatalf("unexpected settle delay: %v", cfg.Agent.SettleDelay)
	}
	if cfg.Store.Backend != "memory" {
		t.Fatalf("unexpected store backend: %s", cfg.Store.Backend)
	}
}

func TestLoadFileAndEnvOverride(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	data := []byte("server:\n  address: \":9090\"\nagent:\n  baseURL: \"http://agent.local\"\n  settleDelay: 2s\nrunner:\n  maxConcurrent: 8\n")
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	t.Setenv("FUNNEL_PROBE_SERVER_ADDRESS", ":7070")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Server.Address != ":7070" {
		t.Fatalf("env override not applied: %s", cfg.Server.Address)
	}
	if cfg.Agent.BaseURL != "http://agent.local" {
		t.Fatalf("yaml value not applied: %s", cfg.Agent.BaseURL)
	}
	if cfg.Agent.SettleDelay != 2*time.Second {
		t.Fatalf("unexpected settle delay: %v", cfg.Agent.SettleDelay)
	}
	if cfg.Runner.MaxConcurrent != 8 {
		t.Fatalf("unexpected max concurrent: %d", cfg.Runner.MaxConcurrent)
	}
}

func TestLoadRejectsInvalidBackend(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("store:\n  backend: mongo\n"), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, err := Load(path); err == nil {
		t.Fatalf("expected error for unknown backend")
	}
}

func TestLoadRejectsValkeyWithoutAddr(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("store:\n  backend: valkey\n"), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, err := Load(path); err == nil {
		t.Fatalf("expected error for missing valkey addr")
	}
}
