package config

import (
	"testing"
	"time"
)

func TestResolveDefaultsSQLite(t *testing.T) {
	cfg := &Config{DBDriver: "sqlite", SQLitePath: "./data/test.db"}
	if err := cfg.ResolveDefaults(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.JobPollInterval != 200*time.Millisecond {
		t.Fatalf("expected poll interval default, got %v", cfg.JobPollInterval)
	}
}

func TestResolveDefaultsPostgresRequiresDSN(t *testing.T) {
	cfg := &Config{DBDriver: "postgres"}
	if err := cfg.ResolveDefaults(); err == nil {
		t.Fatal("expected error for postgres driver without DSN")
	}
}

func TestResolveDefaultsRejectsUnknownDriver(t *testing.T) {
	cfg := &Config{DBDriver: "mongodb"}
	if err := cfg.ResolveDefaults(); err == nil {
		t.Fatal("expected error for unsupported driver")
	}
}

func TestCORSOriginList(t *testing.T) {
	cfg := &Config{CORSOrigins: "http://localhost:3000, http://localhost:3001 ,"}
	got := cfg.CORSOriginList()
	if len(got) != 2 {
		t.Fatalf("expected 2 origins, got %v", got)
	}
	if got[1] != "http://localhost:3001" {
		t.Fatalf("unexpected origin: %s", got[1])
	}
}

func TestNewForTesting(t *testing.T) {
	cfg := NewForTesting()
	if !cfg.IsTesting() {
		t.Fatal("expected testing environment")
	}
	if cfg.GetHTTPAddr() != ":8000" {
		t.Fatalf("unexpected addr: %s", cfg.GetHTTPAddr())
	}
}
