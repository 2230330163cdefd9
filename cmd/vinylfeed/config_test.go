package main

import (
	"reflect"
	"testing"
	"time"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/vinylfeed")

	cfg, err := loadConfig()
	if err != nil {
		t.Fatalf("loadConfig error: %v", err)
	}

	if cfg.Addr != ":8080" {
		t.Fatalf("expected default addr :8080, got %q", cfg.Addr)
	}
	if cfg.DBPingTimeout != 5*time.Second {
		t.Fatalf("expected default ping timeout 5s, got %s", cfg.DBPingTimeout)
	}
	if cfg.DBConnectMaxWait != 30*time.Second {
		t.Fatalf("expected default connect wait 30s, got %s", cfg.DBConnectMaxWait)
	}
	if cfg.LogLevel != "info" || cfg.LogFormat != "json" {
		t.Fatalf("unexpected log defaults: %q / %q", cfg.LogLevel, cfg.LogFormat)
	}
}

func TestLoadConfigDatabaseTimeouts(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/vinylfeed")
	t.Setenv("DB_PING_TIMEOUT", "2s")
	t.Setenv("DB_CONNECT_MAX_WAIT", "1m")

	cfg, err := loadConfig()
	if err != nil {
		t.Fatalf("loadConfig error: %v", err)
	}

	if cfg.DBPingTimeout != 2*time.Second {
		t.Fatalf("expected ping timeout 2s, got %s", cfg.DBPingTimeout)
	}
	if cfg.DBConnectMaxWait != time.Minute {
		t.Fatalf("expected connect wait 1m, got %s", cfg.DBConnectMaxWait)
	}
}

func TestLoadConfigRejectsBadDurations(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/vinylfeed")
	t.Setenv("DB_PING_TIMEOUT", "soon")
	t.Setenv("DB_CONNECT_MAX_WAIT", "-10s")

	cfg, err := loadConfig()
	if err != nil {
		t.Fatalf("loadConfig error: %v", err)
	}

	if cfg.DBPingTimeout != 5*time.Second || cfg.DBConnectMaxWait != 30*time.Second {
		t.Fatalf("expected defaults for bad durations, got %s / %s", cfg.DBPingTimeout, cfg.DBConnectMaxWait)
	}
}

func TestParseAllowedOrigins(t *testing.T) {
	got := parseAllowedOrigins(" http://localhost:5173 ,, https://vinylfeed.app ")
	want := []string{"http://localhost:5173", "https://vinylfeed.app"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
}
