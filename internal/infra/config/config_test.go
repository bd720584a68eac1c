package config

import (
	"testing"
	"time"
)

func TestParseExpiry(t *testing.T) {
	cases := []struct {
		raw  string
		want time.Duration
	}{
		{"15m", 15 * time.Minute},
		{"1h", time.Hour},
		{"168h", 168 * time.Hour},
		{"7d", 7 * 24 * time.Hour},
		{"1.5d", 36 * time.Hour},
		{"30s", 30 * time.Second},
	}

	for _, tc := range cases {
		got, err := ParseExpiry(tc.raw)
		if err != nil {
			t.Fatalf("ParseExpiry(%q) returned error: %v", tc.raw, err)
		}
		if got != tc.want {
			t.Fatalf("ParseExpiry(%q) = %v, want %v", tc.raw, got, tc.want)
		}
	}
}

func TestParseExpiryRejectsGarbage(t *testing.T) {
	for _, raw := range []string{"", "  ", "sevendays", "7dd", "d"} {
		if _, err := ParseExpiry(raw); err == nil {
			t.Fatalf("expected error for %q", raw)
		}
	}
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	if cfg.JWT.AccessTokenTTL != 15*time.Minute {
		t.Fatalf("expected default access ttl 15m, got %v", cfg.JWT.AccessTokenTTL)
	}
	if cfg.JWT.RefreshTokenTTL != 7*24*time.Hour {
		t.Fatalf("expected default refresh ttl 7d, got %v", cfg.JWT.RefreshTokenTTL)
	}
	if cfg.JWT.ResetTokenTTL != time.Hour {
		t.Fatalf("expected default reset ttl 1h, got %v", cfg.JWT.ResetTokenTTL)
	}
	if cfg.Limits.MaxRefreshTokensPerUser != 5 {
		t.Fatalf("expected default refresh cap 5, got %d", cfg.Limits.MaxRefreshTokensPerUser)
	}
	if cfg.Limits.MaxSessionsPerUser != 3 {
		t.Fatalf("expected default session cap 3, got %d", cfg.Limits.MaxSessionsPerUser)
	}
	if cfg.JWT.AccessSecret == cfg.JWT.RefreshSecret || cfg.JWT.RefreshSecret == cfg.JWT.ResetSecret {
		t.Fatalf("expected distinct per-kind secrets by default")
	}
}
