package config

import (
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Port != "8080" {
		t.Errorf("Port = %q, want 8080", cfg.Port)
	}
	if cfg.LedgerBackend != LedgerMemory {
		t.Errorf("LedgerBackend = %q, want memory", cfg.LedgerBackend)
	}
	if cfg.Trending.TopN != 3 || cfg.Trending.Lookback != 24*time.Hour {
		t.Errorf("Trending = %+v", cfg.Trending)
	}
	if cfg.FeedCacheTTL != 2*time.Minute {
		t.Errorf("FeedCacheTTL = %s, want 2m", cfg.FeedCacheTTL)
	}
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("LEDGER_BACKEND", "redis")
	t.Setenv("TRENDING_TOP_N", "5")
	t.Setenv("TRENDING_LOOKBACK", "6h")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Port != "9090" || cfg.LedgerBackend != LedgerRedis {
		t.Errorf("cfg = %+v", cfg)
	}
	if cfg.Trending.TopN != 5 || cfg.Trending.Lookback != 6*time.Hour {
		t.Errorf("Trending = %+v", cfg.Trending)
	}
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name, key, value string
	}{
		{"unknown ledger", "LEDGER_BACKEND", "sqlite"},
		{"zero top n", "TRENDING_TOP_N", "0"},
		{"bad duration", "FEED_CACHE_TTL", "soon"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)
			if _, err := Load(); err == nil {
				t.Errorf("%s=%s should fail", tt.key, tt.value)
			}
		})
	}
}

func TestLocation(t *testing.T) {
	cfg := &Config{Timezone: "UTC"}
	loc, err := cfg.Location()
	if err != nil || loc != time.UTC {
		t.Errorf("Location() = %v, %v", loc, err)
	}

	cfg.Timezone = "Mars/Olympus"
	if _, err := cfg.Location(); err == nil {
		t.Error("expected error for unknown zone")
	}
}
