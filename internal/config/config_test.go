package config

import (
	"testing"
	"time"

	log "github.com/sirupsen/logrus"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.DataFile != "kabraji_data.json" {
		t.Fatalf("expected default data file, got %q", cfg.DataFile)
	}
	if cfg.LowStockThreshold != 10 || cfg.TopProducts != 10 {
		t.Fatalf("expected report defaults of 10, got %d/%d", cfg.LowStockThreshold, cfg.TopProducts)
	}
	if cfg.ReportCacheTTL != time.Minute {
		t.Fatalf("expected 60s cache ttl, got %s", cfg.ReportCacheTTL)
	}
	if !cfg.SeedDefaults {
		t.Fatalf("expected seeding to be on by default")
	}
	if cfg.Address() != ":8080" {
		t.Fatalf("unexpected address %q", cfg.Address())
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("KABRAJI_PORT", "9090")
	t.Setenv("KABRAJI_SEED_DEFAULTS", "false")
	t.Setenv("KABRAJI_REPORT_CACHE_TTL", "5m")
	t.Setenv("KABRAJI_LOG_FORMAT", "json")
	t.Setenv("KABRAJI_LOG_LEVEL", "debug")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Address() != ":9090" || cfg.SeedDefaults || cfg.ReportCacheTTL != 5*time.Minute {
		t.Fatalf("overrides not applied: %+v", cfg)
	}

	logger := cfg.NewLogger()
	if logger.GetLevel() != log.DebugLevel {
		t.Fatalf("expected debug level, got %s", logger.GetLevel())
	}
	if _, ok := logger.Formatter.(*log.JSONFormatter); !ok {
		t.Fatalf("expected json formatter, got %T", logger.Formatter)
	}
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	cases := []struct{ key, value string }{
		{"KABRAJI_TOP_PRODUCTS", "0"},
		{"KABRAJI_LOW_STOCK_THRESHOLD", "-1"},
		{"KABRAJI_LOW_STOCK_THRESHOLD", "0"},
		{"KABRAJI_LOG_FORMAT", "xml"},
		{"KABRAJI_LOG_LEVEL", "loud"},
		{"KABRAJI_RATE_LIMIT", "nope"},
	}
	for _, tc := range cases {
		t.Run(tc.key+"="+tc.value, func(t *testing.T) {
			t.Setenv(tc.key, tc.value)
			if _, err := Load(); err == nil {
				t.Fatalf("expected %s=%s to be rejected", tc.key, tc.value)
			}
		})
	}
}
