package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()

	if cfg.Env != "dev" || cfg.Port != "8080" {
		t.Fatalf("env/port = %q/%q", cfg.Env, cfg.Port)
	}
	if cfg.AuditBackend != "memory" {
		t.Fatalf("audit backend = %q, want memory", cfg.AuditBackend)
	}
	if cfg.FloorMargin != 1.3 || cfg.ModeBinSize != 5 {
		t.Fatalf("pricing defaults = %v / %v", cfg.FloorMargin, cfg.ModeBinSize)
	}
	if cfg.MinSimilarity != 0.4 || cfg.MaxStorePages != 3 || cfg.RawPriceCap != 10 {
		t.Fatalf("source defaults = %v / %v / %v", cfg.MinSimilarity, cfg.MaxStorePages, cfg.RawPriceCap)
	}
	if cfg.MaxConcurrent != 3 {
		t.Fatalf("max concurrent = %d, want 3", cfg.MaxConcurrent)
	}
	if cfg.PriceSyncEnabled {
		t.Fatalf("price sync must default off")
	}
	if cfg.SyncInterval != 24*time.Hour || cfg.SyncPageSize != 10 {
		t.Fatalf("sync defaults = %v / %d", cfg.SyncInterval, cfg.SyncPageSize)
	}
	if cfg.KafkaBrokers != nil {
		t.Fatalf("brokers = %v, want none", cfg.KafkaBrokers)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("ENV", "prod")
	t.Setenv("AUDIT_BACKEND", "sqlite")
	t.Setenv("FLOOR_MARGIN", "1.5")
	t.Setenv("PRICE_SYNC_ENABLED", "true")
	t.Setenv("SYNC_INTERVAL", "6h")
	t.Setenv("MAX_CONCURRENT_REQUESTS", "8")
	t.Setenv("KAFKA_BROKERS", "broker1:9092, broker2:9092,")

	cfg := Load()

	if cfg.Env != "prod" || cfg.AuditBackend != "sqlite" {
		t.Fatalf("env/backend = %q/%q", cfg.Env, cfg.AuditBackend)
	}
	if cfg.FloorMargin != 1.5 {
		t.Fatalf("floor margin = %v", cfg.FloorMargin)
	}
	if !cfg.PriceSyncEnabled || cfg.SyncInterval != 6*time.Hour {
		t.Fatalf("sync = %v / %v", cfg.PriceSyncEnabled, cfg.SyncInterval)
	}
	if cfg.MaxConcurrent != 8 {
		t.Fatalf("max concurrent = %d", cfg.MaxConcurrent)
	}
	if len(cfg.KafkaBrokers) != 2 || cfg.KafkaBrokers[0] != "broker1:9092" || cfg.KafkaBrokers[1] != "broker2:9092" {
		t.Fatalf("brokers = %v", cfg.KafkaBrokers)
	}
}

func TestLoadIgnoresMalformedNumbers(t *testing.T) {
	t.Setenv("FLOOR_MARGIN", "not-a-number")
	t.Setenv("SYNC_PAGE_SIZE", "lots")

	cfg := Load()

	if cfg.FloorMargin != 1.3 || cfg.SyncPageSize != 10 {
		t.Fatalf("malformed values must fall back: %v / %d", cfg.FloorMargin, cfg.SyncPageSize)
	}
}
