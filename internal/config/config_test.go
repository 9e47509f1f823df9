package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadRetrievalDefaults(t *testing.T) {
	t.Setenv("CONFIG_FILE", "")
	t.Setenv("TOP_K", "")
	t.Setenv("RRF_RANK_CONSTANT", "")
	t.Setenv("BULK_MAX_WORKERS", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.TopK != 5 {
		t.Fatalf("expected default top_k 5, got %d", cfg.TopK)
	}
	if cfg.RRFRankConstant != 60 {
		t.Fatalf("expected default rrf rank constant 60, got %d", cfg.RRFRankConstant)
	}
	if cfg.BulkMaxWorkers != 4 {
		t.Fatalf("expected default bulk workers 4, got %d", cfg.BulkMaxWorkers)
	}
	if !cfg.BreakerEnabled {
		t.Fatalf("expected breaker enabled by default")
	}
}

func TestLoadParsesEnvOverrides(t *testing.T) {
	t.Setenv("CONFIG_FILE", "")
	t.Setenv("TOP_K", "8")
	t.Setenv("RRF_RANK_CONSTANT", "75")
	t.Setenv("BULK_MAX_WORKERS", "2")
	t.Setenv("BREAKER_OPEN_TIMEOUT", "45s")
	t.Setenv("BREAKER_FAILURE_RATIO", "0.5")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.TopK != 8 {
		t.Fatalf("expected top_k 8, got %d", cfg.TopK)
	}
	if cfg.RRFRankConstant != 75 {
		t.Fatalf("expected rrf rank constant 75, got %d", cfg.RRFRankConstant)
	}
	if cfg.BulkMaxWorkers != 2 {
		t.Fatalf("expected bulk workers 2, got %d", cfg.BulkMaxWorkers)
	}
	if cfg.BreakerOpenTimeout != 45*time.Second {
		t.Fatalf("expected open timeout 45s, got %v", cfg.BreakerOpenTimeout)
	}
	if cfg.BreakerFailureRatio != 0.5 {
		t.Fatalf("expected failure ratio 0.5, got %v", cfg.BreakerFailureRatio)
	}
}

func TestLoadYAMLOverlayThenEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := "top_k: 7\nqdrant_collection: from_file\napi_port: \"9999\"\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	t.Setenv("CONFIG_FILE", path)
	t.Setenv("API_PORT", "7777")
	t.Setenv("TOP_K", "")
	t.Setenv("QDRANT_COLLECTION", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.TopK != 7 {
		t.Fatalf("file value must apply, got top_k %d", cfg.TopK)
	}
	if cfg.QdrantCollection != "from_file" {
		t.Fatalf("file value must apply, got collection %q", cfg.QdrantCollection)
	}
	if cfg.APIPort != "7777" {
		t.Fatalf("env must win over file, got port %q", cfg.APIPort)
	}
}

func TestLoadMissingConfigFileFails(t *testing.T) {
	t.Setenv("CONFIG_FILE", filepath.Join(t.TempDir(), "absent.yaml"))
	if _, err := Load(); err == nil {
		t.Fatalf("expected error for missing config file")
	}
}
