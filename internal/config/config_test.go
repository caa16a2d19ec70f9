package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadParsesKnownFields(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "frog.toml")
	contents := `
trace = true
jit_log = false
heap_initial_threshold = 4096
tier_up_threshold = 10
mod_cache_dir = "/tmp/frogcache"
`
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !cfg.Trace || cfg.JitLog {
		t.Fatalf("unexpected bool fields: %+v", cfg)
	}
	if cfg.HeapInitialThreshold != 4096 || cfg.TierUpThreshold != 10 {
		t.Fatalf("unexpected tunables: %+v", cfg)
	}
	if cfg.ModCacheDir != "/tmp/frogcache" {
		t.Fatalf("unexpected mod cache dir: %q", cfg.ModCacheDir)
	}
}

func TestLoadOptionalMissingFileIsZeroValue(t *testing.T) {
	cfg, err := LoadOptional(filepath.Join(t.TempDir(), "does-not-exist.toml"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg != (Config{}) {
		t.Fatalf("expected zero Config, got %+v", cfg)
	}
}

func TestLoadMissingFileIsError(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "does-not-exist.toml")); err == nil {
		t.Fatalf("expected error for missing file")
	}
}
