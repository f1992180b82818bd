package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	t.Parallel()
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Server.URL != "http://localhost:8001" {
		t.Fatalf("Server.URL = %q", cfg.Server.URL)
	}
	if cfg.Server.DebugPointsLimit != 1000 {
		t.Fatalf("DebugPointsLimit = %d", cfg.Server.DebugPointsLimit)
	}
	if cfg.Notify.MaxVisible != 3 || cfg.Notify.ExpirySecs != 4 {
		t.Fatalf("Notify = %+v", cfg.Notify)
	}
}

func TestLoadAppliesDefaultsToPartialConfig(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := []byte("server:\n  url: http://rag.internal:9000\n")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Server.URL != "http://rag.internal:9000" {
		t.Fatalf("Server.URL = %q", cfg.Server.URL)
	}
	if cfg.Server.DebugPointsLimit != 1000 {
		t.Fatalf("DebugPointsLimit = %d, want default", cfg.Server.DebugPointsLimit)
	}
	if cfg.Server.TimeoutSecs != 0 {
		t.Fatalf("TimeoutSecs = %d, want 0 (no deadline)", cfg.Server.TimeoutSecs)
	}
}

func TestSaveRoundTrip(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	in := &AppConfig{
		Server: ServerConfig{URL: "http://x:1", TimeoutSecs: 15, DebugPointsLimit: 10},
		Notify: NotifyConfig{MaxVisible: 5, ExpirySecs: 2},
	}
	if err := Save(path, in); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	out, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if *out != *in {
		t.Fatalf("round trip = %+v, want %+v", out, in)
	}
}
