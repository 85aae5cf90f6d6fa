package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultConfigValid(t *testing.T) {
	if err := DefaultConfig().Validate(); err != nil {
		t.Fatalf("defaults invalid: %v", err)
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "monolith.yaml"))
	if !os.IsNotExist(err) {
		t.Fatalf("err = %v, want raw not-exist for caller fallback", err)
	}
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "monolith.yaml")
	content := "data_dir: /data/run42\nsnapshot:\n  compression: snappy\nlogging:\n  level: debug\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.DataDir != "/data/run42" {
		t.Errorf("DataDir = %q", cfg.DataDir)
	}
	if cfg.Snapshot.Compression != "snappy" {
		t.Errorf("Compression = %q", cfg.Snapshot.Compression)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("Level = %q", cfg.Logging.Level)
	}
	// Untouched fields keep defaults.
	if cfg.PresetsCSV != "PRESETS.CSV" {
		t.Errorf("PresetsCSV = %q", cfg.PresetsCSV)
	}
}

func TestLoadRejectsBadValues(t *testing.T) {
	path := filepath.Join(t.TempDir(), "monolith.yaml")
	if err := os.WriteFile(path, []byte("snapshot:\n  compression: brotli\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Fatal("unknown compression accepted")
	}
}

func TestResolvePath(t *testing.T) {
	cfg := DefaultConfig()
	cfg.DataDir = "/data"
	if got := cfg.ResolvePath("CONFIG.CSV"); got != "/data/CONFIG.CSV" {
		t.Errorf("ResolvePath relative = %q", got)
	}
	if got := cfg.ResolvePath("/etc/CONFIG.CSV"); got != "/etc/CONFIG.CSV" {
		t.Errorf("ResolvePath absolute = %q", got)
	}
}
