package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"cardbox/internal/config"
)

func TestLoadDefaultConfigExpandsPaths(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if resolved == "" {
		t.Fatal("expected resolved path")
	}
	if exists {
		t.Fatal("expected config file to be absent in temp HOME")
	}

	wantWorking := filepath.Join(tempHome, "cardbox")
	if cfg.Paths.WorkingDir != wantWorking {
		t.Fatalf("unexpected working dir: got %q want %q", cfg.Paths.WorkingDir, wantWorking)
	}
	if cfg.Paths.DataDir != filepath.Join(tempHome, ".local", "share", "cardbox") {
		t.Fatalf("unexpected data dir: %q", cfg.Paths.DataDir)
	}
	if cfg.Backup.DefaultParts != 1 {
		t.Fatalf("unexpected default parts: %d", cfg.Backup.DefaultParts)
	}
	if cfg.Logging.Format != "console" || cfg.Logging.Level != "info" {
		t.Fatalf("unexpected logging defaults: %q/%q", cfg.Logging.Format, cfg.Logging.Level)
	}
	if cfg.DatabasePath() != filepath.Join(cfg.Paths.DataDir, "catalog.db") {
		t.Fatalf("unexpected database path: %q", cfg.DatabasePath())
	}

	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories failed: %v", err)
	}
	for _, dir := range []string{cfg.Paths.DataDir, cfg.Paths.TempDir, cfg.Paths.LogDir, cfg.Paths.BackupDir, cfg.Paths.WorkingDir} {
		info, err := os.Stat(dir)
		if err != nil {
			t.Fatalf("expected directory %q to exist: %v", dir, err)
		}
		if !info.IsDir() {
			t.Fatalf("expected %q to be directory", dir)
		}
	}
}

func TestLoadCustomPath(t *testing.T) {
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "cardbox.toml")

	type payload struct {
		Paths struct {
			WorkingDir string `toml:"working_dir"`
			BackupDir  string `toml:"backup_dir"`
		} `toml:"paths"`
		Backup struct {
			DefaultParts int `toml:"default_parts"`
		} `toml:"backup"`
		Logging struct {
			Format string `toml:"format"`
		} `toml:"logging"`
	}
	custom := payload{}
	custom.Paths.WorkingDir = filepath.Join(tempDir, "media")
	custom.Paths.BackupDir = filepath.Join(tempDir, "backups")
	custom.Backup.DefaultParts = 4
	custom.Logging.Format = "json"

	encoded, err := toml.Marshal(custom)
	if err != nil {
		t.Fatalf("marshal custom config: %v", err)
	}
	if err := os.WriteFile(configPath, encoded, 0o644); err != nil {
		t.Fatalf("write custom config: %v", err)
	}

	cfg, resolved, exists, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists {
		t.Fatal("expected config file to be detected")
	}
	if resolved != configPath {
		t.Fatalf("unexpected resolved path: %q", resolved)
	}
	if cfg.Paths.WorkingDir != custom.Paths.WorkingDir {
		t.Fatalf("unexpected working dir: %q", cfg.Paths.WorkingDir)
	}
	if cfg.Backup.DefaultParts != 4 {
		t.Fatalf("unexpected parts: %d", cfg.Backup.DefaultParts)
	}
	if cfg.Logging.Format != "json" {
		t.Fatalf("unexpected log format: %q", cfg.Logging.Format)
	}
	// Unset fields still carry defaults.
	if cfg.Logging.Level != "info" {
		t.Fatalf("unexpected log level: %q", cfg.Logging.Level)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*config.Config)
	}{
		{"empty working dir", func(c *config.Config) { c.Paths.WorkingDir = "" }},
		{"backup equals working", func(c *config.Config) { c.Paths.BackupDir = c.Paths.WorkingDir }},
		{"parts too large", func(c *config.Config) { c.Backup.DefaultParts = 100 }},
		{"negative margin", func(c *config.Config) { c.Backup.FreeSpaceMarginMiB = -1 }},
		{"bad format", func(c *config.Config) { c.Logging.Format = "yaml" }},
		{"bad level", func(c *config.Config) { c.Logging.Level = "loud" }},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := config.Default()
			cfg.Paths.WorkingDir = "/tmp/cardbox-media"
			cfg.Paths.BackupDir = "/tmp/cardbox-backups"
			tc.mutate(&cfg)
			if err := cfg.Validate(); err == nil {
				t.Fatal("expected validation error")
			}
		})
	}
}

func TestCreateSampleWritesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	if err := config.CreateSample(path); err != nil {
		t.Fatalf("CreateSample failed: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read sample: %v", err)
	}
	if len(data) == 0 {
		t.Fatal("expected sample config content")
	}
}
