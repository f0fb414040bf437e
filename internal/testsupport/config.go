package testsupport

import (
	"path/filepath"
	"testing"

	"cardbox/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*config.Config)

// NewConfig produces a config seeded with unique temp directories per test.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.WorkingDir = filepath.Join(base, "media")
	cfg.Paths.BackupDir = filepath.Join(base, "backups")
	cfg.Paths.TempDir = filepath.Join(base, "tmp")
	cfg.Paths.DataDir = filepath.Join(base, "data")
	cfg.Paths.LogDir = filepath.Join(base, "logs")

	for _, opt := range opts {
		opt(&cfg)
	}

	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories: %v", err)
	}
	return &cfg
}

// WithBackupParts sets the default part count on the test config.
func WithBackupParts(parts int) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Backup.DefaultParts = parts
	}
}
