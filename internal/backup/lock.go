package backup

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"

	"cardbox/internal/config"
)

// Backup and restore share one lock so only a single archive operation can
// run against the catalog at a time.
const lockFileName = "cardbox-archive.lock"

func acquireOperationLock(cfg *config.Config) (*flock.Flock, error) {
	if err := os.MkdirAll(cfg.Paths.TempDir, 0o755); err != nil {
		return nil, fmt.Errorf("prepare lock directory: %w", err)
	}

	lock := flock.New(filepath.Join(cfg.Paths.TempDir, lockFileName))
	ok, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire archive lock: %w", err)
	}
	if !ok {
		return nil, errors.New("another backup or restore operation is already running")
	}
	return lock, nil
}
