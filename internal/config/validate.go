package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateBackup(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validatePaths() error {
	if strings.TrimSpace(c.Paths.WorkingDir) == "" {
		return errors.New("paths.working_dir must be set")
	}
	if strings.TrimSpace(c.Paths.BackupDir) == "" {
		return errors.New("paths.backup_dir must be set")
	}
	if c.Paths.WorkingDir == c.Paths.BackupDir {
		return errors.New("paths.backup_dir must not equal paths.working_dir")
	}
	return nil
}

func (c *Config) validateBackup() error {
	if c.Backup.DefaultParts < 1 || c.Backup.DefaultParts > 99 {
		return fmt.Errorf("backup.default_parts must be between 1 and 99, got %d", c.Backup.DefaultParts)
	}
	if c.Backup.FreeSpaceMarginMiB < 0 {
		return errors.New("backup.free_space_margin_mib must not be negative")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format must be console or json, got %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level must be debug, info, warn, or error, got %q", c.Logging.Level)
	}
	return nil
}
