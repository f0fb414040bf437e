package config

const (
	defaultWorkingDir         = "~/cardbox"
	defaultBackupDir          = "~/cardbox-backups"
	defaultTempDir            = "~/.local/share/cardbox/tmp"
	defaultDataDir            = "~/.local/share/cardbox"
	defaultLogDir             = "~/.local/share/cardbox/logs"
	defaultLogFormat          = "console"
	defaultLogLevel           = "info"
	defaultBackupParts        = 1
	defaultFreeSpaceMarginMiB = 256
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			WorkingDir: defaultWorkingDir,
			BackupDir:  defaultBackupDir,
			TempDir:    defaultTempDir,
			DataDir:    defaultDataDir,
			LogDir:     defaultLogDir,
		},
		Backup: Backup{
			DefaultParts:       defaultBackupParts,
			FreeSpaceMarginMiB: defaultFreeSpaceMarginMiB,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
