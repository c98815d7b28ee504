package constants

import "time"

const (
	AppName            = "habitual"
	Version            = "v0.3.0"
	DefaultConfigDir   = "~/.config/habitual"
	DefaultConfigFile  = "config.yaml"
	DefaultDBFile      = "habitual.db"
	DefaultKeyringUser = "api-token"
	PostgresKeyringKey = "database-connection"

	// DateFormat is the standard day-key format used throughout the application (YYYY-MM-DD)
	DateFormat = "2006-01-02"

	// EMAPeriod is the smoothing window of the strength score. Each non-frozen day
	// moves strength 1/EMAPeriod of the way towards that day's completion quality.
	EMAPeriod = 32

	// MaxStrength is the upper bound of strength and completion quality.
	MaxStrength = 100

	// Backup constants
	MaxBackups       = 14
	BackupDirName    = "backups"
	BackupFilePrefix = "habitual-"
	BackupFileSuffix = ".db"

	// Remote constants
	DefaultRemoteTimeout = 30 * time.Second
	DefaultServerAddr    = ":8787"
	APIPrefix            = "/api/v1"
)
