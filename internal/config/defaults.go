package config

const (
	defaultInputDir      = "."
	defaultOutputDir     = "."
	defaultStateDir      = "~/.local/share/mediasort"
	defaultBackupDir     = "."
	defaultMode          = ModeCopy
	defaultPrefixPattern = "%Y%m%d_%H%M%S"
	defaultScheme        = SchemeChecksum
	defaultBackend       = BackendAuto
	defaultLogLevel      = "INFO"
	defaultLogFormat     = "console"
	defaultLogColor      = "auto"
	defaultBackupPattern = "%Y%m%d_%H%M%S"
	maxWorkers           = 64

	// DefaultSettingsFile is the project-local KEY=VALUE file loaded when present.
	DefaultSettingsFile = ".mediasort.env"
)

var (
	defaultPhotoPatterns = []string{
		"*.jpg", "*.jpeg", "*.png", "*.heic", "*.heif", "*.tif", "*.tiff",
		"*.dng", "*.nef", "*.cr2", "*.cr3", "*.arw", "*.raf", "*.orf", "*.rw2",
	}
	defaultVideoPatterns = []string{
		"*.mov", "*.mp4", "*.m4v", "*.avi", "*.mkv", "*.mts", "*.m2ts", "*.3gp",
	}
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			InputDir:  defaultInputDir,
			OutputDir: defaultOutputDir,
			StateDir:  defaultStateDir,
			BackupDir: defaultBackupDir,
		},
		Organize: Organize{
			Mode:          defaultMode,
			PrefixPattern: defaultPrefixPattern,
			PhotoPatterns: append([]string(nil), defaultPhotoPatterns...),
			VideoPatterns: append([]string(nil), defaultVideoPatterns...),
			Scheme:        defaultScheme,
			Journal:       true,
		},
		Metadata: Metadata{
			Backend: defaultBackend,
		},
		Logging: Logging{
			Level:  defaultLogLevel,
			Format: defaultLogFormat,
			Color:  defaultLogColor,
		},
		Backup: Backup{
			Compress:    true,
			NamePattern: defaultBackupPattern,
		},
	}
}
