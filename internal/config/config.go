package config

import (
	"crypto/sha1"
	_ "embed"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"

	"mediasort/internal/services"
)

//go:embed sample_config.toml
var sampleConfig string

// Mode selects whether placement mutates the filesystem.
type Mode string

const (
	ModeDry  Mode = "dry"
	ModeMove Mode = "move"
	ModeCopy Mode = "copy"
)

// Scheme selects the destination filename composition.
type Scheme string

const (
	// SchemeChecksum names files <prefix>[-serial]-<short digest>-<stem>.<ext>.
	SchemeChecksum Scheme = "checksum"
	// SchemeParent names files [<parent>-]<prefix>[-serial]-<stem>.<ext>.
	SchemeParent Scheme = "parent"
)

// Backend selects the embedded metadata reader.
type Backend string

const (
	BackendAuto     Backend = "auto"
	BackendExiftool Backend = "exiftool"
	BackendNative   Backend = "native"
)

// Paths contains directory configuration.
type Paths struct {
	InputDir  string `toml:"input_dir"`
	OutputDir string `toml:"output_dir"`
	StateDir  string `toml:"state_dir"`
	BackupDir string `toml:"backup_dir"`
}

// Organize contains the reorganization pipeline settings.
type Organize struct {
	Mode          Mode     `toml:"mode"`
	PrefixPattern string   `toml:"prefix_dt_pattern"`
	PhotoPatterns []string `toml:"photo_files_pattern"`
	VideoPatterns []string `toml:"video_files_pattern"`
	Scheme        Scheme   `toml:"filename_scheme"`
	Workers       int      `toml:"workers"`
	Journal       bool     `toml:"journal"`
}

// Metadata contains embedded metadata extraction settings.
type Metadata struct {
	Backend      Backend `toml:"backend"`
	ExiftoolPath string  `toml:"exiftool_path"`
}

// Logging contains configuration for log output.
type Logging struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
	File   string `toml:"file"`
	Color  string `toml:"color"`
}

// Backup contains archive settings for the backup command.
type Backup struct {
	Compress    bool   `toml:"compress"`
	NamePattern string `toml:"name_pattern"`
}

// Config encapsulates all configuration values for mediasort.
//
// Configuration sections by subsystem:
//   - Paths: input, output, state, and backup directories
//   - Organize: mode, filename scheme, candidate patterns, worker count
//   - Metadata: exiftool or native EXIF extraction
//   - Logging: log level, format, colour, and file sink
//   - Backup: archive compression and naming
type Config struct {
	Paths    Paths    `toml:"paths"`
	Organize Organize `toml:"organize"`
	Metadata Metadata `toml:"metadata"`
	Logging  Logging  `toml:"logging"`
	Backup   Backup   `toml:"backup"`
}

// LoadOptions describes the layers applied on top of repository defaults.
// Later layers win: TOML file, settings file, environment, Options, Overrides.
type LoadOptions struct {
	// ConfigPath is an explicit TOML file; empty searches the default locations.
	ConfigPath string
	// SettingsPath is an explicit KEY=VALUE file; empty loads DefaultSettingsFile
	// from the working directory when present.
	SettingsPath string
	// Options are raw KEY=VALUE strings from the command line.
	Options []string
	// Overrides are keys set by dedicated flags.
	Overrides map[string]string
	// LookupEnv reads environment variables; nil uses os.LookupEnv.
	LookupEnv func(string) (string, bool)
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/mediasort/config.toml")
}

// Load locates, parses, layers, and validates the configuration. The returned
// config has all path fields expanded and must be treated as read-only.
func Load(opts LoadOptions) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(opts.ConfigPath)
	if err != nil {
		return nil, "", false, configError(err)
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, configError(fmt.Errorf("open config: %w", err))
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, configError(fmt.Errorf("parse config: %w", err))
		}
	}

	if err := cfg.applyLayers(opts); err != nil {
		return nil, "", false, configError(err)
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, configError(err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, configError(err)
	}

	return &cfg, resolvedPath, exists, nil
}

func configError(err error) error {
	if errors.Is(err, services.ErrConfiguration) {
		return err
	}
	return fmt.Errorf("%w: %w", services.ErrConfiguration, err)
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("mediasort.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureStateDir creates the state directory holding the journal and run locks.
func (c *Config) EnsureStateDir() error {
	for _, dir := range []string{c.Paths.StateDir, c.LockDir()} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// JournalPath returns the SQLite placement journal location.
func (c *Config) JournalPath() string {
	return filepath.Join(c.Paths.StateDir, "journal.db")
}

// LockDir returns the directory that holds per-output-root run locks.
func (c *Config) LockDir() string {
	return filepath.Join(c.Paths.StateDir, "locks")
}

// RunLockPath returns the lock file guarding the configured output root.
func (c *Config) RunLockPath() string {
	sum := sha1.Sum([]byte(c.Paths.OutputDir))
	return filepath.Join(c.LockDir(), hex.EncodeToString(sum[:8])+".lock")
}

// ExiftoolBinary returns the exiftool executable name or configured path.
func (c *Config) ExiftoolBinary() string {
	if p := strings.TrimSpace(c.Metadata.ExiftoolPath); p != "" {
		return p
	}
	return "exiftool"
}

// IsDryRun reports whether the configured mode leaves the filesystem untouched.
func (c *Config) IsDryRun() bool {
	return c.Organize.Mode == ModeDry
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
