package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateOrganize(); err != nil {
		return err
	}
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateMetadata(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateOrganize() error {
	switch c.Organize.Mode {
	case ModeDry, ModeMove, ModeCopy:
	default:
		return fmt.Errorf("MODE must be one of dry, move, copy; got %q", c.Organize.Mode)
	}
	switch c.Organize.Scheme {
	case SchemeChecksum, SchemeParent:
	default:
		return fmt.Errorf("FILENAME_SCHEME must be checksum or parent; got %q", c.Organize.Scheme)
	}
	if len(c.Organize.PhotoPatterns) == 0 && len(c.Organize.VideoPatterns) == 0 {
		return errors.New("at least one of PHOTO_FILES_PATTERN or VIDEO_FILES_PATTERN must be set")
	}
	for _, p := range append(append([]string(nil), c.Organize.PhotoPatterns...), c.Organize.VideoPatterns...) {
		if _, err := filepath.Match(p, ""); err != nil {
			return fmt.Errorf("invalid file pattern %q: %w", p, err)
		}
	}
	if c.Organize.Workers < 1 || c.Organize.Workers > maxWorkers {
		return fmt.Errorf("WORKERS must be between 1 and %d", maxWorkers)
	}
	return nil
}

func (c *Config) validatePaths() error {
	if isWithin(c.Paths.StateDir, c.Paths.OutputDir) && !underHiddenDir(c.Paths.StateDir, c.Paths.OutputDir) {
		return fmt.Errorf("STATE_DIR %q must not be inside OUTPUT_DIR %q", c.Paths.StateDir, c.Paths.OutputDir)
	}
	return nil
}

func (c *Config) validateMetadata() error {
	switch c.Metadata.Backend {
	case BackendAuto, BackendExiftool, BackendNative:
		return nil
	default:
		return fmt.Errorf("METADATA_BACKEND must be auto, exiftool, or native; got %q", c.Metadata.Backend)
	}
}

func (c *Config) validateLogging() error {
	switch c.Logging.Level {
	case "ALL", "DEBUG", "INFO", "WARN", "ERROR", "OFF":
	default:
		return fmt.Errorf("LOG_LEVEL must be one of ALL, DEBUG, INFO, WARN, ERROR, OFF; got %q", c.Logging.Level)
	}
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("LOG_FORMAT must be console or json; got %q", c.Logging.Format)
	}
	switch c.Logging.Color {
	case "auto", "always", "never":
	default:
		return fmt.Errorf("LOG_COLOR must be auto, always, or never; got %q", c.Logging.Color)
	}
	return nil
}

// isWithin reports whether path equals root or lies beneath it.
func isWithin(path, root string) bool {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return false
	}
	return rel == "." || (rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)))
}

// underHiddenDir reports whether path sits below a dot-directory of root.
// Hidden directories are never scanned or populated by the organizer.
func underHiddenDir(path, root string) bool {
	rel, err := filepath.Rel(root, path)
	if err != nil || rel == "." {
		return false
	}
	first, _, _ := strings.Cut(rel, string(filepath.Separator))
	return strings.HasPrefix(first, ".") && first != ".."
}
