package config

import (
	"fmt"
	"runtime"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeOrganize()
	c.normalizeMetadata()
	c.normalizeLogging()
	c.normalizeBackup()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.InputDir) == "" {
		c.Paths.InputDir = defaultInputDir
	}
	if c.Paths.InputDir, err = expandPath(c.Paths.InputDir); err != nil {
		return fmt.Errorf("paths.input_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.OutputDir) == "" {
		c.Paths.OutputDir = defaultOutputDir
	}
	if c.Paths.OutputDir, err = expandPath(c.Paths.OutputDir); err != nil {
		return fmt.Errorf("paths.output_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.StateDir) == "" {
		c.Paths.StateDir = defaultStateDir
	}
	if c.Paths.StateDir, err = expandPath(c.Paths.StateDir); err != nil {
		return fmt.Errorf("paths.state_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.BackupDir) == "" {
		c.Paths.BackupDir = defaultBackupDir
	}
	if c.Paths.BackupDir, err = expandPath(c.Paths.BackupDir); err != nil {
		return fmt.Errorf("paths.backup_dir: %w", err)
	}
	if c.Metadata.ExiftoolPath != "" && strings.ContainsRune(c.Metadata.ExiftoolPath, '/') {
		if c.Metadata.ExiftoolPath, err = expandPath(c.Metadata.ExiftoolPath); err != nil {
			return fmt.Errorf("metadata.exiftool_path: %w", err)
		}
	}
	if c.Logging.File != "" {
		if c.Logging.File, err = expandPath(c.Logging.File); err != nil {
			return fmt.Errorf("logging.file: %w", err)
		}
	}
	return nil
}

func (c *Config) normalizeOrganize() {
	c.Organize.Mode = Mode(strings.ToLower(strings.TrimSpace(string(c.Organize.Mode))))
	if c.Organize.Mode == "" {
		c.Organize.Mode = defaultMode
	}
	c.Organize.Scheme = Scheme(strings.ToLower(strings.TrimSpace(string(c.Organize.Scheme))))
	if c.Organize.Scheme == "" {
		c.Organize.Scheme = defaultScheme
	}
	if strings.TrimSpace(c.Organize.PrefixPattern) == "" {
		c.Organize.PrefixPattern = defaultPrefixPattern
	}
	c.Organize.PhotoPatterns = normalizePatterns(c.Organize.PhotoPatterns)
	c.Organize.VideoPatterns = normalizePatterns(c.Organize.VideoPatterns)

	if c.Organize.Workers <= 0 {
		c.Organize.Workers = runtime.NumCPU()
	}
	if c.Organize.Workers > maxWorkers {
		c.Organize.Workers = maxWorkers
	}
	if c.Organize.Workers < 1 {
		c.Organize.Workers = 1
	}
}

// normalizePatterns lower-cases globs so matching is case-insensitive and
// drops duplicates while keeping the first occurrence order.
func normalizePatterns(patterns []string) []string {
	seen := make(map[string]struct{}, len(patterns))
	out := make([]string, 0, len(patterns))
	for _, p := range patterns {
		p = strings.ToLower(strings.TrimSpace(p))
		if p == "" {
			continue
		}
		if _, dup := seen[p]; dup {
			continue
		}
		seen[p] = struct{}{}
		out = append(out, p)
	}
	return out
}

func (c *Config) normalizeMetadata() {
	c.Metadata.Backend = Backend(strings.ToLower(strings.TrimSpace(string(c.Metadata.Backend))))
	if c.Metadata.Backend == "" {
		c.Metadata.Backend = defaultBackend
	}
	c.Metadata.ExiftoolPath = strings.TrimSpace(c.Metadata.ExiftoolPath)
}

func (c *Config) normalizeLogging() {
	c.Logging.Level = strings.ToUpper(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	if c.Logging.Level == "WARNING" {
		c.Logging.Level = "WARN"
	}
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Color = strings.ToLower(strings.TrimSpace(c.Logging.Color))
	if c.Logging.Color == "" {
		c.Logging.Color = defaultLogColor
	}
}

func (c *Config) normalizeBackup() {
	if strings.TrimSpace(c.Backup.NamePattern) == "" {
		c.Backup.NamePattern = defaultBackupPattern
	}
}
