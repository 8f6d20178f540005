package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type keySetter func(cfg *Config, value string) error

// keySetters is the allow-list of KEY=VALUE settings. Anything not present is
// rejected when it arrives from the settings file or -o options.
var keySetters = map[string]keySetter{
	"INPUT_DIR":           func(c *Config, v string) error { c.Paths.InputDir = v; return nil },
	"OUTPUT_DIR":          func(c *Config, v string) error { c.Paths.OutputDir = v; return nil },
	"STATE_DIR":           func(c *Config, v string) error { c.Paths.StateDir = v; return nil },
	"BACKUP_DIR":          func(c *Config, v string) error { c.Paths.BackupDir = v; return nil },
	"MODE":                func(c *Config, v string) error { c.Organize.Mode = Mode(strings.ToLower(v)); return nil },
	"PREFIX_DT_PATTERN":   func(c *Config, v string) error { c.Organize.PrefixPattern = v; return nil },
	"PHOTO_FILES_PATTERN": func(c *Config, v string) error { c.Organize.PhotoPatterns = SplitPatterns(v); return nil },
	"VIDEO_FILES_PATTERN": func(c *Config, v string) error { c.Organize.VideoPatterns = SplitPatterns(v); return nil },
	"FILENAME_SCHEME":     func(c *Config, v string) error { c.Organize.Scheme = Scheme(strings.ToLower(v)); return nil },
	"WORKERS": func(c *Config, v string) error {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("WORKERS must be an integer, got %q", v)
		}
		c.Organize.Workers = n
		return nil
	},
	"JOURNAL": func(c *Config, v string) error {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("JOURNAL must be a boolean, got %q", v)
		}
		c.Organize.Journal = b
		return nil
	},
	"METADATA_BACKEND": func(c *Config, v string) error { c.Metadata.Backend = Backend(strings.ToLower(v)); return nil },
	"EXIFTOOL_PATH":    func(c *Config, v string) error { c.Metadata.ExiftoolPath = v; return nil },
	"LOG_LEVEL":        func(c *Config, v string) error { c.Logging.Level = strings.ToUpper(v); return nil },
	"LOG_FORMAT":       func(c *Config, v string) error { c.Logging.Format = strings.ToLower(v); return nil },
	"LOG_FILE":         func(c *Config, v string) error { c.Logging.File = v; return nil },
	"LOG_COLOR":        func(c *Config, v string) error { c.Logging.Color = strings.ToLower(v); return nil },
}

// Keys returns the allow-listed setting names in sorted order.
func Keys() []string {
	keys := make([]string, 0, len(keySetters))
	for k := range keySetters {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// ParseOption splits a raw KEY=VALUE string. Keys are case-sensitive upper case.
func ParseOption(raw string) (string, string, error) {
	key, value, ok := strings.Cut(raw, "=")
	key = strings.TrimSpace(key)
	if !ok || key == "" {
		return "", "", fmt.Errorf("option %q must have the form KEY=VALUE", raw)
	}
	if _, known := keySetters[key]; !known {
		return "", "", fmt.Errorf("unknown option %q", key)
	}
	return key, strings.TrimSpace(value), nil
}

// Set applies one allow-listed key to the config.
func (c *Config) Set(key, value string) error {
	setter, ok := keySetters[key]
	if !ok {
		return fmt.Errorf("unknown option %q", key)
	}
	if err := setter(c, value); err != nil {
		return err
	}
	return nil
}

// SplitPatterns parses a comma or whitespace separated glob list.
func SplitPatterns(raw string) []string {
	fields := strings.FieldsFunc(raw, func(r rune) bool {
		return r == ',' || r == ' ' || r == '\t' || r == '\n'
	})
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		if f = strings.TrimSpace(f); f != "" {
			out = append(out, f)
		}
	}
	return out
}

func (c *Config) applyLayers(opts LoadOptions) error {
	settings, err := readSettings(opts.SettingsPath)
	if err != nil {
		return err
	}
	for _, key := range sortedKeys(settings) {
		if _, ok := keySetters[key]; !ok {
			return fmt.Errorf("settings file: unknown key %q", key)
		}
		if err := c.Set(key, settings[key]); err != nil {
			return fmt.Errorf("settings file: %w", err)
		}
	}

	lookup := opts.LookupEnv
	if lookup == nil {
		lookup = os.LookupEnv
	}
	for _, key := range Keys() {
		if value, ok := lookup(key); ok && strings.TrimSpace(value) != "" {
			if err := c.Set(key, strings.TrimSpace(value)); err != nil {
				return fmt.Errorf("environment: %w", err)
			}
		}
	}

	for _, raw := range opts.Options {
		key, value, err := ParseOption(raw)
		if err != nil {
			return err
		}
		if err := c.Set(key, value); err != nil {
			return err
		}
	}

	for _, key := range sortedKeys(opts.Overrides) {
		if err := c.Set(key, opts.Overrides[key]); err != nil {
			return err
		}
	}
	return nil
}

func readSettings(path string) (map[string]string, error) {
	explicit := path != ""
	if !explicit {
		path = DefaultSettingsFile
	}
	expanded, err := expandPath(path)
	if err != nil {
		return nil, err
	}
	if _, err := os.Stat(expanded); err != nil {
		if errors.Is(err, fs.ErrNotExist) && !explicit {
			return nil, nil
		}
		return nil, fmt.Errorf("settings file %s: %w", filepath.Base(expanded), err)
	}
	values, err := godotenv.Read(expanded)
	if err != nil {
		return nil, fmt.Errorf("parse settings file %s: %w", expanded, err)
	}
	return values, nil
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
