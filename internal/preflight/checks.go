package preflight

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/sys/unix"

	"mediasort/internal/config"
	"mediasort/internal/deps"
)

// CheckDirectoryAccess verifies that the directory exists and is readable/writable.
func CheckDirectoryAccess(name, path string) Result {
	return checkDirectory(name, path, unix.R_OK|unix.W_OK|unix.X_OK, "read/write ok")
}

// CheckReadableDirectory verifies that the directory exists and can be listed.
func CheckReadableDirectory(name, path string) Result {
	return checkDirectory(name, path, unix.R_OK|unix.X_OK, "read ok")
}

// CheckCreatableDirectory passes when path is a writable directory or when
// its nearest existing ancestor is writable so path can be created later.
func CheckCreatableDirectory(name, path string) Result {
	info, err := os.Stat(path)
	if err == nil {
		if !info.IsDir() {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
		}
		return CheckDirectoryAccess(name, path)
	}
	if !errors.Is(err, os.ErrNotExist) {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}

	ancestor := filepath.Dir(path)
	for {
		info, err := os.Stat(ancestor)
		if err == nil {
			if !info.IsDir() {
				return Result{Name: name, Detail: fmt.Sprintf("%s (error: %s is not a directory)", path, ancestor)}
			}
			break
		}
		parent := filepath.Dir(ancestor)
		if parent == ancestor {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: no existing ancestor)", path)}
		}
		ancestor = parent
	}
	if err := unix.Access(ancestor, unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: cannot create under %s: %v)", path, ancestor, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (will be created)", path)}
}

func checkDirectory(name, path string, mode uint32, ok string) Result {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, mode); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (%s)", path, ok)}
}

// CheckSystemDeps evaluates external tools for the given config. Both
// preflight and the CLI deps command use this list. ExifTool is optional
// unless the exiftool backend is selected explicitly.
func CheckSystemDeps(ctx context.Context, cfg *config.Config) []deps.Status {
	optional := cfg.Metadata.Backend != config.BackendExiftool
	return []deps.Status{deps.CheckExiftool(ctx, cfg.ExiftoolBinary(), optional)}
}
