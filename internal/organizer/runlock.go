package organizer

import (
	"errors"
	"fmt"

	"github.com/gofrs/flock"

	"mediasort/internal/config"
	"mediasort/internal/services"
)

// ErrRunLocked reports that another invocation is writing to the same output root.
var ErrRunLocked = errors.New("another mediasort run holds the output lock")

// RunLock guards an output root across processes.
type RunLock struct {
	path string
	lock *flock.Flock
}

// AcquireRunLock takes the per-output-root lock without blocking. Dry runs
// should not call it.
func AcquireRunLock(cfg *config.Config) (*RunLock, error) {
	if err := cfg.EnsureStateDir(); err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "organize", "prepare state dir", cfg.Paths.StateDir, err)
	}
	path := cfg.RunLockPath()
	lock := flock.New(path)
	ok, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire run lock: %w", err)
	}
	if !ok {
		return nil, services.Wrap(services.ErrTransient, "organize", "acquire run lock", cfg.Paths.OutputDir, ErrRunLocked)
	}
	return &RunLock{path: path, lock: lock}, nil
}

// Path returns the lock file location.
func (l *RunLock) Path() string {
	return l.path
}

// Release unlocks the output root.
func (l *RunLock) Release() error {
	if l == nil || l.lock == nil {
		return nil
	}
	return l.lock.Unlock()
}
