package metadata

import (
	"errors"
	"fmt"
	"log/slog"
	"os/exec"

	"mediasort/internal/config"
	"mediasort/internal/logging"
	"mediasort/internal/media/exif"
	"mediasort/internal/services"
	"mediasort/internal/services/exiftool"
)

var errNoExtractor = errors.New("no metadata extractor configured")

// lookPath is swapped in tests.
var lookPath = exec.LookPath

// NewExtractor selects the metadata backend named by the configuration. The
// caller owns the returned extractor and must Close it.
func NewExtractor(cfg *config.Config, logger *slog.Logger) (Extractor, error) {
	backend := cfg.Metadata.Backend
	binary := cfg.ExiftoolBinary()

	if backend == config.BackendAuto {
		if _, err := lookPath(binary); err == nil {
			backend = config.BackendExiftool
		} else {
			backend = config.BackendNative
			logging.NewComponentLogger(logger, "metadata").Info("exiftool not found, using native EXIF reader",
				logging.String("binary", binary))
		}
	}

	switch backend {
	case config.BackendExiftool:
		if _, err := lookPath(binary); err != nil {
			return nil, services.Wrap(services.ErrConfiguration, "metadata", "locate exiftool", binary, err)
		}
		client, err := exiftool.New(binary, exiftool.WithLogger(logger))
		if err != nil {
			return nil, err
		}
		return client, nil
	case config.BackendNative:
		return exif.NewReader(), nil
	default:
		return nil, services.Wrap(services.ErrConfiguration, "metadata", "select backend", fmt.Sprintf("unknown backend %q", backend), nil)
	}
}
