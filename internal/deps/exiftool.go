package deps

import (
	"context"
	"os/exec"
	"strings"
	"time"
)

const versionTimeout = 5 * time.Second

// CheckExiftool resolves the exiftool binary and records its version in
// Detail. A binary that exists but cannot report a version is still
// available; the failure is noted in Detail.
func CheckExiftool(ctx context.Context, binary string, optional bool) Status {
	statuses := CheckBinaries([]Requirement{{
		Name:        "ExifTool",
		Command:     binary,
		Description: "Reads embedded capture dates and camera serials",
		Optional:    optional,
	}})
	status := statuses[0]
	if !status.Available {
		return status
	}

	version, err := exiftoolVersion(ctx, status.Path)
	if err != nil {
		status.Detail = "version check failed: " + err.Error()
		return status
	}
	status.Detail = "version " + version
	return status
}

func exiftoolVersion(ctx context.Context, path string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, versionTimeout)
	defer cancel()
	out, err := exec.CommandContext(ctx, path, "-ver").Output()
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(out)), nil
}
