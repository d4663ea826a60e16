package preflight

import (
	"golang.org/x/sys/unix"

	"mediasort/internal/config"
	"mediasort/internal/deps"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// RunAll executes the environment checks that matter before a sorting run:
// readable source tree, writable destination, and the exiftool binary
// (optional; its absence only disables metadata-based date resolution).
func RunAll(cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}

	results := []Result{
		CheckDirectoryAccess("Source directory", cfg.Paths.SourceDir, unix.R_OK|unix.X_OK),
		CheckDirectoryAccess("Destination directory", cfg.Paths.DestDir, unix.R_OK|unix.W_OK|unix.X_OK),
	}

	statuses := deps.CheckBinaries([]deps.Requirement{{
		Name:        "exiftool",
		Command:     cfg.Exiftool.Binary,
		Description: "Capture-date extraction from media metadata",
		Optional:    true,
	}})
	for _, status := range statuses {
		detail := "available"
		if !status.Available {
			detail = status.Detail + " (filename date matching only)"
		}
		results = append(results, Result{
			Name:   status.Name,
			Passed: status.Available || status.Optional,
			Detail: detail,
		})
	}

	return results
}
