package preflight

import (
	"context"
	"strings"

	"vocalprep/internal/config"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// RunAll executes the filesystem checks for the given config.
func RunAll(ctx context.Context, cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}

	var results []Result

	// Output directory (always checked)
	results = append(results, CheckDirectoryAccess("Output directory", cfg.Paths.OutputDir))

	// Free space is measured on the output volume where every phase writes.
	if cfg.Preflight.MinFreeGiB > 0 {
		results = append(results, CheckFreeSpace(ctx, "Output free space", cfg.Paths.OutputDir, cfg.Preflight.MinFreeGiB))
	}

	if strings.TrimSpace(cfg.Paths.StateDir) != "" && cfg.Journal.Enabled {
		results = append(results, CheckDirectoryAccess("State directory", cfg.Paths.StateDir))
	}

	return results
}

// Failed returns the subset of results that did not pass.
func Failed(results []Result) []Result {
	var failed []Result
	for _, r := range results {
		if !r.Passed {
			failed = append(failed, r)
		}
	}
	return failed
}
