package preflight

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/shirou/gopsutil/v4/disk"
	"golang.org/x/sys/unix"

	"vocalprep/internal/config"
	"vocalprep/internal/deps"
)

const gib = 1 << 30

// CheckDirectoryAccess verifies that the directory exists and is readable/writable.
func CheckDirectoryAccess(name, path string) Result {
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
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", path)}
}

// CheckReadable verifies that path exists and can be listed. The input
// directory is only read, so write access is not required.
func CheckReadable(name, path string) Result {
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
	if err := unix.Access(path, unix.R_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: not readable: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read ok)", path)}
}

// CheckFreeSpace verifies the volume holding path has at least minGiB free.
// Separation writes several full-length stems per model, so a nearly full
// disk fails late and expensively.
func CheckFreeSpace(ctx context.Context, name, path string, minGiB float64) Result {
	checkCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	usage, err := disk.UsageWithContext(checkCtx, path)
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: %v)", path, err)}
	}
	free := float64(usage.Free) / gib
	detail := fmt.Sprintf("%.1f GiB free of %.1f GiB (%.0f%% used)", free, float64(usage.Total)/gib, usage.UsedPercent)
	if free < minGiB {
		return Result{Name: name, Detail: fmt.Sprintf("%s; need %.1f GiB", detail, minGiB)}
	}
	return Result{Name: name, Passed: true, Detail: detail}
}

// CheckSystemDeps evaluates every external tool for the given config.
// Both the batch driver and the doctor command use this to avoid duplicating
// the requirements list.
func CheckSystemDeps(ctx context.Context, cfg *config.Config) []deps.Status {
	statuses := []deps.Status{deps.CheckFFmpeg(cfg.FFmpeg.Binary, cfg.FFmpeg.SearchPaths)}

	ffprobe := deps.Status{
		Name:        "FFprobe",
		Description: "Used by doctor and runs show to inspect inputs",
		Optional:    true,
	}
	if path, err := deps.ResolveFFprobe(cfg.FFmpeg.FFprobeBinary, statuses[0].Command, cfg.FFmpeg.SearchPaths); err == nil {
		ffprobe.Command = path
		ffprobe.Available = true
	} else {
		ffprobe.Command = cfg.FFmpeg.FFprobeBinary
		ffprobe.Detail = err.Error()
	}
	statuses = append(statuses, ffprobe)

	requirements := []deps.Requirement{
		{
			Name:        "demucs",
			Command:     cfg.Separation.Command,
			Description: "Required for noise reduction",
			Optional:    cfg.Pipeline.SkipReduction,
		},
		{
			Name:        "umx",
			Command:     cfg.Voice.Command,
			Description: "Required for voice separation",
		},
	}
	if cfg.Enhance.Restore {
		requirements = append(requirements, deps.Requirement{
			Name:        "voicefixer",
			Command:     cfg.Enhance.Command,
			Description: "Required for restoration",
		})
	}
	return append(statuses, deps.CheckBinaries(requirements)...)
}
