package deps

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
)

// ErrToolMissing reports that no usable ffmpeg or ffprobe binary could be located.
var ErrToolMissing = errors.New("tool not found")

// FFmpegInstallGuidance is printed when ffmpeg cannot be located.
const FFmpegInstallGuidance = `ffmpeg is required for format conversion and the exciter filter.
Install it with your package manager, for example:
  Debian/Ubuntu: sudo apt install ffmpeg
  Fedora:        sudo dnf install ffmpeg
  macOS:         brew install ffmpeg
  Windows:       winget install ffmpeg
Or point [ffmpeg].binary (or VOCALPREP_FFMPEG) at an existing binary.`

// ResolveFFmpeg locates ffmpeg. A configured path containing a separator is
// used as-is when executable; otherwise the name is looked up on PATH and then
// in each search path in order.
func ResolveFFmpeg(configured string, searchPaths []string) (string, error) {
	return resolveTool(configured, "ffmpeg", searchPaths)
}

// ResolveFFprobe locates ffprobe, preferring the binary that sits next to the
// resolved ffmpeg so both come from the same install.
func ResolveFFprobe(configured, ffmpegPath string, searchPaths []string) (string, error) {
	name := strings.TrimSpace(configured)
	if name == "" || name == "ffprobe" {
		if ffmpegPath != "" && filepath.IsAbs(ffmpegPath) {
			candidate := filepath.Join(filepath.Dir(ffmpegPath), executableName("ffprobe"))
			if info, err := os.Stat(candidate); err == nil && isExecutable(info) {
				return candidate, nil
			}
		}
	}
	return resolveTool(configured, "ffprobe", searchPaths)
}

// CheckFFmpeg reports ffmpeg availability as a dependency status.
func CheckFFmpeg(configured string, searchPaths []string) Status {
	result := Status{
		Name:        "FFmpeg",
		Description: "Required for format conversion and the exciter filter",
	}
	resolved, err := ResolveFFmpeg(configured, searchPaths)
	if err != nil {
		result.Command = strings.TrimSpace(configured)
		result.Detail = err.Error()
		return result
	}
	result.Command = resolved
	result.Available = true
	return result
}

func resolveTool(configured, fallback string, searchPaths []string) (string, error) {
	name := strings.TrimSpace(configured)
	if name == "" {
		name = fallback
	}
	if strings.ContainsRune(name, os.PathSeparator) {
		info, err := os.Stat(name)
		if err != nil || !isExecutable(info) {
			return "", fmt.Errorf("%w: %s is not an executable file", ErrToolMissing, name)
		}
		return name, nil
	}
	if resolved, err := exec.LookPath(name); err == nil {
		return resolved, nil
	}
	for _, dir := range searchPaths {
		dir = strings.TrimSpace(dir)
		if dir == "" {
			continue
		}
		candidate := filepath.Join(dir, executableName(name))
		if info, err := os.Stat(candidate); err == nil && isExecutable(info) {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("%w: binary %q not on PATH or in %s", ErrToolMissing, name, strings.Join(searchPaths, ", "))
}

func executableName(name string) string {
	if runtime.GOOS == "windows" && !strings.HasSuffix(name, ".exe") {
		return name + ".exe"
	}
	return name
}

func isExecutable(info os.FileInfo) bool {
	if info == nil {
		return false
	}
	if info.IsDir() {
		return false
	}
	if runtime.GOOS == "windows" {
		return true
	}
	return info.Mode().Perm()&0o111 != 0
}
