package layout

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Phase directory names.
const (
	ReducedDir   = "Phase01_Reduced_Noise"
	SegmentsDir  = "Phase02_Segments"
	SeparatedDir = "Phase03_Separated_Voices"
	EnhancedDir  = "Phase04_Final_Enhancements"
	ConvertedDir = "converted"
	LockFile     = ".vocalprep.lock"

	runKeySuffixLen = 8
)

// Layout holds the phase directories for one processing run. RunKey is
// empty for the flat layout.
type Layout struct {
	Root      string
	RunKey    string
	Reduced   string
	Segments  string
	Separated string
	Enhanced  string
}

// ForRun resolves the phase directories of one run under root. When scoped
// is true the directories sit under root/RunKey(input, runID), so two runs
// never share a hand-off directory, even for inputs with the same base name
// or a repeat of the same file.
func ForRun(root, input, runID string, scoped bool) Layout {
	base, key := root, ""
	if scoped {
		key = RunKey(input, runID)
		base = filepath.Join(root, key)
	}
	return Layout{
		Root:      base,
		RunKey:    key,
		Reduced:   filepath.Join(base, ReducedDir),
		Segments:  filepath.Join(base, SegmentsDir),
		Separated: filepath.Join(base, SeparatedDir),
		Enhanced:  filepath.Join(base, EnhancedDir),
	}
}

// Dirs lists the phase directories in phase order.
func (l Layout) Dirs() []string {
	return []string{l.Reduced, l.Segments, l.Separated, l.Enhanced}
}

// Ensure creates every phase directory. Repeated calls never fail and never
// touch existing contents.
func (l Layout) Ensure() error {
	for _, dir := range l.Dirs() {
		if err := EnsureDir(dir); err != nil {
			return err
		}
	}
	return nil
}

// EnsureDir creates dir and its parents if missing.
func EnsureDir(dir string) error {
	if strings.TrimSpace(dir) == "" {
		return fmt.Errorf("ensure directory: empty path")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("ensure directory %q: %w", dir, err)
	}
	return nil
}

// RunKey names a run directory: the input's base name followed by the first
// eight characters of runID.
func RunKey(input, runID string) string {
	base := strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', 0:
			return '_'
		}
		return r
	}, BaseName(input))
	suffix := strings.ReplaceAll(runID, "-", "")
	if len(suffix) > runKeySuffixLen {
		suffix = suffix[:runKeySuffixLen]
	}
	switch {
	case suffix == "":
		return base
	case base == "":
		return suffix
	}
	return base + "-" + suffix
}

// LockPath returns the batch lock file for an output root.
func LockPath(root string) string {
	return filepath.Join(root, LockFile)
}

// ConvertedPath returns where a non-WAV input is transcoded to. The source
// extension stays in the name so song.mp3 and song.flac never share a target.
func ConvertedPath(inputDir, subdir, source string) string {
	if subdir == "" {
		subdir = ConvertedDir
	}
	return filepath.Join(inputDir, subdir, filepath.Base(source)+".wav")
}
