package layout

import (
	"fmt"
	"path/filepath"
	"strings"
)

const wavExt = ".wav"

// BaseName returns the file name of path without its final extension.
func BaseName(path string) string {
	name := filepath.Base(strings.TrimSpace(path))
	if name == "." || name == string(filepath.Separator) {
		return ""
	}
	return strings.TrimSuffix(name, filepath.Ext(name))
}

// SegmentName returns the file name of segment index (0-based). Visible names
// are 1-based.
func SegmentName(base string, index int) string {
	return fmt.Sprintf("%s_segment_%d%s", base, index+1, wavExt)
}

// StemName returns the file name for one stem of a segment file. The
// segment's .wav extension is dropped so names never carry it twice.
func StemName(segmentFile, stem string) string {
	return fmt.Sprintf("%s_%s%s", trimWAV(filepath.Base(segmentFile)), stem, wavExt)
}

// EnhancedName returns the restoration output name for input.
func EnhancedName(input string) string {
	return BaseName(input) + "_enhanced" + wavExt
}

// FinalName returns the exciter output name for input. A restored file keeps
// its base so "x_enhanced.wav" becomes "x_final.wav".
func FinalName(input string) string {
	base := strings.TrimSuffix(BaseName(input), "_enhanced")
	return base + "_final" + wavExt
}

// IsWAV reports whether path has a .wav suffix in any case.
func IsWAV(path string) bool {
	return strings.EqualFold(filepath.Ext(path), wavExt)
}

func trimWAV(name string) string {
	if IsWAV(name) {
		return name[:len(name)-len(wavExt)]
	}
	return name
}
