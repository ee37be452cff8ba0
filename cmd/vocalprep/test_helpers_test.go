package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"vocalprep/internal/config"
	"vocalprep/internal/testsupport"
)

// toolScript stands in for every external tool. It dispatches on its own name
// and writes the files each real tool would produce by copying its input.
const toolScript = `#!/bin/sh
tool=$(basename "$0")
last=""
for a in "$@"; do last="$a"; done
prev=""
case "$tool" in
ffmpeg)
  in=""
  for a in "$@"; do
    if [ "$prev" = "-i" ]; then in="$a"; fi
    prev="$a"
  done
  cp "$in" "$last"
  ;;
demucs)
  model=""; out=""; input=""
  for a in "$@"; do
    case "$prev" in
      -n) model="$a" ;;
      -o) out="$a" ;;
    esac
    if [ "$a" = "-o" ]; then input="$prev"; fi
    prev="$a"
  done
  base=$(basename "$input" .wav)
  mkdir -p "$out/$model/$base"
  cp "$input" "$out/$model/$base/vocals.wav"
  ;;
umx)
  out=""
  for a in "$@"; do
    if [ "$prev" = "--outdir" ]; then out="$a"; fi
    prev="$a"
  done
  mkdir -p "$out/mix"
  cp "$last" "$out/mix/vocals.wav"
  cp "$last" "$out/mix/other.wav"
  ;;
voicefixer)
  in=""; out=""
  for a in "$@"; do
    case "$prev" in
      --infile) in="$a" ;;
      --outfile) out="$a" ;;
    esac
    prev="$a"
  done
  cp "$in" "$out"
  ;;
esac
exit 0
`

var allTools = []string{"ffmpeg", "ffprobe", "demucs", "umx", "voicefixer"}

type cliTestEnv struct {
	cfg        *config.Config
	configPath string
	binDir     string
}

// setupCLITestEnv writes a config under a temp HOME and installs working tool
// stubs at the front of PATH.
func setupCLITestEnv(t *testing.T, opts ...testsupport.ConfigOption) *cliTestEnv {
	t.Helper()

	cfg := testsupport.NewConfig(t, append([]testsupport.ConfigOption{testsupport.WithInputDir()}, opts...)...)
	base := testsupport.BaseDir(cfg)
	t.Setenv("HOME", filepath.Join(base, "home"))
	t.Setenv("VOCALPREP_FFMPEG", "")
	t.Setenv("XDG_STATE_HOME", "")
	t.Setenv("VOCALPREP_NTFY_TOPIC", "")

	binDir := testsupport.StubBinaries(t, filepath.Join(base, "tools"), toolScript, allTools...)
	t.Setenv("PATH", binDir+string(os.PathListSeparator)+os.Getenv("PATH"))
	cfg.FFmpeg.Binary = filepath.Join(binDir, "ffmpeg")
	cfg.FFmpeg.FFprobeBinary = filepath.Join(binDir, "ffprobe")

	configPath := filepath.Join(base, "vocalprep.toml")
	writeTestConfig(t, configPath, cfg)
	return &cliTestEnv{cfg: cfg, configPath: configPath, binDir: binDir}
}

func writeTestConfig(t *testing.T, path string, cfg *config.Config) {
	t.Helper()
	data, err := toml.Marshal(cfg)
	if err != nil {
		t.Fatalf("marshal config: %v", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
}

func runCLI(t *testing.T, args []string, configPath string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	var flags []string
	if configPath != "" {
		flags = append(flags, "--config", configPath)
	}
	cmd.SetArgs(append(flags, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func requireContains(t *testing.T, output, substr string) {
	t.Helper()
	if !strings.Contains(output, substr) {
		t.Fatalf("expected %q to contain %q", output, substr)
	}
}

// findRunDir returns the single run directory created for an input base name.
func findRunDir(t *testing.T, root, base string) string {
	t.Helper()
	matches, err := filepath.Glob(filepath.Join(root, base+"-*"))
	if err != nil {
		t.Fatalf("glob run dirs: %v", err)
	}
	if len(matches) != 1 {
		t.Fatalf("expected one run directory for %s under %s, got %v", base, root, matches)
	}
	return matches[0]
}

func countFiles(t *testing.T, dir, suffix string) int {
	t.Helper()
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("read %s: %v", dir, err)
	}
	count := 0
	for _, entry := range entries {
		if !entry.IsDir() && strings.HasSuffix(entry.Name(), suffix) {
			count++
		}
	}
	return count
}
