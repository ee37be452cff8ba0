package tags_test

import (
	"bytes"
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"

	"vocalprep/internal/media/tags"
	"vocalprep/internal/testsupport"
)

func id3Frame(id, text string) []byte {
	var buf bytes.Buffer
	buf.WriteString(id)
	_ = binary.Write(&buf, binary.BigEndian, uint32(len(text)+1))
	buf.Write([]byte{0, 0, 0})
	buf.WriteString(text)
	return buf.Bytes()
}

func writeID3(t *testing.T, path string) {
	t.Helper()
	frames := append(id3Frame("TIT2", "Morning Take"), id3Frame("TPE1", "The Singers")...)
	var buf bytes.Buffer
	buf.WriteString("ID3")
	buf.Write([]byte{3, 0, 0, 0, 0, 0, byte(len(frames))})
	buf.Write(frames)
	buf.Write(bytes.Repeat([]byte{0xff, 0xfb, 0x90, 0x00}, 64))
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		t.Fatalf("write id3 fixture: %v", err)
	}
}

func TestReadID3Tags(t *testing.T) {
	path := filepath.Join(t.TempDir(), "take.mp3")
	writeID3(t, path)

	info, err := tags.Read(path)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if info.Title != "Morning Take" || info.Artist != "The Singers" {
		t.Fatalf("unexpected tags %+v", info)
	}
	if info.Label() != "The Singers - Morning Take" {
		t.Fatalf("unexpected label %q", info.Label())
	}
	if info.Empty() {
		t.Fatal("expected non-empty info")
	}
}

func TestReadUntaggedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "plain.ogg")
	testsupport.WriteFile(t, path, 256)
	info, err := tags.Read(path)
	if err != nil {
		t.Fatalf("expected no error for untagged file, got %v", err)
	}
	if !info.Empty() || info.Label() != "" {
		t.Fatalf("expected empty info, got %+v", info)
	}
}

func TestReadMissingFile(t *testing.T) {
	if _, err := tags.Read(filepath.Join(t.TempDir(), "missing.mp3")); err == nil {
		t.Fatal("expected error for missing file")
	}
}
