// Package tags reads descriptive metadata from source recordings.
package tags

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/dhowden/tag"
)

// Info is the subset of tag metadata recorded with a run.
type Info struct {
	Title    string
	Artist   string
	Album    string
	Year     int
	Format   string
	FileType string
}

// Empty reports whether no descriptive field was found.
func (i Info) Empty() bool {
	return i.Title == "" && i.Artist == "" && i.Album == ""
}

// Label returns "Artist - Title" when both are known, else whichever is.
func (i Info) Label() string {
	switch {
	case i.Artist != "" && i.Title != "":
		return i.Artist + " - " + i.Title
	case i.Title != "":
		return i.Title
	default:
		return i.Artist
	}
}

// Read extracts tags from path. A file without a recognizable tag block
// returns an empty Info and no error.
func Read(path string) (Info, error) {
	file, err := os.Open(path)
	if err != nil {
		return Info{}, fmt.Errorf("open %s: %w", path, err)
	}
	defer file.Close()

	meta, err := tag.ReadFrom(file)
	if err != nil {
		if errors.Is(err, tag.ErrNoTagsFound) {
			return Info{}, nil
		}
		return Info{}, fmt.Errorf("read tags from %s: %w", path, err)
	}
	return Info{
		Title:    clean(meta.Title()),
		Artist:   clean(meta.Artist()),
		Album:    clean(meta.Album()),
		Year:     meta.Year(),
		Format:   string(meta.Format()),
		FileType: string(meta.FileType()),
	}, nil
}

func clean(value string) string {
	return strings.TrimSpace(strings.ReplaceAll(value, "\x00", ""))
}
