package audio

import (
	"path/filepath"
	"strings"

	"github.com/bogem/id3v2/v2"
)

// Tags holds the descriptive metadata shown in the run summary.
type Tags struct {
	Title  string
	Artist string
	Album  string
}

// ReadTags reads ID3v2 tags from filename, falling back to the file name
// (without extension) as the title. Files without a tag are not an error.
func ReadTags(filename string) Tags {
	tag, err := id3v2.Open(filename, id3v2.Options{Parse: true})
	if err == nil {
		defer tag.Close()
		t := Tags{
			Title:  strings.TrimSpace(tag.Title()),
			Artist: strings.TrimSpace(tag.Artist()),
			Album:  strings.TrimSpace(tag.Album()),
		}
		if t.Title != "" {
			return t
		}
	}

	base := filepath.Base(filename)
	return Tags{
		Title: strings.TrimSuffix(base, filepath.Ext(base)),
	}
}

// String formats the tags as "Artist - Title", or just the title.
func (t Tags) String() string {
	if t.Artist == "" {
		return t.Title
	}
	return t.Artist + " - " + t.Title
}
