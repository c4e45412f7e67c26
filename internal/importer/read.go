package importer

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/dhowden/tag"

	"github.com/llehouerou/soundwave/internal/catalog"
)

// podcastGenre is the genre podcast publishers tag episodes with.
const podcastGenre = "podcast"

// ReadTrack builds a track from the tags of the file at path. Files without
// readable tags are titled after their file name. The track has no ID.
func ReadTrack(path string) (catalog.Track, error) {
	f, err := os.Open(path)
	if err != nil {
		return catalog.Track{}, errors.Wrap(err, "open")
	}
	defer f.Close()

	locator, err := Locator(path)
	if err != nil {
		return catalog.Track{}, err
	}
	t := catalog.Track{
		Title:       strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)),
		ContentType: catalog.Music,
		MediaURL:    locator,
	}

	m, err := tag.ReadFrom(f)
	if err != nil {
		return t, nil //nolint:nilerr // missing tags are not an import failure
	}

	if title := strings.TrimSpace(m.Title()); title != "" {
		t.Title = title
	}
	genre := strings.TrimSpace(m.Genre())
	if strings.EqualFold(genre, podcastGenre) {
		t.ContentType = catalog.Podcast
		t.PodcastName = firstNonEmpty(m.Album(), m.AlbumArtist(), m.Artist())
	} else {
		t.Artist = firstNonEmpty(m.Artist(), m.AlbumArtist())
		if genre != "" {
			t.Categories = splitGenres(genre)
		}
	}
	return t, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}

// splitGenres splits multi-valued genre tags ("Rock; Pop", "Rock/Pop").
func splitGenres(genre string) []string {
	parts := strings.FieldsFunc(genre, func(r rune) bool {
		return r == ';' || r == '/' || r == ','
	})
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
