//go:build linux

package mpris

import (
	"net/url"
	"os"
	"path/filepath"
)

// coverNames lists common album art filenames in priority order.
var coverNames = []string{
	"cover.jpg", "cover.png", "cover.jpeg",
	"folder.jpg", "folder.png", "folder.jpeg",
	"album.jpg", "album.png", "album.jpeg",
	"front.jpg", "front.png", "front.jpeg",
}

// FindAlbumArt looks for album art next to a local track. The locator may
// be a plain path or a file:// URL; remote locators have no album art.
// Returns the path to the art file, or empty string if not found.
func FindAlbumArt(locator string) string {
	path := locator
	if u, err := url.Parse(locator); err == nil && len(u.Scheme) > 1 {
		if u.Scheme != "file" {
			return ""
		}
		path = u.Path
	}
	if path == "" {
		return ""
	}

	dir := filepath.Dir(path)
	for _, name := range coverNames {
		p := filepath.Join(dir, name)
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}
