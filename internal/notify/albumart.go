//go:build linux

package notify

import (
	"github.com/llehouerou/soundwave/internal/catalog"
	"github.com/llehouerou/soundwave/internal/mpris"
)

// trackIcon prefers the catalog cover, then an image next to a local media
// file.
func trackIcon(t catalog.Track) string {
	if p := localPath(t.CoverURL); p != "" {
		return p
	}
	if art := mpris.FindAlbumArt(t.MediaURL); art != "" {
		return art
	}
	return fallbackIcon
}
