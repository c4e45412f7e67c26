//go:build !linux

package notify

import "github.com/llehouerou/soundwave/internal/catalog"

func trackIcon(t catalog.Track) string {
	if p := localPath(t.CoverURL); p != "" {
		return p
	}
	return fallbackIcon
}
