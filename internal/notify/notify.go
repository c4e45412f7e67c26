// Package notify announces track changes as desktop notifications.
package notify

import (
	"path/filepath"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/rs/zerolog"

	"github.com/llehouerou/soundwave/internal/catalog"
	"github.com/llehouerou/soundwave/internal/playback"
)

var ErrUnsupported = errors.New("notify: no notification server on this platform")

// fallbackIcon is the themed icon name used when a track has no local cover.
const fallbackIcon = "audio-x-generic"

// Announcement is the desktop notification shown for a track.
type Announcement struct {
	TrackID  string
	Summary  string // track title
	Body     string // artist or podcast name, plain text
	Icon     string // local image path or themed icon name
	Replaces uint32 // notification to replace, 0 for a new one
}

// Sender delivers announcements.
type Sender interface {
	// Send shows a and returns the ID the notification server gave it.
	Send(a Announcement) (uint32, error)
}

// Announce builds the announcement for t, replacing the notification with
// ID replaces.
func Announce(t catalog.Track, replaces uint32) Announcement {
	summary := t.Title
	if summary == "" {
		summary = "Unknown Track"
	}
	return Announcement{
		TrackID:  t.ID,
		Summary:  summary,
		Body:     t.Subject(),
		Icon:     trackIcon(t),
		Replaces: replaces,
	}
}

// Watch announces every track change read from sub until the subscription
// ends. Each announcement replaces the previous one.
func Watch(sub *playback.Subscription, s Sender, logger zerolog.Logger) {
	var last uint32
	for {
		select {
		case <-sub.Done:
			return
		case e := <-sub.TrackChanged:
			if e.Current == nil {
				continue
			}
			id, err := s.Send(Announce(*e.Current, last))
			if err != nil {
				logger.Debug().Err(err).Str("track_id", e.Current.ID).Msg("track announcement failed")
				continue
			}
			if id != 0 {
				last = id
			}
		}
	}
}

// localPath returns the filesystem path of a cover locator, or "" for
// remote ones. Notification servers only load local images.
func localPath(locator string) string {
	if p, ok := strings.CutPrefix(locator, "file://"); ok {
		return p
	}
	if filepath.IsAbs(locator) {
		return locator
	}
	return ""
}
