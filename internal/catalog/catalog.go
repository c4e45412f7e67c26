// Package catalog holds the records shared between the playback core and the
// persistence layer. Values are copied, never mutated after construction.
package catalog

import (
	"strings"
	"time"
)

// ContentType discriminates music from podcast tracks.
type ContentType string

const (
	Music   ContentType = "music"
	Podcast ContentType = "podcast"
)

// Valid reports whether the content type is one of the known values.
func (c ContentType) Valid() bool {
	return c == Music || c == Podcast
}

// ParseContentType parses a user-supplied content type. Empty means any.
func ParseContentType(s string) (ContentType, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "":
		return "", true
	case "music":
		return Music, true
	case "podcast", "podcasts":
		return Podcast, true
	default:
		return "", false
	}
}

// Track is an audio record with a playable media locator.
type Track struct {
	ID          string
	Title       string
	Artist      string // set for music
	PodcastName string // set for podcasts
	ContentType ContentType
	MediaURL    string
	CoverURL    string // optional
	Categories  []string
	Duration    time.Duration // catalog hint, 0 if unknown
}

// Subject returns the artist for music and the podcast name for podcasts.
func (t Track) Subject() string {
	if t.ContentType == Podcast {
		return t.PodcastName
	}
	return t.Artist
}

// IndexOf returns the position of the track with the given ID, or -1.
func IndexOf(tracks []Track, id string) int {
	for i := range tracks {
		if tracks[i].ID == id {
			return i
		}
	}
	return -1
}

// User identifies the listener on whose behalf side effects are recorded.
type User struct {
	ID   string
	Name string
}

// Filter narrows a track list query.
type Filter struct {
	ContentType ContentType // empty for any
	Query       string      // matched against title and subject
	Category    string
	Limit       int // 0 for no limit
}

// RecentlyPlayed is one history entry.
type RecentlyPlayed struct {
	ID       string
	UserID   string
	Track    Track
	PlayedAt time.Time
	Progress int // seconds
}

// Favorite is a favorited track.
type Favorite struct {
	UserID    string
	Track     Track
	CreatedAt time.Time
}

// Playlist is a user's named, ordered list of tracks.
type Playlist struct {
	ID          string
	UserID      string
	Name        string
	Description string
	TrackCount  int
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// PlaylistEntry is a track at a position of a playlist.
type PlaylistEntry struct {
	Position int // 0-based, contiguous
	Track    Track
	AddedAt  time.Time
}

// EntryTracks returns the tracks of entries in playlist order.
func EntryTracks(entries []PlaylistEntry) []Track {
	out := make([]Track, len(entries))
	for i, e := range entries {
		out[i] = e.Track
	}
	return out
}
