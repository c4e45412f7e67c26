package playback

import "github.com/llehouerou/soundwave/internal/catalog"

// TrackChange is emitted when a track is loaded.
//
// Emitted by PlayTrack, PlayList, PlayNext, PlayPrevious, the natural
// end-of-track advance and RemoveFromQueue when it moves to a successor.
// A repeat-one restart does not emit it.
type TrackChange struct {
	Previous *catalog.Track
	Current  *catalog.Track
	Index    int
}

// ErrorEvent is emitted when a recoverable error was swallowed.
type ErrorEvent struct {
	Operation string // e.g., "play", "favorite", "progress"
	TrackID   string
	Err       error
}
