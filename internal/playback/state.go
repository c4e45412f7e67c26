package playback

import (
	"fmt"
	"time"

	"github.com/llehouerou/soundwave/internal/catalog"
	"github.com/llehouerou/soundwave/internal/playlist"
)

// State represents the session state.
type State int

const (
	StateEmpty State = iota
	StatePaused
	StatePlaying
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateEmpty:
		return "Empty"
	case StatePaused:
		return "Paused"
	case StatePlaying:
		return "Playing"
	default:
		return "Unknown"
	}
}

// IsActive returns true if a track is loaded (playing or paused).
func (s State) IsActive() bool {
	return s == StatePlaying || s == StatePaused
}

// RepeatMode defines the repeat behavior.
type RepeatMode = playlist.RepeatMode

const (
	RepeatOff = playlist.RepeatOff
	RepeatAll = playlist.RepeatAll
	RepeatOne = playlist.RepeatOne
)

// UnknownDuration is reported until the media's metadata has loaded.
const UnknownDuration time.Duration = -1

// Session is an immutable snapshot of the playback session.
type Session struct {
	CurrentTrack  *catalog.Track
	Queue         []catalog.Track
	OriginalQueue []catalog.Track
	CurrentIndex  int
	IsPlaying     bool
	CurrentTime   time.Duration
	Duration      time.Duration // UnknownDuration until metadata loads
	Volume        float64
	Shuffle       bool
	RepeatMode    RepeatMode
	IsFavorite    bool
}

// State derives the state machine position from the snapshot.
func (s Session) State() State {
	switch {
	case s.CurrentTrack == nil:
		return StateEmpty
	case s.IsPlaying:
		return StatePlaying
	default:
		return StatePaused
	}
}

// FormatClock renders d as m:ss, or --:-- for UnknownDuration.
func FormatClock(d time.Duration) string {
	if d < 0 {
		return "--:--"
	}
	secs := int(d / time.Second)
	return fmt.Sprintf("%d:%02d", secs/60, secs%60)
}
