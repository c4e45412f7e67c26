// Package mpris exposes the player to desktop media keys and applets over
// the D-Bus MPRIS interface. It is a no-op outside Linux.
package mpris

import (
	"time"

	"github.com/llehouerou/soundwave/internal/playback"
)

// Player is the part of the playback controller exposed over MPRIS.
type Player interface {
	Snapshot() playback.Session
	ResumeTrack()
	PauseTrack()
	TogglePlayPause()
	PlayNext()
	PlayPrevious()
	SeekTo(position time.Duration)
	SetVolume(v float64)
	SetRepeatMode(m playback.RepeatMode)
	SetShuffle(on bool)
}
