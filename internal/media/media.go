// Package media defines the single shared audio output the playback
// controller drives, and its implementations.
package media

import (
	"time"

	"github.com/cockroachdb/errors"
)

var (
	ErrNoSource          = errors.New("media: no source set")
	ErrInterrupted       = errors.New("media: play interrupted by a new source")
	ErrUnsupportedFormat = errors.New("media: unsupported format")
	ErrUnavailable       = errors.New("media: audio output unavailable")
	ErrClosed            = errors.New("media: element closed")
)

// Listener receives the element's events. Implementations of Element never
// invoke a Listener from inside one of their own method calls, so a listener
// may hold locks that are also held while commanding the element.
//
// Source events carry the load ID returned by the SetSource call they belong
// to. An event may arrive after a newer SetSource; listeners compare IDs.
type Listener interface {
	// TimeUpdated reports playback progress.
	TimeUpdated(position time.Duration)
	// MetadataLoaded reports that the duration of a source is known.
	MetadataLoaded(load uint64, duration time.Duration)
	// Ended reports that a source played to completion.
	Ended(load uint64)
}

// SampleSink receives a copy of the samples sent to the output.
// WriteSamples runs on the audio goroutine and must not block.
type SampleSink interface {
	WriteSamples(samples [][2]float64)
}

// Element is the media resource: one source, one transport, one output.
type Element interface {
	// SetSource starts loading locator asynchronously and leaves the element
	// paused at position 0. Pending Play calls are resolved with ErrInterrupted.
	// It returns the load ID that events for this source carry.
	SetSource(locator string) uint64
	Source() string

	// Play starts or resumes playback. done is called exactly once, never
	// synchronously: with nil once audio runs, or with the reason it cannot.
	Play(done func(error))
	Pause()
	Paused() bool

	SetCurrentTime(position time.Duration)
	CurrentTime() time.Duration
	// Duration returns false until the source's metadata has loaded.
	Duration() (time.Duration, bool)

	// SetVolume sets the output gain, clamped to [0, 1].
	SetVolume(level float64)
	Volume() float64

	SetListener(l Listener)

	// AttachTap inserts a passthrough sink after the volume stage. The
	// returned function detaches it and is safe to call more than once.
	AttachTap(sink SampleSink) (detach func(), err error)

	Close() error
}

// ClampVolume limits level to [0, 1]. NaN maps to 0.
func ClampVolume(level float64) float64 {
	if level != level || level < 0 {
		return 0
	}
	if level > 1 {
		return 1
	}
	return level
}
