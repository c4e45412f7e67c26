package playlist

import (
	"math/rand/v2"
	"strings"

	"github.com/llehouerou/soundwave/internal/catalog"
)

// RepeatMode defines what happens at the end of a track or of the queue.
type RepeatMode int

const (
	RepeatOff RepeatMode = iota // stop at the end of the queue
	RepeatAll                   // loop the queue
	RepeatOne                   // loop the current track
)

// Next returns the following mode in the off → all → one → off cycle.
func (m RepeatMode) Next() RepeatMode {
	switch m {
	case RepeatOff:
		return RepeatAll
	case RepeatAll:
		return RepeatOne
	default:
		return RepeatOff
	}
}

// String returns the repeat mode name.
func (m RepeatMode) String() string {
	switch m {
	case RepeatOff:
		return "off"
	case RepeatAll:
		return "all"
	case RepeatOne:
		return "one"
	default:
		return "unknown"
	}
}

// ParseRepeatMode parses "off", "all" or "one".
func ParseRepeatMode(s string) (RepeatMode, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "off":
		return RepeatOff, true
	case "all":
		return RepeatAll, true
	case "one":
		return RepeatOne, true
	default:
		return RepeatOff, false
	}
}

// Shuffle reorders tracks in place with a Fisher–Yates pass.
// intN must return a uniform integer in [0, n).
func Shuffle(tracks []catalog.Track, intN func(n int) int) {
	if intN == nil {
		intN = rand.IntN
	}
	for i := len(tracks) - 1; i > 0; i-- {
		j := intN(i + 1)
		tracks[i], tracks[j] = tracks[j], tracks[i]
	}
}
