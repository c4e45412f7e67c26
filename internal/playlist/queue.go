package playlist

import (
	"math/rand/v2"

	"github.com/llehouerou/soundwave/internal/catalog"
)

// PlayingQueue is the ordered play sequence together with the order it had
// before shuffling, the current position and the repeat/shuffle modes.
//
// Invariant: 0 <= CurrentIndex() < Len() whenever the queue is non-empty;
// an empty queue has index 0.
type PlayingQueue struct {
	playlist     *Playlist // play order
	original     *Playlist // pre-shuffle order
	currentIndex int
	repeatMode   RepeatMode
	shuffle      bool
	intN         func(n int) int
}

// NewQueue creates a new empty playing queue.
func NewQueue() *PlayingQueue {
	return &PlayingQueue{
		playlist: NewPlaylist(),
		original: NewPlaylist(),
		intN:     rand.IntN,
	}
}

// SetRand sets the random source used for shuffling. Nil restores the
// process-wide source.
func (q *PlayingQueue) SetRand(r *rand.Rand) {
	if r == nil {
		q.intN = rand.IntN
		return
	}
	q.intN = r.IntN
}

// Current returns the track at the current position, or nil if empty.
func (q *PlayingQueue) Current() *catalog.Track {
	return q.playlist.Track(q.currentIndex)
}

// CurrentIndex returns the current position.
func (q *PlayingQueue) CurrentIndex() int {
	return q.currentIndex
}

// Replace makes tracks the new queue and positions it on startID.
// With shuffle on, the play order is a shuffled copy and tracks is kept as
// the original order. An unknown startID positions the queue at 0.
// Returns the track at the new position, or nil if tracks is empty.
func (q *PlayingQueue) Replace(tracks []catalog.Track, startID string) *catalog.Track {
	q.original.Set(tracks)
	order := q.original.Tracks()
	if q.shuffle {
		Shuffle(order, q.intN)
	}
	q.playlist.Set(order)
	q.currentIndex = max(q.playlist.IndexOf(startID), 0)
	return q.Current()
}

// HasNext returns true if there's a track after the current one.
func (q *PlayingQueue) HasNext() bool {
	return q.currentIndex < q.playlist.Len()-1
}

// NextIndex returns the index playNext would move to, honouring RepeatAll
// wraparound. ok is false when there is nowhere to go.
func (q *PlayingQueue) NextIndex() (int, bool) {
	n := q.playlist.Len()
	if n == 0 {
		return 0, false
	}
	next := q.currentIndex + 1
	if next < n {
		return next, true
	}
	if q.repeatMode == RepeatAll {
		return 0, true
	}
	return q.currentIndex, false
}

// PreviousIndex returns the index playPrevious would move to: wraps to the
// last track with RepeatAll, clamps to 0 otherwise.
func (q *PlayingQueue) PreviousIndex() (int, bool) {
	n := q.playlist.Len()
	if n == 0 {
		return 0, false
	}
	prev := q.currentIndex - 1
	if prev >= 0 {
		return prev, true
	}
	if q.repeatMode == RepeatAll {
		return n - 1, true
	}
	return 0, true
}

// Next advances to the next track and returns it.
// Returns nil, leaving the position unchanged, if there is no next track.
func (q *PlayingQueue) Next() *catalog.Track {
	idx, ok := q.NextIndex()
	if !ok {
		return nil
	}
	q.currentIndex = idx
	return q.Current()
}

// Previous moves to the previous track and returns it.
func (q *PlayingQueue) Previous() *catalog.Track {
	idx, ok := q.PreviousIndex()
	if !ok {
		return nil
	}
	q.currentIndex = idx
	return q.Current()
}

// JumpTo sets the current index to the specified position.
// Returns the track at that position, or nil if invalid.
func (q *PlayingQueue) JumpTo(index int) *catalog.Track {
	if index < 0 || index >= q.playlist.Len() {
		return nil
	}
	q.currentIndex = index
	return q.Current()
}

// Add appends a track to the play order, and to the original order when no
// track with the same ID is there yet. The position is unchanged.
func (q *PlayingQueue) Add(tracks ...catalog.Track) {
	for _, t := range tracks {
		q.playlist.Add(t)
		if !q.original.Contains(t.ID) {
			q.original.Add(t)
		}
	}
}

// RemoveResult describes the effect of RemoveAt on the current position.
type RemoveResult struct {
	Removed        bool // false if the index was out of range
	CurrentRemoved bool // the removed entry was the current one
	// Successor is set when the current entry was removed and another track
	// should take over playback (the following one, or the first one with
	// RepeatAll). When false after removing the current entry, the position
	// was clamped to the new last track or the queue is empty.
	Successor bool
}

// RemoveAt removes the entry at index and keeps the current position on the
// same logical track when an earlier entry is removed.
func (q *PlayingQueue) RemoveAt(index int) RemoveResult {
	track := q.playlist.Track(index)
	if track == nil {
		return RemoveResult{}
	}
	q.playlist.Remove(index)
	if !q.playlist.Contains(track.ID) {
		q.original.RemoveID(track.ID)
	}

	res := RemoveResult{Removed: true}
	n := q.playlist.Len()
	switch {
	case n == 0:
		q.currentIndex = 0
		res.CurrentRemoved = true
	case index < q.currentIndex:
		q.currentIndex--
	case index == q.currentIndex:
		res.CurrentRemoved = true
		switch {
		case q.currentIndex < n:
			res.Successor = true
		case q.repeatMode == RepeatAll:
			q.currentIndex = 0
			res.Successor = true
		default:
			q.currentIndex = n - 1
		}
	}
	return res
}

// Clear removes all tracks from both orders and resets the position.
func (q *PlayingQueue) Clear() {
	q.playlist.Clear()
	q.original.Clear()
	q.currentIndex = 0
}

// Tracks returns the play order.
func (q *PlayingQueue) Tracks() []catalog.Track {
	return q.playlist.Tracks()
}

// Original returns the pre-shuffle order.
func (q *PlayingQueue) Original() []catalog.Track {
	return q.original.Tracks()
}

// Len returns the number of tracks in the queue.
func (q *PlayingQueue) Len() int {
	return q.playlist.Len()
}

// IsEmpty returns true if the queue has no tracks.
func (q *PlayingQueue) IsEmpty() bool {
	return q.playlist.Len() == 0
}

// RepeatMode returns the current repeat mode.
func (q *PlayingQueue) RepeatMode() RepeatMode {
	return q.repeatMode
}

// SetRepeatMode sets the repeat mode.
func (q *PlayingQueue) SetRepeatMode(mode RepeatMode) {
	q.repeatMode = mode
}

// CycleRepeatMode advances off → all → one → off and returns the new mode.
func (q *PlayingQueue) CycleRepeatMode() RepeatMode {
	q.repeatMode = q.repeatMode.Next()
	return q.repeatMode
}

// Shuffle returns whether shuffle is enabled.
func (q *PlayingQueue) Shuffle() bool {
	return q.shuffle
}

// ToggleShuffle flips shuffle and returns the new state.
func (q *PlayingQueue) ToggleShuffle() bool {
	q.SetShuffle(!q.shuffle)
	return q.shuffle
}

// SetShuffle enables or disables shuffle.
//
// Enabling keeps the current track in place at index 0 and shuffles the
// rest behind it; the unshuffled order is remembered. Disabling restores the
// remembered order and moves the position to the current track within it
// (0 if it is not there).
func (q *PlayingQueue) SetShuffle(enabled bool) {
	if enabled == q.shuffle {
		return
	}
	q.shuffle = enabled
	if q.playlist.Len() == 0 {
		return
	}

	if enabled {
		tracks := q.playlist.Tracks()
		q.original.Set(tracks)
		current := tracks[q.currentIndex]
		rest := make([]catalog.Track, 0, len(tracks)-1)
		rest = append(rest, tracks[:q.currentIndex]...)
		rest = append(rest, tracks[q.currentIndex+1:]...)
		Shuffle(rest, q.intN)
		q.playlist.Set(append([]catalog.Track{current}, rest...))
		q.currentIndex = 0
		return
	}

	if q.original.Len() == 0 {
		return
	}
	currentID := q.Current().ID
	q.playlist.Set(q.original.Tracks())
	q.currentIndex = max(q.playlist.IndexOf(currentID), 0)
}
