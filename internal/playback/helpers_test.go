package playback

import (
	"context"
	"fmt"
	"math/rand/v2"
	"sync"
	"testing"

	"github.com/rs/zerolog"

	"github.com/llehouerou/soundwave/internal/catalog"
	"github.com/llehouerou/soundwave/internal/media"
)

type recentCall struct {
	UserID   string
	TrackID  string
	Progress int
}

type fakeStore struct {
	mu        sync.Mutex
	tracks    []catalog.Track
	tracksErr error
	favorites map[string]bool
	favErr    error
	lookupErr error
	gate      chan struct{} // when set, IsFavorite waits for it to close
	recent    []recentCall
	recentErr error
}

func newFakeStore(tracks ...catalog.Track) *fakeStore {
	return &fakeStore{tracks: tracks, favorites: make(map[string]bool)}
}

func (s *fakeStore) Tracks(_ context.Context, f catalog.Filter) ([]catalog.Track, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.tracksErr != nil {
		return nil, s.tracksErr
	}
	var out []catalog.Track
	for _, t := range s.tracks {
		if f.ContentType != "" && t.ContentType != f.ContentType {
			continue
		}
		out = append(out, t)
	}
	return out, nil
}

func (s *fakeStore) IsFavorite(_ context.Context, userID, trackID string) (bool, error) {
	s.mu.Lock()
	gate := s.gate
	s.mu.Unlock()
	if gate != nil {
		<-gate
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.lookupErr != nil {
		return false, s.lookupErr
	}
	return s.favorites[userID+"/"+trackID], nil
}

func (s *fakeStore) AddFavorite(_ context.Context, userID, trackID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.favErr != nil {
		return s.favErr
	}
	s.favorites[userID+"/"+trackID] = true
	return nil
}

func (s *fakeStore) RemoveFavorite(_ context.Context, userID, trackID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.favErr != nil {
		return s.favErr
	}
	delete(s.favorites, userID+"/"+trackID)
	return nil
}

func (s *fakeStore) LogRecentlyPlayed(_ context.Context, userID, trackID string, progress int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.recentErr != nil {
		return s.recentErr
	}
	s.recent = append(s.recent, recentCall{UserID: userID, TrackID: trackID, Progress: progress})
	return nil
}

func (s *fakeStore) isFavorite(userID, trackID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.favorites[userID+"/"+trackID]
}

func (s *fakeStore) setFavorite(userID, trackID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.favorites[userID+"/"+trackID] = true
}

func (s *fakeStore) recentCalls() []recentCall {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]recentCall(nil), s.recent...)
}

type countingMetrics struct {
	mu            sync.Mutex
	started       map[string]int
	playFailed    int
	persistFailed map[string]int
}

func newCountingMetrics() *countingMetrics {
	return &countingMetrics{started: map[string]int{}, persistFailed: map[string]int{}}
}

func (m *countingMetrics) TrackStarted(ct string) {
	m.mu.Lock()
	m.started[ct]++
	m.mu.Unlock()
}

func (m *countingMetrics) PlayFailed() {
	m.mu.Lock()
	m.playFailed++
	m.mu.Unlock()
}

func (m *countingMetrics) PersistFailed(op string) {
	m.mu.Lock()
	m.persistFailed[op]++
	m.mu.Unlock()
}

func (m *countingMetrics) startedCount(ct string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.started[ct]
}

func (m *countingMetrics) persistFailures(op string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.persistFailed[op]
}

// tracksOf builds music tracks with the given IDs.
func tracksOf(ids ...string) []catalog.Track {
	out := make([]catalog.Track, len(ids))
	for i, id := range ids {
		out[i] = catalog.Track{
			ID:          id,
			Title:       "Track " + id,
			Artist:      "Artist",
			ContentType: catalog.Music,
			MediaURL:    fmt.Sprintf("/music/%s.mp3", id),
		}
	}
	return out
}

func idsOf(tracks []catalog.Track) []string {
	out := make([]string, len(tracks))
	for i, t := range tracks {
		out[i] = t.ID
	}
	return out
}

var testUser = &catalog.User{ID: "u1", Name: "listener"}

// newTestController returns a controller on a mock element. Callers close
// it, inside the synctest bubble when there is one.
func newTestController(t *testing.T, st *fakeStore, opts ...Option) (*Controller, *media.Mock) {
	t.Helper()
	el := media.NewMock()
	if st == nil {
		st = newFakeStore()
	}
	base := []Option{
		WithLogger(zerolog.Nop()),
		WithRand(rand.New(rand.NewPCG(1, 2))),
	}
	return New(el, st, append(base, opts...)...), el
}

// playAt plays tracks positioned on index and lets the element confirm.
func playAt(c *Controller, el *media.Mock, tracks []catalog.Track, index int) {
	c.PlayTrack(tracks[index], tracks...)
	el.ResolvePlays(nil)
}
