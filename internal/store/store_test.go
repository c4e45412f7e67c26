package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/llehouerou/soundwave/internal/catalog"
	"github.com/llehouerou/soundwave/internal/playlist"
)

// openTestStore opens a store in a temporary directory with a clock that
// advances one second per call.
func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "nested", "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	clock := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time {
		clock = clock.Add(time.Second)
		return clock
	}
	return s
}

func musicTrack(id, title, artist string, categories ...string) catalog.Track {
	return catalog.Track{
		ID:          id,
		Title:       title,
		Artist:      artist,
		ContentType: catalog.Music,
		MediaURL:    "/music/" + id + ".mp3",
		Categories:  categories,
		Duration:    3*time.Minute + 20*time.Second,
	}
}

func podcastTrack(id, title, show string) catalog.Track {
	return catalog.Track{
		ID:          id,
		Title:       title,
		PodcastName: show,
		ContentType: catalog.Podcast,
		MediaURL:    "https://feeds.example.com/" + id + ".mp3",
		CoverURL:    "https://feeds.example.com/" + id + ".jpg",
		Categories:  []string{"Talk"},
	}
}

func seed(t *testing.T, s *Store, tracks ...catalog.Track) {
	t.Helper()
	for _, tr := range tracks {
		_, err := s.SaveTrack(t.Context(), tr)
		require.NoError(t, err)
	}
}

func ids(tracks []catalog.Track) []string {
	out := make([]string, len(tracks))
	for i, t := range tracks {
		out[i] = t.ID
	}
	return out
}

func TestOpen_ReopenKeepsData(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	require.NoError(t, err)
	seed(t, s, musicTrack("a", "Alpha", "Band"))
	require.NoError(t, s.Close())

	s, err = Open(path)
	require.NoError(t, err)
	defer s.Close()
	require.NoError(t, s.Ping(t.Context()))

	got, err := s.Track(t.Context(), "a")
	require.NoError(t, err)
	assert.Equal(t, "Alpha", got.Title)
}

func TestSaveTrack_RoundTrip(t *testing.T) {
	s := openTestStore(t)
	want := podcastTrack("p1", "Episode 1", "The Show")

	saved, err := s.SaveTrack(t.Context(), want)
	require.NoError(t, err)
	assert.Equal(t, want, saved)

	got, err := s.Track(t.Context(), "p1")
	require.NoError(t, err)
	assert.Equal(t, want, got)
	assert.Equal(t, "The Show", got.Subject())
}

func TestSaveTrack_AssignsIDAndDedupesByMediaURL(t *testing.T) {
	s := openTestStore(t)
	tr := musicTrack("", "Alpha", "Band", "Rock")
	tr.MediaURL = "/music/alpha.flac"

	first, err := s.SaveTrack(t.Context(), tr)
	require.NoError(t, err)
	require.NotEmpty(t, first.ID)

	tr.Title = "Alpha (Remastered)"
	tr.Categories = []string{"Rock", "Classic"}
	second, err := s.SaveTrack(t.Context(), tr)
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)

	all, err := s.Tracks(t.Context(), catalog.Filter{})
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, "Alpha (Remastered)", all[0].Title)
	assert.Equal(t, []string{"Rock", "Classic"}, all[0].Categories)
}

func TestSaveTrack_Rejects(t *testing.T) {
	s := openTestStore(t)

	_, err := s.SaveTrack(t.Context(), catalog.Track{ID: "x", Title: "x", MediaURL: "/x.mp3"})
	assert.Error(t, err)

	_, err = s.SaveTrack(t.Context(), catalog.Track{ID: "x", Title: "x", ContentType: catalog.Music})
	assert.Error(t, err)
}

func TestTrack_NotFound(t *testing.T) {
	s := openTestStore(t)
	_, err := s.Track(t.Context(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestTracks_Filters(t *testing.T) {
	s := openTestStore(t)
	seed(t, s,
		musicTrack("m1", "Blue Monday", "New Order", "Electronic"),
		musicTrack("m2", "Blue in Green", "Miles Davis", "Jazz"),
		podcastTrack("p1", "Interview", "Blue Sky Talks"),
		musicTrack("m3", "100% Pure", "Someone", "Pop"),
	)

	tests := []struct {
		name   string
		filter catalog.Filter
		want   []string
	}{
		{"all in insertion order", catalog.Filter{}, []string{"m1", "m2", "p1", "m3"}},
		{"music only", catalog.Filter{ContentType: catalog.Music}, []string{"m1", "m2", "m3"}},
		{"podcast only", catalog.Filter{ContentType: catalog.Podcast}, []string{"p1"}},
		{"query matches title and subject", catalog.Filter{Query: "blue"}, []string{"m1", "m2", "p1"}},
		{"query with type", catalog.Filter{ContentType: catalog.Music, Query: "blue"}, []string{"m1", "m2"}},
		{"query by artist", catalog.Filter{Query: "miles"}, []string{"m2"}},
		{"wildcards are literal", catalog.Filter{Query: "0%"}, []string{"m3"}},
		{"category ignores case", catalog.Filter{Category: "jazz"}, []string{"m2"}},
		{"limit", catalog.Filter{Limit: 2}, []string{"m1", "m2"}},
		{"no match", catalog.Filter{Query: "zzz"}, []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := s.Tracks(t.Context(), tt.filter)
			require.NoError(t, err)
			assert.Equal(t, tt.want, ids(got))
		})
	}
}

func TestFavorites(t *testing.T) {
	s := openTestStore(t)
	ctx := t.Context()
	seed(t, s, musicTrack("a", "A", "X"), musicTrack("b", "B", "X", "Rock"))

	fav, err := s.IsFavorite(ctx, "u1", "a")
	require.NoError(t, err)
	assert.False(t, fav)

	require.NoError(t, s.AddFavorite(ctx, "u1", "a"))
	require.NoError(t, s.AddFavorite(ctx, "u1", "a"))
	require.NoError(t, s.AddFavorite(ctx, "u1", "b"))

	fav, err = s.IsFavorite(ctx, "u1", "a")
	require.NoError(t, err)
	assert.True(t, fav)

	fav, err = s.IsFavorite(ctx, "u2", "a")
	require.NoError(t, err)
	assert.False(t, fav, "favorites are per user")

	favs, err := s.Favorites(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, favs, 2)
	assert.Equal(t, "b", favs[0].Track.ID)
	assert.Equal(t, []string{"Rock"}, favs[0].Track.Categories)
	assert.Equal(t, "a", favs[1].Track.ID)
	assert.True(t, favs[0].CreatedAt.After(favs[1].CreatedAt))

	require.NoError(t, s.RemoveFavorite(ctx, "u1", "a"))
	require.NoError(t, s.RemoveFavorite(ctx, "u1", "a"))
	fav, err = s.IsFavorite(ctx, "u1", "a")
	require.NoError(t, err)
	assert.False(t, fav)
}

func TestLogRecentlyPlayed_UpsertsPerTrack(t *testing.T) {
	s := openTestStore(t)
	ctx := t.Context()
	seed(t, s, musicTrack("a", "A", "X"), musicTrack("b", "B", "X"))

	require.NoError(t, s.LogRecentlyPlayed(ctx, "u1", "a", 0))
	require.NoError(t, s.LogRecentlyPlayed(ctx, "u1", "b", 0))
	require.NoError(t, s.LogRecentlyPlayed(ctx, "u1", "a", 10))
	require.NoError(t, s.LogRecentlyPlayed(ctx, "u1", "a", 20))
	require.NoError(t, s.LogRecentlyPlayed(ctx, "u2", "b", 5))

	recent, err := s.RecentlyPlayed(ctx, "u1", 0)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, "a", recent[0].Track.ID)
	assert.Equal(t, 20, recent[0].Progress)
	assert.Equal(t, "u1", recent[0].UserID)
	assert.NotEmpty(t, recent[0].ID)
	assert.Equal(t, "b", recent[1].Track.ID)
	assert.Equal(t, 0, recent[1].Progress)
	assert.True(t, recent[0].PlayedAt.After(recent[1].PlayedAt))

	limited, err := s.RecentlyPlayed(ctx, "u1", 1)
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, []string{limited[0].Track.ID})
	assert.Len(t, limited, 1)
}

func TestLogRecentlyPlayed_UnknownTrack(t *testing.T) {
	s := openTestStore(t)
	assert.Error(t, s.LogRecentlyPlayed(t.Context(), "u1", "ghost", 3))
}

func TestLogRecentlyPlayed_CanceledContext(t *testing.T) {
	s := openTestStore(t)
	seed(t, s, musicTrack("a", "A", "X"))
	ctx, cancel := context.WithCancel(t.Context())
	cancel()
	assert.ErrorIs(t, s.LogRecentlyPlayed(ctx, "u1", "a", 3), context.Canceled)
}

func TestSettings(t *testing.T) {
	s := openTestStore(t)
	ctx := t.Context()

	_, ok, err := s.LoadSettings(ctx)
	require.NoError(t, err)
	assert.False(t, ok)

	want := Settings{Volume: 0.35, Shuffle: true, RepeatMode: playlist.RepeatOne, Theme: "ember"}
	require.NoError(t, s.SaveSettings(ctx, want))
	got, ok, err := s.LoadSettings(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, want, got)

	want = Settings{Volume: 1}
	require.NoError(t, s.SaveSettings(ctx, want))
	got, _, err = s.LoadSettings(ctx)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func entryIDs(entries []catalog.PlaylistEntry) []string {
	return ids(catalog.EntryTracks(entries))
}

func TestCreatePlaylist(t *testing.T) {
	s := openTestStore(t)
	ctx := t.Context()

	road, err := s.CreatePlaylist(ctx, "u1", " Road trip ", "long drives")
	require.NoError(t, err)
	assert.NotEmpty(t, road.ID)
	assert.Equal(t, "Road trip", road.Name)

	_, err = s.CreatePlaylist(ctx, "u1", "Road trip", "")
	assert.ErrorIs(t, err, ErrExists)

	_, err = s.CreatePlaylist(ctx, "u2", "Road trip", "")
	require.NoError(t, err, "names are unique per user only")

	_, err = s.CreatePlaylist(ctx, "u1", "  ", "")
	assert.Error(t, err)

	got, err := s.PlaylistByName(ctx, "u1", "Road trip")
	require.NoError(t, err)
	assert.Equal(t, road.ID, got.ID)
	assert.Equal(t, "long drives", got.Description)
	assert.Zero(t, got.TrackCount)

	_, err = s.PlaylistByName(ctx, "u1", "Missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestPlaylists_NewestFirst(t *testing.T) {
	s := openTestStore(t)
	ctx := t.Context()
	_, err := s.CreatePlaylist(ctx, "u1", "Old", "")
	require.NoError(t, err)
	_, err = s.CreatePlaylist(ctx, "u1", "New", "")
	require.NoError(t, err)
	_, err = s.CreatePlaylist(ctx, "u2", "Other", "")
	require.NoError(t, err)

	got, err := s.Playlists(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "New", got[0].Name)
	assert.Equal(t, "Old", got[1].Name)
}

func TestAddToPlaylist_AppendsInOrder(t *testing.T) {
	s := openTestStore(t)
	ctx := t.Context()
	seed(t, s, musicTrack("a", "A", "X"), musicTrack("b", "B", "X", "Rock"), musicTrack("c", "C", "Y"))
	pl, err := s.CreatePlaylist(ctx, "u1", "Mix", "")
	require.NoError(t, err)

	require.NoError(t, s.AddToPlaylist(ctx, pl.ID, "c", "a"))
	require.NoError(t, s.AddToPlaylist(ctx, pl.ID, "b", "a"))

	entries, err := s.PlaylistTracks(ctx, pl.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"c", "a", "b", "a"}, entryIDs(entries))
	for i, e := range entries {
		assert.Equal(t, i, e.Position)
	}
	assert.Equal(t, []string{"Rock"}, entries[2].Track.Categories)

	got, err := s.PlaylistByName(ctx, "u1", "Mix")
	require.NoError(t, err)
	assert.Equal(t, 4, got.TrackCount)
	assert.True(t, got.UpdatedAt.After(got.CreatedAt))
}

func TestAddToPlaylist_Rejects(t *testing.T) {
	s := openTestStore(t)
	ctx := t.Context()
	seed(t, s, musicTrack("a", "A", "X"))
	pl, err := s.CreatePlaylist(ctx, "u1", "Mix", "")
	require.NoError(t, err)

	assert.ErrorIs(t, s.AddToPlaylist(ctx, "nope", "a"), ErrNotFound)
	assert.Error(t, s.AddToPlaylist(ctx, pl.ID, "a", "ghost"), "unknown track")

	entries, err := s.PlaylistTracks(ctx, pl.ID)
	require.NoError(t, err)
	assert.Empty(t, entries, "a failed add changes nothing")
}

func TestRemoveFromPlaylist_ClosesGaps(t *testing.T) {
	s := openTestStore(t)
	ctx := t.Context()
	seed(t, s, musicTrack("a", "A", "X"), musicTrack("b", "B", "X"), musicTrack("c", "C", "Y"))
	pl, err := s.CreatePlaylist(ctx, "u1", "Mix", "")
	require.NoError(t, err)
	require.NoError(t, s.AddToPlaylist(ctx, pl.ID, "a", "b", "a", "c"))

	require.NoError(t, s.RemoveFromPlaylist(ctx, pl.ID, "a"))

	entries, err := s.PlaylistTracks(ctx, pl.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"b", "c"}, entryIDs(entries))
	assert.Equal(t, 0, entries[0].Position)
	assert.Equal(t, 1, entries[1].Position)

	assert.ErrorIs(t, s.RemoveFromPlaylist(ctx, pl.ID, "a"), ErrNotFound)

	require.NoError(t, s.AddToPlaylist(ctx, pl.ID, "a"))
	entries, err = s.PlaylistTracks(ctx, pl.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"b", "c", "a"}, entryIDs(entries))
	assert.Equal(t, 2, entries[2].Position)
}

func TestDeletePlaylist(t *testing.T) {
	s := openTestStore(t)
	ctx := t.Context()
	seed(t, s, musicTrack("a", "A", "X"))
	pl, err := s.CreatePlaylist(ctx, "u1", "Mix", "")
	require.NoError(t, err)
	require.NoError(t, s.AddToPlaylist(ctx, pl.ID, "a"))

	require.NoError(t, s.DeletePlaylist(ctx, pl.ID))
	assert.ErrorIs(t, s.DeletePlaylist(ctx, pl.ID), ErrNotFound)

	entries, err := s.PlaylistTracks(ctx, pl.ID)
	require.NoError(t, err)
	assert.Empty(t, entries)

	_, err = s.Track(ctx, "a")
	require.NoError(t, err, "tracks outlive playlists")
}
