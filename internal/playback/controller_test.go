package playback

import (
	"errors"
	"math/rand/v2"
	"testing"
	"testing/synctest"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/llehouerou/soundwave/internal/catalog"
	"github.com/llehouerou/soundwave/internal/media"
)

func TestNew_AppliesVolumeAndListener(t *testing.T) {
	c, el := newTestController(t, nil)
	defer c.Close()

	assert.InDelta(t, DefaultVolume, el.Volume(), 1e-9)
	assert.Equal(t, StateEmpty, c.Snapshot().State())
	assert.Equal(t, UnknownDuration, c.Snapshot().Duration)
}

func TestNew_PanicsWithoutElement(t *testing.T) {
	assert.Panics(t, func() { New(nil, newFakeStore()) })
	assert.Panics(t, func() { New(media.NewMock(), nil) })
}

func TestPlayTrack_WithList(t *testing.T) {
	c, el := newTestController(t, nil)
	defer c.Close()
	tracks := tracksOf("a", "b", "c")

	c.PlayTrack(tracks[1], tracks...)

	s := c.Snapshot()
	require.NotNil(t, s.CurrentTrack)
	assert.Equal(t, "b", s.CurrentTrack.ID)
	assert.Equal(t, []string{"a", "b", "c"}, idsOf(s.Queue))
	assert.Equal(t, []string{"a", "b", "c"}, idsOf(s.OriginalQueue))
	assert.Equal(t, 1, s.CurrentIndex)
	assert.True(t, s.IsPlaying)
	assert.Equal(t, StatePlaying, s.State())
	assert.Equal(t, UnknownDuration, s.Duration)
	assert.Equal(t, []string{"/music/b.mp3"}, el.Sources())
	assert.Equal(t, 1, el.PlayCalls())
}

func TestPlayTrack_WithoutListQueuesSingleton(t *testing.T) {
	c, el := newTestController(t, nil)
	defer c.Close()
	tracks := tracksOf("a", "b", "c")
	playAt(c, el, tracks, 2)

	c.PlayTrack(catalog.Track{ID: "x", MediaURL: "/x.mp3"})

	s := c.Snapshot()
	assert.Equal(t, []string{"x"}, idsOf(s.Queue))
	assert.Equal(t, 0, s.CurrentIndex)
	assert.Equal(t, "x", s.CurrentTrack.ID)
}

func TestPlayTrack_ShuffleOnKeepsOriginalOrder(t *testing.T) {
	c, _ := newTestController(t, nil, WithShuffle(true))
	defer c.Close()
	tracks := tracksOf("a", "b", "c", "d", "e", "f")

	c.PlayTrack(tracks[3], tracks...)

	s := c.Snapshot()
	assert.ElementsMatch(t, []string{"a", "b", "c", "d", "e", "f"}, idsOf(s.Queue))
	assert.Equal(t, []string{"a", "b", "c", "d", "e", "f"}, idsOf(s.OriginalQueue))
	assert.Equal(t, "d", s.Queue[s.CurrentIndex].ID)
	assert.Equal(t, "d", s.CurrentTrack.ID)
}

func TestPlayTrack_TrackMissingFromListStartsAtZero(t *testing.T) {
	c, el := newTestController(t, nil)
	defer c.Close()
	stray := catalog.Track{ID: "z", MediaURL: "/z.mp3"}

	c.PlayTrack(stray, tracksOf("a", "b")...)

	s := c.Snapshot()
	assert.Equal(t, 0, s.CurrentIndex)
	assert.Equal(t, "z", s.CurrentTrack.ID)
	assert.Equal(t, []string{"a", "b"}, idsOf(s.Queue), "the given list is queued as is")
	assert.Equal(t, []string{"/z.mp3"}, el.Sources())
}

func TestPlayTrack_RejectedPlayLeavesPaused(t *testing.T) {
	m := newCountingMetrics()
	c, el := newTestController(t, nil, WithMetrics(m))
	defer c.Close()
	sub := c.Subscribe()

	c.PlayTrack(tracksOf("a")[0])
	el.ResolvePlays(errors.New("autoplay blocked"))

	s := c.Snapshot()
	assert.False(t, s.IsPlaying)
	assert.Equal(t, StatePaused, s.State())
	assert.Equal(t, "a", s.CurrentTrack.ID)
	assert.Equal(t, 1, m.playFailed)

	select {
	case e := <-sub.Error:
		assert.Equal(t, "play", e.Operation)
		assert.Equal(t, "a", e.TrackID)
	default:
		t.Fatal("expected an error event")
	}
}

func TestPlayTrack_StalePlayResultIgnored(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		c, el := newTestController(t, nil)
		defer c.Close()
		sub := c.Subscribe()
		tracks := tracksOf("a", "b")

		c.PlayTrack(tracks[0], tracks...)
		c.PlayTrack(tracks[1], tracks...)
		// The first play is interrupted by the second source.
		synctest.Wait()

		s := c.Snapshot()
		assert.True(t, s.IsPlaying)
		assert.Equal(t, "b", s.CurrentTrack.ID)
		select {
		case e := <-sub.Error:
			t.Fatalf("unexpected error event %+v", e)
		default:
		}

		el.ResolvePlays(nil)
		assert.True(t, c.Snapshot().IsPlaying)
	})
}

func TestPauseTrack_PendingPlayDoesNotResume(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		c, el := newTestController(t, nil)
		defer c.Close()

		c.PlayTrack(tracksOf("a")[0])
		c.PauseTrack()
		synctest.Wait()

		assert.False(t, c.Snapshot().IsPlaying)
		assert.True(t, el.Paused())

		c.ResumeTrack()
		assert.True(t, c.Snapshot().IsPlaying)
		assert.Equal(t, 2, el.PlayCalls())
	})
}

func TestPauseTrack_NothingLoaded(t *testing.T) {
	c, el := newTestController(t, nil)
	defer c.Close()

	c.PauseTrack()

	assert.Equal(t, 0, el.PauseCalls())
	assert.Equal(t, StateEmpty, c.Snapshot().State())
}

func TestTogglePlayPause(t *testing.T) {
	c, el := newTestController(t, nil)
	defer c.Close()
	playAt(c, el, tracksOf("a"), 0)

	c.TogglePlayPause()
	assert.False(t, c.Snapshot().IsPlaying)
	assert.Equal(t, 1, el.PauseCalls())

	c.TogglePlayPause()
	assert.True(t, c.Snapshot().IsPlaying)
	assert.Equal(t, 2, el.PlayCalls())
	assert.Len(t, el.Sources(), 1, "resume must not reload the source")
}

func TestResumeTrack_LoadsQueueHeadWhenNothingLoaded(t *testing.T) {
	c, el := newTestController(t, nil)
	defer c.Close()
	c.AddToQueue(tracksOf("a", "b")...)
	require.Equal(t, StateEmpty, c.Snapshot().State())

	c.ResumeTrack()

	s := c.Snapshot()
	assert.Equal(t, "a", s.CurrentTrack.ID)
	assert.True(t, s.IsPlaying)
	assert.Equal(t, []string{"/music/a.mp3"}, el.Sources())
}

func TestResumeTrack_EmptyIsNoop(t *testing.T) {
	c, el := newTestController(t, nil)
	defer c.Close()

	c.ResumeTrack()

	assert.Equal(t, 0, el.PlayCalls())
	assert.False(t, c.Snapshot().IsPlaying)
}

func TestPlayNext(t *testing.T) {
	tests := []struct {
		name      string
		start     int
		mode      RepeatMode
		wantIndex int
		wantLoads int
	}{
		{"middle", 1, RepeatOff, 2, 2},
		{"last with repeat off is a no-op", 2, RepeatOff, 2, 1},
		{"last with repeat one is a no-op", 2, RepeatOne, 2, 1},
		{"last with repeat all wraps", 2, RepeatAll, 0, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, el := newTestController(t, nil, WithRepeatMode(tt.mode))
			defer c.Close()
			tracks := tracksOf("a", "b", "c")
			playAt(c, el, tracks, tt.start)

			c.PlayNext()

			s := c.Snapshot()
			assert.Equal(t, tt.wantIndex, s.CurrentIndex)
			assert.Equal(t, tracks[tt.wantIndex].ID, s.CurrentTrack.ID)
			assert.True(t, s.IsPlaying)
			assert.Len(t, el.Sources(), tt.wantLoads)
		})
	}
}

func TestPlayNext_RepeatAllWrapScenario(t *testing.T) {
	c, el := newTestController(t, nil, WithRepeatMode(RepeatAll))
	defer c.Close()
	tracks := tracksOf("A", "B", "C")
	playAt(c, el, tracks, 2)

	c.PlayNext()

	s := c.Snapshot()
	assert.Equal(t, 0, s.CurrentIndex)
	assert.Equal(t, "A", s.CurrentTrack.ID)
	assert.True(t, s.IsPlaying)
}

func TestPlayPrevious_RestartsAfterThreshold(t *testing.T) {
	c, el := newTestController(t, nil)
	defer c.Close()
	tracks := tracksOf("a", "b", "c")
	playAt(c, el, tracks, 2)
	el.SimulateMetadata(3 * time.Minute)
	el.SimulateTime(5 * time.Second)

	c.PlayPrevious()

	s := c.Snapshot()
	assert.Equal(t, 2, s.CurrentIndex)
	assert.Equal(t, "c", s.CurrentTrack.ID)
	assert.Equal(t, time.Duration(0), s.CurrentTime)
	assert.Equal(t, time.Duration(0), el.CurrentTime())
	assert.Equal(t, []time.Duration{0}, el.Seeks())
	assert.Len(t, el.Sources(), 1)
}

func TestPlayPrevious_MovesBackWithinThreshold(t *testing.T) {
	c, el := newTestController(t, nil)
	defer c.Close()
	tracks := tracksOf("a", "b", "c")
	playAt(c, el, tracks, 2)
	el.SimulateTime(1 * time.Second)

	c.PlayPrevious()

	s := c.Snapshot()
	assert.Equal(t, 1, s.CurrentIndex)
	assert.Equal(t, "b", s.CurrentTrack.ID)
	assert.True(t, s.IsPlaying)
}

func TestPlayPrevious_AtStart(t *testing.T) {
	tests := []struct {
		name      string
		mode      RepeatMode
		wantIndex int
	}{
		{"repeat off clamps", RepeatOff, 0},
		{"repeat one clamps", RepeatOne, 0},
		{"repeat all wraps", RepeatAll, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, el := newTestController(t, nil, WithRepeatMode(tt.mode))
			defer c.Close()
			playAt(c, el, tracksOf("a", "b", "c"), 0)

			c.PlayPrevious()

			assert.Equal(t, tt.wantIndex, c.Snapshot().CurrentIndex)
		})
	}
}

func TestPlayPrevious_EmptyQueue(t *testing.T) {
	c, el := newTestController(t, nil)
	defer c.Close()

	c.PlayPrevious()

	assert.Empty(t, el.Sources())
	assert.Empty(t, el.Seeks())
}

func TestNavigation_IndexStaysInBounds(t *testing.T) {
	rng := rand.New(rand.NewPCG(7, 11))
	for _, mode := range []RepeatMode{RepeatOff, RepeatAll, RepeatOne} {
		c, el := newTestController(t, nil, WithRepeatMode(mode))
		tracks := tracksOf("a", "b", "c", "d", "e")
		playAt(c, el, tracks, rng.IntN(len(tracks)))

		for range 300 {
			switch rng.IntN(4) {
			case 0:
				c.PlayNext()
			case 1:
				c.PlayPrevious()
			case 2:
				el.SimulateEnded()
			case 3:
				c.ToggleShuffle()
			}
			s := c.Snapshot()
			require.GreaterOrEqual(t, s.CurrentIndex, 0)
			require.Less(t, s.CurrentIndex, len(s.Queue))
			require.Equal(t, s.Queue[s.CurrentIndex].ID, s.CurrentTrack.ID)
		}
		c.Close()
	}
}

func TestEnded_RepeatOneRestarts(t *testing.T) {
	c, el := newTestController(t, nil, WithRepeatMode(RepeatOne))
	defer c.Close()
	playAt(c, el, tracksOf("a", "b"), 0)
	el.SimulateMetadata(time.Minute)
	el.SimulateTime(59 * time.Second)

	el.SimulateEnded()

	s := c.Snapshot()
	assert.Equal(t, "a", s.CurrentTrack.ID)
	assert.True(t, s.IsPlaying)
	assert.Equal(t, time.Duration(0), s.CurrentTime)
	assert.Equal(t, time.Duration(0), el.CurrentTime())
	assert.Equal(t, 2, el.PlayCalls())
	assert.Len(t, el.Sources(), 1)
}

func TestEnded_AdvancesToNext(t *testing.T) {
	c, el := newTestController(t, nil)
	defer c.Close()
	playAt(c, el, tracksOf("a", "b"), 0)

	el.SimulateEnded()

	s := c.Snapshot()
	assert.Equal(t, "b", s.CurrentTrack.ID)
	assert.Equal(t, 1, s.CurrentIndex)
	assert.True(t, s.IsPlaying)
}

func TestEnded_RepeatAllWraps(t *testing.T) {
	c, el := newTestController(t, nil, WithRepeatMode(RepeatAll))
	defer c.Close()
	playAt(c, el, tracksOf("a", "b"), 1)

	el.SimulateEnded()

	s := c.Snapshot()
	assert.Equal(t, "a", s.CurrentTrack.ID)
	assert.True(t, s.IsPlaying)
}

func TestEnded_StopsAtEndOfQueue(t *testing.T) {
	c, el := newTestController(t, nil)
	defer c.Close()
	playAt(c, el, tracksOf("a", "b"), 1)
	el.SimulateMetadata(2 * time.Minute)
	el.SimulateTime(2 * time.Minute)

	el.SimulateEnded()

	s := c.Snapshot()
	assert.False(t, s.IsPlaying)
	assert.Equal(t, time.Duration(0), s.CurrentTime)
	assert.Equal(t, "b", s.CurrentTrack.ID)
	assert.Equal(t, StatePaused, s.State())
	assert.Equal(t, time.Duration(0), el.CurrentTime())
}

func TestEnded_IgnoresEventsOfEarlierLoad(t *testing.T) {
	c, el := newTestController(t, nil)
	defer c.Close()
	playAt(c, el, tracksOf("a", "b", "c"), 0)
	first := el.Load()

	c.PlayNext()
	require.Equal(t, "b", c.Snapshot().CurrentTrack.ID)

	el.SimulateLateEvents(first, 5*time.Minute)

	s := c.Snapshot()
	assert.Equal(t, "b", s.CurrentTrack.ID, "a late end of a must not skip b")
	assert.Equal(t, 1, s.CurrentIndex)
	assert.True(t, s.IsPlaying)
	assert.Equal(t, UnknownDuration, s.Duration, "a's duration must not stick to b")
	assert.Len(t, el.Sources(), 2)

	el.SimulateMetadata(3 * time.Minute)
	assert.Equal(t, 3*time.Minute, c.Snapshot().Duration)
}

func TestToggleShuffle_KeepsCurrentTrack(t *testing.T) {
	c, el := newTestController(t, nil)
	defer c.Close()
	tracks := tracksOf("a", "b", "c", "d", "e")
	playAt(c, el, tracks, 2)

	c.ToggleShuffle()

	s := c.Snapshot()
	assert.True(t, s.Shuffle)
	assert.Equal(t, "c", s.CurrentTrack.ID)
	assert.Equal(t, 0, s.CurrentIndex)
	assert.Equal(t, "c", s.Queue[0].ID)
	assert.ElementsMatch(t, idsOf(tracks), idsOf(s.Queue))
	assert.Len(t, el.Sources(), 1, "shuffle must not reload")

	c.PlayNext()
	c.ToggleShuffle()

	s = c.Snapshot()
	assert.False(t, s.Shuffle)
	assert.Equal(t, idsOf(tracks), idsOf(s.Queue))
	assert.Equal(t, s.CurrentTrack.ID, s.Queue[s.CurrentIndex].ID)
}

func TestToggleRepeat_CycleOfThree(t *testing.T) {
	c, _ := newTestController(t, nil)
	defer c.Close()

	var seen []RepeatMode
	for range 3 {
		c.ToggleRepeat()
		seen = append(seen, c.Snapshot().RepeatMode)
	}

	assert.Equal(t, []RepeatMode{RepeatAll, RepeatOne, RepeatOff}, seen)
}

func TestSetVolume_Clamps(t *testing.T) {
	c, el := newTestController(t, nil)
	defer c.Close()

	c.SetVolume(1.5)
	assert.InDelta(t, 1.0, el.Volume(), 1e-9)
	assert.InDelta(t, 1.0, c.Snapshot().Volume, 1e-9)

	c.SetVolume(-0.2)
	assert.InDelta(t, 0.0, el.Volume(), 1e-9)

	c.SetVolume(0.4)
	c.SetVolume(nan())
	assert.InDelta(t, 0.4, el.Volume(), 1e-9)
}

func nan() float64 {
	zero := 0.0
	return zero / zero
}

func TestSeekTo(t *testing.T) {
	c, el := newTestController(t, nil)
	defer c.Close()

	c.SeekTo(10 * time.Second)
	assert.Empty(t, el.Seeks(), "no seek without a track")

	playAt(c, el, tracksOf("a"), 0)
	c.SeekTo(10 * time.Second)
	assert.Equal(t, 10*time.Second, c.Snapshot().CurrentTime)

	el.SimulateMetadata(30 * time.Second)
	c.SeekTo(45 * time.Second)
	c.SeekTo(-5 * time.Second)

	assert.Equal(t, []time.Duration{10 * time.Second, 30 * time.Second, 0}, el.Seeks())
	assert.Equal(t, time.Duration(0), c.Snapshot().CurrentTime)
}

func TestMetadataAndTimeUpdates(t *testing.T) {
	c, el := newTestController(t, nil)
	defer c.Close()
	playAt(c, el, tracksOf("a"), 0)

	el.SimulateMetadata(4 * time.Minute)
	el.SimulateTime(90 * time.Second)

	s := c.Snapshot()
	assert.Equal(t, 4*time.Minute, s.Duration)
	assert.Equal(t, 90*time.Second, s.CurrentTime)

	c.PlayTrack(tracksOf("b")[0])
	assert.Equal(t, UnknownDuration, c.Snapshot().Duration)
}

func TestAddToQueue(t *testing.T) {
	c, el := newTestController(t, nil)
	defer c.Close()
	tracks := tracksOf("a", "b")
	playAt(c, el, tracks, 1)

	c.AddToQueue(tracksOf("c")...)
	c.AddToQueue(tracks[0])

	s := c.Snapshot()
	assert.Equal(t, []string{"a", "b", "c", "a"}, idsOf(s.Queue))
	assert.Equal(t, []string{"a", "b", "c"}, idsOf(s.OriginalQueue))
	assert.Equal(t, 1, s.CurrentIndex)
	assert.Len(t, el.Sources(), 1)
}

func TestRemoveFromQueue_BeforeCurrentShiftsIndex(t *testing.T) {
	c, el := newTestController(t, nil)
	defer c.Close()
	playAt(c, el, tracksOf("A", "B", "C"), 2)

	c.RemoveFromQueue(1)

	s := c.Snapshot()
	assert.Equal(t, []string{"A", "C"}, idsOf(s.Queue))
	assert.Equal(t, 1, s.CurrentIndex)
	assert.Equal(t, "C", s.CurrentTrack.ID)
	assert.Len(t, el.Sources(), 1)
}

func TestRemoveFromQueue_AfterCurrent(t *testing.T) {
	c, el := newTestController(t, nil)
	defer c.Close()
	playAt(c, el, tracksOf("A", "B", "C"), 0)

	c.RemoveFromQueue(2)

	s := c.Snapshot()
	assert.Equal(t, []string{"A", "B"}, idsOf(s.Queue))
	assert.Equal(t, 0, s.CurrentIndex)
	assert.Equal(t, "A", s.CurrentTrack.ID)
}

func TestRemoveFromQueue_CurrentPlaysSuccessor(t *testing.T) {
	c, el := newTestController(t, nil)
	defer c.Close()
	playAt(c, el, tracksOf("A", "B", "C"), 1)

	c.RemoveFromQueue(1)

	s := c.Snapshot()
	assert.Equal(t, []string{"A", "C"}, idsOf(s.Queue))
	assert.Equal(t, []string{"A", "C"}, idsOf(s.OriginalQueue))
	assert.Equal(t, 1, s.CurrentIndex)
	assert.Equal(t, "C", s.CurrentTrack.ID)
	assert.True(t, s.IsPlaying)
	assert.Equal(t, []string{"/music/B.mp3", "/music/C.mp3"}, el.Sources())
}

func TestRemoveFromQueue_CurrentLastWrapsWithRepeatAll(t *testing.T) {
	c, el := newTestController(t, nil, WithRepeatMode(RepeatAll))
	defer c.Close()
	playAt(c, el, tracksOf("A", "B", "C"), 2)

	c.RemoveFromQueue(2)

	s := c.Snapshot()
	assert.Equal(t, 0, s.CurrentIndex)
	assert.Equal(t, "A", s.CurrentTrack.ID)
	assert.True(t, s.IsPlaying)
}

func TestRemoveFromQueue_CurrentLastStops(t *testing.T) {
	c, el := newTestController(t, nil)
	defer c.Close()
	playAt(c, el, tracksOf("A", "B", "C"), 2)

	c.RemoveFromQueue(2)

	s := c.Snapshot()
	assert.Equal(t, []string{"A", "B"}, idsOf(s.Queue))
	assert.Equal(t, 1, s.CurrentIndex)
	assert.False(t, s.IsPlaying)
	assert.Equal(t, 1, el.PauseCalls())
	assert.Len(t, el.Sources(), 1)
}

func TestRemoveFromQueue_LastRemainingEmptiesQueue(t *testing.T) {
	c, el := newTestController(t, nil)
	defer c.Close()
	playAt(c, el, tracksOf("A"), 0)

	c.RemoveFromQueue(0)

	s := c.Snapshot()
	assert.Empty(t, s.Queue)
	assert.Empty(t, s.OriginalQueue)
	assert.Equal(t, 0, s.CurrentIndex)
	assert.Equal(t, "A", s.CurrentTrack.ID)
	assert.True(t, s.IsPlaying)
}

func TestRemoveFromQueue_OutOfRange(t *testing.T) {
	c, el := newTestController(t, nil)
	defer c.Close()
	playAt(c, el, tracksOf("A", "B"), 0)

	c.RemoveFromQueue(5)
	c.RemoveFromQueue(-1)

	assert.Equal(t, []string{"A", "B"}, idsOf(c.Snapshot().Queue))
}

func TestClearQueue_LeavesCurrentTrackPlaying(t *testing.T) {
	c, el := newTestController(t, nil)
	defer c.Close()
	playAt(c, el, tracksOf("A", "B", "C"), 1)

	c.ClearQueue()

	s := c.Snapshot()
	assert.Empty(t, s.Queue)
	assert.Empty(t, s.OriginalQueue)
	assert.Equal(t, 0, s.CurrentIndex)
	require.NotNil(t, s.CurrentTrack)
	assert.Equal(t, "B", s.CurrentTrack.ID)
	assert.True(t, s.IsPlaying)
	assert.Equal(t, StatePlaying, s.State())
	assert.Equal(t, 0, el.PauseCalls())

	c.PlayNext()
	assert.Equal(t, "B", c.Snapshot().CurrentTrack.ID)
}

func TestPlayList(t *testing.T) {
	tracks := tracksOf("a", "b", "c")
	tracks[1].ContentType = catalog.Podcast
	st := newFakeStore(tracks...)
	c, el := newTestController(t, st)
	defer c.Close()

	require.NoError(t, c.PlayList(t.Context(), catalog.Filter{ContentType: catalog.Music}, "c"))

	s := c.Snapshot()
	assert.Equal(t, []string{"a", "c"}, idsOf(s.Queue))
	assert.Equal(t, "c", s.CurrentTrack.ID)
	assert.Equal(t, []string{"/music/c.mp3"}, el.Sources())

	require.NoError(t, c.PlayList(t.Context(), catalog.Filter{}, ""))
	assert.Equal(t, "a", c.Snapshot().CurrentTrack.ID)
}

func TestPlayList_Errors(t *testing.T) {
	st := newFakeStore()
	c, el := newTestController(t, st)
	defer c.Close()

	err := c.PlayList(t.Context(), catalog.Filter{}, "")
	assert.ErrorIs(t, err, ErrNoTrack)

	st.tracksErr = errors.New("db down")
	err = c.PlayList(t.Context(), catalog.Filter{}, "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "db down")
	assert.Empty(t, el.Sources())
}

func TestSubscribe_ReceivesSnapshotsAndTrackChanges(t *testing.T) {
	c, el := newTestController(t, nil)
	sub := c.Subscribe()

	initial := <-sub.Changed
	assert.Equal(t, StateEmpty, initial.State())

	tracks := tracksOf("a", "b")
	playAt(c, el, tracks, 0)
	c.PlayNext()
	c.SetVolume(0.3)

	latest := <-sub.Changed
	assert.Equal(t, "b", latest.CurrentTrack.ID)
	assert.InDelta(t, 0.3, latest.Volume, 1e-9)

	first := <-sub.TrackChanged
	assert.Nil(t, first.Previous)
	assert.Equal(t, "a", first.Current.ID)
	second := <-sub.TrackChanged
	assert.Equal(t, "a", second.Previous.ID)
	assert.Equal(t, "b", second.Current.ID)
	assert.Equal(t, 1, second.Index)

	require.NoError(t, c.Close())
	<-sub.Done
	require.NoError(t, c.Close())

	late := c.Subscribe()
	<-late.Done
}

func TestClose_IgnoresLaterMediaEvents(t *testing.T) {
	c, el := newTestController(t, nil)
	playAt(c, el, tracksOf("a", "b"), 0)
	require.NoError(t, c.Close())

	el.SimulateEnded()

	assert.Equal(t, "a", c.Snapshot().CurrentTrack.ID)
	assert.False(t, el.Closed(), "the element belongs to its owner")
}

func TestMetrics_TrackStarted(t *testing.T) {
	m := newCountingMetrics()
	c, el := newTestController(t, nil, WithMetrics(m))
	defer c.Close()
	tracks := tracksOf("a", "b")
	tracks[1].ContentType = catalog.Podcast

	playAt(c, el, tracks, 0)
	c.PlayNext()

	assert.Equal(t, 1, m.started["music"])
	assert.Equal(t, 1, m.started["podcast"])
}
