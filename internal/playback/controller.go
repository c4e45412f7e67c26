// Package playback owns the playback session: the current track, the play
// queue, transport state and the side effects of track changes.
package playback

import (
	"context"
	"math"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/llehouerou/soundwave/internal/catalog"
	"github.com/llehouerou/soundwave/internal/media"
	"github.com/llehouerou/soundwave/internal/playlist"
)

var (
	ErrNoTrack = errors.New("playback: no current track")
	ErrNoUser  = errors.New("playback: no user")
)

const (
	DefaultVolume           = 0.7
	DefaultProgressInterval = 10 * time.Second
	DefaultRestartThreshold = 3 * time.Second
	DefaultPersistTimeout   = 5 * time.Second
)

// Persistence is the collaborator that stores track lists, favorites and
// listening history.
type Persistence interface {
	Tracks(ctx context.Context, filter catalog.Filter) ([]catalog.Track, error)
	IsFavorite(ctx context.Context, userID, trackID string) (bool, error)
	AddFavorite(ctx context.Context, userID, trackID string) error
	RemoveFavorite(ctx context.Context, userID, trackID string) error
	LogRecentlyPlayed(ctx context.Context, userID, trackID string, progressSeconds int) error
}

// Metrics receives playback counters.
type Metrics interface {
	TrackStarted(contentType string)
	PlayFailed()
	PersistFailed(op string)
}

type nopMetrics struct{}

func (nopMetrics) TrackStarted(string)  {}
func (nopMetrics) PlayFailed()          {}
func (nopMetrics) PersistFailed(string) {}

// Option configures a Controller.
type Option func(*Controller)

// WithLogger sets the controller's logger.
func WithLogger(l zerolog.Logger) Option {
	return func(c *Controller) { c.log = l }
}

// WithMetrics sets the metrics sink.
func WithMetrics(m Metrics) Option {
	return func(c *Controller) {
		if m != nil {
			c.metrics = m
		}
	}
}

// WithRand sets the random source used for shuffling.
func WithRand(r *rand.Rand) Option {
	return func(c *Controller) { c.queue.SetRand(r) }
}

// WithProgressInterval sets how often listening progress is persisted.
func WithProgressInterval(d time.Duration) Option {
	return func(c *Controller) { c.progressInterval = d }
}

// WithRestartThreshold sets the elapsed time past which PlayPrevious
// restarts the current track instead of moving back.
func WithRestartThreshold(d time.Duration) Option {
	return func(c *Controller) { c.restartThreshold = d }
}

// WithPersistTimeout bounds every fire-and-forget persistence call.
func WithPersistTimeout(d time.Duration) Option {
	return func(c *Controller) { c.persistTimeout = d }
}

// WithVolume sets the initial volume.
func WithVolume(v float64) Option {
	return func(c *Controller) { c.volume = media.ClampVolume(v) }
}

// WithShuffle sets the initial shuffle mode.
func WithShuffle(on bool) Option {
	return func(c *Controller) { c.queue.SetShuffle(on) }
}

// WithRepeatMode sets the initial repeat mode.
func WithRepeatMode(m RepeatMode) Option {
	return func(c *Controller) { c.queue.SetRepeatMode(m) }
}

// Controller drives the shared media element. A single mutex serialises
// commands and media events, so commands apply in the order they are issued
// and every subscriber sees each resulting snapshot.
type Controller struct {
	mu sync.Mutex

	el      media.Element
	store   Persistence
	log     zerolog.Logger
	metrics Metrics

	progressInterval time.Duration
	restartThreshold time.Duration
	persistTimeout   time.Duration

	queue         *playlist.PlayingQueue
	current       *catalog.Track
	playing       bool
	position      time.Duration
	duration      time.Duration
	durationKnown bool
	volume        float64
	favorite      bool
	user          *catalog.User

	load         uint64 // load ID of the current source; element events for other loads are ignored
	playGen      uint64 // bumped on every load, pause and play; stale Play callbacks are ignored
	favoriteGen  uint64 // bumped on every track or user change; stale lookups are ignored
	progressStop chan struct{}

	subs   []*Subscription
	wg     sync.WaitGroup
	closed bool
}

// New creates the controller for el. It takes over el's listener.
// el and p are required.
func New(el media.Element, p Persistence, opts ...Option) *Controller {
	if el == nil {
		panic("playback: nil media element")
	}
	if p == nil {
		panic("playback: nil persistence")
	}
	c := &Controller{
		el:               el,
		store:            p,
		log:              log.Logger,
		metrics:          nopMetrics{},
		progressInterval: DefaultProgressInterval,
		restartThreshold: DefaultRestartThreshold,
		persistTimeout:   DefaultPersistTimeout,
		queue:            playlist.NewQueue(),
		volume:           DefaultVolume,
	}
	for _, opt := range opts {
		opt(c)
	}
	el.SetVolume(c.volume)
	el.SetListener(elementListener{c})
	return c
}

// PlayTrack plays track. With a list, the list becomes the queue (shuffled
// if shuffle is on) positioned on track; without one, the queue is [track].
func (c *Controller) PlayTrack(track catalog.Track, list ...catalog.Track) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(list) == 0 {
		list = []catalog.Track{track}
	}
	c.queue.Replace(list, track.ID)
	c.loadLocked(track)
	c.publishLocked()
}

// PlayList fetches the tracks matching filter and plays the one with
// startID, or the first one if startID is empty or absent.
func (c *Controller) PlayList(ctx context.Context, filter catalog.Filter, startID string) error {
	tracks, err := c.store.Tracks(ctx, filter)
	if err != nil {
		return errors.Wrap(err, "fetch track list")
	}
	if len(tracks) == 0 {
		return errors.Wrap(ErrNoTrack, "empty track list")
	}
	start := tracks[max(catalog.IndexOf(tracks, startID), 0)]
	c.PlayTrack(start, tracks...)
	return nil
}

// PauseTrack pauses playback.
func (c *Controller) PauseTrack() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pauseLocked()
	c.publishLocked()
}

func (c *Controller) pauseLocked() {
	if c.current == nil {
		return
	}
	c.playGen++
	c.el.Pause()
	c.playing = false
	c.restartProgressLocked()
}

// ResumeTrack resumes playback. With nothing loaded it plays the queue's
// current track, if any.
func (c *Controller) ResumeTrack() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.resumeLocked()
	c.publishLocked()
}

func (c *Controller) resumeLocked() {
	if c.current == nil {
		if t := c.queue.Current(); t != nil {
			c.loadLocked(*t)
		}
		return
	}
	c.playing = true
	c.startPlayLocked()
	c.restartProgressLocked()
}

// TogglePlayPause pauses when playing and resumes otherwise.
func (c *Controller) TogglePlayPause() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.playing {
		c.pauseLocked()
	} else {
		c.resumeLocked()
	}
	c.publishLocked()
}

// PlayNext moves to the next track, wrapping only with RepeatAll.
// At the end of the queue it does nothing.
func (c *Controller) PlayNext() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.advanceLocked()
	c.publishLocked()
}

func (c *Controller) advanceLocked() bool {
	idx, ok := c.queue.NextIndex()
	if !ok {
		return false
	}
	c.loadLocked(*c.queue.JumpTo(idx))
	return true
}

// PlayPrevious restarts the current track when more than the restart
// threshold has elapsed, and otherwise moves back one track (wrapping only
// with RepeatAll, clamping to the first track otherwise).
func (c *Controller) PlayPrevious() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.queue.IsEmpty() {
		return
	}
	idx, ok := c.queue.PreviousIndex()
	if !ok {
		return
	}
	// Clamped at the first track, or far enough in: rewind what is loaded.
	if c.current != nil && (idx == c.queue.CurrentIndex() || c.el.CurrentTime() > c.restartThreshold) {
		c.el.SetCurrentTime(0)
		c.position = 0
		c.publishLocked()
		return
	}
	c.loadLocked(*c.queue.JumpTo(idx))
	c.publishLocked()
}

// SeekTo moves the playback position, clamped to [0, duration] once the
// duration is known.
func (c *Controller) SeekTo(position time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.current == nil {
		return
	}
	position = max(position, 0)
	if c.durationKnown {
		position = min(position, c.duration)
	}
	c.el.SetCurrentTime(position)
	c.position = position
	c.publishLocked()
}

// SetVolume sets the output volume, clamped to [0, 1]. NaN is ignored.
func (c *Controller) SetVolume(v float64) {
	if math.IsNaN(v) {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.volume = media.ClampVolume(v)
	c.el.SetVolume(c.volume)
	c.publishLocked()
}

// ToggleShuffle flips shuffle. The current track never moves: enabling puts
// it first, disabling restores the original order around it.
func (c *Controller) ToggleShuffle() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.queue.ToggleShuffle()
	c.publishLocked()
}

// SetShuffle enables or disables shuffle.
func (c *Controller) SetShuffle(on bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.queue.SetShuffle(on)
	c.publishLocked()
}

// ToggleRepeat cycles off → all → one → off.
func (c *Controller) ToggleRepeat() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.queue.CycleRepeatMode()
	c.publishLocked()
}

// SetRepeatMode sets the repeat mode.
func (c *Controller) SetRepeatMode(m RepeatMode) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.queue.SetRepeatMode(m)
	c.publishLocked()
}

// AddToQueue appends tracks without changing the current position.
func (c *Controller) AddToQueue(tracks ...catalog.Track) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.queue.Add(tracks...)
	c.publishLocked()
}

// RemoveFromQueue removes the entry at index.
//
// Removing an earlier entry keeps the position on the same track. Removing
// the current entry plays the track that takes its place; when it was the
// last one and nothing follows, playback stops. Removing the only entry
// empties the queue and, like ClearQueue, leaves the current track alone.
func (c *Controller) RemoveFromQueue(index int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	res := c.queue.RemoveAt(index)
	if !res.Removed {
		return
	}
	switch {
	case !res.CurrentRemoved, c.queue.IsEmpty():
	case res.Successor:
		c.loadLocked(*c.queue.Current())
	default:
		c.pauseLocked()
	}
	c.publishLocked()
}

// ClearQueue empties the queue. The current track keeps playing.
func (c *Controller) ClearQueue() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.queue.Clear()
	c.publishLocked()
}

// SetUser sets the listener on whose behalf favorites and history are
// recorded. Nil signs out.
func (c *Controller) SetUser(u *catalog.User) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if u != nil {
		cp := *u
		u = &cp
	}
	c.user = u
	c.refreshFavoriteLocked()
	c.restartProgressLocked()
	c.publishLocked()
}

// Snapshot returns the current session.
func (c *Controller) Snapshot() Session {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

// Subscribe creates a new event subscription. The current session is
// available on Changed immediately.
func (c *Controller) Subscribe() *Subscription {
	c.mu.Lock()
	defer c.mu.Unlock()
	sub := newSubscription()
	if c.closed {
		sub.close()
		return sub
	}
	sub.sendSession(c.snapshotLocked())
	c.subs = append(c.subs, sub)
	return sub
}

// Close stops background work and ends every subscription. It waits for
// in-flight persistence calls. The media element is left to its owner.
func (c *Controller) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	c.playGen++
	c.favoriteGen++
	c.stopProgressLocked()
	for _, sub := range c.subs {
		sub.close()
	}
	c.subs = nil
	c.mu.Unlock()

	c.wg.Wait()
	return nil
}

// loadLocked makes track current, starts loading its media and plays it.
func (c *Controller) loadLocked(track catalog.Track) {
	prev := c.current
	c.current = &track
	c.position = 0
	c.duration = 0
	c.durationKnown = false
	c.playing = true

	c.load = c.el.SetSource(track.MediaURL)
	c.startPlayLocked()

	c.log.Debug().Str("track_id", track.ID).Str("source", track.MediaURL).Msg("load track")
	c.metrics.TrackStarted(string(track.ContentType))
	c.logRecentlyPlayedLocked(track.ID, 0)
	c.refreshFavoriteLocked()
	c.restartProgressLocked()

	e := TrackChange{Previous: prev, Current: copyTrack(c.current), Index: c.queue.CurrentIndex()}
	for _, sub := range c.subs {
		sub.sendTrack(e)
	}
}

// startPlayLocked asks the element to play. Only the latest request may
// change the playing flag when it resolves.
func (c *Controller) startPlayLocked() {
	c.playGen++
	gen := c.playGen
	trackID := c.current.ID
	c.el.Play(func(err error) {
		c.playResolved(gen, trackID, err)
	})
}

func (c *Controller) playResolved(gen uint64, trackID string, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.playGen || c.closed {
		if err != nil {
			c.log.Debug().Err(err).Str("track_id", trackID).Msg("stale play result")
		}
		return
	}
	if err == nil {
		return
	}
	c.log.Error().Err(err).Str("op", "play").Str("track_id", trackID).Msg("play failed")
	c.metrics.PlayFailed()
	c.playing = false
	c.restartProgressLocked()
	c.emitErrorLocked("play", trackID, err)
	c.publishLocked()
}

func (c *Controller) timeUpdated(position time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed || c.current == nil {
		return
	}
	c.position = position
	c.publishLocked()
}

func (c *Controller) metadataLoaded(load uint64, duration time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed || c.current == nil {
		return
	}
	if load != c.load {
		c.log.Debug().Uint64("load", load).Msg("stale metadata")
		return
	}
	c.duration = duration
	c.durationKnown = true
	c.publishLocked()
}

// ended handles the natural end of the current track.
func (c *Controller) ended(load uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed || c.current == nil {
		return
	}
	if load != c.load {
		c.log.Debug().Uint64("load", load).Msg("stale end of track")
		return
	}
	switch {
	case c.queue.RepeatMode() == RepeatOne:
		c.el.SetCurrentTime(0)
		c.position = 0
		c.playing = true
		c.startPlayLocked()
	case c.advanceLocked():
	default:
		c.el.SetCurrentTime(0)
		c.position = 0
		c.playing = false
		c.restartProgressLocked()
	}
	c.publishLocked()
}

func (c *Controller) emitErrorLocked(op, trackID string, err error) {
	e := ErrorEvent{Operation: op, TrackID: trackID, Err: err}
	for _, sub := range c.subs {
		sub.sendError(e)
	}
}

func (c *Controller) publishLocked() {
	if len(c.subs) == 0 {
		return
	}
	s := c.snapshotLocked()
	for _, sub := range c.subs {
		sub.sendSession(s)
	}
}

func (c *Controller) snapshotLocked() Session {
	s := Session{
		CurrentTrack:  copyTrack(c.current),
		Queue:         c.queue.Tracks(),
		OriginalQueue: c.queue.Original(),
		CurrentIndex:  c.queue.CurrentIndex(),
		IsPlaying:     c.playing,
		CurrentTime:   c.position,
		Duration:      UnknownDuration,
		Volume:        c.volume,
		Shuffle:       c.queue.Shuffle(),
		RepeatMode:    c.queue.RepeatMode(),
		IsFavorite:    c.favorite,
	}
	if c.durationKnown {
		s.Duration = c.duration
	}
	return s
}

func copyTrack(t *catalog.Track) *catalog.Track {
	if t == nil {
		return nil
	}
	cp := *t
	return &cp
}

// elementListener keeps the listener methods off the controller's API.
type elementListener struct {
	c *Controller
}

func (l elementListener) TimeUpdated(position time.Duration) { l.c.timeUpdated(position) }
func (l elementListener) MetadataLoaded(load uint64, duration time.Duration) {
	l.c.metadataLoaded(load, duration)
}
func (l elementListener) Ended(load uint64) { l.c.ended(load) }
