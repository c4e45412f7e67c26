package media

import (
	"context"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/effects"
	"github.com/gopxl/beep/v2/speaker"
	"github.com/rs/zerolog"
)

// SampleRate is the rate the output device is opened at. Sources at other
// rates are resampled.
const SampleRate beep.SampleRate = 44100

const (
	resampleQuality = 4
	timeUpdateEvery = 250 * time.Millisecond
)

var (
	speakerOnce sync.Once
	speakerErr  error
)

func initSpeaker() error {
	speakerOnce.Do(func() {
		speakerErr = speaker.Init(SampleRate, SampleRate.N(time.Second/10))
	})
	return speakerErr
}

// Speaker is the Element backed by the system audio device.
type Speaker struct {
	fetcher *Fetcher
	log     zerolog.Logger

	mu       sync.Mutex
	listener Listener
	src      string
	gen      uint64
	closed   bool

	streamer  beep.StreamSeekCloser
	format    beep.Format
	ctrl      *beep.Ctrl
	vol       *effects.Volume
	loaded    bool
	queued    bool // ctrl is currently mixed by the speaker
	duration  time.Duration
	seekTo    time.Duration // position requested before the source loaded
	paused    bool
	wantPlay  bool
	pending   []func(error)
	volume    float64
	taps      *tapSet
	stopTicks chan struct{}
}

// SpeakerOption configures a Speaker.
type SpeakerOption func(*Speaker)

// WithFetcher sets the fetcher used to resolve sources.
func WithFetcher(f *Fetcher) SpeakerOption {
	return func(s *Speaker) { s.fetcher = f }
}

// WithLogger sets the speaker's logger.
func WithLogger(l zerolog.Logger) SpeakerOption {
	return func(s *Speaker) { s.log = l }
}

// NewSpeaker opens the audio device and returns an idle element.
func NewSpeaker(opts ...SpeakerOption) (*Speaker, error) {
	if err := initSpeaker(); err != nil {
		return nil, errors.Mark(errors.Wrap(err, "init speaker"), ErrUnavailable)
	}
	s := &Speaker{
		fetcher:   NewFetcher(),
		log:       zerolog.Nop(),
		paused:    true,
		volume:    1,
		taps:      newTapSet(),
		stopTicks: make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	go s.tick()
	return s, nil
}

func (s *Speaker) SetListener(l Listener) {
	s.mu.Lock()
	s.listener = l
	s.mu.Unlock()
}

func (s *Speaker) Source() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.src
}

func (s *Speaker) SetSource(locator string) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return s.gen
	}

	s.gen++
	s.unloadLocked()
	s.resolveLocked(ErrInterrupted)
	s.src = locator
	s.paused = true
	s.wantPlay = false
	s.seekTo = 0
	if locator != "" {
		go s.load(s.gen, locator)
	}
	return s.gen
}

func (s *Speaker) load(gen uint64, locator string) {
	payload, err := s.fetcher.Fetch(context.Background(), locator)
	var (
		streamer beep.StreamSeekCloser
		format   beep.Format
	)
	if err == nil {
		streamer, format, err = decode(payload.Data, payload.Format)
	}

	s.mu.Lock()
	if gen != s.gen || s.closed {
		s.mu.Unlock()
		if streamer != nil {
			_ = streamer.Close()
		}
		return
	}
	if err != nil {
		s.log.Error().Err(err).Str("source", locator).Msg("load source")
		s.wantPlay = false
		s.resolveLocked(err)
		s.mu.Unlock()
		return
	}

	s.streamer = streamer
	s.format = format
	s.loaded = true
	s.duration = format.SampleRate.D(streamer.Len())
	if s.seekTo > 0 {
		s.seekLocked(s.seekTo)
	}
	if s.wantPlay {
		s.startLocked()
	}
	l, d := s.listener, s.duration
	s.mu.Unlock()

	if l != nil {
		l.MetadataLoaded(gen, d)
	}
}

// startLocked queues the stream if needed and unpauses it. Pending Play
// callbacks are resolved.
func (s *Speaker) startLocked() {
	if !s.queued {
		if s.streamer.Position() >= s.streamer.Len() {
			s.seekLocked(0)
		}
		s.queueLocked()
	}
	speaker.Lock()
	s.ctrl.Paused = false
	speaker.Unlock()
	s.paused = false
	s.wantPlay = false
	s.resolveLocked(nil)
}

func (s *Speaker) queueLocked() {
	var src beep.Streamer = s.streamer
	if s.format.SampleRate != SampleRate {
		src = beep.Resample(resampleQuality, s.format.SampleRate, SampleRate, s.streamer)
	}
	gen := s.gen
	s.ctrl = &beep.Ctrl{
		Streamer: beep.Seq(src, beep.Callback(func() {
			// Runs under the speaker lock.
			go s.ended(gen)
		})),
		Paused: true,
	}
	s.vol = &effects.Volume{
		Streamer: s.ctrl,
		Base:     2,
		Volume:   levelToVolume(s.volume),
		Silent:   s.volume <= 0,
	}
	s.queued = true
	speaker.Play(&tapStreamer{s: s.vol, taps: s.taps})
}

func (s *Speaker) ended(gen uint64) {
	s.mu.Lock()
	if gen != s.gen || !s.queued {
		s.mu.Unlock()
		return
	}
	s.queued = false
	s.paused = true
	l := s.listener
	s.mu.Unlock()

	if l != nil {
		l.Ended(gen)
	}
}

func (s *Speaker) Play(done func(error)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch {
	case s.closed:
		go done(ErrClosed)
	case s.src == "":
		go done(ErrNoSource)
	case !s.loaded:
		s.wantPlay = true
		s.pending = append(s.pending, done)
	default:
		s.pending = append(s.pending, done)
		s.startLocked()
	}
}

func (s *Speaker) Pause() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.wantPlay = false
	s.resolveLocked(ErrInterrupted)
	s.paused = true
	if s.ctrl != nil {
		speaker.Lock()
		s.ctrl.Paused = true
		speaker.Unlock()
	}
}

func (s *Speaker) Paused() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.paused
}

func (s *Speaker) SetCurrentTime(position time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if position < 0 {
		position = 0
	}
	if !s.loaded {
		s.seekTo = position
		return
	}
	s.seekLocked(position)
}

func (s *Speaker) seekLocked(position time.Duration) {
	n := min(s.format.SampleRate.N(position), s.streamer.Len())
	speaker.Lock()
	err := s.streamer.Seek(n)
	speaker.Unlock()
	if err != nil {
		s.log.Warn().Err(err).Dur("position", position).Msg("seek")
	}
}

func (s *Speaker) CurrentTime() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.loaded {
		return s.seekTo
	}
	speaker.Lock()
	pos := s.format.SampleRate.D(s.streamer.Position())
	speaker.Unlock()
	return pos
}

func (s *Speaker) Duration() (time.Duration, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.duration, s.loaded
}

func (s *Speaker) SetVolume(level float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.volume = ClampVolume(level)
	if s.vol != nil {
		speaker.Lock()
		s.vol.Volume = levelToVolume(s.volume)
		s.vol.Silent = s.volume <= 0
		speaker.Unlock()
	}
}

func (s *Speaker) Volume() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.volume
}

func (s *Speaker) AttachTap(sink SampleSink) (func(), error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, ErrClosed
	}
	return s.taps.add(sink), nil
}

func (s *Speaker) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	s.gen++
	s.unloadLocked()
	s.resolveLocked(ErrClosed)
	close(s.stopTicks)
	return nil
}

func (s *Speaker) unloadLocked() {
	if s.ctrl != nil {
		speaker.Clear()
		s.ctrl = nil
		s.vol = nil
	}
	if s.streamer != nil {
		_ = s.streamer.Close()
		s.streamer = nil
	}
	s.loaded = false
	s.queued = false
	s.duration = 0
}

func (s *Speaker) resolveLocked(err error) {
	pending := s.pending
	s.pending = nil
	for _, done := range pending {
		go done(err)
	}
}

func (s *Speaker) tick() {
	t := time.NewTicker(timeUpdateEvery)
	defer t.Stop()
	for {
		select {
		case <-s.stopTicks:
			return
		case <-t.C:
		}
		s.mu.Lock()
		if s.paused || !s.loaded || s.listener == nil {
			s.mu.Unlock()
			continue
		}
		l := s.listener
		speaker.Lock()
		pos := s.format.SampleRate.D(s.streamer.Position())
		speaker.Unlock()
		s.mu.Unlock()
		l.TimeUpdated(pos)
	}
}

var _ Element = (*Speaker)(nil)
