package media

import (
	"sync"
	"time"
)

// Mock is a test double for Element. Play callbacks stay pending until the
// test resolves them with ResolvePlays, unless auto-play is enabled.
// Simulate* calls invoke the listener on the caller's goroutine.
type Mock struct {
	mu          sync.Mutex
	listener    Listener
	src         string
	load        uint64
	sources     []string
	paused      bool
	position    time.Duration
	duration    time.Duration
	hasDuration bool
	volume      float64
	pending     []func(error)
	autoPlay    bool
	playCalls   int
	pauseCalls  int
	seeks       []time.Duration
	taps        *tapSet
	attachCalls int
	tapErr      error
	closed      bool
}

// NewMock creates a paused mock with no source at full volume.
func NewMock() *Mock {
	return &Mock{paused: true, volume: 1, taps: newTapSet()}
}

func (m *Mock) SetListener(l Listener) {
	m.mu.Lock()
	m.listener = l
	m.mu.Unlock()
}

func (m *Mock) SetSource(locator string) uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.load++
	m.src = locator
	m.sources = append(m.sources, locator)
	m.paused = true
	m.position = 0
	m.duration = 0
	m.hasDuration = false
	m.rejectLocked(ErrInterrupted)
	return m.load
}

// Load returns the ID of the latest SetSource call.
func (m *Mock) Load() uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.load
}

func (m *Mock) Source() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.src
}

func (m *Mock) Play(done func(error)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.playCalls++
	if m.src == "" {
		go done(ErrNoSource)
		return
	}
	m.paused = false
	if m.autoPlay {
		go done(nil)
		return
	}
	m.pending = append(m.pending, done)
}

func (m *Mock) Pause() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pauseCalls++
	m.paused = true
	m.rejectLocked(ErrInterrupted)
}

func (m *Mock) Paused() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.paused
}

func (m *Mock) SetCurrentTime(position time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seeks = append(m.seeks, position)
	position = max(position, 0)
	if m.hasDuration {
		position = min(position, m.duration)
	}
	m.position = position
}

func (m *Mock) CurrentTime() time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.position
}

func (m *Mock) Duration() (time.Duration, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.duration, m.hasDuration
}

func (m *Mock) SetVolume(level float64) {
	m.mu.Lock()
	m.volume = ClampVolume(level)
	m.mu.Unlock()
}

func (m *Mock) Volume() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.volume
}

func (m *Mock) AttachTap(sink SampleSink) (func(), error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.attachCalls++
	if m.tapErr != nil {
		return nil, m.tapErr
	}
	return m.taps.add(sink), nil
}

func (m *Mock) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	m.rejectLocked(ErrClosed)
	return nil
}

// rejectLocked fails pending plays asynchronously, as a real element would.
func (m *Mock) rejectLocked(err error) {
	for _, done := range m.pending {
		go done(err)
	}
	m.pending = nil
}

// SetAutoPlay makes Play resolve successfully on its own goroutine.
func (m *Mock) SetAutoPlay(on bool) {
	m.mu.Lock()
	m.autoPlay = on
	m.mu.Unlock()
}

// ResolvePlays completes every pending Play with err on the caller's
// goroutine and returns how many were pending. A non-nil err pauses the mock.
func (m *Mock) ResolvePlays(err error) int {
	m.mu.Lock()
	pending := m.pending
	m.pending = nil
	if err != nil {
		m.paused = true
	}
	m.mu.Unlock()

	for _, done := range pending {
		done(err)
	}
	return len(pending)
}

// PendingPlays returns the number of unresolved Play calls.
func (m *Mock) PendingPlays() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.pending)
}

// SimulateTime moves the clock and emits a time update.
func (m *Mock) SimulateTime(position time.Duration) {
	m.mu.Lock()
	m.position = position
	l := m.listener
	m.mu.Unlock()
	if l != nil {
		l.TimeUpdated(position)
	}
}

// SimulateMetadata makes the duration known and emits metadata-loaded.
func (m *Mock) SimulateMetadata(duration time.Duration) {
	m.mu.Lock()
	m.duration = duration
	m.hasDuration = true
	l, load := m.listener, m.load
	m.mu.Unlock()
	if l != nil {
		l.MetadataLoaded(load, duration)
	}
}

// SimulateEnded pauses at the end of the source and emits ended.
func (m *Mock) SimulateEnded() {
	m.mu.Lock()
	m.paused = true
	if m.hasDuration {
		m.position = m.duration
	}
	l, load := m.listener, m.load
	m.mu.Unlock()
	if l != nil {
		l.Ended(load)
	}
}

// SimulateLateEvents emits metadata-loaded and ended for an earlier load
// without touching the mock's state, as a slow decoder would.
func (m *Mock) SimulateLateEvents(load uint64, duration time.Duration) {
	m.mu.Lock()
	l := m.listener
	m.mu.Unlock()
	if l != nil {
		l.MetadataLoaded(load, duration)
		l.Ended(load)
	}
}

// PushSamples feeds samples to the attached taps.
func (m *Mock) PushSamples(samples [][2]float64) {
	m.taps.write(samples)
}

// SetTapError makes subsequent AttachTap calls fail with err.
func (m *Mock) SetTapError(err error) {
	m.mu.Lock()
	m.tapErr = err
	m.mu.Unlock()
}

// Sources returns every locator passed to SetSource, in order.
func (m *Mock) Sources() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.sources...)
}

// PlayCalls returns the number of Play calls.
func (m *Mock) PlayCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.playCalls
}

// PauseCalls returns the number of Pause calls.
func (m *Mock) PauseCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.pauseCalls
}

// Seeks returns every position passed to SetCurrentTime, unclamped.
func (m *Mock) Seeks() []time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]time.Duration(nil), m.seeks...)
}

// AttachCalls returns the number of AttachTap calls, failed ones included.
func (m *Mock) AttachCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.attachCalls
}

// TapCount returns the number of currently attached taps.
func (m *Mock) TapCount() int {
	return m.taps.len()
}

// Closed reports whether Close was called.
func (m *Mock) Closed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}

var _ Element = (*Mock)(nil)
