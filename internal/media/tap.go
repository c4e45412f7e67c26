package media

import (
	"sync"

	"github.com/gopxl/beep/v2"
)

// tapSet fans the output samples out to the attached sinks.
type tapSet struct {
	mu    sync.Mutex
	sinks map[int]SampleSink
	next  int
}

func newTapSet() *tapSet {
	return &tapSet{sinks: make(map[int]SampleSink)}
}

func (t *tapSet) add(sink SampleSink) func() {
	t.mu.Lock()
	id := t.next
	t.next++
	t.sinks[id] = sink
	t.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			t.mu.Lock()
			delete(t.sinks, id)
			t.mu.Unlock()
		})
	}
}

func (t *tapSet) len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.sinks)
}

func (t *tapSet) write(samples [][2]float64) {
	t.mu.Lock()
	if len(t.sinks) == 0 {
		t.mu.Unlock()
		return
	}
	sinks := make([]SampleSink, 0, len(t.sinks))
	for _, s := range t.sinks {
		sinks = append(sinks, s)
	}
	t.mu.Unlock()

	for _, s := range sinks {
		s.WriteSamples(samples)
	}
}

// tapStreamer passes audio through unchanged while copying it to the taps.
type tapStreamer struct {
	s    beep.Streamer
	taps *tapSet
}

func (ts *tapStreamer) Stream(samples [][2]float64) (int, bool) {
	n, ok := ts.s.Stream(samples)
	if n > 0 {
		ts.taps.write(samples[:n])
	}
	return n, ok
}

func (ts *tapStreamer) Err() error {
	return ts.s.Err()
}
