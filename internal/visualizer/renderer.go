// Package visualizer draws a frequency bar graph of the audio that is
// currently playing.
package visualizer

import (
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/lucasb-eyer/go-colorful"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/llehouerou/soundwave/internal/media"
)

var ErrNotBound = errors.New("visualizer: not bound")

// Source is the view of the media element the renderer needs. It has no
// transport operations.
type Source interface {
	Paused() bool
	AttachTap(sink media.SampleSink) (detach func(), err error)
}

// Options tune the renderer.
type Options struct {
	Bars       int
	FPS        int
	FFTSize    int
	Smoothing  float64
	Span       float64 // fraction of the spectrum spread across the bars
	MinHeight  float64
	IdleHeight float64
}

// DefaultOptions returns the stock renderer settings.
func DefaultOptions() Options {
	return Options{
		Bars:       48,
		FPS:        60,
		FFTSize:    256,
		Smoothing:  0.8,
		Span:       0.6,
		MinHeight:  0.05,
		IdleHeight: 0.1,
	}
}

// Option configures a Renderer.
type Option func(*Renderer)

// WithOptions replaces the renderer settings.
func WithOptions(o Options) Option {
	return func(r *Renderer) { r.opts = o }
}

// WithLogger sets the renderer's logger.
func WithLogger(l zerolog.Logger) Option {
	return func(r *Renderer) { r.log = l }
}

// Renderer samples the bound source and draws frames on a surface: bar
// graphs while the source plays, a single static frame otherwise.
type Renderer struct {
	surface Surface
	colors  ColorProvider
	opts    Options
	log     zerolog.Logger

	mu        sync.Mutex
	src       Source
	analyser  *Analyser
	detach    func()
	stop      chan struct{}
	done      chan struct{}
	width     int
	height    int
	idleDrawn bool
	idleColor colorful.Color // muted colour of the last idle frame
	bins      []byte
}

// New creates an unbound renderer.
func New(surface Surface, colors ColorProvider, opts ...Option) *Renderer {
	r := &Renderer{
		surface: surface,
		colors:  colors,
		opts:    DefaultOptions(),
		log:     log.Logger,
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.opts.FPS <= 0 {
		r.opts.FPS = DefaultOptions().FPS
	}
	return r
}

// Bind attaches the renderer to src and starts the render loop. Binding
// the source that is already bound does nothing; binding another one
// unbinds the previous one first.
//
// When the analysis tap cannot be attached the error is logged and
// returned, and the renderer keeps drawing idle frames. A later Bind of the
// same source retries the attachment.
func (r *Renderer) Bind(src Source) error {
	if src == nil {
		return errors.New("visualizer: nil source")
	}
	r.mu.Lock()
	if r.src == src {
		if r.analyser != nil {
			r.mu.Unlock()
			return nil
		}
		err := r.attachLocked()
		r.mu.Unlock()
		return err
	}
	stopped := r.unbindLocked()
	r.mu.Unlock()
	waitDone(stopped)

	r.mu.Lock()
	defer r.mu.Unlock()
	r.src = src
	r.idleDrawn = false
	err := r.attachLocked()

	r.stop = make(chan struct{})
	r.done = make(chan struct{})
	go r.loop(r.stop, r.done)
	return err
}

func (r *Renderer) attachLocked() error {
	a, err := NewAnalyser(r.opts.FFTSize, r.opts.Smoothing)
	if err != nil {
		r.log.Error().Err(err).Msg("create analyser")
		return err
	}
	detach, err := r.src.AttachTap(a)
	if err != nil {
		err = errors.Wrap(err, "attach analyser")
		r.log.Error().Err(err).Msg("visualizer stays idle")
		return err
	}
	r.analyser = a
	r.detach = detach
	r.bins = make([]byte, a.FrequencyBinCount())
	return nil
}

// Unbind stops the render loop and detaches the analyser. It returns
// ErrNotBound when nothing is bound.
func (r *Renderer) Unbind() error {
	r.mu.Lock()
	if r.src == nil {
		r.mu.Unlock()
		return ErrNotBound
	}
	stopped := r.unbindLocked()
	r.mu.Unlock()
	waitDone(stopped)
	return nil
}

// unbindLocked releases the graph and signals the loop; it returns the
// loop's done channel, which must be waited on without holding r.mu.
func (r *Renderer) unbindLocked() chan struct{} {
	if r.src == nil {
		return nil
	}
	if r.detach != nil {
		r.detach()
	}
	close(r.stop)
	done := r.done
	r.src = nil
	r.analyser = nil
	r.detach = nil
	r.bins = nil
	r.stop = nil
	r.done = nil
	return done
}

func waitDone(done chan struct{}) {
	if done != nil {
		<-done
	}
}

// Resize sets the drawing area in cells. Geometry is recomputed on the next
// frame; a zero size draws nothing.
func (r *Renderer) Resize(width, height int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if width == r.width && height == r.height {
		return
	}
	r.width = max(width, 0)
	r.height = max(height, 0)
	r.idleDrawn = false
}

// Graphs returns the number of live analysis graphs: 1 while bound with an
// attached analyser, 0 otherwise.
func (r *Renderer) Graphs() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.analyser != nil {
		return 1
	}
	return 0
}

func (r *Renderer) loop(stop, done chan struct{}) {
	defer close(done)
	ticker := time.NewTicker(time.Second / time.Duration(r.opts.FPS))
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
		}
		if f, ok := r.nextFrame(stop); ok {
			r.surface.Draw(f)
		}
	}
}

// nextFrame builds the frame for this tick, if one should be drawn.
func (r *Renderer) nextFrame(stop chan struct{}) (Frame, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.stop != stop || r.width == 0 || r.height == 0 {
		return Frame{}, false
	}
	if r.analyser == nil || r.src.Paused() {
		muted := r.colors.Resolve(ColorMuted)
		if r.idleDrawn && muted == r.idleColor {
			return Frame{}, false
		}
		r.idleDrawn = true
		r.idleColor = muted
		return r.idleFrameLocked(muted), true
	}
	r.idleDrawn = false
	return r.liveFrameLocked(), true
}

func (r *Renderer) liveFrameLocked() Frame {
	r.analyser.ByteFrequencyData(r.bins)
	stops := [3]colorful.Color{
		r.colors.Resolve(ColorPrimary),
		r.colors.Resolve(ColorChart2),
		r.colors.Resolve(ColorChart3),
	}
	bars := barSlots(r.width, r.opts.Bars)
	span := float64(len(r.bins)) * r.opts.Span
	for i := range bars {
		idx := min(int(float64(i)/float64(len(bars))*span), len(r.bins)-1)
		v := float64(r.bins[idx]) / 255
		bars[i].Height = max(r.opts.MinHeight, v)
		bars[i].Stops = stops
	}
	return Frame{Width: r.width, Height: r.height, Bars: bars}
}

func (r *Renderer) idleFrameLocked(muted colorful.Color) Frame {
	bars := barSlots(r.width, r.opts.Bars)
	for i := range bars {
		bars[i].Height = r.opts.IdleHeight
		bars[i].Stops = [3]colorful.Color{muted, muted, muted}
	}
	return Frame{Width: r.width, Height: r.height, Bars: bars, Idle: true}
}
