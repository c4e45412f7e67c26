package visualizer

import (
	"math"
	"math/cmplx"
	"sync"

	"github.com/cockroachdb/errors"
	"gonum.org/v1/gonum/dsp/fourier"
)

const (
	minDecibels = -100.0
	maxDecibels = -30.0
)

// Analyser turns the most recent output samples into a smoothed byte
// spectrum. It is a media.SampleSink.
type Analyser struct {
	mu   sync.Mutex
	ring []float64
	pos  int

	specMu    sync.Mutex
	size      int
	window    []float64
	frame     []float64
	fft       *fourier.FFT
	coeffs    []complex128
	smoothing float64
	smoothed  []float64
}

// NewAnalyser creates an analyser over fftSize samples. fftSize must be a
// power of two in [32, 32768]; smoothing is clamped to [0, 1].
func NewAnalyser(fftSize int, smoothing float64) (*Analyser, error) {
	if fftSize < 32 || fftSize > 32768 || fftSize&(fftSize-1) != 0 {
		return nil, errors.Newf("visualizer: fft size %d is not a power of two in [32, 32768]", fftSize)
	}
	return &Analyser{
		ring:      make([]float64, fftSize),
		size:      fftSize,
		window:    blackman(fftSize),
		frame:     make([]float64, fftSize),
		fft:       fourier.NewFFT(fftSize),
		smoothing: min(max(smoothing, 0), 1),
		smoothed:  make([]float64, fftSize/2),
	}, nil
}

// blackman returns the Blackman window used by browser analysers.
func blackman(n int) []float64 {
	const a0, a1, a2 = 0.42, 0.5, 0.08
	w := make([]float64, n)
	for i := range w {
		x := 2 * math.Pi * float64(i) / float64(n)
		w[i] = a0 - a1*math.Cos(x) + a2*math.Cos(2*x)
	}
	return w
}

// WriteSamples stores a mono mix of samples.
func (a *Analyser) WriteSamples(samples [][2]float64) {
	a.mu.Lock()
	for _, s := range samples {
		a.ring[a.pos] = (s[0] + s[1]) / 2
		a.pos = (a.pos + 1) % len(a.ring)
	}
	a.mu.Unlock()
}

// FrequencyBinCount returns the number of values ByteFrequencyData fills.
func (a *Analyser) FrequencyBinCount() int {
	return a.size / 2
}

// ByteFrequencyData fills dst with the current spectrum, one byte per bin,
// mapping [-100, -30] dB linearly onto [0, 255].
func (a *Analyser) ByteFrequencyData(dst []byte) {
	a.specMu.Lock()
	defer a.specMu.Unlock()

	a.mu.Lock()
	n := copy(a.frame, a.ring[a.pos:])
	copy(a.frame[n:], a.ring[:a.pos])
	a.mu.Unlock()

	for i := range a.frame {
		a.frame[i] *= a.window[i]
	}
	a.coeffs = a.fft.Coefficients(a.coeffs, a.frame)

	scale := 1 / float64(a.size)
	for k := range a.smoothed {
		mag := cmplx.Abs(a.coeffs[k]) * scale
		a.smoothed[k] = a.smoothing*a.smoothed[k] + (1-a.smoothing)*mag
		if k < len(dst) {
			dst[k] = toByte(a.smoothed[k])
		}
	}
}

func toByte(mag float64) byte {
	if mag <= 0 {
		return 0
	}
	db := 20 * math.Log10(mag)
	v := 255 * (db - minDecibels) / (maxDecibels - minDecibels)
	switch {
	case v <= 0:
		return 0
	case v >= 255:
		return 255
	default:
		return byte(v)
	}
}
