package visualizer

import "github.com/lucasb-eyer/go-colorful"

// Bar is one column of a frame. Height is a fraction of the frame height.
type Bar struct {
	X      int
	Width  int
	Height float64
	// Stops are the bottom, middle and top gradient colours. Idle bars use
	// the same colour for all three.
	Stops [3]colorful.Color
}

// Frame is one rendered picture.
type Frame struct {
	Width  int
	Height int
	Bars   []Bar
	Idle   bool
}

// Surface displays frames.
type Surface interface {
	Draw(f Frame)
}

// ColorProvider resolves named theme colours at draw time.
type ColorProvider interface {
	Resolve(name string) colorful.Color
}

// Colour names read by the renderer.
const (
	ColorPrimary = "primary"
	ColorChart2  = "chart-2"
	ColorChart3  = "chart-3"
	ColorMuted   = "muted"
)

// barSlots splits width into at most count columns, keeping a gap of a
// fifth of each slot between bars when there is room for one.
func barSlots(width, count int) []Bar {
	n := min(count, width)
	if n <= 0 {
		return nil
	}
	bars := make([]Bar, n)
	for i := range bars {
		x0 := i * width / n
		x1 := (i + 1) * width / n
		slot := x1 - x0
		gap := (slot + 2) / 5
		if slot-gap < 1 {
			gap = 0
		}
		bars[i] = Bar{X: x0 + gap/2, Width: slot - gap}
	}
	return bars
}
