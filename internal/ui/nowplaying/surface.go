package nowplaying

import (
	"strings"
	"sync"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/llehouerou/soundwave/internal/theme"
	"github.com/llehouerou/soundwave/internal/visualizer"
)

// partialBlocks index eighths of a cell.
var partialBlocks = [8]string{"", "▁", "▂", "▃", "▄", "▅", "▆", "▇"}

const fullBlock = "█"

// Surface keeps the latest visualizer frame for the view and wakes the
// program when a new one arrives.
type Surface struct {
	mu    sync.Mutex
	frame visualizer.Frame
	ready chan struct{}
}

// NewSurface creates an empty surface.
func NewSurface() *Surface {
	return &Surface{ready: make(chan struct{}, 1)}
}

// Draw stores f. It never blocks the render loop.
func (s *Surface) Draw(f visualizer.Frame) {
	s.mu.Lock()
	s.frame = f
	s.mu.Unlock()
	select {
	case s.ready <- struct{}{}:
	default:
	}
}

// Frame returns the last drawn frame.
func (s *Surface) Frame() visualizer.Frame {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.frame
}

// Clear forgets the last frame.
func (s *Surface) Clear() {
	s.mu.Lock()
	s.frame = visualizer.Frame{}
	s.mu.Unlock()
}

type frameMsg struct{}

func (s *Surface) wait() tea.Cmd {
	return func() tea.Msg {
		<-s.ready
		return frameMsg{}
	}
}

// RenderFrame draws f as rows of block characters, each bar blended from
// its bottom stop to its top stop.
func RenderFrame(f visualizer.Frame) string {
	if f.Width <= 0 || f.Height <= 0 {
		return ""
	}
	grid := make([][]string, f.Height)
	for y := range grid {
		grid[y] = make([]string, f.Width)
		for x := range grid[y] {
			grid[y][x] = " "
		}
	}

	top := float64(max(f.Height-1, 1))
	for _, bar := range f.Bars {
		cells := min(max(bar.Height, 0), 1) * float64(f.Height)
		full := int(cells)
		part := partialBlocks[int((cells-float64(full))*8)%8]
		for row := range f.Height {
			glyph := ""
			switch {
			case row < full:
				glyph = fullBlock
			case row == full && part != "":
				glyph = part
			}
			if glyph == "" {
				break
			}
			c := theme.Blend3(bar.Stops, float64(row)/top)
			cell := lipgloss.NewStyle().Foreground(lipgloss.Color(c.Hex())).Render(glyph)
			y := f.Height - 1 - row
			for x := bar.X; x < bar.X+bar.Width && x < f.Width; x++ {
				grid[y][x] = cell
			}
		}
	}

	lines := make([]string, f.Height)
	for y, cells := range grid {
		lines[y] = strings.Join(cells, "")
	}
	return strings.Join(lines, "\n")
}
