package theme

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/lucasb-eyer/go-colorful"
	"github.com/rivo/uniseg"
)

// Blend3 returns the colour at position t (0..1) of a gradient through
// three stops. Blending is done in HCL for perceptually even steps.
func Blend3(stops [3]colorful.Color, t float64) colorful.Color {
	t = min(max(t, 0), 1)
	if t <= 0.5 {
		return stops[0].BlendHcl(stops[1], t*2).Clamped()
	}
	return stops[1].BlendHcl(stops[2], (t-0.5)*2).Clamped()
}

// Gradient renders text with a horizontal gradient through the given stops.
func Gradient(text string, stops [3]colorful.Color, bold bool) string {
	if text == "" {
		return ""
	}

	var clusters []string
	gr := uniseg.NewGraphemes(text)
	for gr.Next() {
		clusters = append(clusters, gr.Str())
	}

	var b strings.Builder
	for i, cluster := range clusters {
		t := 0.0
		if len(clusters) > 1 {
			t = float64(i) / float64(len(clusters)-1)
		}
		style := lipgloss.NewStyle().Foreground(lipgloss.Color(Blend3(stops, t).Hex()))
		if bold {
			style = style.Bold(true)
		}
		b.WriteString(style.Render(cluster))
	}
	return b.String()
}
