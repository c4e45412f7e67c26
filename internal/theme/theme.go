// Package theme holds the named colour palettes of the player and the
// active palette, which can be switched while the UI is running.
package theme

import (
	"slices"
	"sync/atomic"

	"github.com/charmbracelet/lipgloss"
	"github.com/cockroachdb/errors"
	"github.com/lucasb-eyer/go-colorful"
)

// Colour names understood by Resolve.
const (
	Primary   = "primary"   // focused items, playing track, first visualizer stop
	Secondary = "secondary" // secondary accent
	Chart2    = "chart-2"
	Chart3    = "chart-3"
	Muted     = "muted" // idle visualizer bars
	Fg        = "fg"
	FgMuted   = "fg-muted"
	Border    = "border"
)

// DefaultName is the theme used when none is configured.
const DefaultName = "waves"

var ErrUnknownTheme = errors.New("theme: unknown theme")

// Theme is a named palette of hex colours.
type Theme struct {
	Name   string
	Colors map[string]string
}

var builtin = map[string]Theme{
	"waves": {
		Name: "waves",
		Colors: map[string]string{
			Primary:   "#a78bfa",
			Secondary: "#f1a208",
			Chart2:    "#60a5fa",
			Chart3:    "#34d399",
			Muted:     "#3a3a3a",
			Fg:        "#c0c0c0",
			FgMuted:   "#808080",
			Border:    "#585858",
		},
	},
	"ember": {
		Name: "ember",
		Colors: map[string]string{
			Primary:   "#f97316",
			Secondary: "#facc15",
			Chart2:    "#ef4444",
			Chart3:    "#fbbf24",
			Muted:     "#3b2f2a",
			Fg:        "#e7e5e4",
			FgMuted:   "#a8a29e",
			Border:    "#57534e",
		},
	},
}

// Names returns the built-in theme names, sorted.
func Names() []string {
	names := make([]string, 0, len(builtin))
	for n := range builtin {
		names = append(names, n)
	}
	slices.Sort(names)
	return names
}

// Lookup returns the built-in theme with the given name.
func Lookup(name string) (Theme, error) {
	t, ok := builtin[name]
	if !ok {
		return Theme{}, errors.Wrapf(ErrUnknownTheme, "%q", name)
	}
	return t, nil
}

// fallback is returned for colour names a theme does not define.
var fallback = colorful.Color{R: 0.5, G: 0.5, B: 0.5}

// Color returns the named colour, or a neutral gray when the theme does
// not define it or the value is not a #rrggbb hex string.
func (t Theme) Color(name string) colorful.Color {
	hex, ok := t.Colors[name]
	if !ok {
		return fallback
	}
	c, err := colorful.Hex(hex)
	if err != nil {
		return fallback
	}
	return c
}

// Lip returns the named colour for lipgloss styles.
func (t Theme) Lip(name string) lipgloss.Color {
	return lipgloss.Color(t.Color(name).Hex())
}

// Provider holds the active theme. It is safe for concurrent use; colours
// are looked up on every call, so a switch shows on the next frame.
type Provider struct {
	active atomic.Pointer[Theme]
}

// NewProvider returns a provider with the default theme active.
func NewProvider() *Provider {
	p := &Provider{}
	t := builtin[DefaultName]
	p.active.Store(&t)
	return p
}

// Set makes t the active theme.
func (p *Provider) Set(t Theme) {
	p.active.Store(&t)
}

// Use activates the built-in theme with the given name.
func (p *Provider) Use(name string) error {
	t, err := Lookup(name)
	if err != nil {
		return err
	}
	p.Set(t)
	return nil
}

// Current returns the active theme.
func (p *Provider) Current() Theme {
	return *p.active.Load()
}

// Resolve returns the named colour of the active theme.
func (p *Provider) Resolve(name string) colorful.Color {
	return p.Current().Color(name)
}
