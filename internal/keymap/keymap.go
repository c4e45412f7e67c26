package keymap

import "github.com/charmbracelet/bubbles/key"

// Binding describes a single key binding.
type Binding struct {
	Action      Action
	Keys        []string
	Description string
	Context     string // Global or Playback
}

// Bindings contains all key bindings.
var Bindings = []Binding{
	// Global
	{ActionQuit, []string{"q", "ctrl+c"}, "Quit", Global},
	{ActionHelp, []string{"?"}, "Toggle help", Global},
	{ActionToggleVisualizer, []string{"v"}, "Toggle visualizer", Global},
	{ActionCycleTheme, []string{"t"}, "Next theme", Global},

	// Playback
	{ActionPlayPause, []string{" ", "space"}, "Play/pause", Playback},
	{ActionStop, []string{"s"}, "Stop", Playback},
	{ActionNextTrack, []string{"n", "pgdown"}, "Next track", Playback},
	{ActionPrevTrack, []string{"p", "pgup"}, "Previous track", Playback},
	{ActionSeekBack, []string{"left", "h"}, "Seek -5s", Playback},
	{ActionSeekForward, []string{"right", "l"}, "Seek +5s", Playback},
	{ActionSeekBackLong, []string{"shift+left", "H"}, "Seek -30s", Playback},
	{ActionSeekForwardLong, []string{"shift+right", "L"}, "Seek +30s", Playback},
	{ActionVolumeUp, []string{"+", "=", "up"}, "Volume up", Playback},
	{ActionVolumeDown, []string{"-", "down"}, "Volume down", Playback},
	{ActionMute, []string{"m"}, "Mute/unmute", Playback},
	{ActionCycleRepeat, []string{"r"}, "Cycle repeat mode", Playback},
	{ActionToggleShuffle, []string{"S"}, "Toggle shuffle", Playback},
	{ActionToggleFavorite, []string{"f"}, "Toggle favorite", Playback},
	{ActionRemoveCurrent, []string{"d"}, "Remove from queue", Playback},
	{ActionClearQueue, []string{"c"}, "Clear queue", Playback},
}

// ByContext returns key bindings filtered by context.
func ByContext(context string) []Binding {
	var result []Binding
	for _, kb := range Bindings {
		if kb.Context == context {
			result = append(result, kb)
		}
	}
	return result
}

// HelpKeys converts bindings for the bubbles help view. The first key of
// each binding is the one shown.
func HelpKeys(bindings []Binding) []key.Binding {
	out := make([]key.Binding, 0, len(bindings))
	for _, b := range bindings {
		shown := b.Keys[0]
		if shown == " " {
			shown = "space"
		}
		out = append(out, key.NewBinding(
			key.WithKeys(b.Keys...),
			key.WithHelp(shown, b.Description),
		))
	}
	return out
}
