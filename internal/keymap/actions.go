// Package keymap defines key bindings and action dispatch for the player.
package keymap

// Action represents a user-triggerable action.
type Action string

const (
	// Global actions
	ActionQuit Action = "quit"
	ActionHelp Action = "help"

	// Transport
	ActionPlayPause       Action = "play_pause"
	ActionStop            Action = "stop"
	ActionNextTrack       Action = "next_track"
	ActionPrevTrack       Action = "prev_track"
	ActionSeekForward     Action = "seek_forward"
	ActionSeekBack        Action = "seek_back"
	ActionSeekForwardLong Action = "seek_forward_long"
	ActionSeekBackLong    Action = "seek_back_long"

	// Volume
	ActionVolumeUp   Action = "volume_up"
	ActionVolumeDown Action = "volume_down"
	ActionMute       Action = "mute"

	// Modes
	ActionCycleRepeat   Action = "cycle_repeat"
	ActionToggleShuffle Action = "toggle_shuffle"

	// Side channel
	ActionToggleFavorite Action = "toggle_favorite"

	// Queue
	ActionRemoveCurrent Action = "remove_current"
	ActionClearQueue    Action = "clear_queue"

	// Display
	ActionToggleVisualizer Action = "toggle_visualizer"
	ActionCycleTheme       Action = "cycle_theme"
)
