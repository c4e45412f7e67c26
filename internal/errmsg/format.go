// Package errmsg provides consistent error formatting for user-facing messages.
package errmsg

import "fmt"

// Op represents an operation that can fail.
type Op string

// Operation constants - grouped by domain.
const (
	// Playback operations
	OpPlaybackStart Op = "start playback"
	OpPlaybackLoad  Op = "load tracks"

	// Side effects
	OpFavoriteToggle Op = "update favorites"
	OpProgressSave   Op = "record listening progress"
	OpSettingsSave   Op = "save settings"

	// Import operations
	OpImportFile Op = "import file"

	// Display
	OpVisualizerStart Op = "start visualizer"
	OpThemeSwitch     Op = "switch theme"

	// Unknown is used for operations without a dedicated message.
	OpUnknown Op = "complete operation"
)

// ForEvent maps the operation name of a playback error event.
func ForEvent(operation string) Op {
	switch operation {
	case "play":
		return OpPlaybackStart
	case "favorite":
		return OpFavoriteToggle
	case "recently_played":
		return OpProgressSave
	default:
		return OpUnknown
	}
}

// Format creates a user-friendly error message.
func Format(op Op, err error) string {
	if err == nil {
		return ""
	}
	return fmt.Sprintf("Failed to %s: %v", op, err)
}

// FormatWith creates an error message with additional context.
func FormatWith(op Op, context string, err error) string {
	if err == nil {
		return ""
	}
	if context == "" {
		return Format(op, err)
	}
	return fmt.Sprintf("Failed to %s '%s': %v", op, context, err)
}
