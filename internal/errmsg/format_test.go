//nolint:goconst // test cases intentionally repeat strings for readability
package errmsg

import (
	"errors"
	"testing"
)

func TestFormat(t *testing.T) {
	tests := []struct {
		name     string
		op       Op
		err      error
		expected string
	}{
		{
			name:     "nil error returns empty string",
			op:       OpFavoriteToggle,
			err:      nil,
			expected: "",
		},
		{
			name:     "formats error with operation",
			op:       OpFavoriteToggle,
			err:      errors.New("database is locked"),
			expected: "Failed to update favorites: database is locked",
		},
		{
			name:     "progress operation",
			op:       OpProgressSave,
			err:      errors.New("context deadline exceeded"),
			expected: "Failed to record listening progress: context deadline exceeded",
		},
		{
			name:     "playback operation",
			op:       OpPlaybackStart,
			err:      errors.New("no audio device"),
			expected: "Failed to start playback: no audio device",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := Format(tt.op, tt.err)
			if result != tt.expected {
				t.Errorf("Format(%q, %v) = %q, want %q", tt.op, tt.err, result, tt.expected)
			}
		})
	}
}

func TestFormatWith(t *testing.T) {
	tests := []struct {
		name     string
		op       Op
		context  string
		err      error
		expected string
	}{
		{
			name:     "nil error returns empty string",
			op:       OpImportFile,
			context:  "song.mp3",
			err:      nil,
			expected: "",
		},
		{
			name:     "import with filename context",
			op:       OpImportFile,
			context:  "album.flac",
			err:      errors.New("unsupported format"),
			expected: "Failed to import file 'album.flac': unsupported format",
		},
		{
			name:     "empty context falls back to Format",
			op:       OpImportFile,
			context:  "",
			err:      errors.New("unsupported format"),
			expected: "Failed to import file: unsupported format",
		},
		{
			name:     "theme with name context",
			op:       OpThemeSwitch,
			context:  "neon",
			err:      errors.New("unknown theme"),
			expected: "Failed to switch theme 'neon': unknown theme",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := FormatWith(tt.op, tt.context, tt.err)
			if result != tt.expected {
				t.Errorf("FormatWith(%q, %q, %v) = %q, want %q", tt.op, tt.context, tt.err, result, tt.expected)
			}
		})
	}
}

func TestForEvent(t *testing.T) {
	tests := []struct {
		operation string
		expected  Op
	}{
		{"play", OpPlaybackStart},
		{"favorite", OpFavoriteToggle},
		{"recently_played", OpProgressSave},
		{"", OpUnknown},
		{"something-else", OpUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.operation, func(t *testing.T) {
			if got := ForEvent(tt.operation); got != tt.expected {
				t.Errorf("ForEvent(%q) = %q, want %q", tt.operation, got, tt.expected)
			}
		})
	}
}

func TestOpConstants(t *testing.T) {
	// Verify that Op constants are non-empty and produce valid messages
	ops := []Op{
		OpPlaybackStart, OpPlaybackLoad,
		OpFavoriteToggle, OpProgressSave, OpSettingsSave,
		OpImportFile,
		OpVisualizerStart, OpThemeSwitch,
		OpUnknown,
	}

	testErr := errors.New("test error")

	for _, op := range ops {
		t.Run(string(op), func(t *testing.T) {
			if op == "" {
				t.Error("Op constant should not be empty")
			}

			result := Format(op, testErr)
			if result == "" {
				t.Error("Format should return non-empty string for non-nil error")
			}

			// Verify the format includes the operation
			expected := "Failed to " + string(op) + ": test error"
			if result != expected {
				t.Errorf("Format = %q, want %q", result, expected)
			}
		})
	}
}
