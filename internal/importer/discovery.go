package importer

import (
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/rs/zerolog"
)

var audioExts = []string{".mp3", ".flac", ".wav", ".ogg", ".oga"}

// IsAudioFile reports whether path has an extension the player can decode.
func IsAudioFile(path string) bool {
	return slices.Contains(audioExts, strings.ToLower(filepath.Ext(path)))
}

// discoverFiles walks the given paths and returns the audio files found,
// sorted and without duplicates. Paths may be files or directories.
func discoverFiles(paths []string, logger zerolog.Logger) []string {
	seen := make(map[string]bool)
	var files []string
	add := func(p string) {
		if !seen[p] {
			seen[p] = true
			files = append(files, p)
		}
	}

	for _, root := range paths {
		_ = filepath.WalkDir(root, func(path string, d os.DirEntry, walkErr error) error {
			// Skip unreadable entries and keep scanning the rest
			if walkErr != nil {
				logger.Warn().Err(walkErr).Str("path", path).Msg("skip unreadable path")
				return nil
			}
			if d.IsDir() || !IsAudioFile(path) {
				return nil
			}
			add(filepath.Clean(path))
			return nil
		})
	}

	slices.Sort(files)
	return files
}
