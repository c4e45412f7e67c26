//go:build linux

package mpris

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFindAlbumArt(t *testing.T) {
	dir := t.TempDir()
	coverPath := filepath.Join(dir, "cover.jpg")
	require.NoError(t, os.WriteFile(coverPath, []byte("fake"), 0o600))

	trackPath := filepath.Join(dir, "track.mp3")
	assert.Equal(t, coverPath, FindAlbumArt(trackPath))
	assert.Equal(t, coverPath, FindAlbumArt("file://"+trackPath))
}

func TestFindAlbumArt_NotFound(t *testing.T) {
	trackPath := filepath.Join(t.TempDir(), "track.mp3")
	assert.Empty(t, FindAlbumArt(trackPath))
	assert.Empty(t, FindAlbumArt(""))
}

func TestFindAlbumArt_RemoteLocator(t *testing.T) {
	assert.Empty(t, FindAlbumArt("https://example.com/track.mp3"))
	assert.Empty(t, FindAlbumArt("s3://bucket/track.mp3"))
}

func TestFindAlbumArt_Priority(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "folder.jpg"), []byte("fake"), 0o600))
	coverPath := filepath.Join(dir, "cover.jpg")
	require.NoError(t, os.WriteFile(coverPath, []byte("fake"), 0o600))

	assert.Equal(t, coverPath, FindAlbumArt(filepath.Join(dir, "track.mp3")))
}
