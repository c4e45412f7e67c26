package playlist

import "github.com/llehouerou/soundwave/internal/catalog"

// Playlist holds an ordered collection of tracks.
type Playlist struct {
	tracks []catalog.Track
}

// NewPlaylist creates a playlist holding a copy of tracks.
func NewPlaylist(tracks ...catalog.Track) *Playlist {
	p := &Playlist{tracks: make([]catalog.Track, 0, len(tracks))}
	p.Add(tracks...)
	return p
}

// Add appends tracks to the playlist.
func (p *Playlist) Add(tracks ...catalog.Track) {
	p.tracks = append(p.tracks, tracks...)
}

// Remove removes the track at the given index.
// Returns false if index is out of bounds.
func (p *Playlist) Remove(index int) bool {
	if index < 0 || index >= len(p.tracks) {
		return false
	}
	p.tracks = append(p.tracks[:index], p.tracks[index+1:]...)
	return true
}

// RemoveID removes the first track with the given ID.
func (p *Playlist) RemoveID(id string) bool {
	return p.Remove(p.IndexOf(id))
}

// Clear removes all tracks from the playlist.
func (p *Playlist) Clear() {
	p.tracks = p.tracks[:0]
}

// Set replaces the contents with a copy of tracks.
func (p *Playlist) Set(tracks []catalog.Track) {
	p.tracks = append(p.tracks[:0], tracks...)
}

// Tracks returns a copy of all tracks.
func (p *Playlist) Tracks() []catalog.Track {
	result := make([]catalog.Track, len(p.tracks))
	copy(result, p.tracks)
	return result
}

// Track returns the track at the given index, or nil if out of bounds.
func (p *Playlist) Track(index int) *catalog.Track {
	if index < 0 || index >= len(p.tracks) {
		return nil
	}
	t := p.tracks[index]
	return &t
}

// IndexOf returns the index of the first track with the given ID, or -1.
func (p *Playlist) IndexOf(id string) int {
	return catalog.IndexOf(p.tracks, id)
}

// Contains reports whether a track with the given ID is present.
func (p *Playlist) Contains(id string) bool {
	return p.IndexOf(id) >= 0
}

// Len returns the number of tracks.
func (p *Playlist) Len() int {
	return len(p.tracks)
}

// Move moves the track at fromIndex to toIndex.
// Returns false if either index is out of bounds.
func (p *Playlist) Move(fromIndex, toIndex int) bool {
	if fromIndex < 0 || fromIndex >= len(p.tracks) {
		return false
	}
	if toIndex < 0 || toIndex >= len(p.tracks) {
		return false
	}
	if fromIndex == toIndex {
		return true
	}

	track := p.tracks[fromIndex]
	p.tracks = append(p.tracks[:fromIndex], p.tracks[fromIndex+1:]...)
	p.tracks = append(p.tracks[:toIndex], append([]catalog.Track{track}, p.tracks[toIndex:]...)...)
	return true
}
