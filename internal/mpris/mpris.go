//go:build linux

package mpris

import (
	"fmt"
	"hash/fnv"
	"time"

	"github.com/godbus/dbus/v5"
	"github.com/quarckster/go-mpris-server/pkg/server"
	"github.com/quarckster/go-mpris-server/pkg/types"
	"github.com/rs/zerolog"

	"github.com/llehouerou/soundwave/internal/catalog"
	"github.com/llehouerou/soundwave/internal/playback"
)

// Adapter connects the playback controller to MPRIS over D-Bus.
type Adapter struct {
	server *server.Server
}

// New creates and starts a new MPRIS adapter.
func New(p Player, logger zerolog.Logger) (*Adapter, error) {
	a := &Adapter{
		server: server.NewServer("soundwave", &rootAdapter{}, &playerAdapter{player: p}),
	}

	// Start the server in background
	go func() {
		if err := a.server.Listen(); err != nil {
			logger.Warn().Err(err).Msg("mpris server stopped")
		}
	}()

	return a, nil
}

// Close stops the adapter and releases D-Bus resources.
func (a *Adapter) Close() error {
	return a.server.Stop()
}

// rootAdapter implements OrgMprisMediaPlayer2Adapter.
type rootAdapter struct{}

func (r *rootAdapter) Raise() error {
	return nil // Not supported
}

func (r *rootAdapter) Quit() error {
	return nil // Not supported - app manages its own lifecycle
}

func (r *rootAdapter) CanQuit() (bool, error) {
	return false, nil
}

func (r *rootAdapter) CanRaise() (bool, error) {
	return false, nil
}

func (r *rootAdapter) HasTrackList() (bool, error) {
	return false, nil
}

func (r *rootAdapter) Identity() (string, error) {
	return "Soundwave", nil
}

//nolint:revive // Method name required by interface.
func (r *rootAdapter) SupportedUriSchemes() ([]string, error) {
	return []string{"file", "http", "https", "s3"}, nil
}

func (r *rootAdapter) SupportedMimeTypes() ([]string, error) {
	return []string{"audio/mpeg", "audio/flac", "audio/wav", "audio/ogg"}, nil
}

// playerAdapter implements OrgMprisMediaPlayer2PlayerAdapter and the
// optional loop status and shuffle interfaces.
type playerAdapter struct {
	player Player
}

func (p *playerAdapter) Next() error {
	p.player.PlayNext()
	return nil
}

func (p *playerAdapter) Previous() error {
	p.player.PlayPrevious()
	return nil
}

func (p *playerAdapter) Pause() error {
	p.player.PauseTrack()
	return nil
}

func (p *playerAdapter) PlayPause() error {
	p.player.TogglePlayPause()
	return nil
}

// Stop pauses and rewinds; the session keeps its track.
func (p *playerAdapter) Stop() error {
	p.player.PauseTrack()
	p.player.SeekTo(0)
	return nil
}

func (p *playerAdapter) Play() error {
	p.player.ResumeTrack()
	return nil
}

func (p *playerAdapter) Seek(offset types.Microseconds) error {
	s := p.player.Snapshot()
	if s.CurrentTrack == nil {
		return nil
	}
	p.player.SeekTo(s.CurrentTime + time.Duration(offset)*time.Microsecond)
	return nil
}

func (p *playerAdapter) SetPosition(trackID string, position types.Microseconds) error {
	s := p.player.Snapshot()
	// Stale requests for another track are ignored, as MPRIS requires
	if s.CurrentTrack == nil || trackID != formatTrackID(s.CurrentTrack.ID) {
		return nil
	}
	p.player.SeekTo(time.Duration(position) * time.Microsecond)
	return nil
}

//nolint:revive // Method name required by interface.
func (p *playerAdapter) OpenUri(_ string) error {
	return nil // Not supported
}

func (p *playerAdapter) PlaybackStatus() (types.PlaybackStatus, error) {
	switch p.player.Snapshot().State() {
	case playback.StatePlaying:
		return types.PlaybackStatusPlaying, nil
	case playback.StatePaused:
		return types.PlaybackStatusPaused, nil
	case playback.StateEmpty:
		return types.PlaybackStatusStopped, nil
	}
	return types.PlaybackStatusStopped, nil
}

func (p *playerAdapter) Rate() (float64, error) {
	return 1.0, nil
}

func (p *playerAdapter) SetRate(_ float64) error {
	return nil // Not supported
}

func (p *playerAdapter) Metadata() (types.Metadata, error) {
	s := p.player.Snapshot()
	track := s.CurrentTrack
	if track == nil {
		return types.Metadata{}, nil
	}

	length := track.Duration
	if s.Duration > 0 {
		length = s.Duration
	}

	meta := types.Metadata{
		TrackId:     dbus.ObjectPath(formatTrackID(track.ID)),
		Length:      types.Microseconds(length.Microseconds()),
		Title:       track.Title,
		Artist:      []string{track.Subject()},
		TrackNumber: s.CurrentIndex + 1,
	}
	if track.ContentType == catalog.Podcast {
		meta.Album = track.PodcastName
	}

	switch {
	case track.CoverURL != "":
		meta.ArtUrl = track.CoverURL
	default:
		if artPath := FindAlbumArt(track.MediaURL); artPath != "" {
			meta.ArtUrl = "file://" + artPath
		}
	}

	return meta, nil
}

func (p *playerAdapter) Volume() (float64, error) {
	return p.player.Snapshot().Volume, nil
}

func (p *playerAdapter) SetVolume(v float64) error {
	p.player.SetVolume(v)
	return nil
}

func (p *playerAdapter) Position() (int64, error) {
	return p.player.Snapshot().CurrentTime.Microseconds(), nil
}

func (p *playerAdapter) MinimumRate() (float64, error) {
	return 1.0, nil
}

func (p *playerAdapter) MaximumRate() (float64, error) {
	return 1.0, nil
}

func (p *playerAdapter) CanGoNext() (bool, error) {
	s := p.player.Snapshot()
	if len(s.Queue) == 0 {
		return false, nil
	}
	return s.RepeatMode != playback.RepeatOff || s.CurrentIndex < len(s.Queue)-1, nil
}

func (p *playerAdapter) CanGoPrevious() (bool, error) {
	return len(p.player.Snapshot().Queue) > 0, nil
}

func (p *playerAdapter) CanPlay() (bool, error) {
	s := p.player.Snapshot()
	return s.CurrentTrack != nil || len(s.Queue) > 0, nil
}

func (p *playerAdapter) CanPause() (bool, error) {
	return true, nil
}

func (p *playerAdapter) CanSeek() (bool, error) {
	return p.player.Snapshot().CurrentTrack != nil, nil
}

func (p *playerAdapter) CanControl() (bool, error) {
	return true, nil
}

// LoopStatus implements OrgMprisMediaPlayer2PlayerAdapterLoopStatus.
func (p *playerAdapter) LoopStatus() (types.LoopStatus, error) {
	switch p.player.Snapshot().RepeatMode {
	case playback.RepeatOne:
		return types.LoopStatusTrack, nil
	case playback.RepeatAll:
		return types.LoopStatusPlaylist, nil
	case playback.RepeatOff:
		return types.LoopStatusNone, nil
	}
	return types.LoopStatusNone, nil
}

// SetLoopStatus implements OrgMprisMediaPlayer2PlayerAdapterLoopStatus.
func (p *playerAdapter) SetLoopStatus(status types.LoopStatus) error {
	switch status {
	case types.LoopStatusNone:
		p.player.SetRepeatMode(playback.RepeatOff)
	case types.LoopStatusTrack:
		p.player.SetRepeatMode(playback.RepeatOne)
	case types.LoopStatusPlaylist:
		p.player.SetRepeatMode(playback.RepeatAll)
	}
	return nil
}

// Shuffle implements OrgMprisMediaPlayer2PlayerAdapterShuffle.
func (p *playerAdapter) Shuffle() (bool, error) {
	return p.player.Snapshot().Shuffle, nil
}

// SetShuffle implements OrgMprisMediaPlayer2PlayerAdapterShuffle.
func (p *playerAdapter) SetShuffle(shuffle bool) error {
	p.player.SetShuffle(shuffle)
	return nil
}

func formatTrackID(id string) string {
	h := fnv.New64a()
	h.Write([]byte(id))
	return fmt.Sprintf("/org/mpris/MediaPlayer2/Track/%x", h.Sum64())
}
