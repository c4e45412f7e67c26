package main

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/cockroachdb/errors"
	"github.com/rs/zerolog/log"

	"github.com/llehouerou/soundwave/internal/catalog"
	"github.com/llehouerou/soundwave/internal/config"
	"github.com/llehouerou/soundwave/internal/icons"
	"github.com/llehouerou/soundwave/internal/media"
	"github.com/llehouerou/soundwave/internal/metrics"
	"github.com/llehouerou/soundwave/internal/mpris"
	"github.com/llehouerou/soundwave/internal/notify"
	"github.com/llehouerou/soundwave/internal/playback"
	"github.com/llehouerou/soundwave/internal/playlist"
	"github.com/llehouerou/soundwave/internal/stderr"
	"github.com/llehouerou/soundwave/internal/store"
	"github.com/llehouerou/soundwave/internal/theme"
	"github.com/llehouerou/soundwave/internal/ui/nowplaying"
	"github.com/llehouerou/soundwave/internal/visualizer"
)

var _ playback.Persistence = (*store.Store)(nil)

// play runs the now-playing screen until the user quits.
func play(ctx context.Context, cfg *config.Config, st *store.Store) error {
	logger := log.Logger

	settings := store.Settings{Volume: cfg.Playback.Volume, Theme: cfg.Visualizer.Theme}
	if saved, ok, err := st.LoadSettings(ctx); err != nil {
		logger.Warn().Err(err).Msg("load settings")
	} else if ok {
		settings = saved
	}
	if *playShuffle {
		settings.Shuffle = true
	}
	if *playRepeat != "" {
		settings.RepeatMode, _ = playlist.ParseRepeatMode(*playRepeat)
	}

	var fetcherOpts []media.FetcherOption
	if cfg.HasS3Config() {
		client, err := media.NewS3Client(ctx, media.S3Config{
			Region:    cfg.S3.Region,
			Endpoint:  cfg.S3.Endpoint,
			PathStyle: cfg.S3.PathStyle,
		})
		if err != nil {
			return err
		}
		fetcherOpts = append(fetcherOpts, media.WithS3(client))
	}

	// The audio backend writes diagnostics straight to fd 2, which would
	// corrupt the screen.
	if cfg.Log.Output != "stderr" {
		restore, err := stderr.Capture(logger.With().Str("component", "audio").Logger())
		if err != nil {
			logger.Warn().Err(err).Msg("capture stderr")
		} else {
			defer restore()
		}
	}

	speaker, err := media.NewSpeaker(
		media.WithFetcher(media.NewFetcher(fetcherOpts...)),
		media.WithLogger(logger.With().Str("component", "speaker").Logger()),
	)
	if err != nil {
		if errors.Is(err, media.ErrUnavailable) {
			return errors.WithHint(err, "check that an audio device is available")
		}
		return err
	}
	defer func() {
		if err := speaker.Close(); err != nil {
			logger.Warn().Err(err).Msg("close speaker")
		}
	}()

	recorder := metrics.NewRecorder()
	if cfg.HasMetrics() {
		go func() {
			if err := recorder.Serve(ctx, cfg.Metrics.Listen, logger); err != nil {
				logger.Error().Err(err).Str("addr", cfg.Metrics.Listen).Msg("metrics server failed")
			}
		}()
	}

	ctrl := playback.New(speaker, st,
		playback.WithLogger(logger.With().Str("component", "playback").Logger()),
		playback.WithMetrics(recorder),
		playback.WithProgressInterval(cfg.Playback.ProgressInterval),
		playback.WithRestartThreshold(cfg.Playback.RestartThreshold),
		playback.WithPersistTimeout(cfg.Playback.PersistTimeout),
		playback.WithVolume(settings.Volume),
		playback.WithShuffle(settings.Shuffle),
		playback.WithRepeatMode(settings.RepeatMode),
	)
	defer func() {
		if err := ctrl.Close(); err != nil {
			logger.Warn().Err(err).Msg("close controller")
		}
	}()
	ctrl.SetUser(&catalog.User{ID: cfg.User, Name: cfg.User})

	if cfg.UI.Notifications {
		sender, err := notify.Dial()
		if err != nil {
			logger.Warn().Err(err).Msg("notifications unavailable")
		} else {
			go notify.Watch(ctrl.Subscribe(), sender, logger.With().Str("component", "notify").Logger())
		}
	}

	err = startQueue(ctx, ctrl, st, queueRequest{
		UserID:   cfg.User,
		Playlist: *playPlaylist,
		StartID:  *playStart,
		Filter: catalog.Filter{
			ContentType: catalog.ContentType(*playType),
			Query:       *playQuery,
			Category:    *playCategory,
		},
	})
	if err != nil {
		return err
	}

	adapter, err := mpris.New(ctrl, logger.With().Str("component", "mpris").Logger())
	if err != nil {
		logger.Warn().Err(err).Msg("mpris unavailable")
	} else {
		defer func() { _ = adapter.Close() }()
	}

	themes := theme.NewProvider()
	if err := themes.Use(settings.Theme); err != nil {
		logger.Warn().Err(err).Str("theme", settings.Theme).Msg("unknown saved theme")
	}
	icons.Init(cfg.UI.Icons)

	surface := nowplaying.NewSurface()
	renderer := visualizer.New(surface, themes,
		visualizer.WithLogger(logger.With().Str("component", "visualizer").Logger()),
		visualizer.WithOptions(visualizer.Options{
			Bars:       cfg.Visualizer.Bars,
			FPS:        cfg.Visualizer.FPS,
			FFTSize:    cfg.Visualizer.FFTSize,
			Smoothing:  cfg.Visualizer.Smoothing,
			Span:       cfg.Visualizer.Span,
			MinHeight:  cfg.Visualizer.MinHeight,
			IdleHeight: cfg.Visualizer.IdleHeight,
		}),
	)
	defer func() { _ = renderer.Unbind() }()

	m := nowplaying.New(ctrl, ctrl.Subscribe(),
		nowplaying.WithVisualizer(renderer, speaker, surface, cfg.Visualizer.Enabled),
		nowplaying.WithThemes(themes),
		nowplaying.WithLogger(logger.With().Str("component", "ui").Logger()),
		nowplaying.WithFavoriteTimeout(cfg.Playback.PersistTimeout),
	)

	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
	final, err := p.Run()
	if err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return errors.Wrap(err, "run ui")
	}

	session := ctrl.Snapshot()
	themeName := themes.Current().Name
	if fm, ok := final.(nowplaying.Model); ok {
		session.Volume = fm.Volume()
		themeName = fm.ThemeName()
	}
	saveSettings(st, session, themeName, cfg.Playback.PersistTimeout)
	return nil
}

// queueRequest selects what the session starts playing.
type queueRequest struct {
	UserID   string
	Playlist string // plays this playlist in order when set
	StartID  string
	Filter   catalog.Filter
}

// startQueue fills the controller's queue from a playlist or from the
// catalog and starts playing it.
func startQueue(ctx context.Context, ctrl *playback.Controller, st *store.Store, req queueRequest) error {
	if req.Playlist == "" {
		err := ctrl.PlayList(ctx, req.Filter, req.StartID)
		if errors.Is(err, playback.ErrNoTrack) {
			return errors.WithHint(err, "add tracks with 'soundwave import'")
		}
		return err
	}

	tracks, err := playlistQueue(ctx, st, req.UserID, req.Playlist)
	if err != nil {
		return err
	}
	if len(tracks) == 0 {
		err := errors.Wrapf(playback.ErrNoTrack, "playlist %q is empty", req.Playlist)
		return errors.WithHint(err, "add tracks with 'soundwave playlists add'")
	}
	start := tracks[max(catalog.IndexOf(tracks, req.StartID), 0)]
	ctrl.PlayTrack(start, tracks...)
	return nil
}

// saveSettings stores the preferences the next session starts with.
func saveSettings(st *store.Store, s playback.Session, themeName string, timeout time.Duration) {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	err := st.SaveSettings(ctx, store.Settings{
		Volume:     s.Volume,
		Shuffle:    s.Shuffle,
		RepeatMode: s.RepeatMode,
		Theme:      themeName,
	})
	if err != nil {
		log.Warn().Err(err).Msg("save settings")
	}
}
