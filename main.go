package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kingpin/v2"
	"github.com/cockroachdb/errors"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"github.com/llehouerou/soundwave/internal/config"
	"github.com/llehouerou/soundwave/internal/logging"
	"github.com/llehouerou/soundwave/internal/store"
)

var (
	app        = kingpin.New("soundwave", "Terminal music and podcast player")
	configPath = app.Flag("config", "Configuration file").Short('c').String()

	// play command
	playCmd      = app.Command("play", "Play tracks from the library").Default()
	playType     = playCmd.Flag("type", "Content type (music or podcast)").Enum("music", "podcast")
	playQuery    = playCmd.Flag("query", "Match title, artist or podcast").Short('q').String()
	playCategory = playCmd.Flag("category", "Only tracks in this category").String()
	playStart    = playCmd.Flag("start", "ID of the track to start with").String()
	playShuffle  = playCmd.Flag("shuffle", "Shuffle the queue").Bool()
	playRepeat   = playCmd.Flag("repeat", "Repeat mode (off, all or one)").Enum("off", "all", "one")
	playPlaylist = playCmd.Flag("playlist", "Play a playlist in order").Short('p').String()

	// import command
	importCmd     = app.Command("import", "Add audio files to the library")
	importPaths   = importCmd.Arg("path", "Files or directories to scan").Required().ExistingFilesOrDirs()
	importWorkers = importCmd.Flag("workers", "Concurrent tag readers").Default("4").Int()

	// tracks command
	tracksCmd      = app.Command("tracks", "List library tracks")
	tracksType     = tracksCmd.Flag("type", "Content type (music or podcast)").Enum("music", "podcast")
	tracksQuery    = tracksCmd.Flag("query", "Match title, artist or podcast").Short('q').String()
	tracksCategory = tracksCmd.Flag("category", "Only tracks in this category").String()
	tracksLimit    = tracksCmd.Flag("limit", "Maximum number of tracks").Int()

	// recent command
	recentCmd   = app.Command("recent", "Show recently played tracks")
	recentLimit = recentCmd.Flag("limit", "Maximum number of entries").Default("20").Int()

	// favorites command
	favoritesCmd = app.Command("favorites", "Show favorite tracks")

	// playlists commands
	playlistsCmd       = app.Command("playlists", "Manage playlists")
	playlistsListCmd   = playlistsCmd.Command("list", "List playlists").Default()
	playlistsShowCmd   = playlistsCmd.Command("show", "List the tracks of a playlist")
	playlistsShowName  = playlistsShowCmd.Arg("name", "Playlist name").Required().String()
	playlistsNewCmd    = playlistsCmd.Command("create", "Create an empty playlist")
	playlistsNewName   = playlistsNewCmd.Arg("name", "Playlist name").Required().String()
	playlistsNewDesc   = playlistsNewCmd.Flag("description", "Playlist description").Short('d').String()
	playlistsDelCmd    = playlistsCmd.Command("delete", "Delete a playlist")
	playlistsDelName   = playlistsDelCmd.Arg("name", "Playlist name").Required().String()
	playlistsAddCmd    = playlistsCmd.Command("add", "Append tracks to a playlist")
	playlistsAddName   = playlistsAddCmd.Arg("name", "Playlist name").Required().String()
	playlistsAddTracks = playlistsAddCmd.Arg("track", "Track IDs").Required().Strings()
	playlistsRmCmd     = playlistsCmd.Command("remove", "Remove a track from a playlist")
	playlistsRmName    = playlistsRmCmd.Arg("name", "Playlist name").Required().String()
	playlistsRmTrack   = playlistsRmCmd.Arg("track", "Track ID").Required().String()
)

func main() {
	// Load .env file if it exists (errors are ignored)
	_ = godotenv.Load()

	command := kingpin.MustParse(app.Parse(os.Args[1:]))

	if err := run(command); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		for _, hint := range errors.GetAllHints(err) {
			fmt.Fprintf(os.Stderr, "Hint: %s\n", hint)
		}
		os.Exit(1)
	}
}

func run(command string) error {
	cfg, err := config.Load(*configPath)
	if err != nil {
		return err
	}

	logCfg := logging.Config{Output: cfg.Log.Output, Level: cfg.Log.Level, File: cfg.Log.File}
	if command != playCmd.FullCommand() && logCfg.Output == "file" {
		// Listings own the terminal only briefly; keep their logs visible.
		logCfg.Output = "stderr"
	}
	closeLog, err := logging.Init(logCfg)
	if err != nil {
		return err
	}
	defer func() { _ = closeLog() }()

	dbPath := cfg.Storage.Database
	if dbPath == "" {
		if dbPath, err = store.DefaultPath(); err != nil {
			return err
		}
	}
	st, err := store.Open(dbPath)
	if err != nil {
		return err
	}
	defer func() {
		if err := st.Close(); err != nil {
			log.Warn().Err(err).Msg("close store")
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	switch command {
	case playCmd.FullCommand():
		return play(ctx, cfg, st)
	case importCmd.FullCommand():
		return importFiles(ctx, st, *importPaths, *importWorkers)
	case tracksCmd.FullCommand():
		return listTracks(ctx, st)
	case recentCmd.FullCommand():
		return listRecent(ctx, st, cfg.User, *recentLimit)
	case favoritesCmd.FullCommand():
		return listFavorites(ctx, st, cfg.User)
	case playlistsListCmd.FullCommand():
		return listPlaylists(ctx, st, cfg.User)
	case playlistsShowCmd.FullCommand():
		return showPlaylist(ctx, st, cfg.User, *playlistsShowName)
	case playlistsNewCmd.FullCommand():
		return createPlaylist(ctx, st, cfg.User, *playlistsNewName, *playlistsNewDesc)
	case playlistsDelCmd.FullCommand():
		return deletePlaylist(ctx, st, cfg.User, *playlistsDelName)
	case playlistsAddCmd.FullCommand():
		return addToPlaylist(ctx, st, cfg.User, *playlistsAddName, *playlistsAddTracks)
	case playlistsRmCmd.FullCommand():
		return removeFromPlaylist(ctx, st, cfg.User, *playlistsRmName, *playlistsRmTrack)
	}
	return nil
}
