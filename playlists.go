package main

import (
	"context"
	"fmt"
	"os"

	"github.com/cockroachdb/errors"
	"github.com/dustin/go-humanize"

	"github.com/llehouerou/soundwave/internal/catalog"
	"github.com/llehouerou/soundwave/internal/store"
)

func listPlaylists(ctx context.Context, st *store.Store, userID string) error {
	playlists, err := st.Playlists(ctx, userID)
	if err != nil {
		return err
	}
	w := newTable(os.Stdout)
	fmt.Fprintln(w, "NAME\tTRACKS\tUPDATED\tDESCRIPTION")
	for _, pl := range playlists {
		fmt.Fprintf(w, "%s\t%d\t%s\t%s\n", pl.Name, pl.TrackCount, humanize.Time(pl.UpdatedAt), pl.Description)
	}
	return w.Flush()
}

func showPlaylist(ctx context.Context, st *store.Store, userID, name string) error {
	pl, err := st.PlaylistByName(ctx, userID, name)
	if err != nil {
		return err
	}
	entries, err := st.PlaylistTracks(ctx, pl.ID)
	if err != nil {
		return err
	}
	w := newTable(os.Stdout)
	fmt.Fprintln(w, "#\tID\tTITLE\tBY\tLENGTH")
	for _, e := range entries {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\n", e.Position+1, e.Track.ID, e.Track.Title, e.Track.Subject(), trackLength(e.Track))
	}
	return w.Flush()
}

func createPlaylist(ctx context.Context, st *store.Store, userID, name, description string) error {
	pl, err := st.CreatePlaylist(ctx, userID, name, description)
	if err != nil {
		if errors.Is(err, store.ErrExists) {
			return errors.WithHint(err, "pick another name or add tracks with 'soundwave playlists add'")
		}
		return err
	}
	fmt.Printf("Created playlist %q\n", pl.Name)
	return nil
}

func deletePlaylist(ctx context.Context, st *store.Store, userID, name string) error {
	pl, err := st.PlaylistByName(ctx, userID, name)
	if err != nil {
		return err
	}
	if err := st.DeletePlaylist(ctx, pl.ID); err != nil {
		return err
	}
	fmt.Printf("Deleted playlist %q (%s tracks)\n", pl.Name, humanize.Comma(int64(pl.TrackCount)))
	return nil
}

func addToPlaylist(ctx context.Context, st *store.Store, userID, name string, trackIDs []string) error {
	pl, err := st.PlaylistByName(ctx, userID, name)
	if err != nil {
		return err
	}
	for _, id := range trackIDs {
		if _, err := st.Track(ctx, id); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return errors.WithHint(err, "list track IDs with 'soundwave tracks'")
			}
			return err
		}
	}
	if err := st.AddToPlaylist(ctx, pl.ID, trackIDs...); err != nil {
		return err
	}
	fmt.Printf("Added %d tracks to %q\n", len(trackIDs), pl.Name)
	return nil
}

func removeFromPlaylist(ctx context.Context, st *store.Store, userID, name, trackID string) error {
	pl, err := st.PlaylistByName(ctx, userID, name)
	if err != nil {
		return err
	}
	if err := st.RemoveFromPlaylist(ctx, pl.ID, trackID); err != nil {
		return err
	}
	fmt.Printf("Removed %s from %q\n", trackID, pl.Name)
	return nil
}

// playlistQueue returns the tracks of the user's playlist in order.
func playlistQueue(ctx context.Context, st *store.Store, userID, name string) ([]catalog.Track, error) {
	pl, err := st.PlaylistByName(ctx, userID, name)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, errors.WithHint(err, "list playlists with 'soundwave playlists'")
		}
		return nil, err
	}
	entries, err := st.PlaylistTracks(ctx, pl.ID)
	if err != nil {
		return nil, err
	}
	return catalog.EntryTracks(entries), nil
}
