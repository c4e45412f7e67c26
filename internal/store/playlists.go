package store

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/cockroachdb/errors"

	"github.com/llehouerou/soundwave/internal/catalog"
	dbutil "github.com/llehouerou/soundwave/internal/db"
)

const playlistColumns = `p.id, p.user_id, p.name, p.description, p.created_at, p.updated_at,
	(SELECT COUNT(*) FROM playlist_tracks pt WHERE pt.playlist_id = p.id)`

func scanPlaylist(row rowScanner) (catalog.Playlist, error) {
	var pl catalog.Playlist
	var desc sql.NullString
	var created, updated int64
	if err := row.Scan(&pl.ID, &pl.UserID, &pl.Name, &desc, &created, &updated, &pl.TrackCount); err != nil {
		return catalog.Playlist{}, err
	}
	pl.Description = dbutil.NullStringValue(desc)
	pl.CreatedAt = time.UnixMilli(created)
	pl.UpdatedAt = time.UnixMilli(updated)
	return pl, nil
}

// CreatePlaylist creates an empty playlist. Names are unique per user;
// a taken name returns ErrExists.
func (s *Store) CreatePlaylist(ctx context.Context, userID, name, description string) (catalog.Playlist, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return catalog.Playlist{}, errors.New("store: playlist name is empty")
	}
	pl := catalog.Playlist{
		ID:          s.newID(),
		UserID:      userID,
		Name:        name,
		Description: description,
	}
	now := s.now()
	pl.CreatedAt = time.UnixMilli(now.UnixMilli())
	pl.UpdatedAt = pl.CreatedAt

	err := dbutil.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		var n int
		err := tx.QueryRowContext(ctx, `
			SELECT COUNT(*) FROM playlists WHERE user_id = ? AND name = ?
		`, userID, name).Scan(&n)
		if err != nil {
			return err
		}
		if n > 0 {
			return errors.Wrapf(ErrExists, "playlist %q", name)
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO playlists (id, user_id, name, description, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?)
		`, pl.ID, userID, name, dbutil.NullString(description), now.UnixMilli(), now.UnixMilli())
		return err
	})
	if err != nil {
		return catalog.Playlist{}, errors.Wrap(err, "create playlist")
	}
	return pl, nil
}

// Playlists returns the user's playlists, newest first.
func (s *Store) Playlists(ctx context.Context, userID string) ([]catalog.Playlist, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+playlistColumns+`
		FROM playlists p
		WHERE p.user_id = ?
		ORDER BY p.created_at DESC, p.rowid DESC
	`, userID)
	if err != nil {
		return nil, errors.Wrap(err, "query playlists")
	}
	defer rows.Close()

	var out []catalog.Playlist
	for rows.Next() {
		pl, err := scanPlaylist(rows)
		if err != nil {
			return nil, errors.Wrap(err, "scan playlist")
		}
		out = append(out, pl)
	}
	return out, errors.Wrap(rows.Err(), "query playlists")
}

// PlaylistByName returns the user's playlist with the given name, or
// ErrNotFound.
func (s *Store) PlaylistByName(ctx context.Context, userID, name string) (catalog.Playlist, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+playlistColumns+`
		FROM playlists p
		WHERE p.user_id = ? AND p.name = ?
	`, userID, strings.TrimSpace(name))
	pl, err := scanPlaylist(row)
	if errors.Is(err, sql.ErrNoRows) {
		return catalog.Playlist{}, errors.Wrapf(ErrNotFound, "playlist %q", name)
	}
	if err != nil {
		return catalog.Playlist{}, errors.Wrap(err, "get playlist")
	}
	return pl, nil
}

// DeletePlaylist deletes a playlist and its entries.
func (s *Store) DeletePlaylist(ctx context.Context, playlistID string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM playlists WHERE id = ?`, playlistID)
	if err != nil {
		return errors.Wrap(err, "delete playlist")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return errors.Wrapf(ErrNotFound, "playlist %s", playlistID)
	}
	return nil
}

// PlaylistTracks returns the entries of a playlist in position order.
func (s *Store) PlaylistTracks(ctx context.Context, playlistID string) ([]catalog.PlaylistEntry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+trackColumns+`, pt.position, pt.added_at
		FROM playlist_tracks pt
		JOIN tracks t ON t.id = pt.track_id
		WHERE pt.playlist_id = ?
		ORDER BY pt.position
	`, playlistID)
	if err != nil {
		return nil, errors.Wrap(err, "query playlist tracks")
	}
	defer rows.Close()

	var entries []catalog.PlaylistEntry
	for rows.Next() {
		var e catalog.PlaylistEntry
		var added int64
		e.Track, err = scanTrack(rows, &e.Position, &added)
		if err != nil {
			return nil, errors.Wrap(err, "scan playlist track")
		}
		e.AddedAt = time.UnixMilli(added)
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "query playlist tracks")
	}

	ptrs := make([]*catalog.Track, len(entries))
	for i := range entries {
		ptrs[i] = &entries[i].Track
	}
	if err := s.loadCategories(ctx, ptrs); err != nil {
		return nil, err
	}
	return entries, nil
}

// AddToPlaylist appends tracks to the end of a playlist. A track may appear
// more than once.
func (s *Store) AddToPlaylist(ctx context.Context, playlistID string, trackIDs ...string) error {
	if len(trackIDs) == 0 {
		return nil
	}
	now := s.now().UnixMilli()
	err := dbutil.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		if err := touchPlaylist(ctx, tx, playlistID, now); err != nil {
			return err
		}
		var maxPos sql.NullInt64
		err := tx.QueryRowContext(ctx, `
			SELECT MAX(position) FROM playlist_tracks WHERE playlist_id = ?
		`, playlistID).Scan(&maxPos)
		if err != nil {
			return err
		}
		next := 0
		if maxPos.Valid {
			next = int(maxPos.Int64) + 1
		}

		stmt, err := tx.PrepareContext(ctx, `
			INSERT INTO playlist_tracks (playlist_id, position, track_id, added_at)
			VALUES (?, ?, ?, ?)
		`)
		if err != nil {
			return err
		}
		defer stmt.Close()
		for i, id := range trackIDs {
			if _, err := stmt.ExecContext(ctx, playlistID, next+i, id, now); err != nil {
				return errors.Wrapf(err, "track %s", id)
			}
		}
		return nil
	})
	return errors.Wrap(err, "add to playlist")
}

// RemoveFromPlaylist removes every entry of the track from a playlist and
// closes the gaps it leaves. It returns ErrNotFound when the track was not
// in the playlist.
func (s *Store) RemoveFromPlaylist(ctx context.Context, playlistID, trackID string) error {
	now := s.now().UnixMilli()
	err := dbutil.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `
			DELETE FROM playlist_tracks WHERE playlist_id = ? AND track_id = ?
		`, playlistID, trackID)
		if err != nil {
			return err
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return errors.Wrapf(ErrNotFound, "track %s in playlist", trackID)
		}
		if err := compactPositions(ctx, tx, playlistID); err != nil {
			return err
		}
		return touchPlaylist(ctx, tx, playlistID, now)
	})
	return errors.Wrap(err, "remove from playlist")
}

// compactPositions renumbers the remaining entries 0..n-1. Positions only
// move down, so updating in ascending order never collides.
func compactPositions(ctx context.Context, tx *sql.Tx, playlistID string) error {
	rows, err := tx.QueryContext(ctx, `
		SELECT position FROM playlist_tracks WHERE playlist_id = ? ORDER BY position
	`, playlistID)
	if err != nil {
		return err
	}
	var positions []int
	for rows.Next() {
		var p int
		if err := rows.Scan(&p); err != nil {
			rows.Close()
			return err
		}
		positions = append(positions, p)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return err
	}

	for want, have := range positions {
		if want == have {
			continue
		}
		if _, err := tx.ExecContext(ctx, `
			UPDATE playlist_tracks SET position = ? WHERE playlist_id = ? AND position = ?
		`, want, playlistID, have); err != nil {
			return err
		}
	}
	return nil
}

func touchPlaylist(ctx context.Context, tx *sql.Tx, playlistID string, now int64) error {
	res, err := tx.ExecContext(ctx, `UPDATE playlists SET updated_at = ? WHERE id = ?`, now, playlistID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return errors.Wrapf(ErrNotFound, "playlist %s", playlistID)
	}
	return nil
}
