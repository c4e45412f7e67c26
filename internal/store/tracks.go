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

const trackColumns = `t.id, t.title, t.artist, t.podcast_name, t.content_type,
	t.media_url, t.cover_url, t.duration_ms`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTrack(row rowScanner, extra ...any) (catalog.Track, error) {
	var t catalog.Track
	var artist, podcast, cover sql.NullString
	var ct string
	var durationMS int64
	dest := append([]any{&t.ID, &t.Title, &artist, &podcast, &ct, &t.MediaURL, &cover, &durationMS}, extra...)
	if err := row.Scan(dest...); err != nil {
		return catalog.Track{}, err
	}
	t.Artist = dbutil.NullStringValue(artist)
	t.PodcastName = dbutil.NullStringValue(podcast)
	t.CoverURL = dbutil.NullStringValue(cover)
	t.ContentType = catalog.ContentType(ct)
	t.Duration = time.Duration(durationMS) * time.Millisecond
	return t, nil
}

// SaveTrack inserts or updates a track. A track without an ID gets a new
// one, and a track whose media URL is already known takes over that
// row's ID. The stored track is returned.
func (s *Store) SaveTrack(ctx context.Context, t catalog.Track) (catalog.Track, error) {
	if !t.ContentType.Valid() {
		return catalog.Track{}, errors.Newf("store: invalid content type %q", t.ContentType)
	}
	if t.MediaURL == "" {
		return catalog.Track{}, errors.New("store: track has no media url")
	}

	err := dbutil.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		var existing string
		err := tx.QueryRowContext(ctx, `SELECT id FROM tracks WHERE media_url = ?`, t.MediaURL).Scan(&existing)
		switch {
		case err == nil:
			t.ID = existing
		case errors.Is(err, sql.ErrNoRows):
			if t.ID == "" {
				t.ID = s.newID()
			}
		default:
			return err
		}

		_, err = tx.ExecContext(ctx, `
			INSERT INTO tracks (id, title, artist, podcast_name, content_type, media_url, cover_url, duration_ms, added_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(id) DO UPDATE SET
				title = excluded.title,
				artist = excluded.artist,
				podcast_name = excluded.podcast_name,
				content_type = excluded.content_type,
				media_url = excluded.media_url,
				cover_url = excluded.cover_url,
				duration_ms = excluded.duration_ms
		`, t.ID, t.Title, dbutil.NullString(t.Artist), dbutil.NullString(t.PodcastName), string(t.ContentType),
			t.MediaURL, dbutil.NullString(t.CoverURL), t.Duration.Milliseconds(), s.now().UnixMilli())
		if err != nil {
			return err
		}

		if _, err := tx.ExecContext(ctx, `DELETE FROM track_categories WHERE track_id = ?`, t.ID); err != nil {
			return err
		}
		stmt, err := tx.PrepareContext(ctx, `
			INSERT INTO track_categories (track_id, position, category) VALUES (?, ?, ?)
		`)
		if err != nil {
			return err
		}
		defer stmt.Close()
		for i, c := range t.Categories {
			if _, err := stmt.ExecContext(ctx, t.ID, i, c); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return catalog.Track{}, errors.Wrap(err, "save track")
	}
	return t, nil
}

// Track returns the track with the given ID, or ErrNotFound.
func (s *Store) Track(ctx context.Context, id string) (catalog.Track, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+trackColumns+` FROM tracks t WHERE t.id = ?`, id)
	t, err := scanTrack(row)
	if errors.Is(err, sql.ErrNoRows) {
		return catalog.Track{}, errors.Wrapf(ErrNotFound, "track %s", id)
	}
	if err != nil {
		return catalog.Track{}, errors.Wrap(err, "get track")
	}
	if err := s.loadCategories(ctx, []*catalog.Track{&t}); err != nil {
		return catalog.Track{}, err
	}
	return t, nil
}

// Tracks returns the tracks matching f in insertion order.
func (s *Store) Tracks(ctx context.Context, f catalog.Filter) ([]catalog.Track, error) {
	var where []string
	var args []any
	if f.ContentType != "" {
		where = append(where, `t.content_type = ?`)
		args = append(args, string(f.ContentType))
	}
	if q := strings.TrimSpace(f.Query); q != "" {
		like := "%" + dbutil.EscapeLike(q) + "%"
		where = append(where, `(t.title LIKE ? ESCAPE '\' OR t.artist LIKE ? ESCAPE '\' OR t.podcast_name LIKE ? ESCAPE '\')`)
		args = append(args, like, like, like)
	}
	if f.Category != "" {
		where = append(where, `EXISTS (SELECT 1 FROM track_categories c WHERE c.track_id = t.id AND c.category = ? COLLATE NOCASE)`)
		args = append(args, f.Category)
	}

	query := `SELECT ` + trackColumns + ` FROM tracks t`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, ` AND `)
	}
	query += ` ORDER BY t.added_at, t.rowid`
	if f.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, f.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "query tracks")
	}
	defer rows.Close()

	var tracks []catalog.Track
	for rows.Next() {
		t, err := scanTrack(rows)
		if err != nil {
			return nil, errors.Wrap(err, "scan track")
		}
		tracks = append(tracks, t)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "query tracks")
	}

	ptrs := make([]*catalog.Track, len(tracks))
	for i := range tracks {
		ptrs[i] = &tracks[i]
	}
	if err := s.loadCategories(ctx, ptrs); err != nil {
		return nil, err
	}
	return tracks, nil
}

// loadCategories fills in the categories of the given tracks.
func (s *Store) loadCategories(ctx context.Context, tracks []*catalog.Track) error {
	if len(tracks) == 0 {
		return nil
	}
	byID := make(map[string][]*catalog.Track, len(tracks))
	args := make([]any, 0, len(tracks))
	for _, t := range tracks {
		if _, ok := byID[t.ID]; !ok {
			args = append(args, t.ID)
		}
		byID[t.ID] = append(byID[t.ID], t)
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(args)), ",")
	rows, err := s.db.QueryContext(ctx, `
		SELECT track_id, category FROM track_categories
		WHERE track_id IN (`+placeholders+`)
		ORDER BY track_id, position
	`, args...)
	if err != nil {
		return errors.Wrap(err, "query categories")
	}
	defer rows.Close()

	for rows.Next() {
		var id, category string
		if err := rows.Scan(&id, &category); err != nil {
			return errors.Wrap(err, "scan category")
		}
		for _, t := range byID[id] {
			t.Categories = append(t.Categories, category)
		}
	}
	return errors.Wrap(rows.Err(), "query categories")
}
