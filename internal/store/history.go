package store

import (
	"context"
	"time"

	"github.com/cockroachdb/errors"

	"github.com/llehouerou/soundwave/internal/catalog"
)

// LogRecentlyPlayed records that the user listened to the track up to
// progress seconds. The user's entry for the track is replaced, so a
// session of periodic updates leaves a single row.
func (s *Store) LogRecentlyPlayed(ctx context.Context, userID, trackID string, progress int) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO recently_played (id, user_id, track_id, played_at, progress)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(user_id, track_id) DO UPDATE SET
			played_at = excluded.played_at,
			progress = excluded.progress
	`, s.newID(), userID, trackID, s.now().UnixMilli(), max(progress, 0))
	return errors.Wrap(err, "log recently played")
}

// RecentlyPlayed returns the user's history, most recent first. A limit of
// zero returns everything.
func (s *Store) RecentlyPlayed(ctx context.Context, userID string, limit int) ([]catalog.RecentlyPlayed, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+trackColumns+`, r.id, r.played_at, r.progress
		FROM recently_played r
		JOIN tracks t ON t.id = r.track_id
		WHERE r.user_id = ?
		ORDER BY r.played_at DESC, r.rowid DESC
		LIMIT ?
	`, userID, limit)
	if err != nil {
		return nil, errors.Wrap(err, "query recently played")
	}
	defer rows.Close()

	var out []catalog.RecentlyPlayed
	for rows.Next() {
		var r catalog.RecentlyPlayed
		var playedAt int64
		t, err := scanTrack(rows, &r.ID, &playedAt, &r.Progress)
		if err != nil {
			return nil, errors.Wrap(err, "scan recently played")
		}
		r.UserID = userID
		r.Track = t
		r.PlayedAt = time.UnixMilli(playedAt)
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "query recently played")
	}

	ptrs := make([]*catalog.Track, len(out))
	for i := range out {
		ptrs[i] = &out[i].Track
	}
	if err := s.loadCategories(ctx, ptrs); err != nil {
		return nil, err
	}
	return out, nil
}
