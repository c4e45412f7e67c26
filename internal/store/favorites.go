package store

import (
	"context"
	"time"

	"github.com/cockroachdb/errors"

	"github.com/llehouerou/soundwave/internal/catalog"
)

// IsFavorite reports whether the user has favorited the track.
func (s *Store) IsFavorite(ctx context.Context, userID, trackID string) (bool, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM favorites WHERE user_id = ? AND track_id = ?
	`, userID, trackID).Scan(&n)
	if err != nil {
		return false, errors.Wrap(err, "query favorite")
	}
	return n > 0, nil
}

// AddFavorite favorites the track for the user. Adding twice is a no-op.
func (s *Store) AddFavorite(ctx context.Context, userID, trackID string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT OR IGNORE INTO favorites (user_id, track_id, created_at) VALUES (?, ?, ?)
	`, userID, trackID, s.now().UnixMilli())
	return errors.Wrap(err, "add favorite")
}

// RemoveFavorite removes the track from the user's favorites.
func (s *Store) RemoveFavorite(ctx context.Context, userID, trackID string) error {
	_, err := s.db.ExecContext(ctx, `
		DELETE FROM favorites WHERE user_id = ? AND track_id = ?
	`, userID, trackID)
	return errors.Wrap(err, "remove favorite")
}

// Favorites returns the user's favorites, most recent first.
func (s *Store) Favorites(ctx context.Context, userID string) ([]catalog.Favorite, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+trackColumns+`, f.created_at
		FROM favorites f
		JOIN tracks t ON t.id = f.track_id
		WHERE f.user_id = ?
		ORDER BY f.created_at DESC, f.rowid DESC
	`, userID)
	if err != nil {
		return nil, errors.Wrap(err, "query favorites")
	}
	defer rows.Close()

	var favs []catalog.Favorite
	for rows.Next() {
		var created int64
		t, err := scanTrack(rows, &created)
		if err != nil {
			return nil, errors.Wrap(err, "scan favorite")
		}
		favs = append(favs, catalog.Favorite{
			UserID:    userID,
			Track:     t,
			CreatedAt: time.UnixMilli(created),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "query favorites")
	}

	ptrs := make([]*catalog.Track, len(favs))
	for i := range favs {
		ptrs[i] = &favs[i].Track
	}
	if err := s.loadCategories(ctx, ptrs); err != nil {
		return nil, err
	}
	return favs, nil
}
