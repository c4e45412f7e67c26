package store

import (
	"context"
	"database/sql"

	"github.com/cockroachdb/errors"

	dbutil "github.com/llehouerou/soundwave/internal/db"
	"github.com/llehouerou/soundwave/internal/playlist"
)

// Settings are the player preferences restored at startup.
type Settings struct {
	Volume     float64
	Shuffle    bool
	RepeatMode playlist.RepeatMode
	Theme      string
}

// LoadSettings returns the saved settings. ok is false when nothing has
// been saved yet.
func (s *Store) LoadSettings(ctx context.Context) (Settings, bool, error) {
	var st Settings
	var repeat int
	var theme sql.NullString
	err := s.db.QueryRowContext(ctx, `
		SELECT volume, shuffle, repeat_mode, theme FROM player_settings WHERE id = 1
	`).Scan(&st.Volume, &st.Shuffle, &repeat, &theme)
	if errors.Is(err, sql.ErrNoRows) {
		return Settings{}, false, nil
	}
	if err != nil {
		return Settings{}, false, errors.Wrap(err, "load settings")
	}
	st.RepeatMode = playlist.RepeatMode(repeat)
	st.Theme = dbutil.NullStringValue(theme)
	return st, true, nil
}

// SaveSettings persists the settings.
func (s *Store) SaveSettings(ctx context.Context, st Settings) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO player_settings (id, volume, shuffle, repeat_mode, theme)
		VALUES (1, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			volume = excluded.volume,
			shuffle = excluded.shuffle,
			repeat_mode = excluded.repeat_mode,
			theme = excluded.theme
	`, st.Volume, st.Shuffle, int(st.RepeatMode), dbutil.NullString(st.Theme))
	return errors.Wrap(err, "save settings")
}
