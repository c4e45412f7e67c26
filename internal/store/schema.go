package store

import (
	"database/sql"
)

const currentSchemaVersion = 1

func initSchema(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_version (
			version INTEGER PRIMARY KEY
		);

		CREATE TABLE IF NOT EXISTS tracks (
			id TEXT PRIMARY KEY,
			title TEXT NOT NULL,
			artist TEXT,
			podcast_name TEXT,
			content_type TEXT NOT NULL CHECK (content_type IN ('music', 'podcast')),
			media_url TEXT NOT NULL,
			cover_url TEXT,
			duration_ms INTEGER NOT NULL DEFAULT 0,
			added_at INTEGER NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_tracks_content_type ON tracks(content_type);
		CREATE UNIQUE INDEX IF NOT EXISTS idx_tracks_media_url ON tracks(media_url);

		CREATE TABLE IF NOT EXISTS track_categories (
			track_id TEXT NOT NULL REFERENCES tracks(id) ON DELETE CASCADE,
			position INTEGER NOT NULL,
			category TEXT NOT NULL,
			PRIMARY KEY (track_id, position)
		);

		CREATE INDEX IF NOT EXISTS idx_track_categories_category ON track_categories(category);

		CREATE TABLE IF NOT EXISTS favorites (
			user_id TEXT NOT NULL,
			track_id TEXT NOT NULL REFERENCES tracks(id) ON DELETE CASCADE,
			created_at INTEGER NOT NULL,
			PRIMARY KEY (user_id, track_id)
		);

		CREATE TABLE IF NOT EXISTS recently_played (
			id TEXT PRIMARY KEY,
			user_id TEXT NOT NULL,
			track_id TEXT NOT NULL REFERENCES tracks(id) ON DELETE CASCADE,
			played_at INTEGER NOT NULL,
			progress INTEGER NOT NULL DEFAULT 0,
			UNIQUE (user_id, track_id)
		);

		CREATE INDEX IF NOT EXISTS idx_recently_played_user ON recently_played(user_id, played_at DESC);

		CREATE TABLE IF NOT EXISTS playlists (
			id TEXT PRIMARY KEY,
			user_id TEXT NOT NULL,
			name TEXT NOT NULL,
			description TEXT,
			created_at INTEGER NOT NULL,
			updated_at INTEGER NOT NULL,
			UNIQUE (user_id, name)
		);

		CREATE TABLE IF NOT EXISTS playlist_tracks (
			playlist_id TEXT NOT NULL REFERENCES playlists(id) ON DELETE CASCADE,
			position INTEGER NOT NULL,
			track_id TEXT NOT NULL REFERENCES tracks(id) ON DELETE CASCADE,
			added_at INTEGER NOT NULL,
			PRIMARY KEY (playlist_id, position)
		);

		CREATE INDEX IF NOT EXISTS idx_playlist_tracks_track ON playlist_tracks(track_id);

		CREATE TABLE IF NOT EXISTS player_settings (
			id INTEGER PRIMARY KEY CHECK (id = 1),
			volume REAL NOT NULL,
			shuffle INTEGER NOT NULL DEFAULT 0,
			repeat_mode INTEGER NOT NULL DEFAULT 0,
			theme TEXT
		);
	`)
	if err != nil {
		return err
	}

	_, err = db.Exec(`
		INSERT OR IGNORE INTO schema_version (version) VALUES (?)
	`, currentSchemaVersion)
	return err
}
