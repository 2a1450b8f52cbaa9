// Package database provides the SQLite-backed relational store.
// It holds per-guild music settings, blacklisted channels and the play log.
package database

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"
)

// schema is applied on every open; all statements are idempotent.
const schema = `
PRAGMA foreign_keys = ON;
PRAGMA journal_mode = WAL;
PRAGMA busy_timeout = 5000;

CREATE TABLE IF NOT EXISTS guilds (
	id         TEXT PRIMARY KEY,
	name       TEXT NOT NULL DEFAULT '',
	created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS music_settings (
	guild_id     TEXT PRIMARY KEY REFERENCES guilds(id),
	volume       INTEGER NOT NULL DEFAULT 50 CHECK (volume BETWEEN 0 AND 100),
	last_song    TEXT NOT NULL DEFAULT '',
	songs_played INTEGER NOT NULL DEFAULT 0,
	updated_at   DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS music_blacklisted_channels (
	guild_id   TEXT NOT NULL REFERENCES guilds(id),
	channel_id TEXT NOT NULL,
	created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	PRIMARY KEY (guild_id, channel_id)
);

CREATE TABLE IF NOT EXISTS music_logs (
	id             TEXT PRIMARY KEY,
	guild_id       TEXT NOT NULL REFERENCES guilds(id),
	song_name      TEXT NOT NULL,
	song_url       TEXT NOT NULL DEFAULT '',
	requester_id   TEXT NOT NULL,
	requester_name TEXT NOT NULL DEFAULT '',
	played_at      DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_music_logs_guild_played
	ON music_logs (guild_id, played_at DESC);
`

// Database manages the SQLite connection
type Database struct {
	db *sqlx.DB
}

var (
	database *Database
	dbOnce   sync.Once
)

// Init initializes the global database instance
func Init(databaseURL string) (*Database, error) {
	var err error
	dbOnce.Do(func() {
		database, err = Open(databaseURL)
	})
	return database, err
}

// Get returns the global database instance
func Get() *Database {
	return database
}

// Open opens (or creates) the SQLite database at the given path and applies
// the schema. The path ":memory:" is accepted for tests.
func Open(databaseURL string) (*Database, error) {
	if databaseURL != ":memory:" {
		if dir := filepath.Dir(databaseURL); dir != "." {
			if err := os.MkdirAll(dir, 0755); err != nil {
				return nil, fmt.Errorf("create database dir: %w", err)
			}
		}
	}

	db, err := sqlx.Open("sqlite", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// A single writer keeps SQLite happy and keeps :memory: databases
	// from fragmenting across pooled connections.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}

	return &Database{db: db}, nil
}

// Close closes the underlying connection
func (d *Database) Close() error {
	return d.db.Close()
}

// EnsureGuild makes sure a guild row exists, updating the stored name when
// one is provided.
func (d *Database) EnsureGuild(guildID, name string) error {
	_, err := d.db.Exec(
		`INSERT INTO guilds (id, name) VALUES (?, ?)
		 ON CONFLICT(id) DO UPDATE SET name = excluded.name WHERE excluded.name != ''`,
		guildID, name,
	)
	if err != nil {
		return fmt.Errorf("ensure guild %s: %w", guildID, err)
	}
	return nil
}
