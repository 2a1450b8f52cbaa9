package models

import "time"

// PlayLogEntry is an append-only record of a single song play.
// Rows are never mutated or deleted.
type PlayLogEntry struct {
	ID            string    `db:"id"`
	GuildID       string    `db:"guild_id"`
	SongName      string    `db:"song_name"`
	SongURL       string    `db:"song_url"`
	RequesterID   string    `db:"requester_id"`
	RequesterName string    `db:"requester_name"`
	PlayedAt      time.Time `db:"played_at"`
}
