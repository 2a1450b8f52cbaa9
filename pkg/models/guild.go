package models

import "time"

// Guild represents a Discord guild known to the bot
type Guild struct {
	ID        string    `db:"id"`
	Name      string    `db:"name"`
	CreatedAt time.Time `db:"created_at"`
}

// MusicSettings holds the persisted per-guild music configuration.
// A row is created lazily on the first play in a guild.
type MusicSettings struct {
	GuildID     string    `db:"guild_id"`
	Volume      int       `db:"volume"`
	LastSong    string    `db:"last_song"`
	SongsPlayed int       `db:"songs_played"`
	UpdatedAt   time.Time `db:"updated_at"`
}

// Volume bounds for persisted and live playback volume
const (
	MinVolume     = 0
	MaxVolume     = 100
	DefaultVolume = 50
)
