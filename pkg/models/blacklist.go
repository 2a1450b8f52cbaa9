package models

import "time"

// BlacklistedChannel marks a text channel as barred from music commands.
// Presence of a row is the whole signal; there is no soft-delete.
type BlacklistedChannel struct {
	GuildID   string    `db:"guild_id"`
	ChannelID string    `db:"channel_id"`
	CreatedAt time.Time `db:"created_at"`
}
