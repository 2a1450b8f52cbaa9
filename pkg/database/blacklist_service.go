package database

import (
	"errors"
	"fmt"

	"github.com/AuroraStudios/AuroraBotGo/pkg/models"
)

var (
	// ErrAlreadyBlacklisted is returned when blacklisting a channel twice
	ErrAlreadyBlacklisted = errors.New("channel is already blacklisted")
	// ErrNotBlacklisted is returned when freeing a channel that is not blacklisted
	ErrNotBlacklisted = errors.New("channel is not blacklisted")
)

// BlacklistChannel records a text channel as barred from music commands.
// Blacklisting a channel that is already blacklisted fails with
// ErrAlreadyBlacklisted and does not create a duplicate row.
func (d *Database) BlacklistChannel(guildID, channelID string) error {
	if err := d.EnsureGuild(guildID, ""); err != nil {
		return err
	}

	res, err := d.db.Exec(
		`INSERT INTO music_blacklisted_channels (guild_id, channel_id) VALUES (?, ?)
		 ON CONFLICT(guild_id, channel_id) DO NOTHING`,
		guildID, channelID,
	)
	if err != nil {
		return fmt.Errorf("blacklist channel %s/%s: %w", guildID, channelID, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrAlreadyBlacklisted
	}
	return nil
}

// FreeChannel removes a channel from the blacklist. Freeing a channel with
// zero matching rows fails with ErrNotBlacklisted.
func (d *Database) FreeChannel(guildID, channelID string) error {
	res, err := d.db.Exec(
		`DELETE FROM music_blacklisted_channels WHERE guild_id = ? AND channel_id = ?`,
		guildID, channelID,
	)
	if err != nil {
		return fmt.Errorf("free channel %s/%s: %w", guildID, channelID, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotBlacklisted
	}
	return nil
}

// IsChannelBlacklisted reports whether a channel is barred from music commands
func (d *Database) IsChannelBlacklisted(guildID, channelID string) (bool, error) {
	var count int
	err := d.db.Get(&count,
		`SELECT COUNT(*) FROM music_blacklisted_channels WHERE guild_id = ? AND channel_id = ?`,
		guildID, channelID,
	)
	if err != nil {
		return false, fmt.Errorf("check blacklist %s/%s: %w", guildID, channelID, err)
	}
	return count > 0, nil
}

// BlacklistedChannels lists all blacklisted channels for a guild
func (d *Database) BlacklistedChannels(guildID string) ([]models.BlacklistedChannel, error) {
	var rows []models.BlacklistedChannel
	err := d.db.Select(&rows,
		`SELECT * FROM music_blacklisted_channels WHERE guild_id = ? ORDER BY created_at`,
		guildID,
	)
	if err != nil {
		return nil, fmt.Errorf("list blacklist %s: %w", guildID, err)
	}
	return rows, nil
}
