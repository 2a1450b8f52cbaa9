package database

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/AuroraStudios/AuroraBotGo/pkg/models"
)

// ErrSettingsNotFound is returned when a guild has no settings row yet
var ErrSettingsNotFound = errors.New("music settings not found")

// EnsureSettings creates the settings row for a guild with default values.
// It is idempotent: an existing row is left untouched, so two concurrent
// first plays cannot produce a duplicate or reset a stored volume.
func (d *Database) EnsureSettings(guildID string) error {
	if err := d.EnsureGuild(guildID, ""); err != nil {
		return err
	}
	_, err := d.db.Exec(
		`INSERT INTO music_settings (guild_id, volume) VALUES (?, ?)
		 ON CONFLICT(guild_id) DO NOTHING`,
		guildID, models.DefaultVolume,
	)
	if err != nil {
		return fmt.Errorf("ensure settings %s: %w", guildID, err)
	}
	return nil
}

// GetSettings returns the persisted settings for a guild
func (d *Database) GetSettings(guildID string) (*models.MusicSettings, error) {
	var s models.MusicSettings
	err := d.db.Get(&s, `SELECT * FROM music_settings WHERE guild_id = ?`, guildID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrSettingsNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get settings %s: %w", guildID, err)
	}
	return &s, nil
}

// SetVolume persists a new volume for a guild. The write is skipped when the
// stored value already matches; the return value reports whether a row was
// actually written.
func (d *Database) SetVolume(guildID string, volume int) (bool, error) {
	if volume < models.MinVolume || volume > models.MaxVolume {
		return false, fmt.Errorf("volume %d out of range", volume)
	}

	res, err := d.db.Exec(
		`UPDATE music_settings
		 SET volume = ?, updated_at = CURRENT_TIMESTAMP
		 WHERE guild_id = ? AND volume != ?`,
		volume, guildID, volume,
	)
	if err != nil {
		return false, fmt.Errorf("set volume %s: %w", guildID, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// RecordSongPlayed updates the last played song and bumps the monotonic
// play counter for a guild.
func (d *Database) RecordSongPlayed(guildID, songName string) error {
	_, err := d.db.Exec(
		`UPDATE music_settings
		 SET last_song = ?, songs_played = songs_played + 1, updated_at = CURRENT_TIMESTAMP
		 WHERE guild_id = ?`,
		songName, guildID,
	)
	if err != nil {
		return fmt.Errorf("record song played %s: %w", guildID, err)
	}
	return nil
}
