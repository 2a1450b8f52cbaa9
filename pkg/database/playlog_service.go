package database

import (
	"fmt"

	"github.com/AuroraStudios/AuroraBotGo/pkg/models"
	"github.com/google/uuid"
)

// playLogFetchCap is the server-side ceiling on play-log queries, applied
// regardless of the limit a caller asks for.
const playLogFetchCap = 50

// AppendPlay appends one row to the append-only play log
func (d *Database) AppendPlay(entry models.PlayLogEntry) error {
	if entry.ID == "" {
		entry.ID = uuid.New().String()
	}

	var err error
	if entry.PlayedAt.IsZero() {
		_, err = d.db.Exec(
			`INSERT INTO music_logs (id, guild_id, song_name, song_url, requester_id, requester_name)
			 VALUES (?, ?, ?, ?, ?, ?)`,
			entry.ID, entry.GuildID, entry.SongName, entry.SongURL, entry.RequesterID, entry.RequesterName,
		)
	} else {
		_, err = d.db.Exec(
			`INSERT INTO music_logs (id, guild_id, song_name, song_url, requester_id, requester_name, played_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`,
			entry.ID, entry.GuildID, entry.SongName, entry.SongURL, entry.RequesterID, entry.RequesterName, entry.PlayedAt,
		)
	}
	if err != nil {
		return fmt.Errorf("append play %s: %w", entry.GuildID, err)
	}
	return nil
}

// RecentPlays returns the most recent plays for a guild, newest first.
// requesterID, when non-empty, filters to a single requester. The limit is
// clamped to playLogFetchCap.
func (d *Database) RecentPlays(guildID, requesterID string, limit int) ([]models.PlayLogEntry, error) {
	if limit <= 0 || limit > playLogFetchCap {
		limit = playLogFetchCap
	}

	var rows []models.PlayLogEntry
	var err error
	if requesterID != "" {
		err = d.db.Select(&rows,
			`SELECT * FROM music_logs WHERE guild_id = ? AND requester_id = ?
			 ORDER BY played_at DESC, id DESC LIMIT ?`,
			guildID, requesterID, limit,
		)
	} else {
		err = d.db.Select(&rows,
			`SELECT * FROM music_logs WHERE guild_id = ?
			 ORDER BY played_at DESC, id DESC LIMIT ?`,
			guildID, limit,
		)
	}
	if err != nil {
		return nil, fmt.Errorf("recent plays %s: %w", guildID, err)
	}
	return rows, nil
}
