package music

import (
	"fmt"
	"time"

	"github.com/bwmarrin/discordgo"
)

// HistorySource names where history entries came from
type HistorySource int

const (
	// HistoryLive means the entries came from the active queue's memory
	HistoryLive HistorySource = iota
	// HistoryPersisted means the entries came from the play log table
	HistoryPersisted
)

// HistoryItem is a row in the guild's play history, regardless of source
type HistoryItem struct {
	Name          string
	URL           string
	RequesterID   string
	RequesterName string
	PlayedAt      time.Time
}

// History returns the guild's recent plays, newest first. A live queue's
// in-memory history wins; otherwise the persisted play log is consulted.
// requesterID, when non-empty, filters to one user's requests.
func (s *Service) History(guildID, requesterID string, limit int) ([]HistoryItem, HistorySource, error) {
	if limit <= 0 {
		limit = historyCap
	}

	if q, ok := s.Queue(guildID); ok {
		q.mu.Lock()
		var items []HistoryItem
		for _, song := range q.History {
			if requesterID != "" && song.RequesterID != requesterID {
				continue
			}
			items = append(items, HistoryItem{
				Name:          song.Name,
				URL:           song.URL,
				RequesterID:   song.RequesterID,
				RequesterName: song.RequesterName,
			})
			if len(items) == limit {
				break
			}
		}
		q.mu.Unlock()
		if len(items) > 0 {
			return items, HistoryLive, nil
		}
	}

	if s.db == nil {
		return nil, HistoryPersisted, nil
	}
	rows, err := s.db.RecentPlays(guildID, requesterID, limit)
	if err != nil {
		return nil, HistoryPersisted, fmt.Errorf("load play log: %w", err)
	}
	items := make([]HistoryItem, 0, len(rows))
	for _, row := range rows {
		items = append(items, HistoryItem{
			Name:          row.SongName,
			URL:           row.SongURL,
			RequesterID:   row.RequesterID,
			RequesterName: row.RequesterName,
			PlayedAt:      row.PlayedAt,
		})
	}
	return items, HistoryPersisted, nil
}

// HistoryEmbed lists recent plays with replay buttons handled elsewhere
func HistoryEmbed(guildName string, items []HistoryItem, source HistorySource) *discordgo.MessageEmbed {
	if len(items) == 0 {
		return InfoEmbed("No play history yet.")
	}
	desc := ""
	for i, item := range items {
		desc += fmt.Sprintf("`%d.` [%s](%s) — <@%s>\n", i+1, item.Name, item.URL, item.RequesterID)
	}
	footer := "from this session"
	if source == HistoryPersisted {
		footer = "from past sessions"
	}
	return &discordgo.MessageEmbed{
		Title:       fmt.Sprintf("Play history — %s", guildName),
		Description: desc,
		Color:       ColorPlaying,
		Footer:      &discordgo.MessageEmbedFooter{Text: footer},
	}
}

// HistoryComponents builds replay buttons for up to five listed entries
func HistoryComponents(n int) []discordgo.MessageComponent {
	if n <= 0 {
		return nil
	}
	if n > 5 {
		n = 5
	}
	row := discordgo.ActionsRow{}
	for i := 1; i <= n; i++ {
		row.Components = append(row.Components, discordgo.Button{
			Style:    discordgo.SecondaryButton,
			Label:    fmt.Sprintf("Play %d", i),
			CustomID: fmt.Sprintf("%s:%d", CustomIDHistoryPlay, i),
		})
	}
	return []discordgo.MessageComponent{row}
}
