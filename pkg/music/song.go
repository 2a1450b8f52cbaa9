package music

import (
	"fmt"
	"time"

	"github.com/AuroraStudios/AuroraBotGo/pkg/lavalink"
)

// Song is a queued track together with the user that requested it
type Song struct {
	Encoded       string
	Name          string
	Author        string
	URL           string
	ArtworkURL    string
	Duration      time.Duration
	Stream        bool
	RequesterID   string
	RequesterName string
}

// NewSong builds a Song from a loaded track and its requester
func NewSong(track *lavalink.Track, requesterID, requesterName string) *Song {
	return &Song{
		Encoded:       track.Encoded,
		Name:          track.Info.Title,
		Author:        track.Info.Author,
		URL:           track.Info.URI,
		ArtworkURL:    track.Info.ArtworkURL,
		Duration:      time.Duration(track.Info.Length) * time.Millisecond,
		Stream:        track.Info.IsStream,
		RequesterID:   requesterID,
		RequesterName: requesterName,
	}
}

// FormatDuration renders the song length as m:ss or h:mm:ss, or LIVE for streams
func (s *Song) FormatDuration() string {
	if s.Stream {
		return "LIVE"
	}
	return formatDuration(s.Duration)
}

func formatDuration(d time.Duration) string {
	total := int(d.Seconds())
	hours := total / 3600
	minutes := (total % 3600) / 60
	seconds := total % 60
	if hours > 0 {
		return fmt.Sprintf("%d:%02d:%02d", hours, minutes, seconds)
	}
	return fmt.Sprintf("%d:%02d", minutes, seconds)
}
