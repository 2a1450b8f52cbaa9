package music

import (
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"
)

// Embed colors used across music replies
const (
	ColorPlaying = 0x5865F2
	ColorInfo    = 0xFEE75C
	ColorError   = 0xED4245
)

// Component custom IDs routed by the interaction dispatcher. History rows
// append their one-based position, e.g. "music:historyplay:3".
const (
	CustomIDRewind      = "music:rewind"
	CustomIDPlayPause   = "music:playpause"
	CustomIDSkip        = "music:skip"
	CustomIDRepeat      = "music:repeat"
	CustomIDRepeatAll   = "music:repeatall"
	CustomIDDisconnect  = "music:disconnect"
	CustomIDStopDynamic = "music:stopdynamic"
	CustomIDHistoryPlay = "music:historyplay"
)

const progressBarWidth = 18

// progressBar renders the elapsed/total position as a slider line
func progressBar(position, total time.Duration) string {
	if total <= 0 {
		return ""
	}
	if position > total {
		position = total
	}
	knob := int(float64(progressBarWidth) * float64(position) / float64(total))
	if knob >= progressBarWidth {
		knob = progressBarWidth - 1
	}
	var b strings.Builder
	for i := 0; i < progressBarWidth; i++ {
		if i == knob {
			b.WriteString("🔘")
		} else {
			b.WriteString("▬")
		}
	}
	return b.String()
}

// NowPlayingEmbed renders the current song with live position and queue state
func NowPlayingEmbed(q *Queue, position time.Duration) *discordgo.MessageEmbed {
	s := q.Current
	if s == nil {
		return &discordgo.MessageEmbed{
			Title: "Nothing playing",
			Color: ColorInfo,
		}
	}

	var desc strings.Builder
	fmt.Fprintf(&desc, "[%s](%s)\nby **%s**\n\n", s.Name, s.URL, s.Author)
	if s.Stream {
		desc.WriteString("🔴 LIVE")
	} else {
		fmt.Fprintf(&desc, "%s\n`%s / %s`", progressBar(position, s.Duration), formatDuration(position), s.FormatDuration())
	}

	status := "▶️ Playing"
	if q.Paused {
		status = "⏸️ Paused"
	}

	embed := &discordgo.MessageEmbed{
		Title:       status,
		Description: desc.String(),
		Color:       ColorPlaying,
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Requested by", Value: fmt.Sprintf("<@%s>", s.RequesterID), Inline: true},
			{Name: "Up next", Value: fmt.Sprintf("%d songs", len(q.Pending)), Inline: true},
			{Name: "Loop", Value: q.Repeat.String(), Inline: true},
		},
	}
	if s.ArtworkURL != "" {
		embed.Thumbnail = &discordgo.MessageEmbedThumbnail{URL: s.ArtworkURL}
	}
	return embed
}

// AddedEmbed confirms songs were appended to an already-active queue
func AddedEmbed(songs []*Song, collectionName string) *discordgo.MessageEmbed {
	if collectionName != "" {
		var total time.Duration
		for _, s := range songs {
			total += s.Duration
		}
		return &discordgo.MessageEmbed{
			Title:       "Playlist added",
			Description: fmt.Sprintf("**%s** — %d songs (`%s`)", collectionName, len(songs), formatDuration(total)),
			Color:       ColorPlaying,
		}
	}
	s := songs[0]
	return &discordgo.MessageEmbed{
		Title:       "Added to queue",
		Description: fmt.Sprintf("[%s](%s) (`%s`)", s.Name, s.URL, s.FormatDuration()),
		Color:       ColorPlaying,
	}
}

// QueueEmbed lists the current song and up to count pending songs
func QueueEmbed(q *Queue, count int) *discordgo.MessageEmbed {
	var desc strings.Builder
	if q.Current != nil {
		fmt.Fprintf(&desc, "**Now:** [%s](%s) (`%s`)\n\n", q.Current.Name, q.Current.URL, q.Current.FormatDuration())
	}
	if len(q.Pending) == 0 {
		desc.WriteString("The queue is empty.")
	} else {
		shown := q.Pending
		if len(shown) > count {
			shown = shown[:count]
		}
		for i, s := range shown {
			fmt.Fprintf(&desc, "`%d.` [%s](%s) (`%s`)\n", i+1, s.Name, s.URL, s.FormatDuration())
		}
		if rest := len(q.Pending) - len(shown); rest > 0 {
			fmt.Fprintf(&desc, "\n…and %d more", rest)
		}
	}
	return &discordgo.MessageEmbed{
		Title:       fmt.Sprintf("Queue — %s", q.GuildName),
		Description: desc.String(),
		Color:       ColorPlaying,
		Footer: &discordgo.MessageEmbedFooter{
			Text: fmt.Sprintf("%d pending • %s remaining • loop %s", len(q.Pending), formatDuration(q.PendingDuration()), q.Repeat),
		},
	}
}

// RenderNowPlaying renders the guild's current song with live position
func (s *Service) RenderNowPlaying(guildID string) (*discordgo.MessageEmbed, error) {
	q, ok := s.Queue(guildID)
	if !ok {
		return nil, ErrNoQueue
	}
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.Current == nil {
		return nil, ErrNothingPlaying
	}
	return NowPlayingEmbed(q, s.position(q)), nil
}

// RenderQueue renders the guild's queue listing up to count pending songs
func (s *Service) RenderQueue(guildID string, count int) (*discordgo.MessageEmbed, error) {
	q, ok := s.Queue(guildID)
	if !ok {
		return nil, ErrNoQueue
	}
	q.mu.Lock()
	defer q.mu.Unlock()
	return QueueEmbed(q, count), nil
}

// InfoEmbed wraps an informational message in the muted reply style
func InfoEmbed(message string) *discordgo.MessageEmbed {
	return &discordgo.MessageEmbed{Description: message, Color: ColorInfo}
}

// ErrorEmbed wraps a failure message in the error reply style
func ErrorEmbed(message string) *discordgo.MessageEmbed {
	return &discordgo.MessageEmbed{Description: message, Color: ColorError}
}

// PlayerComponents builds the button row attached to the now-playing widget
func PlayerComponents(paused bool) []discordgo.MessageComponent {
	playPause := "⏸️"
	if paused {
		playPause = "▶️"
	}
	return []discordgo.MessageComponent{
		discordgo.ActionsRow{
			Components: []discordgo.MessageComponent{
				discordgo.Button{Style: discordgo.SecondaryButton, Emoji: &discordgo.ComponentEmoji{Name: "⏪"}, CustomID: CustomIDRewind},
				discordgo.Button{Style: discordgo.PrimaryButton, Emoji: &discordgo.ComponentEmoji{Name: playPause}, CustomID: CustomIDPlayPause},
				discordgo.Button{Style: discordgo.SecondaryButton, Emoji: &discordgo.ComponentEmoji{Name: "⏭️"}, CustomID: CustomIDSkip},
				discordgo.Button{Style: discordgo.SecondaryButton, Emoji: &discordgo.ComponentEmoji{Name: "🔂"}, CustomID: CustomIDRepeat},
				discordgo.Button{Style: discordgo.SecondaryButton, Emoji: &discordgo.ComponentEmoji{Name: "🔁"}, CustomID: CustomIDRepeatAll},
			},
		},
		discordgo.ActionsRow{
			Components: []discordgo.MessageComponent{
				discordgo.Button{Style: discordgo.DangerButton, Emoji: &discordgo.ComponentEmoji{Name: "⏏️"}, CustomID: CustomIDDisconnect},
				discordgo.Button{Style: discordgo.SecondaryButton, Emoji: &discordgo.ComponentEmoji{Name: "🛑"}, CustomID: CustomIDStopDynamic},
			},
		},
	}
}
