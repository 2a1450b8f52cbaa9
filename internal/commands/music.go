package commands

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/AuroraStudios/AuroraBotGo/pkg/discord"
	"github.com/AuroraStudios/AuroraBotGo/pkg/music"
)

var minVolumeFloat = 0.0

// RegisterMusicCommands registers all music commands
func RegisterMusicCommands(client *discord.ExtendedClient) {
	ch := client.CommandHandler

	ch.RegisterCommand(discord.NewCommand(
		"play",
		"Play a song or add it to the queue",
		discord.CategoryMusic,
		playHandler,
	).WithOptions(
		&discordgo.ApplicationCommandOption{
			Type:        discordgo.ApplicationCommandOptionString,
			Name:        "query",
			Description: "Song name or URL",
			Required:    true,
		},
	).RequiresVoice())

	ch.RegisterCommand(discord.NewCommand(
		"pause",
		"Pause playback",
		discord.CategoryMusic,
		pauseHandler,
	).RequiresVoice())

	ch.RegisterCommand(discord.NewCommand(
		"resume",
		"Resume paused playback",
		discord.CategoryMusic,
		resumeHandler,
	).RequiresVoice())

	ch.RegisterCommand(discord.NewCommand(
		"skip",
		"Skip to the next song",
		discord.CategoryMusic,
		skipHandler,
	).RequiresVoice())

	ch.RegisterCommand(discord.NewCommand(
		"seek",
		"Jump to a position in the current song",
		discord.CategoryMusic,
		seekHandler,
	).WithOptions(
		&discordgo.ApplicationCommandOption{
			Type:        discordgo.ApplicationCommandOptionString,
			Name:        "position",
			Description: "Position like 1:23, 1:02:03 or plain seconds",
			Required:    true,
		},
	).RequiresVoice())

	ch.RegisterCommand(discord.NewCommand(
		"queue",
		"Show the playback queue",
		discord.CategoryMusic,
		queueHandler,
	).WithOptions(
		&discordgo.ApplicationCommandOption{
			Type:        discordgo.ApplicationCommandOptionInteger,
			Name:        "count",
			Description: "How many pending songs to show (1-25)",
			Required:    false,
		},
	))

	ch.RegisterCommand(discord.NewCommand(
		"shuffle",
		"Shuffle the pending songs",
		discord.CategoryMusic,
		shuffleHandler,
	).RequiresVoice())

	ch.RegisterCommand(discord.NewCommand(
		"volume",
		"Set the playback volume",
		discord.CategoryMusic,
		volumeHandler,
	).WithOptions(
		&discordgo.ApplicationCommandOption{
			Type:        discordgo.ApplicationCommandOptionInteger,
			Name:        "level",
			Description: "Volume from 0 to 100",
			Required:    true,
			MinValue:    &minVolumeFloat,
			MaxValue:    100,
		},
	))

	ch.RegisterCommand(discord.NewCommand(
		"loop",
		"Repeat the current song",
		discord.CategoryMusic,
		repeatHandler(music.RepeatSingle, "Looping the current song."),
	).RequiresVoice())

	ch.RegisterCommand(discord.NewCommand(
		"loopall",
		"Repeat the whole queue",
		discord.CategoryMusic,
		repeatHandler(music.RepeatAll, "Looping the whole queue."),
	).RequiresVoice())

	ch.RegisterCommand(discord.NewCommand(
		"unloop",
		"Turn repeating off",
		discord.CategoryMusic,
		repeatHandler(music.RepeatOff, "Looping turned off."),
	).RequiresVoice())

	ch.RegisterCommand(discord.NewCommand(
		"disconnect",
		"Stop playback and leave the voice channel",
		discord.CategoryMusic,
		disconnectHandler,
	).RequiresVoice())

	ch.RegisterCommand(discord.NewCommand(
		"np",
		"Show what is playing now",
		discord.CategoryMusic,
		nowPlayingHandler,
	).WithOptions(
		&discordgo.ApplicationCommandOption{
			Type:        discordgo.ApplicationCommandOptionString,
			Name:        "dynamic",
			Description: "Keep the message refreshing itself",
			Required:    false,
			Choices: []*discordgo.ApplicationCommandOptionChoice{
				{Name: "updateable", Value: "updateable"},
				{Name: "pinned", Value: "pinned"},
				{Name: "off", Value: "off"},
			},
		},
	))
}

func playHandler(ctx *discord.CommandContext) error {
	if err := ctx.Defer(); err != nil {
		return err
	}

	result, err := music.Get().Play(music.PlayRequest{
		GuildID:        ctx.Interaction.GuildID,
		GuildName:      ctx.GuildName(),
		TextChannelID:  ctx.Interaction.ChannelID,
		VoiceChannelID: ctx.VoiceChannelID(),
		RequesterID:    ctx.User().ID,
		RequesterName:  ctx.User().Username,
		Query:          ctx.GetStringOption("query"),
	})
	if err != nil {
		if music.IsInfo(err) {
			return ctx.EditReplyEmbed(music.ErrorEmbed(err.Error()))
		}
		return err
	}

	if result.Started {
		embed, renderErr := music.Get().RenderNowPlaying(ctx.Interaction.GuildID)
		if renderErr != nil {
			return renderErr
		}
		return ctx.EditReplyEmbed(embed)
	}
	return ctx.EditReplyEmbed(music.AddedEmbed(result.Songs, result.CollectionName))
}

func pauseHandler(ctx *discord.CommandContext) error {
	if err := music.Get().Pause(ctx.Interaction.GuildID); err != nil {
		return err
	}
	music.Get().UpdateDynamic(ctx.Interaction.GuildID)
	return ctx.ReplyEmbedTemp(music.InfoEmbed("⏸️ Playback paused."))
}

func resumeHandler(ctx *discord.CommandContext) error {
	if err := music.Get().Resume(ctx.Interaction.GuildID); err != nil {
		return err
	}
	music.Get().UpdateDynamic(ctx.Interaction.GuildID)
	return ctx.ReplyEmbedTemp(music.InfoEmbed("▶️ Playback resumed."))
}

func skipHandler(ctx *discord.CommandContext) error {
	next, err := music.Get().Skip(ctx.Interaction.GuildID)
	if err != nil {
		return err
	}
	if next == nil {
		return ctx.ReplyEmbedTemp(music.InfoEmbed("⏭️ That was the last song. Leaving the voice channel."))
	}
	music.Get().UpdateDynamic(ctx.Interaction.GuildID)
	return ctx.ReplyEmbedTemp(music.InfoEmbed(fmt.Sprintf("⏭️ Skipped. Now playing **%s**.", next.Name)))
}

// positionPattern accepts h:mm:ss, m:ss or plain seconds
var positionPattern = regexp.MustCompile(`^(?:(\d+):)?(\d{1,2}):(\d{2})$|^\d+$`)

func parsePosition(raw string) (time.Duration, error) {
	raw = strings.TrimSpace(raw)
	m := positionPattern.FindStringSubmatch(raw)
	if m == nil {
		return 0, music.Info("position must look like `1:23`, `1:02:03` or plain seconds")
	}
	if m[2] == "" {
		secs, _ := strconv.Atoi(raw)
		return time.Duration(secs) * time.Second, nil
	}
	hours := 0
	if m[1] != "" {
		hours, _ = strconv.Atoi(m[1])
	}
	minutes, _ := strconv.Atoi(m[2])
	seconds, _ := strconv.Atoi(m[3])
	if seconds > 59 || (m[1] != "" && minutes > 59) {
		return 0, music.Info("position must look like `1:23`, `1:02:03` or plain seconds")
	}
	total := time.Duration(hours)*time.Hour + time.Duration(minutes)*time.Minute + time.Duration(seconds)*time.Second
	return total, nil
}

func seekHandler(ctx *discord.CommandContext) error {
	position, err := parsePosition(ctx.GetStringOption("position"))
	if err != nil {
		return err
	}
	if err := music.Get().Seek(ctx.Interaction.GuildID, position); err != nil {
		return err
	}
	music.Get().UpdateDynamic(ctx.Interaction.GuildID)
	return ctx.ReplyEmbedTemp(music.InfoEmbed(fmt.Sprintf("⏩ Jumped to `%s`.", ctx.GetStringOption("position"))))
}

// clampCount bounds a user-provided list size to 1..25
func clampCount(n int64, fallback int) int {
	if n == 0 {
		return fallback
	}
	if n < 1 {
		return 1
	}
	if n > 25 {
		return 25
	}
	return int(n)
}

func queueHandler(ctx *discord.CommandContext) error {
	count := clampCount(ctx.GetIntOption("count"), 10)
	embed, err := music.Get().RenderQueue(ctx.Interaction.GuildID, count)
	if err != nil {
		return err
	}
	return ctx.ReplyEmbed(embed)
}

func shuffleHandler(ctx *discord.CommandContext) error {
	n, err := music.Get().Shuffle(ctx.Interaction.GuildID)
	if err != nil {
		return err
	}
	music.Get().UpdateDynamic(ctx.Interaction.GuildID)
	return ctx.ReplyEmbedTemp(music.InfoEmbed(fmt.Sprintf("🔀 Shuffled %d pending songs.", n)))
}

func volumeHandler(ctx *discord.CommandContext) error {
	level := int(ctx.GetIntOption("level"))
	if err := music.Get().SetVolume(ctx.Interaction.GuildID, ctx.GuildName(), level); err != nil {
		return err
	}
	return ctx.ReplyEmbedTemp(music.InfoEmbed(fmt.Sprintf("🔊 Volume set to **%d**.", level)))
}

func repeatHandler(mode music.RepeatMode, confirmation string) discord.CommandRunFunc {
	return func(ctx *discord.CommandContext) error {
		if err := music.Get().SetRepeat(ctx.Interaction.GuildID, mode); err != nil {
			return err
		}
		music.Get().UpdateDynamic(ctx.Interaction.GuildID)
		return ctx.ReplyEmbedTemp(music.InfoEmbed("🔁 " + confirmation))
	}
}

func disconnectHandler(ctx *discord.CommandContext) error {
	if !music.Get().Disconnect(ctx.Interaction.GuildID) {
		return music.ErrNoQueue
	}
	return ctx.ReplyEmbedTemp(music.InfoEmbed("👋 Disconnected."))
}

func nowPlayingHandler(ctx *discord.CommandContext) error {
	svc := music.Get()
	guildID := ctx.Interaction.GuildID

	switch ctx.GetStringOption("dynamic") {
	case "off":
		cleared, err := svc.ClearDynamic(guildID)
		if err != nil {
			return err
		}
		if cleared == music.DynamicNone {
			return ctx.ReplyEphemeralEmbed(music.InfoEmbed("There was no dynamic player to stop."))
		}
		return ctx.ReplyEmbedTemp(music.InfoEmbed("🛑 Dynamic player stopped."))
	case "updateable":
		if err := svc.SetDynamic(guildID, ctx.Interaction.ChannelID, music.DynamicUpdateable); err != nil {
			return err
		}
		return ctx.ReplyEphemeralEmbed(music.InfoEmbed("Dynamic player attached. It refreshes itself in place."))
	case "pinned":
		if err := svc.SetDynamic(guildID, ctx.Interaction.ChannelID, music.DynamicPinned); err != nil {
			return err
		}
		return ctx.ReplyEphemeralEmbed(music.InfoEmbed("Dynamic player attached. It stays at the bottom of the channel."))
	}

	embed, err := svc.RenderNowPlaying(guildID)
	if err != nil {
		return err
	}
	snapshot := svc.Snapshot(guildID)
	paused := snapshot != nil && snapshot.Paused
	return ctx.ReplyEmbedWithComponents(embed, music.PlayerComponents(paused))
}
