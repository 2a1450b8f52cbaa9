package commands

import (
	"strconv"

	"github.com/AuroraStudios/AuroraBotGo/pkg/discord"
	"github.com/AuroraStudios/AuroraBotGo/pkg/music"
)

// RegisterComponents wires the player widget buttons to the music service
func RegisterComponents(client *discord.ExtendedClient) {
	client.RegisterComponent(music.CustomIDRewind, rewindButton)
	client.RegisterComponent(music.CustomIDPlayPause, playPauseButton)
	client.RegisterComponent(music.CustomIDSkip, skipButton)
	client.RegisterComponent(music.CustomIDRepeat, repeatButton(music.RepeatSingle))
	client.RegisterComponent(music.CustomIDRepeatAll, repeatButton(music.RepeatAll))
	client.RegisterComponent(music.CustomIDDisconnect, disconnectButton)
	client.RegisterComponent(music.CustomIDStopDynamic, stopDynamicButton)
	client.RegisterComponent(music.CustomIDHistoryPlay, historyPlayButton)
}

// requireSharedVoice applies the voice rule buttons share with commands
func requireSharedVoice(ctx *discord.CommandContext) error {
	userChannel := ctx.VoiceChannelID()
	if userChannel == "" {
		return music.ErrNotInVoice
	}
	if botChannel := ctx.BotVoiceChannelID(); botChannel != "" && botChannel != userChannel {
		return music.Info("you must be in the same voice channel as the bot")
	}
	return nil
}

func rewindButton(ctx *discord.CommandContext, _ string) error {
	if err := requireSharedVoice(ctx); err != nil {
		return err
	}
	if _, err := music.Get().Previous(ctx.Interaction.GuildID); err != nil {
		return err
	}
	music.Get().UpdateDynamic(ctx.Interaction.GuildID)
	return ctx.DeferUpdate()
}

func playPauseButton(ctx *discord.CommandContext, _ string) error {
	if err := requireSharedVoice(ctx); err != nil {
		return err
	}
	if _, err := music.Get().TogglePause(ctx.Interaction.GuildID); err != nil {
		return err
	}
	music.Get().UpdateDynamic(ctx.Interaction.GuildID)
	return ctx.DeferUpdate()
}

func skipButton(ctx *discord.CommandContext, _ string) error {
	if err := requireSharedVoice(ctx); err != nil {
		return err
	}
	if _, err := music.Get().Skip(ctx.Interaction.GuildID); err != nil {
		return err
	}
	music.Get().UpdateDynamic(ctx.Interaction.GuildID)
	return ctx.DeferUpdate()
}

func repeatButton(mode music.RepeatMode) discord.ComponentRunFunc {
	return func(ctx *discord.CommandContext, _ string) error {
		if err := requireSharedVoice(ctx); err != nil {
			return err
		}
		svc := music.Get()
		target := mode
		// Pressing the active mode's button toggles it back off
		if snapshot := svc.Snapshot(ctx.Interaction.GuildID); snapshot != nil && snapshot.Repeat == mode {
			target = music.RepeatOff
		}
		if err := svc.SetRepeat(ctx.Interaction.GuildID, target); err != nil {
			return err
		}
		svc.UpdateDynamic(ctx.Interaction.GuildID)
		return ctx.DeferUpdate()
	}
}

func disconnectButton(ctx *discord.CommandContext, _ string) error {
	if err := requireSharedVoice(ctx); err != nil {
		return err
	}
	if !music.Get().Disconnect(ctx.Interaction.GuildID) {
		return music.ErrNoQueue
	}
	return ctx.DeferUpdate()
}

func stopDynamicButton(ctx *discord.CommandContext, _ string) error {
	cleared, err := music.Get().ClearDynamic(ctx.Interaction.GuildID)
	if err != nil {
		return err
	}
	if cleared == music.DynamicNone {
		return ctx.ReplyEphemeralEmbed(music.InfoEmbed("There was no dynamic player to stop."))
	}
	return ctx.DeferUpdate()
}

// historyPlayButton replays the n-th entry of the history listing
func historyPlayButton(ctx *discord.CommandContext, arg string) error {
	if err := requireSharedVoice(ctx); err != nil {
		return err
	}

	n, err := strconv.Atoi(arg)
	if err != nil || n < 1 {
		return music.Info("that history entry no longer exists")
	}

	items, _, err := music.Get().History(ctx.Interaction.GuildID, "", n)
	if err != nil {
		return err
	}
	if len(items) < n {
		return music.Info("that history entry no longer exists")
	}
	item := items[n-1]

	query := item.URL
	if query == "" {
		query = item.Name
	}

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
		Query:          query,
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
