package discord

import (
	"fmt"

	"github.com/bwmarrin/discordgo"

	"github.com/AuroraStudios/AuroraBotGo/pkg/database"
	"github.com/AuroraStudios/AuroraBotGo/pkg/logger"
	"github.com/AuroraStudios/AuroraBotGo/pkg/music"
)

// Middleware runs before a command. Returning an error aborts the chain;
// informational errors are shown to the user, anything else fails silently
// into the log.
type Middleware func(ctx *CommandContext, cmd *Command) error

// CategoryMusic marks commands subject to the channel blacklist
const CategoryMusic = "music"

// BlacklistGuard blocks music commands in channels an admin blacklisted.
// Management commands stay available so the blacklist can be undone from
// anywhere.
func BlacklistGuard(ctx *CommandContext, cmd *Command) error {
	if cmd.Category != CategoryMusic || ctx.Interaction.GuildID == "" {
		return nil
	}
	db := database.Get()
	if db == nil {
		return nil
	}
	blacklisted, err := db.IsChannelBlacklisted(ctx.Interaction.GuildID, ctx.Interaction.ChannelID)
	if err != nil {
		logger.Error(fmt.Sprintf("Blacklist lookup failed: %v", err), "Middleware")
		return nil
	}
	if blacklisted {
		return music.Info("music commands are disabled in this channel")
	}
	return nil
}

// VoiceGuard enforces the voice requirements of a command: the user must be
// in a voice channel, and when the bot is already playing somewhere else,
// in that same channel.
func VoiceGuard(ctx *CommandContext, cmd *Command) error {
	if !cmd.InVoiceChannel {
		return nil
	}
	userChannel := ctx.VoiceChannelID()
	if userChannel == "" {
		return music.ErrNotInVoice
	}
	botChannel := ctx.BotVoiceChannelID()
	if botChannel != "" && botChannel != userChannel {
		return music.Info("you must be in the same voice channel as the bot")
	}
	if botChannel == "" && !canJoinAndSpeak(ctx, userChannel) {
		return music.Info("the bot cannot connect or speak in your voice channel")
	}
	return nil
}

// canJoinAndSpeak checks Connect+Speak for the bot in the target voice
// channel. Permissions the state cache cannot resolve are assumed granted,
// the join itself will surface the real denial.
func canJoinAndSpeak(ctx *CommandContext, channelID string) bool {
	if ctx.Session == nil || ctx.Session.State == nil || ctx.Session.State.User == nil {
		return true
	}
	perms, err := ctx.Session.State.UserChannelPermissions(ctx.Session.State.User.ID, channelID)
	if err != nil {
		return true
	}
	need := int64(discordgo.PermissionVoiceConnect | discordgo.PermissionVoiceSpeak)
	return perms&need == need
}

// PermissionGuard checks the declared user and bot permission bits
func PermissionGuard(ctx *CommandContext, cmd *Command) error {
	if cmd.UserPermissions != 0 {
		member := ctx.Member()
		if member == nil {
			return music.Info("this command can only be used in a server")
		}
		if member.Permissions&cmd.UserPermissions != cmd.UserPermissions {
			return music.Info("you do not have permission to use this command")
		}
	}
	if cmd.BotPermissions != 0 {
		if ctx.Interaction.AppPermissions&cmd.BotPermissions != cmd.BotPermissions {
			return music.Info("the bot is missing permissions it needs for this command")
		}
	}
	return nil
}
