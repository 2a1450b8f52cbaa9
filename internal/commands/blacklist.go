package commands

import (
	"errors"
	"fmt"
	"strings"

	"github.com/bwmarrin/discordgo"

	"github.com/AuroraStudios/AuroraBotGo/pkg/database"
	"github.com/AuroraStudios/AuroraBotGo/pkg/discord"
	"github.com/AuroraStudios/AuroraBotGo/pkg/music"
)

// RegisterAdminCommands registers the channel blacklist management commands
func RegisterAdminCommands(client *discord.ExtendedClient) {
	ch := client.CommandHandler

	channelOption := func(required bool) *discordgo.ApplicationCommandOption {
		return &discordgo.ApplicationCommandOption{
			Type:        discordgo.ApplicationCommandOptionChannel,
			Name:        "channel",
			Description: "Target channel (defaults to this one)",
			Required:    required,
			ChannelTypes: []discordgo.ChannelType{
				discordgo.ChannelTypeGuildText,
			},
		}
	}

	ch.RegisterCommand(discord.NewCommand(
		"blacklist",
		"Disable music commands in a channel",
		"admin",
		blacklistHandler,
	).WithOptions(channelOption(false)).
		WithUserPermissions(discordgo.PermissionManageChannels))

	ch.RegisterCommand(discord.NewCommand(
		"free",
		"Enable music commands in a channel again",
		"admin",
		freeHandler,
	).WithOptions(channelOption(false)).
		WithUserPermissions(discordgo.PermissionManageChannels))

	ch.RegisterCommand(discord.NewCommand(
		"blacklisted",
		"List channels where music commands are disabled",
		"admin",
		blacklistedHandler,
	).WithUserPermissions(discordgo.PermissionManageChannels))
}

// targetChannelID picks the channel option or falls back to the current one
func targetChannelID(ctx *discord.CommandContext) string {
	if channel := ctx.GetChannelOption("channel"); channel != nil {
		return channel.ID
	}
	return ctx.Interaction.ChannelID
}

func blacklistHandler(ctx *discord.CommandContext) error {
	db := database.Get()
	guildID := ctx.Interaction.GuildID
	channelID := targetChannelID(ctx)

	if err := db.EnsureGuild(guildID, ctx.GuildName()); err != nil {
		return err
	}
	err := db.BlacklistChannel(guildID, channelID)
	if errors.Is(err, database.ErrAlreadyBlacklisted) {
		return music.Info(fmt.Sprintf("<#%s> is already blacklisted", channelID))
	}
	if err != nil {
		return err
	}
	return ctx.ReplyEmbed(music.InfoEmbed(fmt.Sprintf("🚫 Music commands are now disabled in <#%s>.", channelID)))
}

func freeHandler(ctx *discord.CommandContext) error {
	db := database.Get()
	channelID := targetChannelID(ctx)

	err := db.FreeChannel(ctx.Interaction.GuildID, channelID)
	if errors.Is(err, database.ErrNotBlacklisted) {
		return music.Info(fmt.Sprintf("<#%s> is not blacklisted", channelID))
	}
	if err != nil {
		return err
	}
	return ctx.ReplyEmbed(music.InfoEmbed(fmt.Sprintf("✅ Music commands are enabled again in <#%s>.", channelID)))
}

func blacklistedHandler(ctx *discord.CommandContext) error {
	channels, err := database.Get().BlacklistedChannels(ctx.Interaction.GuildID)
	if err != nil {
		return err
	}
	if len(channels) == 0 {
		return ctx.ReplyEphemeralEmbed(music.InfoEmbed("No channels are blacklisted in this server."))
	}

	var b strings.Builder
	for _, c := range channels {
		fmt.Fprintf(&b, "<#%s>\n", c.ChannelID)
	}
	return ctx.ReplyEmbed(&discordgo.MessageEmbed{
		Title:       "Blacklisted channels",
		Description: b.String(),
		Color:       music.ColorInfo,
	})
}
