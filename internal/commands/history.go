package commands

import (
	"github.com/bwmarrin/discordgo"

	"github.com/AuroraStudios/AuroraBotGo/pkg/discord"
	"github.com/AuroraStudios/AuroraBotGo/pkg/music"
)

// RegisterHistoryCommands registers the play-history commands
func RegisterHistoryCommands(client *discord.ExtendedClient) {
	client.CommandHandler.RegisterCommand(discord.NewCommand(
		"history",
		"Show recently played songs",
		discord.CategoryMusic,
		historyHandler,
	).WithOptions(
		&discordgo.ApplicationCommandOption{
			Type:        discordgo.ApplicationCommandOptionInteger,
			Name:        "count",
			Description: "How many entries to show (1-25)",
			Required:    false,
		},
		&discordgo.ApplicationCommandOption{
			Type:        discordgo.ApplicationCommandOptionBoolean,
			Name:        "mine",
			Description: "Only songs you requested",
			Required:    false,
		},
	))
}

func historyHandler(ctx *discord.CommandContext) error {
	count := clampCount(ctx.GetIntOption("count"), 10)
	requesterID := ""
	if ctx.GetBoolOption("mine") {
		requesterID = ctx.User().ID
	}

	items, source, err := music.Get().History(ctx.Interaction.GuildID, requesterID, count)
	if err != nil {
		return err
	}

	embed := music.HistoryEmbed(ctx.GuildName(), items, source)
	components := music.HistoryComponents(len(items))
	if components == nil {
		return ctx.ReplyEmbed(embed)
	}
	return ctx.ReplyEmbedWithComponents(embed, components)
}
