package dev

import (
	"github.com/AuroraStudios/AuroraBotGo/pkg/discord"
)

// Register registers all dev commands (only pushed to dev guilds)
func Register(client *discord.ExtendedClient) {
	client.CommandHandler.RegisterCommand(CreateEvalCommand())
}
