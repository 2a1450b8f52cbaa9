// Package commands provides a registry for organizing bot commands.
// Commands are organized by category (util, music, admin, dev).
package commands

import (
	"github.com/AuroraStudios/AuroraBotGo/internal/commands/dev"
	"github.com/AuroraStudios/AuroraBotGo/pkg/discord"
)

// RegisterAll registers all commands and component handlers with the client
func RegisterAll(client *discord.ExtendedClient) {
	// Utility commands
	RegisterUtilCommands(client)

	// Music commands and the player widget buttons
	RegisterMusicCommands(client)
	RegisterHistoryCommands(client)
	RegisterComponents(client)

	// Channel blacklist management
	RegisterAdminCommands(client)

	// Dev-only commands (registered in dev guilds)
	dev.Register(client)
}
