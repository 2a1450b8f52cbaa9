// Package events provides the bot's gateway event handlers.
package events

import (
	"github.com/AuroraStudios/AuroraBotGo/pkg/discord"
)

// RegisterAll registers all gateway event handlers with the client
func RegisterAll(client *discord.ExtendedClient) {
	RegisterReadyEvents(client)
	RegisterGuildEvents(client)
	RegisterVoiceEvents(client)
}
