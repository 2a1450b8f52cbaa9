package events

import (
	"fmt"

	"github.com/bwmarrin/discordgo"

	"github.com/AuroraStudios/AuroraBotGo/pkg/database"
	"github.com/AuroraStudios/AuroraBotGo/pkg/discord"
	"github.com/AuroraStudios/AuroraBotGo/pkg/logger"
	"github.com/AuroraStudios/AuroraBotGo/pkg/music"
)

// RegisterGuildEvents registers guild join/leave handlers
func RegisterGuildEvents(client *discord.ExtendedClient) {
	client.EventHandler.OnGuildCreate(func(s *discordgo.Session, g *discordgo.GuildCreate) {
		if db := database.Get(); db != nil {
			if err := db.EnsureGuild(g.ID, g.Name); err != nil {
				logger.Error(fmt.Sprintf("Ensure guild on join: %v", err), "Guild")
			}
		}
	})

	client.EventHandler.OnGuildDelete(func(s *discordgo.Session, g *discordgo.GuildDelete) {
		// Being removed from a guild kills its queue; settings and the
		// play log stay for an eventual re-invite.
		if svc := music.Get(); svc != nil && svc.Disconnect(g.ID) {
			logger.Info(fmt.Sprintf("Queue dropped after leaving guild %s", g.ID), "Guild")
		}
	})
}
