package events

import (
	"fmt"
	"sync"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/AuroraStudios/AuroraBotGo/pkg/discord"
	"github.com/AuroraStudios/AuroraBotGo/pkg/logger"
	"github.com/AuroraStudios/AuroraBotGo/pkg/mqtt"
)

var heartbeatOnce sync.Once

// RegisterReadyEvents registers the ready handler
func RegisterReadyEvents(client *discord.ExtendedClient) {
	client.EventHandler.OnReady(func(s *discordgo.Session, r *discordgo.Ready) {
		logger.Success(fmt.Sprintf("Ready with %d guilds", len(r.Guilds)), "Ready")

		if err := s.UpdateListeningStatus("/play"); err != nil {
			logger.Warn(fmt.Sprintf("Could not set presence: %v", err), "Ready")
		}

		// Ready fires again on resume; one heartbeat is enough
		heartbeatOnce.Do(startHeartbeat(client))
	})
}

// startHeartbeat publishes bot status for external dashboards every minute
func startHeartbeat(client *discord.ExtendedClient) func() {
	return func() {
		go func() {
			ticker := time.NewTicker(time.Minute)
			defer ticker.Stop()
			for range ticker.C {
				if mc := mqtt.Get(); mc != nil {
					mc.PublishBotStatus(client.GuildCount(), client.IsReady())
				}
			}
		}()
	}
}
