package events

import (
	"fmt"

	"github.com/bwmarrin/discordgo"

	"github.com/AuroraStudios/AuroraBotGo/pkg/discord"
	"github.com/AuroraStudios/AuroraBotGo/pkg/logger"
	"github.com/AuroraStudios/AuroraBotGo/pkg/music"
)

// RegisterVoiceEvents registers all voice-related event handlers
func RegisterVoiceEvents(client *discord.ExtendedClient) {
	client.EventHandler.OnVoiceStateUpdate(onVoiceStateUpdate)
}

// onVoiceStateUpdate watches for two situations that end playback: the bot
// being disconnected from voice by someone else, and the bot being left
// alone in its channel.
func onVoiceStateUpdate(s *discordgo.Session, v *discordgo.VoiceStateUpdate) {
	svc := music.Get()
	if svc == nil {
		return
	}

	// The bot's own state with an empty channel means it was kicked or
	// moved out of voice externally.
	if v.UserID == s.State.User.ID {
		if v.ChannelID == "" && v.BeforeUpdate != nil && v.BeforeUpdate.ChannelID != "" {
			if svc.Disconnect(v.GuildID) {
				logger.Info(fmt.Sprintf("Removed from voice in guild %s, queue dropped", v.GuildID), "Voice")
			}
		}
		return
	}

	// A user left or switched away from some channel; if it was ours and
	// nobody human is left, there is no point in playing on.
	if v.BeforeUpdate == nil || v.BeforeUpdate.ChannelID == "" || v.BeforeUpdate.ChannelID == v.ChannelID {
		return
	}

	q, ok := svc.Resolve(music.ByChannel(v.BeforeUpdate.ChannelID))
	if !ok || q.GuildID != v.GuildID {
		return
	}

	if channelHasListeners(s, v.GuildID, v.BeforeUpdate.ChannelID) {
		return
	}
	if svc.Disconnect(q.GuildID) {
		logger.Info(fmt.Sprintf("Voice channel empty in guild %s, queue dropped", q.GuildID), "Voice")
	}
}

// channelHasListeners reports whether any non-bot user remains in the channel
func channelHasListeners(s *discordgo.Session, guildID, channelID string) bool {
	guild, err := s.State.Guild(guildID)
	if err != nil {
		return true
	}
	for _, vs := range guild.VoiceStates {
		if vs.ChannelID != channelID || vs.UserID == s.State.User.ID {
			continue
		}
		member, err := s.State.Member(guildID, vs.UserID)
		if err != nil || member.User == nil || !member.User.Bot {
			return true
		}
	}
	return false
}
