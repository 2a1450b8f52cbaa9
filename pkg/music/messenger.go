package music

import "github.com/bwmarrin/discordgo"

// Messenger is the slice of the gateway session the service needs for
// widget and notification messages. Tests substitute a fake recorder.
type Messenger interface {
	SendEmbed(channelID string, embed *discordgo.MessageEmbed) (messageID string, err error)
	SendEmbedWithComponents(channelID string, embed *discordgo.MessageEmbed, components []discordgo.MessageComponent) (messageID string, err error)
	EditEmbed(channelID, messageID string, embed *discordgo.MessageEmbed) error
	DeleteMessage(channelID, messageID string) error
}

// SessionMessenger adapts a discordgo session to the Messenger interface
type SessionMessenger struct {
	Session *discordgo.Session
}

func NewSessionMessenger(s *discordgo.Session) *SessionMessenger {
	return &SessionMessenger{Session: s}
}

func (m *SessionMessenger) SendEmbed(channelID string, embed *discordgo.MessageEmbed) (string, error) {
	msg, err := m.Session.ChannelMessageSendEmbed(channelID, embed)
	if err != nil {
		return "", err
	}
	return msg.ID, nil
}

func (m *SessionMessenger) SendEmbedWithComponents(channelID string, embed *discordgo.MessageEmbed, components []discordgo.MessageComponent) (string, error) {
	msg, err := m.Session.ChannelMessageSendComplex(channelID, &discordgo.MessageSend{
		Embeds:     []*discordgo.MessageEmbed{embed},
		Components: components,
	})
	if err != nil {
		return "", err
	}
	return msg.ID, nil
}

func (m *SessionMessenger) EditEmbed(channelID, messageID string, embed *discordgo.MessageEmbed) error {
	_, err := m.Session.ChannelMessageEditEmbed(channelID, messageID, embed)
	return err
}

func (m *SessionMessenger) DeleteMessage(channelID, messageID string) error {
	return m.Session.ChannelMessageDelete(channelID, messageID)
}
