package music

import "github.com/AuroraStudios/AuroraBotGo/pkg/lavalink"

// Control is the slice of the player client the service depends on.
// *lavalink.Client satisfies it; tests substitute a fake.
type Control interface {
	Search(query string) (*lavalink.LoadResult, error)
	PlayEncoded(guildID, encoded string) error
	StopPlayback(guildID string) error
	SetPaused(guildID string, paused bool) error
	SeekTo(guildID string, positionMs int64) error
	SetVolume(guildID string, volume int) error
	DestroyPlayer(guildID string)
	JoinVoice(guildID, channelID string) error
	LeaveVoice(guildID string) error
	Position(guildID string) int64
}

// StatePublisher receives player state transitions for external consumers.
// The MQTT communicator satisfies it; a nil publisher disables publishing.
type StatePublisher interface {
	PublishMusicState(guildID, event string, payload interface{})
}
