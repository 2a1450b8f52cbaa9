package lavalink

// EventType identifies a playback lifecycle event coming from a node
type EventType string

const (
	EventTrackStart      EventType = "TrackStartEvent"
	EventTrackEnd        EventType = "TrackEndEvent"
	EventTrackException  EventType = "TrackExceptionEvent"
	EventTrackStuck      EventType = "TrackStuckEvent"
	EventWebSocketClosed EventType = "WebSocketClosedEvent"
)

// Track end reasons reported by the node. Only a finished track advances the
// queue; replaced/stopped ends are the result of our own commands.
const (
	EndReasonFinished = "finished"
	EndReasonReplaced = "replaced"
	EndReasonStopped  = "stopped"
	EndReasonCleanup  = "cleanup"
)

// Event is a typed playback lifecycle event.
// Raw node callbacks are translated into these and delivered on a single
// channel so the application reacts in one dispatch point.
type Event struct {
	Type    EventType
	GuildID string
	// Reason is set for track end events (finished, replaced, stopped, cleanup)
	Reason string
	// Error carries the exception message for TrackExceptionEvent
	Error string
}

// translateEvent converts a raw "event" payload from the node websocket into
// a typed Event. The second return value is false for event types we do not
// track.
func translateEvent(payload map[string]interface{}) (Event, bool) {
	eventType, ok := payload["type"].(string)
	if !ok {
		return Event{}, false
	}

	guildID, _ := payload["guildId"].(string)

	ev := Event{GuildID: guildID}

	switch EventType(eventType) {
	case EventTrackStart:
		ev.Type = EventTrackStart
	case EventTrackEnd:
		ev.Type = EventTrackEnd
		ev.Reason, _ = payload["reason"].(string)
	case EventTrackException:
		ev.Type = EventTrackException
		if exc, ok := payload["exception"].(map[string]interface{}); ok {
			ev.Error, _ = exc["message"].(string)
		}
		if ev.Error == "" {
			ev.Error, _ = payload["error"].(string)
		}
	case EventTrackStuck:
		ev.Type = EventTrackStuck
	case EventWebSocketClosed:
		ev.Type = EventWebSocketClosed
		ev.Reason, _ = payload["reason"].(string)
	default:
		return Event{}, false
	}

	return ev, true
}
