package music

// queueRefKind discriminates the ways a caller can point at a queue
type queueRefKind int

const (
	refByGuild queueRefKind = iota
	refByChannel
	refByQueue
)

// QueueRef names a queue without holding it. Construct one with ByGuild,
// ByChannel or ByQueue and hand it to Resolve.
type QueueRef struct {
	kind      queueRefKind
	guildID   string
	channelID string
	queue     *Queue
}

// ByGuild refers to the queue of a guild
func ByGuild(guildID string) QueueRef {
	return QueueRef{kind: refByGuild, guildID: guildID}
}

// ByChannel refers to the queue bound to a text or voice channel
func ByChannel(channelID string) QueueRef {
	return QueueRef{kind: refByChannel, channelID: channelID}
}

// ByQueue refers to a queue handle directly, verifying it is still live
func ByQueue(q *Queue) QueueRef {
	return QueueRef{kind: refByQueue, queue: q}
}

// Resolve looks the referenced queue up in the registry. The bool is false
// when no live queue matches the reference.
func (s *Service) Resolve(ref QueueRef) (*Queue, bool) {
	switch ref.kind {
	case refByChannel:
		s.mu.Lock()
		live := make([]*Queue, 0, len(s.queues))
		for _, q := range s.queues {
			live = append(live, q)
		}
		s.mu.Unlock()
		// Queue locks are taken after the registry lock is released; guild
		// operations may hold q.mu while they touch the registry
		for _, q := range live {
			q.mu.Lock()
			match := q.TextChannelID == ref.channelID || q.VoiceChannelID == ref.channelID
			q.mu.Unlock()
			if match {
				return q, true
			}
		}
		return nil, false
	case refByQueue:
		if ref.queue == nil {
			return nil, false
		}
		s.mu.Lock()
		defer s.mu.Unlock()
		q, ok := s.queues[ref.queue.GuildID]
		if !ok || q != ref.queue {
			return nil, false
		}
		return q, true
	default:
		return s.Queue(ref.guildID)
	}
}
