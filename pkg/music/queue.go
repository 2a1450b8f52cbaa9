package music

import (
	"math/rand"
	"sync"
	"time"
)

// RepeatMode controls what happens when the current song finishes
type RepeatMode int

const (
	RepeatOff RepeatMode = iota
	RepeatSingle
	RepeatAll
)

func (m RepeatMode) String() string {
	switch m {
	case RepeatSingle:
		return "single"
	case RepeatAll:
		return "all"
	default:
		return "off"
	}
}

// DynamicType selects how the now-playing widget refreshes itself
type DynamicType int

const (
	// DynamicNone means no live widget is attached to the queue
	DynamicNone DynamicType = iota
	// DynamicUpdateable edits the widget message in place on each tick
	DynamicUpdateable
	// DynamicPinned deletes and reposts the widget so it stays at the
	// bottom of the channel
	DynamicPinned
)

func (t DynamicType) String() string {
	switch t {
	case DynamicUpdateable:
		return "updateable"
	case DynamicPinned:
		return "pinned"
	default:
		return "none"
	}
}

// MessageRef locates a message the bot owns
type MessageRef struct {
	ChannelID string
	MessageID string
}

// dynamicPlayer is the live widget attached to a queue. At most one exists
// per queue; attaching a new one tears down the previous.
type dynamicPlayer struct {
	typ  DynamicType
	msg  MessageRef
	stop chan struct{}
	once sync.Once
}

func (d *dynamicPlayer) halt() {
	d.once.Do(func() { close(d.stop) })
}

// historyCap bounds the in-memory play history kept per queue
const historyCap = 12

// Queue is the per-guild playback state. All fields are guarded by mu;
// the service locks a queue before touching it, which serializes every
// operation for a guild while leaving other guilds independent.
type Queue struct {
	mu sync.Mutex

	GuildID        string
	GuildName      string
	TextChannelID  string
	VoiceChannelID string

	Current *Song
	Pending []*Song
	// History holds recently finished songs, newest first
	History []*Song

	Repeat RepeatMode
	Volume int
	Paused bool

	dynamic *dynamicPlayer
	dcTimer *time.Timer
}

// pushHistory records a finished song, newest first, bounded by historyCap
func (q *Queue) pushHistory(s *Song) {
	q.History = append([]*Song{s}, q.History...)
	if len(q.History) > historyCap {
		q.History = q.History[:historyCap]
	}
}

// popNext removes and returns the next pending song, or nil
func (q *Queue) popNext() *Song {
	if len(q.Pending) == 0 {
		return nil
	}
	next := q.Pending[0]
	q.Pending = q.Pending[1:]
	return next
}

// shuffle randomizes the order of pending songs
func (q *Queue) shuffle() {
	rand.Shuffle(len(q.Pending), func(i, j int) {
		q.Pending[i], q.Pending[j] = q.Pending[j], q.Pending[i]
	})
}

// PendingDuration sums the remaining length of all pending songs
func (q *Queue) PendingDuration() time.Duration {
	var total time.Duration
	for _, s := range q.Pending {
		if !s.Stream {
			total += s.Duration
		}
	}
	return total
}

func (q *Queue) cancelDisconnectTimer() {
	if q.dcTimer != nil {
		q.dcTimer.Stop()
		q.dcTimer = nil
	}
}
