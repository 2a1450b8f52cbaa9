package music

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/AuroraStudios/AuroraBotGo/pkg/database"
	"github.com/AuroraStudios/AuroraBotGo/pkg/lavalink"
	"github.com/AuroraStudios/AuroraBotGo/pkg/logger"
	"github.com/AuroraStudios/AuroraBotGo/pkg/models"
)

var (
	instance *Service
	once     sync.Once
)

// Options wires the service's collaborators and timings
type Options struct {
	DB        *database.Database
	Control   Control
	Messenger Messenger
	Publisher StatePublisher

	// DynamicInterval is the widget refresh period
	DynamicInterval time.Duration
	// DisconnectTimeout is how long an exhausted queue lingers before the
	// bot leaves voice on its own
	DisconnectTimeout time.Duration
}

// Service owns every guild queue and serializes operations per guild.
// Distinct guilds never contend with each other.
type Service struct {
	mu     sync.Mutex
	queues map[string]*Queue

	db        *database.Database
	control   Control
	msg       Messenger
	publisher StatePublisher

	dynamicInterval   time.Duration
	disconnectTimeout time.Duration
}

// Init creates the global music service
func Init(opts Options) *Service {
	once.Do(func() {
		instance = NewService(opts)
	})
	return instance
}

// Get returns the global music service
func Get() *Service {
	if instance == nil {
		logger.Critical("Music service not initialized", "MUSIC")
	}
	return instance
}

func NewService(opts Options) *Service {
	if opts.DynamicInterval <= 0 {
		opts.DynamicInterval = 10 * time.Second
	}
	if opts.DisconnectTimeout <= 0 {
		opts.DisconnectTimeout = 5 * time.Minute
	}
	return &Service{
		queues:            make(map[string]*Queue),
		db:                opts.DB,
		control:           opts.Control,
		msg:               opts.Messenger,
		publisher:         opts.Publisher,
		dynamicInterval:   opts.DynamicInterval,
		disconnectTimeout: opts.DisconnectTimeout,
	}
}

// GetOrCreateQueue returns the guild's queue, creating it on first use.
// Creation lazily ensures the guild's settings row and seeds the queue
// volume from it. The bool reports whether the queue was newly created.
func (s *Service) GetOrCreateQueue(guildID, guildName, textChannelID string) (*Queue, bool, error) {
	s.mu.Lock()
	if q, ok := s.queues[guildID]; ok {
		s.mu.Unlock()
		return q, false, nil
	}
	s.mu.Unlock()

	volume := models.DefaultVolume
	if s.db != nil {
		if err := s.db.EnsureGuild(guildID, guildName); err != nil {
			return nil, false, fmt.Errorf("ensure guild: %w", err)
		}
		if err := s.db.EnsureSettings(guildID); err != nil {
			return nil, false, fmt.Errorf("ensure settings: %w", err)
		}
		settings, err := s.db.GetSettings(guildID)
		if err != nil {
			return nil, false, fmt.Errorf("load settings: %w", err)
		}
		volume = settings.Volume
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if q, ok := s.queues[guildID]; ok {
		return q, false, nil
	}
	q := &Queue{
		GuildID:       guildID,
		GuildName:     guildName,
		TextChannelID: textChannelID,
		Volume:        volume,
	}
	s.queues[guildID] = q
	return q, true, nil
}

// Queue returns the guild's queue if one exists
func (s *Service) Queue(guildID string) (*Queue, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	q, ok := s.queues[guildID]
	return q, ok
}

func (s *Service) dropQueue(guildID string) {
	s.mu.Lock()
	delete(s.queues, guildID)
	s.mu.Unlock()
}

// QueueSnapshot is a point-in-time copy of a queue's visible state
type QueueSnapshot struct {
	GuildID string
	Current *Song
	Pending []*Song
	Paused  bool
	Repeat  RepeatMode
	Volume  int
}

// Snapshot copies a queue's state for read-only consumers, nil when the
// guild has no queue.
func (s *Service) Snapshot(guildID string) *QueueSnapshot {
	q, ok := s.Queue(guildID)
	if !ok {
		return nil
	}
	q.mu.Lock()
	defer q.mu.Unlock()
	pending := make([]*Song, len(q.Pending))
	copy(pending, q.Pending)
	return &QueueSnapshot{
		GuildID: q.GuildID,
		Current: q.Current,
		Pending: pending,
		Paused:  q.Paused,
		Repeat:  q.Repeat,
		Volume:  q.Volume,
	}
}

// ActiveQueues returns how many guilds currently have a queue
func (s *Service) ActiveQueues() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.queues)
}

// PlayRequest carries everything needed to resolve and start a query
type PlayRequest struct {
	GuildID        string
	GuildName      string
	TextChannelID  string
	VoiceChannelID string
	RequesterID    string
	RequesterName  string
	Query          string
}

// PlayResult reports what a play request did
type PlayResult struct {
	// Started is true when the request began playback immediately instead
	// of appending to an active queue
	Started        bool
	Songs          []*Song
	CollectionName string
}

// Play resolves the query, joins the requester's voice channel if needed,
// enqueues the loaded songs and starts playback when nothing is playing.
func (s *Service) Play(req PlayRequest) (*PlayResult, error) {
	result, err := s.control.Search(req.Query)
	if err != nil {
		logger.Error(fmt.Sprintf("Track load failed: %v", err), "MUSIC")
		return nil, Info(genericPlaybackMessage)
	}

	var songs []*Song
	collectionName := ""
	switch result.LoadType {
	case lavalink.LoadTypeEmpty:
		return nil, ErrNoResults
	case lavalink.LoadTypeError:
		msg, matched := MapPlaybackError(result.ErrorMessage())
		if !matched {
			logger.Error(fmt.Sprintf("Unmapped load error: %s", result.ErrorMessage()), "MUSIC")
		}
		return nil, Info(msg)
	case lavalink.LoadTypePlaylist:
		for _, t := range result.Tracks {
			songs = append(songs, NewSong(t, req.RequesterID, req.RequesterName))
		}
		collectionName = result.PlaylistInfo.Name
	default: // single track or search
		if len(result.Tracks) == 0 {
			return nil, ErrNoResults
		}
		songs = append(songs, NewSong(result.Tracks[0], req.RequesterID, req.RequesterName))
	}

	q, created, err := s.GetOrCreateQueue(req.GuildID, req.GuildName, req.TextChannelID)
	if err != nil {
		return nil, err
	}

	q.mu.Lock()

	if q.VoiceChannelID != req.VoiceChannelID {
		if err := s.control.JoinVoice(req.GuildID, req.VoiceChannelID); err != nil {
			// dropQueue takes the registry lock; q.mu must not be held
			// across it
			q.mu.Unlock()
			if created {
				s.dropQueue(req.GuildID)
			}
			return nil, fmt.Errorf("join voice: %w", err)
		}
		q.VoiceChannelID = req.VoiceChannelID
	}

	q.Pending = append(q.Pending, songs...)
	q.cancelDisconnectTimer()

	started := false
	if q.Current == nil {
		if created {
			if err := s.control.SetVolume(q.GuildID, q.Volume); err != nil {
				logger.Warn(fmt.Sprintf("Could not apply initial volume: %v", err), "MUSIC")
			}
		}
		if err := s.startNextLocked(q); err != nil {
			q.mu.Unlock()
			return nil, err
		}
		started = true
	}
	q.mu.Unlock()

	return &PlayResult{Started: started, Songs: songs, CollectionName: collectionName}, nil
}

// startNextLocked pops the next pending song and tells the player to start
// it. Caller holds q.mu.
func (s *Service) startNextLocked(q *Queue) error {
	next := q.popNext()
	if next == nil {
		return ErrQueueEmpty
	}
	q.Current = next
	q.Paused = false
	if err := s.control.PlayEncoded(q.GuildID, next.Encoded); err != nil {
		return fmt.Errorf("start playback: %w", err)
	}
	return nil
}

// Skip advances to the next song. Skipping the last song tears the queue
// down and leaves voice; the returned song is nil in that case.
func (s *Service) Skip(guildID string) (*Song, error) {
	q, ok := s.Queue(guildID)
	if !ok {
		return nil, ErrNoQueue
	}
	q.mu.Lock()
	if q.Current == nil {
		q.mu.Unlock()
		return nil, ErrNothingPlaying
	}
	q.pushHistory(q.Current)
	if len(q.Pending) == 0 {
		q.Current = nil
		s.teardownLocked(q, "queue ended")
		q.mu.Unlock()
		s.dropQueue(guildID)
		return nil, nil
	}
	err := s.startNextLocked(q)
	next := q.Current
	q.mu.Unlock()
	if err != nil {
		return nil, err
	}
	return next, nil
}

// Previous restarts playback from the most recent history entry, pushing
// the current song back onto the front of the queue.
func (s *Service) Previous(guildID string) (*Song, error) {
	q, ok := s.Queue(guildID)
	if !ok {
		return nil, ErrNoQueue
	}
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.History) == 0 {
		return nil, Info("there is no previously played song to rewind to")
	}
	prev := q.History[0]
	q.History = q.History[1:]
	if q.Current != nil {
		q.Pending = append([]*Song{q.Current}, q.Pending...)
	}
	q.Current = prev
	q.Paused = false
	if err := s.control.PlayEncoded(q.GuildID, prev.Encoded); err != nil {
		return nil, fmt.Errorf("start playback: %w", err)
	}
	return prev, nil
}

// Pause suspends playback
func (s *Service) Pause(guildID string) error {
	return s.setPaused(guildID, true)
}

// Resume continues suspended playback
func (s *Service) Resume(guildID string) error {
	return s.setPaused(guildID, false)
}

func (s *Service) setPaused(guildID string, paused bool) error {
	q, ok := s.Queue(guildID)
	if !ok {
		return ErrNoQueue
	}
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.Current == nil {
		return ErrNothingPlaying
	}
	if q.Paused == paused {
		if paused {
			return ErrAlreadyPaused
		}
		return ErrNotPaused
	}
	if err := s.control.SetPaused(guildID, paused); err != nil {
		return fmt.Errorf("set paused: %w", err)
	}
	q.Paused = paused
	return nil
}

// TogglePause flips the paused state and reports the new state
func (s *Service) TogglePause(guildID string) (paused bool, err error) {
	q, ok := s.Queue(guildID)
	if !ok {
		return false, ErrNoQueue
	}
	q.mu.Lock()
	target := !q.Paused
	q.mu.Unlock()
	if err := s.setPaused(guildID, target); err != nil {
		return false, err
	}
	return target, nil
}

// Seek jumps to a position in the current song. Positions past the end and
// seeks on live streams are rejected before any player op is issued.
func (s *Service) Seek(guildID string, position time.Duration) error {
	q, ok := s.Queue(guildID)
	if !ok {
		return ErrNoQueue
	}
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.Current == nil {
		return ErrNothingPlaying
	}
	if q.Current.Stream {
		return ErrSeekNotSeekable
	}
	if position < 0 || position > q.Current.Duration {
		return ErrSeekOutOfRange
	}
	if err := s.control.SeekTo(guildID, position.Milliseconds()); err != nil {
		return fmt.Errorf("seek: %w", err)
	}
	return nil
}

// SetVolume persists the level when it changed and always applies it to the
// live player when a queue exists. Bounds are validated by the caller.
func (s *Service) SetVolume(guildID, guildName string, volume int) error {
	if volume < models.MinVolume || volume > models.MaxVolume {
		return Info(fmt.Sprintf("volume must be between %d and %d", models.MinVolume, models.MaxVolume))
	}
	if s.db != nil {
		if err := s.db.EnsureGuild(guildID, guildName); err != nil {
			logger.Error(fmt.Sprintf("Ensure guild failed: %v", err), "MUSIC")
		} else if err := s.db.EnsureSettings(guildID); err != nil {
			logger.Error(fmt.Sprintf("Ensure settings failed: %v", err), "MUSIC")
		} else if _, err := s.db.SetVolume(guildID, volume); err != nil {
			logger.Error(fmt.Sprintf("Persist volume failed: %v", err), "MUSIC")
		}
	}
	q, ok := s.Queue(guildID)
	if !ok {
		return nil
	}
	q.mu.Lock()
	defer q.mu.Unlock()
	q.Volume = volume
	if err := s.control.SetVolume(guildID, volume); err != nil {
		return fmt.Errorf("apply volume: %w", err)
	}
	return nil
}

// SetRepeat selects the repeat mode for the guild's queue
func (s *Service) SetRepeat(guildID string, mode RepeatMode) error {
	q, ok := s.Queue(guildID)
	if !ok {
		return ErrNoQueue
	}
	q.mu.Lock()
	defer q.mu.Unlock()
	q.Repeat = mode
	return nil
}

// Shuffle randomizes the pending songs
func (s *Service) Shuffle(guildID string) (int, error) {
	q, ok := s.Queue(guildID)
	if !ok {
		return 0, ErrNoQueue
	}
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.Pending) < 2 {
		return 0, Info("not enough pending songs to shuffle")
	}
	q.shuffle()
	return len(q.Pending), nil
}

// Disconnect tears the guild's queue down and leaves voice. It reports
// whether there was anything to disconnect.
func (s *Service) Disconnect(guildID string) bool {
	q, ok := s.Queue(guildID)
	if !ok {
		return false
	}
	q.mu.Lock()
	s.teardownLocked(q, "disconnected")
	q.mu.Unlock()
	s.dropQueue(guildID)
	return true
}

// teardownLocked stops playback, clears the widget and leaves voice.
// Caller holds q.mu and removes the queue from the registry afterwards.
func (s *Service) teardownLocked(q *Queue, reason string) {
	q.cancelDisconnectTimer()
	s.clearDynamicLocked(q, true)
	if err := s.control.StopPlayback(q.GuildID); err != nil {
		logger.Debug(fmt.Sprintf("Stop playback: %v", err), "MUSIC")
	}
	s.control.DestroyPlayer(q.GuildID)
	if err := s.control.LeaveVoice(q.GuildID); err != nil {
		logger.Debug(fmt.Sprintf("Leave voice: %v", err), "MUSIC")
	}
	s.publish(q.GuildID, "stopped", map[string]string{"reason": reason})
	logger.Info(fmt.Sprintf("Queue for guild %s torn down: %s", q.GuildID, reason), "MUSIC")
}

func (s *Service) publish(guildID, event string, payload interface{}) {
	if s.publisher != nil {
		s.publisher.PublishMusicState(guildID, event, payload)
	}
}

// Run consumes player events until ctx is done
func (s *Service) Run(ctx context.Context, events <-chan lavalink.Event) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			s.HandleEvent(ev)
		}
	}
}

// HandleEvent reacts to a single player event
func (s *Service) HandleEvent(ev lavalink.Event) {
	switch ev.Type {
	case lavalink.EventTrackStart:
		s.onTrackStart(ev.GuildID)
	case lavalink.EventTrackEnd:
		s.onTrackEnd(ev.GuildID, ev.Reason)
	case lavalink.EventTrackException:
		s.onTrackException(ev.GuildID, ev.Error)
	case lavalink.EventTrackStuck:
		logger.Warn(fmt.Sprintf("Track stuck in guild %s, skipping", ev.GuildID), "MUSIC")
		s.onTrackEnd(ev.GuildID, lavalink.EndReasonFinished)
	case lavalink.EventWebSocketClosed:
		// Voice session died underneath us; drop the queue so state
		// cannot go stale.
		if s.Disconnect(ev.GuildID) {
			logger.Warn(fmt.Sprintf("Voice socket closed for guild %s, queue dropped", ev.GuildID), "MUSIC")
		}
	}
}

func (s *Service) onTrackStart(guildID string) {
	q, ok := s.Queue(guildID)
	if !ok {
		return
	}
	q.mu.Lock()
	current := q.Current
	q.mu.Unlock()
	if current == nil {
		return
	}

	if s.db != nil {
		if err := s.db.RecordSongPlayed(guildID, current.Name); err != nil {
			logger.Error(fmt.Sprintf("Record song played: %v", err), "MUSIC")
		}
		entry := models.PlayLogEntry{
			GuildID:       guildID,
			SongName:      current.Name,
			SongURL:       current.URL,
			RequesterID:   current.RequesterID,
			RequesterName: current.RequesterName,
		}
		if err := s.db.AppendPlay(entry); err != nil {
			logger.Error(fmt.Sprintf("Append play log: %v", err), "MUSIC")
		}
	}

	s.publish(guildID, "playing", map[string]string{
		"song":      current.Name,
		"url":       current.URL,
		"requester": current.RequesterID,
	})
	s.UpdateDynamic(guildID)
}

func (s *Service) onTrackEnd(guildID, reason string) {
	// Replaced/stopped ends were caused by our own ops (skip, disconnect,
	// new play) and were already handled there.
	if reason != lavalink.EndReasonFinished {
		return
	}
	q, ok := s.Queue(guildID)
	if !ok {
		return
	}
	q.mu.Lock()
	if q.Current == nil {
		q.mu.Unlock()
		return
	}

	switch q.Repeat {
	case RepeatSingle:
		encoded := q.Current.Encoded
		q.mu.Unlock()
		if err := s.control.PlayEncoded(guildID, encoded); err != nil {
			logger.Error(fmt.Sprintf("Repeat restart failed: %v", err), "MUSIC")
		}
		return
	case RepeatAll:
		q.Pending = append(q.Pending, q.Current)
	default:
		q.pushHistory(q.Current)
	}

	if len(q.Pending) == 0 {
		q.Current = nil
		s.clearDynamicLocked(q, true)
		s.publish(guildID, "idle", nil)
		s.armDisconnectTimerLocked(q)
		q.mu.Unlock()
		return
	}

	err := s.startNextLocked(q)
	q.mu.Unlock()
	if err != nil {
		logger.Error(fmt.Sprintf("Advance after track end failed: %v", err), "MUSIC")
	}
}

func (s *Service) onTrackException(guildID, rawError string) {
	message, matched := MapPlaybackError(rawError)
	if !matched {
		logger.Error(fmt.Sprintf("Playback exception in guild %s: %s", guildID, rawError), "MUSIC")
	}
	q, ok := s.Queue(guildID)
	if !ok {
		return
	}
	q.mu.Lock()
	channelID := q.TextChannelID
	name := ""
	if q.Current != nil {
		name = q.Current.Name
	}
	q.mu.Unlock()

	if channelID != "" && s.msg != nil {
		text := message
		if name != "" {
			text = fmt.Sprintf("**%s**: %s. Skipping it.", name, strings.TrimSuffix(message, "."))
		}
		if _, err := s.msg.SendEmbed(channelID, ErrorEmbed(text)); err != nil {
			logger.Debug(fmt.Sprintf("Exception notify failed: %v", err), "MUSIC")
		}
	}

	// Move past the broken song the same way a finished one advances
	s.onTrackEnd(guildID, lavalink.EndReasonFinished)
}

// armDisconnectTimerLocked schedules the idle voice disconnect. A later
// play cancels it. Caller holds q.mu.
func (s *Service) armDisconnectTimerLocked(q *Queue) {
	q.cancelDisconnectTimer()
	guildID := q.GuildID
	q.dcTimer = time.AfterFunc(s.disconnectTimeout, func() {
		q2, ok := s.Queue(guildID)
		if !ok || q2 != q {
			return
		}
		q.mu.Lock()
		idle := q.Current == nil && len(q.Pending) == 0
		q.mu.Unlock()
		if idle {
			s.Disconnect(guildID)
		}
	})
}
