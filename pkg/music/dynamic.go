package music

import (
	"fmt"
	"time"

	"github.com/AuroraStudios/AuroraBotGo/pkg/logger"
)

// SetDynamic attaches a live now-playing widget to the guild's queue.
// There is at most one widget per queue; attaching a new one first tears
// down the previous. The widget message is posted in channelID.
func (s *Service) SetDynamic(guildID, channelID string, typ DynamicType) error {
	if typ == DynamicNone {
		_, err := s.ClearDynamic(guildID)
		return err
	}
	q, ok := s.Queue(guildID)
	if !ok {
		return ErrNoQueue
	}
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.Current == nil {
		return ErrNothingPlaying
	}

	s.clearDynamicLocked(q, false)

	embed := NowPlayingEmbed(q, s.position(q))
	msgID, err := s.msg.SendEmbedWithComponents(channelID, embed, PlayerComponents(q.Paused))
	if err != nil {
		return fmt.Errorf("post dynamic player: %w", err)
	}

	d := &dynamicPlayer{
		typ:  typ,
		msg:  MessageRef{ChannelID: channelID, MessageID: msgID},
		stop: make(chan struct{}),
	}
	q.dynamic = d
	go s.tickDynamic(guildID, d)
	logger.Debug(fmt.Sprintf("Dynamic player (%s) attached for guild %s", typ, guildID), "MUSIC")
	return nil
}

// tickDynamic refreshes the widget until it is halted
func (s *Service) tickDynamic(guildID string, d *dynamicPlayer) {
	ticker := time.NewTicker(s.dynamicInterval)
	defer ticker.Stop()
	for {
		select {
		case <-d.stop:
			return
		case <-ticker.C:
			s.renderDynamic(guildID, d)
		}
	}
}

// renderDynamic performs one widget refresh. A tick with nothing playing
// is a no-op; the widget keeps its last rendered state.
func (s *Service) renderDynamic(guildID string, d *dynamicPlayer) {
	q, ok := s.Queue(guildID)
	if !ok {
		return
	}
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.dynamic != d || q.Current == nil {
		return
	}

	embed := NowPlayingEmbed(q, s.position(q))
	switch d.typ {
	case DynamicPinned:
		// Repost so the widget stays the newest message in the channel
		msgID, err := s.msg.SendEmbedWithComponents(d.msg.ChannelID, embed, PlayerComponents(q.Paused))
		if err != nil {
			logger.Debug(fmt.Sprintf("Dynamic repost failed: %v", err), "MUSIC")
			return
		}
		old := d.msg.MessageID
		d.msg.MessageID = msgID
		if err := s.msg.DeleteMessage(d.msg.ChannelID, old); err != nil {
			logger.Debug(fmt.Sprintf("Dynamic cleanup failed: %v", err), "MUSIC")
		}
	default:
		if err := s.msg.EditEmbed(d.msg.ChannelID, d.msg.MessageID, embed); err != nil {
			logger.Debug(fmt.Sprintf("Dynamic edit failed: %v", err), "MUSIC")
		}
	}
}

// UpdateDynamic forces one immediate widget refresh, bypassing the tick.
// Guilds without a widget are a no-op.
func (s *Service) UpdateDynamic(guildID string) {
	q, ok := s.Queue(guildID)
	if !ok {
		return
	}
	q.mu.Lock()
	d := q.dynamic
	q.mu.Unlock()
	if d == nil {
		return
	}
	s.renderDynamic(guildID, d)
}

// ClearDynamic detaches the widget, rendering its message one last time
// and leaving it in place.
// It never fails on an absent queue or widget; the returned type reports
// what was cleared, DynamicNone when there was nothing.
func (s *Service) ClearDynamic(guildID string) (DynamicType, error) {
	q, ok := s.Queue(guildID)
	if !ok {
		return DynamicNone, nil
	}
	q.mu.Lock()
	defer q.mu.Unlock()
	d := q.dynamic
	if d == nil {
		return DynamicNone, nil
	}
	s.clearDynamicLocked(q, false)
	return d.typ, nil
}

// clearDynamicLocked halts the widget goroutine and detaches it. When
// deleteMessage is set the widget message is removed as well (teardown
// paths). Caller holds q.mu.
func (s *Service) clearDynamicLocked(q *Queue, deleteMessage bool) {
	d := q.dynamic
	if d == nil {
		return
	}
	d.halt()
	q.dynamic = nil
	if deleteMessage {
		if err := s.msg.DeleteMessage(d.msg.ChannelID, d.msg.MessageID); err != nil {
			logger.Debug(fmt.Sprintf("Dynamic teardown delete failed: %v", err), "MUSIC")
		}
		return
	}
	// The message stays behind as a plain embed; give it one last render so
	// it is not frozen mid-refresh
	if err := s.msg.EditEmbed(d.msg.ChannelID, d.msg.MessageID, NowPlayingEmbed(q, s.position(q))); err != nil {
		logger.Debug(fmt.Sprintf("Dynamic final render failed: %v", err), "MUSIC")
	}
}

// DynamicState reports the attached widget type, DynamicNone when absent
func (s *Service) DynamicState(guildID string) DynamicType {
	q, ok := s.Queue(guildID)
	if !ok {
		return DynamicNone
	}
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.dynamic == nil {
		return DynamicNone
	}
	return q.dynamic.typ
}

func (s *Service) position(q *Queue) time.Duration {
	return time.Duration(s.control.Position(q.GuildID)) * time.Millisecond
}
