package music

import (
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/AuroraStudios/AuroraBotGo/pkg/database"
	"github.com/AuroraStudios/AuroraBotGo/pkg/lavalink"
	"github.com/AuroraStudios/AuroraBotGo/pkg/models"
)

type fakeControl struct {
	mu         sync.Mutex
	loadResult *lavalink.LoadResult
	loadErr    error

	played    []string
	stops     int
	destroys  int
	joins     []string
	leaves    int
	pauses    []bool
	seeks     []int64
	volumes   []int
	positionM int64
}

func (f *fakeControl) Search(query string) (*lavalink.LoadResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.loadErr != nil {
		return nil, f.loadErr
	}
	return f.loadResult, nil
}

func (f *fakeControl) PlayEncoded(guildID, encoded string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.played = append(f.played, encoded)
	return nil
}

func (f *fakeControl) StopPlayback(guildID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stops++
	return nil
}

func (f *fakeControl) SetPaused(guildID string, paused bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pauses = append(f.pauses, paused)
	return nil
}

func (f *fakeControl) SeekTo(guildID string, positionMs int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seeks = append(f.seeks, positionMs)
	return nil
}

func (f *fakeControl) SetVolume(guildID string, volume int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.volumes = append(f.volumes, volume)
	return nil
}

func (f *fakeControl) DestroyPlayer(guildID string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.destroys++
}

func (f *fakeControl) JoinVoice(guildID, channelID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.joins = append(f.joins, channelID)
	return nil
}

func (f *fakeControl) LeaveVoice(guildID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.leaves++
	return nil
}

func (f *fakeControl) Position(guildID string) int64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.positionM
}

func (f *fakeControl) playedCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.played)
}

type sentMessage struct {
	channelID string
	messageID string
	embed     *discordgo.MessageEmbed
}

type fakeMessenger struct {
	mu      sync.Mutex
	nextID  int
	sends   []sentMessage
	edits   []sentMessage
	deletes []MessageRef
}

func (f *fakeMessenger) SendEmbed(channelID string, embed *discordgo.MessageEmbed) (string, error) {
	return f.SendEmbedWithComponents(channelID, embed, nil)
}

func (f *fakeMessenger) SendEmbedWithComponents(channelID string, embed *discordgo.MessageEmbed, components []discordgo.MessageComponent) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	id := fmt.Sprintf("msg-%d", f.nextID)
	f.sends = append(f.sends, sentMessage{channelID: channelID, messageID: id, embed: embed})
	return id, nil
}

func (f *fakeMessenger) EditEmbed(channelID, messageID string, embed *discordgo.MessageEmbed) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.edits = append(f.edits, sentMessage{channelID: channelID, messageID: messageID, embed: embed})
	return nil
}

func (f *fakeMessenger) DeleteMessage(channelID, messageID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deletes = append(f.deletes, MessageRef{ChannelID: channelID, MessageID: messageID})
	return nil
}

func (f *fakeMessenger) editCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.edits)
}

func (f *fakeMessenger) sendCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.sends)
}

func trackResult(encoded, title string, length int64) *lavalink.LoadResult {
	return &lavalink.LoadResult{
		LoadType: lavalink.LoadTypeTrack,
		Tracks: []*lavalink.Track{
			{Encoded: encoded, Info: lavalink.TrackInfo{Title: title, Author: "artist", URI: "https://example.com/" + encoded, Length: length}},
		},
	}
}

func newTestService(t *testing.T) (*Service, *fakeControl, *fakeMessenger, *database.Database) {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	control := &fakeControl{}
	msg := &fakeMessenger{}
	svc := NewService(Options{
		DB:                db,
		Control:           control,
		Messenger:         msg,
		DynamicInterval:   20 * time.Millisecond,
		DisconnectTimeout: time.Hour,
	})
	return svc, control, msg, db
}

func playReq(query string) PlayRequest {
	return PlayRequest{
		GuildID:        "g1",
		GuildName:      "Test Guild",
		TextChannelID:  "text1",
		VoiceChannelID: "voice1",
		RequesterID:    "u1",
		RequesterName:  "someone",
		Query:          query,
	}
}

func TestPlayCreatesQueueAndSettings(t *testing.T) {
	svc, control, _, db := newTestService(t)
	control.loadResult = trackResult("enc1", "First Song", 180000)

	result, err := svc.Play(playReq("first song"))
	if err != nil {
		t.Fatalf("play: %v", err)
	}
	if !result.Started {
		t.Error("expected playback to start immediately")
	}
	if len(result.Songs) != 1 || result.Songs[0].Name != "First Song" {
		t.Errorf("unexpected songs: %+v", result.Songs)
	}

	q, ok := svc.Queue("g1")
	if !ok {
		t.Fatal("queue was not created")
	}
	if q.VoiceChannelID != "voice1" {
		t.Errorf("voice channel = %q", q.VoiceChannelID)
	}
	if len(control.joins) != 1 || control.joins[0] != "voice1" {
		t.Errorf("joins = %v", control.joins)
	}
	if len(control.played) != 1 || control.played[0] != "enc1" {
		t.Errorf("played = %v", control.played)
	}

	settings, err := db.GetSettings("g1")
	if err != nil {
		t.Fatalf("settings row missing after first play: %v", err)
	}
	if settings.Volume != models.DefaultVolume {
		t.Errorf("volume = %d, want default %d", settings.Volume, models.DefaultVolume)
	}
}

func TestPlayAppendsWhenSomethingIsPlaying(t *testing.T) {
	svc, control, _, _ := newTestService(t)
	control.loadResult = trackResult("enc1", "First", 180000)
	if _, err := svc.Play(playReq("first")); err != nil {
		t.Fatalf("play: %v", err)
	}

	control.loadResult = trackResult("enc2", "Second", 200000)
	result, err := svc.Play(playReq("second"))
	if err != nil {
		t.Fatalf("play: %v", err)
	}
	if result.Started {
		t.Error("second play should append, not start")
	}

	q, _ := svc.Queue("g1")
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.Current == nil || q.Current.Encoded != "enc1" {
		t.Errorf("current = %+v", q.Current)
	}
	if len(q.Pending) != 1 || q.Pending[0].Encoded != "enc2" {
		t.Errorf("pending = %+v", q.Pending)
	}
}

func TestPlayPlaylistQueuesEveryTrack(t *testing.T) {
	svc, control, _, _ := newTestService(t)
	control.loadResult = &lavalink.LoadResult{
		LoadType:     lavalink.LoadTypePlaylist,
		PlaylistInfo: lavalink.PlaylistInfo{Name: "Mix"},
		Tracks: []*lavalink.Track{
			{Encoded: "p1", Info: lavalink.TrackInfo{Title: "One", Length: 1000}},
			{Encoded: "p2", Info: lavalink.TrackInfo{Title: "Two", Length: 1000}},
			{Encoded: "p3", Info: lavalink.TrackInfo{Title: "Three", Length: 1000}},
		},
	}

	result, err := svc.Play(playReq("https://example.com/playlist"))
	if err != nil {
		t.Fatalf("play: %v", err)
	}
	if result.CollectionName != "Mix" {
		t.Errorf("collection = %q", result.CollectionName)
	}
	if len(result.Songs) != 3 {
		t.Fatalf("songs = %d", len(result.Songs))
	}

	q, _ := svc.Queue("g1")
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.Current.Encoded != "p1" || len(q.Pending) != 2 {
		t.Errorf("current %q, pending %d", q.Current.Encoded, len(q.Pending))
	}
}

func TestPlayNoResultsLeavesNoQueue(t *testing.T) {
	svc, control, _, _ := newTestService(t)
	control.loadResult = &lavalink.LoadResult{LoadType: lavalink.LoadTypeEmpty}

	_, err := svc.Play(playReq("garbage"))
	if !errors.Is(err, ErrNoResults) {
		t.Fatalf("err = %v, want ErrNoResults", err)
	}
	if !IsInfo(err) {
		t.Error("no-results should be informational")
	}
	if _, ok := svc.Queue("g1"); ok {
		t.Error("failed play must not leave a queue behind")
	}
}

func TestPlayLoadErrorIsMapped(t *testing.T) {
	svc, control, _, _ := newTestService(t)
	control.loadResult = &lavalink.LoadResult{
		LoadType: lavalink.LoadTypeError,
		Exception: &struct {
			Message  string `json:"message"`
			Severity string `json:"severity"`
		}{Message: "This video is age restricted", Severity: "common"},
	}

	_, err := svc.Play(playReq("restricted"))
	if err == nil || !IsInfo(err) {
		t.Fatalf("err = %v, want informational", err)
	}
	if err.Error() != "That video is age-restricted and cannot be played." {
		t.Errorf("message = %q", err.Error())
	}
}

func TestSkipAdvancesAndRecordsHistory(t *testing.T) {
	svc, control, _, _ := newTestService(t)
	control.loadResult = trackResult("enc1", "First", 1000)
	svc.Play(playReq("first"))
	control.loadResult = trackResult("enc2", "Second", 1000)
	svc.Play(playReq("second"))

	next, err := svc.Skip("g1")
	if err != nil {
		t.Fatalf("skip: %v", err)
	}
	if next == nil || next.Encoded != "enc2" {
		t.Fatalf("next = %+v", next)
	}

	q, _ := svc.Queue("g1")
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.History) != 1 || q.History[0].Encoded != "enc1" {
		t.Errorf("history = %+v", q.History)
	}
}

func TestSkipLastSongDisconnects(t *testing.T) {
	svc, control, _, _ := newTestService(t)
	control.loadResult = trackResult("enc1", "Only", 1000)
	svc.Play(playReq("only"))

	next, err := svc.Skip("g1")
	if err != nil {
		t.Fatalf("skip: %v", err)
	}
	if next != nil {
		t.Errorf("next = %+v, want nil on last-song skip", next)
	}
	if _, ok := svc.Queue("g1"); ok {
		t.Error("queue should be gone after skipping the last song")
	}
	if control.leaves != 1 || control.destroys != 1 {
		t.Errorf("leaves = %d destroys = %d", control.leaves, control.destroys)
	}
}

func TestSkipWithoutQueue(t *testing.T) {
	svc, _, _, _ := newTestService(t)
	if _, err := svc.Skip("none"); !errors.Is(err, ErrNoQueue) {
		t.Errorf("err = %v, want ErrNoQueue", err)
	}
}

func TestPauseResumeStateMachine(t *testing.T) {
	svc, control, _, _ := newTestService(t)
	control.loadResult = trackResult("enc1", "Song", 1000)
	svc.Play(playReq("song"))

	if err := svc.Pause("g1"); err != nil {
		t.Fatalf("pause: %v", err)
	}
	if err := svc.Pause("g1"); !errors.Is(err, ErrAlreadyPaused) {
		t.Errorf("double pause err = %v", err)
	}
	if err := svc.Resume("g1"); err != nil {
		t.Fatalf("resume: %v", err)
	}
	if err := svc.Resume("g1"); !errors.Is(err, ErrNotPaused) {
		t.Errorf("double resume err = %v", err)
	}
	if len(control.pauses) != 2 || control.pauses[0] != true || control.pauses[1] != false {
		t.Errorf("pauses = %v", control.pauses)
	}
}

func TestSeekBoundsCheckedBeforePlayerOp(t *testing.T) {
	svc, control, _, _ := newTestService(t)
	control.loadResult = trackResult("enc1", "Song", 60000)
	svc.Play(playReq("song"))

	if err := svc.Seek("g1", 2*time.Minute); !errors.Is(err, ErrSeekOutOfRange) {
		t.Fatalf("err = %v, want ErrSeekOutOfRange", err)
	}
	if len(control.seeks) != 0 {
		t.Error("out-of-range seek must not reach the player")
	}

	if err := svc.Seek("g1", 30*time.Second); err != nil {
		t.Fatalf("seek: %v", err)
	}
	if len(control.seeks) != 1 || control.seeks[0] != 30000 {
		t.Errorf("seeks = %v", control.seeks)
	}
}

func TestSeekStreamRejected(t *testing.T) {
	svc, control, _, _ := newTestService(t)
	result := trackResult("enc1", "Radio", 0)
	result.Tracks[0].Info.IsStream = true
	control.loadResult = result
	svc.Play(playReq("radio"))

	if err := svc.Seek("g1", time.Second); !errors.Is(err, ErrSeekNotSeekable) {
		t.Errorf("err = %v, want ErrSeekNotSeekable", err)
	}
}

func TestSetVolumePersistsOnlyOnChange(t *testing.T) {
	svc, control, _, db := newTestService(t)
	control.loadResult = trackResult("enc1", "Song", 1000)
	svc.Play(playReq("song"))

	// Same as the stored default: no row written, player still updated
	if err := svc.SetVolume("g1", "Test Guild", models.DefaultVolume); err != nil {
		t.Fatalf("set volume: %v", err)
	}
	if err := svc.SetVolume("g1", "Test Guild", 70); err != nil {
		t.Fatalf("set volume: %v", err)
	}

	settings, err := db.GetSettings("g1")
	if err != nil {
		t.Fatalf("get settings: %v", err)
	}
	if settings.Volume != 70 {
		t.Errorf("persisted volume = %d", settings.Volume)
	}
	// Initial apply on queue creation plus the two commands
	if len(control.volumes) != 3 {
		t.Errorf("volumes = %v", control.volumes)
	}
}

func TestSetVolumeWithoutQueueStillPersists(t *testing.T) {
	svc, control, _, db := newTestService(t)

	if err := svc.SetVolume("g9", "Quiet Guild", 25); err != nil {
		t.Fatalf("set volume: %v", err)
	}
	settings, err := db.GetSettings("g9")
	if err != nil {
		t.Fatalf("get settings: %v", err)
	}
	if settings.Volume != 25 {
		t.Errorf("persisted volume = %d", settings.Volume)
	}
	if len(control.volumes) != 0 {
		t.Error("no live player should have been touched")
	}
}

func TestSetVolumeOutOfRange(t *testing.T) {
	svc, _, _, _ := newTestService(t)
	if err := svc.SetVolume("g1", "Test Guild", 101); !IsInfo(err) {
		t.Errorf("err = %v, want informational", err)
	}
}

func TestTrackEndFinishedAdvances(t *testing.T) {
	svc, control, _, _ := newTestService(t)
	control.loadResult = trackResult("enc1", "First", 1000)
	svc.Play(playReq("first"))
	control.loadResult = trackResult("enc2", "Second", 1000)
	svc.Play(playReq("second"))

	svc.HandleEvent(lavalink.Event{Type: lavalink.EventTrackEnd, GuildID: "g1", Reason: lavalink.EndReasonFinished})

	q, _ := svc.Queue("g1")
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.Current == nil || q.Current.Encoded != "enc2" {
		t.Errorf("current = %+v", q.Current)
	}
}

func TestTrackEndReplacedDoesNotAdvance(t *testing.T) {
	svc, control, _, _ := newTestService(t)
	control.loadResult = trackResult("enc1", "First", 1000)
	svc.Play(playReq("first"))
	control.loadResult = trackResult("enc2", "Second", 1000)
	svc.Play(playReq("second"))

	before := control.playedCount()
	svc.HandleEvent(lavalink.Event{Type: lavalink.EventTrackEnd, GuildID: "g1", Reason: lavalink.EndReasonReplaced})
	if control.playedCount() != before {
		t.Error("replaced end must not start another song")
	}
}

func TestRepeatSingleReplaysCurrent(t *testing.T) {
	svc, control, _, _ := newTestService(t)
	control.loadResult = trackResult("enc1", "Loops", 1000)
	svc.Play(playReq("loops"))
	svc.SetRepeat("g1", RepeatSingle)

	svc.HandleEvent(lavalink.Event{Type: lavalink.EventTrackEnd, GuildID: "g1", Reason: lavalink.EndReasonFinished})

	control.mu.Lock()
	defer control.mu.Unlock()
	if len(control.played) != 2 || control.played[1] != "enc1" {
		t.Errorf("played = %v", control.played)
	}
}

func TestRepeatAllRequeuesAtTail(t *testing.T) {
	svc, control, _, _ := newTestService(t)
	control.loadResult = trackResult("enc1", "First", 1000)
	svc.Play(playReq("first"))
	control.loadResult = trackResult("enc2", "Second", 1000)
	svc.Play(playReq("second"))
	svc.SetRepeat("g1", RepeatAll)

	svc.HandleEvent(lavalink.Event{Type: lavalink.EventTrackEnd, GuildID: "g1", Reason: lavalink.EndReasonFinished})

	q, _ := svc.Queue("g1")
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.Current.Encoded != "enc2" {
		t.Errorf("current = %q", q.Current.Encoded)
	}
	if len(q.Pending) != 1 || q.Pending[0].Encoded != "enc1" {
		t.Errorf("pending = %+v", q.Pending)
	}
}

func TestQueueExhaustionGoesIdle(t *testing.T) {
	svc, control, _, _ := newTestService(t)
	control.loadResult = trackResult("enc1", "Only", 1000)
	svc.Play(playReq("only"))

	svc.HandleEvent(lavalink.Event{Type: lavalink.EventTrackEnd, GuildID: "g1", Reason: lavalink.EndReasonFinished})

	q, ok := svc.Queue("g1")
	if !ok {
		t.Fatal("queue should linger until the disconnect timeout")
	}
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.Current != nil {
		t.Errorf("current = %+v, want nil", q.Current)
	}
	if len(q.History) != 1 {
		t.Errorf("history = %d entries", len(q.History))
	}
}

func TestIdleTimeoutDisconnects(t *testing.T) {
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	control := &fakeControl{loadResult: trackResult("enc1", "Only", 1000)}
	svc := NewService(Options{
		DB:                db,
		Control:           control,
		Messenger:         &fakeMessenger{},
		DynamicInterval:   time.Hour,
		DisconnectTimeout: 30 * time.Millisecond,
	})
	svc.Play(playReq("only"))

	svc.HandleEvent(lavalink.Event{Type: lavalink.EventTrackEnd, GuildID: "g1", Reason: lavalink.EndReasonFinished})

	deadline := time.After(2 * time.Second)
	for {
		if _, ok := svc.Queue("g1"); !ok {
			break
		}
		select {
		case <-deadline:
			t.Fatal("queue was not torn down after the idle timeout")
		case <-time.After(10 * time.Millisecond):
		}
	}
	control.mu.Lock()
	defer control.mu.Unlock()
	if control.leaves != 1 {
		t.Errorf("leaves = %d", control.leaves)
	}
}

func TestTrackExceptionNotifiesAndSkips(t *testing.T) {
	svc, control, msg, _ := newTestService(t)
	control.loadResult = trackResult("enc1", "Broken", 1000)
	svc.Play(playReq("broken"))
	control.loadResult = trackResult("enc2", "Fine", 1000)
	svc.Play(playReq("fine"))

	svc.HandleEvent(lavalink.Event{Type: lavalink.EventTrackException, GuildID: "g1", Error: "Video unavailable"})

	if msg.sendCount() != 1 {
		t.Errorf("sends = %d, want 1 notification", msg.sendCount())
	}
	q, _ := svc.Queue("g1")
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.Current == nil || q.Current.Encoded != "enc2" {
		t.Errorf("current = %+v, should have advanced past the broken song", q.Current)
	}
}

func TestWebSocketClosedDropsQueue(t *testing.T) {
	svc, control, _, _ := newTestService(t)
	control.loadResult = trackResult("enc1", "Song", 1000)
	svc.Play(playReq("song"))

	svc.HandleEvent(lavalink.Event{Type: lavalink.EventWebSocketClosed, GuildID: "g1"})

	if _, ok := svc.Queue("g1"); ok {
		t.Error("queue must be dropped when the voice socket dies")
	}
}

func TestTrackStartPersistsPlay(t *testing.T) {
	svc, control, _, db := newTestService(t)
	control.loadResult = trackResult("enc1", "Logged Song", 1000)
	svc.Play(playReq("logged"))

	svc.HandleEvent(lavalink.Event{Type: lavalink.EventTrackStart, GuildID: "g1"})

	settings, err := db.GetSettings("g1")
	if err != nil {
		t.Fatalf("get settings: %v", err)
	}
	if settings.SongsPlayed != 1 || settings.LastSong != "Logged Song" {
		t.Errorf("settings = %+v", settings)
	}
	rows, err := db.RecentPlays("g1", "", 10)
	if err != nil {
		t.Fatalf("recent plays: %v", err)
	}
	if len(rows) != 1 || rows[0].SongName != "Logged Song" || rows[0].RequesterID != "u1" {
		t.Errorf("rows = %+v", rows)
	}
}

func TestHistoryPrefersLiveQueue(t *testing.T) {
	svc, control, _, _ := newTestService(t)
	control.loadResult = trackResult("enc1", "First", 1000)
	svc.Play(playReq("first"))
	control.loadResult = trackResult("enc2", "Second", 1000)
	svc.Play(playReq("second"))
	svc.Skip("g1")

	items, source, err := svc.History("g1", "", 10)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if source != HistoryLive {
		t.Errorf("source = %v, want live", source)
	}
	if len(items) != 1 || items[0].Name != "First" {
		t.Errorf("items = %+v", items)
	}
}

func TestHistoryFallsBackToPlayLog(t *testing.T) {
	svc, control, _, _ := newTestService(t)
	control.loadResult = trackResult("enc1", "Old Song", 1000)
	svc.Play(playReq("old"))
	svc.HandleEvent(lavalink.Event{Type: lavalink.EventTrackStart, GuildID: "g1"})
	svc.Disconnect("g1")

	items, source, err := svc.History("g1", "", 10)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if source != HistoryPersisted {
		t.Errorf("source = %v, want persisted", source)
	}
	if len(items) != 1 || items[0].Name != "Old Song" {
		t.Errorf("items = %+v", items)
	}
}

func TestShuffleNeedsPendingSongs(t *testing.T) {
	svc, control, _, _ := newTestService(t)
	control.loadResult = trackResult("enc1", "Only", 1000)
	svc.Play(playReq("only"))

	if _, err := svc.Shuffle("g1"); !IsInfo(err) {
		t.Errorf("err = %v, want informational", err)
	}
}

func TestPreviousRewinds(t *testing.T) {
	svc, control, _, _ := newTestService(t)
	control.loadResult = trackResult("enc1", "First", 1000)
	svc.Play(playReq("first"))
	control.loadResult = trackResult("enc2", "Second", 1000)
	svc.Play(playReq("second"))
	svc.Skip("g1")

	prev, err := svc.Previous("g1")
	if err != nil {
		t.Fatalf("previous: %v", err)
	}
	if prev.Encoded != "enc1" {
		t.Errorf("prev = %q", prev.Encoded)
	}
	q, _ := svc.Queue("g1")
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.Pending) != 1 || q.Pending[0].Encoded != "enc2" {
		t.Errorf("pending = %+v", q.Pending)
	}
}

func TestResolveByChannelAndHandle(t *testing.T) {
	svc, control, _, _ := newTestService(t)
	control.loadResult = trackResult("enc1", "Song", 1000)
	svc.Play(playReq("song"))

	q, _ := svc.Queue("g1")
	if got, ok := svc.Resolve(ByChannel("text1")); !ok || got != q {
		t.Error("resolve by text channel failed")
	}
	if got, ok := svc.Resolve(ByChannel("voice1")); !ok || got != q {
		t.Error("resolve by voice channel failed")
	}
	if got, ok := svc.Resolve(ByQueue(q)); !ok || got != q {
		t.Error("resolve by handle failed")
	}
	if _, ok := svc.Resolve(ByChannel("elsewhere")); ok {
		t.Error("unknown channel should not resolve")
	}

	svc.Disconnect("g1")
	if _, ok := svc.Resolve(ByQueue(q)); ok {
		t.Error("stale handle must not resolve after disconnect")
	}
}

func TestMapPlaybackError(t *testing.T) {
	cases := []struct {
		raw     string
		matched bool
	}{
		{"This video is private", true},
		{"Sign in to confirm your age", true},
		{"blocked in your region", true},
		{"something exploded", false},
	}
	for _, tc := range cases {
		msg, matched := MapPlaybackError(tc.raw)
		if matched != tc.matched {
			t.Errorf("MapPlaybackError(%q) matched = %v", tc.raw, matched)
		}
		if msg == "" {
			t.Errorf("MapPlaybackError(%q) returned empty message", tc.raw)
		}
	}
}

func TestConcurrentPlaysSerializePerGuild(t *testing.T) {
	svc, control, _, _ := newTestService(t)
	control.loadResult = trackResult("enc1", "Song", 1000)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := svc.Play(playReq("song")); err != nil {
				t.Errorf("play: %v", err)
			}
		}()
	}
	wg.Wait()

	q, ok := svc.Queue("g1")
	if !ok {
		t.Fatal("queue missing")
	}
	q.mu.Lock()
	defer q.mu.Unlock()
	// Exactly one song started, the other seven queued
	if q.Current == nil || len(q.Pending) != 7 {
		t.Errorf("current = %v, pending = %d", q.Current, len(q.Pending))
	}
	if control.playedCount() != 1 {
		t.Errorf("played = %d", control.playedCount())
	}
}

type blockingJoinControl struct {
	fakeControl
	entered chan struct{}
	release chan struct{}
}

func (f *blockingJoinControl) JoinVoice(guildID, channelID string) error {
	close(f.entered)
	<-f.release
	return errors.New("voice gateway unavailable")
}

func TestPlayJoinFailureDoesNotBlockChannelLookup(t *testing.T) {
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	control := &blockingJoinControl{
		entered: make(chan struct{}),
		release: make(chan struct{}),
	}
	control.loadResult = trackResult("enc1", "Song", 60000)
	svc := NewService(Options{
		DB:                db,
		Control:           control,
		Messenger:         &fakeMessenger{},
		DynamicInterval:   time.Hour,
		DisconnectTimeout: time.Hour,
	})

	playDone := make(chan error, 1)
	go func() {
		_, err := svc.Play(playReq("song"))
		playDone <- err
	}()
	<-control.entered // Play is inside the voice join, queue lock held

	lookupDone := make(chan struct{})
	go func() {
		svc.Resolve(ByChannel("voice1"))
		close(lookupDone)
	}()

	// Let the lookup reach the registry before the join fails
	time.Sleep(20 * time.Millisecond)
	close(control.release)

	select {
	case err := <-playDone:
		if err == nil {
			t.Error("failed join should surface from Play")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Play did not return after the failed join")
	}

	select {
	case <-lookupDone:
	case <-time.After(2 * time.Second):
		t.Fatal("channel lookup did not return after the failed join")
	}

	if _, ok := svc.Queue("g1"); ok {
		t.Error("failed join must drop the queue it created")
	}
}
