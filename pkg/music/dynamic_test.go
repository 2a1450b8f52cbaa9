package music

import (
	"errors"
	"testing"
	"time"

	"github.com/AuroraStudios/AuroraBotGo/pkg/database"
)

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		if cond() {
			return
		}
		select {
		case <-deadline:
			t.Fatal("timed out waiting for " + what)
		case <-time.After(5 * time.Millisecond):
		}
	}
}

func TestSetDynamicRequiresPlayback(t *testing.T) {
	svc, _, _, _ := newTestService(t)
	if err := svc.SetDynamic("g1", "text1", DynamicUpdateable); !errors.Is(err, ErrNoQueue) {
		t.Errorf("err = %v, want ErrNoQueue", err)
	}
}

func TestDynamicUpdateableEditsInPlace(t *testing.T) {
	svc, control, msg, _ := newTestService(t)
	control.loadResult = trackResult("enc1", "Song", 60000)
	svc.Play(playReq("song"))

	if err := svc.SetDynamic("g1", "text1", DynamicUpdateable); err != nil {
		t.Fatalf("set dynamic: %v", err)
	}
	if msg.sendCount() != 1 {
		t.Fatalf("sends = %d, want the initial widget post", msg.sendCount())
	}
	widgetID := msg.sends[0].messageID

	waitFor(t, "widget edits", func() bool { return msg.editCount() >= 2 })

	msg.mu.Lock()
	defer msg.mu.Unlock()
	for _, e := range msg.edits {
		if e.messageID != widgetID {
			t.Errorf("edit targeted %q, want the widget %q", e.messageID, widgetID)
		}
	}
	if len(msg.sends) != 1 {
		t.Errorf("updateable widget must never repost, sends = %d", len(msg.sends))
	}
}

func TestDynamicPinnedReposts(t *testing.T) {
	svc, control, msg, _ := newTestService(t)
	control.loadResult = trackResult("enc1", "Song", 60000)
	svc.Play(playReq("song"))

	if err := svc.SetDynamic("g1", "text1", DynamicPinned); err != nil {
		t.Fatalf("set dynamic: %v", err)
	}
	msg.mu.Lock()
	first := msg.sends[0].messageID
	msg.mu.Unlock()

	waitFor(t, "widget reposts", func() bool { return msg.sendCount() >= 3 })

	msg.mu.Lock()
	deleted := make(map[string]bool)
	for _, d := range msg.deletes {
		deleted[d.MessageID] = true
	}
	msg.mu.Unlock()
	if !deleted[first] {
		t.Error("old widget message was not cleaned up after repost")
	}
	if msg.editCount() != 0 {
		t.Errorf("pinned widget must repost, not edit; edits = %d", msg.editCount())
	}
}

func TestSetDynamicReplacesPrevious(t *testing.T) {
	svc, control, _, _ := newTestService(t)
	control.loadResult = trackResult("enc1", "Song", 60000)
	svc.Play(playReq("song"))

	if err := svc.SetDynamic("g1", "text1", DynamicUpdateable); err != nil {
		t.Fatalf("set dynamic: %v", err)
	}
	if err := svc.SetDynamic("g1", "text1", DynamicPinned); err != nil {
		t.Fatalf("replace dynamic: %v", err)
	}
	if got := svc.DynamicState("g1"); got != DynamicPinned {
		t.Errorf("state = %v, want pinned", got)
	}
}

func TestClearDynamicIsIdempotent(t *testing.T) {
	svc, control, msg, _ := newTestService(t)

	// No queue at all: still fine
	typ, err := svc.ClearDynamic("g1")
	if err != nil || typ != DynamicNone {
		t.Errorf("clear on missing queue = (%v, %v)", typ, err)
	}

	control.loadResult = trackResult("enc1", "Song", 60000)
	svc.Play(playReq("song"))

	// Queue without a widget: still fine
	typ, err = svc.ClearDynamic("g1")
	if err != nil || typ != DynamicNone {
		t.Errorf("clear without widget = (%v, %v)", typ, err)
	}

	if err := svc.SetDynamic("g1", "text1", DynamicUpdateable); err != nil {
		t.Fatalf("set dynamic: %v", err)
	}
	typ, err = svc.ClearDynamic("g1")
	if err != nil || typ != DynamicUpdateable {
		t.Errorf("clear with widget = (%v, %v)", typ, err)
	}
	// Detaching leaves the last widget message in the channel
	if len(msg.deletes) != 0 {
		t.Errorf("deletes = %v, clear must not remove the message", msg.deletes)
	}
	if got := svc.DynamicState("g1"); got != DynamicNone {
		t.Errorf("state = %v after clear", got)
	}
}

func TestClearDynamicRendersFinalState(t *testing.T) {
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	control := &fakeControl{}
	msg := &fakeMessenger{}
	// A tick interval long enough that the only possible edit is the
	// detach render
	svc := NewService(Options{
		DB:                db,
		Control:           control,
		Messenger:         msg,
		DynamicInterval:   time.Hour,
		DisconnectTimeout: time.Hour,
	})

	control.loadResult = trackResult("enc1", "Song", 60000)
	svc.Play(playReq("song"))
	if err := svc.SetDynamic("g1", "text1", DynamicUpdateable); err != nil {
		t.Fatalf("set dynamic: %v", err)
	}
	widgetID := msg.sends[0].messageID

	if _, err := svc.ClearDynamic("g1"); err != nil {
		t.Fatalf("clear dynamic: %v", err)
	}

	if msg.editCount() != 1 {
		t.Fatalf("edits = %d, want one detach render", msg.editCount())
	}
	msg.mu.Lock()
	defer msg.mu.Unlock()
	if msg.edits[0].messageID != widgetID {
		t.Errorf("final render targeted %q, want the widget %q", msg.edits[0].messageID, widgetID)
	}
	if len(msg.deletes) != 0 {
		t.Errorf("deletes = %v, the detached message must stay", msg.deletes)
	}
}

func TestUpdateDynamicWithoutWidgetIsNoop(t *testing.T) {
	svc, control, msg, _ := newTestService(t)
	control.loadResult = trackResult("enc1", "Song", 60000)
	svc.Play(playReq("song"))

	svc.UpdateDynamic("g1")
	if msg.sendCount() != 0 || msg.editCount() != 0 {
		t.Error("update without a widget must not touch any message")
	}
}

func TestDisconnectRemovesWidgetMessage(t *testing.T) {
	svc, control, msg, _ := newTestService(t)
	control.loadResult = trackResult("enc1", "Song", 60000)
	svc.Play(playReq("song"))

	if err := svc.SetDynamic("g1", "text1", DynamicUpdateable); err != nil {
		t.Fatalf("set dynamic: %v", err)
	}
	widgetID := msg.sends[0].messageID

	svc.Disconnect("g1")

	msg.mu.Lock()
	defer msg.mu.Unlock()
	found := false
	for _, d := range msg.deletes {
		if d.MessageID == widgetID {
			found = true
		}
	}
	if !found {
		t.Error("teardown should delete the widget message")
	}
}

func TestDynamicTickWithNothingPlayingKeepsLastRender(t *testing.T) {
	svc, control, msg, _ := newTestService(t)
	control.loadResult = trackResult("enc1", "Song", 60000)
	svc.Play(playReq("song"))

	if err := svc.SetDynamic("g1", "text1", DynamicUpdateable); err != nil {
		t.Fatalf("set dynamic: %v", err)
	}

	// Exhaust the queue; the widget is detached on exhaustion
	q, _ := svc.Queue("g1")
	q.mu.Lock()
	q.Current = nil
	q.mu.Unlock()

	time.Sleep(80 * time.Millisecond)
	if msg.editCount() != 0 {
		t.Errorf("edits = %d, tick with nothing playing must be a no-op", msg.editCount())
	}
}
