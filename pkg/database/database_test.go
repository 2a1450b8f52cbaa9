package database

import (
	"errors"
	"testing"
	"time"

	"github.com/AuroraStudios/AuroraBotGo/pkg/models"
)

func openTestDB(t *testing.T) *Database {
	t.Helper()

	db, err := Open(":memory:")
	if err != nil {
		t.Fatalf("Open(:memory:) returned error: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestEnsureSettingsIsIdempotent(t *testing.T) {
	db := openTestDB(t)

	if _, err := db.GetSettings("g1"); !errors.Is(err, ErrSettingsNotFound) {
		t.Fatalf("GetSettings before creation = %v, want ErrSettingsNotFound", err)
	}

	if err := db.EnsureSettings("g1"); err != nil {
		t.Fatalf("EnsureSettings returned error: %v", err)
	}

	// Change the stored volume, then ensure again: the row must survive
	if _, err := db.SetVolume("g1", 80); err != nil {
		t.Fatalf("SetVolume returned error: %v", err)
	}
	if err := db.EnsureSettings("g1"); err != nil {
		t.Fatalf("second EnsureSettings returned error: %v", err)
	}

	s, err := db.GetSettings("g1")
	if err != nil {
		t.Fatalf("GetSettings returned error: %v", err)
	}
	if s.Volume != 80 {
		t.Errorf("Volume after re-ensure = %d, want 80 (row must not be reset)", s.Volume)
	}
	if s.SongsPlayed != 0 {
		t.Errorf("SongsPlayed = %d, want 0", s.SongsPlayed)
	}
}

func TestEnsureSettingsDefaults(t *testing.T) {
	db := openTestDB(t)

	if err := db.EnsureSettings("g1"); err != nil {
		t.Fatalf("EnsureSettings returned error: %v", err)
	}

	s, err := db.GetSettings("g1")
	if err != nil {
		t.Fatalf("GetSettings returned error: %v", err)
	}
	if s.Volume != models.DefaultVolume {
		t.Errorf("default Volume = %d, want %d", s.Volume, models.DefaultVolume)
	}
	if s.LastSong != "" {
		t.Errorf("default LastSong = %q, want empty", s.LastSong)
	}
}

func TestSetVolumeSkipsRedundantWrites(t *testing.T) {
	db := openTestDB(t)
	if err := db.EnsureSettings("g1"); err != nil {
		t.Fatal(err)
	}

	changed, err := db.SetVolume("g1", 70)
	if err != nil {
		t.Fatalf("SetVolume returned error: %v", err)
	}
	if !changed {
		t.Error("first SetVolume(70) should report a write")
	}

	changed, err = db.SetVolume("g1", 70)
	if err != nil {
		t.Fatalf("second SetVolume returned error: %v", err)
	}
	if changed {
		t.Error("second SetVolume(70) should skip the write")
	}

	if _, err := db.SetVolume("g1", 101); err == nil {
		t.Error("SetVolume(101) should fail, volume is bounded")
	}
	if _, err := db.SetVolume("g1", -1); err == nil {
		t.Error("SetVolume(-1) should fail, volume is bounded")
	}
}

func TestRecordSongPlayed(t *testing.T) {
	db := openTestDB(t)
	if err := db.EnsureSettings("g1"); err != nil {
		t.Fatal(err)
	}

	if err := db.RecordSongPlayed("g1", "first song"); err != nil {
		t.Fatalf("RecordSongPlayed returned error: %v", err)
	}
	if err := db.RecordSongPlayed("g1", "second song"); err != nil {
		t.Fatalf("RecordSongPlayed returned error: %v", err)
	}

	s, err := db.GetSettings("g1")
	if err != nil {
		t.Fatal(err)
	}
	if s.LastSong != "second song" {
		t.Errorf("LastSong = %q, want %q", s.LastSong, "second song")
	}
	if s.SongsPlayed != 2 {
		t.Errorf("SongsPlayed = %d, want 2", s.SongsPlayed)
	}
}

func TestBlacklistChannel(t *testing.T) {
	db := openTestDB(t)

	if err := db.BlacklistChannel("g1", "c1"); err != nil {
		t.Fatalf("BlacklistChannel returned error: %v", err)
	}

	if err := db.BlacklistChannel("g1", "c1"); !errors.Is(err, ErrAlreadyBlacklisted) {
		t.Errorf("duplicate BlacklistChannel = %v, want ErrAlreadyBlacklisted", err)
	}

	blacklisted, err := db.IsChannelBlacklisted("g1", "c1")
	if err != nil {
		t.Fatal(err)
	}
	if !blacklisted {
		t.Error("IsChannelBlacklisted = false, want true")
	}

	// No duplicate row despite the second attempt
	rows, err := db.BlacklistedChannels("g1")
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 1 {
		t.Errorf("BlacklistedChannels returned %d rows, want 1", len(rows))
	}
}

func TestFreeChannel(t *testing.T) {
	db := openTestDB(t)

	if err := db.FreeChannel("g1", "c1"); !errors.Is(err, ErrNotBlacklisted) {
		t.Errorf("FreeChannel on free channel = %v, want ErrNotBlacklisted", err)
	}

	if err := db.BlacklistChannel("g1", "c1"); err != nil {
		t.Fatal(err)
	}
	if err := db.FreeChannel("g1", "c1"); err != nil {
		t.Fatalf("FreeChannel returned error: %v", err)
	}

	blacklisted, err := db.IsChannelBlacklisted("g1", "c1")
	if err != nil {
		t.Fatal(err)
	}
	if blacklisted {
		t.Error("IsChannelBlacklisted after free = true, want false")
	}
}

func TestRecentPlaysOrderAndCap(t *testing.T) {
	db := openTestDB(t)
	if err := db.EnsureGuild("g1", "Test Guild"); err != nil {
		t.Fatal(err)
	}

	base := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 60; i++ {
		err := db.AppendPlay(models.PlayLogEntry{
			GuildID:       "g1",
			SongName:      "song",
			RequesterID:   "u1",
			RequesterName: "user",
			PlayedAt:      base.Add(time.Duration(i) * time.Minute),
		})
		if err != nil {
			t.Fatalf("AppendPlay returned error: %v", err)
		}
	}

	rows, err := db.RecentPlays("g1", "", 1000)
	if err != nil {
		t.Fatalf("RecentPlays returned error: %v", err)
	}
	if len(rows) != 50 {
		t.Fatalf("RecentPlays returned %d rows, want the 50-row cap", len(rows))
	}

	for i := 1; i < len(rows); i++ {
		if rows[i].PlayedAt.After(rows[i-1].PlayedAt) {
			t.Fatalf("rows not ordered newest first at index %d", i)
		}
	}
}

func TestRecentPlaysRequesterFilter(t *testing.T) {
	db := openTestDB(t)
	if err := db.EnsureGuild("g1", ""); err != nil {
		t.Fatal(err)
	}

	for i, requester := range []string{"u1", "u2", "u1"} {
		err := db.AppendPlay(models.PlayLogEntry{
			GuildID:     "g1",
			SongName:    "song",
			RequesterID: requester,
			PlayedAt:    time.Date(2026, 1, 1, 12, i, 0, 0, time.UTC),
		})
		if err != nil {
			t.Fatal(err)
		}
	}

	rows, err := db.RecentPlays("g1", "u1", 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 2 {
		t.Fatalf("filtered RecentPlays returned %d rows, want 2", len(rows))
	}
	for _, r := range rows {
		if r.RequesterID != "u1" {
			t.Errorf("row requester = %s, want u1", r.RequesterID)
		}
	}
}
