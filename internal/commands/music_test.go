package commands

import (
	"testing"
	"time"

	"github.com/AuroraStudios/AuroraBotGo/pkg/music"
)

func TestParsePosition(t *testing.T) {
	d, err := parsePosition("1:23")
	if err != nil {
		t.Fatalf("parsePosition(1:23) returned error: %v", err)
	}
	if d != time.Minute+23*time.Second {
		t.Errorf("parsePosition(1:23) = %v, expected 1m23s", d)
	}

	d, err = parsePosition("1:02:03")
	if err != nil {
		t.Fatalf("parsePosition(1:02:03) returned error: %v", err)
	}
	if d != time.Hour+2*time.Minute+3*time.Second {
		t.Errorf("parsePosition(1:02:03) = %v, expected 1h2m3s", d)
	}

	d, err = parsePosition("90")
	if err != nil {
		t.Fatalf("parsePosition(90) returned error: %v", err)
	}
	if d != 90*time.Second {
		t.Errorf("parsePosition(90) = %v, expected 90s", d)
	}

	d, err = parsePosition(" 0:05 ")
	if err != nil {
		t.Fatalf("parsePosition with spaces returned error: %v", err)
	}
	if d != 5*time.Second {
		t.Errorf("parsePosition(0:05) = %v, expected 5s", d)
	}
}

func TestParsePositionRejectsInvalid(t *testing.T) {
	for _, raw := range []string{"", "abc", "1:2:3:4", "1:60", "2:99:00", "-5", "1:5"} {
		if _, err := parsePosition(raw); err == nil {
			t.Errorf("parsePosition(%q) should fail", raw)
		} else if !music.IsInfo(err) {
			t.Errorf("parsePosition(%q) should return an informational error, got %v", raw, err)
		}
	}
}

func TestClampCount(t *testing.T) {
	if got := clampCount(0, 10); got != 10 {
		t.Errorf("clampCount(0) = %d, expected fallback 10", got)
	}
	if got := clampCount(-3, 10); got != 1 {
		t.Errorf("clampCount(-3) = %d, expected 1", got)
	}
	if got := clampCount(100, 10); got != 25 {
		t.Errorf("clampCount(100) = %d, expected 25", got)
	}
	if got := clampCount(7, 10); got != 7 {
		t.Errorf("clampCount(7) = %d, expected 7", got)
	}
}
