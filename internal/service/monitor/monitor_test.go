package monitor

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/kapu/movie-advisor-bot/pkg/errors"
)

func TestRecordKeepsNewestFirst(t *testing.T) {
	m := NewErrorMonitor(3, zap.NewNop())
	base := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	tick := 0
	m.now = func() time.Time {
		tick++
		return base.Add(time.Duration(tick) * time.Second)
	}

	for i := 1; i <= 5; i++ {
		m.Record("tmdb", fmt.Errorf("failure %d", i))
	}

	if m.Len() != 3 {
		t.Fatalf("expected 3 stored events, got %d", m.Len())
	}
	events := m.Recent(0)
	if len(events) != 3 {
		t.Fatalf("expected 3 events, got %d", len(events))
	}
	for i, want := range []string{"failure 5", "failure 4", "failure 3"} {
		if events[i].Message != want {
			t.Errorf("event %d: expected %q, got %q", i, want, events[i].Message)
		}
	}
	if !events[0].Timestamp.After(events[1].Timestamp) {
		t.Error("expected newest event first")
	}

	if got := m.Recent(1); len(got) != 1 || got[0].Message != "failure 5" {
		t.Errorf("unexpected limited result: %+v", got)
	}
}

func TestRecordCapturesTypeAndTruncates(t *testing.T) {
	m := NewErrorMonitor(0, zap.NewNop())

	m.Record("omdb", errors.NewTemporaryAPIError("omdb", strings.Repeat("x", 1000), 503, nil))
	m.Record("omdb", nil)

	events := m.Recent(10)
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}
	if events[0].Source != "omdb" || events[0].ErrorType != "*errors.APIError" {
		t.Errorf("unexpected event: %+v", events[0])
	}
	if n := len([]rune(events[0].Message)); n != 400 {
		t.Errorf("expected message truncated to 400 runes, got %d", n)
	}
}

func TestNilMonitorIsSafe(t *testing.T) {
	var m *ErrorMonitor
	m.Record("tmdb", fmt.Errorf("boom"))
	if m.Recent(5) != nil || m.Len() != 0 {
		t.Error("expected nil monitor to be empty")
	}
}
