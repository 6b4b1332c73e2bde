package stats

import (
	"testing"
	"time"

	"github.com/gwillem/laserpanel/pkg/machine"
)

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		ms       int64
		expected string
	}{
		{0, "00:00:00"},
		{999, "00:00:00"},
		{1000, "00:00:01"},
		{61_000, "00:01:01"},
		{3_723_000, "01:02:03"},
		{360_000_000, "100:00:00"}, // hours are not capped
		{-5, "00:00:00"},
	}

	for _, tt := range tests {
		if got := FormatDuration(tt.ms); got != tt.expected {
			t.Errorf("FormatDuration(%d) = %q, want %q", tt.ms, got, tt.expected)
		}
	}
}

func TestFireThreshold(t *testing.T) {
	start := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	s := NewSession(0, start)

	s.FireStarted(start)
	if s.FireStopped(start.Add(1999 * time.Millisecond)) {
		t.Error("firing shorter than the threshold should not count")
	}

	s.FireStarted(start)
	if !s.FireStopped(start.Add(2500 * time.Millisecond)) {
		t.Error("firing past the threshold should count")
	}

	snap := s.Snapshot()
	if snap.FireCount != 1 {
		t.Errorf("FireCount = %d, want 1", snap.FireCount)
	}
	if snap.FireTime != 2500*time.Millisecond {
		t.Errorf("FireTime = %s, want 2.5s", snap.FireTime)
	}
}

func TestFireStoppedWithoutStart(t *testing.T) {
	s := NewSession(time.Second, time.Now())
	if s.FireStopped(time.Now()) {
		t.Error("stop without start should not count")
	}
}

func TestFireStartedTwiceKeepsFirst(t *testing.T) {
	start := time.Now()
	s := NewSession(time.Second, start)
	s.FireStarted(start)
	s.FireStarted(start.Add(900 * time.Millisecond))
	if !s.FireStopped(start.Add(1100 * time.Millisecond)) {
		t.Error("duration should be measured from the first start")
	}
}

func TestApplyAndReset(t *testing.T) {
	start := time.Now()
	s := NewSession(0, start)
	s.AddJog(20)
	s.AddJog(20)
	s.AddTableCycles(3)
	s.AddTableCycles(-1)
	s.Apply(machine.Statistics{FireCount: 12, FireTimeMS: 60_000})

	snap := s.Snapshot()
	if snap.Jogs != 2 || snap.JogSteps != 40 || snap.TableCycles != 3 {
		t.Errorf("unexpected counters: %+v", snap)
	}
	if !snap.Synced || snap.TotalFireCount != 12 || snap.TotalFireTime != time.Minute {
		t.Errorf("backend totals not applied: %+v", snap)
	}

	later := start.Add(time.Hour)
	s.Reset(later)
	snap = s.Snapshot()
	if snap.Jogs != 0 || snap.TableCycles != 0 {
		t.Errorf("Reset should clear session counters: %+v", snap)
	}
	if snap.TotalFireCount != 12 {
		t.Error("Reset should keep backend totals")
	}
	if !snap.StartedAt.Equal(later) {
		t.Errorf("StartedAt = %v, want %v", snap.StartedAt, later)
	}
}
