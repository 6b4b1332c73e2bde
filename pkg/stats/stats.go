// Package stats keeps the operator's session counters next to the backend totals.
package stats

import (
	"fmt"
	"sync"
	"time"

	"github.com/gwillem/laserpanel/pkg/machine"
)

// DefaultFireThreshold is the minimum firing time counted as a laser fire.
const DefaultFireThreshold = 2000 * time.Millisecond

// Snapshot is a copy of the session counters.
type Snapshot struct {
	FireCount   int
	FireTime    time.Duration
	TableCycles int
	Jogs        int
	JogSteps    int
	StartedAt   time.Time

	// Backend totals as of the last Apply.
	TotalFireCount int
	TotalFireTime  time.Duration
	Synced         bool
}

// Session counts what happened since the panel was opened.
type Session struct {
	threshold time.Duration

	mu        sync.Mutex
	snap      Snapshot
	fireStart time.Time
}

// NewSession starts a session. A zero threshold uses DefaultFireThreshold.
func NewSession(threshold time.Duration, now time.Time) *Session {
	if threshold <= 0 {
		threshold = DefaultFireThreshold
	}
	return &Session{threshold: threshold, snap: Snapshot{StartedAt: now}}
}

// Threshold returns the minimum counted firing time.
func (s *Session) Threshold() time.Duration {
	return s.threshold
}

// FireStarted marks the start of a firing. A second call while firing is ignored.
func (s *Session) FireStarted(t time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fireStart.IsZero() {
		s.fireStart = t
	}
}

// Firing reports whether a firing is in progress.
func (s *Session) Firing() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return !s.fireStart.IsZero()
}

// FireStopped ends a firing and reports whether it lasted long enough to count.
func (s *Session) FireStopped(t time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fireStart.IsZero() {
		return false
	}
	d := t.Sub(s.fireStart)
	s.fireStart = time.Time{}
	if d < s.threshold {
		return false
	}
	s.snap.FireCount++
	s.snap.FireTime += d
	return true
}

// AddTableCycles adds completed auto-cycle round trips.
func (s *Session) AddTableCycles(n int) {
	if n <= 0 {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snap.TableCycles += n
}

// AddJog records one jog request.
func (s *Session) AddJog(steps int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snap.Jogs++
	s.snap.JogSteps += steps
}

// Apply mirrors the backend's persistent totals.
func (s *Session) Apply(st machine.Statistics) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snap.TotalFireCount = st.FireCount
	s.snap.TotalFireTime = st.FireTime()
	s.snap.Synced = true
}

// Snapshot returns a copy of the counters.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snap
}

// Reset clears the session counters and restarts the clock. Backend totals are kept.
func (s *Session) Reset(now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snap = Snapshot{
		StartedAt:      now,
		TotalFireCount: s.snap.TotalFireCount,
		TotalFireTime:  s.snap.TotalFireTime,
		Synced:         s.snap.Synced,
	}
	s.fireStart = time.Time{}
}

// FormatDuration renders milliseconds as HH:MM:SS. Hours are not capped.
func FormatDuration(ms int64) string {
	if ms < 0 {
		ms = 0
	}
	total := ms / 1000
	return fmt.Sprintf("%02d:%02d:%02d", total/3600, (total%3600)/60, total%60)
}

// Format renders d as HH:MM:SS.
func Format(d time.Duration) string {
	return FormatDuration(d.Milliseconds())
}
