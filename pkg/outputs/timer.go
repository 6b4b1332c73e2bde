// Package outputs switches the fan and the red lights off after a delay.
package outputs

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/gwillem/laserpanel/pkg/machine"
)

// Default auto-off delays, matching the backend's timing section.
const (
	DefaultFanDelay    = 600 * time.Second
	DefaultLightsDelay = 60 * time.Second
)

// Switch turns an output on or off.
type Switch func(ctx context.Context, on bool) error

// FanSwitch adapts the client's fan endpoint.
func FanSwitch(c *machine.Client) Switch {
	return func(ctx context.Context, on bool) error {
		_, err := c.SetFan(ctx, on)
		return err
	}
}

// LightsSwitch adapts the client's red lights endpoint.
func LightsSwitch(c *machine.Client) Switch {
	return func(ctx context.Context, on bool) error {
		_, err := c.SetLights(ctx, on)
		return err
	}
}

// Timer switches an output on and arms an auto-off deadline.
type Timer struct {
	name  string
	sw    Switch
	delay time.Duration

	mu        sync.Mutex
	active    bool
	deadline  time.Time
	timer     *time.Timer
	gen       uint64
	onAutoOff func(name string, err error)
}

// NewTimer creates a timer for the named output.
func NewTimer(name string, sw Switch, delay time.Duration) *Timer {
	return &Timer{name: name, sw: sw, delay: delay}
}

// Name returns the output name.
func (t *Timer) Name() string {
	return t.name
}

// Delay returns the auto-off delay.
func (t *Timer) Delay() time.Duration {
	return t.delay
}

// OnAutoOff registers a callback run after the deadline switched the output off.
func (t *Timer) OnAutoOff(fn func(name string, err error)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onAutoOff = fn
}

// On switches the output on and (re)arms the auto-off deadline.
func (t *Timer) On(ctx context.Context) error {
	if err := t.sw(ctx, true); err != nil {
		return fmt.Errorf("switch %s on: %w", t.name, err)
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.active = true
	t.armLocked(t.delay)
	return nil
}

// Off switches the output off and disarms the deadline. A failed switch leaves
// the output active with its deadline armed.
func (t *Timer) Off(ctx context.Context) error {
	if err := t.sw(ctx, false); err != nil {
		return fmt.Errorf("switch %s off: %w", t.name, err)
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.disarmLocked()
	t.active = false
	return nil
}

// Toggle flips the output.
func (t *Timer) Toggle(ctx context.Context) (bool, error) {
	if t.Active() {
		return false, t.Off(ctx)
	}
	return true, t.On(ctx)
}

// Active reports whether the output is on as far as the timer knows.
func (t *Timer) Active() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.active
}

// Remaining returns the time left until auto-off, zero when inactive.
func (t *Timer) Remaining(now time.Time) time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.active || t.deadline.IsZero() {
		return 0
	}
	if d := t.deadline.Sub(now); d > 0 {
		return d
	}
	return 0
}

// SyncRemaining adopts a time_remaining reported by the backend.
func (t *Timer) SyncRemaining(d time.Duration) {
	if d <= 0 {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.active = true
	t.armLocked(d)
}

// Sync adopts the backend's view of the output. An output switched on elsewhere
// gets a full delay unless the backend reports its own remaining time.
func (t *Timer) Sync(st machine.OutputStatus) {
	t.mu.Lock()
	defer t.mu.Unlock()
	switch {
	case !st.On:
		t.disarmLocked()
		t.active = false
	case st.Remaining > 0:
		t.active = true
		t.armLocked(st.Remaining)
	case !t.active:
		t.active = true
		t.armLocked(t.delay)
	}
}

// Stop disarms the deadline without switching the output.
func (t *Timer) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.disarmLocked()
}

func (t *Timer) armLocked(d time.Duration) {
	t.disarmLocked()
	if d <= 0 {
		return
	}
	t.gen++
	gen := t.gen
	t.deadline = time.Now().Add(d)
	t.timer = time.AfterFunc(d, func() { t.expire(gen) })
}

func (t *Timer) disarmLocked() {
	if t.timer != nil {
		t.timer.Stop()
		t.timer = nil
	}
	t.gen++
	t.deadline = time.Time{}
}

func (t *Timer) expire(gen uint64) {
	t.mu.Lock()
	if gen != t.gen || !t.active {
		t.mu.Unlock()
		return
	}
	t.active = false
	t.timer = nil
	t.deadline = time.Time{}
	cb := t.onAutoOff
	t.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	err := t.sw(ctx, false)
	if cb != nil {
		cb(t.name, err)
	}
}
