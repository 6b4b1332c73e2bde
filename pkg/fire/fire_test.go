package fire

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gwillem/laserpanel/pkg/machine"
)

type fakeLaser struct {
	fireDelay time.Duration
	fireErr   error

	mu          sync.Mutex
	calls       []string
	inflight    int
	maxInflight int
}

func (f *fakeLaser) begin(call string) {
	f.mu.Lock()
	f.calls = append(f.calls, call)
	f.inflight++
	if f.inflight > f.maxInflight {
		f.maxInflight = f.inflight
	}
	f.mu.Unlock()
}

func (f *fakeLaser) end() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.inflight--
}

func (f *fakeLaser) Fire(ctx context.Context, mode machine.FireMode) (machine.FireResponse, error) {
	f.begin("fire " + string(mode))
	defer f.end()
	time.Sleep(f.fireDelay)
	return machine.FireResponse{Mode: mode}, f.fireErr
}

func (f *fakeLaser) StopFire(ctx context.Context) error {
	f.begin("stop")
	defer f.end()
	return nil
}

func (f *fakeLaser) snapshot() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func TestStopWaitsForSlowFire(t *testing.T) {
	laser := &fakeLaser{fireDelay: 50 * time.Millisecond}
	c := New(laser, time.Second, zerolog.Nop())

	fired := c.Fire(machine.Momentary)
	stopped := c.Stop()

	require.NoError(t, <-stopped)
	require.NoError(t, <-fired)
	assert.Equal(t, []string{"fire momentary", "stop"}, laser.snapshot())

	laser.mu.Lock()
	defer laser.mu.Unlock()
	assert.Equal(t, 1, laser.maxInflight)
}

func TestRequestsKeepIssueOrder(t *testing.T) {
	laser := &fakeLaser{fireDelay: 5 * time.Millisecond}
	c := New(laser, time.Second, zerolog.Nop())

	for range 3 {
		c.Fire(machine.Toggle)
		c.Stop()
	}
	c.Wait()

	assert.Equal(t, []string{
		"fire toggle", "stop",
		"fire toggle", "stop",
		"fire toggle", "stop",
	}, laser.snapshot())
}

func TestFireErrorDoesNotBlockStop(t *testing.T) {
	laser := &fakeLaser{fireErr: errors.New("servo not initialized")}
	c := New(laser, time.Second, zerolog.Nop())

	fired := c.Fire(machine.Momentary)
	stopped := c.Stop()

	assert.EqualError(t, <-fired, "servo not initialized")
	assert.NoError(t, <-stopped)
	assert.Equal(t, []string{"fire momentary", "stop"}, laser.snapshot())
}
