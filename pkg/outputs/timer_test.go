package outputs

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gwillem/laserpanel/pkg/machine"
)

type fakeSwitch struct {
	mu    sync.Mutex
	calls []bool
	err   error
}

func (f *fakeSwitch) set(ctx context.Context, on bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, on)
	return f.err
}

func (f *fakeSwitch) snapshot() []bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]bool(nil), f.calls...)
}

func TestAutoOffFiresOnce(t *testing.T) {
	sw := &fakeSwitch{}
	tm := NewTimer("fan", sw.set, 20*time.Millisecond)

	fired := make(chan string, 2)
	tm.OnAutoOff(func(name string, err error) { fired <- name })

	require.NoError(t, tm.On(context.Background()))
	assert.True(t, tm.Active())

	select {
	case name := <-fired:
		assert.Equal(t, "fan", name)
	case <-time.After(time.Second):
		t.Fatal("auto-off did not fire")
	}
	assert.False(t, tm.Active())
	assert.Equal(t, []bool{true, false}, sw.snapshot())

	select {
	case <-fired:
		t.Fatal("auto-off fired twice")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestRearmCancelsPreviousDeadline(t *testing.T) {
	sw := &fakeSwitch{}
	tm := NewTimer("lights", sw.set, 40*time.Millisecond)

	fired := make(chan time.Time, 2)
	tm.OnAutoOff(func(string, error) { fired <- time.Now() })

	require.NoError(t, tm.On(context.Background()))
	time.Sleep(25 * time.Millisecond)
	rearmed := time.Now()
	require.NoError(t, tm.On(context.Background()))

	at := <-fired
	assert.GreaterOrEqual(t, at.Sub(rearmed), 35*time.Millisecond)
	assert.Equal(t, []bool{true, true, false}, sw.snapshot())
}

func TestOffDisarms(t *testing.T) {
	sw := &fakeSwitch{}
	tm := NewTimer("fan", sw.set, 10*time.Millisecond)
	tm.OnAutoOff(func(string, error) { t.Error("auto-off after Off") })

	require.NoError(t, tm.On(context.Background()))
	require.NoError(t, tm.Off(context.Background()))
	time.Sleep(30 * time.Millisecond)

	assert.Equal(t, []bool{true, false}, sw.snapshot())
	assert.Zero(t, tm.Remaining(time.Now()))
}

func TestOnErrorLeavesTimerIdle(t *testing.T) {
	sw := &fakeSwitch{err: errors.New("backend down")}
	tm := NewTimer("fan", sw.set, time.Minute)

	err := tm.On(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "fan")
	assert.False(t, tm.Active())
}

func TestRemainingAndSync(t *testing.T) {
	sw := &fakeSwitch{}
	tm := NewTimer("fan", sw.set, time.Minute)
	defer tm.Stop()

	tm.SyncRemaining(10 * time.Second)
	rem := tm.Remaining(time.Now())
	assert.InDelta(t, float64(10*time.Second), float64(rem), float64(time.Second))

	tm.Sync(machine.OutputStatus{On: false})
	assert.False(t, tm.Active())

	tm.Sync(machine.OutputStatus{On: true})
	assert.True(t, tm.Active())
	assert.InDelta(t, float64(time.Minute), float64(tm.Remaining(time.Now())), float64(time.Second))
	assert.Empty(t, sw.snapshot(), "sync must not switch the output")
}

func TestToggle(t *testing.T) {
	sw := &fakeSwitch{}
	tm := NewTimer("lights", sw.set, time.Minute)
	defer tm.Stop()

	on, err := tm.Toggle(context.Background())
	require.NoError(t, err)
	assert.True(t, on)
	on, err = tm.Toggle(context.Background())
	require.NoError(t, err)
	assert.False(t, on)
	assert.Equal(t, []bool{true, false}, sw.snapshot())
}

func TestFailedOffKeepsOutputActive(t *testing.T) {
	sw := &fakeSwitch{}
	tm := NewTimer("fan", sw.set, time.Minute)
	require.NoError(t, tm.On(context.Background()))

	sw.mu.Lock()
	sw.err = errors.New("relay busy")
	sw.mu.Unlock()

	require.Error(t, tm.Off(context.Background()))
	assert.True(t, tm.Active())
	assert.Greater(t, tm.Remaining(time.Now()), time.Duration(0))
	tm.Stop()
}
