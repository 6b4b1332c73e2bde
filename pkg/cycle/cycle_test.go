package cycle

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gwillem/laserpanel/pkg/machine"
)

// fakeTable moves one unit per status poll while a relay is on.
type fakeTable struct {
	mu        sync.Mutex
	pos       int
	travel    int
	fwd, back bool
	simulated bool
	stuck     bool
	hideFront bool
	statusErr error
	calls     []string
}

func (f *fakeTable) relay(name string, on bool, set *bool, blocked bool) (machine.TableResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, fmt.Sprintf("%s %v", name, on))
	res := machine.TableResult{State: on}
	res.Simulated = f.simulated
	if on && blocked {
		res.Status = machine.StatusWarning
		return res, nil
	}
	*set = on
	res.Status = machine.StatusSuccess
	return res, nil
}

func (f *fakeTable) TableForward(ctx context.Context, on bool) (machine.TableResult, error) {
	return f.relay("forward", on, &f.fwd, !f.simulated && f.pos >= f.travel)
}

func (f *fakeTable) TableBackward(ctx context.Context, on bool) (machine.TableResult, error) {
	return f.relay("backward", on, &f.back, !f.simulated && f.pos <= 0)
}

func (f *fakeTable) TableStatus(ctx context.Context) (machine.TableStatus, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.statusErr != nil {
		return machine.TableStatus{}, f.statusErr
	}
	if !f.stuck {
		if f.fwd && f.pos < f.travel {
			f.pos++
		}
		if f.back && f.pos > 0 {
			f.pos--
		}
	}
	st := machine.TableStatus{MovingForward: f.fwd, MovingBackward: f.back}
	st.Simulated = f.simulated
	if !f.simulated {
		st.FrontLimit = f.pos >= f.travel && !f.hideFront
		st.BackLimit = f.pos <= 0
	}
	return st, nil
}

func (f *fakeTable) relaysOff() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return !f.fwd && !f.back
}

func (f *fakeTable) firstDrive() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, c := range f.calls {
		if c == "forward true" || c == "backward true" {
			return c
		}
	}
	return ""
}

func fastConfig() Config {
	return Config{
		PollInterval:    time.Millisecond,
		Dwell:           time.Millisecond,
		LegTimeout:      time.Second,
		SimulatedTravel: 5 * time.Millisecond,
		StopTimeout:     100 * time.Millisecond,
	}
}

func TestRunCompletesCycles(t *testing.T) {
	table := &fakeTable{travel: 3}
	cfg := fastConfig()
	cfg.MaxCycles = 2
	ctrl := New(table, cfg)

	require.NoError(t, ctrl.Run(context.Background()))
	assert.Equal(t, 2, ctrl.Cycles())
	assert.Equal(t, "forward true", table.firstDrive())
	assert.True(t, table.relaysOff())
	assert.False(t, ctrl.Running())
	assert.Equal(t, Idle, ctrl.Last().Phase)
}

func TestRunStartsBackwardAtFrontLimit(t *testing.T) {
	table := &fakeTable{travel: 3, pos: 3}
	cfg := fastConfig()
	cfg.MaxCycles = 1
	ctrl := New(table, cfg)

	require.NoError(t, ctrl.Run(context.Background()))
	assert.Equal(t, "backward true", table.firstDrive())
	assert.Equal(t, 1, ctrl.Cycles())
}

func TestBlockedMoveEndsLeg(t *testing.T) {
	// The switch is not reported by status, only by the relay refusing to move.
	table := &fakeTable{travel: 3, pos: 3, hideFront: true}
	cfg := fastConfig()
	cfg.MaxCycles = 1
	ctrl := New(table, cfg)

	require.NoError(t, ctrl.Run(context.Background()))
	assert.Equal(t, "forward true", table.firstDrive())
	assert.Equal(t, 1, ctrl.Cycles())
	assert.True(t, table.relaysOff())
}

func TestSimulatedBackendUsesTravelTime(t *testing.T) {
	table := &fakeTable{simulated: true}
	cfg := fastConfig()
	cfg.MaxCycles = 1
	ctrl := New(table, cfg)

	start := time.Now()
	require.NoError(t, ctrl.Run(context.Background()))
	assert.GreaterOrEqual(t, time.Since(start), 2*cfg.SimulatedTravel)
	assert.Equal(t, 1, ctrl.Cycles())
}

func TestLegTimeout(t *testing.T) {
	table := &fakeTable{travel: 3, stuck: true}
	cfg := fastConfig()
	cfg.LegTimeout = 20 * time.Millisecond
	ctrl := New(table, cfg)

	err := ctrl.Run(context.Background())
	assert.ErrorIs(t, err, ErrLegTimeout)
	assert.True(t, table.relaysOff())
	assert.ErrorIs(t, ctrl.Last().Err, ErrLegTimeout)
}

func TestPollErrorsAbort(t *testing.T) {
	table := &fakeTable{travel: 3}
	ctrl := New(table, fastConfig())

	// First status read succeeds, later ones fail.
	go func() {
		time.Sleep(5 * time.Millisecond)
		table.mu.Lock()
		table.statusErr = errors.New("connection refused")
		table.mu.Unlock()
	}()

	err := ctrl.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection refused")
	assert.True(t, table.relaysOff())
}

func TestStopSwitchesRelaysOff(t *testing.T) {
	table := &fakeTable{travel: 1_000_000}
	ctrl := New(table, fastConfig())

	errCh := make(chan error, 1)
	go func() { errCh <- ctrl.Run(context.Background()) }()

	require.Eventually(t, ctrl.Running, time.Second, time.Millisecond)
	require.Eventually(t, func() bool { return !table.relaysOff() }, time.Second, time.Millisecond)

	ctrl.Stop()
	assert.ErrorIs(t, <-errCh, context.Canceled)
	assert.True(t, table.relaysOff())
	assert.False(t, ctrl.Running())
}

func TestRunWhileRunning(t *testing.T) {
	table := &fakeTable{travel: 1_000_000}
	ctrl := New(table, fastConfig())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go ctrl.Run(ctx)
	require.Eventually(t, ctrl.Running, time.Second, time.Millisecond)

	assert.ErrorIs(t, ctrl.Run(ctx), ErrRunning)
	ctrl.Stop()
}

func TestStopWhenIdle(t *testing.T) {
	ctrl := New(&fakeTable{}, fastConfig())
	ctrl.Stop()
	assert.False(t, ctrl.Running())
}

func TestStatesKeepNewest(t *testing.T) {
	table := &fakeTable{travel: 2}
	cfg := fastConfig()
	cfg.MaxCycles = 1
	ctrl := New(table, cfg)

	require.NoError(t, ctrl.Run(context.Background()))
	st := <-ctrl.States()
	assert.Equal(t, Idle, st.Phase)
	assert.Equal(t, 1, st.Cycles)

	select {
	case <-ctrl.States():
		t.Fatal("only the newest state should be buffered")
	default:
	}
}

func TestBlockedBothWaysAborts(t *testing.T) {
	// Both limits active: every relay command comes back as a warning.
	table := &fakeTable{}
	cfg := fastConfig()
	cfg.Dwell = -1
	ctrl := New(table, cfg)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	err := ctrl.Run(ctx)
	assert.ErrorIs(t, err, ErrBlocked)
	assert.Equal(t, 0, ctrl.Cycles())
	assert.True(t, table.relaysOff())
	assert.ErrorIs(t, ctrl.Last().Err, ErrBlocked)
}

func TestRunHonoursCancelledContext(t *testing.T) {
	table := &fakeTable{}
	cfg := fastConfig()
	cfg.Dwell = -1
	ctrl := New(table, cfg)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, ctrl.Run(ctx), context.Canceled)
	assert.Empty(t, table.firstDrive())
	assert.Equal(t, 0, ctrl.Cycles())
}

func TestStopRightAfterStart(t *testing.T) {
	for range 50 {
		table := &fakeTable{travel: 1_000_000}
		ctrl := New(table, fastConfig())

		result, err := ctrl.Start(context.Background())
		require.NoError(t, err)
		ctrl.Stop()

		assert.False(t, ctrl.Running())
		assert.True(t, table.relaysOff())
		assert.ErrorIs(t, <-result, context.Canceled)
	}
}

func TestStartWhileRunning(t *testing.T) {
	ctrl := New(&fakeTable{travel: 1_000_000}, fastConfig())

	result, err := ctrl.Start(context.Background())
	require.NoError(t, err)
	_, err = ctrl.Start(context.Background())
	assert.ErrorIs(t, err, ErrRunning)

	ctrl.Stop()
	assert.ErrorIs(t, <-result, context.Canceled)
}
