// Package cycle drives the table back and forth between its limit switches.
package cycle

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/gwillem/laserpanel/pkg/machine"
)

var (
	// ErrRunning is returned by Run when a cycle is already in progress.
	ErrRunning = errors.New("auto cycle already running")
	// ErrLegTimeout is returned when a limit switch is not reached in time.
	ErrLegTimeout = errors.New("limit switch not reached in time")
	// ErrBlocked is returned when the table refuses to move in both directions.
	ErrBlocked = errors.New("table blocked in both directions")
)

// Table is the subset of the backend client the cycle needs.
type Table interface {
	TableForward(ctx context.Context, on bool) (machine.TableResult, error)
	TableBackward(ctx context.Context, on bool) (machine.TableResult, error)
	TableStatus(ctx context.Context) (machine.TableStatus, error)
}

// Phase is what the table is doing right now.
type Phase int

const (
	Idle Phase = iota
	Forward
	Backward
	Dwell
	Stopping
)

func (p Phase) String() string {
	switch p {
	case Forward:
		return "forward"
	case Backward:
		return "backward"
	case Dwell:
		return "dwell"
	case Stopping:
		return "stopping"
	}
	return "idle"
}

func phaseFor(dir machine.Direction) Phase {
	if dir == machine.Forward {
		return Forward
	}
	return Backward
}

// State is published on every poll and phase change.
type State struct {
	Phase      Phase
	Direction  machine.Direction
	Cycles     int
	FrontLimit bool
	BackLimit  bool
	Simulated  bool
	Err        error
	Timestamp  time.Time
}

// Config holds the cycle timings.
type Config struct {
	PollInterval time.Duration
	// Dwell is the pause between legs. Negative disables it.
	Dwell      time.Duration
	LegTimeout time.Duration
	// SimulatedTravel stands in for a leg when the backend has no switches to report.
	SimulatedTravel time.Duration
	// MaxCycles stops after that many round trips; 0 runs until stopped.
	MaxCycles     int
	MaxPollErrors int
	StopTimeout   time.Duration
	Logger        zerolog.Logger
}

// DefaultConfig returns the timings used by the panel.
func DefaultConfig() Config {
	return Config{
		PollInterval:    200 * time.Millisecond,
		Dwell:           time.Second,
		LegTimeout:      60 * time.Second,
		SimulatedTravel: 3 * time.Second,
		MaxPollErrors:   3,
		StopTimeout:     2 * time.Second,
		Logger:          zerolog.Nop(),
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.PollInterval <= 0 {
		c.PollInterval = d.PollInterval
	}
	if c.Dwell == 0 {
		c.Dwell = d.Dwell
	}
	if c.LegTimeout <= 0 {
		c.LegTimeout = d.LegTimeout
	}
	if c.SimulatedTravel <= 0 {
		c.SimulatedTravel = d.SimulatedTravel
	}
	if c.MaxPollErrors <= 0 {
		c.MaxPollErrors = d.MaxPollErrors
	}
	if c.StopTimeout <= 0 {
		c.StopTimeout = d.StopTimeout
	}
	return c
}

// Controller runs the auto cycle.
type Controller struct {
	table Table
	cfg   Config
	log   zerolog.Logger

	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
	done    chan struct{}
	cycles  int
	last    State
	stateCh chan State
	logCh   chan string
}

// New creates an idle controller.
func New(table Table, cfg Config) *Controller {
	cfg = cfg.withDefaults()
	return &Controller{
		table:   table,
		cfg:     cfg,
		log:     cfg.Logger.With().Str("component", "cycle").Logger(),
		stateCh: make(chan State, 1),
		logCh:   make(chan string, 10),
	}
}

// States returns a channel that receives state updates. Only the newest state is kept.
func (c *Controller) States() <-chan State {
	return c.stateCh
}

// Logs returns a channel that receives operator messages.
func (c *Controller) Logs() <-chan string {
	return c.logCh
}

// Running reports whether Run is active.
func (c *Controller) Running() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.running
}

// Cycles returns the round trips completed by the current or last run.
func (c *Controller) Cycles() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cycles
}

// Config returns the effective configuration.
func (c *Controller) Config() Config {
	return c.cfg
}

func (c *Controller) logf(format string, args ...any) {
	msg := fmt.Sprintf("[%s] %s", time.Now().Format("15:04:05"), fmt.Sprintf(format, args...))
	select {
	case c.logCh <- msg:
	default:
		// Drop if channel full
	}
}

// Start registers a new run and drives the table in the background. The run
// is visible to Stop as soon as Start returns. The returned channel receives
// the result of the run.
func (c *Controller) Start(ctx context.Context) (<-chan error, error) {
	c.mu.Lock()
	if c.running {
		c.mu.Unlock()
		return nil, ErrRunning
	}
	ctx, cancel := context.WithCancel(ctx)
	c.running = true
	c.cancel = cancel
	c.done = make(chan struct{})
	c.cycles = 0
	done := c.done
	c.mu.Unlock()

	result := make(chan error, 1)
	go func() {
		result <- c.run(ctx, cancel, done)
	}()
	return result, nil
}

// Run cycles the table until ctx is done, Stop is called, MaxCycles is reached or a
// leg fails. The relays are always switched off before Run returns.
func (c *Controller) Run(ctx context.Context) error {
	result, err := c.Start(ctx)
	if err != nil {
		return err
	}
	return <-result
}

func (c *Controller) run(ctx context.Context, cancel context.CancelFunc, done chan struct{}) error {
	defer func() {
		cancel()
		c.mu.Lock()
		c.running = false
		c.cancel = nil
		c.mu.Unlock()
		close(done)
	}()

	err := c.loop(ctx)
	switch {
	case err == nil:
		c.logf("Auto cycle finished after %d cycle(s)", c.Cycles())
		c.publish(State{Phase: Idle})
	case errors.Is(err, context.Canceled):
		c.logf("Auto cycle stopped after %d cycle(s)", c.Cycles())
		c.publish(State{Phase: Idle})
	default:
		c.log.Error().Err(err).Msg("auto cycle aborted")
		c.logf("Auto cycle aborted: %v", err)
		c.publish(State{Phase: Idle, Err: err})
	}
	return err
}

func (c *Controller) loop(ctx context.Context) error {
	st, err := c.table.TableStatus(ctx)
	if err != nil {
		return fmt.Errorf("read table status: %w", err)
	}

	dir := machine.Forward
	if st.FrontLimit {
		dir = machine.Backward
		c.logf("Front limit active, starting backward")
	}
	c.logf("Auto cycle started")
	c.log.Info().Str("direction", string(dir)).Int("max_cycles", c.cfg.MaxCycles).Msg("auto cycle started")

	// A round trip only counts when the table moved on at least one leg.
	blocked := 0
	moved := false
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		ok, err := c.leg(ctx, dir)
		if err != nil {
			return err
		}
		if ok {
			blocked = 0
			moved = true
		} else {
			blocked++
			if blocked >= 2 {
				return ErrBlocked
			}
		}

		if dir == machine.Backward && moved {
			moved = false
			c.mu.Lock()
			c.cycles++
			n := c.cycles
			c.mu.Unlock()
			c.logf("Cycle %d complete", n)
			c.log.Info().Int("cycles", n).Msg("cycle complete")
			if c.cfg.MaxCycles > 0 && n >= c.cfg.MaxCycles {
				return nil
			}
		}
		dir = dir.Reverse()

		if c.cfg.Dwell > 0 {
			c.publish(State{Phase: Dwell, Direction: dir})
			t := time.NewTimer(c.cfg.Dwell)
			select {
			case <-ctx.Done():
				t.Stop()
				return ctx.Err()
			case <-t.C:
			}
		}
	}
}

// leg drives the table in dir until its limit switch is reached. It reports
// false when the backend refused to move the table.
func (c *Controller) leg(ctx context.Context, dir machine.Direction) (bool, error) {
	c.publish(State{Phase: phaseFor(dir), Direction: dir})

	res, err := c.drive(ctx, dir, true)
	defer c.relayOff(dir)
	if err != nil {
		return false, fmt.Errorf("start %s: %w", dir, err)
	}
	if res.Blocked() {
		c.logf("Table %s blocked: limit reached", dir)
		return false, nil
	}

	simulated := res.Simulated
	start := time.Now()
	failures := 0

	ticker := time.NewTicker(c.cfg.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return true, ctx.Err()
		case <-ticker.C:
		}

		elapsed := time.Since(start)
		if elapsed > c.cfg.LegTimeout {
			return true, fmt.Errorf("%s after %s: %w", dir, c.cfg.LegTimeout, ErrLegTimeout)
		}

		st, err := c.table.TableStatus(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return true, ctx.Err()
			}
			failures++
			c.log.Warn().Err(err).Int("failures", failures).Msg("table status poll failed")
			if failures >= c.cfg.MaxPollErrors {
				return true, fmt.Errorf("poll table status: %w", err)
			}
			continue
		}
		failures = 0
		simulated = simulated || st.Simulated

		c.publish(State{
			Phase:      phaseFor(dir),
			Direction:  dir,
			FrontLimit: st.FrontLimit,
			BackLimit:  st.BackLimit,
			Simulated:  simulated,
		})

		if st.LimitReached(dir) {
			return true, nil
		}
		if simulated && elapsed >= c.cfg.SimulatedTravel {
			return true, nil
		}
	}
}

func (c *Controller) drive(ctx context.Context, dir machine.Direction, on bool) (machine.TableResult, error) {
	if dir == machine.Forward {
		return c.table.TableForward(ctx, on)
	}
	return c.table.TableBackward(ctx, on)
}

// relayOff runs on a fresh context so a cancelled run still stops the table.
func (c *Controller) relayOff(dir machine.Direction) {
	ctx, cancel := context.WithTimeout(context.Background(), c.cfg.StopTimeout)
	defer cancel()
	if _, err := c.drive(ctx, dir, false); err != nil {
		c.log.Error().Err(err).Str("direction", string(dir)).Msg("failed to switch table relay off")
		c.logf("Warning: failed to stop table %s: %v", dir, err)
	}
}

// Stop cancels a running cycle and waits until the relays are off. It is a no-op when idle.
// A run registered by Start is always seen, even before its first relay command.
func (c *Controller) Stop() {
	c.mu.Lock()
	cancel, done := c.cancel, c.done
	running := c.running
	c.mu.Unlock()
	if !running || cancel == nil {
		return
	}
	c.publish(State{Phase: Stopping})
	cancel()
	<-done
}

func (c *Controller) publish(s State) {
	s.Cycles = c.Cycles()
	s.Timestamp = time.Now()
	c.mu.Lock()
	c.last = s
	c.mu.Unlock()

	select {
	case c.stateCh <- s:
	default:
		// Drop old state if channel full, replace with new
		select {
		case <-c.stateCh:
		default:
		}
		select {
		case c.stateCh <- s:
		default:
		}
	}
}

// Last returns the most recently published state.
func (c *Controller) Last() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.last
}
