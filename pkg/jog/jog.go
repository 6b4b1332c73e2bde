// Package jog turns button or key presses into stepper jog requests.
//
// A short press is a click and moves the motor once. Holding the button past
// HoldDelay starts a continuous jog that repeats until release, after which the
// motor is told to stop.
package jog

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/gwillem/laserpanel/pkg/machine"
)

// Mover is the subset of the backend client used for jogging.
type Mover interface {
	Jog(ctx context.Context, dir machine.Direction, steps int) (int, error)
	StopMotor(ctx context.Context) (int, error)
}

// Config holds jog sizes and hold timings.
type Config struct {
	Steps          int
	HoldDelay      time.Duration
	RepeatInterval time.Duration
	// ReleaseAfter ends a Tap hold when no further tap arrives in time.
	ReleaseAfter   time.Duration
	RequestTimeout time.Duration
	// OnJog is called after every successful jog request.
	OnJog  func(steps int)
	Logger zerolog.Logger
}

// DefaultConfig returns the panel defaults.
func DefaultConfig() Config {
	return Config{
		Steps:          20,
		HoldDelay:      300 * time.Millisecond,
		RepeatInterval: 150 * time.Millisecond,
		ReleaseAfter:   800 * time.Millisecond,
		RequestTimeout: 5 * time.Second,
		Logger:         zerolog.Nop(),
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.Steps <= 0 {
		c.Steps = d.Steps
	}
	if c.HoldDelay <= 0 {
		c.HoldDelay = d.HoldDelay
	}
	if c.RepeatInterval <= 0 {
		c.RepeatInterval = d.RepeatInterval
	}
	if c.ReleaseAfter <= 0 {
		c.ReleaseAfter = d.ReleaseAfter
	}
	if c.RequestTimeout <= 0 {
		c.RequestTimeout = d.RequestTimeout
	}
	return c
}

type hold struct {
	dir     machine.Direction
	gen     uint64
	release chan struct{}
	done    chan struct{}
}

// Jogger coordinates presses and releases. All methods are safe for concurrent use.
type Jogger struct {
	mover Mover
	cfg   Config
	log   zerolog.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu       sync.Mutex
	hold     *hold
	lastDone chan struct{}
	gen      uint64
	tapTimer *time.Timer
	closed   bool

	posCh chan int
	logCh chan string
}

// New creates a Jogger.
func New(mover Mover, cfg Config) *Jogger {
	cfg = cfg.withDefaults()
	ctx, cancel := context.WithCancel(context.Background())
	return &Jogger{
		mover:  mover,
		cfg:    cfg,
		log:    cfg.Logger.With().Str("component", "jog").Logger(),
		ctx:    ctx,
		cancel: cancel,
		posCh:  make(chan int, 1),
		logCh:  make(chan string, 10),
	}
}

// Positions returns a channel with the newest reported stepper position.
func (j *Jogger) Positions() <-chan int {
	return j.posCh
}

// Logs returns a channel that receives operator messages.
func (j *Jogger) Logs() <-chan string {
	return j.logCh
}

// Steps returns the configured jog size.
func (j *Jogger) Steps() int {
	return j.cfg.Steps
}

// Holding reports the direction of the active press, if any.
func (j *Jogger) Holding() (machine.Direction, bool) {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.hold == nil {
		return "", false
	}
	return j.hold.dir, true
}

// Press starts a press in dir. Any previous press is released first and the new
// one waits until the previous one has fully stopped the motor.
func (j *Jogger) Press(dir machine.Direction) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.pressLocked(dir)
}

func (j *Jogger) pressLocked(dir machine.Direction) {
	if j.closed {
		return
	}
	j.releaseLocked()

	j.gen++
	h := &hold{
		dir:     dir,
		gen:     j.gen,
		release: make(chan struct{}),
		done:    make(chan struct{}),
	}
	prev := j.lastDone
	j.hold = h
	j.lastDone = h.done

	j.wg.Add(1)
	go j.run(h, prev)
}

// Release ends the active press. It is a no-op without one.
func (j *Jogger) Release() {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.releaseLocked()
}

func (j *Jogger) releaseLocked() {
	if j.tapTimer != nil {
		j.tapTimer.Stop()
		j.tapTimer = nil
	}
	if j.hold == nil {
		return
	}
	close(j.hold.release)
	j.hold = nil
}

// Tap handles terminals that only report key repeats instead of press and
// release. The first tap presses, taps in the same direction keep the press
// alive, and the press is released ReleaseAfter the last tap.
func (j *Jogger) Tap(dir machine.Direction) {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.closed {
		return
	}

	if j.hold != nil && j.hold.dir == dir {
		if j.tapTimer == nil {
			j.armTapLocked()
			return
		}
		if j.tapTimer.Stop() {
			j.tapTimer.Reset(j.cfg.ReleaseAfter)
			return
		}
		// The timer already fired; its release is pending, so start over.
	}

	j.pressLocked(dir)
	j.armTapLocked()
}

func (j *Jogger) armTapLocked() {
	gen := j.hold.gen
	j.tapTimer = time.AfterFunc(j.cfg.ReleaseAfter, func() {
		j.mu.Lock()
		defer j.mu.Unlock()
		if j.hold != nil && j.hold.gen == gen {
			j.tapTimer = nil
			j.releaseLocked()
		}
	})
}

// Close releases any press and waits for pending requests, including the final stop.
func (j *Jogger) Close() {
	j.mu.Lock()
	j.closed = true
	j.releaseLocked()
	j.mu.Unlock()

	j.wg.Wait()
	j.cancel()
}

func (j *Jogger) run(h *hold, prev chan struct{}) {
	defer j.wg.Done()
	defer close(h.done)

	if prev != nil {
		<-prev
	}

	j.jog(h.dir)

	delay := time.NewTimer(j.cfg.HoldDelay)
	select {
	case <-h.release:
		delay.Stop()
		return
	case <-delay.C:
	}

	j.logf("Continuous jog %s", h.dir)
	j.log.Debug().Str("direction", string(h.dir)).Msg("continuous jog started")

	ticker := time.NewTicker(j.cfg.RepeatInterval)
	defer ticker.Stop()

	for {
		select {
		case <-h.release:
			j.stop()
			return
		case <-ticker.C:
		}
		// A release during the previous request wins over a queued tick.
		select {
		case <-h.release:
			j.stop()
			return
		default:
		}
		// Requests run inline, so ticks that fire while one is in flight are dropped.
		j.jog(h.dir)
	}
}

func (j *Jogger) jog(dir machine.Direction) {
	ctx, cancel := context.WithTimeout(j.ctx, j.cfg.RequestTimeout)
	defer cancel()

	pos, err := j.mover.Jog(ctx, dir, j.cfg.Steps)
	if err != nil {
		j.log.Warn().Err(err).Str("direction", string(dir)).Msg("jog failed")
		j.logf("Jog %s failed: %v", dir, err)
		return
	}
	if j.cfg.OnJog != nil {
		j.cfg.OnJog(j.cfg.Steps)
	}
	j.sendPosition(pos)
}

// stop uses its own context so it still goes out while closing.
func (j *Jogger) stop() {
	ctx, cancel := context.WithTimeout(context.Background(), j.cfg.RequestTimeout)
	defer cancel()

	pos, err := j.mover.StopMotor(ctx)
	if err != nil {
		j.log.Error().Err(err).Msg("stop motor failed")
		j.logf("Stop failed: %v", err)
		return
	}
	j.logf("Stopped at %d", pos)
	j.sendPosition(pos)
}

func (j *Jogger) sendPosition(pos int) {
	select {
	case j.posCh <- pos:
	default:
		select {
		case <-j.posCh:
		default:
		}
		select {
		case j.posCh <- pos:
		default:
		}
	}
}

func (j *Jogger) logf(format string, args ...any) {
	msg := fmt.Sprintf("[%s] %s", time.Now().Format("15:04:05"), fmt.Sprintf(format, args...))
	select {
	case j.logCh <- msg:
	default:
	}
}
