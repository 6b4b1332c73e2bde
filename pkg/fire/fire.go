// Package fire sends laser fire and stop requests to the backend one at a time,
// in the order they were issued.
package fire

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/gwillem/laserpanel/pkg/machine"
)

// Laser is the subset of the backend client used for firing.
type Laser interface {
	Fire(ctx context.Context, mode machine.FireMode) (machine.FireResponse, error)
	StopFire(ctx context.Context) error
}

// Controller queues fire and stop requests. All methods are safe for concurrent use.
type Controller struct {
	laser   Laser
	timeout time.Duration
	log     zerolog.Logger

	mu       sync.Mutex
	lastDone chan struct{}
	wg       sync.WaitGroup
}

// New creates a Controller. Each request gets timeout, 5s when zero.
func New(laser Laser, timeout time.Duration, logger zerolog.Logger) *Controller {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Controller{
		laser:   laser,
		timeout: timeout,
		log:     logger.With().Str("component", "fire").Logger(),
	}
}

// Fire queues a fire request. The channel receives its result once it ran.
func (c *Controller) Fire(mode machine.FireMode) <-chan error {
	return c.enqueue(func(ctx context.Context) error {
		_, err := c.laser.Fire(ctx, mode)
		if err != nil {
			c.log.Warn().Err(err).Str("mode", string(mode)).Msg("fire failed")
		}
		return err
	})
}

// Stop queues a stop request behind any pending fire.
func (c *Controller) Stop() <-chan error {
	return c.enqueue(func(ctx context.Context) error {
		err := c.laser.StopFire(ctx)
		if err != nil {
			c.log.Error().Err(err).Msg("stop fire failed")
		}
		return err
	})
}

// Wait blocks until every queued request has run.
func (c *Controller) Wait() {
	c.wg.Wait()
}

func (c *Controller) enqueue(fn func(ctx context.Context) error) <-chan error {
	result := make(chan error, 1)

	c.mu.Lock()
	prev := c.lastDone
	done := make(chan struct{})
	c.lastDone = done
	c.wg.Add(1)
	c.mu.Unlock()

	go func() {
		defer c.wg.Done()
		defer close(done)
		if prev != nil {
			<-prev
		}
		ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
		defer cancel()
		result <- fn(ctx)
	}()
	return result
}
