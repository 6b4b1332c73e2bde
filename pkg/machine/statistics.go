package machine

import (
	"context"
	"time"
)

// Statistics are the persistent laser usage totals kept by the backend.
type Statistics struct {
	Envelope
	FireCount  int    `json:"laser_fire_count"`
	FireTimeMS int64  `json:"laser_fire_time"`
	Formatted  string `json:"total_time_formatted"`
}

// FireTime returns the accumulated firing time.
func (s Statistics) FireTime() time.Duration {
	return time.Duration(s.FireTimeMS) * time.Millisecond
}

// Statistics reads the usage totals.
func (c *Client) Statistics(ctx context.Context) (Statistics, error) {
	var resp Statistics
	err := c.get(ctx, "/statistics/data", &resp)
	return resp, err
}

// ResetCounter zeroes the fire count.
func (c *Client) ResetCounter(ctx context.Context) error {
	var resp Envelope
	return c.post(ctx, "/statistics/reset_counter", nil, &resp)
}

// ResetTimer zeroes the accumulated fire time.
func (c *Client) ResetTimer(ctx context.Context) error {
	var resp Envelope
	return c.post(ctx, "/statistics/reset_timer", nil, &resp)
}

// ResetAll zeroes both counter and timer.
func (c *Client) ResetAll(ctx context.Context) error {
	var resp Envelope
	return c.post(ctx, "/statistics/reset_all", nil, &resp)
}
