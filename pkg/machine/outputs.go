package machine

import (
	"context"
	"time"
)

// OutputStatus is the state of a timed output such as the fan or the red lights.
type OutputStatus struct {
	On bool
	// Remaining is the time until the backend switches the output off, zero when unknown.
	Remaining time.Duration
	Simulated bool
}

type fanResponse struct {
	Envelope
	State         bool    `json:"fan_state"`
	TimeRemaining float64 `json:"time_remaining"`
}

type lightsResponse struct {
	Envelope
	State         bool    `json:"lights_state"`
	TimeRemaining float64 `json:"time_remaining"`
}

func seconds(s float64) time.Duration {
	if s <= 0 {
		return 0
	}
	return time.Duration(s * float64(time.Second))
}

// FanStatus reads the extraction fan state.
func (c *Client) FanStatus(ctx context.Context) (OutputStatus, error) {
	var resp fanResponse
	err := c.get(ctx, "/fan/status", &resp)
	return OutputStatus{On: resp.State, Remaining: seconds(resp.TimeRemaining), Simulated: resp.Simulated}, err
}

// SetFan switches the extraction fan.
func (c *Client) SetFan(ctx context.Context, on bool) (bool, error) {
	var resp fanResponse
	err := c.post(ctx, "/fan/set", map[string]any{"state": on}, &resp)
	return resp.State, err
}

// LightsStatus reads the red warning lights state.
func (c *Client) LightsStatus(ctx context.Context) (OutputStatus, error) {
	var resp lightsResponse
	err := c.get(ctx, "/lights/status", &resp)
	return OutputStatus{On: resp.State, Remaining: seconds(resp.TimeRemaining), Simulated: resp.Simulated}, err
}

// SetLights switches the red warning lights.
func (c *Client) SetLights(ctx context.Context, on bool) (bool, error) {
	var resp lightsResponse
	err := c.post(ctx, "/lights/set", map[string]any{"state": on}, &resp)
	return resp.State, err
}
