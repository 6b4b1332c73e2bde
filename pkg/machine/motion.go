package machine

import (
	"context"
	"fmt"
)

// PositionResponse is returned by every stepper move.
type PositionResponse struct {
	Envelope
	Position int `json:"position"`
}

// Jog moves the stepper by steps in dir.
func (c *Client) Jog(ctx context.Context, dir Direction, steps int) (int, error) {
	if !dir.Valid() {
		return 0, fmt.Errorf("jog: invalid direction %q", dir)
	}
	var resp PositionResponse
	err := c.post(ctx, "/jog", map[string]any{"direction": dir, "steps": steps}, &resp)
	return resp.Position, err
}

// StopMotor interrupts any move in progress.
func (c *Client) StopMotor(ctx context.Context) (int, error) {
	var resp PositionResponse
	err := c.post(ctx, "/stop_motor", nil, &resp)
	return resp.Position, err
}

// Home runs the homing routine and returns the new position, normally 0.
func (c *Client) Home(ctx context.Context) (int, error) {
	var resp PositionResponse
	err := c.post(ctx, "/home", nil, &resp)
	return resp.Position, err
}

// MoveTo moves the stepper to an absolute position.
func (c *Client) MoveTo(ctx context.Context, position int) (int, error) {
	var resp PositionResponse
	err := c.post(ctx, "/move_to", map[string]any{"position": position}, &resp)
	return resp.Position, err
}

// IndexMove moves the stepper by the configured index distance.
func (c *Client) IndexMove(ctx context.Context, dir Direction) (int, error) {
	if !dir.Valid() {
		return 0, fmt.Errorf("index: invalid direction %q", dir)
	}
	var resp PositionResponse
	err := c.post(ctx, "/index_move", map[string]any{"direction": dir}, &resp)
	return resp.Position, err
}

type enableResponse struct {
	Envelope
	Enabled bool `json:"enabled"`
}

// EnableMotor energizes or releases the stepper driver.
func (c *Client) EnableMotor(ctx context.Context, enable bool) (bool, error) {
	var resp enableResponse
	err := c.post(ctx, "/enable_motor", map[string]any{"enable": enable}, &resp)
	return resp.Enabled, err
}

type presetsResponse struct {
	Envelope
	Presets map[string]int `json:"preset_positions"`
}

// SavePosition stores the current position under name and returns all presets.
func (c *Client) SavePosition(ctx context.Context, name string) (map[string]int, error) {
	if name == "" {
		return nil, fmt.Errorf("save position: empty name")
	}
	var resp presetsResponse
	err := c.post(ctx, "/save_position", map[string]any{"name": name}, &resp)
	return resp.Presets, err
}
