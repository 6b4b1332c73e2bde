package machine

import (
	"context"
	"fmt"
)

// TableResult is the outcome of switching a table relay.
type TableResult struct {
	Envelope
	State bool `json:"state"`
}

// Blocked reports whether a limit switch prevented the move.
func (r TableResult) Blocked() bool {
	return r.Warning()
}

// TableStatus holds the table relays and limit switches.
type TableStatus struct {
	Envelope
	MovingForward  bool `json:"table_forward_state"`
	MovingBackward bool `json:"table_backward_state"`
	FrontLimit     bool `json:"table_front_switch_state"`
	BackLimit      bool `json:"table_back_switch_state"`
}

// LimitReached reports whether the switch at the end of travel for dir is active.
func (s TableStatus) LimitReached(dir Direction) bool {
	if dir == Forward {
		return s.FrontLimit
	}
	return s.BackLimit
}

// Moving reports whether either relay is on.
func (s TableStatus) Moving() bool {
	return s.MovingForward || s.MovingBackward
}

// TableDrive switches the relay for dir. A warning response is not an error;
// check TableResult.Blocked.
func (c *Client) TableDrive(ctx context.Context, dir Direction, on bool) (TableResult, error) {
	if !dir.Valid() {
		return TableResult{}, fmt.Errorf("table: invalid direction %q", dir)
	}
	var resp TableResult
	err := c.post(ctx, "/table/"+string(dir), map[string]any{"state": on}, &resp)
	return resp, err
}

// TableForward switches the forward relay.
func (c *Client) TableForward(ctx context.Context, on bool) (TableResult, error) {
	return c.TableDrive(ctx, Forward, on)
}

// TableBackward switches the backward relay.
func (c *Client) TableBackward(ctx context.Context, on bool) (TableResult, error) {
	return c.TableDrive(ctx, Backward, on)
}

// TableStatus reads the relay and limit switch states.
func (c *Client) TableStatus(ctx context.Context) (TableStatus, error) {
	var resp TableStatus
	err := c.get(ctx, "/table/status", &resp)
	return resp, err
}

// TableStop switches both relays off, returning the first error.
func (c *Client) TableStop(ctx context.Context) error {
	_, errF := c.TableForward(ctx, false)
	_, errB := c.TableBackward(ctx, false)
	if errF != nil {
		return errF
	}
	return errB
}
