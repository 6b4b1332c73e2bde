package machine

import "context"

// FireResponse is returned by Fire and FireFiber.
type FireResponse struct {
	Envelope
	Position     string   `json:"position"`
	Angle        int      `json:"angle"`
	Mode         FireMode `json:"mode"`
	SequenceMode bool     `json:"sequence_mode"`
}

func fireBody(mode FireMode) map[string]any {
	if mode == "" {
		mode = Momentary
	}
	return map[string]any{"mode": mode}
}

// Fire moves the servo to position B. In toggle mode the backend also counts the
// firing in its statistics.
func (c *Client) Fire(ctx context.Context, mode FireMode) (FireResponse, error) {
	var resp FireResponse
	err := c.post(ctx, "/fire", fireBody(mode), &resp)
	return resp, err
}

// FireFiber starts the A-B-A-B fiber firing sequence.
func (c *Client) FireFiber(ctx context.Context, mode FireMode) (FireResponse, error) {
	var resp FireResponse
	err := c.post(ctx, "/fire_fiber", fireBody(mode), &resp)
	return resp, err
}

// StopFire returns the servo to position A and stops any fiber sequence.
func (c *Client) StopFire(ctx context.Context) error {
	var resp Envelope
	return c.post(ctx, "/stop_fire", nil, &resp)
}
