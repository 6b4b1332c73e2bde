package machine

import "context"

// ServoStatus describes the trigger servo.
type ServoStatus struct {
	Initialized  bool     `json:"initialized"`
	PositionA    int      `json:"position_a"`
	PositionB    int      `json:"position_b"`
	Inverted     bool     `json:"inverted"`
	CurrentAngle *float64 `json:"current_angle"`
	Simulated    bool     `json:"-"`
}

// ServoMove is the result of moving the servo to a named or explicit angle.
type ServoMove struct {
	Envelope
	Position string `json:"position"`
	Angle    int    `json:"angle"`
}

type servoAResponse struct {
	Envelope
	PositionA int `json:"position_a"`
}

type servoBResponse struct {
	Envelope
	PositionB int `json:"position_b"`
}

type servoInvertResponse struct {
	Envelope
	Inverted bool `json:"inverted"`
}

type servoStatusResponse struct {
	Envelope
	Servo ServoStatus `json:"servo_status"`
}

type servoSequenceResponse struct {
	Envelope
	SequenceMode bool `json:"sequence_mode"`
}

// SetServoPositionA stores the rest angle. The backend may clamp it.
func (c *Client) SetServoPositionA(ctx context.Context, angle int) (int, error) {
	var resp servoAResponse
	err := c.post(ctx, "/servo/set_position_a", map[string]any{"angle": angle}, &resp)
	return resp.PositionA, err
}

// SetServoPositionB stores the fire angle. The backend may clamp it.
func (c *Client) SetServoPositionB(ctx context.Context, angle int) (int, error) {
	var resp servoBResponse
	err := c.post(ctx, "/servo/set_position_b", map[string]any{"angle": angle}, &resp)
	return resp.PositionB, err
}

// SetServoInverted flips the servo's direction of travel.
func (c *Client) SetServoInverted(ctx context.Context, inverted bool) (bool, error) {
	var resp servoInvertResponse
	err := c.post(ctx, "/servo/set_inverted", map[string]any{"inverted": inverted}, &resp)
	return resp.Inverted, err
}

// ServoMoveToA moves the servo to its rest angle.
func (c *Client) ServoMoveToA(ctx context.Context) (ServoMove, error) {
	var resp ServoMove
	err := c.post(ctx, "/servo/move_to_a", nil, &resp)
	return resp, err
}

// ServoMoveToB moves the servo to its fire angle.
func (c *Client) ServoMoveToB(ctx context.Context) (ServoMove, error) {
	var resp ServoMove
	err := c.post(ctx, "/servo/move_to_b", nil, &resp)
	return resp, err
}

// ServoMoveToAngle moves the servo to an arbitrary angle.
func (c *Client) ServoMoveToAngle(ctx context.Context, angle int) (ServoMove, error) {
	var resp ServoMove
	err := c.post(ctx, "/servo/move_to_angle", map[string]any{"angle": angle}, &resp)
	return resp, err
}

// ServoDetach stops driving the servo to prevent jitter.
func (c *Client) ServoDetach(ctx context.Context) error {
	var resp Envelope
	return c.post(ctx, "/servo/detach", nil, &resp)
}

// ServoReattach resumes driving the servo, optionally at angle.
func (c *Client) ServoReattach(ctx context.Context, angle *int) error {
	body := map[string]any{}
	if angle != nil {
		body["angle"] = *angle
	}
	var resp Envelope
	return c.post(ctx, "/servo/reattach", body, &resp)
}

// ServoStatus reads the servo configuration and current angle.
func (c *Client) ServoStatus(ctx context.Context) (ServoStatus, error) {
	var resp servoStatusResponse
	err := c.get(ctx, "/servo/status", &resp)
	resp.Servo.Simulated = resp.Simulated
	return resp.Servo, err
}

// ServoSequence starts or stops the A-B-A-B fiber sequence.
func (c *Client) ServoSequence(ctx context.Context, enabled bool) (bool, error) {
	var resp servoSequenceResponse
	err := c.post(ctx, "/servo/sequence", map[string]any{"enabled": enabled}, &resp)
	return resp.SequenceMode, err
}
