package machine

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// ErrUnknownDevice is returned for output devices the backend does not drive.
var ErrUnknownDevice = errors.New("unknown output device")

// Output devices accepted by the GPIO test panel.
const (
	DeviceFan           = "fan"
	DeviceRedLights     = "red_lights"
	DeviceTableForward  = "table_forward"
	DeviceTableBackward = "table_backward"
)

// Devices lists the output devices in panel order.
func Devices() []string {
	return []string{DeviceFan, DeviceRedLights, DeviceTableForward, DeviceTableBackward}
}

// PinLabels names the default BCM pins wired on the machine.
var PinLabels = map[int]string{
	5:  "IN button",
	25: "OUT button",
	22: "FIRE button",
	12: "Servo invert",
	17: "E-stop / home",
	21: "Table front limit",
	20: "Table back limit",
	26: "Fan",
	16: "Red lights",
	13: "Table forward",
	6:  "Table backward",
}

// Pin is one input reading.
type Pin struct {
	Number int
	Label  string
	Active bool
}

// Inputs is a snapshot of the GPIO input pins.
type Inputs struct {
	Pins      []Pin
	Simulated bool
}

// Pin returns the reading for pin n.
func (in Inputs) Pin(n int) (Pin, bool) {
	for _, p := range in.Pins {
		if p.Number == n {
			return p, true
		}
	}
	return Pin{}, false
}

// parseInputs turns the flat {"gpioNN": bool} object into pins sorted by number.
func parseInputs(data map[string]json.RawMessage) Inputs {
	var in Inputs
	for key, raw := range data {
		switch {
		case key == "simulated":
			_ = json.Unmarshal(raw, &in.Simulated)
		case strings.HasPrefix(key, "gpio"):
			n, err := strconv.Atoi(strings.TrimPrefix(key, "gpio"))
			if err != nil {
				continue
			}
			var active bool
			if err := json.Unmarshal(raw, &active); err != nil {
				continue
			}
			label := PinLabels[n]
			if label == "" {
				label = fmt.Sprintf("GPIO %d", n)
			}
			in.Pins = append(in.Pins, Pin{Number: n, Label: label, Active: active})
		}
	}
	sort.Slice(in.Pins, func(i, j int) bool { return in.Pins[i].Number < in.Pins[j].Number })
	return in
}

type inputsResponse struct {
	Envelope
	raw map[string]json.RawMessage
}

func (r *inputsResponse) UnmarshalJSON(data []byte) error {
	if err := json.Unmarshal(data, &r.raw); err != nil {
		return err
	}
	return json.Unmarshal(data, &r.Envelope)
}

// GPIOInputs reads all input pins.
func (c *Client) GPIOInputs(ctx context.Context) (Inputs, error) {
	var resp inputsResponse
	if err := c.get(ctx, "/api/gpio/inputs", &resp); err != nil {
		return Inputs{}, err
	}
	return parseInputs(resp.raw), nil
}

// OutputResult is the backend's acknowledgement of an output change.
type OutputResult struct {
	Envelope
	Device string `json:"device"`
	State  bool   `json:"state"`
}

// SetGPIOOutput drives one of the test panel outputs.
func (c *Client) SetGPIOOutput(ctx context.Context, device string, on bool) (OutputResult, error) {
	known := false
	for _, d := range Devices() {
		if d == device {
			known = true
			break
		}
	}
	if !known {
		return OutputResult{}, fmt.Errorf("%w: %q", ErrUnknownDevice, device)
	}
	var resp OutputResult
	err := c.post(ctx, "/api/gpio/outputs", map[string]any{"device": device, "state": on}, &resp)
	return resp, err
}
