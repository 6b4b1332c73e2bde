// Package sequence describes the automated step programs the machine runs.
package sequence

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// ErrInvalid is wrapped by every validation failure.
var ErrInvalid = errors.New("invalid sequence")

// Action names a single step type understood by the sequence runner.
type Action string

const (
	StepperMove          Action = "stepper_move"
	Fire                 Action = "fire"
	FireFiber            Action = "fire_fiber"
	StopFire             Action = "stop_fire"
	Wait                 Action = "wait"
	WaitInput            Action = "wait_input"
	FanOn                Action = "fan_on"
	FanOff               Action = "fan_off"
	LightsOn             Action = "lights_on"
	LightsOff            Action = "lights_off"
	TableForward         Action = "table_forward"
	TableBackward        Action = "table_backward"
	TableRunToFrontLimit Action = "table_run_to_front_limit"
	TableRunToBackLimit  Action = "table_run_to_back_limit"
	GoToZero             Action = "go_to_zero"
)

// AllActions returns every known action in the order the runner documents them.
func AllActions() []Action {
	return []Action{
		StepperMove,
		Fire,
		FireFiber,
		StopFire,
		Wait,
		WaitInput,
		FanOn,
		FanOff,
		LightsOn,
		LightsOff,
		TableForward,
		TableBackward,
		TableRunToFrontLimit,
		TableRunToBackLimit,
		GoToZero,
	}
}

// Known reports whether the runner understands a.
func (a Action) Known() bool {
	for _, known := range AllActions() {
		if a == known {
			return true
		}
	}
	return false
}

// Step is one entry of a sequence. Durations are milliseconds, matching the backend.
// Zero values leave the runner's own defaults in place.
type Step struct {
	Action     Action `json:"action" yaml:"action"`
	Direction  string `json:"direction,omitempty" yaml:"direction,omitempty"`
	Steps      int    `json:"steps,omitempty" yaml:"steps,omitempty"`
	Duration   int    `json:"duration,omitempty" yaml:"duration,omitempty"`
	DelayAfter int    `json:"delay_after,omitempty" yaml:"delay_after,omitempty"`
	InputType  string `json:"input_type,omitempty" yaml:"input_type,omitempty"`
	Timeout    int    `json:"timeout,omitempty" yaml:"timeout,omitempty"`
}

// Sequence is a named list of steps as stored by the backend.
type Sequence struct {
	Name        string `json:"name" yaml:"name"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
	Steps       []Step `json:"steps" yaml:"steps"`
}

// Validate checks the sequence against the rules the runner enforces at load time.
func (s *Sequence) Validate() error {
	if strings.TrimSpace(s.Name) == "" {
		return fmt.Errorf("%w: missing name", ErrInvalid)
	}
	if len(s.Steps) == 0 {
		return fmt.Errorf("%w: %q has no steps", ErrInvalid, s.Name)
	}
	for i, step := range s.Steps {
		if err := step.validate(); err != nil {
			return fmt.Errorf("%w: step %d (%s): %v", ErrInvalid, i+1, step.Action, err)
		}
	}
	return nil
}

func (st Step) validate() error {
	if !st.Action.Known() {
		return errors.New("unknown action")
	}
	if st.Duration < 0 || st.DelayAfter < 0 || st.Timeout < 0 {
		return errors.New("durations must not be negative")
	}
	if st.Steps < 0 {
		return errors.New("steps must not be negative")
	}
	switch st.Action {
	case StepperMove:
		if st.Direction != "" && st.Direction != "in" && st.Direction != "out" {
			return fmt.Errorf("direction must be in or out, got %q", st.Direction)
		}
	case WaitInput:
		if st.InputType != "" && !validInput(st.InputType) {
			return fmt.Errorf("unknown input %q", st.InputType)
		}
	}
	return nil
}

var inputTypes = []string{"button_in", "button_out", "fire_button", "table_front_limit", "table_back_limit"}

func validInput(name string) bool {
	for _, in := range inputTypes {
		if in == name {
			return true
		}
	}
	return false
}

// Load reads a sequence from a YAML or JSON file and validates it.
func Load(path string) (*Sequence, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read sequence file: %w", err)
	}
	return Parse(data)
}

// Parse decodes a YAML or JSON document and validates it.
func Parse(data []byte) (*Sequence, error) {
	var seq Sequence
	if err := yaml.Unmarshal(data, &seq); err != nil {
		return nil, fmt.Errorf("parse sequence: %w", err)
	}
	if err := seq.Validate(); err != nil {
		return nil, err
	}
	return &seq, nil
}

// Marshal renders the sequence as YAML.
func (s *Sequence) Marshal() ([]byte, error) {
	return yaml.Marshal(s)
}

// TotalDuration sums the explicit waits and delays in milliseconds. Motion time is not known
// ahead of time and is not included.
func (s *Sequence) TotalDuration() int {
	total := 0
	for _, st := range s.Steps {
		total += st.Duration + st.DelayAfter
	}
	return total
}
