package machine

import (
	"fmt"
	"strings"
)

// Direction is used for both the stepper and the table.
type Direction string

const (
	Forward  Direction = "forward"
	Backward Direction = "backward"
)

// Reverse returns the opposite direction.
func (d Direction) Reverse() Direction {
	if d == Forward {
		return Backward
	}
	return Forward
}

// Valid reports whether d is forward or backward.
func (d Direction) Valid() bool {
	return d == Forward || d == Backward
}

// ParseDirection accepts forward/backward and the short forms f/b, fwd/back.
func ParseDirection(s string) (Direction, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "forward", "fwd", "f":
		return Forward, nil
	case "backward", "back", "b":
		return Backward, nil
	}
	return "", fmt.Errorf("invalid direction %q (want forward or backward)", s)
}

// OperationMode is the backend's configured system.operation_mode.
type OperationMode string

const (
	ModeSimulation OperationMode = "simulation"
	ModePrototype  OperationMode = "prototype"
	ModeNormal     OperationMode = "normal"
	ModeUnknown    OperationMode = "unknown"
)

// ParseMode maps a reported mode to a known value, falling back to ModeUnknown.
func ParseMode(s string) OperationMode {
	switch m := OperationMode(strings.ToLower(s)); m {
	case ModeSimulation, ModePrototype, ModeNormal:
		return m
	}
	return ModeUnknown
}

// FireMode selects how the fire button behaves on the backend.
type FireMode string

const (
	Momentary FireMode = "momentary"
	Toggle    FireMode = "toggle"
)
