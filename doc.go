// Package laserpanel is an operator panel for a laser cleaning machine.
//
// The machine itself is driven by an HTTP backend that owns the stepper, the
// trigger servo, the table relays and the GPIO pins. This module talks to that
// backend and adds the operator side: click and hold jogging, the table auto
// cycle, fan and red light auto-off timers and session statistics.
//
// # Installation
//
//	go install github.com/gwillem/laserpanel/cmd/laserctl@latest
//
// # Usage
//
// First, point the panel at the backend:
//
//	laserctl setup
//
// Then open the operator panel:
//
//	laserctl panel
//
// # Packages
//
// The module is organized into the following packages:
//
//   - cmd/laserctl: CLI with one-shot commands and full-screen views
//   - pkg/machine: Backend client and response types
//   - pkg/cycle: Table auto cycle controller
//   - pkg/jog: Click and press-and-hold jogging
//   - pkg/fire: Ordered laser fire and stop requests
//   - pkg/outputs: Fan and red light auto-off timers
//   - pkg/stats: Session statistics
//   - pkg/sequence: Sequence documents and runner status
//   - pkg/config: Panel configuration
//   - pkg/logging: Logger construction
package laserpanel
