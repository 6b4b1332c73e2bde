package sequence

import "fmt"

// RunState is the runner state reported in a status poll.
type RunState string

const (
	Idle      RunState = "IDLE"
	Running   RunState = "RUNNING"
	Paused    RunState = "PAUSED"
	Completed RunState = "COMPLETED"
	Error     RunState = "ERROR"
	Warning   RunState = "WARNING"
)

// LastError is the most recent failure recorded by the runner.
type LastError struct {
	Type           string `json:"type"`
	Message        string `json:"message"`
	RetryCount     int    `json:"retry_count"`
	RecoveryAction string `json:"recovery_action"`
}

// Status mirrors the runner's sequence_status object.
type Status struct {
	State           RunState   `json:"status"`
	SequenceID      string     `json:"sequence_id"`
	SequenceName    string     `json:"sequence_name"`
	CurrentStep     int        `json:"current_step"`
	TotalSteps      int        `json:"total_steps"`
	ProgressPercent int        `json:"progress_percent"`
	ExecutionLog    []string   `json:"execution_log"`
	Simulated       bool       `json:"simulated"`
	OperationMode   string     `json:"operation_mode"`
	LastError       *LastError `json:"last_error"`
	ExecutionTime   *float64   `json:"execution_time"`
}

// Active reports whether the runner is still working on a sequence.
func (s *Status) Active() bool {
	return s.State == Running || s.State == Paused
}

// Done reports whether the runner has finished, successfully or not.
func (s *Status) Done() bool {
	switch s.State {
	case Completed, Error, Warning:
		return true
	}
	return false
}

// Progress renders a one-line summary such as "Cleaning 3/5 (60%)".
func (s *Status) Progress() string {
	name := s.SequenceName
	if name == "" {
		name = "(none)"
	}
	return fmt.Sprintf("%s %d/%d (%d%%)", name, s.CurrentStep, s.TotalSteps, s.ProgressPercent)
}

// NewLogLines returns the log entries that appeared since seen entries were consumed.
func (s *Status) NewLogLines(seen int) []string {
	if seen < 0 || seen >= len(s.ExecutionLog) {
		return nil
	}
	return s.ExecutionLog[seen:]
}
