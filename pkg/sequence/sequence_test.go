package sequence

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

const cleanYAML = `
name: Rust removal
description: Two passes with fan
steps:
  - action: fan_on
  - action: stepper_move
    direction: out
    steps: 500
  - action: fire
    duration: 2000
    delay_after: 500
  - action: wait_input
    input_type: table_front_limit
    timeout: 30000
  - action: go_to_zero
`

func TestParseYAML(t *testing.T) {
	seq, err := Parse([]byte(cleanYAML))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if seq.Name != "Rust removal" {
		t.Errorf("Name = %q", seq.Name)
	}
	if len(seq.Steps) != 5 {
		t.Fatalf("got %d steps, want 5", len(seq.Steps))
	}
	if seq.Steps[1].Direction != "out" || seq.Steps[1].Steps != 500 {
		t.Errorf("stepper step = %+v", seq.Steps[1])
	}
	if got := seq.TotalDuration(); got != 2500 {
		t.Errorf("TotalDuration() = %d, want 2500", got)
	}
}

func TestParseJSON(t *testing.T) {
	// JSON is valid YAML, which is how the backend's own exports load.
	data := `{"name":"Quick","steps":[{"action":"wait","duration":1000}]}`
	seq, err := Parse([]byte(data))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if seq.Steps[0].Action != Wait {
		t.Errorf("Action = %q, want wait", seq.Steps[0].Action)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name string
		seq  Sequence
		ok   bool
	}{
		{"valid", Sequence{Name: "a", Steps: []Step{{Action: FanOn}}}, true},
		{"defaults are fine", Sequence{Name: "a", Steps: []Step{{Action: StepperMove}, {Action: WaitInput}}}, true},
		{"missing name", Sequence{Steps: []Step{{Action: FanOn}}}, false},
		{"no steps", Sequence{Name: "a"}, false},
		{"unknown action", Sequence{Name: "a", Steps: []Step{{Action: "explode"}}}, false},
		{"bad direction", Sequence{Name: "a", Steps: []Step{{Action: StepperMove, Direction: "up"}}}, false},
		{"negative steps", Sequence{Name: "a", Steps: []Step{{Action: StepperMove, Steps: -1}}}, false},
		{"negative duration", Sequence{Name: "a", Steps: []Step{{Action: Wait, Duration: -5}}}, false},
		{"unknown input", Sequence{Name: "a", Steps: []Step{{Action: WaitInput, InputType: "door"}}}, false},
	}

	for _, tt := range tests {
		err := tt.seq.Validate()
		if tt.ok && err != nil {
			t.Errorf("%s: unexpected error %v", tt.name, err)
		}
		if !tt.ok {
			if err == nil {
				t.Errorf("%s: expected error", tt.name)
			} else if !errors.Is(err, ErrInvalid) {
				t.Errorf("%s: error %v does not wrap ErrInvalid", tt.name, err)
			}
		}
	}
}

func TestLoadAndMarshal(t *testing.T) {
	path := filepath.Join(t.TempDir(), "clean.yaml")
	if err := os.WriteFile(path, []byte(cleanYAML), 0644); err != nil {
		t.Fatal(err)
	}
	seq, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	out, err := seq.Marshal()
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	again, err := Parse(out)
	if err != nil {
		t.Fatalf("Parse of marshalled sequence failed: %v", err)
	}
	if len(again.Steps) != len(seq.Steps) || again.Steps[3].InputType != "table_front_limit" {
		t.Errorf("marshalled sequence lost data: %+v", again)
	}
}

func TestStatus(t *testing.T) {
	st := Status{State: Completed, ExecutionLog: []string{"one", "two", "three"}}
	if !st.Done() || st.Active() {
		t.Error("completed status should be done and not active")
	}
	if got := st.NewLogLines(1); len(got) != 2 || got[0] != "two" {
		t.Errorf("NewLogLines(1) = %v", got)
	}
	if got := st.NewLogLines(3); got != nil {
		t.Errorf("NewLogLines(3) = %v, want nil", got)
	}
}
