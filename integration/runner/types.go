package runner

import (
	"encoding/json"
	"time"

	"github.com/jwebster45206/scene-engine/pkg/state"
)

// Step actions. A step with no action selects a choice.
const (
	ActionChoose  = "choose"
	ActionGoto    = "goto"     // transition straight to Scene
	ActionRestart = "restart"  // reset and enter start
	ActionReload  = "reload"   // flush the save, then resume from it in a new controller
	ActionLoadRaw = "load_raw" // write Payload into the save slot, then reload
)

// TestSuite defines a complete playthrough scenario
// Can either be a regular test with Steps, or a suite that references other Cases
type TestSuite struct {
	Name          string          `json:"name"`
	Story         string          `json:"story,omitempty"`           // file under the stories dir
	SeedGameState *state.Snapshot `json:"seed_game_state,omitempty"` // resumed instead of a fresh start
	Steps         []TestStep      `json:"steps,omitempty"`
	Cases         []string        `json:"cases,omitempty"` // Used for suite tests (list of case files)
}

// IsSequence returns true if this is a suite that sequences other cases
func (ts *TestSuite) IsSequence() bool {
	return len(ts.Cases) > 0
}

// TestStep defines a single interaction and its expected outcomes
type TestStep struct {
	Name         string          `json:"name,omitempty"`
	Action       string          `json:"action,omitempty"`
	Choice       int             `json:"choice,omitempty"` // 1-based display number
	Scene        string          `json:"scene,omitempty"`
	Payload      json.RawMessage `json:"payload,omitempty"`
	Expectations Expectations    `json:"expect"`
}

// Expectations defines what to check after a step. Unset fields are not checked.
type Expectations struct {
	Scene            *string  `json:"scene,omitempty"`
	Health           *int     `json:"health,omitempty"`           // raw, may be negative
	DisplayedHealth  *int     `json:"displayed_health,omitempty"` // clamped at zero
	Inventory        []string `json:"inventory,omitempty"`        // exact contents in order
	InventorySummary *string  `json:"inventory_summary,omitempty"`
	Choices          *int     `json:"choices,omitempty"` // number of choices in the view
	TextContains     []string `json:"text_contains,omitempty"`
	Events           []string `json:"events,omitempty"` // event kinds in order; [] means none
	Notice           *string  `json:"notice,omitempty"`
}

// TestResult contains the outcome of running a test step
type TestResult struct {
	TestName string
	StepName string
	Success  bool
	Error    error
	Duration time.Duration
}

// TestJob represents a test suite to be executed
type TestJob struct {
	Name     string
	Suite    TestSuite
	CaseFile string
}

// TestRunResult contains the results of running an entire test suite
type TestRunResult struct {
	Job      TestJob
	Results  []TestResult
	Duration time.Duration
	Error    error
	Final    state.Snapshot
}
