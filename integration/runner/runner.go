package runner

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/jwebster45206/scene-engine/internal/persistence"
	"github.com/jwebster45206/scene-engine/internal/storage"
	"github.com/jwebster45206/scene-engine/pkg/engine"
	"github.com/jwebster45206/scene-engine/pkg/scene"
	"github.com/jwebster45206/scene-engine/pkg/state"
)

type ErrorHandlingMode string

const ErrorHandlingExit ErrorHandlingMode = "exit"
const ErrorHandlingContinue ErrorHandlingMode = "continue"

// saveKey is the slot every run saves into; each run gets its own directory.
const saveKey = "gameState"

// Runner plays test suites against the engine in-process, saving through a
// file-backed persistence adapter the way the console does.
type Runner struct {
	StoriesDir        string
	SaveDir           string // parent for per-run save directories
	Logger            func(format string, args ...interface{})
	SlogLogger        *slog.Logger
	ErrorHandlingMode ErrorHandlingMode
	StoryOverride     string // If set, overrides the story for all test cases
}

// NewRunner creates a new test runner
func NewRunner(storiesDir, saveDir string) *Runner {
	return &Runner{
		StoriesDir:        storiesDir,
		SaveDir:           saveDir,
		Logger:            func(string, ...interface{}) {},
		SlogLogger:        slog.Default(),
		ErrorHandlingMode: ErrorHandlingContinue,
	}
}

// LoadTestSuite loads a test suite from a JSON file
func LoadTestSuite(filename string) (TestSuite, error) {
	content, err := os.ReadFile(filename)
	if err != nil {
		return TestSuite{}, fmt.Errorf("failed to read test file %s: %w", filename, err)
	}

	var suite TestSuite
	if err := json.Unmarshal(content, &suite); err != nil {
		return TestSuite{}, fmt.Errorf("failed to parse JSON in %s: %w", filename, err)
	}

	return suite, nil
}

// LoadTestSuiteWithExpansion loads a test suite and expands it if it's a sequence
// Returns a list of actual test suites (expanded from the sequence if needed)
func LoadTestSuiteWithExpansion(filename string, casesDir string) ([]TestJob, error) {
	suite, err := LoadTestSuite(filename)
	if err != nil {
		return nil, err
	}

	if !suite.IsSequence() {
		return []TestJob{{
			Name:     suite.Name,
			Suite:    suite,
			CaseFile: filename,
		}}, nil
	}

	var jobs []TestJob
	for _, caseFile := range suite.Cases {
		casePath := filepath.Join(casesDir, caseFile)

		// Recursively load (in case a sequence references another sequence)
		subJobs, err := LoadTestSuiteWithExpansion(casePath, casesDir)
		if err != nil {
			return nil, fmt.Errorf("failed to load case '%s' referenced by sequence '%s': %w", caseFile, suite.Name, err)
		}

		jobs = append(jobs, subJobs...)
	}

	return jobs, nil
}

// session is one running game: controller plus its save slot.
type session struct {
	store *scene.Store
	slots storage.Storage
	saves *persistence.Adapter
	ctrl  *engine.Controller
	last  engine.Result
}

func (r *Runner) newSession(ctx context.Context, store *scene.Store, slots storage.Storage) *session {
	saves := persistence.New(slots, saveKey, r.SlogLogger)
	saves.Start(ctx)
	return &session{
		store: store,
		slots: slots,
		saves: saves,
		ctrl: engine.New(store, state.New(),
			engine.WithLogger(r.SlogLogger),
			engine.WithSaver(saves),
		),
	}
}

// reload flushes the save and resumes it in a fresh controller.
func (r *Runner) reload(ctx context.Context, s *session) *session {
	s.saves.Close()
	next := r.newSession(ctx, s.store, s.slots)
	if snap, ok := next.saves.Load(ctx); ok {
		next.last = next.ctrl.Resume(*snap)
	} else {
		next.last = next.ctrl.Start()
	}
	return next
}

// RunSuite executes a complete test suite
func (r *Runner) RunSuite(ctx context.Context, suite TestSuite) (TestRunResult, error) {
	start := time.Now()
	result := TestRunResult{
		Job: TestJob{
			Name:  suite.Name,
			Suite: suite,
		},
		Results: make([]TestResult, 0, len(suite.Steps)),
	}

	fail := func(err error) (TestRunResult, error) {
		result.Error = err
		result.Duration = time.Since(start)
		return result, err
	}

	storyFile := suite.Story
	if r.StoryOverride != "" {
		storyFile = r.StoryOverride
	}
	story, err := scene.LoadFile(filepath.Join(r.StoriesDir, storyFile), true)
	if err != nil {
		return fail(fmt.Errorf("failed to load story: %w", err))
	}
	store, err := story.Store()
	if err != nil {
		return fail(fmt.Errorf("failed to build story: %w", err))
	}

	saveDir, err := os.MkdirTemp(r.SaveDir, "run-*")
	if err != nil {
		return fail(fmt.Errorf("failed to create save dir: %w", err))
	}
	defer os.RemoveAll(saveDir)

	slots, err := storage.NewFileStorage(saveDir, r.SlogLogger)
	if err != nil {
		return fail(err)
	}

	s := r.newSession(ctx, store, slots)
	if suite.SeedGameState != nil {
		s.last = s.ctrl.Resume(*suite.SeedGameState)
	} else {
		s.last = s.ctrl.Start()
	}

	for i, step := range suite.Steps {
		r.Logger("    [%d/%d] Running step: %s", i+1, len(suite.Steps), step.Name)

		var stepResult TestResult
		s, stepResult = r.runStep(ctx, s, step)
		stepResult.TestName = suite.Name
		result.Results = append(result.Results, stepResult)

		if stepResult.Error != nil {
			r.Logger("    [%d/%d] ✗ %s: %v", i+1, len(suite.Steps), step.Name, stepResult.Error)
			if result.Error == nil {
				result.Error = fmt.Errorf("step %d (%s) failed: %w", i, step.Name, stepResult.Error)
			}
			if r.ErrorHandlingMode == ErrorHandlingExit {
				break
			}
			continue
		}

		r.Logger("    [%d/%d] ✓ %s (%v)", i+1, len(suite.Steps), step.Name, stepResult.Duration)
	}

	s.saves.Close()
	result.Final = s.ctrl.State()
	result.Duration = time.Since(start)
	return result, result.Error
}

func (r *Runner) runStep(ctx context.Context, s *session, step TestStep) (*session, TestResult) {
	start := time.Now()
	name := step.Name
	if name == "" {
		name = step.Action
	}
	res := TestResult{StepName: name}

	next, err := r.executeStep(ctx, s, step)
	if err == nil {
		err = checkExpectations(step.Expectations, next.last, next.ctrl.State())
	}

	res.Duration = time.Since(start)
	res.Error = err
	res.Success = err == nil
	return next, res
}

func (r *Runner) executeStep(ctx context.Context, s *session, step TestStep) (*session, error) {
	switch step.Action {
	case "", ActionChoose:
		cv, ok := s.last.View.Choice(step.Choice)
		if !ok {
			return s, fmt.Errorf("scene %s has no choice %d", s.last.View.SceneID, step.Choice)
		}
		res, err := s.ctrl.Select(cv)
		if err != nil {
			return s, fmt.Errorf("select failed: %w", err)
		}
		s.last = res

	case ActionGoto:
		s.last = s.ctrl.TransitionTo(step.Scene)

	case ActionRestart:
		s.last = s.ctrl.Restart()

	case ActionReload:
		s = r.reload(ctx, s)

	case ActionLoadRaw:
		s.saves.Close()
		if err := s.slots.SaveSlot(ctx, saveKey, step.Payload); err != nil {
			return s, fmt.Errorf("failed to write payload: %w", err)
		}
		// The adapter is already closed, so nothing overwrites the payload.
		s = r.reload(ctx, s)

	default:
		return s, fmt.Errorf("unknown action %q", step.Action)
	}
	return s, nil
}

// checkExpectations compares the view and state after a step
func checkExpectations(exp Expectations, res engine.Result, snap state.Snapshot) error {
	view := res.View

	if exp.Scene != nil {
		if view.SceneID != *exp.Scene {
			return fmt.Errorf("expected scene %s, got %s", *exp.Scene, view.SceneID)
		}
		if snap.CurrentScene != *exp.Scene {
			return fmt.Errorf("expected state scene %s, got %s", *exp.Scene, snap.CurrentScene)
		}
	}

	if exp.Health != nil && snap.Health != *exp.Health {
		return fmt.Errorf("expected health %d, got %d", *exp.Health, snap.Health)
	}

	if exp.DisplayedHealth != nil && view.Stats.DisplayedHealth != *exp.DisplayedHealth {
		return fmt.Errorf("expected displayed health %d, got %d", *exp.DisplayedHealth, view.Stats.DisplayedHealth)
	}

	if exp.Inventory != nil && !slices.Equal(snap.Inventory, exp.Inventory) {
		return fmt.Errorf("expected inventory %v, got %v", exp.Inventory, snap.Inventory)
	}

	if exp.InventorySummary != nil && view.Stats.InventorySummary != *exp.InventorySummary {
		return fmt.Errorf("expected inventory summary %q, got %q", *exp.InventorySummary, view.Stats.InventorySummary)
	}

	if exp.Choices != nil && len(view.Choices) != *exp.Choices {
		return fmt.Errorf("expected %d choices, got %d", *exp.Choices, len(view.Choices))
	}

	lowerText := strings.ToLower(view.Text)
	for _, want := range exp.TextContains {
		if !strings.Contains(lowerText, strings.ToLower(want)) {
			return fmt.Errorf("expected scene text to contain '%s', but it didn't", want)
		}
	}

	if exp.Events != nil {
		got := make([]string, len(res.Events))
		for i, ev := range res.Events {
			got[i] = string(ev.Kind)
		}
		if !slices.Equal(got, exp.Events) {
			return fmt.Errorf("expected events %v, got %v", exp.Events, got)
		}
	}

	if exp.Notice != nil && res.Notice != *exp.Notice {
		return fmt.Errorf("expected notice %q, got %q", *exp.Notice, res.Notice)
	}

	return nil
}
