package effect

import (
	"errors"
	"fmt"
	"log/slog"
	"slices"

	"github.com/jwebster45206/scene-engine/pkg/state"
)

// Func is a programmatic mutator for effects that cannot be written as data.
type Func func(gs *state.GameState) error

// Effect is the side effect of picking a choice. The data fields are applied
// in declaration order: health, items, reset, then Func.
type Effect struct {
	Health   int      `json:"health,omitempty" yaml:"health,omitempty"`       // added to health, may be negative
	AddItems []string `json:"add_items,omitempty" yaml:"add_items,omitempty"` // appended to inventory
	Reset    bool     `json:"reset,omitempty" yaml:"reset,omitempty"`         // restore initial health and inventory
	Log      string   `json:"log,omitempty" yaml:"log,omitempty"`             // debug breadcrumb, no state change
	Func     Func     `json:"-" yaml:"-"`
}

// IsEmpty reports whether applying e would do nothing.
func (e *Effect) IsEmpty() bool {
	return e == nil || (e.Health == 0 && len(e.AddItems) == 0 && !e.Reset && e.Log == "" && e.Func == nil)
}

// Clone copies the data fields. Func is shared.
func (e *Effect) Clone() *Effect {
	if e == nil {
		return nil
	}
	c := *e
	c.AddItems = slices.Clone(e.AddItems)
	return &c
}

// Error is returned when an effect fails part way.
type Error struct {
	Cause error
	Panic bool // the effect panicked rather than returning an error
}

func (e *Error) Error() string {
	if e.Panic {
		return fmt.Sprintf("effect panicked: %v", e.Cause)
	}
	return fmt.Sprintf("effect failed: %v", e.Cause)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Engine applies effects behind a failure boundary.
type Engine struct {
	logger *slog.Logger
}

// NewEngine creates an effect engine. A nil logger uses slog.Default.
func NewEngine(logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{logger: logger}
}

// Apply runs e against gs. A failing or panicking effect is caught, logged
// and returned as *Error. Nothing is rolled back: mutations made before the
// failure stay in place.
func (en *Engine) Apply(e *Effect, gs *state.GameState) (err error) {
	if e.IsEmpty() {
		return nil
	}
	if gs == nil {
		return &Error{Cause: errors.New("no game state")}
	}

	defer func() {
		if r := recover(); r != nil {
			cause, ok := r.(error)
			if !ok {
				cause = fmt.Errorf("%v", r)
			}
			err = &Error{Cause: cause, Panic: true}
		}
		if err != nil {
			en.logger.Error("Effect failed",
				"error", err,
				"scene", gs.CurrentScene,
				"health", gs.Health)
		}
	}()

	if e.Log != "" {
		en.logger.Debug("Effect", "note", e.Log, "scene", gs.CurrentScene)
	}
	if e.Health != 0 {
		gs.ApplyHealthDelta(e.Health)
	}
	for _, item := range e.AddItems {
		gs.AddItem(item)
	}
	if e.Reset {
		gs.Reset()
	}
	if e.Func != nil {
		if ferr := e.Func(gs); ferr != nil {
			var already *Error
			if errors.As(ferr, &already) {
				return already
			}
			return &Error{Cause: ferr}
		}
	}
	return nil
}
