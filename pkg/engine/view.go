package engine

import (
	"github.com/jwebster45206/scene-engine/pkg/state"
)

// ChoiceView is one selectable choice of an emitted view. It can only be
// selected while its view is the latest one.
type ChoiceView struct {
	Index      int    `json:"index"`  // position in the scene, 0-based
	Number     int    `json:"number"` // display number, 1-based
	Label      string `json:"label"`
	Generation uint64 `json:"generation"`
}

// View is what a presenter renders for the current scene.
type View struct {
	SceneID    string       `json:"scene_id"`
	Text       string       `json:"text"`
	Background string       `json:"background,omitempty"`
	Choices    []ChoiceView `json:"choices"`
	Stats      state.Stats  `json:"stats"`
	Generation uint64       `json:"generation"`
}

// Choice returns the choice shown with display number n.
func (v View) Choice(number int) (ChoiceView, bool) {
	if number < 1 || number > len(v.Choices) {
		return ChoiceView{}, false
	}
	return v.Choices[number-1], true
}

// EventKind classifies something the controller recovered from or forced.
type EventKind string

const (
	// EventMissingScene means a requested scene was unknown and start was used instead.
	EventMissingScene EventKind = "missing_scene"
	// EventEffectFailed means a choice effect failed; play continued.
	EventEffectFailed EventKind = "effect_failed"
	// EventPipelineFailed means the transition itself failed and the game restarted.
	EventPipelineFailed EventKind = "pipeline_failed"
	// EventDeath means health ran out and game_over was forced.
	EventDeath EventKind = "death"
)

// Event is a recorded recovery or forced transition.
type Event struct {
	Kind    EventKind
	SceneID string
	Err     error
}

// Result is the outcome of a transition: the view to render plus anything
// that had to be recovered along the way.
type Result struct {
	View   View
	Events []Event
	Notice string // short lived message, e.g. after a restart
}

// Ok reports whether the transition needed no recovery. A death is a normal
// outcome and does not count.
func (r Result) Ok() bool {
	for _, e := range r.Events {
		if e.Kind != EventDeath {
			return false
		}
	}
	return true
}

// Has reports whether an event of kind was recorded.
func (r Result) Has(kind EventKind) bool {
	for _, e := range r.Events {
		if e.Kind == kind {
			return true
		}
	}
	return false
}
