package scene

import (
	"errors"
	"fmt"
	"slices"
	"sort"

	"github.com/jwebster45206/scene-engine/pkg/effect"
	"github.com/jwebster45206/scene-engine/pkg/state"
)

const (
	// StartID is the mandatory entry scene.
	StartID = state.StartScene
	// GameOverID is the reserved terminal scene reached only when health runs out.
	GameOverID = "game_over"
)

var (
	// ErrMissingStart is returned by Build when no start scene was added.
	ErrMissingStart = errors.New("story has no start scene")
	// ErrReservedScene is returned when a story defines or targets game_over.
	ErrReservedScene = errors.New("scene id is reserved")
	// ErrEmptyID is returned for a scene added without an id.
	ErrEmptyID = errors.New("scene id is empty")
)

// Choice is a labelled edge to another scene.
type Choice struct {
	Label  string         `json:"label" yaml:"label"`
	Target string         `json:"target" yaml:"target"`
	Effect *effect.Effect `json:"effect,omitempty" yaml:"effect,omitempty"`
}

// Scene is a node of the story graph.
type Scene struct {
	Text       string   `json:"text" yaml:"text"`
	Background string   `json:"background,omitempty" yaml:"background,omitempty"` // image hint for presenters
	Choices    []Choice `json:"choices" yaml:"choices"`
}

// IsDeadEnd reports whether the scene offers no way out.
func (s Scene) IsDeadEnd() bool {
	return len(s.Choices) == 0
}

func (s Scene) clone() Scene {
	c := s
	c.Choices = make([]Choice, len(s.Choices))
	for i, ch := range s.Choices {
		ch.Effect = ch.Effect.Clone()
		c.Choices[i] = ch
	}
	return c
}

// GameOver is the terminal scene injected into every store.
func GameOver() Scene {
	return Scene{
		Text: "You died. But every death is a new lesson.",
		Choices: []Choice{
			{
				Label:  "Respawn and start over",
				Target: StartID,
				Effect: &effect.Effect{Reset: true},
			},
		},
	}
}

// Store maps scene ids to scenes. It cannot be changed once built.
type Store struct {
	scenes map[string]Scene
	ids    []string
}

// Builder collects scenes before a Store is frozen.
type Builder struct {
	scenes map[string]Scene
	errs   []error
}

// NewBuilder starts an empty store.
func NewBuilder() *Builder {
	return &Builder{scenes: make(map[string]Scene)}
}

// Add registers a scene. Adding the same id twice keeps the last one.
func (b *Builder) Add(id string, s Scene) *Builder {
	switch {
	case id == "":
		b.errs = append(b.errs, ErrEmptyID)
		return b
	case id == GameOverID:
		b.errs = append(b.errs, fmt.Errorf("%w: %s", ErrReservedScene, id))
		return b
	}
	for i, ch := range s.Choices {
		if ch.Target == GameOverID {
			b.errs = append(b.errs, fmt.Errorf("%w: scene %s choice %d targets %s", ErrReservedScene, id, i+1, GameOverID))
		}
	}
	b.scenes[id] = s.clone()
	return b
}

// Build injects the game over scene and freezes the store.
func (b *Builder) Build() (*Store, error) {
	if _, ok := b.scenes[StartID]; !ok {
		b.errs = append(b.errs, ErrMissingStart)
	}
	if len(b.errs) > 0 {
		return nil, errors.Join(b.errs...)
	}

	scenes := make(map[string]Scene, len(b.scenes)+1)
	for id, s := range b.scenes {
		scenes[id] = s
	}
	scenes[GameOverID] = GameOver()

	ids := make([]string, 0, len(scenes))
	for id := range scenes {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	return &Store{scenes: scenes, ids: ids}, nil
}

// Get returns a copy of the scene. The second result is false when no scene
// has that id.
func (s *Store) Get(id string) (Scene, bool) {
	sc, ok := s.scenes[id]
	if !ok {
		return Scene{}, false
	}
	return sc.clone(), true
}

// Has reports whether id is a known scene.
func (s *Store) Has(id string) bool {
	_, ok := s.scenes[id]
	return ok
}

// IDs lists all scene ids in sorted order, game_over included.
func (s *Store) IDs() []string {
	return slices.Clone(s.ids)
}

// Len is the number of scenes, game_over included.
func (s *Store) Len() int {
	return len(s.scenes)
}

// IssueKind classifies a Validate finding.
type IssueKind string

const (
	// IssueDanglingTarget is a choice whose target is not in the store.
	IssueDanglingTarget IssueKind = "dangling_target"
	// IssueDeadEnd is a scene with no choices.
	IssueDeadEnd IssueKind = "dead_end"
)

// Issue is a non-fatal problem in the story graph.
type Issue struct {
	Kind    IssueKind
	SceneID string
	Choice  int    // 1-based, zero for scene level issues
	Target  string // for dangling targets
}

func (i Issue) String() string {
	switch i.Kind {
	case IssueDanglingTarget:
		return fmt.Sprintf("scene %s choice %d points to unknown scene %s", i.SceneID, i.Choice, i.Target)
	case IssueDeadEnd:
		return fmt.Sprintf("scene %s has no choices", i.SceneID)
	}
	return string(i.Kind)
}

// Validate reports dangling choice targets and dead ends. Neither stops play:
// unknown targets fall back to the start scene at runtime.
func (s *Store) Validate() []Issue {
	var issues []Issue
	for _, id := range s.ids {
		sc := s.scenes[id]
		if sc.IsDeadEnd() {
			issues = append(issues, Issue{Kind: IssueDeadEnd, SceneID: id})
		}
		for i, ch := range sc.Choices {
			if !s.Has(ch.Target) {
				issues = append(issues, Issue{Kind: IssueDanglingTarget, SceneID: id, Choice: i + 1, Target: ch.Target})
			}
		}
	}
	return issues
}
