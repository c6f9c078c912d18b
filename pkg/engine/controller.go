package engine

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jwebster45206/scene-engine/pkg/effect"
	"github.com/jwebster45206/scene-engine/pkg/host"
	"github.com/jwebster45206/scene-engine/pkg/scene"
	"github.com/jwebster45206/scene-engine/pkg/state"
)

const (
	// RestartNotice is shown after the game had to restart itself.
	RestartNotice = "Something went wrong. Restarting..."
	// RestartNoticeDuration is how long presenters keep RestartNotice up.
	RestartNoticeDuration = time.Second
)

var (
	// ErrStaleChoice is returned when a choice from an older view is selected.
	ErrStaleChoice = errors.New("choice does not belong to the current view")
	// ErrNoSuchChoice is returned for an index outside the current view.
	ErrNoSuchChoice = errors.New("no such choice")

	errNoStart    = errors.New("start scene is missing")
	errNoGameOver = errors.New("game over scene is missing")
)

// SceneSource looks up scenes by id. *scene.Store implements it.
type SceneSource interface {
	Get(id string) (scene.Scene, bool)
}

// Saver takes snapshots after every transition. It must not block.
type Saver interface {
	SaveAsync(snap state.Snapshot)
}

// Controller drives the story: it resolves scene transitions, applies choice
// effects, enforces the death rule and recovers from bad scene data. It is
// not safe for concurrent use; callers drive it from one event loop.
type Controller struct {
	scenes  SceneSource
	gs      *state.GameState
	effects *effect.Engine
	saver   Saver
	shell   host.Shell
	logger  *slog.Logger

	generation uint64
	view       View
	choices    []scene.Choice // choices behind view.Choices
}

// Option configures a Controller.
type Option func(*Controller)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Controller) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithEffects replaces the effect engine.
func WithEffects(en *effect.Engine) Option {
	return func(c *Controller) {
		if en != nil {
			c.effects = en
		}
	}
}

// WithSaver snapshots the game after every transition.
func WithSaver(s Saver) Option {
	return func(c *Controller) {
		c.saver = s
	}
}

// WithShell sends choice telemetry to the host shell.
func WithShell(shell host.Shell) Option {
	return func(c *Controller) {
		if shell != nil {
			c.shell = shell
		}
	}
}

// New creates a controller over scenes and gs. Nothing is rendered until
// Start, Resume or TransitionTo is called.
func New(scenes SceneSource, gs *state.GameState, opts ...Option) *Controller {
	if gs == nil {
		gs = state.New()
	}
	c := &Controller{
		scenes: scenes,
		gs:     gs,
		shell:  host.Noop{},
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.effects == nil {
		c.effects = effect.NewEngine(c.logger)
	}
	return c
}

// View returns the last emitted view.
func (c *Controller) View() View {
	return c.view
}

// State returns a copy of the game state.
func (c *Controller) State() state.Snapshot {
	return c.gs.Snapshot()
}

// Start enters the scene the game state points at.
func (c *Controller) Start() Result {
	return c.TransitionTo(c.gs.CurrentScene)
}

// Resume restores a saved snapshot and enters its scene. Unknown scenes, and
// a saved game over with health left, fall back to start. Depleted health
// goes straight to game over.
func (c *Controller) Resume(snap state.Snapshot) Result {
	c.gs.Restore(snap)
	return c.TransitionTo(c.gs.CurrentScene)
}

// Restart resets the game and enters the start scene.
func (c *Controller) Restart() Result {
	c.gs.Reset()
	return c.TransitionTo(scene.StartID)
}

// TransitionTo enters the scene id. Unknown ids resolve to start, as does
// game over while health remains. If health has run out the game over scene
// is entered instead. Failures inside the
// transition reset the game and restart it; they never escape.
func (c *Controller) TransitionTo(id string) Result {
	var res Result
	c.transition(id, &res)
	c.persist()
	return res
}

// Select picks a choice from the current view, applies its effect and moves
// to its target.
func (c *Controller) Select(ch ChoiceView) (Result, error) {
	if ch.Generation != c.generation {
		return Result{View: c.view}, ErrStaleChoice
	}
	if ch.Index < 0 || ch.Index >= len(c.choices) {
		return Result{View: c.view}, fmt.Errorf("%w: %d", ErrNoSuchChoice, ch.Number)
	}

	choice := c.choices[ch.Index]
	from := c.view.SceneID

	var res Result
	if err := c.effects.Apply(choice.Effect, c.gs); err != nil {
		res.Events = append(res.Events, Event{Kind: EventEffectFailed, SceneID: from, Err: err})
	}
	c.sendChoice(from, choice.Label)

	c.transition(choice.Target, &res)
	c.persist()
	return res, nil
}

// CheckDeath applies the death rule outside a transition, e.g. after the
// state was changed directly. It reports whether game over was forced.
func (c *Controller) CheckDeath() (Result, bool) {
	if !c.gs.Dead() || c.gs.CurrentScene == scene.GameOverID {
		return Result{View: c.view}, false
	}
	var res Result
	err := guard(scene.GameOverID, func() error { return c.enterGameOver(&res) })
	if err != nil {
		c.restart(err, &res)
	}
	c.persist()
	return res, true
}

func (c *Controller) transition(id string, res *Result) {
	if err := c.resolve(id, res); err != nil {
		c.restart(err, res)
	}
}

// resolve looks up the scene, enters it, emits its view and applies the
// death rule.
func (c *Controller) resolve(id string, res *Result) error {
	return guard(id, func() error {
		sc, resolved, err := c.lookup(id, res)
		if err != nil {
			return err
		}
		c.gs.Enter(resolved)
		c.emit(resolved, sc, res)

		if c.gs.Dead() && resolved != scene.GameOverID {
			return c.enterGameOver(res)
		}
		return nil
	})
}

// guard turns a panic in f into an error so restart can handle it.
func guard(id string, f func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("transition to %q panicked: %v", id, r)
		}
	}()
	return f()
}

// lookup resolves id to a scene. Unknown ids and game over while the player
// is still alive resolve to start.
func (c *Controller) lookup(id string, res *Result) (scene.Scene, string, error) {
	if id == scene.GameOverID && !c.gs.Dead() {
		c.logger.Warn("Game over requested while alive, falling back to start", "health", c.gs.Health)
		res.Events = append(res.Events, Event{Kind: EventMissingScene, SceneID: id})
		return c.start()
	}
	if sc, ok := c.scenes.Get(id); ok {
		return sc, id, nil
	}

	c.logger.Warn("Scene not found, falling back to start", "requested", id)
	res.Events = append(res.Events, Event{Kind: EventMissingScene, SceneID: id})
	return c.start()
}

func (c *Controller) start() (scene.Scene, string, error) {
	sc, ok := c.scenes.Get(scene.StartID)
	if !ok {
		return scene.Scene{}, "", errNoStart
	}
	return sc, scene.StartID, nil
}

// enterGameOver forces the terminal scene. It never looks at health again,
// so it cannot cascade.
func (c *Controller) enterGameOver(res *Result) error {
	c.logger.Info("Health depleted", "scene", c.gs.CurrentScene, "health", c.gs.Health)
	res.Events = append(res.Events, Event{Kind: EventDeath, SceneID: c.gs.CurrentScene})

	sc, ok := c.scenes.Get(scene.GameOverID)
	if !ok {
		return errNoGameOver
	}
	c.gs.Enter(scene.GameOverID)
	c.emit(scene.GameOverID, sc, res)
	return nil
}

// restart is the recovery rule for a failed transition: reset the state and
// enter start. If even that fails a bare recovery view is emitted whose only
// choice tries again.
func (c *Controller) restart(cause error, res *Result) {
	c.logger.Error("Transition failed, restarting", "error", cause, "scene", c.gs.CurrentScene)
	res.Events = append(res.Events, Event{Kind: EventPipelineFailed, SceneID: c.gs.CurrentScene, Err: cause})
	res.Notice = RestartNotice

	c.gs.Reset()
	if err := c.resolve(scene.StartID, res); err != nil {
		c.logger.Error("Restart failed", "error", err)
		c.gs.Reset()
		c.emit(scene.StartID, recoveryScene(), res)
	}
}

func recoveryScene() scene.Scene {
	return scene.Scene{
		Text:    RestartNotice,
		Choices: []scene.Choice{{Label: "Start over", Target: scene.StartID}},
	}
}

func (c *Controller) emit(id string, sc scene.Scene, res *Result) {
	c.generation++

	views := make([]ChoiceView, len(sc.Choices))
	for i, ch := range sc.Choices {
		views[i] = ChoiceView{
			Index:      i,
			Number:     i + 1,
			Label:      ch.Label,
			Generation: c.generation,
		}
	}

	c.choices = sc.Choices
	c.view = View{
		SceneID:    id,
		Text:       sc.Text,
		Background: sc.Background,
		Choices:    views,
		Stats:      c.gs.Stats(),
		Generation: c.generation,
	}
	res.View = c.view
}

func (c *Controller) sendChoice(sceneID, label string) {
	payload, err := host.EncodeChoice(sceneID, label)
	if err != nil {
		c.logger.Warn("Failed to encode choice telemetry", "error", err)
		return
	}
	if err := c.shell.SendData(payload); err != nil {
		c.logger.Warn("Failed to send choice telemetry", "error", err, "scene", sceneID)
	}
}

func (c *Controller) persist() {
	if c.saver == nil {
		return
	}
	c.saver.SaveAsync(c.gs.Snapshot())
}
