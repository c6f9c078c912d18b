package effect

import (
	"errors"
	"log/slog"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwebster45206/scene-engine/pkg/state"
)

func testEngine() *Engine {
	return NewEngine(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError + 1})))
}

func TestEngine_Apply(t *testing.T) {
	tests := []struct {
		name          string
		effect        *Effect
		wantHealth    int
		wantInventory []string
	}{
		{name: "nil effect", effect: nil, wantHealth: 90, wantInventory: []string{"Torch"}},
		{name: "log only", effect: &Effect{Log: "took the left path"}, wantHealth: 90, wantInventory: []string{"Torch"}},
		{name: "damage", effect: &Effect{Health: -15}, wantHealth: 75, wantInventory: []string{"Torch"}},
		{name: "item", effect: &Effect{AddItems: []string{"Clean water"}}, wantHealth: 90, wantInventory: []string{"Torch", "Clean water"}},
		{
			name:          "amulet and healing",
			effect:        &Effect{Health: 20, AddItems: []string{"Magic amulet"}},
			wantHealth:    110,
			wantInventory: []string{"Torch", "Magic amulet"},
		},
		{name: "reset", effect: &Effect{Reset: true}, wantHealth: 100, wantInventory: []string{}},
		{
			name:          "reset after damage",
			effect:        &Effect{Health: -500, Reset: true},
			wantHealth:    100,
			wantInventory: []string{},
		},
		{
			name: "func",
			effect: &Effect{Func: func(gs *state.GameState) error {
				gs.Health *= 2
				return nil
			}},
			wantHealth:    180,
			wantInventory: []string{"Torch"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gs := state.New()
			gs.ApplyHealthDelta(-10)
			gs.AddItem("Torch")

			err := testEngine().Apply(tt.effect, gs)
			require.NoError(t, err)
			assert.Equal(t, tt.wantHealth, gs.Health)
			assert.Equal(t, tt.wantInventory, gs.Inventory)
		})
	}
}

func TestEngine_ApplyReturnedErrorKeepsPartialState(t *testing.T) {
	boom := errors.New("cursed amulet")
	gs := state.New()

	err := testEngine().Apply(&Effect{
		Health:   -30,
		AddItems: []string{"Amulet"},
		Func:     func(*state.GameState) error { return boom },
	}, gs)

	var effErr *Error
	require.ErrorAs(t, err, &effErr)
	assert.False(t, effErr.Panic)
	assert.ErrorIs(t, err, boom)

	// No rollback.
	assert.Equal(t, 70, gs.Health)
	assert.Equal(t, []string{"Amulet"}, gs.Inventory)
}

func TestEngine_ApplyRecoversPanics(t *testing.T) {
	tests := []struct {
		name  string
		value any
	}{
		{name: "string", value: "effect exploded"},
		{name: "error", value: errors.New("effect exploded")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gs := state.New()
			err := testEngine().Apply(&Effect{
				Func: func(gs *state.GameState) error {
					gs.AddItem("half-applied")
					panic(tt.value)
				},
			}, gs)

			var effErr *Error
			require.ErrorAs(t, err, &effErr)
			assert.True(t, effErr.Panic)
			assert.Contains(t, err.Error(), "effect exploded")
			assert.Equal(t, []string{"half-applied"}, gs.Inventory)
			assert.Equal(t, 100, gs.Health)
		})
	}
}

func TestEngine_ApplyNilState(t *testing.T) {
	err := testEngine().Apply(&Effect{Health: -1}, nil)
	var effErr *Error
	assert.ErrorAs(t, err, &effErr)
}

func TestEffect_IsEmptyAndClone(t *testing.T) {
	var nilEffect *Effect
	assert.True(t, nilEffect.IsEmpty())
	assert.True(t, (&Effect{}).IsEmpty())
	assert.False(t, (&Effect{Reset: true}).IsEmpty())
	assert.Nil(t, nilEffect.Clone())

	orig := &Effect{Health: 5, AddItems: []string{"Torch"}}
	c := orig.Clone()
	c.AddItems[0] = "Wet torch"
	assert.Equal(t, "Torch", orig.AddItems[0])
}
