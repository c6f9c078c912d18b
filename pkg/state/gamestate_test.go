package state

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNew(t *testing.T) {
	gs := New()
	assert.Equal(t, StartScene, gs.CurrentScene)
	assert.Equal(t, StartingHealth, gs.Health)
	assert.NotNil(t, gs.Inventory)
	assert.Empty(t, gs.Inventory)
	assert.Empty(t, gs.Visited)
}

func TestGameState_ApplyHealthDelta(t *testing.T) {
	tests := []struct {
		name          string
		deltas        []int
		wantHealth    int
		wantDisplayed int
		wantDead      bool
	}{
		{name: "no change", deltas: nil, wantHealth: 100, wantDisplayed: 100},
		{name: "damage", deltas: []int{-10, -15}, wantHealth: 75, wantDisplayed: 75},
		{name: "healing above start", deltas: []int{20, 30}, wantHealth: 150, wantDisplayed: 150},
		{name: "exactly zero", deltas: []int{-100}, wantHealth: 0, wantDisplayed: 0, wantDead: true},
		{name: "negative is kept internally", deltas: []int{-150}, wantHealth: -50, wantDisplayed: 0, wantDead: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gs := New()
			for _, d := range tt.deltas {
				gs.ApplyHealthDelta(d)
			}
			assert.Equal(t, tt.wantHealth, gs.Health)
			assert.Equal(t, tt.wantDisplayed, gs.DisplayedHealth())
			assert.Equal(t, tt.wantDead, gs.Dead())
		})
	}
}

func TestGameState_AddItemKeepsDuplicates(t *testing.T) {
	gs := New()
	gs.AddItem("Torch")
	gs.AddItem("Clean water")
	gs.AddItem("Torch")

	assert.Equal(t, []string{"Torch", "Clean water", "Torch"}, gs.Inventory)
	assert.Equal(t, "Torch, Clean water, Torch", gs.InventorySummary())
}

func TestGameState_InventorySummaryEmpty(t *testing.T) {
	assert.Equal(t, "empty", New().InventorySummary())
}

func TestGameState_Enter(t *testing.T) {
	gs := New()
	gs.Enter("start")
	gs.Enter("light_path")
	gs.Enter("start")

	assert.Equal(t, "start", gs.CurrentScene)
	assert.Equal(t, []string{"start", "light_path"}, gs.Visited)
	assert.True(t, gs.HasVisited("light_path"))
	assert.False(t, gs.HasVisited("river"))
}

func TestGameState_ResetIsIdempotent(t *testing.T) {
	gs := New()
	gs.Enter("dark_forest")
	gs.ApplyHealthDelta(-40)
	gs.AddItem("Torch")

	gs.Reset()
	once := gs.Snapshot()
	gs.Reset()
	twice := gs.Snapshot()

	want := Snapshot{CurrentScene: "start", Health: 100, Inventory: []string{}}
	assert.Equal(t, want, once)
	assert.Equal(t, once, twice)
}

func TestGameState_Stats(t *testing.T) {
	gs := New()
	gs.ApplyHealthDelta(-120)
	gs.AddItem("Magic amulet")

	stats := gs.Stats()
	assert.Equal(t, 0, stats.DisplayedHealth)
	assert.Equal(t, "Magic amulet", stats.InventorySummary)
	assert.Equal(t, []string{"Magic amulet"}, stats.Items)

	// The projection does not alias the live inventory.
	stats.Items[0] = "changed"
	assert.Equal(t, "Magic amulet", gs.Inventory[0])
}
