package state

import (
	"slices"
	"strings"
)

const (
	// StartScene is the mandatory entry point of every story.
	StartScene = "start"
	// StartingHealth is the health a fresh or reset game begins with.
	StartingHealth = 100
)

// GameState is the single mutable record of a play session.
type GameState struct {
	CurrentScene string   `json:"currentScene"`
	Health       int      `json:"health"` // may go negative; see DisplayedHealth
	Inventory    []string `json:"inventory"`
	Visited      []string `json:"visitedScenes,omitempty"` // distinct scenes in order of first visit
}

// Stats is the projection of the game state shown next to the scene.
type Stats struct {
	DisplayedHealth  int      `json:"displayed_health"`
	InventorySummary string   `json:"inventory_summary"`
	Items            []string `json:"items,omitempty"`
}

// New returns a game at the start scene with full health and nothing carried.
func New() *GameState {
	return &GameState{
		CurrentScene: StartScene,
		Health:       StartingHealth,
		Inventory:    []string{},
	}
}

// ApplyHealthDelta adds n to health. No clamping happens here.
func (gs *GameState) ApplyHealthDelta(n int) {
	gs.Health += n
}

// AddItem appends an item. Duplicates are kept.
func (gs *GameState) AddItem(name string) {
	gs.Inventory = append(gs.Inventory, name)
}

// Enter moves the player to sceneID and records the visit.
func (gs *GameState) Enter(sceneID string) {
	gs.CurrentScene = sceneID
	if !slices.Contains(gs.Visited, sceneID) {
		gs.Visited = append(gs.Visited, sceneID)
	}
}

// HasVisited reports whether sceneID was entered since the last reset.
func (gs *GameState) HasVisited(sceneID string) bool {
	return slices.Contains(gs.Visited, sceneID)
}

// Reset returns the state to its initial values in place.
// Persisted saves are left alone.
func (gs *GameState) Reset() {
	gs.CurrentScene = StartScene
	gs.Health = StartingHealth
	gs.Inventory = []string{}
	gs.Visited = nil
}

// Dead reports whether health has been depleted.
func (gs *GameState) Dead() bool {
	return gs.Health <= 0
}

// DisplayedHealth is health as the player sees it, floored at zero.
func (gs *GameState) DisplayedHealth() int {
	return max(0, gs.Health)
}

// InventorySummary joins the carried items for display.
func (gs *GameState) InventorySummary() string {
	if len(gs.Inventory) == 0 {
		return "empty"
	}
	return strings.Join(gs.Inventory, ", ")
}

// Stats builds the display projection.
func (gs *GameState) Stats() Stats {
	return Stats{
		DisplayedHealth:  gs.DisplayedHealth(),
		InventorySummary: gs.InventorySummary(),
		Items:            slices.Clone(gs.Inventory),
	}
}
