package state

import (
	"encoding/json"
	"math"
	"slices"

	"github.com/tidwall/gjson"
)

// Snapshot is the persisted form of a GameState.
type Snapshot struct {
	CurrentScene string   `json:"currentScene"`
	Health       int      `json:"health"`
	Inventory    []string `json:"inventory"`
	Visited      []string `json:"visitedScenes,omitempty"`
}

// Snapshot returns a deep copy of the state suitable for saving.
func (gs *GameState) Snapshot() Snapshot {
	inv := slices.Clone(gs.Inventory)
	if inv == nil {
		inv = []string{}
	}
	return Snapshot{
		CurrentScene: gs.CurrentScene,
		Health:       gs.Health,
		Inventory:    inv,
		Visited:      slices.Clone(gs.Visited),
	}
}

// Restore overwrites the state with snap. An empty scene id becomes the
// start scene and a nil inventory becomes empty.
func (gs *GameState) Restore(snap Snapshot) {
	gs.CurrentScene = snap.CurrentScene
	if gs.CurrentScene == "" {
		gs.CurrentScene = StartScene
	}
	gs.Health = snap.Health
	gs.Inventory = slices.Clone(snap.Inventory)
	if gs.Inventory == nil {
		gs.Inventory = []string{}
	}
	gs.Visited = slices.Clone(snap.Visited)
}

// Marshal encodes the snapshot as a single JSON record.
func (s Snapshot) Marshal() ([]byte, error) {
	return json.Marshal(s)
}

// Field names of the persisted record.
const (
	FieldCurrentScene = "currentScene"
	FieldHealth       = "health"
	FieldInventory    = "inventory"
	FieldVisited      = "visitedScenes"
)

// RestoreJSON decodes a persisted record field by field. Each field that is
// missing or has the wrong type falls back to its default independently, so a
// partially valid payload keeps whatever it got right. The names of the
// defaulted fields are returned for logging. A payload that is not a JSON
// object yields a fully defaulted snapshot.
func RestoreJSON(data []byte) (Snapshot, []string) {
	snap := Snapshot{
		CurrentScene: StartScene,
		Health:       StartingHealth,
		Inventory:    []string{},
	}

	if !gjson.ValidBytes(data) || !gjson.ParseBytes(data).IsObject() {
		return snap, []string{FieldCurrentScene, FieldHealth, FieldInventory}
	}

	var defaulted []string

	scene := gjson.GetBytes(data, FieldCurrentScene)
	if scene.Type == gjson.String && scene.Str != "" {
		snap.CurrentScene = scene.Str
	} else {
		defaulted = append(defaulted, FieldCurrentScene)
	}

	// Numbers outside the int32 range are corrupt; gjson would wrap them.
	health := gjson.GetBytes(data, FieldHealth)
	if health.Type == gjson.Number && health.Num >= math.MinInt32 && health.Num <= math.MaxInt32 {
		snap.Health = int(health.Num)
	} else {
		defaulted = append(defaulted, FieldHealth)
	}

	inv := gjson.GetBytes(data, FieldInventory)
	if inv.IsArray() {
		snap.Inventory = stringsOf(inv)
	} else {
		defaulted = append(defaulted, FieldInventory)
	}

	// visitedScenes is optional; older saves never had it.
	if visited := gjson.GetBytes(data, FieldVisited); visited.IsArray() {
		if v := stringsOf(visited); len(v) > 0 {
			snap.Visited = v
		}
	}

	return snap, defaulted
}

// stringsOf keeps the string elements of a JSON array and drops the rest.
func stringsOf(arr gjson.Result) []string {
	out := []string{}
	for _, el := range arr.Array() {
		if el.Type == gjson.String {
			out = append(out, el.Str)
		}
	}
	return out
}
