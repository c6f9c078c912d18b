package scene

import "github.com/jwebster45206/scene-engine/pkg/effect"

// Forest returns the built-in story. Some of its choices lead to scenes that
// were never written (cave_entrance, hill_top, rest); those fall back to the
// start scene at runtime.
func Forest() *Story {
	return &Story{
		Name:        "The Ancient Forest",
		Description: "Wake in a misty forest and find your way to the temple or the river.",
		Scenes: map[string]Scene{
			"start": {
				Text: "You wake up in an ancient forest. Thick mist surrounds you. Two paths lie ahead.",
				Choices: []Choice{
					{Label: "Go left, towards the light", Target: "light_path", Effect: &effect.Effect{Log: "chose the left path"}},
					{Label: "Go right, deeper into the forest", Target: "dark_forest", Effect: &effect.Effect{Health: -10}},
				},
			},
			"light_path": {
				Text: "You walk towards the light. An old temple stands in the distance. A wise elder sits by the entrance.",
				Choices: []Choice{
					{Label: "Talk to the elder", Target: "elder_talk", Effect: &effect.Effect{AddItems: []string{"Elder's advice"}}},
					{Label: "Walk past into the temple", Target: "temple_inside"},
					{Label: "Go back", Target: "start"},
				},
			},
			"elder_talk": {
				Background: "images/333.png",
				Text:       "The elder hands you a magic amulet and says: 'This will help you in dark places.'",
				Choices: []Choice{
					{Label: "Accept the amulet and move on", Target: "temple_inside", Effect: &effect.Effect{AddItems: []string{"Magic amulet"}, Health: 20}},
					{Label: "Refuse and look for another way", Target: "forest_crossroads"},
				},
			},
			"dark_forest": {
				Background: "images/drk.forest.jpg",
				Text:       "The forest grows darker. You hear strange sounds. You lost 10 health.",
				Choices: []Choice{
					{Label: "Keep going", Target: "forest_crossroads", Effect: &effect.Effect{Health: -15}},
					{Label: "Turn back", Target: "start"},
					{Label: "Try to light a fire", Target: "campfire", Effect: &effect.Effect{AddItems: []string{"Torch"}}},
				},
			},
			"campfire": {
				Background: "images/fire.jpg",
				Text:       "You light a campfire. It is brighter and warmer now. +15 health.",
				Choices: []Choice{
					{Label: "Rest by the fire", Target: "rest", Effect: &effect.Effect{Health: 30}},
					{Label: "Continue on your way", Target: "forest_crossroads"},
				},
			},
			"forest_crossroads": {
				Background: "images/forest.2.jpg",
				Text:       "You stand at a crossroads. Where will you go?",
				Choices: []Choice{
					{Label: "To the river", Target: "river", Effect: &effect.Effect{AddItems: []string{"Clean water"}}},
					{Label: "Into the cave", Target: "cave_entrance"},
					{Label: "Up the hill", Target: "hill_top"},
				},
			},
			"temple_inside": {
				Background: "images/fresc.jpg",
				Text:       "You are inside the temple. Ancient frescoes tell the story of this place. The end of the road.",
				Choices: []Choice{
					{Label: "Start over", Target: "start", Effect: &effect.Effect{Reset: true}},
				},
			},
			"river": {
				Background: "images/river.jpg",
				Text:       "You found a clean river. You quench your thirst and fill your flask. A good ending!",
				Choices: []Choice{
					{Label: "Play again", Target: "start", Effect: &effect.Effect{Reset: true}},
				},
			},
		},
	}
}

// ForestStore builds the store for the built-in story.
func ForestStore() *Store {
	s, err := Forest().Store()
	if err != nil {
		// The built-in story is static; failing here is a programming error.
		panic(err)
	}
	return s
}
