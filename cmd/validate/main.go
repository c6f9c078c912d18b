package main

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"strings"

	"github.com/jwebster45206/scene-engine/pkg/scene"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintf(os.Stderr, "Usage: %s <story.json|story.yaml>\n", os.Args[0])
		os.Exit(1)
	}

	filename := os.Args[1]
	validator := &StoryValidator{}

	if err := validator.validateFile(filename); err != nil {
		fmt.Fprintf(os.Stderr, "Validation failed: %v\n", err)
		os.Exit(1)
	}

	for _, w := range validator.warnings {
		fmt.Println("warning:", w)
	}
	fmt.Println("Story file is valid!")
}

type StoryValidator struct {
	errors   []string
	warnings []string
}

func (v *StoryValidator) validateFile(filename string) error {
	fmt.Printf("Validating %s...\n", filename)

	baseName := filepath.Base(filename)
	if _, err := scene.FormatOf(baseName); err != nil {
		return fmt.Errorf("story file must have a .json, .yaml or .yml extension: %s", baseName)
	}

	nameWithoutExt := strings.TrimSuffix(baseName, filepath.Ext(baseName))
	if !isValidStoryFilename(nameWithoutExt) {
		return fmt.Errorf("story filename '%s' must be lowercase snake_case (e.g., my_story.json, not my-story.json or MyStory.json)", baseName)
	}

	v.errors = nil
	v.warnings = nil

	story, err := scene.LoadFile(filename, true)
	if err != nil {
		return fmt.Errorf("file %s failed strict decoding: %w", filename, err)
	}

	v.validateStory(story)

	if len(v.errors) > 0 {
		return fmt.Errorf("validation errors in %s:\n%s", filename, strings.Join(v.errors, "\n"))
	}

	return nil
}

func (v *StoryValidator) validateStory(story *scene.Story) {
	if strings.TrimSpace(story.Name) == "" {
		v.addError("story has no name")
	}

	ids := make([]string, 0, len(story.Scenes))
	for id := range story.Scenes {
		ids = append(ids, id)
	}
	slices.Sort(ids)

	for _, id := range ids {
		v.validateIDFormat("scene ID", id)
		v.validateScene(story.Scenes[id], id)
	}

	store, err := story.Store()
	if err != nil {
		v.addError(err.Error())
		return
	}
	for _, issue := range store.Validate() {
		v.warnings = append(v.warnings, issue.String())
	}
}

func (v *StoryValidator) validateScene(s scene.Scene, sceneID string) {
	if strings.TrimSpace(s.Text) == "" {
		v.addError(fmt.Sprintf("scene %s has no text", sceneID))
	}

	for i, ch := range s.Choices {
		where := fmt.Sprintf("choice %d in scene %s", i+1, sceneID)
		if strings.TrimSpace(ch.Label) == "" {
			v.addError(where + " has no label")
		}
		if ch.Target == "" {
			v.addError(where + " has no target")
		} else {
			v.validateIDFormat(where+" target", ch.Target)
		}
		if ch.Effect != nil {
			for _, item := range ch.Effect.AddItems {
				if strings.TrimSpace(item) == "" {
					v.addError(where + " adds an empty item")
				}
			}
		}
	}
}

func (v *StoryValidator) validateIDFormat(fieldName, id string) {
	if id == "" {
		return
	}

	if !isValidID(id) {
		v.addError(fmt.Sprintf("%s '%s' should be lowercase snake_case", fieldName, id))
	}
}

func (v *StoryValidator) addError(msg string) {
	v.errors = append(v.errors, "  - "+msg)
}

var (
	validIDRegex       = regexp.MustCompile(`^[a-z][a-z0-9_]*[a-z0-9]$|^[a-z]$`)
	validFilenameRegex = regexp.MustCompile(`^[a-z][a-z0-9_]*[a-z0-9]$|^[a-z]$`)
)

func isValidID(id string) bool {
	return validIDRegex.MatchString(id)
}

func isValidStoryFilename(name string) bool {
	// Allow 'x.' prefix for experimental stories
	name = strings.TrimPrefix(name, "x.")
	return validFilenameRegex.MatchString(name)
}
