package scene

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// Format is the encoding of a story file.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// Story is the authored form of a scene graph as it appears on disk.
type Story struct {
	Name        string           `json:"name" yaml:"name"`
	Description string           `json:"description,omitempty" yaml:"description,omitempty"`
	Scenes      map[string]Scene `json:"scenes" yaml:"scenes"`
}

// Store builds the frozen scene store for the story.
func (st *Story) Store() (*Store, error) {
	ids := make([]string, 0, len(st.Scenes))
	for id := range st.Scenes {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	b := NewBuilder()
	for _, id := range ids {
		b.Add(id, st.Scenes[id])
	}
	return b.Build()
}

// FormatOf picks the format from a file extension.
func FormatOf(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	}
	return "", fmt.Errorf("unsupported story file extension: %s", filepath.Ext(path))
}

// Decode parses a story. With strict set, unknown fields are rejected.
func Decode(data []byte, format Format, strict bool) (*Story, error) {
	var st Story
	switch format {
	case FormatJSON:
		dec := json.NewDecoder(bytes.NewReader(data))
		if strict {
			dec.DisallowUnknownFields()
		}
		if err := dec.Decode(&st); err != nil {
			return nil, fmt.Errorf("failed to decode story json: %w", err)
		}
	case FormatYAML:
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(strict)
		if err := dec.Decode(&st); err != nil {
			return nil, fmt.Errorf("failed to decode story yaml: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported story format: %q", format)
	}
	return &st, nil
}

// LoadFile reads a JSON or YAML story.
func LoadFile(path string, strict bool) (*Story, error) {
	format, err := FormatOf(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read story file: %w", err)
	}
	st, err := Decode(data, format, strict)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return st, nil
}
