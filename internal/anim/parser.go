package anim

import (
	"fmt"
	"io/fs"
	"os"

	"gopkg.in/yaml.v3"
)

// Parse decodes an animation resource from YAML and validates it.
//
// Example:
//
//	doc, err := anim.Parse(data)
//	if err != nil {
//	    log.Printf("[AnimationLibrary] %v", err)
//	}
//	state, _ := doc.State("IDLE")
func Parse(data []byte) (*Document, error) {
	var doc Document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse animation YAML: %w", err)
	}
	if err := doc.Validate(); err != nil {
		return nil, err
	}
	doc.Index()
	return &doc, nil
}

// ParseFile reads and parses an animation resource from disk.
func ParseFile(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read animation file '%s': %w", path, err)
	}
	doc, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return doc, nil
}

// ParseFS reads and parses an animation resource from a file system,
// typically the embedded data directory.
func ParseFS(fsys fs.FS, path string) (*Document, error) {
	data, err := fs.ReadFile(fsys, path)
	if err != nil {
		return nil, fmt.Errorf("failed to read animation file '%s': %w", path, err)
	}
	doc, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return doc, nil
}

// Validate checks structural rules:
//   - at least one state
//   - state names are non-empty and unique
//   - every state has at least one frame
//   - durations are non-negative
func (d *Document) Validate() error {
	if len(d.States) == 0 {
		return fmt.Errorf("animation has no states")
	}
	seen := make(map[string]bool, len(d.States))
	for i, s := range d.States {
		if s.Name == "" {
			return fmt.Errorf("state #%d has no name", i)
		}
		if seen[s.Name] {
			return fmt.Errorf("duplicate state name '%s'", s.Name)
		}
		seen[s.Name] = true
		if len(s.Frames) == 0 {
			return fmt.Errorf("state '%s' has no frames", s.Name)
		}
		for j, f := range s.Frames {
			if f.Duration < 0 {
				return fmt.Errorf("state '%s' frame %d has negative duration %.3f", s.Name, j, f.Duration)
			}
		}
	}
	return nil
}
