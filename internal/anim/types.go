// Package anim provides the animation resource format used by the battle core.
// A document is a table of named states; each state is an ordered list of
// frames with a duration (seconds) and optional named anchor points.
// Callbacks are never stored in the resource; they are registered at runtime
// against a loaded playback.
package anim

import "github.com/jakecoffman/cp"

// Document is the root of an animation resource file.
type Document struct {
	// States is the list of named frame sequences, e.g. "IDLE", "ELECTRIC"
	States []State `yaml:"states"`

	// index maps state name to its position in States; built by Index
	index map[string]int
}

// State is one named frame sequence.
type State struct {
	// Name is the state name used by Load
	Name string `yaml:"name"`

	// Frames is the ordered frame list
	Frames []Frame `yaml:"frames"`
}

// Frame is one discrete step of a state.
type Frame struct {
	// Duration is how long the frame is shown, in seconds.
	// Zero-duration frames take no time but are still entered.
	Duration float64 `yaml:"duration"`

	// Points holds named anchor points relative to the entity origin,
	// e.g. "BUSTER" for the muzzle position.
	Points map[string]cp.Vector `yaml:"points,omitempty"`
}

// Index (re)builds the name lookup table. Parse calls it automatically;
// callers that build documents in code must call it before State.
func (d *Document) Index() {
	d.index = make(map[string]int, len(d.States))
	for i, s := range d.States {
		if _, dup := d.index[s.Name]; !dup {
			d.index[s.Name] = i
		}
	}
}

// State returns the named state.
func (d *Document) State(name string) (*State, bool) {
	if d == nil {
		return nil, false
	}
	if d.index == nil {
		d.Index()
	}
	i, ok := d.index[name]
	if !ok {
		return nil, false
	}
	return &d.States[i], true
}

// StateNames returns state names in file order.
func (d *Document) StateNames() []string {
	names := make([]string, 0, len(d.States))
	for _, s := range d.States {
		names = append(names, s.Name)
	}
	return names
}

// TotalDuration returns the sum of all frame durations of the state.
func (s *State) TotalDuration() float64 {
	total := 0.0
	for _, f := range s.Frames {
		total += f.Duration
	}
	return total
}

// Point returns the named anchor of the frame.
func (f *Frame) Point(name string) (cp.Vector, bool) {
	p, ok := f.Points[name]
	return p, ok
}
