package main

import (
	"bytes"
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/vango-dev/reconciler/pkg/vdom"
)

// Scenario is a sequence of root updates replayed against an in-memory
// render target.
type Scenario struct {
	// Name identifies the scenario in logs and output.
	Name string `yaml:"name"`

	// Description explains what the scenario exercises.
	Description string `yaml:"description,omitempty"`

	// Steps are applied in order; each one is rendered and committed before
	// the next starts.
	Steps []Step `yaml:"steps"`
}

// Step is one update of the root.
type Step struct {
	// Name labels the step in the output. Defaults to "step N".
	Name string `yaml:"name,omitempty"`

	// Render is the new top-level description.
	Render *NodeSpec `yaml:"render,omitempty"`

	// Transition renders the step on a transition lane (time-sliced).
	Transition bool `yaml:"transition,omitempty"`

	// Clear renders nothing into the root.
	Clear bool `yaml:"clear,omitempty"`

	// Unmount retires the root. It must be the last step.
	Unmount bool `yaml:"unmount,omitempty"`
}

// NodeSpec describes an element or, when only Text is set, a text child.
type NodeSpec struct {
	Tag      string         `yaml:"tag,omitempty"`
	Key      string         `yaml:"key,omitempty"`
	Props    map[string]any `yaml:"props,omitempty"`
	Text     string         `yaml:"text,omitempty"`
	Children []NodeSpec     `yaml:"children,omitempty"`
}

// LoadScenario reads and validates a scenario file.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scenario: %w", err)
	}
	return ParseScenario(data)
}

// ParseScenario decodes and validates a scenario.
func ParseScenario(data []byte) (*Scenario, error) {
	var s Scenario
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&s); err != nil {
		return nil, fmt.Errorf("parse scenario: %w", err)
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// Validate checks that every step does exactly one thing and every node has
// a tag or text.
func (s *Scenario) Validate() error {
	if len(s.Steps) == 0 {
		return fmt.Errorf("scenario %q has no steps", s.Name)
	}
	for i, step := range s.Steps {
		actions := 0
		if step.Render != nil {
			actions++
		}
		if step.Clear {
			actions++
		}
		if step.Unmount {
			actions++
		}
		if actions != 1 {
			return fmt.Errorf("step %d: exactly one of render, clear or unmount is required", i+1)
		}
		if step.Unmount && i != len(s.Steps)-1 {
			return fmt.Errorf("step %d: unmount must be the last step", i+1)
		}
		if step.Render != nil {
			if err := step.Render.validate(fmt.Sprintf("step %d", i+1)); err != nil {
				return err
			}
		}
	}
	return nil
}

// Label returns the display name of the step at index i.
func (s Step) Label(i int) string {
	if s.Name != "" {
		return s.Name
	}
	return fmt.Sprintf("step %d", i+1)
}

func (n *NodeSpec) validate(path string) error {
	if n.Tag == "" {
		if len(n.Children) > 0 || len(n.Props) > 0 || n.Key != "" {
			return fmt.Errorf("%s: text node cannot have key, props or children", path)
		}
		return nil
	}
	for k := range n.Props {
		if vdom.IsEventHandler(k) {
			return fmt.Errorf("%s: <%s> prop %q: event handlers cannot be declared in a scenario", path, n.Tag, k)
		}
	}
	if n.Text != "" && len(n.Children) > 0 {
		return fmt.Errorf("%s: <%s> has both text and children", path, n.Tag)
	}
	for i := range n.Children {
		if err := n.Children[i].validate(fmt.Sprintf("%s > %s[%d]", path, n.Tag, i)); err != nil {
			return err
		}
	}
	return nil
}

// Element converts the node into a description. Text-only nodes become a
// string child.
func (n *NodeSpec) Element() any {
	if n.Tag == "" {
		return n.Text
	}
	args := make([]any, 0, len(n.Props)+len(n.Children)+2)
	if n.Key != "" {
		args = append(args, vdom.Key(n.Key))
	}
	keys := make([]string, 0, len(n.Props))
	for k := range n.Props {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		args = append(args, vdom.Prop(k, n.Props[k]))
	}
	if n.Text != "" {
		args = append(args, n.Text)
	}
	for i := range n.Children {
		args = append(args, n.Children[i].Element())
	}
	return vdom.H(n.Tag, args...)
}
