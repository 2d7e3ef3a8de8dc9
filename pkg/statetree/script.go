package statetree

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/agnivade/levenshtein"
	"github.com/goccy/go-yaml"

	"github.com/vango-dev/statetree/pkg/reactive"
)

// Script step operations.
const (
	OpSplice = "splice"
	OpSet    = "set"
)

// ErrInvalidScript is returned for scripts that cannot be parsed or that
// contain unknown operations.
var ErrInvalidScript = errors.New("statetree: invalid script")

// Script is an ordered list of list mutations. YAML is the native format;
// since JSON is a subset of YAML, JSON scripts load too.
//
//	name: todo
//	steps:
//	  - {op: splice, index: 0, add: [a, b, c]}
//	  - {op: splice, index: 1, remove: 1}
//	  - {op: set, index: 0, value: x}
type Script struct {
	Name  string `yaml:"name,omitempty" json:"name,omitempty"`
	Steps []Step `yaml:"steps" json:"steps"`
}

// Step is one mutation. Splice steps use Index, Remove and Add; set steps
// use Index and Value.
type Step struct {
	Op     string `yaml:"op" json:"op"`
	Index  int    `yaml:"index" json:"index"`
	Remove int    `yaml:"remove,omitempty" json:"remove,omitempty"`
	Add    []any  `yaml:"add,omitempty" json:"add,omitempty"`
	Value  any    `yaml:"value,omitempty" json:"value,omitempty"`
}

// ParseScript decodes and validates a script.
func ParseScript(data []byte) (*Script, error) {
	var s Script
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidScript, err)
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// LoadScript reads and parses a script file.
func LoadScript(path string) (*Script, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseScript(data)
}

// OpError reports a step with an unknown operation.
type OpError struct {
	// Step is the index of the step in its script, or -1 when unknown.
	Step int
	Op   string

	// Suggestion is the closest known op, or empty when none is close.
	Suggestion string
}

func (e *OpError) Error() string {
	msg := fmt.Sprintf("%v: unknown op %q", ErrInvalidScript, e.Op)
	if e.Step >= 0 {
		msg = fmt.Sprintf("%v: step %d: unknown op %q", ErrInvalidScript, e.Step, e.Op)
	}
	if e.Suggestion != "" {
		msg += fmt.Sprintf(" (did you mean %q?)", e.Suggestion)
	}
	return msg
}

func (e *OpError) Unwrap() error {
	return ErrInvalidScript
}

// Validate checks that every step has a known operation.
func (s *Script) Validate() error {
	for i, step := range s.Steps {
		switch step.Op {
		case OpSplice, OpSet:
		default:
			return &OpError{Step: i, Op: step.Op, Suggestion: suggestOp(step.Op)}
		}
	}
	return nil
}

// suggestOp returns the known op within two edits of op.
func suggestOp(op string) string {
	best, bestDist := "", 3
	for _, known := range []string{OpSplice, OpSet} {
		if d := levenshtein.ComputeDistance(strings.ToLower(op), known); d < bestDist {
			best, bestDist = known, d
		}
	}
	return best
}

// Marshal encodes the script as YAML.
func (s *Script) Marshal() ([]byte, error) {
	return yaml.Marshal(s)
}

// Apply runs every step against list in order and stops at the first
// failing step.
func (s *Script) Apply(list *ListNamespace[any]) error {
	for i, step := range s.Steps {
		if err := step.Apply(list); err != nil {
			return fmt.Errorf("statetree: script step %d: %w", i, err)
		}
	}
	return nil
}

// Apply runs one step against list.
func (st Step) Apply(list *ListNamespace[any]) error {
	switch st.Op {
	case OpSplice:
		_, err := list.Splice(st.Index, st.Remove, st.Add...)
		return err
	case OpSet:
		return list.Set(st.Index, st.Value)
	default:
		return &OpError{Step: -1, Op: st.Op, Suggestion: suggestOp(st.Op)}
	}
}

// Recorder captures the splices applied to a list as script steps.
// Set is not recorded since it fires no event.
type Recorder struct {
	steps  []Step
	remove reactive.Remover
}

// Record starts recording splices on list.
func Record[T any](list *ListNamespace[T]) *Recorder {
	r := &Recorder{}
	r.remove = list.AddSpliceListener(func(e *SpliceEvent[T]) {
		add := make([]any, len(e.Added))
		for i, v := range e.Added {
			add[i] = v
		}
		r.steps = append(r.steps, Step{
			Op:     OpSplice,
			Index:  e.Index,
			Remove: len(e.Removed),
			Add:    add,
		})
	})
	return r
}

// Stop detaches the recorder. Calling it twice is a no-op.
func (r *Recorder) Stop() {
	r.remove()
}

// Len returns the number of recorded steps.
func (r *Recorder) Len() int {
	return len(r.steps)
}

// Script returns the recorded steps as a script.
func (r *Recorder) Script(name string) *Script {
	steps := make([]Step, len(r.steps))
	copy(steps, r.steps)
	return &Script{Name: name, Steps: steps}
}
