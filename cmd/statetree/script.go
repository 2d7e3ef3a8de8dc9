package main

import (
	stderrors "errors"
	"fmt"
	"os"

	"github.com/vango-dev/statetree/internal/errors"
	"github.com/vango-dev/statetree/pkg/statetree"
)

// loadScript reads a script and turns failures into coded errors.
func loadScript(path string) (*statetree.Script, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.New("E140").
				WithDetail("No script at " + path)
		}
		return nil, errors.New("E140").Wrap(err)
	}

	script, err := statetree.ParseScript(data)
	if err != nil {
		var opErr *statetree.OpError
		if stderrors.As(err, &opErr) {
			e := errors.New("E201").
				Wrap(err).
				WithDetail(fmt.Sprintf("Step %d has op %q; each step must have op set to splice or set.", opErr.Step, opErr.Op))
			if opErr.Suggestion != "" {
				e.WithSuggestion(fmt.Sprintf("did you mean %q?", opErr.Suggestion))
			}
			return nil, e
		}
		return nil, errors.New("E200").
			Wrap(err).
			WithLocationFromError(path, err).
			WithExample("steps:\n  - {op: splice, index: 0, add: [a, b]}\n  - {op: set, index: 1, value: c}")
	}

	if script.Name == "" {
		script.Name = path
	}
	return script, nil
}

// stepError describes a step that could not be applied.
func stepError(i int, step statetree.Step, length int, err error) error {
	return errors.New("E202").
		Wrap(err).
		WithDetail(fmt.Sprintf("Step %d (%s at index %d) failed on a list of length %d.", i, step.Op, step.Index, length))
}
