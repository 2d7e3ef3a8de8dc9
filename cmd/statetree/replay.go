package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
	diffpatch "github.com/sergi/go-diff/diffmatchpatch"
	"github.com/spf13/cobra"

	"github.com/vango-dev/statetree/internal/errors"
	"github.com/vango-dev/statetree/pkg/statetree"
)

type replayOptions struct {
	diff  bool
	where string
	quiet bool
}

func replayCmd(env *cliEnv) *cobra.Command {
	var opts replayOptions

	cmd := &cobra.Command{
		Use:   "replay <script>",
		Short: "Apply a script to an empty list and print each splice",
		Long: `Apply a splice script to an empty list namespace and print every splice
event in its debug JSON form, followed by the final snapshot.

The --where expression selects which splices are printed. It sees:
  step     index of the script step
  index    splice position
  removed  removed values
  added    added values

Examples:
  statetree replay todo.yaml
  statetree replay todo.yaml --diff
  statetree replay todo.yaml --where 'len(removed) > 0'
  statetree replay todo.yaml --where 'index == 0 && "x" in added'`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReplay(env, args[0], opts)
		},
	}

	cmd.Flags().BoolVarP(&opts.diff, "diff", "d", false, "Print a line diff of the list after each step")
	cmd.Flags().StringVarP(&opts.where, "where", "w", "", "Only print splices matching this expression")
	cmd.Flags().BoolVarP(&opts.quiet, "quiet", "q", false, "Only print the final snapshot")

	return cmd
}

func runReplay(env *cliEnv, path string, opts replayOptions) error {
	script, err := loadScript(path)
	if err != nil {
		return err
	}
	filter, err := compileFilter(opts.where)
	if err != nil {
		return err
	}

	tracker := env.newTracker(nil)
	list := statetree.NewTree(tracker).NewNode().List(1)
	out := env.out

	var (
		current   int
		shown     int
		filterErr error
	)
	remove := list.AddSpliceListener(func(e *statetree.SpliceEvent[any]) {
		if filterErr != nil {
			return
		}
		ok, err := filter.match(current, e)
		if err != nil {
			filterErr = err
			return
		}
		if !ok || opts.quiet {
			return
		}
		shown++
		fmt.Fprintf(out, "%s splice %s\n", gray(fmt.Sprintf("#%d", current)), e.DebugJSON())
	})
	defer remove()

	for i, step := range script.Steps {
		current = i
		before := list.DebugJSON()

		if err := step.Apply(list); err != nil {
			return stepError(i, step, list.Length(), err)
		}
		if filterErr != nil {
			return errors.New("E221").
				Wrap(filterErr).
				WithDetail(fmt.Sprintf("The --where expression failed at step %d.", i))
		}

		if step.Op == statetree.OpSet && filter == nil && !opts.quiet {
			fmt.Fprintf(out, "%s set    {\"index\":%d,\"value\":%s}\n",
				gray(fmt.Sprintf("#%d", i)), step.Index, mustJSON(step.Value))
		}
		if opts.diff && !opts.quiet {
			writeDiff(out, before, list.DebugJSON())
		}
	}

	fmt.Fprintf(out, "snapshot %s\n", list.DebugJSON())
	if !opts.quiet {
		env.success("replayed %d steps from %s (%d splices shown)", len(script.Steps), script.Name, shown)
	}
	return nil
}

// spliceFilter is a compiled --where expression. A nil filter matches
// everything.
type spliceFilter struct {
	program *vm.Program
}

func compileFilter(src string) (*spliceFilter, error) {
	if strings.TrimSpace(src) == "" {
		return nil, nil
	}
	program, err := expr.Compile(src, expr.Env(filterEnv(0, nil)), expr.AsBool())
	if err != nil {
		return nil, errors.New("E220").
			Wrap(err).
			WithExample("--where 'len(added) > 0'\n--where 'index == 0 && len(removed) > 0'")
	}
	return &spliceFilter{program: program}, nil
}

func (f *spliceFilter) match(step int, e *statetree.SpliceEvent[any]) (bool, error) {
	if f == nil {
		return true, nil
	}
	out, err := expr.Run(f.program, filterEnv(step, e))
	if err != nil {
		return false, err
	}
	ok, _ := out.(bool)
	return ok, nil
}

func filterEnv(step int, e *statetree.SpliceEvent[any]) map[string]any {
	env := map[string]any{
		"step":    step,
		"index":   0,
		"removed": []any{},
		"added":   []any{},
	}
	if e != nil {
		env["index"] = e.Index
		env["removed"] = e.Removed
		env["added"] = e.Added
	}
	return env
}

// writeDiff prints a line diff between two indented JSON documents.
func writeDiff(w io.Writer, before, after json.RawMessage) {
	from, to := indent(before), indent(after)
	if from == to {
		return
	}

	dmp := diffpatch.New()
	a, b, lines := dmp.DiffLinesToChars(from, to)
	diffs := dmp.DiffCharsToLines(dmp.DiffMain(a, b, false), lines)

	for _, d := range diffs {
		prefix := " "
		paint := gray
		switch d.Type {
		case diffpatch.DiffInsert:
			prefix, paint = "+", green
		case diffpatch.DiffDelete:
			prefix, paint = "-", red
		}
		for _, line := range strings.SplitAfter(d.Text, "\n") {
			if line == "" {
				continue
			}
			fmt.Fprint(w, paint(prefix+" "+strings.TrimSuffix(line, "\n")), "\n")
		}
	}
}

func indent(raw json.RawMessage) string {
	var buf bytes.Buffer
	if err := json.Indent(&buf, raw, "", "  "); err != nil {
		return string(raw) + "\n"
	}
	buf.WriteByte('\n')
	return buf.String()
}

func mustJSON(v any) string {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprintf("%q", fmt.Sprint(v))
	}
	return string(data)
}
