package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/fatih/color"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/vango-dev/statetree/internal/config"
	"github.com/vango-dev/statetree/internal/errors"
	"github.com/vango-dev/statetree/pkg/observe"
	"github.com/vango-dev/statetree/pkg/reactive"
)

// Version information set at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// cliEnv is the state shared by all commands, filled in before any of them
// runs.
type cliEnv struct {
	configPath string
	overrides  []string
	noColor    bool

	cfg    *config.Config
	logger *slog.Logger
	out    io.Writer
}

func main() {
	env := &cliEnv{out: os.Stdout}
	rootCmd := newRootCmd(env)

	if err := rootCmd.Execute(); err != nil {
		errors.PrintError(err)
		os.Exit(1)
	}
}

func newRootCmd(env *cliEnv) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "statetree",
		Short: "Replay and inspect reactive state trees",
		Long: `statetree drives a reactive state tree from splice scripts.

Scripts are YAML or JSON documents listing list mutations:

  name: todo
  steps:
    - {op: splice, index: 0, add: [a, b, c]}
    - {op: splice, index: 1, remove: 1}
    - {op: set, index: 0, value: x}

Use 'replay' to print the splices a script produces and 'inspect' to
serve the resulting tree over HTTP.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return env.setup()
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&env.configPath, "config", "c", "", "Path to statetree.json (default: nearest in the working directory or its parents)")
	flags.StringArrayVar(&env.overrides, "set", nil, "Override a config value: key.path=value or a JSON merge patch (repeatable)")
	flags.BoolVar(&env.noColor, "no-color", false, "Disable colored output")

	rootCmd.AddCommand(
		replayCmd(env),
		inspectCmd(env),
		configCmd(env),
		versionCmd(env),
	)

	return rootCmd
}

// setup resolves the configuration and builds the logger.
func (e *cliEnv) setup() error {
	if e.noColor {
		color.NoColor = true
	}

	cfg, err := config.Resolve(e.configPath)
	if err != nil {
		return err
	}
	if err := cfg.ApplyOverrides(e.overrides...); err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	e.cfg = cfg
	e.logger = cfg.Logger(os.Stderr)
	return nil
}

// newTracker builds a tracker with the observers enabled in the config.
// Metrics are registered on reg.
func (e *cliEnv) newTracker(reg prometheus.Registerer) *reactive.Tracker {
	var observers []reactive.Observer
	if e.cfg.Metrics.Enabled && reg != nil {
		observers = append(observers, observe.NewMetrics(
			observe.WithRegistry(reg),
			observe.WithNamespace(e.cfg.Metrics.Namespace),
		))
	}
	if e.cfg.Tracing.Enabled {
		observers = append(observers, observe.NewTracing(
			observe.WithTracerName(e.cfg.Tracing.TracerName),
		))
	}

	return reactive.NewTracker(
		reactive.WithLogger(e.logger),
		reactive.WithObserver(reactive.Observers(observers...)),
	)
}

var (
	green  = color.New(color.FgGreen).SprintFunc()
	yellow = color.New(color.FgYellow).SprintFunc()
	red    = color.New(color.FgRed).SprintFunc()
	gray   = color.New(color.FgHiBlack).SprintFunc()
)

// success prints a success message.
func (e *cliEnv) success(format string, args ...any) {
	fmt.Fprintf(e.out, "%s %s\n", green("✓"), fmt.Sprintf(format, args...))
}

// info prints an info message.
func (e *cliEnv) info(format string, args ...any) {
	fmt.Fprintf(e.out, "  %s\n", fmt.Sprintf(format, args...))
}

// warn prints a warning message.
func (e *cliEnv) warn(format string, args ...any) {
	fmt.Fprintf(e.out, "%s %s\n", yellow("⚠"), fmt.Sprintf(format, args...))
}
