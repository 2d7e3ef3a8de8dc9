package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/vango-dev/statetree/internal/errors"
	"github.com/vango-dev/statetree/pkg/inspect"
	"github.com/vango-dev/statetree/pkg/statetree"
)

type inspectOptions struct {
	address   string
	stepDelay time.Duration
}

func inspectCmd(env *cliEnv) *cobra.Command {
	var opts inspectOptions

	cmd := &cobra.Command{
		Use:   "inspect [script]",
		Short: "Serve a state tree over HTTP",
		Long: `Serve a state tree over HTTP for debugging tools.

When a script is given it is applied to list 1 of node 1. With --step-delay
the steps are applied one at a time so splice streams can be watched live.

Endpoints:
  GET /tree                                      whole tree as debug JSON
  GET /nodes/{node}                              one node
  GET /nodes/{node}/namespaces/{ns}              one namespace
  GET /nodes/{node}/namespaces/{ns}/splices      websocket splice stream
  GET /metrics                                   Prometheus metrics

Examples:
  statetree inspect
  statetree inspect todo.yaml --step-delay 500ms
  statetree inspect --address :9090`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var path string
			if len(args) > 0 {
				path = args[0]
			}
			return runInspect(cmd.Context(), env, path, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.address, "address", "a", "", "Listen address (default from config)")
	cmd.Flags().DurationVar(&opts.stepDelay, "step-delay", 0, "Pause between script steps")

	return cmd
}

func runInspect(ctx context.Context, env *cliEnv, path string, opts inspectOptions) error {
	var script *statetree.Script
	if path != "" {
		var err error
		if script, err = loadScript(path); err != nil {
			return err
		}
	}

	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	reg := prometheus.NewRegistry()
	tree := statetree.NewTree(env.newTracker(reg))
	list := tree.NewNode().List(1)

	loop := inspect.NewLoop()
	defer loop.Close()

	serverOpts := []inspect.Option{
		inspect.WithLogger(env.logger),
		inspect.WithStreamBuffer(env.cfg.Inspect.StreamBuffer),
	}
	if env.cfg.Metrics.Enabled {
		serverOpts = append(serverOpts, inspect.WithGatherer(reg))
	}
	server := inspect.NewServer(loop, tree, serverOpts...)

	address := opts.address
	if address == "" {
		address = env.cfg.Inspect.Address
	}

	if script != nil {
		go func() {
			if err := playScript(ctx, loop, list, script, opts.stepDelay); err != nil {
				errors.Fprint(os.Stderr, err)
				return
			}
			env.logger.Info("inspect: script applied", "script", script.Name, "steps", len(script.Steps))
		}()
	}

	env.success("inspecting at %s", "http://"+address)
	env.info("press Ctrl+C to stop")

	if err := server.ListenAndServe(ctx, address); err != nil {
		return errors.New("E240").
			Wrap(err).
			WithDetail("Could not serve on " + address)
	}
	return nil
}

// playScript applies script on the loop. With a delay each step runs as its
// own task so streams observe the splices one at a time.
func playScript(ctx context.Context, loop *inspect.Loop, list *statetree.ListNamespace[any], script *statetree.Script, delay time.Duration) error {
	for i, step := range script.Steps {
		if i > 0 && delay > 0 {
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(delay):
			}
		}

		// stepErr is written on the loop and only read once Do has returned
		// without error, after the task completed.
		var stepErr error
		doErr := loop.Do(ctx, func() {
			if err := step.Apply(list); err != nil {
				stepErr = stepError(i, step, list.Length(), err)
			}
		})
		if doErr != nil {
			if ctx.Err() != nil {
				return nil
			}
			return doErr
		}
		if stepErr != nil {
			return stepErr
		}
	}
	return nil
}
