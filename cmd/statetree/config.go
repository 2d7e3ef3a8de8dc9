package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/vango-dev/statetree/internal/config"
	"github.com/vango-dev/statetree/internal/errors"
)

func configCmd(env *cliEnv) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show or create statetree.json",
	}
	cmd.AddCommand(configShowCmd(env), configInitCmd(env))
	return cmd
}

func configShowCmd(env *cliEnv) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration",
		Long: `Print the configuration after defaults and --set overrides are applied.

Examples:
  statetree config show
  statetree config show --set log.level=debug
  statetree config show --set '{"inspect":{"streamBuffer":256}}'`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := json.MarshalIndent(env.cfg, "", "  ")
			if err != nil {
				return err
			}
			fmt.Fprintln(env.out, string(data))

			if p := env.cfg.Path(); p != "" {
				env.info("%s", gray("from "+p))
			} else {
				env.info("%s", gray("defaults (no "+config.ConfigFileName+" found)"))
			}
			return nil
		},
	}
}

func configInitCmd(env *cliEnv) *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init [dir]",
		Short: "Write a default statetree.json",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) > 0 {
				dir = args[0]
			}

			if config.Exists(dir) && !force {
				env.warn("%s already exists in %s (use --force to overwrite)", config.ConfigFileName, dir)
				return nil
			}
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return errors.New("E120").Wrap(err)
			}

			path := filepath.Join(dir, config.ConfigFileName)
			if err := config.New().SaveTo(path); err != nil {
				return err
			}
			env.success("wrote %s", path)
			return nil
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, "Overwrite an existing file")

	return cmd
}
