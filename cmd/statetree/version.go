package main

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"
)

func versionCmd(env *cliEnv) *cobra.Command {
	var short bool

	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Long:  `Print version, commit, and build information for the statetree CLI.`,
		Run: func(cmd *cobra.Command, args []string) {
			if short {
				fmt.Fprintln(env.out, version)
				return
			}

			fmt.Fprintf(env.out, "  Version:    %s\n", version)
			fmt.Fprintf(env.out, "  Commit:     %s\n", commit)
			fmt.Fprintf(env.out, "  Built:      %s\n", date)
			fmt.Fprintf(env.out, "  Go version: %s\n", runtime.Version())
			fmt.Fprintf(env.out, "  OS/Arch:    %s/%s\n", runtime.GOOS, runtime.GOARCH)
		},
	}

	cmd.Flags().BoolVarP(&short, "short", "s", false, "Print only version number")

	return cmd
}
