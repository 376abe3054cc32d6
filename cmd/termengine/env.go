package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dshills/termengine/internal/integration/pty"
	"github.com/dshills/termengine/internal/version"
)

func newEnvCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "env",
		Short: "Print the environment a spawned shell would receive",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			shell := pty.DetectShell(a.cfg.Shell)
			env := a.cfg.ChildEnvironment(programName, version.Current())

			vars, warnings := pty.BuildEnvironment(env, shell)
			for _, w := range warnings {
				a.logger.Warn("environment", "warning", w)
			}

			out := cmd.OutOrStdout()
			for _, kv := range vars {
				if _, err := fmt.Fprintln(out, kv); err != nil {
					return err
				}
			}
			return nil
		},
	}
}
