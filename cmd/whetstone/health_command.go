package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"whetstone/internal/preflight"
)

func newHealthCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Run local preflight checks (directories, provider, credential)",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			results := preflight.RunAll(cfg)
			if ctx.JSONMode() {
				return writeJSON(cmd, results)
			}

			stdout := cmd.OutOrStdout()
			colorize := shouldColorize(stdout)
			for _, line := range renderSectionHeader("Preflight", colorize) {
				fmt.Fprintln(stdout, line)
			}
			for _, result := range results {
				fmt.Fprintln(stdout, renderStatusLine(result.Name, checkKind(result.Passed), result.Detail, colorize))
			}

			if !preflight.Ready(results) {
				return fmt.Errorf("one or more preflight checks failed")
			}
			fmt.Fprintln(stdout, "All checks passed")
			return nil
		},
	}
}
