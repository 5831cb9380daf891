package main

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"whetstone/internal/ipc"
)

func newScoreCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "score <prompt>",
		Short: "Grade a prompt on clarity, specificity, and completeness",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			prompt := strings.TrimSpace(strings.Join(args, " "))
			return ctx.withClient(func(client *ipc.Client) error {
				result, err := client.Score(prompt)
				if err != nil {
					return err
				}
				if ctx.JSONMode() {
					return writeJSON(cmd, result)
				}

				out := cmd.OutOrStdout()
				axes := make([]string, 0, len(result.Axes))
				for axis := range result.Axes {
					axes = append(axes, axis)
				}
				sort.Strings(axes)

				rows := make([][]string, 0, len(axes))
				for _, axis := range axes {
					rows = append(rows, []string{titleLabel(axis), strconv.Itoa(result.Axes[axis])})
				}
				if len(rows) > 0 {
					table := renderTable([]string{"Axis", "Score"}, rows, []columnAlignment{alignLeft, alignRight})
					fmt.Fprintln(out, table)
				}

				fmt.Fprintf(out, "Total: %d/100\n", result.Total)
				if len(result.Advice) > 0 {
					fmt.Fprintln(out)
					fmt.Fprintln(out, "Advice:")
					for _, item := range result.Advice {
						fmt.Fprintf(out, "  - %s\n", item)
					}
				}
				if result.UsedFallback {
					fmt.Fprintln(out, "Response was recovered from malformed model output; review before use.")
				}
				return nil
			})
		},
	}
}
