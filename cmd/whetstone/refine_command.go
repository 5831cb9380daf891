package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"whetstone/internal/ipc"
)

func newRefineCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "refine <prompt>",
		Short: "Rewrite a prompt for clarity and specificity",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			prompt := strings.TrimSpace(strings.Join(args, " "))
			return ctx.withClient(func(client *ipc.Client) error {
				result, err := client.Refine(prompt)
				if err != nil {
					return err
				}
				if ctx.JSONMode() {
					return writeJSON(cmd, result)
				}

				out := cmd.OutOrStdout()
				fmt.Fprintln(out, result.Refined)
				if len(result.Notes) > 0 {
					fmt.Fprintln(out)
					fmt.Fprintln(out, "Notes:")
					for _, note := range result.Notes {
						fmt.Fprintf(out, "  - %s\n", note)
					}
				}
				if result.UsedFallback {
					fmt.Fprintln(out)
					fmt.Fprintln(out, "Response was recovered from malformed model output; review before use.")
				}
				return nil
			})
		},
	}
}
