package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"whetstone/internal/ipc"
)

func newClassifyCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "classify <text>",
		Short: "Detect the dominant format of a response",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			text := strings.TrimSpace(strings.Join(args, " "))
			return ctx.withClient(func(client *ipc.Client) error {
				result, err := client.Classify(text)
				if err != nil {
					return err
				}
				if ctx.JSONMode() {
					return writeJSON(cmd, result)
				}

				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Detected format: %s (confidence %.0f%%)\n", result.Format, result.Confidence*100)
				if result.UsedFallback {
					fmt.Fprintln(out, "Response was recovered from malformed model output; review before use.")
				}
				return nil
			})
		},
	}
}
