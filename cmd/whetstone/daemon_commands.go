package main

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"whetstone/internal/daemonctl"
	"whetstone/internal/ipc"
)

func newDaemonCommands(ctx *commandContext) []*cobra.Command {
	startCmd := &cobra.Command{
		Use:   "start",
		Short: "Start the whetstone daemon",
		RunE: func(cmd *cobra.Command, args []string) error {
			stdout := cmd.OutOrStdout()
			exe, err := daemonExecutable()
			if err != nil {
				return err
			}

			result, err := daemonctl.EnsureStarted(
				ctx.socketPath(),
				exe,
				daemonLaunchOptions(ctx),
				10*time.Second,
			)
			if err != nil {
				return err
			}

			if result.Launched {
				fmt.Fprintln(stdout, "Daemon not running, launching...")
			}

			switch result.State {
			case daemonctl.StartStateStarted:
				fmt.Fprintln(stdout, "Daemon started")
			case daemonctl.StartStateAlreadyRunning:
				fmt.Fprintln(stdout, "Daemon already running")
			case daemonctl.StartStateRequested:
				if strings.TrimSpace(result.Message) != "" {
					fmt.Fprintln(stdout, result.Message)
					return nil
				}
				fmt.Fprintln(stdout, "Start request sent")
			}
			return nil
		},
	}

	stopCmd := &cobra.Command{
		Use:   "stop",
		Short: "Stop the whetstone daemon (completely terminates the process)",
		RunE: func(cmd *cobra.Command, args []string) error {
			stdout := cmd.OutOrStdout()
			result, err := daemonctl.StopAndTerminate(ctx.socketPath(), ctx.configValue(), 5*time.Second)
			if errors.Is(err, daemonctl.ErrDaemonNotRunning) {
				fmt.Fprintln(stdout, "Daemon is not running")
				return nil
			}
			if err != nil {
				return err
			}
			if !result.StopAcknowledged {
				fmt.Fprintln(stdout, "Stop request sent")
			}
			if result.ForcedKill && result.PID > 0 {
				fmt.Fprintf(stdout, "Stopping daemon process (pid %d)...\n", result.PID)
			}
			fmt.Fprintln(stdout, "Daemon stopped")
			return nil
		},
	}

	restartCmd := &cobra.Command{
		Use:   "restart",
		Short: "Restart the whetstone daemon",
		RunE: func(cmd *cobra.Command, args []string) error {
			stdout := cmd.OutOrStdout()
			exe, err := daemonExecutable()
			if err != nil {
				return err
			}

			result, err := daemonctl.Restart(
				ctx.socketPath(),
				ctx.configValue(),
				exe,
				daemonLaunchOptions(ctx),
				5*time.Second,
				10*time.Second,
			)
			if err != nil {
				return err
			}

			if result.WasRunning {
				if result.Stop.ForcedKill && result.Stop.PID > 0 {
					fmt.Fprintf(stdout, "Stopping daemon process (pid %d)...\n", result.Stop.PID)
				}
				fmt.Fprintln(stdout, "Daemon stopped")
			}

			switch result.Start.State {
			case daemonctl.StartStateStarted, daemonctl.StartStateAlreadyRunning:
				fmt.Fprintln(stdout, "Daemon restarted")
			case daemonctl.StartStateRequested:
				if strings.TrimSpace(result.Start.Message) != "" {
					fmt.Fprintln(stdout, result.Start.Message)
					return nil
				}
				fmt.Fprintln(stdout, "Start request sent")
			}
			return nil
		},
	}

	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Show daemon, request, and preflight status",
		RunE: func(cmd *cobra.Command, args []string) error {
			statusResp, err := daemonctl.BuildStatusSnapshot(ctx.socketPath(), ctx.configValue())
			if err != nil {
				return err
			}
			if ctx.JSONMode() {
				return writeJSON(cmd, statusResp)
			}
			renderStatus(cmd, statusResp)
			return nil
		},
	}

	return []*cobra.Command{startCmd, stopCmd, restartCmd, statusCmd}
}

func renderStatus(cmd *cobra.Command, status *ipc.StatusResponse) {
	stdout := cmd.OutOrStdout()
	colorize := shouldColorize(stdout)

	for _, line := range renderSectionHeader("Daemon", colorize) {
		fmt.Fprintln(stdout, line)
	}
	if status.Running {
		fmt.Fprintln(stdout, renderStatusLine("Whetstone", statusOK, "Running", colorize))
	} else {
		fmt.Fprintln(stdout, renderStatusLine("Whetstone", statusWarn, "Not running (run `whetstone start`)", colorize))
	}
	provider := status.Provider
	if strings.TrimSpace(status.Model) != "" {
		provider = fmt.Sprintf("%s (model %s)", provider, status.Model)
	}
	fmt.Fprintln(stdout, renderStatusLine("Provider", statusInfo, provider, colorize))
	if status.Running {
		fmt.Fprintln(stdout, renderStatusLine("Session", statusInfo, status.SessionID, colorize))
		if status.StartedAt != "" {
			fmt.Fprintln(stdout, renderStatusLine("Started", statusInfo, status.StartedAt, colorize))
		}
	}
	fmt.Fprintln(stdout, renderStatusLine("Log file", statusInfo, status.LogPath, colorize))
	fmt.Fprintln(stdout, renderStatusLine("Socket", statusInfo, status.SocketPath, colorize))
	if last := strings.TrimSpace(status.LastError); last != "" {
		fmt.Fprintln(stdout, renderStatusLine("Last error", statusWarn, last, colorize))
	}
	fmt.Fprintln(stdout)

	for _, line := range renderSectionHeader("Checks", colorize) {
		fmt.Fprintln(stdout, line)
	}
	for _, check := range status.Checks {
		fmt.Fprintln(stdout, renderStatusLine(check.Name, checkKind(check.Passed), check.Detail, colorize))
	}
	fmt.Fprintln(stdout)

	for _, line := range renderSectionHeader("Requests", colorize) {
		fmt.Fprintln(stdout, line)
	}
	if !status.Running {
		fmt.Fprintln(stdout, "Daemon offline; request counters unavailable")
		return
	}
	rows := [][]string{
		{"Attempts", strconv.FormatInt(status.Requests.Attempts, 10)},
		{"Retries", strconv.FormatInt(status.Requests.Retries, 10)},
		{"Successes", strconv.FormatInt(status.Requests.Successes, 10)},
		{"Failures", strconv.FormatInt(status.Requests.Failures, 10)},
		{"Parse fallbacks", strconv.FormatInt(status.Requests.ParseFallbacks, 10)},
	}
	table := renderTable([]string{"Counter", "Count"}, rows, []columnAlignment{alignLeft, alignRight})
	fmt.Fprintln(stdout, table)
}

func daemonExecutable() (string, error) {
	exe, err := os.Executable()
	if err != nil {
		return "", fmt.Errorf("resolve executable: %w", err)
	}
	return exe, nil
}

func daemonLaunchOptions(ctx *commandContext) daemonctl.LaunchOptions {
	opts := daemonctl.LaunchOptions{}
	if ctx.socketFlag != nil {
		if socket := strings.TrimSpace(*ctx.socketFlag); socket != "" {
			opts.SocketPath = socket
		}
	}
	if ctx.configFlag != nil {
		if config := strings.TrimSpace(*ctx.configFlag); config != "" {
			opts.ConfigPath = config
		}
	}
	return opts
}
