package client

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewSignalCommand constructs the `signal` command group.
func NewSignalCommand(baseURL BaseURLFunc) *cobra.Command {
	signalCmd := &cobra.Command{
		Use:   "signal",
		Short: "Send signals to running tasks",
	}
	signalCmd.AddCommand(
		newSignalSendCommand(baseURL),
		newSignalListCommand(baseURL),
	)
	return signalCmd
}

// newSignalSendCommand constructs the `signal send` subcommand.
func newSignalSendCommand(baseURL BaseURLFunc) *cobra.Command {
	sendCmd := &cobra.Command{
		Use:   "send <task-id> <name>",
		Short: "Send a named signal to a running task",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			payload, _ := cmd.Flags().GetString("payload")
			payloadVal, err := parseJSONFlag("payload", payload)
			if err != nil {
				return err
			}

			resp, err := newAPIClient(baseURL).SendSignal(cmd.Context(), args[0], args[1], payloadVal)
			if err != nil {
				return err
			}
			if !resp.Delivered {
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), "signal queued; task has no live worker session")
			}
			return printJSON(cmd, resp)
		},
	}
	sendCmd.Flags().String("payload", "", "Signal payload as JSON")
	return sendCmd
}

// newSignalListCommand constructs the `signal list` subcommand.
func newSignalListCommand(baseURL BaseURLFunc) *cobra.Command {
	return &cobra.Command{
		Use:   "list <task-id>",
		Short: "List signals sent to a task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			signals, err := newAPIClient(baseURL).ListSignals(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return printJSON(cmd, signals)
		},
	}
}
