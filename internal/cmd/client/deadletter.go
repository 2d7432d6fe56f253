package client

import (
	"fmt"

	"github.com/spf13/cobra"

	rivet "github.com/rivetq/rivet/pkg/client"
)

// NewDeadLetterCommand constructs the `deadletter` command group.
func NewDeadLetterCommand(baseURL BaseURLFunc) *cobra.Command {
	dlCmd := &cobra.Command{
		Use:     "deadletter",
		Aliases: []string{"dlq"},
		Short:   "Inspect tasks that exhausted their retries",
	}
	dlCmd.AddCommand(newDeadLetterListCommand(baseURL))
	return dlCmd
}

// newDeadLetterListCommand constructs the `deadletter list` subcommand.
func newDeadLetterListCommand(baseURL BaseURLFunc) *cobra.Command {
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List dead-lettered tasks",
		RunE: func(cmd *cobra.Command, _ []string) error {
			queue, _ := cmd.Flags().GetString("queue")
			limit, _ := cmd.Flags().GetInt("limit")
			offset, _ := cmd.Flags().GetInt("offset")

			letters, err := newAPIClient(baseURL).ListDeadLetters(cmd.Context(), rivet.ListDeadLettersParams{
				QueueName: queue,
				Limit:     limit,
				Offset:    offset,
			})
			if err != nil {
				return err
			}
			return printJSON(cmd, letters)
		},
	}
	listCmd.Flags().StringP("queue", "q", "", "Filter by queue")
	listCmd.Flags().Int("limit", 50, "Maximum rows")
	listCmd.Flags().Int("offset", 0, "Rows to skip")
	return listCmd
}

// NewHealthCommand constructs the `health` command.
func NewHealthCommand(baseURL BaseURLFunc) *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Check server health",
		RunE: func(cmd *cobra.Command, _ []string) error {
			status, err := newAPIClient(baseURL).Health(cmd.Context())
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), "status:", status)
			return nil
		},
	}
}
