package client

import (
	"github.com/spf13/cobra"
)

// NewRoot constructs a root Cobra command for the Rivet client.
// It registers the task, worker, signal, deadletter, and health groups.
func NewRoot(baseURL BaseURLFunc) *cobra.Command {
	root := &cobra.Command{
		Use:   "rivet",
		Short: "Rivet task queue commands",
	}
	root.AddCommand(NewTaskCommand(baseURL))
	root.AddCommand(NewSignalCommand(baseURL))
	root.AddCommand(NewWorkerCommand(baseURL))
	root.AddCommand(NewDeadLetterCommand(baseURL))
	root.AddCommand(NewHealthCommand(baseURL))
	return root
}
