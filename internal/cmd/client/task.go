package client

import (
	"github.com/spf13/cobra"

	rivet "github.com/rivetq/rivet/pkg/client"
)

// NewTaskCommand constructs the `task` command group and subcommands.
func NewTaskCommand(baseURL BaseURLFunc) *cobra.Command {
	taskCmd := &cobra.Command{
		Use:   "task",
		Short: "Task operations (create, inspect, cancel)",
		Long: `Task operations against the Rivet REST API.

Lifecycle Commands:
  create      Enqueue a new task
  get         Show one task by id
  list        List tasks with filters
  cancel      Request cancellation of a task

Inspection:
  runs        List execution attempts of a task
  logs        Show logs recorded by a run`,
	}

	taskCmd.AddCommand(
		newTaskCreateCommand(baseURL),
		newTaskGetCommand(baseURL),
		newTaskListCommand(baseURL),
		newTaskCancelCommand(baseURL),
		newTaskRunsCommand(baseURL),
		newTaskLogsCommand(baseURL),
	)
	return taskCmd
}

// newTaskCreateCommand constructs the `task create` subcommand.
func newTaskCreateCommand(baseURL BaseURLFunc) *cobra.Command {
	createCmd := &cobra.Command{
		Use:   "create",
		Short: "Enqueue a task",
		RunE: func(cmd *cobra.Command, _ []string) error {
			queue, _ := cmd.Flags().GetString("queue")
			name, _ := cmd.Flags().GetString("name")
			input, _ := cmd.Flags().GetString("input")
			metadata, _ := cmd.Flags().GetString("metadata")
			priority, _ := cmd.Flags().GetInt("priority")
			maxRetries, _ := cmd.Flags().GetInt("max-retries")
			timeout, _ := cmd.Flags().GetInt("timeout-seconds")
			idemKey, _ := cmd.Flags().GetString("idempotency-key")
			scheduledAt, _ := cmd.Flags().GetString("scheduled-at")

			inputVal, err := parseJSONFlag("input", input)
			if err != nil {
				return err
			}
			metaVal, err := parseJSONFlag("metadata", metadata)
			if err != nil {
				return err
			}

			req := rivet.CreateTaskRequest{
				QueueName:      queue,
				TaskName:       name,
				Input:          inputVal,
				Metadata:       metaVal,
				IdempotencyKey: idemKey,
				ScheduledAt:    scheduledAt,
			}
			if cmd.Flags().Changed("priority") {
				req.Priority = &priority
			}
			if cmd.Flags().Changed("max-retries") {
				req.MaxRetries = &maxRetries
			}
			if cmd.Flags().Changed("timeout-seconds") {
				req.TimeoutSeconds = &timeout
			}

			task, err := newAPIClient(baseURL).CreateTask(cmd.Context(), req)
			if err != nil {
				return err
			}
			return printJSON(cmd, task)
		},
	}
	createCmd.Flags().StringP("queue", "q", "default", "Queue name")
	createCmd.Flags().String("name", "", "Task name")
	createCmd.Flags().String("input", "", "Task input as JSON")
	createCmd.Flags().String("metadata", "", "Task metadata as JSON")
	createCmd.Flags().Int("priority", 0, "Scheduling priority (higher first)")
	createCmd.Flags().Int("max-retries", 0, "Maximum retry attempts")
	createCmd.Flags().Int("timeout-seconds", 0, "Per-attempt timeout")
	createCmd.Flags().String("idempotency-key", "", "Deduplication key")
	createCmd.Flags().String("scheduled-at", "", "Earliest run time (RFC3339)")
	_ = createCmd.MarkFlagRequired("name")
	return createCmd
}

// newTaskGetCommand constructs the `task get` subcommand.
func newTaskGetCommand(baseURL BaseURLFunc) *cobra.Command {
	return &cobra.Command{
		Use:   "get <task-id>",
		Short: "Show a task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			task, err := newAPIClient(baseURL).GetTask(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return printJSON(cmd, task)
		},
	}
}

// newTaskListCommand constructs the `task list` subcommand.
func newTaskListCommand(baseURL BaseURLFunc) *cobra.Command {
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List tasks",
		RunE: func(cmd *cobra.Command, _ []string) error {
			queue, _ := cmd.Flags().GetString("queue")
			status, _ := cmd.Flags().GetString("status")
			limit, _ := cmd.Flags().GetInt("limit")
			offset, _ := cmd.Flags().GetInt("offset")

			tasks, err := newAPIClient(baseURL).ListTasks(cmd.Context(), rivet.ListTasksParams{
				QueueName: queue,
				Status:    status,
				Limit:     limit,
				Offset:    offset,
			})
			if err != nil {
				return err
			}
			return printJSON(cmd, tasks)
		},
	}
	listCmd.Flags().StringP("queue", "q", "", "Filter by queue")
	listCmd.Flags().String("status", "", "Filter by status (pending, running, completed, failed, cancelled)")
	listCmd.Flags().Int("limit", 50, "Maximum rows")
	listCmd.Flags().Int("offset", 0, "Rows to skip")
	return listCmd
}

// newTaskCancelCommand constructs the `task cancel` subcommand.
func newTaskCancelCommand(baseURL BaseURLFunc) *cobra.Command {
	return &cobra.Command{
		Use:   "cancel <task-id>",
		Short: "Cancel a task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			task, err := newAPIClient(baseURL).CancelTask(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return printJSON(cmd, task)
		},
	}
}

// newTaskRunsCommand constructs the `task runs` subcommand.
func newTaskRunsCommand(baseURL BaseURLFunc) *cobra.Command {
	return &cobra.Command{
		Use:   "runs <task-id>",
		Short: "List execution attempts of a task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			runs, err := newAPIClient(baseURL).GetTaskRuns(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return printJSON(cmd, runs)
		},
	}
}

// newTaskLogsCommand constructs the `task logs` subcommand.
func newTaskLogsCommand(baseURL BaseURLFunc) *cobra.Command {
	logsCmd := &cobra.Command{
		Use:   "logs <task-id> <run-id>",
		Short: "Show logs from a task run",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			limit, _ := cmd.Flags().GetInt("limit")
			afterID, _ := cmd.Flags().GetString("after-id")

			logs, err := newAPIClient(baseURL).GetRunLogs(cmd.Context(), args[0], args[1], rivet.GetRunLogsParams{
				Limit:   limit,
				AfterID: afterID,
			})
			if err != nil {
				return err
			}
			return printJSON(cmd, logs)
		},
	}
	logsCmd.Flags().Int("limit", 100, "Maximum rows")
	logsCmd.Flags().String("after-id", "", "Page after this log id")
	return logsCmd
}
