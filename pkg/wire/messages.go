package wire

// LogLevel is the severity of a task log entry, as transmitted on the wire.
type LogLevel int

// Wire log levels.
const (
	LogLevelDebug LogLevel = 1
	LogLevelInfo  LogLevel = 2
	LogLevelWarn  LogLevel = 3
	LogLevelError LogLevel = 4
)

// String returns the lowercase level name.
func (l LogLevel) String() string {
	switch l {
	case LogLevelDebug:
		return "debug"
	case LogLevelInfo:
		return "info"
	case LogLevelWarn:
		return "warn"
	case LogLevelError:
		return "error"
	default:
		return "unknown"
	}
}

// Hello is the first frame of every session; it identifies the worker.
type Hello struct {
	WorkerID    string   `json:"worker_id"`
	WorkerName  string   `json:"worker_name"`
	Queues      []string `json:"queues"`
	Concurrency int      `json:"concurrency"`
	Metadata    string   `json:"metadata,omitempty"`
}

// Heartbeat reports liveness and the set of in-flight task ids.
type Heartbeat struct {
	ActiveTaskIDs []string `json:"active_task_ids"`
	TimestampMs   int64    `json:"timestamp_ms"`
}

// TaskResult is the single outcome produced for a task assignment.
type TaskResult struct {
	TaskID       string `json:"task_id"`
	TaskRunID    string `json:"task_run_id"`
	Success      bool   `json:"success"`
	Retryable    bool   `json:"retryable"`
	Output       string `json:"output,omitempty"`
	ErrorMessage string `json:"error_message,omitempty"`
}

// LogEntry is one task log line.
type LogEntry struct {
	TaskRunID   string   `json:"task_run_id"`
	TimestampMs int64    `json:"timestamp_ms"`
	Level       LogLevel `json:"level"`
	Message     string   `json:"message"`
}

// LogBatch carries one or more log entries; delivery is fire-and-forget.
type LogBatch struct {
	Entries []LogEntry `json:"entries"`
}

// SignalAck acknowledges consumption of a delivered signal.
type SignalAck struct {
	SignalID string `json:"signal_id"`
}

// GracefulShutdown notifies the server that the worker is draining.
type GracefulShutdown struct {
	Reason string `json:"reason,omitempty"`
}

// TaskAssignment grants this worker one execution attempt of a task.
type TaskAssignment struct {
	TaskID        string `json:"task_id"`
	TaskRunID     string `json:"task_run_id"`
	QueueName     string `json:"queue_name"`
	TaskName      string `json:"task_name"`
	AttemptNumber int    `json:"attempt_number"`
	Input         string `json:"input,omitempty"`
	Metadata      string `json:"metadata,omitempty"`
}

// TaskCancellation asks the worker to stop a running task. Advisory; a
// no-op if the task already completed.
type TaskCancellation struct {
	TaskID string `json:"task_id"`
	Reason string `json:"reason,omitempty"`
}

// SignalDelivery carries a named signal to a running task.
type SignalDelivery struct {
	SignalID string `json:"signal_id"`
	TaskID   string `json:"task_id"`
	Name     string `json:"name"`
	Payload  string `json:"payload,omitempty"`
}

// ServerShutdown tells the worker the server is going away; the worker
// drains and disconnects.
type ServerShutdown struct {
	Reason string `json:"reason,omitempty"`
}

// HeartbeatAck confirms receipt of a heartbeat. No payload.
type HeartbeatAck struct{}
