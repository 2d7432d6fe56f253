package client

import "encoding/json"

// Task is a task record returned by the REST API.
type Task struct {
	ID             string          `json:"id"`
	QueueName      string          `json:"queue_name"`
	TaskName       string          `json:"task_name"`
	Status         string          `json:"status"`
	Priority       int             `json:"priority"`
	MaxRetries     int             `json:"max_retries"`
	AttemptCount   int             `json:"attempt_count"`
	TimeoutSeconds int             `json:"timeout_seconds"`
	IdempotencyKey *string         `json:"idempotency_key,omitempty"`
	Input          json.RawMessage `json:"input,omitempty"`
	Metadata       json.RawMessage `json:"metadata,omitempty"`
	Output         json.RawMessage `json:"output,omitempty"`
	ErrorMessage   *string         `json:"error_message,omitempty"`
	ScheduledAt    *string         `json:"scheduled_at,omitempty"`
	CreatedAt      string          `json:"created_at"`
	UpdatedAt      string          `json:"updated_at"`
}

// TaskRun is one execution attempt of a task.
type TaskRun struct {
	ID             string          `json:"id"`
	TaskID         string          `json:"task_id"`
	AttemptNumber  int             `json:"attempt_number"`
	WorkerID       *string         `json:"worker_id,omitempty"`
	Status         string          `json:"status"`
	Output         json.RawMessage `json:"output,omitempty"`
	ErrorMessage   *string         `json:"error_message,omitempty"`
	LeaseExpiresAt *string         `json:"lease_expires_at,omitempty"`
	StartedAt      *string         `json:"started_at,omitempty"`
	CompletedAt    *string         `json:"completed_at,omitempty"`
	LastHeartbeat  *string         `json:"last_heartbeat,omitempty"`
}

// TaskLog is a log entry recorded during a task run.
type TaskLog struct {
	ID          string `json:"id"`
	TaskRunID   string `json:"task_run_id"`
	TimestampMs int64  `json:"timestamp_ms"`
	Level       string `json:"level"`
	Message     string `json:"message"`
}

// WorkerInfo describes a connected worker.
type WorkerInfo struct {
	ID            string   `json:"id"`
	Name          string   `json:"name"`
	Queues        []string `json:"queues"`
	Concurrency   int      `json:"concurrency"`
	ActiveTasks   int      `json:"active_tasks"`
	Status        string   `json:"status"`
	LastHeartbeat string   `json:"last_heartbeat"`
	ConnectedAt   string   `json:"connected_at"`
}

// DeadLetter is a task that exhausted its retries.
type DeadLetter struct {
	ID           string          `json:"id"`
	TaskID       string          `json:"task_id"`
	QueueName    string          `json:"queue_name"`
	TaskName     string          `json:"task_name"`
	Input        json.RawMessage `json:"input,omitempty"`
	ErrorMessage *string         `json:"error_message,omitempty"`
	AttemptCount int             `json:"attempt_count"`
	CreatedAt    string          `json:"created_at"`
}

// TaskSignal is a signal record as stored by the server.
type TaskSignal struct {
	ID             string          `json:"id"`
	TaskID         string          `json:"task_id"`
	SignalName     string          `json:"signal_name"`
	Payload        json.RawMessage `json:"payload,omitempty"`
	Status         string          `json:"status"`
	CreatedAt      string          `json:"created_at"`
	DeliveredAt    *string         `json:"delivered_at,omitempty"`
	AcknowledgedAt *string         `json:"acknowledged_at,omitempty"`
}

// SendSignalResponse reports whether a signal reached a live worker.
type SendSignalResponse struct {
	SignalID  string `json:"signal_id"`
	Delivered bool   `json:"delivered"`
}

// CreateTaskRequest is the body for creating a task.
type CreateTaskRequest struct {
	QueueName      string      `json:"queue_name"`
	TaskName       string      `json:"task_name"`
	Input          interface{} `json:"input,omitempty"`
	Priority       *int        `json:"priority,omitempty"`
	MaxRetries     *int        `json:"max_retries,omitempty"`
	TimeoutSeconds *int        `json:"timeout_seconds,omitempty"`
	IdempotencyKey string      `json:"idempotency_key,omitempty"`
	Metadata       interface{} `json:"metadata,omitempty"`
	ScheduledAt    string      `json:"scheduled_at,omitempty"`
}

// ListTasksParams filter a task listing.
type ListTasksParams struct {
	QueueName string
	Status    string
	Limit     int
	Offset    int
}

// ListDeadLettersParams filter a dead-letter listing.
type ListDeadLettersParams struct {
	QueueName string
	Limit     int
	Offset    int
}

// GetRunLogsParams page through run logs.
type GetRunLogsParams struct {
	Limit   int
	AfterID string
}
