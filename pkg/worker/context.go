package worker

import (
	"context"
	"encoding/json"
	"time"

	"github.com/rivetq/rivet/pkg/wire"
)

// TaskContext is handed to the task handler. It embeds context.Context for
// native cancellation: the context is cancelled on server-issued task
// cancellation and when the drain deadline expires.
type TaskContext struct {
	context.Context

	TaskID        string
	TaskRunID     string
	QueueName     string
	TaskName      string
	AttemptNumber int
	RawInput      string
	RawMetadata   string

	// send enqueues a frame fire-and-forget; full queues drop.
	send  func(msg *wire.ClientMessage)
	inbox *inbox
}

// Input decodes the task input JSON into dest. No-op for empty input.
func (c *TaskContext) Input(dest interface{}) error {
	if c.RawInput == "" {
		return nil
	}
	return json.Unmarshal([]byte(c.RawInput), dest)
}

// Metadata decodes the task metadata JSON into dest. No-op when empty.
func (c *TaskContext) Metadata(dest interface{}) error {
	if c.RawMetadata == "" {
		return nil
	}
	return json.Unmarshal([]byte(c.RawMetadata), dest)
}

// Log emits an info-level task log entry.
func (c *TaskContext) Log(message string) { c.logAt(wire.LogLevelInfo, message) }

// Debug emits a debug-level task log entry.
func (c *TaskContext) Debug(message string) { c.logAt(wire.LogLevelDebug, message) }

// Warn emits a warn-level task log entry.
func (c *TaskContext) Warn(message string) { c.logAt(wire.LogLevelWarn, message) }

// Error emits an error-level task log entry.
func (c *TaskContext) Error(message string) { c.logAt(wire.LogLevelError, message) }

// WaitForSignal blocks until a signal with the given name arrives for this
// task. Signals with other names that arrive while waiting stay buffered in
// arrival order. Returns the context error if the task is cancelled first.
func (c *TaskContext) WaitForSignal(name string) (*SignalData, error) {
	return c.inbox.waitFor(c, name)
}

// ReceiveSignal blocks until the next signal (any name) arrives, consuming
// buffered signals first.
func (c *TaskContext) ReceiveSignal() (*SignalData, error) {
	return c.inbox.receiveNext(c)
}

func (c *TaskContext) logAt(level wire.LogLevel, message string) {
	c.send(wire.NewLogBatch(&wire.LogBatch{Entries: []wire.LogEntry{{
		TaskRunID:   c.TaskRunID,
		TimestampMs: time.Now().UnixMilli(),
		Level:       level,
		Message:     message,
	}}}))
}
