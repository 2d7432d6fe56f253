package worker

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/rivetq/rivet/pkg/log"
	"github.com/rivetq/rivet/pkg/wire"
)

// startSlot registers and launches an execution slot for an assignment. The
// caller has already acquired the concurrency unit; the slot owns it until
// completion. Slot contexts derive from the worker's run context, not the
// session's, so a task keeps running across a reconnect. Returns false
// without launching when the worker is draining; the caller still owns the
// concurrency unit in that case.
func (w *Worker) startSlot(a *wire.TaskAssignment) bool {
	slotCtx, cancel := context.WithCancel(w.baseCtx)
	slot := &taskSlot{
		taskID:    a.TaskID,
		taskRunID: a.TaskRunID,
		cancel:    cancel,
		inbox: newInbox(w.cfg.SignalBuffer, func(signalID string) {
			w.trySend(wire.NewSignalAck(&wire.SignalAck{SignalID: signalID}))
		}),
	}
	if !w.addSlot(slot) {
		cancel()
		return false
	}
	w.cfg.Metrics.taskStarted()

	go func() {
		defer cancel()
		defer w.removeSlot(a.TaskID)

		result := w.execute(slotCtx, slot, a)
		w.cfg.Metrics.taskCompleted(result.Success)
		w.sendResult(wire.NewTaskResult(result))
	}()
	return true
}

// execute invokes the handler and derives the single TaskResult for the
// assignment. Handler panics and errors are absorbed here; they fail the
// attempt but never take the session down.
func (w *Worker) execute(ctx context.Context, slot *taskSlot, a *wire.TaskAssignment) *wire.TaskResult {
	tctx := &TaskContext{
		Context:       ctx,
		TaskID:        a.TaskID,
		TaskRunID:     a.TaskRunID,
		QueueName:     a.QueueName,
		TaskName:      a.TaskName,
		AttemptNumber: a.AttemptNumber,
		RawInput:      a.Input,
		RawMetadata:   a.Metadata,
		send:          w.trySend,
		inbox:         slot.inbox,
	}

	res := &wire.TaskResult{
		TaskID:    a.TaskID,
		TaskRunID: a.TaskRunID,
		Retryable: true,
	}

	value, err := w.invoke(tctx)
	if err != nil {
		if he, ok := err.(*HandlerError); ok {
			res.Retryable = he.Retryable
		}
		res.ErrorMessage = err.Error()
		w.logger.Warn("task failed",
			log.Str("task_id", a.TaskID),
			log.Str("task", a.TaskName),
			log.Err(err))
		return res
	}

	res.Success = true
	res.Output = encodeOutput(value)
	return res
}

// invoke runs the handler with panic containment.
func (w *Worker) invoke(tctx *TaskContext) (value interface{}, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("handler panic: %v", r)
		}
	}()
	return w.cfg.Handler(tctx)
}

// encodeOutput serializes a handler return value: strings pass through,
// anything else is JSON-encoded.
func encodeOutput(value interface{}) string {
	if value == nil {
		return ""
	}
	if s, ok := value.(string); ok {
		return s
	}
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Sprintf("%v", value)
	}
	return string(data)
}
