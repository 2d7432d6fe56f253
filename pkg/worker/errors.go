package worker

import "fmt"

// HandlerError lets a task handler report a failure with an explicit
// retryable flag. Any other error returned by a handler is treated as
// retryable by default.
type HandlerError struct {
	Message   string
	Retryable bool
}

func (e *HandlerError) Error() string { return e.Message }

// NewHandlerError builds a HandlerError.
func NewHandlerError(message string, retryable bool) *HandlerError {
	return &HandlerError{Message: message, Retryable: retryable}
}

// ConnectionError wraps a transport failure during connect, handshake, or
// stream I/O. It drives the worker's reconnect loop and is never surfaced to
// task handlers.
type ConnectionError struct {
	Op  string
	Err error
}

func (e *ConnectionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("connection %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("connection %s failed", e.Op)
}

func (e *ConnectionError) Unwrap() error { return e.Err }
