package worker

import (
	"errors"
	"fmt"
	"time"

	"github.com/rivetq/rivet/pkg/backoff"
	"github.com/rivetq/rivet/pkg/log"
)

// Defaults applied by New for zero-valued Config fields.
const (
	DefaultServerURL         = "ws://127.0.0.1:8080"
	DefaultHeartbeatInterval = 10 * time.Second
	DefaultDrainTimeout      = 30 * time.Second
	DefaultSendBuffer        = 256
	DefaultSignalBuffer      = 128
)

// Handler processes one task assignment. It receives a TaskContext carrying
// the input, metadata, log emitters, and signal receivers. Returning an error
// fails the attempt; return a *HandlerError to control the retryable flag.
type Handler func(ctx *TaskContext) (interface{}, error)

// Config describes a Worker. It is read once by New and never mutated
// afterwards; validation failures are reported before any connection attempt.
type Config struct {
	// Name is the display name reported to the server. Defaults to
	// "worker-<id prefix>".
	Name string

	// ServerURL is the session endpoint (ws://, wss://, or http(s) which is
	// rewritten to the websocket scheme).
	ServerURL string

	// Queues this worker consumes from. At least one is required.
	Queues []string

	// Concurrency bounds the number of simultaneously executing tasks.
	// Zero means 1.
	Concurrency int

	// Metadata is optional worker metadata reported in the handshake.
	Metadata map[string]interface{}

	// Handler executes assignments. Required.
	Handler Handler

	// Logger used by the worker. Defaults to a text console logger.
	Logger log.Logger

	// Transport dials the session stream. Defaults to the websocket
	// transport.
	Transport Transport

	// Backoff paces reconnect attempts. Defaults to backoff.NewPolicy().
	Backoff *backoff.Policy

	// Metrics, when non-nil, records worker activity.
	Metrics *Metrics

	// HeartbeatInterval between liveness reports. Defaults to 10s.
	HeartbeatInterval time.Duration

	// DrainTimeout bounds how long shutdown waits for active tasks before
	// force-cancelling them. Defaults to 30s.
	DrainTimeout time.Duration

	// SendBuffer is the outbound frame queue capacity. Defaults to 256.
	SendBuffer int

	// SignalBuffer bounds each task's signal inbox. When full, further
	// deliveries for that task are dropped. Defaults to 128.
	SignalBuffer int
}

func (c *Config) validate() error {
	if len(c.Queues) == 0 {
		return errors.New("worker: at least one queue is required")
	}
	if c.Handler == nil {
		return errors.New("worker: a handler function is required")
	}
	if c.Concurrency < 0 {
		return fmt.Errorf("worker: concurrency must be >= 1, got %d", c.Concurrency)
	}
	return nil
}

// withDefaults returns a copy of c with defaults filled in. The Queues slice
// is copied so later caller mutations cannot reach the worker.
func (c Config) withDefaults() Config {
	if c.ServerURL == "" {
		c.ServerURL = DefaultServerURL
	}
	if c.Concurrency == 0 {
		c.Concurrency = 1
	}
	if c.Logger == nil {
		c.Logger = log.NewLogger()
	}
	if c.Transport == nil {
		c.Transport = NewWebSocketTransport()
	}
	if c.Backoff == nil {
		c.Backoff = backoff.NewPolicy()
	}
	if c.HeartbeatInterval <= 0 {
		c.HeartbeatInterval = DefaultHeartbeatInterval
	}
	if c.DrainTimeout <= 0 {
		c.DrainTimeout = DefaultDrainTimeout
	}
	if c.SendBuffer <= 0 {
		c.SendBuffer = DefaultSendBuffer
	}
	if c.SignalBuffer <= 0 {
		c.SignalBuffer = DefaultSignalBuffer
	}
	queues := make([]string, len(c.Queues))
	copy(queues, c.Queues)
	c.Queues = queues
	return c
}
