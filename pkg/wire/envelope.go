package wire

import (
	"encoding/json"
	"fmt"
)

// Kind discriminates the payload carried by an envelope.
type Kind string

// Client (worker→server) frame kinds.
const (
	KindHello            Kind = "hello"
	KindHeartbeat        Kind = "heartbeat"
	KindTaskResult       Kind = "task_result"
	KindLogBatch         Kind = "log_batch"
	KindSignalAck        Kind = "signal_ack"
	KindGracefulShutdown Kind = "graceful_shutdown"
)

// Server (server→worker) frame kinds.
const (
	KindTaskAssignment   Kind = "task_assignment"
	KindTaskCancellation Kind = "task_cancellation"
	KindSignalDelivery   Kind = "signal_delivery"
	KindServerShutdown   Kind = "server_shutdown"
	KindHeartbeatAck     Kind = "heartbeat_ack"
)

// ClientMessage is the tagged union of worker→server frames. Exactly the
// payload named by Type is populated.
type ClientMessage struct {
	Type             Kind              `json:"type"`
	Hello            *Hello            `json:"hello,omitempty"`
	Heartbeat        *Heartbeat        `json:"heartbeat,omitempty"`
	TaskResult       *TaskResult       `json:"task_result,omitempty"`
	LogBatch         *LogBatch         `json:"log_batch,omitempty"`
	SignalAck        *SignalAck        `json:"signal_ack,omitempty"`
	GracefulShutdown *GracefulShutdown `json:"graceful_shutdown,omitempty"`
}

// ServerMessage is the tagged union of server→worker frames.
type ServerMessage struct {
	Type             Kind              `json:"type"`
	TaskAssignment   *TaskAssignment   `json:"task_assignment,omitempty"`
	TaskCancellation *TaskCancellation `json:"task_cancellation,omitempty"`
	SignalDelivery   *SignalDelivery   `json:"signal_delivery,omitempty"`
	ServerShutdown   *ServerShutdown   `json:"server_shutdown,omitempty"`
	HeartbeatAck     *HeartbeatAck     `json:"heartbeat_ack,omitempty"`
}

// Constructors keep Type and payload in lockstep.

// NewHello wraps a Hello frame.
func NewHello(h *Hello) *ClientMessage { return &ClientMessage{Type: KindHello, Hello: h} }

// NewHeartbeat wraps a Heartbeat frame.
func NewHeartbeat(h *Heartbeat) *ClientMessage {
	return &ClientMessage{Type: KindHeartbeat, Heartbeat: h}
}

// NewTaskResult wraps a TaskResult frame.
func NewTaskResult(r *TaskResult) *ClientMessage {
	return &ClientMessage{Type: KindTaskResult, TaskResult: r}
}

// NewLogBatch wraps a LogBatch frame.
func NewLogBatch(b *LogBatch) *ClientMessage {
	return &ClientMessage{Type: KindLogBatch, LogBatch: b}
}

// NewSignalAck wraps a SignalAck frame.
func NewSignalAck(a *SignalAck) *ClientMessage {
	return &ClientMessage{Type: KindSignalAck, SignalAck: a}
}

// NewGracefulShutdown wraps a GracefulShutdown frame.
func NewGracefulShutdown(g *GracefulShutdown) *ClientMessage {
	return &ClientMessage{Type: KindGracefulShutdown, GracefulShutdown: g}
}

// Validate checks that the payload matching Type is present.
func (m *ClientMessage) Validate() error {
	var ok bool
	switch m.Type {
	case KindHello:
		ok = m.Hello != nil
	case KindHeartbeat:
		ok = m.Heartbeat != nil
	case KindTaskResult:
		ok = m.TaskResult != nil
	case KindLogBatch:
		ok = m.LogBatch != nil
	case KindSignalAck:
		ok = m.SignalAck != nil
	case KindGracefulShutdown:
		ok = m.GracefulShutdown != nil
	default:
		return fmt.Errorf("wire: unknown client message kind %q", m.Type)
	}
	if !ok {
		return fmt.Errorf("wire: client message kind %q has no payload", m.Type)
	}
	return nil
}

// Validate checks that the payload matching Type is present.
func (m *ServerMessage) Validate() error {
	var ok bool
	switch m.Type {
	case KindTaskAssignment:
		ok = m.TaskAssignment != nil
	case KindTaskCancellation:
		ok = m.TaskCancellation != nil
	case KindSignalDelivery:
		ok = m.SignalDelivery != nil
	case KindServerShutdown:
		ok = m.ServerShutdown != nil
	case KindHeartbeatAck:
		// heartbeat_ack carries no payload; tolerate an omitted struct.
		return nil
	default:
		return fmt.Errorf("wire: unknown server message kind %q", m.Type)
	}
	if !ok {
		return fmt.Errorf("wire: server message kind %q has no payload", m.Type)
	}
	return nil
}

// EncodeClient marshals a validated client frame.
func EncodeClient(m *ClientMessage) ([]byte, error) {
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return json.Marshal(m)
}

// DecodeServer unmarshals and validates a server frame.
func DecodeServer(data []byte) (*ServerMessage, error) {
	var m ServerMessage
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("wire: decode server message: %w", err)
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return &m, nil
}

// EncodeServer marshals a validated server frame. Used by test servers and
// tooling; the SDK itself only decodes server frames.
func EncodeServer(m *ServerMessage) ([]byte, error) {
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return json.Marshal(m)
}

// DecodeClient unmarshals and validates a client frame. Used by test servers
// and tooling.
func DecodeClient(data []byte) (*ClientMessage, error) {
	var m ClientMessage
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("wire: decode client message: %w", err)
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return &m, nil
}
