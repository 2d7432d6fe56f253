package worker

import (
	"context"
	"encoding/json"

	"github.com/rivetq/rivet/pkg/wire"
)

// SignalData is a signal as seen by a task handler.
type SignalData struct {
	SignalID string
	Name     string
	Payload  string
}

// ParsePayload decodes the signal's JSON payload into dest. A nil no-op for
// empty payloads.
func (s *SignalData) ParsePayload(dest interface{}) error {
	if s.Payload == "" {
		return nil
	}
	return json.Unmarshal([]byte(s.Payload), dest)
}

// inbox is the per-task signal queue. The session's dispatch path delivers
// into it; only the task's own goroutine consumes from it, so the retained
// buffer needs no lock. Capacity bounds both sides: when the channel is
// full, deliver reports false and the signal is dropped; when the retained
// buffer is full, waitFor drops non-matching signals unacknowledged instead
// of retaining them.
type inbox struct {
	ch       chan *wire.SignalDelivery
	buf      []*wire.SignalDelivery
	capacity int
	ack      func(signalID string)
}

func newInbox(capacity int, ack func(signalID string)) *inbox {
	return &inbox{
		ch:       make(chan *wire.SignalDelivery, capacity),
		capacity: capacity,
		ack:      ack,
	}
}

// deliver enqueues a signal without blocking. Returns false when the inbox
// is full.
func (b *inbox) deliver(sig *wire.SignalDelivery) bool {
	select {
	case b.ch <- sig:
		return true
	default:
		return false
	}
}

// receiveNext returns the oldest available signal, preferring ones retained
// by earlier waitFor calls. The signal is acknowledged before it is returned.
func (b *inbox) receiveNext(ctx context.Context) (*SignalData, error) {
	if len(b.buf) > 0 {
		sig := b.buf[0]
		b.buf = b.buf[1:]
		return b.consume(sig), nil
	}
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case sig := <-b.ch:
		return b.consume(sig), nil
	}
}

// waitFor blocks until a signal with the given name arrives. Non-matching
// signals encountered while waiting are retained in arrival order for later
// receiveNext/waitFor calls, up to the inbox capacity; past that they are
// dropped without acknowledgement.
func (b *inbox) waitFor(ctx context.Context, name string) (*SignalData, error) {
	for i, sig := range b.buf {
		if sig.Name == name {
			b.buf = append(b.buf[:i], b.buf[i+1:]...)
			return b.consume(sig), nil
		}
	}
	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case sig := <-b.ch:
			if sig.Name == name {
				return b.consume(sig), nil
			}
			if len(b.buf) >= b.capacity {
				continue
			}
			b.buf = append(b.buf, sig)
		}
	}
}

func (b *inbox) consume(sig *wire.SignalDelivery) *SignalData {
	b.ack(sig.SignalID)
	return &SignalData{SignalID: sig.SignalID, Name: sig.Name, Payload: sig.Payload}
}
