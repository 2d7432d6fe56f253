package worker

import (
	"context"
	"encoding/json"
	"time"

	"github.com/rivetq/rivet/pkg/log"
	"github.com/rivetq/rivet/pkg/wire"
)

// session owns one physical connection from dial to close. It performs the
// handshake, pumps outbound frames, emits heartbeats, and dispatches inbound
// frames. A session never outlives its stream; the Worker replaces it on
// reconnect.
type session struct {
	w      *Worker
	stream Stream
	logger log.Logger
}

// runSession drives one session to completion. A nil return means the
// session ended because of local or server-initiated shutdown; any other
// ending is a ConnectionError that feeds the backoff loop.
func (w *Worker) runSession(ctx context.Context) error {
	sctx, cancel := context.WithCancel(ctx)
	defer cancel()

	stream, err := w.cfg.Transport.Dial(sctx, w.cfg.ServerURL)
	if err != nil {
		return &ConnectionError{Op: "dial", Err: err}
	}
	s := &session{w: w, stream: stream, logger: w.cfg.Logger.WithComponent("session")}
	defer stream.Close()

	// Closing the stream is what unblocks a pending Recv, both on local
	// shutdown and when the outbound pump hits a write error.
	go func() {
		select {
		case <-sctx.Done():
		case <-w.drained:
		}
		_ = stream.Close()
	}()

	if err := s.handshake(); err != nil {
		return err
	}
	w.cfg.Backoff.Reset()
	s.logger.Info("connected",
		log.Str("worker_id", w.identity.ID),
		log.Str("name", w.identity.Name),
		log.Strs("queues", w.identity.Queues),
		log.Int("concurrency", w.identity.Concurrency))

	sendErr := make(chan error, 1)
	go s.sendLoop(sctx, cancel, sendErr)
	go s.heartbeatLoop(sctx)

	for {
		msg, err := stream.Recv()
		if err != nil {
			if w.shuttingDown.Load() {
				return nil
			}
			select {
			case werr := <-sendErr:
				return werr
			default:
			}
			return &ConnectionError{Op: "receive", Err: err}
		}
		s.dispatch(sctx, msg)
	}
}

// handshake sends the identity as the first frame of the stream. The pump is
// not running yet, so this write has the stream to itself.
func (s *session) handshake() error {
	meta := ""
	if len(s.w.identity.Metadata) > 0 {
		if data, err := json.Marshal(s.w.identity.Metadata); err == nil {
			meta = string(data)
		}
	}
	hello := wire.NewHello(&wire.Hello{
		WorkerID:    s.w.identity.ID,
		WorkerName:  s.w.identity.Name,
		Queues:      s.w.identity.Queues,
		Concurrency: s.w.identity.Concurrency,
		Metadata:    meta,
	})
	if err := s.stream.Send(hello); err != nil {
		return &ConnectionError{Op: "handshake", Err: err}
	}
	return nil
}

// sendLoop is the single writer for this stream: every outbound frame
// (results, logs, heartbeats, acks, the shutdown notice) funnels through the
// worker's ordered queue. A write error ends the session.
func (s *session) sendLoop(ctx context.Context, cancel context.CancelFunc, errCh chan<- error) {
	for {
		select {
		case <-ctx.Done():
			return
		case msg := <-s.w.sendCh:
			if msg == s.w.flushMark {
				close(s.w.flushDone)
				continue
			}
			if err := s.stream.Send(msg); err != nil {
				errCh <- &ConnectionError{Op: "send", Err: err}
				cancel()
				return
			}
		}
	}
}

// heartbeatLoop periodically reports the active task set. Frames are
// enqueued fire-and-forget; a stalled queue means the connection is already
// in trouble and the write error will end the session.
func (s *session) heartbeatLoop(ctx context.Context) {
	ticker := time.NewTicker(s.w.cfg.HeartbeatInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.w.trySend(wire.NewHeartbeat(&wire.Heartbeat{
				ActiveTaskIDs: s.w.activeTaskIDs(),
				TimestampMs:   time.Now().UnixMilli(),
			}))
		}
	}
}

// dispatch fans one inbound frame out by kind.
func (s *session) dispatch(ctx context.Context, msg *wire.ServerMessage) {
	switch msg.Type {
	case wire.KindTaskAssignment:
		s.handleAssignment(ctx, msg.TaskAssignment)
	case wire.KindTaskCancellation:
		s.w.cancelSlot(msg.TaskCancellation)
	case wire.KindSignalDelivery:
		s.w.routeSignal(msg.SignalDelivery)
	case wire.KindServerShutdown:
		s.logger.Info("server requested shutdown", log.Str("reason", msg.ServerShutdown.Reason))
		go s.w.Shutdown()
	case wire.KindHeartbeatAck:
		// no-op
	}
}

// handleAssignment acquires a concurrency unit and starts an execution slot.
// Acquisition blocks the dispatch path while all slots are busy; that is the
// parallelism bound. Session cancellation unblocks it. Drain can begin while
// dispatch is parked here, so admission is re-checked after the unit is
// acquired; a refused assignment releases the unit unused.
func (s *session) handleAssignment(ctx context.Context, a *wire.TaskAssignment) {
	if s.w.shuttingDown.Load() {
		s.logger.Warn("assignment received while draining, ignoring",
			log.Str("task_id", a.TaskID))
		return
	}
	select {
	case s.w.semaphore <- struct{}{}:
	case <-ctx.Done():
		return
	case <-s.w.drained:
		return
	}
	if !s.w.startSlot(a) {
		<-s.w.semaphore
		s.logger.Warn("assignment received while draining, ignoring",
			log.Str("task_id", a.TaskID))
	}
}
