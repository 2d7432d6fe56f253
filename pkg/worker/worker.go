package worker

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/google/uuid"

	"github.com/rivetq/rivet/pkg/log"
	"github.com/rivetq/rivet/pkg/wire"
)

// Identity is the immutable worker identity sent in the session handshake.
type Identity struct {
	ID          string
	Name        string
	Queues      []string
	Concurrency int
	Metadata    map[string]interface{}
}

// Worker maintains a session to the task-queue server, executes assignments
// concurrently up to the configured limit, and reconnects with backoff when
// the connection drops.
type Worker struct {
	cfg      Config
	identity Identity
	logger   log.Logger

	// semaphore bounds concurrent task execution; dispatch acquires, slot
	// completion releases.
	semaphore chan struct{}

	// sendCh is the single ordered outbound queue. It outlives individual
	// sessions so results produced while disconnected flush on reconnect.
	sendCh chan *wire.ClientMessage

	// mu guards slots. Insertions happen on the dispatch path, removals in
	// slot completion; both also adjust the wait group.
	mu    sync.Mutex
	slots map[string]*taskSlot
	wg    sync.WaitGroup

	baseCtx      context.Context
	shuttingDown atomic.Bool
	shutdownOnce sync.Once
	drained      chan struct{}

	// flushMark is a sentinel queued at the tail of sendCh during drain;
	// the session pump closes flushDone when it reaches it, meaning every
	// frame queued before it has been written.
	flushMark *wire.ClientMessage
	flushDone chan struct{}
}

// taskSlot tracks one executing assignment.
type taskSlot struct {
	taskID    string
	taskRunID string
	cancel    context.CancelFunc
	inbox     *inbox
}

// New validates cfg and builds a Worker. Configuration errors are the only
// errors reported synchronously; everything at runtime drives reconnection
// or per-task outcomes instead.
func New(cfg Config) (*Worker, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	cfg = cfg.withDefaults()

	workerID := uuid.NewString()
	name := cfg.Name
	if name == "" {
		name = fmt.Sprintf("worker-%s", workerID[:8])
	}

	w := &Worker{
		cfg: cfg,
		identity: Identity{
			ID:          workerID,
			Name:        name,
			Queues:      cfg.Queues,
			Concurrency: cfg.Concurrency,
			Metadata:    cfg.Metadata,
		},
		logger:    cfg.Logger.WithComponent("worker"),
		semaphore: make(chan struct{}, cfg.Concurrency),
		sendCh:    make(chan *wire.ClientMessage, cfg.SendBuffer),
		slots:     make(map[string]*taskSlot),
		drained:   make(chan struct{}),
		flushMark: &wire.ClientMessage{},
		flushDone: make(chan struct{}),
	}
	return w, nil
}

// Identity returns the worker's immutable identity.
func (w *Worker) Identity() Identity { return w.identity }

// Run connects and processes assignments until Shutdown is called, the
// context is cancelled, or an interrupt/termination signal arrives. Session
// loss is handled internally with backoff; Run never returns because of a
// connection or task failure.
func (w *Worker) Run(ctx context.Context) error {
	w.baseCtx = ctx

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		select {
		case <-sigCh:
			w.Shutdown()
		case <-w.drained:
		case <-ctx.Done():
		}
	}()

	policy := w.cfg.Backoff
	for {
		if w.shuttingDown.Load() {
			return nil
		}

		err := w.runSession(ctx)
		if w.shuttingDown.Load() {
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}

		delay := policy.NextDelay()
		w.cfg.Metrics.reconnect()
		w.logger.Warn("connection lost, reconnecting",
			log.Err(err), log.Dur("delay", delay))
		select {
		case <-time.After(delay):
		case <-w.drained:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// Shutdown drains the worker: no new assignments are accepted, a graceful
// shutdown notice is sent best-effort, and active tasks get up to
// DrainTimeout to finish before being cancelled. Idempotent; Run unblocks
// once draining completes.
func (w *Worker) Shutdown() {
	w.shutdownOnce.Do(func() {
		// The flag flips under the registry lock so it is ordered against
		// slot admission: anything not registered yet is refused.
		w.mu.Lock()
		w.shuttingDown.Store(true)
		w.mu.Unlock()
		w.logger.Info("shutting down, draining active tasks",
			log.Int("active", w.activeCount()))

		w.trySend(wire.NewGracefulShutdown(&wire.GracefulShutdown{Reason: "worker shutdown"}))

		done := make(chan struct{})
		go func() {
			w.wg.Wait()
			close(done)
		}()
		select {
		case <-done:
			w.logger.Info("all tasks drained")
		case <-time.After(w.cfg.DrainTimeout):
			w.logger.Warn("drain deadline exceeded, cancelling remaining tasks",
				log.Int("remaining", w.activeCount()))
			w.cancelAllSlots()
		}

		// Closing drained tears the session down, so wait for its pump to
		// flush queued frames (final results, the shutdown notice) first.
		w.flushOutbound()
		close(w.drained)
	})
}

// flushOutbound waits until the session pump has written every frame queued
// so far. Bounded: a dead or absent session cannot stall shutdown.
func (w *Worker) flushOutbound() {
	timeout := time.NewTimer(time.Second)
	defer timeout.Stop()
	select {
	case w.sendCh <- w.flushMark:
	case <-timeout.C:
		w.logger.Warn("outbound queue full at shutdown, queued frames may be lost")
		return
	}
	select {
	case <-w.flushDone:
	case <-timeout.C:
		w.logger.Warn("outbound queue not flushed before close")
	}
}

// trySend enqueues a frame without blocking; full queues drop the frame.
// Used for fire-and-forget traffic: logs, heartbeats, signal acks, the
// shutdown notice.
func (w *Worker) trySend(msg *wire.ClientMessage) {
	select {
	case w.sendCh <- msg:
	default:
		w.logger.Debug("outbound queue full, dropping frame", log.Str("kind", string(msg.Type)))
	}
}

// sendResult enqueues a task result, blocking until there is queue space.
// Results must not be dropped; they are the one frame per assignment the
// server is owed. Gives up only on terminal shutdown.
func (w *Worker) sendResult(msg *wire.ClientMessage) {
	select {
	case w.sendCh <- msg:
	case <-w.drained:
		w.logger.Warn("worker drained before result could be queued",
			log.Str("task_id", msg.TaskResult.TaskID))
	case <-w.baseCtx.Done():
	}
}

func (w *Worker) activeCount() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.slots)
}

func (w *Worker) activeTaskIDs() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	ids := make([]string, 0, len(w.slots))
	for id := range w.slots {
		ids = append(ids, id)
	}
	return ids
}

// addSlot registers a running assignment. Registration and the drain flag
// share one lock: once Shutdown flips the flag no further slot can be
// admitted, so the drain wait covers every slot that ever registered.
// Returns false when the worker is draining.
func (w *Worker) addSlot(slot *taskSlot) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.shuttingDown.Load() {
		return false
	}
	w.slots[slot.taskID] = slot
	w.wg.Add(1)
	return true
}

// removeSlot unregisters a completed assignment and releases its concurrency
// unit. Runs unconditionally on completion, failure, or cancellation.
func (w *Worker) removeSlot(taskID string) {
	w.mu.Lock()
	delete(w.slots, taskID)
	w.mu.Unlock()
	<-w.semaphore
	w.wg.Done()
}

func (w *Worker) lookupSlot(taskID string) (*taskSlot, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	slot, ok := w.slots[taskID]
	return slot, ok
}

func (w *Worker) cancelAllSlots() {
	w.mu.Lock()
	slots := make([]*taskSlot, 0, len(w.slots))
	for _, s := range w.slots {
		slots = append(slots, s)
	}
	w.mu.Unlock()
	for _, s := range slots {
		s.cancel()
	}
}

// cancelSlot handles a server-issued cancellation. Best effort: a no-op if
// the task already completed.
func (w *Worker) cancelSlot(c *wire.TaskCancellation) {
	if slot, ok := w.lookupSlot(c.TaskID); ok {
		w.logger.Info("task cancelled by server",
			log.Str("task_id", c.TaskID), log.Str("reason", c.Reason))
		slot.cancel()
	}
}

// routeSignal delivers a signal to the inbox of the task it targets.
func (w *Worker) routeSignal(sig *wire.SignalDelivery) {
	slot, ok := w.lookupSlot(sig.TaskID)
	if !ok {
		w.logger.Debug("signal for unknown task, dropping",
			log.Str("task_id", sig.TaskID), log.Str("signal", sig.Name))
		return
	}
	if !slot.inbox.deliver(sig) {
		w.logger.Warn("signal inbox full, dropping signal",
			log.Str("task_id", sig.TaskID), log.Str("signal", sig.Name))
		return
	}
	w.cfg.Metrics.signalReceived()
}
