package worker

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rivetq/rivet/pkg/backoff"
	"github.com/rivetq/rivet/pkg/log"
	"github.com/rivetq/rivet/pkg/wire"
)

// fakeStream is an in-process Stream for driving the session engine from the
// server's side of the wire.
type fakeStream struct {
	in        chan *wire.ServerMessage
	out       chan *wire.ClientMessage
	done      chan struct{}
	once      sync.Once
	failSends atomic.Bool
}

func newFakeStream() *fakeStream {
	return &fakeStream{
		in:   make(chan *wire.ServerMessage, 64),
		out:  make(chan *wire.ClientMessage, 64),
		done: make(chan struct{}),
	}
}

func (s *fakeStream) Send(msg *wire.ClientMessage) error {
	if s.failSends.Load() {
		return errors.New("write failed")
	}
	select {
	case <-s.done:
		return errors.New("stream closed")
	case s.out <- msg:
		return nil
	}
}

func (s *fakeStream) Recv() (*wire.ServerMessage, error) {
	select {
	case <-s.done:
		return nil, errors.New("stream closed")
	case msg := <-s.in:
		return msg, nil
	}
}

func (s *fakeStream) Close() error {
	s.once.Do(func() { close(s.done) })
	return nil
}

// serverClose simulates the server dropping the connection.
func (s *fakeStream) serverClose() { _ = s.Close() }

type fakeTransport struct {
	dialed chan *fakeStream
}

func newFakeTransport() *fakeTransport {
	return &fakeTransport{dialed: make(chan *fakeStream, 8)}
}

func (t *fakeTransport) Dial(ctx context.Context, serverURL string) (Stream, error) {
	s := newFakeStream()
	select {
	case t.dialed <- s:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	return s, nil
}

// awaitDial returns the stream for the next session the worker opens.
func (t *fakeTransport) awaitDial(tb testing.TB) *fakeStream {
	tb.Helper()
	select {
	case s := <-t.dialed:
		return s
	case <-time.After(5 * time.Second):
		tb.Fatal("timed out waiting for worker to dial")
		return nil
	}
}

// awaitKind drains the stream's outbound frames until one of the given kind
// appears.
func awaitKind(tb testing.TB, s *fakeStream, kind wire.Kind) *wire.ClientMessage {
	tb.Helper()
	deadline := time.After(5 * time.Second)
	for {
		select {
		case msg := <-s.out:
			if msg.Type == kind {
				return msg
			}
		case <-deadline:
			tb.Fatalf("timed out waiting for %s frame", kind)
		}
	}
}

func startWorker(tb testing.TB, cfg Config) (*Worker, *fakeTransport, func()) {
	tb.Helper()
	ft := newFakeTransport()
	cfg.Transport = ft
	if cfg.Logger == nil {
		cfg.Logger = log.NewNopLogger()
	}
	if cfg.Backoff == nil {
		cfg.Backoff = &backoff.Policy{
			InitialDelay: time.Millisecond,
			MaxDelay:     5 * time.Millisecond,
			Multiplier:   1.0,
		}
	}
	if cfg.DrainTimeout == 0 {
		cfg.DrainTimeout = 2 * time.Second
	}
	if len(cfg.Queues) == 0 {
		cfg.Queues = []string{"default"}
	}

	w, err := New(cfg)
	if err != nil {
		tb.Fatalf("New: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	runDone := make(chan error, 1)
	go func() { runDone <- w.Run(ctx) }()

	stop := func() {
		w.Shutdown()
		select {
		case <-runDone:
		case <-time.After(5 * time.Second):
			tb.Fatal("Run did not return after Shutdown")
		}
		cancel()
	}
	return w, ft, stop
}

func assignment(id string) *wire.ServerMessage {
	return &wire.ServerMessage{
		Type: wire.KindTaskAssignment,
		TaskAssignment: &wire.TaskAssignment{
			TaskID:        id,
			TaskRunID:     id + "-run-1",
			QueueName:     "default",
			TaskName:      "test-task",
			AttemptNumber: 1,
		},
	}
}

func TestNewValidatesConfig(t *testing.T) {
	if _, err := New(Config{Handler: func(*TaskContext) (interface{}, error) { return nil, nil }}); err == nil {
		t.Fatal("expected error when no queues are configured")
	}
	if _, err := New(Config{Queues: []string{"q"}}); err == nil {
		t.Fatal("expected error when no handler is configured")
	}
	if _, err := New(Config{Queues: []string{"q"}, Concurrency: -2,
		Handler: func(*TaskContext) (interface{}, error) { return nil, nil }}); err == nil {
		t.Fatal("expected error for negative concurrency")
	}
}

func TestHandshakeCarriesIdentity(t *testing.T) {
	w, ft, stop := startWorker(t, Config{
		Name:        "billing-1",
		Queues:      []string{"billing", "refunds"},
		Concurrency: 4,
		Handler:     func(*TaskContext) (interface{}, error) { return nil, nil },
	})
	defer stop()

	stream := ft.awaitDial(t)
	hello := awaitKind(t, stream, wire.KindHello).Hello
	if hello.WorkerID != w.Identity().ID {
		t.Errorf("hello worker id = %q, want %q", hello.WorkerID, w.Identity().ID)
	}
	if hello.WorkerName != "billing-1" {
		t.Errorf("hello worker name = %q, want billing-1", hello.WorkerName)
	}
	if len(hello.Queues) != 2 || hello.Queues[0] != "billing" {
		t.Errorf("hello queues = %v", hello.Queues)
	}
	if hello.Concurrency != 4 {
		t.Errorf("hello concurrency = %d, want 4", hello.Concurrency)
	}
}

func TestTaskSuccessReportsResult(t *testing.T) {
	_, ft, stop := startWorker(t, Config{
		Handler: func(ctx *TaskContext) (interface{}, error) {
			return map[string]int{"count": 3}, nil
		},
	})
	defer stop()

	stream := ft.awaitDial(t)
	awaitKind(t, stream, wire.KindHello)
	stream.in <- assignment("t1")

	res := awaitKind(t, stream, wire.KindTaskResult).TaskResult
	if res.TaskID != "t1" || res.TaskRunID != "t1-run-1" {
		t.Errorf("result identifies %s/%s", res.TaskID, res.TaskRunID)
	}
	if !res.Success {
		t.Errorf("result not successful: %s", res.ErrorMessage)
	}
	if res.Output != `{"count":3}` {
		t.Errorf("output = %q", res.Output)
	}
}

func TestTaskFailureRetryable(t *testing.T) {
	cases := []struct {
		name      string
		err       error
		retryable bool
	}{
		{"plain error", errors.New("boom"), true},
		{"handler error retryable", NewHandlerError("transient", true), true},
		{"handler error terminal", NewHandlerError("bad input", false), false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, ft, stop := startWorker(t, Config{
				Handler: func(ctx *TaskContext) (interface{}, error) { return nil, tc.err },
			})
			defer stop()

			stream := ft.awaitDial(t)
			awaitKind(t, stream, wire.KindHello)
			stream.in <- assignment("t1")

			res := awaitKind(t, stream, wire.KindTaskResult).TaskResult
			if res.Success {
				t.Fatal("expected failure result")
			}
			if res.Retryable != tc.retryable {
				t.Errorf("retryable = %v, want %v", res.Retryable, tc.retryable)
			}
			if res.ErrorMessage != tc.err.Error() {
				t.Errorf("error message = %q, want %q", res.ErrorMessage, tc.err.Error())
			}
		})
	}
}

func TestHandlerPanicFailsAttempt(t *testing.T) {
	_, ft, stop := startWorker(t, Config{
		Handler: func(ctx *TaskContext) (interface{}, error) { panic("kaboom") },
	})
	defer stop()

	stream := ft.awaitDial(t)
	awaitKind(t, stream, wire.KindHello)
	stream.in <- assignment("t1")

	res := awaitKind(t, stream, wire.KindTaskResult).TaskResult
	if res.Success {
		t.Fatal("expected failure result")
	}
	if !res.Retryable {
		t.Error("panic outcomes should be retryable")
	}
	if !strings.Contains(res.ErrorMessage, "kaboom") {
		t.Errorf("error message %q does not mention the panic value", res.ErrorMessage)
	}
}

func TestConcurrencyBound(t *testing.T) {
	var running atomic.Int32
	var peak atomic.Int32
	release := make(chan struct{})

	_, ft, stop := startWorker(t, Config{
		Concurrency: 2,
		Handler: func(ctx *TaskContext) (interface{}, error) {
			n := running.Add(1)
			for {
				p := peak.Load()
				if n <= p || peak.CompareAndSwap(p, n) {
					break
				}
			}
			defer running.Add(-1)
			select {
			case <-release:
				return "done", nil
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		},
	})
	defer stop()

	stream := ft.awaitDial(t)
	awaitKind(t, stream, wire.KindHello)
	for i := 0; i < 3; i++ {
		stream.in <- assignment(fmt.Sprintf("t%d", i))
	}

	// Give the third assignment a chance to (incorrectly) start.
	time.Sleep(100 * time.Millisecond)
	if got := running.Load(); got != 2 {
		t.Fatalf("running tasks = %d, want 2", got)
	}

	close(release)
	for i := 0; i < 3; i++ {
		awaitKind(t, stream, wire.KindTaskResult)
	}
	if got := peak.Load(); got != 2 {
		t.Errorf("peak concurrency = %d, want 2", got)
	}
}

func TestServerCancellationStopsTask(t *testing.T) {
	started := make(chan struct{})
	_, ft, stop := startWorker(t, Config{
		Handler: func(ctx *TaskContext) (interface{}, error) {
			close(started)
			<-ctx.Done()
			return nil, ctx.Err()
		},
	})
	defer stop()

	stream := ft.awaitDial(t)
	awaitKind(t, stream, wire.KindHello)
	stream.in <- assignment("t1")
	<-started

	stream.in <- &wire.ServerMessage{
		Type:             wire.KindTaskCancellation,
		TaskCancellation: &wire.TaskCancellation{TaskID: "t1", Reason: "superseded"},
	}

	res := awaitKind(t, stream, wire.KindTaskResult).TaskResult
	if res.Success {
		t.Fatal("cancelled task reported success")
	}
	if !strings.Contains(res.ErrorMessage, "context canceled") {
		t.Errorf("error message = %q", res.ErrorMessage)
	}
}

func TestSignalRoutingAndAcks(t *testing.T) {
	_, ft, stop := startWorker(t, Config{
		Handler: func(ctx *TaskContext) (interface{}, error) {
			stopSig, err := ctx.WaitForSignal("stop")
			if err != nil {
				return nil, err
			}
			// The update arrived first and was retained while waiting.
			update, err := ctx.ReceiveSignal()
			if err != nil {
				return nil, err
			}
			return stopSig.Name + "," + update.Name, nil
		},
	})
	defer stop()

	stream := ft.awaitDial(t)
	awaitKind(t, stream, wire.KindHello)
	stream.in <- assignment("t1")

	deliver := func(id, name string) {
		stream.in <- &wire.ServerMessage{
			Type: wire.KindSignalDelivery,
			SignalDelivery: &wire.SignalDelivery{
				SignalID: id, TaskID: "t1", Name: name, Payload: `{}`,
			},
		}
	}
	deliver("sig-update", "update")
	deliver("sig-stop", "stop")

	firstAck := awaitKind(t, stream, wire.KindSignalAck).SignalAck
	if firstAck.SignalID != "sig-stop" {
		t.Errorf("first ack = %q, want sig-stop", firstAck.SignalID)
	}
	secondAck := awaitKind(t, stream, wire.KindSignalAck).SignalAck
	if secondAck.SignalID != "sig-update" {
		t.Errorf("second ack = %q, want sig-update", secondAck.SignalID)
	}

	res := awaitKind(t, stream, wire.KindTaskResult).TaskResult
	if res.Output != "stop,update" {
		t.Errorf("output = %q, want stop,update", res.Output)
	}
}

func TestTaskLogsAreBatched(t *testing.T) {
	_, ft, stop := startWorker(t, Config{
		Handler: func(ctx *TaskContext) (interface{}, error) {
			ctx.Log("step one")
			return nil, nil
		},
	})
	defer stop()

	stream := ft.awaitDial(t)
	awaitKind(t, stream, wire.KindHello)
	stream.in <- assignment("t1")

	batch := awaitKind(t, stream, wire.KindLogBatch).LogBatch
	if len(batch.Entries) != 1 {
		t.Fatalf("log batch has %d entries", len(batch.Entries))
	}
	entry := batch.Entries[0]
	if entry.TaskRunID != "t1-run-1" || entry.Message != "step one" || entry.Level != wire.LogLevelInfo {
		t.Errorf("unexpected log entry: %+v", entry)
	}
}

func TestReconnectAfterConnectionLoss(t *testing.T) {
	block := make(chan struct{})
	var completed atomic.Int32
	_, ft, stop := startWorker(t, Config{
		Handler: func(ctx *TaskContext) (interface{}, error) {
			select {
			case <-block:
				completed.Add(1)
				return "survived", nil
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		},
	})
	defer stop()

	first := ft.awaitDial(t)
	awaitKind(t, first, wire.KindHello)
	first.in <- assignment("t1")

	// Drop the connection while the task is still running.
	time.Sleep(50 * time.Millisecond)
	first.serverClose()

	second := ft.awaitDial(t)
	awaitKind(t, second, wire.KindHello)

	// The task kept running across the reconnect; its result arrives on the
	// new session.
	close(block)
	res := awaitKind(t, second, wire.KindTaskResult).TaskResult
	if !res.Success || res.Output != "survived" {
		t.Fatalf("result after reconnect: success=%v output=%q", res.Success, res.Output)
	}
	if completed.Load() != 1 {
		t.Errorf("task ran %d times, want 1", completed.Load())
	}
}

func TestWriteFailureTriggersReconnect(t *testing.T) {
	_, ft, stop := startWorker(t, Config{
		HeartbeatInterval: 10 * time.Millisecond,
		Handler:           func(ctx *TaskContext) (interface{}, error) { return nil, nil },
	})
	defer stop()

	first := ft.awaitDial(t)
	awaitKind(t, first, wire.KindHello)

	// The next outbound write (a heartbeat) fails; the session must end and
	// a fresh one must start with a new handshake.
	first.failSends.Store(true)

	second := ft.awaitDial(t)
	awaitKind(t, second, wire.KindHello)
}

func TestHeartbeatReportsActiveTasks(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	_, ft, stop := startWorker(t, Config{
		HeartbeatInterval: 20 * time.Millisecond,
		Handler: func(ctx *TaskContext) (interface{}, error) {
			close(started)
			select {
			case <-release:
			case <-ctx.Done():
			}
			return nil, nil
		},
	})
	defer stop()

	stream := ft.awaitDial(t)
	awaitKind(t, stream, wire.KindHello)
	stream.in <- assignment("t1")
	<-started

	deadline := time.After(5 * time.Second)
	for {
		var hb *wire.Heartbeat
		select {
		case msg := <-stream.out:
			if msg.Type != wire.KindHeartbeat {
				continue
			}
			hb = msg.Heartbeat
		case <-deadline:
			t.Fatal("no heartbeat listing the active task")
		}
		if len(hb.ActiveTaskIDs) == 1 && hb.ActiveTaskIDs[0] == "t1" {
			break
		}
	}
	close(release)
}

func TestShutdownDrainsAndNotifies(t *testing.T) {
	release := make(chan struct{})
	started := make(chan struct{})
	w, ft, stop := startWorker(t, Config{
		Handler: func(ctx *TaskContext) (interface{}, error) {
			close(started)
			<-release
			return "drained", nil
		},
	})
	defer stop()

	stream := ft.awaitDial(t)
	awaitKind(t, stream, wire.KindHello)
	stream.in <- assignment("t1")
	<-started

	go func() {
		time.Sleep(50 * time.Millisecond)
		close(release)
	}()
	w.Shutdown()

	sawNotice := false
	sawResult := false
	deadline := time.After(time.Second)
	for !(sawNotice && sawResult) {
		select {
		case msg := <-stream.out:
			switch msg.Type {
			case wire.KindGracefulShutdown:
				sawNotice = true
			case wire.KindTaskResult:
				sawResult = true
				if !msg.TaskResult.Success {
					t.Errorf("drained task failed: %s", msg.TaskResult.ErrorMessage)
				}
			}
		case <-deadline:
			t.Fatalf("shutdown frames incomplete: notice=%v result=%v", sawNotice, sawResult)
		}
	}
}

func TestShutdownCancelsTasksPastDeadline(t *testing.T) {
	started := make(chan struct{})
	cancelled := make(chan struct{})
	w, ft, stop := startWorker(t, Config{
		DrainTimeout: 50 * time.Millisecond,
		Handler: func(ctx *TaskContext) (interface{}, error) {
			close(started)
			<-ctx.Done()
			close(cancelled)
			return nil, ctx.Err()
		},
	})
	defer stop()

	stream := ft.awaitDial(t)
	awaitKind(t, stream, wire.KindHello)
	stream.in <- assignment("t1")
	<-started

	w.Shutdown()
	select {
	case <-cancelled:
	case <-time.After(time.Second):
		t.Fatal("task context was not cancelled at the drain deadline")
	}
}

func TestAssignmentsRejectedWhileDraining(t *testing.T) {
	release := make(chan struct{})
	started := make(chan struct{})
	w, ft, stop := startWorker(t, Config{
		Concurrency: 2,
		Handler: func(ctx *TaskContext) (interface{}, error) {
			close(started)
			<-release
			return nil, nil
		},
	})
	defer stop()

	stream := ft.awaitDial(t)
	awaitKind(t, stream, wire.KindHello)
	stream.in <- assignment("t1")
	<-started

	// Shutdown blocks draining t1; the session stays up meanwhile and the
	// flag is set immediately.
	go w.Shutdown()
	for !w.shuttingDown.Load() {
		time.Sleep(time.Millisecond)
	}

	stream.in <- assignment("t2")
	time.Sleep(50 * time.Millisecond)
	if n := w.activeCount(); n != 1 {
		t.Fatalf("active slots while draining = %d, want 1", n)
	}
	close(release)
}

func TestQueuedAssignmentRejectedWhenDrainBegins(t *testing.T) {
	release := make(chan struct{})
	started := make(chan string, 2)
	w, ft, stop := startWorker(t, Config{
		Concurrency: 1,
		Handler: func(ctx *TaskContext) (interface{}, error) {
			started <- ctx.TaskID
			<-release
			return "done", nil
		},
	})
	defer stop()

	stream := ft.awaitDial(t)
	awaitKind(t, stream, wire.KindHello)
	stream.in <- assignment("t1")
	if id := <-started; id != "t1" {
		t.Fatalf("first task = %q, want t1", id)
	}

	// t2 parks the dispatch path on the saturated concurrency slot.
	stream.in <- assignment("t2")
	time.Sleep(50 * time.Millisecond)

	go w.Shutdown()
	for !w.shuttingDown.Load() {
		time.Sleep(time.Millisecond)
	}

	// Freeing the slot mid-drain must not admit the queued assignment.
	close(release)

	res := awaitKind(t, stream, wire.KindTaskResult).TaskResult
	if res.TaskID != "t1" || !res.Success {
		t.Fatalf("result = %+v, want successful t1", res)
	}
	select {
	case id := <-started:
		t.Fatalf("assignment %s started after draining began", id)
	case <-time.After(100 * time.Millisecond):
	}
	if n := w.activeCount(); n != 0 {
		t.Fatalf("active slots after drain = %d, want 0", n)
	}
}

func TestShutdownWithoutSessionReturns(t *testing.T) {
	w, err := New(Config{
		Queues:  []string{"default"},
		Handler: func(*TaskContext) (interface{}, error) { return nil, nil },
		Logger:  log.NewNopLogger(),
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	done := make(chan struct{})
	go func() {
		w.Shutdown()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Shutdown hung with no session to flush through")
	}
}

func TestServerShutdownTriggersDrain(t *testing.T) {
	_, ft, stop := startWorker(t, Config{
		Handler: func(ctx *TaskContext) (interface{}, error) { return nil, nil },
	})
	defer stop()

	stream := ft.awaitDial(t)
	awaitKind(t, stream, wire.KindHello)
	stream.in <- &wire.ServerMessage{
		Type:           wire.KindServerShutdown,
		ServerShutdown: &wire.ServerShutdown{Reason: "maintenance"},
	}

	awaitKind(t, stream, wire.KindGracefulShutdown)
}

func TestEncodeOutput(t *testing.T) {
	if got := encodeOutput(nil); got != "" {
		t.Errorf("nil output = %q, want empty", got)
	}
	if got := encodeOutput("plain"); got != "plain" {
		t.Errorf("string output = %q, want plain", got)
	}
	if got := encodeOutput(map[string]bool{"ok": true}); got != `{"ok":true}` {
		t.Errorf("map output = %q", got)
	}
	if got := encodeOutput(42); got != "42" {
		t.Errorf("int output = %q", got)
	}
}
