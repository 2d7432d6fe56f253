// Package worker implements the Rivet worker runtime: a long-lived session
// to the task-queue server, bounded concurrent task execution, in-band
// signal delivery, and graceful drain on shutdown.
//
// # Lifecycle
//
// A Worker is built from a Config and run until shutdown:
//
//	w, err := worker.New(worker.Config{
//	    Name:        "billing-worker",
//	    ServerURL:   "ws://queue.internal:8080",
//	    Queues:      []string{"billing"},
//	    Concurrency: 8,
//	    Handler: func(ctx *worker.TaskContext) (interface{}, error) {
//	        var in ChargeRequest
//	        if err := ctx.Input(&in); err != nil {
//	            return nil, worker.NewHandlerError(err.Error(), false)
//	        }
//	        ctx.Log("charging customer")
//	        return charge(ctx, in)
//	    },
//	})
//	if err != nil {
//	    return err
//	}
//	return w.Run(ctx)
//
// Run dials the server, performs the hello handshake, and processes
// assignments. When the connection drops it reconnects with exponential
// backoff; running tasks are not interrupted by a reconnect, and their
// results are queued and flushed once a session is re-established.
//
// # Concurrency
//
// Concurrency bounds the number of simultaneously executing tasks. Each
// assignment runs in its own goroutine with a TaskContext whose embedded
// context.Context is cancelled on server-issued cancellation and when the
// drain deadline expires.
//
// # Outcomes
//
// Exactly one result is reported per assignment. A nil handler error is a
// success; the returned value becomes the task output (strings pass through,
// other values are JSON-encoded). A *HandlerError controls whether the
// server may retry the attempt; any other error, including a recovered
// handler panic, is retryable.
//
// # Signals
//
// Signals sent to a running task are routed to a bounded per-task inbox.
// Handlers consume them with TaskContext.ReceiveSignal or WaitForSignal;
// each consumed signal is acknowledged to the server exactly once.
//
// # Shutdown
//
// Shutdown (also triggered by SIGINT/SIGTERM) stops accepting assignments,
// notifies the server, and waits up to DrainTimeout for active tasks before
// cancelling the stragglers. Run returns once draining completes.
package worker
