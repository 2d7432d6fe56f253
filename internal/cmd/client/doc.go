// Package client provides the `rivet` command-line client.
//
// The CLI talks to the Rivet REST API for task management and runs workers
// against the websocket session endpoint. It is primarily intended for
// developers and operators.
//
// Installation
//
//	go install github.com/rivetq/rivet/cmd/rivet@latest
//
// # Address configuration
//
// The HTTP base URL is discovered by the application that embeds the
// commands via a BaseURLFunc. When using the standalone binary, it is read
// from the RIVET_HTTP environment variable (default http://127.0.0.1:8080).
// The worker session endpoint comes from --server, RIVET_SERVER_URL, or the
// config file.
//
// Usage
//
//	rivet task create --queue billing --name charge \
//	    --input '{"customerId":"c-42","amountCents":1999}' \
//	    --max-retries 5 --idempotency-key charge-c42-1999
//
//	rivet task list --queue billing --status pending --limit 20
//	rivet task get TASK_ID
//	rivet task runs TASK_ID
//	rivet task logs TASK_ID RUN_ID --limit 50
//	rivet task cancel TASK_ID
//
//	# Signals reach the worker session currently executing the task
//	rivet signal send TASK_ID pause --payload '{"until":"2026-09-01T00:00:00Z"}'
//	rivet signal list TASK_ID
//
//	rivet worker list
//	rivet deadletter list --queue billing
//	rivet health
//
//	# Run an echo worker for smoke tests
//	rivet worker run --queue billing --concurrency 4 \
//	    --server ws://127.0.0.1:8080 --metrics-addr :9090
//
// Notes
//
//   - worker run drains on SIGINT/SIGTERM: in-flight tasks get the
//     configured drain window before they are cancelled.
//   - create accepts --input and --metadata as JSON strings; both are
//     optional.
package client
