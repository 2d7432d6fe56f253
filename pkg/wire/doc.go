// Package wire defines the worker session protocol.
//
// A session is one bidirectional stream of JSON frames. Each frame is a
// tagged union: a Type discriminator plus exactly one payload field. The
// worker sends ClientMessage frames (hello, heartbeat, task_result,
// log_batch, signal_ack, graceful_shutdown) and receives ServerMessage
// frames (task_assignment, task_cancellation, signal_delivery,
// server_shutdown, heartbeat_ack).
//
// # Session shape
//
//	worker                          server
//	  | -- hello ------------------->
//	  | -- heartbeat (10s) --------->
//	  | <------------ task_assignment
//	  | -- log_batch --------------->
//	  | <------------ signal_delivery
//	  | -- signal_ack -------------->
//	  | -- task_result ------------->
//	  | -- graceful_shutdown ------->
//
// Decode helpers validate that the discriminator and payload agree, so a
// session loop can switch on Type without nil checks.
package wire
