// Package client provides the REST client for the Rivet task-queue API.
//
// It covers the request/response surface used by producers and tooling:
// task CRUD (create, get, list, cancel), run and log inspection, worker
// listing, dead-letter listing, signal send/list, and health checks. Task
// execution itself goes through the streaming worker in pkg/worker; this
// package never touches the session protocol.
//
// Usage
//
//	c := client.New("http://localhost:8080")
//	task, err := c.CreateTask(ctx, client.CreateTaskRequest{
//	    QueueName: "emails",
//	    TaskName:  "send-welcome",
//	    Input:     map[string]string{"to": "user@example.com"},
//	})
//
// Non-2xx responses are returned as *APIError carrying the HTTP status and
// response body.
package client
