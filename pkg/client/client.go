package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
)

// APIError is returned when the server answers with a non-2xx status.
type APIError struct {
	Status int
	Body   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error: status %d: %s", e.Status, e.Body)
}

// Client talks to the Rivet REST API.
type Client struct {
	baseURL    string
	httpClient *http.Client
	headers    map[string]string
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sets a custom http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithHeaders sets default headers applied to every request.
func WithHeaders(headers map[string]string) Option {
	return func(c *Client) { c.headers = headers }
}

// New creates a REST client for the given base URL.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: http.DefaultClient,
		headers:    map[string]string{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// CreateTask submits a new task.
func (c *Client) CreateTask(ctx context.Context, req CreateTaskRequest) (*Task, error) {
	var task Task
	if err := c.post(ctx, "/api/v1/tasks", req, &task); err != nil {
		return nil, err
	}
	return &task, nil
}

// GetTask fetches a task by id.
func (c *Client) GetTask(ctx context.Context, taskID string) (*Task, error) {
	var task Task
	if err := c.get(ctx, "/api/v1/tasks/"+url.PathEscape(taskID), nil, &task); err != nil {
		return nil, err
	}
	return &task, nil
}

// ListTasks lists tasks matching the filters.
func (c *Client) ListTasks(ctx context.Context, params ListTasksParams) ([]Task, error) {
	q := url.Values{}
	if params.QueueName != "" {
		q.Set("queue_name", params.QueueName)
	}
	if params.Status != "" {
		q.Set("status", params.Status)
	}
	if params.Limit > 0 {
		q.Set("limit", strconv.Itoa(params.Limit))
	}
	if params.Offset > 0 {
		q.Set("offset", strconv.Itoa(params.Offset))
	}
	var tasks []Task
	if err := c.get(ctx, "/api/v1/tasks", q, &tasks); err != nil {
		return nil, err
	}
	return tasks, nil
}

// CancelTask requests cancellation of a task.
func (c *Client) CancelTask(ctx context.Context, taskID string) (*Task, error) {
	var task Task
	if err := c.post(ctx, "/api/v1/tasks/"+url.PathEscape(taskID)+"/cancel", nil, &task); err != nil {
		return nil, err
	}
	return &task, nil
}

// GetTaskRuns lists execution attempts for a task.
func (c *Client) GetTaskRuns(ctx context.Context, taskID string) ([]TaskRun, error) {
	var runs []TaskRun
	if err := c.get(ctx, "/api/v1/tasks/"+url.PathEscape(taskID)+"/runs", nil, &runs); err != nil {
		return nil, err
	}
	return runs, nil
}

// GetRunLogs pages through logs for a task run.
func (c *Client) GetRunLogs(ctx context.Context, taskID, runID string, params GetRunLogsParams) ([]TaskLog, error) {
	q := url.Values{}
	if params.Limit > 0 {
		q.Set("limit", strconv.Itoa(params.Limit))
	}
	if params.AfterID != "" {
		q.Set("after_id", params.AfterID)
	}
	path := "/api/v1/tasks/" + url.PathEscape(taskID) + "/runs/" + url.PathEscape(runID) + "/logs"
	var logs []TaskLog
	if err := c.get(ctx, path, q, &logs); err != nil {
		return nil, err
	}
	return logs, nil
}

// SendSignal delivers a named signal to a task. The payload is JSON-encoded.
func (c *Client) SendSignal(ctx context.Context, taskID, name string, payload interface{}) (*SendSignalResponse, error) {
	body := map[string]interface{}{"signal_name": name}
	if payload != nil {
		body["payload"] = payload
	}
	var resp SendSignalResponse
	if err := c.post(ctx, "/api/v1/tasks/"+url.PathEscape(taskID)+"/signals", body, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// ListSignals lists signals sent to a task.
func (c *Client) ListSignals(ctx context.Context, taskID string) ([]TaskSignal, error) {
	var signals []TaskSignal
	if err := c.get(ctx, "/api/v1/tasks/"+url.PathEscape(taskID)+"/signals", nil, &signals); err != nil {
		return nil, err
	}
	return signals, nil
}

// ListWorkers lists connected workers.
func (c *Client) ListWorkers(ctx context.Context) ([]WorkerInfo, error) {
	var workers []WorkerInfo
	if err := c.get(ctx, "/api/v1/workers", nil, &workers); err != nil {
		return nil, err
	}
	return workers, nil
}

// ListDeadLetters lists dead-lettered tasks.
func (c *Client) ListDeadLetters(ctx context.Context, params ListDeadLettersParams) ([]DeadLetter, error) {
	q := url.Values{}
	if params.QueueName != "" {
		q.Set("queue_name", params.QueueName)
	}
	if params.Limit > 0 {
		q.Set("limit", strconv.Itoa(params.Limit))
	}
	if params.Offset > 0 {
		q.Set("offset", strconv.Itoa(params.Offset))
	}
	var letters []DeadLetter
	if err := c.get(ctx, "/api/v1/dead-letters", q, &letters); err != nil {
		return nil, err
	}
	return letters, nil
}

// Health checks server health and returns the raw body.
func (c *Client) Health(ctx context.Context) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/healthz", nil)
	if err != nil {
		return "", err
	}
	c.applyHeaders(req)
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	if resp.StatusCode >= 400 {
		return "", &APIError{Status: resp.StatusCode, Body: string(body)}
	}
	return string(body), nil
}

func (c *Client) get(ctx context.Context, path string, query url.Values, dest interface{}) error {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return err
	}
	return c.doJSON(req, dest)
}

func (c *Client) post(ctx context.Context, path string, body interface{}, dest interface{}) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return c.doJSON(req, dest)
}

func (c *Client) doJSON(req *http.Request, dest interface{}) error {
	c.applyHeaders(req)
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode >= 400 {
		return &APIError{Status: resp.StatusCode, Body: string(data)}
	}
	if dest != nil {
		if err := json.Unmarshal(data, dest); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}

func (c *Client) applyHeaders(req *http.Request) {
	for k, v := range c.headers {
		req.Header.Set(k, v)
	}
}
