// Package taskbridge forwards task operations to the Todoist REST API on
// behalf of the caller.
package taskbridge

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"training-load/internal/faults"
)

const dueSoonWindow = 5 * 24 * time.Hour

// TaskRequest describes a task to create.
type TaskRequest struct {
	Content   string   `json:"content"`
	DueString string   `json:"due_string,omitempty"`
	Labels    []string `json:"labels,omitempty"`
}

// TaskUpdate carries the mutable fields of an existing task. Nil fields are
// left untouched.
type TaskUpdate struct {
	Content   *string   `json:"content,omitempty"`
	DueString *string   `json:"due_string,omitempty"`
	Labels    *[]string `json:"labels,omitempty"`
}

// Task is the subset of the Todoist task payload the bridge inspects.
type Task struct {
	ID      string   `json:"id"`
	Content string   `json:"content"`
	Labels  []string `json:"labels"`
	Due     *Due     `json:"due"`
}

// Due captures a task due date.
type Due struct {
	Date   string `json:"date"`
	String string `json:"string"`
}

// Summary buckets project tasks by urgency.
type Summary struct {
	Overdue     []Task `json:"overdue"`
	Blocking    []Task `json:"blocking"`
	DueSoon     []Task `json:"due_soon"`
	Inspections []Task `json:"inspections"`
}

// Client talks to the Todoist REST API.
type Client struct {
	token   string
	baseURL string
	label   string
	client  *http.Client
	logger  zerolog.Logger
}

// NewClient constructs a Todoist client. label is attached to every created
// task and scopes the summary query.
func NewClient(token, baseURL, label string, timeout time.Duration, logger zerolog.Logger) (*Client, error) {
	if token == "" {
		return nil, faults.Tag(faults.ErrMissingCredentials, fmt.Errorf("todoist.api_token not configured"))
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if baseURL == "" {
		baseURL = "https://api.todoist.com/rest/v2"
	}
	if label == "" {
		label = "gc-project"
	}

	return &Client{
		token:   token,
		baseURL: strings.TrimRight(baseURL, "/"),
		label:   label,
		client:  &http.Client{Timeout: timeout},
		logger:  logger.With().Str("component", "taskbridge").Logger(),
	}, nil
}

// Label returns the project label the bridge operates under.
func (c *Client) Label() string {
	return c.label
}

// CreateTask creates a task, forcing the project label into its label set.
func (c *Client) CreateTask(ctx context.Context, req TaskRequest) (json.RawMessage, error) {
	labels := map[string]struct{}{c.label: {}}
	for _, l := range req.Labels {
		labels[l] = struct{}{}
	}
	merged := make([]string, 0, len(labels))
	for l := range labels {
		merged = append(merged, l)
	}
	req.Labels = merged

	return c.do(ctx, http.MethodPost, "/tasks", req)
}

// ListTasks lists tasks, optionally filtered by label.
func (c *Client) ListTasks(ctx context.Context, label string) ([]Task, error) {
	path := "/tasks"
	if label != "" {
		path += "?label=" + url.QueryEscape(label)
	}

	raw, err := c.do(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}

	var tasks []Task
	if err := json.Unmarshal(raw, &tasks); err != nil {
		return nil, faults.Tag(faults.ErrUpstream, fmt.Errorf("decode tasks: %w", err))
	}
	return tasks, nil
}

// UpdateTask mutates an existing task. Todoist uses POST for updates.
func (c *Client) UpdateTask(ctx context.Context, id string, update TaskUpdate) (json.RawMessage, error) {
	return c.do(ctx, http.MethodPost, "/tasks/"+url.PathEscape(id), update)
}

// CloseTask marks a task complete.
func (c *Client) CloseTask(ctx context.Context, id string) error {
	_, err := c.do(ctx, http.MethodPost, "/tasks/"+url.PathEscape(id)+"/close", nil)
	return err
}

// TaskSummary fetches the project's tasks and buckets them into overdue,
// blocking, due-soon, and inspection groups. Due dates are read as naive
// local dates; "soon" means within five days.
func (c *Client) TaskSummary(ctx context.Context, now time.Time) (Summary, error) {
	tasks, err := c.ListTasks(ctx, c.label)
	if err != nil {
		return Summary{}, err
	}

	summary := Summary{
		Overdue:     []Task{},
		Blocking:    []Task{},
		DueSoon:     []Task{},
		Inspections: []Task{},
	}
	soon := now.Add(dueSoonWindow)

	for _, t := range tasks {
		if t.hasLabel("blocking") {
			summary.Blocking = append(summary.Blocking, t)
		}
		if t.hasLabel("inspection") {
			summary.Inspections = append(summary.Inspections, t)
		}

		due, ok := t.dueTime()
		if !ok {
			continue
		}
		switch {
		case due.Before(now):
			summary.Overdue = append(summary.Overdue, t)
		case !due.After(soon):
			summary.DueSoon = append(summary.DueSoon, t)
		}
	}

	return summary, nil
}

func (t Task) hasLabel(label string) bool {
	for _, l := range t.Labels {
		if l == label {
			return true
		}
	}
	return false
}

func (t Task) dueTime() (time.Time, bool) {
	if t.Due == nil || t.Due.Date == "" {
		return time.Time{}, false
	}
	raw := strings.TrimSuffix(t.Due.Date, "Z")
	for _, layout := range []string{"2006-01-02T15:04:05", "2006-01-02"} {
		if parsed, err := time.ParseInLocation(layout, raw, time.UTC); err == nil {
			return parsed, true
		}
	}
	return time.Time{}, false
}

func (c *Client) do(ctx context.Context, method, path string, payload any) (json.RawMessage, error) {
	var body io.Reader
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("marshal todoist payload: %w", err)
		}
		body = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("create todoist request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, faults.Tag(faults.ErrUpstream, fmt.Errorf("send todoist request: %w", err))
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, faults.Tag(faults.ErrUpstream, err)
	}
	if resp.StatusCode >= 400 {
		return nil, faults.Tag(faults.ErrUpstream,
			fmt.Errorf("todoist api error (%d): %s", resp.StatusCode, strings.TrimSpace(string(raw))))
	}

	c.logger.Debug().Str("method", method).Str("path", path).Int("status", resp.StatusCode).
		Msg("todoist request completed")
	return raw, nil
}
