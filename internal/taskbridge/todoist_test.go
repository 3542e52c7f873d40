package taskbridge

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sort"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"training-load/internal/faults"
)

func testLogger() zerolog.Logger {
	return zerolog.Nop()
}

func newTestClient(t *testing.T, srv *httptest.Server) *Client {
	t.Helper()
	c, err := NewClient("token", srv.URL, "gc-project", time.Second, testLogger())
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	return c
}

func TestNewClientRequiresToken(t *testing.T) {
	if _, err := NewClient("", "", "", 0, testLogger()); !errors.Is(err, faults.ErrMissingCredentials) {
		t.Fatalf("expected ErrMissingCredentials, got %v", err)
	}
}

func TestCreateTaskForcesProjectLabel(t *testing.T) {
	var received TaskRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/tasks" || r.Method != http.MethodPost {
			t.Fatalf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer token" {
			t.Fatalf("authorization header = %q", got)
		}
		if err := json.NewDecoder(r.Body).Decode(&received); err != nil {
			t.Fatalf("decode body: %v", err)
		}
		_ = json.NewEncoder(w).Encode(map[string]string{"id": "1"})
	}))
	defer srv.Close()

	c := newTestClient(t, srv)
	if _, err := c.CreateTask(context.Background(), TaskRequest{Content: "fix gutter", Labels: []string{"roof"}}); err != nil {
		t.Fatalf("create task: %v", err)
	}

	sort.Strings(received.Labels)
	if len(received.Labels) != 2 || received.Labels[0] != "gc-project" || received.Labels[1] != "roof" {
		t.Fatalf("project label not forced: %v", received.Labels)
	}
}

func TestTaskSummaryBuckets(t *testing.T) {
	now := time.Date(2024, time.July, 10, 12, 0, 0, 0, time.UTC)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("label"); got != "gc-project" {
			t.Fatalf("summary should filter by project label, got %q", got)
		}
		_ = json.NewEncoder(w).Encode([]Task{
			{ID: "1", Content: "late", Due: &Due{Date: "2024-07-01"}},
			{ID: "2", Content: "soon", Due: &Due{Date: "2024-07-12"}},
			{ID: "3", Content: "later", Due: &Due{Date: "2024-09-01"}},
			{ID: "4", Content: "blocker", Labels: []string{"blocking"}},
			{ID: "5", Content: "inspect", Labels: []string{"inspection"}, Due: &Due{Date: "2024-07-11T09:00:00Z"}},
		})
	}))
	defer srv.Close()

	c := newTestClient(t, srv)
	summary, err := c.TaskSummary(context.Background(), now)
	if err != nil {
		t.Fatalf("summary: %v", err)
	}

	if len(summary.Overdue) != 1 || summary.Overdue[0].ID != "1" {
		t.Fatalf("overdue bucket wrong: %+v", summary.Overdue)
	}
	if len(summary.DueSoon) != 2 {
		t.Fatalf("due_soon bucket wrong: %+v", summary.DueSoon)
	}
	if len(summary.Blocking) != 1 || summary.Blocking[0].ID != "4" {
		t.Fatalf("blocking bucket wrong: %+v", summary.Blocking)
	}
	if len(summary.Inspections) != 1 || summary.Inspections[0].ID != "5" {
		t.Fatalf("inspections bucket wrong: %+v", summary.Inspections)
	}
}

func TestCloseTaskUpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusForbidden)
	}))
	defer srv.Close()

	c := newTestClient(t, srv)
	if err := c.CloseTask(context.Background(), "42"); !errors.Is(err, faults.ErrUpstream) {
		t.Fatalf("expected ErrUpstream, got %v", err)
	}
}
