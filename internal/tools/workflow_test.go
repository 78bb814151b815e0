package tools

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestPipelineSummary_CannedWhenUnconfigured(t *testing.T) {
	w := NewWorkflowClient("", "", 0)

	out := w.PipelineSummary(context.Background())
	if !strings.Contains(out, "ACME Industrial LLC") {
		t.Errorf("canned snapshot missing expected deal:\n%s", out)
	}

	var parsed map[string]any
	if err := json.Unmarshal([]byte(out), &parsed); err != nil {
		t.Fatalf("canned snapshot is not valid JSON: %v", err)
	}
}

func TestPipelineSummary_Live(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"pipeline_date": "2026-08-26", "deals": []}`))
	}))
	defer srv.Close()

	w := NewWorkflowClient(srv.URL, "", 0)
	out := w.PipelineSummary(context.Background())
	if !strings.Contains(out, "2026-08-26") {
		t.Errorf("live snapshot not passed through: %q", out)
	}
}

// An unreachable pipeline endpoint produces error-shaped JSON text, not
// an error: the reasoning engine sees the failure and reacts to it.
func TestPipelineSummary_UnreachableEndpoint(t *testing.T) {
	w := NewWorkflowClient("http://127.0.0.1:1/pipeline", "", 0)

	out := w.PipelineSummary(context.Background())
	var parsed map[string]string
	if err := json.Unmarshal([]byte(out), &parsed); err != nil {
		t.Fatalf("failure payload is not valid JSON: %v\n%s", err, out)
	}
	if parsed["error"] == "" {
		t.Errorf("failure payload missing error field: %s", out)
	}
}

func TestCreateWorkItem_PostsPayload(t *testing.T) {
	var got map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode payload: %v", err)
		}
		w.Write([]byte(`{"task_id": "wf-42"}`))
	}))
	defer srv.Close()

	w := NewWorkflowClient("", srv.URL, 0)
	out, err := w.CreateWorkItem(context.Background(), "ACME", "Kim", "collect rent roll")
	if err != nil {
		t.Fatalf("CreateWorkItem: %v", err)
	}
	if !strings.Contains(out, "wf-42") {
		t.Errorf("output = %q", out)
	}

	if got["borrower"] != "ACME" || got["officer"] != "Kim" || got["note"] != "collect rent roll" {
		t.Errorf("posted payload = %v", got)
	}
}

// Mutation failures must be errors, never text that could read as
// success downstream.
func TestCreateWorkItem_FailuresAreErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "workflow down", http.StatusBadGateway)
	}))
	defer srv.Close()

	w := NewWorkflowClient("", srv.URL, 0)
	if _, err := w.CreateWorkItem(context.Background(), "ACME", "Kim", "x"); err == nil {
		t.Error("CreateWorkItem succeeded against a 502")
	}

	w = NewWorkflowClient("", "", 0)
	if _, err := w.CreateWorkItem(context.Background(), "ACME", "Kim", "x"); err == nil {
		t.Error("CreateWorkItem succeeded with no endpoint configured")
	}
}
