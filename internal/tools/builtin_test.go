package tools

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"testing"

	"github.com/creditdesk/desk-agent/internal/taskstore"
)

func testRegistry(t *testing.T) (*Registry, *taskstore.Store) {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	tasks, err := taskstore.New(filepath.Join(t.TempDir(), "tasks.db"))
	if err != nil {
		t.Fatalf("taskstore.New: %v", err)
	}
	t.Cleanup(func() { tasks.Close() })

	return NewRegistry(NewWorkflowClient("", "", 0), nil, tasks, logger), tasks
}

func TestRegistry_CatalogComplete(t *testing.T) {
	r, _ := testRegistry(t)

	for _, name := range []string{
		"get_pipeline_summary", "read_file", "debt_yield",
		"create_work_item", "record_task", "get_tasks", "db_health",
	} {
		if r.Get(name) == nil {
			t.Errorf("catalog missing %s", name)
		}
	}

	if !r.Get("create_work_item").Mutating {
		t.Error("create_work_item is not marked mutating")
	}
	if !r.Get("record_task").Mutating {
		t.Error("record_task is not marked mutating")
	}
	if r.Get("get_tasks").Mutating {
		t.Error("get_tasks must not be mutating")
	}
}

func TestExecute_UnknownTool(t *testing.T) {
	r, _ := testRegistry(t)

	_, err := r.Execute(context.Background(), "frobnicate", nil)
	var unavail *ErrToolUnavailable
	if !errors.As(err, &unavail) {
		t.Fatalf("err = %v, want *ErrToolUnavailable", err)
	}
	if unavail.ToolName != "frobnicate" {
		t.Errorf("ToolName = %q", unavail.ToolName)
	}
}

func TestDebtYield(t *testing.T) {
	r, _ := testRegistry(t)

	out, err := r.Execute(context.Background(), "debt_yield", map[string]any{
		"noi": 90000.0, "loan_amount": 1000000.0,
	})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if !strings.Contains(out, "= 9.00%") {
		t.Errorf("output missing computed yield:\n%s", out)
	}
	// The explanation shows the working, not just the result.
	if !strings.Contains(out, "NOI / Loan Amount * 100") {
		t.Errorf("output missing formula:\n%s", out)
	}
}

func TestDebtYield_DivideByZero(t *testing.T) {
	r, _ := testRegistry(t)

	_, err := r.Execute(context.Background(), "debt_yield", map[string]any{
		"noi": 90000.0, "loan_amount": 0.0,
	})
	if err == nil {
		t.Fatal("Execute succeeded with zero loan amount")
	}
	if !strings.Contains(err.Error(), "division by zero") {
		t.Errorf("error = %v, want division-by-zero report", err)
	}
}

func TestDebtYield_QuotedNumbersAccepted(t *testing.T) {
	r, _ := testRegistry(t)

	out, err := r.Execute(context.Background(), "debt_yield", map[string]any{
		"noi": "90000", "loan_amount": "1000000",
	})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if !strings.Contains(out, "= 9.00%") {
		t.Errorf("output = %q", out)
	}
}

func TestDebtYield_MissingArgument(t *testing.T) {
	r, _ := testRegistry(t)

	_, err := r.Execute(context.Background(), "debt_yield", map[string]any{"noi": 90000.0})
	if err == nil || !strings.Contains(err.Error(), "loan_amount is required") {
		t.Errorf("error = %v, want missing-argument report", err)
	}
}

func TestGetTasks_EmptyStore(t *testing.T) {
	r, _ := testRegistry(t)

	out, err := r.Execute(context.Background(), "get_tasks", map[string]any{})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if out != "No matching tasks found." {
		t.Errorf("output = %q", out)
	}
}

func TestRecordTask_ThenQuery(t *testing.T) {
	r, _ := testRegistry(t)

	out, err := r.Execute(context.Background(), "record_task", map[string]any{
		"borrower": "Greenfield Storage",
		"officer":  "Lopez",
		"note":     "chase YE2024 financials",
	})
	if err != nil {
		t.Fatalf("record_task: %v", err)
	}
	if !strings.Contains(out, `"stored": true`) {
		t.Errorf("record_task output = %q", out)
	}

	out, err = r.Execute(context.Background(), "get_tasks", map[string]any{"officer": "lopez"})
	if err != nil {
		t.Fatalf("get_tasks: %v", err)
	}
	if !strings.Contains(out, "Greenfield Storage") {
		t.Errorf("get_tasks output missing the recorded task:\n%s", out)
	}
}

func TestReadFile_WorkspaceNotConfigured(t *testing.T) {
	r, _ := testRegistry(t)

	_, err := r.Execute(context.Background(), "read_file", map[string]any{"path": "memo.txt"})
	if err == nil || !strings.Contains(err.Error(), "workspace not configured") {
		t.Errorf("error = %v, want workspace-not-configured", err)
	}
}

func TestDBHealth(t *testing.T) {
	r, _ := testRegistry(t)

	out, err := r.Execute(context.Background(), "db_health", map[string]any{})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if !strings.Contains(out, `"has_tasks_table": true`) {
		t.Errorf("health report = %q", out)
	}
}
