package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/creditdesk/desk-agent/internal/taskstore"
)

func (r *Registry) registerBuiltins() {
	// Live pipeline snapshot (legacy; task queries prefer get_tasks)
	r.Register(&Tool{
		Name:        "get_pipeline_summary",
		Description: "Fetch the current underwriting / credit pipeline snapshot: deals, stages, owners, blockers.",
		Parameters: map[string]any{
			"type":       "object",
			"properties": map[string]any{},
		},
		Handler: r.handlePipelineSummary,
	})

	// File read
	r.Register(&Tool{
		Name:        "read_file",
		Description: "Read the contents of a local text file inside the workspace, such as memo.txt.",
		Parameters: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"path": map[string]any{
					"type":        "string",
					"description": "Exact filename relative to the workspace (e.g., memo.txt)",
				},
			},
			"required": []string{"path"},
		},
		Handler: r.handleReadFile,
	})

	// Debt yield calculation
	r.Register(&Tool{
		Name:        "debt_yield",
		Description: "Calculate debt yield = NOI / loan amount * 100, with a step-by-step explanation.",
		Parameters: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"noi": map[string]any{
					"type":        "number",
					"description": "Net operating income",
				},
				"loan_amount": map[string]any{
					"type":        "number",
					"description": "Loan amount (must be non-zero)",
				},
			},
			"required": []string{"noi", "loan_amount"},
		},
		Handler: handleDebtYield,
	})

	// Work item creation (mutating — safety gated)
	r.Register(&Tool{
		Name:        "create_work_item",
		Description: "Create / assign a task to an officer via the workflow engine. Requires prior user confirmation.",
		Parameters: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"borrower": map[string]any{"type": "string"},
				"officer":  map[string]any{"type": "string"},
				"note":     map[string]any{"type": "string"},
			},
			"required": []string{"borrower", "officer", "note"},
		},
		Mutating: true,
		Handler:  r.handleCreateWorkItem,
	})

	// Task memory write (mutating — safety gated)
	r.Register(&Tool{
		Name:        "record_task",
		Description: "Record a persistent task into task memory.",
		Parameters: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"borrower": map[string]any{"type": "string"},
				"officer":  map[string]any{"type": "string"},
				"note":     map[string]any{"type": "string"},
				"status":   map[string]any{"type": "string"},
				"task_id":  map[string]any{"type": "string"},
			},
			"required": []string{"borrower", "officer", "note"},
		},
		Mutating: true,
		Handler:  r.handleRecordTask,
	})

	// Task memory query
	r.Register(&Tool{
		Name:        "get_tasks",
		Description: "Retrieve persistent tasks, optionally filtered by borrower, officer, or status.",
		Parameters: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"borrower": map[string]any{
					"type":        "string",
					"description": "Partial match, case-insensitive",
				},
				"officer": map[string]any{
					"type":        "string",
					"description": "Partial match, case-insensitive",
				},
				"status": map[string]any{
					"type":        "string",
					"description": "Exact match: open, in_progress, done, blocked",
				},
			},
		},
		Handler: r.handleGetTasks,
	})

	// Task store connectivity check
	r.Register(&Tool{
		Name:        "db_health",
		Description: "Check task memory connectivity and presence of the tasks table.",
		Parameters: map[string]any{
			"type":       "object",
			"properties": map[string]any{},
		},
		Handler: r.handleDBHealth,
	})
}

// Tool handlers

func (r *Registry) handlePipelineSummary(ctx context.Context, args map[string]any) (string, error) {
	if r.workflow == nil {
		return "", fmt.Errorf("workflow engine not configured")
	}
	return r.workflow.PipelineSummary(ctx), nil
}

func (r *Registry) handleReadFile(ctx context.Context, args map[string]any) (string, error) {
	if r.files == nil || !r.files.Enabled() {
		return "", fmt.Errorf("workspace not configured")
	}

	path, _ := args["path"].(string)
	if path == "" {
		return "", fmt.Errorf("path is required")
	}

	return r.files.Read(path)
}

func handleDebtYield(ctx context.Context, args map[string]any) (string, error) {
	noi, err := numberArg(args, "noi")
	if err != nil {
		return "", err
	}
	loan, err := numberArg(args, "loan_amount")
	if err != nil {
		return "", err
	}

	if loan == 0 {
		return "", fmt.Errorf("division by zero: loan_amount must be non-zero")
	}

	dy := noi / loan * 100.0

	return fmt.Sprintf(`Debt Yield Calculation:
NOI = %g
Loan Amount = %g
Debt Yield = NOI / Loan Amount * 100
           = %g / %g * 100
           = %.2f%%
`, noi, loan, noi, loan, dy), nil
}

func (r *Registry) handleCreateWorkItem(ctx context.Context, args map[string]any) (string, error) {
	if r.workflow == nil {
		return "", fmt.Errorf("workflow engine not configured")
	}

	borrower, _ := args["borrower"].(string)
	officer, _ := args["officer"].(string)
	note, _ := args["note"].(string)

	if borrower == "" || officer == "" || note == "" {
		return "", fmt.Errorf("borrower, officer, and note are required")
	}

	return r.workflow.CreateWorkItem(ctx, borrower, officer, note)
}

func (r *Registry) handleRecordTask(ctx context.Context, args map[string]any) (string, error) {
	if r.tasks == nil {
		return "", fmt.Errorf("task store not configured")
	}

	borrower, _ := args["borrower"].(string)
	officer, _ := args["officer"].(string)
	note, _ := args["note"].(string)
	status, _ := args["status"].(string)
	taskID, _ := args["task_id"].(string)

	if borrower == "" || officer == "" || note == "" {
		return "", fmt.Errorf("borrower, officer, and note are required")
	}

	task, err := r.tasks.Record(borrower, officer, note, status, taskID)
	if err != nil {
		return "", err
	}

	out, err := json.MarshalIndent(map[string]any{
		"task_id":  task.TaskID,
		"borrower": task.Borrower,
		"officer":  task.Officer,
		"note":     task.Note,
		"status":   task.Status,
		"stored":   true,
	}, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode result: %w", err)
	}

	return string(out), nil
}

func (r *Registry) handleGetTasks(ctx context.Context, args map[string]any) (string, error) {
	if r.tasks == nil {
		return "", fmt.Errorf("task store not configured")
	}

	borrower, _ := args["borrower"].(string)
	officer, _ := args["officer"].(string)
	status, _ := args["status"].(string)

	tasks, err := r.tasks.Query(taskstore.Filter{
		Borrower: borrower,
		Officer:  officer,
		Status:   status,
	})
	if err != nil {
		return "", err
	}

	if len(tasks) == 0 {
		return "No matching tasks found.", nil
	}

	out, err := json.MarshalIndent(tasks, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode tasks: %w", err)
	}

	return string(out), nil
}

func (r *Registry) handleDBHealth(ctx context.Context, args map[string]any) (string, error) {
	if r.tasks == nil {
		return "", fmt.Errorf("task store not configured")
	}

	report, _ := r.tasks.Health()
	return report, nil
}

// numberArg extracts a numeric argument. JSON numbers decode as float64;
// numeric strings are also accepted since models sometimes quote them.
func numberArg(args map[string]any, key string) (float64, error) {
	v, ok := args[key]
	if !ok {
		return 0, fmt.Errorf("%s is required", key)
	}

	switch n := v.(type) {
	case float64:
		return n, nil
	case int:
		return float64(n), nil
	case string:
		f, err := strconv.ParseFloat(n, 64)
		if err != nil {
			return 0, fmt.Errorf("%s must be a number, got %q", key, n)
		}
		return f, nil
	default:
		return 0, fmt.Errorf("%s must be a number, got %T", key, v)
	}
}
