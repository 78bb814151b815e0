package agent

import (
	"encoding/json"
	"log/slog"

	"github.com/creditdesk/desk-agent/internal/metrics"
	"github.com/creditdesk/desk-agent/internal/taskstore"
)

// Notifier mirrors completed mutating actions into durable task memory.
// It is strictly best-effort: the user-visible answer never blocks on
// it, and failures are logged and counted rather than surfaced.
type Notifier struct {
	tasks  *taskstore.Store
	logger *slog.Logger
}

// NewNotifier creates a notifier backed by the given task store.
// A nil store disables mirroring.
func NewNotifier(tasks *taskstore.Store, logger *slog.Logger) *Notifier {
	return &Notifier{tasks: tasks, logger: logger}
}

// AfterTool dispatches on a successfully completed tool call.
// Only create_work_item has a side-effect mirror today; record_task
// already writes to the task store directly.
func (n *Notifier) AfterTool(name string, args map[string]any, output string) {
	if name == "create_work_item" {
		n.WorkItemCreated(args, output)
	}
}

// WorkItemCreated records a mirror of a successful create_work_item
// call. If the workflow engine's response carried a task_id, the mirror
// reuses it so the two systems stay correlated.
func (n *Notifier) WorkItemCreated(args map[string]any, toolOutput string) {
	if n.tasks == nil {
		return
	}

	borrower, _ := args["borrower"].(string)
	officer, _ := args["officer"].(string)
	note, _ := args["note"].(string)

	var upstreamID string
	var payload map[string]any
	if err := json.Unmarshal([]byte(toolOutput), &payload); err == nil {
		if id, ok := payload["task_id"].(string); ok {
			upstreamID = id
		}
	}

	if _, err := n.tasks.Record(borrower, officer, note, "open", upstreamID); err != nil {
		metrics.NotifierFailuresTotal.Inc()
		n.logger.Warn("failed to mirror work item into task memory",
			"borrower", borrower,
			"officer", officer,
			"error", err,
		)
	}
}
