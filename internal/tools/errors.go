package tools

import "fmt"

// ErrToolUnavailable is returned when a tool call targets a tool that
// is not present in the catalog. This indicates the model invented a
// tool name, not a transient execution failure. The controller reports
// it back into the conversation as a synthetic tool-error result so the
// model can recover.
type ErrToolUnavailable struct {
	ToolName string
}

// Error implements the error interface.
func (e *ErrToolUnavailable) Error() string {
	return fmt.Sprintf("tool %q is not available in this catalog", e.ToolName)
}
