// Package tools defines the tools available to the agent.
package tools

import (
	"context"
	"log/slog"

	"github.com/creditdesk/desk-agent/internal/taskstore"
)

// Tool represents a callable tool.
type Tool struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Parameters  map[string]any `json:"parameters"`

	// Mutating marks tools whose execution changes external state.
	// The controller's safety gate refuses to run these without a
	// prior explicit human confirmation in the conversation.
	Mutating bool `json:"mutating"`

	Handler func(ctx context.Context, args map[string]any) (string, error) `json:"-"`
}

// Registry holds the fixed tool catalog.
type Registry struct {
	tools    map[string]*Tool
	workflow *WorkflowClient
	files    *FileTools
	tasks    *taskstore.Store
	logger   *slog.Logger
}

// NewRegistry creates a tool registry wired to its collaborators.
// Any of workflow, files, or tasks may be nil; the corresponding tools
// then report themselves unconfigured instead of crashing.
func NewRegistry(workflow *WorkflowClient, files *FileTools, tasks *taskstore.Store, logger *slog.Logger) *Registry {
	r := &Registry{
		tools:    make(map[string]*Tool),
		workflow: workflow,
		files:    files,
		tasks:    tasks,
		logger:   logger,
	}
	r.registerBuiltins()
	return r
}

// Register adds a tool to the registry.
func (r *Registry) Register(t *Tool) {
	r.tools[t.Name] = t
}

// Get retrieves a tool by name. Returns nil if unknown.
func (r *Registry) Get(name string) *Tool {
	return r.tools[name]
}

// Names returns the catalog's tool names.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.tools))
	for n := range r.tools {
		names = append(names, n)
	}
	return names
}

// Execute runs a tool by name with the given arguments.
//
// A catalog miss returns *ErrToolUnavailable. Handler failures —
// unreachable endpoints, missing files, division by zero, storage
// errors — come back as ordinary errors; the controller renders them
// into error-shaped text results so the reasoning engine can react to
// them instead of the turn crashing.
func (r *Registry) Execute(ctx context.Context, name string, args map[string]any) (string, error) {
	tool := r.tools[name]
	if tool == nil {
		return "", &ErrToolUnavailable{ToolName: name}
	}

	result, err := tool.Handler(ctx, args)
	if err != nil {
		r.logger.Warn("tool execution failed", "tool", name, "error", err)
		return "", err
	}

	return result, nil
}
