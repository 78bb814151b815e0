package agent

import (
	"fmt"
	"strings"

	"github.com/creditdesk/desk-agent/internal/tools"
)

// Override is a deterministic, keyword-triggered tool selection that
// bypasses the reasoning engine's own choice.
type Override struct {
	Tool string
	Args map[string]any

	// Hint is appended to the summarization re-prompt after the
	// override tool runs.
	Hint string
}

// OverrideRouter short-circuits a narrow set of intents to fixed tool
// calls. Model-side tool selection for pipeline questions drifted
// between the live pipeline webhook and persisted task memory, so the
// router pins those queries to get_tasks regardless of model behavior.
type OverrideRouter struct {
	overrides []keywordOverride
}

type keywordOverride struct {
	keywords []string
	override Override
}

// NewOverrideRouter builds the router and validates every override
// against the catalog: overrides must target known, non-mutating tools.
// A misconfigured override is a programming error, caught at startup.
func NewOverrideRouter(catalog *tools.Registry) (*OverrideRouter, error) {
	r := &OverrideRouter{
		overrides: []keywordOverride{
			{
				keywords: []string{"pipeline", "queue"},
				override: Override{
					Tool: "get_tasks",
					Args: map[string]any{"status": "open"},
					Hint: "Please summarize these tasks in plain English, grouped by officer if helpful.",
				},
			},
		},
	}

	for _, ko := range r.overrides {
		tool := catalog.Get(ko.override.Tool)
		if tool == nil {
			return nil, fmt.Errorf("override targets unknown tool %q", ko.override.Tool)
		}
		if tool.Mutating {
			return nil, fmt.Errorf("override must not target mutating tool %q", ko.override.Tool)
		}
	}

	return r, nil
}

// Match returns the override for the user text, if any. Matching is
// case-insensitive substring search.
func (r *OverrideRouter) Match(userText string) (Override, bool) {
	lower := strings.ToLower(userText)
	for _, ko := range r.overrides {
		for _, kw := range ko.keywords {
			if strings.Contains(lower, kw) {
				return ko.override, true
			}
		}
	}
	return Override{}, false
}
