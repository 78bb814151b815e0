package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
)

// WorkflowClient talks to the external workflow engine's webhooks
// (pipeline snapshots in, work-item creation out).
type WorkflowClient struct {
	pipelineURL   string
	createItemURL string
	client        *resty.Client
}

// NewWorkflowClient creates a webhook client. An empty pipelineURL means
// PipelineSummary serves a canned snapshot, which keeps the pipeline
// tool useful in environments without a workflow engine.
func NewWorkflowClient(pipelineURL, createItemURL string, timeout time.Duration) *WorkflowClient {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	client := resty.New()
	client.SetTimeout(timeout)

	return &WorkflowClient{
		pipelineURL:   pipelineURL,
		createItemURL: createItemURL,
		client:        client,
	}
}

// cannedPipeline is served when no pipeline endpoint is configured.
var cannedPipeline = map[string]any{
	"pipeline_date": "2025-11-01",
	"deals": []map[string]any{
		{
			"borrower": "ACME Industrial LLC",
			"stage":    "Underwriting",
			"officer":  "Smith",
			"exposure": 15000000,
			"notes":    "Awaiting updated rent roll, DSCR tight",
		},
		{
			"borrower": "Greenfield Storage Partners",
			"stage":    "Spreading",
			"officer":  "Lopez",
			"exposure": 4200000,
			"notes":    "Need YE2024 financials, leverage high",
		},
	},
}

// PipelineSummary fetches the current underwriting pipeline snapshot.
// An unreachable endpoint yields an error-shaped JSON text rather than
// an error; the reasoning engine sees the failure and can react.
func (w *WorkflowClient) PipelineSummary(ctx context.Context) string {
	if w.pipelineURL == "" {
		out, _ := json.MarshalIndent(cannedPipeline, "", "  ")
		return string(out)
	}

	resp, err := w.client.R().SetContext(ctx).Get(w.pipelineURL)
	if err != nil {
		return errorJSON("Failed to reach pipeline endpoint", err.Error())
	}
	if resp.StatusCode() != 200 {
		return errorJSON("Failed to reach pipeline endpoint",
			fmt.Sprintf("status %d: %s", resp.StatusCode(), resp.String()))
	}

	return resp.String()
}

// CreateWorkItem posts a work-item creation request. Unlike
// PipelineSummary, failures here are returned as errors so callers can
// distinguish a completed mutation from a failed one.
func (w *WorkflowClient) CreateWorkItem(ctx context.Context, borrower, officer, note string) (string, error) {
	if w.createItemURL == "" {
		return "", fmt.Errorf("create work item endpoint not configured")
	}

	payload := map[string]string{
		"borrower": borrower,
		"officer":  officer,
		"note":     note,
	}

	resp, err := w.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(payload).
		Post(w.createItemURL)
	if err != nil {
		return "", fmt.Errorf("workflow engine unreachable: %w", err)
	}
	if resp.StatusCode() != 200 {
		return "", fmt.Errorf("workflow engine returned %d: %s", resp.StatusCode(), resp.String())
	}

	return resp.String(), nil
}

func errorJSON(msg, details string) string {
	out, _ := json.MarshalIndent(map[string]string{
		"error":   msg,
		"details": details,
	}, "", "  ")
	return string(out)
}
