// Package llm provides the reasoning engine client.
package llm

import "context"

// Client is the interface to the reasoning engine. The engine is a
// black box: prompt text in, raw text out. Implementations own the
// retry-on-empty-output policy; callers never see a transport error
// distinct from empty output unless the engine is unreachable.
type Client interface {
	// Generate sends a fully assembled prompt and returns the raw
	// model text, retrying once internally if the engine returns
	// empty or whitespace-only output.
	Generate(ctx context.Context, prompt string) (string, error)

	// Ping checks if the engine is reachable.
	Ping(ctx context.Context) error
}
