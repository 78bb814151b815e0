// Package classify disambiguates raw model output into a tool request
// or a final answer.
package classify

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Kind tags a classification result.
type Kind int

const (
	// KindFinalAnswer is plain text meant for the user.
	KindFinalAnswer Kind = iota

	// KindToolRequest is a structured request to execute a tool.
	KindToolRequest
)

// Result is the tagged outcome of classifying raw model text. Exactly
// one variant is populated: Answer for KindFinalAnswer, Tool/Arguments
// for KindToolRequest.
type Result struct {
	Kind Kind

	// Answer is the whitespace-trimmed model text (KindFinalAnswer).
	Answer string

	// Tool and Arguments form the parsed request (KindToolRequest).
	Tool      string
	Arguments map[string]any
}

// Classify inspects raw model text and returns its mode. It is total:
// no input raises or errors.
//
// Algorithm: trim whitespace; if the text does not both start with "{"
// and end with "}", it is a final answer (cheap rejection before
// parsing). Otherwise parse as JSON; on parse failure, final answer.
// On success the text is a tool request only if it is an object with a
// "tool" key and an "arguments" key whose value is itself an object.
// Free text that happens to be wrapped in braces but lacks that exact
// two-key shape is an answer, not an error — ambiguous input must never
// block a turn on a parse exception.
func Classify(raw string) Result {
	txt := strings.TrimSpace(raw)

	if !strings.HasPrefix(txt, "{") || !strings.HasSuffix(txt, "}") {
		return Result{Kind: KindFinalAnswer, Answer: txt}
	}

	var parsed map[string]any
	if err := json.Unmarshal([]byte(txt), &parsed); err != nil {
		return Result{Kind: KindFinalAnswer, Answer: txt}
	}

	toolVal, hasTool := parsed["tool"]
	argsVal, hasArgs := parsed["arguments"]
	if !hasTool || !hasArgs {
		return Result{Kind: KindFinalAnswer, Answer: txt}
	}

	args, ok := argsVal.(map[string]any)
	if !ok {
		return Result{Kind: KindFinalAnswer, Answer: txt}
	}

	// The tool key may hold any JSON value; non-string names simply
	// fail catalog lookup downstream and surface as unknown tools.
	name, ok := toolVal.(string)
	if !ok {
		name = fmt.Sprint(toolVal)
	}

	return Result{
		Kind:      KindToolRequest,
		Tool:      name,
		Arguments: args,
	}
}
