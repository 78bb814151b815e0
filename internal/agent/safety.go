package agent

import (
	"fmt"
	"strings"

	"github.com/creditdesk/desk-agent/internal/classify"
	"github.com/creditdesk/desk-agent/internal/conversation"
)

// Verdict is the outcome of a safety gate check.
type Verdict struct {
	Allowed bool
	Reason  string
}

// SafetyGate refuses to execute mutating tools unless the conversation
// already carries an explicit human confirmation of the proposed action.
//
// The system prompt instructs the model to ask first, but instructions
// are not a mechanism: the gate enforces the rule independently of
// whatever the model decided to do.
type SafetyGate struct {
	// IsMutating reports whether a tool name denotes a mutating tool,
	// used to detect confirmations already spent on an earlier action
	// this turn. Nil treats every echoed tool request as mutating,
	// which can only deny, never allow.
	IsMutating func(name string) bool
}

// Authorize checks whether the given mutating tool request may run.
// Non-mutating tools are always allowed; callers should not consult
// the gate for them.
//
// The confirmation heuristic: the most recent user turn must be an
// explicit affirmative, the assistant turn immediately before it must
// have been a confirmation question, and that question must describe
// the request being authorized — a "yes" to chasing a rent roll is not
// consent to wiring out escrow. A confirmation authorizes exactly one
// mutating execution: once any mutating tool has run after the
// affirmative, the window is closed until the user confirms again.
func (g *SafetyGate) Authorize(history []conversation.Turn, toolName string, args map[string]any) Verdict {
	lastUser := -1
	for i := len(history) - 1; i >= 0; i-- {
		if history[i].Role == conversation.RoleUser {
			lastUser = i
			break
		}
	}
	if lastUser == -1 {
		return Verdict{Allowed: false, Reason: "no user turn to confirm against"}
	}

	if !isAffirmative(history[lastUser].Content) {
		return Verdict{Allowed: false, Reason: "latest user turn is not an explicit confirmation"}
	}

	for i := lastUser + 1; i < len(history); i++ {
		if history[i].Role == conversation.RoleAssistant && g.echoesMutatingTool(history[i].Content) {
			return Verdict{Allowed: false, Reason: "confirmation already consumed by an earlier action this turn"}
		}
	}

	// Walk back to the assistant turn preceding the confirmation.
	for i := lastUser - 1; i >= 0; i-- {
		if history[i].Role != conversation.RoleAssistant {
			continue
		}
		if !isConfirmationPrompt(history[i].Content) {
			return Verdict{Allowed: false, Reason: "confirmation does not follow a proposal of this action"}
		}
		if !proposalMatchesRequest(history[i].Content, toolName, args) {
			return Verdict{Allowed: false, Reason: "confirmation was for a different action"}
		}
		return Verdict{Allowed: true}
	}

	return Verdict{Allowed: false, Reason: "no prior proposal to confirm"}
}

// echoesMutatingTool reports whether an assistant turn records an
// executed mutating tool request. Tool executions are echoed into the
// log as the request JSON, so a well-formed tool-request turn after the
// user's affirmative means the confirmation was already spent.
func (g *SafetyGate) echoesMutatingTool(content string) bool {
	res := classify.Classify(content)
	if res.Kind != classify.KindToolRequest {
		return false
	}
	if g.IsMutating == nil {
		return true
	}
	return g.IsMutating(res.Tool)
}

// proposalMatchesRequest ties a confirmation question to the request it
// is supposed to authorize. The proposal must name the request's
// borrower and officer; a request carrying neither must at least have
// been proposed by tool name.
func proposalMatchesRequest(proposal, toolName string, args map[string]any) bool {
	lower := strings.ToLower(proposal)

	borrower, _ := args["borrower"].(string)
	officer, _ := args["officer"].(string)

	if borrower == "" && officer == "" {
		return strings.Contains(lower, strings.ToLower(toolName))
	}
	if borrower != "" && !strings.Contains(lower, strings.ToLower(borrower)) {
		return false
	}
	if officer != "" && !strings.Contains(lower, strings.ToLower(officer)) {
		return false
	}
	return true
}

// affirmatives are compared against the normalized full user message,
// not substring-matched: "yesterday's queue" must not read as consent.
var affirmatives = map[string]bool{
	"yes":            true,
	"y":              true,
	"yes please":     true,
	"yes, please":    true,
	"yep":            true,
	"yeah":           true,
	"confirm":        true,
	"confirmed":      true,
	"i confirm":      true,
	"go ahead":       true,
	"do it":          true,
	"proceed":        true,
	"approved":       true,
	"approve":        true,
	"ok":             true,
	"okay":           true,
	"sure":           true,
	"sure, go ahead": true,
	"please do":      true,
}

func isAffirmative(text string) bool {
	norm := strings.ToLower(strings.TrimSpace(text))
	norm = strings.TrimRight(norm, ".!")
	return affirmatives[norm]
}

// isConfirmationPrompt reports whether an assistant turn reads as a
// question proposing an action.
func isConfirmationPrompt(text string) bool {
	if !strings.Contains(text, "?") {
		return false
	}
	lower := strings.ToLower(text)
	for _, marker := range []string{"do you want", "should i", "confirm", "yes or no", "shall i"} {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}

// ConfirmationQuestion builds the clarification the user sees when the
// gate denies a mutating request. It restates the proposed action so the
// next "yes" is tied to something concrete.
func ConfirmationQuestion(toolName string, args map[string]any) string {
	borrower, _ := args["borrower"].(string)
	officer, _ := args["officer"].(string)
	note, _ := args["note"].(string)

	if borrower != "" && officer != "" && note != "" {
		return fmt.Sprintf("Before I take that action: do you want me to create a task for %s about %q for %s? Yes or No.",
			officer, note, borrower)
	}

	// Partial args still name whoever they mention, so a following
	// "yes" binds to this question.
	var details []string
	if officer != "" {
		details = append(details, "officer "+officer)
	}
	if borrower != "" {
		details = append(details, "borrower "+borrower)
	}
	if len(details) > 0 {
		return fmt.Sprintf("The %s action (%s) changes external state, so I need your explicit confirmation first. Do you want me to proceed? Yes or No.",
			toolName, strings.Join(details, ", "))
	}

	return fmt.Sprintf("The %s action changes external state, so I need your explicit confirmation first. Do you want me to proceed? Yes or No.", toolName)
}
