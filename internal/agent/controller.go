// Package agent implements the turn controller that mediates between
// the reasoning engine and the tool catalog.
package agent

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/creditdesk/desk-agent/internal/classify"
	"github.com/creditdesk/desk-agent/internal/conversation"
	"github.com/creditdesk/desk-agent/internal/llm"
	"github.com/creditdesk/desk-agent/internal/metrics"
	"github.com/creditdesk/desk-agent/internal/prompt"
	"github.com/creditdesk/desk-agent/internal/tools"
)

// ExhaustionMessage is returned when a turn hits the tool-step ceiling.
const ExhaustionMessage = "I tried too many tool steps without producing a final answer. Please clarify what you need."

// engineFailureMessage is returned when the reasoning engine cannot be
// reached at all. Transport failures never propagate out of a turn.
const engineFailureMessage = "I could not reach the reasoning engine. Please try again in a moment."

// emptyReplyNudge is the more directive re-prompt issued after the
// engine returns empty output at a decision point.
const emptyReplyNudge = "Your previous reply was empty. You MUST respond now: either STRICT JSON for a tool request, or a plain-English FINAL_ANSWER."

// summarizeNudge forces a plain-English summary when the engine keeps
// answering a summarization re-prompt with JSON or silence.
const summarizeNudge = "Please summarize the above tool data in plain English for the user. Do NOT output JSON."

// Controller drives the bounded classify → execute → re-prompt loop
// for one user turn at a time.
//
// The zero value is not usable; construct with New. A single Controller
// serves the whole process: the internal mutex serializes turns so the
// shared conversation log never interleaves histories under concurrent
// requests.
type Controller struct {
	logger   *slog.Logger
	log      conversation.Log
	engine   llm.Client
	catalog  *tools.Registry
	router   *OverrideRouter
	gate     *SafetyGate
	notifier *Notifier

	// maxToolSteps bounds tool executions per user turn.
	maxToolSteps int

	mu sync.Mutex
}

// New creates a turn controller. maxToolSteps <= 0 selects the default
// ceiling of 5.
func New(logger *slog.Logger, log conversation.Log, engine llm.Client, catalog *tools.Registry, router *OverrideRouter, notifier *Notifier, maxToolSteps int) *Controller {
	if maxToolSteps <= 0 {
		maxToolSteps = 5
	}
	gate := &SafetyGate{IsMutating: func(name string) bool {
		t := catalog.Get(name)
		return t != nil && t.Mutating
	}}
	return &Controller{
		logger:       logger,
		log:          log,
		engine:       engine,
		catalog:      catalog,
		router:       router,
		gate:         gate,
		notifier:     notifier,
		maxToolSteps: maxToolSteps,
	}
}

// Run executes one user turn to completion and returns exactly one
// final answer. Every failure mode — unreachable engine, malformed
// model output, unknown tools, tool errors, safety denials, budget
// exhaustion — is converted into a well-formed answer; Run never
// returns an error and never returns more than one answer per turn.
func (c *Controller) Run(ctx context.Context, userText string) string {
	c.mu.Lock()
	defer c.mu.Unlock()

	start := time.Now()
	defer func() {
		metrics.TurnDuration.Observe(time.Since(start).Seconds())
	}()

	c.append(conversation.RoleUser, userText)

	if ov, ok := c.router.Match(userText); ok {
		metrics.OverrideHitsTotal.Inc()
		c.logger.Info("intent override matched", "tool", ov.Tool)
		return c.runOverride(ctx, ov)
	}

	steps := 0
	reply, err := c.askDecision(ctx,
		prompt.NextActionInstruction(),
		nudged(prompt.NextActionInstruction()))
	if err != nil {
		c.logger.Error("reasoning engine unreachable", "error", err)
		return c.finish(engineFailureMessage, "done")
	}

	for {
		res := classify.Classify(reply)

		if res.Kind == classify.KindFinalAnswer {
			return c.finish(res.Answer, "done")
		}

		if steps >= c.maxToolSteps {
			metrics.BudgetExhaustionsTotal.Inc()
			c.logger.Warn("tool-step budget exhausted", "steps", steps)
			return c.finish(ExhaustionMessage, "safety_abort")
		}
		steps++

		if tool := c.catalog.Get(res.Tool); tool != nil && tool.Mutating {
			if v := c.gate.Authorize(c.log.Snapshot(), res.Tool, res.Arguments); !v.Allowed {
				metrics.SafetyDenialsTotal.Inc()
				c.logger.Info("safety gate denied mutating tool",
					"tool", res.Tool, "reason", v.Reason)
				return c.finish(ConfirmationQuestion(res.Tool, res.Arguments), "done")
			}
		}

		output := c.execute(ctx, res.Tool, res.Arguments)

		// Record what happened as durable conversation state: the
		// request as the assistant's prior action, the result as
		// ground truth the engine may reference but never re-parse
		// as instructions.
		c.append(conversation.RoleAssistant, prompt.ToolRequestEcho(res.Tool, res.Arguments))
		c.append(conversation.RoleSystem, prompt.ToolResultRecord(res.Tool, output))

		reply, err = c.askDecision(ctx,
			prompt.AfterToolInstruction(res.Tool, res.Arguments, output, ""),
			prompt.AfterToolInstruction(res.Tool, res.Arguments, output, emptyReplyNudge))
		if err != nil {
			c.logger.Error("reasoning engine unreachable", "error", err)
			return c.finish(engineFailureMessage, "done")
		}
	}
}

// runOverride executes the fixed tool call for a matched intent and
// asks the engine only to summarize the result. At most two
// summarization re-prompts are issued; after that the raw tool result
// is returned as a degraded final answer.
func (c *Controller) runOverride(ctx context.Context, ov Override) string {
	output := c.execute(ctx, ov.Tool, ov.Args)

	c.append(conversation.RoleAssistant, prompt.ToolRequestEcho(ov.Tool, ov.Args))
	c.append(conversation.RoleSystem, prompt.ToolResultRecord(ov.Tool, output))

	reply, err := c.askModel(ctx, prompt.AfterToolInstruction(ov.Tool, ov.Args, output, ov.Hint))
	if err == nil && isPlainSummary(reply) {
		return c.finish(reply, "done")
	}

	reply, err = c.askModel(ctx, prompt.AfterToolInstruction(ov.Tool, ov.Args, output, summarizeNudge))
	if err == nil && isPlainSummary(reply) {
		return c.finish(reply, "done")
	}

	c.logger.Warn("override summarization failed, degrading to raw tool result", "tool", ov.Tool)
	if strings.TrimSpace(output) == "" {
		output = "No tasks found."
	}
	return c.finish(output, "done")
}

// isPlainSummary reports whether a summarization reply is usable:
// non-empty and not brace-wrapped JSON.
func isPlainSummary(reply string) bool {
	trimmed := strings.TrimSpace(reply)
	if trimmed == "" {
		return false
	}
	return !(strings.HasPrefix(trimmed, "{") && strings.HasSuffix(trimmed, "}"))
}

// execute runs one catalog tool and converts every failure into an
// error-shaped text result. Unknown tool names are reported back so the
// engine can recover — never dropped silently.
func (c *Controller) execute(ctx context.Context, name string, args map[string]any) string {
	start := time.Now()
	output, err := c.catalog.Execute(ctx, name, args)
	metrics.ToolDuration.WithLabelValues(name).Observe(time.Since(start).Seconds())

	var unavail *tools.ErrToolUnavailable
	switch {
	case errors.As(err, &unavail):
		metrics.ToolExecutionsTotal.WithLabelValues(name, "unknown").Inc()
		return fmt.Sprintf("[tool error] unknown tool %q — this tool does not exist. Available tools: %s",
			name, strings.Join(c.catalog.Names(), ", "))
	case err != nil:
		metrics.ToolExecutionsTotal.WithLabelValues(name, "error").Inc()
		return fmt.Sprintf("[%s error] %v", name, err)
	}

	metrics.ToolExecutionsTotal.WithLabelValues(name, "ok").Inc()
	c.notifier.AfterTool(name, args, output)
	return output
}

// askModel assembles the full history plus the ephemeral control turn
// and invokes the engine once (the client retries identical empty
// output internally).
func (c *Controller) askModel(ctx context.Context, control conversation.Turn) (string, error) {
	p := prompt.Assemble(c.log.Snapshot(), control)
	return c.engine.Generate(ctx, p)
}

// askDecision invokes the engine with the given control instruction,
// and on empty output retries exactly once with the more directive
// variant before the (possibly still empty) result is accepted as a
// literal final answer.
func (c *Controller) askDecision(ctx context.Context, control, directive conversation.Turn) (string, error) {
	reply, err := c.askModel(ctx, control)
	if err != nil || strings.TrimSpace(reply) != "" {
		return reply, err
	}

	c.logger.Debug("empty model output at decision point, re-prompting")
	return c.askModel(ctx, directive)
}

// finish appends the answer as the assistant turn and returns it.
func (c *Controller) finish(answer, outcome string) string {
	c.append(conversation.RoleAssistant, answer)
	metrics.TurnsTotal.WithLabelValues(outcome).Inc()
	return answer
}

func (c *Controller) append(role, content string) {
	if err := c.log.Append(role, content); err != nil {
		c.logger.Error("failed to append conversation turn", "role", role, "error", err)
	}
}

// nudged wraps a control instruction with the empty-reply nudge.
func nudged(control conversation.Turn) conversation.Turn {
	control.Content += "\n\n" + emptyReplyNudge
	return control
}
