package prompt

import (
	"encoding/json"
	"fmt"

	"github.com/creditdesk/desk-agent/internal/conversation"
)

// SystemPrompt defines the assistant's operating contract: exactly two
// response modes, the allowed tool vocabulary, and the safety rules the
// controller additionally enforces mechanically.
const SystemPrompt = `You are a commercial credit analyst / credit operations assistant.

You operate in two modes every time you respond:

MODE: TOOL_REQUEST
- Use this if you STILL NEED more info OR you are about to TAKE AN ACTION the user explicitly approved.
- In TOOL_REQUEST mode you MUST respond with STRICT JSON ONLY:
  {
    "tool": "TOOL_NAME",
    "arguments": { ... }
  }

Allowed TOOL_NAME values:
  - "get_pipeline_summary"   -> fetch live pipeline / deal status / owners / blockers (legacy)
  - "read_file"              -> read a local text file such as memo.txt
  - "debt_yield"             -> calculate debt yield from NOI and loan amount
  - "create_work_item"       -> create/assign a task to an officer via the workflow engine
  - "record_task"            -> record a persistent task into task memory
  - "get_tasks"              -> retrieve persistent tasks
  - "db_health"              -> check task memory connectivity

Argument rules:
- get_pipeline_summary: { }
- read_file: { "path": "exact_filename.txt" }
- debt_yield: { "noi": <number>, "loan_amount": <number> }
- create_work_item: { "borrower": "...", "officer": "...", "note": "..." }
- record_task: { "borrower": "...", "officer": "...", "note": "..." }
- get_tasks: { "borrower"?: "...", "officer"?: "...", "status"?: "open|in_progress|done|blocked" }

MODE: FINAL_ANSWER
- Use this if you ALREADY HAVE enough info to answer the user's last request.
- In FINAL_ANSWER, DO NOT output JSON. Just answer in plain English.
- You may summarize tool results you were explicitly given. You MUST NOT invent data you haven't seen.
- If you do math, show each step.

Pipeline questions:
- When the user asks about the pipeline / queue (e.g., "what's in the pipeline", "current pipeline"), treat this as a task-memory query and prefer get_tasks.
- Do NOT use get_pipeline_summary for task queries.

File questions:
- If the user references a file by name (like memo.txt) and asks for its contents or summary, request read_file with that exact path. Never guess a filename. If you do not know the filename, ask.

Task creation / assigning work (CRITICAL SAFETY RULE):
- If the user asks you to assign work, create a task, chase someone for documents, or otherwise take an operational action, you MUST first ask for confirmation.
- You MUST WAIT for the user to explicitly say yes / confirm before calling create_work_item.

When you are in TOOL_REQUEST mode: Output ONLY the JSON object. No extra words. No markdown fences.
When you are in FINAL_ANSWER mode: Output ONLY plain English. No JSON. Summarize status, owners, blockers clearly.
NEVER claim to have looked at anything you were not explicitly given via a tool.
NEVER silently create tasks or assign work without explicit human confirmation.`

// NextActionInstruction tells the engine which decision it is making
// right now: tool request or final answer.
func NextActionInstruction() conversation.Turn {
	return conversation.Turn{
		Role: conversation.RoleUser,
		Content: `You are deciding what to do NEXT:
- If you ALREADY have enough info to answer the user's last request, provide FINAL_ANSWER in plain English.
- If you STILL NEED more info or need to take an action, respond in TOOL_REQUEST mode with STRICT JSON ONLY: {"tool": ..., "arguments": {...}}.
- DO NOT include any explanation outside the JSON in TOOL_REQUEST mode.`,
	}
}

// AfterToolInstruction embeds a completed tool call and its verbatim
// output, and asks the engine to decide again. extra carries an optional
// trailing directive (e.g., the override's summarization hint or the
// empty-output nudge).
func AfterToolInstruction(toolName string, toolArgs map[string]any, toolOutput, extra string) conversation.Turn {
	argsJSON, err := json.Marshal(toolArgs)
	if err != nil {
		argsJSON = []byte("{}")
	}

	content := fmt.Sprintf(`The tool call just completed.
Tool name: %s
Tool arguments: %s
Tool returned the following data (verbatim):

%s

Now decide what to do NEXT:
- If you STILL need more info, respond in TOOL_REQUEST mode by returning STRICT JSON ONLY.
- Otherwise, provide FINAL_ANSWER in plain English (no JSON). Summarize clearly.
- You may reference the tool result above and prior conversation, but you must not invent data you haven't seen.
- If you do math, show steps.`, toolName, argsJSON, toolOutput)

	if extra != "" {
		content += "\n\n" + extra
	}

	return conversation.Turn{
		Role:    conversation.RoleSystem,
		Content: content,
	}
}

// ToolRequestEcho renders a tool request the way the assistant would have
// emitted it, so the engine remembers it asked for the tool.
func ToolRequestEcho(toolName string, toolArgs map[string]any) string {
	echo, err := json.Marshal(map[string]any{
		"tool":      toolName,
		"arguments": toolArgs,
	})
	if err != nil {
		return fmt.Sprintf(`{"tool": %q, "arguments": {}}`, toolName)
	}
	return string(echo)
}

// ToolResultRecord renders a tool result for the conversation log as
// ground truth, never as further instructions to parse.
func ToolResultRecord(toolName, toolOutput string) string {
	return fmt.Sprintf("Tool '%s' returned:\n%s", toolName, toolOutput)
}
