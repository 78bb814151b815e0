// Package prompt renders conversation state into reasoning engine input.
package prompt

import (
	"strings"

	"github.com/creditdesk/desk-agent/internal/conversation"
)

// Assemble renders the system prompt, the full ordered turn history, and
// an ephemeral control instruction into the single text blob the engine
// expects. Each turn becomes an uppercased role header followed by its
// content; the blob ends with an open ASSISTANT header so the engine
// continues from that point.
//
// The control turn is ephemeral: it is rendered into this prompt but
// never appended to the conversation log. Pure function of its inputs.
func Assemble(turns []conversation.Turn, control conversation.Turn) string {
	var b strings.Builder

	writeTurn(&b, conversation.RoleSystem, SystemPrompt)
	for _, t := range turns {
		writeTurn(&b, t.Role, t.Content)
	}
	writeTurn(&b, control.Role, control.Content)

	b.WriteString("ASSISTANT:\n")
	return b.String()
}

func writeTurn(b *strings.Builder, role, content string) {
	b.WriteString(strings.ToUpper(role))
	b.WriteString(":\n")
	b.WriteString(content)
	b.WriteString("\n\n")
}
