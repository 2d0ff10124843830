package assistant

import (
	"strings"

	"github.com/harunnryd/strum/pkg/llm"
)

// errorReplyPrefix marks assistant messages that surfaced an earlier failure
// to the user. Feeding those back as model context teaches the model to
// apologize instead of answering, so the history filter drops them.
const errorReplyPrefix = "Sorry, I encountered an error"

// filterHistory converts caller messages into provider-facing context,
// dropping empty messages and surfaced error replies.
func filterHistory(history []llm.Message) []llm.ChatMessage {
	out := make([]llm.ChatMessage, 0, len(history))
	for _, msg := range history {
		content := strings.TrimSpace(msg.Content)
		if content == "" {
			continue
		}
		if strings.HasPrefix(content, errorReplyPrefix) {
			continue
		}
		role := msg.Role
		if role != llm.RoleUser && role != llm.RoleAssistant {
			continue
		}
		out = append(out, llm.ChatMessage{Role: role, Content: content})
	}
	return out
}
