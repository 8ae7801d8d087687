package engine

import (
	"fmt"
	"strings"

	"github.com/recallhq/recall/pkg/types"
)

// ComposerConfig bounds the prompt size. Zero fields take defaults.
type ComposerConfig struct {
	RecentConversations     int // conversations included (default: 2)
	MessagesPerConversation int // trailing messages per conversation (default: 5)
	MaxMessageChars         int // per-message truncation (default: 200)
}

func (c *ComposerConfig) normalize() {
	if c.RecentConversations < 1 {
		c.RecentConversations = 2
	}
	if c.MessagesPerConversation < 1 {
		c.MessagesPerConversation = 5
	}
	if c.MaxMessageChars < 1 {
		c.MaxMessageChars = 200
	}
}

// ComposePrompt builds the model prompt from retrieved memories, recent
// conversation history and the current user message. Every section is always
// present; empty sections carry a placeholder so the model sees a stable
// layout.
func ComposePrompt(message string, memories []types.Memory, history []types.Conversation, cfg ComposerConfig) string {
	cfg.normalize()

	var sb strings.Builder
	sb.WriteString("You are a helpful assistant with persistent memory of the user.\n\n")

	sb.WriteString("What you remember about this user:\n")
	if len(memories) == 0 {
		sb.WriteString("(no stored memories yet)\n")
	} else {
		for i, mem := range memories {
			fmt.Fprintf(&sb, "%d. %s\n", i+1, truncate(mem.Content, cfg.MaxMessageChars))
		}
	}

	sb.WriteString("\nRecent conversations:\n")
	if len(history) == 0 {
		sb.WriteString("(no previous conversations)\n")
	} else {
		n := len(history)
		if n > cfg.RecentConversations {
			n = cfg.RecentConversations
		}
		for _, conv := range history[:n] {
			msgs := conv.Messages
			if len(msgs) > cfg.MessagesPerConversation {
				msgs = msgs[len(msgs)-cfg.MessagesPerConversation:]
			}
			for _, m := range msgs {
				fmt.Fprintf(&sb, "%s: %s\n", roleLabel(m.Role), truncate(m.Content, cfg.MaxMessageChars))
			}
		}
	}

	sb.WriteString("\nUser: ")
	sb.WriteString(message)
	sb.WriteString("\nAssistant:")

	return sb.String()
}

func roleLabel(role string) string {
	if role == types.RoleAssistant {
		return "Assistant"
	}
	return "User"
}

// truncate caps s at max runes, appending an ellipsis when cut.
func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max]) + "..."
}
