package engine

import (
	"strings"
	"testing"

	"github.com/recallhq/recall/pkg/types"
)

func TestComposePromptEmptySections(t *testing.T) {
	prompt := ComposePrompt("hello", nil, nil, ComposerConfig{})

	if !strings.Contains(prompt, "(no stored memories yet)") {
		t.Error("prompt must carry the empty-memories placeholder")
	}
	if !strings.Contains(prompt, "(no previous conversations)") {
		t.Error("prompt must carry the empty-history placeholder")
	}
	if !strings.Contains(prompt, "User: hello\nAssistant:") {
		t.Error("prompt must end with the current message and assistant cue")
	}
}

func TestComposePromptNumbersMemories(t *testing.T) {
	memories := []types.Memory{
		{Content: "User's name is Sam"},
		{Content: "I love hiking"},
	}

	prompt := ComposePrompt("hi", memories, nil, ComposerConfig{})

	if !strings.Contains(prompt, "1. User's name is Sam") {
		t.Errorf("memory 1 not numbered:\n%s", prompt)
	}
	if !strings.Contains(prompt, "2. I love hiking") {
		t.Errorf("memory 2 not numbered:\n%s", prompt)
	}
}

func TestComposePromptTruncatesLongMessages(t *testing.T) {
	long := strings.Repeat("x", 300)
	history := []types.Conversation{
		{Messages: []types.Message{{Role: types.RoleUser, Content: long}}},
	}

	prompt := ComposePrompt("hi", nil, history, ComposerConfig{MaxMessageChars: 200})

	if strings.Contains(prompt, long) {
		t.Error("history message must be truncated")
	}
	if !strings.Contains(prompt, strings.Repeat("x", 200)+"...") {
		t.Error("truncated message must end with ellipsis")
	}
}

func TestComposePromptLimitsHistoryWindow(t *testing.T) {
	var history []types.Conversation
	for i := 0; i < 4; i++ {
		history = append(history, types.Conversation{
			Messages: []types.Message{
				{Role: types.RoleUser, Content: "m1"},
				{Role: types.RoleAssistant, Content: "m2"},
				{Role: types.RoleUser, Content: "m3"},
			},
		})
	}

	prompt := ComposePrompt("hi", nil, history, ComposerConfig{
		RecentConversations:     2,
		MessagesPerConversation: 2,
	})

	// 2 conversations, last 2 messages each.
	if got := strings.Count(prompt, "m2"); got != 2 {
		t.Errorf("got %d occurrences of m2, want 2", got)
	}
	if strings.Contains(prompt, "m1") {
		t.Error("oldest message must be dropped by the per-conversation window")
	}
}
