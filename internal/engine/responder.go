package engine

import (
	"context"
	"log"
	"strings"
	"time"

	"github.com/recallhq/recall/internal/llm"
	"github.com/recallhq/recall/pkg/types"
)

const namePrefix = "User's name is "

// Responder produces the reply text for a turn. When a generator is
// configured it is tried first under a timeout; any failure, and the
// no-generator case, goes through deterministic fallback rules. Respond never
// errors and never returns an empty reply.
type Responder struct {
	generator llm.TextGenerator
	timeout   time.Duration
}

// NewResponder creates a responder. generator may be nil, in which case every
// reply comes from the fallback rules.
func NewResponder(generator llm.TextGenerator, timeout time.Duration) *Responder {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Responder{generator: generator, timeout: timeout}
}

// Respond returns the reply for the composed prompt. memories are the
// retrieval results for the turn, used by the fallback rules.
func (r *Responder) Respond(ctx context.Context, prompt, message string, memories []types.Memory) string {
	if r.generator != nil {
		ctx, cancel := context.WithTimeout(ctx, r.timeout)
		defer cancel()

		reply, err := r.generator.Complete(ctx, prompt)
		if err == nil && strings.TrimSpace(reply) != "" {
			return strings.TrimSpace(reply)
		}
		if err != nil {
			log.Printf("engine: model call failed, using fallback reply: %v", err)
		}
	}
	return fallbackReply(message, memories)
}

// fallbackReply applies ordered rules to the lowered message. The rules are
// deterministic so a degraded service still behaves predictably.
func fallbackReply(message string, memories []types.Memory) string {
	lowered := strings.ToLower(message)

	// Name question comes before the greeting rule so "hi, what's my name?"
	// answers the question.
	if strings.Contains(lowered, "name") && (strings.Contains(lowered, "what") || strings.Contains(lowered, "who am i")) {
		for _, mem := range memories {
			if strings.HasPrefix(mem.Content, namePrefix) {
				return "Your name is " + strings.TrimSuffix(strings.TrimPrefix(mem.Content, namePrefix), ".") + "."
			}
		}
		return "I don't know your name yet. What should I call you?"
	}

	if isGreeting(lowered) {
		if len(memories) > 0 {
			return "Hello again! Good to see you back. What's on your mind?"
		}
		return "Hello! I'm Recall, an assistant that remembers what you tell me. Tell me a bit about yourself."
	}

	if strings.Contains(lowered, "my name is") || strings.Contains(lowered, "call me") {
		return "Nice to meet you! I'll remember your name."
	}

	if len(memories) > 0 {
		return "I remember: " + truncate(memories[0].Content, 100) + ". Tell me more about that, or ask me anything."
	}

	return "Thanks for sharing. I'm still getting to know you, so tell me more."
}

func isGreeting(lowered string) bool {
	for _, g := range []string{"hello", "hi", "hey", "good morning", "good afternoon", "good evening"} {
		if lowered == g || strings.HasPrefix(lowered, g+" ") || strings.HasPrefix(lowered, g+",") || strings.HasPrefix(lowered, g+"!") {
			return true
		}
	}
	return false
}
