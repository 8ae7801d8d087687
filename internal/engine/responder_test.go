package engine

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/recallhq/recall/pkg/types"
)

type fakeGenerator struct {
	reply string
	err   error
	calls int
}

func (f *fakeGenerator) Complete(ctx context.Context, prompt string) (string, error) {
	f.calls++
	return f.reply, f.err
}

func (f *fakeGenerator) GetModel() string { return "fake" }

func TestRespondUsesGenerator(t *testing.T) {
	gen := &fakeGenerator{reply: "generated reply"}
	r := NewResponder(gen, time.Second)

	got := r.Respond(context.Background(), "prompt", "hello", nil)
	if got != "generated reply" {
		t.Errorf("Respond() = %q, want generator output", got)
	}
	if gen.calls != 1 {
		t.Errorf("generator called %d times, want 1", gen.calls)
	}
}

func TestRespondFallsBackOnGeneratorError(t *testing.T) {
	gen := &fakeGenerator{err: errors.New("quota exceeded")}
	r := NewResponder(gen, time.Second)

	got := r.Respond(context.Background(), "prompt", "hello", nil)
	if got == "" {
		t.Fatal("Respond() must never return an empty reply")
	}
	if got == "generated reply" {
		t.Error("Respond() must not use the failed generator output")
	}
}

func TestRespondFallsBackOnBlankGeneratorOutput(t *testing.T) {
	gen := &fakeGenerator{reply: "   "}
	r := NewResponder(gen, time.Second)

	if got := r.Respond(context.Background(), "prompt", "hello", nil); strings.TrimSpace(got) == "" {
		t.Error("blank generator output must fall through to a fallback reply")
	}
}

func TestFallbackNameQueryWithStoredName(t *testing.T) {
	memories := []types.Memory{{Content: "User's name is Sam", Category: types.CategoryPersonal}}

	got := fallbackReply("What is my name?", memories)
	if got != "Your name is Sam." {
		t.Errorf("fallbackReply() = %q, want name answer", got)
	}
}

func TestFallbackNameQueryWithoutStoredName(t *testing.T) {
	got := fallbackReply("what's my name?", nil)
	if !strings.Contains(got, "don't know your name") {
		t.Errorf("fallbackReply() = %q, want name prompt", got)
	}
}

func TestFallbackGreeting(t *testing.T) {
	first := fallbackReply("Hello!", nil)
	if !strings.Contains(first, "Tell me a bit about yourself") {
		t.Errorf("first-contact greeting = %q", first)
	}

	returning := fallbackReply("hello", []types.Memory{{Content: "I love hiking"}})
	if !strings.Contains(returning, "Hello again") {
		t.Errorf("returning greeting = %q", returning)
	}
}

func TestFallbackNameDisclosure(t *testing.T) {
	got := fallbackReply("My name is Dana", nil)
	if !strings.Contains(got, "Nice to meet you") {
		t.Errorf("fallbackReply() = %q, want acknowledgment", got)
	}
}

func TestFallbackReferencesTopMemory(t *testing.T) {
	memories := []types.Memory{
		{Content: "I work as a software engineer"},
		{Content: "I love hiking"},
	}

	got := fallbackReply("how is it going", memories)
	if !strings.Contains(got, "I work as a software engineer") {
		t.Errorf("fallbackReply() = %q, want top memory reference", got)
	}
}

func TestFallbackGenericNeverEmpty(t *testing.T) {
	for _, msg := range []string{"nice weather today", "", "???", "tell me a joke"} {
		if got := fallbackReply(msg, nil); strings.TrimSpace(got) == "" {
			t.Errorf("fallbackReply(%q) returned empty reply", msg)
		}
	}
}

func TestFallbackDeterministic(t *testing.T) {
	memories := []types.Memory{{Content: "I love hiking"}}
	for _, msg := range []string{"hello", "what is my name", "random words"} {
		a := fallbackReply(msg, memories)
		b := fallbackReply(msg, memories)
		if a != b {
			t.Errorf("fallbackReply(%q) not deterministic: %q vs %q", msg, a, b)
		}
	}
}
