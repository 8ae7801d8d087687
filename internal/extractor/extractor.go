// Package extractor derives durable memories from user messages using an
// ordered list of phrase rules. The first matching rule wins; messages that
// trigger no rule yield no memory.
package extractor

import (
	"strings"
	"unicode"

	"github.com/recallhq/recall/pkg/types"
)

// Candidate is a memory derived from a message, ready for storage.
type Candidate struct {
	Content    string
	Category   string
	Importance float64
}

// rule pairs trigger phrases with an action that builds the candidate. The
// action may decline by returning false, which moves on to the next rule.
type rule struct {
	phrases []string
	action  func(message, lowered, phrase string) (Candidate, bool)
}

var namePhrases = []string{"my name is", "i'm called", "i am called", "call me", "name is"}
var preferencePhrases = []string{"i like", "i love", "i enjoy", "my favorite"}
var factPhrases = []string{"i work", "i live", "i am from", "my job"}

var rules = []rule{
	{phrases: namePhrases, action: extractName},
	{phrases: preferencePhrases, action: func(message, _, _ string) (Candidate, bool) {
		return Candidate{Content: message, Category: types.CategoryPreferences, Importance: 0.7}, true
	}},
	{phrases: factPhrases, action: func(message, _, _ string) (Candidate, bool) {
		return Candidate{Content: message, Category: types.CategoryFacts, Importance: 0.8}, true
	}},
}

// Extract runs the rules against a user message. The second return value is
// false when no rule produced a memory.
func Extract(message string) (Candidate, bool) {
	lowered := strings.ToLower(message)
	for _, r := range rules {
		for _, phrase := range r.phrases {
			if !strings.Contains(lowered, phrase) {
				continue
			}
			if c, ok := r.action(message, lowered, phrase); ok {
				return c, true
			}
		}
	}
	return Candidate{}, false
}

// extractName pulls the first whitespace token after the trigger phrase,
// strips trailing punctuation and capitalizes it. Tokens of a single rune are
// rejected so "my name is a secret" does not store "A" as a name.
func extractName(message, lowered, phrase string) (Candidate, bool) {
	idx := strings.Index(lowered, phrase)
	if idx < 0 {
		return Candidate{}, false
	}
	rest := strings.TrimSpace(message[idx+len(phrase):])
	fields := strings.Fields(rest)
	if len(fields) == 0 {
		return Candidate{}, false
	}

	name := strings.TrimRightFunc(fields[0], func(r rune) bool {
		return unicode.IsPunct(r)
	})
	if len([]rune(name)) < 2 {
		return Candidate{}, false
	}
	name = capitalize(name)

	return Candidate{
		Content:    "User's name is " + name,
		Category:   types.CategoryPersonal,
		Importance: 0.9,
	}, true
}

func capitalize(s string) string {
	runes := []rune(s)
	runes[0] = unicode.ToUpper(runes[0])
	for i := 1; i < len(runes); i++ {
		runes[i] = unicode.ToLower(runes[i])
	}
	return string(runes)
}
