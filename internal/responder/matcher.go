// Package responder turns visitor questions into canned assistant replies.
//
// Matching is first-match over an ordered rule table: the first rule with a
// keyword contained in the sanitized, lower-cased query wins. Rule order is
// therefore part of the behavior.
package responder

import (
	"strings"
	"unicode/utf8"

	"github.com/suPer8Hu/portfolio-chat/internal/markup"
)

// MaxInputLength is the longest accepted question, in characters.
const MaxInputLength = 500

const (
	EmptyInputMessage   = "Please enter a message."
	TooLongInputMessage = "Message must be under 500 characters."
)

type Responder interface {
	Respond(query string) string
}

type Rule struct {
	Topic    string
	Keywords []string
	Response string
}

type Matcher struct {
	rules    []Rule
	fallback string
}

func NewMatcher(rules []Rule, fallback string) *Matcher {
	cp := make([]Rule, len(rules))
	copy(cp, rules)
	return &Matcher{rules: cp, fallback: fallback}
}

// Normalize sanitizes a raw query and lower-cases it for matching.
func Normalize(raw string) string {
	return strings.ToLower(markup.Clean(raw))
}

// Respond returns the response of the first matching rule, or the fallback.
func (m *Matcher) Respond(query string) string {
	if r, ok := m.Match(query); ok {
		return r.Response
	}
	return m.fallback
}

// Match reports the first rule whose keyword appears in the normalized query.
func (m *Matcher) Match(query string) (Rule, bool) {
	q := Normalize(query)
	for _, r := range m.rules {
		for _, kw := range r.Keywords {
			if strings.Contains(q, kw) {
				return r, true
			}
		}
	}
	return Rule{}, false
}

// Validate checks a raw question before it reaches a Responder. When the input
// is rejected, the returned string is the assistant message to show instead.
func Validate(raw string) (string, bool) {
	if strings.TrimSpace(raw) == "" {
		return EmptyInputMessage, false
	}
	if utf8.RuneCountInString(raw) > MaxInputLength {
		return TooLongInputMessage, false
	}
	return "", true
}
