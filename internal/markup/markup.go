// Package markup holds the HTML policies applied to chat text. Message text may
// carry a small set of inline tags (b, a[href], ul, li); everything else is
// stripped.
package markup

import (
	"sync"

	"github.com/microcosm-cc/bluemonday"
)

var (
	inlineOnce   sync.Once
	inlinePolicy *bluemonday.Policy

	strictOnce   sync.Once
	strictPolicy *bluemonday.Policy
)

// Inline returns the policy for chat message text.
func Inline() *bluemonday.Policy {
	inlineOnce.Do(func() {
		p := bluemonday.NewPolicy()
		p.AllowElements("b", "ul", "li")
		p.AllowAttrs("href").OnElements("a")
		p.AllowURLSchemes("http", "https", "mailto", "tel")
		p.AllowRelativeURLs(true)
		p.RequireParseableURLs(true)
		inlinePolicy = p
	})
	return inlinePolicy
}

// Clean sanitizes s with the inline policy.
func Clean(s string) string {
	return Inline().Sanitize(s)
}

// StripAll removes every tag, keeping escaped text only.
func StripAll(s string) string {
	strictOnce.Do(func() {
		strictPolicy = bluemonday.StrictPolicy()
	})
	return strictPolicy.Sanitize(s)
}
