package chat

import "strings"

var (
	defaultSuggestions = []string{
		"What is Viola’s experience?",
		"Tell me about her essay award",
		"What are Viola’s skills?",
	}
	experienceSuggestions = []string{
		"Tell me about her role at Icea Lion Group",
		"What skills does Viola use in sales?",
		"What’s her background in insurance?",
	}
	awardSuggestions = []string{
		"What was the essay topic?",
		"Are there other awards Viola won?",
		"What’s in her Projects section?",
	}
)

// SuggestionsFor returns the follow-up question chips for a submitted query.
func SuggestionsFor(query string) []string {
	q := strings.ToLower(query)
	switch {
	case strings.Contains(q, "experience"):
		return clone(experienceSuggestions)
	case strings.Contains(q, "award"), strings.Contains(q, "essay"):
		return clone(awardSuggestions)
	default:
		return clone(defaultSuggestions)
	}
}

func clone(s []string) []string {
	return append([]string(nil), s...)
}
