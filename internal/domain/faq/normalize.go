package faq

import (
	"strings"
	"unicode"
)

// stopWords are dropped before scoring; account-domain questions vary mostly
// in filler words, not in the content tokens that remain.
var stopWords = map[string]struct{}{
	"my": {}, "your": {}, "the": {}, "a": {}, "an": {},
	"to": {}, "for": {}, "me": {}, "please": {},
	"can": {}, "could": {}, "would": {},
}

// normalizeQuestion lowercases, maps punctuation to spaces and collapses
// whitespace runs. Stop words are kept here; tokens() drops them.
func normalizeQuestion(q string) string {
	lowered := strings.ToLower(strings.TrimSpace(q))
	var builder strings.Builder
	builder.Grow(len(lowered))
	lastSpace := true
	for _, r := range lowered {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			builder.WriteRune(r)
			lastSpace = false
			continue
		}
		// punctuation and whitespace both separate tokens
		if !lastSpace {
			builder.WriteRune(' ')
			lastSpace = true
		}
	}
	return strings.TrimSpace(builder.String())
}

// tokens returns the deduplicated word set of a normalized string with stop
// words removed.
func tokens(normalized string) map[string]struct{} {
	fields := strings.Fields(normalized)
	set := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		if _, skip := stopWords[f]; skip {
			continue
		}
		set[f] = struct{}{}
	}
	return set
}
