package faq

import "strings"

// Match selects the candidate answering the query, or reports no confident
// match. Direct hits are checked first so a verbatim question can never be
// suppressed by fuzzy scores: a candidate whose normalized question equals
// the normalized query, or contains it as a substring, wins immediately.
// Otherwise the highest blended Score at or above threshold wins. Candidates
// are enumerated in slice order and the first maximum takes a tie, so
// tie-breaking is deterministic for a given slice. Only the first
// CandidateLimit entries are considered.
func Match(query string, candidates []Record, cfg Config) (Record, bool) {
	normalizedQuery := normalizeQuestion(query)
	if normalizedQuery == "" {
		return Record{}, false
	}
	limit := cfg.CandidateLimit
	if limit <= 0 {
		limit = DefaultCandidateLimit
	}
	if len(candidates) > limit {
		candidates = candidates[:limit]
	}

	for _, candidate := range candidates {
		base := normalizeQuestion(candidate.Question)
		if base == normalizedQuery || strings.Contains(base, normalizedQuery) {
			return candidate, true
		}
	}

	var (
		best      Record
		bestScore float64
		found     bool
	)
	for _, candidate := range candidates {
		score := Score(query, candidate.Question)
		if !found || score > bestScore {
			best = candidate
			bestScore = score
			found = true
		}
	}
	if !found || bestScore < cfg.Threshold {
		return Record{}, false
	}
	return best, true
}

// NormalizedEqual reports whether two questions are the same entry under the
// write-time uniqueness invariant: case-insensitive, punctuation-insensitive,
// whole-string comparison. Deliberately not a substring test.
func NormalizedEqual(a, b string) bool {
	return normalizeQuestion(a) == normalizeQuestion(b)
}
