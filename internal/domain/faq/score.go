package faq

import "strings"

// Blend weights. The token-set signals dominate because account questions
// vary far more in phrasing than in exact character sequence. They must sum
// to 1; tests pin the exact values.
const (
	editWeight    = 0.25
	jaccardWeight = 0.55
	overlapWeight = 0.20
)

// Score computes the blended similarity between a query and a candidate
// question. Both strings are normalized (lowercased, punctuation stripped,
// stop words dropped) before the three sub-signals are blended:
//
//	editWeight*editSimilarity + jaccardWeight*jaccard + overlapWeight*overlap
//
// The function is pure and deterministic.
func Score(query, candidate string) float64 {
	a := normalizeForScoring(query)
	b := normalizeForScoring(candidate)
	if a == b {
		// covers two empty inputs as well, which otherwise would only
		// collect the edit component
		return 1
	}

	edit := editSimilarity(a, b)

	setA := tokens(a)
	setB := tokens(b)
	inter := intersectionSize(setA, setB)

	var jaccard float64
	if union := len(setA) + len(setB) - inter; union > 0 {
		jaccard = float64(inter) / float64(union)
	}

	var overlap float64
	if smaller := min(len(setA), len(setB)); smaller > 0 {
		overlap = float64(inter) / float64(smaller)
	}

	return editWeight*edit + jaccardWeight*jaccard + overlapWeight*overlap
}

// normalizeForScoring additionally strips stop words from the normalized
// form so the edit signal compares content words only.
func normalizeForScoring(q string) string {
	normalized := normalizeQuestion(q)
	var kept []byte
	for _, f := range strings.Fields(normalized) {
		if _, skip := stopWords[f]; skip {
			continue
		}
		if len(kept) > 0 {
			kept = append(kept, ' ')
		}
		kept = append(kept, f...)
	}
	return string(kept)
}

// editSimilarity is 1 - levenshtein/maxlen, defined as 1 when both strings
// are empty.
func editSimilarity(a, b string) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 1
	}
	ra := []rune(a)
	rb := []rune(b)
	longest := max(len(ra), len(rb))
	if longest == 0 {
		return 1
	}
	return 1 - float64(levenshtein(ra, rb))/float64(longest)
}

// levenshtein computes edit distance with a rolling single-row table.
func levenshtein(a, b []rune) int {
	if len(a) == 0 {
		return len(b)
	}
	if len(b) == 0 {
		return len(a)
	}
	row := make([]int, len(b)+1)
	for j := range row {
		row[j] = j
	}
	for i := 1; i <= len(a); i++ {
		prev := row[0]
		row[0] = i
		for j := 1; j <= len(b); j++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			current := row[j]
			row[j] = min(row[j]+1, min(row[j-1]+1, prev+cost))
			prev = current
		}
	}
	return row[len(b)]
}

func intersectionSize(a, b map[string]struct{}) int {
	if len(b) < len(a) {
		a, b = b, a
	}
	count := 0
	for token := range a {
		if _, ok := b[token]; ok {
			count++
		}
	}
	return count
}
