package faq

// Record is a stored question/answer pair. At most one record exists per
// normalized-equal question; the invariant is enforced at write time by the
// save workflow, not by a storage constraint.
type Record struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// PlaceholderAnswer is attached to questions saved for admin review.
const PlaceholderAnswer = "No answer yet. Admin will review."

// Config holds the matching knobs.
type Config struct {
	// Threshold is the minimum blended score accepted as a fuzzy match.
	Threshold float64
	// CandidateLimit caps how many records are considered per query.
	// Records beyond the cap are invisible to matching.
	CandidateLimit int
}

const (
	// DefaultThreshold matches the tuning of the production knowledge base.
	DefaultThreshold = 0.45
	// DefaultCandidateLimit bounds worst-case matching cost.
	DefaultCandidateLimit = 300
)

// DefaultConfig returns the production matching defaults.
func DefaultConfig() Config {
	return Config{
		Threshold:      DefaultThreshold,
		CandidateLimit: DefaultCandidateLimit,
	}
}
