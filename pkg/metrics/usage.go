package metrics

// TokenUsage captures classifier token counts for a single utterance. Gemini
// reports these in usageMetadata; when the field is missing the NLU client
// substitutes a tiktoken estimate.
type TokenUsage struct {
	PromptTokens     int `json:"promptTokens"`
	CompletionTokens int `json:"completionTokens,omitempty"`
	TotalTokens      int `json:"totalTokens"`
}

// IsZero reports whether usage data is absent.
func (u TokenUsage) IsZero() bool {
	return u.PromptTokens == 0 && u.CompletionTokens == 0 && u.TotalTokens == 0
}
