package gemini

import (
	"context"

	"github.com/yanqian/voicebank/internal/domain/dialogue"
)

// HeuristicClassifier classifies with the local question heuristics only.
// It backs deployments without a Gemini API key.
type HeuristicClassifier struct{}

func NewHeuristicClassifier() HeuristicClassifier {
	return HeuristicClassifier{}
}

func (HeuristicClassifier) Classify(_ context.Context, text string) (dialogue.Classification, error) {
	return fallbackClassification(normalizeUtterance(text)), nil
}

var _ dialogue.Classifier = HeuristicClassifier{}
