package sentiment

import (
	"context"
	"fmt"
	"strings"

	"tickerpulse/models"
)

var strongPositiveWords = []string{"surge", "soar", "record", "beat", "outperform", "breakthrough", "rally", "upgrade"}
var moderatePositiveWords = []string{"rise", "gain", "grow", "improve", "positive", "strong", "expand"}
var strongNegativeWords = []string{"plunge", "crash", "collapse", "lawsuit", "fraud", "downgrade", "recall", "bankruptcy"}
var moderateNegativeWords = []string{"fall", "decline", "drop", "weak", "concern", "miss", "cut"}

// MockLLMClient derives a deterministic pseudo-sentiment score from keyword
// counts over title+content, with no network calls. It stands in for a real
// LLM provider in tests and whenever UseMockData is set.
type MockLLMClient struct{}

func NewMockLLMClient() *MockLLMClient {
	return &MockLLMClient{}
}

func (c *MockLLMClient) AnalyzeSentiment(ctx context.Context, article models.Article, symbol, prompt string) (Result, error) {
	text := strings.ToLower(article.Title + " " + article.Content + " " + article.Summary)

	strongPos := countMatches(text, strongPositiveWords)
	modPos := countMatches(text, moderatePositiveWords)
	strongNeg := countMatches(text, strongNegativeWords)
	modNeg := countMatches(text, moderateNegativeWords)

	score := (0.15*float64(strongPos) + 0.08*float64(modPos)) - (0.15*float64(strongNeg) + 0.08*float64(modNeg))
	score = clamp(score, -0.9, 0.9)

	totalMatches := strongPos + modPos + strongNeg + modNeg
	confidence := 0.5 + 0.1*float64(totalMatches)
	if confidence > 0.95 {
		confidence = 0.95
	}

	label := models.LabelForScore(score)

	return Result{
		Score:      score,
		Label:      label,
		Confidence: confidence,
		Reasoning:  fmt.Sprintf("Keyword analysis found %d strong and %d moderate positive signals against %d strong and %d moderate negative signals, yielding a %s sentiment.", strongPos, modPos, strongNeg, modNeg, label),
	}, nil
}

func countMatches(text string, words []string) int {
	count := 0
	for _, w := range words {
		count += strings.Count(text, w)
	}
	return count
}

func clamp(v, min, max float64) float64 {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}
