package sentiment

import (
	"context"

	"tickerpulse/models"
)

// Result is what every LLMClient implementation returns for one article.
type Result struct {
	Score      float64              `json:"score"`
	Label      models.SentimentLabel `json:"label"`
	Confidence float64              `json:"confidence"`
	Reasoning  string               `json:"reasoning"`
}

// LLMClient analyzes the sentiment of a single news article toward a
// symbol. Concrete variants: Mock (deterministic, no network), OpenAI,
// Bedrock (Claude via AWS).
type LLMClient interface {
	AnalyzeSentiment(ctx context.Context, article models.Article, symbol, prompt string) (Result, error)
}
