package sentiment

import (
	"fmt"
	"strings"

	"tickerpulse/models"
)

const maxPromptContentChars = 2000

// PromptTemplates builds the prompts sent to a real LLMClient backend.
type PromptTemplates struct{}

// GetSentimentPrompt produces a financial-sentiment prompt asking for a
// JSON object with sentiment_score/sentiment_label/confidence/reasoning.
// Article content is truncated to avoid blowing the model's context window.
func (PromptTemplates) GetSentimentPrompt(article models.Article, symbol, companyName string) string {
	body := article.Content
	if body == "" {
		body = article.Summary
	}
	if len(body) > maxPromptContentChars {
		body = body[:maxPromptContentChars]
	}

	var b strings.Builder
	fmt.Fprintf(&b, "You are a financial sentiment analyst. Analyze the following news article about %s (%s) and determine its sentiment impact on the stock.\n\n", companyName, symbol)
	fmt.Fprintf(&b, "Title: %s\n", article.Title)
	fmt.Fprintf(&b, "Source: %s\n", article.Source)
	fmt.Fprintf(&b, "Content: %s\n\n", body)
	b.WriteString("Respond with a single JSON object, and nothing else, in this exact shape:\n")
	b.WriteString(`{"sentiment_score": <float -1 to 1>, "sentiment_label": "<positive|neutral|negative>", "confidence": <float 0 to 1>, "reasoning": "<one sentence>"}`)
	return b.String()
}

// SystemPrompt returns the fixed system prompt paired with every sentiment
// request.
func (PromptTemplates) SystemPrompt() string {
	return "You are a precise financial sentiment analysis engine. You always respond with valid JSON and never include commentary outside the JSON object."
}
