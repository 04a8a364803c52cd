package sentiment

import (
	"strings"
	"testing"

	"tickerpulse/models"
)

func TestGetSentimentPrompt_TruncatesLongContent(t *testing.T) {
	tpl := PromptTemplates{}
	longContent := strings.Repeat("a", 5000)
	article := models.Article{Title: "Headline", Content: longContent, Source: "Reuters"}

	prompt := tpl.GetSentimentPrompt(article, "AAPL", "Apple")

	idx := strings.Index(prompt, "Content: ")
	if idx == -1 {
		t.Fatal("expected prompt to include a Content: section")
	}
	contentSection := prompt[idx+len("Content: "):]
	newlineIdx := strings.Index(contentSection, "\n")
	if newlineIdx != -1 {
		contentSection = contentSection[:newlineIdx]
	}
	if len(contentSection) > maxPromptContentChars {
		t.Errorf("expected content truncated to %d chars, got %d", maxPromptContentChars, len(contentSection))
	}
}

func TestGetSentimentPrompt_FallsBackToSummary(t *testing.T) {
	tpl := PromptTemplates{}
	article := models.Article{Title: "Headline", Summary: "A short summary."}

	prompt := tpl.GetSentimentPrompt(article, "AAPL", "Apple")

	if !strings.Contains(prompt, "A short summary.") {
		t.Error("expected prompt to fall back to summary when content is empty")
	}
}

func TestGetSentimentPrompt_RequestsJSONShape(t *testing.T) {
	tpl := PromptTemplates{}
	article := models.Article{Title: "Headline", Content: "Body"}

	prompt := tpl.GetSentimentPrompt(article, "AAPL", "Apple")

	for _, field := range []string{"sentiment_score", "sentiment_label", "confidence", "reasoning"} {
		if !strings.Contains(prompt, field) {
			t.Errorf("expected prompt to request field %q", field)
		}
	}
}
