package sentiment

import (
	"context"
	"testing"

	"tickerpulse/models"
)

func TestMockLLMClient_StrongPositive(t *testing.T) {
	c := NewMockLLMClient()
	article := models.Article{
		Title:   "Company shares surge to record high after breakthrough",
		Content: "Analysts upgrade outlook after a strong rally in the stock.",
	}

	result, err := c.AnalyzeSentiment(context.Background(), article, "AAPL", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Score <= 0 {
		t.Errorf("expected positive score for bullish language, got %f", result.Score)
	}
	if result.Label != models.LabelPositive {
		t.Errorf("expected positive label, got %s", result.Label)
	}
}

func TestMockLLMClient_StrongNegative(t *testing.T) {
	c := NewMockLLMClient()
	article := models.Article{
		Title:   "Company shares crash amid fraud lawsuit",
		Content: "The stock plunged after a bankruptcy filing and recall.",
	}

	result, err := c.AnalyzeSentiment(context.Background(), article, "AAPL", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Score >= 0 {
		t.Errorf("expected negative score for bearish language, got %f", result.Score)
	}
	if result.Label != models.LabelNegative {
		t.Errorf("expected negative label, got %s", result.Label)
	}
}

func TestMockLLMClient_Neutral(t *testing.T) {
	c := NewMockLLMClient()
	article := models.Article{Title: "Company holds annual shareholder meeting", Content: "Routine business was conducted."}

	result, err := c.AnalyzeSentiment(context.Background(), article, "AAPL", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Score != 0 {
		t.Errorf("expected zero score with no keyword matches, got %f", result.Score)
	}
	if result.Label != models.LabelNeutral {
		t.Errorf("expected neutral label, got %s", result.Label)
	}
}

func TestMockLLMClient_ScoreClampedTo09(t *testing.T) {
	c := NewMockLLMClient()
	article := models.Article{
		Title:   "surge soar record beat outperform breakthrough rally upgrade",
		Content: "surge soar record beat outperform breakthrough rally upgrade surge soar",
	}

	result, err := c.AnalyzeSentiment(context.Background(), article, "AAPL", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Score > 0.9 {
		t.Errorf("expected score clamped to 0.9, got %f", result.Score)
	}
}

func TestMockLLMClient_ConfidenceGrowsWithMatches(t *testing.T) {
	c := NewMockLLMClient()
	weak := models.Article{Title: "Company shares rise slightly"}
	strong := models.Article{Title: "Company shares surge, rally, and soar to record highs, outperforming expectations"}

	weakResult, _ := c.AnalyzeSentiment(context.Background(), weak, "AAPL", "")
	strongResult, _ := c.AnalyzeSentiment(context.Background(), strong, "AAPL", "")

	if strongResult.Confidence <= weakResult.Confidence {
		t.Errorf("expected confidence to grow with match count: weak=%f strong=%f", weakResult.Confidence, strongResult.Confidence)
	}
}
