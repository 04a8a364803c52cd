package sentiment

import (
	"context"
	"testing"
	"time"

	"tickerpulse/models"
)

func TestSentimentAggregator_ZeroInputIsSuccessWithNeutralDefaults(t *testing.T) {
	a := NewSentimentAggregator()
	result, err := a.Process(context.Background(), "AAPL", AggregationParams{TimeHorizon: models.Horizon1d})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	agg := result.(models.AggregatedSentiment)
	if agg.Status != "success" {
		t.Errorf("expected success status for zero input, got %s", agg.Status)
	}
	if agg.Label != models.LabelNeutral {
		t.Errorf("expected neutral label for zero input, got %s", agg.Label)
	}
	if agg.NewsCount != 0 {
		t.Errorf("expected zero news count, got %d", agg.NewsCount)
	}
}

func TestSentimentAggregator_FiltersLowConfidence(t *testing.T) {
	a := NewSentimentAggregator()
	now := time.Now()
	a.clock = func() time.Time { return now }

	scores := []models.SentimentScore{
		{ArticleID: "a", Score: 0.8, Confidence: 0.9, ProcessedAt: now},
		{ArticleID: "b", Score: -0.8, Confidence: 0.1, ProcessedAt: now}, // below 1d floor of 0.65
	}

	result, err := a.Process(context.Background(), "AAPL", AggregationParams{
		SentimentScores: scores,
		TimeWeighted:    true,
		TimeHorizon:     models.Horizon1d,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	agg := result.(models.AggregatedSentiment)
	if agg.NewsCount != 1 {
		t.Errorf("expected low-confidence article filtered, newsCount=%d", agg.NewsCount)
	}
	if agg.AggregatedScore <= 0 {
		t.Errorf("expected positive aggregated score from surviving article, got %f", agg.AggregatedScore)
	}
}

func TestSentimentAggregator_RejectsWrongParamsType(t *testing.T) {
	a := NewSentimentAggregator()
	_, err := a.Process(context.Background(), "AAPL", "wrong-type")
	if err == nil {
		t.Error("expected error for wrong params type")
	}
}

func TestSentimentAggregator_UnweightedUsesPlainMean(t *testing.T) {
	a := NewSentimentAggregator()
	now := time.Now()
	a.clock = func() time.Time { return now }

	scores := []models.SentimentScore{
		{ArticleID: "a", Score: 0.6, Confidence: 0.9, ProcessedAt: now},
		{ArticleID: "b", Score: 0.2, Confidence: 0.9, ProcessedAt: now.Add(-48 * time.Hour)},
	}

	result, err := a.Process(context.Background(), "AAPL", AggregationParams{
		SentimentScores: scores,
		TimeWeighted:    false,
		TimeHorizon:     models.Horizon1d,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	agg := result.(models.AggregatedSentiment)
	expected := (0.6 + 0.2) / 2
	if diff := agg.AggregatedScore - expected; diff > 1e-9 || diff < -1e-9 {
		t.Errorf("expected plain mean %f, got %f", expected, agg.AggregatedScore)
	}
}
