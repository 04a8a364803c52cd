package sentiment

import (
	"testing"
	"time"

	"tickerpulse/models"
)

func TestAggregate_EmptyInput(t *testing.T) {
	a := NewTimeWeightedAggregator()
	result := a.Aggregate(nil, models.Horizon1d, time.Now())
	if result.Label != models.LabelNeutral {
		t.Errorf("expected neutral label for empty input, got %s", result.Label)
	}
}

func TestAggregate_RecentArticlesWeightedMoreHeavily(t *testing.T) {
	a := NewTimeWeightedAggregator()
	now := time.Now()
	scores := []models.SentimentScore{
		{Score: 1.0, Confidence: 0.9, ProcessedAt: now},
		{Score: -1.0, Confidence: 0.9, ProcessedAt: now.Add(-70 * time.Hour)},
	}

	result := a.Aggregate(scores, models.Horizon1d, now)

	if result.AggregatedScore <= 0 {
		t.Errorf("expected recent positive article to dominate, got %f", result.AggregatedScore)
	}
}

func TestAggregate_BeyondMaxAgeContributesZeroWeight(t *testing.T) {
	a := NewTimeWeightedAggregator()
	now := time.Now()
	scores := []models.SentimentScore{
		{Score: 1.0, Confidence: 0.9, ProcessedAt: now},
		{Score: -1.0, Confidence: 0.9, ProcessedAt: now.Add(-100 * time.Hour)}, // past 72h max age for 1d
	}

	result := a.Aggregate(scores, models.Horizon1d, now)

	if result.WeightsApplied[1] != 0 {
		t.Errorf("expected zero weight beyond max age, got %f", result.WeightsApplied[1])
	}
	if result.AggregatedScore != 1.0 {
		t.Errorf("expected aggregated score to equal the single in-window article, got %f", result.AggregatedScore)
	}
}

func TestAggregate_FallsBackToMeanWhenAllWeightsZero(t *testing.T) {
	a := NewTimeWeightedAggregator()
	now := time.Now()
	scores := []models.SentimentScore{
		{Score: 0.5, Confidence: 0.8, ProcessedAt: now.Add(-1000 * time.Hour)},
		{Score: -0.5, Confidence: 0.6, ProcessedAt: now.Add(-1000 * time.Hour)},
	}

	result := a.Aggregate(scores, models.Horizon1d, now)

	if result.TotalWeight != 0 {
		t.Fatalf("expected zero total weight for the scenario, got %f", result.TotalWeight)
	}
	if result.AggregatedScore != 0 {
		t.Errorf("expected plain mean fallback of 0, got %f", result.AggregatedScore)
	}
}
