package sentiment

import (
	"context"
	"fmt"
	"time"

	"tickerpulse/models"
	"tickerpulse/observability"
)

type horizonFloor struct {
	confidence float64
	minArticles int
}

var horizonFloors = map[models.TimeHorizon]horizonFloor{
	models.Horizon1s:  {confidence: 0.8, minArticles: 3},
	models.Horizon1m:  {confidence: 0.75, minArticles: 5},
	models.Horizon1h:  {confidence: 0.7, minArticles: 8},
	models.Horizon1d:  {confidence: 0.65, minArticles: 10},
	models.Horizon1w:  {confidence: 0.6, minArticles: 15},
	models.Horizon1mo: {confidence: 0.55, minArticles: 20},
	models.Horizon1y:  {confidence: 0.5, minArticles: 25},
}

var defaultFloor = horizonFloor{confidence: 0.65, minArticles: 10}

// AggregationParams is the Process() params payload for SentimentAggregator.
type AggregationParams struct {
	SentimentScores []models.SentimentScore
	TimeWeighted    bool
	TimeHorizon     models.TimeHorizon
}

// SentimentAggregator combines per-article sentiment scores into one
// symbol-level view, applying a confidence floor and computing impact. It
// implements models.Agent.
type SentimentAggregator struct {
	timeWeighted *TimeWeightedAggregator
	impact       *ImpactScorer
	clock        func() time.Time
}

func NewSentimentAggregator() *SentimentAggregator {
	return &SentimentAggregator{
		timeWeighted: NewTimeWeightedAggregator(),
		impact:       NewImpactScorer(),
		clock:        time.Now,
	}
}

func (a *SentimentAggregator) Init(ctx context.Context) error { return nil }

func (a *SentimentAggregator) HealthCheck(ctx context.Context) models.HealthStatus {
	return models.HealthStatus{Healthy: true}
}

// Process implements models.Agent. params must be an AggregationParams.
func (a *SentimentAggregator) Process(ctx context.Context, symbol string, params any) (any, error) {
	req, ok := params.(AggregationParams)
	if !ok {
		return nil, fmt.Errorf("sentiment aggregator: unexpected params type %T", params)
	}
	if req.TimeHorizon == "" {
		req.TimeHorizon = models.Horizon1d
	}

	metrics := observability.GetMetrics()
	timer := metrics.NewTimer()

	now := a.clock()
	floor, ok := horizonFloors[req.TimeHorizon]
	if !ok {
		floor = defaultFloor
	}

	survivors := make([]models.SentimentScore, 0, len(req.SentimentScores))
	for _, s := range req.SentimentScores {
		if s.Confidence >= floor.confidence {
			survivors = append(survivors, s)
		}
	}

	if len(survivors) < floor.minArticles {
		observability.Warn("aggregation below recommended article floor", "symbol", symbol, "horizon", req.TimeHorizon, "count", len(survivors), "floor", floor.minArticles)
	}

	if len(survivors) == 0 {
		timer.ObserveAggregation(symbol, "success")
		metrics.RecordAggregationImpact(string(models.ImpactLow))
		return models.AggregatedSentiment{
			Symbol:          symbol,
			AggregatedScore: 0,
			Label:           models.LabelNeutral,
			Confidence:      0,
			Impact:          models.ImpactLow,
			NewsCount:       0,
			TimeWeighted:    req.TimeWeighted,
			TimeHorizon:     req.TimeHorizon,
			AggregatedAt:    now,
			Status:          "success",
		}, nil
	}

	var aggregated AggregateResult
	if req.TimeWeighted {
		aggregated = a.timeWeighted.Aggregate(survivors, req.TimeHorizon, now)
	} else {
		aggregated = plainMeanAggregate(survivors)
	}

	recency := a.impact.CalculateRecencyScore(aggregated.WeightsApplied)
	confidence := aggregated.Confidence
	_, impactLabel := a.impact.CalculateImpact(aggregated.AggregatedScore, len(survivors), &recency, &confidence)

	timer.ObserveAggregation(symbol, "success")
	metrics.RecordAggregationImpact(string(impactLabel))

	return models.AggregatedSentiment{
		Symbol:          symbol,
		AggregatedScore: aggregated.AggregatedScore,
		Label:           aggregated.Label,
		Confidence:      aggregated.Confidence,
		Impact:          impactLabel,
		NewsCount:       len(survivors),
		TimeWeighted:    req.TimeWeighted,
		TimeHorizon:     req.TimeHorizon,
		AggregatedAt:    now,
		Status:          "success",
	}, nil
}

func plainMeanAggregate(scores []models.SentimentScore) AggregateResult {
	var sumScore, sumConfidence float64
	weights := make([]float64, len(scores))
	for i, s := range scores {
		sumScore += s.Score
		sumConfidence += s.Confidence
		weights[i] = 1
	}
	n := float64(len(scores))
	avgScore := sumScore / n
	return AggregateResult{
		AggregatedScore: avgScore,
		Confidence:      sumConfidence / n,
		Label:           models.LabelForScore(avgScore),
		WeightsApplied:  weights,
		TotalWeight:     n,
	}
}
