package sentiment

import (
	"math"
	"time"

	"tickerpulse/models"
)

// decayParams sets the exponential half-life and hard cutoff age for a
// given time horizon.
type decayParams struct {
	halfLife time.Duration
	maxAge   time.Duration
}

var horizonDecay = map[models.TimeHorizon]decayParams{
	models.Horizon1s:  {halfLife: 6 * time.Minute, maxAge: 30 * time.Minute},
	models.Horizon1m:  {halfLife: 6 * time.Minute, maxAge: 30 * time.Minute},
	models.Horizon1h:  {halfLife: 2 * time.Hour, maxAge: 6 * time.Hour},
	models.Horizon1d:  {halfLife: 24 * time.Hour, maxAge: 72 * time.Hour},
	models.Horizon1w:  {halfLife: 72 * time.Hour, maxAge: 168 * time.Hour},
	models.Horizon1mo: {halfLife: 168 * time.Hour, maxAge: 720 * time.Hour},
	models.Horizon1y:  {halfLife: 720 * time.Hour, maxAge: 8760 * time.Hour},
}

var defaultDecay = decayParams{halfLife: 24 * time.Hour, maxAge: 72 * time.Hour}

// AggregateResult is what TimeWeightedAggregator.Aggregate returns.
type AggregateResult struct {
	AggregatedScore float64
	Confidence      float64
	Label           models.SentimentLabel
	WeightsApplied  []float64
	TotalWeight     float64
}

// TimeWeightedAggregator combines per-article sentiment scores into one
// symbol-level score, weighting recent articles more heavily via
// exponential decay keyed by time horizon.
type TimeWeightedAggregator struct{}

func NewTimeWeightedAggregator() *TimeWeightedAggregator {
	return &TimeWeightedAggregator{}
}

// Aggregate computes the time-weighted sentiment for scores, anchored at
// now. Articles older than the horizon's max age contribute zero weight. If
// every weight is zero, it falls back to a plain unweighted mean.
func (a *TimeWeightedAggregator) Aggregate(scores []models.SentimentScore, horizon models.TimeHorizon, now time.Time) AggregateResult {
	if len(scores) == 0 {
		return AggregateResult{Label: models.LabelNeutral}
	}

	decay, ok := horizonDecay[horizon]
	if !ok {
		decay = defaultDecay
	}

	weights := make([]float64, len(scores))
	var weightedScore, weightedConfidence, totalWeight float64

	for i, s := range scores {
		age := now.Sub(s.ProcessedAt)
		if age < 0 {
			age = 0
		}
		var w float64
		if age <= decay.maxAge {
			w = math.Pow(0.5, float64(age)/float64(decay.halfLife))
		}
		weights[i] = w
		weightedScore += s.Score * w
		weightedConfidence += s.Confidence * w
		totalWeight += w
	}

	var aggregatedScore, aggregatedConfidence float64
	if totalWeight > 0 {
		aggregatedScore = weightedScore / totalWeight
		aggregatedConfidence = weightedConfidence / totalWeight
	} else {
		var sumScore, sumConfidence float64
		for _, s := range scores {
			sumScore += s.Score
			sumConfidence += s.Confidence
		}
		aggregatedScore = sumScore / float64(len(scores))
		aggregatedConfidence = sumConfidence / float64(len(scores))
	}

	return AggregateResult{
		AggregatedScore: aggregatedScore,
		Confidence:      aggregatedConfidence,
		Label:           models.LabelForScore(aggregatedScore),
		WeightsApplied:  weights,
		TotalWeight:     totalWeight,
	}
}
