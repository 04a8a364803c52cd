package levels

import (
	"math"
	"sort"
	"time"

	"tickerpulse/models"
)

var fibonacciRatios = []float64{0.236, 0.382, 0.5, 0.618, 0.786}

const (
	swingWindowBars       = 50
	fibProximityPct       = 0.10
	roundNumberProximity  = 0.05
	predictedMergeTol     = 0.01
	defaultProjectionDays = 30
)

// MLScorer is the optional hybrid scoring hook: when present, it refines a
// rule-based PredictedLevel's confidence using a pre-trained model. Its
// absence is a no-op; callers must tolerate nil.
type MLScorer interface {
	// Score returns a probability in [0,1] for the predicted level given its
	// 12-feature vector (see BuildFeatures).
	Score(features []float64) (float64, error)
}

// LevelProjector forecasts how long an existing PriceLevel should remain
// valid, and predicts brand-new forward-looking levels from historical
// structure (Fibonacci retracements, round numbers, spacing patterns).
type LevelProjector struct {
	ML    MLScorer
	clock func() time.Time
}

func NewLevelProjector(ml MLScorer) *LevelProjector {
	return &LevelProjector{ML: ml, clock: time.Now}
}

// ProjectLevelValidity estimates how much longer level should remain valid,
// given a base lifespan tied to its strength band and a linear decay past
// that point.
func (p *LevelProjector) ProjectLevelValidity(level *models.PriceLevel, days int) {
	now := p.now()
	baseLifespan, monthlyDecay := lifespanBand(level.Strength)

	ageDays := 0.0
	if !level.LastTouch.IsZero() {
		ageDays = now.Sub(level.LastTouch).Hours() / 24
	}
	remaining := baseLifespan - ageDays
	if remaining < 0 {
		remaining = 0
	}

	validUntil := now.Add(time.Duration(remaining) * 24 * time.Hour)
	level.ProjectedValidUntil = &validUntil

	probability := 1.0
	if remaining <= 0 {
		probability = math.Max(0, 1-ageDays/(baseLifespan*2))
	}
	level.ProjectedValidityProbability = clamp01(probability)

	monthsElapsed := ageDays / 30
	decayed := level.Strength - int(monthsElapsed*monthlyDecay)
	if decayed < 0 {
		decayed = 0
	}
	level.ProjectedStrength = decayed
	level.ProjectionPeriods = days
}

func (p *LevelProjector) now() time.Time {
	if p.clock != nil {
		return p.clock()
	}
	return time.Now()
}

func lifespanBand(strength int) (baseLifespanDays float64, monthlyDecay float64) {
	switch {
	case strength >= 80:
		return 120, 5
	case strength >= 60:
		return 60, 8
	default:
		return 30, 10
	}
}

// PredictFutureLevels combines Fibonacci retracements over the most recent
// swing, nearby psychological round numbers, and a spacing-pattern level
// derived from historical level spacing, into a deduplicated, confidence-
// sorted set of PredictedLevels.
func (p *LevelProjector) PredictFutureLevels(bars []models.OHLCVBar, currentPrice float64, timeframe string, periods int) []models.PredictedLevel {
	if len(bars) == 0 {
		return nil
	}

	var predicted []models.PredictedLevel
	predicted = append(predicted, fibonacciLevels(bars, currentPrice, timeframe)...)
	predicted = append(predicted, roundNumberLevels(currentPrice, timeframe)...)
	if spacing, ok := spacingPatternLevel(bars, currentPrice, timeframe); ok {
		predicted = append(predicted, spacing)
	}

	predicted = p.scoreWithML(predicted, bars, currentPrice, timeframe)
	predicted = dedupePredicted(predicted, predictedMergeTol)

	sort.Slice(predicted, func(i, j int) bool { return predicted[i].Confidence > predicted[j].Confidence })
	return predicted
}

func fibonacciLevels(bars []models.OHLCVBar, currentPrice float64, timeframe string) []models.PredictedLevel {
	window := bars
	if len(window) > swingWindowBars {
		window = window[len(window)-swingWindowBars:]
	}
	if len(window) == 0 {
		return nil
	}

	swingHigh, swingLow := window[0].High, window[0].Low
	for _, b := range window {
		if b.High > swingHigh {
			swingHigh = b.High
		}
		if b.Low < swingLow {
			swingLow = b.Low
		}
	}
	span := swingHigh - swingLow
	if span <= 0 {
		return nil
	}

	var out []models.PredictedLevel
	for _, ratio := range fibonacciRatios {
		price := swingHigh - span*ratio
		if relativeChange(price, currentPrice) > fibProximityPct {
			continue
		}
		levelType := models.LevelSupport
		if price > currentPrice {
			levelType = models.LevelResistance
		}
		out = append(out, models.PredictedLevel{
			Price:              price,
			Type:               levelType,
			Source:             models.SourceFibonacci,
			Confidence:         55,
			ProjectedTimeframe: timeframe,
		})
	}
	return out
}

func roundNumberLevels(currentPrice float64, timeframe string) []models.PredictedLevel {
	if currentPrice <= 0 {
		return nil
	}
	step := roundStep(currentPrice)
	base := math.Floor(currentPrice/step) * step

	var out []models.PredictedLevel
	for _, candidate := range []float64{base, base + step, base - step} {
		if candidate <= 0 || relativeChange(candidate, currentPrice) > roundNumberProximity {
			continue
		}
		levelType := models.LevelSupport
		if candidate > currentPrice {
			levelType = models.LevelResistance
		}
		out = append(out, models.PredictedLevel{
			Price:              candidate,
			Type:               levelType,
			Source:             models.SourceRoundNumber,
			Confidence:         45,
			ProjectedTimeframe: timeframe,
		})
	}
	return out
}

func roundStep(price float64) float64 {
	switch {
	case price < 10:
		return 1
	case price < 100:
		return 5
	case price < 1000:
		return 10
	default:
		return 50
	}
}

// spacingPatternLevel projects one level at currentPrice plus the mean
// spacing between historical extrema, a crude but stable "next level" guess.
// PredictFutureLevels adds it whenever at least two extrema exist,
// regardless of what the other two techniques find.
func spacingPatternLevel(bars []models.OHLCVBar, currentPrice float64, timeframe string) (models.PredictedLevel, bool) {
	detector := NewExtremaDetector()
	peaks := detector.DetectPeaks(bars)
	valleys := detector.DetectValleys(bars)
	extrema := append(append([]models.ExtremaPoint{}, peaks...), valleys...)
	if len(extrema) < 2 {
		return models.PredictedLevel{}, false
	}

	prices := make([]float64, len(extrema))
	for i, e := range extrema {
		prices[i] = e.Price
	}
	sort.Float64s(prices)

	var totalSpacing float64
	for i := 1; i < len(prices); i++ {
		totalSpacing += prices[i] - prices[i-1]
	}
	meanSpacing := totalSpacing / float64(len(prices)-1)
	if meanSpacing <= 0 {
		return models.PredictedLevel{}, false
	}

	price := currentPrice + meanSpacing
	return models.PredictedLevel{
		Price:              price,
		Type:               models.LevelResistance,
		Source:             models.SourceSpacingPattern,
		Confidence:         35,
		ProjectedTimeframe: timeframe,
	}, true
}

func dedupePredicted(levels []models.PredictedLevel, mergeTol float64) []models.PredictedLevel {
	sort.Slice(levels, func(i, j int) bool { return levels[i].Price < levels[j].Price })

	var out []models.PredictedLevel
	for _, lvl := range levels {
		if len(out) > 0 && relativeChange(lvl.Price, out[len(out)-1].Price) <= mergeTol {
			if lvl.Confidence > out[len(out)-1].Confidence {
				out[len(out)-1] = lvl
			}
			continue
		}
		out = append(out, lvl)
	}
	return out
}

// BuildFeatures extracts the fixed 12-feature vector used by the optional
// ML scorer: normalised distance, one-hot source (3), rule confidence,
// recent volatility, trend sign, nearby volume share, historical touch
// density, level type sign, relative position in the swing window, and
// timeframe encoding.
func BuildFeatures(level models.PredictedLevel, bars []models.OHLCVBar, currentPrice float64, timeframe string) []float64 {
	window := bars
	if len(window) > swingWindowBars {
		window = window[len(window)-swingWindowBars:]
	}

	normDistance := 0.0
	if currentPrice > 0 {
		normDistance = (level.Price - currentPrice) / currentPrice
	}

	isFib, isRound, isSpacing := 0.0, 0.0, 0.0
	switch level.Source {
	case models.SourceFibonacci:
		isFib = 1
	case models.SourceRoundNumber:
		isRound = 1
	case models.SourceSpacingPattern:
		isSpacing = 1
	}

	volatility := recentVolatility(window)
	trend := trendSign(window)
	volumeShare := nearbyVolumeShare(window, level.Price)
	touchDensity := historicalTouchDensity(window, level.Price)

	typeSign := 1.0
	if level.Type == models.LevelResistance {
		typeSign = -1.0
	}

	relativePosition := relativePositionInRange(window, level.Price)
	tfEncoding := timeframeEncoding(timeframe)

	return []float64{
		normDistance,
		isFib,
		isRound,
		isSpacing,
		level.Confidence / 100,
		volatility,
		trend,
		volumeShare,
		touchDensity,
		typeSign,
		relativePosition,
		tfEncoding,
	}
}

func recentVolatility(bars []models.OHLCVBar) float64 {
	if len(bars) < 2 {
		return 0
	}
	var sumRange float64
	for _, b := range bars {
		if b.Close > 0 {
			sumRange += (b.High - b.Low) / b.Close
		}
	}
	return sumRange / float64(len(bars))
}

func trendSign(bars []models.OHLCVBar) float64 {
	if len(bars) < 2 {
		return 0
	}
	first, last := bars[0].Close, bars[len(bars)-1].Close
	switch {
	case last > first:
		return 1
	case last < first:
		return -1
	default:
		return 0
	}
}

func nearbyVolumeShare(bars []models.OHLCVBar, price float64) float64 {
	var total, nearby float64
	tol := price * 0.02
	for _, b := range bars {
		total += b.Volume
		if b.Low-tol <= price && price <= b.High+tol {
			nearby += b.Volume
		}
	}
	if total <= 0 {
		return 0
	}
	return nearby / total
}

func historicalTouchDensity(bars []models.OHLCVBar, price float64) float64 {
	if len(bars) == 0 {
		return 0
	}
	return float64(countTouches(bars, price, 0.01)) / float64(len(bars))
}

func relativePositionInRange(bars []models.OHLCVBar, price float64) float64 {
	if len(bars) == 0 {
		return 0.5
	}
	lo, hi := bars[0].Low, bars[0].High
	for _, b := range bars {
		if b.Low < lo {
			lo = b.Low
		}
		if b.High > hi {
			hi = b.High
		}
	}
	if hi <= lo {
		return 0.5
	}
	return clamp01((price - lo) / (hi - lo))
}

func timeframeEncoding(timeframe string) float64 {
	order := []string{"1m", "5m", "15m", "30m", "1h", "4h", "1d", "1w", "1mo", "1y"}
	for i, tf := range order {
		if tf == timeframe {
			return float64(i) / float64(len(order)-1)
		}
	}
	return 0.5
}

// scoreWithML refines rule-based confidence with the optional ML scorer.
// A missing scorer or a scoring error leaves rule-only confidence in place.
func (p *LevelProjector) scoreWithML(levels []models.PredictedLevel, bars []models.OHLCVBar, currentPrice float64, timeframe string) []models.PredictedLevel {
	if p.ML == nil {
		return levels
	}
	out := make([]models.PredictedLevel, len(levels))
	for i, lvl := range levels {
		out[i] = lvl
		features := BuildFeatures(lvl, bars, currentPrice, timeframe)
		mlProb, err := p.ML.Score(features)
		if err != nil {
			continue
		}
		out[i].Confidence = 0.4*lvl.Confidence + 0.6*(mlProb*100)
	}
	return out
}
