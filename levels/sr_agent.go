package levels

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/samber/lo"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"tickerpulse/models"
	"tickerpulse/observability"
)

const (
	resultCacheTTL      = time.Hour
	resultCacheCapacity = 100

	maxExtremaPerSide = 500
	defaultMaxBatchWorkers = 10

	defaultMinStrength = 50
	defaultMaxLevels   = 5
	defaultNoiseFilterPct = 0.005
	defaultVolumeMergeTolerance = 0.02
)

var timeframeLookbackDays = map[string]int{
	"1m": 30, "5m": 30, "15m": 30, "30m": 30,
	"1h": 90, "4h": 90,
	"1d": 730,
	"1w": 1095,
	"1mo": 1825,
	"1y": 3650,
}

var supportedTimeframes = map[string]bool{
	"1m": true, "5m": true, "15m": true, "30m": true,
	"1h": true, "4h": true, "1d": true, "1w": true, "1mo": true, "1y": true,
}

// DetectParams is the Process() params payload for SupportResistanceAgent.
type DetectParams struct {
	Timeframe         string
	MinStrength       float64
	MaxLevels         int
	ProjectFuture     bool
	ProjectionPeriods int
	LookbackDays      int
}

// DetectResult is the Process() result payload for SupportResistanceAgent.
type DetectResult struct {
	Symbol            string              `json:"symbol"`
	CurrentPrice      float64             `json:"current_price"`
	SupportLevels     []models.PriceLevel `json:"support_levels"`
	ResistanceLevels  []models.PriceLevel `json:"resistance_levels"`
	Summary           []string            `json:"summary"`
	PredictedLevels   []models.PredictedLevel `json:"predicted_levels,omitempty"`
	ProcessingSeconds float64             `json:"processing_time_seconds"`
	Metadata          DetectMetadata      `json:"metadata"`
	Status            string              `json:"status"`
	Message           string              `json:"message,omitempty"`
}

// DetectMetadata reports bookkeeping counts for a DetectResult.
type DetectMetadata struct {
	BarCount         int    `json:"bar_count"`
	DataSource       string `json:"data_source"`
	LookbackDays     int    `json:"lookback_days"`
	LookbackSource   string `json:"lookback_source"` // "explicit" or "default"
	RawSupportCount  int    `json:"raw_support_count"`
	RawResistanceCount int  `json:"raw_resistance_count"`
}

type cacheKey struct {
	symbol        string
	minStrength   float64
	maxLevels     int
	timeframe     string
	projectFuture bool
	lookbackDays  int
}

type cacheEntry struct {
	result    DetectResult
	expiresAt time.Time
}

// SupportResistanceAgent orchestrates the full detection pipeline: load
// bars, find extrema, cluster, validate, fuse with volume, score strength,
// optionally project, filter and rank. It implements models.Agent and owns
// an in-memory TTL/LRU result cache keyed by request shape.
type SupportResistanceAgent struct {
	loader     *DataLoader
	extrema    *ExtremaDetector
	clusterer  *DBSCANClusterer
	validator  *LevelValidator
	volume     *VolumeProfileAnalyzer
	strength   *StrengthCalculator
	projector  *LevelProjector

	mu         sync.Mutex
	cache      map[cacheKey]*cacheEntry
	cacheOrder []cacheKey

	clock func() time.Time
}

func NewSupportResistanceAgent(loader *DataLoader, projector *LevelProjector) *SupportResistanceAgent {
	return &SupportResistanceAgent{
		loader:    loader,
		extrema:   NewExtremaDetector(),
		clusterer: NewDBSCANClusterer(),
		validator: NewLevelValidator(),
		volume:    NewVolumeProfileAnalyzer(),
		strength:  NewStrengthCalculator(),
		projector: projector,
		cache:     make(map[cacheKey]*cacheEntry),
		clock:     time.Now,
	}
}

func (a *SupportResistanceAgent) Init(ctx context.Context) error {
	if a.loader == nil {
		return fmt.Errorf("support/resistance agent: no DataLoader configured")
	}
	return nil
}

func (a *SupportResistanceAgent) HealthCheck(ctx context.Context) models.HealthStatus {
	return models.HealthStatus{Healthy: a.loader != nil}
}

// Process implements models.Agent. params must be a DetectParams.
func (a *SupportResistanceAgent) Process(ctx context.Context, symbol string, params any) (any, error) {
	req, ok := params.(DetectParams)
	if !ok {
		return nil, fmt.Errorf("support/resistance agent: unexpected params type %T", params)
	}
	return a.DetectLevels(ctx, symbol, req)
}

// DetectLevels runs the full pipeline for one symbol, consulting the result
// cache first.
func (a *SupportResistanceAgent) DetectLevels(ctx context.Context, symbol string, req DetectParams) (DetectResult, error) {
	start := a.clock()
	metrics := observability.GetMetrics()
	timer := metrics.NewTimer()

	if req.Timeframe == "" {
		req.Timeframe = "1d"
	}
	if !supportedTimeframes[req.Timeframe] {
		metrics.RecordLevelDetectionError(symbol, "unsupported_timeframe")
		timer.ObserveLevelDetection(symbol, "error")
		return DetectResult{}, fmt.Errorf("%w: %q", models.ErrUnsupportedTimeframe, req.Timeframe)
	}
	if req.MinStrength <= 0 {
		req.MinStrength = defaultMinStrength
	}
	if req.MaxLevels <= 0 {
		req.MaxLevels = defaultMaxLevels
	}

	key := cacheKey{
		symbol:        symbol,
		minStrength:   req.MinStrength,
		maxLevels:     req.MaxLevels,
		timeframe:     req.Timeframe,
		projectFuture: req.ProjectFuture,
		lookbackDays:  req.LookbackDays,
	}
	if cached, ok := a.cacheGet(key); ok {
		metrics.RecordLevelCacheHit(symbol)
		timer.ObserveLevelDetection(symbol, "cache_hit")
		return cached, nil
	}
	metrics.RecordLevelCacheMiss(symbol)

	lookbackDays, lookbackSource := a.lookback(req)
	now := a.clock()
	startDate := now.AddDate(0, 0, -lookbackDays)

	bars, sourceLabel, err := a.loader.LoadOHLCV(ctx, symbol, startDate, now, req.Timeframe)
	if err != nil {
		metrics.RecordLevelDetectionError(symbol, "data_load")
		timer.ObserveLevelDetection(symbol, "error")
		return DetectResult{}, err
	}

	minPoints := minBarsRequired(req.Timeframe, lookbackDays)
	if len(bars) < minPoints {
		metrics.RecordLevelDetectionError(symbol, "insufficient_data")
		timer.ObserveLevelDetection(symbol, "error")
		return DetectResult{}, fmt.Errorf("%w: need at least %d bars for %s, got %d", models.ErrInsufficientData, minPoints, req.Timeframe, len(bars))
	}

	currentPrice := bars[len(bars)-1].Close

	peaks := a.extrema.FilterNoise(a.extrema.DetectPeaks(bars), defaultNoiseFilterPct)
	valleys := a.extrema.FilterNoise(a.extrema.DetectValleys(bars), defaultNoiseFilterPct)
	rawSupportCount, rawResistanceCount := len(valleys), len(peaks)
	peaks = capMostSignificant(peaks, currentPrice, maxExtremaPerSide)
	valleys = capMostSignificant(valleys, currentPrice, maxExtremaPerSide)

	resistanceLevels := a.clusterer.FilterClusters(a.clusterer.ClusterLevels(peaks), 1)
	supportLevels := a.clusterer.FilterClusters(a.clusterer.ClusterLevels(valleys), 1)

	resistanceLevels = a.validator.ValidateLevels(resistanceLevels, bars)
	supportLevels = a.validator.ValidateLevels(supportLevels, bars)

	for i := range resistanceLevels {
		a.strength.CalculateStrength(&resistanceLevels[i])
	}
	for i := range supportLevels {
		a.strength.CalculateStrength(&supportLevels[i])
	}

	all := append(append([]models.PriceLevel{}, supportLevels...), resistanceLevels...)
	volumeLevels := a.volume.DetectVolumeLevels(bars)
	all = a.volume.MergeWithPriceLevels(all, volumeLevels, defaultVolumeMergeTolerance)
	for i := range all {
		if all[i].HasVolumeConfirmation {
			a.strength.CalculateStrength(&all[i])
		}
	}

	for i := range all {
		a.strength.CalculateBreakoutProbability(&all[i], currentPrice)
	}

	var predictedLevels []models.PredictedLevel
	if req.ProjectFuture && a.projector != nil {
		predictedLevels = a.projector.PredictFutureLevels(bars, currentPrice, req.Timeframe, req.ProjectionPeriods)
		for i := range all {
			a.projector.ProjectLevelValidity(&all[i], req.ProjectionPeriods)
			all[i].Timeframe = req.Timeframe
			all[i].ProjectionPeriods = req.ProjectionPeriods
		}
	}

	support, resistance := splitByType(all)
	support = rankAndTruncate(filterByStrength(support, req.MinStrength), req.MaxLevels)
	resistance = rankAndTruncate(filterByStrength(resistance, req.MinStrength), req.MaxLevels)

	result := DetectResult{
		Symbol:           symbol,
		CurrentPrice:     currentPrice,
		SupportLevels:    support,
		ResistanceLevels: resistance,
		Summary:          buildSummary(append(append([]models.PriceLevel{}, support...), resistance...)),
		PredictedLevels:  predictedLevels,
		ProcessingSeconds: a.clock().Sub(start).Seconds(),
		Metadata: DetectMetadata{
			BarCount:           len(bars),
			DataSource:         sourceLabel,
			LookbackDays:       lookbackDays,
			LookbackSource:     lookbackSource,
			RawSupportCount:    rawSupportCount,
			RawResistanceCount: rawResistanceCount,
		},
		Status: "success",
	}

	a.cacheSet(key, result)
	metrics.RecordLevelsDetected(symbol, "support", len(support))
	metrics.RecordLevelsDetected(symbol, "resistance", len(resistance))
	timer.ObserveLevelDetection(symbol, "success")
	observability.WithSymbol(symbol).Info("support/resistance detection complete", "timeframe", req.Timeframe, "support", len(support), "resistance", len(resistance))
	return result, nil
}

// DetectLevelsBatch runs DetectLevels for every symbol, sequentially unless
// parallel is requested and there are more than 5 symbols, in which case a
// bounded worker pool (cap min(10, len(symbols))) is used. Per-symbol
// failures are isolated into the batch response rather than failing the
// whole batch.
func (a *SupportResistanceAgent) DetectLevelsBatch(ctx context.Context, symbols []string, req DetectParams, parallel bool) map[string]DetectResult {
	results := make(map[string]DetectResult, len(symbols))

	if !parallel || len(symbols) <= 5 {
		for _, symbol := range symbols {
			results[symbol] = a.detectOrError(ctx, symbol, req)
		}
		return results
	}

	var mu sync.Mutex
	g, gCtx := errgroup.WithContext(ctx)
	workers := defaultMaxBatchWorkers
	if len(symbols) < workers {
		workers = len(symbols)
	}
	g.SetLimit(workers)

	for _, symbol := range symbols {
		symbol := symbol
		g.Go(func() error {
			result := a.detectOrError(gCtx, symbol, req)
			mu.Lock()
			results[symbol] = result
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()
	return results
}

func (a *SupportResistanceAgent) detectOrError(ctx context.Context, symbol string, req DetectParams) DetectResult {
	result, err := a.DetectLevels(ctx, symbol, req)
	if err != nil {
		return DetectResult{Symbol: symbol, Status: "error", Message: err.Error()}
	}
	return result
}

// NearestLevels returns the nearest support and nearest resistance to the
// current price from result, or zero values if none exist on that side.
func NearestLevels(result DetectResult) (support, resistance *models.PriceLevel) {
	if len(result.SupportLevels) > 0 {
		nearest := result.SupportLevels[0]
		for _, l := range result.SupportLevels[1:] {
			if absDiff(l.Price, result.CurrentPrice) < absDiff(nearest.Price, result.CurrentPrice) {
				nearest = l
			}
		}
		support = &nearest
	}
	if len(result.ResistanceLevels) > 0 {
		nearest := result.ResistanceLevels[0]
		for _, l := range result.ResistanceLevels[1:] {
			if absDiff(l.Price, result.CurrentPrice) < absDiff(nearest.Price, result.CurrentPrice) {
				nearest = l
			}
		}
		resistance = &nearest
	}
	return support, resistance
}

func (a *SupportResistanceAgent) lookback(req DetectParams) (days int, source string) {
	if req.LookbackDays > 0 {
		return req.LookbackDays, "explicit"
	}
	if d, ok := timeframeLookbackDays[req.Timeframe]; ok {
		return d, "default"
	}
	return 365, "default"
}

func minBarsRequired(timeframe string, lookbackDays int) int {
	if timeframe == "1d" {
		min := int(0.6 * float64(lookbackDays))
		if min < 50 {
			min = 50
		}
		return min
	}
	if lookbackDays < 50 {
		return lookbackDays
	}
	return 50
}

// capMostSignificant keeps at most maxCount extrema, preferring the ones
// furthest from the current price (the most significant swings) when the
// raw extrema set is larger than the cap.
func capMostSignificant(points []models.ExtremaPoint, currentPrice float64, maxCount int) []models.ExtremaPoint {
	if len(points) <= maxCount {
		return points
	}
	sorted := append([]models.ExtremaPoint{}, points...)
	sort.Slice(sorted, func(i, j int) bool {
		return absDiff(sorted[i].Price, currentPrice) > absDiff(sorted[j].Price, currentPrice)
	})
	kept := lo.Subset(sorted, 0, uint(maxCount))
	sort.Slice(kept, func(i, j int) bool { return kept[i].Index < kept[j].Index })
	return kept
}

func splitByType(levels []models.PriceLevel) (support, resistance []models.PriceLevel) {
	for _, l := range levels {
		if l.Type == models.LevelSupport {
			support = append(support, l)
		} else {
			resistance = append(resistance, l)
		}
	}
	return support, resistance
}

func filterByStrength(levels []models.PriceLevel, minStrength float64) []models.PriceLevel {
	return lo.Filter(levels, func(l models.PriceLevel, _ int) bool {
		return float64(l.Strength) >= minStrength
	})
}

// rankAndTruncate sorts levels strength desc, price asc as the tie-break so
// ordering stays deterministic, and truncates to maxLevels.
func rankAndTruncate(levels []models.PriceLevel, maxLevels int) []models.PriceLevel {
	sort.SliceStable(levels, func(i, j int) bool {
		if levels[i].Strength != levels[j].Strength {
			return levels[i].Strength > levels[j].Strength
		}
		return levels[i].Price < levels[j].Price
	})
	if maxLevels > 0 && len(levels) > maxLevels {
		return lo.Subset(levels, 0, uint(maxLevels))
	}
	return levels
}

// buildSummary renders the "$P | Strength: S/100 | SUPPORT|RESISTANCE |
// Breakout: B%" key line for each level, using decimal for stable currency
// formatting independent of float rounding artifacts.
func buildSummary(levels []models.PriceLevel) []string {
	out := make([]string, 0, len(levels))
	for _, l := range levels {
		price := decimal.NewFromFloat(l.Price).Round(2)
		typeLabel := "SUPPORT"
		if l.Type == models.LevelResistance {
			typeLabel = "RESISTANCE"
		}
		out = append(out, fmt.Sprintf("$%s | Strength: %d/100 | %s | Breakout: %.0f%%",
			price.StringFixed(2), l.Strength, typeLabel, l.BreakoutProbability))
	}
	return out
}

func (a *SupportResistanceAgent) cacheGet(key cacheKey) (DetectResult, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	entry, ok := a.cache[key]
	if !ok {
		return DetectResult{}, false
	}
	if a.clock().After(entry.expiresAt) {
		delete(a.cache, key)
		a.cacheOrder = removeKey(a.cacheOrder, key)
		return DetectResult{}, false
	}
	a.cacheOrder = append(removeKey(a.cacheOrder, key), key)
	return entry.result, true
}

func (a *SupportResistanceAgent) cacheSet(key cacheKey, result DetectResult) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if _, exists := a.cache[key]; !exists {
		if len(a.cacheOrder) >= resultCacheCapacity {
			oldest := a.cacheOrder[0]
			a.cacheOrder = a.cacheOrder[1:]
			delete(a.cache, oldest)
		}
		a.cacheOrder = append(a.cacheOrder, key)
	}

	a.cache[key] = &cacheEntry{result: result, expiresAt: a.clock().Add(resultCacheTTL)}
}

func removeKey(order []cacheKey, key cacheKey) []cacheKey {
	for i, k := range order {
		if k == key {
			return append(order[:i], order[i+1:]...)
		}
	}
	return order
}
