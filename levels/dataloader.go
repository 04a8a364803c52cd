package levels

import (
	"context"
	"fmt"
	"math/rand"
	"sort"
	"time"

	"tickerpulse/models"
)

const (
	SourceDataAgent = "data_agent"
	SourceYFinance  = "yfinance"
	SourceMockData  = "mock_data"
)

// HistoricalProvider is an external OHLCV source, such as a Yahoo-style
// quote API. DataLoader falls back to it when no DataAgent is injected.
type HistoricalProvider interface {
	LoadOHLCV(ctx context.Context, symbol string, start, end time.Time, timeframe string) ([]models.OHLCVBar, error)
}

// DataAgent is an internal, already-running data pipeline (e.g. a live bar
// cache) that DataLoader prefers over any external provider when present.
type DataAgent interface {
	LoadOHLCV(ctx context.Context, symbol string, start, end time.Time, timeframe string) ([]models.OHLCVBar, error)
}

// DataLoader resolves historical OHLCV bars for a symbol, preferring an
// injected DataAgent, then an external HistoricalProvider, then a bundled
// mock fixture (which can be disabled).
type DataLoader struct {
	DataAgent    DataAgent
	Provider     HistoricalProvider
	AllowMockFallback bool
	clock        func() time.Time
}

func NewDataLoader(dataAgent DataAgent, provider HistoricalProvider, allowMockFallback bool) *DataLoader {
	return &DataLoader{
		DataAgent:         dataAgent,
		Provider:          provider,
		AllowMockFallback: allowMockFallback,
		clock:             time.Now,
	}
}

// historyCap returns the maximum lookback permitted for timeframe, per
// provider limitations (intraday history is generally short-lived).
func historyCap(timeframe string) time.Duration {
	switch timeframe {
	case "1m", "5m", "15m", "30m":
		return 5 * 24 * time.Hour
	case "1h", "4h":
		return 60 * 24 * time.Hour
	default:
		return 0 // unbounded
	}
}

// LoadOHLCV loads bars for symbol between start and end (both treated as
// UTC if not already), enforcing end <= now and start <= end, and applying
// the provider-specific history cap for the timeframe.
func (l *DataLoader) LoadOHLCV(ctx context.Context, symbol string, start, end time.Time, timeframe string) ([]models.OHLCVBar, string, error) {
	start = start.UTC()
	end = end.UTC()

	now := l.clock().UTC()
	if end.After(now) {
		end = now
	}
	if start.After(end) {
		return nil, "", fmt.Errorf("%w: start date is after end date", models.ErrInsufficientData)
	}

	if cap := historyCap(timeframe); cap > 0 && end.Sub(start) > cap {
		start = end.Add(-cap)
	}

	if l.DataAgent != nil {
		bars, err := l.DataAgent.LoadOHLCV(ctx, symbol, start, end, timeframe)
		if err == nil {
			if verr := validateBars(bars); verr == nil {
				return bars, SourceDataAgent, nil
			}
		}
	}

	if l.Provider != nil {
		bars, err := l.Provider.LoadOHLCV(ctx, symbol, start, end, timeframe)
		if err == nil {
			if verr := validateBars(bars); verr == nil {
				return bars, SourceYFinance, nil
			}
		}
	}

	if !l.AllowMockFallback {
		return nil, "", fmt.Errorf("%w: no data source available and mock fallback disabled", models.ErrInsufficientData)
	}

	bars := generateMockBars(symbol, start, end, timeframe)
	return bars, SourceMockData, nil
}

func validateBars(bars []models.OHLCVBar) error {
	if len(bars) == 0 {
		return fmt.Errorf("%w: no bars returned", models.ErrInsufficientData)
	}
	for _, b := range bars {
		if b.Open <= 0 || b.High <= 0 || b.Low <= 0 || b.Close <= 0 {
			return fmt.Errorf("%w: non-positive price in bar", models.ErrCollectorProtocol)
		}
		if b.High < b.Low {
			return fmt.Errorf("%w: high < low in bar", models.ErrCollectorProtocol)
		}
	}
	return nil
}

// barInterval maps a timeframe string to its bar spacing, for the mock
// fixture generator.
func barInterval(timeframe string) time.Duration {
	switch timeframe {
	case "1m":
		return time.Minute
	case "5m":
		return 5 * time.Minute
	case "15m":
		return 15 * time.Minute
	case "30m":
		return 30 * time.Minute
	case "1h":
		return time.Hour
	case "4h":
		return 4 * time.Hour
	case "1w":
		return 7 * 24 * time.Hour
	case "1mo":
		return 30 * 24 * time.Hour
	default:
		return 24 * time.Hour
	}
}

// generateMockBars produces a deterministic random-walk fixture, seeded by
// the symbol so repeated calls for the same symbol are stable within a
// process.
func generateMockBars(symbol string, start, end time.Time, timeframe string) []models.OHLCVBar {
	interval := barInterval(timeframe)
	if interval <= 0 {
		interval = 24 * time.Hour
	}

	count := int(end.Sub(start) / interval)
	if count < 2 {
		count = 2
	}

	seed := int64(0)
	for _, r := range symbol {
		seed = seed*31 + int64(r)
	}
	rng := rand.New(rand.NewSource(seed))

	price := 100.0 + float64(seed%50)
	bars := make([]models.OHLCVBar, 0, count)
	ts := start

	for i := 0; i < count; i++ {
		change := (rng.Float64() - 0.5) * price * 0.02
		open := price
		close := price + change
		high := open
		if close > high {
			high = close
		}
		high *= 1 + rng.Float64()*0.005
		low := open
		if close < low {
			low = close
		}
		low *= 1 - rng.Float64()*0.005
		volume := 1_000_000 + rng.Float64()*500_000

		bars = append(bars, models.OHLCVBar{
			Timestamp: ts,
			Open:      open,
			High:      high,
			Low:       low,
			Close:     close,
			Volume:    volume,
		})

		price = close
		ts = ts.Add(interval)
	}

	sort.Slice(bars, func(i, j int) bool { return bars[i].Timestamp.Before(bars[j].Timestamp) })
	return bars
}
