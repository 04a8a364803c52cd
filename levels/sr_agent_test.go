package levels

import (
	"context"
	"testing"
	"time"

	"tickerpulse/models"
)

// mockAAPLFixture builds a >=50 bar daily series with recurring support
// around $150 and resistance around $180, plus enough noise to exercise
// clustering, validation, and volume fusion.
func mockAAPLFixture() []models.OHLCVBar {
	ts := time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)
	var bars []models.OHLCVBar
	pattern := []float64{
		160, 165, 170, 175, 180, 178, 172, 168, 162, 155,
		150, 148, 152, 158, 163, 168, 173, 179, 181, 177,
		171, 165, 159, 153, 150, 149, 153, 159, 165, 171,
		177, 180, 182, 178, 172, 166, 160, 154, 150, 148,
		151, 157, 163, 169, 175, 181, 183, 179, 173, 167,
		161, 155, 150, 149, 154, 160, 166, 172,
	}
	for _, p := range pattern {
		bars = append(bars, models.OHLCVBar{
			Timestamp: ts,
			Open:      p,
			High:      p * 1.01,
			Low:       p * 0.99,
			Close:     p,
			Volume:    1_000_000,
		})
		ts = ts.Add(24 * time.Hour)
	}
	return bars
}

type fixtureProvider struct{ bars []models.OHLCVBar }

func (f fixtureProvider) LoadOHLCV(ctx context.Context, symbol string, start, end time.Time, timeframe string) ([]models.OHLCVBar, error) {
	return f.bars, nil
}

func newTestAgent(bars []models.OHLCVBar) *SupportResistanceAgent {
	loader := NewDataLoader(nil, fixtureProvider{bars: bars}, false)
	loader.clock = func() time.Time { return bars[len(bars)-1].Timestamp.Add(24 * time.Hour) }
	agent := NewSupportResistanceAgent(loader, NewLevelProjector(nil))
	agent.clock = loader.clock
	return agent
}

func TestDetectLevels_FullRunOnMockFixture(t *testing.T) {
	bars := mockAAPLFixture()
	agent := newTestAgent(bars)

	result, err := agent.DetectLevels(context.Background(), "AAPL", DetectParams{
		Timeframe:   "1d",
		MinStrength: 0, // accept the heuristic default below, exercised separately
		MaxLevels:   10,
		LookbackDays: len(bars),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Status != "success" {
		t.Fatalf("expected success status, got %s: %s", result.Status, result.Message)
	}

	for _, l := range append(append([]models.PriceLevel{}, result.SupportLevels...), result.ResistanceLevels...) {
		if l.Strength < 0 || l.Strength > 100 {
			t.Errorf("level strength out of range: %d", l.Strength)
		}
	}

	if result.ProcessingSeconds >= 5 {
		t.Errorf("expected processing under 5s on a dev machine, got %f", result.ProcessingSeconds)
	}
}

func TestDetectLevels_NearestLevelsBracketCurrentPrice(t *testing.T) {
	bars := mockAAPLFixture()
	agent := newTestAgent(bars)

	result, err := agent.DetectLevels(context.Background(), "AAPL", DetectParams{
		Timeframe:    "1d",
		MinStrength:  1,
		MaxLevels:    10,
		LookbackDays: len(bars),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	support, resistance := NearestLevels(result)
	if support != nil && support.Price >= result.CurrentPrice {
		t.Errorf("expected nearest support below current price, got support=%f current=%f", support.Price, result.CurrentPrice)
	}
	if resistance != nil && resistance.Price <= result.CurrentPrice {
		t.Errorf("expected nearest resistance above current price, got resistance=%f current=%f", resistance.Price, result.CurrentPrice)
	}
}

func TestDetectLevels_UnsupportedTimeframeErrors(t *testing.T) {
	agent := newTestAgent(mockAAPLFixture())
	_, err := agent.DetectLevels(context.Background(), "AAPL", DetectParams{Timeframe: "3d"})
	if err == nil {
		t.Fatal("expected error for unsupported timeframe")
	}
}

func TestDetectLevels_InsufficientDataErrors(t *testing.T) {
	agent := newTestAgent(mockAAPLFixture()[:5])
	_, err := agent.DetectLevels(context.Background(), "AAPL", DetectParams{Timeframe: "1d", LookbackDays: 5})
	if err == nil {
		t.Fatal("expected error for insufficient data")
	}
}

func TestDetectLevels_ResultIsCached(t *testing.T) {
	bars := mockAAPLFixture()
	agent := newTestAgent(bars)
	params := DetectParams{Timeframe: "1d", MinStrength: 1, MaxLevels: 5, LookbackDays: len(bars)}

	first, err := agent.DetectLevels(context.Background(), "AAPL", params)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, ok := agent.cacheGet(cacheKey{symbol: "AAPL", minStrength: 1, maxLevels: 5, timeframe: "1d", lookbackDays: len(bars)}); !ok {
		t.Fatal("expected a cache entry after DetectLevels")
	}

	// With no provider and mock fallback disabled, a recompute would fail.
	agent.loader.Provider = nil
	second, err := agent.DetectLevels(context.Background(), "AAPL", params)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if first.ProcessingSeconds != second.ProcessingSeconds {
		t.Error("expected the second call to return the exact cached result, not recompute")
	}
}

func TestDetectLevelsBatch_SequentialReturnsResultPerSymbol(t *testing.T) {
	bars := mockAAPLFixture()
	agent := newTestAgent(bars)

	results := agent.DetectLevelsBatch(context.Background(), []string{"AAPL", "MSFT"}, DetectParams{
		Timeframe: "1d", MinStrength: 1, MaxLevels: 5, LookbackDays: len(bars),
	}, false)

	for _, symbol := range []string{"AAPL", "MSFT"} {
		if results[symbol].Status != "success" {
			t.Errorf("expected success for %s, got %s", symbol, results[symbol].Status)
		}
	}
}
