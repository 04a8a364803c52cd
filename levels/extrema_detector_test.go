package levels

import (
	"testing"
	"time"

	"tickerpulse/models"
)

func barsWithValleysAt(base float64) []models.OHLCVBar {
	// Three separate windows each dipping to ~base, noise bars elsewhere.
	var bars []models.OHLCVBar
	ts := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	pattern := []float64{
		base * 1.05, base * 1.08, base * 1.10, base, base * 1.09, base * 1.07, base * 1.06,
		base * 1.12, base * 1.15, base * 1.13, base * 1.005, base * 1.14, base * 1.11, base * 1.08,
		base * 1.20, base * 1.22, base * 1.25, base * 0.998, base * 1.23, base * 1.21, base * 1.19,
	}
	for _, p := range pattern {
		bars = append(bars, models.OHLCVBar{
			Timestamp: ts,
			Open:      p,
			High:      p * 1.01,
			Low:       p * 0.995,
			Close:     p,
			Volume:    1000,
		})
		ts = ts.Add(24 * time.Hour)
	}
	return bars
}

func TestDetectValleysAndCluster_CollapsesToOneSupport(t *testing.T) {
	bars := barsWithValleysAt(100)
	detector := &ExtremaDetector{WindowSize: 3, MinDistance: 2}
	valleys := detector.DetectValleys(bars)

	if len(valleys) < 3 {
		t.Fatalf("expected at least 3 valleys, got %d", len(valleys))
	}

	clusterer := NewDBSCANClusterer()
	clusterer.EpsFraction = 0.03
	levels := clusterer.ClusterLevels(valleys)

	var support *models.PriceLevel
	for i, l := range levels {
		if l.Type == models.LevelSupport {
			support = &levels[i]
			break
		}
	}
	if support == nil {
		t.Fatal("expected at least one support level")
	}
	if support.Touches < 3 {
		t.Errorf("expected touches >= 3, got %d", support.Touches)
	}
	if relativeChange(support.Price, 100) > 0.02 {
		t.Errorf("expected clustered support near 100, got %f", support.Price)
	}
}

func TestFilterNoise_KeepsEndpointsAndSignificantChanges(t *testing.T) {
	detector := NewExtremaDetector()
	extrema := []models.ExtremaPoint{
		{Price: 100, Type: models.LevelSupport},
		{Price: 100.05, Type: models.LevelSupport}, // negligible change from 100
		{Price: 110, Type: models.LevelSupport},
		{Price: 150, Type: models.LevelSupport},
	}
	filtered := detector.FilterNoise(extrema, 0.01)

	if len(filtered) < 2 {
		t.Fatalf("expected endpoints retained, got %d points", len(filtered))
	}
	if filtered[0].Price != 100 {
		t.Errorf("expected first kept point to be the lowest price, got %f", filtered[0].Price)
	}
	if filtered[len(filtered)-1].Price != 150 {
		t.Errorf("expected last kept point to be the highest price, got %f", filtered[len(filtered)-1].Price)
	}
}

func TestFilterNoise_SmallInputPassesThrough(t *testing.T) {
	detector := NewExtremaDetector()
	extrema := []models.ExtremaPoint{{Price: 100}, {Price: 101}}
	out := detector.FilterNoise(extrema, 0.01)
	if len(out) != 2 {
		t.Errorf("expected input with <=2 points to pass through unchanged, got %d", len(out))
	}
}
