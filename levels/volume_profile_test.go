package levels

import (
	"testing"
	"time"

	"tickerpulse/models"
)

func barsForVolumeProfile() []models.OHLCVBar {
	ts := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	var bars []models.OHLCVBar
	// Most bars trade in a narrow band around $100 with high volume; a few
	// bars range wider with low volume, so the $100 band stands out.
	for i := 0; i < 20; i++ {
		bars = append(bars, models.OHLCVBar{
			Timestamp: ts, Open: 99.5, High: 100.5, Low: 99.5, Close: 100, Volume: 100000,
		})
		ts = ts.Add(24 * time.Hour)
	}
	for i := 0; i < 5; i++ {
		bars = append(bars, models.OHLCVBar{
			Timestamp: ts, Open: 90, High: 120, Low: 90, Close: 105, Volume: 1000,
		})
		ts = ts.Add(24 * time.Hour)
	}
	return bars
}

func TestAnalyzeVolumeProfile_AccumulatesOverlapWeightedVolume(t *testing.T) {
	v := NewVolumeProfileAnalyzer()
	nodes := v.AnalyzeVolumeProfile(barsForVolumeProfile())
	if len(nodes) != defaultVolumeBins {
		t.Fatalf("expected %d bins, got %d", defaultVolumeBins, len(nodes))
	}

	var total float64
	for _, n := range nodes {
		total += n.Volume
	}
	if total <= 0 {
		t.Fatal("expected positive total accumulated volume")
	}
}

func TestDetectVolumeLevels_ClassifiesSupportAndResistance(t *testing.T) {
	v := NewVolumeProfileAnalyzer()
	v.MinTouches = 1
	bars := barsForVolumeProfile()
	levels := v.DetectVolumeLevels(bars)

	if len(levels) == 0 {
		t.Fatal("expected at least one high-volume node promoted to a level")
	}
	currentClose := bars[len(bars)-1].Close
	for _, l := range levels {
		if l.Price < currentClose && l.Type != models.LevelSupport {
			t.Errorf("expected price below close to classify as support, got %s", l.Type)
		}
		if l.Price > currentClose && l.Type != models.LevelResistance {
			t.Errorf("expected price above close to classify as resistance, got %s", l.Type)
		}
	}
}

func TestMergeWithPriceLevels_AnnotatesMatchingLevel(t *testing.T) {
	v := NewVolumeProfileAnalyzer()
	priceLevels := []models.PriceLevel{{Price: 100, Type: models.LevelSupport, Touches: 3}}
	volumeLevels := []VolumeLevel{{Price: 100.5, Type: models.LevelSupport, Volume: 5000, Touches: 4, Percentile: 80}}

	merged := v.MergeWithPriceLevels(priceLevels, volumeLevels, 0.02)

	if len(merged) != 1 {
		t.Fatalf("expected the volume level to merge into the existing price level, got %d entries", len(merged))
	}
	if !merged[0].HasVolumeConfirmation {
		t.Error("expected merged level to carry volume confirmation")
	}
	if merged[0].Volume != 5000 {
		t.Errorf("expected merged level to carry the volume figure, got %f", merged[0].Volume)
	}
}

func TestMergeWithPriceLevels_UnmatchedVolumeLevelAppended(t *testing.T) {
	v := NewVolumeProfileAnalyzer()
	priceLevels := []models.PriceLevel{{Price: 100, Type: models.LevelSupport}}
	volumeLevels := []VolumeLevel{{Price: 200, Type: models.LevelResistance, Volume: 1000, Touches: 2}}

	merged := v.MergeWithPriceLevels(priceLevels, volumeLevels, 0.02)

	if len(merged) != 2 {
		t.Fatalf("expected unmatched volume level appended as standalone, got %d entries", len(merged))
	}
}
