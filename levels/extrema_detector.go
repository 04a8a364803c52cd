package levels

import (
	"sort"

	"tickerpulse/models"
)

const (
	defaultWindowSize        = 5
	defaultMinDistance       = 10
	defaultMinPriceChangePct = 0.01
)

// ExtremaDetector finds local peaks and valleys in a bar series, which seed
// candidate resistance and support levels respectively.
type ExtremaDetector struct {
	WindowSize  int
	MinDistance int
}

func NewExtremaDetector() *ExtremaDetector {
	return &ExtremaDetector{WindowSize: defaultWindowSize, MinDistance: defaultMinDistance}
}

// DetectPeaks returns local highs: bars whose High exceeds every bar within
// WindowSize positions on both sides, with successive peaks spaced at least
// MinDistance bars apart (earlier peak kept on conflict).
func (d *ExtremaDetector) DetectPeaks(bars []models.OHLCVBar) []models.ExtremaPoint {
	return d.detect(bars, models.LevelResistance, func(b models.OHLCVBar) float64 { return b.High }, func(candidate, neighbor float64) bool {
		return candidate > neighbor
	})
}

// DetectValleys returns local lows: bars whose Low is below every bar
// within WindowSize positions on both sides.
func (d *ExtremaDetector) DetectValleys(bars []models.OHLCVBar) []models.ExtremaPoint {
	return d.detect(bars, models.LevelSupport, func(b models.OHLCVBar) float64 { return b.Low }, func(candidate, neighbor float64) bool {
		return candidate < neighbor
	})
}

func (d *ExtremaDetector) detect(bars []models.OHLCVBar, levelType models.LevelType, value func(models.OHLCVBar) float64, better func(candidate, neighbor float64) bool) []models.ExtremaPoint {
	window := d.WindowSize
	if window <= 0 {
		window = defaultWindowSize
	}
	minDist := d.MinDistance
	if minDist <= 0 {
		minDist = defaultMinDistance
	}

	var points []models.ExtremaPoint
	lastIndex := -minDist - 1

	for i := window; i < len(bars)-window; i++ {
		v := value(bars[i])
		isExtreme := true
		for j := i - window; j <= i+window; j++ {
			if j == i {
				continue
			}
			if !better(v, value(bars[j])) {
				isExtreme = false
				break
			}
		}
		if !isExtreme {
			continue
		}
		if i-lastIndex < minDist {
			continue
		}
		points = append(points, models.ExtremaPoint{
			Index:     i,
			Timestamp: bars[i].Timestamp,
			Price:     v,
			Type:      levelType,
		})
		lastIndex = i
	}

	return points
}

// FilterNoise keeps the first and last extremum plus any point whose
// relative price change from the previously kept point is at least
// minPriceChangePct. Input is sorted by price before filtering.
func (d *ExtremaDetector) FilterNoise(extrema []models.ExtremaPoint, minPriceChangePct float64) []models.ExtremaPoint {
	if len(extrema) <= 2 {
		return extrema
	}
	if minPriceChangePct <= 0 {
		minPriceChangePct = defaultMinPriceChangePct
	}

	sorted := make([]models.ExtremaPoint, len(extrema))
	copy(sorted, extrema)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Price < sorted[j].Price })

	kept := []models.ExtremaPoint{sorted[0]}
	for i := 1; i < len(sorted)-1; i++ {
		prev := kept[len(kept)-1]
		change := relativeChange(sorted[i].Price, prev.Price)
		if change >= minPriceChangePct {
			kept = append(kept, sorted[i])
		}
	}
	kept = append(kept, sorted[len(sorted)-1])
	return kept
}

func relativeChange(a, b float64) float64 {
	if b == 0 {
		return 0
	}
	diff := a - b
	if diff < 0 {
		diff = -diff
	}
	return diff / b
}
