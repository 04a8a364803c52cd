package levels

import (
	"sort"

	"tickerpulse/models"
)

const (
	defaultVolumeBins       = 50
	defaultVolumePercentile = 60.0
	defaultVolumeMinTouches = 2
	volumeTouchTolerance    = 0.01
	defaultVolumeMergeTol   = 0.02
)

// VolumeNode is one bucket of the volume profile: a price band and the
// traded volume attributed to it.
type VolumeNode struct {
	PriceLow  float64
	PriceHigh float64
	Price     float64 // bucket midpoint
	Volume    float64
}

// VolumeLevel is a high-volume node promoted to a candidate price level.
type VolumeLevel struct {
	Price      float64
	Type       models.LevelType
	Volume     float64
	Touches    int
	Percentile float64
}

// VolumeProfileAnalyzer buckets traded volume across the price range of a
// bar series and derives high-volume "nodes" that behave like support or
// resistance.
type VolumeProfileAnalyzer struct {
	Bins       int
	Percentile float64
	MinTouches int
}

func NewVolumeProfileAnalyzer() *VolumeProfileAnalyzer {
	return &VolumeProfileAnalyzer{
		Bins:       defaultVolumeBins,
		Percentile: defaultVolumePercentile,
		MinTouches: defaultVolumeMinTouches,
	}
}

// AnalyzeVolumeProfile buckets [minLow, maxHigh] into Bins price bins and,
// for every bar, accumulates volume into each bin proportional to the
// fraction of the bar's high-low range that overlaps the bin.
func (v *VolumeProfileAnalyzer) AnalyzeVolumeProfile(bars []models.OHLCVBar) []VolumeNode {
	if len(bars) == 0 {
		return nil
	}
	bins := v.Bins
	if bins <= 0 {
		bins = defaultVolumeBins
	}

	minLow, maxHigh := bars[0].Low, bars[0].High
	for _, b := range bars {
		if b.Low < minLow {
			minLow = b.Low
		}
		if b.High > maxHigh {
			maxHigh = b.High
		}
	}
	if maxHigh <= minLow {
		return nil
	}

	width := (maxHigh - minLow) / float64(bins)
	nodes := make([]VolumeNode, bins)
	for i := range nodes {
		nodes[i].PriceLow = minLow + float64(i)*width
		nodes[i].PriceHigh = minLow + float64(i+1)*width
		nodes[i].Price = (nodes[i].PriceLow + nodes[i].PriceHigh) / 2
	}

	for _, b := range bars {
		barRange := b.High - b.Low
		if barRange <= 0 {
			continue
		}
		for i := range nodes {
			overlap := overlapFraction(b.Low, b.High, nodes[i].PriceLow, nodes[i].PriceHigh)
			if overlap <= 0 {
				continue
			}
			nodes[i].Volume += b.Volume * (overlap / barRange)
		}
	}

	return nodes
}

func overlapFraction(lo, hi, binLo, binHi float64) float64 {
	start := lo
	if binLo > start {
		start = binLo
	}
	end := hi
	if binHi < end {
		end = binHi
	}
	if end <= start {
		return 0
	}
	return end - start
}

// DetectVolumeLevels promotes nodes at or above the configured volume
// percentile into VolumeLevels, counting touches (bars whose range
// intersects the node within volumeTouchTolerance) and classifying each as
// support or resistance relative to the series' last close.
func (v *VolumeProfileAnalyzer) DetectVolumeLevels(bars []models.OHLCVBar) []VolumeLevel {
	nodes := v.AnalyzeVolumeProfile(bars)
	if len(nodes) == 0 {
		return nil
	}

	threshold := percentileOf(volumesOf(nodes), v.percentile())
	minTouches := v.MinTouches
	if minTouches <= 0 {
		minTouches = defaultVolumeMinTouches
	}
	currentClose := bars[len(bars)-1].Close

	var levels []VolumeLevel
	maxVolume := maxOf(volumesOf(nodes))

	for _, n := range nodes {
		if n.Volume < threshold || n.Volume <= 0 {
			continue
		}
		touches := countTouches(bars, n.Price, volumeTouchTolerance)
		if touches < minTouches {
			continue
		}
		levelType := models.LevelResistance
		if n.Price < currentClose {
			levelType = models.LevelSupport
		}
		percentile := 0.0
		if maxVolume > 0 {
			percentile = n.Volume / maxVolume * 100
		}
		levels = append(levels, VolumeLevel{
			Price:      n.Price,
			Type:       levelType,
			Volume:     n.Volume,
			Touches:    touches,
			Percentile: percentile,
		})
	}

	sort.Slice(levels, func(i, j int) bool { return levels[i].Volume > levels[j].Volume })
	return levels
}

func (v *VolumeProfileAnalyzer) percentile() float64 {
	if v.Percentile <= 0 {
		return defaultVolumePercentile
	}
	return v.Percentile
}

func volumesOf(nodes []VolumeNode) []float64 {
	out := make([]float64, len(nodes))
	for i, n := range nodes {
		out[i] = n.Volume
	}
	return out
}

func maxOf(values []float64) float64 {
	max := 0.0
	for _, v := range values {
		if v > max {
			max = v
		}
	}
	return max
}

// percentileOf computes the p-th percentile (0-100) of values using
// linear interpolation between the two nearest ranks of a sorted copy.
func percentileOf(values []float64, p float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)
	rank := p / 100 * float64(len(sorted)-1)
	lo := int(rank)
	hi := lo + 1
	if hi >= len(sorted) {
		return sorted[len(sorted)-1]
	}
	frac := rank - float64(lo)
	return sorted[lo]*(1-frac) + sorted[hi]*frac
}

func countTouches(bars []models.OHLCVBar, price, tolerancePct float64) int {
	tol := price * tolerancePct
	count := 0
	for _, b := range bars {
		if b.High+tol >= price && b.Low-tol <= price {
			count++
		}
	}
	return count
}

// MergeWithPriceLevels annotates priceLevels with volume confirmation data
// for any volume level within mergeTol of it, consuming that volume level;
// remaining volume levels are appended as standalone PriceLevels.
func (v *VolumeProfileAnalyzer) MergeWithPriceLevels(priceLevels []models.PriceLevel, volumeLevels []VolumeLevel, mergeTol float64) []models.PriceLevel {
	if mergeTol <= 0 {
		mergeTol = defaultVolumeMergeTol
	}
	out := make([]models.PriceLevel, len(priceLevels))
	copy(out, priceLevels)
	consumed := make([]bool, len(volumeLevels))

	for i := range out {
		for j, vl := range volumeLevels {
			if consumed[j] {
				continue
			}
			if relativeChange(vl.Price, out[i].Price) <= mergeTol {
				out[i].Volume = vl.Volume
				out[i].VolumePercentile = vl.Percentile
				out[i].HasVolumeConfirmation = true
				consumed[j] = true
				break
			}
		}
	}

	for j, vl := range volumeLevels {
		if consumed[j] {
			continue
		}
		out = append(out, models.PriceLevel{
			Price:                 vl.Price,
			Type:                  vl.Type,
			Touches:               vl.Touches,
			Volume:                vl.Volume,
			VolumePercentile:      vl.Percentile,
			HasVolumeConfirmation: true,
		})
	}

	return out
}
