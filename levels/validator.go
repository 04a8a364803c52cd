package levels

import (
	"sort"

	"tickerpulse/models"
)

const (
	defaultTolerance      = 0.005
	defaultLookforwardBars = 5
	maxSampledTouches      = 50
	largeDatasetBars       = 200
	reactionThresholdPct   = 0.01
	batchValidationTopN    = 10
)

// LevelValidator estimates how reliably a clustered PriceLevel acted as
// support/resistance historically, by sampling touches and checking for a
// subsequent reaction.
type LevelValidator struct {
	Tolerance       float64
	LookforwardBars int
}

func NewLevelValidator() *LevelValidator {
	return &LevelValidator{Tolerance: defaultTolerance, LookforwardBars: defaultLookforwardBars}
}

// ValidateLevel mutates level in place, setting ValidationRate and
// Validated from sampled bar touches within tolerance. Touches itself is
// left untouched: clustering's touch count is the authoritative input to
// downstream strength scoring. For datasets larger than largeDatasetBars,
// validation is skipped and a documented moderate default is used instead,
// since a full scan over every bar for every level is too expensive to run
// unconditionally.
func (v *LevelValidator) ValidateLevel(level *models.PriceLevel, bars []models.OHLCVBar) {
	if len(bars) > largeDatasetBars {
		level.ValidationRate = 0.5
		level.Validated = false
		return
	}

	tol := v.Tolerance
	if tol <= 0 {
		tol = defaultTolerance
	}
	lookforward := v.LookforwardBars
	if lookforward <= 0 {
		lookforward = defaultLookforwardBars
	}

	touchIdx := findTouches(level, bars, tol)
	if len(touchIdx) == 0 {
		level.ValidationRate = 0
		level.Validated = false
		return
	}

	sampled := sampleIndices(touchIdx, maxSampledTouches)

	reactions := 0
	for _, idx := range sampled {
		if reacted(level, bars, idx, lookforward) {
			reactions++
		}
	}

	rate := float64(reactions) / float64(len(sampled))
	level.ValidationRate = rate
	level.Validated = rate > 0.5
}

// ValidateLevels validates every level, restricting to the top
// batchValidationTopN levels by touch count when the dataset is large, so a
// batch call over many candidate levels stays bounded.
func (v *LevelValidator) ValidateLevels(levels []models.PriceLevel, bars []models.OHLCVBar) []models.PriceLevel {
	out := make([]models.PriceLevel, len(levels))
	copy(out, levels)

	if len(bars) > largeDatasetBars && len(out) > batchValidationTopN {
		idxByTouches := make([]int, len(out))
		for i := range idxByTouches {
			idxByTouches[i] = i
		}
		sort.Slice(idxByTouches, func(i, j int) bool {
			return out[idxByTouches[i]].Touches > out[idxByTouches[j]].Touches
		})
		keep := make(map[int]bool, batchValidationTopN)
		for _, idx := range idxByTouches[:batchValidationTopN] {
			keep[idx] = true
		}
		for i := range out {
			if !keep[i] {
				out[i].ValidationRate = 0.5
				out[i].Validated = false
			}
		}
		for _, idx := range idxByTouches[:batchValidationTopN] {
			v.ValidateLevel(&out[idx], bars)
		}
		return out
	}

	for i := range out {
		v.ValidateLevel(&out[i], bars)
	}
	return out
}

func findTouches(level *models.PriceLevel, bars []models.OHLCVBar, tol float64) []int {
	threshold := tol * level.Price
	var idx []int
	for i, b := range bars {
		var dist float64
		if level.Type == models.LevelSupport {
			dist = absDiff(b.Low, level.Price)
		} else {
			dist = absDiff(b.High, level.Price)
		}
		if dist <= threshold {
			idx = append(idx, i)
		}
	}
	return idx
}

// sampleIndices picks at most maxCount indices, evenly stepped across idx.
func sampleIndices(idx []int, maxCount int) []int {
	if len(idx) <= maxCount {
		return idx
	}
	step := float64(len(idx)) / float64(maxCount)
	out := make([]int, 0, maxCount)
	for i := 0; i < maxCount; i++ {
		out = append(out, idx[int(float64(i)*step)])
	}
	return out
}

func reacted(level *models.PriceLevel, bars []models.OHLCVBar, touchIdx, lookforward int) bool {
	touchPrice := level.Price
	end := touchIdx + lookforward
	if end >= len(bars) {
		end = len(bars) - 1
	}
	for i := touchIdx + 1; i <= end; i++ {
		if level.Type == models.LevelSupport {
			if bars[i].High > touchPrice*(1+reactionThresholdPct) {
				return true
			}
		} else {
			if bars[i].Low < touchPrice*(1-reactionThresholdPct) {
				return true
			}
		}
	}
	return false
}
