package news

import (
	"time"

	"tickerpulse/models"
)

// DateRangeCalculator maps a time horizon to an initial news lookback
// window, and supports widening that window when too little news is found.
type DateRangeCalculator struct{}

func NewDateRangeCalculator() *DateRangeCalculator {
	return &DateRangeCalculator{}
}

var horizonLookback = map[models.TimeHorizon]time.Duration{
	models.Horizon1s:  5 * time.Minute,
	models.Horizon1m:  15 * time.Minute,
	models.Horizon1h:  6 * time.Hour,
	models.Horizon1d:  3 * 24 * time.Hour,
	models.Horizon1w:  7 * 24 * time.Hour,
	models.Horizon1mo: 30 * 24 * time.Hour,
	models.Horizon1y:  365 * 24 * time.Hour,
}

// InitialRange returns (fromDate, toDate) for the given horizon, anchored at
// now. Unknown horizons fall back to the 1d lookback.
func (c *DateRangeCalculator) InitialRange(horizon models.TimeHorizon, now time.Time) (time.Time, time.Time) {
	lookback, ok := horizonLookback[horizon]
	if !ok {
		lookback = horizonLookback[models.Horizon1d]
	}
	return now.Add(-lookback), now
}

// ExpandWindow widens [from, to] by multiplying the span by factor, keeping
// `to` fixed and pushing `from` earlier.
func ExpandWindow(from, to time.Time, factor float64) (time.Time, time.Time) {
	span := to.Sub(from)
	newSpan := time.Duration(float64(span) * factor)
	return to.Add(-newSpan), to
}
