package news

import (
	"testing"
	"time"

	"tickerpulse/models"
)

func TestInitialRange_Horizons(t *testing.T) {
	c := NewDateRangeCalculator()
	now := time.Date(2026, 7, 29, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		horizon  models.TimeHorizon
		expected time.Duration
	}{
		{models.Horizon1s, 5 * time.Minute},
		{models.Horizon1m, 15 * time.Minute},
		{models.Horizon1h, 6 * time.Hour},
		{models.Horizon1d, 3 * 24 * time.Hour},
		{models.Horizon1w, 7 * 24 * time.Hour},
		{models.Horizon1mo, 30 * 24 * time.Hour},
		{models.Horizon1y, 365 * 24 * time.Hour},
	}

	for _, tt := range tests {
		from, to := c.InitialRange(tt.horizon, now)
		if !to.Equal(now) {
			t.Errorf("horizon %s: expected to=now, got %v", tt.horizon, to)
		}
		if got := now.Sub(from); got != tt.expected {
			t.Errorf("horizon %s: expected lookback %v, got %v", tt.horizon, tt.expected, got)
		}
	}
}

func TestInitialRange_UnknownHorizonFallsBackToDay(t *testing.T) {
	c := NewDateRangeCalculator()
	now := time.Now()

	from, to := c.InitialRange("unknown", now)

	if got := to.Sub(from); got != 3*24*time.Hour {
		t.Errorf("expected fallback to 1d lookback, got %v", got)
	}
}

func TestExpandWindow(t *testing.T) {
	to := time.Date(2026, 7, 29, 0, 0, 0, 0, time.UTC)
	from := to.Add(-10 * time.Hour)

	newFrom, newTo := ExpandWindow(from, to, 1.5)

	if !newTo.Equal(to) {
		t.Errorf("expected to remain fixed, got %v", newTo)
	}
	if span := newTo.Sub(newFrom); span != 15*time.Hour {
		t.Errorf("expected expanded span of 15h, got %v", span)
	}
}

func TestExpandWindow_MonotonicGrowth(t *testing.T) {
	to := time.Now()
	from := to.Add(-time.Hour)

	_, origTo := from, to
	newFrom, newTo := ExpandWindow(from, to, 1.5)

	if newTo.Sub(newFrom) <= origTo.Sub(from) {
		t.Errorf("expanded window must be strictly larger")
	}
}
