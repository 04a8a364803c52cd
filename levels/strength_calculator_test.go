package levels

import (
	"testing"
	"time"

	"tickerpulse/models"
)

func TestCalculateStrength_MonotoneInTouches(t *testing.T) {
	s := NewStrengthCalculator()
	s.clock = func() time.Time { return time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC) }

	base := models.PriceLevel{LastTouch: s.clock().AddDate(0, 0, -10), ValidationRate: 0.7}

	prevStrength := -1
	for _, touches := range []int{1, 2, 3, 4, 5} {
		level := base
		level.Touches = touches
		got := s.CalculateStrength(&level)
		if got < prevStrength {
			t.Errorf("expected strength to be monotone non-decreasing in touches, got %d after %d at touches=%d", got, prevStrength, touches)
		}
		prevStrength = got
	}
}

func TestCalculateStrength_ClampedToRange(t *testing.T) {
	s := NewStrengthCalculator()
	s.clock = func() time.Time { return time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC) }

	level := models.PriceLevel{Touches: 10, ValidationRate: 1.0, LastTouch: s.clock()}
	got := s.CalculateStrength(&level)
	if got < 0 || got > 100 {
		t.Errorf("expected strength in [0,100], got %d", got)
	}
}

func TestCalculateBreakoutProbability_InRange(t *testing.T) {
	s := NewStrengthCalculator()
	level := models.PriceLevel{Price: 100, Type: models.LevelSupport, Strength: 70}
	prob := s.CalculateBreakoutProbability(&level, 95)
	if prob < 0 || prob > 100 {
		t.Errorf("expected breakout probability in [0,100], got %f", prob)
	}
}

func TestCalculateBreakoutProbability_PriceBelowSupportScoresHigherDirection(t *testing.T) {
	s := NewStrengthCalculator()

	below := models.PriceLevel{Price: 100, Type: models.LevelSupport, Strength: 50}
	above := models.PriceLevel{Price: 100, Type: models.LevelSupport, Strength: 50}

	probBelow := s.CalculateBreakoutProbability(&below, 95)  // current price below the support level
	probAbove := s.CalculateBreakoutProbability(&above, 105) // current price above the support level

	if probBelow <= probAbove {
		t.Errorf("expected price below a support level to score a higher breakout probability (direction contribution), got below=%f above=%f", probBelow, probAbove)
	}
}

func TestCalculateBreakoutProbability_PriceAboveResistanceScoresHigherDirection(t *testing.T) {
	s := NewStrengthCalculator()

	above := models.PriceLevel{Price: 100, Type: models.LevelResistance, Strength: 50}
	below := models.PriceLevel{Price: 100, Type: models.LevelResistance, Strength: 50}

	probAbove := s.CalculateBreakoutProbability(&above, 105) // current price above the resistance level
	probBelow := s.CalculateBreakoutProbability(&below, 95)  // current price below the resistance level

	if probAbove <= probBelow {
		t.Errorf("expected price above a resistance level to score a higher breakout probability, got above=%f below=%f", probAbove, probBelow)
	}
}
