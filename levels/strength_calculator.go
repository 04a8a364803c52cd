package levels

import (
	"math"
	"time"

	"tickerpulse/models"
)

const (
	defaultTouchWeight    = 0.4
	defaultTimeWeight     = 0.3
	defaultReactionWeight = 0.3
)

// StrengthCalculator combines touch count, recency, and validation rate
// into a single 0-100 strength score, and separately estimates breakout
// probability relative to the current price.
type StrengthCalculator struct {
	TouchWeight    float64
	TimeWeight     float64
	ReactionWeight float64
	clock          func() time.Time
}

func NewStrengthCalculator() *StrengthCalculator {
	return &StrengthCalculator{
		TouchWeight:    defaultTouchWeight,
		TimeWeight:     defaultTimeWeight,
		ReactionWeight: defaultReactionWeight,
		clock:          time.Now,
	}
}

// weights returns the configured weights normalised to sum to 1.
func (s *StrengthCalculator) weights() (touch, timeW, reaction float64) {
	touch, timeW, reaction = s.TouchWeight, s.TimeWeight, s.ReactionWeight
	if touch == 0 && timeW == 0 && reaction == 0 {
		touch, timeW, reaction = defaultTouchWeight, defaultTimeWeight, defaultReactionWeight
	}
	sum := touch + timeW + reaction
	if sum <= 0 {
		return defaultTouchWeight, defaultTimeWeight, defaultReactionWeight
	}
	return touch / sum, timeW / sum, reaction / sum
}

// CalculateStrength mutates level.Strength in place and returns it.
func (s *StrengthCalculator) CalculateStrength(level *models.PriceLevel) int {
	touchW, timeW, reactionW := s.weights()

	touchScore := touchComponent(level.Touches)
	timeScore := timeComponent(level.LastTouch, s.now())
	reactionScore := reactionComponent(level.ValidationRate)

	raw := touchW*touchScore + timeW*timeScore + reactionW*reactionScore
	strength := int(math.Round(raw * 100))
	if strength < 0 {
		strength = 0
	}
	if strength > 100 {
		strength = 100
	}
	level.Strength = strength
	return strength
}

func (s *StrengthCalculator) now() time.Time {
	if s.clock != nil {
		return s.clock()
	}
	return time.Now()
}

func touchComponent(touches int) float64 {
	switch {
	case touches <= 0:
		return 0
	case touches == 1:
		return 0.2
	case touches == 2:
		return 0.4
	case touches == 3:
		return 0.6
	case touches == 4:
		return 0.75
	default:
		return 1.0
	}
}

func timeComponent(lastTouch, now time.Time) float64 {
	if lastTouch.IsZero() {
		return 0.2
	}
	ageDays := now.Sub(lastTouch).Hours() / 24
	switch {
	case ageDays <= 30:
		return 1.0
	case ageDays <= 90:
		return 0.8
	case ageDays <= 180:
		return 0.6
	case ageDays <= 365:
		return 0.4
	default:
		return 0.2
	}
}

func reactionComponent(validationRate float64) float64 {
	switch {
	case validationRate >= 0.8:
		return 1.0
	case validationRate >= 0.6:
		return 0.8
	case validationRate >= 0.4:
		return 0.6
	case validationRate >= 0.2:
		return 0.4
	default:
		return 0.2
	}
}

// CalculateBreakoutProbability estimates the 0-100 probability that price
// will traverse level, from proximity, strength, and approach direction.
func (s *StrengthCalculator) CalculateBreakoutProbability(level *models.PriceLevel, currentPrice float64) float64 {
	distance := 0.0
	if level.Price > 0 {
		distance = 1 - 10*math.Abs(currentPrice-level.Price)/level.Price
	}
	distance = clamp01(distance)

	strengthFactor := 1 - float64(level.Strength)/100

	var direction float64
	switch level.Type {
	case models.LevelSupport:
		if currentPrice < level.Price {
			direction = 1.0
		} else {
			direction = 0.2
		}
	case models.LevelResistance:
		if currentPrice > level.Price {
			direction = 1.0
		} else {
			direction = 0.3
		}
	default:
		direction = 0.5
	}

	prob := 100 * (0.4*distance + 0.3*strengthFactor + 0.3*direction)
	if prob < 0 {
		prob = 0
	}
	if prob > 100 {
		prob = 100
	}
	level.BreakoutProbability = prob
	return prob
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
