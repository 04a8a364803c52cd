package models

import "time"

// OHLCVBar is a discrete time-indexed open/high/low/close/volume record.
type OHLCVBar struct {
	Timestamp time.Time `json:"timestamp"`
	Open      float64   `json:"open"`
	High      float64   `json:"high"`
	Low       float64   `json:"low"`
	Close     float64   `json:"close"`
	Volume    float64   `json:"volume"`
}

// LevelType distinguishes a support level (derived from valleys) from a
// resistance level (derived from peaks).
type LevelType string

const (
	LevelSupport    LevelType = "support"
	LevelResistance LevelType = "resistance"
)

// ExtremaPoint is a local peak or valley found by the ExtremaDetector.
type ExtremaPoint struct {
	Index     int       `json:"index"`
	Timestamp time.Time `json:"timestamp"`
	Price     float64   `json:"price"`
	Type      LevelType `json:"type"`
}

// PriceLevel is a clustered, validated, and strength-scored support or
// resistance level. It is mutated in-place as it flows through the
// validator, volume analyser, strength calculator, and projector.
type PriceLevel struct {
	Price               float64    `json:"price"`
	Type                LevelType  `json:"type"`
	Touches             int        `json:"touches"`
	FirstTouch          time.Time  `json:"first_touch"`
	LastTouch           time.Time  `json:"last_touch"`
	ValidationRate      float64    `json:"validation_rate"`
	Validated           bool       `json:"validated"`
	Strength            int        `json:"strength"`
	BreakoutProbability float64    `json:"breakout_probability"`
	Volume              float64    `json:"volume,omitempty"`
	VolumePercentile    float64    `json:"volume_percentile,omitempty"`
	HasVolumeConfirmation bool     `json:"has_volume_confirmation,omitempty"`

	ProjectedValidUntil        *time.Time `json:"projected_valid_until,omitempty"`
	ProjectedValidityProbability float64  `json:"projected_validity_probability,omitempty"`
	ProjectedStrength          int        `json:"projected_strength,omitempty"`
	Timeframe                  string     `json:"timeframe,omitempty"`
	ProjectionPeriods          int        `json:"projection_periods,omitempty"`
}

// PredictedSource names the technique that produced a PredictedLevel.
type PredictedSource string

const (
	SourceFibonacci      PredictedSource = "fibonacci"
	SourceRoundNumber    PredictedSource = "round_number"
	SourceSpacingPattern PredictedSource = "spacing_pattern"
)

// PredictedLevel is a forward-looking level derived from historical
// structure; it is never merged into the validated PriceLevel set.
type PredictedLevel struct {
	Price              float64         `json:"price"`
	Type               LevelType       `json:"type"`
	Source             PredictedSource `json:"source"`
	Confidence         float64         `json:"confidence"`
	ProjectedTimeframe string          `json:"projected_timeframe"`
}
