package models

import "testing"

func TestLabelForScore(t *testing.T) {
	tests := []struct {
		score float64
		want  SentimentLabel
	}{
		{0.75, LabelPositive},
		{0.31, LabelPositive},
		{0.3, LabelNeutral},
		{0.0, LabelNeutral},
		{-0.3, LabelNeutral},
		{-0.31, LabelNegative},
		{-0.9, LabelNegative},
	}

	for _, tt := range tests {
		if got := LabelForScore(tt.score); got != tt.want {
			t.Errorf("LabelForScore(%v) = %v, want %v", tt.score, got, tt.want)
		}
	}
}
