package levels

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
)

// LinearMLScorer is a minimal concrete MLScorer: a logistic model over the
// 12-feature vector from BuildFeatures, serialized as a JSON weight file at
// config's ml_model_path. The interface boundary (MLScorer) is what matters
// to the rest of the pipeline, not the specific model format.
type LinearMLScorer struct {
	Bias    float64   `json:"bias"`
	Weights []float64 `json:"weights"`
}

// LoadMLScorer reads a weight file from path. A missing or malformed file,
// or one without exactly 12 weights, is returned as an error; app.New
// treats that error as a startup failure.
func LoadMLScorer(path string) (*LinearMLScorer, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("ml scorer: reading model file: %w", err)
	}
	var scorer LinearMLScorer
	if err := json.Unmarshal(data, &scorer); err != nil {
		return nil, fmt.Errorf("ml scorer: parsing model file: %w", err)
	}
	if len(scorer.Weights) != 12 {
		return nil, fmt.Errorf("ml scorer: expected 12 weights, got %d", len(scorer.Weights))
	}
	return &scorer, nil
}

// Score implements MLScorer: a logistic regression over the feature
// vector, producing a probability in [0,1].
func (s *LinearMLScorer) Score(features []float64) (float64, error) {
	if len(features) != len(s.Weights) {
		return 0, fmt.Errorf("ml scorer: expected %d features, got %d", len(s.Weights), len(features))
	}
	z := s.Bias
	for i, w := range s.Weights {
		z += w * features[i]
	}
	return 1 / (1 + math.Exp(-z)), nil
}
