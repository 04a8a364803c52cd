package sentiment

import (
	"context"
	"math"
	"testing"
)

func TestHashingEmbedder_DeterministicAndNormalized(t *testing.T) {
	e := NewHashingEmbedder()
	text := "apple reports record quarterly revenue"

	v1, err := e.Embed(context.Background(), text)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	v2, err := e.Embed(context.Background(), text)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(v1) != embeddingDimensions {
		t.Fatalf("expected %d dimensions, got %d", embeddingDimensions, len(v1))
	}
	for i := range v1 {
		if v1[i] != v2[i] {
			t.Fatalf("expected deterministic embedding, dimension %d differs", i)
		}
	}

	var norm float64
	for _, x := range v1 {
		norm += x * x
	}
	if math.Abs(norm-1) > 1e-9 {
		t.Errorf("expected unit-normalized vector, got squared norm %f", norm)
	}
}

func TestHashingEmbedder_EmptyText(t *testing.T) {
	e := NewHashingEmbedder()
	v, err := e.Embed(context.Background(), "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, x := range v {
		if x != 0 {
			t.Errorf("expected zero vector for empty text, got %v", v)
			break
		}
	}
}
