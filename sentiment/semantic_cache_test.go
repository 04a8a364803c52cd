package sentiment

import (
	"context"
	"errors"
	"testing"

	"tickerpulse/models"
)

type failingEmbedder struct{}

func (failingEmbedder) Embed(ctx context.Context, text string) ([]float64, error) {
	return nil, errors.New("embedding backend down")
}

func TestSemanticCache_HitOnSimilarArticle(t *testing.T) {
	cache := NewSemanticCache(NewVectorStore(0), NewHashingEmbedder(), 0.85)
	article := models.Article{ID: "1", Title: "Apple beats earnings estimates", Content: "Strong quarter for Apple."}

	cache.Store(context.Background(), article, Result{Score: 0.6}, "AAPL")

	similar := models.Article{ID: "2", Title: "Apple beats earnings estimates", Content: "Strong quarter for Apple."}
	result, ok := cache.GetSimilar(context.Background(), similar, "AAPL")
	if !ok {
		t.Fatal("expected cache hit for identical text")
	}
	if result.Score != 0.6 {
		t.Errorf("expected cached score 0.6, got %f", result.Score)
	}

	hits, misses := cache.Stats()
	if hits != 1 || misses != 0 {
		t.Errorf("expected 1 hit 0 misses, got %d/%d", hits, misses)
	}
}

func TestSemanticCache_MissOnUnrelatedArticle(t *testing.T) {
	cache := NewSemanticCache(NewVectorStore(0), NewHashingEmbedder(), 0.85)
	article := models.Article{ID: "1", Title: "Apple beats earnings estimates", Content: "Strong quarter."}
	cache.Store(context.Background(), article, Result{Score: 0.6}, "AAPL")

	unrelated := models.Article{ID: "2", Title: "City council approves new zoning law", Content: "Local government news."}
	_, ok := cache.GetSimilar(context.Background(), unrelated, "AAPL")
	if ok {
		t.Error("expected miss for unrelated article")
	}
}

func TestSemanticCache_DisablesOnEmbeddingFailure(t *testing.T) {
	cache := NewSemanticCache(NewVectorStore(0), failingEmbedder{}, 0.85)
	article := models.Article{ID: "1", Title: "Headline"}

	_, ok := cache.GetSimilar(context.Background(), article, "AAPL")
	if ok {
		t.Error("expected miss, not a hit, when embedding backend fails")
	}
	if !cache.disabled {
		t.Error("expected cache to disable itself after embedding failure")
	}
}

func TestSemanticCache_HitRate(t *testing.T) {
	cache := NewSemanticCache(NewVectorStore(0), NewHashingEmbedder(), 0.85)
	if cache.HitRate() != 0 {
		t.Errorf("expected 0 hit rate with no lookups, got %f", cache.HitRate())
	}

	article := models.Article{ID: "1", Title: "Apple beats earnings estimates"}
	cache.Store(context.Background(), article, Result{Score: 0.6}, "AAPL")
	cache.GetSimilar(context.Background(), article, "AAPL")
	cache.GetSimilar(context.Background(), models.Article{ID: "2", Title: "Totally different story"}, "AAPL")

	if rate := cache.HitRate(); rate != 0.5 {
		t.Errorf("expected hit rate 0.5, got %f", rate)
	}
}

func TestSemanticCache_Clear(t *testing.T) {
	cache := NewSemanticCache(NewVectorStore(0), NewHashingEmbedder(), 0.85)
	article := models.Article{ID: "1", Title: "Apple beats earnings estimates"}
	cache.Store(context.Background(), article, Result{Score: 0.6}, "AAPL")
	cache.GetSimilar(context.Background(), article, "AAPL")

	cache.Clear()

	hits, misses := cache.Stats()
	if hits != 0 || misses != 0 {
		t.Errorf("expected stats reset after Clear, got %d/%d", hits, misses)
	}
}
