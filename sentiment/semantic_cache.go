package sentiment

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"tickerpulse/models"
	"tickerpulse/observability"
)

const maxEmbeddingTextChars = 500

// Embedder turns text into a fixed-dimension vector. A real deployment
// would back this with a hosted embeddings API; the cache degrades to
// always-miss (never a hard failure) if embedding calls start failing.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float64, error)
}

// DefaultSimilarityThreshold is the cosine-similarity floor above which a
// cached sentiment score is considered valid for a new, similar article.
const DefaultSimilarityThreshold = 0.85

// SemanticCache avoids re-analyzing articles that are near-duplicates of
// ones already scored, using embedding similarity rather than exact text
// matching (paraphrased wire copy should still hit).
type SemanticCache struct {
	store     *VectorStore
	embedder  Embedder
	threshold float64

	mu     sync.Mutex
	hits   int
	misses int

	disabled bool
}

func NewSemanticCache(store *VectorStore, embedder Embedder, threshold float64) *SemanticCache {
	if threshold <= 0 {
		threshold = DefaultSimilarityThreshold
	}
	return &SemanticCache{store: store, embedder: embedder, threshold: threshold}
}

// GetSimilar looks up the closest previously-scored article for symbol. ok
// is false on a cache miss, a disabled cache, or an embedding failure (which
// also disables the cache for the remainder of the process; the caller
// should simply fall through to the LLM).
func (c *SemanticCache) GetSimilar(ctx context.Context, article models.Article, symbol string) (Result, bool) {
	if c.isDisabled() {
		return Result{}, false
	}

	vector, err := c.embedder.Embed(ctx, embeddingText(article))
	if err != nil {
		observability.Warn("semantic cache: embedding backend unavailable, disabling cache", "error", err)
		c.disable()
		return Result{}, false
	}

	result, _, ok := c.store.Nearest(symbol, vector, c.threshold)
	c.mu.Lock()
	if ok {
		c.hits++
	} else {
		c.misses++
	}
	c.mu.Unlock()
	return result, ok
}

// Store records a freshly-computed sentiment result so a future similar
// article can reuse it.
func (c *SemanticCache) Store(ctx context.Context, article models.Article, result Result, symbol string) {
	if c.isDisabled() {
		return
	}
	vector, err := c.embedder.Embed(ctx, embeddingText(article))
	if err != nil {
		observability.Warn("semantic cache: embedding backend unavailable, disabling cache", "error", err)
		c.disable()
		return
	}
	c.store.Put(article.ID, symbol, vector, result)
}

func (c *SemanticCache) isDisabled() bool {
	if c.embedder == nil {
		return true
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.disabled
}

func (c *SemanticCache) disable() {
	c.mu.Lock()
	c.disabled = true
	c.mu.Unlock()
}

// Stats returns (hits, misses) observed so far.
func (c *SemanticCache) Stats() (hits, misses int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.hits, c.misses
}

// HitRate returns hits/(hits+misses), or 0 with no lookups yet.
func (c *SemanticCache) HitRate() float64 {
	hits, misses := c.Stats()
	total := hits + misses
	if total == 0 {
		return 0
	}
	return float64(hits) / float64(total)
}

// Clear wipes all stored entries and resets hit/miss counters.
func (c *SemanticCache) Clear() {
	c.store.Clear()
	c.mu.Lock()
	c.hits = 0
	c.misses = 0
	c.disabled = false
	c.mu.Unlock()
}

func embeddingText(article models.Article) string {
	body := article.Content
	if body == "" {
		body = article.Summary
	}
	text := fmt.Sprintf("%s. %s", article.Title, body)
	if len(text) > maxEmbeddingTextChars {
		text = text[:maxEmbeddingTextChars]
	}
	return strings.TrimSpace(text)
}
