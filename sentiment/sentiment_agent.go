package sentiment

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"

	"tickerpulse/models"
	"tickerpulse/observability"
)

var horizonConfidenceThreshold = map[models.TimeHorizon]float64{
	models.Horizon1s:  0.8,
	models.Horizon1m:  0.75,
	models.Horizon1h:  0.7,
	models.Horizon1d:  0.65,
	models.Horizon1w:  0.6,
	models.Horizon1mo: 0.55,
	models.Horizon1y:  0.5,
}

const defaultConfidenceThreshold = 0.65
const maxSentimentConcurrency = 6

// SentimentParams is the Process() params payload for LLMSentimentAgent.
type SentimentParams struct {
	Articles    []models.Article
	UseCache    bool
	TimeHorizon models.TimeHorizon
}

// CacheStats reports the semantic cache's cumulative hit/miss counters
// (since creation or the last Clear), read at the end of a Process call.
type CacheStats struct {
	Hits   int     `json:"hits"`
	Misses int     `json:"misses"`
	Rate   float64 `json:"rate"`
}

// SentimentResult is the Process() result payload for LLMSentimentAgent.
type SentimentResult struct {
	SentimentScores     []models.SentimentScore `json:"sentiment_scores"`
	CacheStats          CacheStats              `json:"cache_stats"`
	TotalArticles       int                     `json:"total_articles"`
	TotalAnalyzed       int                     `json:"total_analyzed"`
	FilteredByConfidence int                    `json:"filtered_by_confidence"`
	ConfidenceThreshold float64                 `json:"confidence_threshold"`
	TimeHorizon         models.TimeHorizon      `json:"time_horizon"`
	Status              string                  `json:"status"`
}

// LLMSentimentAgent scores each article's sentiment toward a symbol,
// consulting a semantic cache before falling back to the LLM client. It
// implements models.Agent.
type LLMSentimentAgent struct {
	llm     LLMClient
	cache   *SemanticCache
	prompts PromptTemplates
}

func NewLLMSentimentAgent(llm LLMClient, cache *SemanticCache) *LLMSentimentAgent {
	return &LLMSentimentAgent{llm: llm, cache: cache}
}

func (a *LLMSentimentAgent) Init(ctx context.Context) error {
	if a.llm == nil {
		return fmt.Errorf("llm sentiment agent: no LLMClient configured")
	}
	return nil
}

func (a *LLMSentimentAgent) HealthCheck(ctx context.Context) models.HealthStatus {
	return models.HealthStatus{Healthy: a.llm != nil}
}

// Process implements models.Agent. params must be a SentimentParams.
func (a *LLMSentimentAgent) Process(ctx context.Context, symbol string, params any) (any, error) {
	req, ok := params.(SentimentParams)
	if !ok {
		return nil, fmt.Errorf("llm sentiment agent: unexpected params type %T", params)
	}
	if req.TimeHorizon == "" {
		req.TimeHorizon = models.Horizon1d
	}

	threshold, ok := horizonConfidenceThreshold[req.TimeHorizon]
	if !ok {
		threshold = defaultConfidenceThreshold
	}

	scores := make([]models.SentimentScore, len(req.Articles))
	var mu sync.Mutex
	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(maxSentimentConcurrency)

	for i, article := range req.Articles {
		i, article := i, article
		g.Go(func() error {
			score, err := a.scoreOne(gCtx, article, symbol, req.UseCache)
			if err != nil {
				observability.Warn("sentiment scoring failed for article", "article_id", article.ID, "symbol", symbol, "error", err)
				return nil
			}
			mu.Lock()
			scores[i] = score
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	nonEmpty := make([]models.SentimentScore, 0, len(scores))
	for _, s := range scores {
		if s.ArticleID != "" {
			nonEmpty = append(nonEmpty, s)
		}
	}

	totalAnalyzed := len(nonEmpty)
	filtered := make([]models.SentimentScore, 0, len(nonEmpty))
	for _, s := range nonEmpty {
		if s.Confidence >= threshold {
			filtered = append(filtered, s)
		}
	}
	sort.SliceStable(filtered, func(i, j int) bool { return filtered[i].ProcessedAt.Before(filtered[j].ProcessedAt) })

	hits, misses := 0, 0
	if a.cache != nil {
		hits, misses = a.cache.Stats()
	}
	rate := 0.0
	if hits+misses > 0 {
		rate = float64(hits) / float64(hits+misses)
	}

	return SentimentResult{
		SentimentScores:      filtered,
		CacheStats:           CacheStats{Hits: hits, Misses: misses, Rate: rate},
		TotalArticles:        len(req.Articles),
		TotalAnalyzed:        totalAnalyzed,
		FilteredByConfidence: totalAnalyzed - len(filtered),
		ConfidenceThreshold:  threshold,
		TimeHorizon:          req.TimeHorizon,
		Status:               "success",
	}, nil
}

func (a *LLMSentimentAgent) scoreOne(ctx context.Context, article models.Article, symbol string, useCache bool) (models.SentimentScore, error) {
	metrics := observability.GetMetrics()
	if useCache && a.cache != nil {
		if result, hit := a.cache.GetSimilar(ctx, article, symbol); hit {
			metrics.RecordCacheHit(symbol)
			return models.SentimentScore{
				ArticleID:   article.ID,
				Symbol:      symbol,
				Score:       result.Score,
				Label:       result.Label,
				Confidence:  result.Confidence,
				Reasoning:   result.Reasoning,
				Cached:      true,
				ProcessedAt: article.PublishedAt,
			}, nil
		}
	}

	if useCache && a.cache != nil {
		metrics.RecordCacheMiss(symbol)
	}

	prompt := a.prompts.GetSentimentPrompt(article, symbol, symbol)
	result, err := a.llm.AnalyzeSentiment(ctx, article, symbol, prompt)
	if err != nil {
		return models.SentimentScore{}, err
	}
	metrics.RecordSentimentScore(symbol, result.Score)

	if useCache && a.cache != nil {
		a.cache.Store(ctx, article, result, symbol)
	}

	return models.SentimentScore{
		ArticleID:   article.ID,
		Symbol:      symbol,
		Score:       result.Score,
		Label:       result.Label,
		Confidence:  result.Confidence,
		Reasoning:   result.Reasoning,
		Cached:      false,
		ProcessedAt: article.PublishedAt,
	}, nil
}
