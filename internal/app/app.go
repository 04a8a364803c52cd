// Package app wires configuration, services, and agents into the set of
// pipelines the HTTP facade drives: the news-and-sentiment pipeline and the
// support/resistance pipeline.
package app

import (
	"context"
	"fmt"
	"time"

	"tickerpulse/config"
	"tickerpulse/levels"
	"tickerpulse/news"
	"tickerpulse/observability"
	"tickerpulse/sentiment"
)

// App holds every agent and service the HTTP facade calls into. It is
// assembled once at process startup by New and is safe for concurrent use
// across requests (each agent guards its own shared state).
type App struct {
	cfg *config.Config

	NewsFetchAgent *news.NewsFetchAgent
	SentimentAgent *sentiment.LLMSentimentAgent
	Aggregator     *sentiment.SentimentAggregator
	LevelsAgent    *levels.SupportResistanceAgent

	cache *sentiment.SemanticCache
}

// New builds the full dependency graph for cfg: collectors, LLM client,
// semantic cache, and the four pipeline agents. It never fails on missing
// optional provider credentials, falling back to mock implementations per
// cfg.Pipeline.UseMockData and the individual Has* checks.
func New(cfg *config.Config) (*App, error) {
	collectors := buildCollectors(cfg)
	newsAgent := news.NewNewsFetchAgent(collectors)

	llmClient, err := buildLLMClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("build llm client: %w", err)
	}

	var cache *sentiment.SemanticCache
	if cfg.Pipeline.EnableCache {
		store := sentiment.NewVectorStore(time.Duration(cfg.Pipeline.CacheTTLSeconds) * time.Second)
		cache = sentiment.NewSemanticCache(store, sentiment.NewHashingEmbedder(), cfg.Pipeline.SimilarityThreshold)
	}
	sentimentAgent := sentiment.NewLLMSentimentAgent(llmClient, cache)
	aggregator := sentiment.NewSentimentAggregator()

	loader := levels.NewDataLoader(nil, nil, true)
	var mlScorer levels.MLScorer
	if cfg.Pipeline.UseMLPredictions {
		scorer, err := levels.LoadMLScorer(cfg.Pipeline.MLModelPath)
		if err != nil {
			return nil, fmt.Errorf("load ml scorer: %w", err)
		}
		mlScorer = scorer
	}
	levelsAgent := levels.NewSupportResistanceAgent(loader, levels.NewLevelProjector(mlScorer))

	a := &App{
		cfg:            cfg,
		NewsFetchAgent: newsAgent,
		SentimentAgent: sentimentAgent,
		Aggregator:     aggregator,
		LevelsAgent:    levelsAgent,
		cache:          cache,
	}

	if err := a.Init(context.Background()); err != nil {
		return nil, err
	}
	return a, nil
}

// Init runs each agent's Init in turn, failing fast on the first error.
func (a *App) Init(ctx context.Context) error {
	if err := a.NewsFetchAgent.Init(ctx); err != nil {
		return fmt.Errorf("news fetch agent: %w", err)
	}
	if err := a.SentimentAgent.Init(ctx); err != nil {
		return fmt.Errorf("llm sentiment agent: %w", err)
	}
	if err := a.Aggregator.Init(ctx); err != nil {
		return fmt.Errorf("sentiment aggregator: %w", err)
	}
	if err := a.LevelsAgent.Init(ctx); err != nil {
		return fmt.Errorf("support/resistance agent: %w", err)
	}
	return nil
}

// CacheHitRate reports the semantic cache's hit rate so far, or 0 if
// caching is disabled.
func (a *App) CacheHitRate() float64 {
	if a.cache == nil {
		return 0
	}
	return a.cache.HitRate()
}

// CacheEstimatedSavings reports the dollar cost avoided by cache hits so
// far, given costPerCall, or 0 if caching is disabled.
func (a *App) CacheEstimatedSavings(costPerCall float64) float64 {
	if a.cache == nil {
		return 0
	}
	return a.cache.EstimatedSavings(costPerCall)
}

func buildCollectors(cfg *config.Config) []news.Collector {
	if cfg.Pipeline.UseMockData {
		return []news.Collector{news.NewMockCollector()}
	}

	var collectors []news.Collector
	if cfg.HasFinnhub() {
		collectors = append(collectors, news.NewFinnhubCollector(cfg.Providers.FinnhubAPIKey))
	}
	if cfg.HasNewsAPI() {
		collectors = append(collectors, news.NewNewsAPICollector(cfg.Providers.NewsAPIKey))
	}
	if cfg.HasAlphaVantage() {
		collectors = append(collectors, news.NewAlphaVantageCollector(cfg.Providers.AlphaVantageAPIKey))
	}
	if len(collectors) == 0 {
		observability.Warn("no news provider credentials configured, falling back to mock collector")
		collectors = append(collectors, news.NewMockCollector())
	}
	return collectors
}

func buildLLMClient(cfg *config.Config) (sentiment.LLMClient, error) {
	if cfg.Pipeline.UseMockData {
		return sentiment.NewMockLLMClient(), nil
	}
	if cfg.HasOpenAI() {
		return sentiment.NewOpenAISentimentClient(cfg.Providers.OpenAIAPIKey, "gpt-4o-mini", 500)
	}
	if cfg.HasBedrock() {
		return sentiment.NewBedrockSentimentClient(context.Background(), cfg.AWS.Region, cfg.AWS.BedrockModelID, cfg.AWS.BedrockMaxTokens, cfg.AWS.AnthropicVersion)
	}
	observability.Warn("no LLM provider credentials configured, falling back to mock sentiment client")
	return sentiment.NewMockLLMClient(), nil
}
