package news

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"tickerpulse/models"
	"tickerpulse/observability"
	"tickerpulse/services"
)

// FinnhubCollector fetches company news from Finnhub's /company-news
// endpoint. Finnhub's rate limit is 60 calls/minute on a sliding reset,
// tracked locally rather than from response headers.
type FinnhubCollector struct {
	apiKey     string
	httpClient *http.Client
	baseURL    string
	limiter    *RateLimiter
}

func NewFinnhubCollector(apiKey string) *FinnhubCollector {
	return &FinnhubCollector{
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		baseURL:    "https://finnhub.io/api/v1",
		limiter:    NewRateLimiter(60, time.Minute),
	}
}

func (c *FinnhubCollector) Name() string { return "finnhub" }

type finnhubArticle struct {
	ID       int64  `json:"id"`
	Headline string `json:"headline"`
	Summary  string `json:"summary"`
	Source   string `json:"source"`
	URL      string `json:"url"`
	Datetime int64  `json:"datetime"`
}

func (c *FinnhubCollector) FetchNews(ctx context.Context, symbol string, params FetchParams) ([]models.Article, error) {
	var articles []models.Article

	err := services.WithRetry(ctx, services.CollectorRetryConfig, func() error {
		q := url.Values{}
		q.Set("symbol", symbol)
		q.Set("from", formatDateISO(params.FromDate))
		q.Set("to", formatDateISO(params.ToDate))
		q.Set("token", c.apiKey)

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/company-news?"+q.Encode(), nil)
		if err != nil {
			return fmt.Errorf("finnhub: build request: %w", err)
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return fmt.Errorf("%w: finnhub: %v", models.ErrCollectorConnection, err)
		}
		defer resp.Body.Close()

		c.limiter.RecordCall()

		if resp.StatusCode == http.StatusTooManyRequests {
			return fmt.Errorf("%w: finnhub", models.ErrRateLimitExceeded)
		}
		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("%w: finnhub: unexpected status %d", models.ErrCollectorProtocol, resp.StatusCode)
		}

		var raw []finnhubArticle
		if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
			return fmt.Errorf("%w: finnhub: decode response: %v", models.ErrCollectorProtocol, err)
		}

		articles = make([]models.Article, 0, len(raw))
		for _, item := range raw {
			article, ok := normalizeFinnhub(item)
			if !ok {
				observability.Warn("finnhub: skipping malformed article", "headline", item.Headline)
				continue
			}
			articles = append(articles, article)
		}

		return nil
	})

	if err != nil {
		return nil, err
	}

	if params.Limit > 0 && len(articles) > params.Limit {
		articles = articles[:params.Limit]
	}

	return articles, nil
}

func normalizeFinnhub(item finnhubArticle) (models.Article, bool) {
	if item.Headline == "" || item.Datetime == 0 {
		return models.Article{}, false
	}

	return models.Article{
		ID:          fmt.Sprintf("finnhub-%d", item.ID),
		Title:       item.Headline,
		Source:      item.Source,
		PublishedAt: time.Unix(item.Datetime, 0).UTC(),
		URL:         item.URL,
		Summary:     item.Summary,
		Content:     item.Summary,
	}, true
}

func (c *FinnhubCollector) GetAPIUsage() models.APIUsage {
	remaining, resetAt, _ := c.limiter.Remaining()
	return models.APIUsage{
		Source:         c.Name(),
		IsMock:         false,
		CallsMade:      c.limiter.CallsMade(),
		CallsRemaining: remaining,
		RateLimit:      "60/min",
		ResetAt:        resetAt,
	}
}
