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

// AlphaVantageCollector fetches the NEWS_SENTIMENT feed. AlphaVantage's
// limit applies no server-side date filter, so the collector filters the
// returned feed post-hoc against params.FromDate/ToDate. Its rate limit is
// dual (5/min and 500/day); reported remaining is the min of both.
type AlphaVantageCollector struct {
	apiKey     string
	httpClient *http.Client
	baseURL    string
	limiter    *RateLimiter
}

func NewAlphaVantageCollector(apiKey string) *AlphaVantageCollector {
	perMinute := NewRateLimiter(5, time.Minute)
	perDay := NewRateLimiter(500, UTCCalendarDayWindow())
	return &AlphaVantageCollector{
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		baseURL:    "https://www.alphavantage.co/query",
		limiter:    perMinute.WithSecondary(perDay),
	}
}

func (c *AlphaVantageCollector) Name() string { return "alphavantage" }

type alphaVantageNewsResponse struct {
	Feed []struct {
		Title         string `json:"title"`
		URL           string `json:"url"`
		Summary       string `json:"summary"`
		Source        string `json:"source"`
		TimePublished string `json:"time_published"`
	} `json:"feed"`
}

func (c *AlphaVantageCollector) FetchNews(ctx context.Context, symbol string, params FetchParams) ([]models.Article, error) {
	var articles []models.Article

	err := services.WithRetry(ctx, services.CollectorRetryConfig, func() error {
		q := url.Values{}
		q.Set("function", "NEWS_SENTIMENT")
		q.Set("tickers", symbol)
		q.Set("apikey", c.apiKey)
		limit := params.Limit
		if limit <= 0 || limit > 1000 {
			limit = 50
		}
		q.Set("limit", fmt.Sprintf("%d", limit))

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+q.Encode(), nil)
		if err != nil {
			return fmt.Errorf("alphavantage: build request: %w", err)
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return fmt.Errorf("%w: alphavantage: %v", models.ErrCollectorConnection, err)
		}
		defer resp.Body.Close()

		c.limiter.RecordCall()

		if resp.StatusCode == http.StatusTooManyRequests {
			return fmt.Errorf("%w: alphavantage", models.ErrRateLimitExceeded)
		}
		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("%w: alphavantage: unexpected status %d", models.ErrCollectorProtocol, resp.StatusCode)
		}

		var raw alphaVantageNewsResponse
		if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
			return fmt.Errorf("%w: alphavantage: decode response: %v", models.ErrCollectorProtocol, err)
		}

		articles = make([]models.Article, 0, len(raw.Feed))
		for i, item := range raw.Feed {
			publishedAt, perr := time.Parse("20060102T150405", item.TimePublished)
			if perr != nil {
				observability.Warn("alphavantage: skipping article with unparsable timestamp", "time_published", item.TimePublished)
				continue
			}
			if publishedAt.Before(params.FromDate) || publishedAt.After(params.ToDate) {
				continue
			}
			articles = append(articles, models.Article{
				ID:          fmt.Sprintf("alphavantage-%s-%d", symbol, i),
				Title:       item.Title,
				Source:      item.Source,
				PublishedAt: publishedAt,
				URL:         item.URL,
				Summary:     item.Summary,
				Content:     item.Summary,
			})
		}

		return nil
	})

	if err != nil {
		return nil, err
	}

	return articles, nil
}

func (c *AlphaVantageCollector) GetAPIUsage() models.APIUsage {
	remaining, resetAt, secondaryReset := c.limiter.Remaining()
	return models.APIUsage{
		Source:         c.Name(),
		IsMock:         false,
		CallsMade:      c.limiter.CallsMade(),
		CallsRemaining: remaining,
		RateLimit:      "5/min, 500/day",
		ResetAt:        resetAt,
		SecondaryReset: secondaryReset,
	}
}
