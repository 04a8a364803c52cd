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

// NewsAPICollector fetches articles from NewsAPI.org's /v2/everything
// endpoint. NewsAPI's rate limit is 1000 calls/day, reset at UTC midnight.
type NewsAPICollector struct {
	apiKey     string
	httpClient *http.Client
	baseURL    string
	limiter    *RateLimiter
}

func NewNewsAPICollector(apiKey string) *NewsAPICollector {
	return &NewsAPICollector{
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		baseURL:    "https://newsapi.org/v2",
		limiter:    NewRateLimiter(1000, UTCCalendarDayWindow()),
	}
}

func (c *NewsAPICollector) Name() string { return "newsapi" }

type newsAPIResponse struct {
	Status       string `json:"status"`
	TotalResults int    `json:"totalResults"`
	Articles     []struct {
		Source struct {
			Name string `json:"name"`
		} `json:"source"`
		Title       string `json:"title"`
		Description string `json:"description"`
		URL         string `json:"url"`
		PublishedAt string `json:"publishedAt"`
		Content     string `json:"content"`
	} `json:"articles"`
}

func (c *NewsAPICollector) FetchNews(ctx context.Context, symbol string, params FetchParams) ([]models.Article, error) {
	var articles []models.Article

	err := services.WithRetry(ctx, services.CollectorRetryConfig, func() error {
		q := url.Values{}
		q.Set("q", CompanyFor(symbol))
		q.Set("from", params.FromDate.UTC().Format(time.RFC3339))
		q.Set("to", params.ToDate.UTC().Format(time.RFC3339))
		language := params.Language
		if language == "" {
			language = "en"
		}
		q.Set("language", language)
		q.Set("sortBy", "publishedAt")
		if params.Limit > 0 && params.Limit <= 100 {
			q.Set("pageSize", fmt.Sprintf("%d", params.Limit))
		} else {
			q.Set("pageSize", "100")
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/everything?"+q.Encode(), nil)
		if err != nil {
			return fmt.Errorf("newsapi: build request: %w", err)
		}
		req.Header.Set("X-Api-Key", c.apiKey)

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return fmt.Errorf("%w: newsapi: %v", models.ErrCollectorConnection, err)
		}
		defer resp.Body.Close()

		c.limiter.RecordCall()

		if resp.StatusCode == http.StatusTooManyRequests {
			return fmt.Errorf("%w: newsapi", models.ErrRateLimitExceeded)
		}
		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("%w: newsapi: unexpected status %d", models.ErrCollectorProtocol, resp.StatusCode)
		}

		var raw newsAPIResponse
		if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
			return fmt.Errorf("%w: newsapi: decode response: %v", models.ErrCollectorProtocol, err)
		}

		articles = make([]models.Article, 0, len(raw.Articles))
		for i, item := range raw.Articles {
			publishedAt, perr := time.Parse(time.RFC3339, item.PublishedAt)
			if perr != nil {
				observability.Warn("newsapi: skipping article with unparsable timestamp", "published_at", item.PublishedAt)
				continue
			}
			articles = append(articles, models.Article{
				ID:          fmt.Sprintf("newsapi-%s-%d", symbol, i),
				Title:       item.Title,
				Source:      item.Source.Name,
				PublishedAt: publishedAt,
				URL:         item.URL,
				Summary:     item.Description,
				Content:     item.Content,
			})
		}

		return nil
	})

	if err != nil {
		return nil, err
	}

	return articles, nil
}

func (c *NewsAPICollector) GetAPIUsage() models.APIUsage {
	remaining, resetAt, _ := c.limiter.Remaining()
	return models.APIUsage{
		Source:         c.Name(),
		IsMock:         false,
		CallsMade:      c.limiter.CallsMade(),
		CallsRemaining: remaining,
		RateLimit:      "1000/day",
		ResetAt:        resetAt,
	}
}
