package news

import (
	"context"
	"fmt"
	"time"

	"tickerpulse/models"
)

// MockCollector loads a deterministic in-memory fixture keyed by symbol,
// standing in for a real provider in tests and when UseMockData is set.
type MockCollector struct {
	limiter *RateLimiter
}

// NewMockCollector creates a MockCollector. It is effectively unlimited but
// still tracks calls so GetAPIUsage reports a consistent shape.
func NewMockCollector() *MockCollector {
	return &MockCollector{limiter: NewRateLimiter(1_000_000, time.Hour)}
}

func (c *MockCollector) Name() string { return "mock" }

func (c *MockCollector) FetchNews(ctx context.Context, symbol string, params FetchParams) ([]models.Article, error) {
	c.limiter.RecordCall()

	company := CompanyFor(symbol)
	sector := SectorFor(symbol)
	now := time.Now().UTC()

	headlines := []struct {
		title   string
		content string
		ageHrs  float64
	}{
		{
			title:   fmt.Sprintf("%s shares climb after strong quarterly report", company),
			content: fmt.Sprintf("%s (%s) beat analyst estimates this quarter, with revenue growth accelerating in the %s sector.", company, symbol, sector),
			ageHrs:  2,
		},
		{
			title:   fmt.Sprintf("Analysts raise price target on %s", symbol),
			content: fmt.Sprintf("Several analysts covering %s raised their price targets, citing robust demand and margin expansion.", company),
			ageHrs:  8,
		},
		{
			title:   fmt.Sprintf("%s faces regulatory scrutiny over new product line", company),
			content: fmt.Sprintf("Regulators are examining %s's latest product launch amid concerns about market concentration in %s.", company, sector),
			ageHrs:  20,
		},
		{
			title:   fmt.Sprintf("Market roundup: %s among today's notable movers", symbol),
			content: fmt.Sprintf("%s shares were active in today's session alongside broader moves in the %s sector.", symbol, sector),
			ageHrs:  40,
		},
	}

	articles := make([]models.Article, 0, len(headlines))
	for i, h := range headlines {
		published := now.Add(-time.Duration(h.ageHrs) * time.Hour)
		if published.Before(params.FromDate) || published.After(params.ToDate) {
			continue
		}
		articles = append(articles, models.Article{
			ID:          fmt.Sprintf("mock-%s-%d", symbol, i),
			Title:       h.title,
			Source:      "MockWire",
			PublishedAt: published,
			URL:         fmt.Sprintf("https://mock.invalid/%s/%d", symbol, i),
			Summary:     h.title,
			Content:     h.content,
		})
	}

	if params.Limit > 0 && len(articles) > params.Limit {
		articles = articles[:params.Limit]
	}

	return articles, nil
}

func (c *MockCollector) GetAPIUsage() models.APIUsage {
	remaining, resetAt, _ := c.limiter.Remaining()
	return models.APIUsage{
		Source:         c.Name(),
		IsMock:         true,
		CallsMade:      c.limiter.CallsMade(),
		CallsRemaining: remaining,
		RateLimit:      "unlimited",
		ResetAt:        resetAt,
	}
}
