package news

import (
	"context"
	"time"

	"tickerpulse/models"
)

// FetchParams is the request shape passed to every Collector.FetchNews call.
type FetchParams struct {
	FromDate time.Time
	ToDate   time.Time
	Limit    int
	Language string
}

// Collector is the abstract news source contract. Concrete variants (Mock,
// Finnhub, NewsAPI, AlphaVantage) each build a provider-specific request,
// retry it through services.WithRetry, and normalise the provider's JSON into
// the Article shape. Retries are not limited to connection/timeout errors:
// WithRetry retries any error, including non-200 statuses and undecodable
// bodies.
type Collector interface {
	Name() string
	FetchNews(ctx context.Context, symbol string, params FetchParams) ([]models.Article, error)
	GetAPIUsage() models.APIUsage
}

// formatDateISO formats a date the way ISO-oriented providers expect.
func formatDateISO(t time.Time) string {
	return t.UTC().Format("2006-01-02")
}
