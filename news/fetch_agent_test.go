package news

import (
	"context"
	"errors"
	"testing"
	"time"

	"tickerpulse/models"
)

type stubCollector struct {
	name     string
	articles []models.Article
	err      error
}

func (s *stubCollector) Name() string { return s.name }

func (s *stubCollector) FetchNews(ctx context.Context, symbol string, params FetchParams) ([]models.Article, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.articles, nil
}

func (s *stubCollector) GetAPIUsage() models.APIUsage {
	return models.APIUsage{Source: s.name, CallsRemaining: 10}
}

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func TestNewsFetchAgent_Init_RequiresCollectors(t *testing.T) {
	agent := NewNewsFetchAgent(nil)
	if err := agent.Init(context.Background()); err == nil {
		t.Error("expected error when no collectors configured")
	}
}

func TestNewsFetchAgent_Process_MergesAcrossCollectors(t *testing.T) {
	now := time.Date(2026, 7, 29, 12, 0, 0, 0, time.UTC)
	collectorA := &stubCollector{name: "a", articles: []models.Article{
		{ID: "a-1", Title: "AAPL posts record iPhone sales this quarter", PublishedAt: now.Add(-time.Hour), URL: "https://x/1"},
	}}
	collectorB := &stubCollector{name: "b", articles: []models.Article{
		{ID: "b-1", Title: "Analysts raise AAPL price target after earnings beat", PublishedAt: now.Add(-2 * time.Hour), URL: "https://x/2"},
	}}

	agent := NewNewsFetchAgent([]Collector{collectorA, collectorB})
	agent.clock = fixedClock(now)

	result, err := agent.Process(context.Background(), "AAPL", FetchParamsRequest{
		TimeHorizon:  models.Horizon1d,
		Limit:        50,
		MinRelevance: 0.3,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	fetchResult := result.(FetchResult)
	if fetchResult.Status != "success" {
		t.Errorf("expected success status, got %s", fetchResult.Status)
	}
	if fetchResult.TotalCount != 2 {
		t.Errorf("expected 2 articles merged, got %d", fetchResult.TotalCount)
	}
	if fetchResult.DataSource != dataSourceAPI {
		t.Errorf("expected api data source, got %s", fetchResult.DataSource)
	}
}

func TestNewsFetchAgent_Process_CollectorFailureIsNonFatal(t *testing.T) {
	now := time.Now()
	failing := &stubCollector{name: "failing", err: errors.New("connection refused")}
	working := &stubCollector{name: "working", articles: []models.Article{
		{ID: "w-1", Title: "TSLA delivers record vehicle volume", PublishedAt: now.Add(-time.Hour), URL: "https://x/3"},
	}}

	agent := NewNewsFetchAgent([]Collector{failing, working})
	agent.clock = fixedClock(now)

	result, err := agent.Process(context.Background(), "TSLA", FetchParamsRequest{
		TimeHorizon:  models.Horizon1d,
		Limit:        50,
		MinRelevance: 0.3,
	})
	if err != nil {
		t.Fatalf("collector failure must not fail the whole request: %v", err)
	}

	fetchResult := result.(FetchResult)
	if fetchResult.TotalCount != 1 {
		t.Errorf("expected the working collector's article to survive, got %d", fetchResult.TotalCount)
	}
}

func TestNewsFetchAgent_Process_ZeroArticlesIsSuccess(t *testing.T) {
	now := time.Now()
	empty := &stubCollector{name: "empty"}

	agent := NewNewsFetchAgent([]Collector{empty})
	agent.clock = fixedClock(now)

	result, err := agent.Process(context.Background(), "ZZZZ", FetchParamsRequest{
		TimeHorizon: models.Horizon1d,
		Limit:       50,
	})
	if err != nil {
		t.Fatalf("zero articles must be a success, not an error: %v", err)
	}

	fetchResult := result.(FetchResult)
	if fetchResult.Status != "success" {
		t.Errorf("expected success status for zero articles, got %s", fetchResult.Status)
	}
	if fetchResult.TotalCount != 0 {
		t.Errorf("expected zero articles, got %d", fetchResult.TotalCount)
	}
}

func TestNewsFetchAgent_Process_RejectsWrongParamsType(t *testing.T) {
	agent := NewNewsFetchAgent([]Collector{&stubCollector{name: "a"}})

	_, err := agent.Process(context.Background(), "AAPL", "not-the-right-type")
	if err == nil {
		t.Error("expected error for wrong params type")
	}
}

func TestNewsFetchAgent_HealthCheck(t *testing.T) {
	agent := NewNewsFetchAgent([]Collector{&stubCollector{name: "a"}})
	status := agent.HealthCheck(context.Background())
	if !status.Healthy {
		t.Error("expected healthy status with at least one collector")
	}
}
