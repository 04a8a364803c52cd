package news

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"tickerpulse/models"
	"tickerpulse/observability"
)

// FetchParamsRequest is the Process() params payload for NewsFetchAgent.
type FetchParamsRequest struct {
	TimeHorizon   models.TimeHorizon
	Limit         int
	MinRelevance  float64
	DuplicateFilt *DuplicateFilter
}

// FetchResult is the Process() result payload for NewsFetchAgent.
type FetchResult struct {
	Symbol           string            `json:"symbol"`
	Articles         []models.Article  `json:"articles"`
	FetchedAt        time.Time         `json:"fetched_at"`
	TotalCount       int               `json:"total_count"`
	RawArticlesCount int               `json:"raw_articles_count"`
	Sources          []string          `json:"sources"`
	TimeHorizon      models.TimeHorizon `json:"time_horizon"`
	DateRangeFrom    time.Time         `json:"date_range_from"`
	DateRangeTo      time.Time         `json:"date_range_to"`
	APIUsage         []models.APIUsage `json:"api_usage"`
	DataSource       string            `json:"data_source"`
	Status           string            `json:"status"`
}

const (
	dataSourceAPI     = "api"
	dataSourceMock    = "mock"
	dataSourceUnknown = "unknown"

	maxWindowExpansions  = 2
	windowExpansionFactor = 1.5
	maxCollectorConcurrency = 4
)

// NewsFetchAgent fans out to every configured collector, expands the lookup
// window when too little news comes back, then relevance-filters,
// deduplicates and caps the result. It implements models.Agent.
type NewsFetchAgent struct {
	collectors []Collector
	relevance  *RelevanceFilter
	dupes      *DuplicateFilter
	ranges     *DateRangeCalculator
	clock      func() time.Time
}

func NewNewsFetchAgent(collectors []Collector) *NewsFetchAgent {
	return &NewsFetchAgent{
		collectors: collectors,
		relevance:  NewRelevanceFilter(),
		dupes:      NewDuplicateFilter(),
		ranges:     NewDateRangeCalculator(),
		clock:      time.Now,
	}
}

func (a *NewsFetchAgent) Init(ctx context.Context) error {
	if len(a.collectors) == 0 {
		return fmt.Errorf("news fetch agent: no collectors configured")
	}
	return nil
}

func (a *NewsFetchAgent) HealthCheck(ctx context.Context) models.HealthStatus {
	details := make(map[string]string, len(a.collectors))
	for _, c := range a.collectors {
		usage := c.GetAPIUsage()
		details[c.Name()] = fmt.Sprintf("calls_remaining=%d", usage.CallsRemaining)
	}
	return models.HealthStatus{Healthy: len(a.collectors) > 0, Details: details}
}

// Process implements models.Agent. params must be a FetchParamsRequest.
func (a *NewsFetchAgent) Process(ctx context.Context, symbol string, params any) (any, error) {
	req, ok := params.(FetchParamsRequest)
	if !ok {
		return nil, fmt.Errorf("news fetch agent: unexpected params type %T", params)
	}
	if req.Limit <= 0 {
		req.Limit = 50
	}
	if req.TimeHorizon == "" {
		req.TimeHorizon = models.Horizon1d
	}
	dupes := req.DuplicateFilt
	if dupes == nil {
		dupes = a.dupes
	}

	metrics := observability.GetMetrics()
	metrics.RecordNewsFetchRequest(symbol)
	timer := metrics.NewTimer()

	now := a.clock()
	from, to := a.ranges.InitialRange(req.TimeHorizon, now)

	all, usages, sources, err := a.fetchAll(ctx, symbol, from, to)
	if err != nil {
		timer.ObserveNewsFetch(symbol, "error")
		return nil, err
	}

	minWanted := req.Limit
	if minWanted > 10 {
		minWanted = 10
	}

	for attempt := 0; attempt < maxWindowExpansions && len(all) < minWanted; attempt++ {
		metrics.RecordWindowExpansion(symbol)
		from, to = ExpandWindow(from, to, windowExpansionFactor)
		expanded, moreUsages, moreSources, err := a.fetchAll(ctx, symbol, from, to)
		if err != nil {
			timer.ObserveNewsFetch(symbol, "error")
			return nil, err
		}
		all = mergeArticles(all, expanded)
		usages = mergeUsages(usages, moreUsages)
		sources = mergeSources(sources, moreSources)
	}

	all = sortByRecency(all)
	if len(all) > req.Limit {
		all = all[:req.Limit]
	}
	rawCount := len(all)

	a.relevance.ScoreArticles(all, symbol)
	minRelevance := req.MinRelevance
	if minRelevance <= 0 {
		minRelevance = 0.4
	}
	all = a.relevance.FilterByThreshold(all, minRelevance)
	all = dupes.RemoveDuplicates(all)
	all = a.relevance.SortByRelevance(all, true)
	if len(all) > req.Limit {
		all = all[:req.Limit]
	}

	metrics.RecordArticlesFetched(symbol, len(all))
	timer.ObserveNewsFetch(symbol, "success")

	return FetchResult{
		Symbol:           symbol,
		Articles:         all,
		FetchedAt:        now,
		TotalCount:       len(all),
		RawArticlesCount: rawCount,
		Sources:          sources,
		TimeHorizon:      req.TimeHorizon,
		DateRangeFrom:    from,
		DateRangeTo:      to,
		APIUsage:         usages,
		DataSource:       classifyDataSource(sources),
		Status:           "success",
	}, nil
}

// fetchAll fans out to every collector concurrently, bounded by
// maxCollectorConcurrency. A failing collector is logged and skipped; it
// never fails the overall request.
func (a *NewsFetchAgent) fetchAll(ctx context.Context, symbol string, from, to time.Time) ([]models.Article, []models.APIUsage, []string, error) {
	var mu sync.Mutex
	var articles []models.Article
	var usages []models.APIUsage
	var sources []string

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(maxCollectorConcurrency)

	params := FetchParams{FromDate: from, ToDate: to, Limit: 0}

	metrics := observability.GetMetrics()

	for _, collector := range a.collectors {
		collector := collector
		g.Go(func() error {
			metrics.RecordCollectorRequest(collector.Name())
			timer := metrics.NewTimer()
			fetched, err := collector.FetchNews(gCtx, symbol, params)
			timer.ObserveCollector(collector.Name())
			usage := collector.GetAPIUsage()
			if err != nil {
				metrics.RecordCollectorError(collector.Name(), "fetch")
				observability.Warn("collector fetch failed", "collector", collector.Name(), "symbol", symbol, "error", err)
				mu.Lock()
				usages = append(usages, usage)
				mu.Unlock()
				return nil
			}
			mu.Lock()
			articles = append(articles, fetched...)
			usages = append(usages, usage)
			sources = append(sources, collector.Name())
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, nil, nil, err
	}

	return articles, usages, sources, nil
}

func mergeArticles(existing, incoming []models.Article) []models.Article {
	seen := make(map[string]bool, len(existing))
	seenURL := make(map[string]bool, len(existing))
	for _, a := range existing {
		seen[a.ID] = true
		if a.URL != "" {
			seenURL[a.URL] = true
		}
	}
	for _, a := range incoming {
		if seen[a.ID] {
			continue
		}
		if a.URL != "" && seenURL[a.URL] {
			continue
		}
		existing = append(existing, a)
		seen[a.ID] = true
		if a.URL != "" {
			seenURL[a.URL] = true
		}
	}
	return existing
}

func mergeUsages(existing, incoming []models.APIUsage) []models.APIUsage {
	latest := make(map[string]models.APIUsage, len(existing)+len(incoming))
	order := make([]string, 0, len(existing)+len(incoming))
	for _, u := range existing {
		if _, ok := latest[u.Source]; !ok {
			order = append(order, u.Source)
		}
		latest[u.Source] = u
	}
	for _, u := range incoming {
		if _, ok := latest[u.Source]; !ok {
			order = append(order, u.Source)
		}
		latest[u.Source] = u
	}
	out := make([]models.APIUsage, 0, len(order))
	for _, src := range order {
		out = append(out, latest[src])
	}
	return out
}

func mergeSources(existing, incoming []string) []string {
	seen := make(map[string]bool, len(existing))
	for _, s := range existing {
		seen[s] = true
	}
	for _, s := range incoming {
		if !seen[s] {
			existing = append(existing, s)
			seen[s] = true
		}
	}
	return existing
}

func sortByRecency(articles []models.Article) []models.Article {
	out := make([]models.Article, len(articles))
	copy(out, articles)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].PublishedAt.After(out[j].PublishedAt)
	})
	return out
}

func classifyDataSource(sources []string) string {
	if len(sources) == 0 {
		return dataSourceUnknown
	}
	for _, s := range sources {
		if s != "mock" {
			return dataSourceAPI
		}
	}
	return dataSourceMock
}
