package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"tickerpulse/internal/app"
	"tickerpulse/levels"
	"tickerpulse/models"
	"tickerpulse/news"
	"tickerpulse/sentiment"
	"tickerpulse/services"
)

// Handler handles HTTP API requests for the news-sentiment and
// support/resistance pipelines.
type Handler struct {
	app *app.App
}

// NewHandler creates a new Handler.
func NewHandler(application *app.App) *Handler {
	return &Handler{app: application}
}

var symbolPattern = regexp.MustCompile("^[A-Z0-9.-]+$")

// ValidateSymbol rejects empty, overlong, or non-ticker-shaped symbols.
func (h *Handler) ValidateSymbol(symbol string) error {
	if symbol == "" {
		return fmt.Errorf("symbol is required")
	}
	if len(symbol) > 10 {
		return fmt.Errorf("symbol too long (max 10 characters)")
	}
	if !symbolPattern.MatchString(symbol) {
		return fmt.Errorf("invalid symbol format (alphanumeric, dots, and dashes only)")
	}
	return nil
}

// VisualizeRequest is the request body for POST /api/v1/news-pipeline/visualize.
type VisualizeRequest struct {
	Symbol       string             `json:"symbol"`
	MinRelevance float64            `json:"min_relevance"`
	MaxArticles  int                `json:"max_articles"`
	TimeHorizon  models.TimeHorizon `json:"time_horizon"`
}

// PipelineStep reports one stage of the news-sentiment pipeline.
type PipelineStep struct {
	Agent      string    `json:"agent"`
	Status     string    `json:"status"`
	StartTime  time.Time `json:"start_time"`
	DurationMS int64     `json:"duration_ms"`
	Details    any       `json:"details,omitempty"`
	Error      string    `json:"error,omitempty"`
}

// VisualizeResponse is the full response body for the visualize endpoint.
type VisualizeResponse struct {
	Input           VisualizeRequest `json:"input"`
	Steps           []PipelineStep   `json:"steps"`
	FinalResult     any              `json:"final_result,omitempty"`
	TotalDurationMS int64            `json:"total_duration_ms"`
	Status          string           `json:"status"`
	Error           string           `json:"error,omitempty"`
	Traceback       string           `json:"traceback,omitempty"`
}

// HandleVisualizePipeline runs the news-fetch, sentiment, and aggregation
// agents in sequence, reporting per-step timing and details. Step-level
// errors stop the pipeline but the handler always returns 200 with
// status="error" on the JSON body, per the error propagation policy.
func (h *Handler) HandleVisualizePipeline(w http.ResponseWriter, r *http.Request) {
	var req VisualizeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.jsonError(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}
	if req.MinRelevance <= 0 {
		req.MinRelevance = 0.3
	}
	if req.MaxArticles <= 0 {
		req.MaxArticles = 10
	}
	if req.TimeHorizon == "" {
		req.TimeHorizon = models.Horizon1d
	}
	if err := h.ValidateSymbol(req.Symbol); err != nil {
		h.jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}

	overallStart := time.Now()
	ctx := r.Context()
	var steps []PipelineStep

	fetchResult, step := h.runStep(ctx, "news_fetch_agent", func() (any, error) {
		return h.app.NewsFetchAgent.Process(ctx, req.Symbol, news.FetchParamsRequest{
			TimeHorizon:  req.TimeHorizon,
			Limit:        req.MaxArticles,
			MinRelevance: req.MinRelevance,
		})
	})
	steps = append(steps, step)
	if step.Status == "error" {
		h.jsonResponse(w, errorVisualizeResponse(req, steps, overallStart, step.Error))
		return
	}
	fetched := fetchResult.(news.FetchResult)

	sentimentResult, step := h.runStep(ctx, "llm_sentiment_agent", func() (any, error) {
		return h.app.SentimentAgent.Process(ctx, req.Symbol, sentiment.SentimentParams{
			Articles:    fetched.Articles,
			UseCache:    true,
			TimeHorizon: req.TimeHorizon,
		})
	})
	steps = append(steps, step)
	if step.Status == "error" {
		h.jsonResponse(w, errorVisualizeResponse(req, steps, overallStart, step.Error))
		return
	}
	scored := sentimentResult.(sentiment.SentimentResult)

	aggregated, step := h.runStep(ctx, "sentiment_aggregator", func() (any, error) {
		return h.app.Aggregator.Process(ctx, req.Symbol, sentiment.AggregationParams{
			SentimentScores: scored.SentimentScores,
			TimeWeighted:    true,
			TimeHorizon:     req.TimeHorizon,
		})
	})
	steps = append(steps, step)
	if step.Status == "error" {
		h.jsonResponse(w, errorVisualizeResponse(req, steps, overallStart, step.Error))
		return
	}

	h.jsonResponse(w, VisualizeResponse{
		Input:           req,
		Steps:           steps,
		FinalResult:     aggregated,
		TotalDurationMS: time.Since(overallStart).Milliseconds(),
		Status:          "success",
	})
}

// runStep executes fn, wrapping its outcome (including details for the
// step) into a PipelineStep. It never panics the request: a step failure
// is reported on the step, not returned as a Go error.
func (h *Handler) runStep(ctx context.Context, agent string, fn func() (any, error)) (any, PipelineStep) {
	start := time.Now()
	result, err := fn()
	step := PipelineStep{
		Agent:      agent,
		StartTime:  start,
		DurationMS: time.Since(start).Milliseconds(),
		Details:    result,
	}
	if err != nil {
		step.Status = "error"
		step.Error = err.Error()
		return nil, step
	}
	step.Status = "success"
	return result, step
}

func errorVisualizeResponse(req VisualizeRequest, steps []PipelineStep, start time.Time, errMsg string) VisualizeResponse {
	return VisualizeResponse{
		Input:           req,
		Steps:           steps,
		TotalDurationMS: time.Since(start).Milliseconds(),
		Status:          "error",
		Error:           errMsg,
	}
}

// HandleNewsPipelineHealth reports whether each news-sentiment agent thinks
// it is healthy.
func (h *Handler) HandleNewsPipelineHealth(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	h.jsonResponse(w, map[string]any{
		"status": "ok",
		"agents_initialized": map[string]bool{
			"news_fetch_agent":     h.app.NewsFetchAgent.HealthCheck(ctx).Healthy,
			"llm_sentiment_agent":  h.app.SentimentAgent.HealthCheck(ctx).Healthy,
			"sentiment_aggregator": h.app.Aggregator.HealthCheck(ctx).Healthy,
		},
		"cache_hit_rate":        h.app.CacheHitRate(),
		"cache_estimated_savings": h.app.CacheEstimatedSavings(0.01),
	})
}

// HandleGetLevels implements GET /api/v1/levels/{symbol}.
func (h *Handler) HandleGetLevels(w http.ResponseWriter, r *http.Request) {
	symbol := chi.URLParam(r, "symbol")
	if err := h.ValidateSymbol(symbol); err != nil {
		h.jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}

	req := levels.DetectParams{
		Timeframe:         queryString(r, "timeframe", "1d"),
		MinStrength:       queryFloat(r, "min_strength", 0),
		MaxLevels:         queryInt(r, "max_levels", 0),
		ProjectFuture:     queryBool(r, "project_future", false),
		ProjectionPeriods: queryInt(r, "projection_periods", 30),
		LookbackDays:      queryInt(r, "lookback_days", 0),
	}

	result, err := h.app.LevelsAgent.DetectLevels(r.Context(), symbol, req)
	h.respondDetect(w, r, result, err)
}

// DetectLevelsRequest is the body for POST /api/v1/levels/detect.
type DetectLevelsRequest struct {
	Symbol            string  `json:"symbol"`
	Timeframe         string  `json:"timeframe"`
	MinStrength       float64 `json:"min_strength"`
	MaxLevels         int     `json:"max_levels"`
	ProjectFuture     bool    `json:"project_future"`
	ProjectionPeriods int     `json:"projection_periods"`
	LookbackDays      int     `json:"lookback_days"`
}

// HandleDetectLevels implements POST /api/v1/levels/detect.
func (h *Handler) HandleDetectLevels(w http.ResponseWriter, r *http.Request) {
	var req DetectLevelsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.jsonError(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}
	if err := h.ValidateSymbol(req.Symbol); err != nil {
		h.jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}

	result, err := h.app.LevelsAgent.DetectLevels(r.Context(), req.Symbol, levels.DetectParams{
		Timeframe:         req.Timeframe,
		MinStrength:       req.MinStrength,
		MaxLevels:         req.MaxLevels,
		ProjectFuture:     req.ProjectFuture,
		ProjectionPeriods: req.ProjectionPeriods,
		LookbackDays:      req.LookbackDays,
	})
	h.respondDetect(w, r, result, err)
}

// BatchDetectRequest is the body for POST /api/v1/levels/batch.
type BatchDetectRequest struct {
	Symbols           []string `json:"symbols"`
	Timeframe         string   `json:"timeframe"`
	MinStrength       float64  `json:"min_strength"`
	MaxLevels         int      `json:"max_levels"`
	ProjectFuture     bool     `json:"project_future"`
	ProjectionPeriods int      `json:"projection_periods"`
	LookbackDays      int      `json:"lookback_days"`
	Parallel          bool     `json:"parallel"`
}

// HandleBatchDetectLevels implements POST /api/v1/levels/batch.
func (h *Handler) HandleBatchDetectLevels(w http.ResponseWriter, r *http.Request) {
	var req BatchDetectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.jsonError(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}
	if len(req.Symbols) == 0 {
		h.jsonError(w, "symbols is required", http.StatusBadRequest)
		return
	}
	for _, s := range req.Symbols {
		if err := h.ValidateSymbol(s); err != nil {
			h.jsonError(w, err.Error(), http.StatusBadRequest)
			return
		}
	}

	results := h.app.LevelsAgent.DetectLevelsBatch(r.Context(), req.Symbols, levels.DetectParams{
		Timeframe:         req.Timeframe,
		MinStrength:       req.MinStrength,
		MaxLevels:         req.MaxLevels,
		ProjectFuture:     req.ProjectFuture,
		ProjectionPeriods: req.ProjectionPeriods,
		LookbackDays:      req.LookbackDays,
	}, req.Parallel)

	h.jsonResponse(w, map[string]any{"results": results, "status": "success"})
}

// HandleNearestLevels implements GET /api/v1/levels/{symbol}/nearest.
func (h *Handler) HandleNearestLevels(w http.ResponseWriter, r *http.Request) {
	symbol := chi.URLParam(r, "symbol")
	if err := h.ValidateSymbol(symbol); err != nil {
		h.jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}

	result, err := h.app.LevelsAgent.DetectLevels(r.Context(), symbol, levels.DetectParams{
		Timeframe: queryString(r, "timeframe", "1d"),
	})
	if err != nil {
		h.respondLevelsError(w, r, err)
		return
	}

	support, resistance := levels.NearestLevels(result)
	h.jsonResponse(w, map[string]any{
		"symbol":             symbol,
		"current_price":      result.CurrentPrice,
		"nearest_support":    support,
		"nearest_resistance": resistance,
		"status":             "success",
	})
}

// HandleLevelsHealth implements GET /api/v1/levels/health.
func (h *Handler) HandleLevelsHealth(w http.ResponseWriter, r *http.Request) {
	status := h.app.LevelsAgent.HealthCheck(r.Context())
	h.jsonResponse(w, map[string]any{
		"status":  "ok",
		"healthy": status.Healthy,
	})
}

// HandleCircuitBreakerStatus reports the state of every upstream circuit
// breaker, for operational visibility alongside the pipeline health checks.
func (h *Handler) HandleCircuitBreakerStatus(w http.ResponseWriter, r *http.Request) {
	h.jsonResponse(w, services.GetGlobalRegistry().Status())
}

func (h *Handler) respondDetect(w http.ResponseWriter, r *http.Request, result levels.DetectResult, err error) {
	if err != nil {
		h.respondLevelsError(w, r, err)
		return
	}
	h.jsonResponse(w, result)
}

// respondLevelsError maps a level-detection error to the HTTP status the
// error handling design calls for: UnsupportedTimeframe is a client error
// (400), InsufficientData is a 200 carrying a DetectResult with
// status="error", and everything else is an internal error (500) with an
// error+trace body.
func (h *Handler) respondLevelsError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, models.ErrUnsupportedTimeframe) {
		h.jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}
	if errors.Is(err, models.ErrInsufficientData) {
		h.jsonResponse(w, levels.DetectResult{Status: "error", Message: err.Error()})
		return
	}
	h.jsonErrorWithTrace(w, r, err, http.StatusInternalServerError)
}

func (h *Handler) jsonResponse(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(data)
}

func (h *Handler) jsonError(w http.ResponseWriter, message string, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}

func (h *Handler) jsonErrorWithTrace(w http.ResponseWriter, r *http.Request, err error, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": err.Error(), "trace": TraceIDFromContext(r.Context())})
}

func queryString(r *http.Request, key, defaultValue string) string {
	if v := r.URL.Query().Get(key); v != "" {
		return v
	}
	return defaultValue
}

func queryInt(r *http.Request, key string, defaultValue int) int {
	if v := r.URL.Query().Get(key); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func queryFloat(r *http.Request, key string, defaultValue float64) float64 {
	if v := r.URL.Query().Get(key); v != "" {
		if parsed, err := strconv.ParseFloat(v, 64); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func queryBool(r *http.Request, key string, defaultValue bool) bool {
	if v := r.URL.Query().Get(key); v != "" {
		if parsed, err := strconv.ParseBool(v); err == nil {
			return parsed
		}
	}
	return defaultValue
}
