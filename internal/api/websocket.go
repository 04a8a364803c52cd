package api

import (
	"net/http"

	"github.com/gorilla/websocket"

	"tickerpulse/models"
	"tickerpulse/news"
	"tickerpulse/observability"
	"tickerpulse/sentiment"
)

// upgrader accepts connections from any origin; the facade is read-only and
// carries no credentials, so CORS-style origin checks add no protection here.
var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// HandleVisualizeStream upgrades to a websocket connection and republishes
// the same three pipeline step events the synchronous visualize endpoint
// returns, one message per completed step, so a UI can render progress
// instead of blocking on the full response. Additive to, not a replacement
// for, HandleVisualizePipeline.
func (h *Handler) HandleVisualizeStream(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		observability.Warn("websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	var req VisualizeRequest
	if err := conn.ReadJSON(&req); err != nil {
		conn.WriteJSON(map[string]string{"error": "invalid request: " + err.Error()})
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
		conn.WriteJSON(map[string]string{"error": err.Error()})
		return
	}

	ctx := r.Context()

	fetchResult, step := h.runStep(ctx, "news_fetch_agent", func() (any, error) {
		return h.app.NewsFetchAgent.Process(ctx, req.Symbol, news.FetchParamsRequest{
			TimeHorizon:  req.TimeHorizon,
			Limit:        req.MaxArticles,
			MinRelevance: req.MinRelevance,
		})
	})
	if conn.WriteJSON(step) != nil || step.Status == "error" {
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
	if conn.WriteJSON(step) != nil || step.Status == "error" {
		return
	}
	scored := sentimentResult.(sentiment.SentimentResult)

	_, step = h.runStep(ctx, "sentiment_aggregator", func() (any, error) {
		return h.app.Aggregator.Process(ctx, req.Symbol, sentiment.AggregationParams{
			SentimentScores: scored.SentimentScores,
			TimeWeighted:    true,
			TimeHorizon:     req.TimeHorizon,
		})
	})
	conn.WriteJSON(step)
}
