package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"

	"tickerpulse/config"
	"tickerpulse/internal/app"
	"tickerpulse/levels"
	"tickerpulse/models"
)

func newTestHandler(t *testing.T) *Handler {
	t.Helper()
	cfg := config.NewTestConfig()
	cfg.Pipeline.UseMockData = true
	a, err := app.New(cfg)
	if err != nil {
		t.Fatalf("unexpected error building app: %v", err)
	}
	return NewHandler(a)
}

func withChiContext(r *http.Request, params map[string]string) *http.Request {
	rctx := chi.NewRouteContext()
	for k, v := range params {
		rctx.URLParams.Add(k, v)
	}
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

func TestValidateSymbol(t *testing.T) {
	h := &Handler{}
	cases := []struct {
		symbol  string
		wantErr bool
	}{
		{"AAPL", false},
		{"BRK.B", false},
		{"", true},
		{"TOOLONGSYMBOLNAME", true},
		{"aapl!", true},
	}
	for _, c := range cases {
		err := h.ValidateSymbol(c.symbol)
		if (err != nil) != c.wantErr {
			t.Errorf("ValidateSymbol(%q): got err=%v, wantErr=%v", c.symbol, err, c.wantErr)
		}
	}
}

func TestHandleVisualizePipeline_Success(t *testing.T) {
	h := newTestHandler(t)

	body, _ := json.Marshal(VisualizeRequest{Symbol: "AAPL", TimeHorizon: models.Horizon1d})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/news-pipeline/visualize", bytes.NewReader(body))
	w := httptest.NewRecorder()

	h.HandleVisualizePipeline(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var resp VisualizeResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid JSON response: %v", err)
	}
	if resp.Status != "success" {
		t.Errorf("expected status success, got %s (error=%s)", resp.Status, resp.Error)
	}
	if len(resp.Steps) != 3 {
		t.Errorf("expected 3 pipeline steps, got %d", len(resp.Steps))
	}
}

func TestHandleVisualizePipeline_InvalidSymbolReturns400(t *testing.T) {
	h := newTestHandler(t)

	body, _ := json.Marshal(VisualizeRequest{Symbol: ""})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/news-pipeline/visualize", bytes.NewReader(body))
	w := httptest.NewRecorder()

	h.HandleVisualizePipeline(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", w.Code)
	}
}

func TestHandleNewsPipelineHealth(t *testing.T) {
	h := newTestHandler(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/news-pipeline/health", nil)
	w := httptest.NewRecorder()

	h.HandleNewsPipelineHealth(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var resp map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid JSON response: %v", err)
	}
	agents, ok := resp["agents_initialized"].(map[string]any)
	if !ok {
		t.Fatalf("expected agents_initialized map in response")
	}
	for _, key := range []string{"news_fetch_agent", "llm_sentiment_agent", "sentiment_aggregator"} {
		if healthy, ok := agents[key].(bool); !ok || !healthy {
			t.Errorf("expected %s to report healthy", key)
		}
	}
}

func TestHandleGetLevels_UnsupportedTimeframeReturns400(t *testing.T) {
	h := newTestHandler(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/levels/AAPL?timeframe=3d", nil)
	req = withChiContext(req, map[string]string{"symbol": "AAPL"})
	w := httptest.NewRecorder()

	h.HandleGetLevels(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", w.Code, w.Body.String())
	}
}

func TestHandleGetLevels_InvalidSymbolReturns400(t *testing.T) {
	h := newTestHandler(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/levels/", nil)
	req = withChiContext(req, map[string]string{"symbol": ""})
	w := httptest.NewRecorder()

	h.HandleGetLevels(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
}

func TestHandleGetLevels_Success(t *testing.T) {
	h := newTestHandler(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/levels/AAPL?min_strength=0&lookback_days=730", nil)
	req = withChiContext(req, map[string]string{"symbol": "AAPL"})
	w := httptest.NewRecorder()

	h.HandleGetLevels(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var result levels.DetectResult
	if err := json.Unmarshal(w.Body.Bytes(), &result); err != nil {
		t.Fatalf("invalid JSON response: %v", err)
	}
	if result.Status != "success" {
		t.Errorf("expected success status, got %s: %s", result.Status, result.Message)
	}
}

func TestHandleBatchDetectLevels_RequiresSymbols(t *testing.T) {
	h := newTestHandler(t)

	body, _ := json.Marshal(BatchDetectRequest{})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/levels/batch", bytes.NewReader(body))
	w := httptest.NewRecorder()

	h.HandleBatchDetectLevels(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
}

func TestHandleBatchDetectLevels_Success(t *testing.T) {
	h := newTestHandler(t)

	body, _ := json.Marshal(BatchDetectRequest{Symbols: []string{"AAPL", "MSFT"}, Timeframe: "1d"})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/levels/batch", bytes.NewReader(body))
	w := httptest.NewRecorder()

	h.HandleBatchDetectLevels(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
}

func TestHandleNearestLevels_Success(t *testing.T) {
	h := newTestHandler(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/levels/AAPL/nearest", nil)
	req = withChiContext(req, map[string]string{"symbol": "AAPL"})
	w := httptest.NewRecorder()

	h.HandleNearestLevels(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
}

func TestHandleLevelsHealth(t *testing.T) {
	h := newTestHandler(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/levels/health", nil)
	w := httptest.NewRecorder()

	h.HandleLevelsHealth(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
}

func TestHandleCircuitBreakerStatus(t *testing.T) {
	h := newTestHandler(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/circuit-breakers", nil)
	w := httptest.NewRecorder()

	h.HandleCircuitBreakerStatus(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
}

func TestNewRouter_ServesHealthEndpoint(t *testing.T) {
	h := newTestHandler(t)
	cfg := config.NewTestConfig()
	router := NewRouter(h, cfg)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/levels/health", nil)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if w.Header().Get("X-Trace-Id") == "" {
		t.Error("expected X-Trace-Id header to be set by the middleware chain")
	}
}
