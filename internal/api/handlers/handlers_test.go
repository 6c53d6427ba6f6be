package handlers_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/buildquote/buildquote/internal/api"
	"github.com/buildquote/buildquote/internal/api/handlers"
	"github.com/buildquote/buildquote/internal/config"
	"github.com/buildquote/buildquote/internal/orchestrator"
	"github.com/buildquote/buildquote/internal/pricing"
	"github.com/buildquote/buildquote/pkg/models"
)

type stubProvider struct {
	name     string
	response string
}

func (s *stubProvider) Name() string      { return s.name }
func (s *stubProvider) IsAvailable() bool { return true }

func (s *stubProvider) HealthCheck(ctx context.Context) models.ProviderHealth {
	return models.ProviderHealth{Status: models.StatusHealthy, LatencyMs: 12}
}

func (s *stubProvider) Analyze(ctx context.Context, req *models.AnalysisRequest, pctx *models.ProjectContext) (string, error) {
	return s.response, nil
}

const stubResponse = `{"projectType": "decking", "description": "Garden decking",
 "difficulty": "moderate",
 "costs": {"materials": {"min": 400, "max": 800}, "labor": {"min": 500, "max": 900}},
 "confidence": 80}`

func newTestHandler(t *testing.T) http.Handler {
	t.Helper()

	eng, err := pricing.NewEngine(pricing.NewStaticSource(), pricing.Options{})
	if err != nil {
		t.Fatalf("NewEngine() error = %v", err)
	}

	orch := orchestrator.New(orchestrator.Config{
		Primary:       "openai",
		FallbackOrder: []string{},
		Timeout:       2 * time.Second,
		AllowFallback: true,
	}, eng)
	orch.Register(&stubProvider{name: "openai", response: stubResponse})

	return api.NewRouter(config.Load(), handlers.New(orch, eng))
}

func TestAnalyzeProject_OK(t *testing.T) {
	h := newTestHandler(t)

	body := `{"message": "build garden decking", "context": {"location": "Manchester"}}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/analyze", strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d: %s", rec.Code, http.StatusOK, rec.Body.String())
	}

	var resp models.AnalyzeResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !resp.Success {
		t.Error("Success = false, want true")
	}
	if resp.Data == nil {
		t.Fatal("Data is nil")
	}
	if resp.AIProvider != "openai" {
		t.Errorf("AIProvider = %q, want %q", resp.AIProvider, "openai")
	}
	if resp.Data.ProjectType != "decking" {
		t.Errorf("ProjectType = %q, want %q", resp.Data.ProjectType, "decking")
	}
}

func TestAnalyzeProject_EmptyRequest(t *testing.T) {
	h := newTestHandler(t)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/analyze", strings.NewReader(`{}`))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}

	var resp models.AnalyzeResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Success {
		t.Error("Success = true, want false")
	}
	if resp.Error == nil || resp.Error.Message == "" {
		t.Error("Error should carry a reason")
	}
}

func TestAnalyzeProject_MalformedBody(t *testing.T) {
	h := newTestHandler(t)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/analyze", strings.NewReader(`{not json`))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
}

func TestProviderHealth(t *testing.T) {
	h := newTestHandler(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/providers/health", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}

	var result map[string]models.ProviderHealth
	if err := json.NewDecoder(rec.Body).Decode(&result); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if result["openai"].Status != models.StatusHealthy {
		t.Errorf("openai status = %q, want %q", result["openai"].Status, models.StatusHealthy)
	}
}

func TestGetPricing(t *testing.T) {
	h := newTestHandler(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/pricing?region=london&projectType=decking", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}

	var resp models.PricingResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Factors.Region != 1.28 {
		t.Errorf("region factor = %v, want 1.28", resp.Factors.Region)
	}
	if len(resp.Labor) == 0 {
		t.Error("pricing response should carry labor rates")
	}
}

func TestHealthEndpoint(t *testing.T) {
	h := newTestHandler(t)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	if !strings.Contains(rec.Body.String(), "healthy") {
		t.Errorf("body = %s, want a healthy status", rec.Body.String())
	}
}
