// Package handlers implements the HTTP handlers for the BuildQuote quote
// engine: project analysis, the pricing query surface, and the aggregate
// provider health probe used by external monitoring.
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/buildquote/buildquote/internal/orchestrator"
	"github.com/buildquote/buildquote/internal/pricing"
	"github.com/buildquote/buildquote/pkg/models"
)

// Handlers holds all handler dependencies.
type Handlers struct {
	Orchestrator *orchestrator.Orchestrator
	Pricing      *pricing.Engine
}

// New creates a new Handlers instance.
func New(o *orchestrator.Orchestrator, eng *pricing.Engine) *Handlers {
	return &Handlers{Orchestrator: o, Pricing: eng}
}

// AnalyzeProject accepts an analysis request and returns the analyze
// envelope. The only failure callers ever see is a malformed request;
// provider and pricing failures degrade to a low-confidence analysis.
func (h *Handlers) AnalyzeProject(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	var req models.AnalysisRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSON(w, http.StatusBadRequest, models.AnalyzeResponse{
			Success:          false,
			Error:            &models.APIError{Message: "Invalid request body", Details: err.Error()},
			ProcessingTimeMs: time.Since(start).Milliseconds(),
		})
		return
	}

	analysis, err := h.Orchestrator.Analyze(r.Context(), &req)
	if err != nil {
		var invalid *models.InvalidRequestError
		if errors.As(err, &invalid) {
			respondJSON(w, http.StatusBadRequest, models.AnalyzeResponse{
				Success:          false,
				Error:            &models.APIError{Message: invalid.Reason},
				ProcessingTimeMs: time.Since(start).Milliseconds(),
			})
			return
		}
		// Analyze only ever returns InvalidRequestError; anything else
		// here is an orchestrator regression.
		log.Error().Err(err).Msg("unexpected orchestrator failure")
		respondJSON(w, http.StatusInternalServerError, models.AnalyzeResponse{
			Success:          false,
			Error:            &models.APIError{Message: "analysis failed"},
			ProcessingTimeMs: time.Since(start).Milliseconds(),
		})
		return
	}

	respondJSON(w, http.StatusOK, models.AnalyzeResponse{
		Success:          true,
		Data:             analysis,
		ProcessingTimeMs: analysis.ProcessingTimeMs,
		AIProvider:       analysis.AIProvider,
	})
}

// ProviderHealth returns the aggregate health of all registered providers.
func (h *Handlers) ProviderHealth(w http.ResponseWriter, r *http.Request) {
	result := h.Orchestrator.HealthCheck(r.Context())
	respondJSON(w, http.StatusOK, result)
}

// GetPricing exposes the pricing engine directly for the monitoring
// collaborator and for pre-quote UI hints.
func (h *Handlers) GetPricing(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	pctx := models.PricingContext{
		Region:      q.Get("region"),
		ProjectType: q.Get("projectType"),
		Scale:       models.ProjectScale(q.Get("scale")),
	}
	if pctx.Region == "" {
		pctx.Region = "uk-average"
	}
	if pctx.Scale == "" {
		pctx.Scale = models.ScaleMedium
	}

	resp, err := h.Pricing.GetPricingData(r.Context(), pctx)
	if err != nil {
		respondError(w, http.StatusServiceUnavailable, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, resp)
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}
