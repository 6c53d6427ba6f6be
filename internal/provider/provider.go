// Package provider wraps external AI analysis backends behind a uniform
// capability contract. Each adapter translates the canonical analysis
// request into its backend's wire protocol, invokes the backend, and
// returns the raw response text for the normalizer to parse. Adapters never
// swallow malformed responses; they propagate typed failures so the
// orchestrator can fall back.
package provider

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/buildquote/buildquote/pkg/models"
)

// DegradedLatency is the round-trip threshold above which a healthy
// provider is reported as degraded.
const DegradedLatency = 2500 * time.Millisecond

// Provider is the uniform contract every analysis backend satisfies.
type Provider interface {
	// Name is the registry key for this adapter.
	Name() string

	// IsAvailable reports whether the adapter is configured well enough
	// to attempt a call (credentials present, endpoint known).
	IsAvailable() bool

	// HealthCheck probes the backend and classifies its status.
	HealthCheck(ctx context.Context) models.ProviderHealth

	// Analyze sends the request to the backend and returns the raw
	// response text. The text is expected to contain one JSON object but
	// is not parsed here.
	Analyze(ctx context.Context, req *models.AnalysisRequest, pctx *models.ProjectContext) (string, error)
}

// TimeoutError reports that a provider attempt exceeded its deadline.
// It is retried via fallback and never surfaced to callers.
type TimeoutError struct {
	Provider string
	Timeout  time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("provider %s timed out after %s", e.Provider, e.Timeout)
}

// InvalidResponseError reports malformed or missing JSON in a provider
// response. It is retried via fallback and never surfaced to callers.
type InvalidResponseError struct {
	Provider string
	Reason   string
}

func (e *InvalidResponseError) Error() string {
	return fmt.Sprintf("provider %s returned an invalid response: %s", e.Provider, e.Reason)
}

// newHTTPClient builds the shared client configuration for adapters. The
// per-attempt deadline is owned by the orchestrator's context, so the
// client itself carries only a generous safety timeout.
func newHTTPClient() *http.Client {
	return &http.Client{Timeout: 120 * time.Second}
}

// systemPrompt instructs the backend to respond with the canonical analysis
// schema. Project context narrows the estimate bands.
func systemPrompt(pctx *models.ProjectContext) string {
	var b strings.Builder
	b.WriteString("You are a UK construction project estimator. ")
	b.WriteString("Analyse the described project and respond with a single JSON object containing: ")
	b.WriteString(`projectType, description, difficulty (simple|moderate|complex), responseMode (analysis|clarification), `)
	b.WriteString(`costs {materials {min,max,items[{name,quantity,unit,unitPrice,total}]}, labor {min,max,hourlyRate,estimatedHours}}, `)
	b.WriteString(`timeline {diy,professional,phases[{name,duration,description}]}, `)
	b.WriteString(`tools[{name,category,dailyRate,estimatedDays,required}], safetyNotes[], permits[], `)
	b.WriteString(`requiresProfessional, professionalReasons[], confidence (0-100), recommendations[], warnings[]. `)
	b.WriteString("All prices in GBP. Respond with JSON only.")
	if pctx != nil {
		fmt.Fprintf(&b, " Project context: region=%s, scale=%s, tier=%s.", pctx.Region, pctx.Scale, pctx.Tier)
		if pctx.ProjectType != "" {
			fmt.Fprintf(&b, " Declared project type: %s.", pctx.ProjectType)
		}
	}
	return b.String()
}

// userMessage builds the final user turn from the request message.
func userMessage(req *models.AnalysisRequest) string {
	if req.Message != "" {
		return req.Message
	}
	return "Analyse the attached project photo and produce a cost estimate."
}
