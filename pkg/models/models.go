// Package models defines the canonical data model shared by the BuildQuote
// quote engine: the inbound analysis request, the derived project context,
// the structured project analysis returned to callers, and the pricing
// engine's input/output types.
package models

import (
	"fmt"
	"time"
)

// ── Inbound Request ──────────────────────────────────────────

// ChatMessage is a single turn of prior conversation history.
type ChatMessage struct {
	Role    string `json:"role"` // "user", "assistant", "system"
	Content string `json:"content"`
}

// BudgetRange is the caller's declared budget in GBP.
type BudgetRange struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// Midpoint returns the midpoint of the range.
func (b BudgetRange) Midpoint() float64 {
	return (b.Min + b.Max) / 2
}

// RequestContext carries the loosely-structured hints a caller may attach
// to an analysis request.
type RequestContext struct {
	ProjectType       string       `json:"projectType,omitempty"`
	BudgetRange       *BudgetRange `json:"budgetRange,omitempty"`
	Location          string       `json:"location,omitempty"`
	PreferredProvider string       `json:"preferredProvider,omitempty"`
}

// AnalysisRequest is the input to the orchestration core. At least one of
// ImageRef or Message must be present.
type AnalysisRequest struct {
	ImageRef string          `json:"imageRef,omitempty"` // data: URI or fetchable HTTP URL
	Message  string          `json:"message,omitempty"`
	Context  *RequestContext `json:"context,omitempty"`
	History  []ChatMessage   `json:"history,omitempty"`
	UserID   string          `json:"userId,omitempty"`
}

// Validate checks the request invariant. The returned error is the only
// error condition ever surfaced to callers.
func (r *AnalysisRequest) Validate() error {
	if r.ImageRef == "" && r.Message == "" {
		return &InvalidRequestError{Reason: "request must include an image or a message"}
	}
	return nil
}

// PreferredProvider returns the explicit provider preference, if any.
func (r *AnalysisRequest) PreferredProvider() string {
	if r.Context == nil {
		return ""
	}
	return r.Context.PreferredProvider
}

// InvalidRequestError reports a malformed inbound request. It is surfaced
// immediately and never retried.
type InvalidRequestError struct {
	Reason string
}

func (e *InvalidRequestError) Error() string {
	return "invalid request: " + e.Reason
}

// ── Project Context ──────────────────────────────────────────

// ProjectScale classifies a project by budget midpoint.
type ProjectScale string

const (
	ScaleSmall  ProjectScale = "small"
	ScaleMedium ProjectScale = "medium"
	ScaleLarge  ProjectScale = "large"
)

// PriceTier classifies a project by price-range expectation.
type PriceTier string

const (
	TierBudget  PriceTier = "budget"
	TierMid     PriceTier = "mid"
	TierPremium PriceTier = "premium"
)

// ProjectContext is derived once per request and never mutated afterwards.
// It feeds both the provider prompts and the pricing engine.
type ProjectContext struct {
	Region      string       `json:"region"`     // resolved region code, e.g. "north-west"
	RegionName  string       `json:"regionName"` // human-readable region label
	Scale       ProjectScale `json:"scale"`
	Tier        PriceTier    `json:"tier"`
	ProjectType string       `json:"projectType"`
	Location    string       `json:"location,omitempty"`
}

// PricingContext returns the pricing engine input for this project.
func (p *ProjectContext) PricingContext() PricingContext {
	return PricingContext{
		Region:      p.Region,
		ProjectType: p.ProjectType,
		Scale:       p.Scale,
	}
}

// ── Project Analysis ─────────────────────────────────────────

// CostRange is a min/max band in GBP.
type CostRange struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// CostLine is one itemized cost entry.
type CostLine struct {
	Name      string  `json:"name"`
	Quantity  float64 `json:"quantity,omitempty"`
	Unit      string  `json:"unit,omitempty"`
	UnitPrice float64 `json:"unitPrice"`
	Total     float64 `json:"total"`
}

// MaterialsCost is the materials portion of a cost breakdown.
type MaterialsCost struct {
	Min   float64    `json:"min"`
	Max   float64    `json:"max"`
	Items []CostLine `json:"items,omitempty"`
}

// LaborCost is the labor portion of a cost breakdown.
type LaborCost struct {
	Min            float64 `json:"min"`
	Max            float64 `json:"max"`
	HourlyRate     float64 `json:"hourlyRate,omitempty"`
	EstimatedHours float64 `json:"estimatedHours,omitempty"`
}

// CostBreakdown is the full cost estimate. The invariant
// Total.Min == Materials.Min + Labor.Min (and the same for Max) holds on
// every analysis the core returns.
type CostBreakdown struct {
	Materials MaterialsCost `json:"materials"`
	Labor     LaborCost     `json:"labor"`
	Total     CostRange     `json:"total"`
}

// RecomputeTotal re-derives the total band from materials and labor.
func (c *CostBreakdown) RecomputeTotal() {
	c.Total.Min = c.Materials.Min + c.Labor.Min
	c.Total.Max = c.Materials.Max + c.Labor.Max
}

// TimelinePhase is one ordered phase of the project plan.
type TimelinePhase struct {
	Name        string `json:"name"`
	Duration    string `json:"duration"`
	Description string `json:"description,omitempty"`
}

// Timeline estimates project duration for DIY and professional execution.
type Timeline struct {
	DIY          string          `json:"diy"`
	Professional string          `json:"professional"`
	Phases       []TimelinePhase `json:"phases"`
}

// ToolRequirement is one tool or piece of plant the project needs.
type ToolRequirement struct {
	Name          string  `json:"name"`
	Category      string  `json:"category,omitempty"`
	DailyRate     float64 `json:"dailyRate"`
	EstimatedDays int     `json:"estimatedDays"`
	Required      bool    `json:"required"`
}

// ProjectAnalysis is the terminal artifact of the orchestration pipeline:
// a complete, schema-valid cost and timeline estimate.
type ProjectAnalysis struct {
	ProjectType          string            `json:"projectType"`
	Description          string            `json:"description"`
	Difficulty           string            `json:"difficulty"`   // simple | moderate | complex
	ResponseMode         string            `json:"responseMode"` // analysis | clarification
	Costs                CostBreakdown     `json:"costs"`
	Timeline             Timeline          `json:"timeline"`
	Tools                []ToolRequirement `json:"tools"`
	SafetyNotes          []string          `json:"safetyNotes"`
	Permits              []string          `json:"permits"`
	RequiresProfessional bool              `json:"requiresProfessional"`
	ProfessionalReasons  []string          `json:"professionalReasons,omitempty"`
	Confidence           float64           `json:"confidence"` // always within [0,100]
	Recommendations      []string          `json:"recommendations"`
	Warnings             []string          `json:"warnings"`

	AnalysisID       string    `json:"analysisId"`
	GeneratedAt      time.Time `json:"generatedAt"`
	AIProvider       string    `json:"aiProvider"`
	ProcessingTimeMs int64     `json:"processingTimeMs"`
}

// ── Pricing ──────────────────────────────────────────────────

// PricingContext is the pricing engine's input and its cache key source.
type PricingContext struct {
	Region      string       `json:"region"`
	ProjectType string       `json:"projectType"`
	Scale       ProjectScale `json:"scale"`
	Timeline    string       `json:"timeline,omitempty"`
	Preference  string       `json:"preference,omitempty"`
}

// CacheKey identifies a cache entry for this context.
func (p PricingContext) CacheKey() string {
	return fmt.Sprintf("%s|%s|%s", p.Region, p.ProjectType, p.Scale)
}

// ToolRate is a current tool-hire rate.
type ToolRate struct {
	Name       string  `json:"name"`
	Category   string  `json:"category"`
	DailyRate  float64 `json:"dailyRate"`
	WeeklyRate float64 `json:"weeklyRate,omitempty"`
}

// MaterialRate is a current material price.
type MaterialRate struct {
	Name      string  `json:"name"`
	Unit      string  `json:"unit"`
	UnitPrice float64 `json:"unitPrice"`
}

// AggregateRate is a current bulk-aggregate price.
type AggregateRate struct {
	Name      string  `json:"name"`
	Unit      string  `json:"unit"`
	UnitPrice float64 `json:"unitPrice"`
}

// LaborRate is a current trade labor rate.
type LaborRate struct {
	Trade     string  `json:"trade"`
	HourlyMin float64 `json:"hourlyMin"`
	HourlyMax float64 `json:"hourlyMax"`
	DailyRate float64 `json:"dailyRate,omitempty"`
}

// Average returns the midpoint hourly rate for the trade.
func (l LaborRate) Average() float64 {
	return (l.HourlyMin + l.HourlyMax) / 2
}

// ContextFactors are the multipliers applied to reference rates.
type ContextFactors struct {
	Region        float64 `json:"region"`
	Seasonal      float64 `json:"seasonal"`
	Demand        float64 `json:"demand"`
	Accessibility float64 `json:"accessibility"`
}

// PricingResponse carries live market rates plus the multipliers that
// produced them. Cached entries are immutable once written.
type PricingResponse struct {
	Tools           []ToolRate      `json:"tools"`
	Materials       []MaterialRate  `json:"materials"`
	Aggregates      []AggregateRate `json:"aggregates"`
	Labor           []LaborRate     `json:"labor"`
	Factors         ContextFactors  `json:"contextFactors"`
	Recommendations []string        `json:"recommendations"`
	Estimated       bool            `json:"estimated,omitempty"` // true for the fixed fallback estimate
	GeneratedAt     time.Time       `json:"generatedAt"`
}

// ── Provider Health ──────────────────────────────────────────

// ProviderStatus is the coarse health classification of a provider.
type ProviderStatus string

const (
	StatusHealthy  ProviderStatus = "healthy"
	StatusDegraded ProviderStatus = "degraded"
	StatusDown     ProviderStatus = "down"
)

// ProviderHealth is the result of one provider health probe.
type ProviderHealth struct {
	Status    ProviderStatus `json:"status"`
	LatencyMs int64          `json:"latencyMs,omitempty"`
	Error     string         `json:"error,omitempty"`
}

// ── API Envelope ─────────────────────────────────────────────

// APIError is the error payload of the analyze envelope.
type APIError struct {
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

// AnalyzeResponse is the envelope returned by the analyze endpoint.
type AnalyzeResponse struct {
	Success          bool             `json:"success"`
	Data             *ProjectAnalysis `json:"data,omitempty"`
	Error            *APIError        `json:"error,omitempty"`
	ProcessingTimeMs int64            `json:"processingTimeMs"`
	AIProvider       string           `json:"aiProvider,omitempty"`
}
