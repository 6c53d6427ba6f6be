// Package orchestrator implements the analysis pipeline: provider
// selection, timeout-bounded execution with ordered fallback,
// normalization, pricing enrichment, and the synthesized fallback analysis
// when every provider fails.
//
// Selection is deterministic and total — it always names a provider, even
// one that turns out to be unregistered, in which case execution falls
// through to the fallback chain. Providers are attempted strictly in
// configured order with a fresh timeout per attempt; there is no parallel
// speculative execution.
package orchestrator

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/buildquote/buildquote/internal/normalizer"
	"github.com/buildquote/buildquote/internal/pricing"
	"github.com/buildquote/buildquote/internal/provider"
	"github.com/buildquote/buildquote/internal/resolver"
	"github.com/buildquote/buildquote/pkg/models"
)

// historyComplexThreshold is the number of prior turns beyond which a
// conversation is routed to the conversational provider.
const historyComplexThreshold = 6

// complexKeywords route a declared project type to the conversational
// provider regardless of history length.
var complexKeywords = []string{"extension", "renovation"}

// Config controls provider selection and fallback behavior.
type Config struct {
	Primary        string
	FallbackOrder  []string
	Vision         string
	Conversational string
	Timeout        time.Duration
	AllowFallback  bool
}

// AllProvidersFailedError reports that every provider attempt was
// exhausted. It is absorbed by the fallback analysis generator and never
// surfaced to callers.
type AllProvidersFailedError struct {
	Attempts int
	LastErr  error
}

func (e *AllProvidersFailedError) Error() string {
	return fmt.Sprintf("all %d provider attempts failed, last error: %v", e.Attempts, e.LastErr)
}

func (e *AllProvidersFailedError) Unwrap() error { return e.LastErr }

// Orchestrator owns the provider registry and runs the analysis pipeline.
type Orchestrator struct {
	cfg      Config
	resolver *resolver.Resolver
	pricing  *pricing.Engine

	mu        sync.RWMutex
	providers map[string]provider.Provider
}

// New creates an orchestrator with an empty registry.
func New(cfg Config, eng *pricing.Engine) *Orchestrator {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	return &Orchestrator{
		cfg:       cfg,
		resolver:  resolver.New(),
		pricing:   eng,
		providers: make(map[string]provider.Provider),
	}
}

// Register adds a provider adapter to the registry, replacing any existing
// adapter with the same name.
func (o *Orchestrator) Register(p provider.Provider) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.providers[p.Name()] = p
}

// lookup resolves a provider by name.
func (o *Orchestrator) lookup(name string) (provider.Provider, bool) {
	o.mu.RLock()
	defer o.mu.RUnlock()
	p, ok := o.providers[name]
	return p, ok
}

// registered reports whether a provider name is in the registry.
func (o *Orchestrator) registered(name string) bool {
	_, ok := o.lookup(name)
	return ok
}

// SelectProvider names the provider for a request. Deterministic and total:
// it never fails, even if the named provider is unregistered.
func (o *Orchestrator) SelectProvider(req *models.AnalysisRequest) string {
	if pref := req.PreferredProvider(); pref != "" && o.registered(pref) {
		return pref
	}

	if req.ImageRef != "" && len(req.History) <= historyComplexThreshold && o.registered(o.cfg.Vision) {
		return o.cfg.Vision
	}

	if (len(req.History) > historyComplexThreshold || isComplexProject(req)) && o.registered(o.cfg.Conversational) {
		return o.cfg.Conversational
	}

	return o.cfg.Primary
}

func isComplexProject(req *models.AnalysisRequest) bool {
	if req.Context == nil {
		return false
	}
	pt := strings.ToLower(req.Context.ProjectType)
	for _, kw := range complexKeywords {
		if strings.Contains(pt, kw) {
			return true
		}
	}
	return false
}

// Analyze runs the full pipeline. The only error it ever returns is a
// malformed request; every other failure mode degrades to a lower-
// confidence but schema-valid analysis.
func (o *Orchestrator) Analyze(ctx context.Context, req *models.AnalysisRequest) (*models.ProjectAnalysis, error) {
	start := time.Now()

	if err := req.Validate(); err != nil {
		return nil, err
	}

	pctx := o.resolver.Resolve(req)

	analysis, providerName, fellBack, err := o.execute(ctx, req, pctx)
	if err != nil {
		log.Error().Err(err).Msg("all providers failed, synthesizing fallback analysis")
		analysis = fallbackAnalysis(pctx, err)
		providerName = "fallback"
	}

	o.enrich(ctx, analysis, pctx)

	if fellBack {
		analysis.Warnings = append(analysis.Warnings,
			fmt.Sprintf("Primary analysis service was unavailable; this estimate was produced by the %s fallback service.", providerName))
	}

	analysis.AnalysisID = uuid.New().String()
	analysis.GeneratedAt = time.Now().UTC()
	analysis.AIProvider = providerName
	analysis.ProcessingTimeMs = time.Since(start).Milliseconds()

	if analysis.ProjectType == "" || analysis.ProjectType == "general-construction" {
		if pctx.ProjectType != "" {
			analysis.ProjectType = pctx.ProjectType
		}
	}

	return analysis, nil
}

// execute walks the selected provider and then the fallback chain. It
// returns AllProvidersFailedError when every attempt is exhausted.
func (o *Orchestrator) execute(ctx context.Context, req *models.AnalysisRequest, pctx *models.ProjectContext) (*models.ProjectAnalysis, string, bool, error) {
	selected := o.SelectProvider(req)
	tried := map[string]bool{}
	attempts := 0

	analysis, err := o.attempt(ctx, selected, req, pctx)
	tried[selected] = true
	attempts++
	if err == nil {
		return analysis, selected, false, nil
	}

	if !o.cfg.AllowFallback {
		return nil, "", false, &AllProvidersFailedError{Attempts: attempts, LastErr: err}
	}

	lastErr := err
	for _, name := range o.cfg.FallbackOrder {
		if tried[name] {
			continue
		}
		tried[name] = true
		attempts++

		analysis, err = o.attempt(ctx, name, req, pctx)
		if err == nil {
			return analysis, name, true, nil
		}
		lastErr = err
	}

	return nil, "", false, &AllProvidersFailedError{Attempts: attempts, LastErr: lastErr}
}

// attempt runs one provider under a fresh per-attempt timeout and
// normalizes its output. A timer firing first counts as a provider
// failure; the in-flight call is released, and its stale result, if it
// ever resolves, is discarded.
func (o *Orchestrator) attempt(ctx context.Context, name string, req *models.AnalysisRequest, pctx *models.ProjectContext) (*models.ProjectAnalysis, error) {
	p, ok := o.lookup(name)
	if !ok {
		return nil, fmt.Errorf("provider %q not registered", name)
	}
	if !p.IsAvailable() {
		return nil, fmt.Errorf("provider %q not available", name)
	}

	attemptCtx, cancel := context.WithTimeout(ctx, o.cfg.Timeout)
	defer cancel()

	type result struct {
		raw string
		err error
	}
	ch := make(chan result, 1)
	go func() {
		raw, err := p.Analyze(attemptCtx, req, pctx)
		ch <- result{raw: raw, err: err}
	}()

	select {
	case res := <-ch:
		if res.err != nil {
			log.Warn().Str("provider", name).Err(res.err).Msg("provider call failed")
			return nil, res.err
		}
		analysis, err := normalizer.Normalize(name, res.raw)
		if err != nil {
			log.Warn().Str("provider", name).Err(err).Msg("provider response failed normalization")
			return nil, err
		}
		return analysis, nil
	case <-attemptCtx.Done():
		terr := &provider.TimeoutError{Provider: name, Timeout: o.cfg.Timeout}
		log.Warn().Str("provider", name).Dur("timeout", o.cfg.Timeout).Msg("provider attempt timed out")
		return nil, terr
	}
}

// enrich applies market pricing to the analysis. Pricing failures are
// non-fatal; the analysis proceeds un-enriched with a logged warning.
func (o *Orchestrator) enrich(ctx context.Context, analysis *models.ProjectAnalysis, pctx *models.ProjectContext) {
	if o.pricing == nil {
		return
	}
	resp, err := o.pricing.GetPricingData(ctx, pctx.PricingContext())
	if err != nil {
		log.Warn().Err(err).Msg("pricing enrichment skipped")
		return
	}
	pricing.Enrich(analysis, resp)
}

// HealthCheck probes every registered provider, for the diagnostic surface.
func (o *Orchestrator) HealthCheck(ctx context.Context) map[string]models.ProviderHealth {
	o.mu.RLock()
	names := make([]string, 0, len(o.providers))
	for name := range o.providers {
		names = append(names, name)
	}
	o.mu.RUnlock()

	result := make(map[string]models.ProviderHealth, len(names))
	for _, name := range names {
		p, ok := o.lookup(name)
		if !ok {
			continue
		}
		probeCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
		result[name] = p.HealthCheck(probeCtx)
		cancel()
	}
	return result
}
