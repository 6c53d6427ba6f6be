// Package pricing computes live regional market rates for construction
// projects and enriches AI-estimated analyses with them.
//
// The engine is cache-first: responses are keyed by (region, projectType,
// scale) with a bounded TTL, and entries are immutable once written. Fresh
// computation multiplies each reference rate by region and seasonal
// factors, with an additional demand factor on labor for high-demand
// project types. Writes are idempotent re-computations, so concurrent
// requests need no coordination beyond the cache lock.
package pricing

import (
	"context"
	"fmt"
	"math"
	"strings"
	"sync"
	"time"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
	"github.com/rs/zerolog/log"

	"github.com/buildquote/buildquote/pkg/models"
)

// Multipliers applied outside the region/season tables.
const (
	demandMultiplier        = 1.15
	accessibilityLargeScale = 1.05
	// regionPremiumThreshold triggers the disclosure warning during
	// enrichment.
	regionPremiumThreshold = 1.15
)

// FetchError reports that fresh pricing data could not be computed. It is
// non-fatal: analysis proceeds without enrichment.
type FetchError struct {
	Key string
	Err error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("pricing fetch for %s failed: %v", e.Key, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// Options configures the engine.
type Options struct {
	CacheTTL              time.Duration
	AllowEstimateFallback bool
	// HighDemandRules are boolean expr expressions over {projectType,
	// scale}; any match applies the labor demand multiplier.
	HighDemandRules []string
	// Now overrides the clock, for tests. Defaults to time.Now.
	Now func() time.Time
}

type cacheEntry struct {
	resp    *models.PricingResponse
	expires time.Time
}

// Engine serves market pricing data with a TTL cache over a rate source.
type Engine struct {
	src           RateSource
	ttl           time.Duration
	allowEstimate bool
	demandRules   []*vm.Program
	now           func() time.Time

	mu    sync.RWMutex
	cache map[string]cacheEntry
}

// demandEnv is the evaluation environment for high-demand rules.
var demandEnv = map[string]interface{}{
	"projectType": "",
	"scale":       "",
}

// NewEngine creates a pricing engine. Invalid demand rules fail fast here
// rather than at request time.
func NewEngine(src RateSource, opts Options) (*Engine, error) {
	if opts.CacheTTL <= 0 {
		opts.CacheTTL = 30 * time.Minute
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	var rules []*vm.Program
	for _, rule := range opts.HighDemandRules {
		program, err := expr.Compile(rule, expr.Env(demandEnv), expr.AsBool())
		if err != nil {
			return nil, fmt.Errorf("compile demand rule %q: %w", rule, err)
		}
		rules = append(rules, program)
	}

	return &Engine{
		src:           src,
		ttl:           opts.CacheTTL,
		allowEstimate: opts.AllowEstimateFallback,
		demandRules:   rules,
		now:           opts.Now,
		cache:         make(map[string]cacheEntry),
	}, nil
}

// GetPricingData returns current market rates for the context, cache-first.
// When fresh computation fails and estimate fallback is permitted, a fixed
// unit-multiplier estimate is returned instead of an error.
func (e *Engine) GetPricingData(ctx context.Context, pctx models.PricingContext) (*models.PricingResponse, error) {
	key := pctx.CacheKey()

	e.mu.RLock()
	entry, ok := e.cache[key]
	e.mu.RUnlock()
	if ok && e.now().Before(entry.expires) {
		return entry.resp, nil
	}

	resp, err := e.compute(ctx, pctx)
	if err != nil {
		if e.allowEstimate {
			log.Warn().Err(err).Str("key", key).Msg("pricing computation failed, returning fallback estimate")
			return fallbackEstimate(e.now()), nil
		}
		return nil, &FetchError{Key: key, Err: err}
	}

	e.mu.Lock()
	e.cache[key] = cacheEntry{resp: resp, expires: e.now().Add(e.ttl)}
	e.mu.Unlock()

	return resp, nil
}

// compute builds a fresh pricing response from the reference dataset.
func (e *Engine) compute(ctx context.Context, pctx models.PricingContext) (*models.PricingResponse, error) {
	rates, err := e.src.Load(ctx)
	if err != nil {
		return nil, err
	}

	factors := e.factorsFor(rates, pctx)
	base := factors.Region * factors.Seasonal

	resp := &models.PricingResponse{
		Factors:     factors,
		GeneratedAt: e.now().UTC(),
	}

	for _, t := range rates.Tools {
		t.DailyRate = round2(t.DailyRate * base)
		t.WeeklyRate = round2(t.WeeklyRate * base)
		resp.Tools = append(resp.Tools, t)
	}
	for _, m := range rates.Materials {
		m.UnitPrice = round2(m.UnitPrice * base)
		resp.Materials = append(resp.Materials, m)
	}
	for _, a := range rates.Aggregates {
		a.UnitPrice = round2(a.UnitPrice * base)
		resp.Aggregates = append(resp.Aggregates, a)
	}
	// Demand pressure shows up in labor rates only; material prices track
	// supply, not trade availability.
	laborFactor := base * factors.Demand
	for _, l := range rates.Labor {
		l.HourlyMin = round2(l.HourlyMin * laborFactor)
		l.HourlyMax = round2(l.HourlyMax * laborFactor)
		l.DailyRate = round2(l.DailyRate * laborFactor)
		resp.Labor = append(resp.Labor, l)
	}

	resp.Recommendations = recommendationsFor(factors)
	return resp, nil
}

// factorsFor derives the multiplier set for a pricing context.
func (e *Engine) factorsFor(rates *ReferenceRates, pctx models.PricingContext) models.ContextFactors {
	region, ok := rates.RegionMultipliers[pctx.Region]
	if !ok {
		region = 1.0
	}

	month := e.now().Month()
	seasonal := seasonalFactors[int(month)-1]

	demand := 1.0
	if e.isHighDemand(pctx) {
		demand = demandMultiplier
	}

	accessibility := 1.0
	if pctx.Scale == models.ScaleLarge {
		accessibility = accessibilityLargeScale
	}

	return models.ContextFactors{
		Region:        region,
		Seasonal:      seasonal,
		Demand:        demand,
		Accessibility: accessibility,
	}
}

// isHighDemand evaluates the configured demand rules against the context.
// A rule that fails to evaluate is skipped, not fatal.
func (e *Engine) isHighDemand(pctx models.PricingContext) bool {
	env := map[string]interface{}{
		"projectType": strings.ToLower(pctx.ProjectType),
		"scale":       string(pctx.Scale),
	}
	for _, program := range e.demandRules {
		out, err := expr.Run(program, env)
		if err != nil {
			log.Warn().Err(err).Msg("demand rule evaluation failed")
			continue
		}
		if matched, ok := out.(bool); ok && matched {
			return true
		}
	}
	return false
}

func recommendationsFor(factors models.ContextFactors) []string {
	var recs []string
	if factors.Seasonal > 1.05 {
		recs = append(recs, "Peak construction season: book trades and plant hire early to avoid delays.")
	}
	if factors.Seasonal < 1.0 {
		recs = append(recs, "Winter rates are below seasonal average; weather-dependent work may still slip.")
	}
	if factors.Demand > 1.0 {
		recs = append(recs, "This project type is in high demand; expect longer lead times for specialist trades.")
	}
	return recs
}

// fallbackEstimate is the fixed response returned when fresh data cannot be
// computed: unit multipliers, no rates, one explanatory recommendation.
func fallbackEstimate(now time.Time) *models.PricingResponse {
	return &models.PricingResponse{
		Factors: models.ContextFactors{
			Region:        1.0,
			Seasonal:      1.0,
			Demand:        1.0,
			Accessibility: 1.0,
		},
		Recommendations: []string{
			"Live market pricing was unavailable; figures reflect national averages without regional adjustment.",
		},
		Estimated:   true,
		GeneratedAt: now.UTC(),
	}
}

// round2 rounds to pence, matching the precision of the source rates.
func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
