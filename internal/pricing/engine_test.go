package pricing_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/buildquote/buildquote/internal/pricing"
	"github.com/buildquote/buildquote/pkg/models"
)

// failingSource always errors, standing in for an unreachable database.
type failingSource struct{}

func (failingSource) Load(ctx context.Context) (*pricing.ReferenceRates, error) {
	return nil, errors.New("connection refused")
}

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

// june is mid construction season: seasonal factor above 1.
var june = time.Date(2026, time.June, 15, 12, 0, 0, 0, time.UTC)

func newEngine(t *testing.T, opts pricing.Options) *pricing.Engine {
	t.Helper()
	if opts.Now == nil {
		opts.Now = fixedClock(june)
	}
	eng, err := pricing.NewEngine(pricing.NewStaticSource(), opts)
	if err != nil {
		t.Fatalf("NewEngine() error = %v", err)
	}
	return eng
}

func TestGetPricingData_CacheHitWithinTTL(t *testing.T) {
	eng := newEngine(t, pricing.Options{CacheTTL: 30 * time.Minute})
	pctx := models.PricingContext{Region: "london", ProjectType: "decking", Scale: models.ScaleMedium}

	first, err := eng.GetPricingData(context.Background(), pctx)
	if err != nil {
		t.Fatalf("GetPricingData() error = %v", err)
	}
	second, err := eng.GetPricingData(context.Background(), pctx)
	if err != nil {
		t.Fatalf("GetPricingData() error = %v", err)
	}

	if first != second {
		t.Error("second call within TTL should return the cached response")
	}
}

func TestGetPricingData_CacheExpiry(t *testing.T) {
	now := june
	eng := newEngine(t, pricing.Options{
		CacheTTL: 30 * time.Minute,
		Now:      func() time.Time { return now },
	})
	pctx := models.PricingContext{Region: "uk-average", Scale: models.ScaleMedium}

	first, err := eng.GetPricingData(context.Background(), pctx)
	if err != nil {
		t.Fatalf("GetPricingData() error = %v", err)
	}

	now = now.Add(31 * time.Minute)
	second, err := eng.GetPricingData(context.Background(), pctx)
	if err != nil {
		t.Fatalf("GetPricingData() error = %v", err)
	}

	if first == second {
		t.Error("call after TTL should recompute, not reuse the cached response")
	}
}

func TestGetPricingData_UnknownRegionDefaults(t *testing.T) {
	eng := newEngine(t, pricing.Options{})

	resp, err := eng.GetPricingData(context.Background(), models.PricingContext{Region: "atlantis"})
	if err != nil {
		t.Fatalf("GetPricingData() error = %v", err)
	}
	if resp.Factors.Region != 1.0 {
		t.Errorf("unknown region factor = %v, want 1.0", resp.Factors.Region)
	}
}

func TestGetPricingData_RegionalOrdering(t *testing.T) {
	eng := newEngine(t, pricing.Options{})

	london, err := eng.GetPricingData(context.Background(), models.PricingContext{Region: "london"})
	if err != nil {
		t.Fatalf("GetPricingData(london) error = %v", err)
	}
	northWest, err := eng.GetPricingData(context.Background(), models.PricingContext{Region: "north-west"})
	if err != nil {
		t.Fatalf("GetPricingData(north-west) error = %v", err)
	}

	if london.Factors.Region <= northWest.Factors.Region {
		t.Errorf("london factor %v should exceed north-west factor %v", london.Factors.Region, northWest.Factors.Region)
	}
	if london.Materials[0].UnitPrice <= northWest.Materials[0].UnitPrice {
		t.Errorf("london material price %v should exceed north-west %v",
			london.Materials[0].UnitPrice, northWest.Materials[0].UnitPrice)
	}
	if london.Labor[0].HourlyMin <= northWest.Labor[0].HourlyMin {
		t.Errorf("london labor rate %v should exceed north-west %v",
			london.Labor[0].HourlyMin, northWest.Labor[0].HourlyMin)
	}
}

func TestGetPricingData_DemandRuleRaisesLaborOnly(t *testing.T) {
	eng := newEngine(t, pricing.Options{
		HighDemandRules: []string{`projectType contains "extension"`},
	})
	base := newEngine(t, pricing.Options{})

	demand, err := eng.GetPricingData(context.Background(), models.PricingContext{
		Region:      "uk-average",
		ProjectType: "Rear Extension",
	})
	if err != nil {
		t.Fatalf("GetPricingData() error = %v", err)
	}
	plain, err := base.GetPricingData(context.Background(), models.PricingContext{
		Region:      "uk-average",
		ProjectType: "Rear Extension",
	})
	if err != nil {
		t.Fatalf("GetPricingData() error = %v", err)
	}

	if demand.Factors.Demand != 1.15 {
		t.Errorf("demand factor = %v, want 1.15", demand.Factors.Demand)
	}
	if demand.Labor[0].HourlyMin <= plain.Labor[0].HourlyMin {
		t.Errorf("demand labor rate %v should exceed base %v", demand.Labor[0].HourlyMin, plain.Labor[0].HourlyMin)
	}
	if demand.Materials[0].UnitPrice != plain.Materials[0].UnitPrice {
		t.Errorf("demand should not move material prices: %v != %v",
			demand.Materials[0].UnitPrice, plain.Materials[0].UnitPrice)
	}
}

func TestGetPricingData_LargeScaleAccessibility(t *testing.T) {
	eng := newEngine(t, pricing.Options{})

	resp, err := eng.GetPricingData(context.Background(), models.PricingContext{
		Region: "uk-average",
		Scale:  models.ScaleLarge,
	})
	if err != nil {
		t.Fatalf("GetPricingData() error = %v", err)
	}
	if resp.Factors.Accessibility != 1.05 {
		t.Errorf("large-scale accessibility factor = %v, want 1.05", resp.Factors.Accessibility)
	}
}

func TestGetPricingData_SeasonalRecommendation(t *testing.T) {
	eng := newEngine(t, pricing.Options{})

	resp, err := eng.GetPricingData(context.Background(), models.PricingContext{Region: "uk-average"})
	if err != nil {
		t.Fatalf("GetPricingData() error = %v", err)
	}
	if resp.Factors.Seasonal != 1.12 {
		t.Errorf("June seasonal factor = %v, want 1.12", resp.Factors.Seasonal)
	}
	if len(resp.Recommendations) == 0 {
		t.Error("peak season should carry a booking recommendation")
	}
}

func TestGetPricingData_SourceFailureEstimate(t *testing.T) {
	eng, err := pricing.NewEngine(failingSource{}, pricing.Options{
		AllowEstimateFallback: true,
		Now:                   fixedClock(june),
	})
	if err != nil {
		t.Fatalf("NewEngine() error = %v", err)
	}

	resp, err := eng.GetPricingData(context.Background(), models.PricingContext{Region: "london"})
	if err != nil {
		t.Fatalf("GetPricingData() with estimate fallback error = %v", err)
	}
	if !resp.Estimated {
		t.Error("fallback estimate should be flagged Estimated")
	}
	if resp.Factors.Region != 1.0 || resp.Factors.Seasonal != 1.0 {
		t.Errorf("fallback estimate factors = %+v, want unit multipliers", resp.Factors)
	}
	if len(resp.Recommendations) != 1 {
		t.Errorf("fallback estimate recommendations = %v, want one explanatory entry", resp.Recommendations)
	}
}

func TestGetPricingData_SourceFailureError(t *testing.T) {
	eng, err := pricing.NewEngine(failingSource{}, pricing.Options{Now: fixedClock(june)})
	if err != nil {
		t.Fatalf("NewEngine() error = %v", err)
	}

	_, err = eng.GetPricingData(context.Background(), models.PricingContext{Region: "london"})
	var fetchErr *pricing.FetchError
	if !errors.As(err, &fetchErr) {
		t.Fatalf("GetPricingData() error = %v, want *pricing.FetchError", err)
	}
	if fetchErr.Key == "" {
		t.Error("FetchError.Key should identify the failed context")
	}
}

func TestNewEngine_InvalidDemandRule(t *testing.T) {
	_, err := pricing.NewEngine(pricing.NewStaticSource(), pricing.Options{
		HighDemandRules: []string{`projectType contains`},
	})
	if err == nil {
		t.Fatal("NewEngine() with a malformed demand rule should fail")
	}
}
