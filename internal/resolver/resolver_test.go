package resolver_test

import (
	"testing"

	"github.com/buildquote/buildquote/internal/resolver"
	"github.com/buildquote/buildquote/pkg/models"
)

func TestResolve_Defaults(t *testing.T) {
	r := resolver.New()

	pctx := r.Resolve(&models.AnalysisRequest{Message: "how much for a new bathroom suite"})

	if pctx.Region != resolver.DefaultRegion {
		t.Errorf("Region = %q, want %q", pctx.Region, resolver.DefaultRegion)
	}
	if pctx.Scale != models.ScaleMedium {
		t.Errorf("Scale = %q, want %q", pctx.Scale, models.ScaleMedium)
	}
	if pctx.Tier != models.TierMid {
		t.Errorf("Tier = %q, want %q", pctx.Tier, models.TierMid)
	}
	if pctx.ProjectType != "bathroom-renovation" {
		t.Errorf("ProjectType = %q, want %q", pctx.ProjectType, "bathroom-renovation")
	}
}

func TestResolve_RegionFromLocation(t *testing.T) {
	r := resolver.New()

	tests := []struct {
		location string
		region   string
	}{
		{"Manchester", "north-west"},
		{"Didsbury, Manchester M20", "north-west"},
		{"Central London", "london"},
		{"Leeds LS1", "yorkshire"},
		{"Cardiff Bay", "wales"},
		{"somewhere unrecognizable", resolver.DefaultRegion},
		{"", resolver.DefaultRegion},
	}

	for _, tc := range tests {
		pctx := r.Resolve(&models.AnalysisRequest{
			Message: "garden wall",
			Context: &models.RequestContext{Location: tc.location},
		})
		if pctx.Region != tc.region {
			t.Errorf("Resolve(location=%q).Region = %q, want %q", tc.location, pctx.Region, tc.region)
		}
	}
}

func TestResolve_ScaleAndTierBanding(t *testing.T) {
	r := resolver.New()

	tests := []struct {
		min, max float64
		scale    models.ProjectScale
		tier     models.PriceTier
	}{
		{1000, 3000, models.ScaleSmall, models.TierBudget},    // midpoint 2000
		{4000, 5998, models.ScaleMedium, models.TierBudget},   // midpoint 4999
		{8000, 12000, models.ScaleMedium, models.TierMid},     // midpoint 10000
		{20000, 40000, models.ScaleLarge, models.TierPremium}, // midpoint 30000
	}

	for _, tc := range tests {
		pctx := r.Resolve(&models.AnalysisRequest{
			Message: "extension",
			Context: &models.RequestContext{
				BudgetRange: &models.BudgetRange{Min: tc.min, Max: tc.max},
			},
		})
		if pctx.Scale != tc.scale {
			t.Errorf("Resolve(budget=[%v,%v]).Scale = %q, want %q", tc.min, tc.max, pctx.Scale, tc.scale)
		}
		if pctx.Tier != tc.tier {
			t.Errorf("Resolve(budget=[%v,%v]).Tier = %q, want %q", tc.min, tc.max, pctx.Tier, tc.tier)
		}
	}
}

func TestResolve_DeclaredProjectTypeWins(t *testing.T) {
	r := resolver.New()

	pctx := r.Resolve(&models.AnalysisRequest{
		Message: "thinking about decking",
		Context: &models.RequestContext{ProjectType: "patio"},
	})
	if pctx.ProjectType != "patio" {
		t.Errorf("ProjectType = %q, want declared %q", pctx.ProjectType, "patio")
	}
}

func TestResolve_InferredProjectTypeFallback(t *testing.T) {
	r := resolver.New()

	pctx := r.Resolve(&models.AnalysisRequest{Message: "just a general question"})
	if pctx.ProjectType != "general-construction" {
		t.Errorf("ProjectType = %q, want %q", pctx.ProjectType, "general-construction")
	}
}
