package pricing_test

import (
	"strings"
	"testing"
	"time"

	"github.com/buildquote/buildquote/internal/pricing"
	"github.com/buildquote/buildquote/pkg/models"
)

func marketResponse() *models.PricingResponse {
	return &models.PricingResponse{
		Materials: []models.MaterialRate{
			{Name: "Timber C16 (4.8m)", Unit: "length", UnitPrice: 10},
			{Name: "Paving slabs 600x600", Unit: "m2", UnitPrice: 30},
		},
		Tools: []models.ToolRate{
			{Name: "Circular saw", Category: "power-tools", DailyRate: 28},
		},
		Labor: []models.LaborRate{
			{Trade: "general", HourlyMin: 20, HourlyMax: 30},
		},
		Factors:     models.ContextFactors{Region: 1.0, Seasonal: 1.0, Demand: 1.0, Accessibility: 1.0},
		GeneratedAt: time.Now().UTC(),
	}
}

func TestEnrich_MaterialItemsRepriced(t *testing.T) {
	a := &models.ProjectAnalysis{
		Costs: models.CostBreakdown{
			Materials: models.MaterialsCost{
				Min: 100, Max: 200,
				Items: []models.CostLine{
					{Name: "timber c16", Quantity: 20, Unit: "length", UnitPrice: 12, Total: 240},
				},
			},
			Labor: models.LaborCost{Min: 400, Max: 800},
		},
	}

	pricing.Enrich(a, marketResponse())

	item := a.Costs.Materials.Items[0]
	if item.UnitPrice != 10 {
		t.Errorf("item.UnitPrice = %v, want market rate 10", item.UnitPrice)
	}
	if item.Total != 200 {
		t.Errorf("item.Total = %v, want 200", item.Total)
	}
	if a.Costs.Materials.Min != 180 || a.Costs.Materials.Max != 240 {
		t.Errorf("materials band = [%v, %v], want [180, 240]", a.Costs.Materials.Min, a.Costs.Materials.Max)
	}
	wantMin := a.Costs.Materials.Min + a.Costs.Labor.Min
	if a.Costs.Total.Min != wantMin {
		t.Errorf("Total.Min = %v, want %v", a.Costs.Total.Min, wantMin)
	}
}

func TestEnrich_NoItemsBandStands(t *testing.T) {
	a := &models.ProjectAnalysis{
		Costs: models.CostBreakdown{
			Materials: models.MaterialsCost{Min: 300, Max: 600},
			Labor:     models.LaborCost{Min: 400, Max: 800},
		},
	}

	pricing.Enrich(a, marketResponse())

	if a.Costs.Materials.Min != 300 || a.Costs.Materials.Max != 600 {
		t.Errorf("materials band = [%v, %v], want unchanged [300, 600]",
			a.Costs.Materials.Min, a.Costs.Materials.Max)
	}
}

func TestEnrich_LaborRateAndBand(t *testing.T) {
	a := &models.ProjectAnalysis{
		Costs: models.CostBreakdown{
			Materials: models.MaterialsCost{Min: 300, Max: 600},
			Labor:     models.LaborCost{Min: 400, Max: 800, HourlyRate: 40, EstimatedHours: 20},
		},
	}

	pricing.Enrich(a, marketResponse())

	if a.Costs.Labor.HourlyRate != 25 {
		t.Errorf("HourlyRate = %v, want general trade average 25", a.Costs.Labor.HourlyRate)
	}
	if a.Costs.Labor.Min != 450 || a.Costs.Labor.Max != 550 {
		t.Errorf("labor band = [%v, %v], want [450, 550]", a.Costs.Labor.Min, a.Costs.Labor.Max)
	}
	if a.Costs.Labor.Min > a.Costs.Labor.Max {
		t.Error("enrichment must never invert the labor band")
	}
}

func TestEnrich_ToolRatesOverwritten(t *testing.T) {
	a := &models.ProjectAnalysis{
		Tools: []models.ToolRequirement{
			{Name: "circular saw", Required: true, DailyRate: 99},
		},
	}

	pricing.Enrich(a, marketResponse())

	if a.Tools[0].DailyRate != 28 {
		t.Errorf("tool DailyRate = %v, want hire rate 28", a.Tools[0].DailyRate)
	}
}

func TestEnrich_RegionPremiumWarning(t *testing.T) {
	resp := marketResponse()
	resp.Factors.Region = 1.28

	a := &models.ProjectAnalysis{}
	pricing.Enrich(a, resp)

	if len(a.Warnings) != 1 {
		t.Fatalf("Warnings = %v, want one premium disclosure", a.Warnings)
	}
	if !strings.Contains(a.Warnings[0], "28%") {
		t.Errorf("warning %q should state the 28%% premium", a.Warnings[0])
	}
}

func TestEnrich_NoWarningAtThreshold(t *testing.T) {
	resp := marketResponse()
	resp.Factors.Region = 1.15

	a := &models.ProjectAnalysis{}
	pricing.Enrich(a, resp)

	if len(a.Warnings) != 0 {
		t.Errorf("Warnings = %v, want none at the threshold", a.Warnings)
	}
}

func TestEnrich_RecommendationsAppended(t *testing.T) {
	resp := marketResponse()
	resp.Recommendations = []string{"Book trades early."}

	a := &models.ProjectAnalysis{Recommendations: []string{"Existing note."}}
	pricing.Enrich(a, resp)

	if len(a.Recommendations) != 2 {
		t.Errorf("Recommendations = %v, want existing plus market note", a.Recommendations)
	}
}
