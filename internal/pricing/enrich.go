package pricing

import (
	"fmt"
	"math"
	"strings"

	"github.com/buildquote/buildquote/pkg/models"
)

// Asymmetric band widths applied after overwriting line items with market
// rates. Material costs are more volatile than labor, so the materials band
// carries a larger upside. Preserved from the original pricing heuristic
// pending product confirmation.
const (
	materialsBandLow  = 0.9
	materialsBandHigh = 1.2
	laborBandLow      = 0.9
	laborBandHigh     = 1.1
)

// Enrich overwrites AI-estimated cost figures in the analysis with live
// market rates and recomputes the cost bands. The fixed fallback estimate
// carries no rates, so it enriches nothing beyond its recommendation.
func Enrich(a *models.ProjectAnalysis, resp *models.PricingResponse) {
	if a == nil || resp == nil {
		return
	}

	enrichMaterials(a, resp)
	enrichTools(a, resp)
	enrichLabor(a, resp)

	a.Costs.RecomputeTotal()

	a.Recommendations = append(a.Recommendations, resp.Recommendations...)

	if resp.Factors.Region > regionPremiumThreshold {
		premium := int(math.Round((resp.Factors.Region - 1) * 100))
		a.Warnings = append(a.Warnings,
			fmt.Sprintf("Regional pricing runs %d%% above the national average in this area.", premium))
	}
}

// enrichMaterials overwrites itemized material prices with matched market
// rates, then re-derives the materials band from the itemized sum.
func enrichMaterials(a *models.ProjectAnalysis, resp *models.PricingResponse) {
	var sum float64
	for i := range a.Costs.Materials.Items {
		item := &a.Costs.Materials.Items[i]
		if rate, ok := matchMaterial(item.Name, resp.Materials); ok {
			item.UnitPrice = rate.UnitPrice
			qty := item.Quantity
			if qty <= 0 {
				qty = 1
			}
			item.Total = round2(rate.UnitPrice * qty)
		}
		sum += item.Total
	}

	// Without itemized lines there is nothing to re-derive from; the
	// normalized band stands.
	if sum <= 0 {
		return
	}
	a.Costs.Materials.Min = round2(sum * materialsBandLow)
	a.Costs.Materials.Max = round2(sum * materialsBandHigh)
}

// enrichTools overwrites tool daily rates with matched hire rates.
func enrichTools(a *models.ProjectAnalysis, resp *models.PricingResponse) {
	for i := range a.Tools {
		tool := &a.Tools[i]
		for _, rate := range resp.Tools {
			if containsFold(rate.Name, tool.Name) || containsFold(tool.Name, rate.Name) {
				tool.DailyRate = rate.DailyRate
				break
			}
		}
	}
}

// enrichLabor overwrites the hourly rate with the general trade's average
// and re-derives the labor band when the analysis carries enough detail.
func enrichLabor(a *models.ProjectAnalysis, resp *models.PricingResponse) {
	for _, rate := range resp.Labor {
		if strings.EqualFold(rate.Trade, "general") {
			a.Costs.Labor.HourlyRate = round2(rate.Average())
			break
		}
	}

	hours := a.Costs.Labor.EstimatedHours
	rate := a.Costs.Labor.HourlyRate
	if hours <= 0 || rate <= 0 {
		return
	}
	base := rate * hours
	a.Costs.Labor.Min = round2(base * laborBandLow)
	a.Costs.Labor.Max = round2(base * laborBandHigh)
}

// matchMaterial finds a market rate by case-insensitive substring match in
// either direction.
func matchMaterial(name string, rates []models.MaterialRate) (models.MaterialRate, bool) {
	for _, rate := range rates {
		if containsFold(rate.Name, name) || containsFold(name, rate.Name) {
			return rate, true
		}
	}
	return models.MaterialRate{}, false
}

func containsFold(haystack, needle string) bool {
	if needle == "" {
		return false
	}
	return strings.Contains(strings.ToLower(haystack), strings.ToLower(needle))
}
