package orchestrator

import (
	"github.com/buildquote/buildquote/pkg/models"
)

// Conservative fixed cost range used when no provider produced an analysis.
var fallbackCosts = models.CostBreakdown{
	Materials: models.MaterialsCost{Min: 500, Max: 1500},
	Labor:     models.LaborCost{Min: 800, Max: 2400},
	Total:     models.CostRange{Min: 1300, Max: 3900},
}

// fallbackConfidence marks the synthesized analysis as low-trust.
const fallbackConfidence = 20

// fallbackAnalysis synthesizes a complete, schema-valid analysis when every
// provider has failed. It is deterministic, synchronous, and cannot itself
// fail, so the orchestration boundary never surfaces a hard failure for
// this operation.
func fallbackAnalysis(pctx *models.ProjectContext, cause error) *models.ProjectAnalysis {
	projectType := "general-construction"
	if pctx != nil && pctx.ProjectType != "" {
		projectType = pctx.ProjectType
	}

	return &models.ProjectAnalysis{
		ProjectType:  projectType,
		Description:  "Automated analysis was unavailable for this project; the figures below are a conservative placeholder estimate.",
		Difficulty:   "moderate",
		ResponseMode: "analysis",
		Costs:        fallbackCosts,
		Timeline: models.Timeline{
			DIY:          "unknown",
			Professional: "1-2 weeks",
			Phases: []models.TimelinePhase{
				{Name: "Professional assessment", Duration: "1-2 days", Description: "On-site survey and detailed quotation"},
				{Name: "Construction", Duration: "1-2 weeks", Description: "Scheduled after a professional quote"},
			},
		},
		Tools:                []models.ToolRequirement{},
		SafetyNotes:          []string{"Have the project assessed on site before starting any work."},
		Permits:              []string{},
		RequiresProfessional: true,
		ProfessionalReasons:  []string{"Automated analysis could not assess this project reliably."},
		Confidence:           fallbackConfidence,
		Recommendations: []string{
			"Request quotes from at least three local contractors to refine this estimate.",
		},
		Warnings: []string{
			"Analysis services were unavailable: " + cause.Error(),
		},
	}
}
