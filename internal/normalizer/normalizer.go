// Package normalizer parses a provider's free-form output into the
// canonical analysis schema. Provider text is the only untyped data in the
// pipeline; this package isolates that risk behind a strict parse-or-typed-
// error boundary so nothing downstream ever sees unparsed text.
package normalizer

import (
	"encoding/json"

	"github.com/buildquote/buildquote/internal/provider"
	"github.com/buildquote/buildquote/pkg/models"
)

// DefaultConfidence is substituted when a provider omits the confidence
// score or reports one outside [0,100].
const DefaultConfidence = 75

// Cost floors applied when a provider returns an empty or zero breakdown.
// A quote must never come out free.
var (
	materialsFloor = models.CostRange{Min: 150, Max: 400}
	laborFloor     = models.CostRange{Min: 200, Max: 600}
)

// rawAnalysis mirrors the canonical schema with loose optionality so a
// partially-complete provider response still decodes.
type rawAnalysis struct {
	ProjectType          string                   `json:"projectType"`
	Description          string                   `json:"description"`
	Difficulty           string                   `json:"difficulty"`
	ResponseMode         string                   `json:"responseMode"`
	Costs                *models.CostBreakdown    `json:"costs"`
	Timeline             *models.Timeline         `json:"timeline"`
	Tools                []models.ToolRequirement `json:"tools"`
	SafetyNotes          []string                 `json:"safetyNotes"`
	Permits              []string                 `json:"permits"`
	RequiresProfessional bool                     `json:"requiresProfessional"`
	ProfessionalReasons  []string                 `json:"professionalReasons"`
	Confidence           *float64                 `json:"confidence"`
	Recommendations      []string                 `json:"recommendations"`
	Warnings             []string                 `json:"warnings"`
}

// Normalize extracts the first JSON object from raw provider text and
// repairs it into a complete, schema-valid ProjectAnalysis. A missing or
// unparsable object yields a typed InvalidResponseError, which the
// orchestrator treats as a provider failure.
func Normalize(providerName, raw string) (*models.ProjectAnalysis, error) {
	span, ok := ExtractJSON(raw)
	if !ok {
		return nil, &provider.InvalidResponseError{Provider: providerName, Reason: "no JSON object found in response"}
	}

	var parsed rawAnalysis
	if err := json.Unmarshal([]byte(span), &parsed); err != nil {
		return nil, &provider.InvalidResponseError{Provider: providerName, Reason: "malformed JSON: " + err.Error()}
	}

	return repair(&parsed), nil
}

// ExtractJSON returns the first balanced {...} span in s. The scan is
// structural: it tracks string literals and escapes, so prose containing
// braces or multiple trailing objects does not confuse it.
func ExtractJSON(s string) (string, bool) {
	start := -1
	depth := 0
	inString := false
	escaped := false

	for i := 0; i < len(s); i++ {
		c := s[i]
		if start == -1 {
			if c == '{' {
				start = i
				depth = 1
			}
			continue
		}
		if escaped {
			escaped = false
			continue
		}
		switch c {
		case '\\':
			if inString {
				escaped = true
			}
		case '"':
			inString = !inString
		case '{':
			if !inString {
				depth++
			}
		case '}':
			if !inString {
				depth--
				if depth == 0 {
					return s[start : i+1], true
				}
			}
		}
	}
	return "", false
}

// repair copies recognized fields and substitutes safe defaults for
// anything absent or out of range.
func repair(parsed *rawAnalysis) *models.ProjectAnalysis {
	a := &models.ProjectAnalysis{
		ProjectType:          parsed.ProjectType,
		Description:          parsed.Description,
		Difficulty:           parsed.Difficulty,
		ResponseMode:         parsed.ResponseMode,
		Tools:                parsed.Tools,
		SafetyNotes:          parsed.SafetyNotes,
		Permits:              parsed.Permits,
		RequiresProfessional: parsed.RequiresProfessional,
		ProfessionalReasons:  parsed.ProfessionalReasons,
		Recommendations:      parsed.Recommendations,
		Warnings:             parsed.Warnings,
	}

	if a.ProjectType == "" {
		a.ProjectType = "general-construction"
	}
	if a.Description == "" {
		a.Description = "Construction project analysis"
	}
	if a.Difficulty == "" {
		a.Difficulty = "moderate"
	}
	if a.ResponseMode == "" {
		a.ResponseMode = "analysis"
	}

	a.Confidence = DefaultConfidence
	if parsed.Confidence != nil && *parsed.Confidence >= 0 && *parsed.Confidence <= 100 {
		a.Confidence = *parsed.Confidence
	}

	if parsed.Costs != nil {
		a.Costs = *parsed.Costs
	}
	repairCosts(&a.Costs)

	if parsed.Timeline != nil && parsed.Timeline.DIY != "" {
		a.Timeline = *parsed.Timeline
	} else {
		a.Timeline = defaultTimeline()
	}
	if a.Timeline.Phases == nil {
		a.Timeline.Phases = defaultTimeline().Phases
	}

	if a.Tools == nil {
		a.Tools = []models.ToolRequirement{}
	}
	if a.SafetyNotes == nil {
		a.SafetyNotes = []string{}
	}
	if a.Permits == nil {
		a.Permits = []string{}
	}
	if a.Recommendations == nil {
		a.Recommendations = []string{}
	}
	if a.Warnings == nil {
		a.Warnings = []string{}
	}

	return a
}

// repairCosts applies floors, corrects inverted bands, and re-derives the
// total so the breakdown invariant holds.
func repairCosts(c *models.CostBreakdown) {
	if c.Materials.Min <= 0 {
		c.Materials.Min = materialsFloor.Min
	}
	if c.Materials.Max <= 0 {
		c.Materials.Max = materialsFloor.Max
	}
	if c.Labor.Min <= 0 {
		c.Labor.Min = laborFloor.Min
	}
	if c.Labor.Max <= 0 {
		c.Labor.Max = laborFloor.Max
	}

	if c.Materials.Max < c.Materials.Min {
		c.Materials.Max = c.Materials.Min
	}
	if c.Labor.Max < c.Labor.Min {
		c.Labor.Max = c.Labor.Min
	}

	c.RecomputeTotal()
}

func defaultTimeline() models.Timeline {
	return models.Timeline{
		DIY:          "2-4 days",
		Professional: "1-2 days",
		Phases: []models.TimelinePhase{
			{Name: "Preparation", Duration: "1 day", Description: "Site clearance, measurements and material delivery"},
			{Name: "Construction", Duration: "1-3 days", Description: "Main build and finishing work"},
		},
	}
}
