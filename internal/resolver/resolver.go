// Package resolver maps a caller's loosely-structured request into the
// structured project context consumed by provider prompts and the pricing
// engine.
//
// Resolution is deterministic and side-effect free: a free-text location is
// matched against known UK place names to a region code, and the declared
// budget range is banded into a project scale and a price tier. The context
// is built once per request and never mutated afterwards.
package resolver

import (
	"strings"

	"github.com/buildquote/buildquote/pkg/models"
)

// Budget midpoint thresholds for project scale banding (GBP).
const (
	scaleMediumThreshold = 5000
	scaleLargeThreshold  = 25000
)

// Budget midpoint thresholds for price tier banding (GBP).
const (
	tierMidThreshold     = 8000
	tierPremiumThreshold = 20000
)

// DefaultRegion is used when the location matches no known place name.
const DefaultRegion = "uk-average"

// region holds the code and label for a resolved region.
type region struct {
	code string
	name string
}

// placeRegions maps lowercase place-name substrings to UK regions.
var placeRegions = map[string]region{
	"london":     {"london", "Greater London"},
	"manchester": {"north-west", "North West"},
	"liverpool":  {"north-west", "North West"},
	"preston":    {"north-west", "North West"},
	"birmingham": {"west-midlands", "West Midlands"},
	"coventry":   {"west-midlands", "West Midlands"},
	"nottingham": {"east-midlands", "East Midlands"},
	"leicester":  {"east-midlands", "East Midlands"},
	"derby":      {"east-midlands", "East Midlands"},
	"leeds":      {"yorkshire", "Yorkshire and the Humber"},
	"sheffield":  {"yorkshire", "Yorkshire and the Humber"},
	"york":       {"yorkshire", "Yorkshire and the Humber"},
	"hull":       {"yorkshire", "Yorkshire and the Humber"},
	"newcastle":  {"north-east", "North East"},
	"sunderland": {"north-east", "North East"},
	"durham":     {"north-east", "North East"},
	"bristol":    {"south-west", "South West"},
	"bath":       {"south-west", "South West"},
	"exeter":     {"south-west", "South West"},
	"plymouth":   {"south-west", "South West"},
	"brighton":   {"south-east", "South East"},
	"oxford":     {"south-east", "South East"},
	"reading":    {"south-east", "South East"},
	"kent":       {"south-east", "South East"},
	"surrey":     {"south-east", "South East"},
	"southampton": {"south-east", "South East"},
	"cambridge":  {"east", "East of England"},
	"norwich":    {"east", "East of England"},
	"ipswich":    {"east", "East of England"},
	"cardiff":    {"wales", "Wales"},
	"swansea":    {"wales", "Wales"},
	"newport":    {"wales", "Wales"},
	"glasgow":    {"scotland", "Scotland"},
	"edinburgh":  {"scotland", "Scotland"},
	"aberdeen":   {"scotland", "Scotland"},
	"belfast":    {"northern-ireland", "Northern Ireland"},
}

// Resolver builds immutable project contexts from analysis requests.
type Resolver struct{}

// New creates a request context resolver.
func New() *Resolver {
	return &Resolver{}
}

// Resolve derives the project context for a request. It always succeeds;
// missing hints fall back to neutral bands.
func (r *Resolver) Resolve(req *models.AnalysisRequest) *models.ProjectContext {
	pctx := &models.ProjectContext{
		Region:     DefaultRegion,
		RegionName: "UK Average",
		Scale:      models.ScaleMedium,
		Tier:       models.TierMid,
	}

	if req.Context == nil {
		pctx.ProjectType = inferProjectType(req.Message)
		return pctx
	}

	pctx.Location = req.Context.Location
	if reg, ok := resolveRegion(req.Context.Location); ok {
		pctx.Region = reg.code
		pctx.RegionName = reg.name
	}

	pctx.ProjectType = req.Context.ProjectType
	if pctx.ProjectType == "" {
		pctx.ProjectType = inferProjectType(req.Message)
	}

	if b := req.Context.BudgetRange; b != nil {
		pctx.Scale = scaleFor(b.Midpoint())
		pctx.Tier = tierFor(b.Midpoint())
	}

	return pctx
}

// resolveRegion matches a free-text location against known UK place names.
func resolveRegion(location string) (region, bool) {
	loc := strings.ToLower(strings.TrimSpace(location))
	if loc == "" {
		return region{}, false
	}
	for place, reg := range placeRegions {
		if strings.Contains(loc, place) {
			return reg, true
		}
	}
	return region{}, false
}

func scaleFor(midpoint float64) models.ProjectScale {
	switch {
	case midpoint < scaleMediumThreshold:
		return models.ScaleSmall
	case midpoint < scaleLargeThreshold:
		return models.ScaleMedium
	default:
		return models.ScaleLarge
	}
}

func tierFor(midpoint float64) models.PriceTier {
	switch {
	case midpoint < tierMidThreshold:
		return models.TierBudget
	case midpoint < tierPremiumThreshold:
		return models.TierMid
	default:
		return models.TierPremium
	}
}

// projectKeywords maps message keywords to a project type when the caller
// did not declare one.
var projectKeywords = []struct {
	keyword     string
	projectType string
}{
	{"extension", "extension"},
	{"loft", "loft-conversion"},
	{"kitchen", "kitchen-renovation"},
	{"bathroom", "bathroom-renovation"},
	{"garage", "garage-conversion"},
	{"driveway", "driveway"},
	{"patio", "patio"},
	{"deck", "decking"},
	{"fence", "fencing"},
	{"roof", "roofing"},
	{"garden", "landscaping"},
	{"renovat", "renovation"},
	{"conservator", "conservatory"},
}

func inferProjectType(message string) string {
	msg := strings.ToLower(message)
	for _, pk := range projectKeywords {
		if strings.Contains(msg, pk.keyword) {
			return pk.projectType
		}
	}
	return "general-construction"
}
