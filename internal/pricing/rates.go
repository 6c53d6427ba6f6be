package pricing

import "github.com/buildquote/buildquote/pkg/models"

// ReferenceRates is one read-only snapshot of the regional pricing dataset:
// national base rates plus the multiplier tables applied to them.
type ReferenceRates struct {
	Tools             []models.ToolRate
	Materials         []models.MaterialRate
	Aggregates        []models.AggregateRate
	Labor             []models.LaborRate
	RegionMultipliers map[string]float64
}

// ── Embedded reference dataset ──────────────────────────────
//
// National-average trade rates, updated alongside the quarterly price-book
// review. The PostgreSQL source supersedes these when configured.

var baseToolRates = []models.ToolRate{
	{Name: "Mini excavator (1.5t)", Category: "plant", DailyRate: 240, WeeklyRate: 880},
	{Name: "Cement mixer", Category: "plant", DailyRate: 35, WeeklyRate: 110},
	{Name: "Concrete breaker", Category: "plant", DailyRate: 65, WeeklyRate: 210},
	{Name: "Scaffold tower (6m)", Category: "access", DailyRate: 85, WeeklyRate: 260},
	{Name: "Angle grinder", Category: "power-tools", DailyRate: 22, WeeklyRate: 66},
	{Name: "Circular saw", Category: "power-tools", DailyRate: 25, WeeklyRate: 75},
	{Name: "SDS hammer drill", Category: "power-tools", DailyRate: 28, WeeklyRate: 84},
	{Name: "Wacker plate", Category: "plant", DailyRate: 45, WeeklyRate: 140},
	{Name: "Skip (8 yard)", Category: "waste", DailyRate: 0, WeeklyRate: 280},
	{Name: "Tile cutter", Category: "power-tools", DailyRate: 30, WeeklyRate: 90},
}

var baseMaterialRates = []models.MaterialRate{
	{Name: "Concrete C25", Unit: "m3", UnitPrice: 112},
	{Name: "Bricks (common)", Unit: "per 1000", UnitPrice: 425},
	{Name: "Cement (25kg bag)", Unit: "bag", UnitPrice: 6.80},
	{Name: "Sharp sand", Unit: "tonne", UnitPrice: 48},
	{Name: "Timber C16 (4.8m)", Unit: "length", UnitPrice: 9.60},
	{Name: "Plasterboard 12.5mm", Unit: "sheet", UnitPrice: 8.40},
	{Name: "Insulation roll 100mm", Unit: "roll", UnitPrice: 24},
	{Name: "Plywood 18mm", Unit: "sheet", UnitPrice: 38},
	{Name: "Paving slabs 600x600", Unit: "m2", UnitPrice: 26},
	{Name: "Damp proof membrane", Unit: "roll", UnitPrice: 42},
	{Name: "Kitchen base unit", Unit: "unit", UnitPrice: 95},
	{Name: "Wall tiles (ceramic)", Unit: "m2", UnitPrice: 22},
}

var baseAggregateRates = []models.AggregateRate{
	{Name: "MOT Type 1", Unit: "tonne", UnitPrice: 38},
	{Name: "Ballast", Unit: "tonne", UnitPrice: 52},
	{Name: "Building sand", Unit: "tonne", UnitPrice: 45},
	{Name: "Gravel 20mm", Unit: "tonne", UnitPrice: 55},
	{Name: "Topsoil (screened)", Unit: "tonne", UnitPrice: 40},
}

var baseLaborRates = []models.LaborRate{
	{Trade: "general", HourlyMin: 18, HourlyMax: 28, DailyRate: 200},
	{Trade: "bricklayer", HourlyMin: 25, HourlyMax: 40, DailyRate: 300},
	{Trade: "carpenter", HourlyMin: 24, HourlyMax: 38, DailyRate: 290},
	{Trade: "electrician", HourlyMin: 35, HourlyMax: 55, DailyRate: 380},
	{Trade: "plumber", HourlyMin: 32, HourlyMax: 50, DailyRate: 360},
	{Trade: "plasterer", HourlyMin: 22, HourlyMax: 35, DailyRate: 270},
	{Trade: "groundworker", HourlyMin: 20, HourlyMax: 32, DailyRate: 240},
}

// regionMultipliers adjusts national rates for geographic cost variation.
// Unknown regions fall back to 1.0.
var regionMultipliers = map[string]float64{
	"london":           1.28,
	"south-east":       1.15,
	"south-west":       1.05,
	"east":             1.02,
	"west-midlands":    0.97,
	"east-midlands":    0.95,
	"yorkshire":        0.92,
	"north-west":       0.93,
	"north-east":       0.88,
	"wales":            0.91,
	"scotland":         0.95,
	"northern-ireland": 0.85,
	"uk-average":       1.0,
}

// seasonalFactors bands the calendar year: winter discounts, spring ramp-up,
// peak construction season over the summer. Indexed by time.Month - 1.
var seasonalFactors = [12]float64{
	0.92, // January
	0.92, // February
	1.08, // March
	1.08, // April
	1.08, // May
	1.12, // June
	1.12, // July
	1.12, // August
	1.00, // September
	1.00, // October
	1.00, // November
	0.92, // December
}

// staticRates returns a fresh copy of the embedded dataset so cached
// responses never alias the package-level tables.
func staticRates() *ReferenceRates {
	r := &ReferenceRates{
		Tools:             make([]models.ToolRate, len(baseToolRates)),
		Materials:         make([]models.MaterialRate, len(baseMaterialRates)),
		Aggregates:        make([]models.AggregateRate, len(baseAggregateRates)),
		Labor:             make([]models.LaborRate, len(baseLaborRates)),
		RegionMultipliers: make(map[string]float64, len(regionMultipliers)),
	}
	copy(r.Tools, baseToolRates)
	copy(r.Materials, baseMaterialRates)
	copy(r.Aggregates, baseAggregateRates)
	copy(r.Labor, baseLaborRates)
	for k, v := range regionMultipliers {
		r.RegionMultipliers[k] = v
	}
	return r
}
