package pricing

import "github.com/buildquote/buildquote/pkg/models"

// Scan targets for the PostgreSQL reference tables.

type toolRow struct {
	name     string
	category string
	daily    float64
	weekly   float64
}

func (r toolRow) toModel() models.ToolRate {
	return models.ToolRate{Name: r.name, Category: r.category, DailyRate: r.daily, WeeklyRate: r.weekly}
}

type materialRow struct {
	name  string
	unit  string
	price float64
}

func (r materialRow) toModel() models.MaterialRate {
	return models.MaterialRate{Name: r.name, Unit: r.unit, UnitPrice: r.price}
}

func (r materialRow) toAggregate() models.AggregateRate {
	return models.AggregateRate{Name: r.name, Unit: r.unit, UnitPrice: r.price}
}

type laborRow struct {
	trade     string
	hourlyMin float64
	hourlyMax float64
	daily     float64
}

func (r laborRow) toModel() models.LaborRate {
	return models.LaborRate{Trade: r.trade, HourlyMin: r.hourlyMin, HourlyMax: r.hourlyMax, DailyRate: r.daily}
}
