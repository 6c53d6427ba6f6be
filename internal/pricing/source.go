package pricing

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"
)

// RateSource supplies the read-only reference-rate dataset the engine
// multiplies into live figures. The engine does not own the dataset; it
// only consults it.
type RateSource interface {
	// Load returns the current reference rates snapshot.
	Load(ctx context.Context) (*ReferenceRates, error)
}

// ── Static Source ───────────────────────────────────────────

// StaticSource serves the embedded reference tables. It is the zero-config
// default and the estimate-fallback path's last line of defence.
type StaticSource struct{}

// NewStaticSource creates a source backed by the embedded dataset.
func NewStaticSource() *StaticSource {
	return &StaticSource{}
}

// Load never fails for the static source.
func (s *StaticSource) Load(_ context.Context) (*ReferenceRates, error) {
	return staticRates(), nil
}

// ── PostgreSQL Source ───────────────────────────────────────

// PostgresSource reads the reference tables from the shared pricing
// database. The tables are maintained by the pricing data team and treated
// as read-only here.
type PostgresSource struct {
	pool *pgxpool.Pool
}

// NewPostgresSource connects to the pricing reference database.
func NewPostgresSource(ctx context.Context, url string, maxConns int) (*PostgresSource, error) {
	cfg, err := pgxpool.ParseConfig(url)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}
	if maxConns > 0 {
		cfg.MaxConns = int32(maxConns)
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect pricing database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping pricing database: %w", err)
	}

	log.Info().Msg("PostgreSQL pricing source connected")
	return &PostgresSource{pool: pool}, nil
}

// Close releases the connection pool.
func (s *PostgresSource) Close() {
	s.pool.Close()
}

// Load reads the full reference dataset in one round of queries.
func (s *PostgresSource) Load(ctx context.Context) (*ReferenceRates, error) {
	rates := &ReferenceRates{RegionMultipliers: make(map[string]float64)}

	rows, err := s.pool.Query(ctx, `SELECT name, category, daily_rate, weekly_rate FROM tool_rates`)
	if err != nil {
		return nil, fmt.Errorf("query tool rates: %w", err)
	}
	for rows.Next() {
		var t toolRow
		if err := rows.Scan(&t.name, &t.category, &t.daily, &t.weekly); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan tool rate: %w", err)
		}
		rates.Tools = append(rates.Tools, t.toModel())
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate tool rates: %w", err)
	}

	rows, err = s.pool.Query(ctx, `SELECT name, unit, unit_price FROM material_rates`)
	if err != nil {
		return nil, fmt.Errorf("query material rates: %w", err)
	}
	for rows.Next() {
		var m materialRow
		if err := rows.Scan(&m.name, &m.unit, &m.price); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan material rate: %w", err)
		}
		rates.Materials = append(rates.Materials, m.toModel())
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate material rates: %w", err)
	}

	rows, err = s.pool.Query(ctx, `SELECT name, unit, unit_price FROM aggregate_rates`)
	if err != nil {
		return nil, fmt.Errorf("query aggregate rates: %w", err)
	}
	for rows.Next() {
		var a materialRow
		if err := rows.Scan(&a.name, &a.unit, &a.price); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan aggregate rate: %w", err)
		}
		rates.Aggregates = append(rates.Aggregates, a.toAggregate())
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate aggregate rates: %w", err)
	}

	rows, err = s.pool.Query(ctx, `SELECT trade, hourly_min, hourly_max, daily_rate FROM labor_rates`)
	if err != nil {
		return nil, fmt.Errorf("query labor rates: %w", err)
	}
	for rows.Next() {
		var l laborRow
		if err := rows.Scan(&l.trade, &l.hourlyMin, &l.hourlyMax, &l.daily); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan labor rate: %w", err)
		}
		rates.Labor = append(rates.Labor, l.toModel())
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate labor rates: %w", err)
	}

	rows, err = s.pool.Query(ctx, `SELECT region, multiplier FROM region_multipliers`)
	if err != nil {
		return nil, fmt.Errorf("query region multipliers: %w", err)
	}
	for rows.Next() {
		var regionCode string
		var mult float64
		if err := rows.Scan(&regionCode, &mult); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan region multiplier: %w", err)
		}
		rates.RegionMultipliers[regionCode] = mult
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate region multipliers: %w", err)
	}

	return rates, nil
}
