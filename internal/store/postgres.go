package store

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sturgeonlabs/caviarwatch/internal/model"
)

// PostgresConfig controls the pgx connection pool.
type PostgresConfig struct {
	DSN             string
	MaxConns        int32
	MinConns        int32
	MaxConnLifetime time.Duration
}

type pgxIface interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Close()
}

// Postgres is the production Store backed by a pgx pool.
type Postgres struct {
	pool pgxIface
}

// Schema evolution is additive-only: new columns must be nullable so old
// rows keep loading.
const schemaSQL = `
CREATE TABLE IF NOT EXISTS observations (
	id BIGSERIAL PRIMARY KEY,
	vendor TEXT NOT NULL,
	url TEXT NOT NULL,
	product_name TEXT NOT NULL,
	species_common TEXT,
	species_latin TEXT,
	grade TEXT,
	grade_rank INT NOT NULL DEFAULT 99,
	currency TEXT NOT NULL,
	price DOUBLE PRECISION NOT NULL,
	size_grams DOUBLE PRECISION NOT NULL,
	size_label TEXT NOT NULL,
	price_per_gram DOUBLE PRECISION NOT NULL,
	origin_region TEXT,
	run_id TEXT,
	observed_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_observations_offer
	ON observations (vendor, url, size_grams, observed_at DESC)`

const insertSQL = `
INSERT INTO observations (
	vendor, url, product_name, species_common, species_latin,
	grade, grade_rank, currency, price, size_grams, size_label,
	price_per_gram, origin_region, run_id
) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14)`

const latestDistinctSQL = `
WITH latest AS (
	SELECT DISTINCT ON (vendor, url, size_grams) *
	FROM observations
	ORDER BY vendor, url, size_grams, observed_at DESC
)
SELECT DISTINCT ON (vendor, url, product_name, species_common, grade, size_grams, size_label, currency, origin_region)
	vendor, url, product_name,
	COALESCE(species_common, ''), COALESCE(species_latin, ''),
	COALESCE(grade, ''), grade_rank, currency, price, size_grams,
	size_label, price_per_gram, COALESCE(origin_region, ''),
	COALESCE(run_id, ''), observed_at
FROM latest
WHERE $1 = false OR COALESCE(species_common, '') <> ''
ORDER BY vendor, url, product_name, species_common, grade, size_grams, size_label, currency, origin_region, price ASC`

const moversSQL = `
WITH ranked AS (
	SELECT vendor, product_name, url, currency, price, observed_at,
		ROW_NUMBER() OVER (PARTITION BY vendor, product_name ORDER BY observed_at DESC) AS rn
	FROM observations
)
SELECT cur.vendor, cur.product_name, cur.url, cur.currency,
	prev.price, cur.price, cur.observed_at
FROM ranked cur
JOIN ranked prev
	ON prev.vendor = cur.vendor AND prev.product_name = cur.product_name AND prev.rn = 2
WHERE cur.rn = 1 AND cur.price <> prev.price
ORDER BY ABS((cur.price - prev.price) / prev.price) DESC
LIMIT $1`

// NewPostgres connects a pool and ensures the schema exists.
func NewPostgres(ctx context.Context, cfg PostgresConfig) (*Postgres, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("store.dsn is required")
	}
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("parse postgres dsn: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	}
	if cfg.MinConns > 0 {
		poolCfg.MinConns = cfg.MinConns
	}
	if cfg.MaxConnLifetime > 0 {
		poolCfg.MaxConnLifetime = cfg.MaxConnLifetime
	}
	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	s := &Postgres{pool: pool}
	if err := s.ensureSchema(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return s, nil
}

// NewPostgresWithPool constructs a store from an existing pool, primarily
// for testing with pgxmock.
func NewPostgresWithPool(pool pgxIface) (*Postgres, error) {
	if pool == nil {
		return nil, fmt.Errorf("pool is required")
	}
	return &Postgres{pool: pool}, nil
}

func (s *Postgres) ensureSchema(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}

// Append implements Store.
func (s *Postgres) Append(ctx context.Context, observations []model.Observation) error {
	for _, o := range observations {
		_, err := s.pool.Exec(ctx, insertSQL,
			o.Vendor, o.URL, o.ProductName, o.SpeciesCommon, o.SpeciesLatin,
			o.Grade, o.GradeRank, o.Currency, o.Price, o.SizeGrams,
			o.SizeLabel, o.PricePerGram, o.OriginRegion, o.RunID,
		)
		if err != nil {
			return fmt.Errorf("insert observation %s %s: %w", o.Vendor, o.URL, err)
		}
	}
	return nil
}

// LatestDistinct implements Store.
func (s *Postgres) LatestDistinct(ctx context.Context, requireSpecies bool) ([]model.Observation, error) {
	rows, err := s.pool.Query(ctx, latestDistinctSQL, requireSpecies)
	if err != nil {
		return nil, fmt.Errorf("query latest distinct: %w", err)
	}
	defer rows.Close()

	var out []model.Observation
	for rows.Next() {
		var o model.Observation
		if err := rows.Scan(
			&o.Vendor, &o.URL, &o.ProductName, &o.SpeciesCommon, &o.SpeciesLatin,
			&o.Grade, &o.GradeRank, &o.Currency, &o.Price, &o.SizeGrams,
			&o.SizeLabel, &o.PricePerGram, &o.OriginRegion, &o.RunID, &o.ObservedAt,
		); err != nil {
			return nil, fmt.Errorf("scan observation: %w", err)
		}
		out = append(out, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate observations: %w", err)
	}
	return out, nil
}

// Movers implements Store.
func (s *Postgres) Movers(ctx context.Context, limit int) ([]model.Mover, error) {
	if limit <= 0 {
		limit = 5
	}
	rows, err := s.pool.Query(ctx, moversSQL, limit)
	if err != nil {
		return nil, fmt.Errorf("query movers: %w", err)
	}
	defer rows.Close()

	var out []model.Mover
	for rows.Next() {
		var m model.Mover
		if err := rows.Scan(
			&m.Vendor, &m.ProductName, &m.URL, &m.Currency,
			&m.OldPrice, &m.NewPrice, &m.ObservedAt,
		); err != nil {
			return nil, fmt.Errorf("scan mover: %w", err)
		}
		if m.OldPrice != 0 {
			m.PctChange = math.Round((m.NewPrice-m.OldPrice)/m.OldPrice*10000) / 100
		}
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate movers: %w", err)
	}
	return out, nil
}

// Close implements Store.
func (s *Postgres) Close() {
	if s == nil || s.pool == nil {
		return
	}
	s.pool.Close()
}
