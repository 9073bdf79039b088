package store

import (
	"context"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/sturgeonlabs/caviarwatch/internal/model"
)

// Memory is an in-process Store for tests and dry runs. It holds the
// same append-only contract as Postgres and reconciles at read time.
type Memory struct {
	mu   sync.Mutex
	rows []model.Observation
	seq  int
}

// NewMemory returns an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{}
}

// Append implements Store.
func (s *Memory) Append(_ context.Context, observations []model.Observation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, o := range observations {
		if o.ObservedAt.IsZero() {
			o.ObservedAt = time.Now().UTC()
		}
		s.rows = append(s.rows, o)
		s.seq++
	}
	return nil
}

// LatestDistinct implements Store.
func (s *Memory) LatestDistinct(_ context.Context, requireSpecies bool) ([]model.Observation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Latest row per (vendor, url, size_grams). Later appends with equal
	// timestamps win, matching insertion order.
	latest := make(map[model.ObservationKey]model.Observation)
	for _, o := range s.rows {
		key := o.Key()
		prev, ok := latest[key]
		if !ok || !o.ObservedAt.Before(prev.ObservedAt) {
			latest[key] = o
		}
	}

	// Cheapest among rows that are otherwise identical offers.
	type fullKey struct {
		vendor, url, product, species, grade, label, currency, region string
		grams                                                         float64
	}
	distinct := make(map[fullKey]model.Observation)
	for _, o := range latest {
		if requireSpecies && o.SpeciesCommon == "" {
			continue
		}
		fk := fullKey{
			vendor: o.Vendor, url: o.URL, product: o.ProductName,
			species: o.SpeciesCommon, grade: o.Grade, label: o.SizeLabel,
			currency: o.Currency, region: o.OriginRegion, grams: o.SizeGrams,
		}
		prev, ok := distinct[fk]
		if !ok || o.Price < prev.Price {
			distinct[fk] = o
		}
	}

	out := make([]model.Observation, 0, len(distinct))
	for _, o := range distinct {
		out = append(out, o)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Vendor != out[j].Vendor {
			return out[i].Vendor < out[j].Vendor
		}
		if out[i].URL != out[j].URL {
			return out[i].URL < out[j].URL
		}
		return out[i].SizeGrams < out[j].SizeGrams
	})
	return out, nil
}

// Movers implements Store.
func (s *Memory) Movers(_ context.Context, limit int) ([]model.Mover, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if limit <= 0 {
		limit = 5
	}

	type productKey struct{ vendor, product string }
	byProduct := make(map[productKey][]model.Observation)
	for _, o := range s.rows {
		k := productKey{o.Vendor, o.ProductName}
		byProduct[k] = append(byProduct[k], o)
	}

	var out []model.Mover
	for _, history := range byProduct {
		if len(history) < 2 {
			continue
		}
		sort.SliceStable(history, func(i, j int) bool {
			return history[i].ObservedAt.After(history[j].ObservedAt)
		})
		cur, prev := history[0], history[1]
		if cur.Price == prev.Price {
			continue
		}
		m := model.Mover{
			Vendor:      cur.Vendor,
			ProductName: cur.ProductName,
			URL:         cur.URL,
			Currency:    cur.Currency,
			OldPrice:    prev.Price,
			NewPrice:    cur.Price,
			ObservedAt:  cur.ObservedAt,
		}
		if prev.Price != 0 {
			m.PctChange = math.Round((cur.Price-prev.Price)/prev.Price*10000) / 100
		}
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool {
		return math.Abs(out[i].PctChange) > math.Abs(out[j].PctChange)
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// Close implements Store.
func (s *Memory) Close() {}

// Len reports how many rows have been appended, for tests.
func (s *Memory) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.rows)
}
