// Package store persists price observations. The log is append-only: rows
// are never updated or deleted, duplicates across runs are expected, and
// reconciliation ("latest wins", then cheapest among ties) happens at read
// time.
package store

import (
	"context"

	"github.com/sturgeonlabs/caviarwatch/internal/model"
)

// Store is the observation log contract. Implementations must tolerate
// being reopened across runs without migrations beyond additive columns.
type Store interface {
	// Append bulk-inserts observations with a server-set timestamp. No
	// uniqueness is enforced at write time.
	Append(ctx context.Context, observations []model.Observation) error
	// LatestDistinct returns, for each distinct (vendor, url, size_grams)
	// group, only the most recent row, then collapses full-tuple duplicates
	// to the single cheapest price. Rows without a species are excluded
	// unless requireSpecies is false.
	LatestDistinct(ctx context.Context, requireSpecies bool) ([]model.Observation, error)
	// Movers compares the two most recent observations per (vendor,
	// product) and returns those whose price changed, ordered by absolute
	// percent change, bounded to limit.
	Movers(ctx context.Context, limit int) ([]model.Mover, error)
	// Close releases any underlying resources.
	Close()
}
