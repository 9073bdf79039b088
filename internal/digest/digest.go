package digest

import (
	"sort"
	"time"

	"github.com/sturgeonlabs/caviarwatch/internal/model"
)

// DefaultTopN bounds how many entries each bucket carries.
const DefaultTopN = 6

// Options tune digest construction.
type Options struct {
	TopN        int
	MinTinGrams float64
	Scorer      ProximityScorer
}

func (o Options) withDefaults() Options {
	if o.TopN <= 0 {
		o.TopN = DefaultTopN
	}
	if o.MinTinGrams <= 0 {
		o.MinTinGrams = 28
	}
	return o
}

// Digest is the ranked payload handed to the mailer and the ops server.
// It is recomputed from the store on every run, never persisted.
type Digest struct {
	GeneratedAt time.Time                          `json:"generated_at"`
	Buckets     map[SizeBucket][]model.Observation `json:"buckets"`
	Movers      []model.Mover                      `json:"movers,omitempty"`
}

// Empty reports whether no bucket has any entries.
func (d *Digest) Empty() bool {
	for _, entries := range d.Buckets {
		if len(entries) > 0 {
			return false
		}
	}
	return true
}

// TopPick returns the best-ranked entry across buckets in bucket order.
func (d *Digest) TopPick() (model.Observation, bool) {
	for _, b := range BucketOrder {
		if entries := d.Buckets[b]; len(entries) > 0 {
			return entries[0], true
		}
	}
	return model.Observation{}, false
}

// Build groups the latest distinct observations into buckets, ranks each
// bucket, and truncates to the top N.
func Build(observations []model.Observation, movers []model.Mover, opts Options) *Digest {
	opts = opts.withDefaults()

	buckets := make(map[SizeBucket][]model.Observation, len(BucketOrder))
	for _, o := range observations {
		b, ok := BucketForSize(o.SizeGrams, opts.MinTinGrams)
		if !ok {
			continue
		}
		buckets[b] = append(buckets[b], o)
	}
	for b, entries := range buckets {
		sort.SliceStable(entries, func(i, j int) bool {
			return rankLess(entries[i], entries[j], opts.Scorer)
		})
		if len(entries) > opts.TopN {
			entries = entries[:opts.TopN]
		}
		buckets[b] = entries
	}

	return &Digest{
		GeneratedAt: time.Now().UTC(),
		Buckets:     buckets,
		Movers:      movers,
	}
}
