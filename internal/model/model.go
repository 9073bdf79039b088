// Package model defines the core data types shared across the pipeline.
package model

import (
	"net/http"
	"time"
)

// Page is a fetched HTML document plus its transport metadata. It is owned by
// the fetch step, consumed by the extractors, and discarded afterwards.
type Page struct {
	URL        string
	FinalURL   string
	StatusCode int
	Headers    http.Header
	Body       []byte
	UsedJS     bool
}

// ContentLength reports the size of the fetched body.
func (p Page) ContentLength() int {
	return len(p.Body)
}

// CandidateOffer is an unvalidated (price, currency, size, availability)
// tuple produced by an extractor before classification. A multi-variant page
// yields one candidate per variant.
type CandidateOffer struct {
	Label        string
	Price        float64
	Currency     string
	SizeText     string
	Availability string
	Available    *bool
	Source       string
}

// Observation is the persisted unit of truth: one validated price fact for
// one vendor/product/size at one point in time. Rows are append-only and are
// never updated; later rows with the same (vendor, url, size) key supersede
// earlier ones at query time.
type Observation struct {
	Vendor        string    `json:"vendor"`
	URL           string    `json:"url"`
	ProductName   string    `json:"product_name"`
	SpeciesCommon string    `json:"species_common,omitempty"`
	SpeciesLatin  string    `json:"species_latin,omitempty"`
	Grade         string    `json:"grade,omitempty"`
	GradeRank     int       `json:"grade_rank"`
	Currency      string    `json:"currency"`
	Price         float64   `json:"price"`
	SizeGrams     float64   `json:"size_grams"`
	SizeLabel     string    `json:"size_label"`
	PricePerGram  float64   `json:"price_per_gram"`
	OriginRegion  string    `json:"origin_region,omitempty"`
	RunID         string    `json:"run_id,omitempty"`
	ObservedAt    time.Time `json:"observed_at"`
}

// Key identifies the logical offer an observation belongs to. Two rows with
// the same key are the same offer seen at different times.
func (o Observation) Key() ObservationKey {
	return ObservationKey{Vendor: o.Vendor, URL: o.URL, SizeGrams: o.SizeGrams}
}

// ObservationKey is the (vendor, url, size_grams) identity used for
// latest-wins reconciliation.
type ObservationKey struct {
	Vendor    string
	URL       string
	SizeGrams float64
}

// Mover describes a price change between the two most recent observations of
// the same vendor/product.
type Mover struct {
	Vendor      string    `json:"vendor"`
	ProductName string    `json:"product_name"`
	URL         string    `json:"url"`
	Currency    string    `json:"currency"`
	OldPrice    float64   `json:"old_price"`
	NewPrice    float64   `json:"new_price"`
	PctChange   float64   `json:"pct_change"`
	ObservedAt  time.Time `json:"observed_at"`
}
