package store

import (
	"context"
	"testing"
	"time"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/require"

	"github.com/sturgeonlabs/caviarwatch/internal/model"
)

func TestPostgresAppendInsertsRows(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	s, err := NewPostgresWithPool(mock)
	require.NoError(t, err)

	obs := model.Observation{
		Vendor:        "Marshallberg Farm",
		URL:           "https://example.com/osetra",
		ProductName:   "Osetra Caviar",
		SpeciesCommon: "Osetra",
		SpeciesLatin:  "Acipenser gueldenstaedtii",
		Grade:         "Royal",
		GradeRank:     2,
		Currency:      "USD",
		Price:         95,
		SizeGrams:     30,
		SizeLabel:     "1 oz / 30 g",
		PricePerGram:  3.17,
		OriginRegion:  "NC",
		RunID:         "run-1",
	}

	mock.ExpectExec("INSERT INTO observations").
		WithArgs(
			obs.Vendor, obs.URL, obs.ProductName, obs.SpeciesCommon, obs.SpeciesLatin,
			obs.Grade, obs.GradeRank, obs.Currency, obs.Price, obs.SizeGrams,
			obs.SizeLabel, obs.PricePerGram, obs.OriginRegion, obs.RunID,
		).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	err = s.Append(context.Background(), []model.Observation{obs})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresLatestDistinctScansRows(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	s, err := NewPostgresWithPool(mock)
	require.NoError(t, err)

	now := time.Unix(1700000000, 0).UTC()

	rows := pgxmock.NewRows([]string{
		"vendor", "url", "product_name", "species_common", "species_latin",
		"grade", "grade_rank", "currency", "price", "size_grams",
		"size_label", "price_per_gram", "origin_region", "run_id", "observed_at",
	}).AddRow(
		"Imperia", "https://example.com/kaluga", "Kaluga Hybrid Caviar",
		"Kaluga Hybrid", "Huso dauricus x Acipenser schrenckii",
		"", 99, "USD", 130.0, 50.0, "1.8 oz / 50 g", 2.6, "", "run-1", now,
	)

	mock.ExpectQuery("WITH latest AS").
		WithArgs(true).
		WillReturnRows(rows)

	got, err := s.LatestDistinct(context.Background(), true)
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Equal(t, "Kaluga Hybrid", got[0].SpeciesCommon)
	require.Equal(t, 50.0, got[0].SizeGrams)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresMoversComputesPctChange(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	s, err := NewPostgresWithPool(mock)
	require.NoError(t, err)

	now := time.Unix(1700000000, 0).UTC()

	rows := pgxmock.NewRows([]string{
		"vendor", "product_name", "url", "currency", "old_price", "new_price", "observed_at",
	}).AddRow(
		"Marshallberg Farm", "Osetra Caviar", "https://example.com/osetra",
		"USD", 100.0, 88.0, now,
	)

	mock.ExpectQuery("WITH ranked AS").
		WithArgs(5).
		WillReturnRows(rows)

	got, err := s.Movers(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Equal(t, -12.0, got[0].PctChange)
	require.NoError(t, mock.ExpectationsWereMet())
}
