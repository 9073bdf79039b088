package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/sturgeonlabs/caviarwatch/internal/model"
)

func obsAt(vendor, url, name, species string, price, grams float64, at time.Time) model.Observation {
	return model.Observation{
		Vendor:        vendor,
		URL:           url,
		ProductName:   name,
		SpeciesCommon: species,
		Currency:      "USD",
		Price:         price,
		SizeGrams:     grams,
		SizeLabel:     "1 oz / 30 g",
		PricePerGram:  price / grams,
		ObservedAt:    at,
	}
}

func TestMemoryLatestDistinctKeepsNewestPerOffer(t *testing.T) {
	t.Parallel()

	s := NewMemory()
	ctx := context.Background()
	base := time.Unix(1700000000, 0).UTC()

	require.NoError(t, s.Append(ctx, []model.Observation{
		obsAt("Imperia", "https://x.com/a", "Osetra", "Osetra", 100, 30, base),
		obsAt("Imperia", "https://x.com/a", "Osetra", "Osetra", 88, 30, base.Add(time.Hour)),
		obsAt("Imperia", "https://x.com/a", "Osetra", "Osetra", 300, 125, base),
	}))

	got, err := s.LatestDistinct(ctx, true)
	require.NoError(t, err)
	require.Len(t, got, 2)
	require.Equal(t, 88.0, got[0].Price)
	require.Equal(t, 125.0, got[1].SizeGrams)
}

func TestMemoryLatestDistinctRequireSpecies(t *testing.T) {
	t.Parallel()

	s := NewMemory()
	ctx := context.Background()
	base := time.Unix(1700000000, 0).UTC()

	require.NoError(t, s.Append(ctx, []model.Observation{
		obsAt("Imperia", "https://x.com/a", "Osetra", "Osetra", 100, 30, base),
		obsAt("Imperia", "https://x.com/b", "House Caviar", "", 60, 30, base),
	}))

	strict, err := s.LatestDistinct(ctx, true)
	require.NoError(t, err)
	require.Len(t, strict, 1)

	relaxed, err := s.LatestDistinct(ctx, false)
	require.NoError(t, err)
	require.Len(t, relaxed, 2)
}

func TestMemoryMoversSortedByAbsChange(t *testing.T) {
	t.Parallel()

	s := NewMemory()
	ctx := context.Background()
	base := time.Unix(1700000000, 0).UTC()

	require.NoError(t, s.Append(ctx, []model.Observation{
		obsAt("Imperia", "https://x.com/a", "Osetra", "Osetra", 100, 30, base),
		obsAt("Imperia", "https://x.com/a", "Osetra", "Osetra", 90, 30, base.Add(time.Hour)),
		obsAt("Browne", "https://y.com/b", "Kaluga", "Kaluga", 200, 50, base),
		obsAt("Browne", "https://y.com/b", "Kaluga", "Kaluga", 300, 50, base.Add(time.Hour)),
		obsAt("Browne", "https://y.com/c", "Sevruga", "Sevruga", 150, 50, base),
	}))

	got, err := s.Movers(ctx, 5)
	require.NoError(t, err)
	require.Len(t, got, 2)
	require.Equal(t, "Kaluga", got[0].ProductName)
	require.Equal(t, 50.0, got[0].PctChange)
	require.Equal(t, -10.0, got[1].PctChange)
}

func TestMemoryMoversSkipsUnchangedPrices(t *testing.T) {
	t.Parallel()

	s := NewMemory()
	ctx := context.Background()
	base := time.Unix(1700000000, 0).UTC()

	require.NoError(t, s.Append(ctx, []model.Observation{
		obsAt("Imperia", "https://x.com/a", "Osetra", "Osetra", 100, 30, base),
		obsAt("Imperia", "https://x.com/a", "Osetra", "Osetra", 100, 30, base.Add(time.Hour)),
	}))

	got, err := s.Movers(ctx, 5)
	require.NoError(t, err)
	require.Empty(t, got)
}
