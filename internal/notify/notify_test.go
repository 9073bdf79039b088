package notify

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/sturgeonlabs/caviarwatch/internal/digest"
	"github.com/sturgeonlabs/caviarwatch/internal/model"
)

func sampleDigest(t *testing.T) *digest.Digest {
	t.Helper()
	d := digest.Build([]model.Observation{
		{
			Vendor:        "Marshallberg Farm",
			ProductName:   "Osetra Caviar",
			URL:           "https://example.com/osetra",
			SpeciesCommon: "Osetra",
			Grade:         "Royal",
			GradeRank:     2,
			Currency:      "USD",
			Price:         95,
			SizeGrams:     30,
			SizeLabel:     "1 oz / 30 g",
			PricePerGram:  3.17,
		},
	}, []model.Mover{
		{
			Vendor:      "Imperia",
			ProductName: "Kaluga Hybrid",
			URL:         "https://example.com/kaluga",
			Currency:    "USD",
			OldPrice:    130,
			NewPrice:    110,
			PctChange:   -15.38,
		},
	}, digest.Options{})
	d.GeneratedAt = time.Date(2026, 9, 1, 8, 0, 0, 0, time.UTC)
	return d
}

func TestRenderHTMLListsEntriesAndMovers(t *testing.T) {
	t.Parallel()

	html, err := RenderHTML(sampleDigest(t))
	require.NoError(t, err)

	require.Contains(t, html, "September 1, 2026")
	require.Contains(t, html, "Osetra Caviar")
	require.Contains(t, html, "For Two")
	require.Contains(t, html, "Top pick:")
	require.Contains(t, html, "Price movers")
	require.Contains(t, html, "Kaluga Hybrid")
	require.NotContains(t, html, "No listings found")
}

func TestRenderHTMLEmptyDigest(t *testing.T) {
	t.Parallel()

	d := digest.Build(nil, nil, digest.Options{})
	html, err := RenderHTML(d)
	require.NoError(t, err)
	require.Contains(t, html, "No listings found this run")
	require.False(t, strings.Contains(html, "<table"))
}

func TestSubjectCarriesDate(t *testing.T) {
	t.Parallel()

	require.Equal(t, "Caviar Digest — September 1, 2026", Subject(sampleDigest(t)))
}

func TestNewSMTPMailerValidation(t *testing.T) {
	t.Parallel()

	_, err := NewSMTPMailer(SMTPConfig{From: "a@b.c", To: "d@e.f"})
	require.Error(t, err)

	_, err = NewSMTPMailer(SMTPConfig{Host: "smtp.example.com", To: "d@e.f"})
	require.Error(t, err)

	_, err = NewSMTPMailer(SMTPConfig{Host: "smtp.example.com", From: "a@b.c"})
	require.Error(t, err)

	m, err := NewSMTPMailer(SMTPConfig{Host: "smtp.example.com", From: "a@b.c", To: "D@E.F"})
	require.NoError(t, err)
	require.Equal(t, "smtp.example.com:465", m.addr)
	require.Equal(t, "d@e.f", m.to)
}
