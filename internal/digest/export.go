package digest

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
)

var csvHeader = []string{
	"bucket", "rank", "vendor", "product_name", "species_common",
	"species_latin", "grade", "currency", "price", "size_grams",
	"size_label", "price_per_gram", "origin_region", "url",
}

// WriteCSV emits every bucket's entries in rank order, one row per entry.
func (d *Digest) WriteCSV(w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for _, b := range BucketOrder {
		for i, o := range d.Buckets[b] {
			row := []string{
				string(b),
				strconv.Itoa(i + 1),
				o.Vendor,
				o.ProductName,
				o.SpeciesCommon,
				o.SpeciesLatin,
				o.Grade,
				o.Currency,
				strconv.FormatFloat(o.Price, 'f', 2, 64),
				strconv.FormatFloat(o.SizeGrams, 'f', -1, 64),
				o.SizeLabel,
				strconv.FormatFloat(o.PricePerGram, 'f', 2, 64),
				o.OriginRegion,
				o.URL,
			}
			if err := cw.Write(row); err != nil {
				return fmt.Errorf("write csv row: %w", err)
			}
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteJSON emits the whole digest, buckets and movers included.
func (d *Digest) WriteJSON(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(d); err != nil {
		return fmt.Errorf("encode digest json: %w", err)
	}
	return nil
}

// Export writes caviar_prices.csv and caviar_prices.json into dir, creating
// it if needed.
func (d *Digest) Export(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create export dir: %w", err)
	}
	csvPath := filepath.Join(dir, "caviar_prices.csv")
	cf, err := os.Create(csvPath)
	if err != nil {
		return fmt.Errorf("create %s: %w", csvPath, err)
	}
	defer cf.Close()
	if err := d.WriteCSV(cf); err != nil {
		return err
	}

	jsonPath := filepath.Join(dir, "caviar_prices.json")
	jf, err := os.Create(jsonPath)
	if err != nil {
		return fmt.Errorf("create %s: %w", jsonPath, err)
	}
	defer jf.Close()
	return d.WriteJSON(jf)
}
