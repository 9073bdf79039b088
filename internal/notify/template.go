package notify

import (
	"bytes"
	"fmt"
	"html/template"

	"github.com/sturgeonlabs/caviarwatch/internal/digest"
	"github.com/sturgeonlabs/caviarwatch/internal/model"
)

var digestTmpl = template.Must(template.New("digest").Parse(`<!DOCTYPE html>
<html>
<body style="font-family: Georgia, serif; color: #222; max-width: 720px; margin: 0 auto;">
  <h1 style="border-bottom: 2px solid #1a1a2e;">Caviar Digest &mdash; {{.Date}}</h1>
{{if .Empty}}
  <p>No listings found this run. Either every site was unreachable or nothing passed the filters.</p>
{{else}}
{{with .TopPick}}
  <p><strong>Top pick:</strong> {{.ProductName}} from {{.Vendor}} &mdash;
    {{printf "%.2f" .Price}} {{.Currency}} for {{.SizeLabel}}
    ({{printf "%.2f" .PricePerGram}} {{.Currency}}/g).</p>
{{end}}
{{range .Buckets}}
  <h2 style="margin-top: 1.5em;">{{.Name}}</h2>
  <table cellpadding="6" cellspacing="0" border="0" width="100%" style="border-collapse: collapse;">
    <tr style="background: #1a1a2e; color: #fff; text-align: left;">
      <th>Vendor</th><th>Product</th><th>Species</th><th>Grade</th><th>Size</th><th>Price</th><th>Per gram</th>
    </tr>
{{range .Entries}}
    <tr style="border-bottom: 1px solid #ddd;">
      <td>{{.Vendor}}</td>
      <td><a href="{{.URL}}">{{.ProductName}}</a></td>
      <td>{{if .SpeciesCommon}}{{.SpeciesCommon}}{{else}}&mdash;{{end}}</td>
      <td>{{if .Grade}}{{.Grade}}{{else}}&mdash;{{end}}</td>
      <td>{{.SizeLabel}}</td>
      <td>{{printf "%.2f" .Price}} {{.Currency}}</td>
      <td>{{printf "%.2f" .PricePerGram}}</td>
    </tr>
{{end}}
  </table>
{{end}}
{{if .Movers}}
  <h2 style="margin-top: 1.5em;">Price movers</h2>
  <ul>
{{range .Movers}}
    <li><a href="{{.URL}}">{{.ProductName}}</a> ({{.Vendor}}):
      {{printf "%.2f" .OldPrice}} &rarr; {{printf "%.2f" .NewPrice}} {{.Currency}}
      ({{printf "%+.1f" .PctChange}}%)</li>
{{end}}
  </ul>
{{end}}
{{end}}
  <p style="color: #888; font-size: 12px; margin-top: 2em;">Generated by caviarwatch.</p>
</body>
</html>
`))

type bucketView struct {
	Name    string
	Entries []model.Observation
}

type digestView struct {
	Date    string
	Empty   bool
	TopPick *model.Observation
	Buckets []bucketView
	Movers  []model.Mover
}

// RenderHTML builds the email body from a digest. Buckets render in their
// fixed order and empty buckets are skipped.
func RenderHTML(d *digest.Digest) (string, error) {
	view := digestView{
		Date:   d.GeneratedAt.Format("January 2, 2006"),
		Empty:  d.Empty(),
		Movers: d.Movers,
	}
	if pick, ok := d.TopPick(); ok {
		view.TopPick = &pick
	}
	for _, b := range digest.BucketOrder {
		if entries := d.Buckets[b]; len(entries) > 0 {
			view.Buckets = append(view.Buckets, bucketView{Name: string(b), Entries: entries})
		}
	}

	var buf bytes.Buffer
	if err := digestTmpl.Execute(&buf, view); err != nil {
		return "", fmt.Errorf("render digest template: %w", err)
	}
	return buf.String(), nil
}

// Subject returns the email subject line for a digest.
func Subject(d *digest.Digest) string {
	return "Caviar Digest — " + d.GeneratedAt.Format("January 2, 2006")
}
