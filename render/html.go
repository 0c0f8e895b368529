package render

import (
	"bytes"
	"fmt"
	"html/template"
	"time"

	"github.com/shopspring/decimal"

	"github.com/rustyeddy/poswatch/positions"
)

// HTML renders the latest-state view document: a standalone page with the
// position table, profit/loss styling, and a last-updated stamp.
func HTML(entries []positions.Entry, model string, updated time.Time) ([]byte, error) {
	data := htmlData{
		Model:   model,
		Updated: updated.Format("2006-01-02 15:04:05"),
	}

	total := decimal.Zero
	hasPnl := false
	for _, e := range entries {
		row := htmlRow{
			Symbol:   e.Symbol,
			Side:     sideLabel(e.Side),
			Leverage: e.Leverage,
			Entry:    priceLabel(e.EntryPrice),
			Pnl:      e.PnlText,
		}
		if row.Symbol == "" {
			row.Symbol = "?"
		}
		if row.Pnl == "" {
			row.Pnl = "N/A"
		}
		if e.Pnl != nil {
			hasPnl = true
			total = total.Add(*e.Pnl)
			if e.Pnl.IsNegative() {
				row.Class = "loss"
			} else {
				row.Class = "profit"
			}
		}
		data.Rows = append(data.Rows, row)
	}

	if hasPnl {
		data.Total = fmt.Sprintf("$%s", Signed(&total))
		data.TotalClass = "profit"
		if total.IsNegative() {
			data.TotalClass = "loss"
		}
	}

	var buf bytes.Buffer
	if err := latestTmpl.Execute(&buf, data); err != nil {
		return nil, fmt.Errorf("render latest view: %w", err)
	}
	return buf.Bytes(), nil
}

type htmlRow struct {
	Symbol   string
	Side     string
	Leverage string
	Entry    string
	Pnl      string
	Class    string
}

type htmlData struct {
	Model      string
	Updated    string
	Rows       []htmlRow
	Total      string
	TotalClass string
}

var latestTmpl = template.Must(template.New("latest").Parse(`<!DOCTYPE html>
<html><head><meta charset="utf-8"><title>{{.Model}} Positions</title>
<style>
body { font-family: system-ui, -apple-system, "Segoe UI", Roboto, Arial, sans-serif; max-width: 900px; margin: 20px auto; padding: 20px; }
h2 { color: #333; }
table { border-collapse: collapse; width: 100%; margin: 20px 0; }
td, th { border: 1px solid #ddd; padding: 8px 12px; text-align: left; }
th { background: #f5f5f5; font-weight: bold; }
.profit { color: #28a745; font-weight: bold; }
.loss { color: #dc3545; font-weight: bold; }
</style>
</head><body>
<h2>{{.Model}} Active Positions</h2>
<p><small>Last updated: {{.Updated}}</small></p>
<table>
<thead>
<tr><th>Symbol</th><th>Side</th><th>Leverage</th><th>Entry Price</th><th>Unrealized P&amp;L</th></tr>
</thead>
<tbody>
{{range .Rows}}<tr><td>{{.Symbol}}</td><td>{{.Side}}</td><td>{{.Leverage}}</td><td>{{.Entry}}</td><td class="{{.Class}}">{{.Pnl}}</td></tr>
{{end}}</tbody>
</table>
{{if .Total}}<p><strong>Total P&amp;L:</strong> <span class="{{.TotalClass}}">{{.Total}}</span></p>{{end}}
</body></html>
`))
