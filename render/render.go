// Package render turns normalized position states into the human-readable
// forms the sinks and the latest-state view share: a one-line headline, a
// colored terminal table, a fixed-width detail block, and an HTML document.
package render

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/rustyeddy/poswatch/positions"
)

const (
	ansiReset = "\x1b[0m"
	ansiBold  = "\x1b[1m"
	ansiRed   = "\x1b[31m"
	ansiGreen = "\x1b[32m"
	ansiCyan  = "\x1b[36m"
)

// Headline is the short alert line used by the desktop and popup sinks.
func Headline(delta *decimal.Decimal) string {
	if delta == nil {
		return "Active positions changed"
	}
	return fmt.Sprintf("Δ Unrealized P&L: %s", Signed(delta))
}

// Signed formats a decimal with an explicit sign and two fractional digits.
func Signed(d *decimal.Decimal) string {
	if d == nil {
		return "N/A"
	}
	s := d.StringFixed(2)
	if !strings.HasPrefix(s, "-") {
		s = "+" + s
	}
	return s
}

// Table renders the entries as a terminal table. With color enabled,
// profits render green and losses red; a TOTAL row is appended when at
// least one entry carried a parsed P&L.
func Table(entries []positions.Entry, color bool) string {
	if len(entries) == 0 {
		return ""
	}

	var b strings.Builder
	writeRule(&b)
	fmt.Fprintf(&b, "%-10s %-8s %-10s %-15s %-15s\n", "Symbol", "Side", "Leverage", "Entry Price", "Unrealized P&L")
	writeRule(&b)

	total := decimal.Zero
	hasPnl := false
	for _, e := range entries {
		pnl := e.PnlText
		if pnl == "" {
			pnl = "N/A"
		}
		if color && e.Pnl != nil {
			c := ansiGreen
			if e.Pnl.IsNegative() {
				c = ansiRed
			}
			pnl = c + pnl + ansiReset
		}

		symbol := e.Symbol
		if symbol == "" {
			symbol = "?"
		}
		if color {
			symbol = ansiBold + ansiCyan + symbol + ansiReset
		}

		fmt.Fprintf(&b, "%-10s %-8s %-10s %-15s %-15s\n",
			symbol, sideLabel(e.Side), e.Leverage, priceLabel(e.EntryPrice), pnl)

		if e.Pnl != nil {
			total = total.Add(*e.Pnl)
			hasPnl = true
		}
	}

	if hasPnl {
		writeRule(&b)
		label := Signed(&total)
		if color {
			c := ansiGreen
			if total.IsNegative() {
				c = ansiRed
			}
			label = ansiBold + c + label + ansiReset
		}
		fmt.Fprintf(&b, "%-10s %-8s %-10s %-15s %-15s\n", "TOTAL", "", "", "", label)
	}
	writeRule(&b)

	return b.String()
}

// Details is the plain fixed-width block shown in the popup sink.
func Details(entries []positions.Entry) string {
	if len(entries) == 0 {
		return "Unable to parse positions"
	}
	var b strings.Builder
	b.WriteString("Current positions:\n\n")
	b.WriteString(Table(entries, false))
	return b.String()
}

func writeRule(b *strings.Builder) {
	b.WriteString(strings.Repeat("=", 62))
	b.WriteString("\n")
}

func sideLabel(s positions.Side) string {
	if s == positions.Unknown {
		return ""
	}
	// Title-case for display: LONG -> Long.
	return string(s[:1]) + strings.ToLower(string(s[1:]))
}

func priceLabel(p string) string {
	if p == "" {
		return ""
	}
	return "$" + p
}
