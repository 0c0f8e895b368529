package positions

import (
	"regexp"
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/rustyeddy/poswatch/source"
)

// Symbols the extractor recognizes outright. Anything else is best-effort
// inferred from the entry price range.
const symbolAlternatives = "BTC|ETH|SOL|XRP|BNB|DOGE|ADA|AVAX|TON|LTC|DOT|LINK|ATOM|APE|NEAR|OP|ARB|FTM|SUI|SEI|PEPE|SHIB|XLM|ETC|BCH|APT|TIA|INJ|RUNE|UNI|MATIC|POL|WIF|ORDI"

var (
	blockSplitRe = regexp.MustCompile(`(?i)Entry Time:\s*\d+:\d+:\d+`)
	sideRe       = regexp.MustCompile(`(?i)Side:\s*(LONG|SHORT)`)
	entryPriceRe = regexp.MustCompile(`(?i)Entry Price:\s*\$?([0-9,]+(?:\.[0-9]+)?)`)
	leverageRe   = regexp.MustCompile(`(?i)Leverage:\s*(\d+)\s*X`)
	pnlRe        = regexp.MustCompile(`(?i)Unrealized P&L:\s*([+-]?\$\s*[0-9,]+(?:\.[0-9]+)?)`)
	symbolRe     = regexp.MustCompile(`\b(` + symbolAlternatives + `)\b`)

	// Aggregate fallbacks, applied to the whole uppercased section when no
	// per-entry P&L parsed. Covers the page's occasional summary-only layout.
	// The lazy prefix leaves a leading sign to the capture group; a greedy
	// one would swallow the minus of a negative total.
	aggregateRes = []*regexp.Regexp{
		regexp.MustCompile(`UNREALIZED[^\n$]*?([-+]?\$\s*[0-9,]+(?:\.[0-9]+)?)`),
		regexp.MustCompile(`UNREALISED[^\n$]*?([-+]?\$\s*[0-9,]+(?:\.[0-9]+)?)`),
	}
)

// Normalize converts a raw snapshot into a State. It never fails: malformed
// or empty content yields a degraded state whose key is the collapsed raw
// text, so even unrecognizable content still participates in change
// detection.
func Normalize(snap source.Snapshot) State {
	text := strings.TrimSpace(snap.Text)

	entries := parseEntries(text)

	st := State{
		Entries:      entries,
		AggregatePnl: aggregatePnl(entries, text),
		CapturedAt:   snap.CapturedAt,
	}
	st.Key = comparisonKey(entries, text)

	// Presentation order: largest P&L first, unparsed last. The key above
	// is built from document order, so re-sorting never affects equality.
	sort.SliceStable(st.Entries, func(i, j int) bool {
		a, b := st.Entries[i].Pnl, st.Entries[j].Pnl
		switch {
		case a == nil:
			return false
		case b == nil:
			return true
		default:
			return a.GreaterThan(*b)
		}
	})

	return st
}

// comparisonKey is the canonical text form of the extracted position list,
// order-preserving and whitespace-collapsed. Volatile page noise outside the
// position blocks (render timestamps and the like) never reaches it.
func comparisonKey(entries []Entry, text string) string {
	if len(entries) == 0 {
		return collapseWS(text)
	}
	parts := make([]string, len(entries))
	for i, e := range entries {
		parts[i] = e.canonical()
	}
	return strings.Join(parts, " | ")
}

// parseEntries splits the section on "Entry Time:" markers and extracts one
// entry per block. A block only counts when a symbol was found (explicitly
// or inferred) and at least one structured field matched alongside it.
func parseEntries(text string) []Entry {
	if text == "" {
		return nil
	}

	blocks := blockSplitRe.Split(text, -1)
	if len(blocks) < 2 {
		return nil
	}

	var entries []Entry
	for _, block := range blocks[1:] {
		up := strings.ToUpper(block)

		sideM := sideRe.FindStringSubmatch(up)
		priceM := entryPriceRe.FindStringSubmatch(up)
		levM := leverageRe.FindStringSubmatch(up)
		pnlM := pnlRe.FindStringSubmatch(up)

		symbol := ""
		if m := symbolRe.FindStringSubmatch(up); m != nil {
			symbol = m[1]
		}
		if symbol == "" && priceM != nil {
			symbol = inferSymbol(priceM[1])
		}
		if symbol == "" || (sideM == nil && pnlM == nil && priceM == nil) {
			continue
		}

		e := Entry{Symbol: symbol, Side: Unknown}
		if sideM != nil {
			e.Side = Side(strings.ToUpper(sideM[1]))
		}
		if levM != nil {
			e.Leverage = levM[1] + "X"
		}
		if priceM != nil {
			e.EntryPrice = priceM[1]
		}
		if pnlM != nil {
			e.PnlText = strings.ReplaceAll(pnlM[1], " ", "")
			e.Pnl = parseMoney(e.PnlText)
		}
		entries = append(entries, e)
	}
	return entries
}

// aggregatePnl sums the entries' parsed P&L values. When none parsed it
// falls back to a whole-section scan; when that finds nothing either the
// aggregate is simply unavailable.
func aggregatePnl(entries []Entry, text string) *decimal.Decimal {
	var sum decimal.Decimal
	found := false
	for _, e := range entries {
		if e.Pnl != nil {
			sum = sum.Add(*e.Pnl)
			found = true
		}
	}
	if found {
		return &sum
	}
	return ExtractUnrealized(text)
}

// ExtractUnrealized scans free text for an "Unrealized P&L" figure. Returns
// nil when nothing parseable is present.
func ExtractUnrealized(text string) *decimal.Decimal {
	if text == "" {
		return nil
	}
	up := strings.ToUpper(text)
	for _, re := range aggregateRes {
		if m := re.FindStringSubmatch(up); m != nil {
			if d := parseMoney(m[1]); d != nil {
				return d
			}
		}
	}
	return nil
}

// parseMoney parses a sign + dollar + grouped-digits rendering into a
// decimal. nil on anything unparseable; values are never fabricated.
func parseMoney(s string) *decimal.Decimal {
	cleaned := strings.NewReplacer("$", "", ",", "", "+", "", " ", "").Replace(s)
	if cleaned == "" {
		return nil
	}
	d, err := decimal.NewFromString(cleaned)
	if err != nil {
		return nil
	}
	return &d
}

// inferSymbol guesses a symbol from an entry price when the page omits the
// ticker. Rough ranges only; overlapping prices stay unidentified.
func inferSymbol(price string) string {
	d := parseMoney(price)
	if d == nil {
		return ""
	}
	v, _ := d.Float64()
	switch {
	case v >= 0.5 && v < 10:
		return "SOL"
	case v >= 1000 && v < 5000:
		return "ETH"
	case v >= 50000 && v < 150000:
		return "BTC"
	default:
		return ""
	}
}
