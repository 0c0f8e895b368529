package positions

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Side is the direction of a position.
type Side string

const (
	Long    Side = "LONG"
	Short   Side = "SHORT"
	Unknown Side = "UNKNOWN"
)

// Entry is one extracted position. String fields keep the page's own
// rendering (comma-grouped prices, "10X" leverage); only the P&L is parsed
// into a number, and it stays nil when the page gave nothing parseable.
type Entry struct {
	Symbol     string
	Side       Side
	Leverage   string
	EntryPrice string
	PnlText    string
	Pnl        *decimal.Decimal
}

// canonical is the entry's contribution to the state comparison key.
func (e Entry) canonical() string {
	return collapseWS(strings.Join([]string{
		e.Symbol, string(e.Side), e.Leverage, e.EntryPrice, e.PnlText,
	}, " "))
}

// State is a normalized view of one snapshot. Key is the sole equality
// criterion used by change detection; two states are the same observation
// iff their keys are byte-identical.
type State struct {
	Key          string
	Entries      []Entry
	AggregatePnl *decimal.Decimal
	CapturedAt   time.Time
}

// Degraded reports whether no structured positions were extracted. A
// degraded state is still valid; it just carries nothing to summarize.
func (s State) Degraded() bool {
	return len(s.Entries) == 0
}

func collapseWS(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
