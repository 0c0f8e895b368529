package journal

import (
	"fmt"
	"strings"
	"time"
)

// FormatEventOrg renders a change event as an Org-mode block suitable for
// pasting into an operator's notes. Structured facts live in a PROPERTIES
// drawer for easy search; the captured positions text follows as the body.
func FormatEventOrg(e EventRecord) string {
	heading := fmt.Sprintf("** Change: %s (%s)", e.Model, shortID(e.EventID))
	detected := e.DetectedAt.UTC().Format(time.RFC3339)

	var b strings.Builder
	b.WriteString(heading)
	b.WriteString("\n")
	b.WriteString(":PROPERTIES:\n")
	b.WriteString(fmt.Sprintf(":EVENT_ID: %s\n", e.EventID))
	b.WriteString(fmt.Sprintf(":ID: %s\n", e.EventID))
	b.WriteString(fmt.Sprintf(":MODEL: %s\n", e.Model))
	b.WriteString(fmt.Sprintf(":DETECTED_AT: %s\n", detected))
	if e.AggregatePnl.Valid {
		b.WriteString(fmt.Sprintf(":AGGREGATE_PNL: %.2f\n", e.AggregatePnl.Float64))
	}
	if e.PnlDelta.Valid {
		b.WriteString(fmt.Sprintf(":PNL_DELTA: %+.2f\n", e.PnlDelta.Float64))
	}
	b.WriteString(":END:\n")
	b.WriteString("\n")
	b.WriteString("*** Positions\n")
	b.WriteString(e.Positions)
	b.WriteString("\n\n")
	b.WriteString("*** Notes\n- \n")

	return b.String()
}

// FormatEventsOrg renders multiple events separated by blank lines.
func FormatEventsOrg(events []EventRecord) string {
	var b strings.Builder
	for i, e := range events {
		if i > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString(FormatEventOrg(e))
	}
	return b.String()
}

func shortID(full string) string {
	if len(full) <= 8 {
		return full
	}
	return full[:8]
}
