package journal

import (
	"fmt"
	"strings"
	"time"
)

// FormatTradeOrg renders a closed trade as an Org-mode heading with the
// facts in a PROPERTIES drawer, so journals stay greppable.
func FormatTradeOrg(t TradeRecord) string {
	var b strings.Builder
	fmt.Fprintf(&b, "** %s %s %s (%s)\n", t.Outcome(), t.Side, t.Instrument, shortID(t.TradeID))
	b.WriteString(":PROPERTIES:\n")
	fmt.Fprintf(&b, ":TRADE_ID: %s\n", t.TradeID)
	fmt.Fprintf(&b, ":LABEL: %s\n", t.Label)
	fmt.Fprintf(&b, ":SIDE: %s\n", t.Side)
	fmt.Fprintf(&b, ":UNITS: %s\n", num(t.Units))
	fmt.Fprintf(&b, ":ENTRY_PRICE: %s\n", num(t.EntryPrice))
	fmt.Fprintf(&b, ":EXIT_PRICE: %s\n", num(t.ExitPrice))
	fmt.Fprintf(&b, ":STOP_PIPS: %.1f\n", t.StopPips)
	fmt.Fprintf(&b, ":OPEN_TIME: %s\n", stamp(t.OpenTime))
	fmt.Fprintf(&b, ":CLOSE_TIME: %s\n", stamp(t.CloseTime))
	fmt.Fprintf(&b, ":REALIZED_PL: %.2f\n", t.RealizedPL)
	fmt.Fprintf(&b, ":REASON: %s\n", t.Reason)
	b.WriteString(":END:\n")
	return b.String()
}

// FormatDayOrg renders one day's trades under a summary heading.
func FormatDayOrg(day time.Time, trades []TradeRecord) string {
	wins := 0
	pl := 0.0
	for _, t := range trades {
		pl += t.RealizedPL
		if t.RealizedPL > 0 {
			wins++
		}
	}

	var b strings.Builder
	fmt.Fprintf(&b, "* %s trades=%d wins=%d pl=%.2f\n", day.Format("2006-01-02"), len(trades), wins, pl)
	for _, t := range trades {
		b.WriteString(FormatTradeOrg(t))
	}
	return b.String()
}

func shortID(full string) string {
	if len(full) <= 8 {
		return full
	}
	return full[len(full)-8:]
}
