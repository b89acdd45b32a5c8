package risk

import "math"

// PlannedRisk is the account-currency loss if the stop is hit.
func PlannedRisk(units, stopPips, pipValue float64) float64 {
	return math.Abs(units) * math.Abs(stopPips) * pipValue
}

// NetProfit is the P/L in account currency of moving from entry to exit.
// side is +1 for long and -1 for short.
func NetProfit(side, units, entry, exit, pipSize, pipValue float64) float64 {
	if pipSize <= 0 {
		return 0
	}
	pips := side * (exit - entry) / pipSize
	return pips * pipValue * math.Abs(units)
}
