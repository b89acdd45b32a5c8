package risk

import (
	"errors"
	"fmt"
	"math"

	"github.com/shopspring/decimal"
)

var (
	ErrInvalidStopDistance = errors.New("risk: invalid stop distance")
	ErrZeroSize            = errors.New("risk: position size rounds to zero")
)

// Size converts a risk budget into units:
//
//	round(riskAmount / (stopPips * pipValue))
//
// Rounding is to the nearest whole unit, ties to even. The arithmetic is done
// in decimal so pip distances like 0.05/0.0001 don't land on 499.999...
func Size(riskAmount, stopPips, pipValue float64) (float64, error) {
	if !finite(stopPips) || stopPips <= 0 {
		return 0, fmt.Errorf("%w: stop=%v pips", ErrInvalidStopDistance, stopPips)
	}
	if !finite(pipValue) || pipValue <= 0 {
		return 0, fmt.Errorf("%w: pip value=%v", ErrInvalidStopDistance, pipValue)
	}

	perUnit := decimal.NewFromFloat(stopPips).Mul(decimal.NewFromFloat(pipValue))
	units := decimal.NewFromFloat(riskAmount).Div(perUnit).RoundBank(0)

	f, _ := units.Float64()
	if f <= 0 {
		return 0, fmt.Errorf("%w: risk=%v stop=%v pips", ErrZeroSize, riskAmount, stopPips)
	}
	return f, nil
}

// StopPips returns the signed distance from entry to stop in pips.
// Positive means the stop is on the losing side of a long (stop below entry).
func StopPips(entry, stop, pipSize float64) float64 {
	if pipSize <= 0 {
		return math.NaN()
	}
	d := decimal.NewFromFloat(entry).Sub(decimal.NewFromFloat(stop)).
		Div(decimal.NewFromFloat(pipSize))
	f, _ := d.Float64()
	return f
}

func finite(x float64) bool {
	return !math.IsNaN(x) && !math.IsInf(x, 0)
}
