// market/instruments.go
package market

import "math"

type InstrumentMeta struct {
	Name          string
	BaseCurrency  string
	QuoteCurrency string
	PipLocation   int

	// PipValue is the account-currency value of one pip for one unit.
	// Zero means the caller must supply it.
	PipValue float64

	TradeUnitsPrecision int
	MinimumTradeSize    float64
}

// PipSize is the price increment of one pip.
func (m InstrumentMeta) PipSize() float64 {
	return PipSize(m.PipLocation)
}

// PipSize returns the pip size for a given pip location.
func PipSize(loc int) float64 {
	return math.Pow(10, float64(loc))
}

var Instruments = map[string]InstrumentMeta{
	"EUR_USD": {
		Name:                "EUR_USD",
		BaseCurrency:        "EUR",
		QuoteCurrency:       "USD",
		PipLocation:         -4,
		PipValue:            0.0001,
		TradeUnitsPrecision: 0,
		MinimumTradeSize:    1,
	},
	"GBP_USD": {
		Name:                "GBP_USD",
		BaseCurrency:        "GBP",
		QuoteCurrency:       "USD",
		PipLocation:         -4,
		PipValue:            0.0001,
		TradeUnitsPrecision: 0,
		MinimumTradeSize:    1,
	},
	"USD_JPY": {
		Name:                "USD_JPY",
		BaseCurrency:        "USD",
		QuoteCurrency:       "JPY",
		PipLocation:         -2,
		TradeUnitsPrecision: 0,
		MinimumTradeSize:    1,
	},
	// Index CFD quoted in USD; one point is one pip and worth one dollar per unit.
	"NAS100_USD": {
		Name:                "NAS100_USD",
		BaseCurrency:        "NAS100",
		QuoteCurrency:       "USD",
		PipLocation:         0,
		PipValue:            1,
		TradeUnitsPrecision: 1,
		MinimumTradeSize:    0.1,
	},
}

// Lookup returns the metadata for a known instrument.
func Lookup(name string) (InstrumentMeta, bool) {
	m, ok := Instruments[name]
	return m, ok
}
