package sim

import "github.com/rustyeddy/supertrend/risk"

// profit marks t at price in account currency.
func (e *Engine) profit(t *Trade, price float64) float64 {
	return risk.NetProfit(t.Side.Sign(), t.Units, t.EntryPrice, price, e.meta.PipSize(), e.pipValue)
}
