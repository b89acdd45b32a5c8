package strategies

import "github.com/rustyeddy/supertrend/indicators"

type Flip int

const (
	NoFlip Flip = iota
	BullishFlip
	BearishFlip
)

func (f Flip) String() string {
	switch f {
	case BullishFlip:
		return "BullishFlip"
	case BearishFlip:
		return "BearishFlip"
	default:
		return "NoFlip"
	}
}

// DetectFlip fires only on the first bar of a new trend segment: a line that
// is active now and was inactive on the previous bar. Bullish wins a tie.
func DetectFlip(prev, cur indicators.TrendSignal) Flip {
	switch {
	case cur.Up.IsActive() && !prev.Up.IsActive():
		return BullishFlip
	case cur.Down.IsActive() && !prev.Down.IsActive():
		return BearishFlip
	default:
		return NoFlip
	}
}
