package indicators

import "fmt"

// Level is one trend line value on a bar: either Active at a price or Inactive.
// The zero Level is Inactive.
type Level struct {
	price  float64
	active bool
}

// Active returns a level that carries a price.
func Active(price float64) Level {
	return Level{price: price, active: true}
}

// Inactive returns a level with no value.
func Inactive() Level {
	return Level{}
}

// Value returns the price and whether the level is active.
func (l Level) Value() (float64, bool) {
	return l.price, l.active
}

func (l Level) IsActive() bool {
	return l.active
}

func (l Level) String() string {
	if !l.active {
		return "Inactive"
	}
	return fmt.Sprintf("Active(%g)", l.price)
}

// TrendSignal carries the up-trend and down-trend lines for one bar.
type TrendSignal struct {
	Up   Level
	Down Level
}

func (s TrendSignal) String() string {
	return fmt.Sprintf("up=%s down=%s", s.Up, s.Down)
}
