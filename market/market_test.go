package market

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPipSize(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		loc  int
		want float64
	}{
		{"zero", 0, 1},
		{"negative2", -2, 0.01},
		{"positive1", 1, 10},
		{"negative4", -4, 0.0001},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.InDelta(t, tt.want, PipSize(tt.loc), 1e-12)
		})
	}
}

func TestLookup(t *testing.T) {
	t.Parallel()

	m, ok := Lookup("NAS100_USD")
	require.True(t, ok)
	assert.Equal(t, 1.0, m.PipSize())
	assert.Equal(t, 1.0, m.PipValue)

	_, ok = Lookup("XAU_XAG")
	assert.False(t, ok)
}

func TestSide(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "LONG", Long.String())
	assert.Equal(t, "SHORT", Short.String())
	assert.Equal(t, Short, Long.Opposite())
	assert.Equal(t, Long, Short.Opposite())
	assert.Equal(t, -1.0, Short.Sign())
	assert.Equal(t, 1.0, Long.Sign())

	s, err := ParseSide(" Sell ")
	require.NoError(t, err)
	assert.Equal(t, Short, s)

	_, err = ParseSide("sideways")
	assert.Error(t, err)
}

func TestBarValid(t *testing.T) {
	t.Parallel()

	ts := time.Date(2024, 3, 1, 15, 0, 0, 0, time.UTC)
	assert.True(t, Bar{Time: ts, Open: 1, High: 2, Low: 1, Close: 1.5}.Valid())
	assert.False(t, Bar{Open: 1, High: 2, Low: 1, Close: 1.5}.Valid())
	assert.False(t, Bar{Time: ts, High: 1, Low: 2, Close: 1.5}.Valid())
	assert.InDelta(t, 1.5, Bar{High: 2, Low: 1}.Median(), 1e-12)
}
