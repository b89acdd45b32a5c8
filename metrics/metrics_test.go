package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg, "ST")

	m.Bars.Inc()
	m.Bars.Inc()
	m.OrdersSubmitted.WithLabelValues("LONG").Inc()
	m.Close(20)
	m.Close(-5)
	m.Close(0)
	m.Daily(2, true)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.Bars))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.OrdersSubmitted.WithLabelValues("LONG")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Closes.WithLabelValues("win")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.Closes.WithLabelValues("loss")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.TradesToday))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.WonToday))

	m.Daily(0, false)
	assert.Equal(t, 0.0, testutil.ToFloat64(m.WonToday))

	n, err := testutil.GatherAndCount(reg, "supertrend_bars_total")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestNilRegisterer(t *testing.T) {
	m := New(nil, "ST")
	m.EntriesBlocked.Inc()
	assert.Equal(t, 1.0, testutil.ToFloat64(m.EntriesBlocked))
}
