package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics are the runner's counters. Built against an injected registerer so
// tests can use a fresh registry.
type Metrics struct {
	Bars            prometheus.Counter
	OrdersSubmitted *prometheus.CounterVec // side
	OrdersFailed    *prometheus.CounterVec // side
	Closes          *prometheus.CounterVec // outcome: win|loss
	CloseFailures   prometheus.Counter
	EntriesBlocked  prometheus.Counter
	TradesToday     prometheus.Gauge
	WonToday        prometheus.Gauge
	Equity          prometheus.Gauge
}

func New(reg prometheus.Registerer, label string) *Metrics {
	constLabels := prometheus.Labels{"label": label}
	m := &Metrics{
		Bars: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "supertrend_bars_total", Help: "Closed bars handled.", ConstLabels: constLabels,
		}),
		OrdersSubmitted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "supertrend_orders_submitted_total", Help: "Market orders accepted by the gateway.", ConstLabels: constLabels,
		}, []string{"side"}),
		OrdersFailed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "supertrend_orders_failed_total", Help: "Market orders the gateway refused.", ConstLabels: constLabels,
		}, []string{"side"}),
		Closes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "supertrend_closes_total", Help: "Positions closed on a trend end.", ConstLabels: constLabels,
		}, []string{"outcome"}),
		CloseFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "supertrend_close_failures_total", Help: "Close requests the gateway refused.", ConstLabels: constLabels,
		}),
		EntriesBlocked: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "supertrend_entries_blocked_total", Help: "Bars where an entry or reversal was skipped.", ConstLabels: constLabels,
		}),
		TradesToday: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "supertrend_trades_today", Help: "Entries taken on the current day.", ConstLabels: constLabels,
		}),
		WonToday: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "supertrend_won_today", Help: "1 once a trade closed in profit today.", ConstLabels: constLabels,
		}),
		Equity: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "supertrend_equity", Help: "Gateway equity when it reports one.", ConstLabels: constLabels,
		}),
	}
	if reg != nil {
		reg.MustRegister(
			m.Bars, m.OrdersSubmitted, m.OrdersFailed, m.Closes, m.CloseFailures,
			m.EntriesBlocked, m.TradesToday, m.WonToday, m.Equity,
		)
	}
	return m
}

// Daily publishes the daily counters.
func (m *Metrics) Daily(trades int, won bool) {
	m.TradesToday.Set(float64(trades))
	if won {
		m.WonToday.Set(1)
	} else {
		m.WonToday.Set(0)
	}
}

func (m *Metrics) Close(netProfit float64) {
	outcome := "loss"
	if netProfit > 0 {
		outcome = "win"
	}
	m.Closes.WithLabelValues(outcome).Inc()
}
