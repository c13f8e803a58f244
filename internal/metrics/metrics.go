package metrics

import (
	"math"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "spreadspy"

// Metrics collects per-cycle monitor statistics.
type Metrics struct {
	Cycles        *prometheus.CounterVec
	FetchErrors   *prometheus.CounterVec
	PoolPrice     *prometheus.GaugeVec
	SpreadPercent prometheus.Gauge
	CycleDuration prometheus.Histogram
}

// New creates the collectors and registers them on reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Cycles: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cycles_total",
			Help:      "Poll cycles by outcome",
		}, []string{"outcome"}),
		FetchErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fetch_errors_total",
			Help:      "Failed reserve fetches by pool",
		}, []string{"pool"}),
		PoolPrice: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "pool_price",
			Help:      "Last observed reserve0/reserve1 price by pool",
		}, []string{"pool"}),
		SpreadPercent: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "spread_percent",
			Help:      "Last computed spread between the two pools in percent",
		}),
		CycleDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "cycle_duration_seconds",
			Help:      "Wall time of a poll cycle",
			Buckets:   prometheus.ExponentialBuckets(0.01, 2, 12),
		}),
	}
	if reg != nil {
		reg.MustRegister(m.Cycles, m.FetchErrors, m.PoolPrice, m.SpreadPercent, m.CycleDuration)
	}
	return m
}

// ObserveCycle records a finished cycle.
func (m *Metrics) ObserveCycle(outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.Cycles.WithLabelValues(outcome).Inc()
	m.CycleDuration.Observe(elapsed.Seconds())
}

// ObserveFetchError counts a failed fetch for pool.
func (m *Metrics) ObserveFetchError(pool string) {
	if m == nil {
		return
	}
	m.FetchErrors.WithLabelValues(pool).Inc()
}

// ObservePrice sets the display price gauge for pool.
func (m *Metrics) ObservePrice(pool string, price float64) {
	if m == nil {
		return
	}
	m.PoolPrice.WithLabelValues(pool).Set(price)
}

// ObserveSpread sets the spread gauge.
func (m *Metrics) ObserveSpread(percent float64) {
	if m == nil {
		return
	}
	m.SpreadPercent.Set(percent)
}

// ResetSpread drops the price series and sets the spread gauge to NaN after
// a cycle that produced no spread.
func (m *Metrics) ResetSpread() {
	if m == nil {
		return
	}
	m.PoolPrice.Reset()
	m.SpreadPercent.Set(math.NaN())
}
