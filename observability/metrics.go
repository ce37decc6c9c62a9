package observability

import (
	"math"
	"math/big"
	"strings"
	"sync"
	"time"

	"github.com/holiman/uint256"
	"github.com/prometheus/client_golang/prometheus"
)

// SaleMetricsRegistry tracks the operations applied to a sale ledger.
type SaleMetricsRegistry struct {
	operations *prometheus.CounterVec
	errors     *prometheus.CounterVec
	latency    *prometheus.HistogramVec
	purchases  *prometheus.CounterVec
	raised     prometheus.Gauge
	paused     prometheus.Gauge
}

var (
	saleMetricsOnce sync.Once
	saleRegistry    *SaleMetricsRegistry

	usdScale = new(big.Float).SetInt(new(big.Int).Exp(big.NewInt(10), big.NewInt(18), nil))
)

// SaleMetrics returns the lazily-initialised sale metrics registry.
func SaleMetrics() *SaleMetricsRegistry {
	saleMetricsOnce.Do(func() {
		saleRegistry = &SaleMetricsRegistry{
			operations: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "presale",
				Name:      "operations_total",
				Help:      "Sale operations segmented by operation and outcome.",
			}, []string{"op", "outcome"}),
			errors: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "presale",
				Name:      "errors_total",
				Help:      "Rejected sale operations segmented by operation and error category.",
			}, []string{"op", "kind"}),
			latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
				Namespace: "presale",
				Name:      "operation_duration_seconds",
				Help:      "Latency distribution of sale operations.",
				Buckets:   prometheus.DefBuckets,
			}, []string{"op"}),
			purchases: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "presale",
				Name:      "purchases_total",
				Help:      "Accepted purchases segmented by payment instrument.",
			}, []string{"instrument"}),
			raised: prometheus.NewGauge(prometheus.GaugeOpts{
				Namespace: "presale",
				Name:      "raised_usd",
				Help:      "Total USD raised by the sale.",
			}),
			paused: prometheus.NewGauge(prometheus.GaugeOpts{
				Namespace: "presale",
				Name:      "paused",
				Help:      "Whether the sale is paused (1) or active (0).",
			}),
		}
		prometheus.MustRegister(
			saleRegistry.operations,
			saleRegistry.errors,
			saleRegistry.latency,
			saleRegistry.purchases,
			saleRegistry.raised,
			saleRegistry.paused,
		)
	})
	return saleRegistry
}

// Observe records the outcome of a sale operation. kind is the error category
// and is ignored when the operation succeeded.
func (m *SaleMetricsRegistry) Observe(op string, duration time.Duration, failed bool, kind string) {
	if m == nil {
		return
	}
	op = label(op, "unknown")
	outcome := "success"
	if failed {
		outcome = "error"
		m.errors.WithLabelValues(op, label(kind, "unknown")).Inc()
	}
	m.operations.WithLabelValues(op, outcome).Inc()
	m.latency.WithLabelValues(op).Observe(duration.Seconds())
}

// RecordPurchase counts an accepted purchase paid with instrument.
func (m *SaleMetricsRegistry) RecordPurchase(instrument string) {
	if m == nil {
		return
	}
	m.purchases.WithLabelValues(strings.ToUpper(label(instrument, "native"))).Inc()
}

// SetRaised publishes the total raised, given in the 18-decimal internal unit.
func (m *SaleMetricsRegistry) SetRaised(raised *uint256.Int) {
	if m == nil {
		return
	}
	m.raised.Set(usdToFloat(raised))
}

// SetPaused publishes the pause state.
func (m *SaleMetricsRegistry) SetPaused(paused bool) {
	if m == nil {
		return
	}
	if paused {
		m.paused.Set(1)
		return
	}
	m.paused.Set(0)
}

// Operations exposes the operations counter for tests and dashboards.
func (m *SaleMetricsRegistry) Operations() *prometheus.CounterVec { return m.operations }

// Errors exposes the errors counter.
func (m *SaleMetricsRegistry) Errors() *prometheus.CounterVec { return m.errors }

// Purchases exposes the purchases counter.
func (m *SaleMetricsRegistry) Purchases() *prometheus.CounterVec { return m.purchases }

// Raised exposes the raised gauge.
func (m *SaleMetricsRegistry) Raised() prometheus.Gauge { return m.raised }

// Paused exposes the pause gauge.
func (m *SaleMetricsRegistry) Paused() prometheus.Gauge { return m.paused }

func label(value, fallback string) string {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return fallback
	}
	return trimmed
}

func usdToFloat(value *uint256.Int) float64 {
	if value == nil {
		return 0
	}
	scaled := new(big.Float).Quo(new(big.Float).SetInt(value.ToBig()), usdScale)
	floatVal, acc := scaled.Float64()
	if acc != big.Exact {
		// Guard against NaN/Inf when conversion fails.
		if math.IsNaN(floatVal) || math.IsInf(floatVal, 0) {
			return 0
		}
	}
	return floatVal
}
