package monitoring

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Pipeline metrics
	barsProcessed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "trading_engine_bars_processed_total",
			Help: "Total number of bars processed by the decision pipeline",
		},
		[]string{"symbol"},
	)

	signalsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "trading_engine_signals_total",
			Help: "Total number of aggregated signals by direction",
		},
		[]string{"symbol", "direction"},
	)

	rejectionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "trading_engine_rejections_total",
			Help: "Total number of risk rejections by reason",
		},
		[]string{"symbol", "reason"},
	)

	fillsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "trading_engine_fills_total",
			Help: "Total number of fills executed",
		},
		[]string{"symbol", "side"},
	)

	fillNotional = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "trading_engine_fill_notional",
			Help:    "Distribution of fill notional values",
			Buckets: prometheus.ExponentialBuckets(10, 4, 8),
		},
		[]string{"symbol"},
	)

	// Portfolio metrics
	equityValue = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "trading_engine_equity",
			Help: "Current mark-to-market equity",
		},
	)

	drawdownPct = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "trading_engine_drawdown_pct",
			Help: "Current drawdown from the equity peak",
		},
	)

	// Market data metrics
	currentPrice = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "trading_engine_current_price",
			Help: "Last close price seen per symbol",
		},
		[]string{"symbol"},
	)

	// Error metrics
	errorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "trading_engine_errors_total",
			Help: "Total number of errors by category",
		},
		[]string{"category"},
	)
)

func init() {
	prometheus.MustRegister(barsProcessed)
	prometheus.MustRegister(signalsTotal)
	prometheus.MustRegister(rejectionsTotal)
	prometheus.MustRegister(fillsTotal)
	prometheus.MustRegister(fillNotional)
	prometheus.MustRegister(equityValue)
	prometheus.MustRegister(drawdownPct)
	prometheus.MustRegister(currentPrice)
	prometheus.MustRegister(errorsTotal)
}

// equityPeak tracks the running high-water mark for the drawdown gauge.
var equityPeak float64

// MetricsHandler handles the Prometheus metrics endpoint
type MetricsHandler struct{}

// NewMetricsHandler creates a new metrics handler
func NewMetricsHandler() *MetricsHandler {
	return &MetricsHandler{}
}

// ServeHTTP serves the Prometheus metrics endpoint
func (m *MetricsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

// RecordBar records one processed bar and its close price.
func RecordBar(symbol string, close float64) {
	barsProcessed.WithLabelValues(symbol).Inc()
	currentPrice.WithLabelValues(symbol).Set(close)
}

// RecordSignal records an aggregated signal by direction.
func RecordSignal(symbol, direction string) {
	signalsTotal.WithLabelValues(symbol, direction).Inc()
}

// RecordRejection records a risk rejection by reason code.
func RecordRejection(symbol, reason string) {
	rejectionsTotal.WithLabelValues(symbol, reason).Inc()
}

// RecordFill records an executed fill.
func RecordFill(symbol, side string, notional float64) {
	fillsTotal.WithLabelValues(symbol, side).Inc()
	fillNotional.WithLabelValues(symbol).Observe(notional)
}

// UpdateEquity updates the equity gauge and the drawdown derived from
// the running peak.
func UpdateEquity(equity float64) {
	equityValue.Set(equity)
	if equity > equityPeak {
		equityPeak = equity
	}
	if equityPeak > 0 {
		drawdownPct.Set((equityPeak - equity) / equityPeak)
	}
}

// RecordError records an error by taxonomy category.
func RecordError(category string) {
	errorsTotal.WithLabelValues(category).Inc()
}
