// Package monitoring exposes Prometheus metrics and a health endpoint for
// the trading bot.
package monitoring

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	cyclesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "trade_bot_cycles_total",
			Help: "Trading cycles by outcome",
		},
		[]string{"outcome"},
	)

	tradesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "trade_bot_trades_total",
			Help: "Executed trades by side",
		},
		[]string{"symbol", "side"},
	)

	rejectionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "trade_bot_rejections_total",
			Help: "Trades rejected by risk validation, by reason",
		},
		[]string{"reason"},
	)

	partialFailuresTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "trade_bot_partial_failures_total",
			Help: "Fills whose protective stop order failed",
		},
	)

	currentPrice = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "trade_bot_current_price",
			Help: "Latest quote seen during validation",
		},
		[]string{"symbol"},
	)
)

// Cycle outcomes.
const (
	CycleCompleted    = "completed"
	CycleSkipped      = "skipped"
	CycleMarketClosed = "market_closed"
	CycleFailed       = "failed"
)

func init() {
	prometheus.MustRegister(cyclesTotal)
	prometheus.MustRegister(tradesTotal)
	prometheus.MustRegister(rejectionsTotal)
	prometheus.MustRegister(partialFailuresTotal)
	prometheus.MustRegister(currentPrice)
}

// RecordCycle counts one cycle with the given outcome.
func RecordCycle(outcome string) {
	cyclesTotal.WithLabelValues(outcome).Inc()
}

// RecordTrade counts one executed trade.
func RecordTrade(symbol, side string) {
	tradesTotal.WithLabelValues(symbol, side).Inc()
}

// RecordRejection counts one risk-validation rejection.
func RecordRejection(reason string) {
	rejectionsTotal.WithLabelValues(reason).Inc()
}

// RecordPartialFailure counts one unprotected fill.
func RecordPartialFailure() {
	partialFailuresTotal.Inc()
}

// UpdatePrice records the latest quote.
func UpdatePrice(symbol string, price float64) {
	currentPrice.WithLabelValues(symbol).Set(price)
}
