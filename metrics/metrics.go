package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	OrdersSubmitted = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gridbt_orders_submitted_total",
			Help: "Total number of simulated fills (by side).",
		},
		[]string{"side"},
	)

	ExitsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gridbt_exits_total",
			Help: "Position exits by the reason that was reported.",
		},
		[]string{"reason"},
	)

	SweepPoints = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "gridbt_sweep_points_total",
			Help: "Grid points simulated.",
		},
	)

	BestReturn = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "gridbt_best_return_pct",
			Help: "Return % of the best grid point of the last completed sweep.",
		},
	)

	RunDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "gridbt_run_duration_seconds",
			Help:    "Wall time of a single backtest run.",
			Buckets: prometheus.ExponentialBuckets(0.0005, 4, 8),
		},
	)
)

func init() {
	prometheus.MustRegister(OrdersSubmitted, ExitsTotal, SweepPoints, BestReturn, RunDuration)
}
