package metrics

import (
	"os"
	"path/filepath"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"trade-aggregator/internal/trades"
)

const namespace = "trade_aggregator"

// Run holds the gauges and counters describing one aggregation run. Each run
// gets its own registry so a textfile only ever reflects that run.
type Run struct {
	registry  *prometheus.Registry
	fills     prometheus.Counter
	trades    prometheus.Counter
	quantity  prometheus.Counter
	netProfit prometheus.Gauge
	exitLegs  *prometheus.CounterVec
	lastRun   prometheus.Gauge
}

func NewRun() *Run {
	r := &Run{
		registry: prometheus.NewRegistry(),
		fills: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "fills_total", Help: "Fill records read from the export.",
		}),
		trades: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "trades_total", Help: "Trades produced by aggregation.",
		}),
		quantity: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "contracts_total", Help: "Summed quantity across all trades.",
		}),
		netProfit: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Name: "net_profit", Help: "Net profit across all exit legs, in price units.",
		}),
		exitLegs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "exit_legs_total", Help: "Exit legs by exit type.",
		}, []string{"type"}),
		lastRun: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Name: "last_run_timestamp_seconds", Help: "Unix time the run finished.",
		}),
	}
	r.registry.MustRegister(r.fills, r.trades, r.quantity, r.netProfit, r.exitLegs, r.lastRun)
	return r
}

// Observe records the run totals.
func (r *Run) Observe(s trades.Summary, finished time.Time) {
	r.fills.Add(float64(s.Fills))
	r.trades.Add(float64(s.Trades))
	r.quantity.Add(float64(s.Quantity))
	profit, _ := s.NetProfit.Float64()
	r.netProfit.Set(profit)
	r.exitLegs.WithLabelValues("TP").Add(float64(s.TakeProfitLegs))
	r.exitLegs.WithLabelValues("Stop").Add(float64(s.StopLegs))
	r.lastRun.Set(float64(finished.Unix()))
}

// WriteTextfile writes the registry in the node_exporter textfile format.
func (r *Run) WriteTextfile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return prometheus.WriteToTextfile(path, r.registry)
}
