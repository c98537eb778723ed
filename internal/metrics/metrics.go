package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Ledger holds the counters updated by stock movements.
type Ledger struct {
	Movements *prometheus.CounterVec
	Units     *prometheus.CounterVec
	Rejected  *prometheus.CounterVec
	Duration  prometheus.Histogram
}

// NewLedger creates the collectors and registers them with reg.
func NewLedger(reg prometheus.Registerer) *Ledger {
	m := &Ledger{
		Movements: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "stockledger",
			Name:      "stock_movements_total",
			Help:      "Committed stock movements by transaction type.",
		}, []string{"type"}),
		Units: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "stockledger",
			Name:      "stock_units_total",
			Help:      "Units moved by committed stock movements, by transaction type.",
		}, []string{"type"}),
		Rejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "stockledger",
			Name:      "stock_movements_rejected_total",
			Help:      "Stock movements refused before commit, by reason.",
		}, []string{"reason"}),
		Duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "stockledger",
			Name:      "stock_movement_duration_seconds",
			Help:      "Time spent recording a stock movement, including the storage transaction.",
			Buckets:   prometheus.DefBuckets,
		}),
	}
	reg.MustRegister(m.Movements, m.Units, m.Rejected, m.Duration)
	return m
}

// Reports counts dashboard cache behaviour.
type Reports struct {
	CacheHits   prometheus.Counter
	CacheMisses prometheus.Counter
}

func NewReports(reg prometheus.Registerer) *Reports {
	m := &Reports{
		CacheHits: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "stockledger",
			Name:      "dashboard_cache_hits_total",
			Help:      "Dashboard requests served from the cache.",
		}),
		CacheMisses: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "stockledger",
			Name:      "dashboard_cache_misses_total",
			Help:      "Dashboard requests computed from storage.",
		}),
	}
	reg.MustRegister(m.CacheHits, m.CacheMisses)
	return m
}

// HTTP tracks API requests by route template.
type HTTP struct {
	Requests *prometheus.CounterVec
	Latency  *prometheus.HistogramVec
}

func NewHTTP(reg prometheus.Registerer) *HTTP {
	m := &HTTP{
		Requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "stockledger",
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		}, []string{"method", "route", "status"}),
		Latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "stockledger",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}
	reg.MustRegister(m.Requests, m.Latency)
	return m
}

// RegisterWSClients exposes the number of connected websocket clients.
func RegisterWSClients(reg prometheus.Registerer, count func() int) {
	reg.MustRegister(prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: "stockledger",
		Name:      "ws_clients",
		Help:      "Connected websocket clients.",
	}, func() float64 { return float64(count()) }))
}
