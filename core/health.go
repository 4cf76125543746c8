package core

// Health exposes a small set of Prometheus gauges/counters over the
// running node (chain height, mempool depth, applied/dropped Tx
// counts), registered against their own registry so /metrics can be
// mounted independently of the default global one.
//
// Grounded on the teacher's system_health_logging.go (prometheus
// gauges updated from a background goroutine, wrapped in a struct with
// its own *prometheus.Registry rather than relying on the package
// default).

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Health bundles the node's Prometheus collectors.
type Health struct {
	Registry *prometheus.Registry

	ChainHeight  prometheus.Gauge
	MempoolDepth prometheus.Gauge
	TxApplied    prometheus.Counter
	TxDropped    prometheus.Counter
	BlocksProduced prometheus.Counter
}

// NewHealth constructs and registers the node's metric collectors.
func NewHealth() *Health {
	reg := prometheus.NewRegistry()
	h := &Health{
		Registry: reg,
		ChainHeight: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "qsc_chain_height",
			Help: "Height of the locally committed chain head.",
		}),
		MempoolDepth: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "qsc_mempool_depth",
			Help: "Number of Tx currently pending in the mempool.",
		}),
		TxApplied: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "qsc_tx_applied_total",
			Help: "Total Tx applied across all committed blocks.",
		}),
		TxDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "qsc_tx_dropped_total",
			Help: "Total Tx dropped on admission due to per-sender backpressure.",
		}),
		BlocksProduced: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "qsc_blocks_produced_total",
			Help: "Total blocks produced by this node as leader.",
		}),
	}
	reg.MustRegister(h.ChainHeight, h.MempoolDepth, h.TxApplied, h.TxDropped, h.BlocksProduced)
	return h
}

// Observe updates the gauges from a live Runtime snapshot. Called after
// each commit (ProduceBlock, ApplyExternalBlock); the gauges are not
// refreshed between commits.
func (h *Health) Observe(rt *Runtime) {
	h.ChainHeight.Set(float64(rt.Chain.Head().Height))
	h.MempoolDepth.Set(float64(rt.Mempool.Len()))
}
