// Package metrics exposes capture and snapshot state in prometheus format. Ring and snapshot
// values are read on scrape, nothing is pushed from the capture path.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/umputun/kmsglast/app/ring"
)

const namespace = "kmsglast"

// Source provides current values, implemented by service.Recorder
type Source interface {
	RingStats() ring.Stats
	RingLen() int
	Capacity() int
	SnapshotLen() int
}

// Metrics holds the registry and the counters updated by the http layer
type Metrics struct {
	reg       *prometheus.Registry
	reads     prometheus.Counter
	readBytes prometheus.Counter
	erases    prometheus.Counter
}

// New makes Metrics with a private registry, including go and process collectors
func New(src Source) *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	f := promauto.With(reg)

	f.NewCounterFunc(prometheus.CounterOpts{Namespace: namespace, Subsystem: "ring", Name: "written_bytes_total",
		Help: "Bytes captured by the ring in this session"}, func() float64 { return float64(src.RingStats().Written) })
	f.NewCounterFunc(prometheus.CounterOpts{Namespace: namespace, Subsystem: "ring", Name: "evicted_bytes_total",
		Help: "Bytes dropped from the ring to make room"}, func() float64 { return float64(src.RingStats().EvictedBytes) })
	f.NewCounterFunc(prometheus.CounterOpts{Namespace: namespace, Subsystem: "ring", Name: "evicted_lines_total",
		Help: "Evictions dropping a complete line"}, func() float64 { return float64(src.RingStats().EvictedLines) })
	f.NewCounterFunc(prometheus.CounterOpts{Namespace: namespace, Subsystem: "ring", Name: "truncations_total",
		Help: "Evictions without a newline to cut at"}, func() float64 { return float64(src.RingStats().Truncations) })
	f.NewGaugeFunc(prometheus.GaugeOpts{Namespace: namespace, Subsystem: "ring", Name: "used_bytes",
		Help: "Bytes currently retained by the ring"}, func() float64 { return float64(src.RingLen()) })
	f.NewGaugeFunc(prometheus.GaugeOpts{Namespace: namespace, Subsystem: "ring", Name: "capacity_bytes",
		Help: "Size of the ring data area"}, func() float64 { return float64(src.Capacity()) })
	f.NewGaugeFunc(prometheus.GaugeOpts{Namespace: namespace, Subsystem: "snapshot", Name: "bytes",
		Help: "Bytes held by the previous session snapshot"}, func() float64 { return float64(src.SnapshotLen()) })

	return &Metrics{
		reg: reg,
		reads: f.NewCounter(prometheus.CounterOpts{Namespace: namespace, Subsystem: "snapshot", Name: "reads_total",
			Help: "Snapshot read requests"}),
		readBytes: f.NewCounter(prometheus.CounterOpts{Namespace: namespace, Subsystem: "snapshot", Name: "read_bytes_total",
			Help: "Snapshot bytes returned to readers"}),
		erases: f.NewCounter(prometheus.CounterOpts{Namespace: namespace, Subsystem: "snapshot", Name: "erases_total",
			Help: "Snapshot erase requests"}),
	}
}

// SnapshotRead records a read returning n bytes
func (m *Metrics) SnapshotRead(n int) {
	m.reads.Inc()
	m.readBytes.Add(float64(n))
}

// SnapshotErased records an erase
func (m *Metrics) SnapshotErased() {
	m.erases.Inc()
}

// Handler returns http handler serving the registry
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.reg, promhttp.HandlerOpts{Registry: m.reg})
}

// Registry returns the underlying registry
func (m *Metrics) Registry() *prometheus.Registry {
	return m.reg
}
