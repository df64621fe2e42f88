package strata

import (
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics tracks storage-core counters. All methods are safe for
// concurrent use.
type Metrics struct {
	segmentsEncoded  int64
	histogramsBuilt  int64
	chunksExcludedN  int64
	chunksScanned    int64
	rowsScannedTotal int64
}

// DefaultMetrics is the package-wide counter set.
var DefaultMetrics = &Metrics{}

func (m *Metrics) segmentEncoded() {
	atomic.AddInt64(&m.segmentsEncoded, 1)
}

func (m *Metrics) histogramBuilt() {
	atomic.AddInt64(&m.histogramsBuilt, 1)
}

func (m *Metrics) chunksExcluded(n int) {
	atomic.AddInt64(&m.chunksExcludedN, int64(n))
}

func (m *Metrics) chunkScanned() {
	atomic.AddInt64(&m.chunksScanned, 1)
}

func (m *Metrics) rowsScanned(n int) {
	atomic.AddInt64(&m.rowsScannedTotal, int64(n))
}

// MetricsSnapshot is a point-in-time copy of all counters.
type MetricsSnapshot struct {
	SegmentsEncoded int64
	HistogramsBuilt int64
	ChunksExcluded  int64
	ChunksScanned   int64
	RowsScanned     int64
}

// Stats returns a snapshot of the counters.
func (m *Metrics) Stats() MetricsSnapshot {
	return MetricsSnapshot{
		SegmentsEncoded: atomic.LoadInt64(&m.segmentsEncoded),
		HistogramsBuilt: atomic.LoadInt64(&m.histogramsBuilt),
		ChunksExcluded:  atomic.LoadInt64(&m.chunksExcludedN),
		ChunksScanned:   atomic.LoadInt64(&m.chunksScanned),
		RowsScanned:     atomic.LoadInt64(&m.rowsScannedTotal),
	}
}

// metricsCollector exports a Metrics counter set in Prometheus format.
type metricsCollector struct {
	metrics *Metrics

	segmentsEncoded *prometheus.Desc
	histogramsBuilt *prometheus.Desc
	chunksExcluded  *prometheus.Desc
	chunksScanned   *prometheus.Desc
	rowsScanned     *prometheus.Desc
}

// NewMetricsCollector wraps a counter set as a prometheus.Collector.
func NewMetricsCollector(m *Metrics) prometheus.Collector {
	return &metricsCollector{
		metrics: m,
		segmentsEncoded: prometheus.NewDesc("strata_segments_encoded_total",
			"Segments produced by the encoder registry.", nil, nil),
		histogramsBuilt: prometheus.NewDesc("strata_histograms_built_total",
			"Histograms built during statistics generation.", nil, nil),
		chunksExcluded: prometheus.NewDesc("strata_chunks_excluded_total",
			"Chunks excluded by the pruning rule.", nil, nil),
		chunksScanned: prometheus.NewDesc("strata_chunks_scanned_total",
			"Chunks visited by table scans.", nil, nil),
		rowsScanned: prometheus.NewDesc("strata_rows_scanned_total",
			"Rows visited by table scans.", nil, nil),
	}
}

func (c *metricsCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.segmentsEncoded
	ch <- c.histogramsBuilt
	ch <- c.chunksExcluded
	ch <- c.chunksScanned
	ch <- c.rowsScanned
}

func (c *metricsCollector) Collect(ch chan<- prometheus.Metric) {
	snapshot := c.metrics.Stats()
	ch <- prometheus.MustNewConstMetric(c.segmentsEncoded, prometheus.CounterValue, float64(snapshot.SegmentsEncoded))
	ch <- prometheus.MustNewConstMetric(c.histogramsBuilt, prometheus.CounterValue, float64(snapshot.HistogramsBuilt))
	ch <- prometheus.MustNewConstMetric(c.chunksExcluded, prometheus.CounterValue, float64(snapshot.ChunksExcluded))
	ch <- prometheus.MustNewConstMetric(c.chunksScanned, prometheus.CounterValue, float64(snapshot.ChunksScanned))
	ch <- prometheus.MustNewConstMetric(c.rowsScanned, prometheus.CounterValue, float64(snapshot.RowsScanned))
}
