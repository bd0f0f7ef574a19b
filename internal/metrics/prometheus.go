package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// PromCollector adapts a Metrics aggregator into a Prometheus collector so
// that the server process can expose the same per-op counters on /metrics
// without changing the recording contract in Record.
type PromCollector struct {
	m *Metrics

	requestsTotal *prometheus.Desc
	successTotal  *prometheus.Desc
	failureTotal  *prometheus.Desc
	avgLatencyMs  *prometheus.Desc
}

// NewPromCollector wraps m for Prometheus registration.
func NewPromCollector(m *Metrics) *PromCollector {
	return &PromCollector{
		m: m,
		requestsTotal: prometheus.NewDesc(
			"kvbench_requests_total", "Total requests handled, by operation.",
			[]string{"op"}, nil,
		),
		successTotal: prometheus.NewDesc(
			"kvbench_requests_success_total", "Successful requests, by operation.",
			[]string{"op"}, nil,
		),
		failureTotal: prometheus.NewDesc(
			"kvbench_requests_failure_total", "Failed requests, by operation.",
			[]string{"op"}, nil,
		),
		avgLatencyMs: prometheus.NewDesc(
			"kvbench_avg_latency_milliseconds", "Average latency of successful requests, by operation.",
			[]string{"op"}, nil,
		),
	}
}

// Describe implements prometheus.Collector.
func (c *PromCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.requestsTotal
	ch <- c.successTotal
	ch <- c.failureTotal
	ch <- c.avgLatencyMs
}

// Collect implements prometheus.Collector.
func (c *PromCollector) Collect(ch chan<- prometheus.Metric) {
	for op, s := range c.m.All() {
		name := op.String()
		ch <- prometheus.MustNewConstMetric(c.requestsTotal, prometheus.CounterValue, float64(s.Count), name)
		ch <- prometheus.MustNewConstMetric(c.successTotal, prometheus.CounterValue, float64(s.Success), name)
		ch <- prometheus.MustNewConstMetric(c.failureTotal, prometheus.CounterValue, float64(s.Failure), name)
		ch <- prometheus.MustNewConstMetric(c.avgLatencyMs, prometheus.GaugeValue, float64(s.AvgLatency().Milliseconds()), name)
	}
}
