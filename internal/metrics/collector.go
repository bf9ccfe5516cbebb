package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// LiveStats provides the metrics collector access to live runtime state.
type LiveStats interface {
	SubscriberCount() int
}

// StateSource reports the current trial workflow state.
type StateSource interface {
	CurrentState() string
}

// Collector implements prometheus.Collector to read live gauges at scrape time.
type Collector struct {
	stats LiveStats
	state StateSource

	sseSubscribers *prometheus.Desc
	trainerState   *prometheus.Desc
}

// NewCollector creates a collector that reads live state at scrape time.
// Either source may be nil (its gauges are omitted or report 0).
func NewCollector(stats LiveStats, state StateSource) *Collector {
	return &Collector{
		stats: stats,
		state: state,
		sseSubscribers: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "", "sse_subscribers_active"),
			"Current number of SSE subscribers.",
			nil, nil,
		),
		trainerState: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "", "trainer_state"),
			"Current trial workflow state (1 for the active state).",
			[]string{"state"}, nil,
		),
	}
}

func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.sseSubscribers
	ch <- c.trainerState
}

func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	if c.stats != nil {
		ch <- prometheus.MustNewConstMetric(c.sseSubscribers, prometheus.GaugeValue, float64(c.stats.SubscriberCount()))
	} else {
		ch <- prometheus.MustNewConstMetric(c.sseSubscribers, prometheus.GaugeValue, 0)
	}
	if c.state != nil {
		ch <- prometheus.MustNewConstMetric(c.trainerState, prometheus.GaugeValue, 1, c.state.CurrentState())
	}
}
