package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/shapedtime/hoardhelper/internal/queue"
)

// QueueSource is the part of the upload queue the collector reads.
type QueueSource interface {
	Snapshot() []queue.FileMetadata
}

// ConnectionSource reports the last known reachability per remote.
type ConnectionSource interface {
	Online() map[string]bool
}

// QueueCollector implements prometheus.Collector for queue and connection
// state. It reads the sources lazily on each scrape.
type QueueCollector struct {
	queue       QueueSource
	connections ConnectionSource // may be nil

	queueFiles *prometheus.Desc
	online     *prometheus.Desc
}

// NewQueueCollector creates a collector that scrapes queue state on demand.
func NewQueueCollector(q QueueSource, conns ConnectionSource) *QueueCollector {
	return &QueueCollector{
		queue:       q,
		connections: conns,
		queueFiles: prometheus.NewDesc(
			"hoardhelper_queue_files",
			"Files in the upload queue, by status.",
			[]string{"status"}, nil,
		),
		online: prometheus.NewDesc(
			"hoardhelper_remote_online",
			"Whether the last connection check of a remote succeeded (1) or not (0).",
			[]string{"remote"}, nil,
		),
	}
}

// Describe implements prometheus.Collector.
func (c *QueueCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.queueFiles
	ch <- c.online
}

// Collect implements prometheus.Collector.
func (c *QueueCollector) Collect(ch chan<- prometheus.Metric) {
	counts := map[queue.StatusKind]int{
		queue.StatusPending:    0,
		queue.StatusProcessing: 0,
		queue.StatusReady:      0,
		queue.StatusError:      0,
		queue.StatusSecured:    0,
	}
	for _, it := range c.queue.Snapshot() {
		counts[it.Status.Kind]++
	}
	for kind, n := range counts {
		ch <- prometheus.MustNewConstMetric(c.queueFiles, prometheus.GaugeValue, float64(n), string(kind))
	}

	if c.connections == nil {
		return
	}
	for remote, up := range c.connections.Online() {
		v := 0.0
		if up {
			v = 1
		}
		ch <- prometheus.MustNewConstMetric(c.online, prometheus.GaugeValue, v, remote)
	}
}
