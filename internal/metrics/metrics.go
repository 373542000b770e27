package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/shapedtime/hoardhelper/internal/mediatype"
	"github.com/shapedtime/hoardhelper/internal/parser"
)

const namespace = "hoardhelper"

// Metrics holds counters updated directly by the ingest, upload and
// classification paths.
type Metrics struct {
	FilesParsed     *prometheus.CounterVec
	Classifications *prometheus.CounterVec
	Uploads         *prometheus.CounterVec
	UploadRetries   prometheus.Counter
	UploadBytes     prometheus.Counter
	UploadDuration  prometheus.Histogram
	DownloadBytes   prometheus.Counter
	DebridRequests  *prometheus.CounterVec
}

// New creates and registers metrics with the given registry.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		FilesParsed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "parser",
			Name:      "files_parsed_total",
			Help:      "Filenames parsed, by detected type and rule.",
		}, []string{"type", "rule"}),
		Classifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "mediatype",
			Name:      "classifications_total",
			Help:      "Torrent listings classified, by media type.",
		}, []string{"media_type"}),
		Uploads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "upload",
			Name:      "files_total",
			Help:      "Finished uploads, by result.",
		}, []string{"result"}),
		UploadRetries: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "upload",
			Name:      "retries_total",
			Help:      "Upload attempts beyond the first.",
		}),
		UploadBytes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "upload",
			Name:      "bytes_total",
			Help:      "Bytes of successfully uploaded files.",
		}),
		UploadDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "upload",
			Name:      "duration_seconds",
			Help:      "Duration of a file upload including retries.",
			Buckets:   []float64{0.5, 1, 5, 15, 30, 60, 120, 300, 600, 1800},
		}),
		DownloadBytes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "download",
			Name:      "bytes_total",
			Help:      "Bytes downloaded from unrestricted debrid links.",
		}),
		DebridRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "realdebrid",
			Name:      "requests_total",
			Help:      "Real-Debrid API requests, by endpoint and status code.",
		}, []string{"endpoint", "code"}),
	}

	reg.MustRegister(
		m.FilesParsed,
		m.Classifications,
		m.Uploads,
		m.UploadRetries,
		m.UploadBytes,
		m.UploadDuration,
		m.DownloadBytes,
		m.DebridRequests,
	)

	return m
}

// ObserveParse counts one parsed filename.
func (m *Metrics) ObserveParse(r parser.ParseResult) {
	m.FilesParsed.WithLabelValues(string(r.Type), r.Rule).Inc()
}

// ObserveClassification counts one classified torrent listing.
func (m *Metrics) ObserveClassification(t mediatype.MediaType) {
	m.Classifications.WithLabelValues(string(t)).Inc()
}

// ObserveUpload records the outcome of one file upload.
func (m *Metrics) ObserveUpload(ok bool, attempts int, bytes int64, elapsed time.Duration) {
	result := "success"
	if !ok {
		result = "failed"
	}
	m.Uploads.WithLabelValues(result).Inc()
	if attempts > 1 {
		m.UploadRetries.Add(float64(attempts - 1))
	}
	if ok {
		m.UploadBytes.Add(float64(bytes))
	}
	m.UploadDuration.Observe(elapsed.Seconds())
}

// ObserveDownload counts downloaded bytes.
func (m *Metrics) ObserveDownload(bytes int64) {
	m.DownloadBytes.Add(float64(bytes))
}

// ObserveDebridRequest counts one Real-Debrid API call.
func (m *Metrics) ObserveDebridRequest(endpoint string, code string) {
	m.DebridRequests.WithLabelValues(endpoint, code).Inc()
}
