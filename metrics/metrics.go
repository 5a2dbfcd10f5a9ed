// Package metrics holds the Prometheus counters updated by extraction and
// download runs.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "asset_extract"

// Metrics groups every counter. A nil *Metrics is valid and records nothing.
type Metrics struct {
	EntriesExtracted    prometheus.Counter
	EntriesFailed       prometheus.Counter
	EntriesDecompressed prometheus.Counter
	BytesWritten        prometheus.Counter

	FetchesCompleted prometheus.Counter
	FetchesFailed    prometheus.Counter
	BytesFetched     prometheus.Counter
	FetchesInFlight  prometheus.Gauge
}

// New creates the counters and registers them with reg. A nil reg leaves
// them unregistered.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		EntriesExtracted: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "extract", Name: "entries_total",
			Help: "Entries written to the output directory.",
		}),
		EntriesFailed: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "extract", Name: "entries_failed_total",
			Help: "Entries that failed to read, decompress or write.",
		}),
		EntriesDecompressed: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "extract", Name: "entries_decompressed_total",
			Help: "Compressed entries inflated before writing.",
		}),
		BytesWritten: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "extract", Name: "bytes_written_total",
			Help: "Bytes written by extraction.",
		}),
		FetchesCompleted: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "download", Name: "fetches_total",
			Help: "Work items downloaded successfully.",
		}),
		FetchesFailed: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "download", Name: "fetches_failed_total",
			Help: "Work items replaced by an empty placeholder after a failed fetch.",
		}),
		BytesFetched: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "download", Name: "bytes_total",
			Help: "Bytes received from the remote server.",
		}),
		FetchesInFlight: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Subsystem: "download", Name: "in_flight",
			Help: "Fetches currently in progress.",
		}),
	}
}

func (m *Metrics) EntryExtracted(size int, decompressed bool) {
	if m == nil {
		return
	}
	m.EntriesExtracted.Inc()
	m.BytesWritten.Add(float64(size))
	if decompressed {
		m.EntriesDecompressed.Inc()
	}
}

func (m *Metrics) EntryFailed() {
	if m == nil {
		return
	}
	m.EntriesFailed.Inc()
}

// FetchStarted marks a fetch in flight and returns the func that clears it.
func (m *Metrics) FetchStarted() func() {
	if m == nil {
		return func() {}
	}
	m.FetchesInFlight.Inc()
	return m.FetchesInFlight.Dec
}

func (m *Metrics) FetchCompleted(n int64) {
	if m == nil {
		return
	}
	m.FetchesCompleted.Inc()
	m.BytesFetched.Add(float64(n))
}

func (m *Metrics) FetchFailed() {
	if m == nil {
		return
	}
	m.FetchesFailed.Inc()
}
