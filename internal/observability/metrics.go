package observability

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce sync.Once

	scpiRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "labcomm",
			Subsystem: "scpi",
			Name:      "requests_total",
			Help:      "Line protocol transactions.",
		},
		[]string{"op", "outcome"},
	)
	framedMessages = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "labcomm",
			Subsystem: "framed",
			Name:      "messages_total",
			Help:      "Framed messages sent and received.",
		},
		[]string{"direction"},
	)
	framedDiscards = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "labcomm",
			Subsystem: "framed",
			Name:      "discards_total",
			Help:      "Framed messages discarded before delivery.",
		},
		[]string{"reason"},
	)
	streamRecords = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "labcomm",
			Subsystem: "stream",
			Name:      "records_total",
			Help:      "Stream records decoded and queued.",
		},
	)
	streamResyncs = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "labcomm",
			Subsystem: "stream",
			Name:      "resyncs_total",
			Help:      "Partial stream frames dropped on a new start marker.",
		},
	)
	streamOverflow = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "labcomm",
			Subsystem: "stream",
			Name:      "queue_overflow_total",
			Help:      "Records evicted from a full stream queue.",
		},
	)
)

func RegisterMetrics() {
	registerOnce.Do(func() {
		prometheus.MustRegister(scpiRequests, framedMessages, framedDiscards, streamRecords, streamResyncs, streamOverflow)
	})
}

func RecordSCPIRequest(op, outcome string) {
	scpiRequests.WithLabelValues(op, outcome).Inc()
}

func RecordFramedMessage(direction string) {
	framedMessages.WithLabelValues(direction).Inc()
}

func RecordFramedDiscard(reason string) {
	framedDiscards.WithLabelValues(reason).Inc()
}

func RecordStreamRecord() {
	streamRecords.Inc()
}

func RecordStreamResync() {
	streamResyncs.Inc()
}

func RecordStreamOverflow() {
	streamOverflow.Inc()
}
