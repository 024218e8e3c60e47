package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	RecordsDecodedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mrtdecode_records_decoded_total",
			Help: "MRT records successfully decoded, by record kind (rib, state, message); subtype is left empty.",
		},
		[]string{"type", "subtype"},
	)

	DecodeErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mrtdecode_decode_errors_total",
			Help: "Per-record decode failures by error kind.",
		},
		[]string{"kind"},
	)

	AttrsPerRecord = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "mrtdecode_attrs_per_record",
			Help:    "Number of path attribute TLVs seen per decoded RIB entry.",
			Buckets: []float64{0, 1, 2, 4, 8, 16, 32, 64, 128, 254},
		},
		[]string{"family"},
	)

	BytesProcessedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mrtdecode_bytes_processed_total",
			Help: "Decompressed MRT stream bytes read (headers and payloads), by source file.",
		},
		[]string{"source"},
	)

	DBWriteDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "mrtdecode_db_write_duration_seconds",
			Help:    "Postgres batch write latency.",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0},
		},
		[]string{"table"},
	)

	DBRowsAffectedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mrtdecode_db_rows_affected_total",
			Help: "Rows written to Postgres.",
		},
		[]string{"table"},
	)

	KafkaPublishedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mrtdecode_kafka_published_total",
			Help: "Decoded records published to Kafka, by topic.",
		},
		[]string{"topic"},
	)

	BatchSize = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "mrtdecode_batch_size",
			Help:    "Batch sizes flushed to Postgres.",
			Buckets: []float64{1, 10, 50, 100, 250, 500, 1000, 2000, 5000},
		},
		[]string{"table"},
	)

	DBPoolConns = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "mrtdecode_db_pool_conns",
			Help: "Configured Postgres connection pool bounds.",
		},
		[]string{"limit"},
	)
)

var registerOnce sync.Once

// Register registers all metrics with the default Prometheus registry.
// Idempotent: calls after the first are no-ops.
func Register() {
	registerOnce.Do(func() {
		prometheus.MustRegister(
			RecordsDecodedTotal,
			DecodeErrorsTotal,
			AttrsPerRecord,
			BytesProcessedTotal,
			DBWriteDuration,
			DBRowsAffectedTotal,
			KafkaPublishedTotal,
			BatchSize,
			DBPoolConns,
		)
	})
}
