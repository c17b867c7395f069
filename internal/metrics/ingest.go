package metrics

import "github.com/prometheus/client_golang/prometheus"

// Ingestion Prometheus metrics.
var (
	IngestRecordsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "cowlitea",
			Name:      "ingest_records_total",
			Help:      "Total records ingested into the catalog",
		},
		[]string{"kind", "status"},
	)

	ScrapeDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "cowlitea",
			Name:      "scrape_duration_seconds",
			Help:      "Page scrape duration in seconds",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
		[]string{"kind"},
	)
)

var ingestMetricsRegistered bool

// RegisterIngestMetrics registers Prometheus ingestion metrics. Must be called once from main.
func RegisterIngestMetrics() {
	if ingestMetricsRegistered {
		return
	}
	prometheus.MustRegister(IngestRecordsTotal)
	prometheus.MustRegister(ScrapeDuration)
	ingestMetricsRegistered = true
}
