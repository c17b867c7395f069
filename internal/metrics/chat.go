package metrics

import "github.com/prometheus/client_golang/prometheus"

// Chat pipeline Prometheus metrics.
var (
	ChatRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "cowlitea",
			Name:      "chat_requests_total",
			Help:      "Total number of chat completion requests",
		},
		[]string{"model", "status"},
	)

	ChatStreamChunksTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "cowlitea",
			Name:      "chat_stream_chunks_total",
			Help:      "Total streamed completion chunks delivered",
		},
	)

	RetrievalDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "cowlitea",
			Name:      "retrieval_duration_seconds",
			Help:      "Vector retrieval duration in seconds",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		},
	)

	RetrievalMatches = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "cowlitea",
			Name:      "retrieval_matches",
			Help:      "Number of matches returned per retrieval",
			Buckets:   []float64{0, 1, 2, 3},
		},
	)
)

var chatMetricsRegistered bool

// RegisterChatMetrics registers Prometheus chat metrics. Must be called once from main.
func RegisterChatMetrics() {
	if chatMetricsRegistered {
		return
	}
	prometheus.MustRegister(ChatRequestsTotal)
	prometheus.MustRegister(ChatStreamChunksTotal)
	prometheus.MustRegister(RetrievalDuration)
	prometheus.MustRegister(RetrievalMatches)
	chatMetricsRegistered = true
}
