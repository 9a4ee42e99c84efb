package metrics

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	ClassificationDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ticket_triage_classification_duration_seconds",
			Help:    "Classification pipeline duration in seconds",
			Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
		},
		[]string{"source"},
	)

	ClassificationTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ticket_triage_classifications_total",
			Help: "Total tickets classified",
		},
		[]string{"category", "action"},
	)

	ConfidenceScore = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ticket_triage_confidence_score",
			Help:    "Winning class confidence scores",
			Buckets: []float64{0.1, 0.2, 0.3, 0.4, 0.5, 0.6, 0.7, 0.8, 0.9, 1.0},
		},
		[]string{},
	)

	RoutingActions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ticket_triage_routing_actions_total",
			Help: "Routing decisions by action",
		},
		[]string{"action"},
	)

	BatchSize = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "ticket_triage_batch_size",
			Help:    "Tickets per batch classification request",
			Buckets: []float64{1, 5, 10, 25, 50, 100},
		},
	)

	CacheHits = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ticket_triage_cache_hits_total",
			Help: "Total cache hits",
		},
		[]string{"cache_type"},
	)

	CacheMisses = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ticket_triage_cache_misses_total",
			Help: "Total cache misses",
		},
		[]string{"cache_type"},
	)

	ModelReloads = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "ticket_triage_model_reloads_total",
			Help: "Total model reloads",
		},
	)

	ModelVocabSize = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "ticket_triage_model_vocab_size",
			Help: "Vocabulary size of the active model",
		},
	)

	ModelTrainingSize = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "ticket_triage_model_training_size",
			Help: "Documents the active model was trained on",
		},
	)

	AssistRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ticket_triage_assist_requests_total",
			Help: "LLM assist requests by status",
		},
		[]string{"status"},
	)

	DispatchExecutions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ticket_triage_dispatch_executions_total",
			Help: "Dispatch executor runs by action and status",
		},
		[]string{"action", "status"},
	)

	EvaluationScore = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "ticket_triage_evaluation_weighted_score",
			Help: "Weighted score of the most recent evaluation run",
		},
	)

	WebsocketConnections = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "ticket_triage_websocket_connections",
			Help: "Active websocket classification streams",
		},
	)
)

func Init() {
	prometheus.MustRegister(ClassificationDuration)
	prometheus.MustRegister(ClassificationTotal)
	prometheus.MustRegister(ConfidenceScore)
	prometheus.MustRegister(RoutingActions)
	prometheus.MustRegister(BatchSize)
	prometheus.MustRegister(CacheHits)
	prometheus.MustRegister(CacheMisses)
	prometheus.MustRegister(ModelReloads)
	prometheus.MustRegister(ModelVocabSize)
	prometheus.MustRegister(ModelTrainingSize)
	prometheus.MustRegister(AssistRequests)
	prometheus.MustRegister(DispatchExecutions)
	prometheus.MustRegister(EvaluationScore)
	prometheus.MustRegister(WebsocketConnections)
}

func MetricsHandler() fiber.Handler {
	return adaptor.HTTPHandler(promhttp.Handler())
}
