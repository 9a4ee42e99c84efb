package triage

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/ticket-triage/backend/internal/cache/redis"
	"github.com/ticket-triage/backend/internal/dispatch"
	"github.com/ticket-triage/backend/internal/llm"
	"github.com/ticket-triage/backend/internal/metrics"
	"github.com/ticket-triage/backend/internal/routing"
	"github.com/ticket-triage/backend/internal/storage/models"
	"github.com/ticket-triage/backend/internal/storage/sqlite"
	"github.com/ticket-triage/backend/internal/textnorm"
	"github.com/ticket-triage/backend/internal/ticket"
	"github.com/ticket-triage/backend/internal/vector/milvus"
	"github.com/ticket-triage/backend/pkg/logger"
	"github.com/ticket-triage/backend/pkg/utils"
)

var (
	ErrModelNotLoaded      = errors.New("model not loaded")
	ErrTicketNotFound      = errors.New("ticket not found")
	ErrVectorIndexDisabled = errors.New("vector index not enabled")
)

const (
	defaultCacheTTL = time.Hour
	defaultSimilarK = 5
	dashboardSample = 500
	highConfidence  = 0.8
	lowConfidence   = 0.5
)

// Config carries the service-level knobs: where model artifacts live for
// reloads and how long cached classifications stay valid.
type Config struct {
	ModelDir       string
	VectorizerFile string
	ClassifierFile string
	CacheTTL       time.Duration
}

// Service runs classifications and records their outcomes. db, router, and
// executor are required; cache, vectors, and assist may be nil and are
// skipped when absent. The pipeline is swapped atomically on Reload.
type Service struct {
	mu       sync.RWMutex
	pipeline *Pipeline

	router   *routing.Router
	executor *dispatch.Executor
	db       *sqlite.Client
	cache    *redis.Client
	vectors  *milvus.Client
	assist   *llm.Client

	cfg       Config
	startTime time.Time
}

func NewService(pipeline *Pipeline, router *routing.Router, executor *dispatch.Executor, db *sqlite.Client, cache *redis.Client, vectors *milvus.Client, assist *llm.Client, cfg Config) *Service {
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = defaultCacheTTL
	}

	if pipeline != nil {
		metrics.ModelVocabSize.Set(float64(pipeline.VocabSize()))
		metrics.ModelTrainingSize.Set(float64(pipeline.TrainingSize()))
	}

	return &Service{
		pipeline:  pipeline,
		router:    router,
		executor:  executor,
		db:        db,
		cache:     cache,
		vectors:   vectors,
		assist:    assist,
		cfg:       cfg,
		startTime: time.Now(),
	}
}

// Pipeline returns the active model pair, or nil before the first load.
func (s *Service) Pipeline() *Pipeline {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.pipeline
}

// RoutingResult is the routing block of a classification response.
type RoutingResult struct {
	Action     string  `json:"action"`
	Department string  `json:"department,omitempty"`
	Reason     string  `json:"reason"`
	Confidence float64 `json:"confidence"`
}

// Result is the base classification response.
type Result struct {
	TicketID      string             `json:"ticket_id"`
	Category      string             `json:"category"`
	Confidence    float64            `json:"confidence"`
	Probabilities map[string]float64 `json:"probabilities"`
	Routing       RoutingResult      `json:"routing"`
	ModelVersion  string             `json:"model_version"`
	ProcessingMS  float64            `json:"processing_ms"`
	Cached        bool               `json:"cached"`
}

// SmartResult adds the advisory analysis, the optional assist suggestion,
// and the dispatch steps taken for the ticket.
type SmartResult struct {
	Result
	Analysis routing.Analysis        `json:"analysis"`
	Assist   *llm.CategorySuggestion `json:"assist,omitempty"`
	Dispatch []dispatch.StepResult   `json:"dispatch,omitempty"`
}

// TicketInput is one ticket submitted for classification.
type TicketInput struct {
	Subject     string `json:"subject"`
	Description string `json:"description"`
}

type BatchItem struct {
	Index  int     `json:"index"`
	Result *Result `json:"result,omitempty"`
	Error  string  `json:"error,omitempty"`
}

type BatchSummary struct {
	Count          int            `json:"count"`
	MeanConfidence float64        `json:"mean_confidence"`
	Categories     map[string]int `json:"categories"`
	HighConfidence int            `json:"high_confidence"`
	LowConfidence  int            `json:"low_confidence"`
}

type BatchResult struct {
	Results []BatchItem  `json:"results"`
	Summary BatchSummary `json:"summary"`
}

// cachedClassification is the redis payload: the result plus the analysis so
// a cache hit can still serve the smart endpoint.
type cachedClassification struct {
	Result   Result           `json:"result"`
	Analysis routing.Analysis `json:"analysis"`
}

// Classify runs the pipeline on one ticket and dispatches the decision.
func (s *Service) Classify(ctx context.Context, subject, description string) (*Result, error) {
	result, _, _, err := s.classify(ctx, subject, description, "single")
	return result, err
}

// ClassifySmart classifies like Classify and layers on the advisory
// analysis. Low-confidence tickets additionally get an assist suggestion
// when the assist client is configured; assist failures degrade to a
// warning.
func (s *Service) ClassifySmart(ctx context.Context, subject, description string) (*SmartResult, error) {
	result, analysis, steps, err := s.classify(ctx, subject, description, "single")
	if err != nil {
		return nil, err
	}

	smart := &SmartResult{Result: *result, Analysis: analysis, Dispatch: steps}

	if s.assist != nil && result.Routing.Action == string(ticket.ActionFlagForReview) {
		suggestion, err := s.assist.SuggestCategory(ctx, subject, description)
		if err != nil {
			logger.Warn("Assist suggestion failed",
				zap.String("ticket_ref", result.TicketID),
				zap.Error(err),
			)
			metrics.AssistRequests.WithLabelValues("error").Inc()
		} else {
			smart.Assist = suggestion
			metrics.AssistRequests.WithLabelValues("ok").Inc()
		}
	}

	return smart, nil
}

// ClassifyBatch classifies each ticket independently; a failed item is
// reported in place without aborting the batch.
func (s *Service) ClassifyBatch(ctx context.Context, items []TicketInput) (*BatchResult, error) {
	if len(items) == 0 {
		return nil, errors.New("batch is empty")
	}

	metrics.BatchSize.Observe(float64(len(items)))

	batch := &BatchResult{
		Results: make([]BatchItem, 0, len(items)),
		Summary: BatchSummary{Categories: make(map[string]int)},
	}

	var confidenceSum float64
	for i, item := range items {
		result, _, _, err := s.classify(ctx, item.Subject, item.Description, "batch")
		if err != nil {
			logger.Warn("Batch item failed", zap.Int("index", i), zap.Error(err))
			batch.Results = append(batch.Results, BatchItem{Index: i, Error: err.Error()})
			continue
		}

		batch.Results = append(batch.Results, BatchItem{Index: i, Result: result})
		batch.Summary.Count++
		confidenceSum += result.Confidence
		batch.Summary.Categories[result.Category]++
		if result.Confidence >= highConfidence {
			batch.Summary.HighConfidence++
		}
		if result.Confidence < lowConfidence {
			batch.Summary.LowConfidence++
		}
	}

	if batch.Summary.Count > 0 {
		batch.Summary.MeanConfidence = confidenceSum / float64(batch.Summary.Count)
	}

	return batch, nil
}

func (s *Service) classify(ctx context.Context, subject, description, source string) (*Result, routing.Analysis, []dispatch.StepResult, error) {
	start := time.Now()

	pipeline := s.Pipeline()
	if pipeline == nil {
		return nil, routing.Analysis{}, nil, ErrModelNotLoaded
	}

	normalized := textnorm.Normalize(subject, description)
	cacheKey := utils.HashString(normalized)

	// A hit replays the stored result, original ticket reference included.
	if s.cache != nil {
		var cached cachedClassification
		hit, err := s.cache.GetPrediction(ctx, cacheKey, &cached)
		if err != nil {
			logger.Warn("Cache lookup failed", zap.Error(err))
		}
		if hit {
			metrics.CacheHits.WithLabelValues("prediction").Inc()
			result := cached.Result
			result.Cached = true
			result.ProcessingMS = elapsedMS(start)
			return &result, cached.Analysis, nil, nil
		}
		metrics.CacheMisses.WithLabelValues("prediction").Inc()
	}

	pred, vec, err := pipeline.Classify(subject, description)
	if err != nil {
		return nil, routing.Analysis{}, nil, err
	}

	decision, err := s.router.Route(pred)
	if err != nil {
		return nil, routing.Analysis{}, nil, err
	}

	ref := utils.TicketID(subject, description)
	analysis := s.router.Analyze(pred, decision, ref)

	result := &Result{
		TicketID:      ref,
		Category:      string(pred.Category),
		Confidence:    pred.Confidence,
		Probabilities: probabilityMap(pred.Probabilities),
		Routing: RoutingResult{
			Action:     string(decision.Action),
			Department: decision.Department,
			Reason:     decision.Reason,
			Confidence: decision.Confidence,
		},
		ModelVersion: pipeline.Version(),
	}

	s.persist(ctx, ref, subject, description, pred, decision, analysis, vec, start)
	steps := s.executor.Execute(ctx, ref, subject, description, decision, &analysis)

	result.ProcessingMS = elapsedMS(start)

	if s.cache != nil {
		payload := cachedClassification{Result: *result, Analysis: analysis}
		if err := s.cache.SetPrediction(ctx, cacheKey, payload, s.cfg.CacheTTL); err != nil {
			logger.Warn("Cache write failed", zap.Error(err))
		}
	}

	metrics.ClassificationDuration.WithLabelValues(source).Observe(time.Since(start).Seconds())
	metrics.ClassificationTotal.WithLabelValues(result.Category, result.Routing.Action).Inc()
	metrics.ConfidenceScore.WithLabelValues().Observe(result.Confidence)
	metrics.RoutingActions.WithLabelValues(result.Routing.Action).Inc()

	logger.Info("Ticket classified",
		zap.String("ticket_ref", ref),
		zap.String("category", result.Category),
		zap.Float64("confidence", result.Confidence),
		zap.String("action", result.Routing.Action),
		zap.Float64("processing_ms", result.ProcessingMS),
	)

	return result, analysis, steps, nil
}

// persist records the classification. Storage failures are logged and
// swallowed so the caller still gets its result.
func (s *Service) persist(ctx context.Context, ref, subject, description string, pred ticket.Prediction, decision ticket.RoutingDecision, analysis routing.Analysis, vec []float64, start time.Time) {
	now := time.Now()
	log := logger.With(zap.String("ticket_ref", ref))

	err := s.db.InsertTicket(&models.TicketRecord{
		Reference:   ref,
		Subject:     subject,
		Description: description,
		Category:    string(pred.Category),
		Priority:    analysis.Priority,
		Status:      "open",
		CreatedAt:   now,
	})
	if err != nil {
		log.Warn("Failed to store ticket", zap.Error(err))
		return
	}

	err = s.db.InsertPrediction(&models.PredictionRecord{
		TicketRef:     ref,
		Category:      string(pred.Category),
		Confidence:    pred.Confidence,
		Probabilities: probabilityMap(pred.Probabilities),
		ModelVersion:  s.pipelineVersion(),
		LatencyMS:     elapsedMS(start),
		CreatedAt:     now,
	})
	if err != nil {
		log.Warn("Failed to store prediction", zap.Error(err))
	}

	err = s.db.InsertRoutingOutcome(&models.RoutingOutcome{
		TicketRef:  ref,
		Action:     string(decision.Action),
		Department: decision.Department,
		Priority:   analysis.Priority,
		Reason:     decision.Reason,
		DryRun:     s.executor.DryRun(),
		CreatedAt:  now,
	})
	if err != nil {
		log.Warn("Failed to store routing outcome", zap.Error(err))
	}

	if s.vectors != nil {
		err = s.vectors.Insert(ctx, []milvus.TicketVector{{
			Reference: ref,
			Vector:    milvus.Float32s(vec),
			Subject:   subject,
			Category:  string(pred.Category),
			Timestamp: now,
		}})
		if err != nil {
			log.Warn("Vector index insert failed", zap.Error(err))
		}
	}
}

func (s *Service) pipelineVersion() string {
	if p := s.Pipeline(); p != nil {
		return p.Version()
	}
	return ""
}

// PredictionDetail is a stored prediction as returned by the ticket lookup.
type PredictionDetail struct {
	Category      string             `json:"category"`
	Confidence    float64            `json:"confidence"`
	Probabilities map[string]float64 `json:"probabilities"`
	ModelVersion  string             `json:"model_version"`
	LatencyMS     float64            `json:"latency_ms"`
	CreatedAt     time.Time          `json:"created_at"`
}

type OutcomeDetail struct {
	Action     string    `json:"action"`
	Department string    `json:"department,omitempty"`
	Priority   string    `json:"priority,omitempty"`
	Reason     string    `json:"reason"`
	DryRun     bool      `json:"dry_run"`
	CreatedAt  time.Time `json:"created_at"`
}

type TicketDetail struct {
	Reference   string             `json:"reference"`
	Subject     string             `json:"subject"`
	Description string             `json:"description"`
	Category    string             `json:"category"`
	Priority    string             `json:"priority"`
	Status      string             `json:"status"`
	CreatedAt   time.Time          `json:"created_at"`
	Predictions []PredictionDetail `json:"predictions"`
	Outcomes    []OutcomeDetail    `json:"outcomes"`
}

// Ticket returns a stored ticket with its prediction and routing history.
func (s *Service) Ticket(reference string) (*TicketDetail, error) {
	record, err := s.db.GetTicket(reference)
	if err != nil {
		return nil, err
	}
	if record == nil {
		return nil, ErrTicketNotFound
	}

	detail := &TicketDetail{
		Reference:   record.Reference,
		Subject:     record.Subject,
		Description: record.Description,
		Category:    record.Category,
		Priority:    record.Priority,
		Status:      record.Status,
		CreatedAt:   record.CreatedAt,
	}

	predictions, err := s.db.GetPredictionsForTicket(reference)
	if err != nil {
		return nil, err
	}
	for _, p := range predictions {
		detail.Predictions = append(detail.Predictions, PredictionDetail{
			Category:      p.Category,
			Confidence:    p.Confidence,
			Probabilities: p.Probabilities,
			ModelVersion:  p.ModelVersion,
			LatencyMS:     p.LatencyMS,
			CreatedAt:     p.CreatedAt,
		})
	}

	outcomes, err := s.db.GetRoutingOutcomesForTicket(reference)
	if err != nil {
		return nil, err
	}
	for _, o := range outcomes {
		detail.Outcomes = append(detail.Outcomes, OutcomeDetail{
			Action:     o.Action,
			Department: o.Department,
			Priority:   o.Priority,
			Reason:     o.Reason,
			DryRun:     o.DryRun,
			CreatedAt:  o.CreatedAt,
		})
	}

	return detail, nil
}

type SimilarTicket struct {
	Reference string  `json:"reference"`
	Subject   string  `json:"subject"`
	Category  string  `json:"category"`
	Status    string  `json:"status,omitempty"`
	Score     float32 `json:"score"`
}

// SimilarTickets finds the stored tickets nearest to the given one in
// TF-IDF space. Returns ErrVectorIndexDisabled when no index is configured.
func (s *Service) SimilarTickets(ctx context.Context, reference string, topK int) ([]SimilarTicket, error) {
	if s.vectors == nil {
		return nil, ErrVectorIndexDisabled
	}

	record, err := s.db.GetTicket(reference)
	if err != nil {
		return nil, err
	}
	if record == nil {
		return nil, ErrTicketNotFound
	}

	pipeline := s.Pipeline()
	if pipeline == nil {
		return nil, ErrModelNotLoaded
	}

	vec, err := pipeline.Vector(record.Subject, record.Description)
	if err != nil {
		return nil, err
	}

	if topK <= 0 {
		topK = defaultSimilarK
	}

	// One extra so the ticket itself can be dropped from its own neighbors.
	results, err := s.vectors.Search(ctx, milvus.Float32s(vec), topK+1, "")
	if err != nil {
		return nil, fmt.Errorf("vector search failed: %w", err)
	}

	similar := make([]SimilarTicket, 0, topK)
	refs := make([]string, 0, topK)
	for _, r := range results {
		if r.Reference == reference {
			continue
		}
		similar = append(similar, SimilarTicket{
			Reference: r.Reference,
			Subject:   r.Subject,
			Category:  r.Category,
			Score:     r.Score,
		})
		refs = append(refs, r.Reference)
		if len(similar) == topK {
			break
		}
	}

	if len(refs) > 0 {
		records, err := s.db.GetTicketsByRefs(refs)
		if err != nil {
			logger.Warn("Failed to hydrate similar tickets", zap.Error(err))
		} else {
			statusByRef := make(map[string]string, len(records))
			for _, rec := range records {
				statusByRef[rec.Reference] = rec.Status
			}
			for i := range similar {
				similar[i].Status = statusByRef[similar[i].Reference]
			}
		}
	}

	return similar, nil
}

type Dashboard struct {
	TotalTickets       int                `json:"total_tickets"`
	TotalPredictions   int                `json:"total_predictions"`
	MeanConfidence     float64            `json:"mean_confidence"`
	MeanLatencyMS      float64            `json:"mean_latency_ms"`
	Categories         map[string]int     `json:"categories"`
	CategoryConfidence map[string]float64 `json:"category_confidence"`
	ConfidenceLevels   map[string]int     `json:"confidence_levels"`
	Actions            map[string]int     `json:"actions"`
	AutoResolveRate    float64            `json:"auto_resolve_rate"`
	OpenWorkItems      int                `json:"open_work_items"`
	UptimeSeconds      float64            `json:"uptime_seconds"`
	SystemHealth       string             `json:"system_health"`
	PerformanceScore   float64            `json:"performance_score"`
}

// DashboardStats aggregates stored classifications. Per-category confidence
// and the level distribution are computed over the most recent predictions.
func (s *Service) DashboardStats() (*Dashboard, error) {
	stats, err := s.db.GetDashboardStats()
	if err != nil {
		return nil, err
	}

	dashboard := &Dashboard{
		TotalTickets:       stats.TotalTickets,
		TotalPredictions:   stats.TotalPredictions,
		MeanConfidence:     stats.AvgConfidence,
		MeanLatencyMS:      stats.AvgLatencyMS,
		Categories:         stats.ByCategory,
		CategoryConfidence: make(map[string]float64),
		ConfidenceLevels:   make(map[string]int),
		Actions:            stats.ByAction,
		AutoResolveRate:    stats.AutoResolveRate,
		OpenWorkItems:      stats.OpenWorkItems,
		UptimeSeconds:      time.Since(s.startTime).Seconds(),
	}

	recent, err := s.db.ListRecentPredictions(dashboardSample)
	if err != nil {
		logger.Warn("Failed to sample recent predictions", zap.Error(err))
	} else {
		sums := make(map[string]float64)
		counts := make(map[string]int)
		for _, p := range recent {
			sums[p.Category] += p.Confidence
			counts[p.Category]++
			dashboard.ConfidenceLevels[routing.ConfidenceLevel(p.Confidence)]++
		}
		for category, n := range counts {
			dashboard.CategoryConfidence[category] = sums[category] / float64(n)
		}
	}

	dashboard.SystemHealth = systemHealth(stats.TotalPredictions, stats.AvgConfidence)
	dashboard.PerformanceScore = performanceScore(stats.TotalPredictions, stats.AvgConfidence, stats.AvgLatencyMS)

	return dashboard, nil
}

func systemHealth(predictions int, meanConfidence float64) string {
	switch {
	case predictions == 0:
		return "no_data"
	case meanConfidence >= 0.7:
		return "excellent"
	case meanConfidence >= 0.6:
		return "good"
	case meanConfidence >= 0.5:
		return "fair"
	default:
		return "needs_attention"
	}
}

// performanceScore blends mean confidence (70 points) with a latency bucket
// (10 to 30 points).
func performanceScore(predictions int, meanConfidence, meanLatencyMS float64) float64 {
	if predictions == 0 {
		return 0
	}
	return meanConfidence*70 + latencyPoints(meanLatencyMS)
}

func latencyPoints(meanLatencyMS float64) float64 {
	switch {
	case meanLatencyMS <= 5:
		return 30
	case meanLatencyMS <= 10:
		return 25
	case meanLatencyMS <= 20:
		return 20
	case meanLatencyMS <= 50:
		return 15
	default:
		return 10
	}
}

type ModelInfo struct {
	Loaded               bool      `json:"loaded"`
	Version              string    `json:"version,omitempty"`
	VocabSize            int       `json:"vocab_size"`
	TrainedAt            time.Time `json:"trained_at,omitempty"`
	TrainingSize         int       `json:"training_size"`
	Categories           []string  `json:"categories"`
	AutoResolveThreshold float64   `json:"auto_resolve_threshold"`
	RouteThreshold       float64   `json:"route_threshold"`
}

func (s *Service) ModelInfo() *ModelInfo {
	info := &ModelInfo{
		Categories:           categoryNames(),
		AutoResolveThreshold: s.router.AutoResolveThreshold(),
		RouteThreshold:       s.router.RouteThreshold(),
	}

	if pipeline := s.Pipeline(); pipeline != nil {
		info.Loaded = true
		info.Version = pipeline.Version()
		info.VocabSize = pipeline.VocabSize()
		info.TrainedAt = pipeline.TrainedAt()
		info.TrainingSize = pipeline.TrainingSize()
	}

	return info
}

// Reload reads the model artifacts from disk and swaps them in. The old
// pipeline keeps serving if loading fails. Cached predictions are dropped so
// stale results never outlive the model that produced them.
func (s *Service) Reload(ctx context.Context) error {
	pipeline, err := Load(s.cfg.ModelDir, s.cfg.VectorizerFile, s.cfg.ClassifierFile)
	if err != nil {
		return fmt.Errorf("failed to reload model: %w", err)
	}

	s.mu.Lock()
	s.pipeline = pipeline
	s.mu.Unlock()

	if s.cache != nil {
		if err := s.cache.InvalidatePredictions(ctx); err != nil {
			logger.Warn("Cache invalidation after reload failed", zap.Error(err))
		}
	}

	metrics.ModelReloads.Inc()
	metrics.ModelVocabSize.Set(float64(pipeline.VocabSize()))
	metrics.ModelTrainingSize.Set(float64(pipeline.TrainingSize()))

	logger.Info("Model reloaded",
		zap.String("model_version", pipeline.Version()),
		zap.Int("vocab_size", pipeline.VocabSize()),
	)

	return nil
}

type Health struct {
	Status         string  `json:"status"`
	ModelLoaded    bool    `json:"model_loaded"`
	TestPrediction string  `json:"test_prediction,omitempty"`
	UptimeSeconds  float64 `json:"uptime_seconds"`
}

// HealthCheck runs a live smoke prediction through the pipeline.
func (s *Service) HealthCheck() *Health {
	health := &Health{UptimeSeconds: time.Since(s.startTime).Seconds()}

	pipeline := s.Pipeline()
	if pipeline == nil {
		health.Status = "degraded"
		return health
	}
	health.ModelLoaded = true

	pred, err := pipeline.Predict("test", "login issue")
	if err != nil {
		logger.Warn("Health smoke prediction failed", zap.Error(err))
		health.Status = "degraded"
		return health
	}

	health.Status = "healthy"
	health.TestPrediction = string(pred.Category)
	return health
}

// Ready reports whether the service can serve classifications.
func (s *Service) Ready() error {
	if s.Pipeline() == nil {
		return ErrModelNotLoaded
	}
	if err := s.db.Ping(); err != nil {
		return fmt.Errorf("database unreachable: %w", err)
	}
	return nil
}

func probabilityMap(probs map[ticket.Category]float64) map[string]float64 {
	out := make(map[string]float64, len(probs))
	for c, p := range probs {
		out[string(c)] = p
	}
	return out
}

func categoryNames() []string {
	cats := ticket.Categories()
	names := make([]string, len(cats))
	for i, c := range cats {
		names[i] = string(c)
	}
	return names
}

func elapsedMS(start time.Time) float64 {
	return float64(time.Since(start).Microseconds()) / 1000.0
}
