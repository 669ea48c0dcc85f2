package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"PriceWise/internal/domain/models"
	"PriceWise/internal/domain/repository"
	svcmetrics "PriceWise/internal/service/metrics"
	"PriceWise/internal/services/pricing"
	"PriceWise/pkg/logger"

	"github.com/google/uuid"
)

// JobTypeAnalysis is the queue message type for async analyses.
const JobTypeAnalysis = "analysis.run"

// ErrQueueDisabled is returned by EnqueueAnalysis when no job queue is configured.
var ErrQueueDisabled = errors.New("async analysis queue is disabled")

// CompetitorSupplier supplies market data for a query.
type CompetitorSupplier interface {
	Fetch(ctx context.Context, q models.CompetitorQuery) ([]models.CompetitorObservation, error)
}

// PricingService glues data supply, the engine, persistence and event publishing.
type PricingService struct {
	engine    *pricing.Engine
	supplier  CompetitorSupplier
	store     repository.AnalysisStore
	publisher repository.AnalysisPublisher
	queue     repository.JobQueue
	metrics   repository.Metrics
	logger    *logger.Logger
	now       func() time.Time
	newID     func() string
}

// ServiceOption configures PricingService.
type ServiceOption func(*PricingService)

// WithPublisher publishes an event for every stored analysis.
func WithPublisher(p repository.AnalysisPublisher) ServiceOption {
	return func(s *PricingService) {
		s.publisher = p
	}
}

// WithJobQueue enables EnqueueAnalysis.
func WithJobQueue(q repository.JobQueue) ServiceOption {
	return func(s *PricingService) {
		s.queue = q
	}
}

// WithServiceMetrics sets the metrics recorder.
func WithServiceMetrics(m repository.Metrics) ServiceOption {
	return func(s *PricingService) {
		if m != nil {
			s.metrics = m
		}
	}
}

// WithServiceLogger sets the logger.
func WithServiceLogger(l *logger.Logger) ServiceOption {
	return func(s *PricingService) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithClock overrides time.Now and the id generator, for tests.
func WithClock(now func() time.Time, newID func() string) ServiceOption {
	return func(s *PricingService) {
		if now != nil {
			s.now = now
		}
		if newID != nil {
			s.newID = newID
		}
	}
}

// NewPricingService creates the service. store may be nil, in which case analyses are not
// persisted and the read operations report not found.
func NewPricingService(engine *pricing.Engine, supplier CompetitorSupplier, store repository.AnalysisStore, opts ...ServiceOption) *PricingService {
	s := &PricingService{
		engine:   engine,
		supplier: supplier,
		store:    store,
		metrics:  svcmetrics.Nop{},
		logger:   logger.NewNop(),
		now:      time.Now,
		newID:    uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// FetchCompetitors returns the merged market data for q.
func (s *PricingService) FetchCompetitors(ctx context.Context, q models.CompetitorQuery) ([]models.CompetitorObservation, error) {
	if s.supplier == nil {
		return nil, errors.New("no competitor supplier configured")
	}
	return s.supplier.Fetch(ctx, q)
}

// AnalyzeProduct fetches competitor data for the product's market, runs the engine and
// stores the result. Store and publish failures are logged and the analysis is still returned.
// Queued runs return the store failure so the queue retries them.
func (s *PricingService) AnalyzeProduct(ctx context.Context, product models.ProductCostInput) (*models.AnalysisRecord, error) {
	return s.analyzeProduct(ctx, s.newID(), product, models.TriggerAPI)
}

func (s *PricingService) analyzeProduct(ctx context.Context, id string, product models.ProductCostInput, trigger models.Trigger) (*models.AnalysisRecord, error) {
	obs, err := s.FetchCompetitors(ctx, models.CompetitorQuery{Keyword: product.Keyword, Category: product.Category})
	if err != nil {
		s.metrics.RecordError("competitors")
		return nil, fmt.Errorf("analyze product: %w", err)
	}
	rec, err := s.run(ctx, id, product, obs, trigger, true)
	if err != nil && trigger == models.TriggerQueue {
		return nil, err
	}
	return rec, nil
}

// AnalyzeObservations runs the engine on caller-supplied observations. persist controls
// whether the record is stored and published.
func (s *PricingService) AnalyzeObservations(ctx context.Context, product models.ProductCostInput, obs []models.CompetitorObservation, persist bool) *models.AnalysisRecord {
	rec, _ := s.run(ctx, s.newID(), product, obs, models.TriggerAPI, persist)
	return rec
}

// run always returns the record. The error is the store failure, if any.
func (s *PricingService) run(ctx context.Context, id string, product models.ProductCostInput, obs []models.CompetitorObservation, trigger models.Trigger, persist bool) (*models.AnalysisRecord, error) {
	start := time.Now()
	res := s.engine.Evaluate(product, obs)
	s.metrics.RecordLatency("pricing.analyze", time.Since(start).Seconds())
	s.metrics.RecordAnalysis(string(res.Analysis.Strategy), string(res.Analysis.Confidence))
	if res.Fallback != pricing.ReasonNone {
		s.metrics.RecordFallback(string(res.Fallback))
	}

	rec := &models.AnalysisRecord{
		ID:             id,
		CreatedAt:      s.now().UTC(),
		Product:        product,
		Analysis:       res.Analysis,
		FallbackReason: string(res.Fallback),
		Trigger:        trigger,
	}

	s.logger.Info("pricing analysis done",
		logger.String("id", rec.ID),
		logger.String("keyword", product.Keyword),
		logger.String("strategy", string(res.Analysis.Strategy)),
		logger.String("confidence", string(res.Analysis.Confidence)),
		logger.Float64("recommended_price", res.Analysis.RecommendedPrice),
		logger.Int("competitors", len(obs)),
		logger.String("fallback", string(res.Fallback)),
	)

	if !persist {
		return rec, nil
	}
	return rec, s.persist(ctx, rec)
}

// persist stores and publishes rec. Only a store failure is returned, publish failures are
// logged.
func (s *PricingService) persist(ctx context.Context, rec *models.AnalysisRecord) error {
	if s.store != nil {
		if err := s.store.Save(ctx, rec); err != nil {
			s.metrics.RecordError("store")
			s.logger.Error("store analysis failed", logger.String("id", rec.ID), logger.Error(err))
			return fmt.Errorf("store analysis %s: %w", rec.ID, err)
		}
	}
	if s.publisher != nil {
		if err := s.publisher.PublishAnalysis(ctx, rec); err != nil {
			s.metrics.RecordError("publish")
			s.logger.Warn("publish analysis failed", logger.String("id", rec.ID), logger.Error(err))
		}
	}
	return nil
}

// GetAnalysis returns a stored analysis or repository.ErrNotFound.
func (s *PricingService) GetAnalysis(ctx context.Context, id string) (*models.AnalysisRecord, error) {
	if s.store == nil {
		return nil, repository.ErrNotFound
	}
	return s.store.Get(ctx, id)
}

// ListAnalyses returns stored analyses, newest first.
func (s *PricingService) ListAnalyses(ctx context.Context, f models.AnalysisFilter) ([]*models.AnalysisRecord, error) {
	if s.store == nil {
		return []*models.AnalysisRecord{}, nil
	}
	return s.store.List(ctx, f)
}

// EnqueueAnalysis schedules AnalyzeProduct on the job queue and returns the id the stored
// analysis will have.
func (s *PricingService) EnqueueAnalysis(ctx context.Context, product models.ProductCostInput) (string, error) {
	if s.queue == nil {
		return "", ErrQueueDisabled
	}
	job := models.AnalysisJob{RequestID: s.newID(), Product: product}
	if err := s.queue.PublishMessage(ctx, JobTypeAnalysis, job); err != nil {
		s.metrics.RecordError("queue")
		return "", fmt.Errorf("enqueue analysis: %w", err)
	}
	s.logger.Debug("analysis enqueued", logger.String("id", job.RequestID), logger.String("keyword", product.Keyword))
	return job.RequestID, nil
}
