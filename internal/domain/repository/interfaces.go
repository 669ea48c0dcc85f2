package repository

import (
	"context"
	"errors"
	"time"

	"PriceWise/internal/domain/models"
)

// ErrNotFound is returned by stores when a record does not exist.
var ErrNotFound = errors.New("record not found")

// AnalysisStore persists analysis records.
type AnalysisStore interface {
	Init(ctx context.Context) error // ensure tables
	Save(ctx context.Context, r *models.AnalysisRecord) error
	Get(ctx context.Context, id string) (*models.AnalysisRecord, error)
	List(ctx context.Context, f models.AnalysisFilter) ([]*models.AnalysisRecord, error) // newest first
	Health(ctx context.Context) error
	Close() error
}

// AnalysisPublisher announces stored analyses.
type AnalysisPublisher interface {
	PublishAnalysis(ctx context.Context, r *models.AnalysisRecord) error
	Close() error
}

// CompetitorSource is one marketplace integration.
type CompetitorSource interface {
	Name() string
	Fetch(ctx context.Context, q models.CompetitorQuery) ([]models.CompetitorObservation, error)
}

// CompetitorCache stores observation sets by market key. age is the time since Put.
type CompetitorCache interface {
	Get(ctx context.Context, key string) (obs []models.CompetitorObservation, age time.Duration, ok bool, err error)
	Put(ctx context.Context, key string, obs []models.CompetitorObservation) error
	// PutAged replaces the set but keeps it as old as age, so rewrites do not extend freshness.
	PutAged(ctx context.Context, key string, obs []models.CompetitorObservation, age time.Duration) error
}

// JobQueue enqueues background work.
type JobQueue interface {
	PublishMessage(ctx context.Context, msgType string, payload interface{}) error
}

type Metrics interface {
	RecordAnalysis(strategy, confidence string)
	RecordFallback(reason string)
	RecordSourceFetch(source, outcome string, listings int)
	RecordCacheLookup(hit bool)
	RecordError(kind string)
	RecordLatency(op string, seconds float64)
}
