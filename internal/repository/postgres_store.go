package repository

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"PriceWise/internal/domain/models"
	"PriceWise/internal/domain/repository"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
)

const pgColumns = "id, created_at, keyword, category, strategy, confidence, recommended_price, competitor_count, fallback_reason, trigger, product, analysis"

var pgSchema = []string{
	`CREATE TABLE IF NOT EXISTS pricing_analyses (
	id UUID PRIMARY KEY,
	created_at TIMESTAMPTZ NOT NULL,
	keyword TEXT NOT NULL,
	category TEXT NOT NULL,
	strategy TEXT NOT NULL,
	confidence TEXT NOT NULL,
	recommended_price DOUBLE PRECISION NOT NULL,
	competitor_count INTEGER NOT NULL,
	fallback_reason TEXT NOT NULL DEFAULT '',
	trigger TEXT NOT NULL,
	product JSONB NOT NULL,
	analysis JSONB NOT NULL
)`,
	`CREATE INDEX IF NOT EXISTS pricing_analyses_created_at_idx ON pricing_analyses (created_at DESC)`,
	`CREATE INDEX IF NOT EXISTS pricing_analyses_keyword_idx ON pricing_analyses (keyword, created_at DESC)`,
}

// PostgresStore implements AnalysisStore on a pgx pool.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore connects a pool to dsn.
func NewPostgresStore(ctx context.Context, dsn string, maxConns int32, connectTimeout time.Duration) (*PostgresStore, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres config: %w", err)
	}
	if maxConns > 0 {
		cfg.MaxConns = maxConns
	}
	if connectTimeout > 0 {
		cfg.ConnConfig.ConnectTimeout = connectTimeout
	}

	pool, err := pgxpool.ConnectConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("postgres connect: %w", err)
	}
	return &PostgresStore{pool: pool}, nil
}

func (s *PostgresStore) Init(ctx context.Context) error {
	for _, stmt := range pgSchema {
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("postgres schema: %w", err)
		}
	}
	return nil
}

func (s *PostgresStore) Save(ctx context.Context, r *models.AnalysisRecord) error {
	product, analysis, err := encodeRecord(r)
	if err != nil {
		return err
	}
	_, err = s.pool.Exec(ctx,
		"INSERT INTO pricing_analyses ("+pgColumns+") VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)",
		r.ID,
		r.CreatedAt.UTC(),
		r.Product.Keyword,
		r.Product.Category,
		string(r.Analysis.Strategy),
		string(r.Analysis.Confidence),
		r.Analysis.RecommendedPrice,
		r.Analysis.CompetitorCount,
		r.FallbackReason,
		string(r.Trigger),
		product,
		analysis,
	)
	if err != nil {
		return fmt.Errorf("postgres insert analysis: %w", err)
	}
	return nil
}

func (s *PostgresStore) Get(ctx context.Context, id string) (*models.AnalysisRecord, error) {
	row := s.pool.QueryRow(ctx, "SELECT "+pgColumns+" FROM pricing_analyses WHERE id = $1", id)
	rec, err := scanPGRecord(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("postgres get analysis: %w", err)
	}
	return rec, nil
}

func (s *PostgresStore) List(ctx context.Context, f models.AnalysisFilter) ([]*models.AnalysisRecord, error) {
	q, args := buildListQuery("pricing_analyses", pgColumns, f, pgPlaceholder)
	rows, err := s.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("postgres list analyses: %w", err)
	}
	defer rows.Close()

	out := []*models.AnalysisRecord{}
	for rows.Next() {
		rec, err := scanPGRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("postgres scan analysis: %w", err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (s *PostgresStore) Health(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

func pgPlaceholder(n int) string {
	return "$" + strconv.Itoa(n)
}

func scanPGRecord(row pgx.Row) (*models.AnalysisRecord, error) {
	var (
		rec                   models.AnalysisRecord
		keyword, category     string
		strategy, confidence  string
		price                 float64
		count                 int32
		trigger               string
		productRaw, analysisB []byte
	)
	if err := row.Scan(&rec.ID, &rec.CreatedAt, &keyword, &category, &strategy, &confidence,
		&price, &count, &rec.FallbackReason, &trigger, &productRaw, &analysisB); err != nil {
		return nil, err
	}
	rec.CreatedAt = rec.CreatedAt.UTC()
	rec.Trigger = models.Trigger(trigger)
	if err := decodeRecord(&rec, productRaw, analysisB); err != nil {
		return nil, err
	}
	return &rec, nil
}
