package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"PriceWise/internal/domain/models"
	"PriceWise/internal/domain/repository"
)

// ClickHouseStore implements AnalysisStore for ClickHouse.
type ClickHouseStore struct {
	db    *sql.DB
	table string
}

// NewClickHouseStore creates ClickHouse storage writing to table (database.table).
func NewClickHouseStore(db *sql.DB, table string) *ClickHouseStore {
	return &ClickHouseStore{db: db, table: table}
}

const chColumns = "id, created_at, keyword, category, strategy, confidence, recommended_price, competitor_count, fallback_reason, trigger, product, analysis"

// Schema returns the DDL for the analyses table.
func (s *ClickHouseStore) Schema() []string {
	db := s.table[:max(0, strings.LastIndex(s.table, "."))]
	stmts := []string{}
	if db != "" {
		stmts = append(stmts, "CREATE DATABASE IF NOT EXISTS "+db)
	}
	return append(stmts, fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
	id String,
	created_at DateTime64(3, 'UTC'),
	keyword String,
	category LowCardinality(String),
	strategy LowCardinality(String),
	confidence LowCardinality(String),
	recommended_price Float64,
	competitor_count UInt32,
	fallback_reason LowCardinality(String),
	trigger LowCardinality(String),
	product String,
	analysis String
) ENGINE = MergeTree ORDER BY (created_at, id)`, s.table))
}

func (s *ClickHouseStore) Init(ctx context.Context) error {
	for _, stmt := range s.Schema() {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("clickhouse schema: %w", err)
		}
	}
	return nil
}

func (s *ClickHouseStore) Save(ctx context.Context, r *models.AnalysisRecord) error {
	product, analysis, err := encodeRecord(r)
	if err != nil {
		return err
	}
	q := fmt.Sprintf("INSERT INTO %s (%s) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)", s.table, chColumns)
	_, err = s.db.ExecContext(ctx, q,
		r.ID,
		r.CreatedAt.UTC(),
		r.Product.Keyword,
		r.Product.Category,
		string(r.Analysis.Strategy),
		string(r.Analysis.Confidence),
		r.Analysis.RecommendedPrice,
		uint32(r.Analysis.CompetitorCount),
		r.FallbackReason,
		string(r.Trigger),
		string(product),
		string(analysis),
	)
	if err != nil {
		return fmt.Errorf("clickhouse insert analysis: %w", err)
	}
	return nil
}

func (s *ClickHouseStore) Get(ctx context.Context, id string) (*models.AnalysisRecord, error) {
	q := fmt.Sprintf("SELECT %s FROM %s WHERE id = ? LIMIT 1", chColumns, s.table)
	rec, err := scanCHRecord(s.db.QueryRowContext(ctx, q, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("clickhouse get analysis: %w", err)
	}
	return rec, nil
}

func (s *ClickHouseStore) List(ctx context.Context, f models.AnalysisFilter) ([]*models.AnalysisRecord, error) {
	q, args := buildListQuery(s.table, chColumns, f, func(int) string { return "?" })
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("clickhouse list analyses: %w", err)
	}
	defer rows.Close()

	out := []*models.AnalysisRecord{}
	for rows.Next() {
		rec, err := scanCHRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("clickhouse scan analysis: %w", err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (s *ClickHouseStore) Health(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *ClickHouseStore) Close() error {
	return nil // pool owned by pkg/clickhouse.Client
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCHRecord(row rowScanner) (*models.AnalysisRecord, error) {
	var (
		rec                      models.AnalysisRecord
		keyword, category        string
		strategy, confidence     string
		price                    float64
		count                    uint32
		trigger                  string
		productJSON, analysisRaw string
	)
	if err := row.Scan(&rec.ID, &rec.CreatedAt, &keyword, &category, &strategy, &confidence,
		&price, &count, &rec.FallbackReason, &trigger, &productJSON, &analysisRaw); err != nil {
		return nil, err
	}
	rec.Trigger = models.Trigger(trigger)
	if err := decodeRecord(&rec, []byte(productJSON), []byte(analysisRaw)); err != nil {
		return nil, err
	}
	return &rec, nil
}

// buildListQuery renders a filtered, newest-first SELECT. placeholder(n) renders the n-th
// bind parameter (1-based) in the driver's syntax.
func buildListQuery(table, columns string, f models.AnalysisFilter, placeholder func(int) string) (string, []any) {
	var (
		where []string
		args  []any
	)
	add := func(cond string, v any) {
		args = append(args, v)
		where = append(where, fmt.Sprintf(cond, placeholder(len(args))))
	}
	if f.Keyword != "" {
		add("keyword = %s", f.Keyword)
	}
	if !f.From.IsZero() {
		add("created_at >= %s", f.From.UTC())
	}
	if !f.To.IsZero() {
		add("created_at <= %s", f.To.UTC())
	}

	var b strings.Builder
	fmt.Fprintf(&b, "SELECT %s FROM %s", columns, table)
	if len(where) > 0 {
		b.WriteString(" WHERE ")
		b.WriteString(strings.Join(where, " AND "))
	}
	args = append(args, listLimit(f.Limit))
	fmt.Fprintf(&b, " ORDER BY created_at DESC LIMIT %s", placeholder(len(args)))
	return b.String(), args
}
