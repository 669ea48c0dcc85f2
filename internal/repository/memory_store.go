package repository

import (
	"context"
	"sort"
	"sync"

	"PriceWise/internal/domain/models"
	"PriceWise/internal/domain/repository"
)

// MemoryStore keeps analyses in process. Used for development, the CLI and tests.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[string]models.AnalysisRecord
}

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[string]models.AnalysisRecord)}
}

func (s *MemoryStore) Init(context.Context) error { return nil }

func (s *MemoryStore) Save(_ context.Context, r *models.AnalysisRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[r.ID] = *r
	return nil
}

func (s *MemoryStore) Get(_ context.Context, id string) (*models.AnalysisRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.records[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &r, nil
}

func (s *MemoryStore) List(_ context.Context, f models.AnalysisFilter) ([]*models.AnalysisRecord, error) {
	s.mu.RLock()
	out := make([]*models.AnalysisRecord, 0, len(s.records))
	for _, r := range s.records {
		if f.Matches(r) {
			r := r
			out = append(out, &r)
		}
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	if limit := listLimit(f.Limit); len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *MemoryStore) Health(context.Context) error { return nil }

func (s *MemoryStore) Close() error { return nil }
