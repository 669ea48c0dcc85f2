package middleware

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"PriceWise/internal/domain/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type flakyPublisher struct {
	mu       sync.Mutex
	failing  bool
	received []string
	closed   bool
}

func (p *flakyPublisher) PublishAnalysis(_ context.Context, r *models.AnalysisRecord) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.failing {
		return errors.New("broker unavailable")
	}
	p.received = append(p.received, r.ID)
	return nil
}

func (p *flakyPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
	return nil
}

func (p *flakyPublisher) set(failing bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.failing = failing
}

func (p *flakyPublisher) ids() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.received...)
}

func TestEventBufferPassesThrough(t *testing.T) {
	next := &flakyPublisher{}
	b := NewEventBuffer(next)

	require.NoError(t, b.PublishAnalysis(context.Background(), &models.AnalysisRecord{ID: "a"}))
	assert.Equal(t, []string{"a"}, next.ids())
	assert.Zero(t, b.Pending())

	require.NoError(t, b.Close())
	assert.True(t, next.closed)
}

func TestEventBufferRedeliversAfterRecovery(t *testing.T) {
	next := &flakyPublisher{failing: true}
	b := NewEventBuffer(next, WithBufferSize(4))
	defer b.Close()

	require.NoError(t, b.PublishAnalysis(context.Background(), &models.AnalysisRecord{ID: "a"}))
	require.NoError(t, b.PublishAnalysis(context.Background(), &models.AnalysisRecord{ID: "b"}))

	next.set(false)
	assert.Eventually(t, func() bool { return len(next.ids()) == 2 }, 5*time.Second, 10*time.Millisecond)
	assert.ElementsMatch(t, []string{"a", "b"}, next.ids())
}

func TestEventBufferFull(t *testing.T) {
	next := &flakyPublisher{failing: true}
	b := NewEventBuffer(next, WithBufferSize(1), WithDrainTimeout(50*time.Millisecond))

	b.stop()
	require.NoError(t, b.PublishAnalysis(context.Background(), &models.AnalysisRecord{ID: "a"}))
	err := b.PublishAnalysis(context.Background(), &models.AnalysisRecord{ID: "b"})
	assert.ErrorIs(t, err, ErrBufferFull)

	next.set(false)
	require.NoError(t, b.Close())
	assert.Equal(t, []string{"a"}, next.ids(), "close drains what is left")
}
