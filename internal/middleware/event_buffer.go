// Package middleware holds decorators that sit between use cases and their outbound ports.
package middleware

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"PriceWise/internal/domain/models"
	domrepo "PriceWise/internal/domain/repository"
	svcmetrics "PriceWise/internal/service/metrics"
	applogger "PriceWise/pkg/logger"
)

// ErrBufferFull is returned when an event could neither be delivered nor buffered.
var ErrBufferFull = errors.New("event buffer full")

const (
	minBackoff = 50 * time.Millisecond
	maxBackoff = 2 * time.Second
)

// EventBuffer forwards analysis events to the downstream publisher and keeps the ones that
// fail in a bounded buffer, redelivering them in the background.
type EventBuffer struct {
	next    domrepo.AnalysisPublisher
	metrics domrepo.Metrics
	logger  *applogger.Logger

	bufCh        chan *models.AnalysisRecord
	drainTimeout time.Duration

	stopOnce sync.Once
	stopCh   chan struct{}
	done     chan struct{}
}

type BufferOption func(*EventBuffer)

// WithBufferSize sets how many undelivered events are kept.
func WithBufferSize(n int) BufferOption {
	return func(b *EventBuffer) {
		if n > 0 {
			b.bufCh = make(chan *models.AnalysisRecord, n)
		}
	}
}

// WithDrainTimeout bounds how long Close keeps trying to deliver buffered events.
func WithDrainTimeout(d time.Duration) BufferOption {
	return func(b *EventBuffer) {
		if d > 0 {
			b.drainTimeout = d
		}
	}
}

func WithBufferMetrics(m domrepo.Metrics) BufferOption {
	return func(b *EventBuffer) {
		if m != nil {
			b.metrics = m
		}
	}
}

func WithBufferLogger(l *applogger.Logger) BufferOption {
	return func(b *EventBuffer) {
		if l != nil {
			b.logger = l
		}
	}
}

// NewEventBuffer wraps next and starts the redelivery loop. Close stops it.
func NewEventBuffer(next domrepo.AnalysisPublisher, opts ...BufferOption) *EventBuffer {
	b := &EventBuffer{
		next:         next,
		metrics:      svcmetrics.Nop{},
		logger:       applogger.NewNop(),
		bufCh:        make(chan *models.AnalysisRecord, 1000),
		drainTimeout: 5 * time.Second,
		stopCh:       make(chan struct{}),
		done:         make(chan struct{}),
	}
	for _, opt := range opts {
		opt(b)
	}
	go b.loop()
	return b
}

// PublishAnalysis delivers r or buffers it for redelivery. Only a full buffer is an error.
func (b *EventBuffer) PublishAnalysis(ctx context.Context, r *models.AnalysisRecord) error {
	err := b.next.PublishAnalysis(ctx, r)
	if err == nil {
		return nil
	}
	b.metrics.RecordError("event_publish")

	select {
	case b.bufCh <- r:
		b.logger.Warn("analysis event buffered",
			applogger.String("id", r.ID),
			applogger.Int("depth", len(b.bufCh)),
			applogger.Error(err))
		return nil
	default:
		b.metrics.RecordError("event_buffer_full")
		return fmt.Errorf("%w: %w", ErrBufferFull, err)
	}
}

// Pending reports the number of buffered events.
func (b *EventBuffer) Pending() int {
	return len(b.bufCh)
}

func (b *EventBuffer) loop() {
	defer close(b.done)

	backoff := minBackoff
	for {
		select {
		case <-b.stopCh:
			return
		case r := <-b.bufCh:
			if err := b.next.PublishAnalysis(context.Background(), r); err != nil {
				b.metrics.RecordError("event_redeliver")
				b.requeue(r)
				select {
				case <-b.stopCh:
					return
				case <-time.After(backoff):
				}
				backoff = min(backoff*2, maxBackoff)
				continue
			}
			backoff = minBackoff
		}
	}
}

func (b *EventBuffer) requeue(r *models.AnalysisRecord) {
	select {
	case b.bufCh <- r:
	default:
		b.metrics.RecordError("event_buffer_drop")
		b.logger.Error("analysis event dropped", applogger.String("id", r.ID))
	}
}

func (b *EventBuffer) stop() {
	b.stopOnce.Do(func() { close(b.stopCh) })
	<-b.done
}

// Close stops redelivery, makes one last attempt at each buffered event within the drain
// timeout and closes the downstream publisher.
func (b *EventBuffer) Close() error {
	b.stop()

	ctx, cancel := context.WithTimeout(context.Background(), b.drainTimeout)
	defer cancel()

	lost := 0
drain:
	for {
		select {
		case r := <-b.bufCh:
			if ctx.Err() != nil || b.next.PublishAnalysis(ctx, r) != nil {
				lost++
			}
		default:
			break drain
		}
	}
	if lost > 0 {
		b.logger.Error("analysis events lost on shutdown", applogger.Int("count", lost))
	}
	return b.next.Close()
}

var _ domrepo.AnalysisPublisher = (*EventBuffer)(nil)
