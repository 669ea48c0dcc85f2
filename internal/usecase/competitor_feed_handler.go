package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"PriceWise/internal/domain/models"
	domrepo "PriceWise/internal/domain/repository"
	xhttp "PriceWise/pkg/http"
	pkgkafka "PriceWise/pkg/kafka"
	"PriceWise/pkg/logger"
)

// CompetitorIngester merges externally sourced listings into the market cache.
type CompetitorIngester interface {
	Ingest(ctx context.Context, q models.CompetitorQuery, listings []models.CompetitorObservation) (int, error)
}

// CompetitorFeedHandler consumes scraper batches from Kafka.
type CompetitorFeedHandler struct {
	topic    string
	ingester CompetitorIngester
	metrics  domrepo.Metrics
	logger   *logger.Logger
}

func NewCompetitorFeedHandler(topic string, ingester CompetitorIngester, metrics domrepo.Metrics, l *logger.Logger) *CompetitorFeedHandler {
	if l == nil {
		l = logger.NewNop()
	}
	return &CompetitorFeedHandler{topic: topic, ingester: ingester, metrics: metrics, logger: l}
}

func (h *CompetitorFeedHandler) Topic() string { return h.topic }

// incoming message schema: {keyword, category, listings[]}
func (h *CompetitorFeedHandler) Handle(ctx context.Context, b []byte) error {
	var batch models.CompetitorBatch
	if err := json.Unmarshal(b, &batch); err != nil {
		h.metrics.RecordError("feed_unmarshal")
		return pkgkafka.Permanent(fmt.Errorf("decode competitor batch: %w", err))
	}
	for i := range batch.Listings {
		if batch.Listings[i].Source == "" {
			batch.Listings[i].Source = models.SourceFeed
		}
	}
	if verrs := xhttp.ValidateStruct(ctx, &batch); len(verrs) > 0 {
		h.metrics.RecordError("feed_invalid")
		return pkgkafka.Permanent(fmt.Errorf("invalid competitor batch: %s", verrs[0].Message))
	}

	start := time.Now()
	q := models.CompetitorQuery{Keyword: batch.Keyword, Category: batch.Category}
	n, err := h.ingester.Ingest(ctx, q, batch.Listings)
	h.metrics.RecordLatency("competitors.ingest", time.Since(start).Seconds())
	if err != nil {
		h.metrics.RecordError("feed_ingest")
		return err
	}

	h.logger.Debug("competitor batch ingested",
		logger.String("keyword", batch.Keyword),
		logger.Int("received", len(batch.Listings)),
		logger.Int("cached", n))
	return nil
}

var _ pkgkafka.MessageHandler = (*CompetitorFeedHandler)(nil)
