package usecase

import (
	"context"
	"errors"
	"fmt"

	"PriceWise/internal/domain/models"
	"PriceWise/internal/domain/repository"
	"PriceWise/pkg/queue"
)

// AnalysisJob runs queued analyses. The stored record reuses the request id so clients can
// poll GET /analyses/:id.
type AnalysisJob struct {
	svc *PricingService
}

func NewAnalysisJob(svc *PricingService) *AnalysisJob {
	return &AnalysisJob{svc: svc}
}

func (j *AnalysisJob) Name() string { return "pricing-analysis" }

func (j *AnalysisJob) Type() string { return JobTypeAnalysis }

func (j *AnalysisJob) Handle(ctx context.Context, payload []byte) error {
	job, err := queue.ParsePayload[models.AnalysisJob](payload)
	if err != nil {
		return err
	}
	if job.RequestID == "" {
		return errors.New("analysis job without request id")
	}

	// A retried job whose first attempt was stored must not store a duplicate.
	if _, err := j.svc.GetAnalysis(ctx, job.RequestID); err == nil {
		return nil
	} else if !errors.Is(err, repository.ErrNotFound) {
		return fmt.Errorf("check existing analysis: %w", err)
	}

	_, err = j.svc.analyzeProduct(ctx, job.RequestID, job.Product, models.TriggerQueue)
	return err
}

var _ queue.Job = (*AnalysisJob)(nil)
