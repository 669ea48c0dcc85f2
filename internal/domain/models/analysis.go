package models

import "time"

// Trigger records what started an analysis.
type Trigger string

const (
	TriggerAPI   Trigger = "api"
	TriggerQueue Trigger = "queue"
	TriggerCLI   Trigger = "cli"
)

// AnalysisRecord is a persisted PricingAnalysis with its input.
type AnalysisRecord struct {
	ID             string           `json:"id"`
	CreatedAt      time.Time        `json:"createdAt"`
	Product        ProductCostInput `json:"product"`
	Analysis       PricingAnalysis  `json:"analysis"`
	FallbackReason string           `json:"fallbackReason,omitempty"`
	Trigger        Trigger          `json:"trigger"`
}

// AnalysisFilter narrows ListAnalyses. Zero times are open bounds.
type AnalysisFilter struct {
	Keyword string
	From    time.Time
	To      time.Time
	Limit   int
}

// Matches reports whether r passes the filter, ignoring Limit.
func (f AnalysisFilter) Matches(r AnalysisRecord) bool {
	if f.Keyword != "" && f.Keyword != r.Product.Keyword {
		return false
	}
	if !f.From.IsZero() && r.CreatedAt.Before(f.From) {
		return false
	}
	if !f.To.IsZero() && r.CreatedAt.After(f.To) {
		return false
	}
	return true
}

// CompetitorQuery identifies a market to search.
type CompetitorQuery struct {
	Keyword  string `json:"keyword" validate:"required"`
	Category string `json:"category" validate:"required"`
}

// CompetitorBatch is the message external scrapers publish on the competitor feed topic.
type CompetitorBatch struct {
	Keyword  string                  `json:"keyword" validate:"required"`
	Category string                  `json:"category" validate:"required"`
	Listings []CompetitorObservation `json:"listings" validate:"required,min=1,dive"`
}

// AnalysisJob is the payload of an async analysis queue message.
type AnalysisJob struct {
	RequestID string           `json:"requestId"`
	Product   ProductCostInput `json:"product"`
}

// AnalysisEvent is published after an analysis is stored.
type AnalysisEvent struct {
	ID               string     `json:"id"`
	CreatedAt        time.Time  `json:"createdAt"`
	Keyword          string     `json:"keyword"`
	Category         string     `json:"category"`
	Strategy         Strategy   `json:"strategy"`
	Confidence       Confidence `json:"confidence"`
	RecommendedPrice float64    `json:"recommendedPrice"`
	CompetitorCount  int        `json:"competitorCount"`
	FallbackReason   string     `json:"fallbackReason,omitempty"`
}

// Event summarizes r for downstream consumers.
func (r AnalysisRecord) Event() AnalysisEvent {
	return AnalysisEvent{
		ID:               r.ID,
		CreatedAt:        r.CreatedAt,
		Keyword:          r.Product.Keyword,
		Category:         r.Product.Category,
		Strategy:         r.Analysis.Strategy,
		Confidence:       r.Analysis.Confidence,
		RecommendedPrice: r.Analysis.RecommendedPrice,
		CompetitorCount:  r.Analysis.CompetitorCount,
		FallbackReason:   r.FallbackReason,
	}
}
