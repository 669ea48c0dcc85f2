package models

// Requests and responses of the pricing HTTP API.

type ObservationsRequest struct {
	Product      ProductCostInput        `json:"product" validate:"required"`
	Observations []CompetitorObservation `json:"observations" validate:"dive"`
	// Persist stores the result like POST /analyze does.
	Persist bool `json:"persist"`
}

type ListAnalysesRequest struct {
	Keyword string `query:"keyword" json:"keyword"`
	Limit   int    `query:"limit" json:"limit" default:"50" validate:"gte=1,lte=500"`
	From    string `query:"from" json:"from"`
	To      string `query:"to" json:"to"`
}

type CompetitorsResponse struct {
	Competitors []CompetitorObservation `json:"competitors"`
	Count       int                     `json:"count"`
}

// AsyncAccepted acknowledges a queued analysis. Poll Location until it stops returning 404.
type AsyncAccepted struct {
	ID       string `json:"id"`
	Status   string `json:"status"`
	Location string `json:"location"`
}
