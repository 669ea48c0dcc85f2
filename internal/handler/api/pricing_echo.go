package api

import (
	"errors"
	"net/http"

	models "PriceWise/internal/domain/models"
	domrepo "PriceWise/internal/domain/repository"
	"PriceWise/internal/usecase"
	xhttp "PriceWise/pkg/http"
	xlogger "PriceWise/pkg/logger"
	"PriceWise/pkg/util"

	"github.com/labstack/echo/v4"
)

const apiPrefix = "/api/v1"

// PricingEchoHandler serves the pricing API on Echo.
type PricingEchoHandler struct {
	logger *xlogger.Logger
	svc    *usecase.PricingService
}

func NewPricingEchoHandler(logger *xlogger.Logger, svc *usecase.PricingService) *PricingEchoHandler {
	if logger == nil {
		logger = xlogger.NewNop()
	}
	return &PricingEchoHandler{logger: logger, svc: svc}
}

func (h *PricingEchoHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group(apiPrefix)
	g.POST("/analyze", h.Analyze)
	g.POST("/analyze/observations", h.AnalyzeObservations)
	g.POST("/competitors", h.Competitors)
	g.POST("/analyses/async", h.AnalyzeAsync)
	g.GET("/analyses", h.ListAnalyses)
	g.GET("/analyses/:id", h.GetAnalysis)
}

func (h *PricingEchoHandler) Analyze(c echo.Context) error {
	req := &models.ProductCostInput{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	rec, err := h.svc.AnalyzeProduct(c.Request().Context(), *req)
	if err != nil {
		h.logger.Error("analyze usecase error", xlogger.String("keyword", req.Keyword), xlogger.Error(err))
		return xhttp.AppErrorResponse(c, upstreamError(err))
	}
	return xhttp.SuccessResponse(c, rec)
}

func (h *PricingEchoHandler) AnalyzeObservations(c echo.Context) error {
	req := &models.ObservationsRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	if req.Observations == nil {
		req.Observations = []models.CompetitorObservation{}
	}

	rec := h.svc.AnalyzeObservations(c.Request().Context(), req.Product, req.Observations, req.Persist)
	return xhttp.SuccessResponse(c, rec)
}

func (h *PricingEchoHandler) Competitors(c echo.Context) error {
	req := &models.CompetitorQuery{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	obs, err := h.svc.FetchCompetitors(c.Request().Context(), *req)
	if err != nil {
		h.logger.Error("competitors usecase error", xlogger.String("keyword", req.Keyword), xlogger.Error(err))
		return xhttp.AppErrorResponse(c, upstreamError(err))
	}
	if obs == nil {
		obs = []models.CompetitorObservation{}
	}
	return xhttp.SuccessResponse(c, models.CompetitorsResponse{Competitors: obs, Count: len(obs)})
}

func (h *PricingEchoHandler) AnalyzeAsync(c echo.Context) error {
	req := &models.ProductCostInput{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	id, err := h.svc.EnqueueAnalysis(c.Request().Context(), *req)
	if errors.Is(err, usecase.ErrQueueDisabled) {
		return xhttp.AppErrorResponse(c, xhttp.UnavailableError(err.Error()))
	}
	if err != nil {
		h.logger.Error("enqueue usecase error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, xhttp.InternalError("could not enqueue analysis").WithError(err))
	}

	location := apiPrefix + "/analyses/" + id
	c.Response().Header().Set(echo.HeaderLocation, location)
	return xhttp.AcceptedResponse(c, models.AsyncAccepted{ID: id, Status: "queued", Location: location})
}

func (h *PricingEchoHandler) ListAnalyses(c echo.Context) error {
	req := &models.ListAnalysesRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	from, to, err := util.ParseRange(req.From, req.To)
	if err != nil {
		return xhttp.AppErrorResponse(c, xhttp.BadRequestError(err.Error()))
	}

	rows, err := h.svc.ListAnalyses(c.Request().Context(), models.AnalysisFilter{
		Keyword: req.Keyword,
		From:    from,
		To:      to,
		Limit:   req.Limit,
	})
	if err != nil {
		h.logger.Error("list analyses error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, xhttp.InternalError("could not list analyses").WithError(err))
	}
	return xhttp.ListResponse(c, rows, int64(len(rows)))
}

func (h *PricingEchoHandler) GetAnalysis(c echo.Context) error {
	id := c.Param("id")
	rec, err := h.svc.GetAnalysis(c.Request().Context(), id)
	if errors.Is(err, domrepo.ErrNotFound) {
		return xhttp.AppErrorResponse(c, xhttp.NotFoundErrorf("analysis %s not found", id))
	}
	if err != nil {
		h.logger.Error("get analysis error", xlogger.String("id", id), xlogger.Error(err))
		return xhttp.AppErrorResponse(c, xhttp.InternalError("could not load analysis").WithError(err))
	}
	return xhttp.SuccessResponse(c, rec)
}

// upstreamError maps a failed market data fetch to 502.
func upstreamError(err error) *xhttp.AppError {
	return xhttp.NewAppError("ERR_UPSTREAM", "", "could not fetch competitor data", http.StatusBadGateway).WithError(err)
}

var _ xhttp.Handler = (*PricingEchoHandler)(nil)
