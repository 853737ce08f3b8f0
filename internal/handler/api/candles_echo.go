package api

import (
	"context"

	"github.com/labstack/echo/v4"

	"barflow/internal/domain/models"
	drepo "barflow/internal/domain/repository"
	"barflow/internal/domain/service"
	"barflow/internal/usecase"
	xhttp "barflow/pkg/http"
	xlogger "barflow/pkg/logger"
)

// CandlesHandler serves bar history, latest-bar, and session endpoints.
type CandlesHandler struct {
	logger  *xlogger.Logger
	candles *usecase.CandlesUseCase
	session *usecase.SessionUseCase
	vol     service.VolatilityEstimator
	health  func(ctx context.Context) error
}

// NewCandlesHandler creates a new CandlesHandler instance. health is the
// storage ping used by the health endpoint; a nil health always reports ok.
func NewCandlesHandler(
	logger *xlogger.Logger,
	candles *usecase.CandlesUseCase,
	session *usecase.SessionUseCase,
	vol service.VolatilityEstimator,
	health func(ctx context.Context) error,
) *CandlesHandler {
	return &CandlesHandler{
		logger:  logger,
		candles: candles,
		session: session,
		vol:     vol,
		health:  health,
	}
}

// RegisterRoutes implements the server Handler contract.
func (h *CandlesHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api")
	g.GET("/candles", h.Candles)
	g.GET("/candles/latest", h.Latest)
	g.GET("/session", h.Session)
	g.GET("/stats/vol", h.Vol)
	e.GET("/healthz", h.Healthz)
}

// Candles returns bars for a symbol within a time range.
func (h *CandlesHandler) Candles(c echo.Context) error {
	req := &models.CandlesRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	res, err := h.candles.Query(c.Request().Context(), req)
	if err != nil {
		h.logger.Error("candles query error", xlogger.Error(err))
		return xhttp.InternalErrorResponse(c, err)
	}
	return xhttp.ListResponse(c, res, int64(len(res)))
}

// Latest returns the n most recent closed bars for a symbol.
func (h *CandlesHandler) Latest(c echo.Context) error {
	req := &models.LatestCandlesRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	res, err := h.candles.Latest(c.Request().Context(), req)
	if err != nil {
		h.logger.Error("latest candles error", xlogger.Error(err))
		return xhttp.InternalErrorResponse(c, err)
	}
	if len(res) == 0 {
		return xhttp.NotFoundResponse(c, map[string]string{
			"symbol": req.Symbol,
			"tf":     string(drepo.NormalizeTimeframe(req.TF)),
		})
	}
	return xhttp.ListResponse(c, res, int64(len(res)))
}

// Session reports the venue's trading session at an instant.
func (h *CandlesHandler) Session(c echo.Context) error {
	req := &models.SessionRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	res, err := h.session.Status(req)
	if err != nil {
		return xhttp.BadRequestResponse(c, map[string]string{"venue": req.Venue})
	}
	return xhttp.SuccessResponse(c, res)
}

// Vol computes realized volatility over recent closed bars.
func (h *CandlesHandler) Vol(c echo.Context) error {
	req := &models.StatsRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	tf := drepo.NormalizeTimeframe(req.TF)

	res, err := h.vol.Estimate(c.Request().Context(), req.Symbol, req.N, tf)
	if err != nil {
		h.logger.Error("vol estimate error", xlogger.Error(err))
		return xhttp.InternalErrorResponse(c, err)
	}
	return xhttp.SuccessResponse(c, res)
}

// Healthz pings backing storage.
func (h *CandlesHandler) Healthz(c echo.Context) error {
	if h.health != nil {
		if err := h.health(c.Request().Context()); err != nil {
			h.logger.Error("health check failed", xlogger.Error(err))
			return xhttp.InternalErrorResponse(c, err)
		}
	}
	return xhttp.SuccessResponse(c, map[string]string{"status": "ok"})
}
