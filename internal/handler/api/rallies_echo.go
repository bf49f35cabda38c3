package api

import (
	"time"

	models "RallyScan/internal/domain/models"
	domrepo "RallyScan/internal/domain/repository"
	"RallyScan/internal/services/sim"
	"RallyScan/internal/usecase"
	xhttp "RallyScan/pkg/http"
	mw "RallyScan/pkg/http/middleware"
	xlogger "RallyScan/pkg/logger"
	xutil "RallyScan/pkg/util"

	"github.com/labstack/echo/v4"
)

// RalliesEchoHandler serves the validated echo API: rally queries, candle
// windows, on-demand scans, and simulations.
type RalliesEchoHandler struct {
	logger   *xlogger.Logger
	events   domrepo.EventStore
	candles  *usecase.CandlesUseCase
	pipeline *usecase.ScanPipeline
	proc     *usecase.EventProcessor
	sim      *usecase.SimRunner
	cached   *RalliesHandler
}

func NewRalliesEchoHandler(
	logger *xlogger.Logger,
	events domrepo.EventStore,
	candles *usecase.CandlesUseCase,
	pipeline *usecase.ScanPipeline,
	proc *usecase.EventProcessor,
	simRunner *usecase.SimRunner,
) *RalliesEchoHandler {
	return &RalliesEchoHandler{
		logger:   logger,
		events:   events,
		candles:  candles,
		pipeline: pipeline,
		proc:     proc,
		sim:      simRunner,
	}
}

// SetCachedHandler mounts the cached/rate-limited read variants under /v1.
func (h *RalliesEchoHandler) SetCachedHandler(c *RalliesHandler) { h.cached = c }

func (h *RalliesEchoHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api")
	g.GET("/rallies", h.Rallies)
	g.GET("/candles", h.Candles)
	g.POST("/scan", h.Scan)
	g.POST("/simulate", h.Simulate)

	if h.cached != nil {
		// plain net/http variants, instrumented and rate limited
		instrument := mw.Metrics(h.logger, 500*time.Millisecond)
		v1 := e.Group("/v1")
		v1.GET("/rallies", echo.WrapHandler(instrument(h.cached.Rallies())))
		v1.GET("/candles", echo.WrapHandler(instrument(h.cached.Candles())))
	}
}

// Rallies returns stored events for one symbol and timeframe, newest last.
func (h *RalliesEchoHandler) Rallies(c echo.Context) error {
	req := &models.RalliesRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	tf := domrepo.NormalizeTimeframe(req.TF)

	events, err := h.events.QueryEvents(c.Request().Context(), req.Symbol, tf, req.Linked, req.Limit)
	if err != nil {
		h.logger.Error("rallies query error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, xhttp.InternalError("rallies query failed").WithError(err))
	}
	c.Response().Header().Set(echo.HeaderCacheControl, "private, max-age=15")
	return xhttp.ListResponse(c, events, int64(len(events)))
}

func (h *RalliesEchoHandler) Candles(c echo.Context) error {
	req := &models.CandlesRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	tf := domrepo.NormalizeTimeframe(req.TF)

	now := time.Now().UTC()
	from := xutil.ParseTimeDefault(req.From, now.Add(-31*24*time.Hour))
	to := xutil.ParseTimeDefault(req.To, now)

	res, err := h.candles.GetCandles(c.Request().Context(), usecase.GetCandlesParams{
		Symbol:    req.Symbol,
		From:      from,
		To:        to,
		Timeframe: tf,
		Limit:     req.Limit,
	})
	if err != nil {
		h.logger.Error("candles usecase error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, xhttp.BadRequestErrorf("candles: %v", err))
	}
	return xhttp.SuccessResponse(c, res)
}

// Scan runs the full detection pipeline for one symbol synchronously and
// persists/publishes the surviving events before responding.
func (h *RalliesEchoHandler) Scan(c echo.Context) error {
	req := &models.ScanRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	res, err := h.pipeline.Run(c.Request().Context(), req.Symbol)
	if err != nil {
		h.logger.Error("scan pipeline error",
			xlogger.String("symbol", req.Symbol), xlogger.Error(err))
		return xhttp.AppErrorResponse(c, xhttp.InternalError("scan failed").WithError(err))
	}
	if err := h.proc.Process(c.Request().Context(), res.Events()); err != nil {
		h.logger.Error("scan process error",
			xlogger.String("symbol", req.Symbol), xlogger.Error(err))
		return xhttp.AppErrorResponse(c, xhttp.InternalError("event processing failed").WithError(err))
	}
	return xhttp.CreatedResponse(c, res)
}

func (h *RalliesEchoHandler) Simulate(c echo.Context) error {
	req := &models.SimulateRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	tf := domrepo.NormalizeTimeframe(req.TF)

	cfg := sim.Config{
		Symbol:          req.Symbol,
		Timeframe:       string(tf),
		MinGainPct:      req.MinGainPct,
		AllowedBuckets:  req.AllowedBuckets,
		LinkedOnly:      req.LinkedOnly,
		TPPct:           req.TPPct,
		SLPct:           req.SLPct,
		RiskPerTradePct: req.RiskPerTradePct,
		MaxHorizonBars:  req.MaxHorizonBars,
		InitialEquity:   req.InitialEquity,
	}
	res, err := h.sim.Run(c.Request().Context(), cfg, req.N)
	if err != nil {
		h.logger.Error("simulate error",
			xlogger.String("symbol", req.Symbol), xlogger.Error(err))
		return xhttp.AppErrorResponse(c, xhttp.InternalError("simulation failed").WithError(err))
	}
	return xhttp.SuccessResponse(c, res)
}
