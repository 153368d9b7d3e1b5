package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/samber/lo"

	"CrossBot/internal/domain/models"
	domrepo "CrossBot/internal/domain/repository"
	icache "CrossBot/internal/service/cache"
	"CrossBot/internal/service/metrics"
	"CrossBot/internal/services/backtest"
	"CrossBot/internal/services/strategy"
	"CrossBot/internal/usecase"
	xhttp "CrossBot/pkg/http"
	xlogger "CrossBot/pkg/logger"
	xutil "CrossBot/pkg/util"
)

// AnalysisHandler serves the crossover pipeline over HTTP.
type AnalysisHandler struct {
	logger *xlogger.Logger
	uc     *usecase.BacktestUseCase
	cache  icache.BytesCache
	ttl    time.Duration
}

func NewAnalysisHandler(logger *xlogger.Logger, uc *usecase.BacktestUseCase, cache icache.BytesCache, ttl time.Duration) *AnalysisHandler {
	metrics.Register()
	return &AnalysisHandler{logger: logger, uc: uc, cache: cache, ttl: ttl}
}

func (h *AnalysisHandler) RegisterRoutes(g *echo.Group) {
	api := g.Group("/api")
	api.GET("/signals", h.Signals)
	api.GET("/transactions", h.Transactions)
	api.GET("/backtest", h.Backtest)
	api.GET("/action", h.Action)
}

type signalsResponse struct {
	Symbol      string                `json:"symbol"`
	ShortWindow int                   `json:"short_window"`
	LongWindow  int                   `json:"long_window"`
	Warmup      bool                  `json:"warmup"`
	Signals     []models.SignalRecord `json:"signals"`
}

type transactionsResponse struct {
	Symbol       string                     `json:"symbol"`
	Warmup       bool                       `json:"warmup"`
	Transactions []models.TransactionRecord `json:"transactions"`
	Events       []models.TransactionRecord `json:"events"`
}

type actionResponse struct {
	Symbol      string                    `json:"symbol"`
	Action      models.Action             `json:"action"`
	Warmup      bool                      `json:"warmup"`
	AsOf        *time.Time                `json:"as_of,omitempty"`
	Transaction *models.TransactionRecord `json:"transaction,omitempty"`
}

func (h *AnalysisHandler) Signals(c echo.Context) error {
	rep, req, err := h.report(c, "signals")
	if err != nil || req == nil {
		return err
	}
	return xhttp.SuccessResponse(c, signalsResponse{
		Symbol:      rep.Symbol,
		ShortWindow: rep.ShortWindow,
		LongWindow:  rep.LongWindow,
		Warmup:      rep.Warmup,
		Signals:     rep.Signals,
	})
}

func (h *AnalysisHandler) Transactions(c echo.Context) error {
	rep, req, err := h.report(c, "transactions")
	if err != nil || req == nil {
		return err
	}
	return xhttp.SuccessResponse(c, transactionsResponse{
		Symbol:       rep.Symbol,
		Warmup:       rep.Warmup,
		Transactions: rep.Transactions,
		Events:       strategy.Events(rep.Transactions),
	})
}

// Backtest returns the full report, or the per-bar return table when
// format=csv.
func (h *AnalysisHandler) Backtest(c echo.Context) error {
	rep, req, err := h.report(c, "backtest")
	if err != nil || req == nil {
		return err
	}
	if req.Format != "csv" {
		return xhttp.SuccessResponse(c, rep)
	}
	var buf bytes.Buffer
	if err := backtest.WriteCSV(&buf, rep.Returns); err != nil {
		return xhttp.AppErrorResponse(c, xhttp.InternalError("csv export failed").WithError(err))
	}
	c.Response().Header().Set(echo.HeaderContentDisposition,
		fmt.Sprintf("attachment; filename=%s_%d_%d.csv", strings.ToLower(rep.Symbol), rep.ShortWindow, rep.LongWindow))
	return c.Blob(http.StatusOK, "text/csv", buf.Bytes())
}

func (h *AnalysisHandler) Action(c echo.Context) error {
	rep, req, err := h.report(c, "action")
	if err != nil || req == nil {
		return err
	}
	res := actionResponse{Symbol: rep.Symbol, Action: rep.Action, Warmup: rep.Warmup}
	if tx, ok := rep.LatestTransaction(); ok {
		res.Transaction = &tx
		res.AsOf = lo.ToPtr(tx.Timestamp)
	}
	return xhttp.SuccessResponse(c, res)
}

// report validates the query, then serves the pipeline report from cache or
// computes it. A nil request with a nil error means a response was written.
func (h *AnalysisHandler) report(c echo.Context, endpoint string) (*models.Report, *models.AnalysisRequest, error) {
	start := time.Now()
	defer func() { metrics.APILatency.WithLabelValues(endpoint).Observe(time.Since(start).Seconds()) }()

	req := &models.AnalysisRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		metrics.APIErrors.WithLabelValues(endpoint, "400").Inc()
		return nil, nil, xhttp.BadRequestResponse(c, verr)
	}
	params, perr := toParams(req)
	if perr != nil {
		metrics.APIErrors.WithLabelValues(endpoint, "400").Inc()
		return nil, nil, xhttp.AppErrorResponse(c, perr)
	}

	ctx := c.Request().Context()
	key := cacheKey(req)
	if rep, ok := h.cached(ctx, key); ok {
		metrics.APICacheHits.WithLabelValues(endpoint).Inc()
		return rep, req, nil
	}

	rep, err := h.uc.Run(ctx, params)
	if err != nil {
		appErr := toAppError(err)
		metrics.APIErrors.WithLabelValues(endpoint, fmt.Sprint(appErr.Status)).Inc()
		if appErr.Status >= http.StatusInternalServerError {
			h.logger.Error("analysis usecase error", xlogger.String("endpoint", endpoint), xlogger.Error(err))
		} else {
			h.logger.Warn("analysis rejected", xlogger.String("endpoint", endpoint), xlogger.Error(err))
		}
		return nil, nil, xhttp.AppErrorResponse(c, appErr)
	}
	h.store(ctx, key, rep)
	return rep, req, nil
}

func (h *AnalysisHandler) cached(ctx context.Context, key string) (*models.Report, bool) {
	if h.cache == nil {
		return nil, false
	}
	b, ok, err := h.cache.GetBytes(ctx, key)
	if err != nil || !ok {
		return nil, false
	}
	var rep models.Report
	if err := json.Unmarshal(b, &rep); err != nil {
		return nil, false
	}
	return &rep, true
}

func (h *AnalysisHandler) store(ctx context.Context, key string, rep *models.Report) {
	if h.cache == nil || h.ttl <= 0 {
		return
	}
	b, err := json.Marshal(rep)
	if err != nil {
		return
	}
	if err := h.cache.SetBytes(ctx, key, b, h.ttl); err != nil {
		h.logger.Warn("response cache write failed", xlogger.Error(err))
	}
}

func cacheKey(req *models.AnalysisRequest) string {
	return strings.Join([]string{"report", strings.ToUpper(req.Symbol), fmt.Sprint(req.Short), fmt.Sprint(req.Long),
		req.From, req.To, req.TF, req.Execution}, ":")
}

func toParams(req *models.AnalysisRequest) (usecase.BacktestParams, *xhttp.AppError) {
	p := usecase.BacktestParams{
		Symbol:    req.Symbol,
		Short:     req.Short,
		Long:      req.Long,
		Timeframe: domrepo.NormalizeTimeframe(req.TF),
		Execution: models.ExecutionMode(req.Execution),
	}
	if req.From != "" {
		t, ok := xutil.ParseTime(req.From)
		if !ok {
			return p, xhttp.NewAppError("ERR_INVALID_DATE", "from", "from must be a date (YYYY-MM-DD) or RFC3339 time", http.StatusBadRequest)
		}
		p.From = t
	}
	if req.To != "" {
		t, ok := xutil.ParseTime(req.To)
		if !ok {
			return p, xhttp.NewAppError("ERR_INVALID_DATE", "to", "to must be a date (YYYY-MM-DD) or RFC3339 time", http.StatusBadRequest)
		}
		if len(req.To) == len(xutil.DateLayout) {
			t = xutil.EndOfDay(t)
		}
		p.To = t
	}
	return p, nil
}

// toAppError maps the domain error taxonomy onto HTTP statuses.
func toAppError(err error) *xhttp.AppError {
	switch {
	case errors.Is(err, models.ErrInvalidConfig):
		return xhttp.BadRequestError(err.Error()).WithError(err)
	case errors.Is(err, models.ErrInvalidPrice), errors.Is(err, models.ErrDataIntegrity):
		return xhttp.UnprocessableError(err.Error()).WithError(err)
	case errors.Is(err, models.ErrUpstream), errors.Is(err, context.DeadlineExceeded):
		return xhttp.BadGatewayError("market data provider unavailable").WithError(err)
	default:
		return xhttp.InternalError("analysis failed").WithError(err)
	}
}
