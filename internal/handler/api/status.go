package api

import (
	"sweepguard/internal/domain/models"
	"sweepguard/internal/domain/repository"
	"sweepguard/internal/usecase"
	xhttp "sweepguard/pkg/http"
	xlogger "sweepguard/pkg/logger"

	"github.com/labstack/echo/v4"
)

// StatusHandler exposes the ops surface: the latest aggregate, on-demand
// evaluation and health.
type StatusHandler struct {
	logger   *xlogger.Logger
	loop     *usecase.Loop
	agg      *usecase.SignalAggregator
	provider repository.SnapshotProvider
	stream   repository.TickStream
	health   func() error // storage health probe
}

func NewStatusHandler(
	logger *xlogger.Logger,
	loop *usecase.Loop,
	agg *usecase.SignalAggregator,
	provider repository.SnapshotProvider,
	stream repository.TickStream,
	health func() error,
) *StatusHandler {
	return &StatusHandler{
		logger:   logger,
		loop:     loop,
		agg:      agg,
		provider: provider,
		stream:   stream,
		health:   health,
	}
}

func (h *StatusHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api")
	g.GET("/signal/latest", h.Latest)
	g.GET("/signal/evaluate", h.Evaluate)
	g.GET("/health", h.Health)
}

// Latest returns the most recent aggregate, valid or not.
func (h *StatusHandler) Latest(c echo.Context) error {
	sig := h.loop.LastSignal()
	if sig == nil {
		return xhttp.AppErrorResponse(c, xhttp.NotFoundError("no signal evaluated yet"))
	}
	return xhttp.SuccessResponse(c, sig)
}

type evaluateRequest struct {
	Symbol string `query:"symbol" validate:"required"`
	TF     string `query:"tf" default:"5m"`
}

// Evaluate runs one ad-hoc evaluation outside the trading loop. It never
// submits orders.
func (h *StatusHandler) Evaluate(c echo.Context) error {
	req := &evaluateRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	tf := models.NormalizeTimeframe(req.TF)

	snap, err := h.provider.GetSnapshot(c.Request().Context(), req.Symbol, []models.Timeframe{tf})
	if err != nil {
		h.logger.Error("evaluate snapshot error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, xhttp.InternalErrorf("snapshot: %v", err))
	}
	return xhttp.SuccessResponse(c, h.agg.Evaluate(snap))
}

type healthStatus struct {
	Storage string `json:"storage"`
	Stream  string `json:"stream"`
}

// Health reports storage and tick stream connectivity.
func (h *StatusHandler) Health(c echo.Context) error {
	st := healthStatus{Storage: "ok", Stream: "ok"}
	if h.health != nil {
		if err := h.health(); err != nil {
			st.Storage = err.Error()
		}
	}
	if h.stream != nil && !h.stream.IsConnected() {
		st.Stream = "disconnected"
	}
	if st.Storage != "ok" {
		return xhttp.DataResponse(c, 503, st)
	}
	return xhttp.SuccessResponse(c, st)
}
