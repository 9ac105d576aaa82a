package api

import (
	"FinCast/internal/domain/models"
	"FinCast/internal/usecase"
	xhttp "FinCast/pkg/http"
	applogger "FinCast/pkg/logger"

	"github.com/labstack/echo/v4"
)

// ForecastHandler serves forecasts, ranges and insights.
type ForecastHandler struct {
	l         *applogger.Logger
	forecasts *usecase.ForecastUseCase
	insights  *usecase.InsightUseCase
}

func NewForecastHandler(l *applogger.Logger, forecasts *usecase.ForecastUseCase, insights *usecase.InsightUseCase) *ForecastHandler {
	return &ForecastHandler{l: l, forecasts: forecasts, insights: insights}
}

func (h *ForecastHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api")
	g.GET("/assets", h.Assets)

	f := g.Group("/forecast")
	f.GET("", h.Forecast)
	f.POST("/batch", h.Batch)
	f.GET("/ranges", h.Ranges)
	f.POST("/ranges/batch", h.RangesBatch)
	f.POST("/next-day", h.NextDay)

	i := g.Group("/insights")
	i.GET("", h.Insights)
	i.POST("/analyze", h.Analyze)
	i.POST("/compare", h.Compare)
}

func (h *ForecastHandler) fail(c echo.Context, op string, err error) error {
	appErr := toAppError(err)
	if appErr.Status >= 500 {
		h.l.Error(op+" failed", applogger.Error(err))
	} else {
		h.l.Debug(op+" rejected", applogger.Error(err))
	}
	return xhttp.AppErrorResponse(c, appErr)
}

func (h *ForecastHandler) Assets(c echo.Context) error {
	ids := h.forecasts.Assets()
	rows := make([]models.AssetProfile, 0, len(ids))
	for _, id := range ids {
		p, err := h.forecasts.Profile(id)
		if err != nil {
			continue
		}
		rows = append(rows, p)
	}
	return xhttp.ListResponse(c, rows, int64(len(rows)))
}

func (h *ForecastHandler) Forecast(c echo.Context) error {
	req := &models.ForecastRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	res, err := h.forecasts.Forecast(c.Request().Context(), req.Asset, req.Steps)
	if err != nil {
		return h.fail(c, "forecast", err)
	}
	return xhttp.SuccessResponse(c, res)
}

func (h *ForecastHandler) Batch(c echo.Context) error {
	req := &models.BatchForecastRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	res, err := h.forecasts.Batch(c.Request().Context(), *req)
	if err != nil {
		return h.fail(c, "forecast batch", err)
	}
	return xhttp.SuccessResponse(c, res)
}

func (h *ForecastHandler) Ranges(c echo.Context) error {
	req := &models.RangeRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	res, err := h.forecasts.Ranges(c.Request().Context(), req.Asset)
	if err != nil {
		return h.fail(c, "ranges", err)
	}
	return xhttp.SuccessResponse(c, res)
}

func (h *ForecastHandler) RangesBatch(c echo.Context) error {
	req := &models.RangeBatchRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	rows := h.forecasts.RangesBatch(c.Request().Context(), req.Assets)
	return xhttp.ListResponse(c, rows, int64(len(rows)))
}

func (h *ForecastHandler) NextDay(c echo.Context) error {
	req := &models.NextDayRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	rows := h.forecasts.NextDay(c.Request().Context(), req.Assets)
	return xhttp.ListResponse(c, rows, int64(len(rows)))
}

func (h *ForecastHandler) Insights(c echo.Context) error {
	req := &models.InsightRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	res, err := h.insights.ForAsset(c.Request().Context(), req.Asset, req.Steps)
	if err != nil {
		return h.fail(c, "insights", err)
	}
	return xhttp.SuccessResponse(c, res)
}

func (h *ForecastHandler) Analyze(c echo.Context) error {
	req := &models.AnalyzeRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	res, err := h.insights.Analyze(*req)
	if err != nil {
		return h.fail(c, "analyze", err)
	}
	return xhttp.SuccessResponse(c, res)
}

func (h *ForecastHandler) Compare(c echo.Context) error {
	req := &models.CompareRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	res, err := h.insights.Compare(c.Request().Context(), req.Assets, req.Steps)
	if err != nil {
		return h.fail(c, "compare", err)
	}
	return xhttp.SuccessResponse(c, res)
}
