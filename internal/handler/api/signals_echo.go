package api

import (
	"FinCast/internal/domain/models"
	"FinCast/internal/usecase"
	xhttp "FinCast/pkg/http"
	applogger "FinCast/pkg/logger"

	"github.com/labstack/echo/v4"
)

// SignalsHandler serves trading signals.
type SignalsHandler struct {
	l       *applogger.Logger
	signals *usecase.SignalUseCase
}

func NewSignalsHandler(l *applogger.Logger, signals *usecase.SignalUseCase) *SignalsHandler {
	return &SignalsHandler{l: l, signals: signals}
}

func (h *SignalsHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api/signals")
	g.POST("", h.Generate)
	g.POST("/batch", h.Batch)
	g.GET("/recent", h.Recent)
}

func (h *SignalsHandler) Generate(c echo.Context) error {
	req := &models.SignalRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	sig, err := h.signals.Generate(c.Request().Context(), *req)
	if err != nil {
		h.l.Warn("signal usecase error", applogger.String("asset", req.Asset), applogger.Error(err))
		return xhttp.AppErrorResponse(c, toAppError(err))
	}
	return xhttp.SuccessResponse(c, sig)
}

func (h *SignalsHandler) Batch(c echo.Context) error {
	req := &models.SignalBatchRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	res, err := h.signals.Batch(c.Request().Context(), *req)
	if err != nil {
		h.l.Warn("signal batch usecase error", applogger.Error(err))
		return xhttp.AppErrorResponse(c, toAppError(err))
	}
	return xhttp.SuccessResponse(c, res)
}

func (h *SignalsHandler) Recent(c echo.Context) error {
	req := &models.RecentSignalsRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	rows, err := h.signals.Recent(c.Request().Context(), req.Asset, req.Limit)
	if err != nil {
		h.l.Error("recent signals error", applogger.String("asset", req.Asset), applogger.Error(err))
		return xhttp.AppErrorResponse(c, toAppError(err))
	}
	return xhttp.ListResponse(c, rows, int64(len(rows)))
}
