package api

import (
	"context"
	"errors"
	"net/http"

	"FinCast/internal/domain/models"
	xhttp "FinCast/pkg/http"
)

// toAppError maps domain errors onto HTTP statuses.
func toAppError(err error) *xhttp.AppError {
	var appErr *xhttp.AppError
	switch {
	case errors.As(err, &appErr):
		return appErr
	case errors.Is(err, models.ErrUnknownAsset):
		return xhttp.NewAppError("ERR_UNKNOWN_ASSET", "asset", err.Error(), http.StatusNotFound).WithError(err)
	case errors.Is(err, models.ErrInvalidSteps):
		return xhttp.NewAppError("ERR_INVALID_STEPS", "steps", err.Error(), http.StatusBadRequest).WithError(err)
	case errors.Is(err, models.ErrInvalidInput):
		return xhttp.BadRequestError(err.Error()).WithError(err)
	case errors.Is(err, models.ErrInsufficientHistory):
		return xhttp.NewAppError("ERR_INSUFFICIENT_HISTORY", "", err.Error(), http.StatusUnprocessableEntity).WithError(err)
	case errors.Is(err, models.ErrInvalidSeries), errors.Is(err, models.ErrDataQuality):
		return xhttp.UnprocessableError(err.Error()).WithError(err)
	case errors.Is(err, models.ErrModelUnavailable), errors.Is(err, models.ErrNormalizerUnavailable):
		return xhttp.UnavailableError(err.Error()).WithError(err)
	case errors.Is(err, context.DeadlineExceeded):
		return xhttp.TimeoutError("forecast timed out").WithError(err)
	default:
		return xhttp.InternalError("Something went wrong").WithError(err)
	}
}
