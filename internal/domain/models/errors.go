package models

import "errors"

var (
	// ErrInsufficientHistory means the series is not longer than the model window.
	ErrInsufficientHistory = errors.New("insufficient history")
	ErrInvalidSteps        = errors.New("steps must be at least 1")
	ErrInvalidSeries       = errors.New("invalid series")

	// ErrModelUnavailable and ErrNormalizerUnavailable mark a degraded asset
	// rather than a failed batch.
	ErrModelUnavailable      = errors.New("model unavailable")
	ErrNormalizerUnavailable = errors.New("normalizer unavailable")

	// ErrDataQuality is raised when a prediction is NaN or infinite.
	ErrDataQuality = errors.New("non-finite prediction")

	// ErrNoBetaData is soft: the asset passes through correlation enforcement unchanged.
	ErrNoBetaData = errors.New("no beta data")

	ErrUnknownAsset = errors.New("unknown asset")
	ErrInvalidInput = errors.New("invalid input")
)
