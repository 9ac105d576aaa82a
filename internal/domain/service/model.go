package service

import "context"

// Regressor is the trained sequence model. Window is [sequence_length][n_features]
// in normalized units, oldest row first; the result is the next normalized price.
// The window is reused between calls and must not be retained.
type Regressor interface {
	Predict(ctx context.Context, window [][]float64) (float64, error)
}

// Normalizer is the fitted feature scaler. Forward and Inverse must round-trip
// and use the same column order the regressor was trained with.
type Normalizer interface {
	NumFeatures() int
	Forward(rows [][]float64) ([][]float64, error)
	Inverse(rows [][]float64) ([][]float64, error)
}

// ModelRegistry resolves per-asset artifacts. Missing artifacts are reported
// with models.ErrModelUnavailable or models.ErrNormalizerUnavailable.
type ModelRegistry interface {
	Regressor(asset string) (Regressor, error)
	Normalizer(asset string) (Normalizer, error)
}
