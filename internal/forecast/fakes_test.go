package forecast

import (
	"context"
	"errors"
	"math"
	"time"

	"FinCast/internal/domain/models"
)

// scaler is a per-column affine normalizer: (x - offset) / span.
type scaler struct {
	offset []float64
	span   []float64
}

func (s scaler) NumFeatures() int { return len(s.span) }

func (s scaler) Forward(rows [][]float64) ([][]float64, error) {
	out := make([][]float64, len(rows))
	for i, r := range rows {
		if len(r) != len(s.span) {
			return nil, errors.New("width mismatch")
		}
		out[i] = make([]float64, len(r))
		for j, v := range r {
			out[i][j] = (v - s.offset[j]) / s.span[j]
		}
	}
	return out, nil
}

func (s scaler) Inverse(rows [][]float64) ([][]float64, error) {
	out := make([][]float64, len(rows))
	for i, r := range rows {
		out[i] = make([]float64, len(r))
		for j, v := range r {
			out[i][j] = v*s.span[j] + s.offset[j]
		}
	}
	return out, nil
}

// regressorFunc predicts from the newest normalized price.
type regressorFunc func(last float64) (float64, error)

func (f regressorFunc) Predict(_ context.Context, window [][]float64) (float64, error) {
	return f(window[len(window)-1][0])
}

func identity() regressorFunc { return func(last float64) (float64, error) { return last, nil } }

func shift(d float64) regressorFunc {
	return func(last float64) (float64, error) { return last + d, nil }
}

func almost(a, b float64) bool { return math.Abs(a-b) < 1e-9 }

func testProfile(seq int) models.AssetProfile {
	p, err := models.NewAssetProfile("gold", "Gold", models.ClassMetal,
		[]string{"Gold", "DXY", "VIX", "EMA_90"}, seq)
	if err != nil {
		panic(err)
	}
	return p
}

func testSeries(n int, last float64) models.HistoricalSeries {
	day := time.Date(2023, 1, 2, 0, 0, 0, 0, time.UTC)
	s := models.HistoricalSeries{Asset: "gold"}
	for i := 0; i < n; i++ {
		price := last - float64(n-1-i)*0.5
		s.Dates = append(s.Dates, day.AddDate(0, 0, i))
		s.Frames = append(s.Frames, models.FeatureFrame{price, 104 + float64(i%3), 15, price - 1})
	}
	return s
}

func testScaler() scaler {
	return scaler{offset: []float64{1000, 90, 5, 1000}, span: []float64{2000, 30, 40, 2000}}
}
