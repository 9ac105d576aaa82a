package analytics

import (
	"context"
	"fmt"

	domsvc "FinCast/internal/domain/service"
)

// HTTPRegressor asks a model server for the next normalized price.
type HTTPRegressor struct {
	base  *HTTPServiceBase
	asset string
}

func NewHTTPRegressor(base *HTTPServiceBase, asset string) *HTTPRegressor {
	return &HTTPRegressor{base: base, asset: asset}
}

type predictRequest struct {
	Asset  string      `json:"asset"`
	Window [][]float64 `json:"window"`
}

type predictResponse struct {
	Prediction float64 `json:"prediction"`
}

func (r *HTTPRegressor) Predict(ctx context.Context, window [][]float64) (float64, error) {
	var resp predictResponse
	if err := r.base.PostJSONWithRetry(ctx, "/predict", predictRequest{Asset: r.asset, Window: window}, &resp); err != nil {
		return 0, fmt.Errorf("predict %s: %w", r.asset, err)
	}
	return resp.Prediction, nil
}

var _ domsvc.Regressor = (*HTTPRegressor)(nil)
