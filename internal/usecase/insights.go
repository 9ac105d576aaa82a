package usecase

import (
	"context"
	"fmt"

	"FinCast/internal/domain/models"
	"FinCast/internal/insight"
)

// InsightUseCase turns forecast paths into qualitative readings.
type InsightUseCase struct {
	forecasts *ForecastUseCase
}

func NewInsightUseCase(forecasts *ForecastUseCase) *InsightUseCase {
	return &InsightUseCase{forecasts: forecasts}
}

// Analyze reads a caller-supplied path.
func (uc *InsightUseCase) Analyze(req models.AnalyzeRequest) (models.Insights, error) {
	name := req.Asset
	if p, err := uc.forecasts.Profile(req.Asset); err == nil {
		name = p.Name
	}
	return insight.Analyze(req.CurrentPrice, req.Path, name)
}

// ForAsset forecasts steps ahead and analyzes the result.
func (uc *InsightUseCase) ForAsset(ctx context.Context, asset string, steps int) (models.Insights, error) {
	r, err := uc.forecasts.Forecast(ctx, asset, steps)
	if err != nil {
		return models.Insights{}, err
	}
	if r.Degraded {
		return models.Insights{}, fmt.Errorf("%w: %s", models.ErrModelUnavailable, r.Error)
	}
	return insight.Analyze(r.CurrentPrice, r.Path, r.Name)
}

// Compare ranks a correlation-enforced batch by expected change.
func (uc *InsightUseCase) Compare(ctx context.Context, assets []string, steps int) (models.Comparison, error) {
	batch, err := uc.forecasts.Batch(ctx, models.BatchForecastRequest{Assets: assets, Steps: steps})
	if err != nil {
		return models.Comparison{}, err
	}
	paths := make(map[string]models.ForecastPath, len(batch.Results))
	current := make(map[string]float64, len(batch.Results))
	for asset, r := range batch.Results {
		if r.Degraded {
			continue
		}
		paths[asset] = r.Path
		current[asset] = r.CurrentPrice
	}
	return insight.Compare(paths, current)
}
