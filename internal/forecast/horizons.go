package forecast

import (
	"context"
	"fmt"

	"FinCast/internal/domain/models"
	domsvc "FinCast/internal/domain/service"
)

// DefaultHorizons are the named ranges served by MultiRange, in trading days.
var DefaultHorizons = []models.Horizon{
	{Label: "1 Day", Steps: 1},
	{Label: "1 Week", Steps: 5},
	{Label: "2 Weeks", Steps: 10},
	{Label: "1 Month", Steps: 21},
	{Label: "3 Months", Steps: 63},
	{Label: "6 Months", Steps: 126},
	{Label: "1 Year", Steps: 252},
}

// MaxHorizon returns the longest horizon in steps.
func MaxHorizon(hs []models.Horizon) int {
	m := 0
	for _, h := range hs {
		if h.Steps > m {
			m = h.Steps
		}
	}
	return m
}

// ReadRanges picks each horizon's price off a single path. Horizons longer
// than the path read its last point.
func ReadRanges(path models.ForecastPath, hs []models.Horizon) []models.RangePoint {
	out := make([]models.RangePoint, 0, len(hs))
	for _, h := range hs {
		price, ok := path.At(h.Steps)
		if !ok {
			continue
		}
		out = append(out, models.RangePoint{Label: h.Label, Steps: h.Steps, Price: price})
	}
	return out
}

// MultiRange runs the engine once to the longest horizon and reads every
// horizon off that run, so shorter ranges are prefixes of longer ones.
func (e *Engine) MultiRange(ctx context.Context, series models.HistoricalSeries, profile models.AssetProfile, reg domsvc.Regressor, norm domsvc.Normalizer, hs []models.Horizon) ([]models.RangePoint, error) {
	if len(hs) == 0 {
		hs = DefaultHorizons
	}
	for _, h := range hs {
		if h.Steps < 1 {
			return nil, fmt.Errorf("%w: horizon %q has %d steps", models.ErrInvalidSteps, h.Label, h.Steps)
		}
	}
	path, err := e.Forecast(ctx, series, profile, reg, norm, MaxHorizon(hs))
	if err != nil {
		return nil, err
	}
	return ReadRanges(path, hs), nil
}

// NextDay summarizes the first step of a path against the current price.
func NextDay(asset string, current float64, path models.ForecastPath) models.NextDayPrediction {
	out := models.NextDayPrediction{Asset: asset, Current: current, Predicted: current, Direction: "down"}
	if len(path) == 0 {
		out.Degraded = true
		return out
	}
	out.Predicted = path[0]
	out.Change = path[0] - current
	if current != 0 {
		out.PctChange = out.Change / current * 100
	}
	if out.Change > 0 {
		out.Direction = "up"
	}
	return out
}
