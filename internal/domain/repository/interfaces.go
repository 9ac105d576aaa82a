package repository

import (
	"context"
	"time"

	"FinCast/internal/domain/models"
)

// SeriesStore provides read-only access to historical feature series.
type SeriesStore interface {
	// Series returns the full date-sorted history of an asset in profile column order.
	Series(ctx context.Context, profile models.AssetProfile) (models.HistoricalSeries, error)
	// LatestN returns at most n of the most recent rows.
	LatestN(ctx context.Context, profile models.AssetProfile, n int) (models.HistoricalSeries, error)
}

// ForecastStore persists produced paths for later display.
type ForecastStore interface {
	SaveForecast(ctx context.Context, runID string, r models.ForecastResult) error
}

// SignalJournal records every generated signal.
type SignalJournal interface {
	Record(ctx context.Context, s models.Signal) error
	Recent(ctx context.Context, asset string, limit int) ([]models.Signal, error)
}

// SignalPublisher fans signals out to downstream consumers.
type SignalPublisher interface {
	Publish(ctx context.Context, s models.Signal) error
	Close() error
}

type Metrics interface {
	RecordForecast(asset string, steps int, degraded bool, d time.Duration)
	RecordSignal(asset string, direction models.Direction)
	RecordError(kind string)
	RecordLastPrice(asset string, price float64)
	RecordLatency(op string, seconds float64)
}
