package usecase

import (
	"context"
	"fmt"
	"math"
	"sync"
	"sync/atomic"
	"time"

	"FinCast/internal/domain/models"
	domsvc "FinCast/internal/domain/service"
)

type memSeries map[string]models.HistoricalSeries

func (m memSeries) Series(_ context.Context, p models.AssetProfile) (models.HistoricalSeries, error) {
	s, ok := m[p.ID]
	if !ok {
		return models.HistoricalSeries{}, fmt.Errorf("%w: %s", models.ErrInsufficientHistory, p.ID)
	}
	return s, nil
}

func (m memSeries) LatestN(ctx context.Context, p models.AssetProfile, n int) (models.HistoricalSeries, error) {
	s, err := m.Series(ctx, p)
	if err != nil {
		return s, err
	}
	return s.Tail(n), nil
}

// scaler maps column j through (v-offset)/span.
type scaler struct{ offset, span []float64 }

func (s scaler) NumFeatures() int { return len(s.span) }

func (s scaler) Forward(rows [][]float64) ([][]float64, error) {
	return s.apply(rows, func(j int, v float64) float64 { return (v - s.offset[j]) / s.span[j] })
}

func (s scaler) Inverse(rows [][]float64) ([][]float64, error) {
	return s.apply(rows, func(j int, v float64) float64 { return v*s.span[j] + s.offset[j] })
}

func (s scaler) apply(rows [][]float64, f func(int, float64) float64) ([][]float64, error) {
	out := make([][]float64, len(rows))
	for i, r := range rows {
		out[i] = make([]float64, len(r))
		for j, v := range r {
			out[i][j] = f(j, v)
		}
	}
	return out, nil
}

// shift predicts the last normalized price plus d and counts calls.
type shift struct {
	d     float64
	calls atomic.Int64
}

func (s *shift) Predict(_ context.Context, w [][]float64) (float64, error) {
	s.calls.Add(1)
	return w[len(w)-1][0] + s.d, nil
}

type fakeRegistry struct {
	regressors map[string]domsvc.Regressor
	norm       domsvc.Normalizer
}

func (r fakeRegistry) Regressor(asset string) (domsvc.Regressor, error) {
	reg, ok := r.regressors[asset]
	if !ok {
		return nil, fmt.Errorf("%w: %s", models.ErrModelUnavailable, asset)
	}
	return reg, nil
}

func (r fakeRegistry) Normalizer(string) (domsvc.Normalizer, error) {
	return r.norm, nil
}

type savedForecast struct {
	runID  string
	result models.ForecastResult
}

type memForecastStore struct {
	mu    sync.Mutex
	saved []savedForecast
}

func (m *memForecastStore) SaveForecast(_ context.Context, runID string, r models.ForecastResult) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saved = append(m.saved, savedForecast{runID, r})
	return nil
}

type memJournal struct {
	mu      sync.Mutex
	signals []models.Signal
}

func (j *memJournal) Record(_ context.Context, s models.Signal) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.signals = append(j.signals, s)
	return nil
}

func (j *memJournal) Recent(_ context.Context, asset string, limit int) ([]models.Signal, error) {
	j.mu.Lock()
	defer j.mu.Unlock()
	var out []models.Signal
	for i := len(j.signals) - 1; i >= 0 && len(out) < limit; i-- {
		if j.signals[i].Asset == asset {
			out = append(out, j.signals[i])
		}
	}
	return out, nil
}

type memPublisher struct {
	mu   sync.Mutex
	sent []models.Signal
}

func (p *memPublisher) Publish(_ context.Context, s models.Signal) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.sent = append(p.sent, s)
	return nil
}

func (p *memPublisher) Close() error { return nil }

type memNotifier struct{ got []models.Signal }

func (n *memNotifier) Broadcast(s models.Signal) { n.got = append(n.got, s) }

// history builds n daily rows whose returns are beta times a sinusoidal
// reference return.
func history(asset string, n int, beta, start float64) models.HistoricalSeries {
	s := models.HistoricalSeries{Asset: asset}
	day := time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)
	price := start
	for i := 0; i < n; i++ {
		if i > 0 {
			price *= 1 + beta*0.01*math.Sin(float64(i)/5)
		}
		s.Dates = append(s.Dates, day.AddDate(0, 0, i))
		s.Frames = append(s.Frames, models.FeatureFrame{price, 20})
	}
	return s
}

func profile(id string) models.AssetProfile {
	p, err := models.NewAssetProfile(id, id+" Inc", models.ClassEquity, []string{id, "VIX"}, 10)
	if err != nil {
		panic(err)
	}
	return p
}
