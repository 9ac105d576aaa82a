package forecast

import (
	"context"
	"fmt"
	"math"
	"time"

	"FinCast/internal/domain/models"
	domsvc "FinCast/internal/domain/service"
	applogger "FinCast/pkg/logger"
)

// StepInfo describes one iteration of the recursive loop in normalized units.
type StepInfo struct {
	Step          int
	RawPrediction float64
	Delta         float64 // after clipping
	Trust         float64
	Movement      float64
	AnchorPull    float64
	Price         float64
}

// Option configures Engine.
type Option func(*Engine)

// WithLogger injects a structured logger.
func WithLogger(l *applogger.Logger) Option {
	return func(e *Engine) { e.l = l }
}

// WithObserver registers a callback invoked after every step.
func WithObserver(fn func(asset string, s StepInfo)) Option {
	return func(e *Engine) { e.observe = fn }
}

// Engine drives a one-step regressor recursively into a multi-step path,
// clipping, damping and anchoring each step so that long horizons stay
// stable.
type Engine struct {
	cfg     Config
	l       *applogger.Logger
	observe func(asset string, s StepInfo)
}

func NewEngine(cfg Config, opts ...Option) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	e := &Engine{cfg: cfg}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

func (e *Engine) Config() Config { return e.cfg }

// Forecast produces a path of `steps` real-valued prices following the last
// row of series. A nil regressor or normalizer yields an empty path and no
// error so batch callers can degrade the asset instead of failing.
func (e *Engine) Forecast(ctx context.Context, series models.HistoricalSeries, profile models.AssetProfile, reg domsvc.Regressor, norm domsvc.Normalizer, steps int) (models.ForecastPath, error) {
	if steps < 1 || (e.cfg.MaxSteps > 0 && steps > e.cfg.MaxSteps) {
		return nil, fmt.Errorf("%w: got %d", models.ErrInvalidSteps, steps)
	}
	seqLen := profile.SequenceLength
	if series.Len() <= seqLen {
		return nil, fmt.Errorf("%w: %s has %d rows, needs more than %d", models.ErrInsufficientHistory, profile.ID, series.Len(), seqLen)
	}
	if reg == nil || norm == nil {
		e.l.Warn("forecast skipped, artifacts missing",
			applogger.String("asset", profile.ID),
			applogger.Bool("model", reg != nil),
			applogger.Bool("normalizer", norm != nil),
		)
		return models.ForecastPath{}, nil
	}
	width := profile.NumFeatures()
	if norm.NumFeatures() != width {
		return nil, fmt.Errorf("%w: normalizer fitted on %d features, profile %s has %d", models.ErrInvalidInput, norm.NumFeatures(), profile.ID, width)
	}

	start := time.Now()
	rawMeans := columnMeans(series.Frames, width)
	p, _, err := newPlan(profile, rawMeans, norm, e.cfg.DriftRate)
	if err != nil {
		return nil, err
	}

	tail := make([][]float64, seqLen)
	for i, f := range series.Frames[series.Len()-seqLen:] {
		tail[i] = f
	}
	normTail, err := norm.Forward(tail)
	if err != nil {
		return nil, fmt.Errorf("normalize window: %w", err)
	}
	if len(normTail) != seqLen {
		return nil, fmt.Errorf("normalize window: expected %d rows, got %d", seqLen, len(normTail))
	}

	w := newWindow(normTail, seqLen, width)
	startNorm := w.last()[0]
	startReal, _ := series.LastPrice()
	decay := e.cfg.DecayFor(profile.Class)

	normPrices := make([]float64, steps)
	for i := 0; i < steps; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		raw, err := reg.Predict(ctx, w.ordered())
		if err != nil {
			return nil, fmt.Errorf("%w: %s step %d: %v", models.ErrModelUnavailable, profile.ID, i, err)
		}
		if math.IsNaN(raw) || math.IsInf(raw, 0) {
			return nil, fmt.Errorf("%w: %s raw prediction at step %d", models.ErrDataQuality, profile.ID, i)
		}

		prevRow := w.last()
		prev := prevRow[0]
		delta := clip(raw-prev, e.cfg.MaxStepDelta)
		trust := e.cfg.Trust(i)
		movement := delta * decay * trust
		anchor := (startNorm - prev) * (1 - trust) * e.cfg.AnchorPull
		next := prev + movement + anchor

		p.apply(w.advance(), prevRow, next)
		normPrices[i] = next

		if e.observe != nil {
			e.observe(profile.ID, StepInfo{
				Step:          i,
				RawPrediction: raw,
				Delta:         delta,
				Trust:         trust,
				Movement:      movement,
				AnchorPull:    anchor,
				Price:         next,
			})
		}
	}

	path, err := e.denormalize(normPrices, width, norm)
	if err != nil {
		return nil, err
	}
	floor := e.cfg.FloorRatio * startReal
	for i, v := range path {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, fmt.Errorf("%w: %s step %d after inverse transform", models.ErrDataQuality, profile.ID, i)
		}
		if v < floor {
			path[i] = floor
		}
	}

	e.l.Debug("forecast complete",
		applogger.String("asset", profile.ID),
		applogger.Int("steps", steps),
		applogger.Float64("start", startReal),
		applogger.Float64("last", path.Last()),
		applogger.Duration("duration_ms", time.Since(start)),
	)
	return path, nil
}

// denormalize inverse-transforms prices through rows whose other columns are zero.
func (e *Engine) denormalize(prices []float64, width int, norm domsvc.Normalizer) (models.ForecastPath, error) {
	slab := make([]float64, len(prices)*width)
	rows := make([][]float64, len(prices))
	for i, v := range prices {
		row := slab[i*width : (i+1)*width : (i+1)*width]
		row[0] = v
		rows[i] = row
	}
	out, err := norm.Inverse(rows)
	if err != nil {
		return nil, fmt.Errorf("inverse transform: %w", err)
	}
	if len(out) != len(prices) {
		return nil, fmt.Errorf("inverse transform: expected %d rows, got %d", len(prices), len(out))
	}
	path := make(models.ForecastPath, len(out))
	for i, row := range out {
		path[i] = row[0]
	}
	return path, nil
}

func columnMeans(frames []models.FeatureFrame, width int) []float64 {
	means := make([]float64, width)
	for _, f := range frames {
		for j := 0; j < width; j++ {
			means[j] += f[j]
		}
	}
	n := float64(len(frames))
	for j := range means {
		means[j] /= n
	}
	return means
}

func clip(v, bound float64) float64 {
	if v > bound {
		return bound
	}
	if v < -bound {
		return -bound
	}
	return v
}
