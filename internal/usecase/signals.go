package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"FinCast/internal/domain/models"
	domrepo "FinCast/internal/domain/repository"
	"FinCast/internal/insight"
	"FinCast/internal/signal"
	applogger "FinCast/pkg/logger"
)

// SignalNotifier receives every generated signal, e.g. a websocket hub.
type SignalNotifier interface {
	Broadcast(s models.Signal)
}

type SignalConfig struct {
	// WeekSteps is the step read off the path as the one-week forecast.
	WeekSteps int
	// HorizonSteps is the length of the path generated for each signal.
	HorizonSteps int
}

type SignalOption func(*SignalUseCase)

func WithSignalJournal(j domrepo.SignalJournal) SignalOption {
	return func(uc *SignalUseCase) { uc.journal = j }
}

func WithSignalPublisher(p domrepo.SignalPublisher) SignalOption {
	return func(uc *SignalUseCase) { uc.publisher = p }
}

func WithSignalNotifier(n SignalNotifier) SignalOption {
	return func(uc *SignalUseCase) { uc.notifier = n }
}

func WithSignalMetrics(m domrepo.Metrics) SignalOption {
	return func(uc *SignalUseCase) { uc.metrics = m }
}

func WithSignalLogger(l *applogger.Logger) SignalOption {
	return func(uc *SignalUseCase) { uc.l = l }
}

// SignalUseCase forecasts each asset, scores it with the signal generator and
// fans the result out to the journal, the event stream and live subscribers.
type SignalUseCase struct {
	cfg       SignalConfig
	forecasts *ForecastUseCase
	gen       *signal.Generator
	journal   domrepo.SignalJournal
	publisher domrepo.SignalPublisher
	notifier  SignalNotifier
	metrics   domrepo.Metrics
	l         *applogger.Logger
}

func NewSignalUseCase(cfg SignalConfig, forecasts *ForecastUseCase, gen *signal.Generator, opts ...SignalOption) *SignalUseCase {
	if cfg.WeekSteps <= 0 {
		cfg.WeekSteps = 5
	}
	if cfg.HorizonSteps < cfg.WeekSteps {
		cfg.HorizonSteps = max(21, cfg.WeekSteps)
	}
	uc := &SignalUseCase{cfg: cfg, forecasts: forecasts, gen: gen}
	for _, opt := range opts {
		opt(uc)
	}
	return uc
}

// Generate produces one asset's signal from its forecast and the supplied
// readings.
func (uc *SignalUseCase) Generate(ctx context.Context, req models.SignalRequest) (models.Signal, error) {
	ctx, cancel := context.WithTimeout(ctx, uc.forecasts.cfg.BatchTimeout)
	defer cancel()

	run := uc.forecasts.run(ctx, req.Asset, uc.cfg.HorizonSteps)
	if run.err != nil {
		return models.Signal{}, run.err
	}
	in, err := uc.inputs(run, req.Macro, req.Fed, req.Sentiment)
	if err != nil {
		return models.Signal{}, err
	}
	sig, err := uc.gen.Generate(in)
	if err != nil {
		return models.Signal{}, fmt.Errorf("generate %s signal: %w", req.Asset, err)
	}
	uc.dispatch(ctx, sig)
	return sig, nil
}

// Batch generates signals and insights for several assets. Forecasts run in
// parallel; per-asset failures land in Errors.
func (uc *SignalUseCase) Batch(ctx context.Context, req models.SignalBatchRequest) (models.SignalBatch, error) {
	assets := dedupe(req.Assets)
	if len(assets) == 0 {
		return models.SignalBatch{}, fmt.Errorf("%w: no assets requested", models.ErrInvalidInput)
	}
	ctx, cancel := context.WithTimeout(ctx, uc.forecasts.cfg.BatchTimeout)
	defer cancel()

	runs := uc.forecasts.fanOut(ctx, assets, uc.cfg.HorizonSteps)
	out := models.SignalBatch{
		RunID:       uuid.NewString(),
		GeneratedAt: time.Now().UTC(),
		Signals:     make(map[string]models.Signal, len(assets)),
		Insights:    make(map[string]models.Insights, len(assets)),
		Errors:      map[string]string{},
	}
	for _, asset := range assets {
		run := runs[asset]
		if run.err != nil {
			out.Errors[asset] = run.err.Error()
			continue
		}
		var sent *models.SentimentReading
		if s, ok := req.Sentiment[asset]; ok {
			sent = &s
		}
		in, err := uc.inputs(run, req.Macro, req.Fed, sent)
		if err != nil {
			out.Errors[asset] = err.Error()
			continue
		}
		sig, err := uc.gen.Generate(in)
		if err != nil {
			out.Errors[asset] = err.Error()
			continue
		}
		out.Signals[asset] = sig
		uc.dispatch(ctx, sig)

		ins, err := insight.Analyze(run.result.CurrentPrice, run.result.Path, run.profile.Name)
		if err != nil {
			uc.l.Warn("insight skipped", applogger.String("asset", asset), applogger.Error(err))
			continue
		}
		out.Insights[asset] = ins
	}
	if len(out.Insights) == 0 {
		out.Insights = nil
	}
	if len(out.Errors) == 0 {
		out.Errors = nil
	}
	return out, nil
}

// Recent returns journaled signals, newest first.
func (uc *SignalUseCase) Recent(ctx context.Context, asset string, limit int) ([]models.Signal, error) {
	if uc.journal == nil {
		return []models.Signal{}, nil
	}
	if limit <= 0 || limit > 500 {
		limit = 50
	}
	return uc.journal.Recent(ctx, asset, limit)
}

// inputs rejects degraded runs with ErrModelUnavailable.
func (uc *SignalUseCase) inputs(run assetRun, macro *models.MacroReading, fed *models.FedReading, sent *models.SentimentReading) (models.SignalInputs, error) {
	if run.result.Degraded {
		reason := run.result.Error
		if reason == "" {
			reason = "no forecast path"
		}
		return models.SignalInputs{}, fmt.Errorf("%w: %s: %s", models.ErrModelUnavailable, run.asset, reason)
	}
	week, ok := run.result.Path.At(uc.cfg.WeekSteps)
	if !ok {
		week = run.result.Path.Last()
	}
	return models.SignalInputs{
		Asset:        run.asset,
		Class:        run.profile.Class,
		CurrentPrice: run.result.CurrentPrice,
		WeekForecast: week,
		Macro:        latestMacro(run.profile, run.series, macro),
		Fed:          fed,
		Sentiment:    sent,
		LongMA:       longMA(run.profile, run.series),
	}, nil
}

// latestMacro reads DXY, VIX and the 10Y yield from the last history row.
// Non-zero fields of req override the history values.
func latestMacro(p models.AssetProfile, s models.HistoricalSeries, req *models.MacroReading) *models.MacroReading {
	var m models.MacroReading
	found := false
	for _, c := range []struct {
		name string
		dst  *float64
	}{
		{"DXY", &m.DXY},
		{"VIX", &m.VIX},
		{"Yield_10Y", &m.Yield10Y},
	} {
		if v, ok := s.LastFeature(p.FeatureIndex(c.name)); ok {
			*c.dst = v
			found = true
		}
	}
	if req != nil {
		if req.DXY != 0 {
			m.DXY = req.DXY
		}
		if req.VIX != 0 {
			m.VIX = req.VIX
		}
		if req.Yield10Y != 0 {
			m.Yield10Y = req.Yield10Y
		}
		found = true
	}
	if !found {
		return nil
	}
	return &m
}

// longMA is the last value of the profile's longest smoothed feature.
func longMA(p models.AssetProfile, s models.HistoricalSeries) float64 {
	col, window := -1, 0
	for j, f := range p.Features {
		if f.Rule.Kind == models.RuleSmoothed && f.Rule.Window > window {
			col, window = j, f.Rule.Window
		}
	}
	v, _ := s.LastFeature(col)
	return v
}

func (uc *SignalUseCase) dispatch(ctx context.Context, sig models.Signal) {
	if uc.metrics != nil {
		uc.metrics.RecordSignal(sig.Asset, sig.Direction)
	}
	if uc.journal != nil {
		if err := uc.journal.Record(ctx, sig); err != nil {
			uc.l.Error("journal signal failed", applogger.String("asset", sig.Asset), applogger.Error(err))
		}
	}
	if uc.publisher != nil {
		if err := uc.publisher.Publish(ctx, sig); err != nil {
			uc.l.Error("publish signal failed", applogger.String("asset", sig.Asset), applogger.Error(err))
		}
	}
	if uc.notifier != nil {
		uc.notifier.Broadcast(sig)
	}
	uc.l.Info("signal generated",
		applogger.String("asset", sig.Asset),
		applogger.String("direction", string(sig.Direction)),
		applogger.Float64("confidence", sig.Confidence),
	)
}
