package usecase

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"FinCast/internal/correlation"
	"FinCast/internal/domain/models"
	domrepo "FinCast/internal/domain/repository"
	domsvc "FinCast/internal/domain/service"
	"FinCast/internal/forecast"
	"FinCast/pkg/cache"
	applogger "FinCast/pkg/logger"
)

// ForecastConfig carries batch and correlation settings.
type ForecastConfig struct {
	Anchor       string
	Lookback     int
	MinOverlap   int
	Strength     float64
	BatchTimeout time.Duration
	CacheTTL     time.Duration
}

type ForecastOption func(*ForecastUseCase)

func WithForecastStore(s domrepo.ForecastStore) ForecastOption {
	return func(uc *ForecastUseCase) { uc.forecasts = s }
}

// WithForecastCache caches raw single-asset paths keyed by asset, steps and
// the date of the last history row.
func WithForecastCache(c cache.Service) ForecastOption {
	return func(uc *ForecastUseCase) { uc.cache = c }
}

func WithForecastMetrics(m domrepo.Metrics) ForecastOption {
	return func(uc *ForecastUseCase) { uc.metrics = m }
}

func WithForecastLogger(l *applogger.Logger) ForecastOption {
	return func(uc *ForecastUseCase) { uc.l = l }
}

// ForecastUseCase loads history, runs the engine per asset in parallel and
// enforces cross-asset correlation on the joined batch.
type ForecastUseCase struct {
	cfg       ForecastConfig
	catalogue map[string]models.AssetProfile
	series    domrepo.SeriesStore
	registry  domsvc.ModelRegistry
	engine    *forecast.Engine
	forecasts domrepo.ForecastStore
	cache     cache.Service
	metrics   domrepo.Metrics
	l         *applogger.Logger
	now       func() time.Time
}

func NewForecastUseCase(
	cfg ForecastConfig,
	catalogue map[string]models.AssetProfile,
	series domrepo.SeriesStore,
	registry domsvc.ModelRegistry,
	engine *forecast.Engine,
	opts ...ForecastOption,
) *ForecastUseCase {
	if cfg.BatchTimeout <= 0 {
		cfg.BatchTimeout = 60 * time.Second
	}
	uc := &ForecastUseCase{
		cfg:       cfg,
		catalogue: catalogue,
		series:    series,
		registry:  registry,
		engine:    engine,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(uc)
	}
	return uc
}

// Profile returns the catalogue entry for an asset.
func (uc *ForecastUseCase) Profile(asset string) (models.AssetProfile, error) {
	p, ok := uc.catalogue[asset]
	if !ok {
		return models.AssetProfile{}, fmt.Errorf("%w: %s", models.ErrUnknownAsset, asset)
	}
	return p, nil
}

// Assets lists catalogue ids in sorted order.
func (uc *ForecastUseCase) Assets() []string {
	out := make([]string, 0, len(uc.catalogue))
	for id := range uc.catalogue {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// assetRun is one asset's share of a fan-out.
type assetRun struct {
	asset   string
	profile models.AssetProfile
	series  models.HistoricalSeries
	result  models.ForecastResult
	err     error
}

// Forecast runs a single asset without correlation enforcement.
func (uc *ForecastUseCase) Forecast(ctx context.Context, asset string, steps int) (models.ForecastResult, error) {
	ctx, cancel := context.WithTimeout(ctx, uc.cfg.BatchTimeout)
	defer cancel()

	run := uc.run(ctx, asset, steps)
	if run.err != nil {
		return models.ForecastResult{}, run.err
	}
	uc.persist(ctx, uuid.NewString(), run.result)
	return run.result, nil
}

// Batch forecasts every requested asset concurrently, then blends each path
// toward the anchor's. Per-asset failures land in Errors and never fail the
// batch; an empty asset list does.
func (uc *ForecastUseCase) Batch(ctx context.Context, req models.BatchForecastRequest) (models.BatchForecast, error) {
	assets := dedupe(req.Assets)
	if len(assets) == 0 {
		return models.BatchForecast{}, fmt.Errorf("%w: no assets requested", models.ErrInvalidInput)
	}
	strength := uc.cfg.Strength
	if req.Strength != nil {
		strength = *req.Strength
	}
	enforce := !req.SkipEnforce && uc.cfg.Anchor != ""

	ctx, cancel := context.WithTimeout(ctx, uc.cfg.BatchTimeout)
	defer cancel()

	targets := assets
	if enforce && !contains(assets, uc.cfg.Anchor) {
		targets = append(append([]string{}, assets...), uc.cfg.Anchor)
	}
	runs := uc.fanOut(ctx, targets, req.Steps)

	out := models.BatchForecast{
		RunID:       uuid.NewString(),
		GeneratedAt: uc.now().UTC(),
		Steps:       req.Steps,
		Results:     make(map[string]models.ForecastResult, len(assets)),
		Errors:      map[string]string{},
	}
	for _, asset := range assets {
		run := runs[asset]
		if run.err != nil {
			out.Errors[asset] = run.err.Error()
			uc.recordError(run.err)
			continue
		}
		out.Results[asset] = run.result
	}

	if enforce {
		uc.enforce(&out, runs, strength)
	}

	for _, r := range out.Results {
		uc.persist(ctx, out.RunID, r)
	}
	if len(out.Errors) == 0 {
		out.Errors = nil
	}
	uc.l.Info("forecast batch complete",
		applogger.String("run_id", out.RunID),
		applogger.Int("assets", len(assets)),
		applogger.Int("ok", len(out.Results)),
		applogger.Int("errors", len(out.Errors)),
		applogger.Bool("enforced", enforce),
	)
	return out, nil
}

func (uc *ForecastUseCase) enforce(out *models.BatchForecast, runs map[string]assetRun, strength float64) {
	anchor := uc.cfg.Anchor
	out.Anchor = anchor
	out.Strength = strength

	histories := make(map[string]models.HistoricalSeries, len(runs))
	paths := make(map[string]models.ForecastPath, len(runs))
	for asset, run := range runs {
		if run.err != nil {
			continue
		}
		histories[asset] = run.series
		if !run.result.Degraded && len(run.result.Path) > 0 {
			paths[asset] = run.result.Path
		}
	}

	enf := correlation.NewEnforcer(anchor, uc.cfg.Lookback, histories,
		correlation.WithMinOverlap(uc.cfg.MinOverlap),
		correlation.WithLogger(uc.l),
	)
	adjusted, notes := enf.Enforce(paths, strength)
	_, anchorOK := paths[anchor]

	for asset, r := range out.Results {
		p, ok := adjusted[asset]
		if !ok {
			continue
		}
		if _, hasBeta := enf.Beta(asset); hasBeta && anchorOK && asset != anchor && len(p) > 1 {
			r.Path = p
			r.Adjusted = true
		}
		for _, n := range notes {
			if strings.HasPrefix(n, asset+":") {
				r.Notes = append(r.Notes, n)
			}
		}
		out.Results[asset] = r
	}
	out.Notes = notes

	if anchorOK {
		validated := make(map[string]models.ForecastPath, len(out.Results)+1)
		for asset, r := range out.Results {
			if !r.Degraded && len(r.Path) > 0 {
				validated[asset] = r.Path
			}
		}
		validated[anchor] = paths[anchor]
		report := enf.Validate(validated)
		out.Validation = &report
	}
}

// Ranges reads every named horizon off one recursive run.
func (uc *ForecastUseCase) Ranges(ctx context.Context, asset string) (models.RangeForecast, error) {
	ctx, cancel := context.WithTimeout(ctx, uc.cfg.BatchTimeout)
	defer cancel()

	run := uc.run(ctx, asset, forecast.MaxHorizon(forecast.DefaultHorizons))
	if run.err != nil {
		return models.RangeForecast{}, run.err
	}
	return rangeOf(run), nil
}

// RangesBatch is Ranges over several assets; failures are marked per asset.
func (uc *ForecastUseCase) RangesBatch(ctx context.Context, assets []string) []models.RangeForecast {
	ctx, cancel := context.WithTimeout(ctx, uc.cfg.BatchTimeout)
	defer cancel()

	assets = dedupe(assets)
	runs := uc.fanOut(ctx, assets, forecast.MaxHorizon(forecast.DefaultHorizons))
	out := make([]models.RangeForecast, 0, len(assets))
	for _, asset := range assets {
		run := runs[asset]
		if run.err != nil {
			uc.recordError(run.err)
			out = append(out, models.RangeForecast{Asset: asset, Degraded: true, Error: run.err.Error()})
			continue
		}
		out = append(out, rangeOf(run))
	}
	return out
}

func rangeOf(run assetRun) models.RangeForecast {
	return models.RangeForecast{
		Asset:    run.asset,
		Current:  run.result.CurrentPrice,
		Ranges:   forecast.ReadRanges(run.result.Path, forecast.DefaultHorizons),
		Degraded: run.result.Degraded,
		Error:    run.result.Error,
	}
}

// NextDay predicts one step ahead for each asset.
func (uc *ForecastUseCase) NextDay(ctx context.Context, assets []string) []models.NextDayPrediction {
	ctx, cancel := context.WithTimeout(ctx, uc.cfg.BatchTimeout)
	defer cancel()

	assets = dedupe(assets)
	runs := uc.fanOut(ctx, assets, 1)
	out := make([]models.NextDayPrediction, 0, len(assets))
	for _, asset := range assets {
		run := runs[asset]
		if run.err != nil {
			uc.recordError(run.err)
			out = append(out, models.NextDayPrediction{Asset: asset, Degraded: true, Error: run.err.Error()})
			continue
		}
		p := forecast.NextDay(asset, run.result.CurrentPrice, run.result.Path)
		p.Error = run.result.Error
		out = append(out, p)
	}
	return out
}

// fanOut runs every asset in its own goroutine and joins on a channel.
func (uc *ForecastUseCase) fanOut(ctx context.Context, assets []string, steps int) map[string]assetRun {
	ch := make(chan assetRun, len(assets))
	var wg sync.WaitGroup
	for _, asset := range assets {
		wg.Add(1)
		go func(asset string) {
			defer wg.Done()
			ch <- uc.run(ctx, asset, steps)
		}(asset)
	}
	go func() { wg.Wait(); close(ch) }()

	out := make(map[string]assetRun, len(assets))
	for run := range ch {
		out[run.asset] = run
	}
	return out
}

// run loads history and artifacts for one asset and forecasts it. Missing
// artifacts or a failing model degrade the result instead of failing it.
func (uc *ForecastUseCase) run(ctx context.Context, asset string, steps int) assetRun {
	start := time.Now()
	out := assetRun{asset: asset}
	profile, err := uc.Profile(asset)
	if err != nil {
		out.err = err
		return out
	}
	out.profile = profile

	series, err := uc.series.Series(ctx, profile)
	if err != nil {
		out.err = fmt.Errorf("load %s history: %w", asset, err)
		return out
	}
	out.series = series
	current, _ := series.LastPrice()
	res := models.ForecastResult{
		Asset:        asset,
		Name:         profile.Name,
		CurrentPrice: current,
		AsOf:         series.LastDate(),
		Steps:        steps,
		Path:         models.ForecastPath{},
	}
	if current > 0 {
		uc.recordLastPrice(asset, current)
	}

	key := cache.Key("forecast", asset, strconv.Itoa(steps), res.AsOf.Format("2006-01-02"))
	if path, ok := uc.cached(ctx, key); ok {
		res.Path = path
		out.result = res
		return out
	}

	reg, regErr := uc.registry.Regressor(asset)
	norm, normErr := uc.registry.Normalizer(asset)
	if err := softError(regErr, normErr); err != nil {
		out.err = err
		return out
	}
	if regErr != nil {
		reg = nil
	}
	if normErr != nil {
		norm = nil
	}

	path, err := uc.engine.Forecast(ctx, series, profile, reg, norm, steps)
	switch {
	case errors.Is(err, models.ErrModelUnavailable):
		res.Error = err.Error()
	case err != nil:
		out.err = err
		return out
	case len(path) == 0:
		res.Error = degradedReason(regErr, normErr)
	default:
		res.Path = path
		uc.store(ctx, key, path)
	}
	res.Degraded = len(res.Path) == 0
	out.result = res

	if uc.metrics != nil {
		uc.metrics.RecordForecast(asset, steps, res.Degraded, time.Since(start))
	}
	return out
}

// softError returns the first artifact error that should fail the asset
// outright rather than degrade it.
func softError(errs ...error) error {
	for _, err := range errs {
		if err == nil {
			continue
		}
		if errors.Is(err, models.ErrModelUnavailable) || errors.Is(err, models.ErrNormalizerUnavailable) {
			continue
		}
		return err
	}
	return nil
}

func degradedReason(errs ...error) string {
	if err := errors.Join(errs...); err != nil {
		return err.Error()
	}
	return models.ErrModelUnavailable.Error()
}

func (uc *ForecastUseCase) cached(ctx context.Context, key string) (models.ForecastPath, bool) {
	if uc.cache == nil {
		return nil, false
	}
	var path models.ForecastPath
	if err := uc.cache.Get(ctx, key, &path); err != nil {
		if !errors.Is(err, cache.ErrCacheMiss) {
			uc.l.Warn("forecast cache read failed", applogger.String("key", key), applogger.Error(err))
		}
		return nil, false
	}
	return path, len(path) > 0
}

func (uc *ForecastUseCase) store(ctx context.Context, key string, path models.ForecastPath) {
	if uc.cache == nil {
		return
	}
	if err := uc.cache.Set(ctx, key, path, uc.cfg.CacheTTL); err != nil {
		uc.l.Warn("forecast cache write failed", applogger.String("key", key), applogger.Error(err))
	}
}

func (uc *ForecastUseCase) persist(ctx context.Context, runID string, r models.ForecastResult) {
	if uc.forecasts == nil || r.Degraded {
		return
	}
	if err := uc.forecasts.SaveForecast(ctx, runID, r); err != nil {
		uc.recordError(err)
		uc.l.Error("persist forecast failed",
			applogger.String("run_id", runID),
			applogger.String("asset", r.Asset),
			applogger.Error(err),
		)
	}
}

func (uc *ForecastUseCase) recordError(err error) {
	if uc.metrics != nil {
		uc.metrics.RecordError(errorKind(err))
	}
}

func (uc *ForecastUseCase) recordLastPrice(asset string, price float64) {
	if uc.metrics != nil {
		uc.metrics.RecordLastPrice(asset, price)
	}
}

// errorKind maps an error onto a low-cardinality metric label.
func errorKind(err error) string {
	switch {
	case errors.Is(err, models.ErrUnknownAsset):
		return "unknown_asset"
	case errors.Is(err, models.ErrInsufficientHistory):
		return "insufficient_history"
	case errors.Is(err, models.ErrModelUnavailable), errors.Is(err, models.ErrNormalizerUnavailable):
		return "model_unavailable"
	case errors.Is(err, models.ErrDataQuality):
		return "data_quality"
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return "timeout"
	default:
		return "internal"
	}
}

func dedupe(in []string) []string {
	seen := make(map[string]bool, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		s = strings.TrimSpace(s)
		if s == "" || seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	return out
}

func contains(xs []string, s string) bool {
	for _, x := range xs {
		if x == s {
			return true
		}
	}
	return false
}
