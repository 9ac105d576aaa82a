package correlation

import (
	"fmt"
	"sort"
	"time"

	"FinCast/internal/domain/models"
	"FinCast/internal/services/features"
	applogger "FinCast/pkg/logger"
)

const (
	DefaultLookback   = 252
	DefaultMinOverlap = 50
	DefaultStrength   = 0.7
)

// Option configures Enforcer.
type Option func(*Enforcer)

func WithMinOverlap(n int) Option {
	return func(e *Enforcer) {
		if n > 1 {
			e.minOverlap = n
		}
	}
}

func WithLogger(l *applogger.Logger) Option {
	return func(e *Enforcer) { e.l = l }
}

// Enforcer pulls independently forecast paths toward the co-movement each
// asset historically showed with a reference anchor. The beta table is
// computed once and only read afterwards, so one Enforcer may be shared by
// concurrent batches.
type Enforcer struct {
	anchor     string
	lookback   int
	minOverlap int
	betas      map[string]models.BetaProfile
	l          *applogger.Logger
}

// NewEnforcer computes a BetaProfile for every asset in histories other than
// the anchor. Assets with too little overlap are left out of the table.
func NewEnforcer(anchor string, lookback int, histories map[string]models.HistoricalSeries, opts ...Option) *Enforcer {
	if lookback < 2 {
		lookback = DefaultLookback
	}
	e := &Enforcer{
		anchor:     anchor,
		lookback:   lookback,
		minOverlap: DefaultMinOverlap,
		betas:      make(map[string]models.BetaProfile),
	}
	for _, opt := range opts {
		opt(e)
	}

	ref, ok := histories[anchor]
	if !ok || ref.Len() == 0 {
		e.l.Warn("anchor history missing, correlation enforcement disabled", applogger.String("anchor", anchor))
		return e
	}
	for asset, s := range histories {
		if asset == anchor {
			continue
		}
		bp, err := ComputeBeta(ref, s, e.lookback, e.minOverlap)
		if err != nil {
			e.l.Warn("beta not computed",
				applogger.String("asset", asset),
				applogger.String("anchor", anchor),
				applogger.Error(err),
			)
			continue
		}
		e.betas[asset] = bp
	}
	e.l.Info("beta table ready",
		applogger.String("anchor", anchor),
		applogger.Int("assets", len(e.betas)),
		applogger.Int("lookback", e.lookback),
	)
	return e
}

func (e *Enforcer) Anchor() string { return e.anchor }

// Beta returns the profile for an asset.
func (e *Enforcer) Beta(asset string) (models.BetaProfile, bool) {
	bp, ok := e.betas[asset]
	return bp, ok
}

// Betas returns a copy of the beta table.
func (e *Enforcer) Betas() map[string]models.BetaProfile {
	out := make(map[string]models.BetaProfile, len(e.betas))
	for k, v := range e.betas {
		out[k] = v
	}
	return out
}

// ComputeBeta joins asset and anchor prices on date, keeps the last lookback
// joined rows and regresses asset returns on anchor returns.
func ComputeBeta(anchor, asset models.HistoricalSeries, lookback, minOverlap int) (models.BetaProfile, error) {
	ap, xp := joinPrices(anchor, asset)
	if len(ap) < minOverlap {
		return models.BetaProfile{}, fmt.Errorf("%w: %d overlapping rows, need %d", models.ErrNoBetaData, len(ap), minOverlap)
	}
	if len(ap) > lookback {
		ap = ap[len(ap)-lookback:]
		xp = xp[len(xp)-lookback:]
	}
	ar := features.SimpleReturns(ap)
	xr := features.SimpleReturns(xp)

	bp := models.BetaProfile{
		Correlation:  features.Pearson(ar, xr),
		Observations: len(ap),
	}
	if v := features.Variance(ar); v > 0 {
		bp.Beta = features.Covariance(xr, ar) / v
	}
	return bp, nil
}

func joinPrices(anchor, asset models.HistoricalSeries) ([]float64, []float64) {
	byDate := make(map[time.Time]float64, anchor.Len())
	for i, d := range anchor.Dates {
		byDate[dayKey(d)] = anchor.Frames[i][0]
	}
	var ap, xp []float64
	for i, d := range asset.Dates {
		if p, ok := byDate[dayKey(d)]; ok {
			ap = append(ap, p)
			xp = append(xp, asset.Frames[i][0])
		}
	}
	return ap, xp
}

func dayKey(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Enforce blends each asset's per-step returns with its beta-scaled anchor
// returns and recompounds from the asset's own first forecast price. Inputs
// are not modified. Notes describe assets that were passed through.
func (e *Enforcer) Enforce(paths map[string]models.ForecastPath, strength float64) (map[string]models.ForecastPath, []string) {
	strength = clamp01(strength)
	out := make(map[string]models.ForecastPath, len(paths))
	for k, p := range paths {
		out[k] = p.Clone()
	}

	ref, ok := paths[e.anchor]
	if !ok || len(ref) < 2 {
		return out, []string{fmt.Sprintf("anchor %s has no forecast path, correlation not enforced", e.anchor)}
	}
	if len(e.betas) == 0 {
		return out, []string{fmt.Sprintf("no beta data against %s, correlation not enforced", e.anchor)}
	}
	refReturns := features.SimpleReturns(ref)

	var notes []string
	for _, asset := range sortedKeys(paths) {
		if asset == e.anchor {
			continue
		}
		raw := paths[asset]
		bp, ok := e.betas[asset]
		if !ok {
			notes = append(notes, fmt.Sprintf("%s: %v, returned unchanged", asset, models.ErrNoBetaData))
			e.l.Info("no beta for asset, passing through", applogger.String("asset", asset))
			continue
		}
		if len(raw) < 2 {
			continue
		}
		out[asset] = blend(raw, refReturns, bp.Beta, strength)
	}
	return out, notes
}

func blend(raw models.ForecastPath, refReturns []float64, beta, strength float64) models.ForecastPath {
	rr := features.SimpleReturns(raw)
	adj := make(models.ForecastPath, len(raw))
	adj[0] = raw[0]
	for i, r := range rr {
		if i < len(refReturns) {
			r = (1-strength)*r + strength*beta*refReturns[i]
		}
		adj[i+1] = adj[i] * (1 + r)
	}
	return adj
}

// Validate reports how each corrected path co-moves with the anchor path.
func (e *Enforcer) Validate(paths map[string]models.ForecastPath) models.ValidationReport {
	report := models.ValidationReport{Reference: e.anchor}
	ref, ok := paths[e.anchor]
	if !ok || len(ref) == 0 {
		return report
	}
	refChange := pathChange(ref)
	refReturns := features.SimpleReturns(ref)
	report.ReferenceChangePct = refChange

	for _, asset := range sortedKeys(paths) {
		if asset == e.anchor {
			continue
		}
		p := paths[asset]
		if len(p) == 0 {
			continue
		}
		change := pathChange(p)
		bp := e.betas[asset]
		report.Assets = append(report.Assets, models.AssetValidation{
			Asset:                 asset,
			ChangePct:             change,
			PredictionCorrelation: features.Pearson(features.SimpleReturns(p), refReturns),
			HistoricalCorrelation: bp.Correlation,
			Beta:                  bp.Beta,
			SameSignAsReference:   change*refChange > 0,
		})
	}
	return report
}

func pathChange(p models.ForecastPath) float64 {
	return features.ChangePct(p[0], p.Last())
}

func sortedKeys(m map[string]models.ForecastPath) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
