package correlation

import (
	"errors"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"FinCast/internal/domain/models"
	"FinCast/internal/services/features"
)

// history builds an anchor series with oscillating returns and an asset whose
// returns are exactly beta times the anchor's.
func history(n int, beta float64, start time.Time) (models.HistoricalSeries, models.HistoricalSeries) {
	anchor := models.HistoricalSeries{Asset: "SPY"}
	asset := models.HistoricalSeries{Asset: "AAPL"}
	a, x := 400.0, 150.0
	for i := 0; i < n; i++ {
		if i > 0 {
			r := 0.01 * math.Sin(float64(i)*0.7)
			a *= 1 + r
			x *= 1 + beta*r
		}
		d := start.AddDate(0, 0, i)
		anchor.Dates = append(anchor.Dates, d)
		anchor.Frames = append(anchor.Frames, models.FeatureFrame{a})
		asset.Dates = append(asset.Dates, d)
		asset.Frames = append(asset.Frames, models.FeatureFrame{x})
	}
	return anchor, asset
}

func uniformPath(start, total float64, steps int) models.ForecastPath {
	r := math.Pow(1+total, 1/float64(steps)) - 1
	p := make(models.ForecastPath, steps+1)
	p[0] = start
	for i := 1; i <= steps; i++ {
		p[i] = p[i-1] * (1 + r)
	}
	return p
}

func newTestEnforcer(t *testing.T, beta float64) *Enforcer {
	t.Helper()
	day := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	anchor, asset := history(300, beta, day)
	e := NewEnforcer("SPY", 252, map[string]models.HistoricalSeries{"SPY": anchor, "AAPL": asset})
	_, ok := e.Beta("AAPL")
	require.True(t, ok)
	return e
}

func TestComputeBeta(t *testing.T) {
	e := newTestEnforcer(t, 1.5)
	bp, _ := e.Beta("AAPL")
	assert.InDelta(t, 1.5, bp.Beta, 1e-9)
	assert.InDelta(t, 1.0, bp.Correlation, 1e-9)
	assert.Equal(t, 252, bp.Observations)
	_, ok := e.Beta("SPY")
	assert.False(t, ok, "anchor has no beta against itself")
}

func TestComputeBetaRequiresOverlap(t *testing.T) {
	day := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	anchor, _ := history(100, 1, day)
	_, late := history(100, 1, day.AddDate(0, 0, 70))

	_, err := ComputeBeta(anchor, late, 252, DefaultMinOverlap)
	assert.True(t, errors.Is(err, models.ErrNoBetaData))

	e := NewEnforcer("SPY", 252, map[string]models.HistoricalSeries{"SPY": anchor, "AAPL": late})
	assert.Empty(t, e.Betas())
}

func TestComputeBetaFlatAnchor(t *testing.T) {
	day := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	anchor, asset := history(80, 1, day)
	for i := range anchor.Frames {
		anchor.Frames[i] = models.FeatureFrame{100}
	}
	bp, err := ComputeBeta(anchor, asset, 252, DefaultMinOverlap)
	require.NoError(t, err)
	assert.Equal(t, 0.0, bp.Beta)
	assert.Equal(t, 0.0, bp.Correlation)
}

func TestEnforceDivergentAsset(t *testing.T) {
	e := newTestEnforcer(t, 1.0)
	paths := map[string]models.ForecastPath{
		"SPY":  uniformPath(500, 0.10, 5),
		"AAPL": uniformPath(200, -0.50, 5),
	}
	raw := paths["AAPL"].Clone()

	out, notes := e.Enforce(paths, 0.7)
	assert.Empty(t, notes)
	assert.Equal(t, paths["SPY"], out["SPY"])
	assert.Equal(t, raw, paths["AAPL"], "input must not be modified")

	adj := out["AAPL"]
	require.Len(t, adj, 6)
	assert.Equal(t, 200.0, adj[0])
	change := features.ChangePct(adj[0], adj.Last())
	assert.Greater(t, change, -50.0)
	assert.Less(t, change, 0.0)

	report := e.Validate(out)
	assert.Equal(t, "SPY", report.Reference)
	assert.InDelta(t, 10.0, report.ReferenceChangePct, 1e-9)
	require.Len(t, report.Assets, 1)
	assert.InDelta(t, change, report.Assets[0].ChangePct, 1e-9)
	assert.InDelta(t, 1.0, report.Assets[0].Beta, 1e-9)
	assert.False(t, report.Assets[0].SameSignAsReference)
}

func TestEnforceStrengthBoundaries(t *testing.T) {
	e := newTestEnforcer(t, 1.5)
	paths := map[string]models.ForecastPath{
		"SPY":  {500, 505, 498, 510, 512},
		"AAPL": {200, 190, 185, 180, 170},
	}

	out, _ := e.Enforce(paths, 0)
	for i, v := range out["AAPL"] {
		assert.InDelta(t, paths["AAPL"][i], v, 1e-9)
	}

	out, _ = e.Enforce(paths, 1)
	ref := features.SimpleReturns(paths["SPY"])
	got := features.SimpleReturns(out["AAPL"])
	for i := range ref {
		assert.InDelta(t, 1.5*ref[i], got[i], 1e-9)
	}

	clamped, _ := e.Enforce(paths, 3)
	assert.Equal(t, out["AAPL"], clamped["AAPL"])
}

func TestEnforcePassThrough(t *testing.T) {
	e := newTestEnforcer(t, 1.0)

	paths := map[string]models.ForecastPath{
		"SPY":  {500, 505, 510},
		"AAPL": {200, 190, 180},
		"GLD":  {180, 181, 182},
	}
	out, notes := e.Enforce(paths, 0.7)
	assert.Equal(t, paths["GLD"], out["GLD"])
	require.Len(t, notes, 1)
	assert.True(t, strings.HasPrefix(notes[0], "GLD"))

	noAnchor := map[string]models.ForecastPath{"AAPL": {200, 190, 180}}
	out, notes = e.Enforce(noAnchor, 0.7)
	assert.Equal(t, noAnchor["AAPL"], out["AAPL"])
	require.Len(t, notes, 1)
	assert.Contains(t, notes[0], "SPY")
}

func TestEnforceMismatchedLengths(t *testing.T) {
	e := newTestEnforcer(t, 1.0)
	paths := map[string]models.ForecastPath{
		"SPY":  {500, 510, 520},
		"AAPL": {200, 190, 180, 171, 162},
	}
	out, _ := e.Enforce(paths, 1)
	adj := out["AAPL"]
	require.Len(t, adj, 5)
	got := features.SimpleReturns(adj)
	raw := features.SimpleReturns(paths["AAPL"])
	assert.InDelta(t, 510.0/500-1, got[0], 1e-12)
	assert.InDelta(t, raw[2], got[2], 1e-12)
	assert.InDelta(t, raw[3], got[3], 1e-12)
}
