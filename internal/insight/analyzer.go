// Package insight turns forecast paths into classified, templated readings.
package insight

import (
	"fmt"
	"math"
	"sort"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"FinCast/internal/domain/models"
	"FinCast/internal/services/features"
)

const (
	TrendBullish = "bullish"
	TrendBearish = "bearish"
	TrendNeutral = "neutral"

	LevelHigh   = "high"
	LevelMedium = "medium"
	LevelLow    = "low"

	StrengthStrong   = "strong"
	StrengthModerate = "moderate"
	StrengthWeak     = "weak"
)

// Thresholds on percentage change and on the step-return standard deviation.
const (
	trendPct       = 2.0
	strongPct      = 15.0
	moderatePct    = 5.0
	highRiskPct    = 20.0
	mediumRiskPct  = 10.0
	highVol        = 0.03
	mediumVol      = 0.015
	levelBandRatio = 0.05
)

// Analyze classifies a forecast path relative to the current price.
func Analyze(current float64, path models.ForecastPath, asset string) (models.Insights, error) {
	if len(path) == 0 {
		return models.Insights{}, fmt.Errorf("%w: empty forecast path for %s", models.ErrInvalidInput, asset)
	}
	if !(current > 0) || math.IsInf(current, 0) {
		return models.Insights{}, fmt.Errorf("%w: current price %v for %s", models.ErrInvalidInput, current, asset)
	}
	if !features.Finite(path...) {
		return models.Insights{}, fmt.Errorf("%w: forecast path for %s", models.ErrDataQuality, asset)
	}

	final := path.Last()
	change := features.ChangePct(current, final)
	abs := math.Abs(change)

	trend := TrendNeutral
	switch {
	case change > trendPct:
		trend = TrendBullish
	case change < -trendPct:
		trend = TrendBearish
	}

	strength := StrengthWeak
	switch {
	case abs > strongPct:
		strength = StrengthStrong
	case abs > moderatePct:
		strength = StrengthModerate
	}

	volScore := features.StdDev(features.SimpleReturns(path))
	volatility := LevelLow
	switch {
	case volScore > highVol:
		volatility = LevelHigh
	case volScore > mediumVol:
		volatility = LevelMedium
	}

	risk := LevelLow
	switch {
	case volatility == LevelHigh || abs > highRiskPct:
		risk = LevelHigh
	case volatility == LevelMedium || abs > mediumRiskPct:
		risk = LevelMedium
	}

	levels := KeyLevels(current, final)
	return models.Insights{
		Asset:           asset,
		CurrentPrice:    current,
		FinalPrice:      final,
		TotalChangePct:  change,
		Trend:           trend,
		Strength:        strength,
		Volatility:      volatility,
		VolatilityScore: volScore,
		RiskLevel:       risk,
		KeyLevels:       levels,
		Summary:         summary(asset, trend, strength, volatility, abs),
		Recommendation:  recommendation(trend, strength, final, levels),
	}, nil
}

// KeyLevels returns the current price, a 5% band around it and the final
// forecast, rounded to cents, deduplicated and sorted.
func KeyLevels(current, final float64) []float64 {
	raw := []float64{current, current * (1 + levelBandRatio), current * (1 - levelBandRatio), final}
	seen := make(map[string]struct{}, len(raw))
	out := make([]float64, 0, len(raw))
	for _, v := range raw {
		d := decimal.NewFromFloat(v).Round(2)
		key := d.String()
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, d.InexactFloat64())
	}
	sort.Float64s(out)
	return out
}

func summary(asset, trend, strength, volatility string, abs float64) string {
	direction, move := "sideways", "movement"
	switch trend {
	case TrendBullish:
		direction, move = "upward", "gain"
	case TrendBearish:
		direction, move = "downward", "decline"
	}
	return fmt.Sprintf("%s forecast shows %s %s momentum with an expected %.1f%% %s over the forecast period. Market volatility is assessed as %s.",
		asset, strength, direction, abs, move, volatility)
}

func recommendation(trend, strength string, final float64, levels []float64) string {
	decisive := strength == StrengthStrong || strength == StrengthModerate
	switch {
	case trend == TrendBullish && decisive:
		return fmt.Sprintf("Consider accumulating on dips. Target: $%s. Set stop-loss below $%s support.",
			Money(final), Money(levels[1]))
	case trend == TrendBearish && decisive:
		return fmt.Sprintf("Consider taking profits or reducing exposure. Watch for support at $%s.", Money(levels[1]))
	default:
		return fmt.Sprintf("Hold current positions. Wait for clearer directional signals. Range: $%s - $%s.",
			Money(levels[0]), Money(levels[len(levels)-1]))
	}
}

// Money formats v with two decimals and thousands separators.
func Money(v float64) string {
	r, _ := decimal.NewFromFloat(v).Round(2).Float64()
	return message.NewPrinter(language.English).Sprintf("%.2f", r)
}
