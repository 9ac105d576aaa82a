package signal

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"

	"FinCast/internal/domain/models"
	"FinCast/internal/services/features"
	applogger "FinCast/pkg/logger"
)

// Factor names in evaluation order.
const (
	FactorForecast  = "forecast"
	FactorMacro     = "macro"
	FactorSentiment = "sentiment"
	FactorTechnical = "technical"
)

var factorOrder = []string{FactorForecast, FactorMacro, FactorSentiment, FactorTechnical}

// Neutral fill-ins for readings the caller could not supply.
const (
	defaultDXY      = 105.0
	defaultVIX      = 15.0
	defaultYield10Y = 4.0
)

const (
	scoreBullish = 0.7
	scoreNeutral = 0.5
	scoreBearish = 0.3
)

type Option func(*Generator)

func WithLogger(l *applogger.Logger) Option {
	return func(g *Generator) { g.l = l }
}

// WithClock overrides the timestamp source.
func WithClock(now func() time.Time) Option {
	return func(g *Generator) { g.now = now }
}

// Generator turns a one-week forecast and plain market readings into a
// BUY/SELL/HOLD decision. It holds no mutable state.
type Generator struct {
	cfg Config
	l   *applogger.Logger
	now func() time.Time
}

func NewGenerator(cfg Config, opts ...Option) (*Generator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	g := &Generator{cfg: cfg, now: time.Now}
	for _, opt := range opts {
		opt(g)
	}
	return g, nil
}

// Generate scores the four factors and derives the decision and its risk
// parameters.
func (g *Generator) Generate(in models.SignalInputs) (models.Signal, error) {
	if !features.Finite(in.CurrentPrice, in.WeekForecast) {
		return models.Signal{}, fmt.Errorf("%w: %s forecast is not finite", models.ErrDataQuality, in.Asset)
	}
	if in.CurrentPrice <= 0 {
		return models.Signal{}, fmt.Errorf("%w: %s current price %v", models.ErrInvalidInput, in.Asset, in.CurrentPrice)
	}

	factors := map[string]models.Factor{
		FactorForecast:  g.forecastFactor(in),
		FactorMacro:     g.macroFactor(in),
		FactorSentiment: g.sentimentFactor(in.Sentiment),
		FactorTechnical: g.technicalFactor(in.CurrentPrice, in.LongMA),
	}

	sig := models.Signal{
		ID:          uuid.NewString(),
		Asset:       in.Asset,
		EntryPrice:  in.CurrentPrice,
		Factors:     factors,
		Reasons:     []string{},
		GeneratedAt: g.now().UTC(),
	}
	for _, name := range factorOrder {
		f := factors[name]
		if f.Bullish {
			sig.BullishScore += f.Weight
			sig.Reasons = append(sig.Reasons, reason(name, f))
		}
		if f.Bearish {
			sig.BearishScore += f.Weight
			sig.Reasons = append(sig.Reasons, reason(name, f))
		}
	}
	g.decide(&sig, in.WeekForecast)

	g.l.Debug("signal generated",
		applogger.String("asset", sig.Asset),
		applogger.String("direction", string(sig.Direction)),
		applogger.Float64("bullish", sig.BullishScore),
		applogger.Float64("bearish", sig.BearishScore),
	)
	return sig, nil
}

func (g *Generator) decide(sig *models.Signal, target float64) {
	entry := sig.EntryPrice
	switch {
	case sig.BullishScore > g.cfg.DecisionThreshold:
		sig.Direction = models.DirectionBuy
		sig.Confidence = math.Min(sig.BullishScore, 1)
		sig.TargetPrice = target
		sig.StopLoss = entry * (1 - g.cfg.StopLossPct)
	case sig.BearishScore > g.cfg.DecisionThreshold:
		sig.Direction = models.DirectionSell
		sig.Confidence = math.Min(sig.BearishScore, 1)
		sig.TargetPrice = target
		sig.StopLoss = entry * (1 + g.cfg.StopLossPct)
	default:
		sig.Direction = models.DirectionHold
		sig.Confidence = 1 - math.Abs(sig.BullishScore-sig.BearishScore)
		sig.TargetPrice = entry
		sig.StopLoss = entry
	}
	if risk := math.Abs(sig.StopLoss - entry); risk > 0 {
		sig.RiskReward = math.Abs(sig.TargetPrice-entry) / risk
	}
}

func (g *Generator) forecastFactor(in models.SignalInputs) models.Factor {
	pct := features.ChangePct(in.CurrentPrice, in.WeekForecast)
	return models.Factor{
		Bullish:    pct > g.cfg.ForecastMovePct,
		Bearish:    pct < -g.cfg.ForecastMovePct,
		Score:      math.Min(math.Abs(pct)/10, 1),
		Weight:     g.cfg.ForecastWeight,
		Confidence: g.cfg.forecastConfidence(in.Asset, in.Class),
		Detail:     fmt.Sprintf("Forecast: %+.1f%%", pct),
	}
}

func (g *Generator) macroFactor(in models.SignalInputs) models.Factor {
	dxy, vix, yield := defaultDXY, defaultVIX, defaultYield10Y
	if m := in.Macro; m != nil {
		if m.DXY > 0 {
			dxy = m.DXY
		}
		if m.VIX > 0 {
			vix = m.VIX
		}
		if m.Yield10Y != 0 {
			yield = m.Yield10Y
		}
	}
	dovish, stance := fedView(in.Fed)
	rule := g.cfg.macroRule(in.Class)

	var f models.Factor
	switch in.Class {
	case models.ClassMetal:
		f.Bullish = (dxy < 105 && vix > 15) || stance.Bullish()
		f.Bearish = (dxy > 108 && vix < 12) || stance.Bearish()
		f.Detail = fmt.Sprintf("DXY: %.1f, VIX: %.1f, Fed: %s", dxy, vix, stance)
	case models.ClassCrypto:
		f.Bullish = dxy < 104 || dovish > 60
		f.Bearish = dxy > 107 || dovish < 40
		f.Detail = fmt.Sprintf("DXY: %.1f, Fed Dovish Score: %.0f", dxy, dovish)
	default:
		f.Bullish = vix < 18 && stance.Bullish()
		f.Bearish = vix > 25 || stance.Bearish()
		f.Detail = fmt.Sprintf("VIX: %.1f, Yield: %.2f%%, Fed: %s", vix, yield, stance)
	}
	f.Score = coarseScore(f.Bullish, f.Bearish)
	f.Weight = rule.Weight
	f.Confidence = rule.Confidence
	return f
}

func (g *Generator) sentimentFactor(s *models.SentimentReading) models.Factor {
	trend, interest := "stable", 50.0
	community, label := "neutral", "Neutral"
	if s != nil {
		if s.TrendDirection != "" {
			trend = strings.ToLower(s.TrendDirection)
		}
		interest = s.CurrentInterest
		community, label = communitySignal(*s)
	}
	bullish := (trend == "rising" && interest > 60) || community == "bullish"
	bearish := (trend == "falling" && interest < 40) || community == "bearish"
	return models.Factor{
		Bullish:    bullish,
		Bearish:    bearish,
		Score:      coarseScore(bullish, bearish),
		Weight:     g.cfg.SentimentWeight,
		Confidence: g.cfg.SentimentConfidence,
		Detail:     fmt.Sprintf("Trends: %s, Reddit: %s", trend, label),
	}
}

// communitySignal prefers an explicit label and otherwise classifies the
// average polarity score.
func communitySignal(s models.SentimentReading) (string, string) {
	if s.CommunityLabel != "" {
		l := strings.ToLower(s.CommunityLabel)
		switch {
		case strings.Contains(l, "bullish"):
			return "bullish", s.CommunityLabel
		case strings.Contains(l, "bearish"):
			return "bearish", s.CommunityLabel
		default:
			return "neutral", s.CommunityLabel
		}
	}
	switch {
	case s.CommunityScore > 0.3:
		return "bullish", "Very Bullish"
	case s.CommunityScore > 0.1:
		return "bullish", "Bullish"
	case s.CommunityScore < -0.3:
		return "bearish", "Very Bearish"
	case s.CommunityScore < -0.1:
		return "bearish", "Bearish"
	default:
		return "neutral", "Neutral"
	}
}

func (g *Generator) technicalFactor(price, ma float64) models.Factor {
	if ma <= 0 {
		ma = price
	}
	bullish := price > ma*(1+g.cfg.TechnicalBand)
	bearish := price < ma*(1-g.cfg.TechnicalBand)
	return models.Factor{
		Bullish:    bullish,
		Bearish:    bearish,
		Score:      coarseScore(bullish, bearish),
		Weight:     g.cfg.TechnicalWeight,
		Confidence: g.cfg.TechnicalConfidence,
		Detail:     fmt.Sprintf("Price vs EMA90: %+.1f%%", (price/ma-1)*100),
	}
}

func coarseScore(bullish, bearish bool) float64 {
	switch {
	case bullish:
		return scoreBullish
	case bearish:
		return scoreBearish
	default:
		return scoreNeutral
	}
}

func reason(name string, f models.Factor) string {
	return strings.ToUpper(name[:1]) + name[1:] + ": " + f.Detail
}
