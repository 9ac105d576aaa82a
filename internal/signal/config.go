package signal

import (
	"fmt"

	"FinCast/internal/domain/models"
)

// MacroRule is the weight and confidence of the macro factor for a class.
type MacroRule struct {
	Weight     float64
	Confidence float64
}

// Config is the factor table and decision thresholds.
type Config struct {
	// DecisionThreshold is the summed weight a side needs to win.
	DecisionThreshold float64
	StopLossPct       float64

	// ForecastMovePct is the one-week move that makes the forecast factor directional.
	ForecastMovePct float64
	ForecastWeight  float64
	// ForecastConfidence is keyed by asset id, then by class; DefaultConfidence covers the rest.
	ForecastConfidence map[string]float64
	DefaultConfidence  float64

	Macro map[models.AssetClass]MacroRule

	SentimentWeight     float64
	SentimentConfidence float64
	TechnicalWeight     float64
	TechnicalConfidence float64
	// TechnicalBand is the fraction above or below the long average that counts.
	TechnicalBand float64
}

func DefaultConfig() Config {
	return Config{
		DecisionThreshold:  0.55,
		StopLossPct:        0.05,
		ForecastMovePct:    2,
		ForecastWeight:     0.4,
		ForecastConfidence: map[string]float64{},
		DefaultConfidence:  0.5,
		Macro: map[models.AssetClass]MacroRule{
			models.ClassMetal:  {Weight: 0.30, Confidence: 0.75},
			models.ClassCrypto: {Weight: 0.25, Confidence: 0.65},
			models.ClassEquity: {Weight: 0.25, Confidence: 0.70},
			models.ClassIndex:  {Weight: 0.25, Confidence: 0.70},
		},
		SentimentWeight:     0.2,
		SentimentConfidence: 0.60,
		TechnicalWeight:     0.15,
		TechnicalConfidence: 0.65,
		TechnicalBand:       0.01,
	}
}

func (c Config) Validate() error {
	if c.DecisionThreshold <= 0 || c.DecisionThreshold >= 1 {
		return fmt.Errorf("signal config: decision threshold must be in (0,1)")
	}
	if c.StopLossPct <= 0 || c.StopLossPct >= 1 {
		return fmt.Errorf("signal config: stop loss must be in (0,1)")
	}
	for _, w := range []float64{c.ForecastWeight, c.SentimentWeight, c.TechnicalWeight} {
		if w < 0 || w > 1 {
			return fmt.Errorf("signal config: weights must be in [0,1]")
		}
	}
	return nil
}

func (c Config) forecastConfidence(asset string, class models.AssetClass) float64 {
	if v, ok := c.ForecastConfidence[asset]; ok {
		return v
	}
	if v, ok := c.ForecastConfidence[string(class)]; ok {
		return v
	}
	return c.DefaultConfidence
}

func (c Config) macroRule(class models.AssetClass) MacroRule {
	if r, ok := c.Macro[class]; ok {
		return r
	}
	return MacroRule{Weight: 0.25, Confidence: 0.70}
}
