package signal

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"FinCast/internal/domain/models"
)

func newTestGenerator(t *testing.T) *Generator {
	t.Helper()
	fixed := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	g, err := NewGenerator(DefaultConfig(), WithClock(func() time.Time { return fixed }))
	require.NoError(t, err)
	return g
}

func TestGenerateBuy(t *testing.T) {
	g := newTestGenerator(t)
	sig, err := g.Generate(models.SignalInputs{
		Asset:        "gold",
		Class:        models.ClassMetal,
		CurrentPrice: 100,
		WeekForecast: 105,
		Macro:        &models.MacroReading{DXY: 100, VIX: 20},
		LongMA:       90,
	})
	require.NoError(t, err)

	assert.Equal(t, models.DirectionBuy, sig.Direction)
	assert.InDelta(t, 0.85, sig.BullishScore, 1e-12)
	assert.Equal(t, 0.0, sig.BearishScore)
	assert.InDelta(t, 0.85, sig.Confidence, 1e-12)
	assert.Equal(t, 105.0, sig.TargetPrice)
	assert.InDelta(t, 95.0, sig.StopLoss, 1e-9)
	assert.InDelta(t, 1.0, sig.RiskReward, 1e-9)
	assert.NotEmpty(t, sig.ID)
	assert.Equal(t, 2025, sig.GeneratedAt.Year())

	require.Len(t, sig.Reasons, 3)
	assert.Equal(t, "Forecast: Forecast: +5.0%", sig.Reasons[0])
	assert.Equal(t, "Macro: DXY: 100.0, VIX: 20.0, Fed: neutral", sig.Reasons[1])
	assert.Equal(t, "Technical: Price vs EMA90: +11.1%", sig.Reasons[2])

	f := sig.Factors[FactorForecast]
	assert.InDelta(t, 0.5, f.Score, 1e-12)
	assert.Equal(t, 0.4, f.Weight)
	assert.Equal(t, 0.5, f.Confidence)
	assert.Equal(t, 0.3, sig.Factors[FactorMacro].Weight)
	assert.Equal(t, 0.75, sig.Factors[FactorMacro].Confidence)
}

func TestGenerateSell(t *testing.T) {
	g := newTestGenerator(t)
	sig, err := g.Generate(models.SignalInputs{
		Asset:        "btc",
		Class:        models.ClassCrypto,
		CurrentPrice: 100,
		WeekForecast: 90,
		Macro:        &models.MacroReading{DXY: 110},
	})
	require.NoError(t, err)

	assert.Equal(t, models.DirectionSell, sig.Direction)
	assert.InDelta(t, 0.65, sig.BearishScore, 1e-12)
	assert.Equal(t, 1.0, sig.Factors[FactorForecast].Score)
	assert.InDelta(t, 105.0, sig.StopLoss, 1e-9)
	assert.InDelta(t, 2.0, sig.RiskReward, 1e-9)
	assert.Equal(t, "DXY: 110.0, Fed Dovish Score: 50", sig.Factors[FactorMacro].Detail)
}

func TestGenerateHold(t *testing.T) {
	g := newTestGenerator(t)
	sig, err := g.Generate(models.SignalInputs{
		Asset:        "AAPL",
		Class:        models.ClassEquity,
		CurrentPrice: 200,
		WeekForecast: 202,
	})
	require.NoError(t, err)

	assert.Equal(t, models.DirectionHold, sig.Direction)
	assert.Equal(t, 1.0, sig.Confidence)
	assert.Equal(t, 200.0, sig.TargetPrice)
	assert.Equal(t, 200.0, sig.StopLoss)
	assert.Equal(t, 0.0, sig.RiskReward)
	assert.Empty(t, sig.Reasons)
	assert.Equal(t, "VIX: 15.0, Yield: 4.00%, Fed: neutral", sig.Factors[FactorMacro].Detail)
	assert.Equal(t, "Trends: stable, Reddit: Neutral", sig.Factors[FactorSentiment].Detail)
}

func TestGenerateRejectsBadInputs(t *testing.T) {
	g := newTestGenerator(t)
	_, err := g.Generate(models.SignalInputs{Asset: "x", Class: models.ClassEquity, CurrentPrice: 100, WeekForecast: math.NaN()})
	assert.True(t, errors.Is(err, models.ErrDataQuality))

	_, err = g.Generate(models.SignalInputs{Asset: "x", Class: models.ClassEquity, CurrentPrice: 0, WeekForecast: 1})
	assert.True(t, errors.Is(err, models.ErrInvalidInput))
}

func TestDecisionMatchesScores(t *testing.T) {
	g := newTestGenerator(t)
	threshold := DefaultConfig().DecisionThreshold
	classes := []models.AssetClass{models.ClassMetal, models.ClassCrypto, models.ClassEquity}
	forecasts := []float64{80, 97, 100, 103, 120}
	dxys := []float64{100, 106, 110}
	vixes := []float64{10, 20, 30}
	mas := []float64{0, 90, 110}
	feds := []*models.FedReading{nil, {ProbCut: 0.9, ProbHold: 0.1}, {ProbHike: 1}}
	trends := []*models.SentimentReading{nil, {TrendDirection: "rising", CurrentInterest: 80}, {CommunityScore: -0.5}}

	for _, class := range classes {
		for _, wf := range forecasts {
			for _, dxy := range dxys {
				for _, vix := range vixes {
					for _, ma := range mas {
						for _, fed := range feds {
							for _, s := range trends {
								sig, err := g.Generate(models.SignalInputs{
									Asset: "x", Class: class, CurrentPrice: 100, WeekForecast: wf,
									Macro: &models.MacroReading{DXY: dxy, VIX: vix}, Fed: fed, Sentiment: s, LongMA: ma,
								})
								require.NoError(t, err)
								want := models.DirectionHold
								if sig.BullishScore > threshold {
									want = models.DirectionBuy
								} else if sig.BearishScore > threshold {
									want = models.DirectionSell
								}
								require.Equal(t, want, sig.Direction, "%+v", sig)
								require.GreaterOrEqual(t, sig.Confidence, 0.0)
								require.LessOrEqual(t, sig.Confidence, 1.0)
							}
						}
					}
				}
			}
		}
	}
}

func TestFedStance(t *testing.T) {
	assert.Equal(t, 95.0, DovishScore(models.FedReading{ProbCut: 0.9, ProbHold: 0.1}))
	assert.Equal(t, StanceDovish, StanceOf(70))
	assert.Equal(t, StanceHawkish, StanceOf(20))
	assert.Equal(t, StanceNeutral, StanceOf(50))
	assert.Equal(t, StanceNeutral, StanceOf(65))
}

func TestCommunitySignal(t *testing.T) {
	sig, label := communitySignal(models.SentimentReading{CommunityScore: 0.2})
	assert.Equal(t, "bullish", sig)
	assert.Equal(t, "Bullish", label)

	sig, label = communitySignal(models.SentimentReading{CommunityScore: 0.9, CommunityLabel: "Very Bearish"})
	assert.Equal(t, "bearish", sig)
	assert.Equal(t, "Very Bearish", label)
}
