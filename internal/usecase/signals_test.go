package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"FinCast/internal/domain/models"
	domsvc "FinCast/internal/domain/service"
	"FinCast/internal/forecast"
	"FinCast/internal/signal"
	"FinCast/pkg/config"
)

type signalFixture struct {
	fixture
	uc        *SignalUseCase
	journal   *memJournal
	publisher *memPublisher
	notifier  *memNotifier
}

func newSignalFixture(t *testing.T) signalFixture {
	t.Helper()
	gen, err := signal.NewGenerator(signal.DefaultConfig())
	require.NoError(t, err)

	f := signalFixture{
		fixture:   newFixture(t),
		journal:   &memJournal{},
		publisher: &memPublisher{},
		notifier:  &memNotifier{},
	}
	f.uc = NewSignalUseCase(SignalConfig{WeekSteps: 5}, f.fixture.uc, gen,
		WithSignalJournal(f.journal),
		WithSignalPublisher(f.publisher),
		WithSignalNotifier(f.notifier),
	)
	return f
}

func TestGenerateSignalDispatches(t *testing.T) {
	f := newSignalFixture(t)

	sig, err := f.uc.Generate(context.Background(), models.SignalRequest{Asset: "SPY"})
	require.NoError(t, err)

	assert.Equal(t, "SPY", sig.Asset)
	assert.NotEmpty(t, sig.ID)
	assert.Greater(t, sig.EntryPrice, 0.0)
	assert.True(t, sig.Factors[signal.FactorForecast].Bullish, "rising path is a bullish forecast")
	assert.Contains(t, []models.Direction{models.DirectionBuy, models.DirectionHold}, sig.Direction)

	require.Len(t, f.journal.signals, 1)
	require.Len(t, f.publisher.sent, 1)
	require.Len(t, f.notifier.got, 1)
	assert.Equal(t, sig.ID, f.notifier.got[0].ID)

	recent, err := f.uc.Recent(context.Background(), "SPY", 0)
	require.NoError(t, err)
	require.Len(t, recent, 1)
	assert.Equal(t, sig.ID, recent[0].ID)
}

func TestGenerateSignalUnknownAsset(t *testing.T) {
	f := newSignalFixture(t)
	_, err := f.uc.Generate(context.Background(), models.SignalRequest{Asset: "ZZZ"})
	assert.ErrorIs(t, err, models.ErrUnknownAsset)
	assert.Empty(t, f.journal.signals)
}

func TestSignalBatch(t *testing.T) {
	f := newSignalFixture(t)

	out, err := f.uc.Batch(context.Background(), models.SignalBatchRequest{
		Assets: []string{"SPY", "AAA", "BBB", "ZZZ"},
		Sentiment: map[string]models.SentimentReading{
			"AAA": {CommunityLabel: "bearish", TrendDirection: "falling"},
		},
	})
	require.NoError(t, err)

	assert.Len(t, out.Signals, 2)
	assert.Contains(t, out.Errors, "ZZZ")
	assert.Contains(t, out.Errors["BBB"], models.ErrModelUnavailable.Error())
	assert.NotEmpty(t, out.RunID)

	require.Contains(t, out.Insights, "SPY")
	assert.Equal(t, "bullish", out.Insights["SPY"].Trend)
	assert.Contains(t, out.Insights, "AAA")
	assert.NotContains(t, out.Insights, "BBB")
	assert.NotContains(t, out.Signals, "BBB")

	assert.True(t, out.Signals["AAA"].Factors[signal.FactorForecast].Bearish)
	assert.Len(t, f.publisher.sent, 2)
	assert.Len(t, f.journal.signals, 2)
}

func TestGenerateSignalDegradedAsset(t *testing.T) {
	f := newSignalFixture(t)

	_, err := f.uc.Generate(context.Background(), models.SignalRequest{Asset: "BBB"})
	assert.ErrorIs(t, err, models.ErrModelUnavailable)

	assert.Empty(t, f.journal.signals)
	assert.Empty(t, f.publisher.sent)
	assert.Empty(t, f.notifier.got)
}

func TestSignalMacroFromHistory(t *testing.T) {
	engine, err := forecast.NewEngine(forecast.DefaultConfig())
	require.NoError(t, err)
	gen, err := signal.NewGenerator(signal.DefaultConfig())
	require.NoError(t, err)

	spy := history("SPY", 300, 1, 100)
	for i := range spy.Frames {
		spy.Frames[i][1] = 35
	}
	forecasts := NewForecastUseCase(
		ForecastConfig{Anchor: "SPY", Lookback: 252, MinOverlap: 50, Strength: 0.7, BatchTimeout: 5 * time.Second},
		map[string]models.AssetProfile{"SPY": profile("SPY")},
		memSeries{"SPY": spy},
		fakeRegistry{
			regressors: map[string]domsvc.Regressor{"SPY": &shift{d: 0.001}},
			norm:       scaler{offset: []float64{0, 0}, span: []float64{1000, 100}},
		},
		engine,
	)
	uc := NewSignalUseCase(SignalConfig{WeekSteps: 5}, forecasts, gen)

	sig, err := uc.Generate(context.Background(), models.SignalRequest{Asset: "SPY"})
	require.NoError(t, err)
	macro := sig.Factors[signal.FactorMacro]
	assert.True(t, macro.Bearish, "VIX 35 in the last row is risk-off")
	assert.Contains(t, macro.Detail, "VIX: 35.0")

	sig, err = uc.Generate(context.Background(), models.SignalRequest{
		Asset: "SPY",
		Macro: &models.MacroReading{VIX: 14},
	})
	require.NoError(t, err)
	macro = sig.Factors[signal.FactorMacro]
	assert.False(t, macro.Bearish)
	assert.Contains(t, macro.Detail, "VIX: 14.0")
}

func TestLatestMacro(t *testing.T) {
	p, err := models.NewAssetProfile("gold", "Gold", models.ClassMetal, []string{"Gold", "DXY", "VIX", "Yield_10Y"}, 2)
	require.NoError(t, err)
	s := models.HistoricalSeries{Frames: []models.FeatureFrame{{1900, 101, 14, 4.1}, {1910, 103, 16, 4.3}}}

	m := latestMacro(p, s, nil)
	require.NotNil(t, m)
	assert.Equal(t, models.MacroReading{DXY: 103, VIX: 16, Yield10Y: 4.3}, *m)

	m = latestMacro(p, s, &models.MacroReading{DXY: 99})
	assert.Equal(t, models.MacroReading{DXY: 99, VIX: 16, Yield10Y: 4.3}, *m)

	bare, err := models.NewAssetProfile("X", "X", models.ClassEquity, []string{"X"}, 2)
	require.NoError(t, err)
	assert.Nil(t, latestMacro(bare, models.HistoricalSeries{Frames: []models.FeatureFrame{{1}, {2}}}, nil))
}

func TestSignalBatchRejectsEmpty(t *testing.T) {
	f := newSignalFixture(t)
	_, err := f.uc.Batch(context.Background(), models.SignalBatchRequest{})
	assert.ErrorIs(t, err, models.ErrInvalidInput)
}

func TestInsightUseCase(t *testing.T) {
	f := newFixture(t)
	uc := NewInsightUseCase(f.uc)

	ins, err := uc.Analyze(models.AnalyzeRequest{Asset: "SPY", CurrentPrice: 100, Path: []float64{102, 105, 110, 120}})
	require.NoError(t, err)
	assert.Equal(t, "bullish", ins.Trend)
	assert.Equal(t, "SPY Inc", ins.Asset)

	ins, err = uc.ForAsset(context.Background(), "AAA", 10)
	require.NoError(t, err)
	assert.Equal(t, "bearish", ins.Trend)

	_, err = uc.ForAsset(context.Background(), "BBB", 10)
	assert.ErrorIs(t, err, models.ErrModelUnavailable)

	cmp, err := uc.Compare(context.Background(), []string{"SPY", "AAA", "BBB"}, 5)
	require.NoError(t, err)
	assert.Equal(t, "SPY", cmp.Best)
	assert.Len(t, cmp.Rankings, 2)
}

func TestBuildCatalogue(t *testing.T) {
	base := models.DefaultCatalogue()
	cat, err := BuildCatalogue(base, []config.AssetConfig{
		{ID: "gold", SequenceLength: 30},
		{ID: "ETH", Class: "crypto", Features: []string{"ETH", "DXY", "EMA_20"}},
	})
	require.NoError(t, err)

	assert.Equal(t, 30, cat["gold"].SequenceLength)
	assert.Equal(t, base["gold"].FeatureNames(), cat["gold"].FeatureNames())
	assert.Equal(t, 60, base["gold"].SequenceLength, "base is not modified")

	eth := cat["ETH"]
	assert.Equal(t, models.ClassCrypto, eth.Class)
	assert.Equal(t, defaultSequenceLength, eth.SequenceLength)
	assert.Equal(t, models.RuleSmoothed, eth.Features[2].Rule.Kind)

	_, err = BuildCatalogue(base, []config.AssetConfig{{ID: "NEW"}})
	assert.Error(t, err)
}
