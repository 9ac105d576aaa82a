package models

import (
	"errors"
	"math"
	"testing"
	"time"
)

func TestResolveRule(t *testing.T) {
	cases := []struct {
		name   string
		kind   RuleKind
		window int
	}{
		{"EMA_90", RuleSmoothed, 90},
		{"ema_20", RuleSmoothed, 20},
		{"EMA_x", RuleDrifting, 0},
		{"Halving_Cycle", RuleCountdown, 0},
		{"days_to_fomc", RuleCountdown, 0},
		{"DXY", RuleDrifting, 0},
		{"Sentiment", RuleDrifting, 0},
	}
	for _, tc := range cases {
		got := ResolveRule(tc.name)
		if got.Kind != tc.kind || got.Window != tc.window {
			t.Fatalf("%s: got %v/%d want %v/%d", tc.name, got.Kind, got.Window, tc.kind, tc.window)
		}
	}
}

func TestSmoothedAlpha(t *testing.T) {
	r := FeatureRule{Kind: RuleSmoothed, Window: 90}
	if math.Abs(r.Alpha()-2.0/91.0) > 1e-15 {
		t.Fatalf("unexpected alpha %v", r.Alpha())
	}
}

func TestDefaultCatalogue(t *testing.T) {
	cat := DefaultCatalogue()
	if len(cat) != 13 {
		t.Fatalf("expected 13 assets, got %d", len(cat))
	}
	btc := cat["btc"]
	if btc.SequenceLength != 90 || btc.Class != ClassCrypto {
		t.Fatalf("unexpected btc profile %+v", btc)
	}
	if btc.Features[0].Rule.Kind != RulePrice {
		t.Fatalf("feature 0 must be price")
	}
	if i := btc.FeatureIndex("Halving_Cycle"); i < 0 || btc.Features[i].Rule.Kind != RuleCountdown {
		t.Fatalf("halving cycle should count down")
	}
	if cat["SPY"].Class != ClassIndex || cat["AAPL"].Class != ClassEquity {
		t.Fatalf("unexpected stock classes")
	}
	if cat["gold"].FeatureNames()[0] != "Gold" {
		t.Fatalf("gold price column should come first")
	}
}

func TestNewAssetProfileValidation(t *testing.T) {
	if _, err := NewAssetProfile("", "", ClassMetal, []string{"Gold"}, 60); err == nil {
		t.Fatalf("expected error for empty id")
	}
	if _, err := NewAssetProfile("x", "", ClassMetal, nil, 60); err == nil {
		t.Fatalf("expected error for no features")
	}
	if _, err := NewAssetProfile("x", "", ClassMetal, []string{"X"}, 0); err == nil {
		t.Fatalf("expected error for zero sequence length")
	}
	if _, err := NewAssetProfile("x", "", "bond", []string{"X"}, 10); err == nil {
		t.Fatalf("expected error for unknown class")
	}
}

func TestSeriesValidate(t *testing.T) {
	p, err := NewAssetProfile("x", "", ClassEquity, []string{"X", "VIX"}, 2)
	if err != nil {
		t.Fatalf("profile: %v", err)
	}
	day := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	good := HistoricalSeries{
		Dates:  []time.Time{day, day.AddDate(0, 0, 1)},
		Frames: []FeatureFrame{{10, 15}, {11, 16}},
	}
	if err := good.Validate(p); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	unordered := HistoricalSeries{Dates: []time.Time{day, day}, Frames: good.Frames}
	if err := unordered.Validate(p); !errors.Is(err, ErrInvalidSeries) {
		t.Fatalf("expected ErrInvalidSeries, got %v", err)
	}

	nonPositive := HistoricalSeries{Dates: good.Dates, Frames: []FeatureFrame{{10, 15}, {0, 16}}}
	if err := nonPositive.Validate(p); !errors.Is(err, ErrInvalidSeries) {
		t.Fatalf("expected ErrInvalidSeries for zero price, got %v", err)
	}

	nan := HistoricalSeries{Dates: good.Dates, Frames: []FeatureFrame{{10, 15}, {11, math.NaN()}}}
	if err := nan.Validate(p); !errors.Is(err, ErrDataQuality) {
		t.Fatalf("expected ErrDataQuality, got %v", err)
	}

	if tail := good.Tail(1); tail.Len() != 1 || tail.Frames[0][0] != 11 {
		t.Fatalf("unexpected tail %+v", tail)
	}
	if last, ok := good.LastPrice(); !ok || last != 11 {
		t.Fatalf("unexpected last price %v", last)
	}
}
