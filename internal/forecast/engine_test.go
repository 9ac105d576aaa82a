package forecast

import (
	"context"
	"errors"
	"math"
	"testing"

	"FinCast/internal/domain/models"
)

func newTestEngine(t *testing.T, opts ...Option) *Engine {
	t.Helper()
	e, err := NewEngine(DefaultConfig(), opts...)
	if err != nil {
		t.Fatalf("engine: %v", err)
	}
	return e
}

func TestForecastIdentityModelHoldsPrice(t *testing.T) {
	e := newTestEngine(t)
	path, err := e.Forecast(context.Background(), testSeries(120, 100), testProfile(60), identity(), testScaler(), 10)
	if err != nil {
		t.Fatalf("forecast: %v", err)
	}
	if len(path) != 10 {
		t.Fatalf("len = %d", len(path))
	}
	for i, v := range path {
		if math.Abs(v-100) > 1e-9 {
			t.Fatalf("step %d = %v, want 100", i, v)
		}
	}
}

func TestForecastClipsAndDecaysTrust(t *testing.T) {
	var infos []StepInfo
	e := newTestEngine(t, WithObserver(func(asset string, s StepInfo) {
		if asset != "gold" {
			t.Errorf("unexpected asset %q", asset)
		}
		infos = append(infos, s)
	}))
	cfg := e.Config()

	path, err := e.Forecast(context.Background(), testSeries(120, 100), testProfile(60), shift(1), testScaler(), 50)
	if err != nil {
		t.Fatalf("forecast: %v", err)
	}
	if len(infos) != 50 {
		t.Fatalf("observed %d steps", len(infos))
	}
	for i, s := range infos {
		if math.Abs(s.Delta) > cfg.MaxStepDelta+1e-15 {
			t.Fatalf("step %d delta %v exceeds bound", i, s.Delta)
		}
		if i > 0 && s.Trust > infos[i-1].Trust {
			t.Fatalf("trust increased at step %d", i)
		}
		if s.Trust < cfg.TrustFloor {
			t.Fatalf("trust %v below floor", s.Trust)
		}
	}
	if infos[0].Trust != 1 || infos[0].AnchorPull != 0 {
		t.Fatalf("first step should be fully trusted, got %+v", infos[0])
	}
	if !(path[0] > 100) {
		t.Fatalf("bullish model should raise the first step, got %v", path[0])
	}
}

func TestForecastFloorsPrice(t *testing.T) {
	e := newTestEngine(t)
	path, err := e.Forecast(context.Background(), testSeries(120, 100), testProfile(60), shift(-1), testScaler(), 100)
	if err != nil {
		t.Fatalf("forecast: %v", err)
	}
	floor := e.Config().FloorRatio * 100
	for i, v := range path {
		if v < floor {
			t.Fatalf("step %d = %v below floor %v", i, v, floor)
		}
	}
	if path.Last() != floor {
		t.Fatalf("expected collapse to floor, got %v", path.Last())
	}
}

func TestForecastDeterministic(t *testing.T) {
	e := newTestEngine(t)
	s := testSeries(200, 150)
	a, err := e.Forecast(context.Background(), s, testProfile(60), shift(0.003), testScaler(), 30)
	if err != nil {
		t.Fatalf("forecast: %v", err)
	}
	b, _ := e.Forecast(context.Background(), s, testProfile(60), shift(0.003), testScaler(), 30)
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("step %d differs: %v vs %v", i, a[i], b[i])
		}
	}
	if s.Frames[len(s.Frames)-1][0] != 150 {
		t.Fatalf("series must not be mutated")
	}
}

func TestForecastErrors(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()
	profile := testProfile(60)

	cases := []struct {
		name   string
		series models.HistoricalSeries
		reg    regressorFunc
		steps  int
		want   error
	}{
		{"short history", testSeries(60, 100), identity(), 5, models.ErrInsufficientHistory},
		{"zero steps", testSeries(120, 100), identity(), 0, models.ErrInvalidSteps},
		{"model failure", testSeries(120, 100), func(float64) (float64, error) { return 0, errors.New("boom") }, 5, models.ErrModelUnavailable},
		{"nan prediction", testSeries(120, 100), func(float64) (float64, error) { return math.NaN(), nil }, 5, models.ErrDataQuality},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := e.Forecast(ctx, tc.series, profile, tc.reg, testScaler(), tc.steps)
			if !errors.Is(err, tc.want) {
				t.Fatalf("got %v, want %v", err, tc.want)
			}
		})
	}
}

func TestForecastStepCap(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxSteps = 30
	e, err := NewEngine(cfg)
	if err != nil {
		t.Fatalf("engine: %v", err)
	}
	_, err = e.Forecast(context.Background(), testSeries(120, 100), testProfile(60), identity(), testScaler(), 31)
	if !errors.Is(err, models.ErrInvalidSteps) {
		t.Fatalf("got %v", err)
	}
}

func TestForecastStepArithmetic(t *testing.T) {
	const d = 0.001
	var infos []StepInfo
	e := newTestEngine(t, WithObserver(func(_ string, s StepInfo) { infos = append(infos, s) }))
	cfg := e.Config()

	path, err := e.Forecast(context.Background(), testSeries(120, 100), testProfile(60), shift(d), testScaler(), 400)
	if err != nil {
		t.Fatalf("forecast: %v", err)
	}
	if len(path) != 400 {
		t.Fatalf("len = %d", len(path))
	}

	start := (100.0 - 1000) / 2000
	decay := cfg.DecayFor(models.ClassMetal)
	for _, i := range []int{1, 200, 399} {
		prev := infos[i-1].Price
		trust := math.Max(cfg.TrustFloor, 1-float64(i)/cfg.TrustHorizon)
		movement := d * decay * trust
		anchor := (start - prev) * (1 - trust) * cfg.AnchorPull

		got := infos[i]
		if math.Abs(got.Trust-trust) > 1e-12 {
			t.Fatalf("step %d trust %v, want %v", i, got.Trust, trust)
		}
		if math.Abs(got.Movement-movement) > 1e-12 {
			t.Fatalf("step %d movement %v, want %v", i, got.Movement, movement)
		}
		if math.Abs(got.AnchorPull-anchor) > 1e-12 {
			t.Fatalf("step %d anchor pull %v, want %v", i, got.AnchorPull, anchor)
		}
		if math.Abs(got.Price-(prev+movement+anchor)) > 1e-12 {
			t.Fatalf("step %d price %v, want %v", i, got.Price, prev+movement+anchor)
		}
		if math.Abs(path[i]-(got.Price*2000+1000)) > 1e-9 {
			t.Fatalf("step %d real price %v does not invert %v", i, path[i], got.Price)
		}
	}
	if infos[399].Trust != cfg.TrustFloor {
		t.Fatalf("trust past the horizon should sit at the floor, got %v", infos[399].Trust)
	}
	if !(infos[200].AnchorPull < 0) {
		t.Fatalf("price above start should be pulled down, got %v", infos[200].AnchorPull)
	}
}

func TestForecastMissingArtifacts(t *testing.T) {
	e := newTestEngine(t)
	path, err := e.Forecast(context.Background(), testSeries(120, 100), testProfile(60), nil, testScaler(), 5)
	if err != nil || len(path) != 0 {
		t.Fatalf("expected empty path without error, got %v %v", path, err)
	}
	path, err = e.Forecast(context.Background(), testSeries(120, 100), testProfile(60), identity(), nil, 5)
	if err != nil || len(path) != 0 {
		t.Fatalf("expected empty path without error, got %v %v", path, err)
	}
}

func TestForecastWidthMismatch(t *testing.T) {
	e := newTestEngine(t)
	narrow := scaler{offset: []float64{0, 0}, span: []float64{1, 1}}
	_, err := e.Forecast(context.Background(), testSeries(120, 100), testProfile(60), identity(), narrow, 5)
	if !errors.Is(err, models.ErrInvalidInput) {
		t.Fatalf("got %v", err)
	}
}

func TestForecastCancelled(t *testing.T) {
	e := newTestEngine(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := e.Forecast(ctx, testSeries(120, 100), testProfile(60), identity(), testScaler(), 5)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("got %v", err)
	}
}

func TestMultiRangeReadsSingleRun(t *testing.T) {
	e := newTestEngine(t)
	s := testSeries(300, 200)
	points, err := e.MultiRange(context.Background(), s, testProfile(60), shift(0.002), testScaler(), nil)
	if err != nil {
		t.Fatalf("multi range: %v", err)
	}
	if len(points) != len(DefaultHorizons) {
		t.Fatalf("got %d points", len(points))
	}
	week, err := e.Forecast(context.Background(), s, testProfile(60), shift(0.002), testScaler(), 5)
	if err != nil {
		t.Fatalf("forecast: %v", err)
	}
	if points[1].Label != "1 Week" || points[1].Price != week.Last() {
		t.Fatalf("week point %+v, want %v", points[1], week.Last())
	}
	if points[len(points)-1].Steps != 252 {
		t.Fatalf("last horizon %+v", points[len(points)-1])
	}
}

func TestNextDay(t *testing.T) {
	nd := NextDay("gold", 100, models.ForecastPath{101, 102})
	if nd.Direction != "up" || !almost(nd.PctChange, 1) || nd.Change != 1 {
		t.Fatalf("unexpected %+v", nd)
	}
	if nd := NextDay("gold", 100, models.ForecastPath{99}); nd.Direction != "down" {
		t.Fatalf("unexpected %+v", nd)
	}
	if nd := NextDay("gold", 100, nil); !nd.Degraded || nd.Predicted != 100 {
		t.Fatalf("unexpected %+v", nd)
	}
}
