package insight

import (
	"errors"
	"math"
	"reflect"
	"testing"

	"FinCast/internal/domain/models"
)

func TestAnalyzeBullish(t *testing.T) {
	in, err := Analyze(100, models.ForecastPath{102, 105, 108, 112, 115, 118, 120}, "X")
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	if in.Trend != TrendBullish || in.Strength != StrengthStrong {
		t.Fatalf("unexpected classification %s/%s", in.Trend, in.Strength)
	}
	if in.Volatility != LevelLow || in.RiskLevel != LevelMedium {
		t.Fatalf("unexpected risk %s/%s (vol %v)", in.Volatility, in.RiskLevel, in.VolatilityScore)
	}
	if want := []float64{95, 100, 105, 120}; !reflect.DeepEqual(in.KeyLevels, want) {
		t.Fatalf("key levels %v, want %v", in.KeyLevels, want)
	}
	wantSummary := "X forecast shows strong upward momentum with an expected 20.0% gain over the forecast period. Market volatility is assessed as low."
	if in.Summary != wantSummary {
		t.Fatalf("summary %q", in.Summary)
	}
	wantRec := "Consider accumulating on dips. Target: $120.00. Set stop-loss below $100.00 support."
	if in.Recommendation != wantRec {
		t.Fatalf("recommendation %q", in.Recommendation)
	}
}

func TestAnalyzeBearish(t *testing.T) {
	in, err := Analyze(500, models.ForecastPath{495, 485, 470, 460, 450, 445, 440}, "QQQ")
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	if in.Trend != TrendBearish || in.Strength != StrengthModerate || in.RiskLevel != LevelMedium {
		t.Fatalf("unexpected %+v", in)
	}
	if in.Recommendation != "Consider taking profits or reducing exposure. Watch for support at $475.00." {
		t.Fatalf("recommendation %q", in.Recommendation)
	}
}

func TestAnalyzeNeutral(t *testing.T) {
	in, err := Analyze(2000, models.ForecastPath{2010}, "gold")
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	if in.Trend != TrendNeutral || in.Strength != StrengthWeak || in.VolatilityScore != 0 {
		t.Fatalf("unexpected %+v", in)
	}
	if in.Recommendation != "Hold current positions. Wait for clearer directional signals. Range: $1,900.00 - $2,100.00." {
		t.Fatalf("recommendation %q", in.Recommendation)
	}
}

func TestAnalyzeHighVolatility(t *testing.T) {
	in, err := Analyze(100, models.ForecastPath{100, 110, 95, 108, 96, 101}, "btc")
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	if in.Volatility != LevelHigh || in.RiskLevel != LevelHigh {
		t.Fatalf("unexpected %s/%s", in.Volatility, in.RiskLevel)
	}
}

func TestAnalyzeRejectsBadInput(t *testing.T) {
	if _, err := Analyze(100, nil, "x"); !errors.Is(err, models.ErrInvalidInput) {
		t.Fatalf("empty path: %v", err)
	}
	if _, err := Analyze(0, models.ForecastPath{1}, "x"); !errors.Is(err, models.ErrInvalidInput) {
		t.Fatalf("zero price: %v", err)
	}
	if _, err := Analyze(100, models.ForecastPath{math.Inf(1)}, "x"); !errors.Is(err, models.ErrDataQuality) {
		t.Fatalf("infinite path: %v", err)
	}
}

func TestKeyLevelsDeduplicate(t *testing.T) {
	got := KeyLevels(100, 100.001)
	if want := []float64{95, 100, 105}; !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestMoney(t *testing.T) {
	cases := map[float64]string{
		12:          "12.00",
		999.999:     "1,000.00",
		1234567.891: "1,234,567.89",
		-1234.5:     "-1,234.50",
	}
	for in, want := range cases {
		if got := Money(in); got != want {
			t.Fatalf("Money(%v) = %q, want %q", in, got, want)
		}
	}
}

func TestCompare(t *testing.T) {
	cmp, err := Compare(map[string]models.ForecastPath{
		"A": {100, 110},
		"B": {100, 90},
		"C": {50, 55},
		"D": {},
	}, map[string]float64{"A": 100})
	if err != nil {
		t.Fatalf("compare: %v", err)
	}
	if cmp.Best != "A" || cmp.Worst != "B" || len(cmp.Rankings) != 3 {
		t.Fatalf("unexpected %+v", cmp)
	}
	if cmp.Summary != "Best outlook: A (+10.0%). Weakest: B (-10.0%)." {
		t.Fatalf("summary %q", cmp.Summary)
	}
	if _, err := Compare(nil, nil); !errors.Is(err, models.ErrInvalidInput) {
		t.Fatalf("expected error for empty input, got %v", err)
	}
}
