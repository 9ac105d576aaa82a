package models

import "time"

// ForecastPath holds N price predictions; index 0 is one step past the last
// historical date.
type ForecastPath []float64

// Last returns the final predicted price or 0 for an empty path.
func (p ForecastPath) Last() float64 {
	if len(p) == 0 {
		return 0
	}
	return p[len(p)-1]
}

// At returns the price after `steps` steps (1-based), clamped to the path.
func (p ForecastPath) At(steps int) (float64, bool) {
	if len(p) == 0 || steps <= 0 {
		return 0, false
	}
	if steps > len(p) {
		steps = len(p)
	}
	return p[steps-1], true
}

// Clone copies the path.
func (p ForecastPath) Clone() ForecastPath {
	if p == nil {
		return nil
	}
	out := make(ForecastPath, len(p))
	copy(out, p)
	return out
}

// ForecastResult is one asset's element of a forecast batch. An asset whose
// model or normalizer is missing is Degraded and reports the current price.
type ForecastResult struct {
	Asset        string       `json:"asset"`
	Name         string       `json:"name"`
	CurrentPrice float64      `json:"current_price"`
	AsOf         time.Time    `json:"as_of"`
	Steps        int          `json:"steps"`
	Path         ForecastPath `json:"path"`
	Adjusted     bool         `json:"adjusted"`
	Degraded     bool         `json:"degraded"`
	Error        string       `json:"error,omitempty"`
	Notes        []string     `json:"notes,omitempty"`
}

// Predicted is the final price, or the current price when degraded.
func (r ForecastResult) Predicted() float64 {
	if r.Degraded || len(r.Path) == 0 {
		return r.CurrentPrice
	}
	return r.Path.Last()
}

// BatchForecast groups per-asset results produced by one request.
type BatchForecast struct {
	RunID       string                    `json:"run_id"`
	GeneratedAt time.Time                 `json:"generated_at"`
	Steps       int                       `json:"steps"`
	Anchor      string                    `json:"anchor,omitempty"`
	Strength    float64                   `json:"strength"`
	Results     map[string]ForecastResult `json:"results"`
	Validation  *ValidationReport         `json:"validation,omitempty"`
	Notes       []string                  `json:"notes,omitempty"`
	Errors      map[string]string         `json:"errors,omitempty"`
}

// NextDayPrediction is the one-step summary for an asset.
type NextDayPrediction struct {
	Asset     string  `json:"asset"`
	Current   float64 `json:"current"`
	Predicted float64 `json:"predicted"`
	Change    float64 `json:"change"`
	PctChange float64 `json:"pct_change"`
	Direction string  `json:"direction"`
	Degraded  bool    `json:"degraded,omitempty"`
	Error     string  `json:"error,omitempty"`
}

// Horizon is a named forecast range measured in trading steps.
type Horizon struct {
	Label string `json:"label"`
	Steps int    `json:"steps"`
}

type RangePoint struct {
	Label string  `json:"label"`
	Steps int     `json:"steps"`
	Price float64 `json:"price"`
}

// RangeForecast reads every named horizon off a single recursive run.
type RangeForecast struct {
	Asset    string       `json:"asset"`
	Current  float64      `json:"current"`
	Ranges   []RangePoint `json:"ranges"`
	Degraded bool         `json:"degraded,omitempty"`
	Error    string       `json:"error,omitempty"`
}

// BetaProfile measures an asset's sensitivity to the anchor.
type BetaProfile struct {
	Beta         float64 `json:"beta"`
	Correlation  float64 `json:"correlation"`
	Observations int     `json:"observations"`
}

// AssetValidation reports how a corrected path relates to the anchor.
type AssetValidation struct {
	Asset                 string  `json:"asset"`
	ChangePct             float64 `json:"change_pct"`
	PredictionCorrelation float64 `json:"prediction_correlation"`
	HistoricalCorrelation float64 `json:"historical_correlation"`
	Beta                  float64 `json:"beta"`
	SameSignAsReference   bool    `json:"same_sign_as_reference"`
}

type ValidationReport struct {
	Reference          string            `json:"reference"`
	ReferenceChangePct float64           `json:"reference_change_pct"`
	Assets             []AssetValidation `json:"assets"`
}
