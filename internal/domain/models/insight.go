package models

import "time"

// Insights is the qualitative reading of one forecast path.
type Insights struct {
	Asset           string    `json:"asset"`
	CurrentPrice    float64   `json:"current_price"`
	FinalPrice      float64   `json:"final_price"`
	TotalChangePct  float64   `json:"total_change_pct"`
	Trend           string    `json:"trend"`
	Strength        string    `json:"strength"`
	Volatility      string    `json:"volatility"`
	VolatilityScore float64   `json:"volatility_score"`
	RiskLevel       string    `json:"risk_level"`
	KeyLevels       []float64 `json:"key_levels"`
	Summary         string    `json:"summary"`
	Recommendation  string    `json:"recommendation"`
}

type Ranking struct {
	Asset     string  `json:"asset"`
	ChangePct float64 `json:"change_pct"`
}

// Comparison ranks several forecasts by expected change.
type Comparison struct {
	Rankings []Ranking `json:"rankings"`
	Best     string    `json:"best"`
	Worst    string    `json:"worst"`
	Summary  string    `json:"summary"`
}

// SignalBatch aggregates per-asset signals; per-asset failures land in Errors.
type SignalBatch struct {
	RunID       string              `json:"run_id"`
	GeneratedAt time.Time           `json:"generated_at"`
	Signals     map[string]Signal   `json:"signals"`
	Insights    map[string]Insights `json:"insights,omitempty"`
	Errors      map[string]string   `json:"errors,omitempty"`
}
