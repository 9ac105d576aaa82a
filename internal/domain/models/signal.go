package models

import "time"

type Direction string

const (
	DirectionBuy  Direction = "BUY"
	DirectionSell Direction = "SELL"
	DirectionHold Direction = "HOLD"
)

// Factor is one named contributor to a signal decision.
type Factor struct {
	Bullish    bool    `json:"bullish"`
	Bearish    bool    `json:"bearish"`
	Score      float64 `json:"score"`
	Weight     float64 `json:"weight"`
	Confidence float64 `json:"confidence"`
	Detail     string  `json:"detail"`
}

// Signal is a trading decision with risk parameters.
type Signal struct {
	ID           string            `json:"id" db:"id"`
	Asset        string            `json:"asset" db:"asset"`
	Direction    Direction         `json:"direction" db:"direction"`
	Confidence   float64           `json:"confidence" db:"confidence"`
	EntryPrice   float64           `json:"entry_price" db:"entry_price"`
	TargetPrice  float64           `json:"target_price" db:"target_price"`
	StopLoss     float64           `json:"stop_loss" db:"stop_loss"`
	RiskReward   float64           `json:"risk_reward" db:"risk_reward"`
	BullishScore float64           `json:"bullish_score" db:"bullish_score"`
	BearishScore float64           `json:"bearish_score" db:"bearish_score"`
	Reasons      []string          `json:"reasons" db:"-"`
	Factors      map[string]Factor `json:"factors" db:"-"`
	GeneratedAt  time.Time         `json:"generated_at" db:"generated_at"`
}

// MacroReading carries dollar strength, volatility and yield levels.
type MacroReading struct {
	DXY      float64 `json:"dxy"`
	VIX      float64 `json:"vix"`
	Yield10Y float64 `json:"yield_10y"`
}

// FedReading carries policy-rate probabilities from futures pricing.
type FedReading struct {
	ProbCut  float64 `json:"prob_cut"`
	ProbHold float64 `json:"prob_hold"`
	ProbHike float64 `json:"prob_hike"`
}

// SentimentReading combines search interest and community sentiment.
type SentimentReading struct {
	TrendDirection  string  `json:"trend_direction"` // rising, falling, stable
	CurrentInterest float64 `json:"current_interest"`
	CommunityScore  float64 `json:"community_score"`
	CommunityLabel  string  `json:"community_label"` // bullish, bearish, neutral
}

// SignalInputs is everything the generator needs for one asset.
type SignalInputs struct {
	Asset        string
	Class        AssetClass
	CurrentPrice float64
	WeekForecast float64
	Macro        *MacroReading
	Fed          *FedReading
	Sentiment    *SentimentReading
	LongMA       float64 // 0 when unavailable
}
