package models

// Requests for the forecast HTTP endpoints. Defined in domain for consistency and reuse.

type ForecastRequest struct {
	Asset string `query:"asset" json:"asset" validate:"required"`
	Steps int    `query:"steps" json:"steps" default:"21" validate:"gte=1,lte=365"`
}

type BatchForecastRequest struct {
	Assets      []string `json:"assets" validate:"required,min=1,dive,required"`
	Steps       int      `json:"steps" default:"21" validate:"gte=1,lte=365"`
	SkipEnforce bool     `json:"skip_enforce"`
	Strength    *float64 `json:"strength" validate:"omitempty,gte=0,lte=1"`
}

type RangeRequest struct {
	Asset string `query:"asset" json:"asset" validate:"required"`
}

type NextDayRequest struct {
	Assets []string `json:"assets" validate:"required,min=1,dive,required"`
}

type SignalRequest struct {
	Asset     string            `json:"asset" validate:"required"`
	Macro     *MacroReading     `json:"macro"`
	Fed       *FedReading       `json:"fed"`
	Sentiment *SentimentReading `json:"sentiment"`
}

type SignalBatchRequest struct {
	Assets    []string                    `json:"assets" validate:"required,min=1,dive,required"`
	Macro     *MacroReading               `json:"macro"`
	Fed       *FedReading                 `json:"fed"`
	Sentiment map[string]SentimentReading `json:"sentiment"`
}

type AnalyzeRequest struct {
	Asset        string    `json:"asset" validate:"required"`
	CurrentPrice float64   `json:"current_price" validate:"gt=0"`
	Path         []float64 `json:"path" validate:"required,min=1"`
}

type RangeBatchRequest struct {
	Assets []string `json:"assets" validate:"required,min=1,dive,required"`
}

type InsightRequest struct {
	Asset string `query:"asset" json:"asset" validate:"required"`
	Steps int    `query:"steps" json:"steps" default:"21" validate:"gte=2,lte=365"`
}

type CompareRequest struct {
	Assets []string `json:"assets" validate:"required,min=1,dive,required"`
	Steps  int      `json:"steps" default:"21" validate:"gte=2,lte=365"`
}

type RecentSignalsRequest struct {
	Asset string `query:"asset" json:"asset" validate:"required"`
	Limit int    `query:"limit" json:"limit" default:"50" validate:"gte=1,lte=500"`
}
