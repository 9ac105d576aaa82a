package models

import (
	"fmt"
	"math"
	"time"
)

// FeatureFrame is one time step's feature vector in AssetProfile order.
type FeatureFrame []float64

// HistoricalSeries is a date-sorted run of feature frames for one asset.
// The forecast engine only reads it.
type HistoricalSeries struct {
	Asset  string
	Dates  []time.Time
	Frames []FeatureFrame
}

func (s HistoricalSeries) Len() int { return len(s.Frames) }

// Validate checks shape, ordering and price positivity against a profile.
func (s HistoricalSeries) Validate(p AssetProfile) error {
	if len(s.Dates) != len(s.Frames) {
		return fmt.Errorf("%w: %d dates for %d frames", ErrInvalidSeries, len(s.Dates), len(s.Frames))
	}
	width := p.NumFeatures()
	for i, f := range s.Frames {
		if len(f) != width {
			return fmt.Errorf("%w: row %d has %d features, want %d", ErrInvalidSeries, i, len(f), width)
		}
		if !(f[0] > 0) {
			return fmt.Errorf("%w: row %d price %v is not positive", ErrInvalidSeries, i, f[0])
		}
		for j, v := range f {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return fmt.Errorf("%w: row %d feature %s is not finite", ErrDataQuality, i, p.Features[j].Name)
			}
		}
		if i > 0 && !s.Dates[i].After(s.Dates[i-1]) {
			return fmt.Errorf("%w: dates not strictly increasing at row %d", ErrInvalidSeries, i)
		}
	}
	return nil
}

// LastPrice returns the most recent price.
func (s HistoricalSeries) LastPrice() (float64, bool) {
	if len(s.Frames) == 0 || len(s.Frames[len(s.Frames)-1]) == 0 {
		return 0, false
	}
	return s.Frames[len(s.Frames)-1][0], true
}

// LastFeature returns the most recent value of column j.
func (s HistoricalSeries) LastFeature(j int) (float64, bool) {
	if j < 0 || len(s.Frames) == 0 || j >= len(s.Frames[len(s.Frames)-1]) {
		return 0, false
	}
	return s.Frames[len(s.Frames)-1][j], true
}

// LastDate returns the date of the last row.
func (s HistoricalSeries) LastDate() time.Time {
	if len(s.Dates) == 0 {
		return time.Time{}
	}
	return s.Dates[len(s.Dates)-1]
}

// Prices returns column 0.
func (s HistoricalSeries) Prices() []float64 {
	out := make([]float64, len(s.Frames))
	for i, f := range s.Frames {
		out[i] = f[0]
	}
	return out
}

// Tail returns the last n rows sharing the underlying arrays.
func (s HistoricalSeries) Tail(n int) HistoricalSeries {
	if n >= len(s.Frames) {
		return s
	}
	k := len(s.Frames) - n
	return HistoricalSeries{Asset: s.Asset, Dates: s.Dates[k:], Frames: s.Frames[k:]}
}
