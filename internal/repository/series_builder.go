package repository

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"FinCast/internal/domain/models"
	"FinCast/internal/services/features"
)

// optionalFeatures may be absent from a source and are then filled with zero.
var optionalFeatures = map[string]bool{
	"sentiment":     true,
	"halving_cycle": true,
}

// seriesBuilder pivots (date, feature, value) observations into a
// HistoricalSeries in profile column order.
type seriesBuilder struct {
	profile models.AssetProfile
	rows    map[time.Time]map[string]float64
	seen    map[string]bool
}

func newSeriesBuilder(profile models.AssetProfile) *seriesBuilder {
	return &seriesBuilder{
		profile: profile,
		rows:    make(map[time.Time]map[string]float64),
		seen:    make(map[string]bool),
	}
}

func (b *seriesBuilder) add(date time.Time, feature string, value float64) {
	y, m, d := date.Date()
	day := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	row, ok := b.rows[day]
	if !ok {
		row = make(map[string]float64, b.profile.NumFeatures())
		b.rows[day] = row
	}
	key := strings.ToLower(feature)
	row[key] = value
	b.seen[key] = true
}

// build fills absent optional columns with zero, derives absent EMA columns
// from price, and drops dates with any other gap.
func (b *seriesBuilder) build() (models.HistoricalSeries, error) {
	priceKey := strings.ToLower(b.profile.Features[0].Name)
	if !b.seen[priceKey] {
		return models.HistoricalSeries{}, fmt.Errorf("%w: %s has no %s column", models.ErrInvalidSeries, b.profile.ID, b.profile.Features[0].Name)
	}

	dates := make([]time.Time, 0, len(b.rows))
	for d, row := range b.rows {
		if v, ok := row[priceKey]; ok && !math.IsNaN(v) {
			dates = append(dates, d)
		}
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })

	derived := make(map[int][]float64)
	for j, f := range b.profile.Features {
		key := strings.ToLower(f.Name)
		if b.seen[key] {
			continue
		}
		switch {
		case optionalFeatures[key]:
		case f.Rule.Kind == models.RuleSmoothed:
			derived[j] = emaSeries(b.prices(dates, priceKey), f.Rule.Window)
		default:
			return models.HistoricalSeries{}, fmt.Errorf("%w: %s missing required feature %s", models.ErrInvalidSeries, b.profile.ID, f.Name)
		}
	}

	s := models.HistoricalSeries{Asset: b.profile.ID}
	width := b.profile.NumFeatures()
	for i, d := range dates {
		row := b.rows[d]
		frame := make(models.FeatureFrame, width)
		complete := true
		for j, f := range b.profile.Features {
			key := strings.ToLower(f.Name)
			if col, ok := derived[j]; ok {
				frame[j] = col[i]
				continue
			}
			if !b.seen[key] {
				continue
			}
			v, ok := row[key]
			if !ok || math.IsNaN(v) {
				complete = false
				break
			}
			frame[j] = v
		}
		if !complete {
			continue
		}
		s.Dates = append(s.Dates, d)
		s.Frames = append(s.Frames, frame)
	}
	if err := s.Validate(b.profile); err != nil {
		return models.HistoricalSeries{}, err
	}
	return s, nil
}

func (b *seriesBuilder) prices(dates []time.Time, key string) []float64 {
	out := make([]float64, len(dates))
	for i, d := range dates {
		out[i] = b.rows[d][key]
	}
	return out
}

// emaSeries returns the running EMA at every point, seeded with the first price.
func emaSeries(prices []float64, window int) []float64 {
	out := make([]float64, len(prices))
	for i := range prices {
		out[i] = features.EMA(prices[:i+1], window)
	}
	return out
}
