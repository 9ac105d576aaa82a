package repository

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"FinCast/internal/domain/models"
	applogger "FinCast/pkg/logger"
)

var dateLayouts = []string{"2006-01-02", "2006-01-02 15:04:05", time.RFC3339}

// CSVSeriesStore reads {dir}/{asset}_global_insights.csv files with a Date
// column followed by feature columns.
type CSVSeriesStore struct {
	dir string
	l   *applogger.Logger
}

func NewCSVSeriesStore(dir string, l *applogger.Logger) *CSVSeriesStore {
	return &CSVSeriesStore{dir: dir, l: l}
}

func (s *CSVSeriesStore) path(asset string) string {
	return filepath.Join(s.dir, asset+"_global_insights.csv")
}

func (s *CSVSeriesStore) Series(ctx context.Context, profile models.AssetProfile) (models.HistoricalSeries, error) {
	start := time.Now()
	f, err := os.Open(s.path(profile.ID))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return models.HistoricalSeries{}, fmt.Errorf("%w: no history file for %s", models.ErrInsufficientHistory, profile.ID)
		}
		return models.HistoricalSeries{}, fmt.Errorf("open history: %w", err)
	}
	defer f.Close()

	b, err := parseCSV(ctx, f, profile)
	if err != nil {
		s.l.Error("csv series read error", applogger.String("asset", profile.ID), applogger.Error(err))
		return models.HistoricalSeries{}, err
	}
	series, err := b.build()
	if err != nil {
		return models.HistoricalSeries{}, err
	}
	s.l.Debug("csv series loaded",
		applogger.String("asset", profile.ID),
		applogger.Int("rows", series.Len()),
		applogger.Duration("duration_ms", time.Since(start)),
	)
	return series, nil
}

func (s *CSVSeriesStore) LatestN(ctx context.Context, profile models.AssetProfile, n int) (models.HistoricalSeries, error) {
	series, err := s.Series(ctx, profile)
	if err != nil {
		return models.HistoricalSeries{}, err
	}
	return series.Tail(n), nil
}

func parseCSV(ctx context.Context, r io.Reader, profile models.AssetProfile) (*seriesBuilder, error) {
	cr := csv.NewReader(r)
	cr.ReuseRecord = true
	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("%w: read header: %v", models.ErrInvalidSeries, err)
	}

	dateCol := -1
	wanted := make(map[int]string)
	for i, h := range header {
		h = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
		if strings.EqualFold(h, "date") {
			dateCol = i
			continue
		}
		if profile.FeatureIndex(h) >= 0 {
			wanted[i] = h
		}
	}
	if dateCol < 0 {
		return nil, fmt.Errorf("%w: %s has no Date column", models.ErrInvalidSeries, profile.ID)
	}

	b := newSeriesBuilder(profile)
	for line := 2; ; line++ {
		if line%1024 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: %v", models.ErrInvalidSeries, line, err)
		}
		date, ok := parseDate(rec[dateCol])
		if !ok {
			continue
		}
		for col, name := range wanted {
			raw := strings.TrimSpace(rec[col])
			if raw == "" {
				continue
			}
			v, err := strconv.ParseFloat(raw, 64)
			if err != nil {
				continue
			}
			b.add(date, name, v)
		}
	}
	return b, nil
}

func parseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
