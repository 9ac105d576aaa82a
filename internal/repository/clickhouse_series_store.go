package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"FinCast/internal/domain/models"
	applogger "FinCast/pkg/logger"
)

// ClickHouseSchema returns idempotent DDL for the feature and forecast tables.
func ClickHouseSchema(database string) []string {
	return []string{
		fmt.Sprintf("CREATE DATABASE IF NOT EXISTS %s", database),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s.feature_rows (
            asset   LowCardinality(String),
            date    Date,
            feature LowCardinality(String),
            value   Float64
        ) ENGINE = ReplacingMergeTree
        ORDER BY (asset, date, feature)`, database),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s.forecast_paths (
            run_id       String,
            asset        LowCardinality(String),
            generated_at DateTime,
            step         UInt16,
            price        Float64,
            adjusted     UInt8,
            degraded     UInt8
        ) ENGINE = MergeTree
        ORDER BY (asset, generated_at, run_id, step)`, database),
	}
}

// CHSeriesStore reads long-format feature rows and stores forecast paths.
type CHSeriesStore struct {
	db       *sql.DB
	database string
	l        *applogger.Logger
}

func NewCHSeriesStore(db *sql.DB, database string, l *applogger.Logger) *CHSeriesStore {
	return &CHSeriesStore{db: db, database: database, l: l}
}

func (s *CHSeriesStore) table(name string) string {
	return s.database + "." + name
}

func (s *CHSeriesStore) Series(ctx context.Context, profile models.AssetProfile) (models.HistoricalSeries, error) {
	q := fmt.Sprintf(`
        SELECT date, feature, value
        FROM %s
        WHERE asset = ?
        ORDER BY date ASC
    `, s.table("feature_rows"))
	return s.query(ctx, "series", profile, q, profile.ID)
}

func (s *CHSeriesStore) LatestN(ctx context.Context, profile models.AssetProfile, n int) (models.HistoricalSeries, error) {
	if n <= 0 {
		return models.HistoricalSeries{Asset: profile.ID}, nil
	}
	t := s.table("feature_rows")
	q := fmt.Sprintf(`
        SELECT date, feature, value
        FROM %s
        WHERE asset = ? AND date IN (
            SELECT DISTINCT date FROM %s WHERE asset = ? ORDER BY date DESC LIMIT ?
        )
        ORDER BY date ASC
    `, t, t)
	series, err := s.query(ctx, "latest_n", profile, q, profile.ID, profile.ID, n)
	if err != nil {
		return models.HistoricalSeries{}, err
	}
	return series.Tail(n), nil
}

func (s *CHSeriesStore) query(ctx context.Context, op string, profile models.AssetProfile, q string, args ...any) (models.HistoricalSeries, error) {
	start := time.Now()
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		s.l.Error("clickhouse "+op+" query error",
			applogger.String("asset", profile.ID),
			applogger.Error(err),
		)
		return models.HistoricalSeries{}, fmt.Errorf("query feature rows: %w", err)
	}
	defer rows.Close()

	b := newSeriesBuilder(profile)
	for rows.Next() {
		var (
			date    time.Time
			feature string
			value   float64
		)
		if err := rows.Scan(&date, &feature, &value); err != nil {
			s.l.Error("clickhouse "+op+" scan error",
				applogger.String("asset", profile.ID),
				applogger.Error(err),
			)
			return models.HistoricalSeries{}, fmt.Errorf("scan feature row: %w", err)
		}
		if profile.FeatureIndex(feature) >= 0 {
			b.add(date, feature, value)
		}
	}
	if err := rows.Err(); err != nil {
		s.l.Error("clickhouse "+op+" rows error",
			applogger.String("asset", profile.ID),
			applogger.Error(err),
		)
		return models.HistoricalSeries{}, fmt.Errorf("rows: %w", err)
	}

	series, err := b.build()
	if err != nil {
		return models.HistoricalSeries{}, err
	}
	s.l.Info("clickhouse "+op+" ok",
		applogger.String("asset", profile.ID),
		applogger.Int("rows", series.Len()),
		applogger.Duration("duration_ms", time.Since(start)),
	)
	return series, nil
}

// SaveForecast writes one row per step in chunks of multi-row VALUES inserts.
func (s *CHSeriesStore) SaveForecast(ctx context.Context, runID string, r models.ForecastResult) error {
	if len(r.Path) == 0 {
		return nil
	}
	const chunkSize = 500
	generatedAt := r.AsOf
	if generatedAt.IsZero() {
		generatedAt = time.Now().UTC()
	}
	for start := 0; start < len(r.Path); start += chunkSize {
		end := min(start+chunkSize, len(r.Path))
		values := make([]string, 0, end-start)
		args := make([]any, 0, (end-start)*7)
		for i := start; i < end; i++ {
			values = append(values, "(?, ?, ?, ?, ?, ?, ?)")
			args = append(args, runID, r.Asset, generatedAt, uint16(i+1), r.Path[i], boolToUInt8(r.Adjusted), boolToUInt8(r.Degraded))
		}
		q := fmt.Sprintf("INSERT INTO %s (run_id, asset, generated_at, step, price, adjusted, degraded) VALUES %s",
			s.table("forecast_paths"), strings.Join(values, ","))
		if _, err := s.db.ExecContext(ctx, q, args...); err != nil {
			s.l.Error("clickhouse save_forecast error",
				applogger.String("asset", r.Asset),
				applogger.String("run_id", runID),
				applogger.Error(err),
			)
			return fmt.Errorf("save forecast: %w", err)
		}
	}
	return nil
}

// Import writes a series in long format, used to seed ClickHouse from CSV.
func (s *CHSeriesStore) Import(ctx context.Context, profile models.AssetProfile, series models.HistoricalSeries) (int, error) {
	const chunkRows = 1000
	names := profile.FeatureNames()
	written := 0
	for start := 0; start < series.Len(); start += chunkRows {
		end := min(start+chunkRows, series.Len())
		values := make([]string, 0, (end-start)*len(names))
		args := make([]any, 0, (end-start)*len(names)*4)
		for i := start; i < end; i++ {
			for j, name := range names {
				values = append(values, "(?, ?, ?, ?)")
				args = append(args, profile.ID, series.Dates[i], name, series.Frames[i][j])
			}
		}
		q := fmt.Sprintf("INSERT INTO %s (asset, date, feature, value) VALUES %s",
			s.table("feature_rows"), strings.Join(values, ","))
		if _, err := s.db.ExecContext(ctx, q, args...); err != nil {
			return written, fmt.Errorf("import feature rows: %w", err)
		}
		written += end - start
	}
	return written, nil
}

func boolToUInt8(b bool) uint8 {
	if b {
		return 1
	}
	return 0
}
