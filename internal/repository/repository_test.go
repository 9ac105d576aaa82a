package repository

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"FinCast/internal/domain/models"
	pkgkafka "FinCast/pkg/kafka"
)

func testProfile(t *testing.T) models.AssetProfile {
	t.Helper()
	p, err := models.NewAssetProfile("gold", "Gold", models.ClassMetal, []string{"Gold", "DXY", "Sentiment", "EMA_3"}, 2)
	require.NoError(t, err)
	return p
}

func day(i int) time.Time {
	return time.Date(2024, 1, 1+i, 0, 0, 0, 0, time.UTC)
}

func TestSeriesBuilderFillsAndDerives(t *testing.T) {
	p := testProfile(t)
	b := newSeriesBuilder(p)
	b.add(day(2), "Gold", 104)
	b.add(day(0), "Gold", 100)
	b.add(day(1), "gold", 102)
	for i := 0; i < 3; i++ {
		b.add(day(i), "DXY", 100+float64(i))
	}
	b.add(day(3), "Gold", 106) // no DXY, dropped

	s, err := b.build()
	require.NoError(t, err)
	require.Equal(t, 3, s.Len())
	assert.Equal(t, []float64{100, 102, 104}, s.Prices())
	assert.Equal(t, day(0), s.Dates[0])

	assert.Equal(t, 0.0, s.Frames[1][2], "absent sentiment is zero")
	assert.InDelta(t, 100.0, s.Frames[0][3], 1e-12)
	assert.InDelta(t, 101.0, s.Frames[1][3], 1e-12)
	assert.InDelta(t, 102.5, s.Frames[2][3], 1e-12)
}

func TestSeriesBuilderMissingRequiredFeature(t *testing.T) {
	p := testProfile(t)
	b := newSeriesBuilder(p)
	b.add(day(0), "Gold", 100)

	_, err := b.build()
	assert.ErrorIs(t, err, models.ErrInvalidSeries)
}

func TestCSVSeriesStore(t *testing.T) {
	dir := t.TempDir()
	csv := "Date,Gold,DXY,Unused\n" +
		"2024-01-01,100,90,x\n" +
		"2024-01-02,102,91,x\n" +
		"2024-01-03,,92,x\n" +
		"2024-01-04,104,93,x\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "gold_global_insights.csv"), []byte(csv), 0o644))

	store := NewCSVSeriesStore(dir, nil)
	p := testProfile(t)

	s, err := store.Series(context.Background(), p)
	require.NoError(t, err)
	assert.Equal(t, []float64{100, 102, 104}, s.Prices())
	assert.Equal(t, "gold", s.Asset)

	tail, err := store.LatestN(context.Background(), p, 2)
	require.NoError(t, err)
	assert.Equal(t, []float64{102, 104}, tail.Prices())

	_, err = store.Series(context.Background(), models.AssetProfile{ID: "btc", Features: p.Features, Class: models.ClassCrypto, SequenceLength: 2})
	assert.ErrorIs(t, err, models.ErrInsufficientHistory)
}

func TestCSVSeriesStoreRequiresDate(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "gold_global_insights.csv"), []byte("Gold,DXY\n1,2\n"), 0o644))

	_, err := NewCSVSeriesStore(dir, nil).Series(context.Background(), testProfile(t))
	assert.ErrorIs(t, err, models.ErrInvalidSeries)
}

func TestCHSeriesStoreSeries(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	rows := sqlmock.NewRows([]string{"date", "feature", "value"}).
		AddRow(day(0), "Gold", 100.0).
		AddRow(day(0), "DXY", 90.0).
		AddRow(day(0), "Other", 1.0).
		AddRow(day(1), "Gold", 102.0).
		AddRow(day(1), "DXY", 91.0)
	mock.ExpectQuery(regexp.QuoteMeta("FROM fincast.feature_rows")).
		WithArgs("gold").
		WillReturnRows(rows)

	store := NewCHSeriesStore(db, "fincast", nil)
	s, err := store.Series(context.Background(), testProfile(t))
	require.NoError(t, err)
	assert.Equal(t, []float64{100, 102}, s.Prices())
	assert.Equal(t, 91.0, s.Frames[1][1])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCHSeriesStoreLatestN(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	rows := sqlmock.NewRows([]string{"date", "feature", "value"}).
		AddRow(day(5), "Gold", 110.0).
		AddRow(day(5), "DXY", 95.0)
	mock.ExpectQuery(regexp.QuoteMeta("ORDER BY date DESC LIMIT ?")).
		WithArgs("gold", "gold", 1).
		WillReturnRows(rows)

	store := NewCHSeriesStore(db, "fincast", nil)
	s, err := store.LatestN(context.Background(), testProfile(t), 1)
	require.NoError(t, err)
	assert.Equal(t, []float64{110}, s.Prices())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCHSeriesStoreSaveForecast(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	asOf := day(10)
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO fincast.forecast_paths")).
		WithArgs(
			"run-1", "gold", asOf, 1, 101.0, 1, 0,
			"run-1", "gold", asOf, 2, 102.0, 1, 0,
		).
		WillReturnResult(sqlmock.NewResult(0, 2))

	store := NewCHSeriesStore(db, "fincast", nil)
	err = store.SaveForecast(context.Background(), "run-1", models.ForecastResult{
		Asset:    "gold",
		AsOf:     asOf,
		Path:     models.ForecastPath{101, 102},
		Adjusted: true,
	})
	require.NoError(t, err)

	require.NoError(t, store.SaveForecast(context.Background(), "run-2", models.ForecastResult{Asset: "gold", Degraded: true}))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPGSignalJournal(t *testing.T) {
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer mockDB.Close()
	db := sqlx.NewDb(mockDB, "postgres")

	j := NewPGSignalJournal(db, time.Second, nil)
	sig := models.Signal{
		ID:          "sig-1",
		Asset:       "gold",
		Direction:   models.DirectionBuy,
		Confidence:  0.7,
		EntryPrice:  100,
		TargetPrice: 110,
		StopLoss:    95,
		RiskReward:  2,
		Reasons:     []string{"Forecast: +10.0%"},
		Factors:     map[string]models.Factor{"forecast": {Bullish: true, Score: 0.7}},
		GeneratedAt: day(0),
	}

	anyArg := sqlmock.AnyArg()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO signals")).
		WithArgs("sig-1", "gold", "BUY", anyArg, anyArg, anyArg, anyArg, anyArg, anyArg, anyArg, anyArg, anyArg, anyArg).
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, j.Record(context.Background(), sig))

	reasons, _ := json.Marshal(sig.Reasons)
	factors, _ := json.Marshal(sig.Factors)
	rows := sqlmock.NewRows([]string{
		"id", "asset", "direction", "confidence", "entry_price", "target_price", "stop_loss",
		"risk_reward", "bullish_score", "bearish_score", "reasons", "factors", "generated_at",
	}).AddRow("sig-1", "gold", "BUY", 0.7, 100.0, 110.0, 95.0, 2.0, 0.7, 0.0, reasons, factors, day(0))
	mock.ExpectQuery(regexp.QuoteMeta("FROM signals")).
		WithArgs("gold", 5).
		WillReturnRows(rows)

	got, err := j.Recent(context.Background(), "gold", 5)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, models.DirectionBuy, got[0].Direction)
	assert.Equal(t, sig.Reasons, got[0].Reasons)
	assert.True(t, got[0].Factors["forecast"].Bullish)
	assert.Equal(t, 110.0, got[0].TargetPrice)
	assert.NoError(t, mock.ExpectationsWereMet())
}

type captureWriter struct {
	msgs   []kafkago.Message
	closed bool
}

func (w *captureWriter) WriteMessages(_ context.Context, msgs ...kafkago.Message) error {
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *captureWriter) Close() error {
	w.closed = true
	return nil
}

func TestKafkaSignalPublisher(t *testing.T) {
	w := &captureWriter{}
	pub := NewKafkaSignalPublisher(pkgkafka.NewProducerWithWriter(w, "gzip"), "fincast.signals")

	require.NoError(t, pub.Publish(context.Background(), models.Signal{ID: "a", Asset: "gold", Direction: models.DirectionSell}))
	require.NoError(t, pub.PublishBatch(context.Background(), []models.Signal{{ID: "b", Asset: "btc"}, {ID: "c", Asset: "SPY"}}))
	require.NoError(t, pub.PublishBatch(context.Background(), nil))

	require.Len(t, w.msgs, 3)
	assert.Equal(t, "fincast.signals", w.msgs[0].Topic)
	assert.Equal(t, []byte("gold"), w.msgs[0].Key)

	var decoded models.Signal
	require.NoError(t, json.Unmarshal(w.msgs[0].Value, &decoded))
	assert.Equal(t, models.DirectionSell, decoded.Direction)
	assert.Equal(t, []byte("SPY"), w.msgs[2].Key)

	require.NoError(t, pub.Close())
	assert.True(t, w.closed)
}
