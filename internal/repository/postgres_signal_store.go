package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"FinCast/internal/domain/models"
	applogger "FinCast/pkg/logger"
)

// SignalJournalSchema is the DDL for the signal journal.
var SignalJournalSchema = []string{
	`CREATE TABLE IF NOT EXISTS signals (
        id            TEXT PRIMARY KEY,
        asset         TEXT NOT NULL,
        direction     TEXT NOT NULL,
        confidence    DOUBLE PRECISION NOT NULL,
        entry_price   DOUBLE PRECISION NOT NULL,
        target_price  DOUBLE PRECISION NOT NULL,
        stop_loss     DOUBLE PRECISION NOT NULL,
        risk_reward   DOUBLE PRECISION NOT NULL,
        bullish_score DOUBLE PRECISION NOT NULL,
        bearish_score DOUBLE PRECISION NOT NULL,
        reasons       JSONB NOT NULL DEFAULT '[]',
        factors       JSONB NOT NULL DEFAULT '{}',
        generated_at  TIMESTAMPTZ NOT NULL
    )`,
	`CREATE INDEX IF NOT EXISTS signals_asset_generated_at_idx ON signals (asset, generated_at DESC)`,
}

// signalRow is the flattened journal row; reasons and factors are JSONB.
type signalRow struct {
	models.Signal
	ReasonsJSON []byte `db:"reasons"`
	FactorsJSON []byte `db:"factors"`
}

// PGSignalJournal stores signals in PostgreSQL.
type PGSignalJournal struct {
	db      *sqlx.DB
	timeout time.Duration
	l       *applogger.Logger
}

func NewPGSignalJournal(db *sqlx.DB, timeout time.Duration, l *applogger.Logger) *PGSignalJournal {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &PGSignalJournal{db: db, timeout: timeout, l: l}
}

func (j *PGSignalJournal) Record(ctx context.Context, s models.Signal) error {
	ctx, cancel := context.WithTimeout(ctx, j.timeout)
	defer cancel()

	row := signalRow{Signal: s}
	var err error
	if row.ReasonsJSON, err = json.Marshal(nonNilReasons(s.Reasons)); err != nil {
		return fmt.Errorf("marshal reasons: %w", err)
	}
	if row.FactorsJSON, err = json.Marshal(s.Factors); err != nil {
		return fmt.Errorf("marshal factors: %w", err)
	}

	const q = `
        INSERT INTO signals
        (id, asset, direction, confidence, entry_price, target_price, stop_loss,
         risk_reward, bullish_score, bearish_score, reasons, factors, generated_at)
        VALUES (:id, :asset, :direction, :confidence, :entry_price, :target_price, :stop_loss,
         :risk_reward, :bullish_score, :bearish_score, :reasons, :factors, :generated_at)
        ON CONFLICT (id) DO NOTHING`
	if _, err := j.db.NamedExecContext(ctx, q, row); err != nil {
		j.l.Error("postgres record_signal error",
			applogger.String("asset", s.Asset),
			applogger.String("id", s.ID),
			applogger.Error(err),
		)
		return fmt.Errorf("record signal: %w", err)
	}
	return nil
}

// Recent returns at most limit signals for asset, newest first.
func (j *PGSignalJournal) Recent(ctx context.Context, asset string, limit int) ([]models.Signal, error) {
	ctx, cancel := context.WithTimeout(ctx, j.timeout)
	defer cancel()

	const q = `
        SELECT id, asset, direction, confidence, entry_price, target_price, stop_loss,
               risk_reward, bullish_score, bearish_score, reasons, factors, generated_at
        FROM signals
        WHERE asset = $1
        ORDER BY generated_at DESC
        LIMIT $2`
	var rows []signalRow
	if err := j.db.SelectContext(ctx, &rows, q, asset, limit); err != nil {
		j.l.Error("postgres recent_signals error", applogger.String("asset", asset), applogger.Error(err))
		return nil, fmt.Errorf("recent signals: %w", err)
	}

	out := make([]models.Signal, 0, len(rows))
	for _, r := range rows {
		s := r.Signal
		if len(r.ReasonsJSON) > 0 {
			if err := json.Unmarshal(r.ReasonsJSON, &s.Reasons); err != nil {
				return nil, fmt.Errorf("decode reasons for %s: %w", s.ID, err)
			}
		}
		if len(r.FactorsJSON) > 0 {
			if err := json.Unmarshal(r.FactorsJSON, &s.Factors); err != nil {
				return nil, fmt.Errorf("decode factors for %s: %w", s.ID, err)
			}
		}
		s.Reasons = nonNilReasons(s.Reasons)
		out = append(out, s)
	}
	return out, nil
}

func nonNilReasons(r []string) []string {
	if r == nil {
		return []string{}
	}
	return r
}
