package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"sweepguard/internal/domain/models"
	pkgch "sweepguard/pkg/clickhouse"
	applogger "sweepguard/pkg/logger"
)

// CHJournal persists every signal and execution outcome to ClickHouse.
// It implements repository.Journal.
type CHJournal struct {
	db *sql.DB
	l  *applogger.Logger
}

func NewCHJournal(ch *pkgch.Client) *CHJournal {
	return &CHJournal{db: ch.DB()}
}

// SetLogger injects a structured logger.
func (j *CHJournal) SetLogger(l *applogger.Logger) { j.l = l }

// JournalSchema returns idempotent DDL for the decision tables.
func JournalSchema(database string) []string {
	return []string{
		fmt.Sprintf("CREATE DATABASE IF NOT EXISTS %s", database),
		fmt.Sprintf(`
            CREATE TABLE IF NOT EXISTS %s.signals (
                id          String,
                ts          DateTime,
                symbol      LowCardinality(String),
                direction   LowCardinality(String),
                total_score Float64,
                max_score   Float64,
                threshold   Float64,
                valid       UInt8,
                entry       Float64,
                atr         Float64,
                scores      String,
                degraded    String
            ) ENGINE = MergeTree
            ORDER BY (symbol, ts)
        `, database),
		fmt.Sprintf(`
            CREATE TABLE IF NOT EXISTS %s.executions (
                signal_id  String,
                ts         DateTime,
                status     LowCardinality(String),
                reason     String,
                order_id   String,
                fill_price Float64,
                volume     Float64,
                attempts   UInt8
            ) ENGINE = MergeTree
            ORDER BY ts
        `, database),
	}
}

func (j *CHJournal) RecordSignal(ctx context.Context, sig *models.AggregatedSignal) error {
	start := time.Now()
	scores, err := json.Marshal(sig.Scores)
	if err != nil {
		return fmt.Errorf("marshal scores: %w", err)
	}
	degraded, err := json.Marshal(sig.Degraded)
	if err != nil {
		return fmt.Errorf("marshal degraded: %w", err)
	}

	valid := uint8(0)
	if sig.Valid {
		valid = 1
	}
	const q = `
        INSERT INTO signals
            (id, ts, symbol, direction, total_score, max_score, threshold, valid, entry, atr, scores, degraded)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
    `
	if _, err := j.db.ExecContext(ctx, q,
		sig.ID, sig.Timestamp, sig.Symbol, string(sig.Direction),
		sig.TotalScore, sig.MaxScore, sig.Threshold, valid,
		sig.Entry, sig.ATR, string(scores), string(degraded),
	); err != nil {
		if j.l != nil {
			j.l.Error("journal signal insert error",
				applogger.String("signal_id", sig.ID),
				applogger.Error(err),
			)
		}
		return fmt.Errorf("record signal: %w", err)
	}
	if j.l != nil {
		j.l.Debug("journal signal ok",
			applogger.String("signal_id", sig.ID),
			applogger.Duration("duration_ms", time.Since(start)),
		)
	}
	return nil
}

func (j *CHJournal) RecordExecution(ctx context.Context, res *models.ExecutionResult) error {
	const q = `
        INSERT INTO executions
            (signal_id, ts, status, reason, order_id, fill_price, volume, attempts)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?)
    `
	if _, err := j.db.ExecContext(ctx, q,
		res.SignalID, res.Timestamp, string(res.Status), res.Reason,
		res.OrderID, res.FillPrice, res.Volume, uint8(res.Attempts),
	); err != nil {
		if j.l != nil {
			j.l.Error("journal execution insert error",
				applogger.String("signal_id", res.SignalID),
				applogger.Error(err),
			)
		}
		return fmt.Errorf("record execution: %w", err)
	}
	return nil
}

func (j *CHJournal) Close() error { return nil }
