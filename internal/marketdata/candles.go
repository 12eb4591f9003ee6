package marketdata

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"sweepguard/internal/domain/models"
	pkgch "sweepguard/pkg/clickhouse"
	applogger "sweepguard/pkg/logger"
)

// CHCandleStore reads OHLCV history from ClickHouse.
type CHCandleStore struct {
	db *sql.DB
	l  *applogger.Logger
}

func NewCHCandleStore(ch *pkgch.Client) *CHCandleStore {
	return &CHCandleStore{db: ch.DB()}
}

// SetLogger injects a structured logger.
func (s *CHCandleStore) SetLogger(l *applogger.Logger) { s.l = l }

func tableForTF(tf models.Timeframe) (string, error) {
	switch tf {
	case models.TF1m:
		return "candles_1m", nil
	case models.TF5m:
		return "candles_5m", nil
	case models.TF15m:
		return "candles_15m", nil
	case models.TF1h:
		return "candles_1h", nil
	default:
		return "", fmt.Errorf("unsupported timeframe: %s", tf)
	}
}

// LatestCandles returns up to n bars ascending by bucket.
func (s *CHCandleStore) LatestCandles(ctx context.Context, symbol string, n int, tf models.Timeframe) ([]models.Candle, error) {
	start := time.Now()
	table, err := tableForTF(tf)
	if err != nil {
		return nil, err
	}
	const qtpl = `
        SELECT bucket, symbol, open, high, low, close, vol
        FROM %s
        WHERE symbol = ?
        ORDER BY bucket DESC
        LIMIT ?
    `
	q := fmt.Sprintf(qtpl, table)
	rows, err := s.db.QueryContext(ctx, q, symbol, n)
	if err != nil {
		if s.l != nil {
			s.l.Error("clickhouse latest_candles query error",
				applogger.String("table", table),
				applogger.String("symbol", symbol),
				applogger.String("tf", string(tf)),
				applogger.Int("limit", n),
				applogger.Error(err),
			)
		}
		return nil, fmt.Errorf("get latest candles: %w", err)
	}
	defer rows.Close()

	out := make([]models.Candle, 0, n)
	for rows.Next() {
		var c models.Candle
		if err := rows.Scan(&c.Bucket, &c.Symbol, &c.Open, &c.High, &c.Low, &c.Close, &c.Volume); err != nil {
			return nil, fmt.Errorf("scan candle: %w", err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}

	// query is newest-first, analyzers want ascending
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}

	if s.l != nil {
		s.l.Debug("clickhouse latest_candles ok",
			applogger.String("table", table),
			applogger.String("symbol", symbol),
			applogger.String("tf", string(tf)),
			applogger.Int("rows", len(out)),
			applogger.Duration("duration_ms", time.Since(start)),
		)
	}
	return out, nil
}

// Schema returns idempotent DDL for the candle tables, for Client.InitSchema.
func Schema(database string) []string {
	stmts := make([]string, 0, 5)
	stmts = append(stmts, fmt.Sprintf("CREATE DATABASE IF NOT EXISTS %s", database))
	for _, table := range []string{"candles_1m", "candles_5m", "candles_15m", "candles_1h"} {
		stmts = append(stmts, fmt.Sprintf(`
            CREATE TABLE IF NOT EXISTS %s.%s (
                bucket DateTime,
                symbol LowCardinality(String),
                open   Float64,
                high   Float64,
                low    Float64,
                close  Float64,
                vol    Float64
            ) ENGINE = ReplacingMergeTree
            ORDER BY (symbol, bucket)
        `, database, table))
	}
	return stmts
}
