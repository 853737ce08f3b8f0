package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"barflow/internal/domain/models"
	domrepo "barflow/internal/domain/repository"
	applogger "barflow/pkg/logger"
)

// ClickHouseCandleStore implements CandleStore backed by ClickHouse, one
// table per timeframe.
type ClickHouseCandleStore struct {
	db       *sql.DB
	database string
	l        *applogger.Logger
}

// NewClickHouseCandleStore creates ClickHouse candle storage.
func NewClickHouseCandleStore(db *sql.DB, database string) *ClickHouseCandleStore {
	return &ClickHouseCandleStore{db: db, database: database}
}

// SetLogger injects a structured logger.
func (s *ClickHouseCandleStore) SetLogger(l *applogger.Logger) { s.l = l }

// SchemaStatements returns the idempotent DDL for all candle tables.
func (s *ClickHouseCandleStore) SchemaStatements() []string {
	stmts := []string{fmt.Sprintf("CREATE DATABASE IF NOT EXISTS %s", s.database)}
	for _, tf := range []domrepo.Timeframe{domrepo.TF1s, domrepo.TF1m, domrepo.TF5m} {
		stmts = append(stmts, fmt.Sprintf(
			`CREATE TABLE IF NOT EXISTS %s (
				symbol String,
				bucket DateTime,
				open Float64,
				high Float64,
				low Float64,
				close Float64,
				volume Float64,
				ticks UInt32
			) ENGINE=ReplacingMergeTree ORDER BY (symbol, bucket)`,
			s.table(tf)))
	}
	return stmts
}

func (s *ClickHouseCandleStore) Init(ctx context.Context) error {
	return s.Health(ctx)
}

func (s *ClickHouseCandleStore) Store(ctx context.Context, c *models.Candle) error {
	return s.StoreBatch(ctx, []*models.Candle{c})
}

func (s *ClickHouseCandleStore) StoreBatch(ctx context.Context, candles []*models.Candle) error {
	if len(candles) == 0 {
		return nil
	}

	// group rows per timeframe table
	byTable := make(map[string][]*models.Candle)
	for _, c := range candles {
		if c == nil || c.Symbol == "" {
			continue
		}
		tf, ok := domrepo.TimeframeFor(c.Period)
		if !ok {
			return fmt.Errorf("store candle: unsupported period %s", c.Period)
		}
		t := s.table(tf)
		byTable[t] = append(byTable[t], c)
	}

	for table, rows := range byTable {
		values := make([]string, 0, len(rows))
		args := make([]interface{}, 0, len(rows)*8)
		for _, c := range rows {
			values = append(values, "(?, ?, ?, ?, ?, ?, ?, ?)")
			args = append(args, c.Symbol, c.Bucket, c.Open, c.High, c.Low, c.Close, c.Volume, uint32(c.TickCount))
		}
		q := fmt.Sprintf("INSERT INTO %s (symbol, bucket, open, high, low, close, volume, ticks) VALUES %s",
			table, strings.Join(values, ","))
		if _, err := s.db.ExecContext(ctx, q, args...); err != nil {
			if s.l != nil {
				s.l.Error("clickhouse insert candles error",
					applogger.String("table", table),
					applogger.Int("rows", len(rows)),
					applogger.Error(err),
				)
			}
			return fmt.Errorf("insert candles: %w", err)
		}
	}
	return nil
}

func (s *ClickHouseCandleStore) Query(ctx context.Context, symbol string, from, to time.Time, tf domrepo.Timeframe) ([]models.Candle, error) {
	start := time.Now()
	q := fmt.Sprintf(`
		SELECT symbol, bucket, open, high, low, close, volume, ticks
		FROM %s
		WHERE symbol = ? AND bucket >= ? AND bucket <= ?
		ORDER BY bucket ASC
	`, s.table(tf))

	rows, err := s.db.QueryContext(ctx, q, symbol, from, to)
	if err != nil {
		return nil, fmt.Errorf("query candles: %w", err)
	}
	defer rows.Close()

	out, err := s.scanCandles(rows, tf)
	if err != nil {
		return nil, err
	}
	if s.l != nil {
		s.l.Debug("clickhouse query candles ok",
			applogger.String("symbol", symbol),
			applogger.String("tf", string(tf)),
			applogger.Int("rows", len(out)),
			applogger.Duration("took", time.Since(start)),
		)
	}
	return out, nil
}

func (s *ClickHouseCandleStore) Latest(ctx context.Context, symbol string, n int, tf domrepo.Timeframe) ([]models.Candle, error) {
	q := fmt.Sprintf(`
		SELECT symbol, bucket, open, high, low, close, volume, ticks
		FROM %s
		WHERE symbol = ?
		ORDER BY bucket DESC
		LIMIT ?
	`, s.table(tf))

	rows, err := s.db.QueryContext(ctx, q, symbol, n)
	if err != nil {
		return nil, fmt.Errorf("query latest candles: %w", err)
	}
	defer rows.Close()

	out, err := s.scanCandles(rows, tf)
	if err != nil {
		return nil, err
	}
	// reverse to ASC
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out, nil
}

func (s *ClickHouseCandleStore) scanCandles(rows *sql.Rows, tf domrepo.Timeframe) ([]models.Candle, error) {
	out := make([]models.Candle, 0, 256)
	for rows.Next() {
		var c models.Candle
		var ticks uint32
		if err := rows.Scan(&c.Symbol, &c.Bucket, &c.Open, &c.High, &c.Low, &c.Close, &c.Volume, &ticks); err != nil {
			return nil, fmt.Errorf("scan candle: %w", err)
		}
		c.TickCount = int(ticks)
		c.Period = tf.Duration()
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	return out, nil
}

func (s *ClickHouseCandleStore) Health(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *ClickHouseCandleStore) Close() error {
	return nil // pool is owned by pkg/clickhouse.Client
}

func (s *ClickHouseCandleStore) table(tf domrepo.Timeframe) string {
	return fmt.Sprintf("%s.candles_%s", s.database, tf)
}

var _ domrepo.CandleStore = (*ClickHouseCandleStore)(nil)
