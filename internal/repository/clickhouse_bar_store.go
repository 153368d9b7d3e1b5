package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"CrossBot/internal/domain/models"
	domrepo "CrossBot/internal/domain/repository"
	pkgch "CrossBot/pkg/clickhouse"
	applogger "CrossBot/pkg/logger"
)

const insertChunk = 2000

// CHBarStore implements BarStore backed by ClickHouse.
type CHBarStore struct {
	db       *sql.DB
	database string
	l        *applogger.Logger
}

var _ domrepo.BarStore = (*CHBarStore)(nil)

func NewCHBarStore(ch *pkgch.Client, database string, l *applogger.Logger) *CHBarStore {
	return &CHBarStore{db: ch.DB(), database: database, l: l}
}

func (s *CHBarStore) GetHistoricalBars(ctx context.Context, symbol string, from, to time.Time, tf domrepo.Timeframe) (models.TimeSeries, error) {
	start := time.Now()
	table, err := s.tableForTF(tf)
	if err != nil {
		return models.TimeSeries{}, err
	}
	const qtpl = `
		SELECT ts, open, high, low, close, volume
		FROM %s FINAL
		WHERE symbol = ? AND ts >= ? AND ts <= ?
		ORDER BY ts ASC
	`
	rows, err := s.db.QueryContext(ctx, fmt.Sprintf(qtpl, table), strings.ToUpper(symbol), from.UTC(), to.UTC())
	if err != nil {
		s.l.Error("clickhouse bars query error",
			applogger.String("table", table),
			applogger.String("symbol", symbol),
			applogger.Error(err),
		)
		return models.TimeSeries{}, fmt.Errorf("%w: query bars: %w", models.ErrUpstream, err)
	}
	defer rows.Close()

	bars, err := scanBars(rows)
	if err != nil {
		return models.TimeSeries{}, fmt.Errorf("%w: %w", models.ErrUpstream, err)
	}
	s.l.Debug("clickhouse bars ok",
		applogger.String("table", table),
		applogger.String("symbol", symbol),
		applogger.Int("rows", len(bars)),
		applogger.Duration("duration_ms", time.Since(start)),
	)
	return models.NewTimeSeries(strings.ToUpper(symbol), string(tf), bars)
}

func (s *CHBarStore) GetLatestBar(ctx context.Context, symbol string, tf domrepo.Timeframe) (models.Bar, error) {
	table, err := s.tableForTF(tf)
	if err != nil {
		return models.Bar{}, err
	}
	const qtpl = `
		SELECT ts, open, high, low, close, volume
		FROM %s FINAL
		WHERE symbol = ?
		ORDER BY ts DESC
		LIMIT 1
	`
	row := s.db.QueryRowContext(ctx, fmt.Sprintf(qtpl, table), strings.ToUpper(symbol))
	var b models.Bar
	if err := row.Scan(&b.Timestamp, &b.Open, &b.High, &b.Low, &b.Close, &b.Volume); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Bar{}, fmt.Errorf("%w: no bars for %s", models.ErrInsufficientData, symbol)
		}
		return models.Bar{}, fmt.Errorf("%w: latest bar: %w", models.ErrUpstream, err)
	}
	b.Timestamp = b.Timestamp.UTC()
	return b, nil
}

// StoreBars inserts the series in chunks inside one transaction per chunk.
func (s *CHBarStore) StoreBars(ctx context.Context, series models.TimeSeries) error {
	table, err := s.tableForTF(domrepo.NormalizeTimeframe(series.Timeframe))
	if err != nil {
		return err
	}
	q := fmt.Sprintf("INSERT INTO %s (symbol, ts, open, high, low, close, volume)", table)

	for start := 0; start < series.Len(); start += insertChunk {
		end := min(start+insertChunk, series.Len())
		if err := s.insertChunk(ctx, q, series.Symbol, series.Bars[start:end]); err != nil {
			s.l.Error("clickhouse insert bars error",
				applogger.String("table", table),
				applogger.String("symbol", series.Symbol),
				applogger.Int("offset", start),
				applogger.Error(err),
			)
			return fmt.Errorf("insert bars: %w", err)
		}
	}
	return nil
}

func (s *CHBarStore) insertChunk(ctx context.Context, q, symbol string, bars []models.Bar) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	stmt, err := tx.PrepareContext(ctx, q)
	if err != nil {
		_ = tx.Rollback()
		return err
	}
	defer stmt.Close()
	for _, b := range bars {
		if _, err := stmt.ExecContext(ctx, symbol, b.Timestamp, b.Open, b.High, b.Low, b.Close, b.Volume); err != nil {
			_ = tx.Rollback()
			return err
		}
	}
	return tx.Commit()
}

func (s *CHBarStore) Health(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *CHBarStore) tableForTF(tf domrepo.Timeframe) (string, error) {
	var table string
	switch tf {
	case domrepo.TF1Day:
		table = pkgch.TableBars1D
	case domrepo.TF1Week:
		table = pkgch.TableBars1W
	default:
		return "", fmt.Errorf("%w: unsupported timeframe %q", models.ErrInvalidConfig, tf)
	}
	if s.database == "" {
		return table, nil
	}
	return s.database + "." + table, nil
}

type rowScanner interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
}

func scanBars(rows rowScanner) ([]models.Bar, error) {
	out := make([]models.Bar, 0, 512)
	for rows.Next() {
		var b models.Bar
		if err := rows.Scan(&b.Timestamp, &b.Open, &b.High, &b.Low, &b.Close, &b.Volume); err != nil {
			return nil, fmt.Errorf("scan bar: %w", err)
		}
		b.Timestamp = b.Timestamp.UTC()
		out = append(out, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	return out, nil
}
