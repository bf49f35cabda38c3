package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"RallyScan/internal/domain/models"
	domrepo "RallyScan/internal/domain/repository"
	pkgch "RallyScan/pkg/clickhouse"
)

const (
	eventsTable = "rallyscan.rally_events"
	tradesTable = "rallyscan.sim_trades"
)

// eventStoreSchema is idempotent DDL executed on Init.
var eventStoreSchema = []string{
	`CREATE DATABASE IF NOT EXISTS rallyscan`,
	`CREATE TABLE IF NOT EXISTS ` + eventsTable + ` (
        symbol            LowCardinality(String),
        tf                LowCardinality(String),
        event_index       Int32,
        event_time        DateTime64(3),
        peak_index        Int32,
        bars_to_peak      Int32,
        future_max_gain   Float64,
        rally_bucket      LowCardinality(String),
        volume_confirmed  UInt8,
        retention_score   Float64,
        parent_id         Int32,
        parent_start      DateTime64(3),
        grandparent_id    Int32,
        grandparent_start DateTime64(3)
    ) ENGINE = ReplacingMergeTree
    ORDER BY (symbol, tf, event_time)`,
	`CREATE TABLE IF NOT EXISTS ` + tradesTable + ` (
        symbol       LowCardinality(String),
        entry_time   DateTime64(3),
        exit_time    DateTime64(3),
        entry_price  Float64,
        exit_price   Float64,
        exit_reason  LowCardinality(String),
        gross_return Float64,
        pnl          Float64,
        equity_after Float64,
        rally_bucket LowCardinality(String)
    ) ENGINE = MergeTree
    ORDER BY (symbol, entry_time)`,
}

// CHEventStore persists rally events and simulated trades in ClickHouse.
type CHEventStore struct {
	db *sql.DB
}

func NewCHEventStore(ch *pkgch.Client) domrepo.EventStore {
	return &CHEventStore{db: ch.DB()}
}

func (s *CHEventStore) Init(ctx context.Context) error {
	for _, stmt := range eventStoreSchema {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("event store schema: %w", err)
		}
	}
	return nil
}

func (s *CHEventStore) StoreEvents(ctx context.Context, events []models.RallyEvent) error {
	if len(events) == 0 {
		return nil
	}
	// Batch insert using VALUES multi-row to reduce round-trips.
	const chunkSize = 2000
	for start := 0; start < len(events); start += chunkSize {
		end := start + chunkSize
		if end > len(events) {
			end = len(events)
		}

		values := make([]string, 0, end-start)
		args := make([]interface{}, 0, (end-start)*14)
		for _, e := range events[start:end] {
			if e.Symbol == "" || e.EventTime.IsZero() {
				continue
			}
			values = append(values, "(?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)")
			args = append(args,
				e.Symbol,
				e.Timeframe,
				e.EventIndex,
				e.EventTime,
				e.PeakIndex,
				e.BarsToPeak,
				e.FutureMaxGainPct,
				e.RallyBucket,
				boolToUInt8(e.VolumeConfirmed),
				e.RetentionScore,
				e.ParentID,
				e.ParentStart,
				e.GrandparentID,
				e.GrandparentStart,
			)
		}
		if len(values) == 0 {
			continue
		}
		q := fmt.Sprintf(`INSERT INTO %s
            (symbol, tf, event_index, event_time, peak_index, bars_to_peak,
             future_max_gain, rally_bucket, volume_confirmed, retention_score,
             parent_id, parent_start, grandparent_id, grandparent_start)
            VALUES %s`, eventsTable, strings.Join(values, ","))
		if _, err := s.db.ExecContext(ctx, q, args...); err != nil {
			return fmt.Errorf("store events: %w", err)
		}
	}
	return nil
}

func (s *CHEventStore) QueryEvents(ctx context.Context, symbol string, tf domrepo.Timeframe, linkedOnly bool, limit int) ([]models.RallyEvent, error) {
	q := fmt.Sprintf(`SELECT symbol, tf, event_index, event_time, peak_index, bars_to_peak,
            future_max_gain, rally_bucket, volume_confirmed, retention_score,
            parent_id, parent_start, grandparent_id, grandparent_start
        FROM %s FINAL
        WHERE symbol = ? AND tf = ?`, eventsTable)
	args := []interface{}{symbol, string(tf)}
	if linkedOnly {
		q += fmt.Sprintf(" AND parent_id != %d", models.NoParent)
	}
	q += " ORDER BY event_time ASC"
	if limit > 0 {
		q += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}
	defer rows.Close()

	var events []models.RallyEvent
	for rows.Next() {
		var e models.RallyEvent
		var volConfirmed uint8
		if err := rows.Scan(&e.Symbol, &e.Timeframe, &e.EventIndex, &e.EventTime,
			&e.PeakIndex, &e.BarsToPeak, &e.FutureMaxGainPct, &e.RallyBucket,
			&volConfirmed, &e.RetentionScore,
			&e.ParentID, &e.ParentStart, &e.GrandparentID, &e.GrandparentStart); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		e.VolumeConfirmed = volConfirmed != 0
		events = append(events, e)
	}
	return events, rows.Err()
}

func (s *CHEventStore) StoreTrades(ctx context.Context, trades []models.Trade) error {
	if len(trades) == 0 {
		return nil
	}
	const chunkSize = 2000
	for start := 0; start < len(trades); start += chunkSize {
		end := start + chunkSize
		if end > len(trades) {
			end = len(trades)
		}

		values := make([]string, 0, end-start)
		args := make([]interface{}, 0, (end-start)*10)
		for _, t := range trades[start:end] {
			if t.Symbol == "" || t.EntryTime.IsZero() {
				continue
			}
			values = append(values, "(?, ?, ?, ?, ?, ?, ?, ?, ?, ?)")
			args = append(args,
				t.Symbol,
				t.EntryTime,
				t.ExitTime,
				t.EntryPrice,
				t.ExitPrice,
				string(t.ExitReason),
				t.GrossReturnPct,
				t.PnL,
				t.EquityAfter,
				t.RallyBucket,
			)
		}
		if len(values) == 0 {
			continue
		}
		q := fmt.Sprintf(`INSERT INTO %s
            (symbol, entry_time, exit_time, entry_price, exit_price, exit_reason,
             gross_return, pnl, equity_after, rally_bucket)
            VALUES %s`, tradesTable, strings.Join(values, ","))
		if _, err := s.db.ExecContext(ctx, q, args...); err != nil {
			return fmt.Errorf("store trades: %w", err)
		}
	}
	return nil
}

func (s *CHEventStore) Health(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *CHEventStore) Close() error {
	return nil // connection pool managed by pkg/clickhouse
}

func boolToUInt8(b bool) uint8 {
	if b {
		return 1
	}
	return 0
}
