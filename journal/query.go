package journal

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/rustyeddy/supertrend/market"
)

const tradeColumns = `trade_id, instrument, label, side, units, entry_price, exit_price, stop_pips, open_time, close_time, realized_pl, reason`

// GetTrade returns a single trade record by ID.
func (j *SQL) GetTrade(tradeID string) (TradeRecord, error) {
	row := j.db.QueryRow(j.rebind(`
		SELECT `+tradeColumns+`
		FROM trades
		WHERE trade_id = ?`), tradeID)

	rec, err := scanTrade(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return TradeRecord{}, fmt.Errorf("trade %q not found", tradeID)
		}
		return TradeRecord{}, err
	}
	return rec, nil
}

// ListTradesClosedBetween returns trades whose close_time is within [start, end).
func (j *SQL) ListTradesClosedBetween(start, end time.Time) ([]TradeRecord, error) {
	rows, err := j.db.Query(j.rebind(`
		SELECT `+tradeColumns+`
		FROM trades
		WHERE close_time >= ? AND close_time < ?
		ORDER BY close_time ASC`), start.UTC(), end.UTC())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []TradeRecord
	for rows.Next() {
		rec, err := scanTrade(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// DaySummary counts closed trades and wins for label in [start, end).
func (j *SQL) DaySummary(label string, start, end time.Time) (trades, wins int, pl float64, err error) {
	row := j.db.QueryRow(j.rebind(`
		SELECT COUNT(*),
			COALESCE(SUM(CASE WHEN realized_pl > 0 THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(realized_pl), 0)
		FROM trades
		WHERE label = ? AND close_time >= ? AND close_time < ?`), label, start.UTC(), end.UTC())
	err = row.Scan(&trades, &wins, &pl)
	return trades, wins, pl, err
}

type scanner interface {
	Scan(dest ...any) error
}

func scanTrade(s scanner) (TradeRecord, error) {
	var (
		rec  TradeRecord
		side string
	)
	err := s.Scan(
		&rec.TradeID,
		&rec.Instrument,
		&rec.Label,
		&side,
		&rec.Units,
		&rec.EntryPrice,
		&rec.ExitPrice,
		&rec.StopPips,
		&rec.OpenTime,
		&rec.CloseTime,
		&rec.RealizedPL,
		&rec.Reason,
	)
	if err != nil {
		return TradeRecord{}, err
	}
	if rec.Side, err = market.ParseSide(side); err != nil {
		return TradeRecord{}, err
	}
	return rec, nil
}
