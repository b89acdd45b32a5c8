package journal

import (
	"encoding/csv"
	"errors"
	"os"
	"strconv"
	"time"
)

var (
	tradesHeader = []string{"trade_id", "instrument", "label", "side", "units", "entry_price", "exit_price", "stop_pips", "open_time", "close_time", "realized_pl", "outcome", "reason"}
	equityHeader = []string{"time", "balance", "equity"}
)

// CSVJournal appends closed trades and equity snapshots to two CSV files.
// Every row is flushed so a killed run still leaves complete files.
type CSVJournal struct {
	trades *sheet
	equity *sheet
}

func NewCSV(tradesPath, equityPath string) (*CSVJournal, error) {
	trades, err := newSheet(tradesPath, tradesHeader)
	if err != nil {
		return nil, err
	}
	equity, err := newSheet(equityPath, equityHeader)
	if err != nil {
		_ = trades.Close()
		return nil, err
	}
	return &CSVJournal{trades: trades, equity: equity}, nil
}

func (j *CSVJournal) RecordTrade(t TradeRecord) error {
	return j.trades.append(tradeRow(t))
}

func (j *CSVJournal) RecordEquity(e EquitySnapshot) error {
	return j.equity.append([]string{stamp(e.Time), num(e.Balance), num(e.Equity)})
}

func (j *CSVJournal) Close() error {
	return errors.Join(j.trades.Close(), j.equity.Close())
}

func tradeRow(t TradeRecord) []string {
	return []string{
		t.TradeID, t.Instrument, t.Label, t.Side.String(),
		num(t.Units), num(t.EntryPrice), num(t.ExitPrice), num(t.StopPips),
		stamp(t.OpenTime), stamp(t.CloseTime),
		num(t.RealizedPL), t.Outcome(), t.Reason,
	}
}

// sheet is one CSV file with its header already written.
type sheet struct {
	file *os.File
	w    *csv.Writer
}

func newSheet(path string, header []string) (*sheet, error) {
	fh, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	s := &sheet{file: fh, w: csv.NewWriter(fh)}
	if err := s.append(header); err != nil {
		_ = fh.Close()
		return nil, err
	}
	return s, nil
}

func (s *sheet) append(row []string) error {
	if err := s.w.Write(row); err != nil {
		return err
	}
	s.w.Flush()
	return s.w.Error()
}

func (s *sheet) Close() error {
	s.w.Flush()
	return errors.Join(s.w.Error(), s.file.Close())
}

func stamp(t time.Time) string { return t.UTC().Format(time.RFC3339) }

func num(x float64) string { return strconv.FormatFloat(x, 'f', 6, 64) }
