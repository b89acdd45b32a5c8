package journal

import (
	"database/sql"
	"fmt"
	"strconv"
	"strings"

	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
)

type dialect int

const (
	sqliteDialect dialect = iota
	postgresDialect
)

// SQL is a journal backed by SQLite or Postgres. Queries are written with
// '?' placeholders and rebound for Postgres.
type SQL struct {
	db      *sql.DB
	dialect dialect
}

func NewSQLite(path string) (*SQL, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}
	return newSQL(db, sqliteDialect)
}

func NewPostgres(dsn string) (*SQL, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, err
	}
	return newSQL(db, postgresDialect)
}

func newSQL(db *sql.DB, d dialect) (*SQL, error) {
	schema := sqliteSchema
	if d == postgresDialect {
		schema = postgresSchema
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("journal schema: %w", err)
	}
	return &SQL{db: db, dialect: d}, nil
}

func (j *SQL) RecordTrade(t TradeRecord) error {
	_, err := j.db.Exec(j.rebind(`
		INSERT INTO trades
		(trade_id, instrument, label, side, units, entry_price, exit_price, stop_pips, open_time, close_time, realized_pl, reason)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`),
		t.TradeID, t.Instrument, t.Label, t.Side.String(), t.Units, t.EntryPrice,
		t.ExitPrice, t.StopPips, t.OpenTime.UTC(), t.CloseTime.UTC(), t.RealizedPL, t.Reason,
	)
	return err
}

func (j *SQL) RecordEquity(e EquitySnapshot) error {
	_, err := j.db.Exec(j.rebind(`
		INSERT INTO equity
		(time, balance, equity)
		VALUES (?, ?, ?)`),
		e.Time.UTC(), e.Balance, e.Equity,
	)
	return err
}

func (j *SQL) Close() error {
	return j.db.Close()
}

// rebind turns '?' placeholders into $1..$n for Postgres.
func (j *SQL) rebind(q string) string {
	if j.dialect != postgresDialect {
		return q
	}
	var b strings.Builder
	n := 0
	for _, r := range q {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
