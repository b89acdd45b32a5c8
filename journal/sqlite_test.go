package journal

import (
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/rustyeddy/supertrend/market"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSQLite(t *testing.T) (*SQL, string) {
	t.Helper()

	dir := t.TempDir()
	path := filepath.Join(dir, "test.db")

	j, err := NewSQLite(path)
	require.NoError(t, err)

	return j, path
}

func sampleTrade(id string, pl float64, closeT time.Time) TradeRecord {
	return TradeRecord{
		TradeID:    id,
		Instrument: "NAS100_USD",
		Label:      "SupertrendTEST",
		Side:       market.Short,
		Units:      20,
		EntryPrice: 18050,
		ExitPrice:  18055,
		StopPips:   50,
		OpenTime:   closeT.Add(-time.Hour),
		CloseTime:  closeT,
		RealizedPL: pl,
		Reason:     "DownTrendEnded",
	}
}

func TestSQLiteSchemaCreated(t *testing.T) {
	t.Parallel()

	j, path := newTestSQLite(t)
	assert.NoError(t, j.Close())

	db, err := sql.Open("sqlite3", path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	rows, err := db.Query(`SELECT name FROM sqlite_master WHERE type='table' AND name IN ('trades','equity')`)
	require.NoError(t, err)
	defer rows.Close()

	found := map[string]bool{}
	for rows.Next() {
		var name string
		assert.NoError(t, rows.Scan(&name))
		found[name] = true
	}
	assert.NoError(t, rows.Err())

	assert.True(t, found["trades"])
	assert.True(t, found["equity"])
}

func TestSQLiteRecordAndGetTrade(t *testing.T) {
	t.Parallel()

	j, _ := newTestSQLite(t)
	t.Cleanup(func() { _ = j.Close() })

	closeT := time.Date(2024, 1, 2, 16, 0, 0, 0, time.UTC)
	rec := sampleTrade("T1", -100, closeT)
	require.NoError(t, j.RecordTrade(rec))

	got, err := j.GetTrade("T1")
	require.NoError(t, err)
	assert.Equal(t, rec.Label, got.Label)
	assert.Equal(t, market.Short, got.Side)
	assert.Equal(t, rec.Units, got.Units)
	assert.Equal(t, rec.StopPips, got.StopPips)
	assert.True(t, rec.CloseTime.Equal(got.CloseTime))
	assert.Equal(t, rec.RealizedPL, got.RealizedPL)

	_, err = j.GetTrade("missing")
	assert.Error(t, err)
}

func TestSQLiteListAndSummary(t *testing.T) {
	t.Parallel()

	j, _ := newTestSQLite(t)
	t.Cleanup(func() { _ = j.Close() })

	day := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	require.NoError(t, j.RecordTrade(sampleTrade("A", -5, day.Add(15*time.Hour))))
	require.NoError(t, j.RecordTrade(sampleTrade("B", 20, day.Add(17*time.Hour))))
	require.NoError(t, j.RecordTrade(sampleTrade("C", 7, day.Add(40*time.Hour))))

	recs, err := j.ListTradesClosedBetween(day, day.Add(24*time.Hour))
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, "A", recs[0].TradeID)
	assert.Equal(t, "B", recs[1].TradeID)

	trades, wins, pl, err := j.DaySummary("SupertrendTEST", day, day.Add(24*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 2, trades)
	assert.Equal(t, 1, wins)
	assert.InDelta(t, 15.0, pl, 1e-9)
}

func TestSQLiteRecordEquity(t *testing.T) {
	t.Parallel()

	j, path := newTestSQLite(t)
	ts := time.Date(2024, 1, 2, 16, 0, 0, 0, time.UTC)
	require.NoError(t, j.RecordEquity(EquitySnapshot{Time: ts, Balance: 100000, Equity: 100020}))
	require.NoError(t, j.Close())

	db, err := sql.Open("sqlite3", path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	var balance, equity float64
	require.NoError(t, db.QueryRow(`SELECT balance, equity FROM equity`).Scan(&balance, &equity))
	assert.Equal(t, 100000.0, balance)
	assert.Equal(t, 100020.0, equity)
}
