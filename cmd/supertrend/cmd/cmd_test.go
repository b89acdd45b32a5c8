package cmd

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rustyeddy/supertrend/config"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func TestVersion(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "supertrend version")
}

func TestConfigInitAndValidate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "supertrend.yaml")

	out, err := execute(t, "config", "init", "-o", path)
	require.NoError(t, err)
	assert.Contains(t, out, path)

	out, err = execute(t, "config", "validate", "-f", path)
	require.NoError(t, err)
	assert.Contains(t, out, "Configuration valid")
	assert.Contains(t, out, "09:30-15:30 America/New_York")
}

// writeBars writes a rally then a sell-off on one New York session.
func writeBars(t *testing.T, path string) int {
	t.Helper()
	var b strings.Builder
	start := time.Date(2024, 5, 6, 13, 30, 0, 0, time.UTC)
	price := 1.0800
	n := 180
	for i := 0; i < n; i++ {
		step := 0.0005
		if i >= 90 {
			step = -0.0005
		}
		open := price
		price += step
		hi, lo := open, price
		if lo > hi {
			hi, lo = lo, hi
		}
		fmt.Fprintf(&b, "%s,%.5f,%.5f,%.5f,%.5f\n",
			start.Add(time.Duration(i)*2*time.Minute).Format(time.RFC3339), open, hi+0.0001, lo-0.0001, price)
	}
	require.NoError(t, os.WriteFile(path, []byte(b.String()), 0o644))
	return n
}

func paperConfig(t *testing.T) (string, *config.Config) {
	t.Helper()
	dir := t.TempDir()

	cfg := config.Default()
	cfg.Instrument.Name = "EUR_USD"
	cfg.Strategy.Multiplier = 1
	cfg.Feed.Path = filepath.Join(dir, "bars.csv")
	cfg.Journal.DBPath = filepath.Join(dir, "journal.sqlite")
	cfg.Log.Level = "error"
	cfg.Broker.EnvFile = ""

	path := filepath.Join(dir, "supertrend.yaml")
	require.NoError(t, cfg.SaveToFile(path))
	return path, cfg
}

func TestRunPaperCSV(t *testing.T) {
	path, cfg := paperConfig(t)
	n := writeBars(t, cfg.Feed.Path)

	out, err := execute(t, "run", "-f", path)
	require.NoError(t, err)
	assert.Contains(t, out, fmt.Sprintf("bars=%d", n))
	assert.Contains(t, out, "from 2024-05-06T13:30:00Z")

	out, err = execute(t, "journal", "summary", "2024-05-06", "--db", cfg.Journal.DBPath, "-l", cfg.Strategy.Label)
	require.NoError(t, err)
	assert.Contains(t, out, "2024-05-06 SupertrendTEST trades=")

	out, err = execute(t, "journal", "day", "2024-05-06", "--db", cfg.Journal.DBPath)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "* 2024-05-06 trades="))
}

func TestRunRefusesUnknownZone(t *testing.T) {
	path, cfg := paperConfig(t)
	cfg.Session.Timezone = "Mars/Olympus_Mons"
	require.NoError(t, cfg.SaveToFile(path))

	_, err := execute(t, "run", "-f", path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "refusing to start")
}

func TestRunMissingFeed(t *testing.T) {
	path, _ := paperConfig(t)

	_, err := execute(t, "run", "-f", path)
	assert.Error(t, err)
}

func TestOpenJournalNone(t *testing.T) {
	j, err := openJournal(config.JournalConfig{Type: "none"})
	require.NoError(t, err)
	assert.NoError(t, j.Close())
}
