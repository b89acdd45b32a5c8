package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/rustyeddy/supertrend/journal"
)

var journalCmd = &cobra.Command{
	Use:   "journal",
	Short: "Query the trade journal",
	Long: `Query closed trades from a SQLite or Postgres journal and print them as Org.

Examples:
  supertrend journal trade <trade-id>
  supertrend journal day 2024-05-06
  supertrend journal day 2024-05-06 --dsn postgres://localhost/supertrend`,
}

var journalTradeCmd = &cobra.Command{
	Use:   "trade <trade-id>",
	Short: "Show one trade",
	Args:  cobra.ExactArgs(1),
	RunE:  runJournalTrade,
}

var journalDayCmd = &cobra.Command{
	Use:   "day <YYYY-MM-DD>",
	Short: "List trades closed on a day",
	Args:  cobra.ExactArgs(1),
	RunE:  runJournalDay,
}

var journalSummaryCmd = &cobra.Command{
	Use:   "summary <YYYY-MM-DD>",
	Short: "Count a label's trades and wins on a day",
	Args:  cobra.ExactArgs(1),
	RunE:  runJournalSummary,
}

var (
	journalLabel  string
	journalDBPath string
	journalDSN    string
	journalZone   string
)

func init() {
	rootCmd.AddCommand(journalCmd)
	journalCmd.AddCommand(journalTradeCmd)
	journalCmd.AddCommand(journalDayCmd)
	journalCmd.AddCommand(journalSummaryCmd)

	journalCmd.PersistentFlags().StringVarP(&journalDBPath, "db", "d", "./supertrend.sqlite", "path to SQLite journal DB")
	journalCmd.PersistentFlags().StringVar(&journalDSN, "dsn", "", "Postgres DSN (overrides --db)")
	journalCmd.PersistentFlags().StringVar(&journalZone, "tz", "UTC", "zone the day is taken in")
	journalSummaryCmd.Flags().StringVarP(&journalLabel, "label", "l", "SupertrendTEST", "strategy label")
}

func openQueryJournal() (*journal.SQL, error) {
	if journalDSN != "" {
		return journal.NewPostgres(journalDSN)
	}
	return journal.NewSQLite(journalDBPath)
}

func runJournalTrade(cmd *cobra.Command, args []string) error {
	j, err := openQueryJournal()
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	defer j.Close()

	rec, err := j.GetTrade(args[0])
	if err != nil {
		return fmt.Errorf("get trade: %w", err)
	}
	fmt.Fprint(cmd.OutOrStdout(), journal.FormatTradeOrg(rec))
	return nil
}

func runJournalDay(cmd *cobra.Command, args []string) error {
	loc, err := time.LoadLocation(journalZone)
	if err != nil {
		return fmt.Errorf("zone: %w", err)
	}
	start, end, err := dayBounds(loc, args[0])
	if err != nil {
		return fmt.Errorf("date: %w", err)
	}

	j, err := openQueryJournal()
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	defer j.Close()

	recs, err := j.ListTradesClosedBetween(start, end)
	if err != nil {
		return fmt.Errorf("query trades: %w", err)
	}
	fmt.Fprint(cmd.OutOrStdout(), journal.FormatDayOrg(start, recs))
	return nil
}

func runJournalSummary(cmd *cobra.Command, args []string) error {
	loc, err := time.LoadLocation(journalZone)
	if err != nil {
		return fmt.Errorf("zone: %w", err)
	}
	start, end, err := dayBounds(loc, args[0])
	if err != nil {
		return fmt.Errorf("date: %w", err)
	}

	j, err := openQueryJournal()
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	defer j.Close()

	trades, wins, pl, err := j.DaySummary(journalLabel, start, end)
	if err != nil {
		return fmt.Errorf("summary: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s %s trades=%d wins=%d pl=%.2f\n", args[0], journalLabel, trades, wins, pl)
	return nil
}

func dayBounds(loc *time.Location, day string) (time.Time, time.Time, error) {
	t, err := time.ParseInLocation("2006-01-02", day, loc)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	return t, t.AddDate(0, 0, 1), nil
}
