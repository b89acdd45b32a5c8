package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/rustyeddy/supertrend/broker/oanda"
	"github.com/rustyeddy/supertrend/feed"
)

var candlesCmd = &cobra.Command{
	Use:   "candles",
	Short: "Download complete OANDA mid candles as a bar CSV",
	Long: `Download complete mid candles from OANDA and write them in the CSV layout
the csv feed reads. The token is read from OANDA_TOKEN, optionally loaded
from an env file.

Example:
  supertrend candles -i EUR_USD -g M15 -n 2000 -o bars.csv`,
	RunE: runCandles,
}

var (
	candlesInstrument  string
	candlesGranularity string
	candlesCount       int
	candlesOut         string
	candlesEnv         string
	candlesEnvFile     string
)

func init() {
	rootCmd.AddCommand(candlesCmd)

	candlesCmd.Flags().StringVarP(&candlesInstrument, "instrument", "i", "NAS100_USD", "instrument, e.g. EUR_USD")
	candlesCmd.Flags().StringVarP(&candlesGranularity, "granularity", "g", "M15", "candle granularity, e.g. M5, M15, H1")
	candlesCmd.Flags().IntVarP(&candlesCount, "count", "n", 500, "number of candles (max 5000)")
	candlesCmd.Flags().StringVarP(&candlesOut, "out", "o", "", "output CSV path (default stdout)")
	candlesCmd.Flags().StringVar(&candlesEnv, "env", "practice", "OANDA environment")
	candlesCmd.Flags().StringVar(&candlesEnvFile, "env-file", ".env", "file with OANDA_TOKEN")
}

func runCandles(cmd *cobra.Command, args []string) error {
	if err := oanda.LoadEnv(candlesEnvFile); err != nil {
		return err
	}
	token, err := oanda.Token()
	if err != nil {
		return err
	}
	client, err := oanda.NewClient(candlesEnv, token, "")
	if err != nil {
		return err
	}

	bars, err := client.Candles(cmd.Context(), oanda.CandlesOptions{
		Instrument:  candlesInstrument,
		Granularity: candlesGranularity,
		Count:       candlesCount,
	})
	if err != nil {
		return fmt.Errorf("download candles: %w", err)
	}

	var w io.Writer = cmd.OutOrStdout()
	if candlesOut != "" {
		f, err := os.Create(candlesOut)
		if err != nil {
			return err
		}
		defer f.Close()
		w = f
	}
	if err := feed.WriteCSV(w, bars); err != nil {
		return fmt.Errorf("write csv: %w", err)
	}
	if candlesOut != "" {
		fmt.Fprintf(cmd.ErrOrStderr(), "wrote %d bars to %s\n", len(bars), candlesOut)
	}
	return nil
}
