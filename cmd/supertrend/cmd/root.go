package cmd

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "supertrend",
	Short: "Single-instrument Supertrend flip trader",
	Long: `supertrend trades one instrument on Supertrend line flips.

It enters on the first bar of a new trend segment inside the session window,
exits when the position's trend line ends, reverses after a losing exit, and
stops for the day after two entries or one win.

Bars come from a CSV file or OANDA candles; orders go to the paper gateway
or an OANDA practice account.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}
