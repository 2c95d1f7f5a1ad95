// Package commands implements the lagscan CLI.
package commands

import (
	"github.com/spf13/cobra"
)

var (
	// Global flags
	universeFile string
	strategyFile string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "lagscan",
	Short: "sectorlag - sector lag detection and rule backtesting",
	Long: `lagscan finds sector laggers and backtests catch-up rules.

When most tickers in a sector move together and one member lags, the
lagger tends to catch up. lagscan detects those events over a rule grid,
scores every rule on its historical trades, filters sectors by their
aggregate trade quality, and replays the surviving trades through a
slot-limited portfolio.

Usage:
  go run ./cmd/lagscan [command]

Examples:
  go run ./cmd/lagscan fetch
  go run ./cmd/lagscan scan --output research
  go run ./cmd/lagscan api
  go run ./cmd/lagscan scheduler start`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&universeFile, "universe", "", "universe file (default from UNIVERSE_FILE)")
	rootCmd.PersistentFlags().StringVar(&strategyFile, "strategy", "", "strategy file (default from STRATEGY_FILE)")
}
