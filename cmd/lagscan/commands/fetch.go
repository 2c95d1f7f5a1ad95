package commands

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
)

// fetchCmd represents the fetch command
var fetchCmd = &cobra.Command{
	Use:   "fetch [tickers...]",
	Short: "Top up stored price history",
	Long: `Fetches daily bars and stores them in the database.

Each ticker is topped up from its latest stored bar, or from the full
lookback window on first sight. Without arguments the whole universe is
fetched.

Example:
  go run ./cmd/lagscan fetch
  go run ./cmd/lagscan fetch DOW HUN CE`,
	RunE: runFetchCmd,
}

func init() {
	rootCmd.AddCommand(fetchCmd)
}

func runFetchCmd(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	tickers := args
	if len(tickers) == 0 {
		u, err := a.loadUniverse()
		if err != nil {
			return err
		}
		tickers = u.AllTickers()
	}

	result, err := a.collector().Collect(ctx, tickers, time.Now().UTC())
	if err != nil {
		return err
	}

	fmt.Printf("Fetched %d bars across %d tickers\n", result.Bars, result.Tickers)
	if len(result.Failed) > 0 {
		fmt.Printf("Failed tickers: %v\n", result.Failed)
	}
	return nil
}
