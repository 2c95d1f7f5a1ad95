package commands

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/wonny/sectorlag/internal/universe"
	"github.com/wonny/sectorlag/pkg/httputil"
)

// universeCmd represents the universe command
var universeCmd = &cobra.Command{
	Use:   "universe",
	Short: "Inspect and verify the sector universe",
}

var universeShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the configured sectors and tickers",
	RunE:  runUniverseShow,
}

var universeVerifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Cross-check universe tickers against an index constituents page",
	Long: `Scrapes the constituents table at --url and reports universe tickers
that no longer appear there. A non-empty report means the universe file
is stale.

Example:
  go run ./cmd/lagscan universe verify --url https://example.com/sp500-constituents`,
	RunE: runUniverseVerify,
}

var verifyURL string

func init() {
	rootCmd.AddCommand(universeCmd)
	universeCmd.AddCommand(universeShowCmd)
	universeCmd.AddCommand(universeVerifyCmd)

	universeVerifyCmd.Flags().StringVar(&verifyURL, "url", "", "constituents page URL (required)")
	universeVerifyCmd.MarkFlagRequired("url")
}

func runUniverseShow(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	u, err := a.loadUniverse()
	if err != nil {
		return err
	}

	for _, sector := range u.SectorNames() {
		tickers, err := u.Tickers(sector)
		if err != nil {
			return err
		}
		fmt.Printf("%-24s %v\n", sector, tickers)
	}
	return nil
}

func runUniverseVerify(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	u, err := a.loadUniverse()
	if err != nil {
		return err
	}

	scraper := universe.NewConstituentScraper(httputil.New(a.log), a.log)
	constituents, err := scraper.FetchConstituents(ctx, verifyURL)
	if err != nil {
		return err
	}

	missing := scraper.Verify(u, constituents)
	if len(missing) == 0 {
		fmt.Printf("All %d universe tickers appear in the %d scraped constituents\n",
			len(u.AllTickers()), len(constituents))
		return nil
	}

	fmt.Printf("Stale universe tickers (%d):\n", len(missing))
	for _, t := range missing {
		fmt.Printf("  - %s\n", t)
	}
	return nil
}
