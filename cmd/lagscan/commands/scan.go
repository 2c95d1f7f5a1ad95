package commands

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/sectorlag/internal/engine"
	"github.com/wonny/sectorlag/internal/reporting"
	"github.com/wonny/sectorlag/internal/rules"
)

// scanCmd represents the scan command
var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Run one full lag scan",
	Long: `Runs one full scan over the stored price history.

This command:
- builds the normalized series for every universe ticker
- detects lag events over the rule grid
- scores every rule and filters sectors by investability
- replays the selected trades through the portfolio simulator
- writes research CSVs and prints the ranked report

Example:
  go run ./cmd/lagscan scan
  go run ./cmd/lagscan scan --from 2023-01-01 --to 2024-06-30 --output research`,
	RunE: runScanCmd,
}

var (
	scanFrom    string
	scanTo      string
	scanOutput  string
	scanNoColor bool
	scanNoCSV   bool
)

func init() {
	rootCmd.AddCommand(scanCmd)

	scanCmd.Flags().StringVar(&scanFrom, "from", "", "history start date (YYYY-MM-DD, default lookback years before --to)")
	scanCmd.Flags().StringVar(&scanTo, "to", "", "history end date (YYYY-MM-DD, default today)")
	scanCmd.Flags().StringVar(&scanOutput, "output", "", "CSV output directory (default from OUTPUT_DIR)")
	scanCmd.Flags().BoolVar(&scanNoColor, "no-color", false, "disable colored output")
	scanCmd.Flags().BoolVar(&scanNoCSV, "no-csv", false, "skip writing research CSVs")
}

func runScanCmd(cmd *cobra.Command, args []string) error {
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
	strategy, err := rules.Load(a.cfg.StrategyFile)
	if err != nil {
		return fmt.Errorf("load strategy: %w", err)
	}

	to := time.Now().UTC()
	if scanTo != "" {
		if to, err = time.Parse("2006-01-02", scanTo); err != nil {
			return fmt.Errorf("invalid --to date: %w", err)
		}
	}
	from := to.AddDate(-a.cfg.Stooq.LookbackYears, 0, 0)
	if scanFrom != "" {
		if from, err = time.Parse("2006-01-02", scanFrom); err != nil {
			return fmt.Errorf("invalid --from date: %w", err)
		}
	}

	e := engine.New(a.repo, strategy, a.log).
		WithProgress(func(stage string, done, total int) {
			fmt.Printf("\r%-8s %d/%d", stage, done, total)
			if done == total {
				fmt.Println()
			}
		})

	result, err := e.Run(ctx, u, from, to)
	if err != nil {
		return err
	}

	if !scanNoCSV {
		dir := a.cfg.OutputDir
		if scanOutput != "" {
			dir = scanOutput
		}
		writer := reporting.NewCSVWriter(dir, a.log)
		if err := writer.WriteAll(result); err != nil {
			return fmt.Errorf("write csv: %w", err)
		}
		fmt.Printf("Research CSVs written to %s\n", dir)
	}

	reporting.NewConsoleReporter(os.Stdout, !scanNoColor).PrintAll(result)
	return nil
}
