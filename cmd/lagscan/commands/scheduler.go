package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/wonny/sectorlag/internal/engine"
	"github.com/wonny/sectorlag/internal/reporting"
	"github.com/wonny/sectorlag/internal/scheduler"
	"github.com/wonny/sectorlag/internal/scheduler/jobs"
)

// schedulerCmd represents the scheduler command
var schedulerCmd = &cobra.Command{
	Use:   "scheduler",
	Short: "Manage the job scheduler",
	Long: `Starts the scheduler daemon or runs a registered job once.

Registered jobs:
- price_collection: weekdays 22:30 UTC (top up daily bars)
- nightly_scan:     weekdays 23:00 UTC (full scan, CSVs to OUTPUT_DIR)

Example:
  go run ./cmd/lagscan scheduler start
  go run ./cmd/lagscan scheduler list
  go run ./cmd/lagscan scheduler run nightly_scan`,
}

var schedulerStartCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the scheduler daemon",
	RunE:  runSchedulerStart,
}

var schedulerListCmd = &cobra.Command{
	Use:   "list",
	Short: "List registered jobs",
	RunE:  runSchedulerList,
}

var schedulerRunCmd = &cobra.Command{
	Use:   "run [job_name]",
	Short: "Run one job immediately",
	Args:  cobra.ExactArgs(1),
	RunE:  runSchedulerJob,
}

func init() {
	rootCmd.AddCommand(schedulerCmd)
	schedulerCmd.AddCommand(schedulerStartCmd)
	schedulerCmd.AddCommand(schedulerListCmd)
	schedulerCmd.AddCommand(schedulerRunCmd)
}

// buildJobs wires the scheduled jobs against the shared app state.
func buildJobs(a *app) ([]scheduler.Job, error) {
	u, err := a.loadUniverse()
	if err != nil {
		return nil, err
	}

	writer := reporting.NewCSVWriter(a.cfg.OutputDir, a.log)
	scanJob := jobs.NewNightlyScanJob(
		func(ctx context.Context) (*engine.Result, error) {
			return a.runScan(ctx, nil)
		},
		a.log,
		writer.WriteAll,
	)

	return []scheduler.Job{
		jobs.NewPriceCollectionJob(a.collector(), u, a.log),
		scanJob,
	}, nil
}

func runSchedulerStart(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	jobList, err := buildJobs(a)
	if err != nil {
		return err
	}

	s := scheduler.New(a.log)
	for _, job := range jobList {
		if err := s.AddJob(job); err != nil {
			return err
		}
	}

	s.Start()
	fmt.Println("Scheduler started, Ctrl+C to stop")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	s.Stop()
	return nil
}

func runSchedulerList(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	jobList, err := buildJobs(a)
	if err != nil {
		return err
	}

	sort.Slice(jobList, func(i, j int) bool { return jobList[i].Name() < jobList[j].Name() })
	for _, job := range jobList {
		fmt.Printf("%-20s %s\n", job.Name(), job.Schedule())
	}
	return nil
}

func runSchedulerJob(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	jobList, err := buildJobs(a)
	if err != nil {
		return err
	}

	for _, job := range jobList {
		if job.Name() == args[0] {
			return job.Run(ctx)
		}
	}
	return fmt.Errorf("job %s not found", args[0])
}
