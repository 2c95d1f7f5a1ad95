package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/sectorlag/internal/api"
	"github.com/wonny/sectorlag/internal/api/handlers"
	"github.com/wonny/sectorlag/internal/engine"
)

// apiCmd represents the api command
var apiCmd = &cobra.Command{
	Use:   "api",
	Short: "Start the API server",
	Long: `Starts the REST API server.

Endpoints:
  GET  /health              - Health check
  WS   /ws/progress         - Scan progress stream
  POST /api/scan            - Trigger a scan
  GET  /api/scan/summary    - Scan digest
  GET  /api/scan/sectors    - Sector investability
  GET  /api/scan/rules      - Selected rules (?scope=global|sector)
  GET  /api/scan/trades     - Candidate trades
  GET  /api/scan/portfolio  - Replayed portfolio
  GET  /api/data/universe   - Configured universe
  POST /api/data/collect    - Trigger price collection

Example:
  go run ./cmd/lagscan api
  go run ./cmd/lagscan api --port 8091`,
	RunE: runAPIServer,
}

var apiPort string

func init() {
	rootCmd.AddCommand(apiCmd)

	apiCmd.Flags().StringVar(&apiPort, "port", "", "API server port (default from PORT)")
}

func runAPIServer(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	if apiPort != "" {
		a.cfg.Port = apiPort
	}

	u, err := a.loadUniverse()
	if err != nil {
		return err
	}

	hub := api.NewHub(a.log)
	defer hub.Close()

	store := handlers.NewResultStore()
	runner := func(ctx context.Context) (*engine.Result, error) {
		return a.runScan(ctx, hub.Broadcast)
	}

	router := api.NewRouter(
		handlers.NewScanHandler(store, runner, a.log),
		handlers.NewDataHandler(a.collector(), u, a.log),
		hub,
		a.log,
	)
	server := api.New(a.cfg, a.log, router)

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-quit:
		fmt.Printf("\nReceived %s, shutting down\n", sig)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return server.Shutdown(ctx)
}
