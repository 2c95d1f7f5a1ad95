package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/wonny/sectorlag/internal/engine"
	"github.com/wonny/sectorlag/internal/marketdata"
	"github.com/wonny/sectorlag/internal/rules"
	"github.com/wonny/sectorlag/internal/universe"
	"github.com/wonny/sectorlag/pkg/config"
	"github.com/wonny/sectorlag/pkg/database"
	"github.com/wonny/sectorlag/pkg/httputil"
	"github.com/wonny/sectorlag/pkg/logger"
)

// app bundles the shared wiring every command needs: config, logging,
// the database and the price repository.
type app struct {
	cfg  *config.Config
	log  *logger.Logger
	db   *database.DB
	repo *marketdata.Repository
}

// newApp loads config, applies global flag overrides and connects to
// the database.
func newApp() (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if universeFile != "" {
		cfg.UniverseFile = universeFile
	}
	if strategyFile != "" {
		cfg.StrategyFile = strategyFile
	}

	log := logger.New(cfg)

	db, err := database.New(cfg)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	return &app{
		cfg:  cfg,
		log:  log,
		db:   db,
		repo: marketdata.NewRepository(db, log),
	}, nil
}

func (a *app) Close() {
	a.db.Close()
}

// collector wires the rate-limited Stooq client to the repository.
func (a *app) collector() *marketdata.Collector {
	client := httputil.New(a.log).WithRateLimit(a.cfg.Stooq.RequestsPerSec)
	stooq := marketdata.NewStooqClient(a.cfg.Stooq.BaseURL, client, a.log)
	return marketdata.NewCollector(stooq, a.repo, a.cfg.Stooq.LookbackYears, a.log)
}

func (a *app) loadUniverse() (*universe.Universe, error) {
	u, err := universe.Load(a.cfg.UniverseFile)
	if err != nil {
		return nil, fmt.Errorf("load universe: %w", err)
	}
	return u, nil
}

// runScan reloads the input files and executes one scan over the
// configured lookback window, so file edits apply without a restart.
func (a *app) runScan(ctx context.Context, progress engine.Progress) (*engine.Result, error) {
	u, err := a.loadUniverse()
	if err != nil {
		return nil, err
	}
	strategy, err := rules.Load(a.cfg.StrategyFile)
	if err != nil {
		return nil, fmt.Errorf("load strategy: %w", err)
	}

	to := time.Now().UTC()
	from := to.AddDate(-a.cfg.Stooq.LookbackYears, 0, 0)

	e := engine.New(a.repo, strategy, a.log)
	if progress != nil {
		e = e.WithProgress(progress)
	}
	return e.Run(ctx, u, from, to)
}
