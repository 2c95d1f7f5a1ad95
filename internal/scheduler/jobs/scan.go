package jobs

import (
	"context"
	"fmt"

	"github.com/wonny/sectorlag/internal/engine"
	"github.com/wonny/sectorlag/pkg/logger"
)

// ScanFunc executes one full scan.
type ScanFunc func(ctx context.Context) (*engine.Result, error)

// ResultSink consumes a finished scan result. Sinks publish to the API
// store, write research CSVs, and so on.
type ResultSink func(result *engine.Result) error

// NightlyScanJob runs the full lag scan after prices are collected and
// fans the result out to every sink.
type NightlyScanJob struct {
	scan   ScanFunc
	sinks  []ResultSink
	logger *logger.Logger
}

func NewNightlyScanJob(scan ScanFunc, log *logger.Logger, sinks ...ResultSink) *NightlyScanJob {
	return &NightlyScanJob{
		scan:   scan,
		sinks:  sinks,
		logger: log,
	}
}

func (j *NightlyScanJob) Name() string {
	return "nightly_scan"
}

// Schedule runs at 23:00 UTC on weekdays, after price collection.
func (j *NightlyScanJob) Schedule() string {
	return "0 0 23 * * 1-5"
}

func (j *NightlyScanJob) Run(ctx context.Context) error {
	j.logger.Info("Starting scheduled scan")

	result, err := j.scan(ctx)
	if err != nil {
		return fmt.Errorf("run scan: %w", err)
	}

	for _, sink := range j.sinks {
		if err := sink(result); err != nil {
			return fmt.Errorf("publish scan result: %w", err)
		}
	}

	j.logger.WithFields(map[string]interface{}{
		"events": result.Events,
		"trades": len(result.Trades),
	}).Info("Scheduled scan complete")
	return nil
}
