package scheduler

import (
	"context"
	"time"
)

// Job is one schedulable unit of work.
type Job interface {
	// Name returns the job name.
	Name() string

	// Run executes the job.
	Run(ctx context.Context) error

	// Schedule returns the cron expression, with seconds.
	// Example: "0 30 22 * * 1-5" (22:30 on weekdays).
	Schedule() string
}

// JobResult records one job execution.
type JobResult struct {
	JobName   string        `json:"jobName"`
	StartTime time.Time     `json:"startTime"`
	EndTime   time.Time     `json:"endTime"`
	Duration  time.Duration `json:"duration"`
	Success   bool          `json:"success"`
	Error     string        `json:"error,omitempty"`
}

// JobHistory keeps the most recent executions of one job.
type JobHistory struct {
	Results []JobResult
}

const historyLimit = 100

// AddResult appends a result, keeping only the most recent entries.
func (h *JobHistory) AddResult(result JobResult) {
	h.Results = append(h.Results, result)
	if len(h.Results) > historyLimit {
		h.Results = h.Results[len(h.Results)-historyLimit:]
	}
}

// Latest returns the most recent result, or nil when the job never ran.
func (h *JobHistory) Latest() *JobResult {
	if len(h.Results) == 0 {
		return nil
	}
	return &h.Results[len(h.Results)-1]
}

// SuccessRate returns the share of successful runs, 0 when the job
// never ran.
func (h *JobHistory) SuccessRate() float64 {
	if len(h.Results) == 0 {
		return 0
	}
	wins := 0
	for _, result := range h.Results {
		if result.Success {
			wins++
		}
	}
	return float64(wins) / float64(len(h.Results))
}
