package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/sectorlag/pkg/logger"
)

type countingJob struct {
	name     string
	schedule string
	runs     atomic.Int32
	failures int32
}

func (j *countingJob) Name() string     { return j.name }
func (j *countingJob) Schedule() string { return j.schedule }

func (j *countingJob) Run(context.Context) error {
	n := j.runs.Add(1)
	if n <= j.failures {
		return errors.New("transient failure")
	}
	return nil
}

func newJob(name string) *countingJob {
	return &countingJob{name: name, schedule: "0 0 23 * * 1-5"}
}

func TestScheduler_AddJobRejectsDuplicates(t *testing.T) {
	s := New(logger.NewNop())

	require.NoError(t, s.AddJob(newJob("scan")))
	err := s.AddJob(newJob("scan"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already exists")
	assert.Equal(t, []string{"scan"}, s.Jobs())
}

func TestScheduler_AddJobRejectsBadSchedule(t *testing.T) {
	s := New(logger.NewNop())

	job := &countingJob{name: "broken", schedule: "not a cron expression"}
	require.Error(t, s.AddJob(job))
}

func TestScheduler_RunJobRecordsHistory(t *testing.T) {
	s := New(logger.NewNop()).WithRetry(0, time.Millisecond)
	job := newJob("scan")
	require.NoError(t, s.AddJob(job))

	require.NoError(t, s.RunJob("scan"))

	require.Eventually(t, func() bool {
		history, err := s.History("scan")
		return err == nil && len(history.Results) == 1
	}, 2*time.Second, 10*time.Millisecond)

	history, err := s.History("scan")
	require.NoError(t, err)
	latest := history.Latest()
	require.NotNil(t, latest)
	assert.True(t, latest.Success)
	assert.Equal(t, 1.0, history.SuccessRate())
}

func TestScheduler_RetriesUntilSuccess(t *testing.T) {
	s := New(logger.NewNop()).WithRetry(2, time.Millisecond)
	job := newJob("flaky")
	job.failures = 2
	require.NoError(t, s.AddJob(job))

	require.NoError(t, s.RunJob("flaky"))

	require.Eventually(t, func() bool {
		history, _ := s.History("flaky")
		return history != nil && history.Latest() != nil
	}, 2*time.Second, 10*time.Millisecond)

	history, _ := s.History("flaky")
	assert.True(t, history.Latest().Success)
	assert.Equal(t, int32(3), job.runs.Load())
}

func TestScheduler_ExhaustedRetriesRecordFailure(t *testing.T) {
	s := New(logger.NewNop()).WithRetry(1, time.Millisecond)
	job := newJob("doomed")
	job.failures = 10
	require.NoError(t, s.AddJob(job))

	require.NoError(t, s.RunJob("doomed"))

	require.Eventually(t, func() bool {
		history, _ := s.History("doomed")
		return history != nil && history.Latest() != nil
	}, 2*time.Second, 10*time.Millisecond)

	history, _ := s.History("doomed")
	latest := history.Latest()
	assert.False(t, latest.Success)
	assert.Equal(t, "transient failure", latest.Error)
	assert.Equal(t, 0.0, history.SuccessRate())
}

func TestScheduler_RunJobUnknownName(t *testing.T) {
	s := New(logger.NewNop())
	assert.Error(t, s.RunJob("missing"))
	_, err := s.History("missing")
	assert.Error(t, err)
}

func TestJobHistory_TrimsToLimit(t *testing.T) {
	h := &JobHistory{}
	for i := 0; i < historyLimit+20; i++ {
		h.AddResult(JobResult{JobName: "scan", Success: i%2 == 0})
	}
	assert.Len(t, h.Results, historyLimit)
}
