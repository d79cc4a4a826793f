package scheduler

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ludviglundgren/torrent-reconcile/internal/domain"
	"github.com/ludviglundgren/torrent-reconcile/internal/reconcile"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromConfig(t *testing.T) {
	tests := []struct {
		name string
		cfg  domain.ScheduleConfig
		want Schedule
	}{
		{
			name: "defaults",
			cfg:  domain.ScheduleConfig{},
			want: Schedule{Mode: ModeCron, Cron: DefaultCron, Every: DefaultInterval, Unit: UnitHours},
		},
		{
			name: "interval_minutes",
			cfg:  domain.ScheduleConfig{Interval: "Interval", IntervalTime: 30, IntervalUnit: "MINUTES"},
			want: Schedule{Mode: ModeInterval, Cron: DefaultCron, Every: 30, Unit: UnitMinutes},
		},
		{
			name: "cron",
			cfg:  domain.ScheduleConfig{Interval: "cron", IntervalCron: " */15 * * * * "},
			want: Schedule{Mode: ModeCron, Cron: "*/15 * * * *", Every: DefaultInterval, Unit: UnitHours},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FromConfig(tt.cfg))
		})
	}
}

func TestSchedule_Validate(t *testing.T) {
	tests := []struct {
		name    string
		s       Schedule
		wantErr bool
	}{
		{name: "disabled", s: Schedule{Mode: ModeDisabled}},
		{name: "cron_ok", s: Schedule{Mode: ModeCron, Cron: "0 14 * * *"}},
		{name: "cron_bad", s: Schedule{Mode: ModeCron, Cron: "every day"}, wantErr: true},
		{name: "interval_ok", s: Schedule{Mode: ModeInterval, Every: 2, Unit: UnitHours}},
		{name: "interval_zero", s: Schedule{Mode: ModeInterval, Every: 0, Unit: UnitHours}, wantErr: true},
		{name: "interval_unit", s: Schedule{Mode: ModeInterval, Every: 2, Unit: "days"}, wantErr: true},
		{name: "unknown_mode", s: Schedule{Mode: "weekly"}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.s.Validate()
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidSchedule)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestSchedule_Interval(t *testing.T) {
	assert.Equal(t, 5*time.Minute, Schedule{Mode: ModeInterval, Every: 1, Unit: UnitMinutes}.Interval())
	assert.Equal(t, 10*time.Minute, Schedule{Mode: ModeInterval, Every: 10, Unit: UnitMinutes}.Interval())
	assert.Equal(t, 3*time.Hour, Schedule{Mode: ModeInterval, Every: 3, Unit: UnitHours}.Interval())
}

func TestSchedule_Spec(t *testing.T) {
	log := zerolog.Nop()

	spec, err := Schedule{Mode: ModeDisabled}.Spec(log)
	require.NoError(t, err)
	assert.Nil(t, spec)

	spec, err = Schedule{Mode: ModeInterval, Every: 2, Unit: UnitMinutes}.Spec(log)
	require.NoError(t, err)
	from := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	assert.Equal(t, from.Add(5*time.Minute), spec.Next(from))

	spec, err = Schedule{Mode: ModeCron, Cron: "0 14 * * *"}.Spec(log)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 5, 1, 14, 0, 0, 0, time.UTC), spec.Next(from))
}

// blockingJob runs until its context is cancelled or release is closed.
type blockingJob struct {
	runs    atomic.Int32
	started chan struct{}
	release chan struct{}
}

func newBlockingJob() *blockingJob {
	return &blockingJob{started: make(chan struct{}, 10), release: make(chan struct{})}
}

func (j *blockingJob) Name() string { return "test" }

func (j *blockingJob) Run(ctx context.Context) (reconcile.Summary, error) {
	j.runs.Add(1)
	j.started <- struct{}{}

	select {
	case <-ctx.Done():
		return reconcile.Summary{Job: "test"}, reconcile.ErrStopped
	case <-j.release:
		return reconcile.Summary{Job: "test", Scanned: 1}, nil
	}
}

func waitStarted(t *testing.T, j *blockingJob) {
	t.Helper()
	select {
	case <-j.started:
	case <-time.After(2 * time.Second):
		t.Fatal("job did not start")
	}
}

func TestTrigger_RunOnce(t *testing.T) {
	job := newBlockingJob()
	close(job.release)

	trigger, err := NewTrigger(job, Schedule{Mode: ModeDisabled}, time.UTC, zerolog.Nop())
	require.NoError(t, err)

	results := make(chan reconcile.Summary, 1)
	trigger.OnDone(func(sum reconcile.Summary, err error) {
		assert.NoError(t, err)
		results <- sum
	})

	trigger.Start()
	defer trigger.Stop()

	assert.True(t, trigger.Next().IsZero())

	trigger.RunOnce(10 * time.Millisecond)
	waitStarted(t, job)

	select {
	case sum := <-results:
		assert.Equal(t, 1, sum.Scanned)
	case <-time.After(2 * time.Second):
		t.Fatal("run did not finish")
	}
}

func TestTrigger_NoOverlap(t *testing.T) {
	job := newBlockingJob()

	trigger, err := NewTrigger(job, Schedule{Mode: ModeDisabled}, time.UTC, zerolog.Nop())
	require.NoError(t, err)
	trigger.Start()

	go trigger.fire()
	waitStarted(t, job)

	// the job holds the run lock, this firing is skipped
	trigger.fire()
	assert.Equal(t, int32(1), job.runs.Load())

	close(job.release)
	trigger.Stop()
}

func TestTrigger_StopCancelsRun(t *testing.T) {
	job := newBlockingJob()

	trigger, err := NewTrigger(job, Schedule{Mode: ModeDisabled}, time.UTC, zerolog.Nop())
	require.NoError(t, err)

	var stopped atomic.Bool
	trigger.OnDone(func(_ reconcile.Summary, err error) {
		stopped.Store(err != nil)
	})
	trigger.Start()

	trigger.RunOnce(0)
	waitStarted(t, job)

	trigger.Stop()
	assert.True(t, stopped.Load())

	// no runs after stop
	trigger.RunOnce(0)
	trigger.fire()
	assert.Equal(t, int32(1), job.runs.Load())
}

func TestTrigger_StopDropsPendingRunOnce(t *testing.T) {
	job := newBlockingJob()
	close(job.release)

	trigger, err := NewTrigger(job, Schedule{Mode: ModeInterval, Every: 1, Unit: UnitHours}, time.UTC, zerolog.Nop())
	require.NoError(t, err)
	trigger.Start()

	assert.False(t, trigger.Next().IsZero())

	trigger.RunOnce(time.Hour)
	trigger.Stop()

	assert.Equal(t, int32(0), job.runs.Load())
}

func TestNewTrigger_InvalidSchedule(t *testing.T) {
	_, err := NewTrigger(newBlockingJob(), Schedule{Mode: ModeCron, Cron: "nope"}, time.UTC, zerolog.Nop())
	assert.ErrorIs(t, err, ErrInvalidSchedule)
}
