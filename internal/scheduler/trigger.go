package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/ludviglundgren/torrent-reconcile/internal/reconcile"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

// OnlyOnceDelay is how long a one-shot run waits after being requested.
const OnlyOnceDelay = 3 * time.Second

// Trigger owns the schedule of a single job. Runs never overlap: a firing while the
// job is still running is skipped.
type Trigger struct {
	job      reconcile.Job
	schedule Schedule
	log      zerolog.Logger

	cron    *cron.Cron
	entry   cron.EntryID
	running sync.Mutex

	ctx    context.Context
	cancel context.CancelFunc

	mu     sync.Mutex
	timers []*time.Timer
	wg     sync.WaitGroup

	// done is called with the result of every run.
	done func(reconcile.Summary, error)
}

func NewTrigger(job reconcile.Job, schedule Schedule, loc *time.Location, log zerolog.Logger) (*Trigger, error) {
	if loc == nil {
		loc = time.Local
	}

	log = log.With().Str("job", job.Name()).Logger()
	ctx, cancel := context.WithCancel(context.Background())

	t := &Trigger{
		job:      job,
		schedule: schedule,
		log:      log,
		ctx:      ctx,
		cancel:   cancel,
	}

	cronLog := cronLogger{log: log}
	t.cron = cron.New(
		cron.WithLocation(loc),
		cron.WithLogger(cronLog),
		cron.WithChain(cron.Recover(cronLog), cron.SkipIfStillRunning(cronLog)),
	)

	spec, err := schedule.Spec(log)
	if err != nil {
		cancel()
		return nil, err
	}

	if spec != nil {
		t.entry = t.cron.Schedule(spec, cron.FuncJob(t.fire))
	}

	return t, nil
}

// OnDone registers a callback invoked after every run.
func (t *Trigger) OnDone(fn func(reconcile.Summary, error)) {
	t.done = fn
}

func (t *Trigger) Start() {
	t.cron.Start()

	if t.entry != 0 {
		t.log.Info().Str("schedule", t.schedule.String()).Time("next", t.Next()).Msg("job scheduled")
	} else {
		t.log.Info().Msg("job schedule disabled")
	}
}

// Next returns the next scheduled firing, zero when the schedule is disabled.
func (t *Trigger) Next() time.Time {
	if t.entry == 0 {
		return time.Time{}
	}
	return t.cron.Entry(t.entry).Next
}

// RunOnce fires the job once after delay, independent of the schedule.
func (t *Trigger) RunOnce(delay time.Duration) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.ctx.Err() != nil {
		return
	}

	t.log.Info().Dur("delay", delay).Msg("one-shot run requested")

	t.wg.Add(1)
	timer := time.AfterFunc(delay, func() {
		defer t.wg.Done()
		t.fire()
	})
	t.timers = append(t.timers, timer)
}

// Stop cancels the running job, if any, and waits for it to return.
func (t *Trigger) Stop() {
	t.cancel()

	t.mu.Lock()
	for _, timer := range t.timers {
		if timer.Stop() {
			t.wg.Done()
		}
	}
	t.timers = nil
	t.mu.Unlock()

	<-t.cron.Stop().Done()
	t.wg.Wait()

	t.log.Debug().Msg("trigger stopped")
}

func (t *Trigger) fire() {
	if t.ctx.Err() != nil {
		return
	}

	if !t.running.TryLock() {
		t.log.Info().Msg("previous run still in progress, skipping")
		return
	}
	defer t.running.Unlock()

	sum, err := t.job.Run(t.ctx)
	if t.done != nil {
		t.done(sum, err)
	}
}

// cronLogger routes cron's own logging through zerolog.
type cronLogger struct {
	log zerolog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.log.Debug().Fields(keysAndValues).Msg(msg)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.log.Error().Err(err).Fields(keysAndValues).Msg(msg)
}
