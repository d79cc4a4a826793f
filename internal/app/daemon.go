package app

import (
	"reflect"
	"sync"

	"github.com/ludviglundgren/torrent-reconcile/internal/config"
	"github.com/ludviglundgren/torrent-reconcile/internal/domain"
	"github.com/ludviglundgren/torrent-reconcile/internal/reconcile"
	"github.com/ludviglundgren/torrent-reconcile/internal/scheduler"

	"github.com/rs/zerolog"
)

// Daemon keeps one trigger per enabled job and rebuilds them when the config changes.
type Daemon struct {
	log      zerolog.Logger
	recorder reconcile.Recorder

	// ResetOnlyOnce persists onlyonce=false for the given jobs once their one-shot run is queued.
	ResetOnlyOnce func(jobs ...string) error

	mu       sync.Mutex
	app      *App
	triggers map[string]*scheduler.Trigger
}

func NewDaemon(log zerolog.Logger, recorder reconcile.Recorder) *Daemon {
	return &Daemon{
		log:           log,
		recorder:      recorder,
		ResetOnlyOnce: config.ResetOnlyOnce,
	}
}

func (d *Daemon) Start(cfg domain.AppConfig) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	return d.start(cfg)
}

func (d *Daemon) start(cfg domain.AppConfig) error {
	a, err := New(cfg, d.log, d.recorder)
	if err != nil {
		return err
	}

	loc, err := config.Location(cfg)
	if err != nil {
		d.log.Warn().Err(err).Str("timezone", cfg.Timezone).Msg("unknown timezone, using local time")
		loc = nil
	}

	d.app = a
	d.triggers = map[string]*scheduler.Trigger{}

	var once []string
	for _, name := range Jobs {
		settings := a.Schedule(name)
		if !settings.Enabled && !settings.OnlyOnce {
			continue
		}

		log := d.log.With().Str("job", name).Logger()

		job, err := a.Job(name, false)
		if err != nil {
			log.Error().Err(err).Msg("could not create job")
			continue
		}

		schedule := scheduler.Schedule{Mode: scheduler.ModeDisabled}
		if settings.Enabled {
			schedule = scheduler.FromConfig(settings)
		}

		trigger, err := scheduler.NewTrigger(job, schedule, loc, d.log)
		if err != nil {
			log.Error().Err(err).Msg("invalid schedule, job skipped")
			continue
		}

		trigger.Start()
		d.triggers[name] = trigger

		if settings.OnlyOnce {
			trigger.RunOnce(scheduler.OnlyOnceDelay)
			once = append(once, name)
		}
	}

	if len(once) > 0 && d.ResetOnlyOnce != nil {
		if err := d.ResetOnlyOnce(once...); err != nil {
			d.log.Warn().Err(err).Strs("jobs", once).Msg("could not reset onlyonce")
		}
	}

	if len(d.triggers) == 0 {
		d.log.Warn().Msg("no jobs enabled")
	}

	return nil
}

// Reload rebuilds every trigger from cfg. Running jobs are stopped first.
// A save that only switches onlyonce off is ignored, switching it on queues the one-shot run.
func (d *Daemon) Reload(cfg domain.AppConfig) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.app != nil && sameSettings(d.app.Config, cfg) {
		d.log.Debug().Msg("config saved without changes")
		return nil
	}

	d.log.Info().Msg("config changed, reloading jobs")
	d.stop()

	return d.start(cfg)
}

// Triggers returns the active trigger of every scheduled job.
func (d *Daemon) Triggers() map[string]*scheduler.Trigger {
	d.mu.Lock()
	defer d.mu.Unlock()

	out := make(map[string]*scheduler.Trigger, len(d.triggers))
	for name, t := range d.triggers {
		out[name] = t
	}
	return out
}

func (d *Daemon) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.stop()
}

func (d *Daemon) stop() {
	for _, trigger := range d.triggers {
		trigger.Stop()
	}
	d.triggers = nil

	if d.app != nil {
		if err := d.app.Close(); err != nil {
			d.log.Error().Err(err).Msg("could not close state")
		}
		d.app = nil
	}
}

// sameSettings reports whether b differs from the running config a only by onlyonce
// being switched off. Switching onlyonce on is a change.
func sameSettings(a, b domain.AppConfig) bool {
	if !b.Tag.OnlyOnce {
		a.Tag.OnlyOnce = false
	}
	if !b.Limit.OnlyOnce {
		a.Limit.OnlyOnce = false
	}
	if !b.Delete.OnlyOnce {
		a.Delete.OnlyOnce = false
	}

	return reflect.DeepEqual(a, b)
}
