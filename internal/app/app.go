// Package app wires config, downloaders, state and jobs together for the commands.
package app

import (
	"strings"

	"github.com/ludviglundgren/torrent-reconcile/internal/config"
	"github.com/ludviglundgren/torrent-reconcile/internal/domain"
	"github.com/ludviglundgren/torrent-reconcile/internal/downloader"
	"github.com/ludviglundgren/torrent-reconcile/internal/notification"
	"github.com/ludviglundgren/torrent-reconcile/internal/reconcile"
	"github.com/ludviglundgren/torrent-reconcile/internal/sites"
	"github.com/ludviglundgren/torrent-reconcile/internal/state"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

var ErrUnknownJob = errors.New("unknown job")

// Jobs lists the job names in run order.
var Jobs = []string{reconcile.JobTag, reconcile.JobLimit, reconcile.JobDelete}

type App struct {
	Config      domain.AppConfig
	Log         zerolog.Logger
	Downloaders *downloader.Manager
	Sites       *sites.Registry
	Notifier    *notification.Service
	Recorder    reconcile.Recorder

	store *state.Store
}

// New builds the app. Invalid config items are logged and skipped.
func New(cfg domain.AppConfig, log zerolog.Logger, recorder reconcile.Recorder) (*App, error) {
	for _, err := range config.Validate(cfg) {
		log.Warn().Str("item", err.Item).Msg(err.Reason)
	}

	notifier, err := notification.New(cfg.Notifications.URLs, log.With().Str("module", "notification").Logger())
	if err != nil {
		return nil, errors.Wrap(err, "could not set up notifications")
	}

	return &App{
		Config:      cfg,
		Log:         log,
		Downloaders: downloader.NewManager(cfg.Downloaders, log.With().Str("module", "downloader").Logger()),
		Sites:       Registry(cfg, log),
		Notifier:    notifier,
		Recorder:    recorder,
	}, nil
}

// Registry builds the site registry from the config and the optional sites file.
func Registry(cfg domain.AppConfig, log zerolog.Logger) *sites.Registry {
	registry := sites.NewRegistry(cfg.Sites)
	if cfg.SitesFile == "" {
		return registry
	}

	list, err := sites.LoadFile(cfg.SitesFile)
	if err != nil {
		log.Warn().Err(err).Str("file", cfg.SitesFile).Msg("could not load sites file")
	}
	for _, site := range list {
		registry.Add(site)
	}

	return registry
}

// Store opens the failure store on first use and takes its writer lock.
func (a *App) Store() (*state.Store, error) {
	if a.store != nil {
		return a.store, nil
	}

	s, err := state.Open(a.Config.State)
	if err != nil {
		return nil, err
	}

	if err := s.Lock(); err != nil {
		_ = s.Close()
		return nil, err
	}

	a.store = s
	return s, nil
}

// Job builds the named job with the current settings.
func (a *App) Job(name string, dryRun bool) (reconcile.Job, error) {
	opts := reconcile.Options{
		DryRun:   dryRun,
		Log:      a.Log,
		Recorder: a.Recorder,
	}
	if a.Notifier != nil {
		opts.Notifier = a.Notifier
	}

	switch strings.ToLower(name) {
	case reconcile.JobTag:
		return reconcile.NewTagJob(a.Config.Tag, a.Downloaders, a.Sites, opts), nil
	case reconcile.JobLimit:
		return reconcile.NewLimitJob(a.Config.Limit, a.Downloaders, opts), nil
	case reconcile.JobDelete:
		store, err := a.Store()
		if err != nil {
			return nil, err
		}
		return reconcile.NewDeleteJob(a.Config.Delete, a.Downloaders, store, opts), nil
	}

	return nil, errors.Wrapf(ErrUnknownJob, "%q", name)
}

// Schedule returns the schedule settings of a job.
func (a *App) Schedule(name string) domain.ScheduleConfig {
	switch name {
	case reconcile.JobTag:
		return a.Config.Tag.ScheduleConfig
	case reconcile.JobLimit:
		return a.Config.Limit.ScheduleConfig
	case reconcile.JobDelete:
		return a.Config.Delete.ScheduleConfig
	}
	return domain.ScheduleConfig{}
}

func (a *App) Close() error {
	if a.store == nil {
		return nil
	}
	err := a.store.Close()
	a.store = nil
	return err
}
