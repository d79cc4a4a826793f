// Package reconcile runs the tag, limit and delete passes over the configured downloaders.
//
// A run is a single sequential pass: downloaders one after another, torrents one after another,
// at most one mutation per torrent. Errors for a downloader skip that downloader and errors
// for a torrent skip that torrent; neither aborts the run. The run context is checked before
// every torrent and a cancelled run returns without committing anything.
package reconcile

import (
	"context"
	"time"

	"github.com/ludviglundgren/torrent-reconcile/internal/domain"
	"github.com/ludviglundgren/torrent-reconcile/internal/downloader"
	"github.com/ludviglundgren/torrent-reconcile/internal/rules"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

const (
	JobTag    = "tag"
	JobLimit  = "limit"
	JobDelete = "delete"
)

// ErrStopped is returned by a run that observed a cancelled context.
var ErrStopped = errors.New("run stopped")

type Job interface {
	Name() string
	Run(ctx context.Context) (Summary, error)
}

// Targets resolves downloader names to connected clients.
type Targets interface {
	Targets(ctx context.Context, names []string) []downloader.Client
}

// Notifier delivers a message to the configured notification services.
type Notifier interface {
	Notify(ctx context.Context, title, message string) error
}

// Recorder observes finished runs, e.g. for metrics.
type Recorder interface {
	ObserveRun(summary Summary, err error)
}

type Summary struct {
	Job         string
	DryRun      bool
	Downloaders int
	Scanned     int
	Changed     int
	Failed      int
	Deleted     int
	// Tracked is the number of failure records kept after a delete run.
	Tracked  int
	Duration time.Duration
}

func (s Summary) Dict() *zerolog.Event {
	return zerolog.Dict().
		Int("downloaders", s.Downloaders).
		Int("scanned", s.Scanned).
		Int("changed", s.Changed).
		Int("failed", s.Failed).
		Int("deleted", s.Deleted).
		Int("tracked", s.Tracked).
		Dur("duration", s.Duration)
}

type Options struct {
	DryRun   bool
	Log      zerolog.Logger
	Notifier Notifier
	Recorder Recorder
}

// pass is the per run skeleton shared by every job.
type pass struct {
	// before runs for every target ahead of fetching its torrents.
	before func(ctx context.Context, client downloader.Client)
	// loaded runs once the torrent list of a downloader has been fetched.
	loaded func(client downloader.Client, torrents []domain.Torrent)
	// visit classifies a torrent and applies at most one change. It reports whether a change was made.
	visit func(ctx context.Context, client downloader.Client, torrent domain.Torrent) (bool, error)
}

type base struct {
	name        string
	downloaders []string
	targets     Targets
	opts        Options
	log         zerolog.Logger
}

func newBase(name string, downloaders []string, targets Targets, opts Options) base {
	return base{
		name:        name,
		downloaders: downloaders,
		targets:     targets,
		opts:        opts,
		log:         opts.Log.With().Str("job", name).Bool("dry_run", opts.DryRun).Logger(),
	}
}

func (b *base) Name() string {
	return b.name
}

func (b *base) scan(ctx context.Context, sum *Summary, p pass) error {
	clients := b.targets.Targets(ctx, b.downloaders)
	if len(clients) == 0 {
		return nil
	}

	for _, client := range clients {
		if err := ctx.Err(); err != nil {
			return errors.Wrap(ErrStopped, err.Error())
		}

		log := b.log.With().Str("downloader", client.Name()).Logger()
		log.Info().Msg("scanning downloader")

		if p.before != nil {
			p.before(ctx, client)
		}

		torrents, err := client.Torrents(ctx)
		if err != nil {
			log.Error().Err(err).Msg("could not get torrents, skipping downloader")
			continue
		}
		if len(torrents) == 0 {
			log.Info().Msg("no torrents found, skipping downloader")
			continue
		}

		sum.Downloaders++
		if p.loaded != nil {
			p.loaded(client, torrents)
		}

		for _, torrent := range torrents {
			if err := ctx.Err(); err != nil {
				log.Info().Msg("stop requested, aborting run")
				return errors.Wrap(ErrStopped, err.Error())
			}

			sum.Scanned++

			changed, err := p.visit(ctx, client, torrent)
			if err != nil {
				sum.Failed++
				log.Error().Err(err).Str("hash", torrent.Hash).Str("name", torrent.Name).Msg("could not process torrent")
				continue
			}
			if changed {
				sum.Changed++
			}
		}
	}

	return nil
}

// finish stamps and reports a summary.
func (b *base) finish(sum Summary, start time.Time, err error) (Summary, error) {
	sum.Job = b.name
	sum.DryRun = b.opts.DryRun
	sum.Duration = time.Since(start)

	if b.opts.Recorder != nil {
		b.opts.Recorder.ObserveRun(sum, err)
	}

	switch {
	case errors.Is(err, ErrStopped):
		b.log.Warn().Dict("summary", sum.Dict()).Msg("run stopped")
	case err != nil:
		b.log.Error().Err(err).Dict("summary", sum.Dict()).Msg("run failed")
	default:
		b.log.Info().Dict("summary", sum.Dict()).Msg("run finished")
	}

	return sum, err
}

// trackers makes sure the torrent carries its tracker list. Transmission reports them with
// the torrent, qBittorrent needs one call per torrent.
func trackers(ctx context.Context, client downloader.Client, torrent domain.Torrent) (domain.Torrent, error) {
	if len(torrent.Trackers) > 0 {
		return torrent, nil
	}

	list, err := client.Trackers(ctx, torrent)
	if err != nil {
		return torrent, err
	}

	torrent.Trackers = list
	return torrent, nil
}

func parseTable(log zerolog.Logger, key, text string) rules.Table {
	table, warnings := rules.Parse(text, rules.DefaultSeparator)
	logWarnings(log, key, warnings)
	return table
}

func parseIntTable(log zerolog.Logger, key, text string) rules.IntTable {
	table, warnings := rules.ParseInt(text, rules.DefaultSeparator)
	logWarnings(log, key, warnings)
	return table
}

func logWarnings(log zerolog.Logger, key string, warnings []rules.Warning) {
	for _, w := range warnings {
		log.Warn().Str("rules", key).Int("line", w.Line).Str("text", w.Text).Msg(w.Reason)
	}
}
