package reconcile

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/ludviglundgren/torrent-reconcile/internal/classify"
	"github.com/ludviglundgren/torrent-reconcile/internal/domain"
	"github.com/ludviglundgren/torrent-reconcile/internal/downloader"
	"github.com/ludviglundgren/torrent-reconcile/internal/rules"

	"github.com/dustin/go-humanize"
	"github.com/pkg/errors"
)

// DefaultDeleteTimes is the failure threshold used when none is configured.
const DefaultDeleteTimes = 7

// CounterStore holds the failure records between runs.
type CounterStore interface {
	Load(ctx context.Context) (map[domain.RecordKey]domain.FailureRecord, error)
	Replace(ctx context.Context, records map[domain.RecordKey]domain.FailureRecord) error
}

// DeleteJob removes torrents whose trackers stayed unreachable for more than Times runs.
// Downloaded data is always kept.
type DeleteJob struct {
	base
	settings domain.DeleteSettings
	store    CounterStore
	now      func() time.Time
}

func NewDeleteJob(settings domain.DeleteSettings, targets Targets, store CounterStore, opts Options) *DeleteJob {
	if settings.Times <= 0 {
		settings.Times = DefaultDeleteTimes
	}

	return &DeleteJob{
		base:     newBase(JobDelete, settings.Downloaders, targets, opts),
		settings: settings,
		store:    store,
		now:      time.Now,
	}
}

func (j *DeleteJob) Run(ctx context.Context) (Summary, error) {
	start := time.Now()
	var sum Summary

	ignore := rules.ParseList(j.settings.IgnoreTags)

	previous, err := j.store.Load(ctx)
	if err != nil {
		return j.finish(sum, start, errors.Wrap(err, "could not load failure records"))
	}

	next := map[domain.RecordKey]domain.FailureRecord{}
	scanned := map[string]bool{}
	var deleted []domain.FailureRecord

	err = j.scan(ctx, &sum, pass{
		loaded: func(client downloader.Client, _ []domain.Torrent) {
			scanned[client.Name()] = true
		},
		visit: func(ctx context.Context, client downloader.Client, torrent domain.Torrent) (bool, error) {
			if slices.ContainsFunc(torrent.Tags, func(tag string) bool { return slices.Contains(ignore, tag) }) {
				return false, nil
			}

			key := domain.RecordKey{Downloader: client.Name(), Hash: torrent.Hash}
			prev, known := previous[key]

			torrent, err := trackers(ctx, client, torrent)
			if err != nil {
				// keep the streak untouched, the torrent was not observed this run
				if known {
					next[key] = prev
				}
				return false, err
			}

			if classify.ResolveReachability(torrent) != classify.Unreachable {
				if j.settings.Accumulate && known {
					next[key] = prev
				}
				return false, nil
			}

			record := domain.FailureRecord{
				Hash:       torrent.Hash,
				Downloader: client.Name(),
				Name:       torrent.Name,
				Size:       torrent.TotalSize,
				Failures:   prev.Failures + 1,
				UpdatedAt:  j.now(),
			}

			log := j.log.With().Str("downloader", client.Name()).Str("hash", torrent.Hash).Str("name", torrent.Name).Int("failures", record.Failures).Logger()

			if record.Failures <= j.settings.Times {
				next[key] = record
				log.Debug().Msg("tracker unreachable")
				return false, nil
			}

			if j.opts.DryRun {
				log.Info().Msg("dry-run: would delete torrent")
				sum.Deleted++
				deleted = append(deleted, record)
				return true, nil
			}

			if err := client.Delete(ctx, torrent, false); err != nil {
				// retried on the next run
				next[key] = record
				return false, err
			}

			log.Info().Str("size", humanize.IBytes(uint64(torrent.TotalSize))).Msg("deleted torrent")
			sum.Deleted++
			deleted = append(deleted, record)
			return true, nil
		},
	})
	if err != nil {
		// nothing is committed for an interrupted run
		return j.finish(sum, start, err)
	}

	// downloaders that could not be scanned keep their streaks
	for key, record := range previous {
		if scanned[key.Downloader] {
			continue
		}
		if _, ok := next[key]; !ok {
			next[key] = record
		}
	}

	if j.opts.DryRun {
		j.log.Info().Int("records", len(next)).Msg("dry-run: failure records not saved")
	} else if err := j.store.Replace(ctx, next); err != nil {
		return j.finish(sum, start, errors.Wrap(err, "could not save failure records"))
	}

	sum.Tracked = len(next)
	j.notify(ctx, deleted)

	return j.finish(sum, start, nil)
}

func (j *DeleteJob) notify(ctx context.Context, deleted []domain.FailureRecord) {
	if len(deleted) == 0 || j.opts.Notifier == nil || j.opts.DryRun {
		return
	}

	title := fmt.Sprintf("Deleted %d unreachable torrent(s)", len(deleted))
	if err := j.opts.Notifier.Notify(ctx, title, deletedMessage(deleted)); err != nil {
		j.log.Error().Err(err).Msg("could not send notification")
	}
}

func deletedMessage(deleted []domain.FailureRecord) string {
	var b strings.Builder
	for i, r := range deleted {
		if i > 0 {
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "%s [%s] %s, %d failed runs", r.Name, r.Downloader, humanize.IBytes(uint64(r.Size)), r.Failures)
	}
	return b.String()
}
