package reconcile

import (
	"context"
	"time"

	"github.com/ludviglundgren/torrent-reconcile/internal/classify"
	"github.com/ludviglundgren/torrent-reconcile/internal/domain"
	"github.com/ludviglundgren/torrent-reconcile/internal/downloader"
)

// LimitJob sets per torrent upload limits from a tag table and optionally a global limit per downloader.
type LimitJob struct {
	base
	settings domain.LimitSettings
}

func NewLimitJob(settings domain.LimitSettings, targets Targets, opts Options) *LimitJob {
	return &LimitJob{
		base:     newBase(JobLimit, settings.Downloaders, targets, opts),
		settings: settings,
	}
}

func (j *LimitJob) Run(ctx context.Context) (Summary, error) {
	start := time.Now()
	var sum Summary

	speedRules := parseIntTable(j.log, "tag_map", j.settings.TagMap)

	p := pass{
		visit: func(ctx context.Context, client downloader.Client, torrent domain.Torrent) (bool, error) {
			limit, ok := classify.SpeedLimit(torrent, speedRules, j.settings.Cover)
			if !ok || limit == torrent.UploadLimit {
				return false, nil
			}

			log := j.log.With().Str("downloader", client.Name()).Str("hash", torrent.Hash).Str("name", torrent.Name).Int64("limit_kib", limit).Logger()
			if j.opts.DryRun {
				log.Info().Msg("dry-run: would set upload limit")
				return true, nil
			}

			if err := client.SetUploadLimit(ctx, torrent, limit); err != nil {
				return false, err
			}

			log.Info().Msg("set upload limit")
			return true, nil
		},
	}

	if j.settings.Global {
		p.before = func(ctx context.Context, client downloader.Client) {
			log := j.log.With().Str("downloader", client.Name()).Int64("limit_kib", j.settings.GlobalSpeed).Logger()
			if j.opts.DryRun {
				log.Info().Msg("dry-run: would set global upload limit")
				return
			}

			if err := client.SetGlobalUploadLimit(ctx, j.settings.GlobalSpeed); err != nil {
				log.Error().Err(err).Msg("could not set global upload limit")
				return
			}

			log.Info().Msg("set global upload limit")
		}
	}

	err := j.scan(ctx, &sum, p)

	return j.finish(sum, start, err)
}
