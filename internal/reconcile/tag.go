package reconcile

import (
	"context"
	"time"

	"github.com/ludviglundgren/torrent-reconcile/internal/classify"
	"github.com/ludviglundgren/torrent-reconcile/internal/domain"
	"github.com/ludviglundgren/torrent-reconcile/internal/downloader"
)

// TagJob labels torrents by save path and by the site their trackers belong to.
type TagJob struct {
	base
	settings domain.TagSettings
	sites    classify.SiteResolver
}

func NewTagJob(settings domain.TagSettings, targets Targets, sites classify.SiteResolver, opts Options) *TagJob {
	return &TagJob{
		base:     newBase(JobTag, settings.Downloaders, targets, opts),
		settings: settings,
		sites:    sites,
	}
}

func (j *TagJob) Run(ctx context.Context) (Summary, error) {
	start := time.Now()
	var sum Summary

	trackerRules := parseTable(j.log, "tracker_map", j.settings.TrackerMap)
	pathRules := parseTable(j.log, "save_path_map", j.settings.SavePathMap)

	err := j.scan(ctx, &sum, pass{
		visit: func(ctx context.Context, client downloader.Client, torrent domain.Torrent) (bool, error) {
			// trackers are only needed when no site tag is present yet
			if !classify.HasSiteTag(torrent, j.sites) {
				var err error
				if torrent, err = trackers(ctx, client, torrent); err != nil {
					return false, err
				}
			}

			tags := classify.Labels(torrent, pathRules, trackerRules, j.sites)
			if len(tags) == 0 {
				return false, nil
			}

			log := j.log.With().Str("downloader", client.Name()).Str("hash", torrent.Hash).Str("name", torrent.Name).Strs("tags", tags).Logger()
			if j.opts.DryRun {
				log.Info().Msg("dry-run: would add tags")
				return true, nil
			}

			if err := client.AddTags(ctx, torrent, tags); err != nil {
				return false, err
			}

			log.Info().Msg("added tags")
			return true, nil
		},
	})

	return j.finish(sum, start, err)
}
