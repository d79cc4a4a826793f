package downloader

import (
	"context"
	"strings"

	"github.com/ludviglundgren/torrent-reconcile/internal/domain"

	"github.com/autobrr/go-qbittorrent"
	"github.com/pkg/errors"
)

type Qbittorrent struct {
	name string
	qb   *qbittorrent.Client
}

func NewQbittorrent(cfg domain.DownloaderConfig) *Qbittorrent {
	qbtSettings := qbittorrent.Config{
		Host:          cfg.Addr,
		Username:      cfg.Login,
		Password:      cfg.Password,
		BasicUser:     cfg.BasicUser,
		BasicPass:     cfg.BasicPass,
		TLSSkipVerify: cfg.TLSSkipVerify,
	}

	return &Qbittorrent{
		name: cfg.Name,
		qb:   qbittorrent.NewClient(qbtSettings),
	}
}

func (c *Qbittorrent) Name() string { return c.name }

func (c *Qbittorrent) Type() domain.DownloaderType { return domain.DownloaderTypeQbittorrent }

func (c *Qbittorrent) Connect(ctx context.Context) error {
	if err := c.qb.LoginCtx(ctx); err != nil {
		return errors.Wrap(err, "could not login to qbit")
	}
	return nil
}

func (c *Qbittorrent) Torrents(ctx context.Context) ([]domain.Torrent, error) {
	torrents, err := c.qb.GetTorrentsCtx(ctx, qbittorrent.TorrentFilterOptions{})
	if err != nil {
		return nil, errors.Wrap(err, "could not get torrents")
	}

	out := make([]domain.Torrent, 0, len(torrents))
	for _, t := range torrents {
		out = append(out, qbitTorrent(t))
	}

	return out, nil
}

func (c *Qbittorrent) Trackers(ctx context.Context, torrent domain.Torrent) ([]domain.Tracker, error) {
	trackers, err := c.qb.GetTorrentTrackersCtx(ctx, torrent.Hash)
	if err != nil {
		return nil, errors.Wrapf(err, "could not get trackers for torrent %s", torrent.Hash)
	}

	return qbitTrackers(trackers), nil
}

// AddTags only sends the tags the torrent does not have yet.
func (c *Qbittorrent) AddTags(ctx context.Context, torrent domain.Torrent, tags []string) error {
	var add []string
	for _, tag := range tags {
		if !torrent.HasTag(tag) {
			add = append(add, tag)
		}
	}

	if len(add) == 0 {
		return nil
	}

	if err := c.qb.AddTagsCtx(ctx, []string{torrent.Hash}, strings.Join(add, ",")); err != nil {
		return errors.Wrapf(err, "could not add tags to torrent %s", torrent.Hash)
	}

	return nil
}

func (c *Qbittorrent) SetUploadLimit(ctx context.Context, torrent domain.Torrent, kib int64) error {
	if err := c.qb.SetTorrentUploadLimitCtx(ctx, []string{torrent.Hash}, kib*1024); err != nil {
		return errors.Wrapf(err, "could not set upload limit for torrent %s", torrent.Hash)
	}
	return nil
}

func (c *Qbittorrent) SetGlobalUploadLimit(ctx context.Context, kib int64) error {
	prefs := map[string]interface{}{
		"up_limit": kib * 1024,
	}

	if err := c.qb.SetPreferencesCtx(ctx, prefs); err != nil {
		return errors.Wrap(err, "could not set global upload limit")
	}
	return nil
}

func (c *Qbittorrent) Delete(ctx context.Context, torrent domain.Torrent, deleteFiles bool) error {
	if err := c.qb.DeleteTorrentsCtx(ctx, []string{torrent.Hash}, deleteFiles); err != nil {
		return errors.Wrapf(err, "could not delete torrent %s", torrent.Hash)
	}
	return nil
}

func qbitTorrent(t qbittorrent.Torrent) domain.Torrent {
	return domain.Torrent{
		Hash:        t.Hash,
		Name:        t.Name,
		SavePath:    t.SavePath,
		Tags:        splitTags(t.Tags),
		UploadLimit: t.UpLimit / 1024,
		TotalSize:   t.TotalSize,
	}
}

func qbitTrackers(trackers []qbittorrent.TorrentTracker) []domain.Tracker {
	var out []domain.Tracker
	for _, tracker := range trackers {
		// DHT, PeX and LSD are reported as disabled pseudo trackers
		if tracker.Status == qbittorrent.TrackerStatusDisabled || strings.HasPrefix(tracker.Url, "** [") {
			continue
		}
		if tracker.Url == "" {
			continue
		}

		out = append(out, domain.Tracker{
			URL:     tracker.Url,
			Working: tracker.Status == qbittorrent.TrackerStatusOK,
			Pending: tracker.Status == qbittorrent.TrackerStatusUpdating || tracker.Status == qbittorrent.TrackerStatusNotContacted,
		})
	}
	return out
}

func splitTags(tags string) []string {
	var out []string
	for _, tag := range strings.Split(tags, ",") {
		if tag = strings.TrimSpace(tag); tag != "" {
			out = append(out, tag)
		}
	}
	return out
}
