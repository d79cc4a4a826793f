package downloader

import (
	"context"
	"net/url"
	"slices"

	"github.com/ludviglundgren/torrent-reconcile/internal/domain"

	"github.com/hekmon/transmissionrpc/v3"
	"github.com/pkg/errors"
)

type Transmission struct {
	name string
	tr   *transmissionrpc.Client
}

// NewTransmission builds a client for addr, e.g. http://localhost:9091/transmission/rpc.
func NewTransmission(cfg domain.DownloaderConfig) (*Transmission, error) {
	endpoint, err := url.Parse(cfg.Addr)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid transmission addr: %s", cfg.Addr)
	}

	if endpoint.Path == "" || endpoint.Path == "/" {
		endpoint.Path = "/transmission/rpc"
	}

	if cfg.Login != "" {
		endpoint.User = url.UserPassword(cfg.Login, cfg.Password)
	}

	tr, err := transmissionrpc.New(endpoint, nil)
	if err != nil {
		return nil, errors.Wrap(err, "could not create transmission client")
	}

	return &Transmission{name: cfg.Name, tr: tr}, nil
}

func (c *Transmission) Name() string { return c.name }

func (c *Transmission) Type() domain.DownloaderType { return domain.DownloaderTypeTransmission }

func (c *Transmission) Connect(ctx context.Context) error {
	ok, serverVersion, minVersion, err := c.tr.RPCVersion(ctx)
	if err != nil {
		return errors.Wrap(err, "could not reach transmission")
	}

	if !ok {
		return errors.Errorf("transmission rpc version %d incompatible, requires %d", serverVersion, minVersion)
	}

	return nil
}

func (c *Transmission) Torrents(ctx context.Context) ([]domain.Torrent, error) {
	torrents, err := c.tr.TorrentGetAll(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "could not get torrents")
	}

	out := make([]domain.Torrent, 0, len(torrents))
	for _, t := range torrents {
		out = append(out, transmissionTorrent(t))
	}

	return out, nil
}

// Trackers are part of the torrent list response for transmission.
func (c *Transmission) Trackers(_ context.Context, torrent domain.Torrent) ([]domain.Tracker, error) {
	return torrent.Trackers, nil
}

// AddTags replaces the labels with the union of current labels and tags.
func (c *Transmission) AddTags(ctx context.Context, torrent domain.Torrent, tags []string) error {
	labels := slices.Clone(torrent.Tags)
	changed := false
	for _, tag := range tags {
		if !slices.Contains(labels, tag) {
			labels = append(labels, tag)
			changed = true
		}
	}

	if !changed {
		return nil
	}

	payload := transmissionrpc.TorrentSetPayload{
		IDs:    []int64{torrent.ID},
		Labels: labels,
	}

	if err := c.tr.TorrentSet(ctx, payload); err != nil {
		return errors.Wrapf(err, "could not set labels on torrent %s", torrent.Hash)
	}

	return nil
}

func (c *Transmission) SetUploadLimit(ctx context.Context, torrent domain.Torrent, kib int64) error {
	limited := kib > 0
	payload := transmissionrpc.TorrentSetPayload{
		IDs:           []int64{torrent.ID},
		UploadLimit:   &kib,
		UploadLimited: &limited,
	}

	if err := c.tr.TorrentSet(ctx, payload); err != nil {
		return errors.Wrapf(err, "could not set upload limit for torrent %s", torrent.Hash)
	}

	return nil
}

func (c *Transmission) SetGlobalUploadLimit(ctx context.Context, kib int64) error {
	enabled := kib > 0
	payload := transmissionrpc.SessionArguments{
		SpeedLimitUp:        &kib,
		SpeedLimitUpEnabled: &enabled,
	}

	if err := c.tr.SessionArgumentsSet(ctx, payload); err != nil {
		return errors.Wrap(err, "could not set global upload limit")
	}

	return nil
}

func (c *Transmission) Delete(ctx context.Context, torrent domain.Torrent, deleteFiles bool) error {
	payload := transmissionrpc.TorrentRemovePayload{
		IDs:             []int64{torrent.ID},
		DeleteLocalData: deleteFiles,
	}

	if err := c.tr.TorrentRemove(ctx, payload); err != nil {
		return errors.Wrapf(err, "could not delete torrent %s", torrent.Hash)
	}

	return nil
}

func transmissionTorrent(t transmissionrpc.Torrent) domain.Torrent {
	out := domain.Torrent{
		Tags: slices.Clone(t.Labels),
	}

	if t.ID != nil {
		out.ID = *t.ID
	}
	if t.HashString != nil {
		out.Hash = *t.HashString
	}
	if t.Name != nil {
		out.Name = *t.Name
	}
	if t.DownloadDir != nil {
		out.SavePath = *t.DownloadDir
	}
	if t.UploadLimited != nil && *t.UploadLimited && t.UploadLimit != nil {
		out.UploadLimit = *t.UploadLimit
	}
	if t.TotalSize != nil {
		out.TotalSize = int64(uint64(*t.TotalSize) / 8)
	}

	for _, stat := range t.TrackerStats {
		if stat.Tier < 0 || stat.Announce == "" {
			continue
		}
		out.Trackers = append(out.Trackers, domain.Tracker{
			URL:     stat.Announce,
			Tier:    int(stat.Tier),
			Working: stat.LastAnnounceSucceeded,
			Pending: !stat.HasAnnounced,
		})
	}

	return out
}
