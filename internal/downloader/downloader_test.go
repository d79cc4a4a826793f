package downloader

import (
	"context"
	"errors"
	"testing"

	"github.com/ludviglundgren/torrent-reconcile/internal/domain"

	"github.com/autobrr/go-qbittorrent"
	"github.com/hekmon/transmissionrpc/v3"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubClient struct {
	name       string
	connectErr error
}

func (s *stubClient) Name() string                      { return s.name }
func (s *stubClient) Type() domain.DownloaderType       { return domain.DownloaderTypeQbittorrent }
func (s *stubClient) Connect(ctx context.Context) error { return s.connectErr }
func (s *stubClient) Torrents(ctx context.Context) ([]domain.Torrent, error) {
	return nil, nil
}
func (s *stubClient) Trackers(ctx context.Context, t domain.Torrent) ([]domain.Tracker, error) {
	return nil, nil
}
func (s *stubClient) AddTags(ctx context.Context, t domain.Torrent, tags []string) error { return nil }
func (s *stubClient) SetUploadLimit(ctx context.Context, t domain.Torrent, kib int64) error {
	return nil
}
func (s *stubClient) SetGlobalUploadLimit(ctx context.Context, kib int64) error { return nil }
func (s *stubClient) Delete(ctx context.Context, t domain.Torrent, deleteFiles bool) error {
	return nil
}

func TestManager_Targets(t *testing.T) {
	m := NewManager(nil, zerolog.Nop())
	m.Add(&stubClient{name: "qb"})
	m.Add(&stubClient{name: "offline", connectErr: errors.New("connection refused")})
	m.Add(&stubClient{name: "tr"})

	targets := m.Targets(context.Background(), []string{"tr", "missing", "offline", "qb"})

	var names []string
	for _, c := range targets {
		names = append(names, c.Name())
	}
	assert.Equal(t, []string{"tr", "qb"}, names)

	assert.Empty(t, m.Targets(context.Background(), nil))
	assert.Len(t, m.All(), 3)
}

func TestNew(t *testing.T) {
	qb, err := New(domain.DownloaderConfig{Name: "qb", Type: "qBittorrent", Addr: "http://localhost:8080"})
	require.NoError(t, err)
	assert.Equal(t, domain.DownloaderTypeQbittorrent, qb.Type())

	tr, err := New(domain.DownloaderConfig{Name: "tr", Type: domain.DownloaderTypeTransmission, Addr: "http://localhost:9091"})
	require.NoError(t, err)
	assert.Equal(t, domain.DownloaderTypeTransmission, tr.Type())

	_, err = New(domain.DownloaderConfig{Name: "x", Type: "deluge"})
	assert.ErrorIs(t, err, ErrUnknownType)
}

func TestNewManager_SkipsInvalid(t *testing.T) {
	m := NewManager([]domain.DownloaderConfig{
		{Name: "qb", Type: domain.DownloaderTypeQbittorrent, Addr: "http://localhost:8080"},
		{Name: "qb", Type: domain.DownloaderTypeQbittorrent, Addr: "http://localhost:8081"},
		{Name: "", Addr: "http://localhost:8082"},
		{Name: "deluge", Type: "deluge"},
	}, zerolog.Nop())

	require.Len(t, m.All(), 1)
	assert.Equal(t, "qb", m.All()[0].Name())
}

func Test_qbitTorrent(t *testing.T) {
	got := qbitTorrent(qbittorrent.Torrent{
		Hash:      "6957bf5272f5b994132458a557864e3ea747489f",
		Name:      "Some.Release",
		SavePath:  "/downloads/movies",
		Tags:      "PT, fast,",
		UpLimit:   51200,
		TotalSize: 1024,
	})

	assert.Equal(t, domain.Torrent{
		Hash:        "6957bf5272f5b994132458a557864e3ea747489f",
		Name:        "Some.Release",
		SavePath:    "/downloads/movies",
		Tags:        []string{"PT", "fast"},
		UploadLimit: 50,
		TotalSize:   1024,
	}, got)

	assert.Equal(t, int64(0), qbitTorrent(qbittorrent.Torrent{UpLimit: -1}).UploadLimit)
	assert.Nil(t, qbitTorrent(qbittorrent.Torrent{Tags: ""}).Tags)
}

func Test_qbitTrackers(t *testing.T) {
	got := qbitTrackers([]qbittorrent.TorrentTracker{
		{Url: "** [DHT] **", Status: qbittorrent.TrackerStatusDisabled},
		{Url: "** [PeX] **", Status: qbittorrent.TrackerStatusDisabled},
		{Url: "https://tracker.abc.com/announce", Status: qbittorrent.TrackerStatusNotWorking, Message: "unreachable"},
		{Url: "https://backup.abc.com/announce", Status: qbittorrent.TrackerStatusOK},
		{Url: "https://updating.abc.com/announce", Status: qbittorrent.TrackerStatusUpdating},
		{Url: "https://new.abc.com/announce", Status: qbittorrent.TrackerStatusNotContacted},
	})

	assert.Equal(t, []domain.Tracker{
		{URL: "https://tracker.abc.com/announce", Working: false},
		{URL: "https://backup.abc.com/announce", Working: true},
		{URL: "https://updating.abc.com/announce", Pending: true},
		{URL: "https://new.abc.com/announce", Pending: true},
	}, got)
}

func Test_transmissionTorrent(t *testing.T) {
	id := int64(7)
	hash := "6957bf5272f5b994132458a557864e3ea747489f"
	name := "Some.Release"
	dir := "/downloads/tv"
	limit := int64(100)
	limited := true

	got := transmissionTorrent(transmissionrpc.Torrent{
		ID:            &id,
		HashString:    &hash,
		Name:          &name,
		DownloadDir:   &dir,
		Labels:        []string{"PT"},
		UploadLimit:   &limit,
		UploadLimited: &limited,
		TrackerStats: []transmissionrpc.TrackerStats{
			{Announce: "https://tracker.abc.com/announce", Tier: 0, HasAnnounced: true, LastAnnounceSucceeded: true},
			{Announce: "https://tracker.def.com/announce", Tier: 1, HasAnnounced: true},
			{Announce: "https://tracker.ghi.com/announce", Tier: 1},
			{Announce: "", Tier: 2},
		},
	})

	assert.Equal(t, domain.Torrent{
		ID:          7,
		Hash:        hash,
		Name:        name,
		SavePath:    dir,
		Tags:        []string{"PT"},
		UploadLimit: 100,
		Trackers: []domain.Tracker{
			{URL: "https://tracker.abc.com/announce", Tier: 0, Working: true},
			{URL: "https://tracker.def.com/announce", Tier: 1},
			{URL: "https://tracker.ghi.com/announce", Tier: 1, Pending: true},
		},
	}, got)

	limited = false
	assert.Equal(t, int64(0), transmissionTorrent(transmissionrpc.Torrent{UploadLimit: &limit, UploadLimited: &limited}).UploadLimit)
}
