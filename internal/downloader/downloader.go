// Package downloader gives every supported torrent client the same torrent view and mutators.
package downloader

import (
	"context"
	"strings"

	"github.com/ludviglundgren/torrent-reconcile/internal/domain"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

// Client is a connected torrent client.
type Client interface {
	Name() string
	Type() domain.DownloaderType
	Connect(ctx context.Context) error
	Torrents(ctx context.Context) ([]domain.Torrent, error)
	// Trackers returns the announce endpoints of a torrent without DHT/PeX/LSD placeholders.
	Trackers(ctx context.Context, torrent domain.Torrent) ([]domain.Tracker, error)
	AddTags(ctx context.Context, torrent domain.Torrent, tags []string) error
	SetUploadLimit(ctx context.Context, torrent domain.Torrent, kib int64) error
	SetGlobalUploadLimit(ctx context.Context, kib int64) error
	Delete(ctx context.Context, torrent domain.Torrent, deleteFiles bool) error
}

var ErrUnknownType = errors.New("unknown downloader type")

// New builds a client for cfg without connecting.
func New(cfg domain.DownloaderConfig) (Client, error) {
	switch domain.DownloaderType(strings.ToLower(string(cfg.Type))) {
	case domain.DownloaderTypeQbittorrent, "":
		return NewQbittorrent(cfg), nil
	case domain.DownloaderTypeTransmission:
		return NewTransmission(cfg)
	}

	return nil, errors.Wrapf(ErrUnknownType, "downloader %s: %q", cfg.Name, cfg.Type)
}

// Manager owns the configured clients and resolves job targets by name.
type Manager struct {
	log     zerolog.Logger
	order   []string
	clients map[string]Client
}

func NewManager(configs []domain.DownloaderConfig, log zerolog.Logger) *Manager {
	m := &Manager{
		log:     log,
		clients: map[string]Client{},
	}

	for _, cfg := range configs {
		if cfg.Name == "" {
			log.Warn().Str("addr", cfg.Addr).Msg("downloader without name, skipping")
			continue
		}
		if _, ok := m.clients[cfg.Name]; ok {
			log.Warn().Str("downloader", cfg.Name).Msg("duplicate downloader name, skipping")
			continue
		}

		client, err := New(cfg)
		if err != nil {
			log.Warn().Err(err).Str("downloader", cfg.Name).Msg("could not create downloader")
			continue
		}

		m.Add(client)
	}

	return m
}

func (m *Manager) Add(client Client) {
	if _, ok := m.clients[client.Name()]; !ok {
		m.order = append(m.order, client.Name())
	}
	m.clients[client.Name()] = client
}

// All returns every configured client in declaration order.
func (m *Manager) All() []Client {
	out := make([]Client, 0, len(m.order))
	for _, name := range m.order {
		out = append(out, m.clients[name])
	}
	return out
}

// Targets returns the connected clients named in names. Unknown or disconnected
// downloaders are logged and skipped.
func (m *Manager) Targets(ctx context.Context, names []string) []Client {
	if len(names) == 0 {
		m.log.Warn().Msg("no downloaders configured for job")
		return nil
	}

	var targets []Client
	for _, name := range names {
		client, ok := m.clients[name]
		if !ok {
			m.log.Warn().Str("downloader", name).Msg("downloader not found, check config")
			continue
		}

		if err := client.Connect(ctx); err != nil {
			m.log.Warn().Err(err).Str("downloader", name).Msg("downloader not connected, skipping")
			continue
		}

		targets = append(targets, client)
	}

	if len(targets) == 0 {
		m.log.Warn().Msg("no connected downloaders")
	}

	return targets
}
