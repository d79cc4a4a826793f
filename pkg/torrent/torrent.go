// Package torrent reads .torrent and qBittorrent .fastresume files into the torrent view
// used by the classifier, so rules can be tried without a running downloader.
package torrent

import (
	"strings"

	"github.com/ludviglundgren/torrent-reconcile/internal/domain"

	"github.com/anacrolix/torrent/metainfo"
	"github.com/pkg/errors"
)

// Load reads a .torrent file or a magnet URI. Trackers keep their announce-list tier,
// their reachability is unknown.
func Load(path string) (domain.Torrent, error) {
	if strings.HasPrefix(path, "magnet:") {
		return fromMagnet(path)
	}

	mi, err := metainfo.LoadFromFile(path)
	if err != nil {
		return domain.Torrent{}, errors.Wrapf(err, "could not parse torrent file: %s", path)
	}

	info, err := mi.UnmarshalInfo()
	if err != nil {
		return domain.Torrent{}, errors.Wrapf(err, "could not parse info dict: %s", path)
	}

	t := domain.Torrent{
		Hash:      mi.HashInfoBytes().HexString(),
		Name:      info.Name,
		TotalSize: info.TotalLength(),
	}

	for tier, urls := range mi.UpvertedAnnounceList() {
		for _, u := range urls {
			if u = strings.TrimSpace(u); u != "" {
				t.Trackers = append(t.Trackers, domain.Tracker{URL: u, Tier: tier})
			}
		}
	}

	return t, nil
}

func fromMagnet(uri string) (domain.Torrent, error) {
	m, err := metainfo.ParseMagnetUri(uri)
	if err != nil {
		return domain.Torrent{}, errors.Wrapf(err, "could not parse magnet URI: %s", uri)
	}

	t := domain.Torrent{
		Hash: m.InfoHash.HexString(),
		Name: m.DisplayName,
	}
	for _, tr := range m.Trackers {
		t.Trackers = append(t.Trackers, domain.Tracker{URL: tr})
	}

	return t, nil
}
