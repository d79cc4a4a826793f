package torrent

import (
	"os"
	"slices"

	"github.com/ludviglundgren/torrent-reconcile/internal/domain"

	"github.com/pkg/errors"
	"github.com/zeebo/bencode"
)

// Fastresume holds the parts of a qBittorrent fastresume file the classifier cares about.
type Fastresume struct {
	QbtName         string     `bencode:"qBt-name"`
	QbtSavePath     string     `bencode:"qBt-savePath"`
	QbtCategory     string     `bencode:"qBt-category"`
	QbtTags         []string   `bencode:"qBt-tags"`
	SavePath        string     `bencode:"save_path"`
	Trackers        [][]string `bencode:"trackers"`
	UploadRateLimit int64      `bencode:"upload_rate_limit"` // bytes/s, 0 or -1 is unlimited
}

func DecodeFastresume(path string) (*Fastresume, error) {
	dat, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "could not read fastresume: %s", path)
	}

	var fr Fastresume
	if err := bencode.DecodeBytes(dat, &fr); err != nil {
		return nil, errors.Wrapf(err, "could not decode fastresume: %s", path)
	}

	return &fr, nil
}

// Apply copies save path, tags, upload limit and trackers onto t.
// The torrent file's own trackers win over the fastresume list.
func (fr *Fastresume) Apply(t *domain.Torrent) {
	switch {
	case fr.QbtSavePath != "":
		t.SavePath = fr.QbtSavePath
	case fr.SavePath != "":
		t.SavePath = fr.SavePath
	}

	if t.Name == "" {
		t.Name = fr.QbtName
	}

	for _, tag := range fr.QbtTags {
		if !slices.Contains(t.Tags, tag) {
			t.Tags = append(t.Tags, tag)
		}
	}

	if fr.UploadRateLimit > 0 {
		t.UploadLimit = fr.UploadRateLimit / 1024
	}

	if len(t.Trackers) == 0 {
		for tier, urls := range fr.Trackers {
			for _, u := range urls {
				t.Trackers = append(t.Trackers, domain.Tracker{URL: u, Tier: tier})
			}
		}
	}
}
