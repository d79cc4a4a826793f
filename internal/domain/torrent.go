package domain

import (
	"slices"
	"time"
)

// Torrent is a read-only snapshot of a torrent as reported by a downloader.
// Changes are only ever made through the downloader client.
type Torrent struct {
	// ID is the downloader specific numeric id, zero when the downloader addresses torrents by hash.
	ID          int64
	Hash        string
	Name        string
	SavePath    string
	Tags        []string
	Trackers    []Tracker
	UploadLimit int64 // KiB/s, 0 means unlimited
	TotalSize   int64
}

func (t Torrent) HasTag(tag string) bool {
	return slices.Contains(t.Tags, tag)
}

type Tracker struct {
	URL     string
	Tier    int
	Working bool
	// Pending is set while the tracker has not answered an announce yet.
	Pending bool
}

type RecordKey struct {
	Downloader string
	Hash       string
}

// FailureRecord counts consecutive runs in which a torrent had no working tracker.
type FailureRecord struct {
	Hash       string
	Downloader string
	Name       string
	Size       int64
	Failures   int
	UpdatedAt  time.Time
}

func (r FailureRecord) Key() RecordKey {
	return RecordKey{Downloader: r.Downloader, Hash: r.Hash}
}
