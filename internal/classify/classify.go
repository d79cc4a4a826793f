// Package classify decides per torrent which labels, speed limit and reachability apply.
// Everything in here is pure: no downloader calls, no state.
package classify

import (
	"slices"

	"github.com/ludviglundgren/torrent-reconcile/internal/domain"
	"github.com/ludviglundgren/torrent-reconcile/internal/rules"
)

// SiteResolver is the indexer registry consulted when no tracker rule matches.
type SiteResolver interface {
	Lookup(trackerURL string) (string, bool)
	Names() map[string]struct{}
}

type Reachability int

const (
	Unknown Reachability = iota
	Reachable
	Unreachable
)

func (r Reachability) String() string {
	switch r {
	case Reachable:
		return "reachable"
	case Unreachable:
		return "unreachable"
	}
	return "unknown"
}

// HasSiteTag reports whether the torrent already carries the name of a known site.
func HasSiteTag(t domain.Torrent, sites SiteResolver) bool {
	if sites == nil {
		return false
	}

	names := sites.Names()
	for _, tag := range t.Tags {
		if _, ok := names[tag]; ok {
			return true
		}
	}

	return false
}

// SiteLabel walks the trackers in the order reported by the downloader. For each tracker the
// first matching tracker rule wins, then the site registry. The first tracker yielding a label stops the search.
func SiteLabel(t domain.Torrent, trackerRules rules.Table, sites SiteResolver) (string, bool) {
	if HasSiteTag(t, sites) {
		return "", false
	}

	for _, tracker := range t.Trackers {
		if tracker.URL == "" || tracker.Tier < 0 {
			continue
		}

		if label, ok := trackerRules.FirstMatch(tracker.URL, rules.MatchSubstring); ok {
			return label, true
		}

		if sites == nil {
			continue
		}

		if label, ok := sites.Lookup(tracker.URL); ok {
			return label, true
		}
	}

	return "", false
}

// PathLabel returns the label of the first rule whose key is contained in the save path.
func PathLabel(t domain.Torrent, pathRules rules.Table) (string, bool) {
	if t.SavePath == "" {
		return "", false
	}

	return pathRules.FirstMatch(t.SavePath, rules.MatchSubstring)
}

// SpeedLimit returns the KiB/s limit of the first rule, in rule order, naming one of the torrent tags.
// A torrent with a manual limit is left alone unless cover is set.
func SpeedLimit(t domain.Torrent, speedRules rules.IntTable, cover bool) (int64, bool) {
	if t.UploadLimit > 0 && !cover {
		return 0, false
	}

	for _, rule := range speedRules {
		if t.HasTag(rule.Key) {
			return rule.Value, true
		}
	}

	return 0, false
}

// ResolveReachability is Reachable when any tracker had a successful announce.
// Torrents without trackers, or with an announce still pending, are Unknown.
func ResolveReachability(t domain.Torrent) Reachability {
	seen, pending := false, false
	for _, tracker := range t.Trackers {
		if tracker.Tier < 0 {
			continue
		}
		seen = true
		if tracker.Working {
			return Reachable
		}
		if tracker.Pending {
			pending = true
		}
	}

	if !seen || pending {
		return Unknown
	}

	return Unreachable
}

// Labels combines path and site labels and returns the ones the torrent does not carry yet.
func Labels(t domain.Torrent, pathRules, trackerRules rules.Table, sites SiteResolver) []string {
	var labels []string

	if label, ok := PathLabel(t, pathRules); ok {
		labels = append(labels, label)
	}

	if label, ok := SiteLabel(t, trackerRules, sites); ok {
		labels = append(labels, label)
	}

	return missingTags(t, labels)
}

func missingTags(t domain.Torrent, labels []string) []string {
	var out []string
	for _, label := range labels {
		if t.HasTag(label) || slices.Contains(out, label) {
			continue
		}
		out = append(out, label)
	}
	return out
}
