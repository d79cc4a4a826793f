// Package sites resolves tracker announce urls to the name of a known indexer site.
package sites

import (
	"net/url"
	"os"
	"strings"

	"github.com/ludviglundgren/torrent-reconcile/internal/domain"

	"github.com/pkg/errors"
	"golang.org/x/net/publicsuffix"
	"gopkg.in/yaml.v3"
)

type Registry struct {
	byDomain map[string]string
	names    map[string]struct{}
}

func NewRegistry(sites []domain.SiteConfig) *Registry {
	r := &Registry{
		byDomain: map[string]string{},
		names:    map[string]struct{}{},
	}

	for _, site := range sites {
		r.Add(site)
	}

	return r
}

// LoadFile reads a yaml list of sites with their tracker domains.
func LoadFile(path string) ([]domain.SiteConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "could not read sites file: %s", path)
	}

	var sites []domain.SiteConfig
	if err := yaml.Unmarshal(data, &sites); err != nil {
		return nil, errors.Wrapf(err, "could not parse sites file: %s", path)
	}

	return sites, nil
}

func (r *Registry) Add(site domain.SiteConfig) {
	name := strings.TrimSpace(site.Name)
	if name == "" {
		return
	}

	r.names[name] = struct{}{}

	for _, d := range site.Domains {
		d = strings.ToLower(strings.TrimSpace(d))
		if d == "" {
			continue
		}
		if _, ok := r.byDomain[d]; !ok {
			r.byDomain[d] = name
		}
	}
}

// Names returns the set of known site names.
func (r *Registry) Names() map[string]struct{} {
	return r.names
}

// Lookup resolves a tracker url by its host, then by its registrable domain.
func (r *Registry) Lookup(trackerURL string) (string, bool) {
	host := Host(trackerURL)
	if host == "" {
		return "", false
	}

	if name, ok := r.byDomain[host]; ok {
		return name, true
	}

	etld1, err := publicsuffix.EffectiveTLDPlusOne(host)
	if err != nil {
		return "", false
	}

	name, ok := r.byDomain[etld1]
	return name, ok
}

// Host returns the lowercase host of a tracker url without port.
func Host(trackerURL string) string {
	u, err := url.Parse(strings.TrimSpace(trackerURL))
	if err != nil {
		return ""
	}

	return strings.ToLower(u.Hostname())
}
