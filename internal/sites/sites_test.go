package sites

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/ludviglundgren/torrent-reconcile/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry_Lookup(t *testing.T) {
	r := NewRegistry([]domain.SiteConfig{
		{Name: "HDSite", Domains: []string{"hdsite.org"}},
		{Name: "Tracker", Domains: []string{"tracker.example.com"}},
		{Name: "", Domains: []string{"ignored.org"}},
	})

	tests := []struct {
		name   string
		url    string
		want   string
		wantOk bool
	}{
		{name: "exact host", url: "https://tracker.example.com/announce?passkey=x", want: "Tracker", wantOk: true},
		{name: "registrable domain", url: "https://t.hdsite.org:8443/announce", want: "HDSite", wantOk: true},
		{name: "case insensitive", url: "HTTPS://T.HDSITE.ORG/announce", want: "HDSite", wantOk: true},
		{name: "unknown", url: "udp://open.tracker.net:1337", wantOk: false},
		{name: "empty site name skipped", url: "http://ignored.org/ann", wantOk: false},
		{name: "not a url", url: "** [DHT] **", wantOk: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := r.Lookup(tt.url)
			assert.Equal(t, tt.wantOk, ok)
			assert.Equal(t, tt.want, got)
		})
	}

	assert.Equal(t, map[string]struct{}{"HDSite": {}, "Tracker": {}}, r.Names())
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sites.yaml")
	err := os.WriteFile(path, []byte("- name: HDSite\n  domains:\n    - hdsite.org\n    - hdsite.net\n"), 0o644)
	require.NoError(t, err)

	sites, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, []domain.SiteConfig{{Name: "HDSite", Domains: []string{"hdsite.org", "hdsite.net"}}}, sites)

	_, err = LoadFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
