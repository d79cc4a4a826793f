package cmd

import (
	"bytes"
	"testing"

	"github.com/ludviglundgren/torrent-reconcile/internal/domain"
	"github.com/ludviglundgren/torrent-reconcile/internal/sites"

	"github.com/stretchr/testify/assert"
)

func Test_classifyTorrent(t *testing.T) {
	cfg := domain.AppConfig{
		Tag: domain.TagSettings{
			TrackerMap:  "abc.com:Free\nbroken line",
			SavePathMap: "/data/movies:Movies",
		},
		Limit: domain.LimitSettings{TagMap: "Free:50\nPT:100"},
	}
	registry := sites.NewRegistry([]domain.SiteConfig{{Name: "HDSite", Domains: []string{"hdsite.org"}}})

	type args struct {
		torrent domain.Torrent
		cover   bool
	}
	tests := []struct {
		name      string
		args      args
		wantSite  string
		wantPath  string
		wantTags  []string
		wantLimit int64
		wantOk    bool
	}{
		{
			name: "tracker rule and path",
			args: args{torrent: domain.Torrent{
				SavePath: "/data/movies/Some.Release",
				Trackers: []domain.Tracker{{URL: "https://tracker.abc.com/announce"}},
			}},
			wantSite:  "Free",
			wantPath:  "Movies",
			wantTags:  []string{"Movies", "Free"},
			wantLimit: 50,
			wantOk:    true,
		},
		{
			name: "registry site",
			args: args{torrent: domain.Torrent{
				SavePath: "/data/tv",
				Tags:     []string{"PT"},
				Trackers: []domain.Tracker{{URL: "https://t.hdsite.org/announce"}},
			}},
			wantSite:  "HDSite",
			wantTags:  []string{"HDSite"},
			wantLimit: 100,
			wantOk:    true,
		},
		{
			name: "already tagged with site, manual limit kept",
			args: args{torrent: domain.Torrent{
				SavePath:    "/data/movies",
				Tags:        []string{"HDSite", "Free"},
				UploadLimit: 30,
				Trackers:    []domain.Tracker{{URL: "https://tracker.abc.com/announce"}},
			}},
			wantPath: "Movies",
			wantTags: []string{"Movies"},
		},
		{
			name: "manual limit covered",
			args: args{
				torrent: domain.Torrent{Tags: []string{"PT"}, UploadLimit: 30},
				cover:   true,
			},
			wantLimit: 100,
			wantOk:    true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := classifyTorrent(tt.args.torrent, cfg, registry, tt.args.cover)

			assert.Equal(t, tt.wantSite, got.Site)
			assert.Equal(t, tt.wantPath, got.Path)
			assert.Equal(t, tt.wantTags, got.NewTags)
			assert.Equal(t, tt.wantLimit, got.Limit)
			assert.Equal(t, tt.wantOk, got.HasLimit)
			assert.Len(t, got.Warnings, 1)
		})
	}
}

func Test_classification_print(t *testing.T) {
	c := classification{
		Torrent:  domain.Torrent{Name: "Some.Release", Hash: "abc", TotalSize: 1 << 30},
		Site:     "Free",
		NewTags:  []string{"Free"},
		Limit:    50,
		HasLimit: true,
	}

	var buf bytes.Buffer
	c.print(&buf)

	out := buf.String()
	assert.Contains(t, out, "Some.Release")
	assert.Contains(t, out, "1.0 GiB")
	assert.Contains(t, out, "50 KiB/s")
}
