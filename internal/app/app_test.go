package app

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/ludviglundgren/torrent-reconcile/internal/domain"
	"github.com/ludviglundgren/torrent-reconcile/internal/reconcile"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(t *testing.T) domain.AppConfig {
	t.Helper()

	sitesFile := filepath.Join(t.TempDir(), "sites.yaml")
	require.NoError(t, os.WriteFile(sitesFile, []byte("- name: Registry\n  domains: [registry.org]\n"), 0o644))

	return domain.AppConfig{
		State:     filepath.Join(t.TempDir(), "trc.db"),
		SitesFile: sitesFile,
		Downloaders: []domain.DownloaderConfig{
			{Name: "qb", Type: domain.DownloaderTypeQbittorrent, Addr: "http://127.0.0.1:1"},
		},
		Sites: []domain.SiteConfig{{Name: "PT", Domains: []string{"abc.com"}}},
	}
}

func TestNew(t *testing.T) {
	a, err := New(testConfig(t), zerolog.Nop(), nil)
	require.NoError(t, err)
	defer a.Close()

	assert.Len(t, a.Downloaders.All(), 1)
	assert.Nil(t, a.Notifier)

	name, ok := a.Sites.Lookup("https://tracker.registry.org/announce")
	assert.True(t, ok)
	assert.Equal(t, "Registry", name)
}

func TestApp_Job(t *testing.T) {
	a, err := New(testConfig(t), zerolog.Nop(), nil)
	require.NoError(t, err)
	defer a.Close()

	for _, name := range Jobs {
		job, err := a.Job(name, true)
		require.NoError(t, err, name)
		assert.Equal(t, name, job.Name())
	}

	_, err = a.Job("prune", false)
	assert.ErrorIs(t, err, ErrUnknownJob)

	// the delete job holds the state lock
	other, err := New(a.Config, zerolog.Nop(), nil)
	require.NoError(t, err)
	_, err = other.Job(reconcile.JobDelete, false)
	assert.Error(t, err)
}

func TestDaemon_StartOnlyOnce(t *testing.T) {
	cfg := testConfig(t)
	cfg.Tag.Enabled = true
	cfg.Tag.Interval = "interval"
	cfg.Tag.IntervalTime = 1
	cfg.Limit.OnlyOnce = true
	cfg.Delete.Enabled = true
	cfg.Delete.Interval = "cron"
	cfg.Delete.IntervalCron = "not a cron"

	d := NewDaemon(zerolog.Nop(), nil)

	var reset []string
	d.ResetOnlyOnce = func(jobs ...string) error {
		reset = append(reset, jobs...)
		return nil
	}

	require.NoError(t, d.Start(cfg))
	defer d.Stop()

	triggers := d.Triggers()
	assert.Contains(t, triggers, reconcile.JobTag)
	assert.Contains(t, triggers, reconcile.JobLimit)
	assert.NotContains(t, triggers, reconcile.JobDelete, "invalid cron is skipped")

	assert.False(t, triggers[reconcile.JobTag].Next().IsZero())
	assert.True(t, triggers[reconcile.JobLimit].Next().IsZero())
	assert.Equal(t, []string{reconcile.JobLimit}, reset)

	// saving onlyonce=false alone does not rebuild the triggers
	saved := cfg
	saved.Limit.OnlyOnce = false
	require.NoError(t, d.Reload(saved))
	assert.Same(t, triggers[reconcile.JobTag], d.Triggers()[reconcile.JobTag])

	changed := saved
	changed.Tag.Enabled = false
	require.NoError(t, d.Reload(changed))
	assert.Empty(t, d.Triggers())
}

func Test_sameSettings(t *testing.T) {
	base := domain.AppConfig{Tag: domain.TagSettings{TrackerMap: "abc.com:PT"}}

	once := base
	once.Tag.OnlyOnce = true

	changed := base
	changed.Tag.TrackerMap = "abc.com:Free"

	tests := []struct {
		name    string
		running domain.AppConfig
		saved   domain.AppConfig
		want    bool
	}{
		{name: "unchanged", running: base, saved: base, want: true},
		{name: "onlyonce reset", running: once, saved: base, want: true},
		{name: "onlyonce switched on", running: base, saved: once, want: false},
		{name: "onlyonce kept on", running: once, saved: once, want: true},
		{name: "rule changed", running: base, saved: changed, want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, sameSettings(tt.running, tt.saved))
		})
	}
}

func TestDaemon_ReloadOnlyOnceSwitchedOn(t *testing.T) {
	cfg := testConfig(t)
	cfg.Tag.Enabled = true
	cfg.Tag.Interval = "interval"
	cfg.Tag.IntervalTime = 1

	d := NewDaemon(zerolog.Nop(), nil)

	var reset []string
	d.ResetOnlyOnce = func(jobs ...string) error {
		reset = append(reset, jobs...)
		return nil
	}

	require.NoError(t, d.Start(cfg))
	defer d.Stop()
	assert.Empty(t, reset)
	before := d.Triggers()[reconcile.JobTag]

	saved := cfg
	saved.Tag.OnlyOnce = true
	require.NoError(t, d.Reload(saved))

	assert.Equal(t, []string{reconcile.JobTag}, reset)
	assert.NotSame(t, before, d.Triggers()[reconcile.JobTag])

	// the write back of onlyonce=false keeps the queued run
	after := d.Triggers()[reconcile.JobTag]
	require.NoError(t, d.Reload(cfg))
	assert.Same(t, after, d.Triggers()[reconcile.JobTag])
}
