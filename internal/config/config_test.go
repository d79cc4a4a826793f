package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/ludviglundgren/torrent-reconcile/internal/domain"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testConfig = `
debug = false
timezone = "UTC"

[[downloaders]]
name = "qb"
type = "qbittorrent"
addr = "http://localhost:8080"
login = "admin"
password = "secret"

[[downloaders]]
name = "tr"
type = "transmission"
addr = "http://localhost:9091"

[[sites]]
name = "PT"
domains = ["abc.com"]

[tag]
enabled = true
downloaders = ["qb", "tr"]
interval = "cron"
interval_cron = "0 */6 * * *"
tracker_map = """
abc.com:PT
def.com:Free
"""

[limit]
enabled = true
onlyonce = true
downloaders = ["qb"]
interval = "interval"
interval_time = 30
interval_unit = "minutes"
tag_map = "slow:50"
global = true
global_speed = 10240

[delete]
enabled = true
downloaders = ["tr"]
times = 3
ignore_tags = "keep"
`

func writeConfig(t *testing.T, content string) string {
	t.Helper()

	viper.Reset()
	t.Cleanup(viper.Reset)

	path := filepath.Join(t.TempDir(), ".trc.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	CfgFile = path
	t.Cleanup(func() { CfgFile = "" })

	return path
}

func TestRead(t *testing.T) {
	path := writeConfig(t, testConfig)

	require.NoError(t, Read())

	assert.Len(t, Config.Downloaders, 2)
	assert.Equal(t, domain.DownloaderTypeTransmission, Config.Downloaders[1].Type)
	assert.Equal(t, []domain.SiteConfig{{Name: "PT", Domains: []string{"abc.com"}}}, Config.Sites)

	assert.True(t, Config.Tag.Enabled)
	assert.Equal(t, []string{"qb", "tr"}, Config.Tag.Downloaders)
	assert.Equal(t, "0 */6 * * *", Config.Tag.IntervalCron)
	assert.Equal(t, "abc.com:PT\ndef.com:Free\n", Config.Tag.TrackerMap)

	assert.True(t, Config.Limit.OnlyOnce)
	assert.Equal(t, 30, Config.Limit.IntervalTime)
	assert.Equal(t, int64(10240), Config.Limit.GlobalSpeed)

	assert.Equal(t, 3, Config.Delete.Times)
	assert.True(t, Config.Delete.Accumulate, "default")

	assert.Equal(t, filepath.Join(filepath.Dir(path), defaultStateFile), Config.State)
	assert.Equal(t, defaultMetricsPort, Config.Metrics.Port)

	loc, err := Location(Config)
	require.NoError(t, err)
	assert.Equal(t, "UTC", loc.String())

	assert.Empty(t, Validate(Config))
}

func TestRead_NotFound(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	CfgFile = filepath.Join(t.TempDir(), "missing.toml")
	t.Cleanup(func() { CfgFile = "" })

	assert.Error(t, Read())
}

func TestResetOnlyOnce(t *testing.T) {
	writeConfig(t, testConfig)
	require.NoError(t, Read())
	require.True(t, Config.Limit.OnlyOnce)

	require.NoError(t, ResetOnlyOnce("limit"))

	viper.Reset()
	require.NoError(t, Read())
	assert.False(t, Config.Limit.OnlyOnce)
	assert.Equal(t, "slow:50", Config.Limit.TagMap)
}

func TestValidate(t *testing.T) {
	cfg := domain.AppConfig{
		Downloaders: []domain.DownloaderConfig{
			{Name: "qb", Addr: "http://localhost:8080"},
			{Name: "qb", Addr: "http://localhost:8081"},
			{Addr: "http://localhost:8082"},
			{Name: "deluge", Type: "deluge", Addr: "http://localhost:8112"},
			{Name: "tr", Type: domain.DownloaderTypeTransmission},
		},
		Tag: domain.TagSettings{
			ScheduleConfig: domain.ScheduleConfig{Enabled: true, Downloaders: []string{"qb", "missing"}},
		},
		Limit: domain.LimitSettings{
			ScheduleConfig: domain.ScheduleConfig{OnlyOnce: true},
		},
		Delete: domain.DeleteSettings{Times: -1},
	}

	var got []string
	for _, err := range Validate(cfg) {
		got = append(got, err.Error())
	}

	assert.Equal(t, []string{
		"downloader qb: duplicate name",
		"downloaders[2]: missing name",
		`downloader deluge: unknown type "deluge"`,
		"downloader tr: missing addr",
		`tag: unknown downloader "missing"`,
		"limit: no downloaders configured",
		"delete: times must not be negative",
	}, got)
}

func TestValidate_NotificationURLs(t *testing.T) {
	cfg := domain.AppConfig{
		Notifications: domain.NotificationsConfig{URLs: []string{"logger://", "", "notaservice://foo"}},
	}

	errs := Validate(cfg)
	require.Len(t, errs, 1)
	assert.Equal(t, "notifications.urls[2]", errs[0].Item)
	assert.Contains(t, errs[0].Reason, "invalid notification url")
}
