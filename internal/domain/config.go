package domain

type DownloaderType string

const (
	DownloaderTypeQbittorrent  DownloaderType = "qbittorrent"
	DownloaderTypeTransmission DownloaderType = "transmission"
)

type DownloaderConfig struct {
	Name          string         `mapstructure:"name"`
	Type          DownloaderType `mapstructure:"type"`
	Addr          string         `mapstructure:"addr"`
	Login         string         `mapstructure:"login"`
	Password      string         `mapstructure:"password"`
	BasicUser     string         `mapstructure:"basicUser"`
	BasicPass     string         `mapstructure:"basicPass"`
	TLSSkipVerify bool           `mapstructure:"tls_skip_verify"`
}

type SiteConfig struct {
	Name    string   `mapstructure:"name" yaml:"name"`
	Domains []string `mapstructure:"domains" yaml:"domains"`
}

type ScheduleConfig struct {
	Enabled      bool     `mapstructure:"enabled"`
	OnlyOnce     bool     `mapstructure:"onlyonce"`
	Downloaders  []string `mapstructure:"downloaders"`
	Interval     string   `mapstructure:"interval"`
	IntervalCron string   `mapstructure:"interval_cron"`
	IntervalTime int      `mapstructure:"interval_time"`
	IntervalUnit string   `mapstructure:"interval_unit"`
}

type TagSettings struct {
	ScheduleConfig `mapstructure:",squash"`
	TrackerMap     string `mapstructure:"tracker_map"`
	SavePathMap    string `mapstructure:"save_path_map"`
}

type LimitSettings struct {
	ScheduleConfig `mapstructure:",squash"`
	TagMap         string `mapstructure:"tag_map"`
	Cover          bool   `mapstructure:"cover"`
	Global         bool   `mapstructure:"global"`
	GlobalSpeed    int64  `mapstructure:"global_speed"`
}

type DeleteSettings struct {
	ScheduleConfig `mapstructure:",squash"`
	Times          int    `mapstructure:"times"`
	Accumulate     bool   `mapstructure:"accumulate"`
	IgnoreTags     string `mapstructure:"ignore_tags"`
}

type LogConfig struct {
	Level      string `mapstructure:"level"`
	Path       string `mapstructure:"path"`
	MaxSize    int    `mapstructure:"max_size"`
	MaxBackups int    `mapstructure:"max_backups"`
}

type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Host    string `mapstructure:"host"`
	Port    int    `mapstructure:"port"`
}

type NotificationsConfig struct {
	URLs []string `mapstructure:"urls"`
}

type AppConfig struct {
	Debug         bool                `mapstructure:"debug"`
	State         string              `mapstructure:"state"`
	Timezone      string              `mapstructure:"timezone"`
	SitesFile     string              `mapstructure:"sites_file"`
	Log           LogConfig           `mapstructure:"log"`
	Metrics       MetricsConfig       `mapstructure:"metrics"`
	Notifications NotificationsConfig `mapstructure:"notifications"`
	Downloaders   []DownloaderConfig  `mapstructure:"downloaders"`
	Sites         []SiteConfig        `mapstructure:"sites"`
	Tag           TagSettings         `mapstructure:"tag"`
	Limit         LimitSettings       `mapstructure:"limit"`
	Delete        DeleteSettings      `mapstructure:"delete"`
}
