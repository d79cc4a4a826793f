package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ludviglundgren/torrent-reconcile/internal/domain"

	"github.com/fsnotify/fsnotify"
	"github.com/mitchellh/go-homedir"
	"github.com/spf13/viper"
)

var (
	CfgFile string
	Config  domain.AppConfig
)

const (
	defaultStateFile   = "trc.db"
	defaultMetricsHost = "127.0.0.1"
	defaultMetricsPort = 9074
)

// InitConfig reads the config file and exits when it can not be found or parsed.
func InitConfig() {
	if err := Read(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

// Read locates, reads and unmarshals the config file into Config.
func Read() error {
	if CfgFile != "" {
		// Use config file from the flag.
		viper.SetConfigFile(CfgFile)
	} else {
		// Find home directory.
		home, err := homedir.Dir()
		if err != nil {
			return fmt.Errorf("could not read home dir: %w", err)
		}

		viper.SetConfigName(".trc")
		viper.SetConfigType("toml")
		// Search config in directories
		viper.AddConfigPath(".")
		viper.AddConfigPath(home)
		viper.AddConfigPath(filepath.Join(home, ".config", "trc")) // windows path
		viper.AddConfigPath("$HOME/.config/trc")
	}

	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		var ferr viper.ConfigFileNotFoundError
		if errors.As(err, &ferr) {
			return fmt.Errorf("config file not found: err %q", ferr)
		}
		return fmt.Errorf("could not read config: err %q", err)
	}

	cfg, err := Unmarshal()
	if err != nil {
		return err
	}

	Config = cfg
	return nil
}

func setDefaults() {
	viper.SetDefault("metrics.host", defaultMetricsHost)
	viper.SetDefault("metrics.port", defaultMetricsPort)
	viper.SetDefault("log.level", "info")
	viper.SetDefault("delete.times", 7)
	viper.SetDefault("delete.accumulate", true)
}

// Unmarshal decodes the current viper state and fills in derived defaults.
func Unmarshal() (domain.AppConfig, error) {
	var cfg domain.AppConfig
	if err := viper.Unmarshal(&cfg); err != nil {
		return cfg, fmt.Errorf("could not unmarshal config: %w", err)
	}

	if cfg.State == "" {
		cfg.State = filepath.Join(configDir(), defaultStateFile)
	} else if expanded, err := homedir.Expand(cfg.State); err == nil {
		cfg.State = expanded
	}

	if cfg.SitesFile != "" {
		if expanded, err := homedir.Expand(cfg.SitesFile); err == nil {
			cfg.SitesFile = expanded
		}
	}

	return cfg, nil
}

func configDir() string {
	if used := viper.ConfigFileUsed(); used != "" {
		return filepath.Dir(used)
	}
	return "."
}

// Location returns the configured time zone, or the local one.
func Location(cfg domain.AppConfig) (*time.Location, error) {
	if cfg.Timezone == "" {
		return time.Local, nil
	}
	return time.LoadLocation(cfg.Timezone)
}

// Watch calls fn with the new config every time the file is saved.
func Watch(fn func(domain.AppConfig, error)) {
	viper.OnConfigChange(func(e fsnotify.Event) {
		if !e.Has(fsnotify.Write) && !e.Has(fsnotify.Create) {
			return
		}

		cfg, err := Unmarshal()
		if err == nil {
			Config = cfg
		}
		fn(cfg, err)
	})
	viper.WatchConfig()
}

// ResetOnlyOnce switches onlyonce off for the given job sections and saves the file.
func ResetOnlyOnce(jobs ...string) error {
	if len(jobs) == 0 {
		return nil
	}

	for _, job := range jobs {
		viper.Set(strings.ToLower(job)+".onlyonce", false)
	}

	if err := viper.WriteConfig(); err != nil {
		return fmt.Errorf("could not write config: %w", err)
	}

	return nil
}
