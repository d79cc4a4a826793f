package config

import (
	"fmt"
	"strings"

	"github.com/ludviglundgren/torrent-reconcile/internal/domain"
	"github.com/ludviglundgren/torrent-reconcile/internal/notification"
)

// ConfigurationError is a config item that will be skipped.
type ConfigurationError struct {
	Item   string
	Reason string
}

func (e ConfigurationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Item, e.Reason)
}

// Validate reports invalid items. None of them is fatal, the offending item is skipped at runtime.
func Validate(cfg domain.AppConfig) []ConfigurationError {
	var errs []ConfigurationError

	known := map[string]bool{}
	for i, d := range cfg.Downloaders {
		item := fmt.Sprintf("downloaders[%d]", i)
		if d.Name == "" {
			errs = append(errs, ConfigurationError{Item: item, Reason: "missing name"})
			continue
		}
		item = "downloader " + d.Name

		if known[d.Name] {
			errs = append(errs, ConfigurationError{Item: item, Reason: "duplicate name"})
			continue
		}
		known[d.Name] = true

		switch domain.DownloaderType(strings.ToLower(string(d.Type))) {
		case domain.DownloaderTypeQbittorrent, domain.DownloaderTypeTransmission, "":
		default:
			errs = append(errs, ConfigurationError{Item: item, Reason: fmt.Sprintf("unknown type %q", d.Type)})
		}

		if d.Addr == "" {
			errs = append(errs, ConfigurationError{Item: item, Reason: "missing addr"})
		}
	}

	jobs := []struct {
		name     string
		schedule domain.ScheduleConfig
	}{
		{name: "tag", schedule: cfg.Tag.ScheduleConfig},
		{name: "limit", schedule: cfg.Limit.ScheduleConfig},
		{name: "delete", schedule: cfg.Delete.ScheduleConfig},
	}
	for _, job := range jobs {
		if !job.schedule.Enabled && !job.schedule.OnlyOnce {
			continue
		}
		if len(job.schedule.Downloaders) == 0 {
			errs = append(errs, ConfigurationError{Item: job.name, Reason: "no downloaders configured"})
		}
		for _, name := range job.schedule.Downloaders {
			if !known[name] {
				errs = append(errs, ConfigurationError{Item: job.name, Reason: fmt.Sprintf("unknown downloader %q", name)})
			}
		}
	}

	if cfg.Delete.Times < 0 {
		errs = append(errs, ConfigurationError{Item: "delete", Reason: "times must not be negative"})
	}
	if cfg.Limit.Global && cfg.Limit.GlobalSpeed < 0 {
		errs = append(errs, ConfigurationError{Item: "limit", Reason: "global_speed must not be negative"})
	}

	for i, u := range cfg.Notifications.URLs {
		if strings.TrimSpace(u) == "" {
			continue
		}
		if err := notification.ValidateURL(strings.TrimSpace(u)); err != nil {
			errs = append(errs, ConfigurationError{Item: fmt.Sprintf("notifications.urls[%d]", i), Reason: err.Error()})
		}
	}

	return errs
}
