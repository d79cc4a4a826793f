// Package scheduler fires reconciliation jobs on a cron expression or a fixed interval.
package scheduler

import (
	"strings"
	"time"

	"github.com/ludviglundgren/torrent-reconcile/internal/domain"

	"github.com/pkg/errors"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

type Mode string

const (
	ModeDisabled Mode = "disabled"
	ModeCron     Mode = "cron"
	ModeInterval Mode = "interval"
)

type Unit string

const (
	UnitHours   Unit = "hours"
	UnitMinutes Unit = "minutes"
)

const (
	DefaultCron     = "0 14 * * *"
	DefaultInterval = 24
	// MinInterval keeps consecutive runs from piling up on each other.
	MinInterval = 5 * time.Minute
)

var ErrInvalidSchedule = errors.New("invalid schedule")

type Schedule struct {
	Mode  Mode
	Cron  string
	Every int
	Unit  Unit
}

// FromConfig reads a job schedule. Empty fields fall back to a daily cron at 14:00,
// or 24 hours for interval schedules.
func FromConfig(cfg domain.ScheduleConfig) Schedule {
	s := Schedule{
		Mode:  Mode(strings.ToLower(strings.TrimSpace(cfg.Interval))),
		Cron:  strings.TrimSpace(cfg.IntervalCron),
		Every: cfg.IntervalTime,
		Unit:  Unit(strings.ToLower(strings.TrimSpace(cfg.IntervalUnit))),
	}

	if s.Mode == "" {
		s.Mode = ModeCron
	}
	if s.Cron == "" {
		s.Cron = DefaultCron
	}
	if s.Every <= 0 {
		s.Every = DefaultInterval
	}
	if s.Unit == "" {
		s.Unit = UnitHours
	}

	return s
}

func (s Schedule) Validate() error {
	switch s.Mode {
	case ModeDisabled:
		return nil
	case ModeCron:
		if _, err := cron.ParseStandard(s.Cron); err != nil {
			return errors.Wrapf(ErrInvalidSchedule, "cron %q: %v", s.Cron, err)
		}
	case ModeInterval:
		if s.Every <= 0 {
			return errors.Wrapf(ErrInvalidSchedule, "interval must be positive, got %d", s.Every)
		}
		if s.Unit != UnitHours && s.Unit != UnitMinutes {
			return errors.Wrapf(ErrInvalidSchedule, "unknown interval unit %q", s.Unit)
		}
	default:
		return errors.Wrapf(ErrInvalidSchedule, "unknown mode %q", s.Mode)
	}

	return nil
}

// Interval returns the fixed interval, clamped to MinInterval.
func (s Schedule) Interval() time.Duration {
	d := time.Duration(s.Every) * time.Hour
	if s.Unit == UnitMinutes {
		d = time.Duration(s.Every) * time.Minute
	}

	if d < MinInterval {
		return MinInterval
	}
	return d
}

// Spec builds the cron schedule. Disabled schedules return nil.
func (s Schedule) Spec(log zerolog.Logger) (cron.Schedule, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}

	switch s.Mode {
	case ModeCron:
		return cron.ParseStandard(s.Cron)
	case ModeInterval:
		d := s.Interval()
		if s.Unit == UnitMinutes && s.Every < int(MinInterval/time.Minute) {
			log.Info().Int("interval_time", s.Every).Dur("interval", d).Msg("interval raised to the 5 minute minimum")
		}
		return cron.Every(d), nil
	}

	return nil, nil
}

func (s Schedule) String() string {
	switch s.Mode {
	case ModeCron:
		return "cron " + s.Cron
	case ModeInterval:
		return "every " + s.Interval().String()
	}
	return string(ModeDisabled)
}
