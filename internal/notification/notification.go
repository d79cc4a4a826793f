// Package notification sends job messages to shoutrrr service URLs (discord://, telegram://, ...).
package notification

import (
	"context"
	"strings"
	"unicode/utf8"

	"github.com/nicholas-fedor/shoutrrr/pkg/router"
	"github.com/pkg/errors"
	"github.com/nicholas-fedor/shoutrrr/pkg/types"
	"github.com/rs/zerolog"
)

const (
	maxMessageLength = 1000
	maxTitleLength   = 80
)

type Service struct {
	sender *router.ServiceRouter
	log    zerolog.Logger
}

// New returns nil when no usable urls are configured. A nil Service drops every message.
// Invalid urls are logged and skipped.
func New(urls []string, log zerolog.Logger) (*Service, error) {
	var valid []string
	for i, u := range urls {
		if u = strings.TrimSpace(u); u == "" {
			continue
		}
		if err := ValidateURL(u); err != nil {
			log.Warn().Err(err).Int("index", i).Msg("skipping notification url")
			continue
		}
		valid = append(valid, u)
	}

	if len(valid) == 0 {
		return nil, nil
	}

	sender, err := router.New(nil, valid...)
	if err != nil {
		return nil, errors.Wrap(err, "could not create notification router")
	}

	return &Service{sender: sender, log: log}, nil
}

// ValidateURL checks that a shoutrrr service url can be parsed.
func ValidateURL(rawURL string) error {
	if _, err := router.New(nil, rawURL); err != nil {
		return errors.Wrap(err, "invalid notification url")
	}
	return nil
}

func (s *Service) Notify(_ context.Context, title, message string) error {
	if s == nil || s.sender == nil {
		return nil
	}

	message = truncate(message, maxMessageLength)
	if message == "" {
		return nil
	}

	params := types.Params{}
	if trimmed := strings.TrimSpace(title); trimmed != "" {
		params.SetTitle(truncate(trimmed, maxTitleLength))
	}

	var failed []string
	for _, err := range s.sender.Send(message, &params) {
		if err != nil {
			failed = append(failed, err.Error())
		}
	}

	if len(failed) > 0 {
		return errors.Errorf("could not send notification: %s", strings.Join(failed, "; "))
	}

	s.log.Debug().Str("title", title).Msg("notification sent")
	return nil
}

func truncate(value string, limit int) string {
	trimmed := strings.TrimSpace(value)
	if limit <= 0 || utf8.RuneCountInString(trimmed) <= limit {
		return trimmed
	}

	runes := []rune(trimmed)
	return strings.TrimSpace(string(runes[:limit-1])) + "…"
}
