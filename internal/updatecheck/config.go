package updatecheck

import (
	"time"

	"k8s.io/utils/clock"

	"github.com/vitrine-io/vitrine/pkg/log"
)

// Defaults used when a Config field is left zero.
const (
	DefaultPollInterval     = 30 * time.Second
	DefaultReminderInterval = 30 * time.Second
	DefaultNoticeDuration   = 10 * time.Second

	DefaultNoticeTitle       = "Update available"
	DefaultNoticeBody        = "A new version of the store is available."
	DefaultNoticeActionLabel = "Refresh"
)

// Config tunes a Checker.
type Config struct {
	PollInterval     time.Duration
	ReminderInterval time.Duration
	NoticeDuration   time.Duration

	NoticeTitle       string
	NoticeBody        string
	NoticeActionLabel string
}

// DefaultConfig returns the storefront defaults.
func DefaultConfig() Config {
	c := Config{}
	c.complete()
	return c
}

func (c *Config) complete() {
	if c.PollInterval <= 0 {
		c.PollInterval = DefaultPollInterval
	}
	if c.ReminderInterval <= 0 {
		c.ReminderInterval = DefaultReminderInterval
	}
	if c.NoticeDuration <= 0 {
		c.NoticeDuration = DefaultNoticeDuration
	}
	if c.NoticeTitle == "" {
		c.NoticeTitle = DefaultNoticeTitle
	}
	if c.NoticeBody == "" {
		c.NoticeBody = DefaultNoticeBody
	}
	if c.NoticeActionLabel == "" {
		c.NoticeActionLabel = DefaultNoticeActionLabel
	}
}

// Option customizes a Checker.
type Option func(*Checker)

// WithClock replaces the real clock, mostly for tests.
func WithClock(c clock.WithTicker) Option {
	return func(ch *Checker) { ch.clock = c }
}

// WithLogger replaces the default named logger.
func WithLogger(l log.Logger) Option {
	return func(ch *Checker) { ch.logger = l }
}
