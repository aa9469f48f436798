package options

import (
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/spf13/pflag"
)

var _ IOptions = (*UpdateOptions)(nil)

// UpdateOptions configures the version probe and the reminder loop.
type UpdateOptions struct {
	// VersionURL is the well-known location of the deployed version document.
	VersionURL string `json:"version-url" mapstructure:"version-url"`

	PollInterval     time.Duration `json:"poll-interval" mapstructure:"poll-interval"`
	ReminderInterval time.Duration `json:"reminder-interval" mapstructure:"reminder-interval"`
	NoticeDuration   time.Duration `json:"notice-duration" mapstructure:"notice-duration"`

	// FetchTimeout bounds a single probe request. A hung request only delays its own cycle.
	FetchTimeout time.Duration `json:"fetch-timeout" mapstructure:"fetch-timeout"`

	// CacheBustParam is the query parameter carrying a per-request timestamp. Empty disables it.
	CacheBustParam string `json:"cache-bust-param" mapstructure:"cache-bust-param"`
}

// NewUpdateOptions returns the defaults used by the storefront.
func NewUpdateOptions() *UpdateOptions {
	return &UpdateOptions{
		VersionURL:       "http://localhost:8090/version.json",
		PollInterval:     30 * time.Second,
		ReminderInterval: 30 * time.Second,
		NoticeDuration:   10 * time.Second,
		FetchTimeout:     10 * time.Second,
		CacheBustParam:   "t",
	}
}

func (o *UpdateOptions) Validate() []error {
	if o == nil {
		return nil
	}

	errs := []error{}

	if o.VersionURL == "" {
		errs = append(errs, errors.New("--update.version-url must not be empty"))
	} else if u, err := url.Parse(o.VersionURL); err != nil {
		errs = append(errs, fmt.Errorf("--update.version-url: %w", err))
	} else if u.Scheme != "http" && u.Scheme != "https" {
		errs = append(errs, fmt.Errorf("--update.version-url must be http or https, got %q", u.Scheme))
	}

	for name, d := range map[string]time.Duration{
		"poll-interval":     o.PollInterval,
		"reminder-interval": o.ReminderInterval,
		"notice-duration":   o.NoticeDuration,
		"fetch-timeout":     o.FetchTimeout,
	} {
		if d <= 0 {
			errs = append(errs, fmt.Errorf("--update.%s must be positive, got %s", name, d))
		}
	}

	return errs
}

func (o *UpdateOptions) AddFlags(fs *pflag.FlagSet, prefixes ...string) {
	fs.StringVar(&o.VersionURL, "update.version-url", o.VersionURL, "URL of the deployed version document.")
	fs.DurationVar(&o.PollInterval, "update.poll-interval", o.PollInterval, "Interval between version probes.")
	fs.DurationVar(&o.ReminderInterval, "update.reminder-interval", o.ReminderInterval, "Interval between reminders while an update is pending.")
	fs.DurationVar(&o.NoticeDuration, "update.notice-duration", o.NoticeDuration, "How long a notice stays visible.")
	fs.DurationVar(&o.FetchTimeout, "update.fetch-timeout", o.FetchTimeout, "Timeout of a single version probe.")
	fs.StringVar(&o.CacheBustParam, "update.cache-bust-param", o.CacheBustParam, "Query parameter used to defeat intermediate caches (empty to disable).")
}
