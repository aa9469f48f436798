package options

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/pflag"
)

var _ IOptions = (*ReloadOptions)(nil)

// Reload backends understood by the update agent.
const (
	ReloadModeLog     = "log"
	ReloadModeMQTT    = "mqtt"
	ReloadModeCommand = "command"
)

// ReloadOptions selects how an acknowledged update reloads the storefront.
type ReloadOptions struct {
	Mode string `json:"mode" mapstructure:"mode"`

	// Command is run through "sh -c" when Mode is "command".
	Command string        `json:"command" mapstructure:"command"`
	Timeout time.Duration `json:"timeout" mapstructure:"timeout"`
}

func NewReloadOptions() *ReloadOptions {
	return &ReloadOptions{
		Mode:    ReloadModeLog,
		Timeout: 30 * time.Second,
	}
}

func (o *ReloadOptions) Validate() []error {
	if o == nil {
		return nil
	}

	errs := []error{}

	switch o.Mode {
	case ReloadModeLog, ReloadModeMQTT:
	case ReloadModeCommand:
		if o.Command == "" {
			errs = append(errs, errors.New("--reload.command is required in command mode"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown reload mode %q", o.Mode))
	}
	if o.Timeout <= 0 {
		errs = append(errs, fmt.Errorf("--reload.timeout must be positive, got %s", o.Timeout))
	}

	return errs
}

func (o *ReloadOptions) AddFlags(fs *pflag.FlagSet, prefixes ...string) {
	fs.StringVar(&o.Mode, "reload.mode", o.Mode, "Reload backend: log, mqtt or command.")
	fs.StringVar(&o.Command, "reload.command", o.Command, "Shell command that reloads the storefront, bypassing caches.")
	fs.DurationVar(&o.Timeout, "reload.timeout", o.Timeout, "Timeout of a reload.")
}
