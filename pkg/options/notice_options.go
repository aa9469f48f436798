package options

import (
	"errors"
	"fmt"

	"github.com/spf13/pflag"
)

var _ IOptions = (*NoticeOptions)(nil)

// Notice sinks understood by the update agent.
const (
	NoticeSinkLog   = "log"
	NoticeSinkBoard = "board"
	NoticeSinkMQTT  = "mqtt"
)

// NoticeOptions holds the "update available" texts and where notices are delivered.
type NoticeOptions struct {
	Title       string   `json:"title" mapstructure:"title"`
	Body        string   `json:"body" mapstructure:"body"`
	ActionLabel string   `json:"action-label" mapstructure:"action-label"`
	Sinks       []string `json:"sinks" mapstructure:"sinks"`
}

func NewNoticeOptions() *NoticeOptions {
	return &NoticeOptions{
		Title:       "Update available",
		Body:        "A new version of the store is available.",
		ActionLabel: "Refresh",
		Sinks:       []string{NoticeSinkLog, NoticeSinkBoard},
	}
}

func (o *NoticeOptions) Validate() []error {
	if o == nil {
		return nil
	}

	errs := []error{}

	if o.ActionLabel == "" {
		errs = append(errs, errors.New("--notice.action-label must not be empty"))
	}
	if len(o.Sinks) == 0 {
		errs = append(errs, errors.New("--notice.sinks needs at least one sink"))
	}
	for _, s := range o.Sinks {
		switch s {
		case NoticeSinkLog, NoticeSinkBoard, NoticeSinkMQTT:
		default:
			errs = append(errs, fmt.Errorf("unknown notice sink %q", s))
		}
	}

	return errs
}

func (o *NoticeOptions) AddFlags(fs *pflag.FlagSet, prefixes ...string) {
	fs.StringVar(&o.Title, "notice.title", o.Title, "Title of the update notice.")
	fs.StringVar(&o.Body, "notice.body", o.Body, "Body of the update notice.")
	fs.StringVar(&o.ActionLabel, "notice.action-label", o.ActionLabel, "Label of the notice's primary action.")
	fs.StringSliceVar(&o.Sinks, "notice.sinks", o.Sinks, "Where notices are delivered: log, board, mqtt.")
}
