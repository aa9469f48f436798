package options

import (
	"fmt"
	"slices"

	utilerrors "k8s.io/apimachinery/pkg/util/errors"
	cliflag "k8s.io/component-base/cli/flag"

	"github.com/vitrine-io/vitrine/internal/updateagent"
	"github.com/vitrine-io/vitrine/pkg/app"
	"github.com/vitrine-io/vitrine/pkg/log"
	"github.com/vitrine-io/vitrine/pkg/options"
)

type AgentOptions struct {
	SessionID     string                 `json:"session-id" mapstructure:"session-id"`
	HttpOptions   *options.HttpOptions   `json:"http" mapstructure:"http"`
	MqttOptions   *options.MqttOptions   `json:"mqtt" mapstructure:"mqtt"`
	UpdateOptions *options.UpdateOptions `json:"update" mapstructure:"update"`
	NoticeOptions *options.NoticeOptions `json:"notice" mapstructure:"notice"`
	ReloadOptions *options.ReloadOptions `json:"reload" mapstructure:"reload"`
	Log           *log.Options           `json:"log" mapstructure:"log"`
}

var _ app.NamedFlagSetOptions = (*AgentOptions)(nil)

func NewAgentOptions() *AgentOptions {
	o := &AgentOptions{
		HttpOptions:   options.NewHttpOptions(),
		MqttOptions:   options.NewMqttOptions(),
		UpdateOptions: options.NewUpdateOptions(),
		NoticeOptions: options.NewNoticeOptions(),
		ReloadOptions: options.NewReloadOptions(),
		Log:           log.NewOptions(),
	}
	// The agent sits next to the storefront session; keep its API local by default.
	o.HttpOptions.Addr = "127.0.0.1:8787"

	return o
}

func (o *AgentOptions) Flags() cliflag.NamedFlagSets {
	fss := cliflag.NamedFlagSets{}
	fss.FlagSet("agent").StringVar(&o.SessionID, "session-id", o.SessionID,
		"Storefront session ID. Discovered from VITRINE_SESSION_ID, /etc/vitrine/session-id or the hostname when empty.")
	o.UpdateOptions.AddFlags(fss.FlagSet("update"))
	o.NoticeOptions.AddFlags(fss.FlagSet("notice"))
	o.ReloadOptions.AddFlags(fss.FlagSet("reload"))
	o.HttpOptions.AddFlags(fss.FlagSet("http"))
	o.MqttOptions.AddFlags(fss.FlagSet("mqtt"))
	o.Log.AddFlags(fss.FlagSet("log"))
	return fss
}

func (o *AgentOptions) Complete() error {
	if o.Log.Name == "" {
		o.Log.Name = "update-agent"
	}
	return nil
}

func (o *AgentOptions) Validate() error {
	errs := []error{}
	errs = append(errs, o.HttpOptions.Validate()...)
	errs = append(errs, o.MqttOptions.Validate()...)
	errs = append(errs, o.UpdateOptions.Validate()...)
	errs = append(errs, o.NoticeOptions.Validate()...)
	errs = append(errs, o.ReloadOptions.Validate()...)
	errs = append(errs, o.Log.Validate()...)

	if !o.MqttOptions.Enabled {
		if slices.Contains(o.NoticeOptions.Sinks, options.NoticeSinkMQTT) {
			errs = append(errs, fmt.Errorf("--notice.sinks=%s requires --mqtt.enabled", options.NoticeSinkMQTT))
		}
		if o.ReloadOptions.Mode == options.ReloadModeMQTT {
			errs = append(errs, fmt.Errorf("--reload.mode=%s requires --mqtt.enabled", options.ReloadModeMQTT))
		}
	}

	return utilerrors.NewAggregate(errs)
}

func (o *AgentOptions) Config() (*updateagent.Config, error) {
	return &updateagent.Config{
		HttpOptions:   o.HttpOptions,
		MqttOptions:   o.MqttOptions,
		UpdateOptions: o.UpdateOptions,
		NoticeOptions: o.NoticeOptions,
		ReloadOptions: o.ReloadOptions,
		SessionID:     o.SessionID,
	}, nil
}
