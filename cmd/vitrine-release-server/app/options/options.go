package options

import (
	utilerrors "k8s.io/apimachinery/pkg/util/errors"
	cliflag "k8s.io/component-base/cli/flag"

	"github.com/vitrine-io/vitrine/internal/releaseserver"
	"github.com/vitrine-io/vitrine/pkg/app"
	"github.com/vitrine-io/vitrine/pkg/log"
	"github.com/vitrine-io/vitrine/pkg/options"
)

type ReleaseServerOptions struct {
	HttpOptions    *options.HttpOptions    `json:"http" mapstructure:"http"`
	MqttOptions    *options.MqttOptions    `json:"mqtt" mapstructure:"mqtt"`
	S3Options      *options.S3Options      `json:"s3" mapstructure:"s3"`
	ReleaseOptions *options.ReleaseOptions `json:"release" mapstructure:"release"`
	Log            *log.Options            `json:"log" mapstructure:"log"`
}

var _ app.NamedFlagSetOptions = (*ReleaseServerOptions)(nil)

func NewReleaseServerOptions() *ReleaseServerOptions {
	return &ReleaseServerOptions{
		HttpOptions:    options.NewHttpOptions(),
		MqttOptions:    options.NewMqttOptions(),
		S3Options:      options.NewS3Options(),
		ReleaseOptions: options.NewReleaseOptions(),
		Log:            log.NewOptions(),
	}
}

func (o *ReleaseServerOptions) Flags() cliflag.NamedFlagSets {
	fss := cliflag.NamedFlagSets{}
	o.ReleaseOptions.AddFlags(fss.FlagSet("release"))
	o.S3Options.AddFlags(fss.FlagSet("s3"))
	o.HttpOptions.AddFlags(fss.FlagSet("http"))
	o.MqttOptions.AddFlags(fss.FlagSet("mqtt"))
	o.Log.AddFlags(fss.FlagSet("log"))
	return fss
}

func (o *ReleaseServerOptions) Complete() error {
	if o.Log.Name == "" {
		o.Log.Name = "release-server"
	}
	return nil
}

func (o *ReleaseServerOptions) Validate() error {
	errs := []error{}
	errs = append(errs, o.HttpOptions.Validate()...)
	errs = append(errs, o.MqttOptions.Validate()...)
	errs = append(errs, o.ReleaseOptions.Validate()...)
	if o.ReleaseOptions.Store == options.ReleaseStoreS3 {
		errs = append(errs, o.S3Options.Validate()...)
	}
	errs = append(errs, o.Log.Validate()...)
	return utilerrors.NewAggregate(errs)
}

func (o *ReleaseServerOptions) Config() (*releaseserver.Config, error) {
	return &releaseserver.Config{
		HttpOptions:    o.HttpOptions,
		MqttOptions:    o.MqttOptions,
		S3Options:      o.S3Options,
		ReleaseOptions: o.ReleaseOptions,
	}, nil
}
