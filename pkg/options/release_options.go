package options

import (
	"errors"
	"fmt"

	"github.com/spf13/pflag"
)

var _ IOptions = (*ReleaseOptions)(nil)

// Release stores understood by the release server.
const (
	ReleaseStoreFile = "file"
	ReleaseStoreS3   = "s3"
)

// ReleaseOptions configures where the version document lives and how it is served.
type ReleaseOptions struct {
	Store string `json:"store" mapstructure:"store"`

	// FilePath is the version document for the file store.
	FilePath string `json:"file-path" mapstructure:"file-path"`

	// ServePath is the HTTP path of the version document.
	ServePath string `json:"serve-path" mapstructure:"serve-path"`

	// PublishToken, when set, must be presented as a bearer token to publish a release.
	PublishToken string `json:"publish-token" mapstructure:"publish-token"`
}

func NewReleaseOptions() *ReleaseOptions {
	return &ReleaseOptions{
		Store:     ReleaseStoreFile,
		FilePath:  "./dist/version.json",
		ServePath: "/version.json",
	}
}

func (o *ReleaseOptions) Validate() []error {
	if o == nil {
		return nil
	}

	errs := []error{}

	switch o.Store {
	case ReleaseStoreFile:
		if o.FilePath == "" {
			errs = append(errs, errors.New("--release.file-path is required for the file store"))
		}
	case ReleaseStoreS3:
	default:
		errs = append(errs, fmt.Errorf("unknown release store %q", o.Store))
	}
	if o.ServePath == "" || o.ServePath[0] != '/' {
		errs = append(errs, fmt.Errorf("--release.serve-path must start with '/', got %q", o.ServePath))
	}

	return errs
}

func (o *ReleaseOptions) AddFlags(fs *pflag.FlagSet, prefixes ...string) {
	fs.StringVar(&o.Store, "release.store", o.Store, "Where the version document is kept: file or s3.")
	fs.StringVar(&o.FilePath, "release.file-path", o.FilePath, "Path of the version document (file store).")
	fs.StringVar(&o.ServePath, "release.serve-path", o.ServePath, "HTTP path the version document is served on.")
	fs.StringVar(&o.PublishToken, "release.publish-token", o.PublishToken, "Bearer token required to publish a release.")
}
