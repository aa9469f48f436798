package app

import (
	"fmt"

	genericapiserver "k8s.io/apiserver/pkg/server"

	"github.com/vitrine-io/vitrine/cmd/vitrine-release-server/app/options"
	"github.com/vitrine-io/vitrine/pkg/app"
)

const (
	commandName = "vitrine-release-server"
	commandDesc = `The Vitrine release server hosts the storefront's version document.
Publishing a release stamps a new build descriptor, stores it on disk or in
S3 and announces it to update agents over MQTT.`
)

func NewApp() *app.App {
	opts := options.NewReleaseServerOptions()
	application := app.NewApp(
		commandName,
		"Launch a Vitrine release server",
		app.WithDescription(commandDesc),
		app.WithOptions(opts),
		app.WithLogOptions(opts.Log),
		app.WithDefaultValidArgs(),
		app.WithCommands(newPublishCommand(opts)),
		app.WithRunFunc(run(opts)),
	)
	return application
}

func run(opts *options.ReleaseServerOptions) app.RunFunc {
	return func() error {
		ctx := genericapiserver.SetupSignalContext()

		cfg, err := opts.Config()
		if err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}

		srv, err := cfg.NewReleaseServer()
		if err != nil {
			return fmt.Errorf("failed to create release server: %w", err)
		}

		return srv.Run(ctx)
	}
}
