package app

import (
	"fmt"

	genericapiserver "k8s.io/apiserver/pkg/server"

	"github.com/vitrine-io/vitrine/cmd/vitrine-update-agent/app/options"
	"github.com/vitrine-io/vitrine/pkg/app"
)

const (
	commandName = "vitrine-update-agent"
	commandDesc = `The Vitrine update agent runs next to a storefront session. It polls the
deployed version document, tells the shopper when a new release is live and
reloads the storefront once the shopper acknowledges the notice.`
)

func NewApp() *app.App {
	opts := options.NewAgentOptions()
	application := app.NewApp(
		commandName,
		"Launch a Vitrine update agent",
		app.WithDescription(commandDesc),
		app.WithOptions(opts),
		app.WithLogOptions(opts.Log),
		app.WithDefaultValidArgs(),
		app.WithCommands(newStatusCommand(opts)),
		app.WithRunFunc(run(opts)),
	)
	return application
}

func run(opts *options.AgentOptions) app.RunFunc {
	return func() error {
		ctx := genericapiserver.SetupSignalContext()

		cfg, err := opts.Config()
		if err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}

		agent, err := cfg.NewAgent()
		if err != nil {
			return fmt.Errorf("failed to create agent: %w", err)
		}

		return agent.Run(ctx)
	}
}
