package app

import (
	"context"
	"fmt"
	"io"

	"github.com/gosuri/uitable"
	"github.com/spf13/cobra"

	"github.com/vitrine-io/vitrine/cmd/vitrine-release-server/app/options"
	"github.com/vitrine-io/vitrine/internal/releaseserver/core"
	"github.com/vitrine-io/vitrine/pkg/app"
	"github.com/vitrine-io/vitrine/pkg/log"
)

func newPublishCommand(opts *options.ReleaseServerOptions) *cobra.Command {
	var build string

	cmd := &cobra.Command{
		Use:          "publish",
		Short:        "Stamp and store a new version document",
		Long:         "Publish writes a fresh version document for the given build to the configured store, then announces it when MQTT is enabled.",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.LoadOptions(cmd, opts); err != nil {
				return err
			}
			log.Init(opts.Log)
			defer func() { _ = log.Sync() }()

			cfg, err := opts.Config()
			if err != nil {
				return fmt.Errorf("failed to load configuration: %w", err)
			}

			ctx := cmd.Context()
			publisher, closeFn, err := cfg.NewPublisher(ctx)
			if err != nil {
				return fmt.Errorf("failed to create publisher: %w", err)
			}
			defer closeFn()

			return publish(ctx, cmd.OutOrStdout(), publisher, build)
		},
	}
	cmd.Flags().StringVar(&build, "build", "", "Build tag of the release, e.g. a git commit.")

	return cmd
}

func publish(ctx context.Context, w io.Writer, publisher *core.Publisher, build string) error {
	rel, err := publisher.Publish(ctx, build)
	if err != nil {
		return err
	}

	table := uitable.New()
	table.AddRow("VERSION:", rel.Version)
	table.AddRow("BUILD:", rel.Build)
	table.AddRow("DESCRIPTOR:", rel.Descriptor)
	_, err = fmt.Fprintln(w, table)
	return err
}
