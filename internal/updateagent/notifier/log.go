package notifier

import (
	"context"

	"github.com/vitrine-io/vitrine/internal/updatecheck"
	"github.com/vitrine-io/vitrine/pkg/log"
)

// LogNoticer writes notices to the agent log. Useful on headless sessions and in dry runs.
type LogNoticer struct {
	logger log.Logger
}

var _ updatecheck.Noticer = (*LogNoticer)(nil)

func NewLogNoticer(logger log.Logger) *LogNoticer {
	return &LogNoticer{logger: logger}
}

func (n *LogNoticer) ShowNotice(ctx context.Context, notice updatecheck.Notice) error {
	n.logger.Info(notice.Title,
		"body", notice.Body,
		"action", notice.PrimaryActionLabel,
		"descriptor", notice.Descriptor,
		"duration", notice.DisplayDuration)
	return nil
}
