package reloader

import (
	"context"

	"github.com/vitrine-io/vitrine/internal/updatecheck"
	"github.com/vitrine-io/vitrine/pkg/log"
)

// LogReloader only logs the reload. It is the dry-run backend.
type LogReloader struct {
	logger log.Logger
}

var _ updatecheck.Reloader = (*LogReloader)(nil)

func NewLogReloader(logger log.Logger) *LogReloader {
	return &LogReloader{logger: logger}
}

func (r *LogReloader) Reload(ctx context.Context, req updatecheck.ReloadRequest) error {
	r.logger.Info("Reload requested", "descriptor", req.Descriptor, "bypassCache", req.BypassCache)
	return nil
}
