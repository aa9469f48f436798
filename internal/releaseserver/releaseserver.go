package releaseserver

import (
	"context"

	"github.com/vitrine-io/vitrine/internal/pkg/server"
	"github.com/vitrine-io/vitrine/internal/releaseserver/core"
	"github.com/vitrine-io/vitrine/pkg/log"
)

// ReleaseServer publishes and serves the storefront version document.
type ReleaseServer struct {
	manager   *server.Manager
	publisher *core.Publisher
}

// Run blocks until ctx is canceled or a server fails.
func (s *ReleaseServer) Run(ctx context.Context) error {
	if current, err := s.publisher.Current(ctx); err == nil {
		log.Info("Starting vitrine-release-server", "current", current)
	} else {
		log.Info("Starting vitrine-release-server", "current", "none", "reason", err.Error())
	}

	return s.manager.Start(ctx)
}
