package updateagent

import (
	"context"

	"github.com/vitrine-io/vitrine/internal/pkg/server"
	"github.com/vitrine-io/vitrine/internal/updatecheck"
	"github.com/vitrine-io/vitrine/pkg/log"
)

// Agent watches the deployed storefront build on behalf of one session.
type Agent struct {
	sessionID string
	checker   *updatecheck.Checker
	manager   *server.Manager
}

func NewAgent(sid string, checker *updatecheck.Checker, manager *server.Manager) *Agent {
	return &Agent{
		sessionID: sid,
		checker:   checker,
		manager:   manager,
	}
}

// Run blocks until ctx is canceled or a server fails.
func (a *Agent) Run(ctx context.Context) error {
	log.Info("Starting vitrine-update-agent", "sessionID", a.sessionID)

	if err := a.manager.Start(ctx); err != nil {
		return err
	}

	log.Info("Agent stopped", "sessionID", a.sessionID, "lastSeen", a.checker.Status().LastSeen)
	return nil
}
