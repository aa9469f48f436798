package core

import (
	"context"

	"github.com/vitrine-io/vitrine/internal/updatecheck"
)

// UpdateService is what the ingress servers drive. It is implemented by *updatecheck.Checker.
type UpdateService interface {
	Status() updatecheck.Status
	ProbeOnce(ctx context.Context) updatecheck.ProbeResult
	Acknowledge(ctx context.Context) error
}

// NoticeBoard exposes the notice a local storefront shell should currently display.
type NoticeBoard interface {
	Visible() (VisibleNotice, bool)
}
