package notifier

import (
	"context"
	"fmt"

	utilerrors "k8s.io/apimachinery/pkg/util/errors"

	"github.com/vitrine-io/vitrine/internal/updatecheck"
)

// Named pairs a noticer with the sink name it was configured under.
type Named struct {
	Name    string
	Noticer updatecheck.Noticer
}

// Fanout delivers each notice to every sink. A failing sink does not stop the others.
type Fanout struct {
	sinks []Named
}

var _ updatecheck.Noticer = (*Fanout)(nil)

func NewFanout(sinks ...Named) *Fanout {
	return &Fanout{sinks: sinks}
}

func (f *Fanout) ShowNotice(ctx context.Context, notice updatecheck.Notice) error {
	var errs []error
	for _, s := range f.sinks {
		if err := s.Noticer.ShowNotice(ctx, notice); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", s.Name, err))
		}
	}
	return utilerrors.NewAggregate(errs)
}
