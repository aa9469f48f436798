package notifier

import (
	"context"
	"sync"

	"k8s.io/utils/clock"

	"github.com/vitrine-io/vitrine/internal/updateagent/core"
	"github.com/vitrine-io/vitrine/internal/updatecheck"
)

// Board keeps the most recent notice until its display duration elapses.
// Local shells poll it over HTTP. Expiry only hides the notice; the update stays pending.
type Board struct {
	clock clock.PassiveClock

	mu     sync.RWMutex
	notice *core.VisibleNotice
}

var (
	_ updatecheck.Noticer = (*Board)(nil)
	_ core.NoticeBoard    = (*Board)(nil)
)

func NewBoard(c clock.PassiveClock) *Board {
	if c == nil {
		c = clock.RealClock{}
	}
	return &Board{clock: c}
}

// ShowNotice replaces whatever is on the board.
func (b *Board) ShowNotice(ctx context.Context, notice updatecheck.Notice) error {
	now := b.clock.Now()

	b.mu.Lock()
	defer b.mu.Unlock()
	b.notice = &core.VisibleNotice{
		Title:       notice.Title,
		Body:        notice.Body,
		ActionLabel: notice.PrimaryActionLabel,
		Descriptor:  notice.Descriptor,
		ShownAt:     now,
		ExpiresAt:   now.Add(notice.DisplayDuration),
	}
	return nil
}

// Visible returns the current notice unless it has expired.
func (b *Board) Visible() (core.VisibleNotice, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.notice == nil || !b.clock.Now().Before(b.notice.ExpiresAt) {
		return core.VisibleNotice{}, false
	}
	return *b.notice, true
}

// Clear hides the notice immediately, e.g. once the user acknowledged it.
func (b *Board) Clear() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.notice = nil
}
