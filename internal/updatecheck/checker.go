package updatecheck

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"k8s.io/utils/clock"

	"github.com/vitrine-io/vitrine/internal/pkg/metrics"
	"github.com/vitrine-io/vitrine/pkg/log"
)

// ErrTornDown marks a probe whose result arrived after Teardown and was dropped.
var ErrTornDown = errors.New("checker torn down")

// Checker detects new storefront builds and keeps reminding the user until they reload.
//
// It owns the check state: the last seen descriptor, the baseline/pending machine and the
// poll and reminder tickers. At most one ticker of each kind is live; the reminder ticker is
// live exactly while an update is pending. Fetch, notice and reload calls happen outside
// the lock.
type Checker struct {
	cfg      Config
	fetcher  Fetcher
	noticer  Noticer
	reloader Reloader
	clock    clock.WithTicker
	logger   log.Logger

	mu          sync.Mutex
	machine     *stateMachine
	lastSeen    Descriptor
	hasLastSeen bool
	poll        *ticking
	reminder    *ticking

	// session is the context handed to Start. Ticker callbacks run under it, never under the
	// context of the call that happened to arm them.
	session context.Context
	// generation advances on Teardown; a probe that began in an older generation is discarded.
	generation uint64
	tornDown   bool

	probes sync.WaitGroup
}

// New builds a stopped Checker.
func New(cfg Config, fetcher Fetcher, noticer Noticer, reloader Reloader, opts ...Option) *Checker {
	cfg.complete()

	c := &Checker{
		cfg:      cfg,
		fetcher:  fetcher,
		noticer:  noticer,
		reloader: reloader,
		clock:    clock.RealClock{},
		logger:   log.WithName("updatecheck"),
		machine:  newStateMachine(),
		session:  context.Background(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Start probes once, then keeps probing every poll interval until Stop or Teardown.
// It returns false, without probing, when polling is already running.
func (c *Checker) Start(ctx context.Context) bool {
	c.mu.Lock()
	if c.poll != nil {
		c.mu.Unlock()
		return false
	}
	c.session = ctx
	c.tornDown = false
	c.poll = startTicking(c.clock, c.cfg.PollInterval, func() { c.probeAsync(ctx) })
	c.mu.Unlock()

	c.logger.Info("Version polling started", "interval", c.cfg.PollInterval)
	c.ProbeOnce(ctx)
	return true
}

// Stop cancels polling. It returns false when polling was not running.
func (c *Checker) Stop() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.poll == nil {
		return false
	}
	c.poll.cancel()
	c.poll = nil
	c.logger.Info("Version polling stopped")
	return true
}

// probeAsync runs a probe on its own goroutine. Probes are not serialized: a fetch slower than
// the poll interval overlaps the next one and lastSeen is last-write-wins.
func (c *Checker) probeAsync(ctx context.Context) {
	c.probes.Add(1)
	go func() {
		defer c.probes.Done()
		c.ProbeOnce(ctx)
	}()
}

// ProbeOnce fetches the deployed descriptor and compares it to the last seen one.
// Failures never escape: they come back as an Indeterminate result.
func (c *Checker) ProbeOnce(ctx context.Context) ProbeResult {
	c.mu.Lock()
	generation := c.generation
	c.mu.Unlock()

	metrics.ProbeInFlight.Inc()
	desc, err := c.fetcher.Fetch(ctx)
	metrics.ProbeInFlight.Dec()

	if err != nil {
		if errors.Is(err, ErrMalformedDocument) {
			c.logger.Warn("Ignoring malformed version document", "error", err)
		} else {
			c.logger.Debug("Version probe failed, waiting for next cycle", "error", err)
		}
		metrics.ProbeTotal.WithLabelValues(Indeterminate.String()).Inc()
		return ProbeResult{Outcome: Indeterminate, Err: err}
	}

	c.mu.Lock()
	if c.tornDown || generation != c.generation {
		c.mu.Unlock()
		c.logger.Debug("Discarding probe finished after teardown", "descriptor", desc)
		metrics.ProbeTotal.WithLabelValues(Indeterminate.String()).Inc()
		return ProbeResult{Outcome: Indeterminate, Descriptor: desc, Err: ErrTornDown}
	}
	result := c.observeLocked(ctx, desc)
	c.mu.Unlock()

	metrics.ProbeTotal.WithLabelValues(result.Outcome.String()).Inc()
	if result.Notified {
		c.logger.Info("New storefront build detected", "previous", result.Previous, "current", desc)
		c.Notify(ctx)
	}
	return result
}

func (c *Checker) observeLocked(ctx context.Context, desc Descriptor) ProbeResult {
	result := ProbeResult{Descriptor: desc, Previous: c.lastSeen}

	switch {
	case !c.hasLastSeen:
		c.lastSeen, c.hasLastSeen = desc, true
		result.Outcome = Baseline
		c.logger.Info("Version baseline recorded", "descriptor", desc)
		return result
	case desc == c.lastSeen:
		result.Outcome = Unchanged
		return result
	}

	result.Outcome = Changed
	c.lastSeen = desc

	changed, err := c.machine.fire(ctx, eventDetect)
	if err != nil {
		c.logger.Error(err, "State transition failed", "event", eventDetect)
	}
	if !changed {
		// Already pending: the running reminder covers the newer build too.
		c.logger.Debug("Newer build while update pending", "descriptor", desc)
		return result
	}

	c.armReminderLocked()
	result.Notified = true
	return result
}

// Notify shows the update notice once.
func (c *Checker) Notify(ctx context.Context) {
	c.mu.Lock()
	desc := c.lastSeen
	c.mu.Unlock()

	notice := Notice{
		Title:              c.cfg.NoticeTitle,
		Body:               c.cfg.NoticeBody,
		PrimaryActionLabel: c.cfg.NoticeActionLabel,
		OnPrimaryAction:    c.Acknowledge,
		DisplayDuration:    c.cfg.NoticeDuration,
		Descriptor:         desc,
	}

	if err := c.noticer.ShowNotice(ctx, notice); err != nil {
		metrics.NoticeTotal.WithLabelValues(metrics.StatusFailed).Inc()
		c.logger.Error(err, "Failed to show update notice", "descriptor", desc)
		return
	}
	metrics.NoticeTotal.WithLabelValues(metrics.StatusSuccess).Inc()
}

// ArmReminder starts the reminder ticker. It returns false when the ticker is already running
// or no update is pending. Reminders run under the context given to Start.
func (c *Checker) ArmReminder() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.armReminderLocked()
}

func (c *Checker) armReminderLocked() bool {
	if c.reminder != nil || !c.machine.pending() {
		return false
	}
	ctx := c.session
	c.reminder = startTicking(c.clock, c.cfg.ReminderInterval, func() { c.remind(ctx) })
	return true
}

func (c *Checker) remind(ctx context.Context) {
	c.mu.Lock()
	pending := c.machine.pending()
	c.mu.Unlock()

	if pending {
		c.Notify(ctx)
	}
}

func (c *Checker) stopReminderLocked() {
	if c.reminder != nil {
		c.reminder.cancel()
		c.reminder = nil
	}
}

// Acknowledge clears the pending update, cancels the reminder, forgets the baseline and reloads
// the storefront bypassing caches. It is the only way out of the pending state.
func (c *Checker) Acknowledge(ctx context.Context) error {
	c.mu.Lock()
	if _, err := c.machine.fire(ctx, eventAcknowledge); err != nil {
		c.logger.Error(err, "State transition failed", "event", eventAcknowledge)
	}
	c.stopReminderLocked()
	desc := c.lastSeen
	// The reloaded storefront starts from scratch, so the next probe sets a fresh baseline.
	c.lastSeen, c.hasLastSeen = "", false
	c.mu.Unlock()

	c.logger.Info("Update acknowledged, reloading storefront", "descriptor", desc)

	if err := c.reloader.Reload(ctx, ReloadRequest{BypassCache: true, Descriptor: desc}); err != nil {
		metrics.ReloadTotal.WithLabelValues(metrics.StatusFailed).Inc()
		return fmt.Errorf("reload storefront: %w", err)
	}
	metrics.ReloadTotal.WithLabelValues(metrics.StatusSuccess).Inc()
	return nil
}

// Teardown stops both tickers and returns the machine to baseline. The last seen descriptor
// is kept so Status still reports it. Probes still in flight are discarded when they return;
// Start begins a new lifecycle.
func (c *Checker) Teardown() {
	c.mu.Lock()
	c.generation++
	c.tornDown = true
	if c.poll != nil {
		c.poll.cancel()
		c.poll = nil
	}
	c.stopReminderLocked()
	if _, err := c.machine.fire(context.Background(), eventReset); err != nil {
		c.logger.Error(err, "State transition failed", "event", eventReset)
	}
	c.mu.Unlock()

	c.logger.Info("Update checker torn down")
}

// Wait blocks until every asynchronous probe has returned.
func (c *Checker) Wait() {
	c.probes.Wait()
}

// Status returns a snapshot of the check state.
func (c *Checker) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()

	return Status{
		State:         c.machine.Current(),
		LastSeen:      c.lastSeen,
		HasLastSeen:   c.hasLastSeen,
		UpdatePending: c.machine.pending(),
		Polling:       c.poll != nil,
		Reminding:     c.reminder != nil,
	}
}

// ticking owns one ticker and the goroutine reading it.
type ticking struct {
	ticker clock.Ticker
	stop   chan struct{}
}

func startTicking(clk clock.WithTicker, every time.Duration, fn func()) *ticking {
	t := &ticking{
		ticker: clk.NewTicker(every),
		stop:   make(chan struct{}),
	}
	go func() {
		for {
			select {
			case <-t.stop:
				return
			case <-t.ticker.C():
				// A tick racing with cancel must not run.
				select {
				case <-t.stop:
					return
				default:
				}
				fn()
			}
		}
	}()
	return t
}

// cancel stops the ticker without waiting for a tick already being handled.
func (t *ticking) cancel() {
	t.ticker.Stop()
	close(t.stop)
}
