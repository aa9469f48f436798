package updatecheck

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	testingclock "k8s.io/utils/clock/testing"

	"github.com/vitrine-io/vitrine/pkg/log"
)

const (
	waitFor = 2 * time.Second
	tick    = 5 * time.Millisecond
)

// scriptedFetcher serves whatever descriptor or error the test last set.
type scriptedFetcher struct {
	mu    sync.Mutex
	desc  Descriptor
	err   error
	calls int
}

func (f *scriptedFetcher) set(desc Descriptor, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.desc, f.err = desc, err
}

func (f *scriptedFetcher) Fetch(ctx context.Context) (Descriptor, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return f.desc, f.err
}

func (f *scriptedFetcher) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type recordingNoticer struct {
	mu      sync.Mutex
	notices []Notice
	ctxErrs []error
}

func (n *recordingNoticer) ShowNotice(ctx context.Context, notice Notice) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.notices = append(n.notices, notice)
	n.ctxErrs = append(n.ctxErrs, ctx.Err())
	return ctx.Err()
}

func (n *recordingNoticer) contextErrors() []error {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]error(nil), n.ctxErrs...)
}

func (n *recordingNoticer) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.notices)
}

func (n *recordingNoticer) last() Notice {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.notices[len(n.notices)-1]
}

type recordingReloader struct {
	mu       sync.Mutex
	requests []ReloadRequest
	err      error
}

func (r *recordingReloader) Reload(ctx context.Context, req ReloadRequest) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.requests = append(r.requests, req)
	return r.err
}

func (r *recordingReloader) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.requests)
}

type fixture struct {
	clock    *testingclock.FakeClock
	fetcher  *scriptedFetcher
	noticer  *recordingNoticer
	reloader *recordingReloader
	checker  *Checker
}

func newFixture(t *testing.T, desc Descriptor) *fixture {
	t.Helper()

	f := &fixture{
		clock:    testingclock.NewFakeClock(time.Unix(0, 0)),
		fetcher:  &scriptedFetcher{desc: desc},
		noticer:  &recordingNoticer{},
		reloader: &recordingReloader{},
	}
	f.checker = New(DefaultConfig(), f.fetcher, f.noticer, f.reloader,
		WithClock(f.clock), WithLogger(log.NewNopLogger()))
	t.Cleanup(func() {
		f.checker.Teardown()
		f.checker.Wait()
	})
	return f
}

// seedPending drives the checker to a pending update with lastSeen = next.
func (f *fixture) seedPending(t *testing.T, first, next Descriptor) {
	t.Helper()
	f.fetcher.set(first, nil)
	require.Equal(t, Baseline, f.checker.ProbeOnce(t.Context()).Outcome)
	f.fetcher.set(next, nil)
	require.True(t, f.checker.ProbeOnce(t.Context()).Notified)
}

func TestBaselineSuppression(t *testing.T) {
	for _, desc := range []Descriptor{"1-a", "100", "anything"} {
		f := newFixture(t, desc)

		res := f.checker.ProbeOnce(t.Context())
		assert.Equal(t, Baseline, res.Outcome)
		assert.False(t, res.Notified)
		assert.Zero(t, f.noticer.count())

		st := f.checker.Status()
		assert.True(t, st.HasLastSeen)
		assert.Equal(t, desc, st.LastSeen)
		assert.False(t, st.UpdatePending)
	}
}

func TestChangeDetection(t *testing.T) {
	f := newFixture(t, "100-abc")
	require.Equal(t, Baseline, f.checker.ProbeOnce(t.Context()).Outcome)

	f.fetcher.set("101-abc", nil)
	res := f.checker.ProbeOnce(t.Context())

	assert.Equal(t, Changed, res.Outcome)
	assert.Equal(t, Descriptor("100-abc"), res.Previous)
	assert.True(t, res.Notified)
	assert.Equal(t, 1, f.noticer.count())

	st := f.checker.Status()
	assert.True(t, st.UpdatePending)
	assert.True(t, st.Reminding)
	assert.Equal(t, StatePending, st.State)
	assert.Equal(t, Descriptor("101-abc"), st.LastSeen)

	notice := f.noticer.last()
	assert.Equal(t, DefaultNoticeTitle, notice.Title)
	assert.Equal(t, DefaultNoticeActionLabel, notice.PrimaryActionLabel)
	assert.Equal(t, 10*time.Second, notice.DisplayDuration)
	assert.Equal(t, Descriptor("101-abc"), notice.Descriptor)
	assert.NotNil(t, notice.OnPrimaryAction)
}

func TestUnchangedProbe(t *testing.T) {
	f := newFixture(t, "1-a")
	f.checker.ProbeOnce(t.Context())

	res := f.checker.ProbeOnce(t.Context())
	assert.Equal(t, Unchanged, res.Outcome)
	assert.False(t, res.Notified)
	assert.Zero(t, f.noticer.count())
}

func TestDedupWhilePending(t *testing.T) {
	f := newFixture(t, "")
	f.seedPending(t, "100-abc", "101-abc")
	require.Equal(t, 1, f.noticer.count())

	f.fetcher.set("102-abc", nil)
	res := f.checker.ProbeOnce(t.Context())

	assert.Equal(t, Changed, res.Outcome)
	assert.False(t, res.Notified)
	assert.Equal(t, 1, f.noticer.count())
	assert.False(t, f.checker.ArmReminder(), "reminder must already be armed")
	assert.Equal(t, Descriptor("102-abc"), f.checker.Status().LastSeen)
}

func TestReminderRepetition(t *testing.T) {
	f := newFixture(t, "")
	f.seedPending(t, "1-a", "2-a")
	require.Equal(t, 1, f.noticer.count())

	for want := 2; want <= 4; want++ {
		f.clock.Step(30 * time.Second)
		require.Eventually(t, func() bool { return f.noticer.count() == want }, waitFor, tick)
	}

	require.NoError(t, f.checker.Acknowledge(t.Context()))
	assert.False(t, f.clock.HasWaiters(), "reminder ticker must be stopped")

	f.clock.Step(90 * time.Second)
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, 4, f.noticer.count())
}

func TestAcknowledgeResetsState(t *testing.T) {
	f := newFixture(t, "")
	f.seedPending(t, "1-a", "2-a")

	require.NoError(t, f.checker.Acknowledge(t.Context()))

	st := f.checker.Status()
	assert.False(t, st.UpdatePending)
	assert.False(t, st.Reminding)
	assert.Equal(t, StateBaseline, st.State)
	assert.False(t, st.HasLastSeen)

	require.Equal(t, 1, f.reloader.count())
	assert.True(t, f.reloader.requests[0].BypassCache)
	assert.Equal(t, Descriptor("2-a"), f.reloader.requests[0].Descriptor)

	f.clock.Step(time.Minute)
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, 1, f.noticer.count())

	// The reloaded storefront re-baselines on its next probe.
	assert.Equal(t, Baseline, f.checker.ProbeOnce(t.Context()).Outcome)
	assert.Equal(t, 1, f.noticer.count())
}

func TestNoticeActionAcknowledges(t *testing.T) {
	f := newFixture(t, "")
	f.seedPending(t, "1-a", "2-a")

	require.NoError(t, f.noticer.last().OnPrimaryAction(t.Context()))
	assert.False(t, f.checker.Status().UpdatePending)
	assert.Equal(t, 1, f.reloader.count())
}

func TestAcknowledgeReportsReloadFailure(t *testing.T) {
	f := newFixture(t, "")
	f.reloader.err = errors.New("browser gone")
	f.seedPending(t, "1-a", "2-a")

	err := f.checker.Acknowledge(t.Context())
	require.ErrorIs(t, err, f.reloader.err)
	assert.False(t, f.checker.Status().UpdatePending)
}

func TestArmReminderRequiresPending(t *testing.T) {
	f := newFixture(t, "1-a")
	assert.False(t, f.checker.ArmReminder())
	assert.False(t, f.checker.Status().Reminding)
}

func TestIdempotentStartStop(t *testing.T) {
	f := newFixture(t, "1-a")

	assert.False(t, f.checker.Stop(), "stop before start is a no-op")

	require.True(t, f.checker.Start(t.Context()))
	require.False(t, f.checker.Start(t.Context()))
	assert.Equal(t, 1, f.fetcher.count(), "second start must not probe")

	f.clock.Step(30 * time.Second)
	require.Eventually(t, func() bool { return f.fetcher.count() == 2 }, waitFor, tick)
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, 2, f.fetcher.count(), "exactly one poll ticker")

	assert.True(t, f.checker.Stop())
	assert.False(t, f.checker.Stop())
	assert.False(t, f.checker.Status().Polling)

	f.clock.Step(time.Minute)
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, 2, f.fetcher.count())
}

func TestFetchFailureResilience(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{name: "transport", err: errors.New("connection refused")},
		{name: "status", err: ErrUnexpectedStatus},
		{name: "malformed", err: ErrMalformedDocument},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, "1-a")
			f.checker.ProbeOnce(t.Context())
			before := f.checker.Status()

			f.fetcher.set("", tt.err)
			res := f.checker.ProbeOnce(t.Context())

			assert.Equal(t, Indeterminate, res.Outcome)
			assert.ErrorIs(t, res.Err, tt.err)
			assert.Equal(t, before, f.checker.Status())
			assert.Zero(t, f.noticer.count())
		})
	}
}

func TestFetchFailureKeepsPolling(t *testing.T) {
	f := newFixture(t, "")
	f.fetcher.set("", errors.New("offline"))

	require.True(t, f.checker.Start(t.Context()))
	assert.False(t, f.checker.Status().HasLastSeen)

	f.fetcher.set("1-a", nil)
	f.clock.Step(30 * time.Second)
	require.Eventually(t, func() bool { return f.checker.Status().HasLastSeen }, waitFor, tick)
	assert.True(t, f.checker.Status().Polling)
	assert.Zero(t, f.noticer.count())
}

func TestTeardown(t *testing.T) {
	f := newFixture(t, "")
	require.True(t, f.checker.Start(t.Context()))
	f.fetcher.set("2-a", nil)
	require.Equal(t, Changed, f.checker.ProbeOnce(t.Context()).Outcome)

	f.checker.Teardown()

	st := f.checker.Status()
	assert.False(t, st.Polling)
	assert.False(t, st.Reminding)
	assert.False(t, st.UpdatePending)
	assert.False(t, f.clock.HasWaiters())
	assert.Zero(t, f.reloader.count())
}

func TestReminderOutlivesCallerContext(t *testing.T) {
	f := newFixture(t, "1-a")
	require.True(t, f.checker.Start(t.Context()))

	// A change seen through a short-lived context, e.g. an HTTP request.
	reqCtx, cancel := context.WithCancel(t.Context())
	f.fetcher.set("2-a", nil)
	require.True(t, f.checker.ProbeOnce(reqCtx).Notified)
	cancel()

	f.clock.Step(30 * time.Second)
	require.Eventually(t, func() bool { return f.noticer.count() == 2 }, waitFor, tick)
	assert.Equal(t, []error{nil, nil}, f.noticer.contextErrors())
}

func TestTeardownDiscardsInFlightFetch(t *testing.T) {
	clk := testingclock.NewFakeClock(time.Unix(0, 0))
	noticer := &recordingNoticer{}
	reloader := &recordingReloader{}

	var calls atomic.Int32
	fetching := make(chan struct{}, 1)
	release := make(chan struct{})
	fetcher := FetcherFunc(func(ctx context.Context) (Descriptor, error) {
		if calls.Add(1) == 1 {
			return "1-a", nil
		}
		select {
		case fetching <- struct{}{}:
		default:
		}
		<-release
		return "2-a", nil
	})

	c := New(DefaultConfig(), fetcher, noticer, reloader, WithClock(clk), WithLogger(log.NewNopLogger()))
	t.Cleanup(func() {
		c.Teardown()
		c.Wait()
	})
	require.True(t, c.Start(t.Context()))

	results := make(chan ProbeResult, 1)
	go func() { results <- c.ProbeOnce(t.Context()) }()
	<-fetching

	c.Teardown()
	close(release)

	res := <-results
	assert.Equal(t, Indeterminate, res.Outcome)
	assert.ErrorIs(t, res.Err, ErrTornDown)

	st := c.Status()
	assert.Equal(t, StateBaseline, st.State)
	assert.False(t, st.UpdatePending)
	assert.False(t, st.Reminding)
	assert.False(t, st.Polling)
	assert.Equal(t, Descriptor("1-a"), st.LastSeen)
	assert.False(t, clk.HasWaiters(), "no ticker may survive teardown")
	assert.Zero(t, noticer.count())

	// Start opens a new lifecycle and picks the change up.
	require.True(t, c.Start(t.Context()))
	assert.True(t, c.Status().UpdatePending)
	assert.True(t, c.Status().Reminding)
	assert.Equal(t, 1, noticer.count())
}

func TestIndependentCheckers(t *testing.T) {
	a := newFixture(t, "")
	b := newFixture(t, "")
	a.seedPending(t, "1", "2")

	assert.True(t, a.checker.Status().UpdatePending)
	assert.False(t, b.checker.Status().UpdatePending)
	assert.False(t, b.checker.Status().HasLastSeen)
}

// TestScenario walks the timeline: baseline at 0s, unchanged at 30s, new build at 60s,
// reminder at 90s, refresh clicked at 95s, silence at 120s.
func TestScenario(t *testing.T) {
	f := newFixture(t, "1-a")

	// t=0
	require.True(t, f.checker.Start(t.Context()))
	assert.Equal(t, 1, f.fetcher.count())
	assert.Zero(t, f.noticer.count())

	// t=30s
	f.clock.Step(30 * time.Second)
	require.Eventually(t, func() bool { return f.fetcher.count() == 2 }, waitFor, tick)
	f.checker.Wait()
	assert.Zero(t, f.noticer.count())

	// t=60s
	f.fetcher.set("2-a", nil)
	f.clock.Step(30 * time.Second)
	require.Eventually(t, func() bool { return f.noticer.count() == 1 }, waitFor, tick)
	assert.True(t, f.checker.Status().Reminding)

	// t=90s
	f.clock.Step(30 * time.Second)
	require.Eventually(t, func() bool { return f.noticer.count() == 2 && f.fetcher.count() == 4 }, waitFor, tick)
	f.checker.Wait()
	assert.True(t, f.checker.Status().UpdatePending)

	// t=95s
	f.clock.Step(5 * time.Second)
	require.NoError(t, f.noticer.last().OnPrimaryAction(t.Context()))
	st := f.checker.Status()
	assert.False(t, st.UpdatePending)
	assert.False(t, st.Reminding)
	assert.Equal(t, 1, f.reloader.count())

	// t=120s
	f.clock.Step(25 * time.Second)
	require.Eventually(t, func() bool { return f.fetcher.count() == 5 }, waitFor, tick)
	f.checker.Wait()
	assert.Equal(t, 2, f.noticer.count())
	assert.Equal(t, 1, f.reloader.count())
}
