package updatecheck

import (
	"context"
	"time"
)

// Outcome classifies a probe cycle.
type Outcome int

const (
	// Indeterminate means the cycle produced no usable information: a failed fetch, or a
	// result that arrived after Teardown. State is left untouched.
	Indeterminate Outcome = iota
	// Baseline means this was the first successful probe; it never notifies.
	Baseline
	// Unchanged means the descriptor equals the last seen one.
	Unchanged
	// Changed means the descriptor differs from the last seen one.
	Changed
)

func (o Outcome) String() string {
	switch o {
	case Baseline:
		return "baseline"
	case Unchanged:
		return "unchanged"
	case Changed:
		return "changed"
	default:
		return "indeterminate"
	}
}

// ProbeResult is the soft-fail result of one probe cycle.
type ProbeResult struct {
	Outcome    Outcome
	Descriptor Descriptor
	// Previous is the descriptor seen before this cycle, if any.
	Previous Descriptor
	// Notified is true when this cycle opened a new pending update and showed the first notice.
	Notified bool
	// Err explains an Indeterminate outcome.
	Err error
}

// Notice is what the checker asks the UI layer to display.
type Notice struct {
	Title              string
	Body               string
	PrimaryActionLabel string
	// OnPrimaryAction acknowledges the update and reloads the storefront.
	OnPrimaryAction func(ctx context.Context) error
	DisplayDuration time.Duration
	// Descriptor is the build the notice is about.
	Descriptor Descriptor
}

// Noticer shows a transient notice. Expiry only hides the notice; it has no effect on state.
type Noticer interface {
	ShowNotice(ctx context.Context, notice Notice) error
}

// NoticerFunc adapts a function to Noticer.
type NoticerFunc func(ctx context.Context, notice Notice) error

func (f NoticerFunc) ShowNotice(ctx context.Context, notice Notice) error { return f(ctx, notice) }

// ReloadRequest asks the platform to reload the storefront.
type ReloadRequest struct {
	// BypassCache is always true: a reload must fetch the new assets.
	BypassCache bool
	Descriptor  Descriptor
}

// Reloader reloads the current application.
type Reloader interface {
	Reload(ctx context.Context, req ReloadRequest) error
}

// ReloaderFunc adapts a function to Reloader.
type ReloaderFunc func(ctx context.Context, req ReloadRequest) error

func (f ReloaderFunc) Reload(ctx context.Context, req ReloadRequest) error { return f(ctx, req) }

// Status is a point-in-time view of a Checker.
type Status struct {
	State         string     `json:"state"`
	LastSeen      Descriptor `json:"lastSeen,omitempty"`
	HasLastSeen   bool       `json:"hasLastSeen"`
	UpdatePending bool       `json:"updatePending"`
	Polling       bool       `json:"polling"`
	Reminding     bool       `json:"reminding"`
}
