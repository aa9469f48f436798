package core

import (
	"time"

	"github.com/vitrine-io/vitrine/internal/updatecheck"
)

// VisibleNotice is a notice as a storefront shell should render it.
type VisibleNotice struct {
	Title       string                 `json:"title"`
	Body        string                 `json:"body"`
	ActionLabel string                 `json:"actionLabel"`
	Descriptor  updatecheck.Descriptor `json:"descriptor"`
	ShownAt     time.Time              `json:"shownAt"`
	ExpiresAt   time.Time              `json:"expiresAt"`
}
