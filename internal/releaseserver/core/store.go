package core

import (
	"context"
	"errors"
)

// ErrNotPublished is returned by a Store that holds no version document yet.
var ErrNotPublished = errors.New("no version document published")

// Store keeps the raw version document served to storefronts.
type Store interface {
	Load(ctx context.Context) ([]byte, error)
	Save(ctx context.Context, doc []byte) error
}

// Announcer tells listening agents that a release just went out.
type Announcer interface {
	Announce(ctx context.Context, release Release) error
}

// Release describes one published build.
type Release struct {
	Version    string
	Build      string
	Descriptor string
}
