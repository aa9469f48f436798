package server

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManagerStopsAllOnFailure(t *testing.T) {
	boom := errors.New("listen failed")
	var stopped atomic.Int32

	blocking := ServerFunc(func(ctx context.Context) error {
		<-ctx.Done()
		stopped.Add(1)
		return nil
	})
	failing := ServerFunc(func(ctx context.Context) error { return boom })

	m := NewManager(blocking, nil, failing, blocking)

	done := make(chan error, 1)
	go func() { done <- m.Start(t.Context()) }()

	select {
	case err := <-done:
		require.ErrorIs(t, err, boom)
	case <-time.After(2 * time.Second):
		t.Fatal("manager did not return")
	}
	assert.Equal(t, int32(2), stopped.Load())
}

func TestManagerStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(t.Context())
	m := NewManager(ServerFunc(func(ctx context.Context) error {
		<-ctx.Done()
		return nil
	}))

	cancel()
	assert.NoError(t, m.Start(ctx))
}
