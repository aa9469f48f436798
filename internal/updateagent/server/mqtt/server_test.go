package mqtt

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vitrine-io/vitrine/internal/updatecheck"
	apiv1 "github.com/vitrine-io/vitrine/pkg/api/v1"
	"github.com/vitrine-io/vitrine/pkg/mqtt/mqtttest"
	"github.com/vitrine-io/vitrine/pkg/mqtt/topic"
)

type fakeService struct {
	mu     sync.Mutex
	acks   int
	probes int
}

func (f *fakeService) Status() updatecheck.Status { return updatecheck.Status{} }

func (f *fakeService) ProbeOnce(ctx context.Context) updatecheck.ProbeResult {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.probes++
	return updatecheck.ProbeResult{Outcome: updatecheck.Changed}
}

func (f *fakeService) Acknowledge(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.acks++
	return nil
}

func (f *fakeService) counts() (int, int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.acks, f.probes
}

func startServer(t *testing.T) (*mqtttest.Client, *fakeService, context.CancelFunc, <-chan error) {
	t.Helper()

	client := mqtttest.NewClient()
	svc := &fakeService{}
	srv := NewServer(client, topic.NewTopicBuilder("vitrine/v1"), "kiosk-1", svc)

	ctx, cancel := context.WithCancel(t.Context())
	done := make(chan error, 1)
	go func() { done <- srv.Start(ctx) }()

	require.Eventually(t, func() bool {
		return client.Subscribed("vitrine/v1/ack/kiosk-1") && client.Subscribed("vitrine/v1/release")
	}, 2*time.Second, 5*time.Millisecond)
	return client, svc, cancel, done
}

func TestAckTriggersAcknowledge(t *testing.T) {
	client, svc, cancel, done := startServer(t)
	defer cancel()

	assert.Equal(t, 1, client.Deliver(t.Context(), "vitrine/v1/ack/kiosk-1", nil))
	assert.Equal(t, 1, client.Deliver(t.Context(), "vitrine/v1/ack/kiosk-1", []byte(`{"descriptor":"2-a"}`)))
	assert.Zero(t, client.Deliver(t.Context(), "vitrine/v1/ack/kiosk-2", nil), "other sessions are ignored")

	acks, probes := svc.counts()
	assert.Equal(t, 2, acks)
	assert.Zero(t, probes)

	cancel()
	require.NoError(t, <-done)
}

func TestReleaseTriggersProbe(t *testing.T) {
	client, svc, cancel, done := startServer(t)
	defer cancel()

	payload, err := json.Marshal(apiv1.ReleaseAnnouncement{Version: "2", Build: "a", Descriptor: "2-a"})
	require.NoError(t, err)
	client.Deliver(t.Context(), "vitrine/v1/release", payload)
	client.Deliver(t.Context(), "vitrine/v1/release", []byte("garbage"))

	_, probes := svc.counts()
	assert.Equal(t, 1, probes)

	cancel()
	require.NoError(t, <-done)
}

func TestOnlineStatus(t *testing.T) {
	client, _, cancel, done := startServer(t)

	require.Eventually(t, func() bool { return len(client.Published()) == 1 }, 2*time.Second, 5*time.Millisecond)
	cancel()
	require.NoError(t, <-done)

	msgs := client.Published()
	require.Len(t, msgs, 2)
	for i, want := range []bool{true, false} {
		assert.Equal(t, "vitrine/v1/status/kiosk-1", msgs[i].Topic)
		assert.True(t, msgs[i].Retain)

		var st apiv1.OnlineStatus
		require.NoError(t, json.Unmarshal(msgs[i].Payload, &st))
		assert.Equal(t, want, st.Online)
	}
	assert.False(t, client.IsConnected())
}
