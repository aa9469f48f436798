package reloader

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vitrine-io/vitrine/internal/updatecheck"
	apiv1 "github.com/vitrine-io/vitrine/pkg/api/v1"
	"github.com/vitrine-io/vitrine/pkg/log"
	"github.com/vitrine-io/vitrine/pkg/mqtt/mqtttest"
	"github.com/vitrine-io/vitrine/pkg/mqtt/topic"
)

var req = updatecheck.ReloadRequest{BypassCache: true, Descriptor: "2-a"}

func TestMQTTReloader(t *testing.T) {
	client := mqtttest.NewClient()
	r := NewMQTTReloader(client, topic.NewTopicBuilder("vitrine/v1"), "pos-7")

	require.NoError(t, r.Reload(t.Context(), req))

	msgs := client.Published()
	require.Len(t, msgs, 1)
	assert.Equal(t, "vitrine/v1/reload/pos-7", msgs[0].Topic)

	var got apiv1.ReloadMessage
	require.NoError(t, json.Unmarshal(msgs[0].Payload, &got))
	assert.True(t, got.BypassCache)
	assert.Equal(t, "2-a", got.Descriptor)
}

func TestCommandReloader(t *testing.T) {
	out := filepath.Join(t.TempDir(), "reloaded")
	r := NewCommandReloader(`printf "%s %s" "$VITRINE_DESCRIPTOR" "$VITRINE_BYPASS_CACHE" > `+out, time.Second, log.NewNopLogger())

	require.NoError(t, r.Reload(t.Context(), req))

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, "2-a true", string(data))
}

func TestCommandReloaderFailure(t *testing.T) {
	r := NewCommandReloader("echo cannot restart browser >&2; exit 3", time.Second, log.NewNopLogger())

	err := r.Reload(t.Context(), req)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cannot restart browser")
}

func TestCommandReloaderTimeout(t *testing.T) {
	r := NewCommandReloader("exec sleep 5", 50*time.Millisecond, log.NewNopLogger())
	assert.Error(t, r.Reload(t.Context(), req))
}

func TestLogReloader(t *testing.T) {
	assert.NoError(t, NewLogReloader(log.NewNopLogger()).Reload(t.Context(), req))
}
