package updateagent

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vitrine-io/vitrine/internal/updatecheck"
	"github.com/vitrine-io/vitrine/pkg/mqtt"
	"github.com/vitrine-io/vitrine/pkg/mqtt/mqtttest"
	"github.com/vitrine-io/vitrine/pkg/options"
	"github.com/vitrine-io/vitrine/pkg/version"
)

// versionServer serves {"version":<n>,"build":"a"} where n is whatever the test stored.
func versionServer(t *testing.T) (*httptest.Server, *atomic.Int64) {
	t.Helper()
	var version atomic.Int64
	version.Store(1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `{"version":%d,"build":"a"}`, version.Load())
	}))
	t.Cleanup(srv.Close)
	return srv, &version
}

func testConfig(versionURL string) *Config {
	cfg := &Config{
		HttpOptions:   options.NewHttpOptions(),
		MqttOptions:   options.NewMqttOptions(),
		UpdateOptions: options.NewUpdateOptions(),
		NoticeOptions: options.NewNoticeOptions(),
		ReloadOptions: options.NewReloadOptions(),
		SessionID:     "kiosk-1",
	}
	cfg.HttpOptions.Addr = "127.0.0.1:0"
	cfg.UpdateOptions.VersionURL = versionURL
	cfg.UpdateOptions.PollInterval = time.Hour
	return cfg
}

func TestAgentDetectsAndAcknowledges(t *testing.T) {
	srv, version := versionServer(t)
	agent, err := testConfig(srv.URL + "/version.json").NewAgent()
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(t.Context())
	done := make(chan error, 1)
	go func() { done <- agent.Run(ctx) }()

	require.Eventually(t, func() bool { return agent.checker.Status().HasLastSeen }, 2*time.Second, 5*time.Millisecond)
	assert.Equal(t, updatecheck.Descriptor("1-a"), agent.checker.Status().LastSeen)

	version.Store(2)
	res := agent.checker.ProbeOnce(t.Context())
	require.Equal(t, updatecheck.Changed, res.Outcome)
	require.True(t, res.Notified)
	assert.True(t, agent.checker.Status().Reminding)

	require.NoError(t, agent.checker.Acknowledge(t.Context()))
	assert.False(t, agent.checker.Status().UpdatePending)

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("agent did not stop")
	}
	assert.False(t, agent.checker.Status().Polling)
}

func TestAgentWithMQTT(t *testing.T) {
	srv, _ := versionServer(t)
	client := mqtttest.NewClient()

	cfg := testConfig(srv.URL)
	cfg.MqttOptions.Enabled = true
	cfg.NoticeOptions.Sinks = []string{options.NoticeSinkMQTT}
	cfg.ReloadOptions.Mode = options.ReloadModeMQTT

	var gotCfg *mqtt.ClientConfig
	cfg.newMQTTClient = func(c *mqtt.ClientConfig) (mqtt.Client, error) {
		gotCfg = c
		return client, nil
	}

	agent, err := cfg.NewAgent()
	require.NoError(t, err)
	require.NotNil(t, gotCfg)
	assert.Equal(t, "vitrine-agent-kiosk-1", gotCfg.ClientID)
	assert.Equal(t, "vitrine/v1/status/kiosk-1", gotCfg.WillTopic)
	assert.True(t, gotCfg.WillRetain)

	require.NoError(t, agent.checker.Acknowledge(t.Context()))
	msgs := client.Published()
	require.Len(t, msgs, 1)
	assert.Equal(t, "vitrine/v1/reload/kiosk-1", msgs[0].Topic)
}

func TestNewAgentRejectsMQTTBackendsWithoutMQTT(t *testing.T) {
	cfg := testConfig("http://localhost/version.json")
	cfg.NoticeOptions.Sinks = []string{options.NoticeSinkMQTT}
	_, err := cfg.NewAgent()
	assert.ErrorContains(t, err, "notice sink mqtt")

	cfg = testConfig("http://localhost/version.json")
	cfg.ReloadOptions.Mode = options.ReloadModeMQTT
	_, err = cfg.NewAgent()
	assert.ErrorContains(t, err, "reload mode mqtt")
}

func TestNewAgentRejectsBadVersionURL(t *testing.T) {
	_, err := testConfig("ftp://localhost/version.json").NewAgent()
	assert.Error(t, err)
}

func TestBoardOnlyWithBoardSink(t *testing.T) {
	board := newBoard([]string{options.NoticeSinkLog})
	assert.Nil(t, board)
	assert.Nil(t, noticeBoard(board), "a disabled board must be a nil interface")

	board = newBoard([]string{options.NoticeSinkLog, options.NoticeSinkBoard})
	require.NotNil(t, board)
	assert.NotNil(t, noticeBoard(board))
}

func TestAgentWithoutBoardAcknowledges(t *testing.T) {
	srv, _ := versionServer(t)
	cfg := testConfig(srv.URL)
	cfg.NoticeOptions.Sinks = []string{options.NoticeSinkLog}

	agent, err := cfg.NewAgent()
	require.NoError(t, err)
	require.NoError(t, agent.checker.Acknowledge(t.Context()))
}

func TestUserAgentCarriesVersion(t *testing.T) {
	assert.Equal(t, "vitrine-update-agent/"+version.Get().GitVersion, userAgent())
}
