package updateagent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"

	"github.com/vitrine-io/vitrine/internal/pkg/server"
	"github.com/vitrine-io/vitrine/internal/updateagent/core"
	"github.com/vitrine-io/vitrine/internal/updateagent/notifier"
	"github.com/vitrine-io/vitrine/internal/updateagent/reloader"
	httpserver "github.com/vitrine-io/vitrine/internal/updateagent/server/http"
	mqttserver "github.com/vitrine-io/vitrine/internal/updateagent/server/mqtt"
	"github.com/vitrine-io/vitrine/internal/updatecheck"
	apiv1 "github.com/vitrine-io/vitrine/pkg/api/v1"
	"github.com/vitrine-io/vitrine/pkg/log"
	"github.com/vitrine-io/vitrine/pkg/mqtt"
	mqtttopic "github.com/vitrine-io/vitrine/pkg/mqtt/topic"
	"github.com/vitrine-io/vitrine/pkg/options"
	"github.com/vitrine-io/vitrine/pkg/version"
)

// Config is the agent's validated configuration.
type Config struct {
	HttpOptions   *options.HttpOptions
	MqttOptions   *options.MqttOptions
	UpdateOptions *options.UpdateOptions
	NoticeOptions *options.NoticeOptions
	ReloadOptions *options.ReloadOptions

	// SessionID overrides discovery when set.
	SessionID string

	// newMQTTClient is replaced in tests.
	newMQTTClient func(cfg *mqtt.ClientConfig) (mqtt.Client, error)
}

// NewAgent builds the checker with its boundaries and the servers around it.
func (cfg *Config) NewAgent() (*Agent, error) {
	sid := cfg.SessionID
	if sid == "" {
		sid = DiscoverSessionID()
	}
	if sid == "" {
		return nil, errors.New("unable to determine the storefront session ID")
	}
	logger := log.WithValues("session", sid)

	// 1. Version probe
	fetcher, err := updatecheck.NewHTTPFetcher(
		cfg.UpdateOptions.VersionURL,
		cfg.UpdateOptions.FetchTimeout,
		updatecheck.WithCacheBustParam(cfg.UpdateOptions.CacheBustParam),
		updatecheck.WithUserAgent(userAgent()),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to init version fetcher: %w", err)
	}

	// 2. Optional MQTT transport shared by the notice sink, the reloader and the ingress.
	var (
		mqttClient mqtt.Client
		topics     *mqtttopic.TopicBuilder
	)
	if cfg.MqttOptions.Enabled {
		mqttClient, topics, err = cfg.initMqttClientAndTopicBuilder(sid)
		if err != nil {
			return nil, fmt.Errorf("failed to init mqtt client: %w", err)
		}
	}

	// 3. Boundaries
	board := newBoard(cfg.NoticeOptions.Sinks)
	noticer, err := cfg.newNoticer(logger, board, mqttClient, topics, sid)
	if err != nil {
		return nil, err
	}
	reload, err := cfg.newReloader(logger, mqttClient, topics, sid)
	if err != nil {
		return nil, err
	}
	clearing := reload
	if board != nil {
		clearing = updatecheck.ReloaderFunc(func(ctx context.Context, req updatecheck.ReloadRequest) error {
			board.Clear()
			return reload.Reload(ctx, req)
		})
	}

	// 4. Core
	checker := updatecheck.New(updatecheck.Config{
		PollInterval:      cfg.UpdateOptions.PollInterval,
		ReminderInterval:  cfg.UpdateOptions.ReminderInterval,
		NoticeDuration:    cfg.UpdateOptions.NoticeDuration,
		NoticeTitle:       cfg.NoticeOptions.Title,
		NoticeBody:        cfg.NoticeOptions.Body,
		NoticeActionLabel: cfg.NoticeOptions.ActionLabel,
	}, fetcher, noticer, clearing, updatecheck.WithLogger(logger.WithName("updatecheck")))

	// 5. Ingress
	servers := []server.Server{
		server.ServerFunc(func(ctx context.Context) error {
			checker.Start(ctx)
			<-ctx.Done()
			checker.Teardown()
			checker.Wait()
			return nil
		}),
		httpserver.NewServer(cfg.HttpOptions, checker, noticeBoard(board)),
	}
	if mqttClient != nil {
		servers = append(servers, mqttserver.NewServer(mqttClient, topics, sid, checker))
	}

	return NewAgent(sid, checker, server.NewManager(servers...)), nil
}

// newBoard returns the in-memory notice board, or nil when the board sink is disabled.
func newBoard(sinks []string) *notifier.Board {
	if !slices.Contains(sinks, options.NoticeSinkBoard) {
		return nil
	}
	return notifier.NewBoard(nil)
}

// noticeBoard keeps a nil board a nil interface for the HTTP server.
func noticeBoard(board *notifier.Board) core.NoticeBoard {
	if board == nil {
		return nil
	}
	return board
}

func userAgent() string {
	return "vitrine-update-agent/" + version.Get().GitVersion
}

func (cfg *Config) newNoticer(logger log.Logger, board *notifier.Board, client mqtt.Client, topics *mqtttopic.TopicBuilder, sid string) (updatecheck.Noticer, error) {
	var sinks []notifier.Named
	for _, name := range cfg.NoticeOptions.Sinks {
		switch name {
		case options.NoticeSinkLog:
			sinks = append(sinks, notifier.Named{Name: name, Noticer: notifier.NewLogNoticer(logger.WithName("notice"))})
		case options.NoticeSinkBoard:
			sinks = append(sinks, notifier.Named{Name: name, Noticer: board})
		case options.NoticeSinkMQTT:
			if client == nil {
				return nil, errors.New("notice sink mqtt requires --mqtt.enabled")
			}
			sinks = append(sinks, notifier.Named{Name: name, Noticer: notifier.NewMQTTNoticer(client, topics, sid)})
		default:
			return nil, fmt.Errorf("unknown notice sink %q", name)
		}
	}
	return notifier.NewFanout(sinks...), nil
}

func (cfg *Config) newReloader(logger log.Logger, client mqtt.Client, topics *mqtttopic.TopicBuilder, sid string) (updatecheck.Reloader, error) {
	switch cfg.ReloadOptions.Mode {
	case options.ReloadModeLog:
		return reloader.NewLogReloader(logger.WithName("reload")), nil
	case options.ReloadModeMQTT:
		if client == nil {
			return nil, errors.New("reload mode mqtt requires --mqtt.enabled")
		}
		return reloader.NewMQTTReloader(client, topics, sid), nil
	case options.ReloadModeCommand:
		return reloader.NewCommandReloader(cfg.ReloadOptions.Command, cfg.ReloadOptions.Timeout, logger.WithName("reload")), nil
	default:
		return nil, fmt.Errorf("unknown reload mode %q", cfg.ReloadOptions.Mode)
	}
}

func (cfg *Config) initMqttClientAndTopicBuilder(sid string) (mqtt.Client, *mqtttopic.TopicBuilder, error) {
	topicBuilder := mqtttopic.NewTopicBuilder(cfg.MqttOptions.TopicRoot)

	mqttConfig := cfg.MqttOptions.ToClientConfig()
	if mqttConfig.ClientID == "" {
		mqttConfig.ClientID = fmt.Sprintf("vitrine-agent-%s", sid)
	}

	offlinePayload, _ := json.Marshal(apiv1.OnlineStatus{
		SessionID: sid,
		Online:    false,
		Reason:    "UnexpectedDisconnect",
	})
	mqttConfig.WillTopic = topicBuilder.Status(sid)
	mqttConfig.WillPayload = offlinePayload
	mqttConfig.WillQoS = 1
	mqttConfig.WillRetain = true

	newClient := cfg.newMQTTClient
	if newClient == nil {
		newClient = mqtt.NewClient
	}
	mqttClient, err := newClient(mqttConfig)
	if err != nil {
		return nil, nil, err
	}

	return mqttClient, topicBuilder, nil
}
