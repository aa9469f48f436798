package releaseserver

import (
	"context"
	"fmt"
	"os"

	"github.com/vitrine-io/vitrine/internal/pkg/server"
	"github.com/vitrine-io/vitrine/internal/releaseserver/core"
	"github.com/vitrine-io/vitrine/internal/releaseserver/notifier"
	httpserver "github.com/vitrine-io/vitrine/internal/releaseserver/server/http"
	"github.com/vitrine-io/vitrine/internal/releaseserver/store"
	"github.com/vitrine-io/vitrine/pkg/log"
	"github.com/vitrine-io/vitrine/pkg/mqtt"
	mqtttopic "github.com/vitrine-io/vitrine/pkg/mqtt/topic"
	"github.com/vitrine-io/vitrine/pkg/options"
)

type Config struct {
	HttpOptions    *options.HttpOptions
	MqttOptions    *options.MqttOptions
	S3Options      *options.S3Options
	ReleaseOptions *options.ReleaseOptions
}

// NewReleaseServer wires the store, the optional MQTT announcer and the HTTP server.
func (cfg *Config) NewReleaseServer() (*ReleaseServer, error) {
	st, watcher, err := cfg.newStore()
	if err != nil {
		return nil, err
	}

	var (
		announcer  core.Announcer
		mqttClient mqtt.Client
	)
	if cfg.MqttOptions.Enabled {
		mqttClient, err = cfg.newMqttClient()
		if err != nil {
			return nil, fmt.Errorf("failed to init mqtt client: %w", err)
		}
		announcer = notifier.NewMQTTAnnouncer(mqttClient, mqtttopic.NewTopicBuilder(cfg.MqttOptions.TopicRoot))
	}

	publisher := core.NewPublisher(st, announcer, nil)

	servers := []server.Server{
		httpserver.NewServer(cfg.HttpOptions, cfg.ReleaseOptions, st, publisher),
		watcher,
	}
	if mqttClient != nil {
		servers = append(servers, server.ServerFunc(func(ctx context.Context) error {
			return runMqttClient(ctx, mqttClient)
		}))
	}

	return &ReleaseServer{
		manager:   server.NewManager(servers...),
		publisher: publisher,
	}, nil
}

// NewPublisher builds a publisher for one-shot use from the command line. Releases are announced
// when MQTT is enabled; the returned function releases the MQTT connection.
func (cfg *Config) NewPublisher(ctx context.Context) (*core.Publisher, func(), error) {
	st, _, err := cfg.newStore()
	if err != nil {
		return nil, nil, err
	}

	if !cfg.MqttOptions.Enabled {
		return core.NewPublisher(st, nil, nil), func() {}, nil
	}

	client, err := cfg.newMqttClient()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to init mqtt client: %w", err)
	}
	if err := client.Start(ctx); err != nil {
		return nil, nil, err
	}
	if err := client.AwaitConnection(ctx); err != nil {
		return nil, nil, err
	}

	announcer := notifier.NewMQTTAnnouncer(client, mqtttopic.NewTopicBuilder(cfg.MqttOptions.TopicRoot))
	return core.NewPublisher(st, announcer, nil), func() { client.Disconnect(context.Background()) }, nil
}

// newStore returns the configured store and, for the file store, the watcher keeping it fresh.
func (cfg *Config) newStore() (core.Store, server.Server, error) {
	switch cfg.ReleaseOptions.Store {
	case options.ReleaseStoreFile:
		f := store.NewFile(cfg.ReleaseOptions.FilePath)
		return f, f, nil
	case options.ReleaseStoreS3:
		m, err := store.NewMinIO(cfg.S3Options)
		if err != nil {
			return nil, nil, err
		}
		return m, nil, nil
	default:
		return nil, nil, fmt.Errorf("unknown release store %q", cfg.ReleaseOptions.Store)
	}
}

func (cfg *Config) newMqttClient() (mqtt.Client, error) {
	c := cfg.MqttOptions.ToClientConfig()
	if c.ClientID == "" {
		hostname, _ := os.Hostname()
		c.ClientID = fmt.Sprintf("vitrine-release-%s", hostname)
	}
	return mqtt.NewClient(c)
}

func runMqttClient(ctx context.Context, client mqtt.Client) error {
	if err := client.Start(ctx); err != nil {
		return err
	}
	defer client.Disconnect(context.Background())

	if err := client.AwaitConnection(ctx); err != nil {
		return err
	}
	log.Info("MQTT Connected, announcing releases")

	<-ctx.Done()
	return nil
}
