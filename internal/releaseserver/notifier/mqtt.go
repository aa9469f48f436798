package notifier

import (
	"context"
	"encoding/json"

	"github.com/vitrine-io/vitrine/internal/releaseserver/core"
	apiv1 "github.com/vitrine-io/vitrine/pkg/api/v1"
	pkgmqtt "github.com/vitrine-io/vitrine/pkg/mqtt"
	"github.com/vitrine-io/vitrine/pkg/mqtt/topic"
)

// MQTTAnnouncer publishes releases on {root}/release so agents probe immediately.
type MQTTAnnouncer struct {
	client pkgmqtt.Client
	topics *topic.TopicBuilder
}

var _ core.Announcer = (*MQTTAnnouncer)(nil)

func NewMQTTAnnouncer(client pkgmqtt.Client, topics *topic.TopicBuilder) *MQTTAnnouncer {
	return &MQTTAnnouncer{client: client, topics: topics}
}

func (n *MQTTAnnouncer) Announce(ctx context.Context, release core.Release) error {
	payload, err := json.Marshal(apiv1.ReleaseAnnouncement{
		Version:    release.Version,
		Build:      release.Build,
		Descriptor: release.Descriptor,
	})
	if err != nil {
		return err
	}

	return n.client.Publish(ctx, n.topics.Release(), 1, false, payload)
}
